package testutil

import (
	"context"
	"sync"
)

// MockTelegramEndpoint records sent messages.
type MockTelegramEndpoint struct {
	mutex    sync.Mutex
	Messages []string

	SendMessageFunc func(ctx context.Context, chatID, text string) error
}

func (m *MockTelegramEndpoint) SendMessage(ctx context.Context, chatID, text string) error {
	if m.SendMessageFunc != nil {
		return m.SendMessageFunc(ctx, chatID, text)
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.Messages = append(m.Messages, text)
	return nil
}

// MockBalanceFetcher returns a fixed balance or a canned error.
type MockBalanceFetcher struct {
	BalanceValue float64
	Err          error
}

func (m *MockBalanceFetcher) Balance(ctx context.Context, address string) (float64, error) {
	if m.Err != nil {
		return 0, m.Err
	}

	return m.BalanceValue, nil
}
