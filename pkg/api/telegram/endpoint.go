package telegram

import (
	"context"
	"errors"
	"fmt"

	"github.com/tonlotto/backend/config"
	"github.com/tonlotto/backend/pkg/api"
)

const apiURL = "https://api.telegram.org"

type Endpoint struct {
	BotToken string

	apiGenerator api.Generator
}

func New(cfg config.TelegramConfigs) *Endpoint {
	return &Endpoint{
		BotToken:     cfg.BotToken,
		apiGenerator: api.NewGenerator(apiURL),
	}
}

func (e *Endpoint) SendMessage(ctx context.Context, chatID, text string) error {
	resp, err := e.apiGenerator.New("/bot%s/sendMessage", e.BotToken).
		Body(api.JSON{
			"chat_id":    chatID,
			"text":       text,
			"parse_mode": "HTML",
		}).
		POST(ctx)
	if err != nil {
		return err
	}

	body, ok := resp.Body.(api.JSON)
	if !ok {
		return errors.New("invalid body type")
	}

	if ok, err := body.GetBool("ok"); err != nil || !ok {
		return fmt.Errorf("telegram rejected the message")
	}

	return nil
}
