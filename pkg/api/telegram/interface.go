package telegram

import "context"

type IEndpoint interface {
	SendMessage(ctx context.Context, chatID, text string) error
}
