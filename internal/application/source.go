package application

import "context"

// CommandSource delivers one utterance at a time, either as recorded audio or
// as text marked with domain.TextCommandPrefix.
type CommandSource interface {
	Start(ctx context.Context) error
	Stop() error
	NextCommand(ctx context.Context) ([]byte, error)
	Name() string
}
