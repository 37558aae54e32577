package email

import (
	"context"

	"github.com/rs/zerolog/log"
)

// Sender delivers a one-time login code to an address. Implement this
// interface to plug in a different delivery provider.
type Sender interface {
	SendCode(ctx context.Context, to, code string) error
}

// LogSender logs the code instead of sending it. Development and test use.
type LogSender struct{}

func (LogSender) SendCode(ctx context.Context, to, code string) error {
	log.Info().Str("to", to).Str("code", code).Msg("verification code (not sent)")
	return nil
}
