// Package mailer is the outbound email transport. The delivery worker treats
// any send failure as transient; classification beyond that is deliberately
// out of scope.
package mailer

import (
	"context"
	"errors"
)

var (
	ErrFailedToSend  = errors.New("failed to send email")
	ErrInvalidConfig = errors.New("invalid mailer configuration")
)

// Sender delivers one newsletter issue to one recipient. The recipient is
// expected to be already validated by the caller.
type Sender interface {
	Send(ctx context.Context, recipient, subject, htmlBody, textBody string) error
}
