package mailer

import (
	"context"
	"errors"
	"fmt"

	"github.com/mrz1836/postmark"

	"github.com/ejcarter/paperboy/internal/config"
	"github.com/ejcarter/paperboy/internal/domain"
)

type postmarkSender struct {
	client *postmark.Client
	cfg    config.Mailer
}

// NewPostmarkSender creates a Postmark-backed sender. All tokens and both
// identity addresses are required; failing fast here beats a worker that
// starts and then drops every task into the retry path.
func NewPostmarkSender(cfg config.Mailer) (Sender, error) {
	if cfg.PostmarkServerToken == "" {
		return nil, fmt.Errorf("%w: PostmarkServerToken is required", ErrInvalidConfig)
	}
	if cfg.PostmarkAccountToken == "" {
		return nil, fmt.Errorf("%w: PostmarkAccountToken is required", ErrInvalidConfig)
	}
	if _, err := domain.ParseSubscriberEmail(cfg.SenderEmail); err != nil {
		return nil, fmt.Errorf("%w: SenderEmail must be a valid email address", ErrInvalidConfig)
	}
	if _, err := domain.ParseSubscriberEmail(cfg.ReplyToEmail); err != nil {
		return nil, fmt.Errorf("%w: ReplyToEmail must be a valid email address", ErrInvalidConfig)
	}

	return &postmarkSender{
		client: postmark.NewClient(cfg.PostmarkServerToken, cfg.PostmarkAccountToken),
		cfg:    cfg,
	}, nil
}

// Send delivers the issue through Postmark's transactional API. Both bodies
// are always sent so text-only mail clients keep working.
func (s *postmarkSender) Send(ctx context.Context, recipient, subject, htmlBody, textBody string) error {
	resp, err := s.client.SendEmail(ctx, postmark.Email{
		From:     s.cfg.SenderEmail,
		ReplyTo:  s.cfg.ReplyToEmail,
		To:       recipient,
		Subject:  subject,
		HTMLBody: htmlBody,
		TextBody: textBody,
		Tag:      "newsletter-issue",
	})
	if err != nil {
		return errors.Join(ErrFailedToSend, err)
	}
	if resp.ErrorCode > 0 {
		return errors.Join(ErrFailedToSend, fmt.Errorf("postmark error: %d - %s", resp.ErrorCode, resp.Message))
	}
	return nil
}
