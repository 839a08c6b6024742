package shared

import (
	"context"

	"practice-hub/internal/pkg/errs"
)

// ErrMailTransient marks provider failures worth retrying (throttling, 5xx, network).
var ErrMailTransient = errs.New("transient mail provider failure")

type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

type MailMessage struct {
	To          string
	Subject     string
	Text        string
	Attachments []Attachment
}

// Mailer is the outbound mail capability. Send returns the provider's message id.
type Mailer interface {
	Send(ctx context.Context, msg MailMessage) (string, error)
}
