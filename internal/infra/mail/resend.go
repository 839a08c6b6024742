// Package mail sends notification email through the Resend API.
package mail

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"practice-hub/internal/pkg/config"
	"practice-hub/internal/pkg/errs"
	"practice-hub/internal/usecase/shared"

	"github.com/resend/resend-go/v2"
)

var (
	ErrMissingAPIKey = errs.Mark(errs.New("mail api key is not configured"), errs.ErrConfiguration)
	ErrRejected      = errs.New("mail provider rejected the message")
)

// ResendClient adapts the Resend SDK to shared.Mailer and classifies failures
// as transient or permanent for the dispatcher's retry loop.
type ResendClient struct {
	client *resend.Client
	apiKey string
	from   string
}

func NewResendClient(cfg config.MailConfig) *ResendClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	httpClient := &http.Client{
		Transport: statusRecorder{next: &http.Transport{
			MaxIdleConns:    10,
			IdleConnTimeout: 90 * time.Second,
		}},
		Timeout: timeout,
	}

	client := resend.NewCustomClient(httpClient, cfg.APIKey)
	if cfg.BaseURL != "" {
		if base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/") + "/"); err == nil {
			client.BaseURL = base
		} else {
			slog.Warn("invalid mail api base url, using the default", "base_url", cfg.BaseURL, "error", err.Error())
		}
	}
	return &ResendClient{client: client, apiKey: cfg.APIKey, from: cfg.From}
}

func (c *ResendClient) Send(ctx context.Context, msg shared.MailMessage) (string, error) {
	if c.apiKey == "" {
		return "", ErrMissingAPIKey
	}

	req := &resend.SendEmailRequest{
		From:    c.from,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Text:    msg.Text,
	}
	for _, a := range msg.Attachments {
		req.Attachments = append(req.Attachments, &resend.Attachment{
			Filename:    a.Filename,
			Content:     a.Content,
			ContentType: a.ContentType,
		})
	}

	status := new(int)
	start := time.Now()
	resp, err := c.client.Emails.SendWithContext(withStatus(ctx, status), req)
	slog.Debug("mail provider responded", "status", *status, "duration_ms", time.Since(start).Milliseconds())

	if err != nil {
		// no status means the request never got an answer
		if *status == 0 || isTransientStatus(*status) {
			return "", errs.Mark(errs.Wrapf(err, "mail provider status %d", *status), shared.ErrMailTransient)
		}
		return "", errs.Mark(errs.Wrapf(err, "mail provider status %d", *status), ErrRejected)
	}
	if resp == nil || resp.Id == "" {
		return "", errs.Mark(errs.New("mail provider returned no message id"), ErrRejected)
	}
	return resp.Id, nil
}

func isTransientStatus(code int) bool {
	return code == http.StatusTooManyRequests || code == http.StatusRequestTimeout || code >= 500
}

type statusKey struct{}

func withStatus(ctx context.Context, status *int) context.Context {
	return context.WithValue(ctx, statusKey{}, status)
}

// statusRecorder reports the HTTP status back to Send; the SDK folds it into an error string.
type statusRecorder struct {
	next http.RoundTripper
}

func (s statusRecorder) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := s.next.RoundTrip(req)
	if status, ok := req.Context().Value(statusKey{}).(*int); ok && resp != nil {
		*status = resp.StatusCode
	}
	return resp, err
}
