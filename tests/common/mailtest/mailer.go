//go:build unit || e2e

// Package mailtest provides a recording Mailer.
package mailtest

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"practice-hub/internal/pkg/errs"
	"practice-hub/internal/usecase/shared"
)

var (
	ErrTransient = errs.Mark(errs.New("mailtest: provider unavailable"), shared.ErrMailTransient)
	ErrPermanent = errs.New("mailtest: message rejected")
)

// Mailer records every message it accepts. Failures can be scripted per call
// order or per recipient.
type Mailer struct {
	mu      sync.Mutex
	sent    []shared.MailMessage
	calls   int
	script  []error
	failFor map[string]error
}

func New() *Mailer {
	return &Mailer{failFor: map[string]error{}}
}

// FailNext makes the next calls return errs in order. A nil entry succeeds.
func (m *Mailer) FailNext(errors ...error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, errors...)
}

// FailFor fails every send to recipient with err until cleared with a nil err.
func (m *Mailer) FailFor(recipient string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.failFor, strings.ToLower(recipient))
		return
	}
	m.failFor[strings.ToLower(recipient)] = err
}

func (m *Mailer) Send(_ context.Context, msg shared.MailMessage) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if len(m.script) > 0 {
		err := m.script[0]
		m.script = m.script[1:]
		if err != nil {
			return "", err
		}
	}
	if err, ok := m.failFor[strings.ToLower(msg.To)]; ok {
		return "", err
	}
	m.sent = append(m.sent, msg)
	return fmt.Sprintf("msg_%d", len(m.sent)), nil
}

func (m *Mailer) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *Mailer) Sent() []shared.MailMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]shared.MailMessage, len(m.sent))
	copy(out, m.sent)
	return out
}

// SentTo returns the accepted messages addressed to recipient.
func (m *Mailer) SentTo(recipient string) []shared.MailMessage {
	var out []shared.MailMessage
	for _, msg := range m.Sent() {
		if strings.EqualFold(msg.To, recipient) {
			out = append(out, msg)
		}
	}
	return out
}

func (m *Mailer) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = nil
	m.calls = 0
	m.script = nil
}
