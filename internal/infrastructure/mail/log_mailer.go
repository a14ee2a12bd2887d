package mail

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"appcatalog/internal/bootstrap/logging"
	"appcatalog/internal/ports"
)

// LogMailer writes outgoing mail to the log instead of delivering it, and
// keeps the messages for inspection.
type LogMailer struct {
	from string

	mu   sync.Mutex
	sent []ports.Message
}

var _ ports.Mailer = (*LogMailer)(nil)

func NewLogMailer(from string) *LogMailer {
	return &LogMailer{from: strings.TrimSpace(from)}
}

func (m *LogMailer) Send(ctx context.Context, msg ports.Message) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if strings.TrimSpace(msg.To) == "" {
		return errors.New("mail recipient is required")
	}

	m.mu.Lock()
	m.sent = append(m.sent, msg)
	m.mu.Unlock()

	logging.Info(
		logging.WithAttrs(ctx, slog.String("component", "mail.log")),
		"mail queued",
		slog.String("from", m.from),
		slog.String("to", msg.To),
		slog.String("subject", msg.Subject),
		slog.String("body", msg.Body),
	)
	return nil
}

// Sent returns a copy of every message sent so far.
func (m *LogMailer) Sent() []ports.Message {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]ports.Message, len(m.sent))
	copy(out, m.sent)
	return out
}
