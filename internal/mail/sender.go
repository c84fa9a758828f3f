package mail

import (
	"context"
	"fmt"

	"github.com/mynurseshift/backend/internal/domain"
	"github.com/mynurseshift/backend/internal/queue"
	gomail "github.com/wneessen/go-mail"
)

// Sender renders queued messages and delivers them over SMTP.
type Sender struct {
	client   *gomail.Client
	renderer *Renderer
	fromName string
	fromAddr string
}

func NewSender(client *gomail.Client, renderer *Renderer, fromName, fromAddr string) *Sender {
	return &Sender{
		client:   client,
		renderer: renderer,
		fromName: fromName,
		fromAddr: fromAddr,
	}
}

// Build assembles the message without sending it.
func (s *Sender) Build(msg domain.MailMessage) (*gomail.Msg, error) {
	subject, body, err := s.renderer.Render(msg)
	if err != nil {
		return nil, err
	}

	m := gomail.NewMsg()
	if err := m.FromFormat(s.fromName, s.fromAddr); err != nil {
		return nil, err
	}
	if err := m.To(msg.To); err != nil {
		return nil, err
	}
	m.Subject(subject)
	m.SetBodyString(gomail.TypeTextHTML, body)

	return m, nil
}

// Send delivers one message. Messages that can never be built are reported
// as queue.ErrDiscard so the consumer drops them instead of retrying.
func (s *Sender) Send(ctx context.Context, msg domain.MailMessage) error {
	m, err := s.Build(msg)
	if err != nil {
		return fmt.Errorf("%w: %w", queue.ErrDiscard, err)
	}
	return s.client.DialAndSendWithContext(ctx, m)
}
