package forward

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mailersend/mailersend-go"

	"github.com/staylink/rentops/internal/domain"
	"github.com/staylink/rentops/pkg/config"
)

// MailForwarder emails the landlord instead of hitting a local process,
// for deployments where the landlord surface is not always running.
type MailForwarder struct {
	client  *mailersend.Mailersend
	from    mailersend.From
	to      string
	enabled bool
}

func NewMailForwarder(cfg config.EmailConfig) *MailForwarder {
	f := &MailForwarder{
		enabled: cfg.MailerSendKey != "" && cfg.FromEmail != "" && cfg.LandlordEmail != "",
		from: mailersend.From{
			Name:  cfg.FromName,
			Email: cfg.FromEmail,
		},
		to: cfg.LandlordEmail,
	}
	if f.enabled {
		f.client = mailersend.NewMailersend(cfg.MailerSendKey)
	}
	return f
}

func (f *MailForwarder) Forward(ctx context.Context, event domain.NotificationEvent) error {
	if !f.enabled {
		return &Error{Target: "mail", Err: errors.New("mail forwarder disabled (missing MAILERSEND_API_KEY, MAILER_FROM or LANDLORD_EMAIL)")}
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	subject, text := renderEvent(event)

	msg := f.client.Email.NewMessage()
	msg.SetFrom(f.from)
	msg.SetRecipients([]mailersend.Recipient{{Email: f.to}})
	msg.SetSubject(subject)
	msg.SetText(text)

	res, err := f.client.Email.Send(ctx, msg)
	if err != nil {
		return &Error{Target: f.to, Err: err}
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(res.Body)
		return &Error{Target: f.to, Err: fmt.Errorf("mailersend error: status=%d body=%s", res.StatusCode, strings.TrimSpace(string(body)))}
	}
	return nil
}

func renderEvent(event domain.NotificationEvent) (subject, text string) {
	switch event.Kind {
	case domain.NotificationCheckInDetected:
		subject = "Guest check-in request"
		text = fmt.Sprintf("A guest wants to check in at %s.\n\nChat: %s\nGuest: %s",
			event.Payload.Time, event.Payload.ChatID, event.Payload.GuestID)
		if event.Payload.ItemID != 0 {
			text += fmt.Sprintf("\nItem: %d", event.Payload.ItemID)
		}
	default:
		subject = fmt.Sprintf("Rental notification: %s", event.Kind)
		text = fmt.Sprintf("Event %s (%s)", event.ID, event.Kind)
	}
	return subject, text
}
