package senders

import (
	"context"
	"fmt"
	"html"
	"net/mail"
	"time"

	"github.com/mailgun/mailgun-go/v4"
)

type mailgunSender struct {
	base
}

func (e *mailgunSender) ValidAddress(address string) bool {
	_, err := mail.ParseAddress(address)
	return err == nil
}

func (e *mailgunSender) Send(ctx context.Context, addresses []string, payload Payload) error {
	mg := mailgun.NewMailgun(e.cfg.Mailgun.Domain, e.cfg.Mailgun.APIKey)
	mg.Client().Transport = e.transport

	// Create message with empty body first.
	message := mg.NewMessage(e.cfg.Mailgun.SenderFrom, payload.Title, "", addresses...)
	// SetHtml with the payload proper. This will assign the MIME type properly.
	message.SetHtml(fmt.Sprintf("<p>%s</p>", html.EscapeString(payload.Body)))

	timeout := time.Duration(e.cfg.Mailgun.TimeoutSecs) * time.Second
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	_, _, err := mg.Send(ctx, message)
	return err
}
