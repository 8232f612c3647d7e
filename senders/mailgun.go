package senders

import (
	"context"
	"time"

	"github.com/fiffu/buzdealz/lib/models"
	"github.com/fiffu/buzdealz/senders/email"
	"github.com/mailgun/mailgun-go/v4"
)

type mailgunSender struct {
	base
}

// SendNotice only emails price-drop notices that have a recipient; every
// other notice is left to the in-app channels.
func (e *mailgunSender) SendNotice(ctx context.Context, notice *models.Notice) (string, error) {
	if notice.Kind != models.KindPriceDrop || notice.Recipient == "" {
		return "", nil
	}

	format := &email.PriceDropEmailFormat{Notice: notice}
	return e.send(ctx, format.Subject(), format.Body(), notice.Recipient)
}

func (e *mailgunSender) send(ctx context.Context, subject, body, recipient string) (string, error) {
	mg := mailgun.NewMailgun(e.cfg.Mailgun.Domain, e.cfg.Mailgun.APIKey)
	mg.Client().Transport = e.transport

	// Create message with empty body first.
	message := mg.NewMessage(e.cfg.Mailgun.SenderFrom, subject, "", recipient)
	// SetHtml with the payload proper. This will assign the MIME type properly.
	message.SetHtml(body)

	timeout := time.Duration(e.cfg.Mailgun.TimeoutSecs) * time.Second
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	_, id, err := mg.Send(ctx, message)
	if err != nil {
		e.log.Sugar().Infow("Failed to send price drop email", "err", err)
	} else {
		e.log.Sugar().Infow("Sent price drop email to "+recipient, "message_id", id)
	}
	return id, err
}
