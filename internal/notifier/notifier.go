package notifier

import (
	"context"
	"fmt"
	"log"

	"github.com/wneessen/go-mail"

	"pricewatch_back_end/internal/config"
	"pricewatch_back_end/internal/models"
)

// NotificationError means the email transport failed. It never aborts a check
// cycle; the affected history row simply keeps email_sent = false.
type NotificationError struct {
	Recipient string
	Err       error
}

func (e *NotificationError) Error() string {
	return fmt.Sprintf("send price drop email to %s: %v", e.Recipient, e.Err)
}

func (e *NotificationError) Unwrap() error { return e.Err }

// Notifier delivers price-drop alerts.
type Notifier interface {
	SendPriceDropEmail(ctx context.Context, to string, product models.Product, price float64) error
}

// SMTPNotifier sends alerts through an SMTP relay via go-mail.
type SMTPNotifier struct {
	host     string
	port     int
	username string
	password string
	from     string
}

func NewSMTP(cfg *config.Config) *SMTPNotifier {
	return &SMTPNotifier{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		username: cfg.SMTPUsername,
		password: cfg.SMTPPassword,
		from:     cfg.EmailFrom,
	}
}

func (n *SMTPNotifier) SendPriceDropEmail(ctx context.Context, to string, product models.Product, price float64) error {
	msg := mail.NewMsg()
	if err := msg.From(n.from); err != nil {
		return &NotificationError{Recipient: to, Err: err}
	}
	if err := msg.To(to); err != nil {
		return &NotificationError{Recipient: to, Err: err}
	}
	msg.Subject(Subject(product))
	msg.SetBodyString(mail.TypeTextHTML, BodyHTML(product, price))

	client, err := mail.NewClient(n.host,
		mail.WithPort(n.port),
		mail.WithSMTPAuth(mail.SMTPAuthLogin),
		mail.WithUsername(n.username),
		mail.WithPassword(n.password),
		mail.WithTLSPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return &NotificationError{Recipient: to, Err: err}
	}

	log.Println("📤 Sending price drop alert to", to)
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return &NotificationError{Recipient: to, Err: err}
	}
	return nil
}

// Subject builds the alert subject line.
func Subject(product models.Product) string {
	return fmt.Sprintf("📉 Price Drop Alert: %s", product.Title)
}

// BodyHTML builds the alert body. The target line only appears when the
// product actually has one.
func BodyHTML(product models.Product, price float64) string {
	targetLine := ""
	if product.TargetPrice != nil {
		targetLine = fmt.Sprintf(`<p style="color: #555;">Your target price: <strong>₹%.2f</strong></p>`, *product.TargetPrice)
	}

	return fmt.Sprintf(`
<!DOCTYPE html>
<html lang="en">
<head>
	<meta charset="UTF-8">
	<meta name="viewport" content="width=device-width, initial-scale=1.0">
	<title>Price Drop Alert</title>
</head>
<body style="font-family: Arial, sans-serif; background-color: #f9f9f9; padding: 20px;">
	<div style="max-width: 600px; margin: auto; background-color: white; padding: 20px; border-radius: 10px;">
		<h2 style="color: #333;">Good news! 🎉</h2>
		<p>The price for <strong>%s</strong> has dropped to <strong style="color: #2e7d32;">₹%.2f</strong>.</p>
		%s
		<p style="margin: 30px 0;">
			<a href="%s" style="background-color: #1976d2; color: white; padding: 12px 24px; text-decoration: none; border-radius: 6px;">View product</a>
		</p>
		<p style="margin-top: 30px; color: #555;">
			Happy shopping,<br>
			<strong>The PriceWatch team</strong>
		</p>
	</div>
</body>
</html>`, product.Title, price, targetLine, product.URL)
}
