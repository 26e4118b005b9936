package mailer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mailersend/mailersend-go"
)

type MailerSendClient struct {
	client  *mailersend.Mailersend
	from    mailersend.From
	enabled bool
}

func NewMailerSend(apiKey, fromName, fromEmail string) *MailerSendClient {
	m := &MailerSendClient{
		enabled: apiKey != "" && fromEmail != "",
		from: mailersend.From{
			Name:  fromName,
			Email: fromEmail,
		},
	}

	if m.enabled {
		m.client = mailersend.NewMailersend(apiKey)
	}

	return m
}

func (m *MailerSendClient) SendOTPEmail(toEmail, toName, otp string) error {
	if !m.enabled {
		return fmt.Errorf("MailerSend not configured")
	}

	subject := "Verify your TripMate account"
	html := fmt.Sprintf(`
		<h2>Welcome to TripMate!</h2>
		<p>Hi %s,</p>
		<p>Your verification code is: <strong style="font-size: 24px; color: #2563EB;">%s</strong></p>
		<p>This code will expire in 10 minutes.</p>
		<p>If you didn't create an account with us, please ignore this email.</p>
	`, toName, otp)

	text := fmt.Sprintf("Your TripMate verification code is: %s\n\nThis code will expire in 10 minutes.", otp)

	return m.sendEmail(toEmail, toName, subject, text, html)
}

func (m *MailerSendClient) SendWelcomeEmail(toEmail, toName string) error {
	if !m.enabled {
		return fmt.Errorf("MailerSend not configured")
	}

	subject := "Welcome to TripMate"
	html := fmt.Sprintf(`
		<h2>Your account is verified!</h2>
		<p>Hi %s,</p>
		<p>Welcome aboard. You can now browse tours, book trips and share your travel stories with the community.</p>
	`, toName)

	text := fmt.Sprintf("Hi %s,\n\nYour TripMate account is verified. You can now browse tours, book trips and share your travel stories.", toName)

	return m.sendEmail(toEmail, toName, subject, text, html)
}

func (m *MailerSendClient) sendEmail(toEmail, toName, subject, text, html string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	msg := m.client.Email.NewMessage()
	msg.SetFrom(m.from)
	msg.SetRecipients([]mailersend.Recipient{{Name: toName, Email: toEmail}})
	msg.SetSubject(subject)

	if strings.TrimSpace(text) != "" {
		msg.SetText(text)
	}
	if strings.TrimSpace(html) != "" {
		msg.SetHTML(html)
	}

	_, err := m.client.Email.Send(ctx, msg)
	return err
}
