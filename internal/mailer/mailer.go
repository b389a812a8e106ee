// Package mailer sends the account emails (verification, password reset).
package mailer

import (
	"context"
	"fmt"
	"strings"

	"gopkg.in/gomail.v2"

	"github.com/MrSnakeDoc/bookmarkpack/internal/logger"
)

// Message is a plain text email.
type Message struct {
	To      string
	Subject string
	Body    string
}

type Options struct {
	Host     string // empty => messages are logged instead of sent
	Port     int
	User     string
	Password string
	From     string
	AppURL   string // front-end base URL used in links
}

// Mailer delivers messages over SMTP.
type Mailer struct {
	dialer *gomail.Dialer
	from   string
	appURL string
	log    logger.Logger
}

func New(opts Options, log logger.Logger) *Mailer {
	m := &Mailer{
		from:   opts.From,
		appURL: strings.TrimRight(opts.AppURL, "/"),
		log:    log,
	}
	if opts.Host != "" {
		m.dialer = gomail.NewDialer(opts.Host, opts.Port, opts.User, opts.Password)
	}
	return m
}

// Enabled reports whether messages actually leave the process.
func (m *Mailer) Enabled() bool { return m.dialer != nil }

// Send delivers msg. Without SMTP host the message is only logged.
func (m *Mailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(msg.To) == "" {
		return fmt.Errorf("send email: empty recipient")
	}

	if m.dialer == nil {
		m.log.Info("smtp not configured, email not sent",
			logger.String("to", msg.To),
			logger.String("subject", msg.Subject))
		m.log.Debug("email body", logger.String("body", msg.Body))
		return nil
	}

	gm := gomail.NewMessage()
	gm.SetHeader("From", m.from)
	gm.SetHeader("To", msg.To)
	gm.SetHeader("Subject", msg.Subject)
	gm.SetBody("text/plain", msg.Body)

	if err := m.dialer.DialAndSend(gm); err != nil {
		return fmt.Errorf("send email: %w", err)
	}

	m.log.Info("email sent", logger.String("to", msg.To), logger.String("subject", msg.Subject))
	return nil
}

// Verify is the message carrying an account verification link.
func (m *Mailer) Verify(to, token string) Message {
	return Message{
		To:      to,
		Subject: "Verify your account",
		Body: "You are receiving this email because you (or someone else) have registered a new account on BookmarkPack.\n\n" +
			"Please click on the following link, or paste this into your browser to complete the process:\n\n" +
			m.appURL + "/#/verify/" + token + "\n\n" +
			"If you did not request this, please ignore this email and the account will be deleted.\n",
	}
}

// Reset is the message carrying a password reset link.
func (m *Mailer) Reset(to, token string) Message {
	return Message{
		To:      to,
		Subject: "Reset your password on BookmarkPack",
		Body: "You are receiving this email because you (or someone else) have requested the reset of the password for your account.\n\n" +
			"Please click on the following link, or paste this into your browser to complete the process:\n\n" +
			m.appURL + "/#/reset/" + token + "\n\n" +
			"If you did not request this, please ignore this email and your password will remain unchanged.\n",
	}
}

// ResetConfirm tells the owner the password was changed.
func (m *Mailer) ResetConfirm(to string) Message {
	return Message{
		To:      to,
		Subject: "Your BookmarkPack password has been changed",
		Body: "Hello,\n\n" +
			"This is a confirmation that the password for your account " + to + " has just been changed.\n",
	}
}
