// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package email delivers rendered reports over SMTP.
//
// Delivery is strictly best-effort: every failure path logs and returns
// false, so report generation never depends on a reachable mail server.
package email

import (
	"context"
	"fmt"
	"time"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"github.com/pdiddy/arxiv-trends/pkg/types"
)

const (
	defaultPort    = 587
	defaultTimeout = 30 * time.Second
)

// Mailer sends report emails. A Mailer with no configured host is valid
// and silently drops every message.
type Mailer struct {
	cfg types.MailConfig
	log *zap.Logger
}

// NewMailer creates a Mailer from SMTP settings. A nil logger is
// replaced with a no-op logger.
func NewMailer(cfg types.MailConfig, log *zap.Logger) *Mailer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Mailer{cfg: cfg, log: log}
}

// Enabled reports whether enough SMTP settings are present to attempt
// delivery.
func (m *Mailer) Enabled() bool {
	return m.cfg.Host != "" && m.cfg.From != "" && len(m.cfg.To) > 0
}

// Deliver sends a report as a multipart message with a plain-text body
// and an HTML alternative. It returns true only when the SMTP server
// accepted the message; any failure is logged and reported as false.
func (m *Mailer) Deliver(ctx context.Context, subject, textBody, htmlBody string) bool {
	if !m.Enabled() {
		m.log.Info("mail delivery not configured, skipping",
			zap.String("subject", subject))
		return false
	}

	msg, err := m.buildMessage(subject, textBody, htmlBody)
	if err != nil {
		m.log.Error("building report mail", zap.Error(err))
		return false
	}

	client, err := m.newClient()
	if err != nil {
		m.log.Error("configuring smtp client",
			zap.String("host", m.cfg.Host), zap.Error(err))
		return false
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		m.log.Error("sending report mail",
			zap.String("host", m.cfg.Host), zap.Error(err))
		return false
	}

	m.log.Info("report mail sent",
		zap.String("subject", subject),
		zap.Strings("to", m.cfg.To))
	return true
}

// buildMessage assembles the multipart message. The plain-text part is
// set first so clients prefer the HTML alternative.
func (m *Mailer) buildMessage(subject, textBody, htmlBody string) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(m.cfg.From); err != nil {
		return nil, fmt.Errorf("from address %q: %w", m.cfg.From, err)
	}
	if err := msg.To(m.cfg.To...); err != nil {
		return nil, fmt.Errorf("to addresses: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, textBody)
	msg.AddAlternativeString(mail.TypeTextHTML, htmlBody)
	return msg, nil
}

func (m *Mailer) newClient() (*mail.Client, error) {
	port := m.cfg.Port
	if port <= 0 {
		port = defaultPort
	}
	timeout := m.cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	opts := []mail.Option{
		mail.WithPort(port),
		mail.WithTimeout(timeout),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if m.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(m.cfg.Username),
			mail.WithPassword(m.cfg.Password),
		)
	}
	return mail.NewClient(m.cfg.Host, opts...)
}
