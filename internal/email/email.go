// Package email delivers vendor alerts and report digests over SMTP.
// When no SMTP server is configured a NoopSender stands in, so callers
// never branch on configuration.
package email

import (
	"context"

	"portal_ventas_backend/platform/config"
)

const xlsxMIMEType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Attachment represents a file attachment for an email.
type Attachment struct {
	Content  []byte
	FileName string
	MIMEType string
}

// Sender delivers the emails this service produces.
type Sender interface {
	// SendReconciliationAlertEmail tells a vendor that reminder cleanup left
	// events behind on their calendar.
	SendReconciliationAlertEmail(ctx context.Context, toEmail, entity, ref string, failures []string) error

	// SendReportDigest delivers a rendered report with the XLSX attached.
	SendReportDigest(ctx context.Context, to, subject, body string, attachment []byte, filename string) error
}

// NoopSender discards every email.
type NoopSender struct{}

func (NoopSender) SendReconciliationAlertEmail(ctx context.Context, toEmail, entity, ref string, failures []string) error {
	return nil
}

func (NoopSender) SendReportDigest(ctx context.Context, to, subject, body string, attachment []byte, filename string) error {
	return nil
}

// NewSender returns an SMTP sender when email is configured and a NoopSender
// otherwise.
func NewSender(cfg config.SMTPConfig) Sender {
	if !cfg.GetEmailEnabled() {
		return NoopSender{}
	}
	return NewSMTPSender(
		cfg.GetSMTPHost(),
		cfg.GetSMTPPort(),
		cfg.GetSMTPUsername(),
		cfg.GetSMTPPassword(),
		cfg.GetEmailFromAddress(),
		cfg.GetEmailFromName(),
	)
}
