package email

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"time"

	gomail "github.com/wneessen/go-mail"
)

// SMTPSender implements Sender over a direct SMTP connection via go-mail.
type SMTPSender struct {
	host      string
	port      int
	username  string
	password  string
	fromName  string
	fromEmail string
}

// NewSMTPSender creates a new SMTPSender with the given SMTP credentials.
func NewSMTPSender(host string, port int, username, password, fromEmail, fromName string) *SMTPSender {
	return &SMTPSender{
		host:      host,
		port:      port,
		username:  username,
		password:  password,
		fromName:  fromName,
		fromEmail: fromEmail,
	}
}

func (s *SMTPSender) send(ctx context.Context, toEmail, subject, htmlContent string, attachments ...Attachment) error {
	msg := gomail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.fromEmail); err != nil {
		return fmt.Errorf("smtp from: %w", err)
	}
	if err := msg.To(toEmail); err != nil {
		return fmt.Errorf("smtp to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, htmlContent)

	for _, att := range attachments {
		msg.AttachReader(att.FileName, bytes.NewReader(att.Content))
	}

	client, err := gomail.NewClient(s.host,
		gomail.WithPort(s.port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.username),
		gomail.WithPassword(s.password),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15*time.Second),
		gomail.WithDialContextFunc(func(dctx context.Context, _ string, addr string) (net.Conn, error) {
			return (&net.Dialer{}).DialContext(dctx, "tcp4", addr)
		}),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}

	return nil
}

// SendReconciliationAlertEmail implements Sender.
func (s *SMTPSender) SendReconciliationAlertEmail(ctx context.Context, toEmail, entity, ref string, failures []string) error {
	subject := fmt.Sprintf(subjectReconciliationAlertFmt, ref)
	content, err := renderEmailTemplate("reconciliation_alert.html", reconciliationAlertEmailData{
		baseEmailData: baseEmailData{
			Title:   "Recordatorios sin cancelar",
			Heading: "Recordatorios sin cancelar",
		},
		Entity:   entity,
		Ref:      ref,
		Failures: failures,
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, subject, content)
}

// SendReportDigest implements Sender; the reports module uses it as its
// DigestMailer.
func (s *SMTPSender) SendReportDigest(ctx context.Context, to, subject, body string, attachment []byte, filename string) error {
	content, err := renderEmailTemplate("report_digest.html", reportDigestEmailData{
		baseEmailData: baseEmailData{
			Title:   subject,
			Heading: subject,
		},
		Body: body,
	})
	if err != nil {
		return err
	}

	var attachments []Attachment
	if len(attachment) > 0 {
		attachments = append(attachments, Attachment{
			Content:  attachment,
			FileName: filename,
			MIMEType: xlsxMIMEType,
		})
	}
	return s.send(ctx, to, subject, content, attachments...)
}
