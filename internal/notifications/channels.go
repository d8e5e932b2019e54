package notifications

import (
	"bytes"
	"context"
	"fmt"
	"net/smtp"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	sestypes "github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"docufind/backend/internal/config"
)

// Email is one outbound message.
type Email struct {
	To       string
	Subject  string
	Body     string // plain-text fallback
	HTMLBody string
	Template string
}

// Channel delivers email through one provider.
type Channel interface {
	Send(ctx context.Context, email *Email) error
}

// SMTPChannel delivers through a plain SMTP relay.
type SMTPChannel struct {
	cfg config.EmailConfig
}

func NewSMTPChannel(cfg config.EmailConfig) *SMTPChannel {
	return &SMTPChannel{cfg: cfg}
}

func (c *SMTPChannel) Send(ctx context.Context, email *Email) error {
	msg := buildMessage(c.cfg, email)

	addr := fmt.Sprintf("%s:%d", c.cfg.SMTPHost, c.cfg.SMTPPort)
	var auth smtp.Auth
	if c.cfg.Username != "" {
		auth = smtp.PlainAuth("", c.cfg.Username, c.cfg.Password, c.cfg.SMTPHost)
	}
	if err := smtp.SendMail(addr, auth, c.cfg.FromAddress, []string{email.To}, msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func buildMessage(cfg config.EmailConfig, email *Email) []byte {
	var buf bytes.Buffer
	boundary := "----=_Part_0_docufind"

	buf.WriteString(fmt.Sprintf("From: %s <%s>\r\n", cfg.FromName, cfg.FromAddress))
	buf.WriteString(fmt.Sprintf("To: %s\r\n", email.To))
	buf.WriteString(fmt.Sprintf("Subject: %s\r\n", email.Subject))
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString(fmt.Sprintf("Content-Type: multipart/alternative; boundary=\"%s\"\r\n", boundary))
	buf.WriteString("\r\n")

	buf.WriteString(fmt.Sprintf("--%s\r\n", boundary))
	buf.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
	buf.WriteString(email.Body)
	buf.WriteString("\r\n")

	if email.HTMLBody != "" {
		buf.WriteString(fmt.Sprintf("--%s\r\n", boundary))
		buf.WriteString("Content-Type: text/html; charset=utf-8\r\n\r\n")
		buf.WriteString(email.HTMLBody)
		buf.WriteString("\r\n")
	}

	buf.WriteString(fmt.Sprintf("--%s--\r\n", boundary))
	return buf.Bytes()
}

// SESChannel delivers through Amazon SES.
type SESChannel struct {
	client *sesv2.Client
	cfg    config.EmailConfig
}

func NewSESChannel(ctx context.Context, cfg config.EmailConfig) (*SESChannel, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.SESRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return &SESChannel{client: sesv2.NewFromConfig(awsCfg), cfg: cfg}, nil
}

func (c *SESChannel) Send(ctx context.Context, email *Email) error {
	body := &sestypes.Body{
		Text: &sestypes.Content{Data: aws.String(email.Body)},
	}
	if email.HTMLBody != "" {
		body.Html = &sestypes.Content{Data: aws.String(email.HTMLBody)}
	}

	_, err := c.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fmt.Sprintf("%s <%s>", c.cfg.FromName, c.cfg.FromAddress)),
		Destination: &sestypes.Destination{
			ToAddresses: []string{email.To},
		},
		Content: &sestypes.EmailContent{
			Simple: &sestypes.Message{
				Subject: &sestypes.Content{Data: aws.String(email.Subject)},
				Body:    body,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to send email via SES: %w", err)
	}
	return nil
}
