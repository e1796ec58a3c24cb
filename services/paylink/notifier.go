package paylink

import (
	"bytes"
	"context"
	"fmt"
	htmltemplate "html/template"
	"net/smtp"
	"strings"
	texttemplate "text/template"
	"time"

	"github.com/jordan-wright/email"
	"go.opentelemetry.io/otel/codes"
)

const paymentLinkSubject = "McLemore Auction Payment Form"

// PaymentLinkEmail is everything the seller is told about their link.
type PaymentLinkEmail struct {
	To           string
	SellerName   string
	AuctionTitle string
	AmountDue    string
	ShareUrl     string
	ExpiresAt    time.Time
}

// Notifier delivers payment links to sellers.
//
// note: fault injection point
type Notifier interface {
	SendPaymentLink(ctx context.Context, msg PaymentLinkEmail) error
}

type SmtpConfig struct {
	Server       string `json:"server"`
	Port         int    `json:"port"`
	EmailAddress string `json:"email_address"`
	Password     string `json:"password"`
	FromName     string `json:"from_name"`
}

// SmtpNotifier sends payment links through an smtp server with PLAIN auth,
// servers that do not support AUTH are sent to without it.
type SmtpNotifier struct {
	config SmtpConfig
}

func NewSmtpNotifier(config SmtpConfig) (SmtpNotifier, error) {
	if config.Server == "" || config.EmailAddress == "" {
		return SmtpNotifier{}, fmt.Errorf("%w: smtp server and email address are required", ErrConfig)
	}
	if config.Port == 0 {
		config.Port = 587
	}
	if config.FromName == "" {
		config.FromName = "McLemore Auction Company"
	}
	return SmtpNotifier{config: config}, nil
}

var paymentLinkText = texttemplate.Must(texttemplate.New("text").Parse(`Hello {{ .SellerName }},

Thank you for consigning with McLemore Auction Company. Please use the link below to tell us how you would like to receive your proceeds{{ if .AuctionTitle }} from {{ .AuctionTitle }}{{ end }}.

Amount due: ${{ .AmountDue }}

{{ .ShareUrl }}

This link expires on {{ .ExpiresAt.Format "January 2, 2006 at 3:04 PM MST" }}. If it has expired please contact our office for a new one.
`))

var paymentLinkHtml = htmltemplate.Must(htmltemplate.New("html").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #222;">
	<p>Hello {{ .SellerName }},</p>
	<p>Thank you for consigning with McLemore Auction Company. Please use the button below to tell us how you would like to receive your proceeds{{ if .AuctionTitle }} from <strong>{{ .AuctionTitle }}</strong>{{ end }}.</p>
	<p>Amount due: <strong>${{ .AmountDue }}</strong></p>
	<p><a href="{{ .ShareUrl }}" style="display: inline-block; padding: 10px 18px; background: #1d4e89; color: #fff; text-decoration: none; border-radius: 4px;">Open payment form</a></p>
	<p style="font-size: 12px; color: #666;">This link expires on {{ .ExpiresAt.Format "January 2, 2006 at 3:04 PM MST" }}. If it has expired please contact our office for a new one.</p>
</body>
</html>
`))

// renderPaymentLink returns the plain text and html bodies of the email.
func renderPaymentLink(msg PaymentLinkEmail) (text []byte, html []byte, err error) {
	var textBuf bytes.Buffer
	err = paymentLinkText.Execute(&textBuf, msg)
	if err != nil {
		return nil, nil, err
	}
	var htmlBuf bytes.Buffer
	err = paymentLinkHtml.Execute(&htmlBuf, msg)
	if err != nil {
		return nil, nil, err
	}
	return textBuf.Bytes(), htmlBuf.Bytes(), nil
}

func (n SmtpNotifier) SendPaymentLink(ctx context.Context, msg PaymentLinkEmail) error {
	_, span := tracer.Start(ctx, "notifier:SendPaymentLink")
	defer span.End()

	text, html, err := renderPaymentLink(msg)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to render email")
		return err
	}

	mail := email.NewEmail()
	mail.From = fmt.Sprintf("%s <%s>", n.config.FromName, n.config.EmailAddress)
	mail.To = []string{msg.To}
	mail.Subject = paymentLinkSubject
	mail.Text = text
	mail.HTML = html

	addr := fmt.Sprintf("%s:%d", n.config.Server, n.config.Port)
	err = mail.Send(addr, smtp.PlainAuth("", n.config.EmailAddress, n.config.Password, n.config.Server))
	if err != nil && strings.Contains(err.Error(), "server doesn't support AUTH") {
		err = mail.Send(addr, nil)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to send email")
		return err
	}
	return nil
}
