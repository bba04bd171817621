package email

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"
)

// EmailConfig holds SMTP configuration
type EmailConfig struct {
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	FromName     string
	FromEmail    string
	FrontendURL  string
}

// EmailService handles email sending
type EmailService struct {
	config EmailConfig
}

// NewEmailService creates a new email service
func NewEmailService(config EmailConfig) *EmailService {
	return &EmailService{config: config}
}

// ReceiptDetails carries the fields rendered into a payment receipt email
type ReceiptDetails struct {
	TenantName    string
	ReceiptNumber string
	Amount        string
	Currency      string
	Method        string
	PaymentDate   string
}

// SendPaymentReceiptEmail sends a receipt to the tenant after a payment is approved
func (s *EmailService) SendPaymentReceiptEmail(toEmail string, details ReceiptDetails) error {
	htmlContent, err := s.renderBillingEmail(billingEmailData{
		Heading:  "Payment Received",
		Greeting: fmt.Sprintf("Dear %s,", details.TenantName),
		Body: fmt.Sprintf(
			"We have received your payment of %s %s via %s on %s. Your receipt number is %s.",
			details.Currency, details.Amount, details.Method, details.PaymentDate, details.ReceiptNumber,
		),
		Reference: details.ReceiptNumber,
		AppName:   "Kodisha",
	})
	if err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}

	subject := fmt.Sprintf("Payment Receipt %s - Kodisha", details.ReceiptNumber)
	message := s.buildHTMLEmail(toEmail, subject, htmlContent)
	return s.sendEmail(toEmail, message)
}

// InvoiceDetails carries the fields rendered into invoice emails
type InvoiceDetails struct {
	TenantName    string
	InvoiceNumber string
	Total         string
	Currency      string
	DueDate       string
}

// SendInvoicePaidEmail confirms full settlement of an invoice
func (s *EmailService) SendInvoicePaidEmail(toEmail string, details InvoiceDetails) error {
	htmlContent, err := s.renderBillingEmail(billingEmailData{
		Heading:  "Invoice Settled",
		Greeting: fmt.Sprintf("Dear %s,", details.TenantName),
		Body: fmt.Sprintf(
			"Invoice %s for %s %s has been settled in full. Thank you.",
			details.InvoiceNumber, details.Currency, details.Total,
		),
		Reference: details.InvoiceNumber,
		AppName:   "Kodisha",
	})
	if err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}

	subject := fmt.Sprintf("Invoice %s Settled - Kodisha", details.InvoiceNumber)
	message := s.buildHTMLEmail(toEmail, subject, htmlContent)
	return s.sendEmail(toEmail, message)
}

// SendInvoiceOverdueEmail nudges the tenant about an unpaid invoice past its due date
func (s *EmailService) SendInvoiceOverdueEmail(toEmail string, details InvoiceDetails) error {
	htmlContent, err := s.renderBillingEmail(billingEmailData{
		Heading:  "Invoice Overdue",
		Greeting: fmt.Sprintf("Dear %s,", details.TenantName),
		Body: fmt.Sprintf(
			"Invoice %s for %s %s was due on %s and remains unpaid. Kindly arrange payment at your earliest convenience.",
			details.InvoiceNumber, details.Currency, details.Total, details.DueDate,
		),
		Reference: details.InvoiceNumber,
		AppName:   "Kodisha",
	})
	if err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}

	subject := fmt.Sprintf("Invoice %s Overdue - Kodisha", details.InvoiceNumber)
	message := s.buildHTMLEmail(toEmail, subject, htmlContent)
	return s.sendEmail(toEmail, message)
}

// sendEmail sends an email using SMTP
func (s *EmailService) sendEmail(to string, message []byte) error {
	addr := fmt.Sprintf("%s:%d", s.config.SMTPHost, s.config.SMTPPort)

	auth := smtp.PlainAuth("", s.config.SMTPUsername, s.config.SMTPPassword, s.config.SMTPHost)

	err := smtp.SendMail(addr, auth, s.config.FromEmail, []string{to}, message)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}

// buildHTMLEmail builds an HTML email message
func (s *EmailService) buildHTMLEmail(to, subject, htmlBody string) []byte {
	headers := fmt.Sprintf(
		"From: %s <%s>\r\n"+
			"To: %s\r\n"+
			"Subject: %s\r\n"+
			"MIME-Version: 1.0\r\n"+
			"Content-Type: text/html; charset=\"UTF-8\"\r\n"+
			"\r\n",
		s.config.FromName,
		s.config.FromEmail,
		to,
		subject,
	)

	return []byte(headers + htmlBody)
}

type billingEmailData struct {
	Heading   string
	Greeting  string
	Body      string
	Reference string
	AppName   string
}

// renderBillingEmail renders the shared billing notification template
func (s *EmailService) renderBillingEmail(data billingEmailData) (string, error) {
	tmpl, err := template.New("billing_notice").Parse(billingNoticeTemplate)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}

// billingNoticeTemplate is the HTML template shared by billing notification emails
const billingNoticeTemplate = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.Heading}}</title>
</head>
<body style="margin: 0; padding: 0; font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; background-color: #f4f7fa;">
    <table role="presentation" style="width: 100%; border-collapse: collapse;">
        <tr>
            <td style="padding: 40px 0;">
                <table role="presentation" style="max-width: 600px; margin: 0 auto; background-color: #ffffff; border-radius: 12px; overflow: hidden; box-shadow: 0 4px 6px rgba(0, 0, 0, 0.1);">
                    <!-- Header -->
                    <tr>
                        <td style="background: linear-gradient(135deg, #0f9d58 0%, #137333 100%); padding: 40px 30px; text-align: center;">
                            <h1 style="color: #ffffff; margin: 0; font-size: 28px; font-weight: 600;">{{.AppName}}</h1>
                        </td>
                    </tr>

                    <!-- Content -->
                    <tr>
                        <td style="padding: 40px 30px;">
                            <h2 style="color: #1a1a2e; margin: 0 0 20px 0; font-size: 24px; font-weight: 600;">{{.Heading}}</h2>

                            <p style="color: #4a5568; font-size: 16px; line-height: 1.6; margin: 0 0 20px 0;">
                                {{.Greeting}}
                            </p>

                            <p style="color: #4a5568; font-size: 16px; line-height: 1.6; margin: 0 0 30px 0;">
                                {{.Body}}
                            </p>

                            <p style="color: #718096; font-size: 14px; line-height: 1.6; margin: 0;">
                                Reference: <strong>{{.Reference}}</strong>
                            </p>
                        </td>
                    </tr>

                    <!-- Footer -->
                    <tr>
                        <td style="background-color: #f8fafc; padding: 30px; text-align: center; border-top: 1px solid #e2e8f0;">
                            <p style="color: #a0aec0; font-size: 14px; margin: 0 0 10px 0;">
                                This email was sent by {{.AppName}}
                            </p>
                            <p style="color: #cbd5e0; font-size: 12px; margin: 0;">
                                © 2026 {{.AppName}}. All rights reserved.
                            </p>
                        </td>
                    </tr>
                </table>
            </td>
        </tr>
    </table>
</body>
</html>
`
