package email

import (
	"bytes"
	"fmt"
	"html/template"
	"mime"
	"net"
	"net/smtp"
	"strings"
	"time"

	"go-healthcare-portal/config"

	"github.com/google/uuid"
)

// EmailService handles sending emails via SMTP
type EmailService struct {
	host        string
	port        string
	username    string
	password    string
	fromEmail   string
	frontendURL string
	send        func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
	now         func() time.Time
}

// RecordNoticeData holds the data for a new-record notification. The
// message never carries record content, only a pointer to the portal.
type RecordNoticeData struct {
	PatientName string
	DoctorName  string
	RecordType  string
	CreatedAt   time.Time
	PortalURL   string
}

// NewEmailService creates a new email service from SMTP configuration
func NewEmailService(cfg *config.Config) *EmailService {
	return &EmailService{
		host:        cfg.SMTPHost,
		port:        cfg.SMTPPort,
		username:    cfg.SMTPUsername,
		password:    cfg.SMTPPassword,
		fromEmail:   cfg.SMTPFromEmail,
		frontendURL: cfg.FrontendURL,
		send:        smtp.SendMail,
		now:         time.Now,
	}
}

// recordNoticeTemplate is the HTML template for new-record emails
var recordNoticeTemplate = template.Must(template.New("record_notice").Funcs(template.FuncMap{
	"label": func(recordType string) string { return strings.ReplaceAll(recordType, "_", " ") },
}).Parse(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>New medical record</title>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background: #0f766e; color: white; padding: 20px; text-align: center; }
        .content { padding: 20px; background: #f9f9f9; }
        .button { display: inline-block; padding: 10px 18px; background: #0f766e; color: white; text-decoration: none; border-radius: 4px; }
        .footer { text-align: center; padding: 20px; color: #888; font-size: 12px; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>A new record is available</h1>
        </div>
        <div class="content">
            <p>Hello {{if .PatientName}}{{.PatientName}}{{else}}there{{end}},</p>
            <p>{{if .DoctorName}}{{.DoctorName}}{{else}}Your care team{{end}} added a new {{label .RecordType}} record to your file on {{.CreatedAt.Format "2 Jan 2006"}}.</p>
            <p><a class="button" href="{{.PortalURL}}">Open your dashboard</a></p>
        </div>
        <div class="footer">
            <p>For your privacy, record details are only shown after you sign in.</p>
        </div>
    </div>
</body>
</html>`))

// SendRecordNotice tells a patient that a record was added to their file
func (s *EmailService) SendRecordNotice(to string, data RecordNoticeData) error {
	if data.PortalURL == "" {
		data.PortalURL = s.frontendURL + "/dashboard/patient"
	}

	var body bytes.Buffer
	if err := recordNoticeTemplate.Execute(&body, data); err != nil {
		return fmt.Errorf("failed to execute email template: %w", err)
	}

	msg := s.compose(to, "New record in your health portal", body.Bytes())
	auth := smtp.PlainAuth("", s.username, s.password, s.host)
	addr := net.JoinHostPort(s.host, s.port)
	if err := s.send(addr, auth, s.fromEmail, []string{to}, msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// compose builds an RFC 5322 message with an HTML body.
func (s *EmailService) compose(to, subject string, html []byte) []byte {
	var msg bytes.Buffer
	headers := [][2]string{
		{"From", s.fromEmail},
		{"To", to},
		{"Subject", mime.QEncoding.Encode("utf-8", subject)},
		{"Date", s.now().Format(time.RFC1123Z)},
		{"Message-ID", fmt.Sprintf("<%s@%s>", uuid.NewString(), s.host)},
		{"MIME-Version", "1.0"},
		{"Content-Type", "text/html; charset=UTF-8"},
	}
	for _, h := range headers {
		fmt.Fprintf(&msg, "%s: %s\r\n", h[0], h[1])
	}
	msg.WriteString("\r\n")
	msg.Write(html)
	return msg.Bytes()
}

// IsConfigured checks if the email service has valid SMTP configuration
func (s *EmailService) IsConfigured() bool {
	return s != nil && s.host != "" && s.username != "" && s.password != ""
}
