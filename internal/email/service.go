package email

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"html/template"
	"net"
	"net/smtp"
	"time"
)

// Service sends transactional mail over SMTP
type Service struct {
	smtpHost     string
	smtpPort     string
	smtpUser     string
	smtpPassword string
	fromEmail    string
	sendTimeout  time.Duration
	tlsConfig    *tls.Config
}

func NewService(smtpHost, smtpPort, smtpUser, smtpPassword string, sendTimeout time.Duration) *Service {
	return &Service{
		smtpHost:     smtpHost,
		smtpPort:     smtpPort,
		smtpUser:     smtpUser,
		smtpPassword: smtpPassword,
		fromEmail:    smtpUser,
		sendTimeout:  sendTimeout,
		// The handshake must verify the relay's certificate against the
		// host we dialed.
		tlsConfig: &tls.Config{ServerName: smtpHost},
	}
}

// SendWelcomeEmail greets a newly registered user.
// This method is designed to be called in a goroutine.
func (s *Service) SendWelcomeEmail(ctx context.Context, toEmail, firstName string) error {
	body, err := renderTemplate(welcomeTemplate, struct{ FirstName string }{firstName})
	if err != nil {
		return fmt.Errorf("render template: %w", err)
	}

	if err := s.sendEmail(ctx, toEmail, "Welcome to Weather Dashboard!", body); err != nil {
		return fmt.Errorf("send email: %w", err)
	}

	return nil
}

// SendPasswordResetEmail sends a password reset link to the user
func (s *Service) SendPasswordResetEmail(ctx context.Context, toEmail, resetLink, firstName string) error {
	body, err := renderTemplate(resetTemplate, struct {
		FirstName string
		ResetLink string
	}{firstName, resetLink})
	if err != nil {
		return fmt.Errorf("render template: %w", err)
	}

	if err := s.sendEmail(ctx, toEmail, "Password Reset Request", body); err != nil {
		return fmt.Errorf("send email: %w", err)
	}

	return nil
}

// sendEmail dials with an explicit timeout; smtp.SendMail alone would block
// indefinitely on an unresponsive relay.
func (s *Service) sendEmail(ctx context.Context, to, subject, body string) error {
	addr := net.JoinHostPort(s.smtpHost, s.smtpPort)

	dialer := &net.Dialer{Timeout: s.sendTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial smtp: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	} else {
		_ = conn.SetDeadline(time.Now().Add(s.sendTimeout))
	}

	client, err := smtp.NewClient(conn, s.smtpHost)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp client: %w", err)
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(s.tlsConfig); err != nil {
			return fmt.Errorf("starttls: %w", err)
		}
	}

	auth := smtp.PlainAuth("", s.smtpUser, s.smtpPassword, s.smtpHost)
	if ok, _ := client.Extension("AUTH"); ok {
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}

	if err := client.Mail(s.fromEmail); err != nil {
		return fmt.Errorf("smtp mail from: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("smtp rcpt to: %w", err)
	}

	writer, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}

	msg := fmt.Sprintf(
		"From: %s\r\n"+
			"To: %s\r\n"+
			"Subject: %s\r\n"+
			"MIME-Version: 1.0\r\n"+
			"Content-Type: text/html; charset=UTF-8\r\n"+
			"\r\n"+
			"%s\r\n",
		s.fromEmail, to, subject, body,
	)
	if _, err := writer.Write([]byte(msg)); err != nil {
		return fmt.Errorf("smtp write: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("smtp close data: %w", err)
	}

	return client.Quit()
}

func renderTemplate(tmpl string, data any) (string, error) {
	t, err := template.New("email").Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute template: %w", err)
	}

	return buf.String(), nil
}

const welcomeTemplate = `
<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
    <h1 style="color: #1a73e8;">Welcome, {{.FirstName}}!</h1>
    <p>We're excited to have you on board. Stay updated with the latest weather information tailored just for you.</p>
    <ul>
        <li>Check the latest weather updates in your area.</li>
        <li>Explore detailed forecasts and air-quality trends.</li>
    </ul>
    <p>If you have any questions, feel free to reach out to our support team.</p>
    <p style="font-weight: bold;">The Weather Dashboard Team</p>
</body>
</html>
`

const resetTemplate = `
<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
    <h1 style="color: #1a73e8;">Reset Your Password</h1>
    <p>Hi {{.FirstName}},</p>
    <p>We received a request to reset your password. Click the button below to set a new password:</p>
    <a href="{{.ResetLink}}" style="display: inline-block; background-color: #1a73e8; color: #ffffff; padding: 12px 24px; text-decoration: none; border-radius: 5px;">Reset Password</a>
    <p>Or copy and paste this link into your browser:</p>
    <p style="word-break: break-all; color: #1a73e8;">{{.ResetLink}}</p>
    <p>If you didn't request this, you can safely ignore this email. Your password won't be changed.</p>
    <p style="font-size: 12px; color: #666;">This link will expire in 10 minutes.</p>
</body>
</html>
`
