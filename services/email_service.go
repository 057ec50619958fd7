package services

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"html/template"
	"net/smtp"

	"github.com/Dosada05/notes-app/config"
)

// Mailer отправляет уведомления участникам организаций.
type Mailer interface {
	SendMemberAddedEmail(to, organizationName string, newAccount bool) error
}

type EmailService struct {
	cfg *config.Config
}

func NewEmailService(cfg *config.Config) *EmailService {
	return &EmailService{cfg: cfg}
}

var memberAddedTemplate = template.Must(template.New("member_added").Parse(`<p>Hello {{.Email}},</p>
<p>You have been added to <b>{{.OrganizationName}}</b>.</p>
{{if .NewAccount}}<p>An account was created for you. Ask the person who invited you for your initial password.</p>{{end}}
<p><a href="{{.LoginLink}}">Sign in</a></p>`))

func (s *EmailService) SendMemberAddedEmail(to, organizationName string, newAccount bool) error {
	data := struct {
		Email            string
		OrganizationName string
		NewAccount       bool
		LoginLink        string
	}{
		Email:            to,
		OrganizationName: organizationName,
		NewAccount:       newAccount,
		LoginLink:        s.cfg.PublicURL + "/login",
	}

	var body bytes.Buffer
	if err := memberAddedTemplate.Execute(&body, data); err != nil {
		return fmt.Errorf("failed to render member added email: %w", err)
	}

	subject := fmt.Sprintf("You have been added to %s", organizationName)
	return s.SendEmail([]string{to}, subject, body.String())
}

func (s *EmailService) SendEmail(to []string, subject string, body string) error {
	auth := smtp.PlainAuth("", s.cfg.SMTPUser, s.cfg.SMTPPass, s.cfg.SMTPHost)

	msg := []byte("To: " + to[0] + "\r\n" +
		"From: " + s.cfg.SMTPFrom + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"MIME-version: 1.0;\r\nContent-Type: text/html; charset=\"UTF-8\";\r\n" +
		"\r\n" +
		body + "\r\n")

	addr := fmt.Sprintf("%s:%d", s.cfg.SMTPHost, s.cfg.SMTPPort)
	tlsConfig := &tls.Config{ServerName: s.cfg.SMTPHost}

	var client *smtp.Client
	if s.cfg.SMTPPort == 465 {
		// Прямое TLS-соединение
		conn, err := tls.Dial("tcp", addr, tlsConfig)
		if err != nil {
			return fmt.Errorf("smtp tls dial: %w", err)
		}
		client, err = smtp.NewClient(conn, s.cfg.SMTPHost)
		if err != nil {
			conn.Close()
			return fmt.Errorf("smtp client: %w", err)
		}
	} else {
		// STARTTLS
		c, err := smtp.Dial(addr)
		if err != nil {
			return fmt.Errorf("smtp dial: %w", err)
		}
		client = c
		if err = client.StartTLS(tlsConfig); err != nil {
			client.Close()
			return fmt.Errorf("smtp starttls: %w", err)
		}
	}
	defer client.Quit()

	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("smtp auth: %w", err)
	}
	if err := client.Mail(s.cfg.SMTPFrom); err != nil {
		return fmt.Errorf("smtp MAIL FROM: %w", err)
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("smtp RCPT TO: %w", err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp DATA: %w", err)
	}
	if _, err = w.Write(msg); err != nil {
		return fmt.Errorf("smtp write message: %w", err)
	}
	if err = w.Close(); err != nil {
		return fmt.Errorf("smtp close DATA: %w", err)
	}

	return nil
}
