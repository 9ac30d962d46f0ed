// FILE: internal/pkg/mailer/email_service.go
package mailer

import (
	"fmt"
	"html"
	"strings"

	"gopkg.in/gomail.v2"
)

type IEmailService interface {
	SendNotification(toEmail, title, message, actionRef string) error
}

type emailService struct {
	dialer      *gomail.Dialer
	senderEmail string
	senderName  string
	frontendURL string
}

func NewEmailService(host string, port int, username, password, senderEmail, senderName, frontendURL string) IEmailService {
	return &emailService{
		dialer:      gomail.NewDialer(host, port, username, password),
		senderEmail: senderEmail,
		senderName:  senderName,
		frontendURL: strings.TrimRight(frontendURL, "/"),
	}
}

func (s *emailService) SendNotification(toEmail, title, message, actionRef string) error {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.senderEmail, s.senderName)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", title)
	m.SetBody("text/plain", message)
	m.AddAlternative("text/html", s.renderBody(title, message, actionRef))

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send notification mail to %s: %w", toEmail, err)
	}
	return nil
}

func (s *emailService) renderBody(title, message, actionRef string) string {
	link := ""
	if actionRef != "" && s.frontendURL != "" {
		href := html.EscapeString(s.frontendURL + actionRef)
		link = fmt.Sprintf(`<p><a href="%s" style="background-color: #007BFF; color: white; padding: 10px 20px; text-decoration: none; border-radius: 5px; display: inline-block;">View reservation</a></p>`, href)
	}

	return fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>%s</h2>
			<p>%s</p>
			%s
		</div>
	`, html.EscapeString(title), html.EscapeString(message), link)
}
