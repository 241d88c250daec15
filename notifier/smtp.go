// notifier/smtp.go - Email notifier
package notifier

import (
	"fmt"
	"html"
	"net/smtp"
	"strings"

	"shelfquest/models"
)

// EmailNotifier sends award notification mail over authenticated SMTP.
type EmailNotifier struct {
	host     string
	port     int
	username string
	password string
	from     string
}

func NewEmailNotifier(host string, port int, username, password, from string) *EmailNotifier {
	return &EmailNotifier{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
	}
}

func (n *EmailNotifier) Enabled() bool {
	return n.host != "" && n.port > 0 && n.from != ""
}

// SendAwards mails the user a summary of their newly earned achievements.
func (n *EmailNotifier) SendAwards(toAddr, username string, awards []models.Achievement) error {
	if !n.Enabled() {
		return nil
	}
	if toAddr == "" || len(awards) == 0 {
		return nil
	}

	subject := fmt.Sprintf("🏆 You earned %d new achievement(s)!", len(awards))
	if len(awards) == 1 {
		subject = fmt.Sprintf("🏆 Achievement unlocked: %s", awards[0].DisplayTitle())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("From: %s\r\n", n.from))
	sb.WriteString(fmt.Sprintf("To: %s\r\n", toAddr))
	sb.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	sb.WriteString("\r\n")

	sb.WriteString("<html><body>")
	sb.WriteString(fmt.Sprintf("<h2>Congratulations, %s!</h2>", html.EscapeString(username)))
	sb.WriteString("<ul>")
	for _, a := range awards {
		sb.WriteString("<li><strong>")
		sb.WriteString(html.EscapeString(a.DisplayTitle()))
		sb.WriteString("</strong>")
		if a.FlavorText != "" {
			sb.WriteString(" — <em>")
			sb.WriteString(html.EscapeString(a.FlavorText))
			sb.WriteString("</em>")
		}
		if a.Points > 0 {
			sb.WriteString(fmt.Sprintf(" (%d points)", a.Points))
		}
		sb.WriteString("</li>")
	}
	sb.WriteString("</ul>")
	sb.WriteString("<p>Keep listening!</p>")
	sb.WriteString("</body></html>")

	addr := fmt.Sprintf("%s:%d", n.host, n.port)
	var auth smtp.Auth
	if n.username != "" {
		auth = smtp.PlainAuth("", n.username, n.password, n.host)
	}

	if err := smtp.SendMail(addr, auth, n.from, []string{toAddr}, []byte(sb.String())); err != nil {
		return fmt.Errorf("send mail to %s: %w", toAddr, err)
	}
	return nil
}
