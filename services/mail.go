package services

import (
	"io"
	"log"
	"net"
	"os"
	"strconv"

	"gopkg.in/gomail.v2"
)

// Mailer delivers notification mail over SMTP (a Mailhog instance in
// development). Delivery is best effort: failures are logged and never
// propagate into the request path or the job worker.
type Mailer struct {
	dialer *gomail.Dialer
	from   string
}

// NewMailerFromEnv reads SMTP_ADDR (host:port) and MAIL_FROM.
func NewMailerFromEnv() *Mailer {
	addr := os.Getenv("SMTP_ADDR")
	if addr == "" {
		addr = "localhost:1025"
	}
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		host, portStr = addr, "1025"
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		port = 1025
	}

	from := os.Getenv("MAIL_FROM")
	if from == "" {
		from = "noreply@influencia.example.com"
	}

	d := gomail.NewDialer(host, port, "", "")
	// Mailhog speaks plain SMTP.
	d.SSL = false
	return &Mailer{dialer: d, from: from}
}

func (m *Mailer) Send(to, subject, body string) {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	if err := m.dialer.DialAndSend(msg); err != nil {
		log.Printf("mail to %s failed: %v", to, err)
		return
	}
	log.Printf("mail sent to %s", to)
}

func (m *Mailer) SendWithAttachment(to, subject, body, filename string, data []byte) {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)
	msg.Attach(filename,
		gomail.SetCopyFunc(func(w io.Writer) error {
			_, err := w.Write(data)
			return err
		}),
	)

	if err := m.dialer.DialAndSend(msg); err != nil {
		log.Printf("mail to %s failed: %v", to, err)
		return
	}
	log.Printf("mail with %s sent to %s", filename, to)
}
