// Package mailer delivers the rendered newsletter over SMTP as a
// multipart/alternative message.
package mailer

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"mime/multipart"
	"net/smtp"
	"net/textproto"
	"os"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"
)

// fallbackText replaces a missing plain-text document.
const fallbackText = "Please view this email in an HTML-friendly email client."

// mimeBoundary is fixed so identical documents produce identical messages.
const mimeBoundary = "newsdigest-alt-5c2f8d1e"

var (
	datePattern  = regexp.MustCompile(`<div class="date">([^<]+)</div>`)
	titlePattern = regexp.MustCompile(`<title>Daily News Digest - ([^<]+)</title>`)
)

// Mailer sends newsletter documents through one SMTP server.
type Mailer struct {
	host       string
	port       int
	sender     string
	password   string
	recipients []string
	log        *logrus.Entry
}

// New creates a mailer for the given SMTP server and credentials
func New(host string, port int, sender, password string, recipients []string, log *logrus.Entry) *Mailer {
	return &Mailer{
		host:       host,
		port:       port,
		sender:     sender,
		password:   password,
		recipients: recipients,
		log:        log,
	}
}

// Send reads the two rendered documents and delivers them as one message.
// The HTML document is required; a missing text document falls back to a
// short placeholder body.
func (m *Mailer) Send(htmlPath, textPath string) error {
	htmlBody, err := os.ReadFile(htmlPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%s not found: run the build stage first", htmlPath)
		}
		return fmt.Errorf("reading %s: %w", htmlPath, err)
	}

	textBody := fallbackText
	if data, err := os.ReadFile(textPath); err == nil {
		textBody = string(data)
	} else {
		m.log.Warnf("Text document %s unavailable, using the fallback body", textPath)
	}

	subject := subjectFor(string(htmlBody))
	msg, err := buildMessage(m.sender, m.recipients, subject, textBody, string(htmlBody))
	if err != nil {
		return fmt.Errorf("building message: %w", err)
	}

	m.log.Infof("Sending %q to %d recipient(s) via %s:%d", subject, len(m.recipients), m.host, m.port)
	if err := m.deliver(msg); err != nil {
		return err
	}

	m.log.Info("Newsletter sent")
	return nil
}

// subjectFor derives the subject from the document date, preferring the
// header date over the page title
func subjectFor(htmlDoc string) string {
	for _, pattern := range []*regexp.Regexp{datePattern, titlePattern} {
		if match := pattern.FindStringSubmatch(htmlDoc); match != nil {
			if date := strings.TrimSpace(match[1]); date != "" {
				return "Newsletter " + date
			}
		}
	}
	return "Newsletter"
}

// buildMessage assembles the multipart/alternative payload, plain text
// before HTML
func buildMessage(from string, to []string, subject, textBody, htmlBody string) ([]byte, error) {
	var buf bytes.Buffer

	mw := multipart.NewWriter(&buf)
	if err := mw.SetBoundary(mimeBoundary); err != nil {
		return nil, fmt.Errorf("setting MIME boundary: %w", err)
	}

	fmt.Fprintf(&buf, "From: %s\r\n", from)
	fmt.Fprintf(&buf, "To: %s\r\n", strings.Join(to, ", "))
	fmt.Fprintf(&buf, "Subject: %s\r\n", subject)
	fmt.Fprintf(&buf, "MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/alternative; boundary=%q\r\n\r\n", mw.Boundary())

	text, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type": {`text/plain; charset="UTF-8"`},
	})
	if err != nil {
		return nil, fmt.Errorf("creating text part: %w", err)
	}
	if _, err := text.Write([]byte(toCRLF(textBody))); err != nil {
		return nil, fmt.Errorf("writing text part: %w", err)
	}

	htmlPart, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type": {`text/html; charset="UTF-8"`},
	})
	if err != nil {
		return nil, fmt.Errorf("creating HTML part: %w", err)
	}
	if _, err := htmlPart.Write([]byte(toCRLF(htmlBody))); err != nil {
		return nil, fmt.Errorf("writing HTML part: %w", err)
	}

	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("closing message: %w", err)
	}
	return buf.Bytes(), nil
}

// deliver runs one SMTP session: STARTTLS when offered, authenticate,
// then a single delivery attempt
func (m *Mailer) deliver(msg []byte) error {
	addr := fmt.Sprintf("%s:%d", m.host, m.port)

	client, err := smtp.Dial(addr)
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", addr, err)
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: m.host}); err != nil {
			return fmt.Errorf("starting TLS with %s: %w", m.host, err)
		}
	}

	if ok, _ := client.Extension("AUTH"); ok {
		auth := smtp.PlainAuth("", m.sender, m.password, m.host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("authentication failed for %s, check the sender credentials: %w", m.sender, err)
		}
	}

	if err := client.Mail(m.sender); err != nil {
		return fmt.Errorf("setting sender: %w", err)
	}
	for _, rcpt := range m.recipients {
		if err := client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("adding recipient %s: %w", rcpt, err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("opening data stream: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("writing message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finishing message: %w", err)
	}

	return client.Quit()
}

func toCRLF(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\n", "\r\n")
}
