package mailer

import (
	"io"
	"net"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
)

func testLog() *logrus.Entry {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return logrus.NewEntry(log)
}

// fakeSMTP accepts one session and records what the client sent.
type fakeSMTP struct {
	ln     net.Listener
	authOK bool

	mu       sync.Mutex
	commands []string
	data     string
}

func newFakeSMTP(t *testing.T, authOK bool) *fakeSMTP {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to listen: %v", err)
	}

	s := &fakeSMTP{ln: ln, authOK: authOK}
	t.Cleanup(func() { ln.Close() })
	go s.serve()
	return s
}

func (s *fakeSMTP) port() int {
	return s.ln.Addr().(*net.TCPAddr).Port
}

func (s *fakeSMTP) recorded() ([]string, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.commands...), s.data
}

func (s *fakeSMTP) serve() {
	conn, err := s.ln.Accept()
	if err != nil {
		return
	}
	defer conn.Close()

	tc := textproto.NewConn(conn)
	tc.PrintfLine("220 fake ESMTP")

	for {
		line, err := tc.ReadLine()
		if err != nil {
			return
		}
		s.mu.Lock()
		s.commands = append(s.commands, line)
		s.mu.Unlock()

		switch {
		case strings.HasPrefix(line, "EHLO"), strings.HasPrefix(line, "HELO"):
			tc.PrintfLine("250-fake")
			tc.PrintfLine("250 AUTH PLAIN")
		case strings.HasPrefix(line, "AUTH"):
			if s.authOK {
				tc.PrintfLine("235 accepted")
			} else {
				tc.PrintfLine("535 authentication credentials invalid")
			}
		case line == "DATA":
			tc.PrintfLine("354 go ahead")
			lines, err := tc.ReadDotLines()
			if err != nil {
				return
			}
			s.mu.Lock()
			s.data = strings.Join(lines, "\n")
			s.mu.Unlock()
			tc.PrintfLine("250 accepted")
		case line == "QUIT":
			tc.PrintfLine("221 bye")
			return
		default:
			tc.PrintfLine("250 ok")
		}
	}
}

func writeDocs(t *testing.T, htmlDoc, textDoc string) (string, string) {
	t.Helper()

	dir := t.TempDir()
	htmlPath := filepath.Join(dir, "newsletter.html")
	textPath := filepath.Join(dir, "newsletter.txt")

	if htmlDoc != "" {
		if err := os.WriteFile(htmlPath, []byte(htmlDoc), 0o644); err != nil {
			t.Fatalf("Failed to write HTML document: %v", err)
		}
	}
	if textDoc != "" {
		if err := os.WriteFile(textPath, []byte(textDoc), 0o644); err != nil {
			t.Fatalf("Failed to write text document: %v", err)
		}
	}
	return htmlPath, textPath
}

const sampleHTML = `<html><head><title>Daily News Digest - March 14, 2025</title></head>
<body><div class="header"><h1>Daily News Digest</h1><div class="date">March 14, 2025</div></div></body></html>`

func TestSubjectFor(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{
			name: "date div",
			doc:  `<div class="date">March 14, 2025</div>`,
			want: "Newsletter March 14, 2025",
		},
		{
			name: "title fallback",
			doc:  `<title>Daily News Digest - June 01, 2025</title>`,
			want: "Newsletter June 01, 2025",
		},
		{
			name: "date div wins over title",
			doc:  `<title>Daily News Digest - June 01, 2025</title><div class="date">March 14, 2025</div>`,
			want: "Newsletter March 14, 2025",
		},
		{
			name: "no date at all",
			doc:  "<html><body>hello</body></html>",
			want: "Newsletter",
		},
		{
			name: "blank date div falls through",
			doc:  `<div class="date"> </div><title>Daily News Digest - June 01, 2025</title>`,
			want: "Newsletter June 01, 2025",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := subjectFor(tt.doc); got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestBuildMessage(t *testing.T) {
	msg, err := buildMessage(
		"sender@example.com",
		[]string{"a@example.com", "b@example.com"},
		"Newsletter March 14, 2025",
		"plain line one\nplain line two",
		"<html><body>hi</body></html>",
	)
	if err != nil {
		t.Fatalf("buildMessage failed: %v", err)
	}
	got := string(msg)

	for _, fragment := range []string{
		"From: sender@example.com\r\n",
		"To: a@example.com, b@example.com\r\n",
		"Subject: Newsletter March 14, 2025\r\n",
		"MIME-Version: 1.0\r\n",
		`Content-Type: multipart/alternative; boundary="` + mimeBoundary + `"`,
		`Content-Type: text/plain; charset="UTF-8"`,
		`Content-Type: text/html; charset="UTF-8"`,
		"plain line one\r\nplain line two",
		"<html><body>hi</body></html>",
	} {
		if !strings.Contains(got, fragment) {
			t.Errorf("Expected message to contain %q", fragment)
		}
	}

	textIdx := strings.Index(got, "text/plain")
	htmlIdx := strings.Index(got, "text/html")
	if textIdx == -1 || htmlIdx == -1 || textIdx > htmlIdx {
		t.Error("Expected the text part before the HTML part")
	}
	if !strings.HasSuffix(got, "--"+mimeBoundary+"--\r\n") {
		t.Error("Expected the message to end with the closing boundary")
	}
}

func TestBuildMessageIsDeterministic(t *testing.T) {
	build := func() string {
		msg, err := buildMessage("s@example.com", []string{"r@example.com"}, "Newsletter", "text", "<p>html</p>")
		if err != nil {
			t.Fatalf("buildMessage failed: %v", err)
		}
		return string(msg)
	}

	if build() != build() {
		t.Error("Expected identical inputs to produce an identical message")
	}
}

func TestSendDeliversMessage(t *testing.T) {
	server := newFakeSMTP(t, true)
	htmlPath, textPath := writeDocs(t, sampleHTML, "plain body line")

	m := New("127.0.0.1", server.port(), "sender@example.com", "app-password",
		[]string{"reader@example.com"}, testLog())

	if err := m.Send(htmlPath, textPath); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	commands, data := server.recorded()

	var sawMail, sawRcpt, sawAuth bool
	for _, cmd := range commands {
		switch {
		case strings.HasPrefix(cmd, "MAIL FROM:<sender@example.com>"):
			sawMail = true
		case strings.HasPrefix(cmd, "RCPT TO:<reader@example.com>"):
			sawRcpt = true
		case strings.HasPrefix(cmd, "AUTH PLAIN"):
			sawAuth = true
		}
	}
	if !sawAuth {
		t.Error("Expected the client to authenticate")
	}
	if !sawMail || !sawRcpt {
		t.Errorf("Expected MAIL and RCPT commands, got %v", commands)
	}

	for _, fragment := range []string{
		"Subject: Newsletter March 14, 2025",
		"plain body line",
		`<div class="date">March 14, 2025</div>`,
	} {
		if !strings.Contains(data, fragment) {
			t.Errorf("Expected delivered message to contain %q", fragment)
		}
	}
}

func TestSendMissingHTMLFails(t *testing.T) {
	m := New("127.0.0.1", 2525, "sender@example.com", "pw", []string{"r@example.com"}, testLog())

	err := m.Send(filepath.Join(t.TempDir(), "missing.html"), "also-missing.txt")
	if err == nil {
		t.Fatal("Expected an error for a missing HTML document")
	}
	if !strings.Contains(err.Error(), "build stage") {
		t.Errorf("Expected the error to point at the build stage, got %v", err)
	}
}

func TestSendMissingTextUsesFallback(t *testing.T) {
	server := newFakeSMTP(t, true)
	htmlPath, _ := writeDocs(t, sampleHTML, "")

	m := New("127.0.0.1", server.port(), "sender@example.com", "pw",
		[]string{"reader@example.com"}, testLog())

	if err := m.Send(htmlPath, filepath.Join(t.TempDir(), "newsletter.txt")); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	_, data := server.recorded()
	if !strings.Contains(data, fallbackText) {
		t.Error("Expected the fallback text body in the delivered message")
	}
}

func TestSendAuthFailure(t *testing.T) {
	server := newFakeSMTP(t, false)
	htmlPath, textPath := writeDocs(t, sampleHTML, "plain body")

	m := New("127.0.0.1", server.port(), "sender@example.com", "wrong",
		[]string{"reader@example.com"}, testLog())

	err := m.Send(htmlPath, textPath)
	if err == nil {
		t.Fatal("Expected an authentication error")
	}
	if !strings.Contains(err.Error(), "authentication failed") {
		t.Errorf("Expected an authentication failure message, got %v", err)
	}
}
