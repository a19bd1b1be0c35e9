package auth

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/smtp"
	"strings"
	"testing"
)

func TestSMTPMailer_SendMagicLink(t *testing.T) {
	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte
	var gotAuth smtp.Auth

	m := NewSMTPMailer(SMTPConfig{
		Host:     "smtp.example.com",
		Port:     2525,
		Username: "mailer",
		Password: "secret",
		From:     "noreply@example.com",
	})
	m.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotAuth, gotFrom, gotTo, gotMsg = addr, a, from, to, msg
		return nil
	}

	link := "https://todo.example.com/auth/verify?token=abc"
	if err := m.SendMagicLink(context.Background(), "alice@example.com", link); err != nil {
		t.Fatalf("SendMagicLink returned error: %v", err)
	}

	if gotAddr != "smtp.example.com:2525" {
		t.Errorf("addr = %q, want smtp.example.com:2525", gotAddr)
	}
	if gotAuth == nil {
		t.Error("expected PLAIN auth when username is set")
	}
	if gotFrom != "noreply@example.com" {
		t.Errorf("from = %q", gotFrom)
	}
	if len(gotTo) != 1 || gotTo[0] != "alice@example.com" {
		t.Errorf("to = %v", gotTo)
	}
	msg := string(gotMsg)
	for _, want := range []string{"To: alice@example.com\r\n", "Subject: todoshare login link\r\n", link} {
		if !strings.Contains(msg, want) {
			t.Errorf("message does not contain %q", want)
		}
	}
}

func TestSMTPMailer_NoAuthWithoutUsername(t *testing.T) {
	m := NewSMTPMailer(SMTPConfig{Host: "localhost", Port: 25, From: "a@example.com"})
	m.send = func(_ string, a smtp.Auth, _ string, _ []string, _ []byte) error {
		if a != nil {
			t.Error("expected no auth without username")
		}
		return nil
	}

	if err := m.SendMagicLink(context.Background(), "b@example.com", "link"); err != nil {
		t.Fatalf("SendMagicLink returned error: %v", err)
	}
}

func TestSMTPMailer_SendFailure_WrapsError(t *testing.T) {
	sendErr := errors.New("connection refused")
	m := NewSMTPMailer(SMTPConfig{Host: "localhost", Port: 25})
	m.send = func(_ string, _ smtp.Auth, _ string, _ []string, _ []byte) error {
		return sendErr
	}

	err := m.SendMagicLink(context.Background(), "b@example.com", "link")
	if !errors.Is(err, sendErr) {
		t.Errorf("error = %v, want wrapped send error", err)
	}
}

func TestLogMailer_LogsLink(t *testing.T) {
	var buf bytes.Buffer
	m := NewLogMailer(slog.New(slog.NewJSONHandler(&buf, nil)))

	if err := m.SendMagicLink(context.Background(), "alice@example.com", "https://x/auth/verify?token=t"); err != nil {
		t.Fatalf("SendMagicLink returned error: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, `"to":"alice@example.com"`) {
		t.Errorf("log output missing recipient: %s", out)
	}
	if !strings.Contains(out, "token=t") {
		t.Errorf("log output missing link: %s", out)
	}
}
