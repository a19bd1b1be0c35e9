package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"strconv"
	"strings"
)

// Mailer はログインリンクをユーザーに届けるインターフェース。
type Mailer interface {
	SendMagicLink(ctx context.Context, to, link string) error
}

// SMTPConfig はSMTPMailerの設定。
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPMailer はSMTPサーバー経由でログインリンクを送信する。
type SMTPMailer struct {
	config SMTPConfig
	send   func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPMailer はSMTPMailerを生成する。
func NewSMTPMailer(config SMTPConfig) *SMTPMailer {
	return &SMTPMailer{config: config, send: smtp.SendMail}
}

// SendMagicLink はログインリンクを含むテキストメールを送信する。
func (m *SMTPMailer) SendMagicLink(_ context.Context, to, link string) error {
	addr := net.JoinHostPort(m.config.Host, strconv.Itoa(m.config.Port))

	var a smtp.Auth
	if m.config.Username != "" {
		a = smtp.PlainAuth("", m.config.Username, m.config.Password, m.config.Host)
	}

	if err := m.send(addr, a, m.config.From, []string{to}, buildMagicLinkMessage(m.config.From, to, link)); err != nil {
		return fmt.Errorf("smtp send to %s: %w", addr, err)
	}
	return nil
}

func buildMagicLinkMessage(from, to, link string) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: todoshare login link\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString("Open the link below to sign in to todoshare:\r\n\r\n")
	b.WriteString(link + "\r\n\r\n")
	b.WriteString("If you did not request this, you can ignore this email.\r\n")
	return []byte(b.String())
}

// LogMailer はメールを送らずにリンクをログに出力する。開発環境用。
type LogMailer struct {
	logger *slog.Logger
}

// NewLogMailer はLogMailerを生成する。loggerがnilの場合はデフォルトロガーを使う。
func NewLogMailer(logger *slog.Logger) *LogMailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogMailer{logger: logger}
}

// SendMagicLink はリンクをINFOレベルで出力する。
func (m *LogMailer) SendMagicLink(ctx context.Context, to, link string) error {
	m.logger.InfoContext(ctx, "magic link (mail delivery disabled)",
		slog.String("to", to),
		slog.String("link", link),
	)
	return nil
}
