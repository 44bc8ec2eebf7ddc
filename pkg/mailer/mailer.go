package mailer

import (
	"context"
	"crypto/tls"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strings"
	"time"
)

// Mailer は1通のメールを送信するインターフェース。
// テストではこのインターフェースを満たす記録用の実装に差し替える。
type Mailer interface {
	// Send は指定の宛先にメールを送信する。
	Send(ctx context.Context, to, subject, body string) error
}

// SMTPMailer はnet/smtpを使用してメールを送信するMailer実装。
type SMTPMailer struct {
	// addr はSMTPサーバーのアドレス（host:port形式）。
	addr string
	// from は送信元メールアドレス。
	from string
	// username はSMTP認証のユーザー名。空の場合は認証を行わない。
	username string
	// password はSMTP認証のパスワード。
	password string
	// timeout は接続タイムアウト。
	timeout time.Duration
}

// NewSMTPMailer は新しいSMTPMailerを生成する。
// usernameが空の場合、SMTP認証を行わずに送信する。
func NewSMTPMailer(addr, from, username, password string) *SMTPMailer {
	return &SMTPMailer{
		addr:     addr,
		from:     from,
		username: username,
		password: password,
		timeout:  30 * time.Second,
	}
}

// Send はSMTPサーバーに接続してメールを1通送信する。
// サーバーがSTARTTLSをサポートする場合はTLSにアップグレードする。
func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	host, _, err := net.SplitHostPort(m.addr)
	if err != nil {
		return fmt.Errorf("SMTPアドレスの解析に失敗: %w", err)
	}

	dialer := &net.Dialer{Timeout: m.timeout}
	conn, err := dialer.DialContext(ctx, "tcp", m.addr)
	if err != nil {
		return fmt.Errorf("SMTPサーバーへの接続に失敗: %w", err)
	}

	client, err := smtp.NewClient(conn, host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("SMTPクライアントの作成に失敗: %w", err)
	}
	defer func() { _ = client.Close() }()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: host}); err != nil {
			return fmt.Errorf("STARTTLSに失敗: %w", err)
		}
	}

	if m.username != "" {
		auth := smtp.PlainAuth("", m.username, m.password, host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("SMTP認証に失敗: %w", err)
		}
	}

	if err := client.Mail(m.from); err != nil {
		return fmt.Errorf("MAIL FROMコマンドに失敗: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("RCPT TOコマンドに失敗: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("DATAコマンドに失敗: %w", err)
	}
	if _, err := w.Write([]byte(buildMessage(m.from, to, subject, body))); err != nil {
		return fmt.Errorf("メール本文の書き込みに失敗: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("メール本文の送信に失敗: %w", err)
	}

	return client.Quit()
}

// buildMessage はヘッダー付きのメールメッセージを組み立てる。
// 件名は非ASCII文字を含む場合に備えてRFC 2047形式でエンコードする。
func buildMessage(from, to, subject, body string) string {
	var msg strings.Builder
	msg.WriteString("From: " + from + "\r\n")
	msg.WriteString("To: " + to + "\r\n")
	msg.WriteString("Subject: " + mime.QEncoding.Encode("utf-8", subject) + "\r\n")
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)
	return msg.String()
}
