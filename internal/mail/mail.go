package mail

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/blues/fundchainx/internal/config"
	"github.com/blues/fundchainx/internal/logger"
	"gopkg.in/gomail.v2"
)

// Message 待发送的邮件
type Message struct {
	Kind    string // verification / reset，用于日志与指标
	To      string
	Subject string
	Text    string
	HTML    string
}

// Sender 邮件发送接口
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// dialer 便于测试时替换 SMTP 连接
type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPSender 通过 SMTP 发送邮件
type SMTPSender struct {
	from   string
	dialer dialer
}

// NewSMTPSender 根据邮件配置创建发送器，from 为空时使用登录账号
func NewSMTPSender(cfg config.MailConfig) (*SMTPSender, error) {
	if cfg.Host == "" {
		return nil, errors.New("mail host is not configured")
	}
	from := cfg.From
	if from == "" {
		from = cfg.Username
	}
	return &SMTPSender{
		from:   from,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}, nil
}

// Send 发送邮件，SMTP 会话本身不支持取消，只在发送前检查 ctx
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	logger.Info("Sending %s email to %s", msg.Kind, msg.To)
	if err := s.dialer.DialAndSend(s.build(msg)); err != nil {
		logger.Error("Failed to send %s email to %s: %v", msg.Kind, msg.To, err)
		return fmt.Errorf("send mail to %s: %w", msg.To, err)
	}
	return nil
}

func (s *SMTPSender) build(msg Message) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Text)
	if msg.HTML != "" {
		m.AddAlternative("text/html", msg.HTML)
	}
	return m
}

// WriteTo 以 MIME 格式输出邮件内容
func (s *SMTPSender) WriteTo(w io.Writer, msg Message) error {
	_, err := s.build(msg).WriteTo(w)
	return err
}

// LogSender 仅记录日志，未配置 SMTP 时使用
type LogSender struct{}

func (LogSender) Send(_ context.Context, msg Message) error {
	logger.Warn("Mail transport disabled, %s email to %s not sent: %s", msg.Kind, msg.To, msg.Text)
	return nil
}
