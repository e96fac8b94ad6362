package mocks

import (
	"context"
	"net/url"
	"strings"
	"sync"

	"github.com/blues/fundchainx/internal/mail"
)

// MockMailSender implements mail.Sender and captures every message
type MockMailSender struct {
	mu   sync.Mutex
	sent []mail.Message

	SendFunc func(ctx context.Context, msg mail.Message) error
}

func NewMockMailSender() *MockMailSender {
	return &MockMailSender{}
}

// Send records the message, then delegates to SendFunc when set
func (m *MockMailSender) Send(ctx context.Context, msg mail.Message) error {
	if m.SendFunc != nil {
		if err := m.SendFunc(ctx, msg); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

// Sent 已成功发送的邮件
func (m *MockMailSender) Sent() []mail.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mail.Message(nil), m.sent...)
}

// LastToken 发给 to 的最后一封邮件中的 token 参数
func (m *MockMailSender) LastToken(to string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.sent) - 1; i >= 0; i-- {
		if m.sent[i].To == to {
			return TokenFromText(m.sent[i].Text)
		}
	}
	return ""
}

// TokenFromText 提取正文链接中的 token
func TokenFromText(text string) string {
	_, raw, ok := strings.Cut(text, "token=")
	if !ok {
		return ""
	}
	if i := strings.IndexAny(raw, " \n\"&"); i >= 0 {
		raw = raw[:i]
	}
	token, err := url.QueryUnescape(raw)
	if err != nil {
		return raw
	}
	return token
}

var _ mail.Sender = (*MockMailSender)(nil)
