package mail

import (
	"bytes"
	"html/template"
	"net/url"
)

const (
	KindVerification = "verification"
	KindReset        = "reset"
)

var layout = template.Must(template.New("mail").Parse(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px; border: 1px solid #e0e0e0; border-radius: 8px;">
  <h2 style="color: #4a6cff; text-align: center;">{{.Heading}}</h2>
  <p style="font-size: 16px; color: #33344e; text-align: center;">{{.Intro}}</p>
  <div style="text-align: center; margin: 30px 0;">
    <a href="{{.Link}}" style="background-color: #4a6cff; color: white; padding: 12px 24px; text-decoration: none; border-radius: 5px; font-size: 16px; font-weight: 600;">{{.Action}}</a>
  </div>
  <p style="font-size: 14px; color: #94a3b8; text-align: center;">
    If the button doesn't work, copy and paste this link into your browser: <br />
    <a href="{{.Link}}" style="color: #4a6cff;">{{.Link}}</a>
  </p>
  <p style="font-size: 14px; color: #94a3b8; text-align: center;">{{.Footer}}</p>
</div>`))

type content struct {
	Heading string
	Intro   string
	Action  string
	Link    string
	Footer  string
}

func render(c content) (string, error) {
	var buf bytes.Buffer
	if err := layout.Execute(&buf, c); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Link 拼接前端页面地址与 token 参数
func Link(frontendURL, path, token string) string {
	return frontendURL + path + "?token=" + url.QueryEscape(token)
}

// VerificationMessage 注册验证邮件
func VerificationMessage(to, link string) (Message, error) {
	html, err := render(content{
		Heading: "Welcome to FundChainX!",
		Intro:   "You're one step away from unlocking the full potential of FundChainX. Please verify your email address to continue.",
		Action:  "Verify Email",
		Link:    link,
		Footer:  "If you didn't sign up for FundChainX, please ignore this email.",
	})
	if err != nil {
		return Message{}, err
	}
	return Message{
		Kind:    KindVerification,
		To:      to,
		Subject: "Verify Your Email",
		Text:    "Please verify your email by clicking this link: " + link,
		HTML:    html,
	}, nil
}

// PasswordResetMessage 重置密码邮件
func PasswordResetMessage(to, link string) (Message, error) {
	html, err := render(content{
		Heading: "Reset Your Password",
		Intro:   "You requested a password reset for your FundChainX account. Click the link below to reset your password.",
		Action:  "Reset Password",
		Link:    link,
		Footer:  "This link will expire in 1 hour. If you didn't request a password reset, please ignore this email.",
	})
	if err != nil {
		return Message{}, err
	}
	return Message{
		Kind:    KindReset,
		To:      to,
		Subject: "Reset Your Password",
		Text:    "Click the link to reset your password: " + link,
		HTML:    html,
	}, nil
}
