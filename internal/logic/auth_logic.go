package logic

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/blues/fundchainx/internal/apperr"
	"github.com/blues/fundchainx/internal/auth"
	"github.com/blues/fundchainx/internal/logger"
	"github.com/blues/fundchainx/internal/mail"
	"github.com/blues/fundchainx/internal/model"
	"github.com/blues/fundchainx/internal/repository"
	"github.com/ethereum/go-ethereum/common"
)

// AuthConfig 认证流程配置
type AuthConfig struct {
	FrontendURL     string
	SessionTTL      time.Duration
	VerificationTTL time.Duration
	ResetTTL        time.Duration
}

// Session 登录成功后返回的会话
type Session struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

// ProfileUpdate 个人资料，空值保持原值
type ProfileUpdate struct {
	FullName string
	Bio      string
}

// AuthLogic 注册、登录、邮箱验证、密码重置与钱包绑定
type AuthLogic struct {
	users     UserStore
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	mailer    mail.Sender
	throttle  Throttle
	recorder  Recorder
	cfg       AuthConfig
	now       func() time.Time
}

// NewAuthLogic 创建认证业务逻辑
func NewAuthLogic(users UserStore, tokens *auth.TokenService, passwords *auth.PasswordService, mailer mail.Sender, cfg AuthConfig) *AuthLogic {
	return &AuthLogic{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		mailer:    mailer,
		throttle:  allowAll{},
		recorder:  nopRecorder{},
		cfg:       cfg,
		now:       time.Now,
	}
}

// WithThrottle 设置重发邮件限流
func (l *AuthLogic) WithThrottle(t Throttle) *AuthLogic {
	l.throttle = t
	return l
}

// WithRecorder 设置指标记录
func (l *AuthLogic) WithRecorder(r Recorder) *AuthLogic {
	l.recorder = r
	return l
}

// WithClock 替换时钟，需与令牌服务使用同一时钟
func (l *AuthLogic) WithClock(now func() time.Time) *AuthLogic {
	l.now = now
	return l
}

// Register 注册新用户并发送验证邮件
// 邮件发送失败时用户已保存，需通过重发验证邮件恢复
func (l *AuthLogic) Register(ctx context.Context, email, password string) (*model.User, error) {
	email = model.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, apperr.Validation("Email and password are required")
	}

	if _, err := l.users.FindByEmail(ctx, email); err == nil {
		return nil, apperr.ErrDuplicateEmail
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, upstream("Error during registration", err)
	}

	hash, err := l.passwords.Hash(password)
	if err != nil {
		return nil, upstream("Error during registration", err)
	}
	user := &model.User{Email: email, PasswordHash: hash}
	if err := l.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperr.ErrDuplicateEmail
		}
		return nil, upstream("Error during registration", err)
	}

	if err := l.sendVerification(ctx, user); err != nil {
		return nil, err
	}
	logger.Info("User registered: %s (id=%d)", user.Email, user.ID)
	return user, nil
}

// sendVerification 签发验证令牌、保存并发送邮件
func (l *AuthLogic) sendVerification(ctx context.Context, user *model.User) error {
	token, err := l.tokens.Issue(user.ID, auth.PurposeEmailVerification, l.cfg.VerificationTTL)
	if err != nil {
		return upstream("Error issuing verification token", err)
	}
	user.VerificationToken = &token
	if err := l.users.Save(ctx, user); err != nil {
		return upstream("Error saving verification token", err)
	}

	msg, err := mail.VerificationMessage(user.Email, mail.Link(l.cfg.FrontendURL, "/verify-email", token))
	if err != nil {
		return upstream("Error rendering verification email", err)
	}
	return l.deliver(ctx, msg, "Error sending verification email")
}

func (l *AuthLogic) deliver(ctx context.Context, msg mail.Message, failure string) error {
	err := l.mailer.Send(ctx, msg)
	l.recorder.MailDelivered(msg.Kind, err)
	if err != nil {
		return upstream(failure, err)
	}
	return nil
}

// VerifyEmail 兑换验证令牌，每个账户只能验证一次
func (l *AuthLogic) VerifyEmail(ctx context.Context, token string) error {
	if token == "" {
		return apperr.Validation("No verification token provided")
	}
	claims, err := l.tokens.Verify(token, auth.PurposeEmailVerification)
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return apperr.ErrExpiredToken
	case errors.Is(err, auth.ErrPurposeMismatch):
		return apperr.ErrInvalidToken.WithMessage("Invalid token type")
	case err != nil:
		return apperr.ErrInvalidToken
	}

	user, err := l.users.FindByID(ctx, claims.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.ErrInvalidToken.WithMessage("Invalid token")
	} else if err != nil {
		return upstream("Error verifying email", err)
	}
	if user.IsVerified {
		return apperr.ErrAlreadyVerified
	}

	user.IsVerified = true
	user.VerificationToken = nil
	if err := l.users.Save(ctx, user); err != nil {
		return upstream("Error verifying email", err)
	}
	logger.Info("Email verified for user %s", user.Email)
	return nil
}

// Login 邮箱密码登录，账户不存在与密码错误返回相同错误
func (l *AuthLogic) Login(ctx context.Context, email, password string) (*Session, error) {
	email = model.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, apperr.Validation("Email and password are required")
	}

	user, err := l.users.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.ErrInvalidCredentials
	} else if err != nil {
		return nil, upstream("Error during login", err)
	}
	if !l.passwords.Verify(user.PasswordHash, password) {
		return nil, apperr.ErrInvalidCredentials
	}
	if !user.IsVerified {
		return nil, apperr.ErrNotVerified
	}
	return l.issueSession(user)
}

// WalletLogin 钱包签名登录
func (l *AuthLogic) WalletLogin(ctx context.Context, walletAddress, signature, message string) (*Session, error) {
	if walletAddress == "" || signature == "" || message == "" {
		return nil, apperr.Validation("walletAddress, signature and message are required")
	}
	if err := auth.VerifySignature(walletAddress, message, signature); err != nil {
		return nil, apperr.ErrSignatureMismatch
	}

	user, err := l.users.FindByWallet(ctx, walletAddress)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.ErrNoAccountForWallet
	} else if err != nil {
		return nil, upstream("Error during wallet login", err)
	}
	if !user.IsVerified {
		return nil, apperr.ErrNotVerified
	}
	return l.issueSession(user)
}

func (l *AuthLogic) issueSession(user *model.User) (*Session, error) {
	token, err := l.tokens.Issue(user.ID, auth.PurposeSession, l.cfg.SessionTTL)
	if err != nil {
		return nil, upstream("Error issuing session token", err)
	}
	return &Session{Token: token, User: user}, nil
}

// Authenticate 解析会话令牌并加载用户，未验证邮箱的用户也会返回
func (l *AuthLogic) Authenticate(ctx context.Context, token string) (*model.User, error) {
	claims, err := l.tokens.Verify(token, auth.PurposeSession)
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return nil, apperr.ErrSessionExpired
	case err != nil:
		return nil, apperr.ErrSessionInvalid
	}

	user, err := l.users.FindByID(ctx, claims.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.ErrSessionInvalid.WithMessage("User no longer exists")
	} else if err != nil {
		return nil, upstream("Authentication failed", err)
	}
	return user, nil
}

// ForgotPassword 发送重置密码邮件，邮箱不存在时返回 404
func (l *AuthLogic) ForgotPassword(ctx context.Context, email string) error {
	email = model.NormalizeEmail(email)
	if email == "" {
		return apperr.Validation("Email is required")
	}

	user, err := l.users.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.ErrEmailNotFound
	} else if err != nil {
		return upstream("Error sending reset email", err)
	}
	if err := l.allow(ctx, "reset:"+email); err != nil {
		return err
	}

	token, err := l.tokens.Issue(user.ID, auth.PurposePasswordReset, l.cfg.ResetTTL)
	if err != nil {
		return upstream("Error issuing reset token", err)
	}
	expires := l.now().Add(l.cfg.ResetTTL)
	user.ResetPasswordToken = &token
	user.ResetPasswordExpires = &expires
	if err := l.users.Save(ctx, user); err != nil {
		return upstream("Error sending reset email", err)
	}

	msg, err := mail.PasswordResetMessage(user.Email, mail.Link(l.cfg.FrontendURL, "/reset-password", token))
	if err != nil {
		return upstream("Error rendering reset email", err)
	}
	return l.deliver(ctx, msg, "Error sending reset email")
}

// ResetPassword 使用重置令牌设置新密码，令牌必须与最近一次签发的一致且未过期
func (l *AuthLogic) ResetPassword(ctx context.Context, token, password string) error {
	if token == "" || password == "" {
		return apperr.Validation("Token and new password are required")
	}
	claims, err := l.tokens.Verify(token, auth.PurposePasswordReset)
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return apperr.ErrInvalidOrExpiredToken.WithMessage("Password reset token has expired")
	case errors.Is(err, auth.ErrPurposeMismatch):
		return apperr.ErrInvalidOrExpiredToken.WithMessage("Invalid token type")
	case err != nil:
		return apperr.ErrInvalidOrExpiredToken.WithMessage("Invalid password reset token")
	}

	user, err := l.users.FindByID(ctx, claims.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.ErrInvalidOrExpiredToken
	} else if err != nil {
		return upstream("Error resetting password", err)
	}
	if user.ResetPasswordToken == nil || *user.ResetPasswordToken != token ||
		user.ResetPasswordExpires == nil || user.ResetPasswordExpires.Before(l.now()) {
		return apperr.ErrInvalidOrExpiredToken
	}

	hash, err := l.passwords.Hash(password)
	if err != nil {
		return upstream("Error resetting password", err)
	}
	user.PasswordHash = hash
	user.ResetPasswordToken = nil
	user.ResetPasswordExpires = nil
	if err := l.users.Save(ctx, user); err != nil {
		return upstream("Error resetting password", err)
	}
	logger.Info("Password reset for user %s", user.Email)
	return nil
}

// LinkWallet 校验签名后绑定钱包，一个钱包只能属于一个账户
func (l *AuthLogic) LinkWallet(ctx context.Context, userID uint, walletAddress, signature string) (*model.User, error) {
	if walletAddress == "" || signature == "" {
		return nil, apperr.Validation("walletAddress and signature are required")
	}
	if !common.IsHexAddress(walletAddress) {
		return nil, apperr.Validation("Invalid wallet address")
	}

	user, err := l.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	existing, err := l.users.FindByWallet(ctx, walletAddress)
	if err == nil && existing.ID != user.ID {
		return nil, apperr.ErrWalletAlreadyLinked
	} else if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, upstream("Error linking wallet", err)
	}

	if err := auth.VerifySignature(walletAddress, auth.LinkWalletMessage(user.Email), signature); err != nil {
		return nil, apperr.ErrSignatureMismatch
	}

	addr := model.NormalizeAddress(walletAddress)
	user.WalletAddress = &addr
	if err := l.users.Save(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperr.ErrWalletAlreadyLinked
		}
		return nil, upstream("Error linking wallet", err)
	}
	logger.Info("Wallet %s linked to user %s", addr, user.Email)
	return user, nil
}

// UpdateProfile 更新姓名与简介
func (l *AuthLogic) UpdateProfile(ctx context.Context, userID uint, update ProfileUpdate) (*model.User, error) {
	user, err := l.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if name := strings.TrimSpace(update.FullName); name != "" {
		user.FullName = name
	}
	if update.Bio != "" {
		user.Bio = update.Bio
	}
	if err := l.users.Save(ctx, user); err != nil {
		return nil, upstream("Error updating profile", err)
	}
	return user, nil
}

// ChangePassword 校验当前密码后修改
func (l *AuthLogic) ChangePassword(ctx context.Context, userID uint, current, next string) error {
	if current == "" || next == "" {
		return apperr.Validation("Current and new passwords are required")
	}
	user, err := l.findUser(ctx, userID)
	if err != nil {
		return err
	}
	if !l.passwords.Verify(user.PasswordHash, current) {
		return apperr.ErrIncorrectPassword
	}

	hash, err := l.passwords.Hash(next)
	if err != nil {
		return upstream("Error changing password", err)
	}
	user.PasswordHash = hash
	if err := l.users.Save(ctx, user); err != nil {
		return upstream("Error changing password", err)
	}
	return nil
}

// ResendVerification 为当前用户重发验证邮件
func (l *AuthLogic) ResendVerification(ctx context.Context, userID uint) error {
	user, err := l.findUser(ctx, userID)
	if err != nil {
		return err
	}
	if user.IsVerified {
		return apperr.ErrAlreadyVerified
	}
	if err := l.allow(ctx, "verify:"+user.Email); err != nil {
		return err
	}
	return l.sendVerification(ctx, user)
}

// ResendVerificationByEmail 未登录时按邮箱重发，不暴露邮箱是否存在或已验证
func (l *AuthLogic) ResendVerificationByEmail(ctx context.Context, email string) error {
	email = model.NormalizeEmail(email)
	if email == "" {
		return apperr.Validation("Email is required")
	}
	if err := l.allow(ctx, "verify:"+email); err != nil {
		return err
	}

	user, err := l.users.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		logger.Debug("Resend verification requested for unknown email %s", email)
		return nil
	} else if err != nil {
		return upstream("Error resending verification email", err)
	}
	if user.IsVerified {
		return nil
	}
	return l.sendVerification(ctx, user)
}

// VerificationStatus 邮箱是否已验证
func (l *AuthLogic) VerificationStatus(ctx context.Context, userID uint) (bool, error) {
	user, err := l.findUser(ctx, userID)
	if err != nil {
		return false, err
	}
	return user.IsVerified, nil
}

// CurrentUser 当前登录用户
func (l *AuthLogic) CurrentUser(ctx context.Context, userID uint) (*model.User, error) {
	return l.findUser(ctx, userID)
}

func (l *AuthLogic) findUser(ctx context.Context, userID uint) (*model.User, error) {
	user, err := l.users.FindByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.ErrUserNotFound
	} else if err != nil {
		return nil, upstream("Error fetching user", err)
	}
	return user, nil
}

// allow 限流检查，redis 不可用时放行
func (l *AuthLogic) allow(ctx context.Context, key string) error {
	ok, err := l.throttle.Allow(ctx, key)
	if err != nil {
		logger.Warn("Throttle check failed for %s, allowing: %v", key, err)
		return nil
	}
	if !ok {
		return apperr.ErrTooManyRequests
	}
	return nil
}
