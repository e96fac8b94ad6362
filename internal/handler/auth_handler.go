package handler

import (
	"net/http"

	"github.com/blues/fundchainx/internal/logic"
	"github.com/blues/fundchainx/internal/middleware"
	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authLogic *logic.AuthLogic
}

func NewAuthHandler(authLogic *logic.AuthLogic) *AuthHandler {
	return &AuthHandler{authLogic: authLogic}
}

// Register 注册
func (h *AuthHandler) Register(c *gin.Context) {
	var req CredentialsRequest
	if !bindJSON(c, &req, "Email and password are required") {
		return
	}
	if _, err := h.authLogic.Register(c.Request.Context(), req.Email, req.Password); err != nil {
		Fail(c, err)
		return
	}
	Message(c, http.StatusCreated, "Registration successful. Please verify your email.")
}

// VerifyEmail 邮件链接点击（GET）或前端转发（POST），token 可在 query 或 body 中
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	token := c.Query("token")
	if token == "" && c.Request.Method == http.MethodPost {
		var req TokenRequest
		_ = c.ShouldBindJSON(&req)
		token = req.Token
	}
	if err := h.authLogic.VerifyEmail(c.Request.Context(), token); err != nil {
		Fail(c, err)
		return
	}
	Message(c, http.StatusOK, "Email verified successfully")
}

// Login 邮箱密码登录
func (h *AuthHandler) Login(c *gin.Context) {
	var req CredentialsRequest
	if !bindJSON(c, &req, "Email and password are required") {
		return
	}
	session, err := h.authLogic.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Login successful", "token": session.Token, "user": session.User})
}

// WalletLogin 钱包签名登录
func (h *AuthHandler) WalletLogin(c *gin.Context) {
	var req WalletLoginRequest
	if !bindJSON(c, &req, "walletAddress, signature and message are required") {
		return
	}
	session, err := h.authLogic.WalletLogin(c.Request.Context(), req.WalletAddress, req.Signature, req.Message)
	if err != nil {
		Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Wallet login successful", "token": session.Token, "user": session.User})
}

// Me 当前用户
func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.authLogic.CurrentUser(c.Request.Context(), middleware.CurrentUser(c).ID)
	if err != nil {
		Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req EmailRequest
	if !bindJSON(c, &req, "Email is required") {
		return
	}
	if err := h.authLogic.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		Fail(c, err)
		return
	}
	Message(c, http.StatusOK, "Password reset email sent")
}

func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if !bindJSON(c, &req, "Token and new password are required") {
		return
	}
	if err := h.authLogic.ResetPassword(c.Request.Context(), req.Token, req.Password); err != nil {
		Fail(c, err)
		return
	}
	Message(c, http.StatusOK, "Password reset successful")
}

// LinkWallet 绑定钱包
func (h *AuthHandler) LinkWallet(c *gin.Context) {
	var req LinkWalletRequest
	if !bindJSON(c, &req, "walletAddress and signature are required") {
		return
	}
	user, err := h.authLogic.LinkWallet(c.Request.Context(), middleware.CurrentUser(c).ID, req.WalletAddress, req.Signature)
	if err != nil {
		Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Wallet linked successfully", "walletAddress": user.Wallet()})
}

func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	var req ProfileRequest
	if !bindJSON(c, &req, "Invalid profile data") {
		return
	}
	user, err := h.authLogic.UpdateProfile(c.Request.Context(), middleware.CurrentUser(c).ID, logic.ProfileUpdate{
		FullName: req.FullName,
		Bio:      req.Bio,
	})
	if err != nil {
		Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Profile updated successfully", "user": user})
}

func (h *AuthHandler) VerifyStatus(c *gin.Context) {
	verified, err := h.authLogic.VerificationStatus(c.Request.Context(), middleware.CurrentUser(c).ID)
	if err != nil {
		Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"isVerified": verified})
}

// ResendVerification 登录用户直接重发；未登录时按 body 中的邮箱重发
func (h *AuthHandler) ResendVerification(c *gin.Context) {
	ctx := c.Request.Context()
	if user := middleware.CurrentUser(c); user != nil {
		if err := h.authLogic.ResendVerification(ctx, user.ID); err != nil {
			Fail(c, err)
			return
		}
		Message(c, http.StatusOK, "Verification email resent successfully")
		return
	}

	var req EmailRequest
	if !bindJSON(c, &req, "Email is required") {
		return
	}
	if err := h.authLogic.ResendVerificationByEmail(ctx, req.Email); err != nil {
		Fail(c, err)
		return
	}
	Message(c, http.StatusOK, "If the account exists and is not verified, a verification email has been sent")
}

func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req ChangePasswordRequest
	if !bindJSON(c, &req, "Current and new passwords are required") {
		return
	}
	if err := h.authLogic.ChangePassword(c.Request.Context(), middleware.CurrentUser(c).ID, req.CurrentPassword, req.NewPassword); err != nil {
		Fail(c, err)
		return
	}
	Message(c, http.StatusOK, "Password changed successfully")
}
