package middleware

import (
	"context"
	"strings"

	"github.com/blues/fundchainx/internal/apperr"
	"github.com/blues/fundchainx/internal/model"
	"github.com/gin-gonic/gin"
)

const currentUserKey = "current_user"

// Authenticator 校验会话令牌，由 logic.AuthLogic 实现
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*model.User, error)
}

// Auth 要求 Bearer 会话令牌，requireVerified 为 true 时拒绝未验证邮箱的用户
func Auth(authn Authenticator, requireVerified bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := bearerToken(c.GetHeader("Authorization"))
		if err != nil {
			abort(c, err)
			return
		}
		if !authenticate(c, authn, token, requireVerified) {
			return
		}
		c.Next()
	}
}

// OptionalAuth 没有 Authorization 头时直接放行，有则按 Auth 校验（不要求已验证）
func OptionalAuth(authn Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}
		token, err := bearerToken(header)
		if err != nil {
			abort(c, err)
			return
		}
		if !authenticate(c, authn, token, false) {
			return
		}
		c.Next()
	}
}

func authenticate(c *gin.Context, authn Authenticator, token string, requireVerified bool) bool {
	user, err := authn.Authenticate(c.Request.Context(), token)
	if err != nil {
		abort(c, err)
		return false
	}
	if requireVerified && !user.IsVerified {
		abort(c, apperr.ErrAccountNotVerified)
		return false
	}
	c.Set(currentUserKey, user)
	return true
}

func bearerToken(header string) (string, error) {
	if header == "" {
		return "", apperr.ErrAuthRequired
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || scheme != "Bearer" {
		return "", apperr.ErrAuthRequired
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", apperr.ErrAuthRequired.WithMessage("Authentication token required")
	}
	return token, nil
}

// CurrentUser 返回 Auth 写入的用户，未登录时为 nil
func CurrentUser(c *gin.Context) *model.User {
	v, ok := c.Get(currentUserKey)
	if !ok {
		return nil
	}
	user, _ := v.(*model.User)
	return user
}

func abort(c *gin.Context, err error) {
	e := apperr.From(err)
	c.AbortWithStatusJSON(e.Kind.HTTPStatus(), gin.H{"message": e.Message, "code": e.Code})
}
