package router

import (
	"context"
	"net/http"

	"github.com/blues/fundchainx/internal/handler"
	"github.com/blues/fundchainx/internal/logic"
	"github.com/blues/fundchainx/internal/metrics"
	"github.com/blues/fundchainx/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// multipart 边界与表单字段的额外空间
const multipartOverhead int64 = 1 << 20

// HealthChecker 链客户端健康状态，由 chain.Manager 实现
type HealthChecker interface {
	GetHealthStatus(ctx context.Context) map[string]interface{}
}

// Deps 路由依赖
type Deps struct {
	Auth        *logic.AuthLogic
	Campaigns   *logic.CampaignLogic
	Images      *logic.ImageLogic
	Metrics     *metrics.Metrics
	Chain       HealthChecker // 可为空
	CORSOrigin  string
	UploadLimit int64
}

func Setup(deps Deps) *gin.Engine {
	r := gin.New()

	// 中间件
	r.Use(gin.Recovery())
	r.Use(middleware.AccessLog())
	r.Use(middleware.CORS(deps.CORSOrigin))
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Middleware())
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		body := gin.H{
			"status":  "ok",
			"service": "fundchainx",
		}
		if deps.Chain != nil {
			body["chain"] = deps.Chain.GetHealthStatus(c.Request.Context())
		}
		c.JSON(http.StatusOK, body)
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	uploadLimit := deps.UploadLimit
	if uploadLimit <= 0 {
		uploadLimit = logic.MaxImageSize
	}
	bodyLimit := middleware.BodyLimit(uploadLimit + multipartOverhead)

	requireSession := middleware.Auth(deps.Auth, true)
	anySession := middleware.Auth(deps.Auth, false)

	api := r.Group("/api")
	{
		// 认证相关路由
		authHandler := handler.NewAuthHandler(deps.Auth)
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/wallet-login", authHandler.WalletLogin)
			auth.POST("/forgot-password", authHandler.ForgotPassword)
			auth.POST("/reset-password", authHandler.ResetPassword)
			auth.GET("/verify-email", authHandler.VerifyEmail)
			auth.POST("/verify-email", authHandler.VerifyEmail)

			auth.GET("/me", requireSession, authHandler.Me)
			auth.POST("/link-wallet", requireSession, authHandler.LinkWallet)
			auth.PUT("/profile", requireSession, authHandler.UpdateProfile)
			auth.POST("/change-password", requireSession, authHandler.ChangePassword)
			auth.GET("/verify-status", anySession, authHandler.VerifyStatus)
			auth.POST("/resend-verification", middleware.OptionalAuth(deps.Auth), authHandler.ResendVerification)
		}

		// 活动相关路由，静态路径优先于 :id
		campaignHandler := handler.NewCampaignHandler(deps.Campaigns)
		campaigns := api.Group("/campaigns")
		{
			campaigns.GET("", campaignHandler.ListCampaigns)
			campaigns.GET("/user/stats", requireSession, campaignHandler.UserStats)
			campaigns.GET("/address/:address", campaignHandler.GetCampaignByAddress)
			campaigns.GET("/creator/:creatorAddress", campaignHandler.GetCampaignsByCreator)
			campaigns.GET("/:id", campaignHandler.GetCampaign)

			campaigns.POST("", requireSession, bodyLimit, campaignHandler.CreateCampaign)
			campaigns.POST("/refund", requireSession, campaignHandler.ClaimRefund)
			campaigns.POST("/withdraw", requireSession, campaignHandler.WithdrawFunds)
			campaigns.PUT("/:id", requireSession, bodyLimit, campaignHandler.UpdateCampaign)
			campaigns.DELETE("/:id", requireSession, campaignHandler.DeleteCampaign)
		}

		imageHandler := handler.NewImageHandler(deps.Images)
		api.POST("/images/upload", bodyLimit, imageHandler.UploadImage)
	}

	return r
}
