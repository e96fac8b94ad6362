package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/blues/fundchainx/internal/auth"
	"github.com/blues/fundchainx/internal/cache"
	"github.com/blues/fundchainx/internal/chain"
	"github.com/blues/fundchainx/internal/config"
	"github.com/blues/fundchainx/internal/database"
	"github.com/blues/fundchainx/internal/logger"
	"github.com/blues/fundchainx/internal/logic"
	"github.com/blues/fundchainx/internal/mail"
	"github.com/blues/fundchainx/internal/metrics"
	"github.com/blues/fundchainx/internal/repository"
	"github.com/blues/fundchainx/internal/router"
	"github.com/blues/fundchainx/internal/scheduler"
	"github.com/blues/fundchainx/internal/storage"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	// .env 不存在时忽略
	_ = godotenv.Load()

	// 加载配置
	cfg, err := config.LoadFrom(*configPath)
	if err != nil {
		logger.Fatal("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal("%v", err)
	}
	if err := logger.Init(cfg.Log); err != nil {
		logger.Fatal("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// 设置Gin模式
	gin.SetMode(cfg.Server.Mode)

	// 初始化数据库
	db, err := database.Init(cfg.Database, cfg.Server.Mode)
	if err != nil {
		logger.Fatal("Failed to initialize database: %v", err)
	}

	// 初始化链客户端
	chainManager, err := chain.NewManager(cfg.Chain)
	if err != nil {
		logger.Fatal("Failed to initialize chain client: %v", err)
	}
	defer chainManager.Close()

	ctx := context.Background()
	recorder := metrics.PrometheusMetrics(metrics.Namespace)

	var store logic.ObjectStore
	if cfg.Storage.Bucket != "" {
		s3Store, err := storage.NewS3Store(ctx, cfg.Storage)
		if err != nil {
			logger.Fatal("Failed to initialize object storage: %v", err)
		}
		store = s3Store
	} else {
		logger.Warn("storage.bucket is empty, image upload is disabled")
	}

	var mailer mail.Sender = mail.LogSender{}
	if cfg.Mail.Host != "" && cfg.Mail.Username != "" {
		smtpSender, err := mail.NewSMTPSender(cfg.Mail)
		if err != nil {
			logger.Fatal("Failed to initialize mail sender: %v", err)
		}
		mailer = smtpSender
	} else {
		logger.Warn("SMTP credentials are empty, emails are written to the log")
	}

	var throttle logic.Throttle = cache.NoopThrottle{}
	if cfg.Redis.Addr != "" {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logger.Fatal("Failed to connect to redis: %v", err)
		}
		defer client.Close()
		throttle = cache.NewThrottle(client, cfg.Redis.ResendWindow)
	}

	users := repository.NewUserRepository(db)
	campaigns := repository.NewCampaignRepository(db)

	authLogic := logic.NewAuthLogic(users, auth.NewTokenService(cfg.JWT.Secret), auth.NewPasswordService(0), mailer, logic.AuthConfig{
		FrontendURL:     cfg.Server.FrontendURL,
		SessionTTL:      cfg.JWT.SessionTTL,
		VerificationTTL: cfg.JWT.VerificationTTL,
		ResetTTL:        cfg.JWT.ResetTTL,
	}).WithThrottle(throttle).WithRecorder(recorder)

	imageLogic := logic.NewImageLogic(store, cfg.Storage.KeyPrefix)

	campaignLogic, err := logic.NewCampaignLogic(campaigns, users, chainManager.CampaignClient(), imageLogic, cfg.Chain.RefreshWorkers)
	if err != nil {
		logger.Fatal("Failed to initialize campaign logic: %v", err)
	}
	defer campaignLogic.Close()
	campaignLogic.WithRecorder(recorder)

	// 初始化路由
	r := router.Setup(router.Deps{
		Auth:        authLogic,
		Campaigns:   campaignLogic,
		Images:      imageLogic,
		Metrics:     recorder,
		Chain:       chainManager,
		CORSOrigin:  cfg.Server.CORSOrigin,
		UploadLimit: cfg.UploadLimit(),
	})

	// 启动定时任务
	tasks, err := scheduler.NewManager(cfg.Task)
	if err != nil {
		logger.Fatal("Failed to create task manager: %v", err)
	}
	if err := tasks.Register(scheduler.NewCampaignSyncJob(campaignLogic, cfg.Task.Interval)); err != nil {
		logger.Fatal("Failed to register task: %v", err)
	}
	tasks.Start()
	defer tasks.Stop()

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 启动服务器
	go func() {
		logger.Info("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown: %v", err)
	}
	logger.Info("Server exited")
}
