package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Chain    ChainConfig    `mapstructure:"chain"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Mail     MailConfig     `mapstructure:"mail"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Task     TaskConfig     `mapstructure:"task"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Port        string `mapstructure:"port" validate:"required"`
	Mode        string `mapstructure:"mode" validate:"oneof=debug release test"`
	FrontendURL string `mapstructure:"frontend_url" validate:"required,url"`
	CORSOrigin  string `mapstructure:"cors_origin"`
	MaxUploadMB int64  `mapstructure:"max_upload_mb" validate:"gt=0"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// DSN postgres 连接串
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

// ChainConfig 单链配置
type ChainConfig struct {
	ChainType string `mapstructure:"chain_type" validate:"oneof=ethereum polygon bsc arbitrum optimism sepolia ganache hardhat"`
	ChainId   int64  `mapstructure:"chain_id" validate:"gt=0"`
	RpcUrl    string `mapstructure:"rpc_url" validate:"required"`
	// 代发交易的私钥，为空时 claimRefund/withdraw 不可用
	PrivateKey     string `mapstructure:"private_key"`
	FactoryAddress string `mapstructure:"factory_address"`
	// ABI 路径为空时使用内置 ABI
	CampaignABIPath string `mapstructure:"campaign_abi_path"`
	FactoryABIPath  string `mapstructure:"factory_abi_path"`
	RefreshWorkers  int    `mapstructure:"refresh_workers" validate:"gt=0"`
	Confirmations   uint64 `mapstructure:"confirmations"`
	CallTimeoutSecs int    `mapstructure:"call_timeout_secs" validate:"gte=0"`
}

type JWTConfig struct {
	Secret          string        `mapstructure:"secret" validate:"required"`
	SessionTTL      time.Duration `mapstructure:"session_ttl" validate:"gt=0"`
	VerificationTTL time.Duration `mapstructure:"verification_ttl" validate:"gt=0"`
	ResetTTL        time.Duration `mapstructure:"reset_ttl" validate:"gt=0"`
}

type MailConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

type StorageConfig struct {
	Region        string `mapstructure:"region"`
	Bucket        string `mapstructure:"bucket"`
	Endpoint      string `mapstructure:"endpoint"` // 兼容 MinIO 等 S3 服务
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	KeyPrefix     string `mapstructure:"key_prefix"`
	PublicBaseURL string `mapstructure:"public_base_url"`
}

type RedisConfig struct {
	Addr         string        `mapstructure:"addr"` // 为空时关闭重发限流
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	ResendWindow time.Duration `mapstructure:"resend_window"`
}

type TaskConfig struct {
	Interval    int  `mapstructure:"interval"` // 秒
	SyncEnabled bool `mapstructure:"sync_enabled"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`                                      // 日志级别: debug, info, warn, error, fatal
	Output string `mapstructure:"output" validate:"oneof=stdout stderr file"` // 输出目标
	File   string `mapstructure:"file"`                                       // output 为 file 时的日志文件路径
}

// GetLevel 实现 logger.LogConfig 接口
func (l LogConfig) GetLevel() string {
	return l.Level
}

// GetOutput 实现 logger.LogConfig 接口
func (l LogConfig) GetOutput() string {
	return l.Output
}

// GetFile 实现 logger.LogConfig 接口
func (l LogConfig) GetFile() string {
	return l.File
}

// legacyEnv 兼容旧部署使用的环境变量名
var legacyEnv = map[string]string{
	"server.frontend_url":   "FRONTEND_URL",
	"server.port":           "PORT",
	"jwt.secret":            "JWT_SECRET",
	"mail.username":         "EMAIL_USER",
	"mail.password":         "EMAIL_PASS",
	"storage.bucket":        "AWS_BUCKET_NAME",
	"storage.region":        "AWS_REGION",
	"storage.access_key":    "AWS_ACCESS_KEY_ID",
	"storage.secret_key":    "AWS_SECRET_ACCESS_KEY",
	"chain.rpc_url":         "RPC_URL",
	"chain.factory_address": "CONTRACT_ADDRESS",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "5001")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.frontend_url", "http://localhost:3000")
	v.SetDefault("server.cors_origin", "http://localhost:3000")
	v.SetDefault("server.max_upload_mb", 5)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "fundchainx")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("chain.chain_type", "sepolia")
	v.SetDefault("chain.chain_id", 11155111)
	v.SetDefault("chain.rpc_url", "")
	v.SetDefault("chain.private_key", "")
	v.SetDefault("chain.factory_address", "")
	v.SetDefault("chain.campaign_abi_path", "")
	v.SetDefault("chain.factory_abi_path", "")
	v.SetDefault("chain.refresh_workers", 8)
	v.SetDefault("chain.confirmations", 1)
	v.SetDefault("chain.call_timeout_secs", 15)
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.session_ttl", time.Hour)
	v.SetDefault("jwt.verification_ttl", 24*time.Hour)
	v.SetDefault("jwt.reset_ttl", time.Hour)
	v.SetDefault("mail.host", "smtp.gmail.com")
	v.SetDefault("mail.port", 587)
	v.SetDefault("mail.username", "")
	v.SetDefault("mail.password", "")
	v.SetDefault("mail.from", "")
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.access_key", "")
	v.SetDefault("storage.secret_key", "")
	v.SetDefault("storage.key_prefix", "campaign-images/")
	v.SetDefault("storage.public_base_url", "")
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.resend_window", time.Minute)
	v.SetDefault("task.interval", 300)
	v.SetDefault("task.sync_enabled", true)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.output", "stdout")
	v.SetDefault("log.file", "logs/app.log")
}

// Load 按默认搜索路径加载配置
func Load() (*Config, error) {
	return LoadFrom("")
}

// LoadFrom 从指定文件加载配置，path 为空时在默认目录中查找 config.yaml
// 环境变量优先于配置文件，例如 JWT_SECRET 覆盖 jwt.secret
func LoadFrom(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/fundchainx")
	}

	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range legacyEnv {
		if err := v.BindEnv(key, strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", env, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	return &cfg, nil
}

var validate = validator.New()

// Validate 启动前校验必填项
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Log.Output == "file" && c.Log.File == "" {
		return errors.New("invalid config: log.file is required when log.output is file")
	}
	return nil
}

// UploadLimit 上传大小上限（字节）
func (c *Config) UploadLimit() int64 {
	return c.Server.MaxUploadMB << 20
}
