package logic

import (
	"context"
	"io"

	"github.com/blues/fundchainx/internal/apperr"
	"github.com/blues/fundchainx/internal/chain"
	"github.com/blues/fundchainx/internal/logger"
	"github.com/blues/fundchainx/internal/mail"
	"github.com/blues/fundchainx/internal/model"
	"github.com/blues/fundchainx/internal/repository"
)

// UserStore 用户存储，由 repository.UserRepository 实现
type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id uint) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByWallet(ctx context.Context, address string) (*model.User, error)
	Save(ctx context.Context, user *model.User) error
}

// CampaignStore 活动存储，由 repository.CampaignRepository 实现
type CampaignStore interface {
	Create(ctx context.Context, campaign *model.Campaign) error
	List(ctx context.Context, f repository.CampaignFilter) ([]model.Campaign, int64, error)
	FindByID(ctx context.Context, id uint) (*model.Campaign, error)
	FindByContract(ctx context.Context, address string) (*model.Campaign, error)
	FindByCreator(ctx context.Context, creator string) ([]model.Campaign, error)
	FindSyncable(ctx context.Context) ([]model.Campaign, error)
	ContractAddresses(ctx context.Context) ([]string, error)
	CountByCreator(ctx context.Context, creator string) (int64, error)
	Save(ctx context.Context, campaign *model.Campaign) error
	Delete(ctx context.Context, id uint) error
}

// CampaignChain 链上活动合约，由 chain.CampaignClient 实现
type CampaignChain interface {
	CampaignDetails(ctx context.Context, address string) (*chain.CampaignDetails, error)
	ClaimRefund(ctx context.Context, address string) error
	WithdrawFunds(ctx context.Context, address string) error
	DeployedCampaigns(ctx context.Context) ([]string, error)
}

// ObjectStore 对象存储，由 storage.S3Store 实现
type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error)
}

// Throttle 按 key 限流，由 cache.Throttle 实现
type Throttle interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// Recorder 业务指标，由 metrics.Metrics 实现
type Recorder interface {
	ChainCall(method string, err error)
	MailDelivered(kind string, err error)
}

type nopRecorder struct{}

func (nopRecorder) ChainCall(string, error)     {}
func (nopRecorder) MailDelivered(string, error) {}

type allowAll struct{}

func (allowAll) Allow(context.Context, string) (bool, error) { return true, nil }

var (
	_ UserStore     = (*repository.UserRepository)(nil)
	_ CampaignStore = (*repository.CampaignRepository)(nil)
	_ CampaignChain = (*chain.CampaignClient)(nil)
	_ mail.Sender   = mail.LogSender{}
)

// upstream 记录并包装存储或外部服务的失败
func upstream(message string, err error) error {
	logger.Error("%s: %v", message, err)
	return apperr.Upstream(message, err)
}
