package scheduler

import (
	"context"
	"time"

	"github.com/blues/fundchainx/internal/logger"
	"github.com/blues/fundchainx/internal/logic"
	"github.com/go-co-op/gocron/v2"
)

const defaultSyncInterval = 5 * time.Minute

// Syncer 由 logic.CampaignLogic 实现
type Syncer interface {
	SyncSnapshots(ctx context.Context) (*logic.SyncResult, error)
}

// CampaignSyncJob 定期把非终态活动的链上快照写回数据库
type CampaignSyncJob struct {
	syncer   Syncer
	interval time.Duration
	timeout  time.Duration
}

// NewCampaignSyncJob interval 为秒，非正数时使用默认值
func NewCampaignSyncJob(syncer Syncer, intervalSecs int) *CampaignSyncJob {
	interval := time.Duration(intervalSecs) * time.Second
	if interval <= 0 {
		interval = defaultSyncInterval
	}
	return &CampaignSyncJob{syncer: syncer, interval: interval, timeout: interval}
}

// GetName 获取任务名称
func (j *CampaignSyncJob) GetName() string {
	return "campaign_snapshot_sync"
}

// GetSchedule 获取调度配置
func (j *CampaignSyncJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(j.interval)
}

// Execute 执行任务，单次执行不超过一个调度周期
func (j *CampaignSyncJob) Execute() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	start := time.Now()
	result, err := j.syncer.SyncSnapshots(ctx)
	if err != nil {
		logger.Error("Campaign snapshot sync failed: %v", err)
		return
	}
	logger.Info("Campaign snapshot sync completed in %s: refreshed=%d skipped=%d",
		time.Since(start).Round(time.Millisecond), result.Refreshed, result.Skipped)
	if result.Unregistered > 0 {
		logger.Warn("%d deployed campaign(s) have no cache entry", result.Unregistered)
	}
}
