package logic

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/blues/fundchainx/internal/apperr"
	"github.com/blues/fundchainx/internal/chain"
	"github.com/blues/fundchainx/internal/logger"
	"github.com/blues/fundchainx/internal/model"
	"github.com/blues/fundchainx/internal/repository"
	"github.com/ethereum/go-ethereum/common"
	"github.com/panjf2000/ants/v2"
	"github.com/shopspring/decimal"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// ListQuery 列表查询参数
type ListQuery struct {
	Page     int
	Limit    int
	Sort     string
	Order    string // asc / desc，默认 desc
	Status   string
	Category string
}

// CampaignPage 分页结果，Skipped 为链上读取失败而被略过的条数
type CampaignPage struct {
	Campaigns      []model.Campaign `json:"campaigns"`
	TotalPages     int64            `json:"totalPages"`
	CurrentPage    int              `json:"currentPage"`
	TotalCampaigns int64            `json:"totalCampaigns"`
	Skipped        int              `json:"skipped"`
}

// CampaignInput 创建活动的参数，数值与时间为空时取链上值
type CampaignInput struct {
	Title               string
	Description         string
	Category            string
	ContractAddress     string
	BannerURL           string
	MinimumContribution string
	TargetContribution  string
	Deadline            string
	Status              any
}

// CampaignUpdate 可修改的字段，nil 表示不修改
type CampaignUpdate struct {
	Title               *string
	Description         *string
	Category            *string
	BannerURL           *string
	Status              any
	MinimumContribution *string
	TargetContribution  *string
	Deadline            *string
}

// UserStats 用户统计
type UserStats struct {
	TotalCampaigns int64 `json:"totalCampaigns"`
	// 暂无链上贡献聚合，固定为 0
	TotalContributions int64 `json:"totalContributions"`
}

// SyncResult 一次快照同步的结果
type SyncResult struct {
	Refreshed    int
	Skipped      int
	Unregistered int
}

// CampaignLogic 活动缓存与链上状态的协调
type CampaignLogic struct {
	campaigns CampaignStore
	users     UserStore
	chain     CampaignChain
	images    *ImageLogic
	pool      *ants.Pool
	recorder  Recorder
}

// NewCampaignLogic 创建活动业务逻辑，workers 为并发读取链上数据的协程数
func NewCampaignLogic(campaigns CampaignStore, users UserStore, campaignChain CampaignChain, images *ImageLogic, workers int) (*CampaignLogic, error) {
	if workers <= 0 {
		workers = 8
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, fmt.Errorf("failed to create refresh pool: %w", err)
	}
	return &CampaignLogic{
		campaigns: campaigns,
		users:     users,
		chain:     campaignChain,
		images:    images,
		pool:      pool,
		recorder:  nopRecorder{},
	}, nil
}

// WithRecorder 设置指标记录
func (l *CampaignLogic) WithRecorder(r Recorder) *CampaignLogic {
	l.recorder = r
	return l
}

// Close 释放协程池
func (l *CampaignLogic) Close() {
	l.pool.Release()
}

// applySnapshot 用链上数据覆盖动态字段；full 为 true 时同时覆盖
// 最小出资、目标金额与截止时间，这三项在只读刷新中保留存储值
func applySnapshot(c *model.Campaign, d *chain.CampaignDetails, full bool) {
	c.RaisedAmount = d.RaisedAmount
	c.ContributorsCount = d.ContributorsCount
	c.Status = d.Status()
	c.TotalRefunded = d.TotalRefunded
	c.RefundPeriodEnd = d.RefundPeriodEnd
	if full {
		c.MinimumContribution = d.MinimumContribution
		c.TargetContribution = d.TargetContribution
		c.Deadline = d.Deadline
	}
}

func (l *CampaignLogic) details(ctx context.Context, address string) (*chain.CampaignDetails, error) {
	d, err := l.chain.CampaignDetails(ctx, address)
	l.recorder.ChainCall("getCampaignDetails", err)
	return d, err
}

// refresh 从链上读取快照，persist 为 true 时以完整快照写回存储
func (l *CampaignLogic) refresh(ctx context.Context, c *model.Campaign, persist bool) error {
	if c.ContractAddress == "" {
		return nil
	}
	d, err := l.details(ctx, c.ContractAddress)
	if err != nil {
		return err
	}
	applySnapshot(c, d, persist)
	if persist {
		return l.campaigns.Save(ctx, c)
	}
	return nil
}

// refreshAll 并发刷新，失败的条目被丢弃并计数
func (l *CampaignLogic) refreshAll(ctx context.Context, campaigns []model.Campaign, persist bool) ([]model.Campaign, int) {
	errs := make([]error, len(campaigns))
	var wg sync.WaitGroup
	for i := range campaigns {
		wg.Add(1)
		err := l.pool.Submit(func() {
			defer wg.Done()
			errs[i] = l.refresh(ctx, &campaigns[i], persist)
		})
		if err != nil {
			wg.Done()
			errs[i] = err
		}
	}
	wg.Wait()

	kept := make([]model.Campaign, 0, len(campaigns))
	skipped := 0
	for i, err := range errs {
		if err != nil {
			logger.Warn("Skipping campaign %s: %v", campaigns[i].ContractAddress, err)
			skipped++
			continue
		}
		kept = append(kept, campaigns[i])
	}
	return kept, skipped
}

// List 分页查询并刷新链上快照（不写回）
func (l *CampaignLogic) List(ctx context.Context, q ListQuery) (*CampaignPage, error) {
	page, limit := q.Page, q.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	filter := repository.CampaignFilter{
		Status:    model.CampaignStatus(strings.ToUpper(strings.TrimSpace(q.Status))),
		Category:  q.Category,
		SortField: q.Sort,
		SortAsc:   strings.EqualFold(q.Order, "asc"),
		Page:      page,
		Limit:     limit,
	}
	campaigns, total, err := l.campaigns.List(ctx, filter)
	if err != nil {
		return nil, upstream("Error fetching campaigns", err)
	}

	kept, skipped := l.refreshAll(ctx, campaigns, false)
	return &CampaignPage{
		Campaigns:      kept,
		TotalPages:     (total + int64(limit) - 1) / int64(limit),
		CurrentPage:    page,
		TotalCampaigns: total,
		Skipped:        skipped,
	}, nil
}

// GetByID 查询单个活动并刷新快照（不写回）
func (l *CampaignLogic) GetByID(ctx context.Context, id uint) (*model.Campaign, error) {
	c, err := l.findCampaign(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := l.refresh(ctx, c, false); err != nil {
		return nil, upstream("Error fetching campaign", err)
	}
	return c, nil
}

// GetByAddress 按合约地址查询，刷新后写回存储
func (l *CampaignLogic) GetByAddress(ctx context.Context, address string) (*model.Campaign, error) {
	c, err := l.campaigns.FindByContract(ctx, address)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.ErrCampaignNotFound.WithMessage("No campaign found with this contract address")
	} else if err != nil {
		return nil, upstream("Error fetching campaign", err)
	}
	if err := l.refresh(ctx, c, true); err != nil {
		return nil, upstream("Error fetching campaign", err)
	}
	return c, nil
}

// GetByCreator 查询创建者的全部活动（不写回）
func (l *CampaignLogic) GetByCreator(ctx context.Context, creator string) ([]model.Campaign, error) {
	campaigns, err := l.campaigns.FindByCreator(ctx, creator)
	if err != nil {
		return nil, upstream("Error fetching creator campaigns", err)
	}
	kept, _ := l.refreshAll(ctx, campaigns, false)
	return kept, nil
}

// Create 登记已部署的活动合约，合约创建者必须是当前用户绑定的钱包
func (l *CampaignLogic) Create(ctx context.Context, userID uint, in CampaignInput, banner *Upload) (*model.Campaign, error) {
	wallet, err := l.walletOf(ctx, userID)
	if err != nil {
		return nil, err
	}

	if in.Title == "" || in.Description == "" || in.ContractAddress == "" || in.Category == "" {
		return nil, apperr.Validation("Missing required campaign fields")
	}
	if !common.IsHexAddress(in.ContractAddress) {
		return nil, apperr.Validation("Invalid contract address")
	}
	minimum, err := parseAmount("minimumContribution", in.MinimumContribution)
	if err != nil {
		return nil, err
	}
	target, err := parseAmount("targetContribution", in.TargetContribution)
	if err != nil {
		return nil, err
	}
	deadline, err := parseDeadline(in.Deadline)
	if err != nil {
		return nil, err
	}
	if banner != nil {
		if err := l.images.Validate(*banner); err != nil {
			return nil, err
		}
	}

	d, err := l.details(ctx, in.ContractAddress)
	if err != nil {
		return nil, upstream("Failed to read campaign contract", err)
	}
	if !strings.EqualFold(d.Creator, wallet) {
		return nil, apperr.ErrAuthorizationMismatch
	}

	if _, err := l.campaigns.FindByContract(ctx, in.ContractAddress); err == nil {
		return nil, apperr.ErrCampaignExists
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, upstream("Failed to create campaign", err)
	}

	bannerURL := in.BannerURL
	if banner != nil {
		if bannerURL, err = l.images.Upload(ctx, *banner); err != nil {
			return nil, err
		}
	}

	status := d.Status()
	if in.Status != nil && in.Status != "" {
		status = model.NormalizeStatus(in.Status)
	}

	c := &model.Campaign{
		Title:               in.Title,
		Description:         in.Description,
		Category:            in.Category,
		BannerURL:           bannerURL,
		Creator:             wallet,
		ContractAddress:     in.ContractAddress,
		MinimumContribution: orDefault(minimum, d.MinimumContribution),
		TargetContribution:  orDefault(target, d.TargetContribution),
		Deadline:            d.Deadline,
		Status:              status,
		RaisedAmount:        d.RaisedAmount,
		ContributorsCount:   d.ContributorsCount,
		TotalRefunded:       d.TotalRefunded,
		RefundPeriodEnd:     d.RefundPeriodEnd,
	}
	if deadline != nil {
		c.Deadline = *deadline
	}

	if err := l.campaigns.Create(ctx, c); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperr.ErrCampaignExists
		}
		return nil, upstream("Failed to create campaign", err)
	}
	logger.Info("Campaign registered: %s by %s", c.ContractAddress, wallet)
	return c, nil
}

// Update 仅创建者可修改，创建者与合约地址不可变
func (l *CampaignLogic) Update(ctx context.Context, userID, id uint, in CampaignUpdate, banner *Upload) (*model.Campaign, error) {
	c, err := l.ownedCampaign(ctx, userID, id, "Only the creator can update this campaign")
	if err != nil {
		return nil, err
	}

	if in.Title != nil {
		c.Title = *in.Title
	}
	if in.Description != nil {
		c.Description = *in.Description
	}
	if in.Category != nil {
		c.Category = *in.Category
	}
	if in.BannerURL != nil {
		c.BannerURL = *in.BannerURL
	}
	if in.Status != nil {
		c.Status = model.NormalizeStatus(in.Status)
	}
	if in.MinimumContribution != nil {
		v, err := parseAmount("minimumContribution", *in.MinimumContribution)
		if err != nil {
			return nil, err
		}
		if !v.IsZero() {
			c.MinimumContribution = v
		}
	}
	if in.TargetContribution != nil {
		v, err := parseAmount("targetContribution", *in.TargetContribution)
		if err != nil {
			return nil, err
		}
		if !v.IsZero() {
			c.TargetContribution = v
		}
	}
	if in.Deadline != nil {
		deadline, err := parseDeadline(*in.Deadline)
		if err != nil {
			return nil, err
		}
		if deadline != nil {
			c.Deadline = *deadline
		}
	}
	if banner != nil {
		url, err := l.images.Upload(ctx, *banner)
		if err != nil {
			return nil, err
		}
		c.BannerURL = url
	}

	if err := l.campaigns.Save(ctx, c); err != nil {
		return nil, upstream("Failed to update campaign", err)
	}
	return c, nil
}

// Delete 仅创建者可删除，返回被删除的活动
func (l *CampaignLogic) Delete(ctx context.Context, userID, id uint) (*model.Campaign, error) {
	c, err := l.ownedCampaign(ctx, userID, id, "Only the creator can delete this campaign")
	if err != nil {
		return nil, err
	}
	if err := l.campaigns.Delete(ctx, c.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.ErrCampaignNotFound
		}
		return nil, upstream("Failed to delete campaign", err)
	}
	logger.Info("Campaign %d (%s) deleted", c.ID, c.ContractAddress)
	return c, nil
}

// ClaimRefund 贡献者申请退款，contributor 必须是当前用户绑定的钱包
func (l *CampaignLogic) ClaimRefund(ctx context.Context, userID uint, address, contributor string) error {
	if address == "" || contributor == "" {
		return apperr.Validation("address and contributor are required")
	}
	wallet, err := l.walletOf(ctx, userID)
	if err != nil {
		return err
	}
	if !strings.EqualFold(contributor, wallet) {
		return apperr.ErrForbidden.WithMessage("Contributor address mismatch")
	}
	c, err := l.findByContract(ctx, address)
	if err != nil {
		return err
	}

	err = l.chain.ClaimRefund(ctx, c.ContractAddress)
	l.recorder.ChainCall("claimRefund", err)
	if err != nil {
		return upstream("Failed to claim refund", err)
	}
	if err := l.refresh(ctx, c, true); err != nil {
		return upstream("Refund claimed but campaign refresh failed", err)
	}
	logger.Info("Refund claimed on %s for %s", c.ContractAddress, wallet)
	return nil
}

// WithdrawFunds 创建者提取资金
func (l *CampaignLogic) WithdrawFunds(ctx context.Context, userID uint, address, creator string) error {
	if address == "" || creator == "" {
		return apperr.Validation("address and creator are required")
	}
	wallet, err := l.walletOf(ctx, userID)
	if err != nil {
		return err
	}
	c, err := l.findByContract(ctx, address)
	if err != nil {
		return err
	}
	if !strings.EqualFold(c.Creator, wallet) {
		return apperr.ErrForbidden.WithMessage("Only the creator can withdraw funds")
	}
	if !strings.EqualFold(creator, wallet) {
		return apperr.ErrForbidden.WithMessage("Creator address mismatch")
	}

	err = l.chain.WithdrawFunds(ctx, c.ContractAddress)
	l.recorder.ChainCall("withdrawFunds", err)
	if err != nil {
		return upstream("Failed to withdraw funds", err)
	}
	if err := l.refresh(ctx, c, true); err != nil {
		return upstream("Funds withdrawn but campaign refresh failed", err)
	}
	logger.Info("Funds withdrawn from %s by %s", c.ContractAddress, wallet)
	return nil
}

// UserStats 当前用户创建的活动数
func (l *CampaignLogic) UserStats(ctx context.Context, userID uint) (*UserStats, error) {
	wallet, err := l.walletOf(ctx, userID)
	if err != nil {
		return nil, err
	}
	total, err := l.campaigns.CountByCreator(ctx, wallet)
	if err != nil {
		return nil, upstream("Error fetching user stats", err)
	}
	return &UserStats{TotalCampaigns: total}, nil
}

// SyncSnapshots 刷新所有非终态活动并写回，同时统计工厂中未登记的活动
func (l *CampaignLogic) SyncSnapshots(ctx context.Context) (*SyncResult, error) {
	campaigns, err := l.campaigns.FindSyncable(ctx)
	if err != nil {
		return nil, fmt.Errorf("load syncable campaigns: %w", err)
	}
	kept, skipped := l.refreshAll(ctx, campaigns, true)
	result := &SyncResult{Refreshed: len(kept), Skipped: skipped}

	deployed, err := l.chain.DeployedCampaigns(ctx)
	l.recorder.ChainCall("getDeployedCampaigns", err)
	if err != nil {
		logger.Warn("Failed to load deployed campaigns: %v", err)
		return result, nil
	}
	if len(deployed) == 0 {
		return result, nil
	}

	registered, err := l.campaigns.ContractAddresses(ctx)
	if err != nil {
		return nil, fmt.Errorf("load registered addresses: %w", err)
	}
	known := make(map[string]struct{}, len(registered))
	for _, addr := range registered {
		known[model.NormalizeAddress(addr)] = struct{}{}
	}
	for _, addr := range deployed {
		if _, ok := known[model.NormalizeAddress(addr)]; !ok {
			result.Unregistered++
		}
	}
	return result, nil
}

func (l *CampaignLogic) walletOf(ctx context.Context, userID uint) (string, error) {
	user, err := l.users.FindByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return "", apperr.ErrUserNotFound
	} else if err != nil {
		return "", upstream("Error fetching user", err)
	}
	if user.Wallet() == "" {
		return "", apperr.ErrWalletNotLinked
	}
	return user.Wallet(), nil
}

func (l *CampaignLogic) findCampaign(ctx context.Context, id uint) (*model.Campaign, error) {
	c, err := l.campaigns.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.ErrCampaignNotFound
	} else if err != nil {
		return nil, upstream("Error fetching campaign", err)
	}
	return c, nil
}

func (l *CampaignLogic) findByContract(ctx context.Context, address string) (*model.Campaign, error) {
	c, err := l.campaigns.FindByContract(ctx, address)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.ErrCampaignNotFound
	} else if err != nil {
		return nil, upstream("Error fetching campaign", err)
	}
	return c, nil
}

// ownedCampaign 加载活动并校验调用者为创建者
func (l *CampaignLogic) ownedCampaign(ctx context.Context, userID, id uint, forbidden string) (*model.Campaign, error) {
	wallet, err := l.walletOf(ctx, userID)
	if err != nil {
		return nil, err
	}
	c, err := l.findCampaign(ctx, id)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(c.Creator, wallet) {
		return nil, apperr.ErrForbidden.WithMessage(forbidden)
	}
	return c, nil
}

// parseAmount 解析 ether 数值，空串表示未提供并返回 0
func parseAmount(field, s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	v, err := decimal.NewFromString(s)
	if err != nil || !v.IsPositive() {
		return decimal.Zero, apperr.Validation(field + " must be a positive number")
	}
	return v, nil
}

func orDefault(v, fallback decimal.Decimal) decimal.Decimal {
	if v.IsZero() {
		return fallback
	}
	return v
}

var deadlineLayouts = []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02"}

// parseDeadline 接受 RFC3339、日期或 unix 秒，空串返回 nil
func parseDeadline(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
		t := time.Unix(secs, 0).UTC()
		return &t, nil
	}
	for _, layout := range deadlineLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, apperr.Validation("Invalid deadline")
}
