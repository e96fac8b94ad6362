package repository

import (
	"context"

	"github.com/blues/fundchainx/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// sortColumns 允许排序的字段，键为 API 字段名
var sortColumns = map[string]string{
	"createdAt":           "created_at",
	"deadline":            "deadline",
	"title":               "title",
	"raisedAmount":        "raised_amount",
	"targetContribution":  "target_contribution",
	"minimumContribution": "minimum_contribution",
	"contributorsCount":   "contributors_count",
	"status":              "status",
}

// SortColumn 返回字段对应的列名，未知字段按 created_at 排序
func SortColumn(field string) string {
	if col, ok := sortColumns[field]; ok {
		return col
	}
	return "created_at"
}

// CampaignFilter 列表查询条件
type CampaignFilter struct {
	Status    model.CampaignStatus
	Category  string
	SortField string
	SortAsc   bool
	Page      int
	Limit     int
}

// CampaignRepository 活动存储
type CampaignRepository struct {
	db *gorm.DB
}

func NewCampaignRepository(db *gorm.DB) *CampaignRepository {
	return &CampaignRepository{db: db}
}

// Create 新建活动，合约地址冲突时返回 ErrDuplicate
func (r *CampaignRepository) Create(ctx context.Context, campaign *model.Campaign) error {
	return translate(r.db.WithContext(ctx).Create(campaign).Error)
}

// List 分页查询，返回当前页与总数
func (r *CampaignRepository) List(ctx context.Context, f CampaignFilter) ([]model.Campaign, int64, error) {
	filter := func(db *gorm.DB) *gorm.DB {
		if f.Status != "" {
			db = db.Where("status = ?", f.Status)
		}
		if f.Category != "" {
			db = db.Where("category = ?", f.Category)
		}
		return db
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&model.Campaign{}).Scopes(filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page, limit := f.Page, f.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	var campaigns []model.Campaign
	err := r.db.WithContext(ctx).
		Scopes(filter).
		Order(clause.OrderByColumn{Column: clause.Column{Name: SortColumn(f.SortField)}, Desc: !f.SortAsc}).
		Order("id DESC").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&campaigns).Error
	if err != nil {
		return nil, 0, err
	}
	return campaigns, total, nil
}

func (r *CampaignRepository) FindByID(ctx context.Context, id uint) (*model.Campaign, error) {
	var campaign model.Campaign
	if err := r.db.WithContext(ctx).First(&campaign, id).Error; err != nil {
		return nil, translate(err)
	}
	return &campaign, nil
}

func (r *CampaignRepository) FindByContract(ctx context.Context, address string) (*model.Campaign, error) {
	var campaign model.Campaign
	err := r.db.WithContext(ctx).Where("contract_address = ?", model.NormalizeAddress(address)).First(&campaign).Error
	if err != nil {
		return nil, translate(err)
	}
	return &campaign, nil
}

func (r *CampaignRepository) FindByCreator(ctx context.Context, creator string) ([]model.Campaign, error) {
	var campaigns []model.Campaign
	err := r.db.WithContext(ctx).
		Where("creator = ?", model.NormalizeAddress(creator)).
		Order("created_at DESC").
		Find(&campaigns).Error
	return campaigns, err
}

// FindSyncable 非终态的活动，供定时同步使用
func (r *CampaignRepository) FindSyncable(ctx context.Context) ([]model.Campaign, error) {
	var campaigns []model.Campaign
	err := r.db.WithContext(ctx).
		Where("status NOT IN ?", model.TerminalStatuses()).
		Find(&campaigns).Error
	return campaigns, err
}

// ContractAddresses 已登记的全部合约地址
func (r *CampaignRepository) ContractAddresses(ctx context.Context) ([]string, error) {
	var addrs []string
	err := r.db.WithContext(ctx).Model(&model.Campaign{}).Pluck("contract_address", &addrs).Error
	return addrs, err
}

func (r *CampaignRepository) CountByCreator(ctx context.Context, creator string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Campaign{}).
		Where("creator = ?", model.NormalizeAddress(creator)).
		Count(&count).Error
	return count, err
}

// Save 写回全部字段
func (r *CampaignRepository) Save(ctx context.Context, campaign *model.Campaign) error {
	return translate(r.db.WithContext(ctx).Save(campaign).Error)
}

func (r *CampaignRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&model.Campaign{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
