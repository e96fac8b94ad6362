package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Campaign 众筹活动缓存模型，快照字段以链上数据为准
type Campaign struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"createdAt" gorm:"<-:create;index"`
	UpdatedAt time.Time `json:"updatedAt"`

	// 基本信息
	Title       string `json:"title" gorm:"not null"`
	Description string `json:"description" gorm:"type:text;not null"`
	Category    string `json:"category" gorm:"not null;index"`
	BannerURL   string `json:"bannerUrl"`

	// 创建者钱包地址（小写），用于权限校验
	Creator         string `json:"creator" gorm:"not null;index;size:42"`
	ContractAddress string `json:"contractAddress" gorm:"uniqueIndex;not null;size:42"`

	// 众筹参数，单位为 ether
	MinimumContribution decimal.Decimal `json:"minimumContribution" gorm:"type:numeric(38,18);not null"`
	TargetContribution  decimal.Decimal `json:"targetContribution" gorm:"type:numeric(38,18);not null"`
	Deadline            time.Time       `json:"deadline" gorm:"not null"`

	Status CampaignStatus `json:"status" gorm:"type:varchar(16);not null;default:ACTIVE;index"`

	// 链上快照
	RaisedAmount      decimal.Decimal `json:"raisedAmount" gorm:"type:numeric(38,18);not null;default:0"`
	ContributorsCount int64           `json:"contributorsCount" gorm:"not null;default:0"`
	TotalRefunded     decimal.Decimal `json:"totalRefunded" gorm:"type:numeric(38,18);not null;default:0"`
	RefundPeriodEnd   int64           `json:"refundPeriodEnd" gorm:"not null;default:0"`
}

// TableName 自定义表名
func (Campaign) TableName() string {
	return "campaigns"
}

// BeforeSave 写入前统一地址大小写与状态取值
func (c *Campaign) BeforeSave(tx *gorm.DB) error {
	c.Creator = NormalizeAddress(c.Creator)
	c.ContractAddress = NormalizeAddress(c.ContractAddress)
	c.Status = NormalizeStatus(string(c.Status))
	return nil
}
