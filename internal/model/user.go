package model

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// User 账户模型
type User struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"createdAt" gorm:"<-:create"`
	UpdatedAt time.Time `json:"-"`

	Email        string `json:"email" gorm:"uniqueIndex;not null;size:255"`
	PasswordHash string `json:"-" gorm:"not null"`
	IsVerified   bool   `json:"isVerified" gorm:"not null;default:false"`

	VerificationToken    *string    `json:"-" gorm:"type:text"`
	ResetPasswordToken   *string    `json:"-" gorm:"type:text"`
	ResetPasswordExpires *time.Time `json:"-"`

	// 钱包地址，小写存储，可为空但唯一
	WalletAddress *string `json:"walletAddress" gorm:"uniqueIndex;size:42"`

	FullName string `json:"fullName"`
	Bio      string `json:"bio" gorm:"type:text"`
}

// TableName 自定义表名
func (User) TableName() string {
	return "users"
}

// BeforeSave 统一邮箱与钱包地址的大小写
func (u *User) BeforeSave(tx *gorm.DB) error {
	u.Email = NormalizeEmail(u.Email)
	if u.WalletAddress != nil {
		addr := NormalizeAddress(*u.WalletAddress)
		u.WalletAddress = &addr
	}
	return nil
}

// Wallet 返回已绑定的钱包地址，未绑定时返回空串
func (u *User) Wallet() string {
	if u.WalletAddress == nil {
		return ""
	}
	return *u.WalletAddress
}

// NormalizeEmail 邮箱大小写不敏感
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizeAddress 链上地址统一小写
func NormalizeAddress(addr string) string {
	return strings.ToLower(strings.TrimSpace(addr))
}
