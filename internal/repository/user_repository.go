package repository

import (
	"context"

	"github.com/blues/fundchainx/internal/model"
	"gorm.io/gorm"
)

// UserRepository 用户存储
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create 新建用户，邮箱或钱包冲突时返回 ErrDuplicate
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	return translate(r.db.WithContext(ctx).Create(user).Error)
}

func (r *UserRepository) FindByID(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).Where("email = ?", model.NormalizeEmail(email)).First(&user).Error
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *UserRepository) FindByWallet(ctx context.Context, wallet string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).Where("wallet_address = ?", model.NormalizeAddress(wallet)).First(&user).Error
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// Save 写回全部字段，nil 指针字段会被置空
func (r *UserRepository) Save(ctx context.Context, user *model.User) error {
	return translate(r.db.WithContext(ctx).Save(user).Error)
}
