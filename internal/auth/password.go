package auth

import (
	"golang.org/x/crypto/bcrypt"
)

// PasswordService bcrypt 加盐哈希
type PasswordService struct {
	cost int
}

// NewPasswordService 创建密码服务，cost 为 0 时使用默认值
func NewPasswordService(cost int) *PasswordService {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &PasswordService{cost: cost}
}

// Hash 生成密码哈希
func (p *PasswordService) Hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Verify 校验密码
func (p *PasswordService) Verify(hashed, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(password)) == nil
}
