package handler

import (
	"encoding/json"
	"strings"
)

// 认证相关请求

type CredentialsRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type WalletLoginRequest struct {
	WalletAddress string `json:"walletAddress" binding:"required"`
	Signature     string `json:"signature" binding:"required"`
	Message       string `json:"message" binding:"required"`
}

type TokenRequest struct {
	Token string `json:"token"`
}

type EmailRequest struct {
	Email string `json:"email" binding:"required"`
}

type ResetPasswordRequest struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LinkWalletRequest struct {
	WalletAddress string `json:"walletAddress" binding:"required"`
	Signature     string `json:"signature" binding:"required"`
}

type ProfileRequest struct {
	FullName string `json:"fullName"`
	Bio      string `json:"bio"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required"`
}

// 活动相关请求

type ListCampaignsRequest struct {
	Page     int    `form:"page"`
	Limit    int    `form:"limit"`
	Sort     string `form:"sort"`
	Order    string `form:"order"`
	Status   string `form:"status"`
	Category string `form:"category"`
}

// CampaignRequest 创建活动，支持 JSON 与 multipart 表单
// status 可为状态名或链上 state 数值，由 handler 单独读取
type CampaignRequest struct {
	Title               string     `json:"title" form:"title"`
	Description         string     `json:"description" form:"description"`
	Category            string     `json:"category" form:"category"`
	ContractAddress     string     `json:"contractAddress" form:"contractAddress"`
	BannerURL           string     `json:"bannerUrl" form:"bannerUrl"`
	MinimumContribution FlexString `json:"minimumContribution" form:"minimumContribution"`
	TargetContribution  FlexString `json:"targetContribution" form:"targetContribution"`
	Deadline            FlexString `json:"deadline" form:"deadline"`
	Status              any        `json:"status" form:"-"`
}

// CampaignUpdateRequest 更新活动，未出现的字段保持不变
type CampaignUpdateRequest struct {
	Title               *string     `json:"title" form:"title"`
	Description         *string     `json:"description" form:"description"`
	Category            *string     `json:"category" form:"category"`
	BannerURL           *string     `json:"bannerUrl" form:"bannerUrl"`
	MinimumContribution *FlexString `json:"minimumContribution" form:"minimumContribution"`
	TargetContribution  *FlexString `json:"targetContribution" form:"targetContribution"`
	Deadline            *FlexString `json:"deadline" form:"deadline"`
	Status              any         `json:"status" form:"-"`
}

type RefundRequest struct {
	Address     string `json:"address" binding:"required"`
	Contributor string `json:"contributor" binding:"required"`
}

type WithdrawRequest struct {
	Address string `json:"address" binding:"required"`
	Creator string `json:"creator" binding:"required"`
}

// FlexString 接受 JSON 字符串或数字
type FlexString string

func (s *FlexString) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	if raw == "null" {
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = FlexString(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*s = FlexString(n.String())
	return nil
}

func (s *FlexString) ptr() *string {
	if s == nil {
		return nil
	}
	v := string(*s)
	return &v
}
