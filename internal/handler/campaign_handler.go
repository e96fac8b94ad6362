package handler

import (
	"net/http"
	"strconv"

	"github.com/blues/fundchainx/internal/apperr"
	"github.com/blues/fundchainx/internal/logic"
	"github.com/blues/fundchainx/internal/middleware"
	"github.com/gin-gonic/gin"
)

type CampaignHandler struct {
	campaignLogic *logic.CampaignLogic
}

func NewCampaignHandler(campaignLogic *logic.CampaignLogic) *CampaignHandler {
	return &CampaignHandler{campaignLogic: campaignLogic}
}

// ListCampaigns 分页列表，链上读取失败的活动被略过
func (h *CampaignHandler) ListCampaigns(c *gin.Context) {
	var req ListCampaignsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		Fail(c, apperr.Validation("Invalid query parameters").Wrap(err))
		return
	}
	page, err := h.campaignLogic.List(c.Request.Context(), logic.ListQuery{
		Page:     req.Page,
		Limit:    req.Limit,
		Sort:     req.Sort,
		Order:    req.Order,
		Status:   req.Status,
		Category: req.Category,
	})
	if err != nil {
		Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// GetCampaign 获取单个活动
func (h *CampaignHandler) GetCampaign(c *gin.Context) {
	id, ok := campaignID(c)
	if !ok {
		return
	}
	campaign, err := h.campaignLogic.GetByID(c.Request.Context(), id)
	if err != nil {
		Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, campaign)
}

func (h *CampaignHandler) GetCampaignByAddress(c *gin.Context) {
	campaign, err := h.campaignLogic.GetByAddress(c.Request.Context(), c.Param("address"))
	if err != nil {
		Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, campaign)
}

func (h *CampaignHandler) GetCampaignsByCreator(c *gin.Context) {
	campaigns, err := h.campaignLogic.GetByCreator(c.Request.Context(), c.Param("creatorAddress"))
	if err != nil {
		Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, campaigns)
}

// CreateCampaign 登记活动，可附带 banner 图片
func (h *CampaignHandler) CreateCampaign(c *gin.Context) {
	var req CampaignRequest
	if err := c.ShouldBind(&req); err != nil {
		Fail(c, bindError(err, "Invalid campaign data"))
		return
	}
	banner, ok := h.banner(c, &req.Status)
	if !ok {
		return
	}
	defer closeUpload(banner)

	campaign, err := h.campaignLogic.Create(c.Request.Context(), middleware.CurrentUser(c).ID, logic.CampaignInput{
		Title:               req.Title,
		Description:         req.Description,
		Category:            req.Category,
		ContractAddress:     req.ContractAddress,
		BannerURL:           req.BannerURL,
		MinimumContribution: string(req.MinimumContribution),
		TargetContribution:  string(req.TargetContribution),
		Deadline:            string(req.Deadline),
		Status:              req.Status,
	}, banner)
	if err != nil {
		Fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Campaign created successfully", "campaign": campaign})
}

// UpdateCampaign 仅创建者可修改
func (h *CampaignHandler) UpdateCampaign(c *gin.Context) {
	id, ok := campaignID(c)
	if !ok {
		return
	}
	var req CampaignUpdateRequest
	if err := c.ShouldBind(&req); err != nil {
		Fail(c, bindError(err, "Invalid campaign data"))
		return
	}
	banner, ok := h.banner(c, &req.Status)
	if !ok {
		return
	}
	defer closeUpload(banner)

	campaign, err := h.campaignLogic.Update(c.Request.Context(), middleware.CurrentUser(c).ID, id, logic.CampaignUpdate{
		Title:               req.Title,
		Description:         req.Description,
		Category:            req.Category,
		BannerURL:           req.BannerURL,
		Status:              req.Status,
		MinimumContribution: req.MinimumContribution.ptr(),
		TargetContribution:  req.TargetContribution.ptr(),
		Deadline:            req.Deadline.ptr(),
	}, banner)
	if err != nil {
		Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Campaign updated successfully", "campaign": campaign})
}

// DeleteCampaign 仅创建者可删除
func (h *CampaignHandler) DeleteCampaign(c *gin.Context) {
	id, ok := campaignID(c)
	if !ok {
		return
	}
	campaign, err := h.campaignLogic.Delete(c.Request.Context(), middleware.CurrentUser(c).ID, id)
	if err != nil {
		Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Campaign deleted successfully", "campaign": campaign})
}

func (h *CampaignHandler) ClaimRefund(c *gin.Context) {
	var req RefundRequest
	if !bindJSON(c, &req, "address and contributor are required") {
		return
	}
	if err := h.campaignLogic.ClaimRefund(c.Request.Context(), middleware.CurrentUser(c).ID, req.Address, req.Contributor); err != nil {
		Fail(c, err)
		return
	}
	Message(c, http.StatusOK, "Refund claimed successfully")
}

func (h *CampaignHandler) WithdrawFunds(c *gin.Context) {
	var req WithdrawRequest
	if !bindJSON(c, &req, "address and creator are required") {
		return
	}
	if err := h.campaignLogic.WithdrawFunds(c.Request.Context(), middleware.CurrentUser(c).ID, req.Address, req.Creator); err != nil {
		Fail(c, err)
		return
	}
	Message(c, http.StatusOK, "Funds withdrawn successfully")
}

func (h *CampaignHandler) UserStats(c *gin.Context) {
	stats, err := h.campaignLogic.UserStats(c.Request.Context(), middleware.CurrentUser(c).ID)
	if err != nil {
		Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// banner 读取 multipart 中的 status 与 banner 文件，JSON 请求直接返回
func (h *CampaignHandler) banner(c *gin.Context, status *any) (*logic.Upload, bool) {
	if !isMultipart(c) {
		return nil, true
	}
	if v, ok := c.GetPostForm("status"); ok {
		*status = v
	}
	upload, err := formUpload(c, "banner")
	if err != nil {
		Fail(c, err)
		return nil, false
	}
	return upload, true
}

func campaignID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		Fail(c, apperr.Validation("Invalid campaign ID"))
		return 0, false
	}
	return uint(id), true
}
