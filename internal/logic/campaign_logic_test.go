package logic_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/blues/fundchainx/internal/apperr"
	"github.com/blues/fundchainx/internal/chain"
	"github.com/blues/fundchainx/internal/logic"
	"github.com/blues/fundchainx/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	aliceWallet = "0xa11ce00000000000000000000000000000000001"
	bobWallet   = "0xb0b0000000000000000000000000000000000002"
	contractA   = "0x00000000000000000000000000000000000000a1"
	contractB   = "0x00000000000000000000000000000000000000b2"
	contractC   = "0x00000000000000000000000000000000000000c3"
)

func validInput(address string) logic.CampaignInput {
	return logic.CampaignInput{
		Title:           "Solar Roof",
		Description:     "Panels for the community hall",
		Category:        "Environment",
		ContractAddress: address,
	}
}

// seedCampaign 直接写入缓存，不经过链上校验
func (f *fixture) seedCampaign(t *testing.T, address, creator string, status model.CampaignStatus) *model.Campaign {
	t.Helper()
	c := &model.Campaign{
		Title:               "Seed " + address[len(address)-2:],
		Description:         "seeded",
		Category:            "Tech",
		Creator:             creator,
		ContractAddress:     address,
		MinimumContribution: decimal.RequireFromString("0.01"),
		TargetContribution:  decimal.NewFromInt(10),
		Deadline:            time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
		Status:              status,
		RaisedAmount:        decimal.Zero,
		TotalRefunded:       decimal.Zero,
	}
	require.NoError(t, f.campaigns.Create(f.ctx, c))
	return c
}

func TestCreateCampaign(t *testing.T) {
	f := newFixture(t)
	noWallet := f.verifiedUser(t, "nowallet@x.com")
	alice := f.walletUser(t, "alice@x.com", aliceWallet)
	f.chain.SetContract(contractA, onChain(aliceWallet, 0, "1.5"))
	f.chain.SetContract(contractB, onChain(bobWallet, 0, "0"))

	_, err := f.campaign.Create(f.ctx, noWallet.ID, validInput(contractA), nil)
	assert.ErrorIs(t, err, apperr.ErrWalletNotLinked)

	missing := validInput(contractA)
	missing.Title = ""
	_, err = f.campaign.Create(f.ctx, alice.ID, missing, nil)
	assertKind(t, apperr.KindValidation, err)

	badAddr := validInput("0x1234")
	_, err = f.campaign.Create(f.ctx, alice.ID, badAddr, nil)
	assertKind(t, apperr.KindValidation, err)

	// 合约创建者不是当前用户
	_, err = f.campaign.Create(f.ctx, alice.ID, validInput(contractB), nil)
	assert.ErrorIs(t, err, apperr.ErrAuthorizationMismatch)

	// 链上读取失败
	_, err = f.campaign.Create(f.ctx, alice.ID, validInput(contractC), nil)
	assertKind(t, apperr.KindUpstream, err)

	in := validInput("0x" + strings.ToUpper(contractA[2:]))
	in.Status = "not-a-status"
	c, err := f.campaign.Create(f.ctx, alice.ID, in, nil)
	require.NoError(t, err)
	assert.Equal(t, contractA, c.ContractAddress)
	assert.Equal(t, aliceWallet, c.Creator)
	assert.Equal(t, model.CampaignStatusActive, c.Status)
	assert.True(t, decimal.RequireFromString("1.5").Equal(c.RaisedAmount))
	assert.True(t, decimal.NewFromInt(10).Equal(c.TargetContribution))

	_, err = f.campaign.Create(f.ctx, alice.ID, validInput(contractA), nil)
	assert.ErrorIs(t, err, apperr.ErrCampaignExists)
	assertKind(t, apperr.KindDuplicate, err)
}

func TestCreateCampaignStatusAndOverrides(t *testing.T) {
	f := newFixture(t)
	alice := f.walletUser(t, "alice@x.com", aliceWallet)
	f.chain.SetContract(contractA, onChain(aliceWallet, 1, "10"))
	f.chain.SetContract(contractB, onChain(aliceWallet, 0, "0"))

	// 未提供状态时取链上状态
	c, err := f.campaign.Create(f.ctx, alice.ID, validInput(contractA), nil)
	require.NoError(t, err)
	assert.Equal(t, model.CampaignStatusSuccess, c.Status)

	in := validInput(contractB)
	in.Status = float64(3)
	in.TargetContribution = "25"
	in.Deadline = "2031-06-01"
	c, err = f.campaign.Create(f.ctx, alice.ID, in, nil)
	require.NoError(t, err)
	assert.Equal(t, model.CampaignStatusAborted, c.Status)
	assert.True(t, decimal.NewFromInt(25).Equal(c.TargetContribution))
	assert.Equal(t, time.Date(2031, 6, 1, 0, 0, 0, 0, time.UTC), c.Deadline)

	bad := validInput(contractB)
	bad.TargetContribution = "lots"
	_, err = f.campaign.Create(f.ctx, alice.ID, bad, nil)
	assertKind(t, apperr.KindValidation, err)
}

func TestCreateCampaignBanner(t *testing.T) {
	f := newFixture(t)
	alice := f.walletUser(t, "alice@x.com", aliceWallet)
	f.chain.SetContract(contractA, onChain(aliceWallet, 0, "0"))

	// 非法文件在访问链与存储之前被拒绝
	bad := &logic.Upload{Filename: "doc.pdf", ContentType: "application/pdf", Size: 10, Body: strings.NewReader("pdf")}
	_, err := f.campaign.Create(f.ctx, alice.ID, validInput(contractA), bad)
	assert.ErrorIs(t, err, apperr.ErrInvalidFileType)
	assert.Empty(t, f.chain.Calls())
	assert.Empty(t, f.store.Keys())

	banner := &logic.Upload{Filename: "roof.PNG", ContentType: "image/png", Size: 4, Body: bytes.NewReader([]byte{1, 2, 3, 4})}
	c, err := f.campaign.Create(f.ctx, alice.ID, validInput(contractA), banner)
	require.NoError(t, err)
	require.Len(t, f.store.Keys(), 1)
	key := f.store.Keys()[0]
	assert.True(t, strings.HasPrefix(key, "campaign-images/"))
	assert.True(t, strings.HasSuffix(key, ".png"))
	assert.Equal(t, "https://test-bucket.example.com/"+key, c.BannerURL)
}

func TestUpdateAndDeleteCampaign(t *testing.T) {
	f := newFixture(t)
	alice := f.walletUser(t, "alice@x.com", aliceWallet)
	bob := f.walletUser(t, "bob@x.com", bobWallet)
	c := f.seedCampaign(t, contractA, aliceWallet, model.CampaignStatusSuccess)

	title := "Hijacked"
	_, err := f.campaign.Update(f.ctx, bob.ID, c.ID, logic.CampaignUpdate{Title: &title}, nil)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	assertKind(t, apperr.KindForbidden, err)

	_, err = f.campaign.Delete(f.ctx, bob.ID, c.ID)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = f.campaign.Update(f.ctx, alice.ID, 9999, logic.CampaignUpdate{Title: &title}, nil)
	assert.ErrorIs(t, err, apperr.ErrCampaignNotFound)

	// 非法状态归一化为 ACTIVE
	title = "Solar Roof v2"
	updated, err := f.campaign.Update(f.ctx, alice.ID, c.ID, logic.CampaignUpdate{Title: &title, Status: "weird"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Solar Roof v2", updated.Title)
	assert.Equal(t, model.CampaignStatusActive, updated.Status)

	stored, err := f.campaigns.FindByID(f.ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Solar Roof v2", stored.Title)
	assert.Equal(t, aliceWallet, stored.Creator)
	assert.Equal(t, contractA, stored.ContractAddress)

	deleted, err := f.campaign.Delete(f.ctx, alice.ID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.ID, deleted.ID)
	_, err = f.campaign.GetByID(f.ctx, c.ID)
	assert.ErrorIs(t, err, apperr.ErrCampaignNotFound)
}

func TestListSkipsFailedRefresh(t *testing.T) {
	f := newFixture(t)
	f.seedCampaign(t, contractA, aliceWallet, model.CampaignStatusActive)
	f.seedCampaign(t, contractB, aliceWallet, model.CampaignStatusActive)
	f.seedCampaign(t, contractC, bobWallet, model.CampaignStatusActive)
	f.chain.SetContract(contractA, onChain(aliceWallet, 0, "2"))
	f.chain.SetContract(contractB, onChain(aliceWallet, 1, "10"))

	page, err := f.campaign.List(f.ctx, logic.ListQuery{Page: 1, Limit: 2, Sort: "title", Order: "asc"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.TotalCampaigns)
	assert.Equal(t, int64(2), page.TotalPages)
	assert.Equal(t, 1, page.CurrentPage)
	require.Len(t, page.Campaigns, 2)
	assert.Equal(t, 0, page.Skipped)
	assert.True(t, decimal.NewFromInt(2).Equal(page.Campaigns[0].RaisedAmount))
	assert.Equal(t, model.CampaignStatusSuccess, page.Campaigns[1].Status)

	page, err = f.campaign.List(f.ctx, logic.ListQuery{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, page.Campaigns, 2)
	assert.Equal(t, 1, page.Skipped)
	assert.Equal(t, int64(3), page.TotalCampaigns)

	// 列表刷新不写回
	stored, err := f.campaigns.FindByContract(f.ctx, contractA)
	require.NoError(t, err)
	assert.True(t, stored.RaisedAmount.IsZero())

	page, err = f.campaign.List(f.ctx, logic.ListQuery{Status: "active", Limit: 500})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.TotalCampaigns)
	assert.Equal(t, int64(1), page.TotalPages)
}

func TestGetCampaign(t *testing.T) {
	f := newFixture(t)
	c := f.seedCampaign(t, contractA, aliceWallet, model.CampaignStatusActive)
	f.chain.SetContract(contractA, onChain(aliceWallet, 1, "5"))

	got, err := f.campaign.GetByID(f.ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(5).Equal(got.RaisedAmount))
	stored, err := f.campaigns.FindByID(f.ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, stored.RaisedAmount.IsZero())

	// 按地址查询会写回
	got, err = f.campaign.GetByAddress(f.ctx, strings.ToUpper(contractA))
	require.NoError(t, err)
	assert.Equal(t, model.CampaignStatusSuccess, got.Status)
	stored, err = f.campaigns.FindByID(f.ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(5).Equal(stored.RaisedAmount))
	assert.Equal(t, model.CampaignStatusSuccess, stored.Status)

	_, err = f.campaign.GetByAddress(f.ctx, contractB)
	assert.ErrorIs(t, err, apperr.ErrCampaignNotFound)
	assert.Equal(t, "No campaign found with this contract address", apperr.From(err).Message)

	f.chain.CampaignDetailsFunc = func(context.Context, string) (*chain.CampaignDetails, error) {
		return nil, errors.New("rpc timeout")
	}
	_, err = f.campaign.GetByID(f.ctx, c.ID)
	assertKind(t, apperr.KindUpstream, err)
}

func TestReadsKeepStoredTerms(t *testing.T) {
	f := newFixture(t)
	alice := f.walletUser(t, "alice@x.com", aliceWallet)
	f.chain.SetContract(contractA, onChain(aliceWallet, 0, "0"))

	in := validInput(contractA)
	in.TargetContribution = "25"
	in.Deadline = "2031-06-01"
	c, err := f.campaign.Create(f.ctx, alice.ID, in, nil)
	require.NoError(t, err)

	// 链上目标为 10，动态字段变化
	f.chain.SetContract(contractA, onChain(aliceWallet, 1, "12"))

	page, err := f.campaign.List(f.ctx, logic.ListQuery{})
	require.NoError(t, err)
	require.Len(t, page.Campaigns, 1)
	assert.True(t, decimal.NewFromInt(25).Equal(page.Campaigns[0].TargetContribution))
	assert.Equal(t, time.Date(2031, 6, 1, 0, 0, 0, 0, time.UTC), page.Campaigns[0].Deadline.UTC())
	assert.True(t, decimal.NewFromInt(12).Equal(page.Campaigns[0].RaisedAmount))
	assert.Equal(t, model.CampaignStatusSuccess, page.Campaigns[0].Status)

	got, err := f.campaign.GetByID(f.ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(25).Equal(got.TargetContribution))
	assert.Equal(t, int64(1_900_000_000), got.RefundPeriodEnd)

	byCreator, err := f.campaign.GetByCreator(f.ctx, aliceWallet)
	require.NoError(t, err)
	require.Len(t, byCreator, 1)
	assert.True(t, decimal.NewFromInt(25).Equal(byCreator[0].TargetContribution))

	target := "40"
	_, err = f.campaign.Update(f.ctx, alice.ID, c.ID, logic.CampaignUpdate{TargetContribution: &target}, nil)
	require.NoError(t, err)
	got, err = f.campaign.GetByID(f.ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(40).Equal(got.TargetContribution))

	// 按地址查询以完整链上快照写回
	got, err = f.campaign.GetByAddress(f.ctx, contractA)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(10).Equal(got.TargetContribution))
	stored, err := f.campaigns.FindByID(f.ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(10).Equal(stored.TargetContribution))
	assert.Equal(t, time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC), stored.Deadline.UTC())
}

func TestUpdateRejectsNonPositiveAmounts(t *testing.T) {
	f := newFixture(t)
	alice := f.walletUser(t, "alice@x.com", aliceWallet)
	c := f.seedCampaign(t, contractA, aliceWallet, model.CampaignStatusActive)

	for _, v := range []string{"0", "0.000", "-1"} {
		amount := v
		_, err := f.campaign.Update(f.ctx, alice.ID, c.ID, logic.CampaignUpdate{TargetContribution: &amount}, nil)
		assertKind(t, apperr.KindValidation, err)
		assert.Equal(t, "targetContribution must be a positive number", apperr.From(err).Message)

		_, err = f.campaign.Update(f.ctx, alice.ID, c.ID, logic.CampaignUpdate{MinimumContribution: &amount}, nil)
		assert.Equal(t, "minimumContribution must be a positive number", apperr.From(err).Message)
	}

	in := validInput(contractB)
	in.MinimumContribution = "0"
	f.chain.SetContract(contractB, onChain(aliceWallet, 0, "0"))
	_, err := f.campaign.Create(f.ctx, alice.ID, in, nil)
	assertKind(t, apperr.KindValidation, err)

	stored, err := f.campaigns.FindByID(f.ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(10).Equal(stored.TargetContribution))
}

func TestGetByCreator(t *testing.T) {
	f := newFixture(t)
	f.seedCampaign(t, contractA, aliceWallet, model.CampaignStatusActive)
	f.seedCampaign(t, contractB, aliceWallet, model.CampaignStatusActive)
	f.seedCampaign(t, contractC, bobWallet, model.CampaignStatusActive)
	f.chain.SetContract(contractA, onChain(aliceWallet, 0, "1"))
	f.chain.SetContract(contractB, onChain(aliceWallet, 0, "1"))

	campaigns, err := f.campaign.GetByCreator(f.ctx, strings.ToUpper(aliceWallet))
	require.NoError(t, err)
	assert.Len(t, campaigns, 2)
	for _, c := range campaigns {
		assert.Equal(t, aliceWallet, c.Creator)
	}
}

func TestClaimRefund(t *testing.T) {
	f := newFixture(t)
	bob := f.walletUser(t, "bob@x.com", bobWallet)
	f.seedCampaign(t, contractA, aliceWallet, model.CampaignStatusActive)
	f.chain.SetContract(contractA, onChain(aliceWallet, 3, "4"))

	err := f.campaign.ClaimRefund(f.ctx, bob.ID, contractA, aliceWallet)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	assert.Equal(t, "Contributor address mismatch", apperr.From(err).Message)
	assert.Empty(t, f.chain.Calls())

	assert.ErrorIs(t, f.campaign.ClaimRefund(f.ctx, bob.ID, contractB, bobWallet), apperr.ErrCampaignNotFound)

	require.NoError(t, f.campaign.ClaimRefund(f.ctx, bob.ID, contractA, strings.ToUpper(bobWallet)))
	assert.Contains(t, f.chain.Calls(), "claimRefund:"+contractA)

	stored, err := f.campaigns.FindByContract(f.ctx, contractA)
	require.NoError(t, err)
	assert.Equal(t, model.CampaignStatusAborted, stored.Status)

	f.chain.ClaimRefundFunc = func(context.Context, string) error { return errors.New("execution reverted") }
	err = f.campaign.ClaimRefund(f.ctx, bob.ID, contractA, bobWallet)
	assertKind(t, apperr.KindUpstream, err)
}

func TestWithdrawFunds(t *testing.T) {
	f := newFixture(t)
	alice := f.walletUser(t, "alice@x.com", aliceWallet)
	bob := f.walletUser(t, "bob@x.com", bobWallet)
	f.seedCampaign(t, contractA, aliceWallet, model.CampaignStatusSuccess)
	f.chain.SetContract(contractA, onChain(aliceWallet, 4, "10"))

	// 非创建者
	assert.ErrorIs(t, f.campaign.WithdrawFunds(f.ctx, bob.ID, contractA, bobWallet), apperr.ErrForbidden)
	// 创建者地址参数与钱包不一致
	assert.ErrorIs(t, f.campaign.WithdrawFunds(f.ctx, alice.ID, contractA, bobWallet), apperr.ErrForbidden)
	assert.Empty(t, f.chain.Calls())

	require.NoError(t, f.campaign.WithdrawFunds(f.ctx, alice.ID, contractA, aliceWallet))
	assert.Contains(t, f.chain.Calls(), "withdrawFunds:"+contractA)

	stored, err := f.campaigns.FindByContract(f.ctx, contractA)
	require.NoError(t, err)
	assert.Equal(t, model.CampaignStatusWithdrawn, stored.Status)
}

func TestUserStats(t *testing.T) {
	f := newFixture(t)
	alice := f.walletUser(t, "alice@x.com", aliceWallet)
	noWallet := f.verifiedUser(t, "nowallet@x.com")
	f.seedCampaign(t, contractA, aliceWallet, model.CampaignStatusActive)
	f.seedCampaign(t, contractB, aliceWallet, model.CampaignStatusWithdrawn)
	f.seedCampaign(t, contractC, bobWallet, model.CampaignStatusActive)

	stats, err := f.campaign.UserStats(f.ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalCampaigns)
	assert.Zero(t, stats.TotalContributions)

	_, err = f.campaign.UserStats(f.ctx, noWallet.ID)
	assert.ErrorIs(t, err, apperr.ErrWalletNotLinked)
}

func TestSyncSnapshots(t *testing.T) {
	f := newFixture(t)
	f.seedCampaign(t, contractA, aliceWallet, model.CampaignStatusActive)
	f.seedCampaign(t, contractB, aliceWallet, model.CampaignStatusWithdrawn)
	f.seedCampaign(t, contractC, bobWallet, model.CampaignStatusActive)
	f.chain.SetContract(contractA, onChain(aliceWallet, 2, "3"))
	f.chain.SetContract(contractB, onChain(aliceWallet, 4, "9"))
	f.chain.SetContract("0x00000000000000000000000000000000000000d4", onChain(bobWallet, 0, "0"))

	// contractC 读取失败
	result, err := f.campaign.SyncSnapshots(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Refreshed)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 1, result.Unregistered)

	stored, err := f.campaigns.FindByContract(f.ctx, contractA)
	require.NoError(t, err)
	assert.Equal(t, model.CampaignStatusExpired, stored.Status)
	assert.True(t, decimal.NewFromInt(3).Equal(stored.RaisedAmount))

	// 终态活动不参与同步
	assert.NotContains(t, f.chain.Calls(), "getCampaignDetails:"+contractB)
	stored, err = f.campaigns.FindByContract(f.ctx, contractB)
	require.NoError(t, err)
	assert.True(t, stored.RaisedAmount.IsZero())
}
