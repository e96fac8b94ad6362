package logic_test

import (
	"context"
	"crypto/ecdsa"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/blues/fundchainx/internal/apperr"
	"github.com/blues/fundchainx/internal/auth"
	"github.com/blues/fundchainx/internal/chain"
	"github.com/blues/fundchainx/internal/logic"
	"github.com/blues/fundchainx/internal/mocks"
	"github.com/blues/fundchainx/internal/model"
	"github.com/blues/fundchainx/internal/repository"
	"github.com/blues/fundchainx/internal/testutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	ctx       context.Context
	clock     *testClock
	users     *repository.UserRepository
	campaigns *repository.CampaignRepository
	tokens    *auth.TokenService
	mailer    *mocks.MockMailSender
	chain     *mocks.MockCampaignChain
	store     *mocks.MockObjectStore
	auth      *logic.AuthLogic
	campaign  *logic.CampaignLogic
	images    *logic.ImageLogic
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	clock := &testClock{now: time.Now()}
	f := &fixture{
		ctx:       context.Background(),
		clock:     clock,
		users:     repository.NewUserRepository(db),
		campaigns: repository.NewCampaignRepository(db),
		tokens:    auth.NewTokenService("test-secret").WithClock(clock.Now),
		mailer:    mocks.NewMockMailSender(),
		chain:     mocks.NewMockCampaignChain(),
		store:     mocks.NewMockObjectStore(),
	}
	f.auth = logic.NewAuthLogic(f.users, f.tokens, auth.NewPasswordService(bcrypt.MinCost), f.mailer, logic.AuthConfig{
		FrontendURL:     "http://localhost:5173",
		SessionTTL:      time.Hour,
		VerificationTTL: 24 * time.Hour,
		ResetTTL:        time.Hour,
	}).WithClock(clock.Now)
	f.images = logic.NewImageLogic(f.store, "campaign-images/")

	campaignLogic, err := logic.NewCampaignLogic(f.campaigns, f.users, f.chain, f.images, 4)
	require.NoError(t, err)
	t.Cleanup(campaignLogic.Close)
	f.campaign = campaignLogic
	return f
}

// verifiedUser 注册并完成邮箱验证
func (f *fixture) verifiedUser(t *testing.T, email string) *model.User {
	t.Helper()
	user, err := f.auth.Register(f.ctx, email, "Passw0rd!")
	require.NoError(t, err)
	require.NoError(t, f.auth.VerifyEmail(f.ctx, f.mailer.LastToken(email)))
	user, err = f.users.FindByID(f.ctx, user.ID)
	require.NoError(t, err)
	require.True(t, user.IsVerified)
	return user
}

// walletUser 已验证且绑定了钱包的用户
func (f *fixture) walletUser(t *testing.T, email, wallet string) *model.User {
	t.Helper()
	user := f.verifiedUser(t, email)
	user.WalletAddress = &wallet
	require.NoError(t, f.users.Save(f.ctx, user))
	return user
}

func newKey(t *testing.T) (*ecdsa.PrivateKey, string) {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return key, crypto.PubkeyToAddress(key.PublicKey).Hex()
}

func sign(t *testing.T, key *ecdsa.PrivateKey, message string) string {
	t.Helper()
	sig, err := auth.SignText(key, message)
	require.NoError(t, err)
	return sig
}

func onChain(creator string, state uint8, raised string) *chain.CampaignDetails {
	return &chain.CampaignDetails{
		Creator:             strings.ToLower(creator),
		MinimumContribution: decimal.RequireFromString("0.01"),
		TargetContribution:  decimal.NewFromInt(10),
		Deadline:            time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
		RaisedAmount:        decimal.RequireFromString(raised),
		ContributorsCount:   3,
		State:               state,
		TotalRefunded:       decimal.Zero,
		RefundPeriodEnd:     1_900_000_000,
	}
}

func assertKind(t *testing.T, kind apperr.Kind, err error) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, kind, apperr.From(err).Kind, "error: %v", err)
}
