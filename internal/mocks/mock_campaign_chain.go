package mocks

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/blues/fundchainx/internal/chain"
)

// ErrNoContract 未预置合约时 CampaignDetails 的默认错误
var ErrNoContract = errors.New("no contract code at given address")

// MockCampaignChain implements logic.CampaignChain for testing
type MockCampaignChain struct {
	mu        sync.Mutex
	contracts map[string]*chain.CampaignDetails
	calls     []string

	CampaignDetailsFunc   func(ctx context.Context, address string) (*chain.CampaignDetails, error)
	ClaimRefundFunc       func(ctx context.Context, address string) error
	WithdrawFundsFunc     func(ctx context.Context, address string) error
	DeployedCampaignsFunc func(ctx context.Context) ([]string, error)
}

// NewMockCampaignChain creates a chain with no deployed contracts
func NewMockCampaignChain() *MockCampaignChain {
	return &MockCampaignChain{contracts: make(map[string]*chain.CampaignDetails)}
}

// SetContract 预置合约状态
func (m *MockCampaignChain) SetContract(address string, details *chain.CampaignDetails) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.contracts[strings.ToLower(address)] = details
}

// Calls 按顺序返回已调用的方法与地址，如 "claimRefund:0x..."
func (m *MockCampaignChain) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func (m *MockCampaignChain) record(method, address string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, method+":"+strings.ToLower(address))
}

// CampaignDetails returns the preset contract state
func (m *MockCampaignChain) CampaignDetails(ctx context.Context, address string) (*chain.CampaignDetails, error) {
	m.record("getCampaignDetails", address)
	if m.CampaignDetailsFunc != nil {
		return m.CampaignDetailsFunc(ctx, address)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.contracts[strings.ToLower(address)]
	if !ok {
		return nil, ErrNoContract
	}
	cp := *d
	return &cp, nil
}

// ClaimRefund default behavior: success
func (m *MockCampaignChain) ClaimRefund(ctx context.Context, address string) error {
	m.record("claimRefund", address)
	if m.ClaimRefundFunc != nil {
		return m.ClaimRefundFunc(ctx, address)
	}
	return nil
}

// WithdrawFunds default behavior: success
func (m *MockCampaignChain) WithdrawFunds(ctx context.Context, address string) error {
	m.record("withdrawFunds", address)
	if m.WithdrawFundsFunc != nil {
		return m.WithdrawFundsFunc(ctx, address)
	}
	return nil
}

// DeployedCampaigns default behavior: every preset contract
func (m *MockCampaignChain) DeployedCampaigns(ctx context.Context) ([]string, error) {
	if m.DeployedCampaignsFunc != nil {
		return m.DeployedCampaignsFunc(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	addrs := make([]string, 0, len(m.contracts))
	for addr := range m.contracts {
		addrs = append(addrs, addr)
	}
	return addrs, nil
}
