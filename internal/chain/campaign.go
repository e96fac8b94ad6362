package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/blues/fundchainx/internal/model"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/shopspring/decimal"
)

const (
	methodCampaignDetails   = "getCampaignDetails"
	methodClaimRefund       = "claimRefund"
	methodWithdrawFunds     = "withdrawFunds"
	methodDeployedCampaigns = "getDeployedCampaigns"
)

// Backend 合约调用、发送交易与等待回执所需的节点能力，*ethclient.Client 实现该接口
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
}

// CampaignDetails getCampaignDetails 的返回值，金额已换算为 ether
type CampaignDetails struct {
	Creator             string
	MinimumContribution decimal.Decimal
	Deadline            time.Time
	TargetContribution  decimal.Decimal
	RaisedAmount        decimal.Decimal
	ContributorsCount   int64
	State               uint8
	TotalRefunded       decimal.Decimal
	RefundPeriodEnd     int64
}

// Status 合约 state 对应的活动状态
func (d *CampaignDetails) Status() model.CampaignStatus {
	return model.StatusFromChainState(uint64(d.State))
}

// CampaignClientConfig 活动合约客户端配置
type CampaignClientConfig struct {
	FactoryAddress string
	Signer         *Signer
	Confirmations  uint64
	CallTimeout    time.Duration
}

// CampaignClient 读写 Campaign 合约实例
type CampaignClient struct {
	backend        Backend
	campaign       *Contract
	factory        *Contract
	factoryAddress common.Address
	signer         *Signer
	confirmations  uint64
	callTimeout    time.Duration
}

// NewCampaignClient 创建活动合约客户端
func NewCampaignClient(backend Backend, campaign, factory *Contract, cfg CampaignClientConfig) (*CampaignClient, error) {
	if !campaign.HasMethod(methodCampaignDetails) {
		return nil, fmt.Errorf("campaign ABI has no %s method", methodCampaignDetails)
	}
	c := &CampaignClient{
		backend:       backend,
		campaign:      campaign,
		factory:       factory,
		signer:        cfg.Signer,
		confirmations: cfg.Confirmations,
		callTimeout:   cfg.CallTimeout,
	}
	if cfg.FactoryAddress != "" {
		if !common.IsHexAddress(cfg.FactoryAddress) {
			return nil, fmt.Errorf("invalid factory address %q", cfg.FactoryAddress)
		}
		c.factoryAddress = common.HexToAddress(cfg.FactoryAddress)
	}
	return c, nil
}

func (c *CampaignClient) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.callTimeout)
}

func parseAddress(address string) (common.Address, error) {
	if !common.IsHexAddress(address) {
		return common.Address{}, fmt.Errorf("invalid contract address %q", address)
	}
	return common.HexToAddress(address), nil
}

// CampaignDetails 读取活动合约的完整状态
func (c *CampaignClient) CampaignDetails(ctx context.Context, address string) (*CampaignDetails, error) {
	addr, err := parseAddress(address)
	if err != nil {
		return nil, err
	}
	ctx, cancel := c.callContext(ctx)
	defer cancel()

	var out []interface{}
	if err := c.campaign.Bind(addr, c.backend).Call(&bind.CallOpts{Context: ctx}, &out, methodCampaignDetails); err != nil {
		return nil, fmt.Errorf("call %s on %s: %w", methodCampaignDetails, addr.Hex(), err)
	}
	return decodeCampaignDetails(out)
}

func decodeCampaignDetails(out []interface{}) (*CampaignDetails, error) {
	if len(out) != 9 {
		return nil, fmt.Errorf("unexpected %s output length %d", methodCampaignDetails, len(out))
	}
	creator, ok := out[0].(common.Address)
	if !ok {
		return nil, fmt.Errorf("unexpected creator type %T", out[0])
	}
	state, ok := out[6].(uint8)
	if !ok {
		return nil, fmt.Errorf("unexpected state type %T", out[6])
	}

	ints := make(map[int]*big.Int, 7)
	for _, i := range []int{1, 2, 3, 4, 5, 7, 8} {
		v, ok := out[i].(*big.Int)
		if !ok {
			return nil, fmt.Errorf("unexpected type %T at output %d", out[i], i)
		}
		ints[i] = v
	}

	return &CampaignDetails{
		Creator:             strings.ToLower(creator.Hex()),
		MinimumContribution: WeiToEther(ints[1]),
		Deadline:            time.Unix(ints[2].Int64(), 0).UTC(),
		TargetContribution:  WeiToEther(ints[3]),
		RaisedAmount:        WeiToEther(ints[4]),
		ContributorsCount:   ints[5].Int64(),
		State:               state,
		TotalRefunded:       WeiToEther(ints[7]),
		RefundPeriodEnd:     ints[8].Int64(),
	}, nil
}

// ClaimRefund 以服务端账户调用 claimRefund 并等待上链
func (c *CampaignClient) ClaimRefund(ctx context.Context, address string) error {
	return c.transact(ctx, address, methodClaimRefund)
}

// WithdrawFunds 以服务端账户调用 withdrawFunds 并等待上链
func (c *CampaignClient) WithdrawFunds(ctx context.Context, address string) error {
	return c.transact(ctx, address, methodWithdrawFunds)
}

func (c *CampaignClient) transact(ctx context.Context, address, method string) error {
	if c.signer == nil {
		return ErrNoSigner
	}
	addr, err := parseAddress(address)
	if err != nil {
		return err
	}
	opts, err := c.signer.TransactOpts(ctx)
	if err != nil {
		return err
	}

	tx, err := c.campaign.Bind(addr, c.backend).Transact(opts, method)
	if err != nil {
		return fmt.Errorf("send %s to %s: %w", method, addr.Hex(), err)
	}

	receipt, err := bind.WaitMined(ctx, c.backend, tx)
	if err != nil {
		return fmt.Errorf("wait for %s tx %s: %w", method, tx.Hash().Hex(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return fmt.Errorf("%s tx %s reverted", method, tx.Hash().Hex())
	}
	return WaitConfirmations(ctx, c.backend, receipt, c.confirmations)
}

// DeployedCampaigns 工厂合约记录的全部活动地址，未配置工厂时返回空
func (c *CampaignClient) DeployedCampaigns(ctx context.Context) ([]string, error) {
	if c.factory == nil || c.factoryAddress == (common.Address{}) {
		return nil, nil
	}
	ctx, cancel := c.callContext(ctx)
	defer cancel()

	var out []interface{}
	if err := c.factory.Bind(c.factoryAddress, c.backend).Call(&bind.CallOpts{Context: ctx}, &out, methodDeployedCampaigns); err != nil {
		return nil, fmt.Errorf("call %s: %w", methodDeployedCampaigns, err)
	}
	if len(out) != 1 {
		return nil, errors.New("unexpected getDeployedCampaigns output")
	}
	addrs, ok := out[0].([]common.Address)
	if !ok {
		return nil, fmt.Errorf("unexpected getDeployedCampaigns type %T", out[0])
	}
	result := make([]string, len(addrs))
	for i, a := range addrs {
		result[i] = strings.ToLower(a.Hex())
	}
	return result, nil
}

// WeiToEther wei 换算为 ether
func WeiToEther(wei *big.Int) decimal.Decimal {
	if wei == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(wei, -18)
}
