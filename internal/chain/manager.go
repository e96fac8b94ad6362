package chain

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/blues/fundchainx/internal/config"
	"github.com/blues/fundchainx/internal/logger"
	"github.com/ethereum/go-ethereum/ethclient"
)

// supportedTypes 支持的链类型，均为 EVM 兼容链
var supportedTypes = []string{"ethereum", "polygon", "bsc", "arbitrum", "optimism", "sepolia", "ganache", "hardhat"}

// Manager 单链管理器
type Manager struct {
	mu        sync.RWMutex
	client    *ethclient.Client
	config    config.ChainConfig
	campaign  *Contract
	factory   *Contract
	signer    *Signer
	campaigns *CampaignClient
}

// NewManager 创建单链管理器
func NewManager(cfg config.ChainConfig) (*Manager, error) {
	manager := &Manager{config: cfg}

	if err := manager.initClient(cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize client: %w", err)
	}

	if err := manager.initContracts(cfg); err != nil {
		manager.client.Close()
		return nil, fmt.Errorf("failed to initialize contracts: %w", err)
	}

	return manager, nil
}

// initClient 初始化客户端
func (m *Manager) initClient(cfg config.ChainConfig) error {
	logger.Info("Initializing chain client (type: %s, id: %d)", cfg.ChainType, cfg.ChainId)

	client, err := createChainClient(cfg)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}

	m.client = client
	logger.Info("Successfully initialized client")
	return nil
}

// initContracts 加载活动与工厂合约 ABI，并创建活动合约客户端
func (m *Manager) initContracts(cfg config.ChainConfig) error {
	campaign, err := NewContract("Campaign", cfg.CampaignABIPath, campaignABI)
	if err != nil {
		return err
	}
	factory, err := NewContract("FundChainX", cfg.FactoryABIPath, factoryABI)
	if err != nil {
		return err
	}

	if cfg.PrivateKey != "" {
		signer, err := NewSigner(cfg.PrivateKey, cfg.ChainId)
		if err != nil {
			return err
		}
		m.signer = signer
		logger.Info("Transaction signer loaded: %s", signer.Address().Hex())
	} else {
		logger.Warn("No private key configured, refund and withdraw transactions are disabled")
	}

	campaigns, err := NewCampaignClient(m.client, campaign, factory, CampaignClientConfig{
		FactoryAddress: cfg.FactoryAddress,
		Signer:         m.signer,
		Confirmations:  cfg.Confirmations,
		CallTimeout:    time.Duration(cfg.CallTimeoutSecs) * time.Second,
	})
	if err != nil {
		return err
	}

	m.campaign = campaign
	m.factory = factory
	m.campaigns = campaigns
	logger.Info("Successfully initialized contracts: %s, %s", campaign.Name(), factory.Name())
	return nil
}

// ValidateChainType 检查链类型是否受支持
func ValidateChainType(chainType string) error {
	for _, supported := range supportedTypes {
		if chainType == supported {
			return nil
		}
	}
	return fmt.Errorf("unsupported chain type %s, supported types: %s", chainType, strings.Join(supportedTypes, ", "))
}

// createChainClient 创建链客户端
func createChainClient(cfg config.ChainConfig) (*ethclient.Client, error) {
	if cfg.RpcUrl == "" {
		return nil, fmt.Errorf("no RPC URL configured")
	}
	if err := ValidateChainType(cfg.ChainType); err != nil {
		return nil, err
	}

	logger.Info("Creating %s client connection (RPC: %s)", cfg.ChainType, cfg.RpcUrl)
	client, err := ethclient.Dial(cfg.RpcUrl)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s client: %w", cfg.ChainType, err)
	}

	// 测试连接
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := client.BlockNumber(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("client connection test failed (%s): %w", cfg.ChainType, err)
	}
	return client, nil
}

// CampaignClient 活动合约客户端
func (m *Manager) CampaignClient() *CampaignClient {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.campaigns
}

// GetHealthStatus 获取健康状态
func (m *Manager) GetHealthStatus(ctx context.Context) map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	health := map[string]interface{}{
		"chain_type":    m.config.ChainType,
		"chain_id":      m.config.ChainId,
		"client_status": "connected",
		"signer":        m.signer != nil,
	}

	if m.client == nil {
		health["client_status"] = "not_initialized"
		return health
	}
	block, err := m.client.BlockNumber(ctx)
	if err != nil {
		health["client_status"] = "disconnected"
		return health
	}
	health["block_num"] = block
	return health
}

// Close 关闭管理器
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.client != nil {
		m.client.Close()
		m.client = nil
	}

	logger.Info("Chain manager closed")
	return nil
}
