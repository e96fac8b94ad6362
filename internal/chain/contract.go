package chain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
)

// Contract 合约 ABI 工具类，同一份 ABI 可绑定到多个地址
type Contract struct {
	name string
	abi  abi.ABI
}

// NewContract 加载合约 ABI，path 为空时使用内置 ABI
func NewContract(name, path, builtin string) (*Contract, error) {
	var (
		parsed abi.ABI
		err    error
	)
	if path == "" {
		parsed, err = abi.JSON(strings.NewReader(builtin))
	} else {
		parsed, err = loadABIFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load %s ABI: %w", name, err)
	}
	return &Contract{name: name, abi: parsed}, nil
}

// loadABIFile 支持 hardhat/truffle 编译产物或纯 ABI 数组
func loadABIFile(path string) (abi.ABI, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return abi.ABI{}, fmt.Errorf("read %s: %w", path, err)
	}
	return parseABI(data)
}

func parseABI(data []byte) (abi.ABI, error) {
	var compiled struct {
		ABI json.RawMessage `json:"abi"`
	}
	if err := json.Unmarshal(data, &compiled); err == nil && compiled.ABI != nil {
		parsed, err := abi.JSON(bytes.NewReader(compiled.ABI))
		if err != nil {
			return abi.ABI{}, fmt.Errorf("failed to parse ABI from compiled output: %w", err)
		}
		return parsed, nil
	}
	parsed, err := abi.JSON(bytes.NewReader(data))
	if err != nil {
		return abi.ABI{}, fmt.Errorf("failed to parse ABI: %w", err)
	}
	return parsed, nil
}

// Name 合约名称
func (c *Contract) Name() string {
	return c.name
}

// ABI 合约 ABI
func (c *Contract) ABI() abi.ABI {
	return c.abi
}

// HasMethod ABI 中是否包含指定方法
func (c *Contract) HasMethod(method string) bool {
	_, ok := c.abi.Methods[method]
	return ok
}

// Bind 绑定到指定地址
func (c *Contract) Bind(address common.Address, backend bind.ContractBackend) *bind.BoundContract {
	return bind.NewBoundContract(address, c.abi, backend, backend, backend)
}
