package chain

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/core/types"
)

// HeaderReader 获取区块头
type HeaderReader interface {
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
}

// confirmPollInterval 等待确认时的轮询间隔
var confirmPollInterval = 2 * time.Second

// WaitConfirmations 等待回执所在区块之后再出 confirmations-1 个块
func WaitConfirmations(ctx context.Context, reader HeaderReader, receipt *types.Receipt, confirmations uint64) error {
	if confirmations <= 1 || receipt.BlockNumber == nil {
		return nil
	}
	target := receipt.BlockNumber.Uint64() + confirmations - 1

	ticker := time.NewTicker(confirmPollInterval)
	defer ticker.Stop()
	for {
		header, err := reader.HeaderByNumber(ctx, nil)
		if err != nil {
			return fmt.Errorf("get latest header: %w", err)
		}
		if header.Number.Uint64() >= target {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
