package model

import (
	"encoding/json"
	"strconv"
	"strings"
)

// CampaignStatus 活动状态
type CampaignStatus string

const (
	CampaignStatusActive    CampaignStatus = "ACTIVE"
	CampaignStatusSuccess   CampaignStatus = "SUCCESS"
	CampaignStatusExpired   CampaignStatus = "EXPIRED"
	CampaignStatusAborted   CampaignStatus = "ABORTED"
	CampaignStatusWithdrawn CampaignStatus = "WITHDRAWN"
	CampaignStatusFailed    CampaignStatus = "FAILED"
)

// chainStates 合约 state 枚举下标到状态的映射
var chainStates = [...]CampaignStatus{
	CampaignStatusActive,
	CampaignStatusSuccess,
	CampaignStatusExpired,
	CampaignStatusAborted,
	CampaignStatusWithdrawn,
	CampaignStatusFailed,
}

// StatusFromChainState 将合约 state 转换为状态，越界时为 ACTIVE
func StatusFromChainState(state uint64) CampaignStatus {
	if state >= uint64(len(chainStates)) {
		return CampaignStatusActive
	}
	return chainStates[state]
}

// Valid 是否为六个合法取值之一
func (s CampaignStatus) Valid() bool {
	for _, st := range chainStates {
		if s == st {
			return true
		}
	}
	return false
}

// TerminalStatuses 终态不再需要同步链上快照
func TerminalStatuses() []CampaignStatus {
	return []CampaignStatus{CampaignStatusAborted, CampaignStatusWithdrawn}
}

// NormalizeStatus 状态唯一的归一化入口
// 接受状态名（不区分大小写）或合约 state 数值，其余取值一律为 ACTIVE
func NormalizeStatus(v any) CampaignStatus {
	switch val := v.(type) {
	case nil:
		return CampaignStatusActive
	case CampaignStatus:
		return NormalizeStatus(string(val))
	case string:
		s := strings.TrimSpace(val)
		if n, err := strconv.ParseUint(s, 10, 8); err == nil {
			return StatusFromChainState(n)
		}
		st := CampaignStatus(strings.ToUpper(s))
		if st.Valid() {
			return st
		}
		return CampaignStatusActive
	case json.Number:
		return NormalizeStatus(string(val))
	case float64:
		if val < 0 || val != float64(uint64(val)) {
			return CampaignStatusActive
		}
		return StatusFromChainState(uint64(val))
	case int:
		if val < 0 {
			return CampaignStatusActive
		}
		return StatusFromChainState(uint64(val))
	case uint8:
		return StatusFromChainState(uint64(val))
	case uint64:
		return StatusFromChainState(val)
	default:
		return CampaignStatusActive
	}
}
