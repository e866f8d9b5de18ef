package mint

import (
	"github.com/pkg/errors"
)

var (
	// ErrResourceNotFound 用户或合集不存在
	ErrResourceNotFound = errors.New("resource not found")
	// ErrWalletNotLinked 用户未绑定钱包地址
	ErrWalletNotLinked = errors.New("wallet not linked")
	// ErrPasskeyRequired 用户未注册 passkey
	ErrPasskeyRequired = errors.New("passkey required")
	// ErrNotEnoughSupply 合集已无剩余
	ErrNotEnoughSupply = errors.New("not enough supply")
	// ErrAlreadyClaimed 该会话已领取（含软删除记录）
	ErrAlreadyClaimed = errors.New("already claimed")
	// ErrDuplicateAttempt 同一用户与会话的挑战仍在有效期内
	ErrDuplicateAttempt = errors.New("duplicate mint attempt")
)

// State 铸造流程状态
type State string

const (
	StateValidating      State = "validating"
	StateSimulating      State = "simulating"
	StateChallengeIssued State = "challenge_issued"
	StateSupplyReserved  State = "supply_reserved"
	StateSubmitting      State = "submitting"
	StateCompleted       State = "completed"
	StateCompensating    State = "compensating"
	StateFailed          State = "failed"
)

// ClaimRequest 领取请求
type ClaimRequest struct {
	UserID    string
	Resource  string
	SessionID string
}

// ClaimResult 领取结果
type ClaimResult struct {
	TransactionHash string
	TokenID         string
}

// 合约 mint 元数据字段
const (
	metadataResource  = "resource"
	metadataSessionID = "session_id"
)
