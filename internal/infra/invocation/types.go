package invocation

import (
	"fmt"

	"github.com/SafeMPC/mint-service/internal/soroban"
	"github.com/pkg/errors"
	"github.com/stellar/go/txnbuild"
	"github.com/stellar/go/xdr"
)

// ErrSimulationFailed 模拟失败（第一次或第二次）
var ErrSimulationFailed = errors.New("simulation failed")

// SimulationPass 模拟轮次
type SimulationPass int

const (
	// FirstPass 未签名交易的模拟，失败表示调用本身不可达
	FirstPass SimulationPass = iota + 1
	// SecondPass 携带签名条目的模拟，失败通常表示签名被拒绝
	SecondPass
)

func (p SimulationPass) String() string {
	switch p {
	case FirstPass:
		return "first"
	case SecondPass:
		return "second"
	default:
		return fmt.Sprintf("pass(%d)", int(p))
	}
}

// SimulationError 带轮次信息的模拟错误
type SimulationError struct {
	Pass    SimulationPass
	Message string
	Err     error
}

func (e *SimulationError) Error() string {
	msg := e.Message
	if e.Err != nil {
		msg = e.Err.Error()
	}
	return fmt.Sprintf("%s simulation failed: %s", e.Pass, msg)
}

// Is 使 errors.Is(err, ErrSimulationFailed) 成立
func (e *SimulationError) Is(target error) bool {
	return target == ErrSimulationFailed
}

func (e *SimulationError) Unwrap() error {
	return e.Err
}

// Request 合约调用请求
type Request struct {
	ContractID string
	Method     string
	Args       []xdr.ScVal
}

// Result 可直接提交的交易
type Result struct {
	Transaction *txnbuild.Transaction
	Simulation  *soroban.SimulateTransactionResponse
	// AuthEntries 交易中携带的全部鉴权条目（已签名与未匹配的）
	AuthEntries []xdr.SorobanAuthorizationEntry
}
