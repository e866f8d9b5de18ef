package submission

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/stellar/go/xdr"
)

// ErrSubmitFailed 网络拒绝提交或交易以非成功状态结束
var ErrSubmitFailed = errors.New("submit failed")

// StatusTimeout 轮询超时或被取消时的状态
const StatusTimeout = "TIMEOUT"

// SubmitError 携带终态信息的提交错误
type SubmitError struct {
	Status string
	Hash   string
	// ResultXDR sendTransaction 的 errorResultXdr 或 getTransaction 的 resultXdr
	ResultXDR string
	Err       error
}

func (e *SubmitError) Error() string {
	msg := fmt.Sprintf("transaction %s ended with status %s", e.Hash, e.Status)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Is 使 errors.Is(err, ErrSubmitFailed) 成立
func (e *SubmitError) Is(target error) bool {
	return target == ErrSubmitFailed
}

func (e *SubmitError) Unwrap() error {
	return e.Err
}

// Result 成功交易的结果
type Result struct {
	Hash          string
	Ledger        uint32
	ReturnValue   xdr.ScVal
	HasReturn     bool
	ResultXDR     string
	ResultMetaXDR string
}
