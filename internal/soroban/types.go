package soroban

import (
	"strconv"

	"github.com/pkg/errors"
	"github.com/stellar/go/xdr"
)

// ErrAccountNotFound 源账户不存在
var ErrAccountNotFound = errors.New("account not found")

// 交易状态
const (
	// sendTransaction
	SendStatusPending       = "PENDING"
	SendStatusDuplicate     = "DUPLICATE"
	SendStatusTryAgainLater = "TRY_AGAIN_LATER"
	SendStatusError         = "ERROR"

	// getTransaction
	TransactionStatusSuccess  = "SUCCESS"
	TransactionStatusNotFound = "NOT_FOUND"
	TransactionStatusFailed   = "FAILED"
)

// SimulateHostFunctionResult 单个 host function 的模拟结果
type SimulateHostFunctionResult struct {
	Auth []string `json:"auth"`
	XDR  string   `json:"xdr"`
}

// SimulateTransactionCost 资源消耗
type SimulateTransactionCost struct {
	CPUInstructions string `json:"cpuInsns"`
	MemoryBytes     string `json:"memBytes"`
}

// RestorePreamble 需要先恢复的归档条目
type RestorePreamble struct {
	TransactionData string `json:"transactionData"`
	MinResourceFee  string `json:"minResourceFee"`
}

// SimulateTransactionResponse simulateTransaction 响应
type SimulateTransactionResponse struct {
	Error           string                       `json:"error,omitempty"`
	TransactionData string                       `json:"transactionData,omitempty"`
	MinResourceFee  string                       `json:"minResourceFee,omitempty"`
	Events          []string                     `json:"events,omitempty"`
	Results         []SimulateHostFunctionResult `json:"results,omitempty"`
	Cost            SimulateTransactionCost      `json:"cost"`
	RestorePreamble *RestorePreamble             `json:"restorePreamble,omitempty"`
	LatestLedger    uint32                       `json:"latestLedger"`
}

// Failed 模拟是否失败
func (r *SimulateTransactionResponse) Failed() bool {
	return r.Error != ""
}

// AuthEntries 解码第一个结果中的所有鉴权条目
func (r *SimulateTransactionResponse) AuthEntries() ([]xdr.SorobanAuthorizationEntry, error) {
	if len(r.Results) == 0 {
		return nil, nil
	}

	entries := make([]xdr.SorobanAuthorizationEntry, 0, len(r.Results[0].Auth))
	for i, raw := range r.Results[0].Auth {
		var entry xdr.SorobanAuthorizationEntry
		if err := xdr.SafeUnmarshalBase64(raw, &entry); err != nil {
			return nil, errors.Wrapf(err, "failed to decode auth entry %d", i)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// SorobanData 解码 transactionData
func (r *SimulateTransactionResponse) SorobanData() (xdr.SorobanTransactionData, error) {
	var data xdr.SorobanTransactionData
	if r.TransactionData == "" {
		return data, errors.New("simulation returned no transaction data")
	}
	if err := xdr.SafeUnmarshalBase64(r.TransactionData, &data); err != nil {
		return data, errors.Wrap(err, "failed to decode transaction data")
	}
	return data, nil
}

// ResourceFee 最低资源费（stroops）
func (r *SimulateTransactionResponse) ResourceFee() (int64, error) {
	if r.MinResourceFee == "" {
		return 0, nil
	}
	fee, err := strconv.ParseInt(r.MinResourceFee, 10, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid minResourceFee %q", r.MinResourceFee)
	}
	return fee, nil
}

// SendTransactionResponse sendTransaction 响应
type SendTransactionResponse struct {
	Status                string `json:"status"`
	Hash                  string `json:"hash"`
	ErrorResultXDR        string `json:"errorResultXdr,omitempty"`
	LatestLedger          uint32 `json:"latestLedger"`
	LatestLedgerCloseTime string `json:"latestLedgerCloseTime"`
}

// GetTransactionResponse getTransaction 响应
type GetTransactionResponse struct {
	Status           string `json:"status"`
	LatestLedger     uint32 `json:"latestLedger"`
	ApplicationOrder int32  `json:"applicationOrder,omitempty"`
	EnvelopeXDR      string `json:"envelopeXdr,omitempty"`
	ResultXDR        string `json:"resultXdr,omitempty"`
	ResultMetaXDR    string `json:"resultMetaXdr,omitempty"`
	Ledger           uint32 `json:"ledger,omitempty"`
	CreatedAt        string `json:"createdAt,omitempty"`
}

// ReturnValue 从 resultMetaXdr 中解析合约返回值
func (r *GetTransactionResponse) ReturnValue() (xdr.ScVal, error) {
	var meta xdr.TransactionMeta
	if r.ResultMetaXDR == "" {
		return xdr.ScVal{}, errors.New("transaction has no result meta")
	}
	if err := xdr.SafeUnmarshalBase64(r.ResultMetaXDR, &meta); err != nil {
		return xdr.ScVal{}, errors.Wrap(err, "failed to decode result meta")
	}

	v3, ok := meta.GetV3()
	if !ok || v3.SorobanMeta == nil {
		return xdr.ScVal{}, errors.Errorf("result meta v%d carries no soroban return value", meta.V)
	}
	return v3.SorobanMeta.ReturnValue, nil
}

// LedgerEntryResult getLedgerEntries 的单个条目
type LedgerEntryResult struct {
	Key                   string  `json:"key"`
	XDR                   string  `json:"xdr"`
	LastModifiedLedgerSeq uint32  `json:"lastModifiedLedgerSeq"`
	LiveUntilLedgerSeq    *uint32 `json:"liveUntilLedgerSeq,omitempty"`
}

// GetLedgerEntriesResponse getLedgerEntries 响应
type GetLedgerEntriesResponse struct {
	Entries      []LedgerEntryResult `json:"entries"`
	LatestLedger uint32              `json:"latestLedger"`
}
