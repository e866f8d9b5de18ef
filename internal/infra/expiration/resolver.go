package expiration

import (
	"context"

	"github.com/SafeMPC/mint-service/internal/soroban"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/stellar/go/xdr"
)

// ErrLedgerEntryNotFound 合约实例条目不存在或没有 live-until 值
var ErrLedgerEntryNotFound = errors.New("ledger entry not found")

// LedgerEntryReader 账本条目查询
type LedgerEntryReader interface {
	GetLedgerEntries(ctx context.Context, keys ...xdr.LedgerKey) (*soroban.GetLedgerEntriesResponse, error)
}

// Resolver 根据合约实例的存活期限确定签名过期账本
type Resolver struct {
	rpc LedgerEntryReader
}

// NewResolver 创建过期账本解析器
func NewResolver(rpc LedgerEntryReader) *Resolver {
	return &Resolver{rpc: rpc}
}

// Resolve 返回合约实例条目的 liveUntilLedgerSeq，结果不做缓存
func (r *Resolver) Resolve(ctx context.Context, contractID string) (uint32, error) {
	key, err := soroban.ContractInstanceKey(contractID)
	if err != nil {
		return 0, errors.Wrap(err, "failed to build contract instance key")
	}

	resp, err := r.rpc.GetLedgerEntries(ctx, key)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to read contract instance %s", contractID)
	}

	if len(resp.Entries) == 0 {
		return 0, errors.Wrapf(ErrLedgerEntryNotFound, "contract %s", contractID)
	}
	live := resp.Entries[0].LiveUntilLedgerSeq
	if live == nil {
		return 0, errors.Wrapf(ErrLedgerEntryNotFound, "contract %s has no live-until ledger", contractID)
	}

	log.Debug().
		Str("contract_id", contractID).
		Uint32("live_until_ledger", *live).
		Uint32("latest_ledger", resp.LatestLedger).
		Msg("Resolved signature expiration ledger")

	return *live, nil
}
