package submission

import (
	"context"
	"time"

	"github.com/SafeMPC/mint-service/internal/config"
	"github.com/SafeMPC/mint-service/internal/metrics"
	"github.com/SafeMPC/mint-service/internal/soroban"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/stellar/go/txnbuild"
)

const (
	defaultPollInterval = 2 * time.Second
	defaultPollTimeout  = 2 * time.Minute
	// settleMargin 交易时间上限之后再等待的账本关闭时间
	settleMargin = 10 * time.Second
	// finalCheckTimeout 轮询结束后最后一次状态查询的超时
	finalCheckTimeout = 5 * time.Second
)

// RPC 提交所需的 Soroban RPC 能力
type RPC interface {
	SendTransaction(ctx context.Context, txBase64 string) (*soroban.SendTransactionResponse, error)
	GetTransaction(ctx context.Context, hash string) (*soroban.GetTransactionResponse, error)
}

// Submitter 提交交易并轮询至终态
type Submitter struct {
	rpc          RPC
	pollInterval time.Duration
	pollTimeout  time.Duration
	metrics      *metrics.Metrics
}

// NewSubmitter 创建提交器
func NewSubmitter(rpc RPC, cfg config.Soroban, m *metrics.Metrics) *Submitter {
	interval := cfg.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	timeout := cfg.PollTimeout
	if timeout <= 0 {
		timeout = defaultPollTimeout
	}
	// 轮询必须覆盖交易的有效期，否则超时后交易仍可能上链
	if minimum := cfg.TxTimeout + settleMargin; cfg.TxTimeout > 0 && timeout < minimum {
		log.Warn().
			Dur("poll_timeout", timeout).
			Dur("tx_timeout", cfg.TxTimeout).
			Dur("adjusted", minimum).
			Msg("Poll timeout shorter than transaction validity, extending")
		timeout = minimum
	}
	return &Submitter{
		rpc:          rpc,
		pollInterval: interval,
		pollTimeout:  timeout,
		metrics:      m,
	}
}

// PollTimeout 生效的轮询上限
func (s *Submitter) PollTimeout() time.Duration {
	return s.pollTimeout
}

// Submit 提交已签名交易
func (s *Submitter) Submit(ctx context.Context, tx *txnbuild.Transaction) (*Result, error) {
	encoded, err := tx.Base64()
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode transaction")
	}
	return s.submit(ctx, encoded)
}

// SubmitXDR 提交 base64 编码的交易信封
func (s *Submitter) SubmitXDR(ctx context.Context, envelope string) (*Result, error) {
	gtx, err := txnbuild.TransactionFromXDR(envelope)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode transaction envelope")
	}

	if tx, ok := gtx.Transaction(); ok {
		return s.Submit(ctx, tx)
	}
	if fb, ok := gtx.FeeBump(); ok {
		encoded, err := fb.Base64()
		if err != nil {
			return nil, errors.Wrap(err, "failed to encode fee bump transaction")
		}
		return s.submit(ctx, encoded)
	}
	return nil, errors.New("unsupported transaction envelope")
}

func (s *Submitter) submit(ctx context.Context, encoded string) (*Result, error) {
	sent, err := s.rpc.SendTransaction(ctx, encoded)
	if err != nil {
		return nil, errors.Wrapf(ErrSubmitFailed, "sendTransaction: %v", err)
	}

	logger := log.With().Str("tx_hash", sent.Hash).Logger()

	switch sent.Status {
	case soroban.SendStatusPending, soroban.SendStatusDuplicate:
		logger.Info().Str("status", sent.Status).Uint32("latest_ledger", sent.LatestLedger).Msg("Transaction accepted, polling for result")
	default:
		s.metrics.ObserveSubmission(sent.Status, 0)
		logger.Warn().Str("status", sent.Status).Msg("Transaction rejected on submission")
		return nil, &SubmitError{Status: sent.Status, Hash: sent.Hash, ResultXDR: sent.ErrorResultXDR}
	}

	return s.poll(ctx, sent.Hash)
}

// poll 仅重试状态读取；受 pollTimeout 与调用方 ctx 双重约束
func (s *Submitter) poll(ctx context.Context, hash string) (*Result, error) {
	pollCtx, cancel := context.WithTimeout(ctx, s.pollTimeout)
	defer cancel()

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	attempts := 0
	for {
		select {
		case <-pollCtx.Done():
			attempts++
			if res, ok, err := s.finalCheck(ctx, hash, attempts); ok {
				return res, err
			}
			s.metrics.ObserveSubmission(StatusTimeout, attempts)
			log.Warn().Str("tx_hash", hash).Int("attempts", attempts).Msg("Stopped polling transaction status")
			return nil, &SubmitError{Status: StatusTimeout, Hash: hash, Err: pollCtx.Err()}
		case <-ticker.C:
		}

		attempts++
		status, err := s.rpc.GetTransaction(pollCtx, hash)
		if err != nil {
			log.Warn().Err(err).Str("tx_hash", hash).Int("attempt", attempts).Msg("Failed to read transaction status, retrying")
			continue
		}

		switch status.Status {
		case soroban.TransactionStatusNotFound:
			continue
		case soroban.TransactionStatusSuccess:
			s.metrics.ObserveSubmission(status.Status, attempts)
			return buildResult(hash, status), nil
		default:
			s.metrics.ObserveSubmission(status.Status, attempts)
			log.Warn().Str("tx_hash", hash).Str("status", status.Status).Uint32("ledger", status.Ledger).Msg("Transaction failed")
			return nil, &SubmitError{Status: status.Status, Hash: hash, ResultXDR: status.ResultXDR}
		}
	}
}

// finalCheck 停止轮询前再读一次状态，交易可能恰好在最后一个间隔内上链
func (s *Submitter) finalCheck(ctx context.Context, hash string, attempts int) (*Result, bool, error) {
	checkCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), finalCheckTimeout)
	defer cancel()

	status, err := s.rpc.GetTransaction(checkCtx, hash)
	if err != nil {
		log.Warn().Err(err).Str("tx_hash", hash).Msg("Final transaction status read failed")
		return nil, false, nil
	}

	switch status.Status {
	case soroban.TransactionStatusNotFound:
		return nil, false, nil
	case soroban.TransactionStatusSuccess:
		s.metrics.ObserveSubmission(status.Status, attempts)
		return buildResult(hash, status), true, nil
	default:
		s.metrics.ObserveSubmission(status.Status, attempts)
		return nil, true, &SubmitError{Status: status.Status, Hash: hash, ResultXDR: status.ResultXDR}
	}
}

func buildResult(hash string, status *soroban.GetTransactionResponse) *Result {
	res := &Result{
		Hash:          hash,
		Ledger:        status.Ledger,
		ResultXDR:     status.ResultXDR,
		ResultMetaXDR: status.ResultMetaXDR,
	}

	val, err := status.ReturnValue()
	if err != nil {
		log.Warn().Err(err).Str("tx_hash", hash).Msg("Successful transaction carries no return value")
		return res
	}
	res.ReturnValue = val
	res.HasReturn = true

	log.Info().Str("tx_hash", hash).Uint32("ledger", status.Ledger).Msg("Transaction succeeded")
	return res
}
