package invocation

import (
	"context"

	"github.com/SafeMPC/mint-service/internal/config"
	"github.com/SafeMPC/mint-service/internal/infra/signing"
	"github.com/SafeMPC/mint-service/internal/metrics"
	"github.com/SafeMPC/mint-service/internal/soroban"
	"github.com/kat-co/vala"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/stellar/go/keypair"
	"github.com/stellar/go/txnbuild"
	"github.com/stellar/go/xdr"
)

// RPC 编排所需的 Soroban RPC 能力
type RPC interface {
	SimulateTransaction(ctx context.Context, txBase64 string) (*soroban.SimulateTransactionResponse, error)
	GetAccount(ctx context.Context, address string) (*txnbuild.SimpleAccount, error)
}

// Authorizer 单条目签名
type Authorizer interface {
	Authorize(ctx context.Context, entry xdr.SorobanAuthorizationEntry, contractID string, signer signing.SignerDescriptor) (xdr.SorobanAuthorizationEntry, error)
}

// Service 合约调用编排：构建、模拟、签名、再模拟、组装
type Service struct {
	rpc               RPC
	authorizer        Authorizer
	source            *keypair.Full
	networkPassphrase string
	baseFee           int64
	timeoutSeconds    int64
	metrics           *metrics.Metrics
}

// NewService 创建编排服务
func NewService(rpc RPC, authorizer Authorizer, cfg config.Soroban, m *metrics.Metrics) (*Service, error) {
	if err := vala.BeginValidation().Validate(
		vala.IsNotNil(rpc, "rpc"),
		vala.IsNotNil(authorizer, "authorizer"),
		vala.StringNotEmpty(cfg.SourceSecret, "cfg.SourceSecret"),
		vala.StringNotEmpty(cfg.NetworkPassphrase, "cfg.NetworkPassphrase"),
	).Check(); err != nil {
		return nil, err
	}

	source, err := keypair.ParseFull(cfg.SourceSecret)
	if err != nil {
		return nil, errors.Wrap(err, "invalid source secret")
	}

	baseFee := cfg.BaseFee
	if baseFee < txnbuild.MinBaseFee {
		baseFee = txnbuild.MinBaseFee
	}
	timeout := int64(cfg.TxTimeout.Seconds())
	if timeout <= 0 {
		timeout = 60
	}

	return &Service{
		rpc:               rpc,
		authorizer:        authorizer,
		source:            source,
		networkPassphrase: cfg.NetworkPassphrase,
		baseFee:           baseFee,
		timeoutSeconds:    timeout,
		metrics:           m,
	}, nil
}

// SourceAddress 服务源账户地址
func (s *Service) SourceAddress() string {
	return s.source.Address()
}

// SourceSigner 以服务源账户身份签名的描述
func (s *Service) SourceSigner() signing.SignerDescriptor {
	return signing.NewKeypairSigner(s.source.Address(), s.source.Seed())
}

// Invoke 生成已完成鉴权、可直接提交的交易
// 没有匹配签名者的条目保持未签名，由提交结果暴露；未使用的签名者被忽略
func (s *Service) Invoke(ctx context.Context, req Request, signers []signing.SignerDescriptor) (*Result, error) {
	contract, err := soroban.ParseAddress(req.ContractID)
	if err != nil {
		return nil, errors.Wrap(err, "invalid contract id")
	}
	if req.Method == "" {
		return nil, errors.New("method is required")
	}

	account, err := s.rpc.GetAccount(ctx, s.source.Address())
	if err != nil {
		return nil, errors.Wrap(err, "failed to load source account")
	}

	hostFunction := xdr.HostFunction{
		Type: xdr.HostFunctionTypeHostFunctionTypeInvokeContract,
		InvokeContract: &xdr.InvokeContractArgs{
			ContractAddress: contract,
			FunctionName:    xdr.ScSymbol(req.Method),
			Args:            xdr.ScVec(req.Args),
		},
	}

	tx, err := txnbuild.NewTransaction(txnbuild.TransactionParams{
		SourceAccount:        account,
		IncrementSequenceNum: true,
		BaseFee:              s.baseFee,
		Preconditions:        txnbuild.Preconditions{TimeBounds: txnbuild.NewTimeout(s.timeoutSeconds)},
		Operations: []txnbuild.Operation{
			&txnbuild.InvokeHostFunction{HostFunction: hostFunction},
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to build transaction")
	}

	logger := log.With().
		Str("contract_id", req.ContractID).
		Str("method", req.Method).
		Int64("sequence", tx.SequenceNumber()).
		Logger()

	sim, err := s.simulate(ctx, tx, FirstPass)
	if err != nil {
		return nil, err
	}

	entries, err := sim.AuthEntries()
	if err != nil {
		return nil, &SimulationError{Pass: FirstPass, Err: err}
	}

	required := 0
	for i, entry := range entries {
		address, ok, err := soroban.EntryAddress(entry)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		required++

		signer, found := matchSigner(address, signers)
		if !found {
			logger.Debug().Str("address", address).Int("entry", i).Msg("No signer supplied for authorization entry, leaving it unsigned")
			continue
		}

		signed, err := s.authorizer.Authorize(ctx, entry, req.ContractID, signer)
		if err != nil {
			return nil, err
		}
		entries[i] = signed
	}

	if required == 0 {
		logger.Debug().Msg("Invocation requires no address authorization")
		return s.assemble(tx, hostFunction, entries, sim)
	}

	rebuilt, err := s.rebuild(tx, hostFunction, entries, nil, s.baseFee)
	if err != nil {
		return nil, err
	}

	sim, err = s.simulate(ctx, rebuilt, SecondPass)
	if err != nil {
		return nil, err
	}

	logger.Info().Int("auth_entries", len(entries)).Int("address_entries", required).Msg("Invocation authorized and re-simulated")

	return s.assemble(rebuilt, hostFunction, entries, sim)
}

func (s *Service) simulate(ctx context.Context, tx *txnbuild.Transaction, pass SimulationPass) (*soroban.SimulateTransactionResponse, error) {
	encoded, err := tx.Base64()
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode transaction")
	}

	sim, err := s.rpc.SimulateTransaction(ctx, encoded)
	if err != nil {
		s.metrics.ObserveSimulationFailure(pass.String())
		return nil, &SimulationError{Pass: pass, Err: err}
	}
	if sim.Failed() {
		s.metrics.ObserveSimulationFailure(pass.String())
		return nil, &SimulationError{Pass: pass, Message: sim.Error}
	}
	if sim.RestorePreamble != nil {
		s.metrics.ObserveSimulationFailure(pass.String())
		return nil, &SimulationError{Pass: pass, Message: "archived ledger entries must be restored first"}
	}
	return sim, nil
}

// rebuild 保持序列号与时间边界不变，替换唯一的操作
func (s *Service) rebuild(tx *txnbuild.Transaction, hostFunction xdr.HostFunction, entries []xdr.SorobanAuthorizationEntry, ext *xdr.TransactionExt, baseFee int64) (*txnbuild.Transaction, error) {
	account := tx.SourceAccount()
	op := &txnbuild.InvokeHostFunction{
		HostFunction: hostFunction,
		Auth:         entries,
	}
	if ext != nil {
		op.Ext = *ext
	}

	rebuilt, err := txnbuild.NewTransaction(txnbuild.TransactionParams{
		SourceAccount:        &account,
		IncrementSequenceNum: false,
		BaseFee:              baseFee,
		Preconditions:        txnbuild.Preconditions{TimeBounds: tx.Timebounds()},
		Operations:           []txnbuild.Operation{op},
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to rebuild transaction")
	}
	return rebuilt, nil
}

// assemble 写入资源数据与费用并用源账户签名
func (s *Service) assemble(tx *txnbuild.Transaction, hostFunction xdr.HostFunction, entries []xdr.SorobanAuthorizationEntry, sim *soroban.SimulateTransactionResponse) (*Result, error) {
	data, err := sim.SorobanData()
	if err != nil {
		return nil, err
	}
	resourceFee, err := sim.ResourceFee()
	if err != nil {
		return nil, err
	}

	ext := xdr.TransactionExt{V: 1, SorobanData: &data}
	assembled, err := s.rebuild(tx, hostFunction, entries, &ext, s.baseFee+resourceFee)
	if err != nil {
		return nil, err
	}

	signed, err := assembled.Sign(s.networkPassphrase, s.source)
	if err != nil {
		return nil, errors.Wrap(err, "failed to sign transaction")
	}

	return &Result{
		Transaction: signed,
		Simulation:  sim,
		AuthEntries: entries,
	}, nil
}

func matchSigner(address string, signers []signing.SignerDescriptor) (signing.SignerDescriptor, bool) {
	for _, signer := range signers {
		if signer.AddressID == address {
			return signer, true
		}
	}
	return signing.SignerDescriptor{}, false
}
