package mint

import (
	"context"
	"time"

	"github.com/SafeMPC/mint-service/internal/auth"
	"github.com/SafeMPC/mint-service/internal/config"
	"github.com/SafeMPC/mint-service/internal/events"
	"github.com/SafeMPC/mint-service/internal/infra/invocation"
	"github.com/SafeMPC/mint-service/internal/infra/signing"
	"github.com/SafeMPC/mint-service/internal/infra/storage"
	"github.com/SafeMPC/mint-service/internal/infra/submission"
	"github.com/SafeMPC/mint-service/internal/metrics"
	"github.com/SafeMPC/mint-service/internal/soroban"
	"github.com/dropbox/godropbox/time2"
	"github.com/google/uuid"
	"github.com/kat-co/vala"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/stellar/go/txnbuild"
	"github.com/stellar/go/xdr"
)

const defaultChallengeTTL = 2 * time.Minute

// Invoker 合约调用编排
type Invoker interface {
	Invoke(ctx context.Context, req invocation.Request, signers []signing.SignerDescriptor) (*invocation.Result, error)
	SourceSigner() signing.SignerDescriptor
}

// Submitter 交易提交
type Submitter interface {
	Submit(ctx context.Context, tx *txnbuild.Transaction) (*submission.Result, error)
}

// ChallengeIssuer 由鉴权条目派生挑战
type ChallengeIssuer interface {
	ChallengeString(entry xdr.SorobanAuthorizationEntry, expiration uint32) (string, error)
}

// Service NFT 铸造流程
type Service struct {
	store             storage.MetadataStore
	challenges        storage.ChallengeStore
	invoker           Invoker
	submitter         Submitter
	issuer            ChallengeIssuer
	publisher         events.Publisher
	clock             time2.Clock
	cfg               config.Mint
	networkPassphrase string
	metrics           *metrics.Metrics
}

// NewService 创建铸造服务
func NewService(
	store storage.MetadataStore,
	challenges storage.ChallengeStore,
	invoker Invoker,
	submitter Submitter,
	issuer ChallengeIssuer,
	publisher events.Publisher,
	clock time2.Clock,
	cfg config.Server,
	m *metrics.Metrics,
) (*Service, error) {
	if err := vala.BeginValidation().Validate(
		vala.IsNotNil(store, "store"),
		vala.IsNotNil(challenges, "challenges"),
		vala.IsNotNil(invoker, "invoker"),
		vala.IsNotNil(submitter, "submitter"),
		vala.IsNotNil(issuer, "issuer"),
		vala.StringNotEmpty(cfg.Soroban.NetworkPassphrase, "cfg.Soroban.NetworkPassphrase"),
	).Check(); err != nil {
		return nil, err
	}

	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	if clock == nil {
		clock = time2.DefaultClock
	}

	mintCfg := cfg.Mint
	if mintCfg.Method == "" {
		mintCfg.Method = "mint"
	}
	if mintCfg.ChallengeTTL <= 0 {
		mintCfg.ChallengeTTL = defaultChallengeTTL
	}

	return &Service{
		store:             store,
		challenges:        challenges,
		invoker:           invoker,
		submitter:         submitter,
		issuer:            issuer,
		publisher:         publisher,
		clock:             clock,
		cfg:               mintCfg,
		networkPassphrase: cfg.Soroban.NetworkPassphrase,
		metrics:           m,
	}, nil
}

// Claim 为用户铸造会话对应合集的 NFT
func (s *Service) Claim(ctx context.Context, req ClaimRequest) (*ClaimResult, error) {
	start := s.clock.Now()
	logger := log.With().
		Str("user_id", req.UserID).
		Str("session_id", req.SessionID).
		Str("resource", req.Resource).
		Logger()

	result, outcome, err := s.claim(ctx, logger, req)
	s.metrics.ObserveClaim(outcome, s.clock.Now().Sub(start))

	if err != nil {
		logger.Info().Err(err).Str("outcome", outcome).Msg("Mint claim did not complete")
		return nil, err
	}
	return result, nil
}

func (s *Service) claim(ctx context.Context, logger zerolog.Logger, req ClaimRequest) (*ClaimResult, string, error) {
	logger.Info().Str("state", string(StateValidating)).Msg("Mint saga transition")

	user, collection, err := s.validate(ctx, req)
	if err != nil {
		return nil, metrics.OutcomeRejected, err
	}

	logger = logger.With().
		Str("collection_id", collection.ID).
		Str("contract_id", collection.ContractID).
		Logger()

	logger.Info().Str("state", string(StateSimulating)).Msg("Mint saga transition")

	invoked, err := s.simulate(ctx, user, collection, req)
	if err != nil {
		return nil, metrics.OutcomeFailed, err
	}
	logFees(logger, invoked)

	logger.Info().Str("state", string(StateChallengeIssued)).Msg("Mint saga transition")

	if err := s.issueChallenge(ctx, invoked, req); err != nil {
		if errors.Is(err, ErrDuplicateAttempt) {
			return nil, metrics.OutcomeRejected, err
		}
		return nil, metrics.OutcomeFailed, err
	}

	var submitted *submission.Result
	run := &saga{logger: logger}
	run.add(step{
		state: StateSupplyReserved,
		forward: func(ctx context.Context) error {
			return s.reserveSupply(ctx, collection.ID)
		},
		compensate: func(ctx context.Context) error {
			return s.store.DecrementMinted(ctx, collection.ID)
		},
	})
	run.add(step{
		state: StateSubmitting,
		forward: func(ctx context.Context) error {
			if err := ctx.Err(); err != nil {
				return errors.Wrap(err, "claim abandoned before submission")
			}
			// 发出后交易可能上链，结果由轮询上限决定，不随请求取消
			res, err := s.submitter.Submit(context.WithoutCancel(ctx), invoked.Transaction)
			if err != nil {
				return err
			}
			submitted = res
			return nil
		},
	})

	compensations, err := run.run(ctx)
	if err != nil {
		if len(compensations) == 0 {
			// 预留未成功，无需补偿
			if errors.Is(err, ErrNotEnoughSupply) {
				return nil, metrics.OutcomeRejected, err
			}
			return nil, metrics.OutcomeFailed, err
		}

		s.afterCompensation(ctx, logger, req, collection, err, compensations)
		logger.Info().Str("state", string(StateFailed)).Msg("Mint saga transition")
		return nil, metrics.OutcomeCompensated, err
	}

	result, err := s.complete(ctx, logger, req, collection, submitted)
	if err != nil {
		return nil, metrics.OutcomeFailed, err
	}

	logger.Info().
		Str("state", string(StateCompleted)).
		Str("tx_hash", result.TransactionHash).
		Str("token_id", result.TokenID).
		Msg("Mint saga transition")

	return result, metrics.OutcomeCompleted, nil
}

func (s *Service) validate(ctx context.Context, req ClaimRequest) (*storage.User, *storage.Collection, error) {
	user, err := s.store.GetUser(ctx, req.UserID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil, errors.Wrapf(ErrResourceNotFound, "user %s", req.UserID)
		}
		return nil, nil, errors.Wrap(err, "failed to load user")
	}
	if user.WalletAddress == "" {
		return nil, nil, ErrWalletNotLinked
	}
	if user.PasskeyCount == 0 {
		return nil, nil, ErrPasskeyRequired
	}

	collection, err := s.store.GetCollectionBySession(ctx, req.SessionID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil, errors.Wrapf(ErrResourceNotFound, "collection for session %s", req.SessionID)
		}
		return nil, nil, errors.Wrap(err, "failed to load collection")
	}
	if collection.Remaining() <= 0 {
		return nil, nil, ErrNotEnoughSupply
	}

	claimed, err := s.store.HasClaimed(ctx, req.UserID, req.SessionID)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to check existing claim")
	}
	if claimed {
		return nil, nil, ErrAlreadyClaimed
	}

	return user, collection, nil
}

func (s *Service) simulate(ctx context.Context, user *storage.User, collection *storage.Collection, req ClaimRequest) (*invocation.Result, error) {
	to, err := soroban.Address(user.WalletAddress)
	if err != nil {
		return nil, errors.Wrap(err, "invalid wallet address")
	}

	metadata := soroban.Map(
		soroban.MapEntry{Key: metadataResource, Val: soroban.String(req.Resource)},
		soroban.MapEntry{Key: metadataSessionID, Val: soroban.String(req.SessionID)},
	)

	return s.invoker.Invoke(ctx, invocation.Request{
		ContractID: collection.ContractID,
		Method:     s.cfg.Method,
		Args:       []xdr.ScVal{to, metadata},
	}, []signing.SignerDescriptor{s.invoker.SourceSigner()})
}

// challengeToken 第一条地址鉴权条目的挑战；没有地址条目时使用交易哈希
func (s *Service) challengeToken(invoked *invocation.Result) (string, error) {
	for _, entry := range invoked.AuthEntries {
		_, ok, err := soroban.EntryAddress(entry)
		if err != nil {
			return "", err
		}
		if !ok {
			continue
		}
		return s.issuer.ChallengeString(entry, uint32(entry.Credentials.Address.SignatureExpirationLedger))
	}

	hash, err := invoked.Transaction.Hash(s.networkPassphrase)
	if err != nil {
		return "", errors.Wrap(err, "failed to hash transaction")
	}
	return auth.EncodeChallenge(hash[:]), nil
}

func (s *Service) issueChallenge(ctx context.Context, invoked *invocation.Result, req ClaimRequest) error {
	token, err := s.challengeToken(invoked)
	if err != nil {
		return err
	}

	err = s.challenges.CreateChallenge(ctx, storage.MintChallenge{
		Identifier: storage.ChallengeIdentifier(req.UserID, req.SessionID),
		Token:      token,
		ExpiresAt:  s.clock.Now().Add(s.cfg.ChallengeTTL),
	})
	if errors.Is(err, storage.ErrChallengeExists) {
		return ErrDuplicateAttempt
	}
	if err != nil {
		return errors.Wrap(err, "failed to store mint challenge")
	}
	return nil
}

func (s *Service) reserveSupply(ctx context.Context, collectionID string) error {
	err := s.store.IncrementMinted(ctx, collectionID)
	if errors.Is(err, storage.ErrSupplyExhausted) {
		return ErrNotEnoughSupply
	}
	if err != nil {
		return errors.Wrap(err, "failed to reserve supply")
	}
	return nil
}

func (s *Service) afterCompensation(ctx context.Context, logger zerolog.Logger, req ClaimRequest, collection *storage.Collection, cause error, compensations []compensation) {
	released := true
	for _, c := range compensations {
		ok := c.err == nil
		s.metrics.ObserveCompensation(ok)
		if !ok {
			released = false
		}
	}

	event := events.MintCompensated{
		UserID:       req.UserID,
		SessionID:    req.SessionID,
		CollectionID: collection.ID,
		Reason:       cause.Error(),
		Released:     released,
		OccurredAt:   s.clock.Now(),
	}
	var submitErr *submission.SubmitError
	if errors.As(cause, &submitErr) {
		event.TransactionHash = submitErr.Hash
	}

	if err := s.publisher.PublishCompensated(context.WithoutCancel(ctx), event); err != nil {
		logger.Warn().Err(err).Msg("Failed to publish compensation event")
	}
}

// complete 链上已成功：此后的失败不再补偿
func (s *Service) complete(ctx context.Context, logger zerolog.Logger, req ClaimRequest, collection *storage.Collection, submitted *submission.Result) (*ClaimResult, error) {
	tokenID := ""
	if submitted.HasReturn {
		id, err := soroban.IntegerString(submitted.ReturnValue)
		if err != nil {
			logger.Warn().Err(err).Str("tx_hash", submitted.Hash).Msg("Mint returned a non-integer token id")
		} else {
			tokenID = id
		}
	} else {
		logger.Warn().Str("tx_hash", submitted.Hash).Msg("Mint transaction carried no return value")
	}

	nft := &storage.NFT{
		ID:              uuid.New(),
		UserID:          req.UserID,
		SessionID:       req.SessionID,
		CollectionID:    collection.ID,
		ContractID:      collection.ContractID,
		TokenID:         tokenID,
		TransactionHash: submitted.Hash,
		CreatedAt:       s.clock.Now(),
	}

	// 交易已上链，持久化失败只能人工对账
	ctx = context.WithoutCancel(ctx)
	if err := s.store.CreateNFT(ctx, nft); err != nil {
		logger.Error().Err(err).Str("tx_hash", submitted.Hash).Str("token_id", tokenID).Msg("Failed to persist minted NFT")
		return nil, errors.Wrapf(err, "minted in transaction %s but failed to persist", submitted.Hash)
	}

	if err := s.publisher.PublishMinted(ctx, events.NFTMinted{
		NFTID:           nft.ID.String(),
		UserID:          nft.UserID,
		SessionID:       nft.SessionID,
		CollectionID:    nft.CollectionID,
		ContractID:      nft.ContractID,
		TokenID:         nft.TokenID,
		TransactionHash: nft.TransactionHash,
		MintedAt:        nft.CreatedAt,
	}); err != nil {
		logger.Warn().Err(err).Msg("Failed to publish minted event")
	}

	return &ClaimResult{
		TransactionHash: submitted.Hash,
		TokenID:         tokenID,
	}, nil
}

func logFees(logger zerolog.Logger, invoked *invocation.Result) {
	if invoked.Simulation == nil || invoked.Transaction == nil {
		return
	}
	resourceFee, err := invoked.Simulation.ResourceFee()
	if err != nil {
		return
	}
	logger.Debug().
		Str("resource_fee_xlm", decimal.New(resourceFee, -7).String()).
		Str("max_fee_xlm", decimal.New(invoked.Transaction.MaxFee(), -7).String()).
		Msg("Mint transaction assembled")
}
