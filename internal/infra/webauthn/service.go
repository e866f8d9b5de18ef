package webauthn

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/SafeMPC/mint-service/internal/config"
	"github.com/SafeMPC/mint-service/internal/infra/storage"
	"github.com/dropbox/godropbox/time2"
	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"
	"github.com/kat-co/vala"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const defaultRegistrationTTL = 5 * time.Minute

// Store 注册流程需要的用户与 passkey 存储
type Store interface {
	storage.UserStore
	storage.PasskeyStore
}

// Service Passkey 注册：生成 creation options，校验 attestation 并保存公钥
// 注册会话保存在挑战存储中，以 challenge 为键，过期后不可完成
type Service struct {
	webAuthn *webauthn.WebAuthn
	store    Store
	sessions storage.ChallengeStore
	clock    time2.Clock
	ttl      time.Duration
}

// NewService 创建 WebAuthn 服务
func NewService(cfg config.WebAuthn, store Store, sessions storage.ChallengeStore, clock time2.Clock) (*Service, error) {
	if err := vala.BeginValidation().Validate(
		vala.IsNotNil(store, "store"),
		vala.IsNotNil(sessions, "sessions"),
		vala.StringNotEmpty(cfg.RPID, "cfg.RPID"),
		vala.StringNotEmpty(cfg.RPOrigin, "cfg.RPOrigin"),
	).Check(); err != nil {
		return nil, err
	}

	displayName := cfg.RPDisplayName
	if displayName == "" {
		displayName = cfg.RPID
	}

	webAuthn, err := webauthn.New(&webauthn.Config{
		RPID:          cfg.RPID,
		RPDisplayName: displayName,
		RPOrigins:     []string{cfg.RPOrigin},
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create webauthn instance")
	}

	if clock == nil {
		clock = time2.DefaultClock
	}
	ttl := cfg.RegistrationTTL
	if ttl <= 0 {
		ttl = defaultRegistrationTTL
	}

	return &Service{
		webAuthn: webAuthn,
		store:    store,
		sessions: sessions,
		clock:    clock,
		ttl:      ttl,
	}, nil
}

// BeginRegistration 开始 Passkey 注册，已注册的凭证加入排除列表
func (s *Service) BeginRegistration(ctx context.Context, userID string) (*protocol.CredentialCreation, error) {
	user, err := s.user(ctx, userID)
	if err != nil {
		return nil, err
	}

	exclusions := make([]protocol.CredentialDescriptor, 0, len(user.Credentials))
	for _, c := range user.Credentials {
		exclusions = append(exclusions, c.Descriptor())
	}

	options, session, err := s.webAuthn.BeginRegistration(
		user,
		webauthn.WithAuthenticatorSelection(protocol.AuthenticatorSelection{
			ResidentKey:      protocol.ResidentKeyRequirementPreferred,
			UserVerification: protocol.VerificationRequired,
		}),
		webauthn.WithConveyancePreference(protocol.PreferNoAttestation),
		webauthn.WithExclusions(exclusions),
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to begin registration")
	}

	raw, err := json.Marshal(session)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode registration session")
	}

	if err := s.sessions.CreateChallenge(ctx, storage.MintChallenge{
		Identifier: sessionIdentifier(userID, session.Challenge),
		Token:      string(raw),
		ExpiresAt:  s.clock.Now().Add(s.ttl),
	}); err != nil {
		return nil, errors.Wrap(err, "failed to store registration session")
	}

	log.Debug().
		Str("user_id", userID).
		Int("existing_credentials", len(user.Credentials)).
		Msg("Passkey registration started")

	return options, nil
}

// FinishRegistration 校验 attestation 并保存 passkey
func (s *Service) FinishRegistration(ctx context.Context, userID string, response *protocol.ParsedCredentialCreationData) (*storage.Passkey, error) {
	if response == nil {
		return nil, errors.Wrap(ErrInvalidCredential, "missing credential response")
	}

	user, err := s.user(ctx, userID)
	if err != nil {
		return nil, err
	}

	challenge := response.Response.CollectedClientData.Challenge
	stored, err := s.sessions.GetChallenge(ctx, sessionIdentifier(userID, challenge))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, errors.Wrap(err, "failed to load registration session")
	}

	var session webauthn.SessionData
	if err := json.Unmarshal([]byte(stored.Token), &session); err != nil {
		return nil, errors.Wrap(err, "failed to decode registration session")
	}

	credential, err := s.webAuthn.CreateCredential(user, session, response)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidCredential, "%v", err)
	}

	passkey := &storage.Passkey{
		CredentialID: base64.RawURLEncoding.EncodeToString(credential.ID),
		UserID:       userID,
		PublicKey:    hex.EncodeToString(credential.PublicKey),
		CreatedAt:    s.clock.Now(),
	}
	if err := s.store.SavePasskey(ctx, passkey); err != nil {
		if errors.Is(err, storage.ErrPasskeyExists) {
			return nil, ErrPasskeyExists
		}
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrUnknownUser
		}
		return nil, errors.Wrap(err, "failed to save passkey")
	}

	log.Info().
		Str("user_id", userID).
		Str("credential_id", passkey.CredentialID).
		Msg("Passkey registered")

	return passkey, nil
}

// user 组装 webauthn 用户及其已有凭证
func (s *Service) user(ctx context.Context, userID string) (*User, error) {
	if _, err := s.store.GetUser(ctx, userID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrUnknownUser
		}
		return nil, errors.Wrap(err, "failed to get user")
	}

	passkeys, err := s.store.ListPasskeys(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list user passkeys")
	}

	credentials := make([]webauthn.Credential, 0, len(passkeys))
	for _, pk := range passkeys {
		id, err := base64.RawURLEncoding.DecodeString(pk.CredentialID)
		if err != nil {
			log.Warn().Err(err).Str("credential_id", pk.CredentialID).Msg("Skipping passkey with undecodable credential id")
			continue
		}
		publicKey, err := hex.DecodeString(pk.PublicKey)
		if err != nil {
			log.Warn().Err(err).Str("credential_id", pk.CredentialID).Msg("Skipping passkey with undecodable public key")
			continue
		}
		credentials = append(credentials, webauthn.Credential{ID: id, PublicKey: publicKey})
	}

	return &User{ID: userID, Credentials: credentials}, nil
}
