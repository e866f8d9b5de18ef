package signing

import (
	"context"
	"crypto/sha256"

	"github.com/SafeMPC/mint-service/internal/auth"
	"github.com/SafeMPC/mint-service/internal/soroban"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/stellar/go/keypair"
	"github.com/stellar/go/network"
	"github.com/stellar/go/strkey"
	"github.com/stellar/go/xdr"
)

// ExpirationResolver 签名过期账本解析
type ExpirationResolver interface {
	Resolve(ctx context.Context, contractID string) (uint32, error)
}

// Service 鉴权条目签名服务
type Service struct {
	networkPassphrase string
	networkID         xdr.Hash
	resolver          ExpirationResolver
}

// NewService 创建签名服务
func NewService(networkPassphrase string, resolver ExpirationResolver) *Service {
	return &Service{
		networkPassphrase: networkPassphrase,
		networkID:         network.ID(networkPassphrase),
		resolver:          resolver,
	}
}

// NetworkPassphrase 当前网络
func (s *Service) NetworkPassphrase() string {
	return s.networkPassphrase
}

// Authorize 为单个条目签名：先校验地址，再解析过期账本，最后签名
// contractID 在条目根调用不是合约调用时用于解析过期账本
func (s *Service) Authorize(ctx context.Context, entry xdr.SorobanAuthorizationEntry, contractID string, signer SignerDescriptor) (xdr.SorobanAuthorizationEntry, error) {
	if err := checkSigner(entry, signer); err != nil {
		return xdr.SorobanAuthorizationEntry{}, err
	}

	target, err := soroban.InvokedContract(entry)
	if err != nil {
		return xdr.SorobanAuthorizationEntry{}, err
	}
	if target == "" {
		target = contractID
	}

	expiration, err := s.resolver.Resolve(ctx, target)
	if err != nil {
		return xdr.SorobanAuthorizationEntry{}, errors.Wrapf(err, "failed to resolve expiration for %s", target)
	}

	return s.Sign(entry, expiration, signer)
}

// Sign 在条目副本上设置过期账本并按签名方式签名，不修改入参
func (s *Service) Sign(entry xdr.SorobanAuthorizationEntry, expiration uint32, signer SignerDescriptor) (xdr.SorobanAuthorizationEntry, error) {
	if err := checkSigner(entry, signer); err != nil {
		return xdr.SorobanAuthorizationEntry{}, err
	}

	switch m := signer.Method.(type) {
	case KeypairMethod:
		return s.signWithKeypair(entry, expiration, signer.AddressID, m)
	case *KeypairMethod:
		if m == nil {
			return xdr.SorobanAuthorizationEntry{}, ErrInvalidSignerMethod
		}
		return s.signWithKeypair(entry, expiration, signer.AddressID, *m)
	case PasskeyMethod:
		return s.EmbedAssertion(entry, expiration, m)
	case *PasskeyMethod:
		if m == nil {
			return xdr.SorobanAuthorizationEntry{}, ErrInvalidSignerMethod
		}
		return s.EmbedAssertion(entry, expiration, *m)
	default:
		return xdr.SorobanAuthorizationEntry{}, errors.Wrapf(ErrInvalidSignerMethod, "%T", signer.Method)
	}
}

// GenerateChallenge 计算条目在给定过期账本下的签名原像哈希（32 字节）
func (s *Service) GenerateChallenge(entry xdr.SorobanAuthorizationEntry, expiration uint32) ([]byte, error) {
	if entry.Credentials.Address == nil {
		return nil, errors.Wrap(ErrInvalidSigner, "entry has no address credentials")
	}

	preimage := xdr.HashIdPreimage{
		Type: xdr.EnvelopeTypeEnvelopeTypeSorobanAuthorization,
		SorobanAuthorization: &xdr.HashIdPreimageSorobanAuthorization{
			NetworkId:                 s.networkID,
			Nonce:                     entry.Credentials.Address.Nonce,
			SignatureExpirationLedger: xdr.Uint32(expiration),
			Invocation:                entry.RootInvocation,
		},
	}

	raw, err := preimage.MarshalBinary()
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal authorization preimage")
	}
	hash := sha256.Sum256(raw)
	return hash[:], nil
}

// ChallengeString WebAuthn 客户端需要签名的挑战字符串
func (s *Service) ChallengeString(entry xdr.SorobanAuthorizationEntry, expiration uint32) (string, error) {
	challenge, err := s.GenerateChallenge(entry, expiration)
	if err != nil {
		return "", err
	}
	return auth.EncodeChallenge(challenge), nil
}

// EmbedAssertion 校验 assertion 后按固定字段顺序写入条目签名
func (s *Service) EmbedAssertion(entry xdr.SorobanAuthorizationEntry, expiration uint32, assertion PasskeyMethod) (xdr.SorobanAuthorizationEntry, error) {
	challenge, err := s.ChallengeString(entry, expiration)
	if err != nil {
		return xdr.SorobanAuthorizationEntry{}, err
	}

	if err := auth.VerifyAssertionChallenge(assertion.ClientDataJSON, assertion.AuthenticatorData, challenge); err != nil {
		return xdr.SorobanAuthorizationEntry{}, err
	}

	compact, err := auth.CompactSignature(assertion.Signature)
	if err != nil {
		return xdr.SorobanAuthorizationEntry{}, err
	}

	signed, err := cloneEntry(entry)
	if err != nil {
		return xdr.SorobanAuthorizationEntry{}, err
	}
	signed.Credentials.Address.SignatureExpirationLedger = xdr.Uint32(expiration)
	signed.Credentials.Address.Signature = soroban.Map(
		soroban.MapEntry{Key: FieldAuthenticatorData, Val: soroban.Bytes(assertion.AuthenticatorData)},
		soroban.MapEntry{Key: FieldClientDataJSON, Val: soroban.Bytes(assertion.ClientDataJSON)},
		soroban.MapEntry{Key: FieldCredentialID, Val: soroban.Bytes(assertion.CredentialID)},
		soroban.MapEntry{Key: FieldSignature, Val: soroban.Bytes(compact)},
	)

	log.Debug().
		Uint32("expiration_ledger", expiration).
		Int("credential_id_len", len(assertion.CredentialID)).
		Msg("Embedded passkey assertion into authorization entry")

	return signed, nil
}

// DecodeAssertion 按位置解码 assertion map
func DecodeAssertion(val xdr.ScVal) (PasskeyMethod, error) {
	entries, err := soroban.MapEntries(val)
	if err != nil {
		return PasskeyMethod{}, errors.Wrap(ErrInvalidAssertion, err.Error())
	}

	order := []string{FieldAuthenticatorData, FieldClientDataJSON, FieldCredentialID, FieldSignature}
	if len(entries) != len(order) {
		return PasskeyMethod{}, errors.Wrapf(ErrInvalidAssertion, "expected %d fields, got %d", len(order), len(entries))
	}

	values := make([][]byte, len(order))
	for i, e := range entries {
		if e.Key != order[i] {
			return PasskeyMethod{}, errors.Wrapf(ErrInvalidAssertion, "field %d is %s, want %s", i, e.Key, order[i])
		}
		b, err := soroban.BytesValue(e.Val)
		if err != nil {
			return PasskeyMethod{}, errors.Wrapf(ErrInvalidAssertion, "field %s: %v", e.Key, err)
		}
		values[i] = b
	}

	return PasskeyMethod{
		AuthenticatorData: values[0],
		ClientDataJSON:    values[1],
		CredentialID:      values[2],
		Signature:         values[3],
	}, nil
}

func (s *Service) signWithKeypair(entry xdr.SorobanAuthorizationEntry, expiration uint32, addressID string, m KeypairMethod) (xdr.SorobanAuthorizationEntry, error) {
	kp, err := keypair.ParseFull(m.Secret)
	if err != nil {
		return xdr.SorobanAuthorizationEntry{}, errors.Wrap(ErrInvalidSigner, "invalid keypair secret")
	}
	if soroban.IsAccountAddress(addressID) && kp.Address() != addressID {
		return xdr.SorobanAuthorizationEntry{}, errors.Wrapf(ErrInvalidSigner, "secret belongs to %s, not %s", kp.Address(), addressID)
	}

	payload, err := s.GenerateChallenge(entry, expiration)
	if err != nil {
		return xdr.SorobanAuthorizationEntry{}, err
	}
	sig, err := kp.Sign(payload)
	if err != nil {
		return xdr.SorobanAuthorizationEntry{}, errors.Wrap(err, "failed to sign authorization entry")
	}
	publicKey, err := strkey.Decode(strkey.VersionByteAccountID, kp.Address())
	if err != nil {
		return xdr.SorobanAuthorizationEntry{}, errors.Wrap(err, "failed to decode public key")
	}

	signed, err := cloneEntry(entry)
	if err != nil {
		return xdr.SorobanAuthorizationEntry{}, err
	}
	signed.Credentials.Address.SignatureExpirationLedger = xdr.Uint32(expiration)
	signed.Credentials.Address.Signature = soroban.Vec(soroban.Map(
		soroban.MapEntry{Key: fieldPublicKey, Val: soroban.Bytes(publicKey)},
		soroban.MapEntry{Key: fieldSig, Val: soroban.Bytes(sig)},
	))

	log.Debug().
		Str("address", addressID).
		Uint32("expiration_ledger", expiration).
		Msg("Signed authorization entry with keypair")

	return signed, nil
}

// checkSigner 地址不一致时在任何解析或签名之前失败
func checkSigner(entry xdr.SorobanAuthorizationEntry, signer SignerDescriptor) error {
	address, ok, err := soroban.EntryAddress(entry)
	if err != nil {
		return errors.Wrap(ErrInvalidSigner, err.Error())
	}
	if !ok {
		return errors.Wrap(ErrInvalidSigner, "entry is authorized by the source account")
	}
	if address != signer.AddressID {
		return errors.Wrapf(ErrInvalidSigner, "signer %s cannot sign entry for %s", signer.AddressID, address)
	}
	if signer.Method == nil {
		return ErrInvalidSignerMethod
	}
	return nil
}

func cloneEntry(entry xdr.SorobanAuthorizationEntry) (xdr.SorobanAuthorizationEntry, error) {
	var clone xdr.SorobanAuthorizationEntry
	raw, err := entry.MarshalBinary()
	if err != nil {
		return clone, errors.Wrap(err, "failed to marshal authorization entry")
	}
	if err := clone.UnmarshalBinary(raw); err != nil {
		return clone, errors.Wrap(err, "failed to copy authorization entry")
	}
	return clone, nil
}
