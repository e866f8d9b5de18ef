package auth

import (
	"crypto/elliptic"
	"crypto/sha256"
	"encoding/asn1"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"math/big"
	"strings"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/protocol/webauthncose"
	"github.com/pkg/errors"
)

var (
	// ErrChallengeMismatch client data 中的 challenge 与期望值不一致
	ErrChallengeMismatch = errors.New("passkey challenge mismatch")
	// ErrInvalidAssertion assertion 结构或签名无效
	ErrInvalidAssertion = errors.New("invalid passkey assertion")
)

// p256HalfOrder P-256 阶的一半，用于 low-S 规范化
var p256HalfOrder = new(big.Int).Rsh(elliptic.P256().Params().N, 1)

// EncodeChallenge 将原始挑战字节编码为 WebAuthn client data 中使用的 Base64URL（无 Padding）
func EncodeChallenge(raw []byte) string {
	return base64.RawURLEncoding.EncodeToString(raw)
}

// VerifyAssertionChallenge 校验 assertion 的 client data challenge 与 UP 标志位
// clientDataJSON: Client Data JSON (Raw bytes)
// authData: Authenticator Data (Raw bytes)
// expectedChallenge: Base64URL 编码的期望挑战
func VerifyAssertionChallenge(clientDataJSON []byte, authData []byte, expectedChallenge string) error {
	var clientData protocol.CollectedClientData
	if err := json.Unmarshal(clientDataJSON, &clientData); err != nil {
		return errors.Wrapf(ErrInvalidAssertion, "failed to parse client data: %v", err)
	}

	if clientData.Type != "" && clientData.Type != protocol.AssertCeremony {
		return errors.Wrapf(ErrInvalidAssertion, "unexpected client data type %s", clientData.Type)
	}

	// 兼容带 Padding 的编码
	if strings.TrimRight(clientData.Challenge, "=") != strings.TrimRight(expectedChallenge, "=") {
		return errors.Wrapf(ErrChallengeMismatch, "got %s, want %s", clientData.Challenge, expectedChallenge)
	}

	var authenticatorData protocol.AuthenticatorData
	if err := authenticatorData.Unmarshal(authData); err != nil {
		return errors.Wrapf(ErrInvalidAssertion, "failed to parse authenticator data: %v", err)
	}

	if !authenticatorData.Flags.UserPresent() {
		return errors.Wrap(ErrInvalidAssertion, "user not present (UP flag not set)")
	}

	return nil
}

// VerifyPasskeySignature 验证 WebAuthn Passkey 签名
// publicKeyHex: COSE Key 格式的公钥 (Hex 编码)
// signature: Assertion Signature (DER)
func VerifyPasskeySignature(publicKeyHex string, signature []byte, authData []byte, clientDataJSON []byte, expectedChallenge string) error {
	publicKeyBytes, err := hex.DecodeString(publicKeyHex)
	if err != nil {
		return errors.Wrap(err, "invalid public key hex")
	}

	pubKey, err := webauthncose.ParsePublicKey(publicKeyBytes)
	if err != nil {
		return errors.Wrap(err, "failed to parse public key")
	}

	if err := VerifyAssertionChallenge(clientDataJSON, authData, expectedChallenge); err != nil {
		return err
	}

	// authData || sha256(clientDataJSON)
	clientDataHash := sha256.Sum256(clientDataJSON)
	signedData := append(append([]byte{}, authData...), clientDataHash[:]...)

	valid, err := webauthncose.VerifySignature(pubKey, signedData, signature)
	if err != nil {
		return errors.Wrap(err, "error verifying signature")
	}
	if !valid {
		return errors.Wrap(ErrInvalidAssertion, "invalid signature")
	}

	return nil
}

// CompactSignature 将 P-256 签名规范化为 64 字节 r||s（low-S）
// 接受 ASN.1 DER 或已是 64 字节的原始格式
func CompactSignature(sig []byte) ([]byte, error) {
	var r, s *big.Int

	if len(sig) == 64 {
		r = new(big.Int).SetBytes(sig[:32])
		s = new(big.Int).SetBytes(sig[32:])
	} else {
		var der struct {
			R, S *big.Int
		}
		rest, err := asn1.Unmarshal(sig, &der)
		if err != nil {
			return nil, errors.Wrapf(ErrInvalidAssertion, "failed to parse DER signature: %v", err)
		}
		if len(rest) != 0 {
			return nil, errors.Wrap(ErrInvalidAssertion, "trailing data after DER signature")
		}
		r, s = der.R, der.S
	}

	n := elliptic.P256().Params().N
	if r.Sign() <= 0 || s.Sign() <= 0 || r.Cmp(n) >= 0 || s.Cmp(n) >= 0 {
		return nil, errors.Wrap(ErrInvalidAssertion, "signature scalar out of range")
	}

	if s.Cmp(p256HalfOrder) > 0 {
		s = new(big.Int).Sub(n, s)
	}

	out := make([]byte, 64)
	r.FillBytes(out[:32])
	s.FillBytes(out[32:])
	return out, nil
}

// HexToBase64URL 将 Hex 字符串转换为 Base64URL 字符串 (无 Padding)
func HexToBase64URL(hexStr string) (string, error) {
	raw, err := hex.DecodeString(hexStr)
	if err != nil {
		return "", err
	}
	return EncodeChallenge(raw), nil
}
