package signing

import (
	"github.com/SafeMPC/mint-service/internal/auth"
	"github.com/pkg/errors"
)

var (
	// ErrInvalidSigner 签名者地址与条目要求的地址不一致
	ErrInvalidSigner = errors.New("invalid signer")
	// ErrInvalidSignerMethod 未知的签名方式
	ErrInvalidSignerMethod = errors.New("invalid signer method")
	// ErrChallengeMismatch passkey assertion 针对的不是该条目的挑战
	ErrChallengeMismatch = auth.ErrChallengeMismatch
	// ErrInvalidAssertion passkey assertion 无法解析
	ErrInvalidAssertion = auth.ErrInvalidAssertion
)

// assertion map 字段，合约按位置解码，顺序不可调整
const (
	FieldAuthenticatorData = "authenticator_data"
	FieldClientDataJSON    = "client_data_json"
	FieldCredentialID      = "id"
	FieldSignature         = "signature"
)

// 账户签名 map 字段
const (
	fieldPublicKey = "public_key"
	fieldSig       = "signature"
)

// SignerMethod 签名方式，仅有 KeypairMethod 与 PasskeyMethod 两种
type SignerMethod interface {
	signerMethod()
}

// KeypairMethod 使用 Ed25519 私钥（S...）在本地签名
type KeypairMethod struct {
	Secret string
}

func (KeypairMethod) signerMethod() {}

// PasskeyMethod 外部 WebAuthn 验证器返回的 assertion
type PasskeyMethod struct {
	CredentialID      []byte
	ClientDataJSON    []byte
	AuthenticatorData []byte
	// Signature DER 或 64 字节 r||s
	Signature []byte
}

func (PasskeyMethod) signerMethod() {}

// SignerDescriptor 签名者描述
type SignerDescriptor struct {
	// AddressID 签名者声明的地址（G... 或 C...），必须与条目的凭证地址一致
	AddressID string
	Method    SignerMethod
}

// NewKeypairSigner 以私钥推导地址构造签名者
func NewKeypairSigner(address, secret string) SignerDescriptor {
	return SignerDescriptor{AddressID: address, Method: KeypairMethod{Secret: secret}}
}

// NewPasskeySigner 构造 passkey 签名者
func NewPasskeySigner(address string, assertion PasskeyMethod) SignerDescriptor {
	return SignerDescriptor{AddressID: address, Method: assertion}
}
