package storage

import (
	"context"
	"time"

	"github.com/aarondl/null/v8"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var (
	// ErrNotFound 记录不存在
	ErrNotFound = errors.New("not found")
	// ErrSupplyExhausted 条件自增未命中（已达总量）
	ErrSupplyExhausted = errors.New("supply exhausted")
	// ErrChallengeExists 相同标识的挑战仍在有效期内
	ErrChallengeExists = errors.New("challenge already exists")
	// ErrPasskeyExists 凭证 ID 已注册
	ErrPasskeyExists = errors.New("passkey already registered")
)

// User 用户（只读）
type User struct {
	ID            string
	WalletAddress string
	PasskeyCount  int
}

// Collection NFT 合集及其供应计数
type Collection struct {
	ID           string
	SessionID    string
	ContractID   string
	TotalSupply  int64
	MintedAmount int64
}

// Remaining 剩余可铸造数量
func (c Collection) Remaining() int64 {
	return c.TotalSupply - c.MintedAmount
}

// NFT 已铸造记录
type NFT struct {
	ID              uuid.UUID
	UserID          string
	SessionID       string
	CollectionID    string
	ContractID      string
	TokenID         string
	TransactionHash string
	CreatedAt       time.Time
	DeletedAt       null.Time
}

// Passkey 用户注册的 WebAuthn 凭证
type Passkey struct {
	// CredentialID Base64URL（无 Padding）
	CredentialID string
	UserID       string
	// PublicKey COSE 公钥的 Hex 编码
	PublicKey string
	CreatedAt time.Time
}

// MintChallenge 铸造去重挑战
type MintChallenge struct {
	Identifier string
	Token      string
	ExpiresAt  time.Time
}

// ChallengeIdentifier 由用户与会话组成的去重标识
func ChallengeIdentifier(userID, sessionID string) string {
	return userID + ":" + sessionID
}

// UserStore 用户查询
type UserStore interface {
	GetUser(ctx context.Context, userID string) (*User, error)
}

// CollectionStore 合集与供应计数；增减均为单条条件更新
type CollectionStore interface {
	GetCollectionBySession(ctx context.Context, sessionID string) (*Collection, error)
	// IncrementMinted minted_amount < total_supply 时加一，否则返回 ErrSupplyExhausted
	IncrementMinted(ctx context.Context, collectionID string) error
	// DecrementMinted minted_amount > 0 时减一
	DecrementMinted(ctx context.Context, collectionID string) error
}

// NFTStore NFT 记录
type NFTStore interface {
	// HasClaimed 包含软删除记录
	HasClaimed(ctx context.Context, userID, sessionID string) (bool, error)
	CreateNFT(ctx context.Context, nft *NFT) error
}

// PasskeyStore 用户 passkey
type PasskeyStore interface {
	ListPasskeys(ctx context.Context, userID string) ([]Passkey, error)
	// SavePasskey 凭证 ID 已存在时返回 ErrPasskeyExists
	SavePasskey(ctx context.Context, passkey *Passkey) error
}

// ChallengeStore 去重挑战存储
type ChallengeStore interface {
	// CreateChallenge 原子地创建挑战；已有未过期挑战时返回 ErrChallengeExists
	CreateChallenge(ctx context.Context, challenge MintChallenge) error
	GetChallenge(ctx context.Context, identifier string) (*MintChallenge, error)
}

// MetadataStore 持久化元数据
type MetadataStore interface {
	UserStore
	CollectionStore
	NFTStore
	PasskeyStore
	Ping(ctx context.Context) error
}
