package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/SafeMPC/mint-service/internal/config"
	"github.com/lib/pq"
	"github.com/pkg/errors"
)

// PostgreSQLStore PostgreSQL 元数据存储
type PostgreSQLStore struct {
	db *sql.DB
}

// NewPostgreSQLStore 创建 PostgreSQL 存储
func NewPostgreSQLStore(db *sql.DB) *PostgreSQLStore {
	return &PostgreSQLStore{db: db}
}

// NewDB 打开连接池并校验连通性
func NewDB(cfg config.Database) (*sql.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.Username, cfg.Password, cfg.Database, cfg.SSLMode)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to ping database")
	}

	return db, nil
}

// Ping 数据库连通性
func (s *PostgreSQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// GetUser 查询用户及其 passkey 数量
func (s *PostgreSQLStore) GetUser(ctx context.Context, userID string) (*User, error) {
	query := `
		SELECT u.id, COALESCE(u.wallet_address, ''), COUNT(p.credential_id)
		FROM users u
		LEFT JOIN passkeys p ON p.user_id = u.id
		WHERE u.id = $1
		GROUP BY u.id, u.wallet_address
	`
	var user User
	err := s.db.QueryRowContext(ctx, query, userID).Scan(&user.ID, &user.WalletAddress, &user.PasskeyCount)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.Wrapf(ErrNotFound, "user %s", userID)
		}
		return nil, errors.Wrap(err, "failed to get user")
	}
	return &user, nil
}

// GetCollectionBySession 按会话查询合集
func (s *PostgreSQLStore) GetCollectionBySession(ctx context.Context, sessionID string) (*Collection, error) {
	query := `
		SELECT id, session_id, contract_id, total_supply, minted_amount
		FROM collections
		WHERE session_id = $1
	`
	var c Collection
	err := s.db.QueryRowContext(ctx, query, sessionID).Scan(&c.ID, &c.SessionID, &c.ContractID, &c.TotalSupply, &c.MintedAmount)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.Wrapf(ErrNotFound, "collection for session %s", sessionID)
		}
		return nil, errors.Wrap(err, "failed to get collection")
	}
	return &c, nil
}

// IncrementMinted 条件自增
func (s *PostgreSQLStore) IncrementMinted(ctx context.Context, collectionID string) error {
	query := `
		UPDATE collections
		SET minted_amount = minted_amount + 1, updated_at = NOW()
		WHERE id = $1 AND minted_amount < total_supply
	`
	res, err := s.db.ExecContext(ctx, query, collectionID)
	if err != nil {
		return errors.Wrap(err, "failed to increment minted amount")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to read affected rows")
	}
	if affected == 0 {
		return errors.Wrapf(ErrSupplyExhausted, "collection %s", collectionID)
	}
	return nil
}

// DecrementMinted 条件自减
func (s *PostgreSQLStore) DecrementMinted(ctx context.Context, collectionID string) error {
	query := `
		UPDATE collections
		SET minted_amount = minted_amount - 1, updated_at = NOW()
		WHERE id = $1 AND minted_amount > 0
	`
	res, err := s.db.ExecContext(ctx, query, collectionID)
	if err != nil {
		return errors.Wrap(err, "failed to decrement minted amount")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to read affected rows")
	}
	if affected == 0 {
		return errors.Wrapf(ErrNotFound, "collection %s has nothing to release", collectionID)
	}
	return nil
}

// HasClaimed 检查用户在会话中是否已有 NFT（含软删除）
func (s *PostgreSQLStore) HasClaimed(ctx context.Context, userID, sessionID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM nfts WHERE user_id = $1 AND session_id = $2)`
	var exists bool
	if err := s.db.QueryRowContext(ctx, query, userID, sessionID).Scan(&exists); err != nil {
		return false, errors.Wrap(err, "failed to check existing nft")
	}
	return exists, nil
}

// CreateNFT 写入 NFT 记录
func (s *PostgreSQLStore) CreateNFT(ctx context.Context, nft *NFT) error {
	query := `
		INSERT INTO nfts (id, user_id, session_id, collection_id, contract_id, token_id, transaction_hash, created_at, deleted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.db.ExecContext(ctx, query,
		nft.ID, nft.UserID, nft.SessionID, nft.CollectionID, nft.ContractID,
		nft.TokenID, nft.TransactionHash, nft.CreatedAt, nft.DeletedAt)
	if err != nil {
		return errors.Wrap(err, "failed to create nft")
	}
	return nil
}

// GetNFT 按用户与会话查询（含软删除）
func (s *PostgreSQLStore) GetNFT(ctx context.Context, userID, sessionID string) (*NFT, error) {
	query := `
		SELECT id, user_id, session_id, collection_id, contract_id, token_id, transaction_hash, created_at, deleted_at
		FROM nfts
		WHERE user_id = $1 AND session_id = $2
		ORDER BY created_at DESC
		LIMIT 1
	`
	var nft NFT
	err := s.db.QueryRowContext(ctx, query, userID, sessionID).Scan(
		&nft.ID, &nft.UserID, &nft.SessionID, &nft.CollectionID, &nft.ContractID,
		&nft.TokenID, &nft.TransactionHash, &nft.CreatedAt, &nft.DeletedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.Wrapf(ErrNotFound, "nft for user %s session %s", userID, sessionID)
		}
		return nil, errors.Wrap(err, "failed to get nft")
	}
	return &nft, nil
}

// pgForeignKeyViolation SQLSTATE 23503
const pgForeignKeyViolation = "23503"

// ListPasskeys 用户的全部 passkey
func (s *PostgreSQLStore) ListPasskeys(ctx context.Context, userID string) ([]Passkey, error) {
	query := `
		SELECT credential_id, user_id, public_key, created_at
		FROM passkeys
		WHERE user_id = $1
		ORDER BY credential_id
	`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list passkeys")
	}
	defer rows.Close()

	var passkeys []Passkey
	for rows.Next() {
		var p Passkey
		if err := rows.Scan(&p.CredentialID, &p.UserID, &p.PublicKey, &p.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "failed to scan passkey")
		}
		passkeys = append(passkeys, p)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate passkeys")
	}
	return passkeys, nil
}

// SavePasskey 写入 passkey；凭证 ID 冲突时不覆盖
func (s *PostgreSQLStore) SavePasskey(ctx context.Context, passkey *Passkey) error {
	createdAt := passkey.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	query := `
		INSERT INTO passkeys (credential_id, user_id, public_key, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (credential_id) DO NOTHING
	`
	res, err := s.db.ExecContext(ctx, query, passkey.CredentialID, passkey.UserID, passkey.PublicKey, createdAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pgForeignKeyViolation {
			return errors.Wrapf(ErrNotFound, "user %s", passkey.UserID)
		}
		return errors.Wrap(err, "failed to save passkey")
	}

	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to read affected rows")
	}
	if n == 0 {
		return errors.Wrapf(ErrPasskeyExists, "credential %s", passkey.CredentialID)
	}
	return nil
}
