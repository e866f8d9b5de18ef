package storage_test

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/SafeMPC/mint-service/internal/infra/storage"
	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	migrate "github.com/rubenv/sql-migrate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	dsn := os.Getenv("MINT_TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("MINT_TEST_DATABASE_DSN not set")
	}

	db, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = storage.Migrate(db, migrate.Up)
	require.NoError(t, err)

	pending, err := storage.PendingMigrations(db)
	require.NoError(t, err)
	assert.Zero(t, pending)
	return db
}

func TestPostgreSQLSupplyCounter(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	store := storage.NewPostgreSQLStore(db)

	collectionID := uuid.NewString()
	sessionID := uuid.NewString()
	_, err := db.ExecContext(ctx,
		`INSERT INTO collections (id, session_id, contract_id, total_supply, minted_amount) VALUES ($1, $2, $3, 1, 0)`,
		collectionID, sessionID, "CCONTRACT")
	require.NoError(t, err)

	require.NoError(t, store.IncrementMinted(ctx, collectionID))
	err = store.IncrementMinted(ctx, collectionID)
	assert.True(t, errors.Is(err, storage.ErrSupplyExhausted))

	c, err := store.GetCollectionBySession(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), c.MintedAmount)

	require.NoError(t, store.DecrementMinted(ctx, collectionID))
	assert.Error(t, store.DecrementMinted(ctx, collectionID))
}

func TestPostgreSQLUsersAndNFTs(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	store := storage.NewPostgreSQLStore(db)

	userID := uuid.NewString()
	collectionID := uuid.NewString()
	sessionID := uuid.NewString()

	_, err := db.ExecContext(ctx, `INSERT INTO users (id, wallet_address) VALUES ($1, $2)`, userID, "GWALLET")
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `INSERT INTO passkeys (credential_id, user_id, public_key) VALUES ($1, $2, 'pk')`, uuid.NewString(), userID)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx,
		`INSERT INTO collections (id, session_id, contract_id, total_supply) VALUES ($1, $2, 'CCONTRACT', 5)`,
		collectionID, sessionID)
	require.NoError(t, err)

	user, err := store.GetUser(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "GWALLET", user.WalletAddress)
	assert.Equal(t, 1, user.PasskeyCount)

	_, err = store.GetUser(ctx, uuid.NewString())
	assert.True(t, errors.Is(err, storage.ErrNotFound))

	claimed, err := store.HasClaimed(ctx, userID, sessionID)
	require.NoError(t, err)
	assert.False(t, claimed)

	require.NoError(t, store.CreateNFT(ctx, &storage.NFT{
		ID:              uuid.New(),
		UserID:          userID,
		SessionID:       sessionID,
		CollectionID:    collectionID,
		ContractID:      "CCONTRACT",
		TokenID:         "42",
		TransactionHash: "abc",
		CreatedAt:       time.Now(),
	}))

	claimed, err = store.HasClaimed(ctx, userID, sessionID)
	require.NoError(t, err)
	assert.True(t, claimed)

	nft, err := store.GetNFT(ctx, userID, sessionID)
	require.NoError(t, err)
	assert.Equal(t, "42", nft.TokenID)
	assert.False(t, nft.DeletedAt.Valid)
}

func TestPostgreSQLPasskeys(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	store := storage.NewPostgreSQLStore(db)

	userID := uuid.NewString()
	_, err := db.ExecContext(ctx, `INSERT INTO users (id) VALUES ($1)`, userID)
	require.NoError(t, err)

	credentialID := uuid.NewString()
	require.NoError(t, store.SavePasskey(ctx, &storage.Passkey{CredentialID: credentialID, UserID: userID, PublicKey: "a5010203"}))

	err = store.SavePasskey(ctx, &storage.Passkey{CredentialID: credentialID, UserID: userID, PublicKey: "other"})
	assert.True(t, errors.Is(err, storage.ErrPasskeyExists))

	err = store.SavePasskey(ctx, &storage.Passkey{CredentialID: uuid.NewString(), UserID: uuid.NewString(), PublicKey: "pk"})
	assert.True(t, errors.Is(err, storage.ErrNotFound))

	passkeys, err := store.ListPasskeys(ctx, userID)
	require.NoError(t, err)
	require.Len(t, passkeys, 1)
	assert.Equal(t, "a5010203", passkeys[0].PublicKey)

	user, err := store.GetUser(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 1, user.PasskeyCount)
	assert.Empty(t, user.WalletAddress)
}
