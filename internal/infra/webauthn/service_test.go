package webauthn_test

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"testing"
	"time"

	"github.com/SafeMPC/mint-service/internal/config"
	"github.com/SafeMPC/mint-service/internal/infra/storage"
	"github.com/SafeMPC/mint-service/internal/infra/webauthn"
	"github.com/dropbox/godropbox/time2"
	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/protocol/webauthncbor"
	"github.com/go-webauthn/webauthn/protocol/webauthncose"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testRPID   = "localhost"
	testOrigin = "http://localhost:8080"
)

type fixture struct {
	clock   *time2.MockClock
	store   *storage.MemoryStore
	service *webauthn.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	clock := time2.NewMockClock(time.Now())
	store := storage.NewMemoryStore(clock)
	store.PutUser(storage.User{ID: "user-1", WalletAddress: "GWALLET"})

	service, err := webauthn.NewService(config.WebAuthn{
		RPID:            testRPID,
		RPOrigin:        testOrigin,
		RegistrationTTL: time.Minute,
	}, store, store, clock)
	require.NoError(t, err)

	return &fixture{clock: clock, store: store, service: service}
}

type authenticator struct {
	key          *ecdsa.PrivateKey
	credentialID []byte
}

func newAuthenticator(t *testing.T) *authenticator {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	id := make([]byte, 16)
	_, err = rand.Read(id)
	require.NoError(t, err)

	return &authenticator{key: key, credentialID: id}
}

// create 构造 "none" attestation 的注册响应
func (a *authenticator) create(t *testing.T, challenge string, origin string) *protocol.ParsedCredentialCreationData {
	t.Helper()

	clientDataJSON, err := json.Marshal(map[string]string{
		"type":      "webauthn.create",
		"challenge": challenge,
		"origin":    origin,
	})
	require.NoError(t, err)

	cose, err := webauthncbor.Marshal(webauthncose.EC2PublicKeyData{
		PublicKeyData: webauthncose.PublicKeyData{
			KeyType:   int64(webauthncose.EllipticKey),
			Algorithm: int64(webauthncose.AlgES256),
		},
		Curve:  int64(webauthncose.P256),
		XCoord: a.key.X.FillBytes(make([]byte, 32)),
		YCoord: a.key.Y.FillBytes(make([]byte, 32)),
	})
	require.NoError(t, err)

	rpIDHash := sha256.Sum256([]byte(testRPID))
	authData := append([]byte{}, rpIDHash[:]...)
	authData = append(authData, 0x45, 0, 0, 0, 0) // UP | UV | AT, signCount 0
	authData = append(authData, make([]byte, 16)...)
	authData = append(authData, byte(len(a.credentialID)>>8), byte(len(a.credentialID)))
	authData = append(authData, a.credentialID...)
	authData = append(authData, cose...)

	attestationObject, err := webauthncbor.Marshal(map[string]interface{}{
		"fmt":      "none",
		"attStmt":  map[string]interface{}{},
		"authData": authData,
	})
	require.NoError(t, err)

	id := base64.RawURLEncoding.EncodeToString(a.credentialID)
	body, err := json.Marshal(map[string]interface{}{
		"id":    id,
		"rawId": id,
		"type":  "public-key",
		"response": map[string]string{
			"clientDataJSON":    base64.RawURLEncoding.EncodeToString(clientDataJSON),
			"attestationObject": base64.RawURLEncoding.EncodeToString(attestationObject),
		},
	})
	require.NoError(t, err)

	parsed, err := protocol.ParseCredentialCreationResponseBody(bytes.NewReader(body))
	require.NoError(t, err)
	return parsed
}

func TestRegistrationFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	options, err := f.service.BeginRegistration(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, testRPID, options.Response.RelyingParty.ID)
	assert.Empty(t, options.Response.CredentialExcludeList)

	a := newAuthenticator(t)
	passkey, err := f.service.FinishRegistration(ctx, "user-1", a.create(t, options.Response.Challenge.String(), testOrigin))
	require.NoError(t, err)
	assert.Equal(t, base64.RawURLEncoding.EncodeToString(a.credentialID), passkey.CredentialID)
	assert.NotEmpty(t, passkey.PublicKey)

	user, err := f.store.GetUser(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, user.PasskeyCount)

	// 已注册凭证进入排除列表
	options, err = f.service.BeginRegistration(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, options.Response.CredentialExcludeList, 1)
	assert.Equal(t, a.credentialID, []byte(options.Response.CredentialExcludeList[0].CredentialID))

	// 同一凭证再次注册
	_, err = f.service.FinishRegistration(ctx, "user-1", a.create(t, options.Response.Challenge.String(), testOrigin))
	assert.True(t, errors.Is(err, webauthn.ErrPasskeyExists))
}

func TestBeginRegistrationUnknownUser(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.BeginRegistration(context.Background(), "nobody")
	assert.True(t, errors.Is(err, webauthn.ErrUnknownUser))
}

func TestFinishRegistrationWithoutSession(t *testing.T) {
	f := newFixture(t)
	a := newAuthenticator(t)

	challenge := base64.RawURLEncoding.EncodeToString([]byte("never-issued-challenge-0123456789"))
	_, err := f.service.FinishRegistration(context.Background(), "user-1", a.create(t, challenge, testOrigin))
	assert.True(t, errors.Is(err, webauthn.ErrSessionNotFound))
}

func TestFinishRegistrationSessionExpired(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	options, err := f.service.BeginRegistration(ctx, "user-1")
	require.NoError(t, err)

	f.clock.Advance(2 * time.Minute)

	a := newAuthenticator(t)
	_, err = f.service.FinishRegistration(ctx, "user-1", a.create(t, options.Response.Challenge.String(), testOrigin))
	assert.True(t, errors.Is(err, webauthn.ErrSessionNotFound))
}

func TestFinishRegistrationSessionBoundToUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.store.PutUser(storage.User{ID: "user-2"})

	options, err := f.service.BeginRegistration(ctx, "user-1")
	require.NoError(t, err)

	a := newAuthenticator(t)
	_, err = f.service.FinishRegistration(ctx, "user-2", a.create(t, options.Response.Challenge.String(), testOrigin))
	assert.True(t, errors.Is(err, webauthn.ErrSessionNotFound))
}

func TestFinishRegistrationWrongOrigin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	options, err := f.service.BeginRegistration(ctx, "user-1")
	require.NoError(t, err)

	a := newAuthenticator(t)
	_, err = f.service.FinishRegistration(ctx, "user-1", a.create(t, options.Response.Challenge.String(), "https://evil.example"))
	assert.True(t, errors.Is(err, webauthn.ErrInvalidCredential))

	passkeys, err := f.store.ListPasskeys(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, passkeys)
}

func TestNewServiceValidatesConfig(t *testing.T) {
	store := storage.NewMemoryStore(nil)

	_, err := webauthn.NewService(config.WebAuthn{RPOrigin: testOrigin}, store, store, nil)
	assert.Error(t, err)

	_, err = webauthn.NewService(config.WebAuthn{RPID: testRPID, RPOrigin: testOrigin}, nil, store, nil)
	assert.Error(t, err)
}
