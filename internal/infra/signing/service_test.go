package signing_test

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"testing"

	"github.com/SafeMPC/mint-service/internal/auth"
	"github.com/SafeMPC/mint-service/internal/infra/signing"
	"github.com/SafeMPC/mint-service/internal/soroban"
	"github.com/pkg/errors"
	"github.com/stellar/go/keypair"
	"github.com/stellar/go/network"
	"github.com/stellar/go/strkey"
	"github.com/stellar/go/xdr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockResolver struct {
	mock.Mock
}

func (m *MockResolver) Resolve(ctx context.Context, contractID string) (uint32, error) {
	args := m.Called(ctx, contractID)
	return args.Get(0).(uint32), args.Error(1)
}

func contractAddress(t *testing.T, seed byte) string {
	t.Helper()
	raw := make([]byte, 32)
	raw[0] = seed
	id, err := strkey.Encode(strkey.VersionByteContract, raw)
	require.NoError(t, err)
	return id
}

func newEntry(t *testing.T, address, contractID string) xdr.SorobanAuthorizationEntry {
	t.Helper()

	addr, err := soroban.ParseAddress(address)
	require.NoError(t, err)
	contract, err := soroban.ParseAddress(contractID)
	require.NoError(t, err)

	return xdr.SorobanAuthorizationEntry{
		Credentials: xdr.SorobanCredentials{
			Type: xdr.SorobanCredentialsTypeSorobanCredentialsAddress,
			Address: &xdr.SorobanAddressCredentials{
				Address:   addr,
				Nonce:     42,
				Signature: xdr.ScVal{Type: xdr.ScValTypeScvVoid},
			},
		},
		RootInvocation: xdr.SorobanAuthorizedInvocation{
			Function: xdr.SorobanAuthorizedFunction{
				Type: xdr.SorobanAuthorizedFunctionTypeSorobanAuthorizedFunctionTypeContractFn,
				ContractFn: &xdr.InvokeContractArgs{
					ContractAddress: contract,
					FunctionName:    "mint",
					Args:            xdr.ScVec{soroban.String("poster")},
				},
			},
		},
	}
}

func newPasskeyAssertion(t *testing.T, challenge string) signing.PasskeyMethod {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	clientDataJSON, err := json.Marshal(map[string]string{
		"type":      "webauthn.get",
		"challenge": challenge,
		"origin":    "http://localhost:8080",
	})
	require.NoError(t, err)

	rpIDHash := sha256.Sum256([]byte("localhost"))
	authData := append(rpIDHash[:], 0x05, 0, 0, 0, 9)

	clientDataHash := sha256.Sum256(clientDataJSON)
	digest := sha256.Sum256(append(append([]byte{}, authData...), clientDataHash[:]...))
	sig, err := ecdsa.SignASN1(rand.Reader, key, digest[:])
	require.NoError(t, err)

	return signing.PasskeyMethod{
		CredentialID:      []byte("credential-1"),
		ClientDataJSON:    clientDataJSON,
		AuthenticatorData: authData,
		Signature:         sig,
	}
}

func accountSignature(t *testing.T, val xdr.ScVal) (publicKey, sig []byte) {
	t.Helper()

	items, err := soroban.VecItems(val)
	require.NoError(t, err)
	require.Len(t, items, 1)

	fields, err := soroban.MapEntries(items[0])
	require.NoError(t, err)
	require.Len(t, fields, 2)
	assert.Equal(t, "public_key", fields[0].Key)
	assert.Equal(t, "signature", fields[1].Key)

	publicKey, err = soroban.BytesValue(fields[0].Val)
	require.NoError(t, err)
	sig, err = soroban.BytesValue(fields[1].Val)
	require.NoError(t, err)
	return publicKey, sig
}

func TestAuthorizeKeypair(t *testing.T) {
	kp := keypair.MustRandom()
	contractID := contractAddress(t, 1)
	entry := newEntry(t, kp.Address(), contractID)

	resolver := new(MockResolver)
	resolver.On("Resolve", mock.Anything, contractID).Return(uint32(5000), nil).Once()

	svc := signing.NewService(network.TestNetworkPassphrase, resolver)
	signed, err := svc.Authorize(context.Background(), entry, contractID, signing.NewKeypairSigner(kp.Address(), kp.Seed()))
	require.NoError(t, err)
	resolver.AssertExpectations(t)

	assert.Equal(t, xdr.Uint32(5000), signed.Credentials.Address.SignatureExpirationLedger)

	publicKey, sig := accountSignature(t, signed.Credentials.Address.Signature)
	raw, err := strkey.Decode(strkey.VersionByteAccountID, kp.Address())
	require.NoError(t, err)
	assert.Equal(t, raw, publicKey)

	payload, err := svc.GenerateChallenge(entry, 5000)
	require.NoError(t, err)
	assert.NoError(t, kp.Verify(payload, sig))
}

func TestAuthorizeMismatchSkipsResolver(t *testing.T) {
	owner := keypair.MustRandom()
	intruder := keypair.MustRandom()
	contractID := contractAddress(t, 1)
	entry := newEntry(t, owner.Address(), contractID)

	resolver := new(MockResolver)
	svc := signing.NewService(network.TestNetworkPassphrase, resolver)

	_, err := svc.Authorize(context.Background(), entry, contractID, signing.NewKeypairSigner(intruder.Address(), intruder.Seed()))
	assert.True(t, errors.Is(err, signing.ErrInvalidSigner))
	resolver.AssertNotCalled(t, "Resolve", mock.Anything, mock.Anything)
}

func TestAuthorizeResolverError(t *testing.T) {
	kp := keypair.MustRandom()
	contractID := contractAddress(t, 1)
	entry := newEntry(t, kp.Address(), contractID)

	resolver := new(MockResolver)
	resolver.On("Resolve", mock.Anything, contractID).Return(uint32(0), errors.New("ledger entry not found"))

	svc := signing.NewService(network.TestNetworkPassphrase, resolver)
	_, err := svc.Authorize(context.Background(), entry, contractID, signing.NewKeypairSigner(kp.Address(), kp.Seed()))
	assert.Error(t, err)
}

func TestSignDoesNotMutateInput(t *testing.T) {
	kp := keypair.MustRandom()
	entry := newEntry(t, kp.Address(), contractAddress(t, 1))
	before, err := xdr.MarshalBase64(entry)
	require.NoError(t, err)

	svc := signing.NewService(network.TestNetworkPassphrase, new(MockResolver))
	_, err = svc.Sign(entry, 777, signing.NewKeypairSigner(kp.Address(), kp.Seed()))
	require.NoError(t, err)

	after, err := xdr.MarshalBase64(entry)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestSignKeypairWrongSecret(t *testing.T) {
	kp := keypair.MustRandom()
	other := keypair.MustRandom()
	entry := newEntry(t, kp.Address(), contractAddress(t, 1))

	svc := signing.NewService(network.TestNetworkPassphrase, new(MockResolver))
	_, err := svc.Sign(entry, 10, signing.NewKeypairSigner(kp.Address(), other.Seed()))
	assert.True(t, errors.Is(err, signing.ErrInvalidSigner))
}

func TestSignNilMethod(t *testing.T) {
	kp := keypair.MustRandom()
	entry := newEntry(t, kp.Address(), contractAddress(t, 1))

	svc := signing.NewService(network.TestNetworkPassphrase, new(MockResolver))
	_, err := svc.Sign(entry, 10, signing.SignerDescriptor{AddressID: kp.Address()})
	assert.True(t, errors.Is(err, signing.ErrInvalidSignerMethod))
}

func TestSignSourceAccountEntry(t *testing.T) {
	kp := keypair.MustRandom()
	entry := newEntry(t, kp.Address(), contractAddress(t, 1))
	entry.Credentials = xdr.SorobanCredentials{Type: xdr.SorobanCredentialsTypeSorobanCredentialsSourceAccount}

	svc := signing.NewService(network.TestNetworkPassphrase, new(MockResolver))
	_, err := svc.Sign(entry, 10, signing.NewKeypairSigner(kp.Address(), kp.Seed()))
	assert.True(t, errors.Is(err, signing.ErrInvalidSigner))
}

func TestGenerateChallengeDeterministic(t *testing.T) {
	entry := newEntry(t, contractAddress(t, 9), contractAddress(t, 1))
	svc := signing.NewService(network.TestNetworkPassphrase, new(MockResolver))

	first, err := svc.GenerateChallenge(entry, 100)
	require.NoError(t, err)
	second, err := svc.GenerateChallenge(entry, 100)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Len(t, first, 32)

	later, err := svc.GenerateChallenge(entry, 101)
	require.NoError(t, err)
	assert.NotEqual(t, first, later)

	public := signing.NewService(network.PublicNetworkPassphrase, new(MockResolver))
	otherNetwork, err := public.GenerateChallenge(entry, 100)
	require.NoError(t, err)
	assert.NotEqual(t, first, otherNetwork)

	str, err := svc.ChallengeString(entry, 100)
	require.NoError(t, err)
	assert.Equal(t, auth.EncodeChallenge(first), str)
}

func TestPasskeyRoundTrip(t *testing.T) {
	wallet := contractAddress(t, 9)
	contractID := contractAddress(t, 1)
	entry := newEntry(t, wallet, contractID)

	resolver := new(MockResolver)
	resolver.On("Resolve", mock.Anything, contractID).Return(uint32(2024), nil).Once()
	svc := signing.NewService(network.TestNetworkPassphrase, resolver)

	challenge, err := svc.ChallengeString(entry, 2024)
	require.NoError(t, err)
	assertion := newPasskeyAssertion(t, challenge)

	signed, err := svc.Authorize(context.Background(), entry, contractID, signing.NewPasskeySigner(wallet, assertion))
	require.NoError(t, err)
	assert.Equal(t, xdr.Uint32(2024), signed.Credentials.Address.SignatureExpirationLedger)

	fields, err := soroban.MapEntries(signed.Credentials.Address.Signature)
	require.NoError(t, err)
	keys := make([]string, 0, len(fields))
	for _, f := range fields {
		keys = append(keys, f.Key)
	}
	assert.Equal(t, []string{"authenticator_data", "client_data_json", "id", "signature"}, keys)

	decoded, err := signing.DecodeAssertion(signed.Credentials.Address.Signature)
	require.NoError(t, err)
	assert.Equal(t, assertion.AuthenticatorData, decoded.AuthenticatorData)
	assert.Equal(t, assertion.ClientDataJSON, decoded.ClientDataJSON)
	assert.Equal(t, assertion.CredentialID, decoded.CredentialID)

	compact, err := auth.CompactSignature(assertion.Signature)
	require.NoError(t, err)
	assert.Equal(t, compact, decoded.Signature)
}

func TestPasskeyChallengeMismatch(t *testing.T) {
	wallet := contractAddress(t, 9)
	entry := newEntry(t, wallet, contractAddress(t, 1))
	svc := signing.NewService(network.TestNetworkPassphrase, new(MockResolver))

	// assertion signed for a different expiration
	stale, err := svc.ChallengeString(entry, 1)
	require.NoError(t, err)

	_, err = svc.Sign(entry, 2, signing.NewPasskeySigner(wallet, newPasskeyAssertion(t, stale)))
	assert.True(t, errors.Is(err, signing.ErrChallengeMismatch))
}

func TestDecodeAssertionRejectsReordered(t *testing.T) {
	val := soroban.Map(
		soroban.MapEntry{Key: "client_data_json", Val: soroban.Bytes([]byte("{}"))},
		soroban.MapEntry{Key: "authenticator_data", Val: soroban.Bytes([]byte{1})},
		soroban.MapEntry{Key: "id", Val: soroban.Bytes([]byte{2})},
		soroban.MapEntry{Key: "signature", Val: soroban.Bytes([]byte{3})},
	)

	_, err := signing.DecodeAssertion(val)
	assert.True(t, errors.Is(err, signing.ErrInvalidAssertion))
}
