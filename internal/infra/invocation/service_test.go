package invocation_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/SafeMPC/mint-service/internal/config"
	"github.com/SafeMPC/mint-service/internal/infra/invocation"
	"github.com/SafeMPC/mint-service/internal/infra/signing"
	"github.com/SafeMPC/mint-service/internal/soroban"
	"github.com/pkg/errors"
	"github.com/stellar/go/keypair"
	"github.com/stellar/go/network"
	"github.com/stellar/go/strkey"
	"github.com/stellar/go/txnbuild"
	"github.com/stellar/go/xdr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// fakeRPC 按顺序返回预置的模拟结果
type fakeRPC struct {
	mu        sync.Mutex
	source    string
	responses []*soroban.SimulateTransactionResponse
	simulated []string
}

func (f *fakeRPC) SimulateTransaction(ctx context.Context, txBase64 string) (*soroban.SimulateTransactionResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.simulated = append(f.simulated, txBase64)
	if len(f.responses) == 0 {
		return nil, errors.New("unexpected simulation")
	}
	resp := f.responses[0]
	f.responses = f.responses[1:]
	return resp, nil
}

func (f *fakeRPC) GetAccount(ctx context.Context, address string) (*txnbuild.SimpleAccount, error) {
	if address != f.source {
		return nil, soroban.ErrAccountNotFound
	}
	return &txnbuild.SimpleAccount{AccountID: address, Sequence: 100}, nil
}

type MockAuthorizer struct {
	mock.Mock
}

func (m *MockAuthorizer) Authorize(ctx context.Context, entry xdr.SorobanAuthorizationEntry, contractID string, signer signing.SignerDescriptor) (xdr.SorobanAuthorizationEntry, error) {
	args := m.Called(ctx, entry, contractID, signer)
	return args.Get(0).(xdr.SorobanAuthorizationEntry), args.Error(1)
}

func contractID(t *testing.T) string {
	t.Helper()
	raw := make([]byte, 32)
	raw[31] = 7
	id, err := strkey.Encode(strkey.VersionByteContract, raw)
	require.NoError(t, err)
	return id
}

func addressEntry(t *testing.T, address, contract string) xdr.SorobanAuthorizationEntry {
	t.Helper()
	addr, err := soroban.ParseAddress(address)
	require.NoError(t, err)
	c, err := soroban.ParseAddress(contract)
	require.NoError(t, err)

	return xdr.SorobanAuthorizationEntry{
		Credentials: xdr.SorobanCredentials{
			Type: xdr.SorobanCredentialsTypeSorobanCredentialsAddress,
			Address: &xdr.SorobanAddressCredentials{
				Address:   addr,
				Nonce:     1,
				Signature: xdr.ScVal{Type: xdr.ScValTypeScvVoid},
			},
		},
		RootInvocation: xdr.SorobanAuthorizedInvocation{
			Function: xdr.SorobanAuthorizedFunction{
				Type:       xdr.SorobanAuthorizedFunctionTypeSorobanAuthorizedFunctionTypeContractFn,
				ContractFn: &xdr.InvokeContractArgs{ContractAddress: c, FunctionName: "mint"},
			},
		},
	}
}

func sourceAccountEntry(t *testing.T, contract string) xdr.SorobanAuthorizationEntry {
	t.Helper()
	entry := addressEntry(t, keypair.MustRandom().Address(), contract)
	entry.Credentials = xdr.SorobanCredentials{Type: xdr.SorobanCredentialsTypeSorobanCredentialsSourceAccount}
	return entry
}

func simulation(t *testing.T, resourceFee int64, entries ...xdr.SorobanAuthorizationEntry) *soroban.SimulateTransactionResponse {
	t.Helper()

	data, err := xdr.MarshalBase64(xdr.SorobanTransactionData{ResourceFee: xdr.Int64(resourceFee)})
	require.NoError(t, err)

	auth := make([]string, 0, len(entries))
	for _, e := range entries {
		encoded, err := xdr.MarshalBase64(e)
		require.NoError(t, err)
		auth = append(auth, encoded)
	}

	return &soroban.SimulateTransactionResponse{
		TransactionData: data,
		MinResourceFee:  "5000",
		Results:         []soroban.SimulateHostFunctionResult{{Auth: auth, XDR: "AAAAAQ=="}},
		LatestLedger:    1000,
	}
}

func newService(t *testing.T, rpc invocation.RPC, authorizer invocation.Authorizer, source *keypair.Full) *invocation.Service {
	t.Helper()
	svc, err := invocation.NewService(rpc, authorizer, config.Soroban{
		NetworkPassphrase: network.TestNetworkPassphrase,
		SourceSecret:      source.Seed(),
		BaseFee:           100,
		TxTimeout:         30 * time.Second,
	}, nil)
	require.NoError(t, err)
	return svc
}

func invokeOp(t *testing.T, tx *txnbuild.Transaction) *txnbuild.InvokeHostFunction {
	t.Helper()
	ops := tx.Operations()
	require.Len(t, ops, 1)
	op, ok := ops[0].(*txnbuild.InvokeHostFunction)
	require.True(t, ok)
	return op
}

func TestInvokeSignsMatchingEntries(t *testing.T) {
	source := keypair.MustRandom()
	user := keypair.MustRandom()
	contract := contractID(t)

	entry := addressEntry(t, user.Address(), contract)
	rpc := &fakeRPC{
		source:    source.Address(),
		responses: []*soroban.SimulateTransactionResponse{simulation(t, 5000, entry), simulation(t, 5000)},
	}

	signed := addressEntry(t, user.Address(), contract)
	signed.Credentials.Address.SignatureExpirationLedger = 9999
	signer := signing.NewKeypairSigner(user.Address(), user.Seed())

	authorizer := new(MockAuthorizer)
	authorizer.On("Authorize", mock.Anything, mock.MatchedBy(func(e xdr.SorobanAuthorizationEntry) bool {
		address, ok, err := soroban.EntryAddress(e)
		return err == nil && ok && address == user.Address()
	}), contract, signer).Return(signed, nil).Once()

	svc := newService(t, rpc, authorizer, source)
	res, err := svc.Invoke(context.Background(), invocation.Request{
		ContractID: contract,
		Method:     "mint",
		Args:       []xdr.ScVal{soroban.String("poster")},
	}, []signing.SignerDescriptor{signer, signing.NewKeypairSigner(keypair.MustRandom().Address(), "unused")})
	require.NoError(t, err)
	authorizer.AssertExpectations(t)

	require.Len(t, rpc.simulated, 2)
	require.Len(t, res.AuthEntries, 1)
	assert.Equal(t, xdr.Uint32(9999), res.AuthEntries[0].Credentials.Address.SignatureExpirationLedger)

	op := invokeOp(t, res.Transaction)
	require.Len(t, op.Auth, 1)
	assert.Equal(t, xdr.Uint32(9999), op.Auth[0].Credentials.Address.SignatureExpirationLedger)

	assert.Equal(t, int64(101), res.Transaction.SequenceNumber())
	assert.Equal(t, int64(100+5000), res.Transaction.BaseFee())
	assert.Len(t, res.Transaction.Signatures(), 1)
	assert.Equal(t, source.Address(), svc.SourceAddress())
}

func TestInvokeWithoutAddressEntries(t *testing.T) {
	source := keypair.MustRandom()
	contract := contractID(t)

	rpc := &fakeRPC{
		source:    source.Address(),
		responses: []*soroban.SimulateTransactionResponse{simulation(t, 5000, sourceAccountEntry(t, contract))},
	}
	authorizer := new(MockAuthorizer)

	svc := newService(t, rpc, authorizer, source)
	res, err := svc.Invoke(context.Background(), invocation.Request{ContractID: contract, Method: "mint"}, nil)
	require.NoError(t, err)

	assert.Len(t, rpc.simulated, 1)
	authorizer.AssertNotCalled(t, "Authorize", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	assert.Len(t, invokeOp(t, res.Transaction).Auth, 1)
}

func TestInvokeLeavesUnmatchedEntriesUnsigned(t *testing.T) {
	source := keypair.MustRandom()
	contract := contractID(t)
	stranger := keypair.MustRandom()

	entry := addressEntry(t, stranger.Address(), contract)
	rpc := &fakeRPC{
		source:    source.Address(),
		responses: []*soroban.SimulateTransactionResponse{simulation(t, 5000, entry), simulation(t, 5000)},
	}
	authorizer := new(MockAuthorizer)

	svc := newService(t, rpc, authorizer, source)
	res, err := svc.Invoke(context.Background(), invocation.Request{ContractID: contract, Method: "mint"}, []signing.SignerDescriptor{svc.SourceSigner()})
	require.NoError(t, err)

	authorizer.AssertNotCalled(t, "Authorize", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	assert.Len(t, rpc.simulated, 2)
	assert.Equal(t, xdr.ScValTypeScvVoid, res.AuthEntries[0].Credentials.Address.Signature.Type)
}

func TestInvokeFirstPassFailure(t *testing.T) {
	source := keypair.MustRandom()
	rpc := &fakeRPC{
		source:    source.Address(),
		responses: []*soroban.SimulateTransactionResponse{{Error: "HostError: contract not found"}},
	}

	svc := newService(t, rpc, new(MockAuthorizer), source)
	_, err := svc.Invoke(context.Background(), invocation.Request{ContractID: contractID(t), Method: "mint"}, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, invocation.ErrSimulationFailed))

	var simErr *invocation.SimulationError
	require.True(t, errors.As(err, &simErr))
	assert.Equal(t, invocation.FirstPass, simErr.Pass)
}

func TestInvokeSecondPassFailure(t *testing.T) {
	source := keypair.MustRandom()
	user := keypair.MustRandom()
	contract := contractID(t)

	entry := addressEntry(t, user.Address(), contract)
	rpc := &fakeRPC{
		source: source.Address(),
		responses: []*soroban.SimulateTransactionResponse{
			simulation(t, 5000, entry),
			{Error: "HostError: Error(Auth, InvalidAction)"},
		},
	}
	signer := signing.NewKeypairSigner(user.Address(), user.Seed())
	authorizer := new(MockAuthorizer)
	authorizer.On("Authorize", mock.Anything, mock.Anything, contract, signer).Return(entry, nil)

	svc := newService(t, rpc, authorizer, source)
	_, err := svc.Invoke(context.Background(), invocation.Request{ContractID: contract, Method: "mint"}, []signing.SignerDescriptor{signer})

	var simErr *invocation.SimulationError
	require.True(t, errors.As(err, &simErr))
	assert.Equal(t, invocation.SecondPass, simErr.Pass)
	assert.True(t, errors.Is(err, invocation.ErrSimulationFailed))
}

func TestInvokePropagatesSigningErrors(t *testing.T) {
	source := keypair.MustRandom()
	user := keypair.MustRandom()
	contract := contractID(t)

	entry := addressEntry(t, user.Address(), contract)
	rpc := &fakeRPC{
		source:    source.Address(),
		responses: []*soroban.SimulateTransactionResponse{simulation(t, 5000, entry)},
	}
	signer := signing.NewKeypairSigner(user.Address(), user.Seed())
	authorizer := new(MockAuthorizer)
	authorizer.On("Authorize", mock.Anything, mock.Anything, contract, signer).
		Return(xdr.SorobanAuthorizationEntry{}, errors.Wrap(signing.ErrInvalidSignerMethod, "bad"))

	svc := newService(t, rpc, authorizer, source)
	_, err := svc.Invoke(context.Background(), invocation.Request{ContractID: contract, Method: "mint"}, []signing.SignerDescriptor{signer})
	assert.True(t, errors.Is(err, signing.ErrInvalidSignerMethod))
	assert.False(t, errors.Is(err, invocation.ErrSimulationFailed))
	assert.Len(t, rpc.simulated, 1)
}

func TestInvokeRejectsBadContract(t *testing.T) {
	source := keypair.MustRandom()
	svc := newService(t, &fakeRPC{source: source.Address()}, new(MockAuthorizer), source)

	_, err := svc.Invoke(context.Background(), invocation.Request{ContractID: "nope", Method: "mint"}, nil)
	assert.Error(t, err)
}
