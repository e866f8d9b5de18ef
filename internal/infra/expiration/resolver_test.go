package expiration_test

import (
	"context"
	"testing"

	"github.com/SafeMPC/mint-service/internal/infra/expiration"
	"github.com/SafeMPC/mint-service/internal/soroban"
	"github.com/pkg/errors"
	"github.com/stellar/go/strkey"
	"github.com/stellar/go/xdr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockLedgerEntryReader struct {
	mock.Mock
}

func (m *MockLedgerEntryReader) GetLedgerEntries(ctx context.Context, keys ...xdr.LedgerKey) (*soroban.GetLedgerEntriesResponse, error) {
	args := m.Called(ctx, keys)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*soroban.GetLedgerEntriesResponse), args.Error(1)
}

func testContractID(t *testing.T) string {
	t.Helper()
	id, err := strkey.Encode(strkey.VersionByteContract, make([]byte, 32))
	require.NoError(t, err)
	return id
}

func TestResolve(t *testing.T) {
	contractID := testContractID(t)
	live := uint32(123456)

	reader := new(MockLedgerEntryReader)
	reader.On("GetLedgerEntries", mock.Anything, mock.MatchedBy(func(keys []xdr.LedgerKey) bool {
		return len(keys) == 1 &&
			keys[0].Type == xdr.LedgerEntryTypeContractData &&
			keys[0].ContractData.Key.Type == xdr.ScValTypeScvLedgerKeyContractInstance &&
			keys[0].ContractData.Durability == xdr.ContractDataDurabilityPersistent
	})).Return(&soroban.GetLedgerEntriesResponse{
		Entries: []soroban.LedgerEntryResult{{LiveUntilLedgerSeq: &live}},
	}, nil).Once()

	got, err := expiration.NewResolver(reader).Resolve(context.Background(), contractID)
	require.NoError(t, err)
	assert.Equal(t, live, got)
	reader.AssertExpectations(t)
}

func TestResolveNotFound(t *testing.T) {
	contractID := testContractID(t)

	tests := []struct {
		name string
		resp *soroban.GetLedgerEntriesResponse
	}{
		{"no entries", &soroban.GetLedgerEntriesResponse{}},
		{"no live-until", &soroban.GetLedgerEntriesResponse{Entries: []soroban.LedgerEntryResult{{XDR: "AAAA"}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := new(MockLedgerEntryReader)
			reader.On("GetLedgerEntries", mock.Anything, mock.Anything).Return(tt.resp, nil)

			_, err := expiration.NewResolver(reader).Resolve(context.Background(), contractID)
			assert.True(t, errors.Is(err, expiration.ErrLedgerEntryNotFound))
		})
	}
}

func TestResolveRPCError(t *testing.T) {
	reader := new(MockLedgerEntryReader)
	reader.On("GetLedgerEntries", mock.Anything, mock.Anything).Return(nil, errors.New("connection refused"))

	_, err := expiration.NewResolver(reader).Resolve(context.Background(), testContractID(t))
	require.Error(t, err)
	assert.False(t, errors.Is(err, expiration.ErrLedgerEntryNotFound))
}

func TestResolveMalformedAddress(t *testing.T) {
	reader := new(MockLedgerEntryReader)

	_, err := expiration.NewResolver(reader).Resolve(context.Background(), "CNOTACONTRACT")
	require.Error(t, err)
	reader.AssertNotCalled(t, "GetLedgerEntries", mock.Anything, mock.Anything)
}
