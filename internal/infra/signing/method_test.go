package signing

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stellar/go/keypair"
	"github.com/stellar/go/network"
	"github.com/stellar/go/xdr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type unknownMethod struct{}

func (unknownMethod) signerMethod() {}

func TestSignUnknownMethod(t *testing.T) {
	kp := keypair.MustRandom()
	accountID := xdr.MustAddress(kp.Address())

	entry := xdr.SorobanAuthorizationEntry{
		Credentials: xdr.SorobanCredentials{
			Type: xdr.SorobanCredentialsTypeSorobanCredentialsAddress,
			Address: &xdr.SorobanAddressCredentials{
				Address: xdr.ScAddress{
					Type:      xdr.ScAddressTypeScAddressTypeAccount,
					AccountId: &accountID,
				},
				Signature: xdr.ScVal{Type: xdr.ScValTypeScvVoid},
			},
		},
	}

	svc := NewService(network.TestNetworkPassphrase, nil)
	_, err := svc.Sign(entry, 1, SignerDescriptor{AddressID: kp.Address(), Method: unknownMethod{}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidSignerMethod))
}
