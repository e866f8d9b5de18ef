package soroban

import (
	"github.com/pkg/errors"
	"github.com/stellar/go/strkey"
	"github.com/stellar/go/xdr"
)

// ParseAddress 将 G.../C... 地址解析为 ScAddress
func ParseAddress(address string) (xdr.ScAddress, error) {
	if address == "" {
		return xdr.ScAddress{}, errors.New("address is required")
	}

	switch address[0] {
	case 'G':
		accountID, err := xdr.AddressToAccountId(address)
		if err != nil {
			return xdr.ScAddress{}, errors.Wrapf(err, "invalid account address %s", address)
		}
		return xdr.ScAddress{
			Type:      xdr.ScAddressTypeScAddressTypeAccount,
			AccountId: &accountID,
		}, nil
	case 'C':
		raw, err := strkey.Decode(strkey.VersionByteContract, address)
		if err != nil {
			return xdr.ScAddress{}, errors.Wrapf(err, "invalid contract address %s", address)
		}
		var contractID xdr.Hash
		copy(contractID[:], raw)
		return xdr.ScAddress{
			Type:       xdr.ScAddressTypeScAddressTypeContract,
			ContractId: &contractID,
		}, nil
	default:
		return xdr.ScAddress{}, errors.Errorf("unsupported address %s", address)
	}
}

// IsAccountAddress 是否为 G... 账户地址
func IsAccountAddress(address string) bool {
	_, err := strkey.Decode(strkey.VersionByteAccountID, address)
	return err == nil
}

// EntryAddress 返回鉴权条目要求签名的地址；source-account 凭证返回 ok=false
func EntryAddress(entry xdr.SorobanAuthorizationEntry) (string, bool, error) {
	if entry.Credentials.Type != xdr.SorobanCredentialsTypeSorobanCredentialsAddress || entry.Credentials.Address == nil {
		return "", false, nil
	}
	address, err := entry.Credentials.Address.Address.String()
	if err != nil {
		return "", false, errors.Wrap(err, "failed to encode credential address")
	}
	return address, true, nil
}

// InvokedContract 返回条目根调用的合约地址（非合约调用返回空串）
func InvokedContract(entry xdr.SorobanAuthorizationEntry) (string, error) {
	fn := entry.RootInvocation.Function
	if fn.Type != xdr.SorobanAuthorizedFunctionTypeSorobanAuthorizedFunctionTypeContractFn || fn.ContractFn == nil {
		return "", nil
	}
	address, err := fn.ContractFn.ContractAddress.String()
	if err != nil {
		return "", errors.Wrap(err, "failed to encode invoked contract address")
	}
	return address, nil
}

// ContractInstanceKey 合约实例数据的账本键
func ContractInstanceKey(contractID string) (xdr.LedgerKey, error) {
	address, err := ParseAddress(contractID)
	if err != nil {
		return xdr.LedgerKey{}, err
	}
	if address.Type != xdr.ScAddressTypeScAddressTypeContract {
		return xdr.LedgerKey{}, errors.Errorf("%s is not a contract address", contractID)
	}

	return xdr.LedgerKey{
		Type: xdr.LedgerEntryTypeContractData,
		ContractData: &xdr.LedgerKeyContractData{
			Contract:   address,
			Key:        xdr.ScVal{Type: xdr.ScValTypeScvLedgerKeyContractInstance},
			Durability: xdr.ContractDataDurabilityPersistent,
		},
	}, nil
}
