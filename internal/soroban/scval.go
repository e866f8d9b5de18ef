package soroban

import (
	"math/big"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stellar/go/xdr"
)

// MapEntry 有序 Map 中的一项
type MapEntry struct {
	Key string
	Val xdr.ScVal
}

// Symbol 构造 Symbol 值
func Symbol(s string) xdr.ScVal {
	sym := xdr.ScSymbol(s)
	return xdr.ScVal{Type: xdr.ScValTypeScvSymbol, Sym: &sym}
}

// String 构造 String 值
func String(s string) xdr.ScVal {
	str := xdr.ScString(s)
	return xdr.ScVal{Type: xdr.ScValTypeScvString, Str: &str}
}

// Bytes 构造 Bytes 值
func Bytes(b []byte) xdr.ScVal {
	v := xdr.ScBytes(append([]byte(nil), b...))
	return xdr.ScVal{Type: xdr.ScValTypeScvBytes, Bytes: &v}
}

// Address 构造 Address 值
func Address(address string) (xdr.ScVal, error) {
	addr, err := ParseAddress(address)
	if err != nil {
		return xdr.ScVal{}, err
	}
	return xdr.ScVal{Type: xdr.ScValTypeScvAddress, Address: &addr}, nil
}

// Map 按给定顺序构造 Symbol 键的 Map
func Map(entries ...MapEntry) xdr.ScVal {
	m := make(xdr.ScMap, 0, len(entries))
	for _, e := range entries {
		m = append(m, xdr.ScMapEntry{Key: Symbol(e.Key), Val: e.Val})
	}
	mp := &m
	return xdr.ScVal{Type: xdr.ScValTypeScvMap, Map: &mp}
}

// Vec 构造 Vec 值
func Vec(items ...xdr.ScVal) xdr.ScVal {
	v := xdr.ScVec(items)
	vp := &v
	return xdr.ScVal{Type: xdr.ScValTypeScvVec, Vec: &vp}
}

// MapEntries 解析 Symbol 键的 Map，保持原有顺序
func MapEntries(val xdr.ScVal) ([]MapEntry, error) {
	m, ok := val.GetMap()
	if !ok || m == nil {
		return nil, errors.Errorf("expected map, got %s", val.Type)
	}

	entries := make([]MapEntry, 0, len(*m))
	for i, e := range *m {
		sym, ok := e.Key.GetSym()
		if !ok {
			return nil, errors.Errorf("map key %d is %s, not a symbol", i, e.Key.Type)
		}
		entries = append(entries, MapEntry{Key: string(sym), Val: e.Val})
	}
	return entries, nil
}

// VecItems 解析 Vec
func VecItems(val xdr.ScVal) ([]xdr.ScVal, error) {
	v, ok := val.GetVec()
	if !ok || v == nil {
		return nil, errors.Errorf("expected vec, got %s", val.Type)
	}
	return *v, nil
}

// BytesValue 解析 Bytes
func BytesValue(val xdr.ScVal) ([]byte, error) {
	b, ok := val.GetBytes()
	if !ok {
		return nil, errors.Errorf("expected bytes, got %s", val.Type)
	}
	return b, nil
}

// IntegerString 将整型返回值（u32/i32/u64/i64/u128/i128）渲染为十进制字符串
func IntegerString(val xdr.ScVal) (string, error) {
	switch val.Type {
	case xdr.ScValTypeScvU32:
		return decimal.NewFromInt(int64(*val.U32)).String(), nil
	case xdr.ScValTypeScvI32:
		return decimal.NewFromInt(int64(*val.I32)).String(), nil
	case xdr.ScValTypeScvU64:
		return new(big.Int).SetUint64(uint64(*val.U64)).String(), nil
	case xdr.ScValTypeScvI64:
		return decimal.NewFromInt(int64(*val.I64)).String(), nil
	case xdr.ScValTypeScvU128:
		parts := val.MustU128()
		hi := new(big.Int).SetUint64(uint64(parts.Hi))
		lo := new(big.Int).SetUint64(uint64(parts.Lo))
		return decimal.NewFromBigInt(hi.Lsh(hi, 64).Or(hi, lo), 0).String(), nil
	case xdr.ScValTypeScvI128:
		parts := val.MustI128()
		hi := big.NewInt(int64(parts.Hi))
		lo := new(big.Int).SetUint64(uint64(parts.Lo))
		return decimal.NewFromBigInt(hi.Lsh(hi, 64).Add(hi, lo), 0).String(), nil
	default:
		return "", errors.Errorf("unsupported integer type %s", val.Type)
	}
}
