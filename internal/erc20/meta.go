package erc20

import (
	"bytes"
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// Caller executes read-only contract calls.
type Caller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg) ([]byte, error)
}

// Meta is the on-chain ERC20 metadata of a token.
type Meta struct {
	Address  string
	Symbol   string
	Name     string
	Decimals uint8
}

// FetchMeta reads decimals, symbol, and name. Decimals are required; symbol and name
// fall back to the bytes32 ABI and are left empty when both encodings fail.
func FetchMeta(ctx context.Context, caller Caller, token common.Address) (Meta, error) {
	meta := Meta{Address: token.Hex()}
	if caller == nil {
		return meta, fmt.Errorf("caller is nil")
	}

	stringABI, err := stringMetaABI.get()
	if err != nil {
		return meta, fmt.Errorf("parse erc20 abi: %w", err)
	}
	bytes32ABI, err := bytes32MetaABI.get()
	if err != nil {
		return meta, fmt.Errorf("parse erc20 bytes32 abi: %w", err)
	}

	values, err := call(ctx, caller, token, stringABI, "decimals")
	if err != nil {
		return meta, err
	}
	meta.Decimals, err = asUint8(values[0])
	if err != nil {
		return meta, fmt.Errorf("decimals: %w", err)
	}

	meta.Symbol = readText(ctx, caller, token, stringABI, bytes32ABI, "symbol")
	meta.Name = readText(ctx, caller, token, stringABI, bytes32ABI, "name")
	return meta, nil
}

func readText(ctx context.Context, caller Caller, token common.Address, stringABI, bytes32ABI abi.ABI, method string) string {
	if values, err := call(ctx, caller, token, stringABI, method); err == nil {
		if s, ok := values[0].(string); ok {
			return s
		}
	}
	if values, err := call(ctx, caller, token, bytes32ABI, method); err == nil {
		if s, ok := bytes32ToString(values[0]); ok {
			return s
		}
	}
	return ""
}

func call(ctx context.Context, caller Caller, token common.Address, parsed abi.ABI, method string) ([]interface{}, error) {
	data, err := parsed.Pack(method)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	resp, err := caller.CallContract(ctx, ethereum.CallMsg{To: &token, Data: data})
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	values, err := parsed.Unpack(method, resp)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("%s returned no values", method)
	}
	return values, nil
}

func bytes32ToString(value interface{}) (string, bool) {
	switch v := value.(type) {
	case [32]byte:
		return string(bytes.TrimRight(v[:], "\x00")), true
	case []byte:
		return string(bytes.TrimRight(v, "\x00")), true
	default:
		return "", false
	}
}

func asUint8(value interface{}) (uint8, error) {
	switch v := value.(type) {
	case uint8:
		return v, nil
	case *big.Int:
		if !v.IsUint64() || v.Uint64() > 255 {
			return 0, fmt.Errorf("value %s overflows uint8", v)
		}
		return uint8(v.Uint64()), nil
	default:
		return 0, fmt.Errorf("unsupported uint8 type %T", value)
	}
}
