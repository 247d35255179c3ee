package contract

import (
	"encoding/hex"
	"fmt"
	"math"
	"math/big"
	"reflect"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

var bigIntType = reflect.TypeOf((*big.Int)(nil))

// CoerceArgs converts loosely typed values (ints, strings, hashes, slices)
// into the Go types accounts/abi expects for args.
func CoerceArgs(args abi.Arguments, values []interface{}) ([]interface{}, error) {
	if len(values) != len(args) {
		return nil, fmt.Errorf("argument count mismatch: got %d, want %d", len(values), len(args))
	}
	out := make([]interface{}, len(values))
	for i, arg := range args {
		v, err := Coerce(arg.Type, values[i])
		if err != nil {
			name := arg.Name
			if name == "" {
				name = fmt.Sprintf("#%d", i)
			}
			return nil, fmt.Errorf("argument %s (%s): %w", name, arg.Type.String(), err)
		}
		out[i] = v
	}
	return out, nil
}

// Coerce converts v to the Go type of t.
func Coerce(t abi.Type, v interface{}) (interface{}, error) {
	target := t.GetType()
	if v != nil && reflect.TypeOf(v) == target {
		return v, nil
	}

	switch t.T {
	case abi.AddressTy:
		return toAddress(v)
	case abi.IntTy, abi.UintTy:
		n, err := toBig(v)
		if err != nil {
			return nil, err
		}
		return fitInt(n, t, target)
	case abi.BoolTy:
		switch b := v.(type) {
		case bool:
			return b, nil
		case string:
			switch strings.ToLower(b) {
			case "true":
				return true, nil
			case "false":
				return false, nil
			}
		}
	case abi.StringTy:
		if s, ok := v.(string); ok {
			return s, nil
		}
	case abi.BytesTy:
		return toBytes(v)
	case abi.FixedBytesTy:
		raw, err := toBytes(v)
		if err != nil {
			return nil, err
		}
		if len(raw) != t.Size {
			return nil, fmt.Errorf("want %d bytes, got %d", t.Size, len(raw))
		}
		arr := reflect.New(target).Elem()
		reflect.Copy(arr, reflect.ValueOf(raw))
		return arr.Interface(), nil
	case abi.SliceTy, abi.ArrayTy:
		rv := reflect.ValueOf(v)
		if v == nil || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
			return nil, fmt.Errorf("want a list, got %T", v)
		}
		if t.T == abi.ArrayTy && rv.Len() != t.Size {
			return nil, fmt.Errorf("want %d elements, got %d", t.Size, rv.Len())
		}
		var out reflect.Value
		if t.T == abi.ArrayTy {
			out = reflect.New(target).Elem()
		} else {
			out = reflect.MakeSlice(target, rv.Len(), rv.Len())
		}
		for i := 0; i < rv.Len(); i++ {
			elem, err := Coerce(*t.Elem, rv.Index(i).Interface())
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			out.Index(i).Set(reflect.ValueOf(elem))
		}
		return out.Interface(), nil
	}
	return nil, fmt.Errorf("cannot use %T as %s", v, t.String())
}

func toAddress(v interface{}) (common.Address, error) {
	switch a := v.(type) {
	case common.Address:
		return a, nil
	case *common.Address:
		if a != nil {
			return *a, nil
		}
	case string:
		if common.IsHexAddress(a) {
			return common.HexToAddress(a), nil
		}
		return common.Address{}, fmt.Errorf("invalid address %q", a)
	}
	return common.Address{}, fmt.Errorf("cannot use %T as address", v)
}

// ToBig converts Go and YAML numbers, decimal or 0x strings and hashes to a
// big integer.
func ToBig(v interface{}) (*big.Int, error) {
	return toBig(v)
}

func toBig(v interface{}) (*big.Int, error) {
	switch n := v.(type) {
	case *big.Int:
		if n == nil {
			return nil, fmt.Errorf("nil integer")
		}
		return new(big.Int).Set(n), nil
	case big.Int:
		return new(big.Int).Set(&n), nil
	case int:
		return big.NewInt(int64(n)), nil
	case int8:
		return big.NewInt(int64(n)), nil
	case int16:
		return big.NewInt(int64(n)), nil
	case int32:
		return big.NewInt(int64(n)), nil
	case int64:
		return big.NewInt(n), nil
	case uint:
		return new(big.Int).SetUint64(uint64(n)), nil
	case uint8:
		return new(big.Int).SetUint64(uint64(n)), nil
	case uint16:
		return new(big.Int).SetUint64(uint64(n)), nil
	case uint32:
		return new(big.Int).SetUint64(uint64(n)), nil
	case uint64:
		return new(big.Int).SetUint64(n), nil
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) {
			return nil, fmt.Errorf("non-integer number %v", n)
		}
		b, _ := big.NewFloat(n).Int(nil)
		return b, nil
	case string:
		b, ok := new(big.Int).SetString(strings.TrimSpace(n), 0)
		if !ok {
			return nil, fmt.Errorf("invalid integer %q", n)
		}
		return b, nil
	case common.Hash:
		return n.Big(), nil
	case [32]byte:
		return new(big.Int).SetBytes(n[:]), nil
	}
	return nil, fmt.Errorf("cannot use %T as integer", v)
}

// fitInt range-checks n against t and converts it to the ABI's Go type.
func fitInt(n *big.Int, t abi.Type, target reflect.Type) (interface{}, error) {
	if t.T == abi.UintTy && n.Sign() < 0 {
		return nil, fmt.Errorf("negative value %s for %s", n, t.String())
	}
	bits := n.BitLen()
	if t.T == abi.IntTy {
		// two's complement: the minimum is -2^(size-1)
		if n.Sign() < 0 {
			bits = new(big.Int).Add(n, big.NewInt(1)).BitLen()
		}
		bits++
	}
	if bits > t.Size {
		return nil, fmt.Errorf("value %s overflows %s", n, t.String())
	}
	if target == bigIntType {
		return n, nil
	}
	out := reflect.New(target).Elem()
	switch out.Kind() {
	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		out.SetUint(n.Uint64())
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		out.SetInt(n.Int64())
	default:
		return nil, fmt.Errorf("unsupported integer type %s", target)
	}
	return out.Interface(), nil
}

func toBytes(v interface{}) ([]byte, error) {
	switch b := v.(type) {
	case []byte:
		return b, nil
	case common.Hash:
		return b.Bytes(), nil
	case [32]byte:
		return b[:], nil
	case string:
		if strings.HasPrefix(b, "0x") || strings.HasPrefix(b, "0X") {
			raw, err := hex.DecodeString(b[2:])
			if err != nil {
				return nil, fmt.Errorf("invalid hex %q: %w", b, err)
			}
			return raw, nil
		}
		return []byte(b), nil
	}
	return nil, fmt.Errorf("cannot use %T as bytes", v)
}
