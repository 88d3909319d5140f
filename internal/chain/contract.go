package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"reflect"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"sei-gateway/go-backend/internal/domains/contracts"
)

func (s *Service) ReadContract(ctx context.Context, network string, req contracts.ContractRead) (contracts.ContractResult, error) {
	addr, err := ParseAddress("contractAddress", req.Address)
	if err != nil {
		return contracts.ContractResult{}, err
	}
	parsed, err := parseContractABI(req.ABI)
	if err != nil {
		return contracts.ContractResult{}, err
	}
	method, ok := parsed.Methods[req.FunctionName]
	if !ok {
		return contracts.ContractResult{}, contracts.NewError(contracts.KindInvalidParams,
			fmt.Sprintf("function %q not found in abi", req.FunctionName))
	}
	args, err := convertArgs(method.Inputs, req.Args)
	if err != nil {
		return contracts.ContractResult{}, err
	}
	ctx, cancel, c, n, err := s.withClient(ctx, network)
	defer cancel()
	if err != nil {
		return contracts.ContractResult{}, err
	}
	values, err := callView(ctx, c, addr, parsed, method.Name, args...)
	if err != nil {
		return contracts.ContractResult{}, err
	}
	outputs := make([]any, 0, len(values))
	for _, v := range values {
		outputs = append(outputs, normalizeOutput(v))
	}
	return contracts.ContractResult{
		Network:      n.Name,
		Address:      addr.Hex(),
		FunctionName: method.Name,
		Outputs:      outputs,
	}, nil
}

// parseContractABI accepts the ABI either as a JSON array or as a string
// holding one.
func parseContractABI(raw json.RawMessage) (abi.ABI, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return abi.ABI{}, contracts.NewError(contracts.KindInvalidParams, "abi is required")
	}
	if trimmed[0] == '"' {
		var text string
		if err := json.Unmarshal(trimmed, &text); err != nil {
			return abi.ABI{}, contracts.NewError(contracts.KindInvalidParams, "abi must be a JSON array")
		}
		trimmed = []byte(text)
	}
	parsed, err := abi.JSON(bytes.NewReader(trimmed))
	if err != nil {
		return abi.ABI{}, contracts.WrapError(contracts.KindInvalidParams, fmt.Errorf("parse abi: %w", err))
	}
	return parsed, nil
}

func convertArgs(inputs abi.Arguments, raw []json.RawMessage) ([]any, error) {
	if len(raw) != len(inputs) {
		return nil, contracts.NewError(contracts.KindInvalidParams,
			fmt.Sprintf("function expects %d args, got %d", len(inputs), len(raw)))
	}
	out := make([]any, 0, len(inputs))
	for i, in := range inputs {
		v, err := convertArg(in.Type, raw[i])
		if err != nil {
			return nil, contracts.NewError(contracts.KindInvalidParams, fmt.Sprintf("arg %d (%s): %v", i, in.Type.String(), err))
		}
		out = append(out, v)
	}
	return out, nil
}

// convertArg turns one JSON argument into the Go value the abi packer
// expects for t.
func convertArg(t abi.Type, raw json.RawMessage) (any, error) {
	switch t.T {
	case abi.AddressTy:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("expected address string")
		}
		addr, err := ParseAddress("address", s)
		if err != nil {
			return nil, err
		}
		return addr, nil
	case abi.BoolTy:
		var b bool
		if err := json.Unmarshal(raw, &b); err != nil {
			return nil, fmt.Errorf("expected boolean")
		}
		return b, nil
	case abi.StringTy:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("expected string")
		}
		return s, nil
	case abi.UintTy, abi.IntTy:
		return convertInteger(t, raw)
	case abi.BytesTy:
		return decodeHexArg(raw)
	case abi.FixedBytesTy:
		b, err := decodeHexArg(raw)
		if err != nil {
			return nil, err
		}
		if len(b) != t.Size {
			return nil, fmt.Errorf("expected %d bytes, got %d", t.Size, len(b))
		}
		arr := reflect.New(t.GetType()).Elem()
		for i, c := range b {
			arr.Index(i).SetUint(uint64(c))
		}
		return arr.Interface(), nil
	case abi.SliceTy, abi.ArrayTy:
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, fmt.Errorf("expected array")
		}
		var out reflect.Value
		if t.T == abi.ArrayTy {
			if len(items) != t.Size {
				return nil, fmt.Errorf("expected %d elements, got %d", t.Size, len(items))
			}
			out = reflect.New(t.GetType()).Elem()
		} else {
			out = reflect.MakeSlice(t.GetType(), len(items), len(items))
		}
		for i, item := range items {
			v, err := convertArg(*t.Elem, item)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			out.Index(i).Set(reflect.ValueOf(v))
		}
		return out.Interface(), nil
	case abi.TupleTy:
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, fmt.Errorf("expected tuple as array")
		}
		if len(items) != len(t.TupleElems) {
			return nil, fmt.Errorf("expected %d tuple fields, got %d", len(t.TupleElems), len(items))
		}
		out := reflect.New(t.GetType()).Elem()
		for i, elem := range t.TupleElems {
			v, err := convertArg(*elem, items[i])
			if err != nil {
				return nil, fmt.Errorf("field %d: %w", i, err)
			}
			out.Field(i).Set(reflect.ValueOf(v))
		}
		return out.Interface(), nil
	default:
		return nil, fmt.Errorf("unsupported type")
	}
}

func convertInteger(t abi.Type, raw json.RawMessage) (any, error) {
	v, err := parseInteger(raw)
	if err != nil {
		return nil, err
	}
	signed := t.T == abi.IntTy
	if !integerFits(v, t.Size, signed) {
		return nil, fmt.Errorf("value %s out of range", v)
	}
	goType := t.GetType()
	switch goType.Kind() {
	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return reflect.ValueOf(v.Uint64()).Convert(goType).Interface(), nil
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return reflect.ValueOf(v.Int64()).Convert(goType).Interface(), nil
	default:
		return v, nil
	}
}

func integerFits(v *big.Int, bits int, signed bool) bool {
	if !signed {
		return v.Sign() >= 0 && v.BitLen() <= bits
	}
	limit := new(big.Int).Lsh(big.NewInt(1), uint(bits-1))
	if v.Sign() >= 0 {
		return v.Cmp(limit) < 0
	}
	return new(big.Int).Neg(v).Cmp(limit) <= 0
}

// parseInteger accepts a JSON number, a decimal string or a 0x hex string.
func parseInteger(raw json.RawMessage) (*big.Int, error) {
	text := strings.TrimSpace(string(raw))
	if strings.HasPrefix(text, `"`) {
		if err := json.Unmarshal(raw, &text); err != nil {
			return nil, fmt.Errorf("expected integer")
		}
		text = strings.TrimSpace(text)
	}
	neg := strings.HasPrefix(text, "-")
	digits := strings.TrimPrefix(text, "-")
	base := 10
	if strings.HasPrefix(digits, "0x") || strings.HasPrefix(digits, "0X") {
		base = 16
		digits = digits[2:]
	}
	v, ok := new(big.Int).SetString(digits, base)
	if !ok || digits == "" {
		return nil, fmt.Errorf("expected integer, got %s", text)
	}
	if neg {
		v.Neg(v)
	}
	return v, nil
}

func decodeHexArg(raw json.RawMessage) ([]byte, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("expected 0x-prefixed hex string")
	}
	b, err := hexutil.Decode(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("expected 0x-prefixed hex string")
	}
	return b, nil
}

// normalizeOutput renders decoded abi values in JSON-friendly form:
// addresses in checksum hex, byte strings as 0x hex, tuples as objects.
func normalizeOutput(v any) any {
	switch x := v.(type) {
	case common.Address:
		return x.Hex()
	case common.Hash:
		return x.Hex()
	case []byte:
		return hexutil.Encode(x)
	case *big.Int, string, bool:
		return x
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			b := make([]byte, rv.Len())
			for i := range b {
				b[i] = byte(rv.Index(i).Uint())
			}
			return hexutil.Encode(b)
		}
		return normalizeList(rv)
	case reflect.Slice:
		return normalizeList(rv)
	case reflect.Struct:
		out := make(map[string]any, rv.NumField())
		rt := rv.Type()
		for i := 0; i < rv.NumField(); i++ {
			f := rt.Field(i)
			if !f.IsExported() {
				continue
			}
			name := f.Name
			if tag, _, _ := strings.Cut(f.Tag.Get("json"), ","); tag != "" {
				name = tag
			}
			out[name] = normalizeOutput(rv.Field(i).Interface())
		}
		return out
	}
	return v
}

func normalizeList(rv reflect.Value) []any {
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = normalizeOutput(rv.Index(i).Interface())
	}
	return out
}
