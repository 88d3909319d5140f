package app

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"sei-gateway/go-backend/internal/domains/contracts"
)

// BigParam accepts an unsigned integer given as a JSON number, a decimal
// string or a 0x-prefixed hex string.
type BigParam struct {
	Int *big.Int
}

func (b *BigParam) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		b.Int = nil
		return nil
	}
	raw = strings.Trim(raw, `"`)
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fmt.Errorf("empty integer")
	}
	base := 10
	digits := raw
	if strings.HasPrefix(raw, "0x") || strings.HasPrefix(raw, "0X") {
		base = 16
		digits = raw[2:]
	}
	v, ok := new(big.Int).SetString(digits, base)
	if !ok || v.Sign() < 0 {
		return fmt.Errorf("invalid unsigned integer %q", raw)
	}
	b.Int = v
	return nil
}

type networkParams struct {
	Network string `json:"network"`
}

// decodeParams fills dst from a params object. Missing or null params
// leave dst at its zero value.
func decodeParams(raw json.RawMessage, dst any) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	if trimmed[0] != '{' {
		return contracts.NewError(contracts.KindInvalidParams, "params must be an object")
	}
	if err := json.Unmarshal(trimmed, dst); err != nil {
		return &contracts.Error{Kind: contracts.KindInvalidParams, Message: "invalid params", Err: err}
	}
	return nil
}

func resolveNetwork(raw json.RawMessage, fallback string) (string, error) {
	var p networkParams
	if err := decodeParams(raw, &p); err != nil {
		return "", err
	}
	network := strings.ToLower(strings.TrimSpace(p.Network))
	if network == "" {
		return fallback, nil
	}
	return network, nil
}

func required(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return contracts.NewError(contracts.KindInvalidParams, name+" is required")
	}
	return nil
}

func requiredBig(name string, value BigParam) error {
	if value.Int == nil {
		return contracts.NewError(contracts.KindInvalidParams, name+" is required")
	}
	return nil
}

type addressParams struct {
	Address string `json:"address"`
}

type blockNumberParams struct {
	BlockNumber BigParam `json:"blockNumber"`
}

type blockHashParams struct {
	BlockHash string `json:"blockHash"`
}

type txHashParams struct {
	TxHash string `json:"txHash"`
}

type estimateGasParams struct {
	From  string   `json:"from"`
	To    string   `json:"to"`
	Value BigParam `json:"value"`
	Data  string   `json:"data"`
}

type tokenParams struct {
	TokenAddress string `json:"tokenAddress"`
}

type tokenOwnerParams struct {
	TokenAddress string `json:"tokenAddress"`
	OwnerAddress string `json:"ownerAddress"`
}

type tokenIDParams struct {
	TokenAddress string   `json:"tokenAddress"`
	TokenID      BigParam `json:"tokenId"`
}

type tokenIDOwnerParams struct {
	TokenAddress string   `json:"tokenAddress"`
	TokenID      BigParam `json:"tokenId"`
	OwnerAddress string   `json:"ownerAddress"`
}

type readContractParams struct {
	ContractAddress string            `json:"contractAddress"`
	ABI             json.RawMessage   `json:"abi"`
	FunctionName    string            `json:"functionName"`
	Args            []json.RawMessage `json:"args"`
}
