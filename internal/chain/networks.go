package chain

import (
	"sort"
	"strings"
)

// Network is one EVM endpoint the gateway can query.
type Network struct {
	Name     string
	ChainID  int64
	RPCURL   string
	Symbol   string
	Explorer string
}

// DefaultNetworks returns the public Sei EVM endpoints.
func DefaultNetworks() []Network {
	return []Network{
		{Name: "sei", ChainID: 1329, RPCURL: "https://evm-rpc.sei-apis.com", Symbol: "SEI", Explorer: "https://seitrace.com"},
		{Name: "sei-testnet", ChainID: 1328, RPCURL: "https://evm-rpc-testnet.sei-apis.com", Symbol: "SEI", Explorer: "https://seitrace.com/?chain=atlantic-2"},
		{Name: "sei-devnet", ChainID: 713715, RPCURL: "https://evm-rpc-arctic-1.sei-apis.com", Symbol: "SEI", Explorer: "https://seitrace.com/?chain=arctic-1"},
	}
}

func normalizeNetworkName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func indexNetworks(list []Network) (map[string]Network, []string) {
	byName := make(map[string]Network, len(list))
	for _, n := range list {
		key := normalizeNetworkName(n.Name)
		if key == "" || strings.TrimSpace(n.RPCURL) == "" {
			continue
		}
		n.Name = key
		if n.Symbol == "" {
			n.Symbol = "SEI"
		}
		byName[key] = n
	}
	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return byName, names
}
