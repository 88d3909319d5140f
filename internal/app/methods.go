package app

import (
	"context"
	"encoding/json"
	"sort"

	"sei-gateway/go-backend/internal/domains/contracts"
)

type callFunc func(ctx context.Context, chain contracts.ChainService, network string, raw json.RawMessage) (any, error)

type paramSpec struct {
	Name        string
	Type        string
	Required    bool
	Description string
}

type method struct {
	Name        string
	Description string
	Params      []paramSpec
	call        callFunc
}

// withParams adapts a typed handler to the table signature.
func withParams[P any](call func(ctx context.Context, chain contracts.ChainService, network string, p P) (any, error)) callFunc {
	return func(ctx context.Context, chain contracts.ChainService, network string, raw json.RawMessage) (any, error) {
		var p P
		if err := decodeParams(raw, &p); err != nil {
			return nil, err
		}
		return call(ctx, chain, network, p)
	}
}

func withoutParams(call func(ctx context.Context, chain contracts.ChainService, network string) (any, error)) callFunc {
	return func(ctx context.Context, chain contracts.ChainService, network string, raw json.RawMessage) (any, error) {
		return call(ctx, chain, network)
	}
}

var (
	networkSpec = paramSpec{Name: "network", Type: "string", Description: "network name, defaults to sei"}
	addressSpec = paramSpec{Name: "address", Type: "string", Required: true, Description: "0x-prefixed account address"}
	tokenSpec   = paramSpec{Name: "tokenAddress", Type: "string", Required: true, Description: "token contract address"}
	ownerSpec   = paramSpec{Name: "ownerAddress", Type: "string", Required: true, Description: "holder address"}
	tokenIDSpec = paramSpec{Name: "tokenId", Type: "string", Required: true, Description: "token id as decimal or hex string"}
)

func defaultMethods() map[string]method {
	list := []method{
		{
			Name:        "get_supported_networks",
			Description: "List the networks this gateway can query.",
			call: withoutParams(func(_ context.Context, chain contracts.ChainService, _ string) (any, error) {
				networks := chain.SupportedNetworks()
				return map[string]any{"networks": networks, "count": len(networks)}, nil
			}),
		},
		{
			Name:        "get_balance",
			Description: "Native token balance of an address.",
			Params:      []paramSpec{addressSpec, networkSpec},
			call: withParams(func(ctx context.Context, chain contracts.ChainService, network string, p addressParams) (any, error) {
				if err := required("address", p.Address); err != nil {
					return nil, err
				}
				return chain.GetBalance(ctx, network, p.Address)
			}),
		},
		{
			Name:        "get_latest_block",
			Description: "Most recent block of a network.",
			Params:      []paramSpec{networkSpec},
			call: withoutParams(func(ctx context.Context, chain contracts.ChainService, network string) (any, error) {
				return chain.GetLatestBlock(ctx, network)
			}),
		},
		{
			Name:        "get_block_by_number",
			Description: "Block at the given height.",
			Params:      []paramSpec{{Name: "blockNumber", Type: "string", Required: true, Description: "block height"}, networkSpec},
			call: withParams(func(ctx context.Context, chain contracts.ChainService, network string, p blockNumberParams) (any, error) {
				if err := requiredBig("blockNumber", p.BlockNumber); err != nil {
					return nil, err
				}
				return chain.GetBlockByNumber(ctx, network, p.BlockNumber.Int)
			}),
		},
		{
			Name:        "get_block_by_hash",
			Description: "Block with the given hash.",
			Params:      []paramSpec{{Name: "blockHash", Type: "string", Required: true, Description: "0x-prefixed block hash"}, networkSpec},
			call: withParams(func(ctx context.Context, chain contracts.ChainService, network string, p blockHashParams) (any, error) {
				if err := required("blockHash", p.BlockHash); err != nil {
					return nil, err
				}
				return chain.GetBlockByHash(ctx, network, p.BlockHash)
			}),
		},
		{
			Name:        "get_transaction",
			Description: "Transaction details by hash.",
			Params:      []paramSpec{{Name: "txHash", Type: "string", Required: true, Description: "0x-prefixed transaction hash"}, networkSpec},
			call: withParams(func(ctx context.Context, chain contracts.ChainService, network string, p txHashParams) (any, error) {
				if err := required("txHash", p.TxHash); err != nil {
					return nil, err
				}
				return chain.GetTransaction(ctx, network, p.TxHash)
			}),
		},
		{
			Name:        "get_transaction_receipt",
			Description: "Receipt of a mined transaction.",
			Params:      []paramSpec{{Name: "txHash", Type: "string", Required: true, Description: "0x-prefixed transaction hash"}, networkSpec},
			call: withParams(func(ctx context.Context, chain contracts.ChainService, network string, p txHashParams) (any, error) {
				if err := required("txHash", p.TxHash); err != nil {
					return nil, err
				}
				return chain.GetTransactionReceipt(ctx, network, p.TxHash)
			}),
		},
		{
			Name:        "get_chain_info",
			Description: "Chain id and current height of a network.",
			Params:      []paramSpec{networkSpec},
			call: withoutParams(func(ctx context.Context, chain contracts.ChainService, network string) (any, error) {
				return chain.GetChainInfo(ctx, network)
			}),
		},
		{
			Name:        "estimate_gas",
			Description: "Gas estimate for a call or transfer.",
			Params: []paramSpec{
				{Name: "to", Type: "string", Required: true, Description: "recipient or contract address"},
				{Name: "from", Type: "string", Description: "sender address"},
				{Name: "value", Type: "string", Description: "value in wei"},
				{Name: "data", Type: "string", Description: "0x-prefixed calldata"},
				networkSpec,
			},
			call: withParams(func(ctx context.Context, chain contracts.ChainService, network string, p estimateGasParams) (any, error) {
				if err := required("to", p.To); err != nil {
					return nil, err
				}
				return chain.EstimateGas(ctx, network, contracts.CallRequest{From: p.From, To: p.To, Value: p.Value.Int, Data: p.Data})
			}),
		},
		{
			Name:        "get_erc20_balance",
			Description: "ERC-20 balance of a holder.",
			Params:      []paramSpec{tokenSpec, ownerSpec, networkSpec},
			call: withParams(func(ctx context.Context, chain contracts.ChainService, network string, p tokenOwnerParams) (any, error) {
				if err := requireAll(required("tokenAddress", p.TokenAddress), required("ownerAddress", p.OwnerAddress)); err != nil {
					return nil, err
				}
				return chain.GetERC20Balance(ctx, network, p.TokenAddress, p.OwnerAddress)
			}),
		},
		{
			Name:        "get_erc20_token_info",
			Description: "Name, symbol, decimals and supply of an ERC-20 token.",
			Params:      []paramSpec{tokenSpec, networkSpec},
			call: withParams(func(ctx context.Context, chain contracts.ChainService, network string, p tokenParams) (any, error) {
				if err := required("tokenAddress", p.TokenAddress); err != nil {
					return nil, err
				}
				return chain.GetERC20TokenInfo(ctx, network, p.TokenAddress)
			}),
		},
		{
			Name:        "get_erc721_token_metadata",
			Description: "Collection name, symbol and token URI of an ERC-721 token.",
			Params:      []paramSpec{tokenSpec, tokenIDSpec, networkSpec},
			call: withParams(func(ctx context.Context, chain contracts.ChainService, network string, p tokenIDParams) (any, error) {
				if err := requireAll(required("tokenAddress", p.TokenAddress), requiredBig("tokenId", p.TokenID)); err != nil {
					return nil, err
				}
				return chain.GetERC721TokenMetadata(ctx, network, p.TokenAddress, p.TokenID.Int)
			}),
		},
		{
			Name:        "get_erc1155_token_uri",
			Description: "Metadata URI of an ERC-1155 token.",
			Params:      []paramSpec{tokenSpec, tokenIDSpec, networkSpec},
			call: withParams(func(ctx context.Context, chain contracts.ChainService, network string, p tokenIDParams) (any, error) {
				if err := requireAll(required("tokenAddress", p.TokenAddress), requiredBig("tokenId", p.TokenID)); err != nil {
					return nil, err
				}
				return chain.GetERC1155TokenURI(ctx, network, p.TokenAddress, p.TokenID.Int)
			}),
		},
		{
			Name:        "get_erc1155_balance",
			Description: "ERC-1155 balance of a holder for one token id.",
			Params:      []paramSpec{tokenSpec, tokenIDSpec, ownerSpec, networkSpec},
			call: withParams(func(ctx context.Context, chain contracts.ChainService, network string, p tokenIDOwnerParams) (any, error) {
				if err := requireAll(
					required("tokenAddress", p.TokenAddress),
					requiredBig("tokenId", p.TokenID),
					required("ownerAddress", p.OwnerAddress),
				); err != nil {
					return nil, err
				}
				return chain.GetERC1155Balance(ctx, network, p.TokenAddress, p.OwnerAddress, p.TokenID.Int)
			}),
		},
		{
			Name:        "check_nft_ownership",
			Description: "Whether an address owns an ERC-721 token.",
			Params:      []paramSpec{tokenSpec, tokenIDSpec, ownerSpec, networkSpec},
			call: withParams(func(ctx context.Context, chain contracts.ChainService, network string, p tokenIDOwnerParams) (any, error) {
				if err := requireAll(
					required("tokenAddress", p.TokenAddress),
					requiredBig("tokenId", p.TokenID),
					required("ownerAddress", p.OwnerAddress),
				); err != nil {
					return nil, err
				}
				return chain.CheckNFTOwnership(ctx, network, p.TokenAddress, p.OwnerAddress, p.TokenID.Int)
			}),
		},
		{
			Name:        "get_nft_balance",
			Description: "Number of ERC-721 tokens held by an address.",
			Params:      []paramSpec{tokenSpec, ownerSpec, networkSpec},
			call: withParams(func(ctx context.Context, chain contracts.ChainService, network string, p tokenOwnerParams) (any, error) {
				if err := requireAll(required("tokenAddress", p.TokenAddress), required("ownerAddress", p.OwnerAddress)); err != nil {
					return nil, err
				}
				return chain.GetNFTBalance(ctx, network, p.TokenAddress, p.OwnerAddress)
			}),
		},
		{
			Name:        "is_contract",
			Description: "Whether an address holds contract code.",
			Params:      []paramSpec{addressSpec, networkSpec},
			call: withParams(func(ctx context.Context, chain contracts.ChainService, network string, p addressParams) (any, error) {
				if err := required("address", p.Address); err != nil {
					return nil, err
				}
				return chain.IsContract(ctx, network, p.Address)
			}),
		},
		{
			Name:        "read_contract",
			Description: "Call a view function described by an ABI.",
			Params: []paramSpec{
				{Name: "contractAddress", Type: "string", Required: true, Description: "contract address"},
				{Name: "abi", Type: "array", Required: true, Description: "contract ABI"},
				{Name: "functionName", Type: "string", Required: true, Description: "function to call"},
				{Name: "args", Type: "array", Description: "function arguments"},
				networkSpec,
			},
			call: withParams(func(ctx context.Context, chain contracts.ChainService, network string, p readContractParams) (any, error) {
				if err := requireAll(required("contractAddress", p.ContractAddress), required("functionName", p.FunctionName)); err != nil {
					return nil, err
				}
				if len(p.ABI) == 0 {
					return nil, contracts.NewError(contracts.KindInvalidParams, "abi is required")
				}
				return chain.ReadContract(ctx, network, contracts.ContractRead{
					Address:      p.ContractAddress,
					ABI:          p.ABI,
					FunctionName: p.FunctionName,
					Args:         p.Args,
				})
			}),
		},
	}
	out := make(map[string]method, len(list))
	for _, m := range list {
		out[m.Name] = m
	}
	return out
}

func requireAll(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func sortedMethods(methods map[string]method) []method {
	out := make([]method, 0, len(methods))
	for _, m := range methods {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Tool describes one method in MCP tools/list form.
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}

// Tools lists the method table with JSON schemas for the parameters.
func (r *Router) Tools() []Tool {
	list := sortedMethods(r.methods)
	out := make([]Tool, 0, len(list))
	for _, m := range list {
		props := make(map[string]any, len(m.Params))
		requiredNames := make([]string, 0, len(m.Params))
		for _, p := range m.Params {
			props[p.Name] = map[string]string{"type": p.Type, "description": p.Description}
			if p.Required {
				requiredNames = append(requiredNames, p.Name)
			}
		}
		out = append(out, Tool{
			Name:        m.Name,
			Description: m.Description,
			InputSchema: map[string]any{
				"type":       "object",
				"properties": props,
				"required":   requiredNames,
			},
		})
	}
	return out
}
