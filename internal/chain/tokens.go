package chain

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"sei-gateway/go-backend/internal/domains/contracts"
)

const erc20JSON = `[
{"type":"function","name":"name","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
{"type":"function","name":"symbol","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
{"type":"function","name":"decimals","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint8"}]},
{"type":"function","name":"totalSupply","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
{"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"owner","type":"address"}],"outputs":[{"name":"","type":"uint256"}]}
]`

const erc721JSON = `[
{"type":"function","name":"name","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
{"type":"function","name":"symbol","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
{"type":"function","name":"tokenURI","stateMutability":"view","inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[{"name":"","type":"string"}]},
{"type":"function","name":"ownerOf","stateMutability":"view","inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[{"name":"","type":"address"}]},
{"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"owner","type":"address"}],"outputs":[{"name":"","type":"uint256"}]}
]`

const erc1155JSON = `[
{"type":"function","name":"uri","stateMutability":"view","inputs":[{"name":"id","type":"uint256"}],"outputs":[{"name":"","type":"string"}]},
{"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"account","type":"address"},{"name":"id","type":"uint256"}],"outputs":[{"name":"","type":"uint256"}]}
]`

var (
	erc20ABI   = mustParseABI(erc20JSON)
	erc721ABI  = mustParseABI(erc721JSON)
	erc1155ABI = mustParseABI(erc1155JSON)
)

func mustParseABI(def string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic(err)
	}
	return parsed
}

// callView packs method, executes eth_call against the latest block and
// unpacks the outputs.
func callView(ctx context.Context, c *ethclient.Client, contract common.Address, parsed abi.ABI, method string, args ...any) ([]any, error) {
	data, err := parsed.Pack(method, args...)
	if err != nil {
		return nil, contracts.WrapError(contracts.KindInvalidParams, fmt.Errorf("pack %s: %w", method, err))
	}
	out, err := c.CallContract(ctx, ethereum.CallMsg{To: &contract, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s on %s: %w", method, contract.Hex(), err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("call %s on %s returned no data", method, contract.Hex())
	}
	values, err := parsed.Unpack(method, out)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", method, err)
	}
	return values, nil
}

func first[T any](values []any, method string) (T, error) {
	var zero T
	if len(values) == 0 {
		return zero, fmt.Errorf("%s returned no values", method)
	}
	v, ok := values[0].(T)
	if !ok {
		return zero, fmt.Errorf("%s returned %T", method, values[0])
	}
	return v, nil
}

func viewValue[T any](ctx context.Context, c *ethclient.Client, contract common.Address, parsed abi.ABI, method string, args ...any) (T, error) {
	values, err := callView(ctx, c, contract, parsed, method, args...)
	if err != nil {
		var zero T
		return zero, err
	}
	return first[T](values, method)
}

func (s *Service) GetERC20Balance(ctx context.Context, network, token, owner string) (contracts.TokenBalance, error) {
	tokenAddr, err := ParseAddress("tokenAddress", token)
	if err != nil {
		return contracts.TokenBalance{}, err
	}
	ownerAddr, err := ParseAddress("ownerAddress", owner)
	if err != nil {
		return contracts.TokenBalance{}, err
	}
	ctx, cancel, c, n, err := s.withClient(ctx, network)
	defer cancel()
	if err != nil {
		return contracts.TokenBalance{}, err
	}
	raw, err := viewValue[*big.Int](ctx, c, tokenAddr, erc20ABI, "balanceOf", ownerAddr)
	if err != nil {
		return contracts.TokenBalance{}, err
	}
	decimals, err := viewValue[uint8](ctx, c, tokenAddr, erc20ABI, "decimals")
	if err != nil {
		return contracts.TokenBalance{}, err
	}
	symbol, err := viewValue[string](ctx, c, tokenAddr, erc20ABI, "symbol")
	if err != nil {
		return contracts.TokenBalance{}, err
	}
	return contracts.TokenBalance{
		Network:   n.Name,
		Token:     tokenAddr.Hex(),
		Owner:     ownerAddr.Hex(),
		Raw:       raw,
		Decimals:  decimals,
		Formatted: FormatUnits(raw, decimals),
		Symbol:    symbol,
	}, nil
}

func (s *Service) GetERC20TokenInfo(ctx context.Context, network, token string) (contracts.TokenInfo, error) {
	tokenAddr, err := ParseAddress("tokenAddress", token)
	if err != nil {
		return contracts.TokenInfo{}, err
	}
	ctx, cancel, c, n, err := s.withClient(ctx, network)
	defer cancel()
	if err != nil {
		return contracts.TokenInfo{}, err
	}
	name, err := viewValue[string](ctx, c, tokenAddr, erc20ABI, "name")
	if err != nil {
		return contracts.TokenInfo{}, err
	}
	symbol, err := viewValue[string](ctx, c, tokenAddr, erc20ABI, "symbol")
	if err != nil {
		return contracts.TokenInfo{}, err
	}
	decimals, err := viewValue[uint8](ctx, c, tokenAddr, erc20ABI, "decimals")
	if err != nil {
		return contracts.TokenInfo{}, err
	}
	supply, err := viewValue[*big.Int](ctx, c, tokenAddr, erc20ABI, "totalSupply")
	if err != nil {
		return contracts.TokenInfo{}, err
	}
	return contracts.TokenInfo{
		Network:              n.Name,
		Address:              tokenAddr.Hex(),
		Name:                 name,
		Symbol:               symbol,
		Decimals:             decimals,
		TotalSupply:          supply,
		FormattedTotalSupply: FormatUnits(supply, decimals),
	}, nil
}

func (s *Service) GetERC721TokenMetadata(ctx context.Context, network, token string, tokenID *big.Int) (contracts.NFTMetadata, error) {
	tokenAddr, err := ParseAddress("tokenAddress", token)
	if err != nil {
		return contracts.NFTMetadata{}, err
	}
	ctx, cancel, c, n, err := s.withClient(ctx, network)
	defer cancel()
	if err != nil {
		return contracts.NFTMetadata{}, err
	}
	out := contracts.NFTMetadata{Network: n.Name, Token: tokenAddr.Hex(), TokenID: tokenID}
	if out.Name, err = viewValue[string](ctx, c, tokenAddr, erc721ABI, "name"); err != nil {
		return contracts.NFTMetadata{}, err
	}
	if out.Symbol, err = viewValue[string](ctx, c, tokenAddr, erc721ABI, "symbol"); err != nil {
		return contracts.NFTMetadata{}, err
	}
	if out.TokenURI, err = viewValue[string](ctx, c, tokenAddr, erc721ABI, "tokenURI", tokenID); err != nil {
		return contracts.NFTMetadata{}, err
	}
	// Burned or soul-bound tokens may revert ownerOf; metadata is still useful.
	if owner, err := viewValue[common.Address](ctx, c, tokenAddr, erc721ABI, "ownerOf", tokenID); err == nil {
		out.Owner = owner.Hex()
	}
	return out, nil
}

func (s *Service) GetERC1155TokenURI(ctx context.Context, network, token string, tokenID *big.Int) (contracts.TokenURI, error) {
	tokenAddr, err := ParseAddress("tokenAddress", token)
	if err != nil {
		return contracts.TokenURI{}, err
	}
	ctx, cancel, c, n, err := s.withClient(ctx, network)
	defer cancel()
	if err != nil {
		return contracts.TokenURI{}, err
	}
	uri, err := viewValue[string](ctx, c, tokenAddr, erc1155ABI, "uri", tokenID)
	if err != nil {
		return contracts.TokenURI{}, err
	}
	return contracts.TokenURI{Network: n.Name, Token: tokenAddr.Hex(), TokenID: tokenID, URI: uri}, nil
}

func (s *Service) GetERC1155Balance(ctx context.Context, network, token, owner string, tokenID *big.Int) (contracts.TokenBalance, error) {
	tokenAddr, err := ParseAddress("tokenAddress", token)
	if err != nil {
		return contracts.TokenBalance{}, err
	}
	ownerAddr, err := ParseAddress("ownerAddress", owner)
	if err != nil {
		return contracts.TokenBalance{}, err
	}
	ctx, cancel, c, n, err := s.withClient(ctx, network)
	defer cancel()
	if err != nil {
		return contracts.TokenBalance{}, err
	}
	raw, err := viewValue[*big.Int](ctx, c, tokenAddr, erc1155ABI, "balanceOf", ownerAddr, tokenID)
	if err != nil {
		return contracts.TokenBalance{}, err
	}
	return contracts.TokenBalance{
		Network:   n.Name,
		Token:     tokenAddr.Hex(),
		Owner:     ownerAddr.Hex(),
		TokenID:   tokenID,
		Raw:       raw,
		Formatted: raw.String(),
	}, nil
}

func (s *Service) CheckNFTOwnership(ctx context.Context, network, token, owner string, tokenID *big.Int) (contracts.Ownership, error) {
	tokenAddr, err := ParseAddress("tokenAddress", token)
	if err != nil {
		return contracts.Ownership{}, err
	}
	ownerAddr, err := ParseAddress("ownerAddress", owner)
	if err != nil {
		return contracts.Ownership{}, err
	}
	ctx, cancel, c, n, err := s.withClient(ctx, network)
	defer cancel()
	if err != nil {
		return contracts.Ownership{}, err
	}
	actual, err := viewValue[common.Address](ctx, c, tokenAddr, erc721ABI, "ownerOf", tokenID)
	if err != nil {
		return contracts.Ownership{}, err
	}
	return contracts.Ownership{
		Network:     n.Name,
		Token:       tokenAddr.Hex(),
		TokenID:     tokenID,
		Owner:       ownerAddr.Hex(),
		ActualOwner: actual.Hex(),
		IsOwner:     actual == ownerAddr,
	}, nil
}

func (s *Service) GetNFTBalance(ctx context.Context, network, token, owner string) (contracts.TokenBalance, error) {
	tokenAddr, err := ParseAddress("tokenAddress", token)
	if err != nil {
		return contracts.TokenBalance{}, err
	}
	ownerAddr, err := ParseAddress("ownerAddress", owner)
	if err != nil {
		return contracts.TokenBalance{}, err
	}
	ctx, cancel, c, n, err := s.withClient(ctx, network)
	defer cancel()
	if err != nil {
		return contracts.TokenBalance{}, err
	}
	raw, err := viewValue[*big.Int](ctx, c, tokenAddr, erc721ABI, "balanceOf", ownerAddr)
	if err != nil {
		return contracts.TokenBalance{}, err
	}
	return contracts.TokenBalance{
		Network:   n.Name,
		Token:     tokenAddr.Hex(),
		Owner:     ownerAddr.Hex(),
		Raw:       raw,
		Formatted: raw.String(),
	}, nil
}
