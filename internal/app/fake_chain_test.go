package app

import (
	"context"
	"errors"
	"math/big"
	"sync"

	"sei-gateway/go-backend/internal/domains/contracts"
)

// fakeChain records calls and returns canned values.
type fakeChain struct {
	mu       sync.Mutex
	calls    []string
	networks []string
	balance  *big.Int
	failWith error
}

func newFakeChain() *fakeChain {
	v, _ := new(big.Int).SetString("123456789012345678901234567890", 10)
	return &fakeChain{balance: v}
}

func (f *fakeChain) record(name, network string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
	f.networks = append(f.networks, network)
	return f.failWith
}

func (f *fakeChain) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeChain) lastNetwork() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.networks) == 0 {
		return ""
	}
	return f.networks[len(f.networks)-1]
}

func (f *fakeChain) SupportedNetworks() []contracts.NetworkInfo {
	_ = f.record("get_supported_networks", "")
	return []contracts.NetworkInfo{{Name: "sei", ChainID: 1329, Symbol: "SEI", Default: true}}
}

func (f *fakeChain) GetBalance(_ context.Context, network, address string) (contracts.Balance, error) {
	if err := f.record("get_balance", network); err != nil {
		return contracts.Balance{}, err
	}
	return contracts.Balance{Network: network, Address: address, Value: f.balance, Formatted: "123456789012.34567890123456789", Symbol: "SEI"}, nil
}

func (f *fakeChain) GetLatestBlock(_ context.Context, network string) (contracts.Block, error) {
	if err := f.record("get_latest_block", network); err != nil {
		return contracts.Block{}, err
	}
	return contracts.Block{Network: network, Number: big.NewInt(100), Hash: "0xabc"}, nil
}

func (f *fakeChain) GetBlockByNumber(_ context.Context, network string, number *big.Int) (contracts.Block, error) {
	if err := f.record("get_block_by_number", network); err != nil {
		return contracts.Block{}, err
	}
	return contracts.Block{Network: network, Number: number}, nil
}

func (f *fakeChain) GetBlockByHash(_ context.Context, network, hash string) (contracts.Block, error) {
	if err := f.record("get_block_by_hash", network); err != nil {
		return contracts.Block{}, err
	}
	return contracts.Block{Network: network, Hash: hash, Number: big.NewInt(1)}, nil
}

func (f *fakeChain) GetTransaction(_ context.Context, network, hash string) (contracts.Transaction, error) {
	if err := f.record("get_transaction", network); err != nil {
		return contracts.Transaction{}, err
	}
	return contracts.Transaction{Network: network, Hash: hash, Value: f.balance, GasPrice: big.NewInt(1)}, nil
}

func (f *fakeChain) GetTransactionReceipt(_ context.Context, network, hash string) (contracts.Receipt, error) {
	if err := f.record("get_transaction_receipt", network); err != nil {
		return contracts.Receipt{}, err
	}
	return contracts.Receipt{Network: network, TransactionHash: hash, Status: "success", BlockNumber: big.NewInt(7)}, nil
}

func (f *fakeChain) GetChainInfo(_ context.Context, network string) (contracts.ChainInfo, error) {
	if err := f.record("get_chain_info", network); err != nil {
		return contracts.ChainInfo{}, err
	}
	return contracts.ChainInfo{Network: network, ChainID: big.NewInt(1329), BlockNumber: 100}, nil
}

func (f *fakeChain) EstimateGas(_ context.Context, network string, req contracts.CallRequest) (contracts.GasEstimate, error) {
	if err := f.record("estimate_gas", network); err != nil {
		return contracts.GasEstimate{}, err
	}
	return contracts.GasEstimate{Network: network, Gas: 21000, GasPrice: big.NewInt(1), Fee: big.NewInt(21000)}, nil
}

func (f *fakeChain) GetERC20Balance(_ context.Context, network, token, owner string) (contracts.TokenBalance, error) {
	if err := f.record("get_erc20_balance", network); err != nil {
		return contracts.TokenBalance{}, err
	}
	return contracts.TokenBalance{Network: network, Token: token, Owner: owner, Raw: f.balance, Decimals: 18}, nil
}

func (f *fakeChain) GetERC20TokenInfo(_ context.Context, network, token string) (contracts.TokenInfo, error) {
	if err := f.record("get_erc20_token_info", network); err != nil {
		return contracts.TokenInfo{}, err
	}
	return contracts.TokenInfo{Network: network, Address: token, Name: "Token", Symbol: "TKN", Decimals: 18, TotalSupply: f.balance}, nil
}

func (f *fakeChain) GetERC721TokenMetadata(_ context.Context, network, token string, tokenID *big.Int) (contracts.NFTMetadata, error) {
	if err := f.record("get_erc721_token_metadata", network); err != nil {
		return contracts.NFTMetadata{}, err
	}
	return contracts.NFTMetadata{Network: network, Token: token, TokenID: tokenID}, nil
}

func (f *fakeChain) GetERC1155TokenURI(_ context.Context, network, token string, tokenID *big.Int) (contracts.TokenURI, error) {
	if err := f.record("get_erc1155_token_uri", network); err != nil {
		return contracts.TokenURI{}, err
	}
	return contracts.TokenURI{Network: network, Token: token, TokenID: tokenID, URI: "ipfs://x"}, nil
}

func (f *fakeChain) GetERC1155Balance(_ context.Context, network, token, owner string, tokenID *big.Int) (contracts.TokenBalance, error) {
	if err := f.record("get_erc1155_balance", network); err != nil {
		return contracts.TokenBalance{}, err
	}
	return contracts.TokenBalance{Network: network, Token: token, Owner: owner, TokenID: tokenID, Raw: big.NewInt(3)}, nil
}

func (f *fakeChain) CheckNFTOwnership(_ context.Context, network, token, owner string, tokenID *big.Int) (contracts.Ownership, error) {
	if err := f.record("check_nft_ownership", network); err != nil {
		return contracts.Ownership{}, err
	}
	return contracts.Ownership{Network: network, Token: token, Owner: owner, ActualOwner: owner, TokenID: tokenID, IsOwner: true}, nil
}

func (f *fakeChain) GetNFTBalance(_ context.Context, network, token, owner string) (contracts.TokenBalance, error) {
	if err := f.record("get_nft_balance", network); err != nil {
		return contracts.TokenBalance{}, err
	}
	return contracts.TokenBalance{Network: network, Token: token, Owner: owner, Raw: big.NewInt(2)}, nil
}

func (f *fakeChain) IsContract(_ context.Context, network, address string) (contracts.ContractCheck, error) {
	if err := f.record("is_contract", network); err != nil {
		return contracts.ContractCheck{}, err
	}
	return contracts.ContractCheck{Network: network, Address: address, IsContract: true, CodeSize: 10}, nil
}

func (f *fakeChain) ReadContract(_ context.Context, network string, req contracts.ContractRead) (contracts.ContractResult, error) {
	if err := f.record("read_contract", network); err != nil {
		return contracts.ContractResult{}, err
	}
	return contracts.ContractResult{Network: network, Address: req.Address, FunctionName: req.FunctionName, Outputs: []any{f.balance}}, nil
}

var errUpstream = errors.New("upstream node unavailable")
