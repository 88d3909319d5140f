package contracts

import (
	"context"
	"encoding/json"
	"math/big"
)

// DefaultNetwork is used when a backend operation omits its network.
const DefaultNetwork = "sei"

// ChainService is the set of backend operations the gateway exposes by
// method name. Implementations talk to upstream chain nodes; every
// operation accepts the network name resolved by the caller.
type ChainService interface {
	SupportedNetworks() []NetworkInfo
	GetBalance(ctx context.Context, network, address string) (Balance, error)
	GetLatestBlock(ctx context.Context, network string) (Block, error)
	GetBlockByNumber(ctx context.Context, network string, number *big.Int) (Block, error)
	GetBlockByHash(ctx context.Context, network, hash string) (Block, error)
	GetTransaction(ctx context.Context, network, hash string) (Transaction, error)
	GetTransactionReceipt(ctx context.Context, network, hash string) (Receipt, error)
	GetChainInfo(ctx context.Context, network string) (ChainInfo, error)
	EstimateGas(ctx context.Context, network string, req CallRequest) (GasEstimate, error)
	GetERC20Balance(ctx context.Context, network, token, owner string) (TokenBalance, error)
	GetERC20TokenInfo(ctx context.Context, network, token string) (TokenInfo, error)
	GetERC721TokenMetadata(ctx context.Context, network, token string, tokenID *big.Int) (NFTMetadata, error)
	GetERC1155TokenURI(ctx context.Context, network, token string, tokenID *big.Int) (TokenURI, error)
	GetERC1155Balance(ctx context.Context, network, token, owner string, tokenID *big.Int) (TokenBalance, error)
	CheckNFTOwnership(ctx context.Context, network, token, owner string, tokenID *big.Int) (Ownership, error)
	GetNFTBalance(ctx context.Context, network, token, owner string) (TokenBalance, error)
	IsContract(ctx context.Context, network, address string) (ContractCheck, error)
	ReadContract(ctx context.Context, network string, req ContractRead) (ContractResult, error)
}

type NetworkInfo struct {
	Name     string `json:"name"`
	ChainID  int64  `json:"chainId"`
	Symbol   string `json:"symbol"`
	RPCURL   string `json:"rpcUrl"`
	Explorer string `json:"explorer,omitempty"`
	Default  bool   `json:"default"`
}

type Balance struct {
	Network   string   `json:"network"`
	Address   string   `json:"address"`
	Value     *big.Int `json:"value"`
	Formatted string   `json:"formatted"`
	Symbol    string   `json:"symbol"`
}

type Block struct {
	Network          string   `json:"network"`
	Number           *big.Int `json:"number"`
	Hash             string   `json:"hash"`
	ParentHash       string   `json:"parentHash"`
	Timestamp        uint64   `json:"timestamp"`
	Miner            string   `json:"miner"`
	GasUsed          uint64   `json:"gasUsed"`
	GasLimit         uint64   `json:"gasLimit"`
	BaseFeePerGas    *big.Int `json:"baseFeePerGas,omitempty"`
	TransactionCount int      `json:"transactionCount"`
	Transactions     []string `json:"transactions"`
}

type Transaction struct {
	Network  string   `json:"network"`
	Hash     string   `json:"hash"`
	From     string   `json:"from,omitempty"`
	To       string   `json:"to,omitempty"`
	Nonce    uint64   `json:"nonce"`
	Value    *big.Int `json:"value"`
	Gas      uint64   `json:"gas"`
	GasPrice *big.Int `json:"gasPrice"`
	Input    string   `json:"input"`
	Type     uint8    `json:"type"`
	ChainID  *big.Int `json:"chainId,omitempty"`
	Pending  bool     `json:"pending"`
}

type LogEntry struct {
	Address string   `json:"address"`
	Topics  []string `json:"topics"`
	Data    string   `json:"data"`
	Index   uint     `json:"logIndex"`
}

type Receipt struct {
	Network           string     `json:"network"`
	TransactionHash   string     `json:"transactionHash"`
	BlockHash         string     `json:"blockHash"`
	BlockNumber       *big.Int   `json:"blockNumber"`
	Status            string     `json:"status"`
	GasUsed           uint64     `json:"gasUsed"`
	CumulativeGasUsed uint64     `json:"cumulativeGasUsed"`
	EffectiveGasPrice *big.Int   `json:"effectiveGasPrice,omitempty"`
	ContractAddress   string     `json:"contractAddress,omitempty"`
	Logs              []LogEntry `json:"logs"`
}

type ChainInfo struct {
	Network     string   `json:"network"`
	ChainID     *big.Int `json:"chainId"`
	BlockNumber uint64   `json:"blockNumber"`
	RPCURL      string   `json:"rpcUrl"`
	Symbol      string   `json:"symbol"`
}

// CallRequest describes a message for gas estimation.
type CallRequest struct {
	From  string   `json:"from,omitempty"`
	To    string   `json:"to"`
	Value *big.Int `json:"value,omitempty"`
	Data  string   `json:"data,omitempty"`
}

type GasEstimate struct {
	Network  string   `json:"network"`
	Gas      uint64   `json:"gas"`
	GasPrice *big.Int `json:"gasPrice"`
	Fee      *big.Int `json:"estimatedFee"`
}

type TokenBalance struct {
	Network   string   `json:"network"`
	Token     string   `json:"tokenAddress"`
	Owner     string   `json:"ownerAddress"`
	TokenID   *big.Int `json:"tokenId,omitempty"`
	Raw       *big.Int `json:"raw"`
	Decimals  uint8    `json:"decimals"`
	Formatted string   `json:"formatted"`
	Symbol    string   `json:"symbol,omitempty"`
}

type TokenInfo struct {
	Network              string   `json:"network"`
	Address              string   `json:"address"`
	Name                 string   `json:"name"`
	Symbol               string   `json:"symbol"`
	Decimals             uint8    `json:"decimals"`
	TotalSupply          *big.Int `json:"totalSupply"`
	FormattedTotalSupply string   `json:"formattedTotalSupply"`
}

type NFTMetadata struct {
	Network  string   `json:"network"`
	Token    string   `json:"tokenAddress"`
	TokenID  *big.Int `json:"tokenId"`
	Name     string   `json:"name"`
	Symbol   string   `json:"symbol"`
	TokenURI string   `json:"tokenURI"`
	Owner    string   `json:"owner,omitempty"`
}

type TokenURI struct {
	Network string   `json:"network"`
	Token   string   `json:"tokenAddress"`
	TokenID *big.Int `json:"tokenId"`
	URI     string   `json:"uri"`
}

type Ownership struct {
	Network     string   `json:"network"`
	Token       string   `json:"tokenAddress"`
	TokenID     *big.Int `json:"tokenId"`
	Owner       string   `json:"ownerAddress"`
	ActualOwner string   `json:"actualOwner"`
	IsOwner     bool     `json:"isOwner"`
}

type ContractCheck struct {
	Network    string `json:"network"`
	Address    string `json:"address"`
	IsContract bool   `json:"isContract"`
	CodeSize   int    `json:"codeSize"`
}

// ContractRead is a view call against a contract described by its ABI.
type ContractRead struct {
	Address      string            `json:"contractAddress"`
	ABI          json.RawMessage   `json:"abi"`
	FunctionName string            `json:"functionName"`
	Args         []json.RawMessage `json:"args,omitempty"`
}

type ContractResult struct {
	Network      string `json:"network"`
	Address      string `json:"contractAddress"`
	FunctionName string `json:"functionName"`
	Outputs      []any  `json:"outputs"`
}
