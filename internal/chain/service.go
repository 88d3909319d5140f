package chain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	"sei-gateway/go-backend/internal/domains/contracts"
	"sei-gateway/go-backend/internal/platform/privacylog"
)

const (
	componentName         = "chain"
	DefaultRequestTimeout = 15 * time.Second
	nativeDecimals        = 18
)

var _ contracts.ChainService = (*Service)(nil)

// Service answers backend operations by querying EVM JSON-RPC nodes.
// Clients are dialed lazily per network and reused until Close.
type Service struct {
	networks       map[string]Network
	names          []string
	defaultNetwork string
	timeout        time.Duration
	logger         *slog.Logger

	mu      sync.Mutex
	clients map[string]*ethclient.Client
}

func NewService(networks []Network, defaultNetwork string, timeout time.Duration, logger *slog.Logger) (*Service, error) {
	byName, names := indexNetworks(networks)
	if len(byName) == 0 {
		return nil, errors.New("chain: no networks configured")
	}
	def := normalizeNetworkName(defaultNetwork)
	if def == "" {
		def = contracts.DefaultNetwork
	}
	if _, ok := byName[def]; !ok {
		return nil, fmt.Errorf("chain: default network %q is not configured", def)
	}
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		networks:       byName,
		names:          names,
		defaultNetwork: def,
		timeout:        timeout,
		logger:         logger,
		clients:        make(map[string]*ethclient.Client),
	}, nil
}

// Init dials the default network and checks that the node reports the
// configured chain id.
func (s *Service) Init(ctx context.Context) error {
	c, n, err := s.client(s.defaultNetwork)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	id, err := c.ChainID(ctx)
	if err != nil {
		return fmt.Errorf("chain: query chain id of %s: %w", n.Name, err)
	}
	if n.ChainID != 0 && id.Int64() != n.ChainID {
		return fmt.Errorf("chain: %s reports chain id %s, expected %d", n.Name, id, n.ChainID)
	}
	s.logger.Info("chain backend ready",
		"component", componentName,
		"operation", "init",
		"network", n.Name,
		"chain_id", id.String(),
	)
	return nil
}

// Close releases every dialed client.
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for name, c := range s.clients {
		c.Close()
		delete(s.clients, name)
	}
}

func (s *Service) client(network string) (*ethclient.Client, Network, error) {
	name := normalizeNetworkName(network)
	if name == "" {
		name = s.defaultNetwork
	}
	n, ok := s.networks[name]
	if !ok {
		return nil, Network{}, contracts.NewError(contracts.KindInvalidParams,
			fmt.Sprintf("unsupported network %q (supported: %s)", network, strings.Join(s.names, ", ")))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.clients[name]; ok {
		return c, n, nil
	}
	c, err := ethclient.Dial(n.RPCURL)
	if err != nil {
		return nil, Network{}, fmt.Errorf("dial %s: %w", name, err)
	}
	s.clients[name] = c
	return c, n, nil
}

func (s *Service) withClient(ctx context.Context, network string) (context.Context, context.CancelFunc, *ethclient.Client, Network, error) {
	c, n, err := s.client(network)
	if err != nil {
		return ctx, func() {}, nil, Network{}, err
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	return ctx, cancel, c, n, nil
}

func (s *Service) SupportedNetworks() []contracts.NetworkInfo {
	out := make([]contracts.NetworkInfo, 0, len(s.names))
	for _, name := range s.names {
		n := s.networks[name]
		out = append(out, contracts.NetworkInfo{
			Name:     n.Name,
			ChainID:  n.ChainID,
			Symbol:   n.Symbol,
			RPCURL:   privacylog.StripURL(n.RPCURL),
			Explorer: n.Explorer,
			Default:  name == s.defaultNetwork,
		})
	}
	return out
}

func (s *Service) GetBalance(ctx context.Context, network, address string) (contracts.Balance, error) {
	addr, err := ParseAddress("address", address)
	if err != nil {
		return contracts.Balance{}, err
	}
	ctx, cancel, c, n, err := s.withClient(ctx, network)
	defer cancel()
	if err != nil {
		return contracts.Balance{}, err
	}
	wei, err := c.BalanceAt(ctx, addr, nil)
	if err != nil {
		return contracts.Balance{}, fmt.Errorf("balance of %s: %w", addr.Hex(), err)
	}
	return contracts.Balance{
		Network:   n.Name,
		Address:   addr.Hex(),
		Value:     wei,
		Formatted: FormatUnits(wei, nativeDecimals),
		Symbol:    n.Symbol,
	}, nil
}

func (s *Service) GetLatestBlock(ctx context.Context, network string) (contracts.Block, error) {
	return s.GetBlockByNumber(ctx, network, nil)
}

func (s *Service) GetBlockByNumber(ctx context.Context, network string, number *big.Int) (contracts.Block, error) {
	ctx, cancel, c, n, err := s.withClient(ctx, network)
	defer cancel()
	if err != nil {
		return contracts.Block{}, err
	}
	block, err := c.BlockByNumber(ctx, number)
	if err != nil {
		return contracts.Block{}, notFound("block", err)
	}
	return blockView(n.Name, block), nil
}

func (s *Service) GetBlockByHash(ctx context.Context, network, hash string) (contracts.Block, error) {
	h, err := ParseHash("blockHash", hash)
	if err != nil {
		return contracts.Block{}, err
	}
	ctx, cancel, c, n, err := s.withClient(ctx, network)
	defer cancel()
	if err != nil {
		return contracts.Block{}, err
	}
	block, err := c.BlockByHash(ctx, h)
	if err != nil {
		return contracts.Block{}, notFound("block", err)
	}
	return blockView(n.Name, block), nil
}

func (s *Service) GetTransaction(ctx context.Context, network, hash string) (contracts.Transaction, error) {
	h, err := ParseHash("txHash", hash)
	if err != nil {
		return contracts.Transaction{}, err
	}
	ctx, cancel, c, n, err := s.withClient(ctx, network)
	defer cancel()
	if err != nil {
		return contracts.Transaction{}, err
	}
	tx, pending, err := c.TransactionByHash(ctx, h)
	if err != nil {
		return contracts.Transaction{}, notFound("transaction", err)
	}
	out := contracts.Transaction{
		Network:  n.Name,
		Hash:     tx.Hash().Hex(),
		Nonce:    tx.Nonce(),
		Value:    tx.Value(),
		Gas:      tx.Gas(),
		GasPrice: tx.GasPrice(),
		Input:    hexutil.Encode(tx.Data()),
		Type:     tx.Type(),
		ChainID:  tx.ChainId(),
		Pending:  pending,
	}
	if to := tx.To(); to != nil {
		out.To = to.Hex()
	}
	if from, err := types.Sender(types.LatestSignerForChainID(tx.ChainId()), tx); err == nil {
		out.From = from.Hex()
	}
	return out, nil
}

func (s *Service) GetTransactionReceipt(ctx context.Context, network, hash string) (contracts.Receipt, error) {
	h, err := ParseHash("txHash", hash)
	if err != nil {
		return contracts.Receipt{}, err
	}
	ctx, cancel, c, n, err := s.withClient(ctx, network)
	defer cancel()
	if err != nil {
		return contracts.Receipt{}, err
	}
	r, err := c.TransactionReceipt(ctx, h)
	if err != nil {
		return contracts.Receipt{}, notFound("receipt", err)
	}
	return receiptView(n.Name, r), nil
}

func (s *Service) GetChainInfo(ctx context.Context, network string) (contracts.ChainInfo, error) {
	ctx, cancel, c, n, err := s.withClient(ctx, network)
	defer cancel()
	if err != nil {
		return contracts.ChainInfo{}, err
	}
	id, err := c.ChainID(ctx)
	if err != nil {
		return contracts.ChainInfo{}, fmt.Errorf("chain id: %w", err)
	}
	height, err := c.BlockNumber(ctx)
	if err != nil {
		return contracts.ChainInfo{}, fmt.Errorf("block number: %w", err)
	}
	return contracts.ChainInfo{
		Network:     n.Name,
		ChainID:     id,
		BlockNumber: height,
		RPCURL:      privacylog.StripURL(n.RPCURL),
		Symbol:      n.Symbol,
	}, nil
}

func (s *Service) EstimateGas(ctx context.Context, network string, req contracts.CallRequest) (contracts.GasEstimate, error) {
	msg, err := callMsg(req)
	if err != nil {
		return contracts.GasEstimate{}, err
	}
	ctx, cancel, c, n, err := s.withClient(ctx, network)
	defer cancel()
	if err != nil {
		return contracts.GasEstimate{}, err
	}
	gas, err := c.EstimateGas(ctx, msg)
	if err != nil {
		return contracts.GasEstimate{}, fmt.Errorf("estimate gas: %w", err)
	}
	price, err := c.SuggestGasPrice(ctx)
	if err != nil {
		return contracts.GasEstimate{}, fmt.Errorf("gas price: %w", err)
	}
	fee := new(big.Int).Mul(new(big.Int).SetUint64(gas), price)
	return contracts.GasEstimate{Network: n.Name, Gas: gas, GasPrice: price, Fee: fee}, nil
}

func (s *Service) IsContract(ctx context.Context, network, address string) (contracts.ContractCheck, error) {
	addr, err := ParseAddress("address", address)
	if err != nil {
		return contracts.ContractCheck{}, err
	}
	ctx, cancel, c, n, err := s.withClient(ctx, network)
	defer cancel()
	if err != nil {
		return contracts.ContractCheck{}, err
	}
	code, err := c.CodeAt(ctx, addr, nil)
	if err != nil {
		return contracts.ContractCheck{}, fmt.Errorf("code at %s: %w", addr.Hex(), err)
	}
	return contracts.ContractCheck{
		Network:    n.Name,
		Address:    addr.Hex(),
		IsContract: len(code) > 0,
		CodeSize:   len(code),
	}, nil
}

func callMsg(req contracts.CallRequest) (ethereum.CallMsg, error) {
	to, err := ParseAddress("to", req.To)
	if err != nil {
		return ethereum.CallMsg{}, err
	}
	msg := ethereum.CallMsg{To: &to, Value: req.Value}
	if strings.TrimSpace(req.From) != "" {
		from, err := ParseAddress("from", req.From)
		if err != nil {
			return ethereum.CallMsg{}, err
		}
		msg.From = from
	}
	if data := strings.TrimSpace(req.Data); data != "" {
		decoded, err := hexutil.Decode(data)
		if err != nil {
			return ethereum.CallMsg{}, contracts.NewError(contracts.KindInvalidParams, "data must be 0x-prefixed hex")
		}
		msg.Data = decoded
	}
	return msg, nil
}

func notFound(what string, err error) error {
	if errors.Is(err, ethereum.NotFound) {
		return fmt.Errorf("%s not found", what)
	}
	return fmt.Errorf("fetch %s: %w", what, err)
}

func blockView(network string, b *types.Block) contracts.Block {
	txs := b.Transactions()
	hashes := make([]string, 0, len(txs))
	for _, tx := range txs {
		hashes = append(hashes, tx.Hash().Hex())
	}
	return contracts.Block{
		Network:          network,
		Number:           b.Number(),
		Hash:             b.Hash().Hex(),
		ParentHash:       b.ParentHash().Hex(),
		Timestamp:        b.Time(),
		Miner:            b.Coinbase().Hex(),
		GasUsed:          b.GasUsed(),
		GasLimit:         b.GasLimit(),
		BaseFeePerGas:    b.BaseFee(),
		TransactionCount: len(txs),
		Transactions:     hashes,
	}
}

func receiptView(network string, r *types.Receipt) contracts.Receipt {
	status := "failed"
	if r.Status == types.ReceiptStatusSuccessful {
		status = "success"
	}
	logs := make([]contracts.LogEntry, 0, len(r.Logs))
	for _, l := range r.Logs {
		topics := make([]string, 0, len(l.Topics))
		for _, t := range l.Topics {
			topics = append(topics, t.Hex())
		}
		logs = append(logs, contracts.LogEntry{
			Address: l.Address.Hex(),
			Topics:  topics,
			Data:    hexutil.Encode(l.Data),
			Index:   l.Index,
		})
	}
	out := contracts.Receipt{
		Network:           network,
		TransactionHash:   r.TxHash.Hex(),
		BlockHash:         r.BlockHash.Hex(),
		BlockNumber:       r.BlockNumber,
		Status:            status,
		GasUsed:           r.GasUsed,
		CumulativeGasUsed: r.CumulativeGasUsed,
		EffectiveGasPrice: r.EffectiveGasPrice,
		Logs:              logs,
	}
	if r.ContractAddress != (common.Address{}) {
		out.ContractAddress = r.ContractAddress.Hex()
	}
	return out
}
