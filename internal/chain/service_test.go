package chain

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"sei-gateway/go-backend/internal/domains/contracts"
)

const (
	holder = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"
	token  = "0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359"
)

type nodeReply func(params []json.RawMessage) (any, bool)

type fakeNode struct {
	mu      sync.Mutex
	methods map[string]nodeReply
	calls   []string
}

func newFakeNode(t *testing.T) (*fakeNode, *httptest.Server) {
	t.Helper()
	node := &fakeNode{methods: make(map[string]nodeReply)}
	srv := httptest.NewServer(http.HandlerFunc(node.serve))
	t.Cleanup(srv.Close)
	return node, srv
}

func (n *fakeNode) reply(method string, result any) {
	n.handle(method, func([]json.RawMessage) (any, bool) { return result, true })
}

func (n *fakeNode) handle(method string, fn nodeReply) {
	n.mu.Lock()
	n.methods[method] = fn
	n.mu.Unlock()
}

func (n *fakeNode) called() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.calls...)
}

func (n *fakeNode) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	var req struct {
		ID     json.RawMessage   `json:"id"`
		Method string            `json:"method"`
		Params []json.RawMessage `json:"params"`
	}
	_ = json.Unmarshal(body, &req)

	n.mu.Lock()
	n.calls = append(n.calls, req.Method)
	fn := n.methods[req.Method]
	n.mu.Unlock()

	resp := map[string]any{"jsonrpc": "2.0", "id": req.ID}
	result, ok := any(nil), false
	if fn != nil {
		result, ok = fn(req.Params)
	}
	if ok {
		resp["result"] = result
	} else {
		resp["error"] = map[string]any{"code": -32601, "message": "method not found"}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// replyCalls answers eth_call by the 4-byte selector of the call data.
func (n *fakeNode) replyCalls(t *testing.T, parsed abi.ABI, outputs map[string][]any) {
	t.Helper()
	bySelector := make(map[string]string, len(outputs))
	for name, values := range outputs {
		m, ok := parsed.Methods[name]
		if !ok {
			t.Fatalf("abi has no method %s", name)
		}
		packed, err := m.Outputs.Pack(values...)
		if err != nil {
			t.Fatalf("pack %s outputs: %v", name, err)
		}
		bySelector[hex.EncodeToString(m.ID)] = "0x" + hex.EncodeToString(packed)
	}
	n.handle("eth_call", func(params []json.RawMessage) (any, bool) {
		if len(params) == 0 {
			return nil, false
		}
		var call struct {
			Input string `json:"input"`
			Data  string `json:"data"`
		}
		_ = json.Unmarshal(params[0], &call)
		data := call.Input
		if data == "" {
			data = call.Data
		}
		data = strings.TrimPrefix(data, "0x")
		if len(data) < 8 {
			return nil, false
		}
		out, ok := bySelector[data[:8]]
		return out, ok
	})
}

func newTestService(t *testing.T, url string, chainID int64) *Service {
	t.Helper()
	svc, err := NewService([]Network{{Name: "sei", ChainID: chainID, RPCURL: url}}, "sei", 0, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	t.Cleanup(svc.Close)
	return svc
}

func TestNewServiceRequiresDefaultNetwork(t *testing.T) {
	if _, err := NewService(nil, "sei", 0, nil); err == nil {
		t.Fatal("expected error for empty network list")
	}
	if _, err := NewService(DefaultNetworks(), "mainnet", 0, nil); err == nil {
		t.Fatal("expected error for unknown default network")
	}
}

func TestSupportedNetworksMarksDefault(t *testing.T) {
	svc, err := NewService(DefaultNetworks(), "SEI-Testnet", 0, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	nets := svc.SupportedNetworks()
	if len(nets) != 3 {
		t.Fatalf("expected 3 networks, got %d", len(nets))
	}
	for _, n := range nets {
		if n.Default != (n.Name == "sei-testnet") {
			t.Fatalf("unexpected default flag on %+v", n)
		}
		if n.Symbol != "SEI" {
			t.Fatalf("unexpected symbol on %+v", n)
		}
	}
}

func TestInitVerifiesChainID(t *testing.T) {
	node, srv := newFakeNode(t)
	node.reply("eth_chainId", "0x531")

	if err := newTestService(t, srv.URL, 1329).Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := newTestService(t, srv.URL, 1328).Init(context.Background()); err == nil {
		t.Fatal("expected chain id mismatch")
	}
}

func TestInitFailsWithoutChainID(t *testing.T) {
	_, srv := newFakeNode(t)
	svc := newTestService(t, srv.URL, 1329)
	if err := svc.Init(context.Background()); err == nil {
		t.Fatal("expected init error when eth_chainId fails")
	}
}

func TestGetBalance(t *testing.T) {
	node, srv := newFakeNode(t)
	node.reply("eth_getBalance", "0x14d1120d7b160000")
	svc := newTestService(t, srv.URL, 1329)

	bal, err := svc.GetBalance(context.Background(), "", strings.ToLower(holder))
	if err != nil {
		t.Fatalf("get balance: %v", err)
	}
	if bal.Value.String() != "1500000000000000000" {
		t.Fatalf("unexpected wei: %s", bal.Value)
	}
	if bal.Formatted != "1.5" || bal.Symbol != "SEI" || bal.Network != "sei" {
		t.Fatalf("unexpected balance: %+v", bal)
	}
	if bal.Address != holder {
		t.Fatalf("expected checksummed address, got %s", bal.Address)
	}
}

func TestInvalidInputNeverReachesNode(t *testing.T) {
	node, srv := newFakeNode(t)
	svc := newTestService(t, srv.URL, 1329)

	_, err := svc.GetBalance(context.Background(), "sei", "0x1234")
	if contracts.KindOf(err) != contracts.KindInvalidParams {
		t.Fatalf("expected invalid params, got %v", err)
	}
	_, err = svc.GetChainInfo(context.Background(), "ethereum")
	if contracts.KindOf(err) != contracts.KindInvalidParams {
		t.Fatalf("expected invalid params for unknown network, got %v", err)
	}
	if calls := node.called(); len(calls) != 0 {
		t.Fatalf("expected no upstream calls, got %v", calls)
	}
}

func TestGetChainInfo(t *testing.T) {
	node, srv := newFakeNode(t)
	node.reply("eth_chainId", "0x531")
	node.reply("eth_blockNumber", "0x64")
	svc := newTestService(t, srv.URL, 1329)

	info, err := svc.GetChainInfo(context.Background(), "sei")
	if err != nil {
		t.Fatalf("chain info: %v", err)
	}
	if info.ChainID.Int64() != 1329 || info.BlockNumber != 100 || info.RPCURL != srv.URL {
		t.Fatalf("unexpected chain info: %+v", info)
	}
}

func TestNetworkURLsHideCredentials(t *testing.T) {
	node, srv := newFakeNode(t)
	node.reply("eth_chainId", "0x531")
	node.reply("eth_blockNumber", "0x64")
	secretURL := strings.Replace(srv.URL, "http://", "http://user:hunter2@", 1) + "/?apikey=secret"
	svc := newTestService(t, secretURL, 1329)

	info, err := svc.GetChainInfo(context.Background(), "sei")
	if err != nil {
		t.Fatalf("chain info: %v", err)
	}
	nets := svc.SupportedNetworks()
	for _, got := range []string{info.RPCURL, nets[0].RPCURL} {
		if strings.Contains(got, "hunter2") || strings.Contains(got, "apikey") {
			t.Fatalf("credentials leaked in %q", got)
		}
		if got != srv.URL+"/" {
			t.Fatalf("expected %q, got %q", srv.URL+"/", got)
		}
	}
}

func TestIsContract(t *testing.T) {
	node, srv := newFakeNode(t)
	node.reply("eth_getCode", "0x6080")
	svc := newTestService(t, srv.URL, 1329)

	res, err := svc.IsContract(context.Background(), "sei", token)
	if err != nil {
		t.Fatalf("is contract: %v", err)
	}
	if !res.IsContract || res.CodeSize != 2 {
		t.Fatalf("unexpected result: %+v", res)
	}

	node.reply("eth_getCode", "0x")
	res, err = svc.IsContract(context.Background(), "sei", holder)
	if err != nil {
		t.Fatalf("is contract: %v", err)
	}
	if res.IsContract {
		t.Fatalf("expected externally owned account, got %+v", res)
	}
}

func TestEstimateGas(t *testing.T) {
	node, srv := newFakeNode(t)
	node.reply("eth_estimateGas", "0x5208")
	node.reply("eth_gasPrice", "0x3b9aca00")
	svc := newTestService(t, srv.URL, 1329)

	est, err := svc.EstimateGas(context.Background(), "sei", contracts.CallRequest{From: holder, To: token, Value: big.NewInt(1)})
	if err != nil {
		t.Fatalf("estimate gas: %v", err)
	}
	if est.Gas != 21000 || est.GasPrice.Int64() != 1_000_000_000 {
		t.Fatalf("unexpected estimate: %+v", est)
	}
	if est.Fee.String() != "21000000000000" {
		t.Fatalf("unexpected fee: %s", est.Fee)
	}

	_, err = svc.EstimateGas(context.Background(), "sei", contracts.CallRequest{To: token, Data: "zz"})
	if contracts.KindOf(err) != contracts.KindInvalidParams {
		t.Fatalf("expected invalid params for bad data, got %v", err)
	}
}

func TestGetERC20Balance(t *testing.T) {
	node, srv := newFakeNode(t)
	node.replyCalls(t, erc20ABI, map[string][]any{
		"balanceOf": {big.NewInt(2_500_000)},
		"decimals":  {uint8(6)},
		"symbol":    {"USDC"},
	})
	svc := newTestService(t, srv.URL, 1329)

	bal, err := svc.GetERC20Balance(context.Background(), "sei", token, holder)
	if err != nil {
		t.Fatalf("erc20 balance: %v", err)
	}
	if bal.Raw.Int64() != 2_500_000 || bal.Decimals != 6 || bal.Formatted != "2.5" || bal.Symbol != "USDC" {
		t.Fatalf("unexpected balance: %+v", bal)
	}
}

func TestCheckNFTOwnership(t *testing.T) {
	node, srv := newFakeNode(t)
	node.replyCalls(t, erc721ABI, map[string][]any{
		"ownerOf": {common.HexToAddress(holder)},
	})
	svc := newTestService(t, srv.URL, 1329)

	own, err := svc.CheckNFTOwnership(context.Background(), "sei", token, holder, big.NewInt(7))
	if err != nil {
		t.Fatalf("ownership: %v", err)
	}
	if !own.IsOwner || own.ActualOwner != holder {
		t.Fatalf("unexpected ownership: %+v", own)
	}

	other := "0xdbF03B407c01E7cD3CBea99509d93f8DDDC8C6FB"
	own, err = svc.CheckNFTOwnership(context.Background(), "sei", token, other, big.NewInt(7))
	if err != nil {
		t.Fatalf("ownership: %v", err)
	}
	if own.IsOwner {
		t.Fatalf("expected not owner: %+v", own)
	}
}

func TestGetERC721MetadataToleratesOwnerRevert(t *testing.T) {
	node, srv := newFakeNode(t)
	node.replyCalls(t, erc721ABI, map[string][]any{
		"name":     {"Pals"},
		"symbol":   {"PAL"},
		"tokenURI": {"ipfs://pal/7"},
	})
	svc := newTestService(t, srv.URL, 1329)

	meta, err := svc.GetERC721TokenMetadata(context.Background(), "sei", token, big.NewInt(7))
	if err != nil {
		t.Fatalf("metadata: %v", err)
	}
	if meta.Name != "Pals" || meta.Symbol != "PAL" || meta.TokenURI != "ipfs://pal/7" || meta.Owner != "" {
		t.Fatalf("unexpected metadata: %+v", meta)
	}
}

func TestReadContract(t *testing.T) {
	const def = `[{"type":"function","name":"slot","stateMutability":"view",
		"inputs":[{"name":"owner","type":"address"},{"name":"idx","type":"uint8"}],
		"outputs":[{"name":"value","type":"uint256"},{"name":"admin","type":"address"},{"name":"tag","type":"bytes4"}]}]`
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		t.Fatalf("parse abi: %v", err)
	}
	node, srv := newFakeNode(t)
	node.replyCalls(t, parsed, map[string][]any{
		"slot": {big.NewInt(99), common.HexToAddress(holder), [4]byte{0xde, 0xad, 0xbe, 0xef}},
	})
	svc := newTestService(t, srv.URL, 1329)

	res, err := svc.ReadContract(context.Background(), "sei", contracts.ContractRead{
		Address:      token,
		ABI:          json.RawMessage(def),
		FunctionName: "slot",
		Args:         []json.RawMessage{json.RawMessage(`"` + holder + `"`), json.RawMessage(`"3"`)},
	})
	if err != nil {
		t.Fatalf("read contract: %v", err)
	}
	if len(res.Outputs) != 3 {
		t.Fatalf("expected 3 outputs, got %d", len(res.Outputs))
	}
	if v, ok := res.Outputs[0].(*big.Int); !ok || v.Int64() != 99 {
		t.Fatalf("unexpected value output: %#v", res.Outputs[0])
	}
	if res.Outputs[1] != holder {
		t.Fatalf("unexpected admin output: %#v", res.Outputs[1])
	}
	if res.Outputs[2] != "0xdeadbeef" {
		t.Fatalf("unexpected tag output: %#v", res.Outputs[2])
	}
}

func TestReadContractRejectsBadInput(t *testing.T) {
	node, srv := newFakeNode(t)
	svc := newTestService(t, srv.URL, 1329)
	def := json.RawMessage(`[{"type":"function","name":"get","stateMutability":"view","inputs":[{"name":"x","type":"uint8"}],"outputs":[{"name":"","type":"uint256"}]}]`)

	cases := []contracts.ContractRead{
		{Address: token, ABI: json.RawMessage(`{"nope":1}`), FunctionName: "get"},
		{Address: token, ABI: def, FunctionName: "missing"},
		{Address: token, ABI: def, FunctionName: "get"},
		{Address: token, ABI: def, FunctionName: "get", Args: []json.RawMessage{json.RawMessage(`256`)}},
	}
	for i, req := range cases {
		_, err := svc.ReadContract(context.Background(), "sei", req)
		if contracts.KindOf(err) != contracts.KindInvalidParams {
			t.Fatalf("case %d: expected invalid params, got %v", i, err)
		}
	}
	if calls := node.called(); len(calls) != 0 {
		t.Fatalf("expected no upstream calls, got %v", calls)
	}
}
