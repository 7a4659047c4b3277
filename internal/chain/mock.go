package chain

import (
	"encoding/json"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"

	"bridgeWatch/internal/model"
)

// MockProvider is a scripted JSON-RPC node. Responses are keyed by method and
// parameters and served through an in-process RPC server, so a Client built by
// MockProvider.Client exercises the same decoding as a networked one.
// Requests without a scripted response fail.
type MockProvider struct {
	mu        sync.Mutex
	responses map[string]json.RawMessage
	calls     map[string]int
}

func NewMockProvider() *MockProvider {
	return &MockProvider{
		responses: make(map[string]json.RawMessage),
		calls:     make(map[string]int),
	}
}

// Client returns a chain Client connected to the mock.
func (m *MockProvider) Client() *Client {
	server := rpc.NewServer()
	if err := server.RegisterName("eth", &mockEthService{mock: m}); err != nil {
		panic(fmt.Sprintf("register mock eth service: %v", err))
	}
	return NewClientFromRPC(rpc.DialInProc(server))
}

// AddResponse scripts result as the answer to method called with params.
// A nil result is served as JSON null. Later calls replace earlier ones.
func (m *MockProvider) AddResponse(method string, params []interface{}, result interface{}) error {
	key, err := requestKey(method, params)
	if err != nil {
		return err
	}
	enc, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal mock result: %w", err)
	}
	m.mu.Lock()
	m.responses[key] = enc
	m.mu.Unlock()
	return nil
}

// Calls returns how many requests for method were served or rejected.
func (m *MockProvider) Calls(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[method]
}

func (m *MockProvider) SetChainID(id uint64) {
	m.mustAdd("eth_chainId", nil, (*hexutil.Big)(new(big.Int).SetUint64(id)))
}

func (m *MockProvider) SetBlockNumber(n uint64) {
	m.mustAdd("eth_blockNumber", nil, hexutil.Uint64(n))
}

// SetFinalizedBlock scripts the "finalized" block with number n.
func (m *MockProvider) SetFinalizedBlock(n uint64) {
	m.mustAdd("eth_getBlockByNumber", []interface{}{FinalizedTag, false}, rpcBlock{Number: hexUint64(&n)})
}

// SetFinalizedBlockRef scripts the "finalized" block verbatim; nil serves null.
func (m *MockProvider) SetFinalizedBlockRef(block *model.BlockRef) {
	var result interface{}
	if block != nil {
		result = rpcBlock{Number: hexUint64(block.Number), Hash: block.Hash}
	}
	m.mustAdd("eth_getBlockByNumber", []interface{}{FinalizedTag, false}, result)
}

// SetReceipt scripts the receipt for txHash; nil serves null.
func (m *MockProvider) SetReceipt(txHash common.Hash, receipt *model.Receipt) {
	var result interface{}
	if receipt != nil {
		result = receiptFromModel(*receipt)
	}
	m.mustAdd("eth_getTransactionReceipt", []interface{}{txHash}, result)
}

// SetLogs scripts the eth_getLogs answer for address over [fromBlock, toBlock].
func (m *MockProvider) SetLogs(address common.Address, fromBlock, toBlock uint64, logs []model.RawLog) {
	out := make([]rpcLog, 0, len(logs))
	for _, l := range logs {
		out = append(out, logFromModel(l))
	}
	m.mustAdd("eth_getLogs", []interface{}{filterArg(address, fromBlock, toBlock)}, out)
}

func (m *MockProvider) mustAdd(method string, params []interface{}, result interface{}) {
	if err := m.AddResponse(method, params, result); err != nil {
		panic(err)
	}
}

func (m *MockProvider) respond(method string, params ...interface{}) (json.RawMessage, error) {
	key, err := requestKey(method, params)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[method]++
	res, ok := m.responses[key]
	if !ok {
		return nil, fmt.Errorf("mock: no response for %s", key)
	}
	return res, nil
}

// requestKey normalizes params through a JSON round trip so that maps and raw
// messages compare by content.
func requestKey(method string, params []interface{}) (string, error) {
	if params == nil {
		params = []interface{}{}
	}
	enc, err := json.Marshal(params)
	if err != nil {
		return "", fmt.Errorf("marshal mock params: %w", err)
	}
	var generic interface{}
	if err := json.Unmarshal(enc, &generic); err != nil {
		return "", fmt.Errorf("normalize mock params: %w", err)
	}
	norm, err := json.Marshal(generic)
	if err != nil {
		return "", fmt.Errorf("normalize mock params: %w", err)
	}
	return method + " " + string(norm), nil
}

type mockEthService struct {
	mock *MockProvider
}

func (s *mockEthService) ChainId() (json.RawMessage, error) {
	return s.mock.respond("eth_chainId")
}

func (s *mockEthService) BlockNumber() (json.RawMessage, error) {
	return s.mock.respond("eth_blockNumber")
}

func (s *mockEthService) GetTransactionReceipt(txHash common.Hash) (json.RawMessage, error) {
	return s.mock.respond("eth_getTransactionReceipt", txHash)
}

func (s *mockEthService) GetLogs(filter json.RawMessage) (json.RawMessage, error) {
	return s.mock.respond("eth_getLogs", filter)
}

func (s *mockEthService) GetBlockByNumber(tag string, fullTx bool) (json.RawMessage, error) {
	return s.mock.respond("eth_getBlockByNumber", tag, fullTx)
}
