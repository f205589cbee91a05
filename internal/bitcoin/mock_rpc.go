package bitcoin

import (
	"context"
	"sync"
)

// MockRPC implements NodeRPC for testing the synchronizer without a
// live bitcoind.
type MockRPC struct {
	mu sync.Mutex

	Info        Info
	BlockCount  int64
	BlockHashes map[int64]string
	Blocks      map[string]Block
	RawTxs      map[string]string
	Mempool     []string
	SentRaw     []string
	FeeEstimate float64

	InfoErr               error
	GetBlockCountErr      error
	GetBlockHashErr       error
	GetBlockErr           error
	GetRawTransactionErr  error
	GetRawMempoolErr      error
	SendRawTransactionErr error
	EstimateFeeErr        error
}

// NewMockRPC creates a mock Bitcoin RPC client with empty collections,
// ready for a test to populate.
func NewMockRPC() *MockRPC {
	return &MockRPC{
		BlockHashes: make(map[int64]string),
		Blocks:      make(map[string]Block),
		RawTxs:      make(map[string]string),
	}
}

func (m *MockRPC) GetInfo(_ context.Context) (Info, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.InfoErr != nil {
		return Info{}, m.InfoErr
	}
	return m.Info, nil
}

func (m *MockRPC) GetBlockCount(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetBlockCountErr != nil {
		return 0, m.GetBlockCountErr
	}
	return m.BlockCount, nil
}

func (m *MockRPC) GetBlockHash(_ context.Context, height int64) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetBlockHashErr != nil {
		return "", m.GetBlockHashErr
	}
	return m.BlockHashes[height], nil
}

func (m *MockRPC) GetBlock(_ context.Context, hash string) (Block, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetBlockErr != nil {
		return Block{}, m.GetBlockErr
	}
	return m.Blocks[hash], nil
}

func (m *MockRPC) GetRawTransaction(_ context.Context, txID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetRawTransactionErr != nil {
		return "", m.GetRawTransactionErr
	}
	return m.RawTxs[txID], nil
}

func (m *MockRPC) GetRawTransactions(_ context.Context, txIDs []string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetRawTransactionErr != nil {
		return nil, m.GetRawTransactionErr
	}
	raws := make([]string, len(txIDs))
	for i, txID := range txIDs {
		raws[i] = m.RawTxs[txID]
	}
	return raws, nil
}

func (m *MockRPC) GetRawMempool(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetRawMempoolErr != nil {
		return nil, m.GetRawMempoolErr
	}
	return m.Mempool, nil
}

func (m *MockRPC) SendRawTransaction(_ context.Context, rawHex string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SendRawTransactionErr != nil {
		return "", m.SendRawTransactionErr
	}
	m.SentRaw = append(m.SentRaw, rawHex)
	return rawHex, nil
}

func (m *MockRPC) EstimateFee(_ context.Context, _ int) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.EstimateFeeErr != nil {
		return 0, m.EstimateFeeErr
	}
	return m.FeeEstimate, nil
}

var _ NodeRPC = (*MockRPC)(nil)
