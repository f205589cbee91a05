package bitcoin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/walletcore/chainsync/internal/metrics"
	"github.com/walletcore/chainsync/internal/synerr"
)

// NodeRPC is the node RPC client contract (C3) consumed by the
// synchronizer. Every method wraps its failure in a *synerr.RpcError.
type NodeRPC interface {
	GetInfo(ctx context.Context) (Info, error)
	GetBlockCount(ctx context.Context) (int64, error)
	GetBlockHash(ctx context.Context, height int64) (string, error)
	GetBlock(ctx context.Context, hash string) (Block, error)
	GetRawTransaction(ctx context.Context, txID string) (string, error)
	GetRawTransactions(ctx context.Context, txIDs []string) ([]string, error)
	GetRawMempool(ctx context.Context) ([]string, error)
	SendRawTransaction(ctx context.Context, rawHex string) (string, error)
	EstimateFee(ctx context.Context, numBlocks int) (float64, error)
}

// RPCClient implements NodeRPC using JSON-RPC 1.0 over HTTP, the
// interface bitcoind itself exposes. Outbound calls are throttled by a
// token-bucket limiter so a stalled node cannot be hammered by a tight
// retry loop in the main iteration (spec §9 main-loop error policy).
type RPCClient struct {
	url      string
	user     string
	password string
	client   *http.Client
	limiter  *rate.Limiter
	idSeq    atomic.Int64
}

// NewRPCClient creates a new Bitcoin JSON-RPC client. ratePerSecond
// bounds outbound requests; burst allows that many calls through before
// throttling begins.
func NewRPCClient(url, user, password string, ratePerSecond float64, burst int) *RPCClient {
	return &RPCClient{
		url:      url,
		user:     user,
		password: password,
		client:   &http.Client{Timeout: 30 * time.Second},
		limiter:  rate.NewLimiter(rate.Limit(ratePerSecond), burst),
	}
}

// call makes a single JSON-RPC call and returns the raw result.
func (c *RPCClient) call(ctx context.Context, method string, params ...interface{}) (json.RawMessage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &synerr.RpcError{Method: method, Err: err}
	}

	req := RPCRequest{
		JSONRPC: "1.0",
		ID:      c.idSeq.Add(1),
		Method:  method,
		Params:  params,
	}

	metrics.RpcRequestsTotal.WithLabelValues(method).Inc()
	start := time.Now()
	result, err := c.do(ctx, req)
	metrics.RpcLatencySeconds.WithLabelValues(method).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.RpcErrorsTotal.WithLabelValues(method).Inc()
		return nil, &synerr.RpcError{Method: method, Err: err}
	}
	return result, nil
}

func (c *RPCClient) do(ctx context.Context, req RPCRequest) (json.RawMessage, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.SetBasicAuth(c.user, c.password)

	httpResp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var rpcResp RPCResponse
	if err := json.Unmarshal(respBody, &rpcResp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w (body: %s)", err, string(respBody))
	}
	if rpcResp.Error != nil {
		return nil, rpcResp.Error
	}
	return rpcResp.Result, nil
}

// batchCall makes one JSON-RPC request carrying a batch of sub-requests
// and returns their results in the same order. Used for the batched
// getrawtransaction form (spec §4.2 getFullBlock).
func (c *RPCClient) batchCall(ctx context.Context, reqs []RPCRequest) ([]json.RawMessage, error) {
	const batchMethod = "batch"

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &synerr.RpcError{Method: batchMethod, Err: err}
	}

	metrics.RpcRequestsTotal.WithLabelValues(batchMethod).Inc()
	start := time.Now()
	results, err := c.doBatch(ctx, reqs)
	metrics.RpcLatencySeconds.WithLabelValues(batchMethod).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.RpcErrorsTotal.WithLabelValues(batchMethod).Inc()
		return nil, err
	}
	return results, nil
}

func (c *RPCClient) doBatch(ctx context.Context, reqs []RPCRequest) ([]json.RawMessage, error) {
	body, err := json.Marshal(reqs)
	if err != nil {
		return nil, &synerr.RpcError{Method: "batch", Err: fmt.Errorf("marshal request: %w", err)}
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.url, bytes.NewReader(body))
	if err != nil {
		return nil, &synerr.RpcError{Method: "batch", Err: fmt.Errorf("create request: %w", err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.SetBasicAuth(c.user, c.password)

	httpResp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, &synerr.RpcError{Method: "batch", Err: fmt.Errorf("request failed: %w", err)}
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, &synerr.RpcError{Method: "batch", Err: fmt.Errorf("read response: %w", err)}
	}

	var rpcResps []RPCResponse
	if err := json.Unmarshal(respBody, &rpcResps); err != nil {
		return nil, &synerr.RpcError{Method: "batch", Err: fmt.Errorf("unmarshal response: %w", err)}
	}

	byID := make(map[int64]RPCResponse, len(rpcResps))
	for _, resp := range rpcResps {
		if id, ok := resp.ID.(float64); ok {
			byID[int64(id)] = resp
		}
	}

	results := make([]json.RawMessage, len(reqs))
	for i, r := range reqs {
		id, _ := r.ID.(int64)
		resp, ok := byID[id]
		if !ok {
			return nil, &synerr.RpcError{Method: "batch", Err: fmt.Errorf("no response for request id %d", id)}
		}
		if resp.Error != nil {
			return nil, &synerr.RpcError{Method: "batch", Err: resp.Error}
		}
		results[i] = resp.Result
	}
	return results, nil
}

// GetInfo returns the node's network flag (spec §6: used to validate
// the node matches the configured network at initialization).
func (c *RPCClient) GetInfo(ctx context.Context) (Info, error) {
	result, err := c.call(ctx, "getinfo")
	if err != nil {
		return Info{}, err
	}
	var info Info
	if err := json.Unmarshal(result, &info); err != nil {
		return Info{}, &synerr.RpcError{Method: "getinfo", Err: err}
	}
	return info, nil
}

// GetBlockCount returns the node's current best height.
func (c *RPCClient) GetBlockCount(ctx context.Context) (int64, error) {
	result, err := c.call(ctx, "getblockcount")
	if err != nil {
		return 0, err
	}
	var height int64
	if err := json.Unmarshal(result, &height); err != nil {
		return 0, &synerr.RpcError{Method: "getblockcount", Err: err}
	}
	return height, nil
}

// GetBlockHash returns the hash of the block at height.
func (c *RPCClient) GetBlockHash(ctx context.Context, height int64) (string, error) {
	result, err := c.call(ctx, "getblockhash", height)
	if err != nil {
		return "", err
	}
	var hash string
	if err := json.Unmarshal(result, &hash); err != nil {
		return "", &synerr.RpcError{Method: "getblockhash", Err: err}
	}
	return hash, nil
}

// GetBlock returns block metadata and its ordered txid list.
func (c *RPCClient) GetBlock(ctx context.Context, hash string) (Block, error) {
	result, err := c.call(ctx, "getblock", hash)
	if err != nil {
		return Block{}, err
	}
	var block Block
	if err := json.Unmarshal(result, &block); err != nil {
		return Block{}, &synerr.RpcError{Method: "getblock", Err: err}
	}
	return block, nil
}

// GetRawTransaction returns the raw hex encoding of txID.
func (c *RPCClient) GetRawTransaction(ctx context.Context, txID string) (string, error) {
	result, err := c.call(ctx, "getrawtransaction", txID)
	if err != nil {
		return "", err
	}
	var raw string
	if err := json.Unmarshal(result, &raw); err != nil {
		return "", &synerr.RpcError{Method: "getrawtransaction", Err: err}
	}
	return raw, nil
}

// GetRawTransactions fetches every txID in one batched RPC request and
// returns their raw hex encodings in the same order (spec §4.2: one
// batched getrawtransaction per block).
func (c *RPCClient) GetRawTransactions(ctx context.Context, txIDs []string) ([]string, error) {
	if len(txIDs) == 0 {
		return nil, nil
	}
	reqs := make([]RPCRequest, len(txIDs))
	for i, txID := range txIDs {
		reqs[i] = RPCRequest{
			JSONRPC: "1.0",
			ID:      c.idSeq.Add(1),
			Method:  "getrawtransaction",
			Params:  []interface{}{txID},
		}
	}

	results, err := c.batchCall(ctx, reqs)
	if err != nil {
		return nil, err
	}

	raws := make([]string, len(results))
	for i, result := range results {
		if err := json.Unmarshal(result, &raws[i]); err != nil {
			return nil, &synerr.RpcError{Method: "getrawtransaction", Err: err}
		}
	}
	return raws, nil
}

// GetRawMempool returns the txids of every transaction the node's
// mempool currently holds.
func (c *RPCClient) GetRawMempool(ctx context.Context) ([]string, error) {
	result, err := c.call(ctx, "getrawmempool")
	if err != nil {
		return nil, err
	}
	var txIDs []string
	if err := json.Unmarshal(result, &txIDs); err != nil {
		return nil, &synerr.RpcError{Method: "getrawmempool", Err: err}
	}
	return txIDs, nil
}

// SendRawTransaction broadcasts rawHex and returns its txid.
func (c *RPCClient) SendRawTransaction(ctx context.Context, rawHex string) (string, error) {
	result, err := c.call(ctx, "sendrawtransaction", rawHex)
	if err != nil {
		return "", err
	}
	var txID string
	if err := json.Unmarshal(result, &txID); err != nil {
		return "", &synerr.RpcError{Method: "sendrawtransaction", Err: err}
	}
	return txID, nil
}

// EstimateFee returns the node's fee estimate for confirmation within
// numBlocks blocks.
func (c *RPCClient) EstimateFee(ctx context.Context, numBlocks int) (float64, error) {
	result, err := c.call(ctx, "estimatefee", numBlocks)
	if err != nil {
		return 0, err
	}
	var fee float64
	if err := json.Unmarshal(result, &fee); err != nil {
		return 0, &synerr.RpcError{Method: "estimatefee", Err: err}
	}
	return fee, nil
}

var _ NodeRPC = (*RPCClient)(nil)
