package soroban

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/stellar/go/txnbuild"
	"github.com/stellar/go/xdr"
)

// RPCClient Soroban JSON-RPC 客户端
type RPCClient struct {
	endpoint string
	client   *http.Client
	nextID   atomic.Int64
}

// NewRPCClient 创建 Soroban RPC 客户端
func NewRPCClient(endpoint string, timeout time.Duration) *RPCClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &RPCClient{
		endpoint: endpoint,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// Endpoint 返回当前 RPC 地址
func (c *RPCClient) Endpoint() string {
	return c.endpoint
}

// RPCRequest RPC 请求（Soroban RPC 使用对象形式的 params）
type RPCRequest struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
	ID      int64       `json:"id"`
}

// RPCResponse RPC 响应
type RPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
	ID      int64           `json:"id"`
}

// RPCError RPC 错误
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("RPC error: %s (code: %d)", e.Message, e.Code)
}

// call 执行 RPC 调用并将 result 解码到 out
func (c *RPCClient) call(ctx context.Context, method string, params interface{}, out interface{}) error {
	req := &RPCRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      c.nextID.Add(1),
	}

	reqBody, err := json.Marshal(req)
	if err != nil {
		return errors.Wrap(err, "failed to marshal RPC request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return errors.Wrap(err, "failed to create HTTP request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return errors.Wrap(err, "failed to execute HTTP request")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return errors.Errorf("RPC endpoint returned HTTP %d", resp.StatusCode)
	}

	var rpcResp RPCResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return errors.Wrap(err, "failed to decode RPC response")
	}

	if rpcResp.Error != nil {
		return rpcResp.Error
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(rpcResp.Result, out); err != nil {
		return errors.Wrapf(err, "failed to unmarshal %s result", method)
	}
	return nil
}

// SimulateTransaction 模拟交易，返回鉴权条目与资源估算
func (c *RPCClient) SimulateTransaction(ctx context.Context, txBase64 string) (*SimulateTransactionResponse, error) {
	var result SimulateTransactionResponse
	if err := c.call(ctx, "simulateTransaction", map[string]string{"transaction": txBase64}, &result); err != nil {
		return nil, errors.Wrap(err, "failed to call simulateTransaction")
	}
	return &result, nil
}

// SendTransaction 提交已签名交易
func (c *RPCClient) SendTransaction(ctx context.Context, txBase64 string) (*SendTransactionResponse, error) {
	var result SendTransactionResponse
	if err := c.call(ctx, "sendTransaction", map[string]string{"transaction": txBase64}, &result); err != nil {
		return nil, errors.Wrap(err, "failed to call sendTransaction")
	}
	return &result, nil
}

// GetTransaction 按哈希查询交易状态
func (c *RPCClient) GetTransaction(ctx context.Context, hash string) (*GetTransactionResponse, error) {
	var result GetTransactionResponse
	if err := c.call(ctx, "getTransaction", map[string]string{"hash": hash}, &result); err != nil {
		return nil, errors.Wrap(err, "failed to call getTransaction")
	}
	return &result, nil
}

// GetLedgerEntries 查询账本条目
func (c *RPCClient) GetLedgerEntries(ctx context.Context, keys ...xdr.LedgerKey) (*GetLedgerEntriesResponse, error) {
	encoded := make([]string, 0, len(keys))
	for _, key := range keys {
		k, err := xdr.MarshalBase64(key)
		if err != nil {
			return nil, errors.Wrap(err, "failed to encode ledger key")
		}
		encoded = append(encoded, k)
	}

	var result GetLedgerEntriesResponse
	if err := c.call(ctx, "getLedgerEntries", map[string][]string{"keys": encoded}, &result); err != nil {
		return nil, errors.Wrap(err, "failed to call getLedgerEntries")
	}
	return &result, nil
}

// GetAccount 读取账户当前序列号（用于构建交易）
func (c *RPCClient) GetAccount(ctx context.Context, address string) (*txnbuild.SimpleAccount, error) {
	accountID, err := xdr.AddressToAccountId(address)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid account address %s", address)
	}

	key := xdr.LedgerKey{
		Type:    xdr.LedgerEntryTypeAccount,
		Account: &xdr.LedgerKeyAccount{AccountId: accountID},
	}

	resp, err := c.GetLedgerEntries(ctx, key)
	if err != nil {
		return nil, err
	}
	if len(resp.Entries) == 0 {
		return nil, errors.Wrapf(ErrAccountNotFound, "account %s", address)
	}

	var data xdr.LedgerEntryData
	if err := xdr.SafeUnmarshalBase64(resp.Entries[0].XDR, &data); err != nil {
		return nil, errors.Wrap(err, "failed to decode account entry")
	}
	if data.Account == nil {
		return nil, errors.Errorf("ledger entry for %s is not an account", address)
	}

	account := txnbuild.NewSimpleAccount(address, int64(data.Account.SeqNum))
	return &account, nil
}
