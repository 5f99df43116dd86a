// Package chainclient is an HTTP JSON-RPC client for Klaytn-family
// endpoints. It exposes the native operations the provider's translation
// table needs, plus a raw escape hatch for arbitrary methods.
package chainclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"github.com/erc7824/walletbridge/pkg/jsonrpc"
	"github.com/erc7824/walletbridge/pkg/log"
	"github.com/erc7824/walletbridge/pkg/provider"
)

// Native method names on the Klaytn endpoint.
const (
	nativeSign             = "klay_sign"
	nativeRecover          = "personal_ecRecover"
	nativeSignTransaction  = "klay_signTransaction"
	nativeSendTransaction  = "klay_sendTransaction"
	nativeGasPrice         = "klay_gasPrice"
	nativeBlockNumber      = "klay_blockNumber"
	nativeGetBlockByNumber = "klay_getBlockByNumber"
	nativeGetTxReceipt     = "klay_getTransactionReceipt"
)

const defaultRequestTimeout = 30 * time.Second

// Client talks JSON-RPC over HTTP to a single endpoint. It is safe for
// concurrent use; request ids are allocated from an atomic counter.
type Client struct {
	endpoint string
	hc       *http.Client
	lastID   atomic.Uint64
	lg       log.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.hc = hc }
}

// WithLogger attaches a logger. Defaults to a noop logger.
func WithLogger(lg log.Logger) Option {
	return func(c *Client) { c.lg = lg.WithName("chainclient") }
}

// New creates a Client for the given endpoint URL.
func New(endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint: endpoint,
		hc:       &http.Client{Timeout: defaultRequestTimeout},
		lg:       log.NewNoop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// wireResponse keeps the result undecoded so typed callers can pick their
// own shape.
type wireResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *jsonrpc.Error  `json:"error,omitempty"`
}

// RawCall performs one JSON-RPC round trip and returns the undecoded
// result. An error object in the response body is returned as a
// *jsonrpc.Error.
func (c *Client) RawCall(ctx context.Context, method string, params any) (json.RawMessage, error) {
	req := jsonrpc.NewRequest(c.lastID.Add(1), method, params)
	body, err := json.Marshal(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "failed to build request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	started := time.Now()
	httpRes, err := c.hc.Do(httpReq)
	if err != nil {
		return nil, errors.Wrapf(err, "rpc call %s failed", method)
	}
	defer httpRes.Body.Close()

	resBody, err := io.ReadAll(httpRes.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read response body")
	}
	if httpRes.StatusCode != http.StatusOK {
		return nil, errors.Errorf("rpc call %s returned status %d", method, httpRes.StatusCode)
	}

	var wire wireResponse
	if err := json.Unmarshal(resBody, &wire); err != nil {
		return nil, errors.Wrap(err, "failed to decode response")
	}
	c.lg.Debug("rpc call completed", "method", method, "durationMs", time.Since(started).Milliseconds())

	if wire.Error != nil {
		return nil, wire.Error
	}
	return wire.Result, nil
}

// call is RawCall plus result decoding into out. A JSON null result leaves
// out untouched.
func (c *Client) call(ctx context.Context, method string, params any, out any) error {
	raw, err := c.RawCall(ctx, method, params)
	if err != nil {
		return err
	}
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return errors.Wrapf(err, "failed to decode %s result", method)
	}
	return nil
}

// SignMessage asks the endpoint to sign a personal message for the given
// address.
func (c *Client) SignMessage(ctx context.Context, address, message string) (string, error) {
	var signature string
	err := c.call(ctx, nativeSign, []any{address, message}, &signature)
	return signature, err
}

// RecoverSigner recovers the address that produced a personal-message
// signature.
func (c *Client) RecoverSigner(ctx context.Context, message, signature string) (string, error) {
	var address string
	err := c.call(ctx, nativeRecover, []any{message, signature}, &address)
	return address, err
}

// SignTransaction signs the transaction without submitting it.
func (c *Client) SignTransaction(ctx context.Context, tx provider.TxParams) (json.RawMessage, error) {
	return c.RawCall(ctx, nativeSignTransaction, []any{tx})
}

// SendTransaction submits the transaction and returns its receipt handle.
// Endpoints answer this call with either a bare hash string or an object
// carrying a transactionHash field; both decode into the same result.
func (c *Client) SendTransaction(ctx context.Context, tx provider.TxParams) (*provider.TransactionResult, error) {
	raw, err := c.RawCall(ctx, nativeSendTransaction, []any{tx})
	if err != nil {
		return nil, err
	}

	var hash string
	if json.Unmarshal(raw, &hash) == nil {
		return &provider.TransactionResult{TransactionHash: hash}, nil
	}
	var result provider.TransactionResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, errors.Wrap(err, "failed to decode send transaction result")
	}
	return &result, nil
}

// GasPrice returns the current gas price as a hex quantity.
func (c *Client) GasPrice(ctx context.Context) (string, error) {
	var price string
	err := c.call(ctx, nativeGasPrice, []any{}, &price)
	return price, err
}

// BlockNumber returns the latest block number as a hex quantity.
func (c *Client) BlockNumber(ctx context.Context) (string, error) {
	var number string
	err := c.call(ctx, nativeBlockNumber, []any{}, &number)
	return number, err
}

// BlockByNumber fetches a block by number or tag. fullTxs selects full
// transaction objects over hashes.
func (c *Client) BlockByNumber(ctx context.Context, number string, fullTxs bool) (json.RawMessage, error) {
	return c.RawCall(ctx, nativeGetBlockByNumber, []any{number, fullTxs})
}

// TransactionReceipt fetches the receipt of a mined transaction. The
// result is null for pending or unknown transactions.
func (c *Client) TransactionReceipt(ctx context.Context, txHash string) (json.RawMessage, error) {
	return c.RawCall(ctx, nativeGetTxReceipt, []any{txHash})
}
