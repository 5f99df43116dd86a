package provider

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erc7824/walletbridge/pkg/jsonrpc"
)

// dispatchSync runs a request through the full pipeline and waits for the
// callback to settle.
func dispatchSync(t *testing.T, p *Provider, req jsonrpc.Request) (*jsonrpc.Response, error) {
	t.Helper()

	type outcome struct {
		res *jsonrpc.Response
		err error
	}
	settled := make(chan outcome, 1)
	p.SendAsync(context.Background(), req, func(err error, res *jsonrpc.Response) {
		settled <- outcome{res: res, err: err}
	})
	o := <-settled
	return o.res, o.err
}

func TestTranslatedMethods(t *testing.T) {
	t.Run("eth_sign maps to the native signing call", func(t *testing.T) {
		chain := &mockChainClient{
			signMessageFn: func(ctx context.Context, address, message string) (string, error) {
				assert.Equal(t, "0xabc", address)
				assert.Equal(t, "hello", message)
				return "0xsignature", nil
			},
		}
		p := newTestProvider(t, Options{ChainClient: chain})

		res, err := dispatchSync(t, p, jsonrpc.NewRequest(1, "eth_sign", []any{"0xabc", "hello"}))
		require.NoError(t, err)
		assert.Equal(t, "0xsignature", res.Result)
	})

	t.Run("eth_sign rejects missing params", func(t *testing.T) {
		p := newTestProvider(t, Options{})

		_, err := dispatchSync(t, p, jsonrpc.NewRequest(1, "eth_sign", []any{"0xabc"}))
		require.Error(t, err)
		assert.Equal(t, jsonrpc.CodeInvalidParams, jsonrpc.AsError(err).Code)
	})

	t.Run("personal_ecRecover maps to signer recovery", func(t *testing.T) {
		chain := &mockChainClient{
			recoverSignerFn: func(ctx context.Context, message, signature string) (string, error) {
				assert.Equal(t, "hello", message)
				assert.Equal(t, "0xsig", signature)
				return "0xabc", nil
			},
		}
		p := newTestProvider(t, Options{ChainClient: chain})

		res, err := dispatchSync(t, p, jsonrpc.NewRequest(1, "personal_ecRecover", []any{"hello", "0xsig"}))
		require.NoError(t, err)
		assert.Equal(t, "0xabc", res.Result)
	})

	t.Run("eth_signTransaction forwards the transaction object", func(t *testing.T) {
		chain := &mockChainClient{
			signTxFn: func(ctx context.Context, tx TxParams) (json.RawMessage, error) {
				assert.Equal(t, "0x2", tx["to"])
				return json.RawMessage(`{"raw":"0xdead"}`), nil
			},
		}
		p := newTestProvider(t, Options{ChainClient: chain})

		res, err := dispatchSync(t, p, jsonrpc.NewRequest(1, "eth_signTransaction", []any{map[string]any{"to": "0x2"}}))
		require.NoError(t, err)
		assert.Equal(t, json.RawMessage(`{"raw":"0xdead"}`), res.Result)
	})

	t.Run("eth_sendTransaction unwraps the transaction hash", func(t *testing.T) {
		chain := &mockChainClient{
			sendTxFn: func(ctx context.Context, tx TxParams) (*TransactionResult, error) {
				return &TransactionResult{TransactionHash: "0xhash"}, nil
			},
		}
		p := newTestProvider(t, Options{ChainClient: chain})

		res, err := dispatchSync(t, p, jsonrpc.NewRequest(1, "eth_sendTransaction", []any{map[string]any{"to": "0x2"}}))
		require.NoError(t, err)
		assert.Equal(t, "0xhash", res.Result)
	})

	t.Run("eth_sendRawTransaction injects the fee payer", func(t *testing.T) {
		wallet := newMockWallet()
		wallet.selected = "0xfeepayer"
		var captured TxParams
		chain := &mockChainClient{
			sendTxFn: func(ctx context.Context, tx TxParams) (*TransactionResult, error) {
				captured = tx
				return &TransactionResult{TransactionHash: "0xhash"}, nil
			},
		}
		p := newTestProvider(t, Options{Wallet: wallet, ChainClient: chain})

		res, err := dispatchSync(t, p, jsonrpc.NewRequest(1, "eth_sendRawTransaction", []any{"0xrawtx"}))
		require.NoError(t, err)
		assert.Equal(t, "0xhash", res.Result)
		assert.Equal(t, "0xrawtx", captured["senderRawTransaction"])
		assert.Equal(t, "0xfeepayer", captured["feePayer"])
	})

	t.Run("eth_getBlockByNumber forwards number and flag", func(t *testing.T) {
		chain := &mockChainClient{
			blockByNumberFn: func(ctx context.Context, number string, fullTxs bool) (json.RawMessage, error) {
				assert.Equal(t, "latest", number)
				assert.True(t, fullTxs)
				return json.RawMessage(`{"number":"0x10"}`), nil
			},
		}
		p := newTestProvider(t, Options{ChainClient: chain})

		res, err := dispatchSync(t, p, jsonrpc.NewRequest(1, "eth_getBlockByNumber", []any{"latest", true}))
		require.NoError(t, err)
		assert.Equal(t, json.RawMessage(`{"number":"0x10"}`), res.Result)
	})

	t.Run("eth_getTransactionReceipt forwards the hash", func(t *testing.T) {
		chain := &mockChainClient{
			transactionRcptFn: func(ctx context.Context, txHash string) (json.RawMessage, error) {
				assert.Equal(t, "0xhash", txHash)
				return json.RawMessage(`null`), nil
			},
		}
		p := newTestProvider(t, Options{ChainClient: chain})

		_, err := dispatchSync(t, p, jsonrpc.NewRequest(1, "eth_getTransactionReceipt", []any{"0xhash"}))
		require.NoError(t, err)
	})
}

func TestUserRejection(t *testing.T) {
	rejectionMessages := []string{
		"User denied message signature",
		"the request was rejected",
		"DENIED",
	}

	for _, msg := range rejectionMessages {
		t.Run(msg, func(t *testing.T) {
			chain := &mockChainClient{
				signTxFn: func(ctx context.Context, tx TxParams) (json.RawMessage, error) {
					return nil, jsonrpc.Internalf("%s", msg)
				},
			}
			p := newTestProvider(t, Options{ChainClient: chain})

			_, err := dispatchSync(t, p, jsonrpc.NewRequest(1, "eth_signTransaction", []any{map[string]any{}}))
			require.Error(t, err)
			rpcErr := jsonrpc.AsError(err)
			assert.Equal(t, jsonrpc.CodeUserRejected, rpcErr.Code)
			assert.Equal(t, "user rejected the request", rpcErr.Message)
		})
	}

	t.Run("other failures keep their message", func(t *testing.T) {
		chain := &mockChainClient{
			signTxFn: func(ctx context.Context, tx TxParams) (json.RawMessage, error) {
				return nil, jsonrpc.Internalf("nonce too low")
			},
		}
		p := newTestProvider(t, Options{ChainClient: chain})

		_, err := dispatchSync(t, p, jsonrpc.NewRequest(1, "eth_signTransaction", []any{map[string]any{}}))
		require.Error(t, err)
		rpcErr := jsonrpc.AsError(err)
		assert.Equal(t, jsonrpc.CodeInternal, rpcErr.Code)
		assert.Contains(t, rpcErr.Message, "nonce too low")
	})

	t.Run("raw transaction submission skips the rejection heuristic", func(t *testing.T) {
		chain := &mockChainClient{
			sendTxFn: func(ctx context.Context, tx TxParams) (*TransactionResult, error) {
				return nil, jsonrpc.Internalf("submission denied by pool")
			},
		}
		p := newTestProvider(t, Options{ChainClient: chain})

		_, err := dispatchSync(t, p, jsonrpc.NewRequest(1, "eth_sendRawTransaction", []any{"0xraw"}))
		require.Error(t, err)
		rpcErr := jsonrpc.AsError(err)
		assert.Equal(t, jsonrpc.CodeInternal, rpcErr.Code)
		assert.Contains(t, rpcErr.Message, "denied by pool")
	})
}

func TestRemoteCall(t *testing.T) {
	t.Run("forwards under the native method with two params", func(t *testing.T) {
		wallet := newMockWallet()
		var captured jsonrpc.Request
		wallet.sendAsyncFn = func(req jsonrpc.Request, callback WalletCallback) {
			captured = req
			res := jsonrpc.NewResponse(req.ID, "0xresult")
			callback(nil, &res)
		}
		p := newTestProvider(t, Options{Wallet: wallet})

		res, err := dispatchSync(t, p, jsonrpc.NewRequest(1, "eth_call", []any{
			map[string]any{"to": "0x2"}, "latest", "extra",
		}))
		require.NoError(t, err)
		assert.Equal(t, "0xresult", res.Result)
		assert.Equal(t, "klay_call", captured.Method)
		require.Len(t, captured.Params, 2)
	})

	t.Run("falsy result fails even with an empty error argument", func(t *testing.T) {
		wallet := newMockWallet()
		wallet.sendAsyncFn = func(req jsonrpc.Request, callback WalletCallback) {
			res := jsonrpc.NewResponse(req.ID, "")
			callback(nil, &res)
		}
		p := newTestProvider(t, Options{Wallet: wallet})

		_, err := dispatchSync(t, p, jsonrpc.NewRequest(1, "eth_call", []any{map[string]any{"to": "0x2"}, "latest"}))
		require.Error(t, err)
		assert.Equal(t, jsonrpc.CodeInternal, jsonrpc.AsError(err).Code)
	})

	t.Run("native error is propagated", func(t *testing.T) {
		wallet := newMockWallet()
		wallet.sendAsyncFn = func(req jsonrpc.Request, callback WalletCallback) {
			res := jsonrpc.NewErrorResponse(req.ID, jsonrpc.Errorf(-32000, "execution reverted"))
			callback(nil, &res)
		}
		p := newTestProvider(t, Options{Wallet: wallet})

		_, err := dispatchSync(t, p, jsonrpc.NewRequest(1, "eth_call", []any{map[string]any{"to": "0x2"}, "latest"}))
		require.Error(t, err)
		rpcErr := jsonrpc.AsError(err)
		assert.Equal(t, -32000, rpcErr.Code)
		assert.Contains(t, rpcErr.Message, "reverted")
	})
}

func TestPassthrough(t *testing.T) {
	t.Run("unmapped methods go to the wallet verbatim", func(t *testing.T) {
		wallet := newMockWallet()
		var captured jsonrpc.Request
		wallet.sendAsyncFn = func(req jsonrpc.Request, callback WalletCallback) {
			captured = req
			res := jsonrpc.NewResponse(req.ID, "0x1")
			callback(nil, &res)
		}
		p := newTestProvider(t, Options{Wallet: wallet})

		res, err := dispatchSync(t, p, jsonrpc.NewRequest(3, "klay_getBalance", []any{"0xabc", "latest"}))
		require.NoError(t, err)
		assert.Equal(t, "0x1", res.Result)
		assert.Equal(t, "klay_getBalance", captured.Method)
		assert.Equal(t, uint64(3), res.ID)
	})

	t.Run("wallet failures are normalized", func(t *testing.T) {
		wallet := newMockWallet()
		wallet.sendAsyncFn = func(req jsonrpc.Request, callback WalletCallback) {
			callback(jsonrpc.Errorf(jsonrpc.CodeUnauthorized, "session not authorized"), nil)
		}
		p := newTestProvider(t, Options{Wallet: wallet})

		_, err := dispatchSync(t, p, jsonrpc.NewRequest(1, "klay_getBalance", []any{"0xabc"}))
		require.Error(t, err)
		assert.Equal(t, jsonrpc.CodeUnauthorized, jsonrpc.AsError(err).Code)
	})
}

func TestClassify(t *testing.T) {
	cases := []struct {
		method string
		want   category
	}{
		{"eth_accounts", categorySync},
		{"net_version", categorySync},
		{"eth_chainId", categorySync},
		{"eth_subscribe", categorySubscription},
		{"eth_unsubscribe", categorySubscription},
		{"eth_sign", categoryAsync},
		{"eth_call", categoryAsync},
		{"klay_getBalance", categoryAsync},
		{"completely_unknown", categoryAsync},
	}

	for _, tc := range cases {
		t.Run(tc.method, func(t *testing.T) {
			assert.Equal(t, tc.want, classify(tc.method))
		})
	}
}

func TestChainIDHex(t *testing.T) {
	assert.Equal(t, "0x2019", chainIDHex("8217"))
	assert.Equal(t, "0x3e9", chainIDHex("1001"))
	assert.Equal(t, "0x2019", chainIDHex("0x2019"))
	// Non-numeric ids pass through untouched.
	assert.Equal(t, "devnet", chainIDHex("devnet"))
}
