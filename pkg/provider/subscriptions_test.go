package provider

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erc7824/walletbridge/pkg/jsonrpc"
)

func TestSubscriptions(t *testing.T) {
	t.Run("delegates subscribe to the engine", func(t *testing.T) {
		subs := &mockSubscriptionEngine{
			handleFn: func(ctx context.Context, req jsonrpc.Request) (any, error) {
				assert.Equal(t, "eth_subscribe", req.Method)
				return "0xsubscription1", nil
			},
		}
		p := newTestProvider(t, Options{Subscriptions: subs})

		res, err := dispatchSync(t, p, jsonrpc.NewRequest(1, "eth_subscribe", []any{"newHeads"}))
		require.NoError(t, err)
		assert.Equal(t, "0xsubscription1", res.Result)
	})

	t.Run("delegates unsubscribe to the engine", func(t *testing.T) {
		subs := &mockSubscriptionEngine{
			handleFn: func(ctx context.Context, req jsonrpc.Request) (any, error) {
				assert.Equal(t, "eth_unsubscribe", req.Method)
				return true, nil
			},
		}
		p := newTestProvider(t, Options{Subscriptions: subs})

		res, err := dispatchSync(t, p, jsonrpc.NewRequest(2, "eth_unsubscribe", []any{"0xsubscription1"}))
		require.NoError(t, err)
		assert.Equal(t, true, res.Result)
	})

	t.Run("engine failures are normalized", func(t *testing.T) {
		subs := &mockSubscriptionEngine{
			handleFn: func(ctx context.Context, req jsonrpc.Request) (any, error) {
				return nil, jsonrpc.InvalidParamsf("unknown subscription kind")
			},
		}
		p := newTestProvider(t, Options{Subscriptions: subs})

		_, err := dispatchSync(t, p, jsonrpc.NewRequest(1, "eth_subscribe", []any{"bogus"}))
		require.Error(t, err)
		assert.Equal(t, jsonrpc.CodeInvalidParams, jsonrpc.AsError(err).Code)
	})

	t.Run("subscribe without an engine is unsupported", func(t *testing.T) {
		p := newTestProvider(t, Options{})

		_, err := dispatchSync(t, p, jsonrpc.NewRequest(1, "eth_subscribe", []any{"newHeads"}))
		require.Error(t, err)
		rpcErr := jsonrpc.AsError(err)
		assert.Equal(t, jsonrpc.CodeUnsupportedMethod, rpcErr.Code)
		assert.Contains(t, rpcErr.Message, "eth_subscribe")
	})
}
