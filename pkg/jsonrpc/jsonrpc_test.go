package jsonrpc

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsBatch(t *testing.T) {
	assert.True(t, IsBatch([]byte(`[{"jsonrpc":"2.0"}]`)))
	assert.True(t, IsBatch([]byte("  \n\t[]")))
	assert.False(t, IsBatch([]byte(`{"jsonrpc":"2.0"}`)))
	assert.False(t, IsBatch([]byte("")))
}

func TestParseRequest(t *testing.T) {
	t.Run("parses a single request", func(t *testing.T) {
		req, err := ParseRequest([]byte(`{"jsonrpc":"2.0","id":7,"method":"eth_accounts","params":[]}`))
		require.NoError(t, err)
		assert.Equal(t, uint64(7), req.ID)
		assert.Equal(t, "eth_accounts", req.Method)
	})

	t.Run("rejects malformed json", func(t *testing.T) {
		_, err := ParseRequest([]byte(`{"jsonrpc":`))
		require.Error(t, err)
	})
}

func TestParseBatch(t *testing.T) {
	reqs, err := ParseBatch([]byte(`[
		{"jsonrpc":"2.0","id":1,"method":"net_version"},
		{"jsonrpc":"2.0","id":2,"method":"eth_chainId"}
	]`))
	require.NoError(t, err)
	require.Len(t, reqs, 2)
	assert.Equal(t, "net_version", reqs[0].Method)
	assert.Equal(t, "eth_chainId", reqs[1].Method)
}

func TestPositionalParams(t *testing.T) {
	t.Run("nil yields an empty slice", func(t *testing.T) {
		assert.Empty(t, PositionalParams(nil))
	})

	t.Run("arrays pass through", func(t *testing.T) {
		params := []any{"a", "b"}
		assert.Equal(t, params, PositionalParams(params))
	})

	t.Run("a single object is wrapped", func(t *testing.T) {
		obj := map[string]any{"to": "0x2"}
		wrapped := PositionalParams(obj)
		require.Len(t, wrapped, 1)
		assert.Equal(t, obj, wrapped[0])
	})
}

func TestResponseErr(t *testing.T) {
	t.Run("success yields nil", func(t *testing.T) {
		res := NewResponse(1, "ok")
		assert.NoError(t, res.Err())
	})

	t.Run("error branch yields the wire error", func(t *testing.T) {
		res := NewErrorResponse(1, UserRejected())
		err := res.Err()
		require.Error(t, err)

		var rpcErr *Error
		require.True(t, errors.As(err, &rpcErr))
		assert.Equal(t, CodeUserRejected, rpcErr.Code)
	})
}

func TestAsError(t *testing.T) {
	t.Run("nil yields a generic internal error", func(t *testing.T) {
		err := AsError(nil)
		assert.Equal(t, CodeInternal, err.Code)
		assert.NotEmpty(t, err.Message)
	})

	t.Run("an existing wire error passes through", func(t *testing.T) {
		original := UserRejected()
		assert.Same(t, original, AsError(original))
	})

	t.Run("a wrapped wire error is unwrapped", func(t *testing.T) {
		wrapped := errors.Join(errors.New("outer"), UserRejected())
		assert.Equal(t, CodeUserRejected, AsError(wrapped).Code)
	})

	t.Run("a plain error becomes internal with its message", func(t *testing.T) {
		err := AsError(errors.New("boom"))
		assert.Equal(t, CodeInternal, err.Code)
		assert.Equal(t, "boom", err.Message)
	})
}
