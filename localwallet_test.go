package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erc7824/walletbridge/pkg/jsonrpc"
	"github.com/erc7824/walletbridge/pkg/log"
	"github.com/erc7824/walletbridge/pkg/sign"
)

const testWalletKey = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"

func newTestWallet(t *testing.T) *LocalWallet {
	t.Helper()
	signer, err := sign.NewSigner(testWalletKey)
	require.NoError(t, err)

	network := NetworkConfig{Name: "cypress", ChainID: 8217, RPCURL: "http://localhost:0"}
	return NewLocalWallet(signer, nil, network, log.NewNoop())
}

func walletSendSync(t *testing.T, w *LocalWallet, req jsonrpc.Request) (*jsonrpc.Response, error) {
	t.Helper()

	type outcome struct {
		res *jsonrpc.Response
		err error
	}
	settled := make(chan outcome, 1)
	w.SendAsync(req, func(err error, res *jsonrpc.Response) {
		settled <- outcome{res: res, err: err}
	})

	select {
	case o := <-settled:
		return o.res, o.err
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for wallet callback")
		return nil, nil
	}
}

func TestLocalWallet(t *testing.T) {
	t.Run("enable returns the single account", func(t *testing.T) {
		w := newTestWallet(t)
		accounts, err := w.Enable(context.Background())
		require.NoError(t, err)
		require.Len(t, accounts, 1)
		assert.Equal(t, w.SelectedAddress(), accounts[0])
	})

	t.Run("network id is decimal", func(t *testing.T) {
		w := newTestWallet(t)
		assert.Equal(t, "8217", w.NetworkID())
	})

	t.Run("signs locally and the signature recovers", func(t *testing.T) {
		w := newTestWallet(t)

		res, err := walletSendSync(t, w, jsonrpc.NewRequest(1, "klay_sign", []any{w.SelectedAddress(), "hello"}))
		require.NoError(t, err)
		require.Nil(t, res.Error)

		sigHex, ok := res.Result.(string)
		require.True(t, ok)

		var sig sign.Signature
		require.NoError(t, sig.UnmarshalJSON([]byte(`"`+sigHex+`"`)))
		recovered, err := sign.RecoverPersonal([]byte("hello"), sig)
		require.NoError(t, err)
		assert.Equal(t, w.SelectedAddress(), recovered.Hex())
	})

	t.Run("refuses to sign for a foreign address", func(t *testing.T) {
		w := newTestWallet(t)

		_, err := walletSendSync(t, w, jsonrpc.NewRequest(1, "klay_sign", []any{
			"0x0000000000000000000000000000000000000001", "hello",
		}))
		require.Error(t, err)
		assert.Equal(t, jsonrpc.CodeUnauthorized, jsonrpc.AsError(err).Code)
	})

	t.Run("answers accounts locally", func(t *testing.T) {
		w := newTestWallet(t)

		res, err := walletSendSync(t, w, jsonrpc.NewRequest(1, "klay_accounts", nil))
		require.NoError(t, err)
		assert.Equal(t, []string{w.SelectedAddress()}, res.Result)
	})

	t.Run("switch network notifies handlers", func(t *testing.T) {
		w := newTestWallet(t)

		received := make(chan any, 1)
		w.OnNetworkChanged(func(payload any) {
			received <- payload
		})

		w.SwitchNetwork(NetworkConfig{Name: "kairos", ChainID: 1001, RPCURL: "http://localhost:0"}, nil)

		select {
		case payload := <-received:
			assert.Equal(t, "1001", payload)
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for network change")
		}
		assert.Equal(t, "1001", w.NetworkID())
	})
}
