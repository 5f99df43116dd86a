package provider

import (
	"context"
	"encoding/json"

	"github.com/erc7824/walletbridge/pkg/jsonrpc"
)

// WalletCallback receives the outcome of a wallet native call, error-first.
// Exactly one of err and res is meaningful.
type WalletCallback func(err error, res *jsonrpc.Response)

// Wallet is the underlying wallet connection: the browser-extension-style
// object providing native account and chain access. The provider consumes
// it purely through this boundary.
type Wallet interface {
	// Enable asks the wallet to authorize the session and returns the
	// ordered account list.
	Enable(ctx context.Context) ([]string, error)
	// SendAsync performs a native asynchronous call. The callback is
	// invoked exactly once.
	SendAsync(req jsonrpc.Request, callback WalletCallback)
	// NetworkID returns the wallet's current network identifier.
	NetworkID() string
	// SelectedAddress returns the wallet's currently selected address.
	SelectedAddress() string
	// OnNetworkChanged registers a handler for wallet network changes.
	OnNetworkChanged(handler func(payload any))
	// OnAccountsChanged registers a handler for wallet account changes.
	OnAccountsChanged(handler func(payload any))
}

// TxParams is a native-shaped transaction object. It is kept as a loose map
// so unknown fields supplied by callers survive the trip to the chain
// client untouched.
type TxParams map[string]any

// TransactionResult is the native result object of a send-transaction
// operation.
type TransactionResult struct {
	TransactionHash string `json:"transactionHash"`
}

// ChainClient performs remote chain operations, one method per mapped
// native operation. Every call suspends until the remote side settles;
// results are native-shaped.
type ChainClient interface {
	SignMessage(ctx context.Context, address, message string) (string, error)
	RecoverSigner(ctx context.Context, message, signature string) (string, error)
	SignTransaction(ctx context.Context, tx TxParams) (json.RawMessage, error)
	SendTransaction(ctx context.Context, tx TxParams) (*TransactionResult, error)
	GasPrice(ctx context.Context) (string, error)
	BlockNumber(ctx context.Context) (string, error)
	BlockByNumber(ctx context.Context, number string, fullTxs bool) (json.RawMessage, error)
	TransactionReceipt(ctx context.Context, txHash string) (json.RawMessage, error)
}

// Notification is an event pushed by the subscription engine for an active
// subscription.
type Notification struct {
	Method string `json:"method"`
	Params any    `json:"params"`
}

// SubscriptionEngine manages subscribe/unsubscribe lifecycles. The provider
// delegates the two subscription methods to it and re-labels its
// notifications as message events; the engine's internals are its own.
type SubscriptionEngine interface {
	// HandleRequest processes a subscribe or unsubscribe request and
	// returns the result value.
	HandleRequest(ctx context.Context, req jsonrpc.Request) (any, error)
	// OnNotification registers a handler for subscription notifications.
	OnNotification(handler func(n Notification))
}
