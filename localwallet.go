package main

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/erc7824/walletbridge/pkg/chainclient"
	"github.com/erc7824/walletbridge/pkg/jsonrpc"
	"github.com/erc7824/walletbridge/pkg/log"
	"github.com/erc7824/walletbridge/pkg/provider"
	"github.com/erc7824/walletbridge/pkg/sign"
)

// LocalWallet is a headless wallet backed by a single in-process key. It
// answers signing methods locally and forwards everything else to the
// configured chain endpoint. There is no approval prompt: every request
// from an authenticated connection is approved.
type LocalWallet struct {
	signer  *sign.Signer
	chain   *chainclient.Client
	network NetworkConfig
	lg      log.Logger

	mu                     sync.RWMutex
	networkChangedHandlers []func(payload any)
	accountsChangedHandler []func(payload any)
}

// NewLocalWallet creates a wallet over the given key and network.
func NewLocalWallet(signer *sign.Signer, chain *chainclient.Client, network NetworkConfig, lg log.Logger) *LocalWallet {
	return &LocalWallet{
		signer:  signer,
		chain:   chain,
		network: network,
		lg:      lg.WithName("wallet"),
	}
}

// Enable authorizes the session. The local wallet has exactly one account
// and always authorizes.
func (w *LocalWallet) Enable(_ context.Context) ([]string, error) {
	return []string{w.signer.Address().Hex()}, nil
}

// NetworkID returns the decimal network id of the configured chain.
func (w *LocalWallet) NetworkID() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.network.NetworkID()
}

// SelectedAddress returns the wallet's account address.
func (w *LocalWallet) SelectedAddress() string {
	return w.signer.Address().Hex()
}

// SendAsync executes a native call and settles the callback exactly once.
// Signing methods are answered locally with the wallet key; everything
// else goes to the chain endpoint verbatim.
func (w *LocalWallet) SendAsync(req jsonrpc.Request, callback provider.WalletCallback) {
	go func() {
		res, err := w.execute(context.Background(), req)
		if err != nil {
			callback(err, nil)
			return
		}
		callback(nil, res)
	}()
}

func (w *LocalWallet) execute(ctx context.Context, req jsonrpc.Request) (*jsonrpc.Response, error) {
	switch req.Method {
	case "klay_sign", "eth_sign":
		return w.signLocally(req)
	case "klay_accounts", "eth_accounts":
		res := jsonrpc.NewResponse(req.ID, []string{w.signer.Address().Hex()})
		return &res, nil
	}

	raw, err := w.chain.RawCall(ctx, req.Method, req.Params)
	if err != nil {
		if rpcErr, ok := err.(*jsonrpc.Error); ok {
			res := jsonrpc.NewErrorResponse(req.ID, rpcErr)
			return &res, nil
		}
		return nil, err
	}

	var result any
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &result); err != nil {
			return nil, err
		}
	}
	res := jsonrpc.NewResponse(req.ID, result)
	return &res, nil
}

// signLocally signs a personal message with the wallet key. The address
// parameter must match the wallet's account.
func (w *LocalWallet) signLocally(req jsonrpc.Request) (*jsonrpc.Response, error) {
	params := jsonrpc.PositionalParams(req.Params)
	if len(params) < 2 {
		return nil, jsonrpc.InvalidParamsf("sign requires address and message parameters")
	}
	address, _ := params[0].(string)
	message, _ := params[1].(string)
	if !strings.EqualFold(address, w.signer.Address().Hex()) {
		return nil, jsonrpc.Errorf(jsonrpc.CodeUnauthorized, "address %s is not managed by this wallet", address)
	}

	signature, err := w.signer.SignPersonal([]byte(message))
	if err != nil {
		return nil, err
	}

	w.lg.Debug("signed message locally", "address", address)
	res := jsonrpc.NewResponse(req.ID, signature.String())
	return &res, nil
}

// SwitchNetwork points the wallet at another configured network and
// notifies subscribers with the new network id.
func (w *LocalWallet) SwitchNetwork(network NetworkConfig, chain *chainclient.Client) {
	w.mu.Lock()
	w.network = network
	w.chain = chain
	handlers := append([](func(payload any))(nil), w.networkChangedHandlers...)
	w.mu.Unlock()

	w.lg.Info("switched network", "network", network.Name, "chainID", network.ChainID)
	for _, handler := range handlers {
		handler(network.NetworkID())
	}
}

// OnNetworkChanged registers a handler for network changes.
func (w *LocalWallet) OnNetworkChanged(handler func(payload any)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.networkChangedHandlers = append(w.networkChangedHandlers, handler)
}

// OnAccountsChanged registers a handler for account changes. The local
// wallet's account set is fixed, so registered handlers never fire.
func (w *LocalWallet) OnAccountsChanged(handler func(payload any)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.accountsChangedHandler = append(w.accountsChangedHandler, handler)
}
