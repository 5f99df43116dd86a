// Package provider implements the request dispatch and method-translation
// engine of walletbridge. It accepts standard account/chain JSON-RPC calls
// through three calling conventions, classifies each method into a
// synchronous, subscription or asynchronous execution strategy, translates
// the asynchronous set onto the native namespace of the underlying wallet
// and chain client, and adapts every result back into the convention the
// caller used.
package provider

import (
	"context"
	"sync"

	"github.com/erc7824/walletbridge/pkg/jsonrpc"
	"github.com/erc7824/walletbridge/pkg/log"
)

// Options configures a Provider.
type Options struct {
	// Wallet is the underlying wallet connection. Required.
	Wallet Wallet
	// ChainClient performs the mapped remote operations. Required.
	ChainClient ChainClient
	// Subscriptions handles eth_subscribe/eth_unsubscribe. Optional; when
	// nil those two methods answer with an unsupported-method error.
	Subscriptions SubscriptionEngine
	// Logger defaults to a noop logger.
	Logger log.Logger
}

// Provider is the dispatch engine. It owns the session caches (account
// list, network id), the async translation table and the event surface.
// The dispatch pipeline only ever reads the caches; the account list is
// written solely by Enable and the network id solely at construction.
type Provider struct {
	wallet Wallet
	chain  ChainClient
	subs   SubscriptionEngine

	networkID string

	mu       sync.RWMutex
	accounts []string

	handlers map[string]asyncHandler
	emitter  *eventEmitter
	lg       log.Logger
}

// New creates a Provider wired to its collaborators. The network id is read
// from the wallet once and cached; wallet change events and subscription
// notifications are forwarded to the provider's event surface from here on.
func New(opts Options) (*Provider, error) {
	if opts.Wallet == nil {
		return nil, jsonrpc.Internalf("provider requires a wallet")
	}
	if opts.ChainClient == nil {
		return nil, jsonrpc.Internalf("provider requires a chain client")
	}
	lg := opts.Logger
	if lg == nil {
		lg = log.NewNoop()
	}

	p := &Provider{
		wallet:    opts.Wallet,
		chain:     opts.ChainClient,
		subs:      opts.Subscriptions,
		networkID: opts.Wallet.NetworkID(),
		emitter:   newEventEmitter(),
		lg:        lg.WithName("provider"),
	}
	p.handlers = p.buildHandlerTable()

	p.wallet.OnNetworkChanged(func(payload any) {
		p.emitter.emit(EventNetworkChanged, payload)
	})
	p.wallet.OnAccountsChanged(func(payload any) {
		p.emitter.emit(EventAccountsChanged, payload)
	})
	if p.subs != nil {
		p.subs.OnNotification(func(n Notification) {
			p.emitter.emit(EventMessage, Message{Type: n.Method, Data: n.Params})
		})
	}

	return p, nil
}

// Enable authorizes the session with the wallet and caches the resulting
// account list. A session that is already authorized returns the cached
// accounts without calling the wallet again.
func (p *Provider) Enable(ctx context.Context) ([]string, error) {
	p.mu.RLock()
	cached := p.accounts
	p.mu.RUnlock()
	if cached != nil {
		return append([]string(nil), cached...), nil
	}

	accounts, err := p.wallet.Enable(ctx)
	if err != nil {
		return nil, err
	}
	if accounts == nil {
		accounts = []string{}
	}

	p.mu.Lock()
	p.accounts = accounts
	p.mu.Unlock()

	p.lg.Info("session authorized", "accounts", len(accounts))
	return append([]string(nil), accounts...), nil
}

// Accounts returns the cached account list. Empty until Enable succeeds.
func (p *Provider) Accounts() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.accounts == nil {
		return []string{}
	}
	return append([]string(nil), p.accounts...)
}

// NetworkID returns the network id cached at construction.
func (p *Provider) NetworkID() string {
	return p.networkID
}

// SelectedAddress returns the wallet's currently selected address.
func (p *Provider) SelectedAddress() string {
	return p.wallet.SelectedAddress()
}

// On registers a handler for a provider event (message, networkChanged,
// accountsChanged). Events with no handler are dropped, not queued.
func (p *Provider) On(event string, handler func(payload any)) {
	p.emitter.on(event, handler)
}
