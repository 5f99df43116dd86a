package provider

import (
	"strconv"
	"strings"

	"github.com/erc7824/walletbridge/pkg/jsonrpc"
)

// Standard method names the provider accepts on its public surface.
const (
	methodAccounts           = "eth_accounts"
	methodNetVersion         = "net_version"
	methodChainID            = "eth_chainId"
	methodSubscribe          = "eth_subscribe"
	methodUnsubscribe        = "eth_unsubscribe"
	methodSign               = "eth_sign"
	methodRecover            = "personal_ecRecover"
	methodSignTransaction    = "eth_signTransaction"
	methodSendTransaction    = "eth_sendTransaction"
	methodSendRawTransaction = "eth_sendRawTransaction"
	methodGasPrice           = "eth_gasPrice"
	methodBlockNumber        = "eth_blockNumber"
	methodGetBlockByNumber   = "eth_getBlockByNumber"
	methodGetTxReceipt       = "eth_getTransactionReceipt"
	methodCall               = "eth_call"
	methodWatchAsset         = "wallet_watchAsset"
)

// category is the execution strategy assigned to a method.
type category int

const (
	// categoryAsync covers the translation table and the wallet
	// passthrough; it is the default for unknown methods.
	categoryAsync category = iota
	// categorySync covers methods answerable from cached state without
	// suspension.
	categorySync
	// categorySubscription covers the two subscription lifecycle methods.
	categorySubscription
)

// classify maps a method name to its execution strategy. The function is
// total: anything it does not recognize is asynchronous and falls through
// to the translator or the wallet.
func classify(method string) category {
	switch method {
	case methodAccounts, methodNetVersion, methodChainID:
		return categorySync
	case methodSubscribe, methodUnsubscribe:
		return categorySubscription
	}
	return categoryAsync
}

// resolveLocal answers a synchronous method from cached state. The false
// return means "not synchronously resolvable"; the caller decides whether
// that is a fall-through or a failure.
func (p *Provider) resolveLocal(req jsonrpc.Request) (jsonrpc.Response, bool) {
	switch req.Method {
	case methodAccounts:
		return jsonrpc.NewResponse(req.ID, p.Accounts()), true
	case methodNetVersion:
		return jsonrpc.NewResponse(req.ID, p.networkID), true
	case methodChainID:
		return jsonrpc.NewResponse(req.ID, chainIDHex(p.networkID)), true
	}
	return jsonrpc.Response{}, false
}

// chainIDHex renders the cached network id as a hex quantity. An id that is
// already hex-encoded is passed through unchanged.
func chainIDHex(networkID string) string {
	if strings.HasPrefix(networkID, "0x") {
		return networkID
	}
	n, err := strconv.ParseUint(networkID, 10, 64)
	if err != nil {
		return networkID
	}
	return "0x" + strconv.FormatUint(n, 16)
}
