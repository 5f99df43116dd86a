package provider

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/erc7824/walletbridge/pkg/jsonrpc"
)

// Native method substitutions used by the translator. Everything else keeps
// the caller's method name on its way to the wallet.
const nativeCallMethod = "klay_call"

// asyncHandler executes one mapped method and returns its result value.
// Failures come back as errors and are normalized by translate.
type asyncHandler func(ctx context.Context, req jsonrpc.Request) (any, error)

// buildHandlerTable enumerates the mapped method set. Keeping the mapping
// as a table makes it independently testable and trivially enumerable.
func (p *Provider) buildHandlerTable() map[string]asyncHandler {
	return map[string]asyncHandler{
		methodSign:               p.handleSign,
		methodRecover:            p.handleRecover,
		methodSignTransaction:    p.handleSignTransaction,
		methodSendTransaction:    p.handleSendTransaction,
		methodSendRawTransaction: p.handleSendRawTransaction,
		methodGasPrice:           p.handleGasPrice,
		methodBlockNumber:        p.handleBlockNumber,
		methodGetBlockByNumber:   p.handleBlockByNumber,
		methodGetTxReceipt:       p.handleTransactionReceipt,
		methodCall:               p.handleRemoteCall,
		methodWatchAsset:         p.handleWatchAsset,
	}
}

// translate executes the asynchronous stage: a mapped method runs through
// its table handler, anything else passes through verbatim to the wallet's
// native call surface.
func (p *Provider) translate(ctx context.Context, req jsonrpc.Request) jsonrpc.Response {
	handler, ok := p.handlers[req.Method]
	if !ok {
		return p.passthrough(ctx, req)
	}

	result, err := handler(ctx, req)
	if err != nil {
		p.lg.Debug("translated call failed", "method", req.Method, "error", err)
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.AsError(err))
	}
	return jsonrpc.NewResponse(req.ID, result)
}

// isUserRejection classifies a collaborator failure as a user rejection.
// The wallet reports rejection as free-form text, so this is a substring
// match rather than a typed signal; it is the only place the heuristic
// lives.
func isUserRejection(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "denied") || strings.Contains(msg, "rejected")
}

func (p *Provider) handleSign(ctx context.Context, req jsonrpc.Request) (any, error) {
	params := jsonrpc.PositionalParams(req.Params)
	address, err := stringParam(params, 0, "address")
	if err != nil {
		return nil, err
	}
	message, err := stringParam(params, 1, "message")
	if err != nil {
		return nil, err
	}
	return p.chain.SignMessage(ctx, address, message)
}

func (p *Provider) handleRecover(ctx context.Context, req jsonrpc.Request) (any, error) {
	params := jsonrpc.PositionalParams(req.Params)
	message, err := stringParam(params, 0, "message")
	if err != nil {
		return nil, err
	}
	signature, err := stringParam(params, 1, "signature")
	if err != nil {
		return nil, err
	}
	return p.chain.RecoverSigner(ctx, message, signature)
}

func (p *Provider) handleSignTransaction(ctx context.Context, req jsonrpc.Request) (any, error) {
	tx, err := txParam(req.Params)
	if err != nil {
		return nil, err
	}
	signed, callErr := p.chain.SignTransaction(ctx, tx)
	if callErr != nil {
		if isUserRejection(callErr) {
			return nil, jsonrpc.UserRejected()
		}
		return nil, callErr
	}
	return signed, nil
}

func (p *Provider) handleSendTransaction(ctx context.Context, req jsonrpc.Request) (any, error) {
	tx, err := txParam(req.Params)
	if err != nil {
		return nil, err
	}
	result, callErr := p.chain.SendTransaction(ctx, tx)
	if callErr != nil {
		if isUserRejection(callErr) {
			return nil, jsonrpc.UserRejected()
		}
		return nil, callErr
	}
	return result.TransactionHash, nil
}

// handleSendRawTransaction submits a pre-signed transaction through the
// fee-delegation path: the wallet's currently selected address is injected
// as the fee payer.
func (p *Provider) handleSendRawTransaction(ctx context.Context, req jsonrpc.Request) (any, error) {
	params := jsonrpc.PositionalParams(req.Params)
	rawTx, err := stringParam(params, 0, "raw transaction")
	if err != nil {
		return nil, err
	}
	result, callErr := p.chain.SendTransaction(ctx, TxParams{
		"senderRawTransaction": rawTx,
		"feePayer":             p.wallet.SelectedAddress(),
	})
	if callErr != nil {
		return nil, callErr
	}
	return result.TransactionHash, nil
}

func (p *Provider) handleGasPrice(ctx context.Context, _ jsonrpc.Request) (any, error) {
	return p.chain.GasPrice(ctx)
}

func (p *Provider) handleBlockNumber(ctx context.Context, _ jsonrpc.Request) (any, error) {
	return p.chain.BlockNumber(ctx)
}

func (p *Provider) handleBlockByNumber(ctx context.Context, req jsonrpc.Request) (any, error) {
	params := jsonrpc.PositionalParams(req.Params)
	number, err := stringParam(params, 0, "block number")
	if err != nil {
		return nil, err
	}
	fullTxs := false
	if len(params) > 1 {
		b, ok := params[1].(bool)
		if !ok {
			return nil, jsonrpc.InvalidParamsf("full transactions flag must be a boolean")
		}
		fullTxs = b
	}
	return p.chain.BlockByNumber(ctx, number, fullTxs)
}

func (p *Provider) handleTransactionReceipt(ctx context.Context, req jsonrpc.Request) (any, error) {
	params := jsonrpc.PositionalParams(req.Params)
	txHash, err := stringParam(params, 0, "transaction hash")
	if err != nil {
		return nil, err
	}
	return p.chain.TransactionReceipt(ctx, txHash)
}

// handleRemoteCall forwards a generic remote call to the wallet under the
// native method name. Only the first two positional params are forwarded,
// and a falsy native result is treated as a failure even when the native
// error argument is empty; both quirks are preserved for compatibility
// with existing callers.
func (p *Provider) handleRemoteCall(ctx context.Context, req jsonrpc.Request) (any, error) {
	params := jsonrpc.PositionalParams(req.Params)
	if len(params) > 2 {
		params = params[:2]
	}

	native := jsonrpc.NewRequest(req.ID, nativeCallMethod, params)
	res, err := p.walletCall(ctx, native)
	if err != nil {
		return nil, err
	}
	if res.Error != nil {
		return nil, res.Error
	}
	if isFalsyResult(res.Result) {
		return nil, jsonrpc.AsError(nil)
	}
	return res.Result, nil
}

// passthrough forwards an unmapped method verbatim to the wallet's native
// asynchronous call, adapting its callback into the blocking pipeline.
func (p *Provider) passthrough(ctx context.Context, req jsonrpc.Request) jsonrpc.Response {
	res, err := p.walletCall(ctx, req)
	if err != nil {
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.AsError(err))
	}
	if res.Error != nil {
		return jsonrpc.NewErrorResponse(req.ID, res.Error)
	}
	return jsonrpc.NewResponse(req.ID, res.Result)
}

// walletCall adapts the wallet's callback-based native call into a call
// that suspends until the wallet settles. There is no cancellation signal
// to the wallet: an abandoned context leaves the native call to complete
// on its own, its outcome dropped into the buffered channel.
func (p *Provider) walletCall(ctx context.Context, req jsonrpc.Request) (*jsonrpc.Response, error) {
	type outcome struct {
		res *jsonrpc.Response
		err error
	}
	settled := make(chan outcome, 1)
	p.wallet.SendAsync(req, func(err error, res *jsonrpc.Response) {
		settled <- outcome{res: res, err: err}
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case o := <-settled:
		if o.err != nil {
			return nil, o.err
		}
		if o.res == nil {
			return nil, jsonrpc.Internalf("wallet returned no response")
		}
		return o.res, nil
	}
}

// isFalsyResult mirrors the truthiness rules callers of the legacy
// interface rely on.
func isFalsyResult(result any) bool {
	switch v := result.(type) {
	case nil:
		return true
	case bool:
		return !v
	case string:
		return v == ""
	case float64:
		return v == 0
	}
	return false
}

func stringParam(params []any, index int, name string) (string, error) {
	if index >= len(params) {
		return "", jsonrpc.InvalidParamsf("missing %s parameter", name)
	}
	s, ok := params[index].(string)
	if !ok {
		return "", jsonrpc.InvalidParamsf("%s parameter must be a string", name)
	}
	return s, nil
}

// txParam extracts the transaction object from params, accepting both the
// bare-object and single-element-array framings.
func txParam(params any) (TxParams, error) {
	positional := jsonrpc.PositionalParams(params)
	if len(positional) == 0 {
		return nil, jsonrpc.InvalidParamsf("missing transaction parameter")
	}

	raw, err := json.Marshal(positional[0])
	if err != nil {
		return nil, jsonrpc.InvalidParamsf("transaction parameter is not serializable")
	}
	var tx TxParams
	if err := json.Unmarshal(raw, &tx); err != nil {
		return nil, jsonrpc.InvalidParamsf("transaction parameter must be an object")
	}
	return tx, nil
}
