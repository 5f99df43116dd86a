package provider

import (
	"context"

	"github.com/erc7824/walletbridge/pkg/jsonrpc"
)

// routeSubscription delegates a subscribe/unsubscribe request to the
// subscription engine. The resolved value is wrapped into a canonical
// response; a rejection propagates as-is on the error branch. Notification
// forwarding is wired once at construction, not here.
func (p *Provider) routeSubscription(ctx context.Context, req jsonrpc.Request) jsonrpc.Response {
	if p.subs == nil {
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.UnsupportedMethodf(
			"method %s requires a subscription engine", req.Method))
	}

	result, err := p.subs.HandleRequest(ctx, req)
	if err != nil {
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.AsError(err))
	}
	return jsonrpc.NewResponse(req.ID, result)
}
