package provider

import (
	"context"
	"encoding/json"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/erc7824/walletbridge/pkg/jsonrpc"
)

// callRequestID is the placeholder id used by the promise-style Call
// convention. It is echoed like any other id but never correlated.
const callRequestID uint64 = 9999999999

// Callback receives the outcome of a single asynchronous dispatch,
// error-first: on failure res is nil, on success err is nil.
type Callback func(err error, res *jsonrpc.Response)

// BatchCallback receives the outcome of a batched asynchronous dispatch.
// On failure the result slice is nil; on success it mirrors the input
// request order exactly.
type BatchCallback func(err error, res []jsonrpc.Response)

// Call runs a single method through the full pipeline and returns the raw
// result, or the normalized error.
func (p *Provider) Call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	res := p.dispatch(ctx, jsonrpc.NewRequest(callRequestID, method, params))
	if err := res.Err(); err != nil {
		return nil, err
	}
	raw, err := json.Marshal(res.Result)
	if err != nil {
		return nil, jsonrpc.Internalf("failed to encode result: %s", err)
	}
	return raw, nil
}

// Send executes a request on the synchronous-only path. Methods that cannot
// be answered from cached state fail with an unsupported-method error
// naming the method; use SendAsync or Call for those.
func (p *Provider) Send(req jsonrpc.Request) (jsonrpc.Response, error) {
	if err := validateShape(req); err != nil {
		return jsonrpc.Response{}, err
	}
	res, ok := p.resolveLocal(req)
	if !ok {
		return jsonrpc.Response{}, jsonrpc.UnsupportedMethodf(
			"method %s cannot be resolved synchronously, use the callback or promise form", req.Method)
	}
	return res, nil
}

// SendBatch executes a sequence of requests on the synchronous-only path,
// independently and in order. A single unsupported member fails the whole
// call.
func (p *Provider) SendBatch(reqs []jsonrpc.Request) ([]jsonrpc.Response, error) {
	responses := make([]jsonrpc.Response, 0, len(reqs))
	for _, req := range reqs {
		res, err := p.Send(req)
		if err != nil {
			return nil, err
		}
		responses = append(responses, res)
	}
	return responses, nil
}

// SendAsync runs a single request through the full pipeline and invokes the
// callback exactly once with the outcome. A nil callback panics, the
// programmer-error analog of the synchronous rejection in the callback
// convention.
func (p *Provider) SendAsync(ctx context.Context, req jsonrpc.Request, callback Callback) {
	if callback == nil {
		panic("provider: SendAsync requires a callback")
	}

	go func() {
		res := p.dispatch(ctx, req)
		if err := res.Err(); err != nil {
			callback(err, nil)
			return
		}
		callback(nil, &res)
	}()
}

// SendAsyncBatch runs every member request concurrently, waits for all of
// them to settle, and invokes the callback exactly once. The result order
// mirrors the input order regardless of completion order; the first
// rejection short-circuits the whole batch to the error branch.
func (p *Provider) SendAsyncBatch(ctx context.Context, reqs []jsonrpc.Request, callback BatchCallback) {
	if callback == nil {
		panic("provider: SendAsyncBatch requires a callback")
	}

	go func() {
		responses := make([]jsonrpc.Response, len(reqs))
		g, gctx := errgroup.WithContext(ctx)
		for i, req := range reqs {
			g.Go(func() error {
				res := p.dispatch(gctx, req)
				if err := res.Err(); err != nil {
					return err
				}
				responses[i] = res
				return nil
			})
		}

		if err := g.Wait(); err != nil {
			callback(err, nil)
			return
		}
		callback(nil, responses)
	}()
}

// dispatch runs one canonical request through classifier and handlers and
// always yields a response carrying the request id. All failures are
// folded into the response error branch.
func (p *Provider) dispatch(ctx context.Context, req jsonrpc.Request) jsonrpc.Response {
	if err := validateShape(req); err != nil {
		return jsonrpc.NewErrorResponse(req.ID, err)
	}

	switch classify(req.Method) {
	case categorySync:
		if res, ok := p.resolveLocal(req); ok {
			return res
		}
	case categorySubscription:
		return p.routeSubscription(ctx, req)
	}

	return p.translate(ctx, req)
}

// validateShape rejects malformed top-level call arguments before any
// suspension. Params must be positional, named or absent; bare scalars are
// not a valid JSON-RPC params value.
func validateShape(req jsonrpc.Request) *jsonrpc.Error {
	if strings.TrimSpace(req.Method) == "" {
		return jsonrpc.InvalidRequestf("request method is empty")
	}
	switch req.Params.(type) {
	case string, bool, float64, int, int64, uint64, json.Number:
		return jsonrpc.InvalidRequestf("request params must be an array or an object")
	}
	return nil
}
