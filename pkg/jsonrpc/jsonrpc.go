// Package jsonrpc defines the canonical JSON-RPC 2.0 request and response
// shapes used across walletbridge. Every entry surface of the provider
// normalizes into these types before dispatch, and every result is adapted
// back out of them, so the rest of the engine never branches on which calling
// convention was used.
package jsonrpc

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Version is the protocol version stamped on every request and response.
const Version = "2.0"

// Request is a canonical JSON-RPC request.
//
// IDs are caller-supplied and echoed back verbatim; they are never validated
// for uniqueness. Params may be a positional array, a named object, or absent.
type Request struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Method  string `json:"method" validate:"required"`
	Params  any    `json:"params,omitempty"`
}

// NewRequest creates a Request for the given method and params.
func NewRequest(id uint64, method string, params any) Request {
	return Request{
		JSONRPC: Version,
		ID:      id,
		Method:  method,
		Params:  params,
	}
}

// Response is a canonical JSON-RPC response. Exactly one of Result and Error
// is populated on the wire; use Err to inspect the failure branch.
type Response struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Result  any    `json:"result,omitempty"`
	Error   *Error `json:"error,omitempty"`
}

// NewResponse creates a successful Response echoing the request id.
func NewResponse(id uint64, result any) Response {
	return Response{
		JSONRPC: Version,
		ID:      id,
		Result:  result,
	}
}

// NewErrorResponse creates a failed Response echoing the request id.
func NewErrorResponse(id uint64, err *Error) Response {
	return Response{
		JSONRPC: Version,
		ID:      id,
		Error:   err,
	}
}

// Err returns the response error, or nil for a successful response.
// The concrete type of a non-nil return is always *Error.
func (r Response) Err() error {
	if r.Error == nil {
		return nil
	}
	return r.Error
}

// IsBatch reports whether the raw message holds a batch (array) frame rather
// than a single request object.
func IsBatch(raw []byte) bool {
	trimmed := bytes.TrimLeft(raw, " \t\r\n")
	return len(trimmed) > 0 && trimmed[0] == '['
}

// ParseRequest parses a single request object.
func ParseRequest(raw []byte) (Request, error) {
	var req Request
	if err := json.Unmarshal(raw, &req); err != nil {
		return Request{}, fmt.Errorf("failed to parse request: %w", err)
	}
	return req, nil
}

// ParseBatch parses a batch frame, preserving member order.
func ParseBatch(raw []byte) ([]Request, error) {
	var reqs []Request
	if err := json.Unmarshal(raw, &reqs); err != nil {
		return nil, fmt.Errorf("failed to parse batch request: %w", err)
	}
	return reqs, nil
}

// PositionalParams coerces decoded params into a positional slice. Array
// params are returned as-is, nil params yield an empty slice, and a single
// object is wrapped so methods taking one structured argument can be handled
// uniformly with positional ones.
func PositionalParams(params any) []any {
	switch v := params.(type) {
	case nil:
		return []any{}
	case []any:
		return v
	default:
		return []any{v}
	}
}
