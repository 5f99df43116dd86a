package jsonrpc

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Error codes carried on the wire. The negative codes are the JSON-RPC 2.0
// standard set; the positive ones are the provider error codes used by
// browser wallets (EIP-1193).
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternal       = -32603

	CodeUserRejected      = 4001
	CodeUnauthorized      = 4100
	CodeUnsupportedMethod = 4200
)

// Error is a JSON-RPC error object. It implements the error interface so
// handler code can return it directly through normal Go error plumbing.
type Error struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("jsonrpc error %d: %s", e.Code, e.Message)
}

// Errorf creates an Error with the given code and formatted message.
func Errorf(code int, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// InvalidRequestf creates a standardized invalid-request error. Used for
// malformed top-level call arguments, surfaced before any suspension.
func InvalidRequestf(format string, args ...any) *Error {
	return Errorf(CodeInvalidRequest, format, args...)
}

// InvalidParamsf creates a standardized invalid-params error. Used when a
// mapped method's business-rule validation fails before the native call.
func InvalidParamsf(format string, args ...any) *Error {
	return Errorf(CodeInvalidParams, format, args...)
}

// UnsupportedMethodf creates an error for methods that cannot be served by
// the requested calling convention or collaborator set.
func UnsupportedMethodf(format string, args ...any) *Error {
	return Errorf(CodeUnsupportedMethod, format, args...)
}

// Internalf creates an internal error.
func Internalf(format string, args ...any) *Error {
	return Errorf(CodeInternal, format, args...)
}

// UserRejected is the standardized user-rejection error. The original
// collaborator message is deliberately discarded.
func UserRejected() *Error {
	return Errorf(CodeUserRejected, "user rejected the request")
}

// AsError normalizes any failure into a wire Error. A nil error yields an
// internal error with a generic message, an existing *Error passes through
// unchanged, and anything else is wrapped as an internal error preserving
// its message.
func AsError(err error) *Error {
	if err == nil {
		return Internalf("an error occurred while processing the request")
	}
	var rpcErr *Error
	if errors.As(err, &rpcErr) {
		return rpcErr
	}
	return Internalf("%s", err.Error())
}
