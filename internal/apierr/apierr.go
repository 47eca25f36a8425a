// Package apierr defines the gateway's error taxonomy and its HTTP
// envelope: an Error carries its underlying cause alongside a typed,
// switchable Kind used for status-code mapping at the handler boundary.
package apierr

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Kind discriminates the error taxonomy entries.
type Kind int

const (
	KindInvalidInput Kind = iota
	KindBlockNotFound
	KindStorageNotFound
	KindUnsupportedChain
	KindRelayNotConfigured
	KindRpcFailure
	KindRpcTimeout
	KindDecodeFailed
	KindMetadataUnsupported
	kindInternal
)

// Error is the gateway's single error type: a Kind plus the context a
// handler needs to render both the log line and the HTTP envelope.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// StatusCode maps a Kind to its HTTP status.
func (e *Error) StatusCode() int {
	switch e.Kind {
	case KindInvalidInput:
		return http.StatusBadRequest
	case KindBlockNotFound, KindStorageNotFound:
		return http.StatusNotFound
	case KindUnsupportedChain:
		return http.StatusNotImplemented
	case KindRelayNotConfigured:
		return http.StatusServiceUnavailable
	case KindRpcTimeout:
		return http.StatusGatewayTimeout
	case KindRpcFailure:
		return http.StatusBadGateway
	case KindDecodeFailed, KindMetadataUnsupported:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// name is the stable machine-readable tag used in the envelope's "error" field.
func (e *Error) name() string {
	switch e.Kind {
	case KindInvalidInput:
		return "InvalidInput"
	case KindBlockNotFound:
		return "BlockNotFound"
	case KindStorageNotFound:
		return "StorageNotFound"
	case KindUnsupportedChain:
		return "UnsupportedChain"
	case KindRelayNotConfigured:
		return "RelayNotConfigured"
	case KindRpcFailure:
		return "RpcFailure"
	case KindRpcTimeout:
		return "RpcFailure"
	case KindDecodeFailed:
		return "DecodeFailed"
	case KindMetadataUnsupported:
		return "MetadataUnsupported"
	default:
		return "InternalError"
	}
}

func InvalidInput(field, reason string) *Error {
	return &Error{Kind: KindInvalidInput, Message: fmt.Sprintf("invalid %s: %s", field, reason)}
}

func BlockNotFound(id string) *Error {
	return &Error{Kind: KindBlockNotFound, Message: fmt.Sprintf("block %s not found", id)}
}

func StorageNotFound(pallet, item string) *Error {
	return &Error{Kind: KindStorageNotFound, Message: fmt.Sprintf("%s.%s not found", pallet, item)}
}

func UnsupportedChain(reason string) *Error {
	return &Error{Kind: KindUnsupportedChain, Message: reason}
}

func RelayNotConfigured() *Error {
	return &Error{Kind: KindRelayNotConfigured, Message: "relay chain client is not configured"}
}

func RpcFailure(method string, cause error) *Error {
	return &Error{Kind: KindRpcFailure, Message: fmt.Sprintf("rpc call %s failed", method), Cause: cause}
}

func RpcTimeout(method string, cause error) *Error {
	return &Error{Kind: KindRpcTimeout, Message: fmt.Sprintf("rpc call %s timed out", method), Cause: cause}
}

func DecodeFailed(pallet, item string, cause error) *Error {
	return &Error{Kind: KindDecodeFailed, Message: fmt.Sprintf("failed to decode %s.%s", pallet, item), Cause: cause}
}

func MetadataUnsupported(version int) *Error {
	return &Error{Kind: KindMetadataUnsupported, Message: fmt.Sprintf("unsupported metadata version %d", version)}
}

// Envelope is the wire shape every error response renders as.
type Envelope struct {
	Error string `json:"error"`
	Cause string `json:"cause,omitempty"`
}

// WriteJSON writes err (wrapping any non-*Error as an internal error) as
// the standard JSON envelope with the appropriate status code.
func WriteJSON(w http.ResponseWriter, err error) {
	apiErr, ok := err.(*Error)
	if !ok {
		apiErr = &Error{Kind: kindInternal, Message: "internal error", Cause: err}
	}
	env := Envelope{Error: apiErr.name()}
	if apiErr.Cause != nil {
		env.Cause = apiErr.Cause.Error()
	} else if apiErr.Message != "" {
		env.Cause = apiErr.Message
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apiErr.StatusCode())
	_ = json.NewEncoder(w).Encode(env)
}
