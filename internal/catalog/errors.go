// Package catalog error taxonomy. Every failure leaving the client is a
// *catalog.Error carrying one of three kinds so callers can decide whether a
// retry makes sense without string matching:
//
//	KindTransport – connection refused, DNS failure, timeout, cancelled context
//	KindProtocol  – the server answered with a non-2xx status
//	KindDecoding  – the body did not match the expected shape (schema drift)
//
// All three are recoverable from the sync layer's point of view; none of them
// mutate local state.
package catalog

import (
	"errors"
	"fmt"
)

// Kind classifies a catalog client failure.
type Kind int

const (
	KindTransport Kind = iota + 1
	KindProtocol
	KindDecoding
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindProtocol:
		return "protocol"
	case KindDecoding:
		return "decoding"
	}
	return "unknown"
}

// Error is the concrete error type returned by the Client. Op names the
// logical endpoint ("events", "ticket-types", ...), Status is the HTTP status
// for protocol errors (zero otherwise) and Timeout is set when a transport
// failure was a deadline expiry rather than an outright connection failure.
type Error struct {
	Kind    Kind
	Op      string
	Status  int
	Timeout bool
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Kind == KindProtocol:
		return fmt.Sprintf("catalog %s: server returned %d", e.Op, e.Status)
	case e.Timeout:
		return fmt.Sprintf("catalog %s: timed out: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("catalog %s: %s error: %v", e.Op, e.Kind, e.Err)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf extracts the classification from an error chain. It returns zero
// when err did not originate in this package.
func KindOf(err error) Kind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return 0
}

// IsTimeout reports whether err is a transport error caused by a deadline.
func IsTimeout(err error) bool {
	var ce *Error
	return errors.As(err, &ce) && ce.Timeout
}
