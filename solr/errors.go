package solr

import (
	"errors"
	"fmt"

	"github.com/solrhq/gosolr/solr/internal/diag"
)

// --------------------------------------------------------------------
// Validation errors
// --------------------------------------------------------------------

// ErrClientClosed is returned by every operation issued after Close.
var ErrClientClosed = errors.New("client is closed")

// ErrDeleteTarget is returned when Delete is given neither or both of a
// document ID and a query.
var ErrDeleteTarget = errors.New(`delete requires exactly one of "id" or "query"`)

// ErrUnnamedFile is returned when Extract is given a file without a name;
// the extraction handler uses the name as a file-type hint.
var ErrUnnamedFile = errors.New("extract requires a file with a non-empty name")

// ErrExtractDecode is returned when the extraction handler answers with a
// payload that is not valid JSON.
var ErrExtractDecode = errors.New("malformed extract response")

// --------------------------------------------------------------------
// Transport errors
// --------------------------------------------------------------------

// TransportKind classifies a network-level failure.
type TransportKind int

const (
	// TransportGeneric covers transport faults that are neither a timeout
	// nor a connection failure.
	TransportGeneric TransportKind = iota
	// TransportTimeout means the per-attempt deadline expired.
	TransportTimeout
	// TransportConnection means the connection could not be established or
	// maintained.
	TransportConnection
)

func (k TransportKind) String() string {
	switch k {
	case TransportTimeout:
		return "timeout"
	case TransportConnection:
		return "connection"
	default:
		return "generic"
	}
}

// TransportError reports a network or I/O failure while talking to the
// engine. It carries the target URL and the underlying cause.
type TransportError struct {
	Kind TransportKind
	URL  string
	Err  error
}

func (e *TransportError) Error() string {
	switch e.Kind {
	case TransportTimeout:
		return fmt.Sprintf("connection to server %q timed out: %v", e.URL, e.Err)
	case TransportConnection:
		return fmt.Sprintf("failed to connect to server at %q, is the URL correct? checking it in a browser might help: %v", e.URL, e.Err)
	default:
		return fmt.Sprintf("unhandled transport error for %q: %v", e.URL, e.Err)
	}
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsTimeout reports whether err is a transport timeout.
func IsTimeout(err error) bool {
	var te *TransportError
	return errors.As(err, &te) && te.Kind == TransportTimeout
}

// IsConnectionError reports whether err is a transport connection failure.
func IsConnectionError(err error) bool {
	var te *TransportError
	return errors.As(err, &te) && te.Kind == TransportConnection
}

// --------------------------------------------------------------------
// Protocol errors
// --------------------------------------------------------------------

// ProtocolError reports a non-2xx response from the engine. Reason and
// Detail come either from the machine-readable reason header or from the
// response-body extractor.
type ProtocolError struct {
	StatusCode int
	URL        string
	Reason     string
	Detail     string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("solr responded with an error (HTTP %d): %s",
		e.StatusCode, diag.FormatMessage(diag.Descriptor{Reason: e.Reason, Detail: e.Detail}))
}
