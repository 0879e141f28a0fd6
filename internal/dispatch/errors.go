package dispatch

import (
	"errors"
	"fmt"
	"net"
	"net/url"
)

// Kind classifies a failed dispatch. Dispatch failures are always local to
// the call: never fatal, never retried.
type Kind string

const (
	KindNoConnection          Kind = "no_connection"
	KindInvalidAddress        Kind = "invalid_address"
	KindInvalidServerResponse Kind = "invalid_server_response"
	KindHTTPStatus            Kind = "http_status"
)

type DispatchError struct {
	Kind   Kind
	Status int // HTTP status code, set for KindHTTPStatus
	Err    error
}

func (e *DispatchError) Error() string {
	if e.Kind == KindHTTPStatus {
		return fmt.Sprintf("dispatch: peripheral returned status %d", e.Status)
	}
	return fmt.Sprintf("dispatch: %s: %v", e.Kind, e.Err)
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}

// classify maps a transport error onto the dispatch taxonomy. Malformed URLs
// and unresolvable hosts are address problems; everything else on the wire is
// the link being unreachable.
func classify(err error) *DispatchError {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if urlErr.Op == "parse" {
			return &DispatchError{Kind: KindInvalidAddress, Err: err}
		}
		var dnsErr *net.DNSError
		if errors.As(urlErr.Err, &dnsErr) {
			return &DispatchError{Kind: KindInvalidAddress, Err: err}
		}
	}
	return &DispatchError{Kind: KindNoConnection, Err: err}
}
