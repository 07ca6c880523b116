package request

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"

	"github.com/tidwall/gjson"
)

// PayloadKind tags what a Result carries.
type PayloadKind int

const (
	// PayloadNone: no response was received (transport failure).
	PayloadNone PayloadKind = iota
	// PayloadJSON: the body was valid JSON and JSON holds the decoded value.
	PayloadJSON
	// PayloadRaw: the body was not JSON; Raw holds it verbatim.
	PayloadRaw
)

func (k PayloadKind) String() string {
	switch k {
	case PayloadJSON:
		return "json"
	case PayloadRaw:
		return "raw"
	default:
		return "none"
	}
}

// Result is the outcome of one executor call.
//
// Status is the HTTP status code, or 0 when the request never got a response.
// Raw always holds the response text; JSON is set only for PayloadJSON and may
// legitimately be nil for a literal `null` body. Numbers decode as json.Number.
type Result struct {
	Status       int
	Kind         PayloadKind
	JSON         any
	Raw          string
	TransportErr *TransportError
}

// newResult normalizes a response body: valid JSON is decoded, anything else
// (empty bodies and HTML error pages included) is kept as raw text.
func newResult(status int, body []byte) *Result {
	r := &Result{Status: status, Raw: string(body), Kind: PayloadRaw}
	if !json.Valid(body) {
		return r
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return r
	}
	r.Kind = PayloadJSON
	r.JSON = v
	return r
}

// Payload returns the decoded JSON value or, for raw bodies, the text.
func (r *Result) Payload() any {
	switch r.Kind {
	case PayloadJSON:
		return r.JSON
	case PayloadRaw:
		return r.Raw
	default:
		return nil
	}
}

// OK reports a 2xx status.
func (r *Result) OK() bool {
	return r != nil && r.Status >= 200 && r.Status < 300
}

// Failed reports a transport failure.
func (r *Result) Failed() bool {
	return r == nil || r.TransportErr != nil
}

// Get evaluates a gjson path against a JSON payload. Raw payloads never match.
func (r *Result) Get(path string) gjson.Result {
	if r == nil || r.Kind != PayloadJSON {
		return gjson.Result{}
	}
	return gjson.Get(r.Raw, path)
}

// TransportError reports that a request could not be completed: DNS, refused
// connections, TLS failures, timeouts and cancelled contexts. URL never
// carries the API key.
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Timeout reports whether the failure was a deadline or client timeout.
func (e *TransportError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(e.Err, &ne) && ne.Timeout()
}
