package request

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/google/go-querystring/query"
)

// Encoding selects how a write request body is serialized.
type Encoding int

const (
	// EncodingFlat writes key=value pairs in insertion order.
	EncodingFlat Encoding = iota
	// EncodingNested writes a struct with bracketed keys (group[name]=...).
	EncodingNested
)

func (e Encoding) String() string {
	switch e {
	case EncodingFlat:
		return "flat"
	case EncodingNested:
		return "nested"
	default:
		return fmt.Sprintf("Encoding(%d)", int(e))
	}
}

// EncodeQuery serializes params as a query string with standard form
// encoding: keys and values are escaped, spaces become '+'. Order follows
// insertion.
func EncodeQuery(p *Params) string {
	var sb strings.Builder
	for _, k := range p.Keys() {
		ek := url.QueryEscape(k)
		for _, v := range p.values[k] {
			if sb.Len() > 0 {
				sb.WriteByte('&')
			}
			sb.WriteString(ek)
			sb.WriteByte('=')
			sb.WriteString(url.QueryEscape(v))
		}
	}
	return sb.String()
}

// FlatEncode serializes params as a single-level form body. Keys are written
// literally so callers can pre-bracket them (permissions[staff]); values are
// percent-encoded. A key with several values is repeated.
func FlatEncode(p *Params) string {
	var sb strings.Builder
	for _, k := range p.Keys() {
		for _, v := range p.values[k] {
			if sb.Len() > 0 {
				sb.WriteByte('&')
			}
			sb.WriteString(k)
			sb.WriteByte('=')
			sb.WriteString(url.QueryEscape(v))
		}
	}
	return sb.String()
}

// NestedEncode serializes a struct with go-querystring. Nested struct fields
// produce bracketed keys, so a field tagged `url:"group"` holding a struct
// with a `url:"name"` field encodes as group[name]=...
func NestedEncode(v any) (string, error) {
	if v == nil {
		return "", nil
	}
	vals, err := query.Values(v)
	if err != nil {
		return "", fmt.Errorf("nested encode: %w", err)
	}
	return vals.Encode(), nil
}
