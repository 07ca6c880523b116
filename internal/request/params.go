package request

import (
	"fmt"
	"net/url"
	"strconv"
)

// Params is an ordered parameter mapping. Keys keep their first insertion
// position so flat bodies are written in the order endpoint methods list them.
// A nil *Params behaves as an empty mapping.
type Params struct {
	keys   []string
	values map[string][]string
}

// NewParams returns an empty mapping.
func NewParams() *Params {
	return &Params{values: map[string][]string{}}
}

// Set replaces the values stored under key. Slices of strings become several
// values; other scalars are formatted with FormatValue.
func (p *Params) Set(key string, value any) *Params {
	if p.values == nil {
		p.values = map[string][]string{}
	}
	if _, ok := p.values[key]; !ok {
		p.keys = append(p.keys, key)
	}
	switch v := value.(type) {
	case []string:
		p.values[key] = append([]string(nil), v...)
	default:
		p.values[key] = []string{FormatValue(value)}
	}
	return p
}

// Add appends values under key.
func (p *Params) Add(key string, values ...string) *Params {
	if p.values == nil {
		p.values = map[string][]string{}
	}
	if _, ok := p.values[key]; !ok {
		p.keys = append(p.keys, key)
	}
	p.values[key] = append(p.values[key], values...)
	return p
}

// Get returns the first value stored under key, or "".
func (p *Params) Get(key string) string {
	if p == nil {
		return ""
	}
	if vs := p.values[key]; len(vs) > 0 {
		return vs[0]
	}
	return ""
}

// Has reports whether key is present.
func (p *Params) Has(key string) bool {
	if p == nil {
		return false
	}
	_, ok := p.values[key]
	return ok
}

// Keys returns the keys in insertion order.
func (p *Params) Keys() []string {
	if p == nil {
		return nil
	}
	return append([]string(nil), p.keys...)
}

// Len returns the number of distinct keys.
func (p *Params) Len() int {
	if p == nil {
		return 0
	}
	return len(p.keys)
}

// Values converts the mapping to url.Values.
func (p *Params) Values() url.Values {
	out := url.Values{}
	if p == nil {
		return out
	}
	for _, k := range p.keys {
		out[k] = append([]string(nil), p.values[k]...)
	}
	return out
}

// Clone returns an independent copy.
func (p *Params) Clone() *Params {
	c := NewParams()
	if p == nil {
		return c
	}
	for _, k := range p.keys {
		c.Add(k, p.values[k]...)
	}
	return c
}

// FormatValue renders a scalar the way the forum expects it in a form field.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case int32:
		return strconv.FormatInt(int64(val), 10)
	case uint:
		return strconv.FormatUint(uint64(val), 10)
	case uint64:
		return strconv.FormatUint(val, 10)
	case float64:
		if val == float64(int64(val)) {
			return strconv.FormatInt(int64(val), 10)
		}
		return strconv.FormatFloat(val, 'f', -1, 64)
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprintf("%v", val)
	}
}
