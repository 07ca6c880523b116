package httpc

import (
	"crypto/tls"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/loykin/discourseapi/internal/constants"
)

// Httpc describes the transport the executor talks through.
type Httpc struct {
	TlsConfig *tls.Config
	Timeout   time.Duration
	// Transport replaces the default transport; tests use it to inject failures.
	Transport http.RoundTripper
}

// New returns a resty.Client configured from the receiver.
// Defaults: DefaultTimeout when Timeout is zero, MinVersion TLS1.2 when a TLS
// config is given without one. Only GET follows redirects; any other verb
// gets the 30x back as its response.
func (h *Httpc) New() *resty.Client {
	c := resty.New()
	timeout := h.Timeout
	if timeout <= 0 {
		timeout = constants.DefaultTimeout
	}
	c.SetTimeout(timeout)
	c.SetRedirectPolicy(getOnlyRedirects(constants.DefaultRedirects))
	if h.Transport != nil {
		c.SetTransport(h.Transport)
	}
	if h.TlsConfig == nil {
		return c
	}
	cfg := h.TlsConfig.Clone()
	if cfg.MinVersion == 0 {
		cfg.MinVersion = tls.VersionTLS12
	}
	c.SetTLSClientConfig(cfg)
	return c
}

func getOnlyRedirects(limit int) resty.RedirectPolicy {
	return resty.RedirectPolicyFunc(func(req *http.Request, via []*http.Request) error {
		if len(via) > 0 && via[0].Method != http.MethodGet {
			return http.ErrUseLastResponse
		}
		if len(via) >= limit {
			return fmt.Errorf("stopped after %d redirects", limit)
		}
		return nil
	})
}

// TLSOptions are the user-facing TLS knobs (config file / flags).
type TLSOptions struct {
	Insecure      bool
	MinTLSVersion string
	MaxTLSVersion string
}

// Build converts the options into a tls.Config. It returns nil when nothing
// was customised so resty keeps its default transport settings.
func (o TLSOptions) Build() (*tls.Config, error) {
	if !o.Insecure && strings.TrimSpace(o.MinTLSVersion) == "" && strings.TrimSpace(o.MaxTLSVersion) == "" {
		return nil, nil
	}
	cfg := &tls.Config{InsecureSkipVerify: o.Insecure} // #nosec G402 -- opt-in via config
	if s := strings.TrimSpace(o.MinTLSVersion); s != "" {
		v := parseTLSVersion(s)
		if v == 0 {
			return nil, fmt.Errorf("invalid min_tls_version %q", s)
		}
		cfg.MinVersion = v
	}
	if s := strings.TrimSpace(o.MaxTLSVersion); s != "" {
		v := parseTLSVersion(s)
		if v == 0 {
			return nil, fmt.Errorf("invalid max_tls_version %q", s)
		}
		cfg.MaxVersion = v
	}
	if cfg.MinVersion != 0 && cfg.MaxVersion != 0 && cfg.MinVersion > cfg.MaxVersion {
		return nil, fmt.Errorf("min_tls_version %q is above max_tls_version %q", o.MinTLSVersion, o.MaxTLSVersion)
	}
	return cfg, nil
}

// parseTLSVersion accepts "1.2", "tls1.2", "TLS12" and similar spellings.
// Unknown input yields 0.
func parseTLSVersion(s string) uint16 {
	v := strings.ToLower(strings.TrimSpace(s))
	v = strings.TrimPrefix(v, "tls")
	v = strings.TrimPrefix(v, "v")
	v = strings.ReplaceAll(v, "_", ".")
	switch v {
	case "1.0", "10":
		return tls.VersionTLS10
	case "1.1", "11":
		return tls.VersionTLS11
	case "1.2", "12":
		return tls.VersionTLS12
	case "1.3", "13":
		return tls.VersionTLS13
	default:
		return 0
	}
}
