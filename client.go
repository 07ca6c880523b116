package discourseapi

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/loykin/discourseapi/internal/common"
	"github.com/loykin/discourseapi/internal/constants"
	"github.com/loykin/discourseapi/internal/httpc"
	"github.com/loykin/discourseapi/internal/request"
)

// Re-export the executor types for public use

// Result is the normalized outcome of one API call.
type Result = request.Result

// PayloadKind tags what a Result carries.
type PayloadKind = request.PayloadKind

const (
	PayloadNone = request.PayloadNone
	PayloadJSON = request.PayloadJSON
	PayloadRaw  = request.PayloadRaw
)

// TransportError reports a request that never produced an HTTP response.
type TransportError = request.TransportError

// Params is an ordered parameter mapping.
type Params = request.Params

// NewParams returns an empty parameter mapping.
func NewParams() *Params { return request.NewParams() }

// Encoding selects flat or nested form bodies for write requests.
type Encoding = request.Encoding

const (
	EncodingFlat   = request.EncodingFlat
	EncodingNested = request.EncodingNested
)

// Request describes a raw call for endpoints this package does not wrap.
type Request = request.Request

// Call is one recorded request.
type Call = request.Call

// Recorder receives every Call made by a Client.
type Recorder = request.Recorder

// Client talks to one forum instance. It is safe for concurrent use.
type Client struct {
	exec *request.Executor
}

type options struct {
	protocol   string
	actingUser string
	showEmails bool
	timeout    time.Duration
	tlsConfig  *tls.Config
	transport  http.RoundTripper
	httpClient *resty.Client
	recorder   Recorder
	logger     *common.Logger
}

// Option configures a Client.
type Option func(*options)

// WithProtocol sets "http" (default) or "https".
func WithProtocol(protocol string) Option {
	return func(o *options) { o.protocol = protocol }
}

// WithActingUser sets the default api_username.
func WithActingUser(username string) Option {
	return func(o *options) { o.actingUser = username }
}

// WithShowEmails toggles show_emails=true on GET requests. On by default.
func WithShowEmails(on bool) Option {
	return func(o *options) { o.showEmails = on }
}

// WithTimeout bounds every request.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithTLSConfig sets the TLS configuration of the default HTTP client.
func WithTLSConfig(cfg *tls.Config) Option {
	return func(o *options) { o.tlsConfig = cfg }
}

// WithTransport swaps the underlying RoundTripper, mostly for tests.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) { o.transport = rt }
}

// WithHTTPClient uses a preconfigured resty client. Timeout, TLS and
// transport options are ignored when set.
func WithHTTPClient(c *resty.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithRecorder records every call, e.g. into a Store.
func WithRecorder(r Recorder) Option {
	return func(o *options) { o.recorder = r }
}

// WithLogger routes client logs to l.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = common.FromSlog(l, common.LogLevelDebug)
		}
	}
}

// New creates a client for host, e.g. New("forum.example.com", key).
func New(host, apiKey string, opts ...Option) (*Client, error) {
	o := options{
		protocol:   constants.DefaultProtocol,
		actingUser: constants.DefaultActingUser,
		showEmails: true,
		timeout:    constants.DefaultTimeout,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	host = strings.TrimSpace(host)
	if host == "" {
		return nil, errors.New("host is required")
	}
	o.protocol = strings.ToLower(strings.TrimSpace(o.protocol))
	if o.protocol != "http" && o.protocol != "https" {
		return nil, fmt.Errorf("unsupported protocol: %q", o.protocol)
	}

	hc := o.httpClient
	if hc == nil {
		h := httpc.Httpc{TlsConfig: o.tlsConfig, Timeout: o.timeout, Transport: o.transport}
		hc = h.New()
	}

	return &Client{exec: &request.Executor{
		Config: request.Config{
			Host:       host,
			Protocol:   o.protocol,
			APIKey:     apiKey,
			ActingUser: o.actingUser,
			ShowEmails: o.showEmails,
		},
		Client:   hc,
		Recorder: o.recorder,
		Logger:   o.logger,
	}}, nil
}

// Host returns the configured host name.
func (c *Client) Host() string { return c.exec.Config.Host }

// Do executes a raw request. It is the escape hatch for endpoints without a
// dedicated method.
func (c *Client) Do(ctx context.Context, req Request) (*Result, error) {
	return c.exec.Execute(ctx, req)
}

func (c *Client) get(ctx context.Context, path string, params *Params) (*Result, error) {
	return c.exec.Execute(ctx, Request{Method: http.MethodGet, Path: path, Params: params})
}

func (c *Client) write(ctx context.Context, method, path string, params *Params, actingUser string) (*Result, error) {
	return c.exec.Execute(ctx, Request{
		Method:     method,
		Path:       path,
		Params:     params,
		Encoding:   EncodingFlat,
		ActingUser: actingUser,
	})
}

func (c *Client) writeNested(ctx context.Context, method, path string, payload any) (*Result, error) {
	return c.exec.Execute(ctx, Request{
		Method:   method,
		Path:     path,
		Encoding: EncodingNested,
		Nested:   payload,
	})
}

// seg escapes a caller-supplied path segment.
func seg(s string) string { return url.PathEscape(s) }
