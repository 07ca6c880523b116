package request

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/loykin/discourseapi/internal/common"
	"github.com/loykin/discourseapi/internal/constants"
	"github.com/loykin/discourseapi/internal/httpc"
)

// Config is the immutable connection description shared by every call.
type Config struct {
	Host     string
	Protocol string
	APIKey   string
	// ActingUser is used when a Request leaves ActingUser empty.
	ActingUser string
	// ShowEmails adds show_emails=true to every GET.
	ShowEmails bool
}

// Request describes one call. Params go to the query string for GET and to
// the body for writes, unless Encoding is EncodingNested, in which case the
// body is built from Nested and Params are ignored.
type Request struct {
	Method     string
	Path       string
	Params     *Params
	Encoding   Encoding
	Nested     any
	ActingUser string
}

// Call is what the executor hands to a Recorder after every request.
type Call struct {
	Method         string
	Path           string
	ActingUser     string
	Status         int
	TransportError string
	Body           string
	Duration       time.Duration
}

// Recorder receives a Call after each request. Errors are logged only.
type Recorder interface {
	RecordCall(ctx context.Context, call Call) error
}

// Executor issues requests. The zero value of every field except Config is
// usable: a default resty client and the package logger are picked up lazily.
type Executor struct {
	Config   Config
	Client   *resty.Client
	Recorder Recorder
	Logger   *common.Logger
}

// Execute performs exactly one HTTP round trip and normalizes its outcome.
//
// Non-2xx statuses are returned as ordinary results. A transport failure
// returns a Result with Status 0 and TransportErr set, together with the same
// *TransportError as error. An unsupported method is rejected before any I/O
// with a nil Result.
func (e *Executor) Execute(ctx context.Context, req Request) (*Result, error) {
	method := strings.ToUpper(strings.TrimSpace(req.Method))
	switch method {
	case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete:
	default:
		return nil, fmt.Errorf("unsupported method: %q", req.Method)
	}

	user := strings.TrimSpace(req.ActingUser)
	if user == "" {
		user = e.Config.ActingUser
	}
	if user == "" {
		user = constants.DefaultActingUser
	}

	logger := e.logger().WithComponent("executor").WithRequest(method, req.Path).WithUser(user)

	var (
		target string
		body   string
	)
	if method == http.MethodGet {
		target = BuildURL(e.Config, req.Path, EncodeQuery(e.getQuery(req.Params, user)))
	} else {
		target = BuildURL(e.Config, req.Path, EncodeQuery(e.authQuery(user)))
		var err error
		body, err = buildBody(req)
		if err != nil {
			return nil, err
		}
	}

	masker := common.GetGlobalMasker()
	logger.Debug("sending request", "url", masker.MaskURL(target), "encoding", req.Encoding.String(), "body", masker.MaskString(body))

	r := e.client().R().SetContext(ctx)
	if method != http.MethodGet {
		r.SetHeader("Content-Type", constants.FormContentType).SetBody(body)
	}

	started := time.Now()
	resp, err := r.Execute(method, target)
	elapsed := time.Since(started)
	if err != nil {
		masked := masker.MaskURL(target)
		var uerr *url.Error
		if errors.As(err, &uerr) {
			uerr.URL = masked
		}
		terr := &TransportError{Method: method, URL: masked, Err: err}
		logger.Warn("transport failure", "error", err, "duration", elapsed)
		res := &Result{Kind: PayloadNone, TransportErr: terr}
		e.record(ctx, logger, req, method, user, res, elapsed)
		return res, terr
	}

	res := newResult(resp.StatusCode(), resp.Body())
	logger.Debug("received response", "status", res.Status, "payload", res.Kind.String(), "size", len(res.Raw), "duration", elapsed)
	e.record(ctx, logger, req, method, user, res, elapsed)
	return res, nil
}

// getQuery merges caller params with the injected credentials. Injected keys
// always win over caller-supplied ones.
func (e *Executor) getQuery(p *Params, user string) *Params {
	q := p.Clone()
	q.Set(constants.ParamAPIKey, e.Config.APIKey)
	q.Set(constants.ParamAPIUsername, user)
	if e.Config.ShowEmails {
		q.Set(constants.ParamShowEmails, "true")
	}
	return q
}

func (e *Executor) authQuery(user string) *Params {
	return NewParams().
		Set(constants.ParamAPIKey, e.Config.APIKey).
		Set(constants.ParamAPIUsername, user)
}

func buildBody(req Request) (string, error) {
	switch req.Encoding {
	case EncodingFlat:
		return FlatEncode(req.Params), nil
	case EncodingNested:
		return NestedEncode(req.Nested)
	default:
		return "", fmt.Errorf("unknown encoding %s", req.Encoding)
	}
}

// BuildURL composes {protocol}://{host}{path}?{query}. A path that already
// carries a query string is extended with '&'.
func BuildURL(cfg Config, path, query string) string {
	proto := strings.TrimSuffix(strings.TrimSpace(cfg.Protocol), "://")
	if proto == "" {
		proto = constants.DefaultProtocol
	}
	host := strings.TrimRight(strings.TrimSpace(cfg.Host), "/")
	if path != "" && !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	u := proto + "://" + host + path
	if query == "" {
		return u
	}
	if strings.Contains(path, "?") {
		return u + "&" + query
	}
	return u + "?" + query
}

func (e *Executor) record(ctx context.Context, logger *common.Logger, req Request, method, user string, res *Result, d time.Duration) {
	if e.Recorder == nil {
		return
	}
	call := Call{
		Method:     method,
		Path:       req.Path,
		ActingUser: user,
		Status:     res.Status,
		Body:       res.Raw,
		Duration:   d,
	}
	if res.TransportErr != nil {
		call.TransportError = res.TransportErr.Error()
	}
	// A cancelled request is still worth recording.
	if err := e.Recorder.RecordCall(context.WithoutCancel(ctx), call); err != nil {
		logger.Error("failed to record call", "error", err)
	}
}

func (e *Executor) client() *resty.Client {
	if e.Client == nil {
		h := httpc.Httpc{}
		return h.New()
	}
	return e.Client
}

func (e *Executor) logger() *common.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return common.GetLogger()
}
