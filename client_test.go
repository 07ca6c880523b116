package discourseapi

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/loykin/discourseapi/internal/forumtest"
)

func newTestClient(t *testing.T, srv *forumtest.Server, opts ...Option) *Client {
	t.Helper()
	c, err := New(srv.Host(), forumtest.DefaultAPIKey, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func lastRequest(t *testing.T, srv *forumtest.Server) forumtest.Recorded {
	t.Helper()
	r, ok := srv.Last()
	if !ok {
		t.Fatalf("server saw no request")
	}
	return r
}

func TestNew_Validation(t *testing.T) {
	if _, err := New("", "k"); err == nil {
		t.Fatalf("expected error for empty host")
	}
	if _, err := New("forum.example.com", "k", WithProtocol("ftp")); err == nil {
		t.Fatalf("expected error for ftp protocol")
	}
	c, err := New(" forum.example.com ", "k", WithProtocol("HTTPS"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if c.Host() != "forum.example.com" {
		t.Fatalf("host not trimmed: %q", c.Host())
	}
	if c.exec.Config.Protocol != "https" {
		t.Fatalf("protocol = %q", c.exec.Config.Protocol)
	}
	if !c.exec.Config.ShowEmails || c.exec.Config.ActingUser != "system" {
		t.Fatalf("unexpected defaults: %+v", c.exec.Config)
	}
}

func TestGetGroup_ReturnsDecodedPayload(t *testing.T) {
	srv := forumtest.NewServer(t)
	srv.Stub(http.MethodGet, "/groups/staff.json", 200, `{"group":{"id":42,"name":"staff"}}`)
	c := newTestClient(t, srv)

	res, err := c.GetGroup(context.Background(), "staff")
	if err != nil {
		t.Fatalf("GetGroup: %v", err)
	}
	if res.Status != 200 || res.Kind != PayloadJSON {
		t.Fatalf("status=%d kind=%s", res.Status, res.Kind)
	}
	if id := res.Get("group.id").Int(); id != 42 {
		t.Fatalf("group.id = %d", id)
	}
	group := res.JSON.(map[string]any)["group"].(map[string]any)
	if group["name"] != "staff" {
		t.Fatalf("payload = %#v", res.JSON)
	}

	r := lastRequest(t, srv)
	if r.Query.Get("api_key") != forumtest.DefaultAPIKey || r.Query.Get("api_username") != "system" || r.Query.Get("show_emails") != "true" {
		t.Fatalf("credentials not injected: %v", r.Query)
	}
}

func TestGet_ShowEmailsDisabled(t *testing.T) {
	srv := forumtest.NewServer(t)
	c := newTestClient(t, srv, WithShowEmails(false), WithActingUser("admin"))

	if _, err := c.GetCategories(context.Background()); err != nil {
		t.Fatalf("GetCategories: %v", err)
	}
	r := lastRequest(t, srv)
	if r.Query.Has("show_emails") {
		t.Fatalf("show_emails should be absent: %v", r.Query)
	}
	if r.Query.Get("api_username") != "admin" {
		t.Fatalf("api_username = %q", r.Query.Get("api_username"))
	}
}

func TestNonJSONBodyIsRaw(t *testing.T) {
	srv := forumtest.NewServer(t)
	srv.Stub(http.MethodGet, "/t/7.json", 502, "<html>Bad Gateway</html>")
	c := newTestClient(t, srv)

	res, err := c.GetTopic(context.Background(), 7)
	if err != nil {
		t.Fatalf("non-2xx must not be an error: %v", err)
	}
	if res.Status != 502 || res.Kind != PayloadRaw || res.Payload() != "<html>Bad Gateway</html>" {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestWrongAPIKeyIsAResult(t *testing.T) {
	srv := forumtest.NewServer(t)
	c, err := New(srv.Host(), "wrong")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	res, err := c.GetGroups(context.Background())
	if err != nil {
		t.Fatalf("GetGroups: %v", err)
	}
	if res.Status != http.StatusForbidden || res.Kind != PayloadJSON {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func refusedHost(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	_ = ln.Close()
	return addr
}

func TestTransportFailure(t *testing.T) {
	c, err := New(refusedHost(t), "secret-key", WithTimeout(2*time.Second))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	res, err := c.GetGroup(context.Background(), "staff")
	var terr *TransportError
	if !errors.As(err, &terr) {
		t.Fatalf("expected *TransportError, got %v", err)
	}
	if res == nil || res.Status != 0 || res.Kind != PayloadNone || res.TransportErr != terr {
		t.Fatalf("unexpected result: %+v", res)
	}
	if strings.Contains(err.Error(), "secret-key") {
		t.Fatalf("api key leaked: %v", err)
	}

	// Lookup-based operations surface the same error instead of a not-found.
	_, err = c.JoinGroup(context.Background(), "staff", "alice")
	if !errors.As(err, &terr) || errors.Is(err, ErrGroupNotFound) {
		t.Fatalf("JoinGroup err = %v", err)
	}
	if l := c.GroupIDByName(context.Background(), "staff"); l.State != LookupFailed || l.Err == nil {
		t.Fatalf("lookup = %+v", l)
	}
}

type memRecorder struct {
	mu    sync.Mutex
	calls []Call
}

func (m *memRecorder) RecordCall(_ context.Context, c Call) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, c)
	return nil
}

func TestRecorderAndLogger(t *testing.T) {
	srv := forumtest.NewServer(t)
	srv.AddGroup("staff", 42)
	rec := &memRecorder{}
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	c := newTestClient(t, srv, WithRecorder(rec), WithLogger(logger))

	if _, err := c.JoinGroup(context.Background(), "staff", "alice"); err != nil {
		t.Fatalf("JoinGroup: %v", err)
	}
	if len(rec.calls) != 2 {
		t.Fatalf("recorded %d calls, want 2", len(rec.calls))
	}
	if rec.calls[0].Method != http.MethodGet || rec.calls[1].Method != http.MethodPut {
		t.Fatalf("calls = %+v", rec.calls)
	}
	if rec.calls[1].Path != "/groups/42/members.json" || rec.calls[1].Status != 200 {
		t.Fatalf("put call = %+v", rec.calls[1])
	}
	if !strings.Contains(buf.String(), "sending request") {
		t.Fatalf("expected debug logs, got %q", buf.String())
	}
	if strings.Contains(buf.String(), forumtest.DefaultAPIKey) {
		t.Fatalf("api key leaked into logs: %s", buf.String())
	}
}

func TestDo_RawRequest(t *testing.T) {
	srv := forumtest.NewServer(t)
	c := newTestClient(t, srv)

	res, err := c.Do(context.Background(), Request{
		Method: http.MethodGet,
		Path:   "/search.json",
		Params: NewParams().Set("q", "hello world"),
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if !res.OK() {
		t.Fatalf("status = %d", res.Status)
	}
	if got := lastRequest(t, srv).Query.Get("q"); got != "hello world" {
		t.Fatalf("q = %q", got)
	}

	if _, err := c.Do(context.Background(), Request{Method: "PATCH", Path: "/x"}); err == nil {
		t.Fatalf("expected error for PATCH")
	}
}
