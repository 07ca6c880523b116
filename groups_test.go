package discourseapi

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/loykin/discourseapi/internal/forumtest"
)

func TestJoinGroup_LookupNotFoundShortCircuits(t *testing.T) {
	srv := forumtest.NewServer(t)
	srv.Stub(http.MethodGet, "/groups/staff.json", 404, `{"errors":["not found"]}`)
	c := newTestClient(t, srv)

	res, err := c.JoinGroup(context.Background(), "staff", "alice")
	if !errors.Is(err, ErrGroupNotFound) {
		t.Fatalf("err = %v, want ErrGroupNotFound", err)
	}
	if res != nil {
		t.Fatalf("expected nil result, got %+v", res)
	}
	if n := srv.Count(http.MethodPut); n != 0 {
		t.Fatalf("issued %d PUT requests", n)
	}
	if n := len(srv.Requests()); n != 1 {
		t.Fatalf("issued %d requests, want only the lookup", n)
	}
}

func TestJoinGroup(t *testing.T) {
	srv := forumtest.NewServer(t)
	srv.AddGroup("staff", 42)
	c := newTestClient(t, srv)

	res, err := c.JoinGroup(context.Background(), "staff", "alice")
	if err != nil {
		t.Fatalf("JoinGroup: %v", err)
	}
	if !res.OK() {
		t.Fatalf("status = %d", res.Status)
	}
	r := lastRequest(t, srv)
	if r.Method != http.MethodPut || r.Path != "/groups/42/members.json" {
		t.Fatalf("request = %s %s", r.Method, r.Path)
	}
	if r.Body != "usernames=alice" {
		t.Fatalf("body = %q", r.Body)
	}
	if r.Query.Get("api_key") == "" || r.Query.Has("show_emails") {
		t.Fatalf("write query = %v", r.Query)
	}
	if got := srv.Members(42); len(got) != 1 || got[0] != "alice" {
		t.Fatalf("members = %v", got)
	}
}

func TestLeaveGroup(t *testing.T) {
	srv := forumtest.NewServer(t)
	srv.AddGroup("staff", 42)
	srv.AddUser(forumtest.User{ID: 7, Username: "alice", Email: "a@x.com"})
	c := newTestClient(t, srv)

	if _, err := c.JoinGroup(context.Background(), "staff", "alice"); err != nil {
		t.Fatalf("JoinGroup: %v", err)
	}
	if _, err := c.LeaveGroup(context.Background(), "staff", "alice"); err != nil {
		t.Fatalf("LeaveGroup: %v", err)
	}
	r := lastRequest(t, srv)
	if r.Method != http.MethodDelete || r.Path != "/groups/42/members.json" || r.Form.Get("user_id") != "7" {
		t.Fatalf("request = %s %s %q", r.Method, r.Path, r.Body)
	}
	if got := srv.Members(42); len(got) != 0 {
		t.Fatalf("members = %v", got)
	}
}

func TestLeaveGroup_LookupFailures(t *testing.T) {
	srv := forumtest.NewServer(t)
	srv.AddGroup("staff", 42)
	c := newTestClient(t, srv)

	// Unknown user: stops after the user lookup.
	_, err := c.LeaveGroup(context.Background(), "staff", "ghost")
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("err = %v, want ErrUserNotFound", err)
	}
	if n := len(srv.Requests()); n != 1 {
		t.Fatalf("issued %d requests, want 1", n)
	}

	// Unknown group: user lookup succeeds, group lookup does not.
	srv.AddUser(forumtest.User{ID: 7, Username: "alice"})
	_, err = c.LeaveGroup(context.Background(), "nope", "alice")
	if !errors.Is(err, ErrGroupNotFound) {
		t.Fatalf("err = %v, want ErrGroupNotFound", err)
	}
	if n := srv.Count(http.MethodDelete); n != 0 {
		t.Fatalf("issued %d DELETE requests", n)
	}
}

func TestAddGroup_NestedBody(t *testing.T) {
	srv := forumtest.NewServer(t)
	c := newTestClient(t, srv)

	opts := DefaultGroupOptions()
	opts.Usernames = []string{"alice", "bob"}
	opts.Title = "Team Members"
	res, err := c.AddGroup(context.Background(), "team", &opts)
	if err != nil {
		t.Fatalf("AddGroup: %v", err)
	}
	if !res.OK() || res.Get("basic_group.name").String() != "team" {
		t.Fatalf("result = %+v", res)
	}

	r := lastRequest(t, srv)
	if r.Method != http.MethodPost || r.Path != "/admin/groups" {
		t.Fatalf("request = %s %s", r.Method, r.Path)
	}
	want := map[string]string{
		"group[name]":                               "team",
		"group[usernames]":                          "alice,bob",
		"group[alias_level]":                        "3",
		"group[visible]":                            "true",
		"group[automatic_membership_email_domains]": "",
		"group[automatic_membership_retroactive]":   "false",
		"group[title]":                              "Team Members",
		"group[primary_group]":                      "false",
		"group[grant_trust_level]":                  "0",
	}
	for k, v := range want {
		if !r.Form.Has(k) || r.Form.Get(k) != v {
			t.Fatalf("%s = %q (present=%v), want %q; body %q", k, r.Form.Get(k), r.Form.Has(k), v, r.Body)
		}
	}
	if len(r.Form) != len(want) {
		t.Fatalf("unexpected extra fields: %v", r.Form)
	}
	if !srv.HasGroup("team") {
		t.Fatalf("group was not created")
	}
}

func TestAddGroup_Defaults(t *testing.T) {
	srv := forumtest.NewServer(t)
	c := newTestClient(t, srv)

	if _, err := c.AddGroup(context.Background(), "empty", nil); err != nil {
		t.Fatalf("AddGroup: %v", err)
	}
	r := lastRequest(t, srv)
	if r.Form.Get("group[alias_level]") != "3" || r.Form.Get("group[visible]") != "true" || r.Form.Get("group[usernames]") != "" {
		t.Fatalf("defaults not applied: %v", r.Form)
	}
}

func TestAddGroup_Exists(t *testing.T) {
	srv := forumtest.NewServer(t)
	srv.AddGroup("staff", 42)
	c := newTestClient(t, srv)

	_, err := c.AddGroup(context.Background(), "staff", nil)
	if !errors.Is(err, ErrGroupExists) {
		t.Fatalf("err = %v, want ErrGroupExists", err)
	}
	if n := srv.Count(http.MethodPost); n != 0 {
		t.Fatalf("issued %d POST requests", n)
	}
}

func TestRemoveGroup(t *testing.T) {
	srv := forumtest.NewServer(t)
	srv.AddGroup("staff", 42)
	c := newTestClient(t, srv)

	res, err := c.RemoveGroup(context.Background(), "staff")
	if err != nil {
		t.Fatalf("RemoveGroup: %v", err)
	}
	if !res.OK() {
		t.Fatalf("status = %d", res.Status)
	}
	r := lastRequest(t, srv)
	if r.Method != http.MethodDelete || r.Path != "/admin/groups/42" || r.Body != "" {
		t.Fatalf("request = %s %s %q", r.Method, r.Path, r.Body)
	}
	if srv.HasGroup("staff") {
		t.Fatalf("group still present")
	}

	_, err = c.RemoveGroup(context.Background(), "staff")
	if !errors.Is(err, ErrGroupNotFound) {
		t.Fatalf("second remove err = %v", err)
	}
	if n := srv.Count(http.MethodDelete); n != 1 {
		t.Fatalf("DELETE count = %d, want 1", n)
	}
}

func TestGroupReads(t *testing.T) {
	srv := forumtest.NewServer(t)
	srv.AddGroup("staff", 42)
	srv.AddGroup("admins", 1)
	c := newTestClient(t, srv)
	ctx := context.Background()

	res, err := c.GetGroups(ctx)
	if err != nil {
		t.Fatalf("GetGroups: %v", err)
	}
	if n := res.Get("groups.#").Int(); n != 2 {
		t.Fatalf("groups = %d", n)
	}

	if _, err := c.GetGroupMembers(ctx, "staff"); err != nil {
		t.Fatalf("GetGroupMembers: %v", err)
	}
	if r := lastRequest(t, srv); r.Path != "/groups/staff/members.json" {
		t.Fatalf("path = %s", r.Path)
	}

	l := c.GroupIDByName(ctx, "staff")
	if !l.Found() || l.ID != 42 || l.State.String() != "found" {
		t.Fatalf("lookup = %+v", l)
	}
	if l := c.GroupIDByName(ctx, "missing"); l.State != LookupNotFound || l.Status != 404 {
		t.Fatalf("lookup = %+v", l)
	}
}

func TestGroupName_PathEscaped(t *testing.T) {
	srv := forumtest.NewServer(t)
	c := newTestClient(t, srv)

	if _, err := c.GetGroup(context.Background(), "a/b c"); err != nil {
		t.Fatalf("GetGroup: %v", err)
	}
	if got := lastRequest(t, srv).RawPath; got != "/groups/a%2Fb%20c.json" {
		t.Fatalf("raw path = %q", got)
	}
}
