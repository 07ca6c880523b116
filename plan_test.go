package discourseapi

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/loykin/discourseapi/internal/forumtest"
	"github.com/loykin/discourseapi/internal/plan"
)

func decodePlan(t *testing.T, doc string) *Plan {
	t.Helper()
	p, err := plan.Decode(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("decode plan: %v", err)
	}
	return p
}

func TestApply_RunsStepsWithVariables(t *testing.T) {
	srv := forumtest.NewServer(t)
	srv.AddUser(forumtest.User{ID: 5, Username: "alice", Email: "a@x.com"})
	srv.Stub(http.MethodPost, "/posts", 200, `{"id":900,"topic_id":31}`)
	c := newTestClient(t, srv)

	p := decodePlan(t, `
name: bootstrap
vars:
  team: staff
steps:
  - name: team
    op: add_group
    args:
      name: "{{.team}}"
      usernames: [alice]
      title: Staff
  - op: join_group
    args: {group: "{{.team}}", username: alice}
  - name: welcome
    op: create_topic
    args: {title: Welcome, body: Hello, category: 1, acting_user: alice}
    capture: {topic_id: topic_id}
  - op: invite_user
    args: {email: b@x.com, topic_id: "{{.topic_id}}"}
  - op: update_category
    args:
      id: 3
      name: General
      permissions: {staff: 1}
  - op: change_site_setting
    args: {name: title, value: My Forum}
`)
	report, err := c.Apply(context.Background(), p)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(report.Steps) != 6 || report.Failures() != 0 {
		t.Fatalf("report = %+v", report)
	}
	if report.Vars["topic_id"] != "31" || report.Steps[0].Name != "team" || report.Steps[1].Name != "#2 join_group" {
		t.Fatalf("report = %+v", report)
	}

	var invite, category *forumtest.Recorded
	reqs := srv.Requests()
	for i := range reqs {
		switch reqs[i].Path {
		case "/t/31/invite.json":
			invite = &reqs[i]
		case "/categories/3":
			category = &reqs[i]
		}
	}
	if invite == nil || invite.Form.Get("topic_id") != "31" {
		t.Fatalf("invite request = %+v", invite)
	}
	if category == nil || category.Form.Get("permissions[staff]") != "1" || category.Form.Get("color") != "0E76BD" || category.Form.Get("name") != "General" {
		t.Fatalf("category request = %+v", category)
	}
	if !srv.HasGroup("staff") {
		t.Fatalf("group not created")
	}
}

func TestApply_StopsOnFirstFailure(t *testing.T) {
	srv := forumtest.NewServer(t)
	c := newTestClient(t, srv)

	p := decodePlan(t, `
steps:
  - op: join_group
    args: {group: missing, username: alice}
  - op: change_site_setting
    args: {name: title, value: x}
`)
	report, err := c.Apply(context.Background(), p)
	if !errors.Is(err, ErrGroupNotFound) {
		t.Fatalf("err = %v", err)
	}
	if len(report.Steps) != 1 || !report.Steps[0].Failed() {
		t.Fatalf("report = %+v", report)
	}
	if srv.Count(http.MethodPut) != 0 {
		t.Fatalf("second step should not run")
	}
}

func TestApply_ContinueOnErrorAndStatus(t *testing.T) {
	srv := forumtest.NewServer(t)
	srv.Stub(http.MethodPut, "/admin/site_settings/title", 422, `{"errors":["invalid"]}`)
	c := newTestClient(t, srv)

	p := decodePlan(t, `
steps:
  - op: change_site_setting
    args: {name: title, value: x}
    continue_on_error: true
  - op: change_site_setting
    args: {name: title, value: y}
    expect: [422]
  - op: activate_user
    args: {id: "12"}
`)
	report, err := c.Apply(context.Background(), p)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(report.Steps) != 3 || report.Failures() != 1 {
		t.Fatalf("report = %+v", report)
	}
	if !errors.Is(report.Steps[0].Err, ErrUnexpectedStatus) || report.Steps[0].Result.Status != 422 {
		t.Fatalf("step 0 = %+v", report.Steps[0])
	}
	if r := lastRequest(t, srv); r.Path != "/admin/users/12/activate" {
		t.Fatalf("last path = %s", r.Path)
	}
}

func TestApply_ArgErrors(t *testing.T) {
	srv := forumtest.NewServer(t)
	c := newTestClient(t, srv)

	p := decodePlan(t, `
steps:
  - op: remove_group
    args: {name: staff, nmae: typo}
`)
	_, err := c.Apply(context.Background(), p)
	if err == nil || !strings.Contains(err.Error(), "invalid args") {
		t.Fatalf("err = %v", err)
	}
	if len(srv.Requests()) != 0 {
		t.Fatalf("no request expected")
	}

	p = decodePlan(t, `
steps:
  - op: remove_group
    args: {name: "{{.undefined}}"}
`)
	if _, err := c.Apply(context.Background(), p); err == nil {
		t.Fatalf("expected template error")
	}

	p = decodePlan(t, `
steps:
  - op: drop_database
`)
	if _, err := c.Apply(context.Background(), p); err == nil || !strings.Contains(err.Error(), "unknown op") {
		t.Fatalf("err = %v", err)
	}
}

func TestLoadPlanAndOps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "p.yaml")
	if err := os.WriteFile(path, []byte("steps:\n  - op: logout_user\n    args: {username: bob}\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	p, err := LoadPlan(path)
	if err != nil || len(p.Steps) != 1 {
		t.Fatalf("LoadPlan = %+v, %v", p, err)
	}

	ops := PlanOps()
	if len(ops) != 14 || ops[0] != "activate_user" {
		t.Fatalf("ops = %v", ops)
	}
}
