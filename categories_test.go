package discourseapi

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/loykin/discourseapi/internal/forumtest"
)

func TestUpdateCategory_Permissions(t *testing.T) {
	srv := forumtest.NewServer(t)
	c := newTestClient(t, srv)

	u := DefaultCategoryUpdate()
	u.Name = "General"
	u.Permissions = map[string]int{"everyone": 1}
	if _, err := c.UpdateCategory(context.Background(), 5, u); err != nil {
		t.Fatalf("UpdateCategory: %v", err)
	}

	r := lastRequest(t, srv)
	if r.Method != http.MethodPut || r.Path != "/categories/5" {
		t.Fatalf("request = %s %s", r.Method, r.Path)
	}
	if !strings.Contains(r.Body, "permissions[everyone]=1") {
		t.Fatalf("permissions not flattened: %q", r.Body)
	}
	want := map[string]string{
		"allow_badges":                  "true",
		"auto_close_based_on_last_post": "false",
		"auto_close_hours":              "",
		"background_url":                "",
		"color":                         "0E76BD",
		"contains_messages":             "false",
		"email_in":                      "",
		"email_in_allow_strangers":      "false",
		"logo_url":                      "",
		"name":                          "General",
		"parent_category_id":            "",
		"position":                      "",
		"slug":                          "",
		"suppress_from_homepage":        "false",
		"text_color":                    "FFFFFF",
		"topic_template":                "",
		"permissions[everyone]":         "1",
	}
	for k, v := range want {
		if !r.Form.Has(k) || r.Form.Get(k) != v {
			t.Fatalf("%s = %q (present=%v), want %q", k, r.Form.Get(k), r.Form.Has(k), v)
		}
	}
	if len(r.Form) != len(want) {
		t.Fatalf("form has %d keys, want %d: %v", len(r.Form), len(want), r.Form)
	}
	// Credentials stay in the query string.
	if r.Form.Has("api_key") || r.Query.Get("api_key") == "" {
		t.Fatalf("api_key misplaced: query=%v form=%v", r.Query, r.Form)
	}
}

func TestUpdateCategory_PermissionsSorted(t *testing.T) {
	p := CategoryUpdate{Permissions: map[string]int{"staff": 1, "everyone": 3, "admins": 2}}.params()
	keys := p.Keys()
	tail := keys[len(keys)-3:]
	want := []string{"permissions[admins]", "permissions[everyone]", "permissions[staff]"}
	for i := range want {
		if tail[i] != want[i] {
			t.Fatalf("permission keys = %v, want %v", tail, want)
		}
	}
}

func TestCreateCategory(t *testing.T) {
	srv := forumtest.NewServer(t)
	c := newTestClient(t, srv)

	if _, err := c.CreateCategory(context.Background(), "Off Topic", "FF0000", "", ""); err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	r := lastRequest(t, srv)
	if r.Method != http.MethodPost || r.Path != "/categories" {
		t.Fatalf("request = %s %s", r.Method, r.Path)
	}
	if r.Body != "name=Off+Topic&color=FF0000&text_color=000000" {
		t.Fatalf("body = %q", r.Body)
	}
	if r.Query.Get("api_username") != "system" {
		t.Fatalf("api_username = %q", r.Query.Get("api_username"))
	}

	if _, err := c.CreateCategory(context.Background(), "News", "00FF00", "FFFFFF", "editor"); err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	r = lastRequest(t, srv)
	if r.Form.Get("text_color") != "FFFFFF" || r.Query.Get("api_username") != "editor" {
		t.Fatalf("form=%v query=%v", r.Form, r.Query)
	}
}

func TestCategoryReads(t *testing.T) {
	srv := forumtest.NewServer(t)
	c := newTestClient(t, srv)
	ctx := context.Background()

	if _, err := c.GetCategory(ctx, "general"); err != nil {
		t.Fatalf("GetCategory: %v", err)
	}
	if r := lastRequest(t, srv); r.Path != "/c/general.json" {
		t.Fatalf("path = %s", r.Path)
	}
	if _, err := c.GetCategories(ctx); err != nil {
		t.Fatalf("GetCategories: %v", err)
	}
	if r := lastRequest(t, srv); r.Path != "/categories.json" {
		t.Fatalf("path = %s", r.Path)
	}
}
