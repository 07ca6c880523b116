package plan

import (
	"strings"
	"testing"
)

func TestRenderArgs(t *testing.T) {
	v := NewVars(map[string]string{"team": "staff", "topic_id": "31"})
	args := map[string]any{
		"name":      "{{.team}}",
		"topic_id":  "{{.topic_id}}",
		"plain":     "no templates",
		"count":     3,
		"usernames": []any{"alice", "{{.team}}-bot"},
		"nested":    map[string]any{"title": "Team {{.team}}"},
	}
	got, err := v.RenderArgs(args)
	if err != nil {
		t.Fatalf("RenderArgs: %v", err)
	}
	if got["name"] != "staff" || got["topic_id"] != "31" || got["plain"] != "no templates" || got["count"] != 3 {
		t.Fatalf("rendered = %#v", got)
	}
	if users := got["usernames"].([]any); users[1] != "staff-bot" {
		t.Fatalf("usernames = %#v", users)
	}
	if nested := got["nested"].(map[string]any); nested["title"] != "Team staff" {
		t.Fatalf("nested = %#v", nested)
	}
	// input untouched
	if args["name"] != "{{.team}}" {
		t.Fatalf("input mutated")
	}
}

func TestRenderArgs_MissingVariable(t *testing.T) {
	v := NewVars(nil)
	_, err := v.RenderArgs(map[string]any{"name": "{{.nope}}"})
	if err == nil || !strings.Contains(err.Error(), "arg name") {
		t.Fatalf("err = %v", err)
	}
	if _, err := v.RenderString("{{"); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestCapture(t *testing.T) {
	v := NewVars(nil)
	body := `{"topic_id":31,"post":{"id":7,"raw":"hi"}}`
	if err := v.Capture(body, map[string]string{"topic_id": "topic_id", "post_id": "post.id"}); err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if v["topic_id"] != "31" || v["post_id"] != "7" {
		t.Fatalf("vars = %v", v)
	}

	err := v.Capture(body, map[string]string{"b": "missing.b", "a": "missing.a"})
	if err == nil || !strings.Contains(err.Error(), "a, b") {
		t.Fatalf("err = %v", err)
	}
	if err := v.Capture("<html>", map[string]string{"x": "x"}); err == nil {
		t.Fatalf("expected error for non-JSON body")
	}
	if err := v.Capture("<html>", nil); err != nil {
		t.Fatalf("no captures should be a no-op: %v", err)
	}
}
