package plan

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sample = `
name: bootstrap
vars:
  team: staff
steps:
  - name: create team
    op: add_group
    args:
      name: "{{.team}}"
      usernames: [alice, bob]
  - op: create_topic
    args: {title: Welcome, body: Hello, category: "1"}
    capture: {topic_id: topic_id}
    expect: [200, 201]
  - op: remove_group
    args: {name: old}
    continue_on_error: true
`

func TestDecode(t *testing.T) {
	p, err := Decode(strings.NewReader(sample))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if p.Name != "bootstrap" || p.Vars["team"] != "staff" || len(p.Steps) != 3 {
		t.Fatalf("plan = %+v", p)
	}
	s := p.Steps[0]
	if s.Op != "add_group" || s.Args["name"] != "{{.team}}" {
		t.Fatalf("step 0 = %+v", s)
	}
	if users, ok := s.Args["usernames"].([]any); !ok || len(users) != 2 {
		t.Fatalf("usernames = %#v", s.Args["usernames"])
	}
	if p.Steps[1].Capture["topic_id"] != "topic_id" || len(p.Steps[1].Expect) != 2 {
		t.Fatalf("step 1 = %+v", p.Steps[1])
	}
	if !p.Steps[2].ContinueOnError {
		t.Fatalf("continue_on_error not decoded")
	}
	if got := p.Steps[1].Label(1); got != "#2 create_topic" {
		t.Fatalf("label = %q", got)
	}
	if got := p.Steps[0].Label(0); got != "create team" {
		t.Fatalf("label = %q", got)
	}
}

func TestDecode_Errors(t *testing.T) {
	if _, err := Decode(strings.NewReader("")); err == nil {
		t.Fatalf("expected error for empty plan")
	}
	if _, err := Decode(strings.NewReader("steps:\n  - op: x\n    bogus: 1\n")); err == nil {
		t.Fatalf("expected error for unknown field")
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plan.yaml")
	if err := os.WriteFile(path, []byte(sample), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	p, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if len(p.Steps) != 3 {
		t.Fatalf("steps = %d", len(p.Steps))
	}
	if _, err := LoadFromFile(dir); err == nil {
		t.Fatalf("expected error for directory")
	}
	if _, err := LoadFromFile(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestValidate(t *testing.T) {
	known := func(op string) bool { return op == "add_group" || op == "create_topic" }

	p := &Plan{Steps: []Step{
		{Op: "add_group"},
		{Name: "bad", Op: "drop_everything"},
		{Op: ""},
		{Op: "create_topic", Capture: map[string]string{"1x": "id"}},
	}}
	err := p.Validate(known)
	if err == nil {
		t.Fatalf("expected validation errors")
	}
	for _, want := range []string{`unknown op "drop_everything"`, "op is required", `invalid capture name "1x"`} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("error %q does not mention %q", err, want)
		}
	}

	if err := (&Plan{}).Validate(known); err == nil {
		t.Fatalf("expected error for empty plan")
	}
	if err := (&Plan{Steps: []Step{{Op: "add_group"}}}).Validate(known); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestAccepts(t *testing.T) {
	s := Step{}
	if !s.Accepts(200) || !s.Accepts(204) || s.Accepts(302) || s.Accepts(422) {
		t.Fatalf("default should accept only 2xx")
	}
	s.Expect = []int{422}
	if !s.Accepts(422) || s.Accepts(200) {
		t.Fatalf("expect list not honored")
	}
}
