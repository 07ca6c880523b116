// Package plan loads batch documents: an ordered list of API operations with
// their arguments, applied one after another by the client.
package plan

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Plan is a YAML document:
//
//	name: bootstrap
//	vars:
//	  team: staff
//	steps:
//	  - name: create group
//	    op: add_group
//	    args: {name: "{{.team}}"}
//	  - op: create_topic
//	    args: {title: Welcome, body: Hello, category: "1"}
//	    capture: {topic_id: topic_id}
type Plan struct {
	Name  string            `yaml:"name"`
	Vars  map[string]string `yaml:"vars"`
	Steps []Step            `yaml:"steps"`
}

// Step is one operation.
type Step struct {
	Name string         `yaml:"name"`
	Op   string         `yaml:"op"`
	Args map[string]any `yaml:"args"`
	// Expect lists accepted statuses. Empty means any 2xx.
	Expect []int `yaml:"expect"`
	// Capture stores response fields (gjson paths) as variables for later steps.
	Capture         map[string]string `yaml:"capture"`
	ContinueOnError bool              `yaml:"continue_on_error"`
}

// Label names the step in logs and errors.
func (s Step) Label(index int) string {
	if n := strings.TrimSpace(s.Name); n != "" {
		return n
	}
	return fmt.Sprintf("#%d %s", index+1, s.Op)
}

// Accepts reports whether status counts as success for this step.
func (s Step) Accepts(status int) bool {
	if len(s.Expect) == 0 {
		return status >= 200 && status < 300
	}
	for _, e := range s.Expect {
		if e == status {
			return true
		}
	}
	return false
}

// Decode reads a plan from r.
func Decode(r io.Reader) (*Plan, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var p Plan
	if err := dec.Decode(&p); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("plan is empty")
		}
		return nil, fmt.Errorf("failed to decode plan: %w", err)
	}
	return &p, nil
}

// LoadFromFile reads a plan from a regular file.
func LoadFromFile(path string) (*Plan, error) {
	clean := filepath.Clean(path)
	info, err := os.Stat(clean)
	if err != nil {
		return nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("plan path is not a regular file: %s", clean)
	}
	// #nosec G304 -- path is given by the operator
	f, err := os.Open(clean)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return Decode(f)
}

// Validate checks the plan shape. known reports whether an op name exists.
func (p *Plan) Validate(known func(op string) bool) error {
	if p == nil || len(p.Steps) == 0 {
		return errors.New("plan has no steps")
	}
	var errs []error
	for i, s := range p.Steps {
		op := strings.TrimSpace(s.Op)
		switch {
		case op == "":
			errs = append(errs, fmt.Errorf("step %s: op is required", s.Label(i)))
		case known != nil && !known(op):
			errs = append(errs, fmt.Errorf("step %s: unknown op %q", s.Label(i), op))
		}
		for name := range s.Capture {
			if !validVarName(name) {
				errs = append(errs, fmt.Errorf("step %s: invalid capture name %q", s.Label(i), name))
			}
		}
	}
	return errors.Join(errs...)
}
