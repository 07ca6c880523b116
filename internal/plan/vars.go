package plan

import (
	"bytes"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"text/template"

	"github.com/tidwall/gjson"
)

var varNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func validVarName(s string) bool { return varNameRe.MatchString(s) }

// Vars holds plan variables: the plan's vars block plus values captured
// from earlier responses. Later captures overwrite earlier values.
type Vars map[string]string

// NewVars copies the initial variables.
func NewVars(initial map[string]string) Vars {
	v := Vars{}
	for k, val := range initial {
		v[k] = val
	}
	return v
}

// RenderArgs expands {{.name}} references in every string of args, walking
// nested maps and lists. Unknown variables are an error.
func (v Vars) RenderArgs(args map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(args))
	for k, val := range args {
		r, err := v.render(val)
		if err != nil {
			return nil, fmt.Errorf("arg %s: %w", k, err)
		}
		out[k] = r
	}
	return out, nil
}

func (v Vars) render(val any) (any, error) {
	switch t := val.(type) {
	case string:
		return v.RenderString(t)
	case map[string]any:
		return v.RenderArgs(t)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			r, err := v.render(item)
			if err != nil {
				return nil, err
			}
			out[i] = r
		}
		return out, nil
	default:
		return val, nil
	}
}

// RenderString expands one template string.
func (v Vars) RenderString(s string) (string, error) {
	if !strings.Contains(s, "{{") {
		return s, nil
	}
	tpl, err := template.New("arg").Option("missingkey=error").Parse(s)
	if err != nil {
		return "", fmt.Errorf("parse %q: %w", s, err)
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, map[string]string(v)); err != nil {
		return "", fmt.Errorf("render %q: %w", s, err)
	}
	return buf.String(), nil
}

// Capture evaluates each gjson path against a JSON body and stores the
// results. A path that matches nothing is an error.
func (v Vars) Capture(body string, paths map[string]string) error {
	if len(paths) == 0 {
		return nil
	}
	if !gjson.Valid(body) {
		return fmt.Errorf("cannot capture from a non-JSON response")
	}
	parsed := gjson.Parse(body)
	var missing []string
	for name, path := range paths {
		res := parsed.Get(strings.TrimSpace(path))
		if !res.Exists() {
			missing = append(missing, name)
			continue
		}
		v[name] = res.String()
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("capture: no value for %s", strings.Join(missing, ", "))
	}
	return nil
}
