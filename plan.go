package discourseapi

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/loykin/discourseapi/internal/common"
	"github.com/loykin/discourseapi/internal/plan"
)

// Plan is a batch of operations loaded from YAML.
type Plan = plan.Plan

// PlanStep is one operation of a Plan.
type PlanStep = plan.Step

// ErrUnexpectedStatus marks a step whose response status was not accepted.
var ErrUnexpectedStatus = errors.New("unexpected status")

// LoadPlan reads a plan file.
func LoadPlan(path string) (*Plan, error) { return plan.LoadFromFile(path) }

// StepResult is the outcome of one plan step.
type StepResult struct {
	Name     string
	Op       string
	Result   *Result
	Err      error
	Duration time.Duration
}

// Failed reports whether the step did not succeed.
func (s StepResult) Failed() bool { return s.Err != nil }

// PlanReport collects step outcomes in execution order. Steps after a
// stopping failure are absent.
type PlanReport struct {
	Steps []StepResult
	Vars  map[string]string
}

// Failures counts failed steps.
func (r *PlanReport) Failures() int {
	n := 0
	for _, s := range r.Steps {
		if s.Failed() {
			n++
		}
	}
	return n
}

type opFunc func(ctx context.Context, c *Client, args map[string]any) (*Result, error)

var planOps = map[string]opFunc{
	"add_group": func(ctx context.Context, c *Client, args map[string]any) (*Result, error) {
		a := struct {
			Name         string `mapstructure:"name"`
			GroupOptions `mapstructure:",squash"`
		}{GroupOptions: DefaultGroupOptions()}
		if err := decodeArgs(args, &a); err != nil {
			return nil, err
		}
		return c.AddGroup(ctx, a.Name, &a.GroupOptions)
	},
	"join_group": func(ctx context.Context, c *Client, args map[string]any) (*Result, error) {
		var a struct {
			Group    string `mapstructure:"group"`
			Username string `mapstructure:"username"`
		}
		if err := decodeArgs(args, &a); err != nil {
			return nil, err
		}
		return c.JoinGroup(ctx, a.Group, a.Username)
	},
	"leave_group": func(ctx context.Context, c *Client, args map[string]any) (*Result, error) {
		var a struct {
			Group    string `mapstructure:"group"`
			Username string `mapstructure:"username"`
		}
		if err := decodeArgs(args, &a); err != nil {
			return nil, err
		}
		return c.LeaveGroup(ctx, a.Group, a.Username)
	},
	"remove_group": func(ctx context.Context, c *Client, args map[string]any) (*Result, error) {
		var a struct {
			Name string `mapstructure:"name"`
		}
		if err := decodeArgs(args, &a); err != nil {
			return nil, err
		}
		return c.RemoveGroup(ctx, a.Name)
	},
	"create_category": func(ctx context.Context, c *Client, args map[string]any) (*Result, error) {
		var a struct {
			Name       string `mapstructure:"name"`
			Color      string `mapstructure:"color"`
			TextColor  string `mapstructure:"text_color"`
			ActingUser string `mapstructure:"acting_user"`
		}
		if err := decodeArgs(args, &a); err != nil {
			return nil, err
		}
		return c.CreateCategory(ctx, a.Name, a.Color, a.TextColor, a.ActingUser)
	},
	"update_category": func(ctx context.Context, c *Client, args map[string]any) (*Result, error) {
		a := struct {
			ID             int64 `mapstructure:"id"`
			CategoryUpdate `mapstructure:",squash"`
		}{CategoryUpdate: DefaultCategoryUpdate()}
		if err := decodeArgs(args, &a); err != nil {
			return nil, err
		}
		return c.UpdateCategory(ctx, a.ID, a.CategoryUpdate)
	},
	"create_user": func(ctx context.Context, c *Client, args map[string]any) (*Result, error) {
		var a NewUser
		if err := decodeArgs(args, &a); err != nil {
			return nil, err
		}
		return c.CreateUser(ctx, a)
	},
	"activate_user": func(ctx context.Context, c *Client, args map[string]any) (*Result, error) {
		var a struct {
			ID int64 `mapstructure:"id"`
		}
		if err := decodeArgs(args, &a); err != nil {
			return nil, err
		}
		return c.ActivateUser(ctx, a.ID)
	},
	"logout_user": func(ctx context.Context, c *Client, args map[string]any) (*Result, error) {
		var a struct {
			Username string `mapstructure:"username"`
		}
		if err := decodeArgs(args, &a); err != nil {
			return nil, err
		}
		return c.LogoutUser(ctx, a.Username)
	},
	"invite_user": func(ctx context.Context, c *Client, args map[string]any) (*Result, error) {
		var a struct {
			Email      string `mapstructure:"email"`
			TopicID    int64  `mapstructure:"topic_id"`
			ActingUser string `mapstructure:"acting_user"`
		}
		if err := decodeArgs(args, &a); err != nil {
			return nil, err
		}
		return c.InviteUser(ctx, a.Email, a.TopicID, a.ActingUser)
	},
	"create_topic": func(ctx context.Context, c *Client, args map[string]any) (*Result, error) {
		var a NewTopic
		if err := decodeArgs(args, &a); err != nil {
			return nil, err
		}
		return c.CreateTopic(ctx, a)
	},
	"create_post": func(ctx context.Context, c *Client, args map[string]any) (*Result, error) {
		var a struct {
			Body       string `mapstructure:"body"`
			TopicID    int64  `mapstructure:"topic_id"`
			ActingUser string `mapstructure:"acting_user"`
		}
		if err := decodeArgs(args, &a); err != nil {
			return nil, err
		}
		return c.CreatePost(ctx, a.Body, a.TopicID, a.ActingUser)
	},
	"update_post": func(ctx context.Context, c *Client, args map[string]any) (*Result, error) {
		var a struct {
			BodyHTML   string `mapstructure:"body_html"`
			PostID     int64  `mapstructure:"post_id"`
			ActingUser string `mapstructure:"acting_user"`
		}
		if err := decodeArgs(args, &a); err != nil {
			return nil, err
		}
		return c.UpdatePost(ctx, a.BodyHTML, a.PostID, a.ActingUser)
	},
	"change_site_setting": func(ctx context.Context, c *Client, args map[string]any) (*Result, error) {
		var a struct {
			Name  string `mapstructure:"name"`
			Value any    `mapstructure:"value"`
		}
		if err := decodeArgs(args, &a); err != nil {
			return nil, err
		}
		return c.ChangeSiteSetting(ctx, a.Name, a.Value)
	},
}

// PlanOps lists the operation names a plan may use.
func PlanOps() []string {
	out := make([]string, 0, len(planOps))
	for name := range planOps {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func decodeArgs(args map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(args); err != nil {
		return fmt.Errorf("invalid args: %w", err)
	}
	return nil
}

// Apply runs the plan steps in order. A step fails when it returns an error
// or a status it does not accept; the run stops at the first failure unless
// that step sets continue_on_error. The returned error describes the step
// that stopped the run.
func (c *Client) Apply(ctx context.Context, p *Plan) (*PlanReport, error) {
	if err := p.Validate(func(op string) bool { _, ok := planOps[op]; return ok }); err != nil {
		return nil, err
	}

	logger := c.logger().WithComponent("plan")
	vars := plan.NewVars(p.Vars)
	report := &PlanReport{}

	for i, step := range p.Steps {
		if err := ctx.Err(); err != nil {
			report.Vars = vars
			return report, err
		}
		label := step.Label(i)
		sr := c.runStep(ctx, step, vars)
		sr.Name = label
		report.Steps = append(report.Steps, sr)

		if sr.Err == nil {
			logger.Info("step applied", "step", label, "op", step.Op, "status", sr.Result.Status, "duration", sr.Duration)
			continue
		}
		if step.ContinueOnError {
			logger.Warn("step failed, continuing", "step", label, "op", step.Op, "error", sr.Err)
			continue
		}
		logger.Error("step failed", "step", label, "op", step.Op, "error", sr.Err)
		report.Vars = vars
		return report, fmt.Errorf("step %s: %w", label, sr.Err)
	}
	report.Vars = vars
	return report, nil
}

func (c *Client) runStep(ctx context.Context, step PlanStep, vars plan.Vars) (sr StepResult) {
	sr.Op = step.Op
	started := time.Now()
	defer func() { sr.Duration = time.Since(started) }()

	args, err := vars.RenderArgs(step.Args)
	if err != nil {
		sr.Err = err
		return sr
	}
	res, err := planOps[strings.TrimSpace(step.Op)](ctx, c, args)
	sr.Result = res
	if err != nil {
		sr.Err = err
		return sr
	}
	if !step.Accepts(res.Status) {
		sr.Err = fmt.Errorf("%w %d", ErrUnexpectedStatus, res.Status)
		return sr
	}
	if err := vars.Capture(res.Raw, step.Capture); err != nil {
		sr.Err = err
	}
	return sr
}

func (c *Client) logger() *common.Logger {
	if c.exec.Logger != nil {
		return c.exec.Logger
	}
	return common.GetLogger()
}
