package main

import (
	"fmt"
	"io"
	"time"

	"github.com/loykin/discourseapi"
	"github.com/spf13/cobra"
)

var (
	applyVars  map[string]string
	applyCheck bool
)

var applyCmd = &cobra.Command{
	Use:   "apply <plan.yaml>",
	Short: "Run the steps of a plan file in order",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := discourseapi.LoadPlan(args[0])
		if err != nil {
			return err
		}
		if p.Vars == nil {
			p.Vars = map[string]string{}
		}
		for k, v := range applyVars {
			p.Vars[k] = v
		}
		out := cmd.OutOrStdout()

		if applyCheck {
			known := map[string]bool{}
			for _, op := range discourseapi.PlanOps() {
				known[op] = true
			}
			if err := p.Validate(func(op string) bool { return known[op] }); err != nil {
				return err
			}
			_, err := fmt.Fprintf(out, "plan ok: %d steps\n", len(p.Steps))
			return err
		}

		ctx := cmd.Context()
		s, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = s.Close() }()

		report, runErr := s.client.Apply(ctx, p)
		if report != nil {
			printReport(out, report)
		}
		if runErr != nil {
			return runErr
		}
		if n := report.Failures(); n > 0 {
			return fmt.Errorf("%d of %d steps failed", n, len(report.Steps))
		}
		return nil
	},
}

func printReport(w io.Writer, r *discourseapi.PlanReport) {
	for _, s := range r.Steps {
		status := 0
		if s.Result != nil {
			status = s.Result.Status
		}
		mark := "ok"
		if s.Failed() {
			mark = "FAIL"
		}
		_, _ = fmt.Fprintf(w, "%-4s %-30s %-20s status=%d %s\n", mark, s.Name, s.Op, status, s.Duration.Round(time.Millisecond))
		if s.Err != nil {
			_, _ = fmt.Fprintf(w, "     error: %v\n", s.Err)
		}
	}
}

func init() {
	applyCmd.Flags().StringToStringVar(&applyVars, "var", nil, "set a plan variable (name=value); repeatable")
	applyCmd.Flags().BoolVar(&applyCheck, "check", false, "validate the plan without calling the forum")
}
