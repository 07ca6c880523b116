package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/loykin/discourseapi"
	"github.com/spf13/cobra"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recorded API calls, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := loadConfig()
		if err != nil {
			return err
		}
		if err := doc.SetupLogging(); err != nil {
			return err
		}
		cfg := doc.Store.ToStoreConfig()
		if cfg == nil {
			return errors.New("no call history: store is not configured or disabled")
		}
		st, err := discourseapi.OpenStore(cmd.Context(), *cfg)
		if err != nil {
			return err
		}
		defer func() { _ = st.Close() }()

		calls, err := st.ListCalls(cmd.Context(), historyLimit)
		if err != nil {
			return err
		}
		printHistory(cmd, calls)
		return nil
	},
}

func printHistory(cmd *cobra.Command, calls []discourseapi.StoredCall) {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tCALLED AT\tMETHOD\tPATH\tUSER\tSTATUS\tDURATION")
	for _, c := range calls {
		status := fmt.Sprint(c.Status)
		if c.TransportError != "" {
			status = "error: " + c.TransportError
		}
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%dms\n", c.ID, c.CalledAt, c.Method, c.Path, c.ActingUser, status, c.DurationMS)
	}
	_ = tw.Flush()
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "maximum number of calls to show (0 = all)")
}
