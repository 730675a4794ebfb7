package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/p-blackswan/taskboard/internal/app"
	"github.com/p-blackswan/taskboard/internal/health"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check token storage and the remote service",
	RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app.App, _ []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Remote: %s\n", a.Client.BaseURL())

		report := a.Health.Report(ctx)
		if jsonOutput {
			return printJSON(out, report)
		}
		failed := false
		for _, r := range report {
			verdict := "PASS"
			switch r.Status {
			case health.StatusDegraded:
				verdict = "WARN"
			case health.StatusDown:
				verdict = "FAIL"
				failed = true
			}
			fmt.Fprintf(out, "Checking %s... %s\n", r.Name, verdict)
		}
		fmt.Fprintf(out, "Session: %s\n", a.Session.State())

		if failed {
			return errors.New("one or more checks failed")
		}
		return nil
	}),
}

func init() {
	RootCmd.AddCommand(doctorCmd)
}
