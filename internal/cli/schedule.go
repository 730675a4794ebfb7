package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/p-blackswan/taskboard/internal/app"
	"github.com/p-blackswan/taskboard/internal/schedule"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Gantt view of all projects",
}

var scheduleListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show every project as a schedule bar",
	RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app.App, _ []string) error {
		if err := requireSession(a); err != nil {
			return err
		}
		all, err := a.Schedule.FetchScheduleData(ctx)
		if err != nil {
			return err
		}
		return emit(cmd.OutOrStdout(), all, ganttHeaders, ganttRows(all))
	}),
}

var scheduleCriticalCmd = &cobra.Command{
	Use:   "critical",
	Short: "Show the projects on the critical path",
	RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app.App, _ []string) error {
		if err := requireSession(a); err != nil {
			return err
		}
		if _, err := a.Schedule.FetchScheduleData(ctx); err != nil {
			return err
		}
		cp, err := a.Schedule.FetchCriticalPath(ctx)
		if err != nil {
			return err
		}
		subset := a.Schedule.CriticalSubset()
		if err := emit(cmd.OutOrStdout(), subset, ganttHeaders, ganttRows(subset)); err != nil {
			return err
		}
		if !jsonOutput {
			fmt.Fprintf(cmd.OutOrStdout(), "Total duration: %.1f days\n", cp.TotalDurationDays)
		}
		return nil
	}),
}

var ganttHeaders = []string{"ID", "Name", "Start", "End", "Progress", "Depends on", "Class"}

func ganttRows(tasks []schedule.GanttTask) [][]string {
	rows := make([][]string, 0, len(tasks))
	for _, t := range tasks {
		rows = append(rows, []string{
			t.ID, t.Name, t.Start, t.End, fmt.Sprintf("%.0f%%", t.Progress), t.Dependencies, t.CustomClass,
		})
	}
	return rows
}

func init() {
	scheduleCmd.AddCommand(scheduleListCmd, scheduleCriticalCmd)
	RootCmd.AddCommand(scheduleCmd)
}
