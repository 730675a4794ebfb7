package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/p-blackswan/taskboard/internal/app"
	"github.com/p-blackswan/taskboard/internal/models"
)

var taskUndo bool

var tasksCmd = &cobra.Command{
	Use:     "tasks",
	Aliases: []string{"task"},
	Short:   "List and update tasks",
}

var tasksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all tasks",
	RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app.App, _ []string) error {
		if err := requireSession(a); err != nil {
			return err
		}
		tasks, err := a.Tasks.FetchAll(ctx)
		if err != nil {
			return err
		}
		return emit(cmd.OutOrStdout(), tasks, taskHeaders, taskRows(tasks))
	}),
}

var tasksMineCmd = &cobra.Command{
	Use:   "mine",
	Short: "List tasks assigned to or headed by you",
	RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app.App, _ []string) error {
		if err := requireSession(a); err != nil {
			return err
		}
		tasks, err := a.Tasks.FetchMine(ctx)
		if err != nil {
			return err
		}
		return emit(cmd.OutOrStdout(), tasks, taskHeaders, taskRows(tasks))
	}),
}

var tasksDoneCmd = &cobra.Command{
	Use:   "done <id>",
	Short: "Mark a task finished",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app.App, args []string) error {
		if err := requireSession(a); err != nil {
			return err
		}
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		t, err := a.Tasks.SetFinished(ctx, id, !taskUndo)
		if err != nil {
			return err
		}
		state := "finished"
		if !t.Finished {
			state = "open"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Task %d %q is %s\n", t.ID, t.Name, state)
		return nil
	}),
}

var taskHeaders = []string{"ID", "Name", "Project", "Workload", "Finished"}

func taskRows(tasks []models.Task) [][]string {
	rows := make([][]string, 0, len(tasks))
	for _, t := range tasks {
		rows = append(rows, []string{
			strconv.Itoa(t.ID), t.Name, strconv.Itoa(t.ProjectID), string(t.Workload), strconv.FormatBool(t.Finished),
		})
	}
	return rows
}

func init() {
	tasksDoneCmd.Flags().BoolVar(&taskUndo, "undo", false, "Reopen the task instead")

	tasksCmd.AddCommand(tasksListCmd, tasksMineCmd, tasksDoneCmd)
	RootCmd.AddCommand(tasksCmd)
}
