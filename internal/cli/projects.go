package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/p-blackswan/taskboard/internal/app"
	"github.com/p-blackswan/taskboard/internal/models"
)

var (
	projectDescription string
	projectDuration    int
	projectStart       string
	projectEnd         string
)

var projectsCmd = &cobra.Command{
	Use:     "projects",
	Aliases: []string{"project"},
	Short:   "List and manage projects",
}

var projectsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all projects",
	RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app.App, _ []string) error {
		if err := requireSession(a); err != nil {
			return err
		}
		projects, err := a.Projects.FetchAll(ctx)
		if err != nil {
			return err
		}
		rows := make([][]string, 0, len(projects))
		for _, p := range projects {
			rows = append(rows, projectRow(p))
		}
		return emit(cmd.OutOrStdout(), projects, projectHeaders, rows)
	}),
}

var projectsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one project with its tasks and members",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app.App, args []string) error {
		if err := requireSession(a); err != nil {
			return err
		}
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		p, err := a.Projects.FetchByID(ctx, id)
		if err != nil {
			return err
		}
		tasks, err := a.Projects.Tasks(ctx, id)
		if err != nil {
			return err
		}
		members, err := a.Projects.Members(ctx, id)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), map[string]any{"project": p, "tasks": tasks, "members": members})
		}

		out := cmd.OutOrStdout()
		printTable(out, projectHeaders, [][]string{projectRow(*p)})
		fmt.Fprintf(out, "\nTasks (%d)\n", len(tasks))
		if len(tasks) > 0 {
			printTable(out, taskHeaders, taskRows(tasks))
		}
		fmt.Fprintf(out, "\nMembers (%d)\n", len(members))
		if len(members) > 0 {
			printTable(out, userHeaders, userRows(members))
		}
		return nil
	}),
}

var projectsCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a project",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app.App, args []string) error {
		if err := requireSession(a); err != nil {
			return err
		}
		in := models.ProjectInput{Name: args[0]}
		if cmd.Flags().Changed("description") {
			in.Description = &projectDescription
		}
		if cmd.Flags().Changed("duration") {
			in.EstimatedDuration = &projectDuration
		}
		if cmd.Flags().Changed("start") {
			in.StartTime = &projectStart
		}
		if cmd.Flags().Changed("end") {
			in.EndTime = &projectEnd
		}
		p, err := a.Projects.CreateProject(ctx, in)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created project %d %q\n", p.ID, p.Name)
		return nil
	}),
}

var projectsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a project",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app.App, args []string) error {
		if err := requireSession(a); err != nil {
			return err
		}
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		if err := a.Projects.Delete(ctx, id); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted project %d\n", id)
		return nil
	}),
}

var projectsDepsCmd = &cobra.Command{
	Use:   "deps <id> <depends-on-id>...",
	Short: "Make a project depend on other projects",
	Args:  cobra.MinimumNArgs(2),
	RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app.App, args []string) error {
		if err := requireSession(a); err != nil {
			return err
		}
		ids := make([]int, 0, len(args))
		for _, arg := range args {
			id, err := parseID(arg)
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}
		p, err := a.Projects.AddDependencies(ctx, ids[0], ids[1:])
		if err != nil {
			return err
		}
		names := make([]string, 0, len(p.Dependencies))
		for _, d := range p.Dependencies {
			names = append(names, d.Name)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Project %q now depends on %v\n", p.Name, names)
		return nil
	}),
}

var projectsBurnDownCmd = &cobra.Command{
	Use:   "burndown <id>",
	Short: "Show a project's burn-down and risk level",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app.App, args []string) error {
		if err := requireSession(a); err != nil {
			return err
		}
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		bd, err := a.Projects.FetchBurnDown(ctx, id)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), bd)
		}
		rows := [][]string{}
		for _, p := range bd.IdealProgresses {
			rows = append(rows, []string{"ideal", p.Date, fmt.Sprintf("%.1f%%", p.Progress)})
		}
		for _, p := range bd.ActualProgresses {
			rows = append(rows, []string{"actual", p.Date, fmt.Sprintf("%.1f%%", p.Progress)})
		}
		printTable(cmd.OutOrStdout(), []string{"Series", "Date", "Progress"}, rows)
		fmt.Fprintf(cmd.OutOrStdout(), "Risk: %s\n", bd.RiskLevel)
		return nil
	}),
}

var projectHeaders = []string{"ID", "Name", "Status", "Start", "End", "Days", "Depends on"}

func projectRow(p models.Project) []string {
	deps := make([]string, 0, len(p.Dependencies))
	for _, d := range p.Dependencies {
		deps = append(deps, strconv.Itoa(d.ID))
	}
	return []string{
		strconv.Itoa(p.ID), p.Name, string(p.Status),
		optString(p.StartTime), optString(p.EndTime), optInt(p.EstimatedDuration), strings.Join(deps, ","),
	}
}

func init() {
	f := projectsCreateCmd.Flags()
	f.StringVar(&projectDescription, "description", "", "Project description")
	f.IntVar(&projectDuration, "duration", 0, "Estimated duration in days")
	f.StringVar(&projectStart, "start", "", "Start date (YYYY-MM-DD)")
	f.StringVar(&projectEnd, "end", "", "End date (YYYY-MM-DD)")

	projectsCmd.AddCommand(projectsListCmd, projectsShowCmd, projectsCreateCmd, projectsDeleteCmd, projectsDepsCmd, projectsBurnDownCmd)
	RootCmd.AddCommand(projectsCmd)
}
