package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/p-blackswan/taskboard/internal/app"
	"github.com/p-blackswan/taskboard/internal/models"
)

var recalculate bool

var usersCmd = &cobra.Command{
	Use:     "users",
	Aliases: []string{"user"},
	Short:   "List users and performance",
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all users",
	RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app.App, _ []string) error {
		if err := requireSession(a); err != nil {
			return err
		}
		users, err := a.Users.FetchAll(ctx)
		if err != nil {
			return err
		}
		return emit(cmd.OutOrStdout(), users, userHeaders, userRows(users))
	}),
}

var usersOutstandingCmd = &cobra.Command{
	Use:   "outstanding",
	Short: "List outstanding performers",
	RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app.App, _ []string) error {
		if err := requireSession(a); err != nil {
			return err
		}
		var users []models.User
		if recalculate {
			if err := a.Users.CalculatePerformance(ctx); err != nil {
				return err
			}
			users = a.Users.Outstanding()
		} else {
			var err error
			if users, err = a.Users.FetchOutstanding(ctx); err != nil {
				return err
			}
		}
		return emit(cmd.OutOrStdout(), users, userHeaders, userRows(users))
	}),
}

var userHeaders = []string{"ID", "Username", "Email", "Role", "Performance"}

func userRows(users []models.User) [][]string {
	rows := make([][]string, 0, len(users))
	for _, u := range users {
		perf := "-"
		if u.Performance != nil {
			perf = fmt.Sprintf("%.0f%%", *u.Performance*100)
		}
		rows = append(rows, []string{strconv.Itoa(u.ID), u.Username, u.Email, u.Role.Label(), perf})
	}
	return rows
}

func init() {
	usersOutstandingCmd.Flags().BoolVar(&recalculate, "recalculate", false, "Recalculate performance first (managers only)")

	usersCmd.AddCommand(usersListCmd, usersOutstandingCmd)
	RootCmd.AddCommand(usersCmd)
}
