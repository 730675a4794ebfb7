package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/p-blackswan/taskboard/internal/app"
	"github.com/p-blackswan/taskboard/internal/navigation"
)

var openCmd = &cobra.Command{
	Use:   "open <path>",
	Short: "Resolve a view path, enforcing the login guard",
	Example: `  taskboard open /projects/3
  taskboard open /login`,
	Args: cobra.ExactArgs(1),
	RunE: withApp(func(_ context.Context, cmd *cobra.Command, a *app.App, args []string) error {
		loc, err := a.Router.Navigate(args[0])
		out := cmd.OutOrStdout()
		switch {
		case errors.Is(err, navigation.ErrRedirected):
			fmt.Fprintf(out, "Redirected to %s (%s): log in first\n", loc.Route.Name, loc.Path)
			return nil
		case err != nil:
			return err
		}
		if jsonOutput {
			return printJSON(out, loc)
		}
		fmt.Fprintf(out, "%s %s\n", loc.Route.Name, loc.Path)
		for k, v := range loc.Params {
			fmt.Fprintf(out, "  %s=%s\n", k, v)
		}
		return nil
	}),
}

func init() {
	RootCmd.AddCommand(openCmd)
}
