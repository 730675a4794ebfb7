package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/p-blackswan/taskboard/internal/app"
	"github.com/p-blackswan/taskboard/internal/models"
)

var (
	loginIdentifier string
	loginPassword   string

	registerFields  models.Registration
	registerProfile string

	profileFields  models.ProfileUpdate
	passwordFields models.PasswordChange
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and store the session token",
	Example: `  taskboard login -u alice -p secret
  taskboard login -u alice@example.com -p secret`,
	RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app.App, _ []string) error {
		u, err := a.Auth.Login(ctx, models.Credentials{Identifier: loginIdentifier, Password: loginPassword})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (%s)\n", u.Username, u.Role.Label())
		return nil
	}),
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Discard the stored session",
	RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app.App, _ []string) error {
		a.Auth.Logout(ctx)
		fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
		return nil
	}),
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app.App, _ []string) error {
		u, err := a.Auth.CurrentUser(ctx)
		if err != nil {
			return err
		}
		if u == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "Not logged in")
			return nil
		}
		return printUser(cmd, u)
	}),
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account",
	RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app.App, _ []string) error {
		reg := registerFields
		if registerProfile != "" {
			reg.Profile = &registerProfile
		}
		u, err := a.Auth.Register(ctx, reg)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Registered %s (%s), you can now log in\n", u.Username, u.Role.Label())
		return nil
	}),
}

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Change username and email",
	RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app.App, _ []string) error {
		u, err := a.Auth.UpdateProfile(ctx, profileFields)
		if err != nil {
			return err
		}
		return printUser(cmd, u)
	}),
}

var passwordCmd = &cobra.Command{
	Use:   "password",
	Short: "Change the account password",
	RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app.App, _ []string) error {
		if err := a.Auth.ChangePassword(ctx, passwordFields); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Password changed")
		return nil
	}),
}

func printUser(cmd *cobra.Command, u *models.User) error {
	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), u)
	}
	printTable(cmd.OutOrStdout(), []string{"ID", "Username", "Email", "Role"}, [][]string{{
		fmt.Sprint(u.ID), u.Username, u.Email, u.Role.Label(),
	}})
	return nil
}

func init() {
	loginCmd.Flags().StringVarP(&loginIdentifier, "user", "u", "", "Username or email")
	loginCmd.Flags().StringVarP(&loginPassword, "password", "p", "", "Password")

	registerCmd.Flags().StringVar(&registerFields.Username, "username", "", "Username")
	registerCmd.Flags().StringVar(&registerFields.Email, "email", "", "Email address")
	registerCmd.Flags().StringVar(&registerFields.Password, "password", "", "Password")
	registerCmd.Flags().StringVar(&registerFields.ConfirmPassword, "confirm", "", "Password again")
	registerCmd.Flags().StringVar(&registerFields.RegisterKey, "key", "", "Registration key issued by an administrator")
	registerCmd.Flags().StringVar(&registerProfile, "profile", "", "Optional profile text")

	profileCmd.Flags().StringVar(&profileFields.Username, "username", "", "New username")
	profileCmd.Flags().StringVar(&profileFields.Email, "email", "", "New email address")

	passwordCmd.Flags().StringVar(&passwordFields.CurrentPassword, "current", "", "Current password")
	passwordCmd.Flags().StringVar(&passwordFields.NewPassword, "new", "", "New password")

	RootCmd.AddCommand(loginCmd, logoutCmd, whoamiCmd, registerCmd, profileCmd, passwordCmd)
}
