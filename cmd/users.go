package cmd

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"appcatalog/internal/bootstrap"
	"appcatalog/internal/bootstrap/logging"
	"appcatalog/internal/domain/account"
	"appcatalog/internal/errs"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage user accounts",
}

var usersGrantCmd = &cobra.Command{
	Use:   "grant",
	Short: "Set the role of a registered user (user, editor or admin)",
	RunE: withApp(func(cmd *cobra.Command, _ []string, app *bootstrap.App) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		email, _ := cmd.Flags().GetString("email")
		rawRole, _ := cmd.Flags().GetString("role")
		if strings.TrimSpace(email) == "" {
			return fmt.Errorf("--email is required")
		}
		role, err := account.ParseRole(rawRole)
		if err != nil {
			return errs.Wrapf(err, "role %q", rawRole)
		}

		if err := app.InitSchema(ctx); err != nil {
			return errs.Wrap(err, "initialize schema")
		}
		user, err := app.Accounts.GrantRole(ctx, email, role)
		if err != nil {
			return err
		}

		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s (editor=%t admin=%t)\n", user.Email, role, user.IsEditor, user.IsAdmin); err != nil {
			return errs.Wrap(err, "write grant output")
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(usersCmd)
	usersCmd.AddCommand(usersGrantCmd)

	usersGrantCmd.Flags().String("email", "", "Email of the user")
	usersGrantCmd.Flags().String("role", string(account.RoleEditor), "Role to grant: user, editor or admin")
}
