package cmd

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"appcatalog/internal/bootstrap"
	"appcatalog/internal/errs"
	"appcatalog/internal/usecase/reviewconsole"
)

var consoleReviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Start the app moderation console",
	RunE: withApp(func(cmd *cobra.Command, _ []string, app *bootstrap.App) error {
		showAll, _ := cmd.Flags().GetBool("all")
		refreshInterval, _ := cmd.Flags().GetDuration("refresh-interval")

		if err := app.InitSchema(cmd.Context()); err != nil {
			return errs.Wrap(err, "initialize schema")
		}

		model := reviewconsole.NewReviewModel(cmd.Context(), app.Catalog, reviewconsole.Options{
			ShowAll:         showAll,
			RefreshInterval: refreshInterval,
		})

		program := tea.NewProgram(model, tea.WithAltScreen())
		if _, err := program.Run(); err != nil {
			return errs.Wrap(err, "run review console")
		}
		return nil
	}),
}

func init() {
	consoleCmd.AddCommand(consoleReviewCmd)

	consoleReviewCmd.Flags().Bool("all", false, "List every app instead of only undecided ones")
	consoleReviewCmd.Flags().Duration("refresh-interval", 30*time.Second, "Refresh interval")
}
