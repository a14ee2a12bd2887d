package cmd

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"appcatalog/internal/bootstrap"
	"appcatalog/internal/bootstrap/logging"
	"appcatalog/internal/domain/catalog"
	"appcatalog/internal/errs"
	"appcatalog/internal/ports"
)

var appsCmd = &cobra.Command{
	Use:   "apps",
	Short: "Manage catalog apps",
}

var appsImportCmd = &cobra.Command{
	Use:   "import <file.toml>",
	Short: "Bulk create apps from a TOML file",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, args []string, app *bootstrap.App) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		if err := app.InitSchema(ctx); err != nil {
			return errs.Wrap(err, "initialize schema")
		}

		raw, err := os.ReadFile(args[0])
		if err != nil {
			return errs.Wrapf(err, "read %s", args[0])
		}
		inputs, err := parseAppImport(raw)
		if err != nil {
			return errs.Wrapf(err, "parse %s", args[0])
		}

		created, err := app.Catalog.BulkCreateApps(ctx, inputs)
		if err != nil {
			return err
		}

		logging.Info(ctx, "apps imported", slog.String("file", args[0]), slog.Int("count", len(created)))
		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "imported %d apps from %s\n", len(created), args[0]); err != nil {
			return errs.Wrap(err, "write import output")
		}
		return nil
	}),
}

var appsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the catalog as a table",
	RunE: withApp(func(cmd *cobra.Command, _ []string, app *bootstrap.App) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		pendingOnly, _ := cmd.Flags().GetBool("pending")

		var (
			apps []ports.App
			err  error
		)
		if pendingOnly {
			apps, err = app.Catalog.PendingApps(ctx)
		} else {
			apps, err = app.Catalog.ListApps(ctx)
		}
		if err != nil {
			return err
		}

		if _, err := fmt.Fprintln(cmd.OutOrStdout(), renderAppsTable(apps)); err != nil {
			return errs.Wrap(err, "write apps table")
		}
		return nil
	}),
}

// appImportFile is the TOML layout accepted by `apps import`:
//
//	[[apps]]
//	name = "Desmos"
//	url = "https://www.desmos.com"
//	platforms = ["WEB", "IOS"]
type appImportFile struct {
	Apps []catalog.Input `toml:"apps"`
}

func parseAppImport(raw []byte) ([]catalog.Input, error) {
	var file appImportFile
	decoder := toml.NewDecoder(bytes.NewReader(raw))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&file); err != nil {
		return nil, errs.Wrap(err, "decode toml")
	}
	if len(file.Apps) == 0 {
		return nil, fmt.Errorf("no [[apps]] entries found")
	}
	return file.Apps, nil
}

func renderAppsTable(apps []ports.App) string {
	if len(apps) == 0 {
		return "no apps"
	}

	headerStyle := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Padding(0, 1)

	rows := make([][]string, 0, len(apps))
	for _, app := range apps {
		rows = append(rows, []string{
			app.ID,
			app.Name,
			string(app.Approval),
			string(app.Privacy),
			joinValues(app.Platforms),
			joinValues(app.Grades),
			joinValues(app.Subjects),
		})
	}

	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "NAME", "APPROVAL", "PRIVACY", "PLATFORMS", "GRADES", "SUBJECTS").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		String()
}

func joinValues[E ~string](values []E) string {
	parts := make([]string, 0, len(values))
	for _, value := range values {
		parts = append(parts, string(value))
	}
	return strings.Join(parts, ",")
}

func init() {
	rootCmd.AddCommand(appsCmd)
	appsCmd.AddCommand(appsImportCmd)
	appsCmd.AddCommand(appsListCmd)

	appsListCmd.Flags().Bool("pending", false, "Only list apps awaiting review")
}
