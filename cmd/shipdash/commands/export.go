package commands

import (
	"fmt"

	"shipdash/internal/dashboard"
	"shipdash/internal/export"

	"github.com/spf13/cobra"
)

var (
	exportFilters filterFlags
	exportFormat  string
	exportOut     string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the filtered records as CSV, or as XLSX with one sheet per chart",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := export.ParseFormat(exportFormat)
		if err != nil {
			return err
		}

		a := newApp(cfg)
		defer a.session.Close()

		ctx := cmd.Context()
		if err := exportFilters.apply(ctx, a.session); err != nil {
			return err
		}
		if format == export.FormatXLSX {
			// Draw every data view so the workbook carries all charts.
			for _, v := range []dashboard.View{dashboard.ViewFrequency, dashboard.ViewSeverity, dashboard.ViewOverview} {
				if err := a.session.SwitchView(v); err != nil {
					return err
				}
			}
		}

		res, err := export.Save(ctx, a.session, a.session.Registry().Snapshot(), cfg.ExportDir, exportOut, format)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d bytes to %s\n", res.Bytes, res.Path)
		return nil
	},
}

func init() {
	exportFilters.register(exportCmd)
	exportCmd.Flags().StringVar(&exportFormat, "format", export.FormatCSV, "export format (csv, xlsx)")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "file name inside the export directory (default: timestamped)")
	rootCmd.AddCommand(exportCmd)
}
