package commands

import (
	"os"
	"os/signal"
	"syscall"

	"shipdash/internal/preview"

	"github.com/spf13/cobra"
)

var (
	previewFilters filterFlags
	previewAddr    string
	previewOpen    bool
)

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Serve the dashboard charts in a browser without an MCP client",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a := newApp(cfg)
		defer a.session.Close()

		pc := cfg.Preview
		if cmd.Flags().Changed("addr") {
			pc.Addr = previewAddr
		}
		if cmd.Flags().Changed("open") {
			pc.Open = previewOpen
		}

		if err := previewFilters.apply(ctx, a.session); err != nil {
			return err
		}
		return preview.New(pc, a.session, a.echarts).Run(ctx)
	},
}

func init() {
	previewFilters.register(previewCmd)
	previewCmd.Flags().StringVar(&previewAddr, "addr", "", "listen address (default from preview.addr)")
	previewCmd.Flags().BoolVar(&previewOpen, "open", false, "open the preview in the default browser")
	rootCmd.AddCommand(previewCmd)
}
