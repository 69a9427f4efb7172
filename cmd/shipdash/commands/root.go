package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"shipdash/internal/backend"
	"shipdash/internal/chart"
	"shipdash/internal/config"
	"shipdash/internal/dashboard"
	"shipdash/internal/logging"
	"shipdash/internal/mcp"
	"shipdash/internal/preview"
	"shipdash/internal/visuals"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	// Version, Commit, and BuildDate are set at build time via ldflags.
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"

	verbose    bool
	configFile string
	cfg        *config.AppConfig
	logCloser  io.Closer
)

// app is the wired dashboard: one session drawing onto both chart surfaces.
type app struct {
	session *dashboard.Session
	mermaid *visuals.MermaidBoard
	echarts *visuals.EChartsBoard
}

func newApp(cfg *config.AppConfig) *app {
	mermaid := visuals.NewMermaidBoard()
	echarts := visuals.NewEChartsBoard()
	registry := chart.NewRegistry(chart.MultiSurface{mermaid, echarts})

	session := dashboard.NewSession(backend.NewClient(cfg.Backend), registry, dashboard.Options{
		Buckets:      cfg.HistogramBuckets,
		DensitySteps: cfg.DensitySteps,
		Policy:       cfg.OnInvalidNumeric,
	})
	return &app{session: session, mermaid: mermaid, echarts: echarts}
}

var rootCmd = &cobra.Command{
	Use:   "shipdash",
	Short: "shipdash is a shipment analytics dashboard MCP Server",
	Long: `An MCP Server that filters shipment data, draws delay, risk, profit and inter-arrival charts,
and runs Monte-Carlo disruption simulations against the shipment backend.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		closer, err := logging.Init(verbose)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		logCloser = closer

		cfg, err = config.Load(configFile)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to load configuration")
		}

		log.Info().
			Str("version", Version).
			Str("commit", Commit).
			Str("buildDate", BuildDate).
			Str("backend", cfg.Backend.BaseURL).
			Msg("shipdash starting")
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logCloser != nil {
			_ = logCloser.Close()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a := newApp(cfg)
		defer a.session.Close()

		server := mcp.NewServer(cfg, a.session, a.mermaid, Version)

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			// The preview has nothing to show once the MCP client is gone.
			defer stop()
			return server.Run(gctx)
		})
		if cfg.Preview.Enabled {
			g.Go(func() error {
				return preview.New(cfg.Preview, a.session, a.echarts).Run(gctx)
			})
		}
		return g.Wait()
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (YAML, JSON or TOML)")
}
