package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"shipdash/internal/backend"
	"shipdash/internal/dashboard"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	renderFilters filterFlags
	renderView    string
	renderWatch   bool
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Apply filters and print the KPIs and Mermaid charts of one view",
	RunE: func(cmd *cobra.Command, args []string) error {
		view, err := dashboard.ParseView(renderView)
		if err != nil {
			return err
		}
		if renderWatch && renderFilters.file == "" {
			return fmt.Errorf("--watch requires --filters")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a := newApp(cfg)
		defer a.session.Close()

		if err := renderOnce(ctx, a, view, cmd.OutOrStdout()); err != nil {
			return err
		}
		if !renderWatch {
			return nil
		}
		return watchFilters(ctx, renderFilters.file, func() {
			if err := renderOnce(ctx, a, view, cmd.OutOrStdout()); err != nil {
				log.Error().Err(err).Msg("Re-render failed")
			}
		})
	},
}

// renderOnce selects the view before applying filters so only its charts are computed.
func renderOnce(ctx context.Context, a *app, view dashboard.View, w io.Writer) error {
	if err := a.session.SwitchView(view); err != nil {
		return err
	}
	if err := renderFilters.apply(ctx, a.session); err != nil {
		return err
	}
	printKPIs(w, a.session.KPIs())
	fmt.Fprintln(w, a.mermaid.Markdown(dashboard.TargetsFor(view)...))
	return nil
}

func printKPIs(w io.Writer, k backend.KPIs) {
	fmt.Fprintf(w, "Total orders: %d | Late deliveries: %.1f%% | Avg shipping delay: %.1f days | Avg profit: $%.0f\n\n",
		k.TotalOrders, k.LateDeliveryPercent, k.AvgShippingDelay, k.AvgProfit)
}

// watchFilters calls onChange whenever path is written, until ctx is done.
// The directory is watched because editors often replace the file instead of writing it.
func watchFilters(ctx context.Context, path string, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}
	log.Info().Str("path", abs).Msg("Watching filters file")

	// Editors emit several events per save.
	const settle = 200 * time.Millisecond
	var pending <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				pending = time.After(settle)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Msg("File watcher error")
		case <-pending:
			pending = nil
			onChange()
		}
	}
}

func init() {
	renderFilters.register(renderCmd)
	renderCmd.Flags().StringVar(&renderView, "view", string(dashboard.ViewOverview), "view to render (overview, frequency, severity, simulation)")
	renderCmd.Flags().BoolVarP(&renderWatch, "watch", "w", false, "re-render whenever the filters file changes")
	rootCmd.AddCommand(renderCmd)
}
