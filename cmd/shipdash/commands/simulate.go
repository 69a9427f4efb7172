package commands

import (
	"fmt"

	"shipdash/internal/dashboard"

	"github.com/spf13/cobra"
)

var (
	simFilters filterFlags
	simParams  dashboard.SimulationParams
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run a Monte-Carlo disruption simulation on the filtered inter-arrival times",
	RunE: func(cmd *cobra.Command, args []string) error {
		a := newApp(cfg)
		defer a.session.Close()

		ctx := cmd.Context()
		if err := simFilters.apply(ctx, a.session); err != nil {
			return err
		}

		out, err := a.session.RunSimulation(ctx, simParams)
		if err != nil {
			return err
		}
		if out.Error != "" {
			return fmt.Errorf("simulation failed: %s", out.Error)
		}

		w := cmd.OutOrStdout()
		fmt.Fprintln(w, out.Result)
		fmt.Fprintln(w)
		fmt.Fprintln(w, a.mermaid.Markdown(dashboard.TargetsFor(dashboard.ViewSimulation)...))
		return nil
	},
}

func init() {
	simFilters.register(simulateCmd)
	simulateCmd.Flags().IntVar(&simParams.NumSimulations, "runs", dashboard.DefaultNumSimulations, "number of simulation runs")
	simulateCmd.Flags().IntVar(&simParams.TimeHorizon, "horizon", dashboard.DefaultTimeHorizon, "time horizon in days")
	simulateCmd.Flags().StringVar(&simParams.Distribution, "distribution", dashboard.DefaultDistribution, "inter-arrival distribution (weibull, exponential)")
	rootCmd.AddCommand(simulateCmd)
}
