package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"shipdash/internal/backend"
	"shipdash/internal/dashboard"

	"github.com/spf13/cobra"
)

// filterFlags are shared by every command that applies filters before working.
type filterFlags struct {
	file      string
	start     string
	end       string
	statuses  []string
	countries []string
	category  []string
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.file, "filters", "f", "", "JSON file with startDate, endDate, deliveryStatus, customerCountry and category")
	cmd.Flags().StringVar(&f.start, "start", "", "start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.end, "end", "", "end date (YYYY-MM-DD)")
	cmd.Flags().StringSliceVar(&f.statuses, "status", nil, "delivery statuses to keep")
	cmd.Flags().StringSliceVar(&f.countries, "country", nil, "customer countries to keep")
	cmd.Flags().StringSliceVar(&f.category, "category", nil, "categories to keep")
}

// given reports whether any filter was set; otherwise commands fall back to the reset filters.
func (f *filterFlags) given() bool {
	return f.file != "" || f.start != "" || f.end != "" || len(f.statuses) > 0 || len(f.countries) > 0 || len(f.category) > 0
}

// load reads the filters file, then lets individual flags override it.
func (f *filterFlags) load() (backend.Filters, error) {
	var filters backend.Filters
	if f.file != "" {
		data, err := os.ReadFile(f.file)
		if err != nil {
			return filters, fmt.Errorf("failed to read filters file: %w", err)
		}
		if err := json.Unmarshal(data, &filters); err != nil {
			return filters, fmt.Errorf("failed to parse filters file %s: %w", f.file, err)
		}
	}
	if f.start != "" {
		filters.StartDate = f.start
	}
	if f.end != "" {
		filters.EndDate = f.end
	}
	if len(f.statuses) > 0 {
		filters.DeliveryStatus = f.statuses
	}
	if len(f.countries) > 0 {
		filters.CustomerCountry = f.countries
	}
	if len(f.category) > 0 {
		filters.Category = f.category
	}
	return filters, nil
}

// apply applies the flag filters, or the reset filters when none were given.
func (f *filterFlags) apply(ctx context.Context, session *dashboard.Session) error {
	if !f.given() {
		_, err := session.ResetFilters(ctx)
		return err
	}
	filters, err := f.load()
	if err != nil {
		return err
	}
	return session.ApplyFilters(ctx, filters)
}
