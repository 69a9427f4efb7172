package dashboard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"sync"

	"shipdash/internal/backend"
	"shipdash/internal/chart"
	"shipdash/internal/stats"
	"shipdash/internal/telemetry"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ErrStale is returned when a response arrives after a newer request of the same kind already published its answer.
// The response is dropped and no state changes.
var ErrStale = errors.New("response superseded by a newer request")

// Default filter range and simulation parameters.
const (
	DefaultStartDate      = "2020-01-01"
	DefaultEndDate        = "2024-12-31"
	DefaultNumSimulations = 1000
	DefaultTimeHorizon    = 365
	DefaultDistribution   = "weibull"
)

// Distributions are the inter-arrival models the backend can fit.
var Distributions = []string{"weibull", "exponential"}

// FilterOptions are the selectable values of each categorical filter.
type FilterOptions struct {
	DeliveryStatus  []string `json:"deliveryStatus"`
	CustomerCountry []string `json:"customerCountry"`
	Category        []string `json:"category"`
}

// SimulationParams are the user-facing simulation inputs. Zero values take the defaults.
type SimulationParams struct {
	NumSimulations int    `json:"numSimulations"`
	TimeHorizon    int    `json:"timeHorizon"`
	Distribution   string `json:"distribution"`
}

// SimulationOutcome is the result of one RunSimulation call.
type SimulationOutcome struct {
	// Error is the backend-reported failure, if any. Charts are untouched when set.
	Error  string                   `json:"error,omitempty"`
	Stats  *backend.SimulationStats `json:"stats,omitempty"`
	Runs   int                      `json:"runs"`
	Result string                   `json:"result"`
}

// generations orders the requests of one kind. A response is stale only when a newer request
// has already published its answer; a newer request that failed does not block older answers.
type generations struct {
	issued    uint64
	published uint64
}

func (g *generations) next() uint64 {
	g.issued++
	return g.issued
}

func (g *generations) publish(gen uint64) bool {
	if gen < g.published {
		return false
	}
	g.published = gen
	return true
}

// Options configure a Session.
type Options struct {
	Buckets      int
	DensitySteps int
	Policy       stats.NumericPolicy
}

// Session is the dashboard state of one user: the chart registry, the cached filter response,
// the active view and the last simulation result. It is created once at startup and closed at exit.
// All methods are safe for concurrent use; backend calls run outside the state lock.
type Session struct {
	ID string

	client   backend.Client
	registry *chart.Registry
	renderer Renderer

	mu         sync.Mutex
	caches     Caches
	kpis       backend.KPIs
	view       View
	filters    backend.Filters
	options    FilterOptions
	resultText string
	loaded     bool
	filterGen  generations
	simGen     generations
}

// NewSession creates a session on the overview view.
func NewSession(client backend.Client, registry *chart.Registry, opts Options) *Session {
	if opts.Buckets < 1 {
		opts.Buckets = stats.DefaultBuckets
	}
	if opts.DensitySteps < 1 {
		opts.DensitySteps = stats.DefaultDensitySteps
	}
	if !opts.Policy.Valid() {
		opts.Policy = stats.PolicyZero
	}
	return &Session{
		ID:       uuid.NewString(),
		client:   client,
		registry: registry,
		renderer: Renderer{
			Registry:     registry,
			Buckets:      opts.Buckets,
			DensitySteps: opts.DensitySteps,
			Policy:       opts.Policy,
		},
		view: ViewOverview,
	}
}

// Registry exposes the session's chart registry.
func (s *Session) Registry() *chart.Registry {
	return s.registry
}

// LoadOptions fetches the unfiltered dataset and derives the sorted distinct values of each
// categorical filter. Empty values are left out.
func (s *Session) LoadOptions(ctx context.Context) (FilterOptions, error) {
	records, err := s.client.AllRecords(ctx)
	if err != nil {
		return FilterOptions{}, fmt.Errorf("failed to load filter options: %w", err)
	}

	opts := FilterOptions{
		DeliveryStatus:  distinct(records, "delivery_status"),
		CustomerCountry: distinct(records, "customer_country"),
		Category:        distinct(records, "category_name"),
	}

	s.mu.Lock()
	s.options = opts
	s.mu.Unlock()

	log.Info().
		Int("records", len(records)).
		Int("statuses", len(opts.DeliveryStatus)).
		Int("countries", len(opts.CustomerCountry)).
		Int("categories", len(opts.Category)).
		Msg("Filter options loaded")
	return opts, nil
}

func distinct(records []backend.Record, field string) []string {
	seen := make(map[string]struct{})
	for _, r := range records {
		var v string
		switch x := r[field].(type) {
		case nil:
			continue
		case string:
			v = x
		default:
			v = fmt.Sprint(x)
		}
		if v == "" {
			continue
		}
		seen[v] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// ApplyFilters fetches the filtered dataset and, unless a newer filter response was already
// published, replaces the cache snapshot and KPIs and re-renders the active view.
func (s *Session) ApplyFilters(ctx context.Context, filters backend.Filters) error {
	s.mu.Lock()
	gen := s.filterGen.next()
	s.mu.Unlock()

	resp, err := s.client.Filter(ctx, filters)
	if err != nil {
		return fmt.Errorf("failed to apply filters: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.filterGen.publish(gen) {
		telemetry.StaleResponse("filter")
		log.Warn().Uint64("generation", gen).Uint64("published", s.filterGen.published).Msg("Dropping stale filter response")
		return ErrStale
	}

	s.caches = NewCaches(resp)
	s.loaded = true
	s.kpis = resp.KPIs
	s.filters = filters

	log.Info().
		Int("orders", resp.KPIs.TotalOrders).
		Int("records", len(resp.FilteredRecords)).
		Str("view", string(s.view)).
		Msg("Filters applied")
	return s.renderer.RenderForView(s.view, s.caches)
}

// ResetFilters restores the default date range with every known option selected and applies it.
// Options are loaded first if they never were.
func (s *Session) ResetFilters(ctx context.Context) (backend.Filters, error) {
	s.mu.Lock()
	opts := s.options
	s.mu.Unlock()

	if opts.DeliveryStatus == nil && opts.CustomerCountry == nil && opts.Category == nil {
		var err error
		if opts, err = s.LoadOptions(ctx); err != nil {
			return backend.Filters{}, err
		}
	}

	filters := DefaultFilters(opts)
	return filters, s.ApplyFilters(ctx, filters)
}

// DefaultFilters is the reset state: the full date range with every option selected.
func DefaultFilters(opts FilterOptions) backend.Filters {
	return backend.Filters{
		StartDate:       DefaultStartDate,
		EndDate:         DefaultEndDate,
		DeliveryStatus:  append([]string{}, opts.DeliveryStatus...),
		CustomerCountry: append([]string{}, opts.CustomerCountry...),
		Category:        append([]string{}, opts.Category...),
	}
}

// SwitchView makes v the active view and renders it from the current caches.
// Switching to the already active view does nothing, and nothing is drawn before the first
// successful ApplyFilters.
func (s *Session) SwitchView(v View) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if v == s.view {
		return nil
	}
	if _, err := ParseView(string(v)); err != nil {
		return err
	}
	s.view = v
	log.Debug().Str("view", string(v)).Msg("View switched")
	if !s.loaded {
		// The first ApplyFilters renders it.
		return nil
	}
	return s.renderer.RenderForView(v, s.caches)
}

// RunSimulation runs a Monte-Carlo disruption simulation on the cached inter-arrival times.
// A backend-reported failure is returned in the outcome and leaves the charts untouched.
func (s *Session) RunSimulation(ctx context.Context, params SimulationParams) (SimulationOutcome, error) {
	if params.NumSimulations <= 0 {
		params.NumSimulations = DefaultNumSimulations
	}
	if params.TimeHorizon <= 0 {
		params.TimeHorizon = DefaultTimeHorizon
	}
	if params.Distribution == "" {
		params.Distribution = DefaultDistribution
	}

	s.mu.Lock()
	gen := s.simGen.next()
	inter := s.caches.InterArrival
	s.mu.Unlock()

	resp, err := s.client.Simulate(ctx, backend.SimulationRequest{
		NumSimulations:    params.NumSimulations,
		TimeHorizon:       params.TimeHorizon,
		Distribution:      params.Distribution,
		InterArrivalTimes: inter,
	})
	if err != nil {
		return SimulationOutcome{}, fmt.Errorf("failed to run simulation: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.simGen.publish(gen) {
		telemetry.StaleResponse("simulate")
		log.Warn().Uint64("generation", gen).Uint64("published", s.simGen.published).Msg("Dropping stale simulation response")
		return SimulationOutcome{}, ErrStale
	}

	if resp.Error != "" {
		s.resultText = resp.Error
		return SimulationOutcome{Error: resp.Error, Result: resp.Error}, nil
	}

	summary := resp.Stats
	if summary == nil {
		computed, err := stats.SummarizeSimulation(resp.DisruptionCounts, resp.TotalCosts)
		if err != nil {
			return SimulationOutcome{}, fmt.Errorf("simulation response has no stats: %w", err)
		}
		summary = &computed
	}

	s.registry.Upsert(chart.ChartSpec{
		ID:     ChartSimCount,
		Target: Target(ChartSimCount),
		Kind:   chart.KindBar,
		Title:  "Disruptions per Run",
		Labels: runLabels(len(resp.DisruptionCounts)),
		Series: []chart.Series{{Name: "Disruptions", Data: resp.DisruptionCounts, Color: "#16a34a"}},
	})
	s.registry.Upsert(chart.ChartSpec{
		ID:     ChartSimCost,
		Target: Target(ChartSimCost),
		Kind:   chart.KindLine,
		Title:  "Total Cost per Run",
		Labels: runLabels(len(resp.TotalCosts)),
		Series: []chart.Series{{Name: "Total Cost", Data: resp.TotalCosts, Color: "#f59e0b"}},
	})

	s.resultText = stats.FormatSimulationResult(*summary)
	log.Info().
		Int("runs", len(resp.DisruptionCounts)).
		Str("distribution", params.Distribution).
		Float64("meanDisruptions", summary.MeanDisruptions).
		Msg("Simulation completed")

	return SimulationOutcome{
		Stats:  summary,
		Runs:   len(resp.DisruptionCounts),
		Result: s.resultText,
	}, nil
}

// runLabels numbers runs from 1.
func runLabels(n int) []string {
	labels := make([]string, n)
	for i := range labels {
		labels[i] = strconv.Itoa(i + 1)
	}
	return labels
}

// ExportCSV streams the backend's CSV of the last applied filters to w.
func (s *Session) ExportCSV(ctx context.Context, w io.Writer) (int64, error) {
	s.mu.Lock()
	filters := s.filters
	s.mu.Unlock()

	n, err := s.client.ExportCSV(ctx, filters, w)
	if err != nil {
		return n, fmt.Errorf("failed to export data: %w", err)
	}
	return n, nil
}

// Loaded reports whether a filter response has been accepted yet.
func (s *Session) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

// KPIs returns the KPIs of the last accepted filter response.
func (s *Session) KPIs() backend.KPIs {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.kpis
}

// ResultText returns the last simulation result line or backend error message.
func (s *Session) ResultText() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resultText
}

// ActiveView returns the current view.
func (s *Session) ActiveView() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

// Caches returns the current cache snapshot.
func (s *Session) Caches() Caches {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.caches
}

// Filters returns the last applied filters.
func (s *Session) Filters() backend.Filters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filters
}

// Options returns the last loaded filter options.
func (s *Session) Options() FilterOptions {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.options
}

// Close destroys every chart the session drew.
func (s *Session) Close() {
	s.registry.Close()
	log.Debug().Str("session", s.ID).Msg("Session closed")
}
