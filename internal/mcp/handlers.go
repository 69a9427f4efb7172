package mcp

import (
	"context"
	"errors"
	"fmt"

	"shipdash/internal/backend"
	"shipdash/internal/dashboard"
	"shipdash/internal/export"
)

const staleWarning = "A newer request superseded this one; the dashboard shows the newer result."

func (s *Server) handleListFilterOptions(ctx context.Context) (*ResponseEnvelope, error) {
	opts, err := s.session.LoadOptions(ctx)
	if err != nil {
		return nil, err
	}
	return s.envelope(opts), nil
}

func (s *Server) handleApplyFilters(ctx context.Context, in ApplyFiltersInput) (*ResponseEnvelope, error) {
	filters := backend.Filters{
		StartDate:       in.StartDate,
		EndDate:         in.EndDate,
		DeliveryStatus:  in.DeliveryStatus,
		CustomerCountry: in.CustomerCountry,
		Category:        in.Category,
	}
	return s.afterFilter(s.session.ApplyFilters(ctx, filters))
}

func (s *Server) handleResetFilters(ctx context.Context) (*ResponseEnvelope, error) {
	_, err := s.session.ResetFilters(ctx)
	return s.afterFilter(err)
}

func (s *Server) afterFilter(err error) (*ResponseEnvelope, error) {
	var warnings []string
	if errors.Is(err, dashboard.ErrStale) {
		warnings = append(warnings, staleWarning)
	} else if err != nil {
		return nil, err
	}

	env := s.envelope(map[string]any{
		"filters": s.session.Filters(),
		"kpis":    s.session.KPIs(),
		"charts":  s.session.Registry().IDs(),
	}, warnings...)
	env.Charts = s.viewCharts(s.session.ActiveView())
	return env, nil
}

func (s *Server) handleSwitchView(_ context.Context, in SwitchViewInput) (*ResponseEnvelope, error) {
	view, err := dashboard.ParseView(in.View)
	if err != nil {
		return nil, err
	}
	if err := s.session.SwitchView(view); err != nil {
		return nil, err
	}

	var warnings []string
	if !s.session.Loaded() {
		warnings = append(warnings, "No filtered data loaded yet. Call 'apply_filters' or 'reset_filters' first.")
	}
	env := s.envelope(map[string]any{
		"view":   view,
		"charts": s.liveCharts(view),
	}, warnings...)
	env.Charts = s.viewCharts(view)
	return env, nil
}

func (s *Server) handleRunSimulation(ctx context.Context, in RunSimulationInput) (*ResponseEnvelope, error) {
	out, err := s.session.RunSimulation(ctx, dashboard.SimulationParams{
		NumSimulations: in.NumSimulations,
		TimeHorizon:    in.TimeHorizon,
		Distribution:   in.Distribution,
	})
	if errors.Is(err, dashboard.ErrStale) {
		return s.envelope(map[string]any{"result": s.session.ResultText()}, staleWarning), nil
	}
	if err != nil {
		return nil, err
	}
	if out.Error != "" {
		// The backend refused the run; report it as a tool error so it is not mistaken for data.
		return nil, fmt.Errorf("simulation failed: %s", out.Error)
	}

	env := s.envelope(out)
	env.Charts = s.viewCharts(dashboard.ViewSimulation)
	return env, nil
}

func (s *Server) handleGetDashboard(_ context.Context) (*ResponseEnvelope, error) {
	view := s.session.ActiveView()
	env := s.envelope(map[string]any{
		"view":              view,
		"filters":           s.session.Filters(),
		"kpis":              s.session.KPIs(),
		"charts":            s.session.Registry().IDs(),
		"simulation_result": s.session.ResultText(),
	})
	env.Charts = s.viewCharts(view)
	return env, nil
}

func (s *Server) handleExportData(ctx context.Context, in ExportDataInput) (*ResponseEnvelope, error) {
	res, err := export.Save(ctx, s.session, s.session.Registry().Snapshot(), s.cfg.ExportDir, in.Filename, in.Format)
	if err != nil {
		return nil, err
	}
	return s.envelope(res), nil
}

// viewCharts renders the Mermaid charts of a view, or nothing when Mermaid output is disabled.
func (s *Server) viewCharts(v dashboard.View) string {
	if s.mermaid == nil || !s.cfg.EnableMermaidCharts {
		return ""
	}
	return s.mermaid.Markdown(dashboard.TargetsFor(v)...)
}

// liveCharts lists the charts of v that currently exist.
func (s *Server) liveCharts(v dashboard.View) []string {
	var ids []string
	for _, id := range dashboard.ChartsFor(v) {
		if _, ok := s.session.Registry().Get(id); ok {
			ids = append(ids, id)
		}
	}
	return ids
}
