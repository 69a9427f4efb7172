package mcp

import (
	"context"
	"fmt"

	"shipdash/internal/dashboard"

	"github.com/google/jsonschema-go/jsonschema"
	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

type emptyInput struct{}

// ApplyFiltersInput mirrors the backend filter body.
type ApplyFiltersInput struct {
	StartDate       string   `json:"startDate,omitempty" jsonschema:"Inclusive start date (YYYY-MM-DD). Empty means no lower bound."`
	EndDate         string   `json:"endDate,omitempty" jsonschema:"Inclusive end date (YYYY-MM-DD). Empty means no upper bound."`
	DeliveryStatus  []string `json:"deliveryStatus,omitempty" jsonschema:"Delivery statuses to keep. Empty keeps all."`
	CustomerCountry []string `json:"customerCountry,omitempty" jsonschema:"Customer countries to keep. Empty keeps all."`
	Category        []string `json:"category,omitempty" jsonschema:"Product categories to keep. Empty keeps all."`
}

// SwitchViewInput selects a dashboard view.
type SwitchViewInput struct {
	View string `json:"view" jsonschema:"The view to show."`
}

// RunSimulationInput parameterises a disruption simulation.
type RunSimulationInput struct {
	NumSimulations int    `json:"numSimulations,omitempty" jsonschema:"Number of Monte-Carlo runs (default 1000)."`
	TimeHorizon    int    `json:"timeHorizon,omitempty" jsonschema:"Simulated horizon in days (default 365)."`
	Distribution   string `json:"distribution,omitempty" jsonschema:"Inter-arrival model (default weibull)."`
}

// ExportDataInput selects the export format and file name.
type ExportDataInput struct {
	Format   string `json:"format,omitempty" jsonschema:"csv (default) or xlsx. xlsx adds one sheet per live chart."`
	Filename string `json:"filename,omitempty" jsonschema:"Optional file name inside the export directory."`
}

func (s *Server) registerTools() {
	sdk.AddTool(s.sdk, &sdk.Tool{
		Name:        "list_filter_options",
		Description: "List the selectable delivery statuses, customer countries and categories of the full dataset. Guidance: call this before 'apply_filters' so filter values match the data exactly.",
		InputSchema: schemaFor[emptyInput](nil),
	}, func(ctx context.Context, _ *sdk.CallToolRequest, _ emptyInput) (*sdk.CallToolResult, any, error) {
		return toolResult(s.handleListFilterOptions(ctx))
	})

	sdk.AddTool(s.sdk, &sdk.Tool{
		Name:        "apply_filters",
		Description: "Filter the shipment dataset and refresh the KPIs and the charts of the active view. Returns the KPIs plus the Mermaid charts of the active view. Guidance: use 'switch_view' afterwards to inspect other views; they are drawn from the same filtered data.",
		InputSchema: schemaFor[ApplyFiltersInput](nil),
	}, func(ctx context.Context, _ *sdk.CallToolRequest, in ApplyFiltersInput) (*sdk.CallToolResult, any, error) {
		return toolResult(s.handleApplyFilters(ctx, in))
	})

	sdk.AddTool(s.sdk, &sdk.Tool{
		Name:        "reset_filters",
		Description: "Reset the filters to the full date range (2020-01-01 to 2024-12-31) with every status, country and category selected, then apply them.",
		InputSchema: schemaFor[emptyInput](nil),
	}, func(ctx context.Context, _ *sdk.CallToolRequest, _ emptyInput) (*sdk.CallToolResult, any, error) {
		return toolResult(s.handleResetFilters(ctx))
	})

	sdk.AddTool(s.sdk, &sdk.Tool{
		Name:        "switch_view",
		Description: "Switch the dashboard view and draw its charts from the current filtered data. overview: delay trends, delivery status counts, country risk. frequency: inter-arrival histogram. severity: median profit by status and profit density. simulation: the last simulation run.",
		InputSchema: schemaFor[SwitchViewInput](func(sc *jsonschema.Schema) {
			sc.Properties["view"].Enum = viewEnum()
		}),
	}, func(ctx context.Context, _ *sdk.CallToolRequest, in SwitchViewInput) (*sdk.CallToolResult, any, error) {
		return toolResult(s.handleSwitchView(ctx, in))
	})

	sdk.AddTool(s.sdk, &sdk.Tool{
		Name: "run_simulation",
		Description: "Run a Monte-Carlo disruption simulation on the inter-arrival times of the current filtered data. " +
			"Returns mean and standard deviation of disruptions, mean cost, 95%/99% Value-at-Risk and maximum cost.\n\n" +
			"STRICT GUARDRAIL: if the tool reports an error (e.g. no interarrival data for fitting), DO NOT estimate the figures yourself. Ask the user to widen the filters instead.",
		InputSchema: schemaFor[RunSimulationInput](func(sc *jsonschema.Schema) {
			sc.Properties["distribution"].Enum = stringEnum(dashboard.Distributions)
		}),
	}, func(ctx context.Context, _ *sdk.CallToolRequest, in RunSimulationInput) (*sdk.CallToolResult, any, error) {
		return toolResult(s.handleRunSimulation(ctx, in))
	})

	sdk.AddTool(s.sdk, &sdk.Tool{
		Name:        "get_dashboard",
		Description: "Get the current dashboard state: active view, filters, KPIs, live charts, last simulation result and the Mermaid charts of the active view.",
		InputSchema: schemaFor[emptyInput](nil),
	}, func(ctx context.Context, _ *sdk.CallToolRequest, _ emptyInput) (*sdk.CallToolResult, any, error) {
		return toolResult(s.handleGetDashboard(ctx))
	})

	sdk.AddTool(s.sdk, &sdk.Tool{
		Name:        "export_data",
		Description: "Export the records matching the last applied filters to a file in the export directory. Returns the file path.",
		InputSchema: schemaFor[ExportDataInput](func(sc *jsonschema.Schema) {
			sc.Properties["format"].Enum = []any{"csv", "xlsx"}
		}),
	}, func(ctx context.Context, _ *sdk.CallToolRequest, in ExportDataInput) (*sdk.CallToolResult, any, error) {
		return toolResult(s.handleExportData(ctx, in))
	})
}

// schemaFor infers the input schema of T and lets the caller refine it.
// Inference only fails for unsupported Go types, which is a programming error.
func schemaFor[T any](refine func(*jsonschema.Schema)) *jsonschema.Schema {
	sc, err := jsonschema.For[T](nil)
	if err != nil {
		panic(fmt.Sprintf("input schema: %v", err))
	}
	if refine != nil {
		refine(sc)
	}
	return sc
}

func viewEnum() []any {
	out := make([]any, len(dashboard.Views))
	for i, v := range dashboard.Views {
		out[i] = string(v)
	}
	return out
}

func stringEnum(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
