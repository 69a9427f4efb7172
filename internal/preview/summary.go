package preview

import (
	"fmt"
	"strings"

	"shipdash/internal/backend"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// summaryMarkdown renders the KPI cards and the last simulation result as a markdown table.
func summaryMarkdown(k backend.KPIs, result string) string {
	var sb strings.Builder
	sb.WriteString("| Total orders | Late deliveries | Avg shipping delay | Avg profit |\n")
	sb.WriteString("|---:|---:|---:|---:|\n")
	sb.WriteString(fmt.Sprintf("| %d | %.1f%% | %.1f days | $%.0f |\n", k.TotalOrders, k.LateDeliveryPercent, k.AvgShippingDelay, k.AvgProfit))
	if result != "" {
		sb.WriteString("\n**Simulation:** ")
		sb.WriteString(escapeMarkdown(result))
		sb.WriteString("\n")
	}
	return sb.String()
}

// summaryHTML converts summaryMarkdown to HTML.
func summaryHTML(k backend.KPIs, result string) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions)
	r := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags | html.SkipHTML})
	return markdown.ToHTML([]byte(summaryMarkdown(k, result)), p, r)
}

var markdownEscaper = strings.NewReplacer("|", "\\|", "*", "\\*", "_", "\\_", "`", "\\`", "<", "&lt;", ">", "&gt;")

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}
