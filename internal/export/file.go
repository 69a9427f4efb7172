package export

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"shipdash/internal/chart"

	"github.com/rs/zerolog/log"
)

// Export formats.
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// Source streams the filtered records as CSV.
type Source interface {
	ExportCSV(ctx context.Context, w io.Writer) (int64, error)
}

// Result describes a written export file.
type Result struct {
	Path   string `json:"path"`
	Format string `json:"format"`
	Bytes  int    `json:"bytes"`
}

// ParseFormat normalises a format name. Empty means CSV.
func ParseFormat(s string) (string, error) {
	f := strings.ToLower(strings.TrimSpace(s))
	switch f {
	case "":
		return FormatCSV, nil
	case FormatCSV, FormatXLSX:
		return f, nil
	}
	return "", fmt.Errorf("unsupported export format %q (expected csv or xlsx)", s)
}

// FileName returns a file name inside the export directory. Directory components of name are
// dropped, an empty name gets a timestamp and the format extension is appended when missing.
func FileName(name, format string, now time.Time) string {
	base := filepath.Base(name)
	if name == "" || base == "." || base == string(filepath.Separator) {
		base = fmt.Sprintf("shipdash-%s", now.Format("20060102-150405"))
	}
	if filepath.Ext(base) != "."+format {
		base += "." + format
	}
	return base
}

// Save writes the records of src to dir/name in the given format. XLSX exports carry one extra
// sheet per chart in charts.
func Save(ctx context.Context, src Source, charts []chart.Snapshot, dir, name, format string) (Result, error) {
	format, err := ParseFormat(format)
	if err != nil {
		return Result{}, err
	}
	path := filepath.Join(dir, FileName(name, format, time.Now()))

	var csvData bytes.Buffer
	if _, err := src.ExportCSV(ctx, &csvData); err != nil {
		return Result{}, err
	}

	body := csvData.Bytes()
	if format == FormatXLSX {
		var xlsx bytes.Buffer
		if err := WriteWorkbook(&xlsx, &csvData, charts); err != nil {
			return Result{}, err
		}
		body = xlsx.Bytes()
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return Result{}, fmt.Errorf("failed to create export directory: %w", err)
	}
	if err := os.WriteFile(path, body, 0644); err != nil {
		return Result{}, fmt.Errorf("failed to write export: %w", err)
	}

	log.Info().Str("path", path).Str("format", format).Int("bytes", len(body)).Msg("Export written")
	return Result{Path: path, Format: format, Bytes: len(body)}, nil
}
