package exporter

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	apperrors "kafkastats/internal/errors"
	"kafkastats/internal/plotter"
	"kafkastats/internal/stats"
)

// WriteWorkbook writes the aligned series into an Excel workbook, one sheet
// per chart, mirroring the chart layout so a sheet answers for its figure.
func WriteWorkbook(ctx context.Context, path string, times []time.Time, figures []plotter.Figure) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return apperrors.NewStorageError("failed to create workbook directory", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	seen := make(map[string]bool)
	for _, fig := range figures {
		for _, chart := range fig.Charts {
			name := sheetName(chart.Title, seen)
			if _, err := f.NewSheet(name); err != nil {
				return apperrors.NewStorageError("failed to create worksheet", err).
					WithContext("sheet", name)
			}
			if err := fillSheet(f, name, chart, times); err != nil {
				return err
			}
		}
	}

	// Drop the default sheet excelize creates.
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return apperrors.NewStorageError("failed to remove default worksheet", err)
	}

	if err := f.SaveAs(path); err != nil {
		return apperrors.NewStorageError("failed to save workbook", err).
			WithContext("path", path)
	}

	slog.InfoContext(ctx, "saved workbook", slog.String("path", path))
	return nil
}

func fillSheet(f *excelize.File, sheet string, chart plotter.Chart, times []time.Time) error {
	if err := f.SetCellValue(sheet, "A1", "timestamp"); err != nil {
		return apperrors.NewStorageError("failed to write worksheet header", err)
	}
	for i, s := range chart.Series {
		cell, _ := excelize.CoordinatesToCellName(i+2, 1)
		if err := f.SetCellValue(sheet, cell, s.Label); err != nil {
			return apperrors.NewStorageError("failed to write worksheet header", err)
		}
	}

	for row, ts := range times {
		cell, _ := excelize.CoordinatesToCellName(1, row+2)
		if err := f.SetCellValue(sheet, cell, ts.Format(time.RFC3339)); err != nil {
			return apperrors.NewStorageError("failed to write worksheet row", err)
		}
		for col, s := range chart.Series {
			v := s.Values[row]
			if stats.IsMissing(v) {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(col+2, row+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return apperrors.NewStorageError("failed to write worksheet cell", err)
			}
		}
	}

	return nil
}

// sheetName produces a unique worksheet name within Excel's 31-character
// limit and allowed character set.
func sheetName(title string, seen map[string]bool) string {
	r := strings.NewReplacer(":", "", "\\", "_", "/", "_", "?", "_", "*", "_", "[", "_", "]", "_")
	name := r.Replace(title)
	if len(name) > 31 {
		name = name[:31]
	}
	if !seen[name] {
		seen[name] = true
		return name
	}
	for i := 2; ; i++ {
		suffix := fmt.Sprintf(" %d", i)
		candidate := name
		if len(candidate)+len(suffix) > 31 {
			candidate = candidate[:31-len(suffix)]
		}
		candidate += suffix
		if !seen[candidate] {
			seen[candidate] = true
			return candidate
		}
	}
}
