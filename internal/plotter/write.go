package plotter

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	apperrors "kafkastats/internal/errors"
	"kafkastats/internal/stats"
)

// WriteFigures renders all figures for a bundle into outDir and returns the
// written file paths. A bundle with fewer than two timestamps yields zero
// artifacts and a diagnostic; that is not an error.
func WriteFigures(ctx context.Context, bundle *stats.TimeSeriesBundle, opts Options, outDir string) ([]string, error) {
	if !bundle.Plottable() {
		slog.WarnContext(ctx, "not enough data points to generate charts",
			slog.Int("timestamps", len(bundle.Times)))
		return nil, nil
	}

	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, apperrors.NewStorageError("failed to create chart output directory", err).
			WithContext("dir", outDir)
	}

	var written []string
	for _, fig := range BuildFigures(bundle, opts) {
		path := filepath.Join(outDir, fig.Name+".svg")
		if err := os.WriteFile(path, RenderFigure(fig, bundle.Times, opts), 0644); err != nil {
			return written, apperrors.NewStorageError("failed to write chart file", err).
				WithContext("path", path)
		}
		slog.InfoContext(ctx, "saved chart figure", slog.String("path", path))
		written = append(written, path)
	}

	return written, nil
}
