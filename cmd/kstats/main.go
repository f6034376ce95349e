// Command kstats parses a librdkafka statistics JSON file, prints a summary
// of the latest snapshot, and optionally generates time-series charts and
// debug artifacts.
//
// Usage:
//
//	kstats [flags] <stats-file>
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"kafkastats/internal/config"
	"kafkastats/internal/exporter"
	"kafkastats/internal/infrastructure"
	"kafkastats/internal/plotter"
	"kafkastats/internal/stats"
)

func main() {
	os.Exit(run())
}

func run() int {
	configFile := flag.String("config", "", "path to optional YAML config file")
	graph := flag.Bool("graph", false, "generate charts of the statistics over time")
	output := flag.String("output", "", "output directory for charts (default kafka_graphs)")
	debugData := flag.Bool("debug-data", false, "write the parsed time-series data and per-chart CSVs/summaries for debugging")
	showEmpty := flag.Bool("show-empty", false, "include series with fewer than two valid points in charts (default hides them)")
	noLegendValid := flag.Bool("no-legend-valid", false, "do not append data point counts to legend labels")
	noAnnotate := flag.Bool("no-annotate", false, "disable small per-chart annotations (series/hidden/const counts)")
	lineWidth := flag.Float64("line-width", 0, "line width for charts in points (default 3.0)")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <stats-file>\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
		return 2
	}
	statsFile := flag.Arg(0)

	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		return 1
	}

	// Flags override config file and environment.
	if *output != "" {
		cfg.Output.Dir = *output
	}
	if *lineWidth > 0 {
		cfg.Output.LineWidth = *lineWidth
	}
	if *showEmpty {
		cfg.Pipeline.ShowEmpty = true
	}
	if *debugData {
		cfg.Pipeline.DebugData = true
	}
	if *noLegendValid {
		cfg.Output.LegendValid = false
	}
	if *noAnnotate {
		cfg.Output.Annotate = false
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Error("failed to initialize logger", "error", err)
		return 1
	}
	defer infrastructure.CloseLogFile()

	ctx := infrastructure.ContextWithTraceID(context.Background())

	pipeline := stats.NewPipeline(logger, statsFile)
	if err := pipeline.Run(ctx); err != nil {
		logger.ErrorContext(ctx, "pipeline failed", "error", err)
		return 1
	}

	pipeline.PrintSummary(os.Stdout)

	if !*graph && !cfg.Pipeline.DebugData {
		return 0
	}

	opts := plotter.Options{
		ShowEmpty:   cfg.Pipeline.ShowEmpty,
		LegendValid: cfg.Output.LegendValid,
		Annotate:    cfg.Output.Annotate,
		LineWidth:   cfg.Output.LineWidth,
	}
	bundle := pipeline.Bundle()

	if *graph {
		written, err := plotter.WriteFigures(ctx, bundle, opts, cfg.Output.Dir)
		if err != nil {
			logger.ErrorContext(ctx, "chart generation failed", "error", err)
			return 1
		}
		if len(written) == 0 {
			fmt.Fprintln(os.Stdout, "Not enough data points to generate charts.")
		} else {
			fmt.Fprintf(os.Stdout, "\nGenerated %d chart file(s) in %s\n", len(written), cfg.Output.Dir)
		}
	}

	if cfg.Pipeline.DebugData {
		figures := plotter.BuildFigures(bundle, opts)
		debugDir := filepath.Join(cfg.Output.Dir, "debug")

		debugExporter := exporter.NewDebugExporter(logger, debugDir)
		if err := debugExporter.Export(ctx, bundle, figures); err != nil {
			logger.ErrorContext(ctx, "debug export failed", "error", err)
			return 1
		}
		if err := exporter.WriteWorkbook(ctx, filepath.Join(debugDir, "bundle.xlsx"), bundle.Times, figures); err != nil {
			logger.ErrorContext(ctx, "workbook export failed", "error", err)
			return 1
		}
	}

	return 0
}
