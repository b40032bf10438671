package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/claude/wellcast/internal/aggregate"
	"github.com/claude/wellcast/internal/ingest"
	"github.com/claude/wellcast/internal/models"
	"github.com/claude/wellcast/internal/wellness"
)

func main() {
	exportPath := flag.String("export", "-", "local-storage export file, or - for stdin")
	timezone := flag.String("timezone", "Local", "IANA timezone calendar dates are taken in")
	window := flag.Int("window", aggregate.DefaultWindowDays, "number of most recent logged days to analyse")
	now := flag.String("now", "", "treat this date (YYYY-MM-DD) as today; defaults to the current date")
	dataPoints := flag.Bool("data-points", false, "include the daily data points in the output")
	verbose := flag.Bool("v", false, "log skipped records to stderr")
	flag.Parse()

	level := slog.LevelError
	if *verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if err := run(*exportPath, *timezone, *window, *now, *dataPoints, log); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(exportPath, timezone string, window int, now string, dataPoints bool, log *slog.Logger) error {
	loc := time.Local
	if timezone != "Local" {
		var err error
		if loc, err = time.LoadLocation(timezone); err != nil {
			return fmt.Errorf("loading timezone: %w", err)
		}
	}

	clock := time.Now
	if now != "" {
		t, err := time.ParseInLocation(models.DateKeyLayout, now, loc)
		if err != nil {
			return fmt.Errorf("parsing -now: %w", err)
		}
		clock = func() time.Time { return t }
	}

	var in io.Reader = os.Stdin
	if exportPath != "-" {
		f, err := os.Open(exportPath)
		if err != nil {
			return fmt.Errorf("opening export: %w", err)
		}
		defer f.Close()
		in = f
	}

	snap, err := ingest.ParseSnapshot(in)
	if err != nil {
		return err
	}

	pipeline := wellness.NewPipeline(wellness.Options{WindowDays: window, Location: loc, Now: clock}, log)
	res := pipeline.Run(context.Background(), ingest.NewKVSource(snap, log))

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if dataPoints {
		return enc.Encode(res)
	}
	return enc.Encode(res.Predictions)
}
