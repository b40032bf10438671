package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/claude/wellcast/internal/upload"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	serverURL := flag.String("server", "", "Wellcast server URL (e.g. https://wellcast.tail1234.ts.net)")
	exportPath := flag.String("export", "", "path to a local-storage export (JSON object of key to value)")
	apiKey := flag.String("api-key", os.Getenv("WELLCAST_AUTH_API_KEY"), "API key for record writes")
	stateDir := flag.String("state-dir", "", "directory for the upload state database (default ~/.wellcast-sync)")
	dryRun := flag.Bool("dry-run", false, "report what would be uploaded without sending")
	verbose := flag.Bool("v", false, "debug logging")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("wellcast-sync", Version)
		return
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	if *exportPath == "" {
		fmt.Fprintf(os.Stderr, "Usage: wellcast-sync -server <URL> -export <file> [-api-key KEY] [-dry-run]\n\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	if *serverURL == "" && !*dryRun {
		fmt.Fprintf(os.Stderr, "Error: -server is required (or use -dry-run)\n")
		os.Exit(1)
	}
	if *apiKey == "" && !*dryRun {
		fmt.Fprintf(os.Stderr, "Error: -api-key or WELLCAST_AUTH_API_KEY is required\n")
		os.Exit(1)
	}

	// Strip trailing slash from server URL
	*serverURL = strings.TrimRight(*serverURL, "/")

	snap, err := upload.LoadExport(*exportPath)
	if err != nil {
		log.Error("failed to read export", "error", err)
		os.Exit(1)
	}
	log.Info("export loaded", "path", *exportPath, "keys", len(snap))

	// Open state database
	if *stateDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			log.Error("failed to get home directory", "error", err)
			os.Exit(1)
		}
		*stateDir = filepath.Join(homeDir, ".wellcast-sync")
	}

	state, err := upload.OpenStateDB(*stateDir)
	if err != nil {
		log.Error("failed to open state database", "error", err)
		os.Exit(1)
	}
	defer state.Close()

	// Create client (nil-safe in dry-run mode)
	var client *upload.Client
	if !*dryRun {
		client = upload.NewClient(*serverURL, *apiKey)
	} else {
		log.Info("DRY RUN mode: records will be compared but not sent")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	uploader := upload.New(client, state, *serverURL, *dryRun, log)
	stats, err := uploader.Run(ctx, snap)
	printStats(stats)
	if err != nil {
		log.Error("sync failed", "error", err)
		os.Exit(1)
	}
	if stats.RecordsErrored > 0 {
		log.Warn("sync finished with errors", "errored", stats.RecordsErrored)
		os.Exit(1)
	}
	log.Info("sync complete")
}

func printStats(stats *upload.Stats) {
	fmt.Println()
	fmt.Println("=== Sync Summary ===")
	fmt.Printf("  Sync ID:          %s\n", stats.SyncID)
	fmt.Printf("  Records total:    %d\n", stats.RecordsTotal)
	fmt.Printf("  Records uploaded: %d\n", stats.RecordsUploaded)
	fmt.Printf("  Records skipped:  %d (unchanged)\n", stats.RecordsSkipped)
	fmt.Printf("  Records errored:  %d\n", stats.RecordsErrored)

	if len(stats.IgnoredKeys) > 0 {
		fmt.Printf("\n  Ignored keys (not wellness records):\n")
		for _, k := range stats.IgnoredKeys {
			fmt.Printf("    - %s\n", k)
		}
	}
	fmt.Println()
}
