// Command skysweep simulates one capture per instant across a UTC day and
// reports how the sky's mean degree of polarization follows the sun.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"time"

	"github.com/banshee-data/polarsky/internal/capturedb"
	"github.com/banshee-data/polarsky/internal/config"
	"github.com/banshee-data/polarsky/internal/fsutil"
	"github.com/banshee-data/polarsky/internal/monitoring"
	"github.com/banshee-data/polarsky/internal/pipeline"
	"github.com/banshee-data/polarsky/internal/timeutil"
	"github.com/banshee-data/polarsky/internal/version"
)

func main() {
	configPath := flag.String("config", "", "Simulation config file (.json, .yaml); defaults are used when empty")
	day := flag.String("date", "", "UTC day to sweep, YYYY-MM-DD (defaults to today)")
	step := flag.Duration("step", 30*time.Minute, "Interval between captures")
	workers := flag.Int("workers", runtime.NumCPU(), "Captures run concurrently")
	output := flag.String("output", "", "Output PNG filename (defaults to sweep-<date>.png)")
	dbPath := flag.String("db", "", "SQLite database to store every capture in (disabled when empty)")
	seed := flag.Int64("seed", 1, "Random seed shared by all captures")
	verbose := flag.Bool("verbose", false, "Enable debug logging")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String("skysweep"))
		return
	}
	monitoring.SetVerbose(*verbose)
	if *verbose {
		pipeline.SetLogWriters(os.Stderr, os.Stderr, nil)
	}

	cfg := config.DefaultSimulationConfig()
	if *configPath != "" {
		var err error
		if cfg, err = config.LoadSimulationConfig(*configPath); err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
	}
	cfg = cfg.WithSeed(*seed)

	clock := timeutil.RealClock{}
	date, err := parseDay(*day, clock)
	if err != nil {
		log.Fatalf("Invalid -date: %v", err)
	}
	params, err := sweepParams(cfg, date, *step, clock)
	if err != nil {
		log.Fatalf("Invalid sweep: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	captures, err := pipeline.RunBatch(ctx, params, *workers)
	if err != nil {
		log.Fatalf("Sweep failed: %v", err)
	}
	monitoring.Logf("Swept %d instants in %v", len(captures), time.Since(start).Round(time.Millisecond))

	rows := collect(captures)
	printRows(os.Stdout, rows)

	name := *output
	if name == "" {
		name = fmt.Sprintf("sweep-%s.png", date.Format("2006-01-02"))
	}
	if err := writePlot(fsutil.OSFileSystem{}, name, date, rows); err != nil {
		log.Fatalf("Failed to write plot: %v", err)
	}
	monitoring.Logf("Wrote %s", name)

	if *dbPath != "" {
		db, err := capturedb.OpenAndMigrate(*dbPath)
		if err != nil {
			log.Fatalf("Failed to open database: %v", err)
		}
		defer db.Close()
		for _, c := range captures {
			if _, err := pipeline.Save(db, c); err != nil {
				log.Fatalf("Failed to store capture: %v", err)
			}
		}
		monitoring.Logf("Stored %d captures in %s", len(captures), *dbPath)
	}
}
