// Command skysim simulates one capture of the polarized sky through a
// division-of-focal-plane polarimeter and writes its images, an HTML sky
// chart and, optionally, a SQLite record.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/banshee-data/polarsky/internal/capturedb"
	"github.com/banshee-data/polarsky/internal/config"
	"github.com/banshee-data/polarsky/internal/monitoring"
	"github.com/banshee-data/polarsky/internal/pipeline"
	"github.com/banshee-data/polarsky/internal/render"
	"github.com/banshee-data/polarsky/internal/timeutil"
	"github.com/banshee-data/polarsky/internal/version"
)

var (
	configPath  = flag.String("config", "", "Simulation config file (.json, .yaml); defaults are used when empty")
	outDir      = flag.String("out", "skysim-out", "Directory for rendered artifacts")
	label       = flag.String("label", "", "Subdirectory of -out for this run (defaults to the start time)")
	dbPath      = flag.String("db", "", "SQLite database to store the capture in (disabled when empty)")
	seed        = flag.Int64("seed", 0, "Random seed (0 keeps the config value or seeds from the clock)")
	startTime   = flag.String("time", "", "Start instant, RFC 3339 or \"now\" (overrides config)")
	frames      = flag.Int("frames", 0, "Number of frames (overrides config when > 0)")
	interval    = flag.Duration("interval", 0, "Interval between frames (overrides config when > 0)")
	verbose     = flag.Bool("verbose", false, "Enable debug logging")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()
	if *showVersion {
		fmt.Println(version.String("skysim"))
		return
	}
	monitoring.SetVerbose(*verbose)
	if *verbose {
		pipeline.SetLogWriters(os.Stderr, os.Stderr, os.Stderr)
	} else {
		pipeline.SetLogWriters(os.Stderr, nil, nil)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	applyOverrides(cfg, overrides{
		StartTime: *startTime,
		Frames:    *frames,
		Interval:  *interval,
		Seed:      *seed,
	})
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	params, err := pipeline.FromConfig(cfg, timeutil.RealClock{})
	if err != nil {
		log.Fatalf("Invalid parameters: %v", err)
	}
	capture, err := pipeline.Run(params)
	if err != nil {
		log.Fatalf("Simulation failed: %v", err)
	}
	monitoring.Logf("Simulated %d frames of %dx%d in %v (seed %d)",
		capture.Counts.Frames, capture.Counts.Rows, capture.Counts.Cols, capture.Elapsed, params.Seed)

	dir := runDir(*outDir, *label, params.Times[0])
	paths, err := writeArtifacts(render.NewWriter(dir), capture)
	if err != nil {
		log.Fatalf("Failed to write artifacts: %v", err)
	}
	monitoring.Logf("Wrote %d artifacts to %s", len(paths), dir)

	if *dbPath != "" {
		db, err := capturedb.OpenAndMigrate(*dbPath)
		if err != nil {
			log.Fatalf("Failed to open database: %v", err)
		}
		defer db.Close()
		id, err := pipeline.Save(db, capture)
		if err != nil {
			log.Fatalf("Failed to store capture: %v", err)
		}
		monitoring.Logf("Stored capture %s in %s", id, *dbPath)
	}

	printSummary(os.Stdout, capture.Summary)
}

func loadConfig(path string) (*config.SimulationConfig, error) {
	if path == "" {
		return config.DefaultSimulationConfig(), nil
	}
	return config.LoadSimulationConfig(path)
}
