// Package main provides the pipesim command-line front end.
// Pipesim is a cycle-accurate five-stage in-order pipeline simulator driven
// by textual instruction traces.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sarchlab/pipesim/config"
	"github.com/sarchlab/pipesim/loader"
	"github.com/sarchlab/pipesim/timing/cache"
	"github.com/sarchlab/pipesim/timing/pipeline"
)

var (
	configPath   = flag.String("config", "", "Path to run configuration JSON file")
	tracePath    = flag.String("trace", "", "Path to the instruction trace")
	outCSV       = flag.String("out", "", "Path for the timeline CSV output")
	predictor    = flag.String("predictor", "", "Branch predictor: static_nt, static_t, 1bit, 2bit, tournament")
	noForwarding = flag.Bool("no-forwarding", false, "Disable operand forwarding")
	icache       = flag.Bool("icache", false, "Enable the instruction cache timing model")
	maxCycles    = flag.Uint64("max-cycles", 0, "Cycle cap for the run (0 = config default)")
	verbose      = flag.Bool("v", false, "Verbose output")
)

func main() {
	flag.Parse()

	cfg, err := buildConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	prog, err := loader.Load(cfg.TracePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading trace: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Loaded %d instructions\n", len(prog))

	if *verbose {
		for _, ins := range prog {
			fmt.Println(" ", ins)
		}
	}

	bp := pipeline.NewPredictor(cfg.Predictor)

	opts := []pipeline.PipelineOption{
		pipeline.WithForwarding(cfg.Forwarding),
		pipeline.WithPredictor(bp),
	}
	if cfg.ICache {
		opts = append(opts, pipeline.WithICache(cache.DefaultIConfig()))
	}
	pipe := pipeline.NewPipeline(prog, opts...)

	if err := writeTimeline(pipe, cfg.OutCSV, cfg.MaxCycles); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing timeline: %v\n", err)
		os.Exit(1)
	}

	printSummary(pipe, bp, cfg)
}

// buildConfig merges the optional config file with CLI flag overrides.
func buildConfig() (*config.RunConfig, error) {
	cfg := config.DefaultRunConfig()
	if *configPath != "" {
		loaded, err := config.LoadConfig(*configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if *tracePath != "" {
		cfg.TracePath = *tracePath
	}
	if *outCSV != "" {
		cfg.OutCSV = *outCSV
	}
	if *predictor != "" {
		cfg.Predictor = *predictor
	}
	if *noForwarding {
		cfg.Forwarding = false
	}
	if *icache {
		cfg.ICache = true
	}
	if *maxCycles > 0 {
		cfg.MaxCycles = *maxCycles
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// writeTimeline drives the pipeline to halt or the cycle cap, streaming one
// CSV row per cycle.
func writeTimeline(pipe *pipeline.Pipeline, path string, maxCycles uint64) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create timeline file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	fmt.Fprintln(w, pipeline.CSVHeader)
	for !pipe.Halted() && pipe.Cycle() < maxCycles {
		pipe.Step()
		fmt.Fprintln(w, pipe.CSVRow())
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write timeline file: %w", err)
	}
	return nil
}

func printSummary(pipe *pipeline.Pipeline, bp pipeline.Predictor, cfg *config.RunConfig) {
	stats := pipe.Stats()

	forwarding := "ON"
	if !cfg.Forwarding {
		forwarding = "OFF"
	}

	fmt.Printf("Done. Cycles=%d Retired=%d CPI=%.3f StallsRAW=%d StallsCTRL=%d TotalStalls=%d Forwarding=%s Predictor=%s BP_Acc=%.2f%% (Pred=%d, Mispred=%d)\n",
		stats.Cycles, stats.Retired, stats.CPI(),
		stats.Stalls.RAW, stats.Stalls.Control, stats.Stalls.Total(),
		forwarding, bp.Name(),
		stats.BranchAccuracy(), stats.BranchPredictions, stats.BranchMispredictions)

	if cfg.ICache && *verbose {
		cs := pipe.ICacheStats()
		fmt.Printf("I-cache: reads=%d hits=%d misses=%d evictions=%d hit-rate=%.2f%% stall-cycles=%d\n",
			cs.Reads, cs.Hits, cs.Misses, cs.Evictions, cs.HitRate(), stats.Stalls.ICache)
	}

	fmt.Printf("Timeline CSV: %s\n", cfg.OutCSV)
}
