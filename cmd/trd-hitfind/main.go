// Command trd-hitfind reconstructs TRD hits from a JSON timeslice of
// channel samples and optionally stores them in a sqlite hit database.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/banshee-data/trd.reco/internal/config"
	"github.com/banshee-data/trd.reco/internal/hitdb"
	"github.com/banshee-data/trd.reco/internal/trd"
	"github.com/banshee-data/trd.reco/internal/trd/l1samples"
	"github.com/banshee-data/trd.reco/internal/trd/pipeline"
	"github.com/banshee-data/trd.reco/internal/version"
)

// maxSamplesSize caps the samples file.
const maxSamplesSize = 256 * 1024 * 1024

var errUsage = errors.New("usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, errUsage) || errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		log.Fatalf("trd-hitfind: %v", err)
	}
}

// summary is written to stdout after a successful run.
type summary struct {
	RunID      string               `json:"run_id,omitempty"`
	Monitor    pipeline.Monitor     `json:"monitor"`
	Partitions []pipeline.Partition `json:"partitions"`
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("trd-hitfind", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		setupPath   = fs.String("setup", "", "module setup file (.json, .yaml)")
		configPath  = fs.String("config", "", "tuning config file (.json)")
		samplesPath = fs.String("samples", "", "timeslice samples file (.json)")
		dbPath      = fs.String("db", "", "sqlite hit database; hits are not stored when empty")
		verbose     = fs.Bool("v", false, "enable diagnostic logging")
		traceLog    = fs.Bool("trace", false, "enable per-cluster trace logging")
		showVersion = fs.Bool("version", false, "print version and exit")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *showVersion {
		fmt.Fprintf(stdout, "trd-hitfind %s\n", version.String())
		return nil
	}
	if *setupPath == "" || *samplesPath == "" {
		fs.Usage()
		return fmt.Errorf("%w: -setup and -samples are required", errUsage)
	}

	w := trd.LogWriters{Ops: stderr}
	if *verbose {
		w.Diag = stderr
	}
	if *traceLog {
		w.Trace = stderr
	}
	trd.SetLogWriters(w)

	modules, err := config.LoadSetup(*setupPath)
	if err != nil {
		return err
	}
	cfg := config.EmptyTuningConfig()
	if *configPath != "" {
		if cfg, err = config.LoadTuningConfig(*configPath); err != nil {
			return err
		}
	}
	samples, err := loadSamples(*samplesPath)
	if err != nil {
		return err
	}

	hf, err := pipeline.New(modules, cfg)
	if err != nil {
		return err
	}
	res, err := hf.Run(ctx, samples)
	if err != nil {
		return fmt.Errorf("hit finding failed: %w", err)
	}

	out := summary{Monitor: res.Monitor, Partitions: res.Partitions}
	if *dbPath != "" {
		if out.RunID, err = store(*dbPath, len(samples), res); err != nil {
			return err
		}
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func loadSamples(path string) ([]l1samples.ChannelSample, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat samples file: %w", err)
	}
	if info.Size() > maxSamplesSize {
		return nil, fmt.Errorf("samples file too large: %d bytes (max %d)", info.Size(), maxSamplesSize)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read samples file: %w", err)
	}
	var samples []l1samples.ChannelSample
	if err := json.Unmarshal(data, &samples); err != nil {
		return nil, fmt.Errorf("failed to parse samples file: %w", err)
	}
	return samples, nil
}

func store(path string, nSamples int, res pipeline.Result) (string, error) {
	db, err := hitdb.Open(path)
	if err != nil {
		return "", err
	}
	defer db.Close()

	id, err := db.CreateRun(nSamples)
	if err != nil {
		return "", err
	}
	if err := db.InsertHits(id, res.Hits); err != nil {
		return "", err
	}
	if err := db.FinishRun(id, len(res.Hits)); err != nil {
		return "", err
	}
	trd.Diagf("stored %d hits as run %s", len(res.Hits), id)
	return id, nil
}
