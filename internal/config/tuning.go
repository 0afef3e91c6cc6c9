package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// Merge modes for the row-cross stitching step.
const (
	// MergeByRow stitches neighbouring row pairs, even pairs then odd pairs.
	MergeByRow = "row"
	// MergeByModule stitches all rows of a module in one pass.
	MergeByModule = "module"
)

// maxFileSize caps every configuration file read by this package.
const maxFileSize = 1 * 1024 * 1024 // 1MB

// TuningConfig holds the reconstruction run parameters. Every field is
// optional; the Get* methods supply defaults for fields left unset, so
// partial files are safe.
type TuningConfig struct {
	// Worker pool
	Workers *int `json:"workers,omitempty"`

	// Row-cross merging
	MergeMode       *string `json:"merge_mode,omitempty"` // "row" or "module"
	PreprocessByRow *bool   `json:"preprocess_by_row,omitempty"`
	MergeRows       *bool   `json:"merge_rows,omitempty"`

	// Timing
	HitTimeOffsetNs   *float64 `json:"hit_time_offset_ns,omitempty"`
	TimesliceStartClk *int64   `json:"timeslice_start_clk,omitempty"`

	// Output
	SortHitsByTime *bool `json:"sort_hits_by_time,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }
func ptrInt64(v int64) *int64       { return &v }

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// DefaultTuningConfig returns a TuningConfig with every field set to its
// default value.
func DefaultTuningConfig() *TuningConfig {
	c := EmptyTuningConfig()
	return &TuningConfig{
		Workers:           ptrInt(c.GetWorkers()),
		MergeMode:         ptrString(c.GetMergeMode()),
		PreprocessByRow:   ptrBool(c.GetPreprocessByRow()),
		MergeRows:         ptrBool(c.GetMergeRows()),
		HitTimeOffsetNs:   ptrFloat64(c.GetHitTimeOffsetNs()),
		TimesliceStartClk: ptrInt64(c.GetTimesliceStartClk()),
		SortHitsByTime:    ptrBool(c.GetSortHitsByTime()),
	}
}

// LoadTuningConfig loads a TuningConfig from a JSON file.
// The file must have a .json extension and be under 1MB.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	data, err := readConfigFile(path, ".json")
	if err != nil {
		return nil, err
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// readConfigFile reads a size-capped file whose extension is one of exts.
func readConfigFile(path string, exts ...string) ([]byte, error) {
	cleanPath := filepath.Clean(path)
	ext := filepath.Ext(cleanPath)
	supported := false
	for _, e := range exts {
		if ext == e {
			supported = true
			break
		}
	}
	if !supported {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return data, nil
}

// Validate checks that the configuration values are valid.
func (c *TuningConfig) Validate() error {
	if c.Workers != nil && *c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", *c.Workers)
	}

	if c.MergeMode != nil {
		switch *c.MergeMode {
		case MergeByRow, MergeByModule:
		default:
			return fmt.Errorf("merge_mode must be %q or %q, got %q", MergeByRow, MergeByModule, *c.MergeMode)
		}
	}

	if c.TimesliceStartClk != nil && *c.TimesliceStartClk < 0 {
		return fmt.Errorf("timeslice_start_clk must be non-negative, got %d", *c.TimesliceStartClk)
	}

	return nil
}

// GetWorkers returns the worker pool size or the default (GOMAXPROCS).
func (c *TuningConfig) GetWorkers() int {
	if c.Workers == nil {
		return runtime.GOMAXPROCS(0)
	}
	return *c.Workers
}

// GetMergeMode returns the merge_mode value or the default.
func (c *TuningConfig) GetMergeMode() string {
	if c.MergeMode == nil || *c.MergeMode == "" {
		return MergeByRow
	}
	return *c.MergeMode
}

// GetPreprocessByRow returns the preprocess_by_row value or the default.
// It only applies in module merge mode.
func (c *TuningConfig) GetPreprocessByRow() bool {
	if c.PreprocessByRow == nil {
		return true
	}
	return *c.PreprocessByRow
}

// GetMergeRows returns the merge_rows value or the default.
func (c *TuningConfig) GetMergeRows() bool {
	if c.MergeRows == nil {
		return true
	}
	return *c.MergeRows
}

// GetHitTimeOffsetNs returns the hit_time_offset_ns value or the default.
func (c *TuningConfig) GetHitTimeOffsetNs() float64 {
	if c.HitTimeOffsetNs == nil {
		return 0
	}
	return *c.HitTimeOffsetNs
}

// GetTimesliceStartClk returns the timeslice_start_clk value or the default.
func (c *TuningConfig) GetTimesliceStartClk() int64 {
	if c.TimesliceStartClk == nil {
		return 0
	}
	return *c.TimesliceStartClk
}

// GetSortHitsByTime returns the sort_hits_by_time value or the default.
func (c *TuningConfig) GetSortHitsByTime() bool {
	if c.SortHitsByTime == nil {
		return true
	}
	return *c.SortHitsByTime
}
