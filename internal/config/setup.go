package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/banshee-data/trd.reco/internal/trd/l1samples"
	"github.com/banshee-data/trd.reco/internal/trd/setup"
)

// ErrUnsupportedFormat is returned for configuration files whose extension
// is not recognised.
var ErrUnsupportedFormat = errors.New("unsupported config file format")

// LoadSetup reads module setups from a .json, .yaml or .yml file. Modules
// without explicit pad rows can be described by a grid and are expanded
// here; every module is validated.
func LoadSetup(path string) ([]setup.Module, error) {
	data, err := readConfigFile(path, ".json", ".yaml", ".yml")
	if err != nil {
		return nil, err
	}

	var f setupFile
	switch filepath.Ext(filepath.Clean(path)) {
	case ".json":
		err = json.Unmarshal(data, &f)
	default:
		err = yaml.Unmarshal(data, &f)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse setup %s: %w", path, err)
	}

	mods := make([]setup.Module, 0, len(f.Modules))
	for i, gm := range f.Modules {
		m := gm.expand()
		if err := m.Validate(); err != nil {
			return nil, fmt.Errorf("module %d (address %d): %w", i, m.Address, err)
		}
		mods = append(mods, m)
	}
	return mods, nil
}

// Grid describes a regular pad plane by its size, as an alternative to
// listing every pad.
type Grid struct {
	Rows int `json:"rows" yaml:"rows"`
	Cols int `json:"cols" yaml:"cols"`
}

type gridModule struct {
	setup.Module `yaml:",inline"`
	Grid         *Grid `json:"grid,omitempty" yaml:"grid,omitempty"`
}

// setupFile is the on-disk layout of a detector setup.
type setupFile struct {
	Modules []gridModule `json:"modules" yaml:"modules"`
}

// expand fills the pad rows of a grid module, keeping the placement and
// calibration given in the file.
func (g gridModule) expand() setup.Module {
	m := g.Module
	if g.Grid == nil || len(m.Rows) > 0 {
		return m
	}
	grid := setup.NewGrid(m.Address, g.Grid.Rows, g.Grid.Cols, m.PadSizeX, m.PadSizeY, m.Triangular)
	m.Rows = grid.Rows
	if m.Rotation == ([9]float64{}) {
		m.Rotation = grid.Rotation
	}
	if m.PadSizeErrX == 0 && m.PadSizeErrY == 0 {
		m.PadSizeErrX, m.PadSizeErrY = grid.PadSizeErrX, grid.PadSizeErrY
	}
	if m.FEE == (l1samples.FEECalibration{}) {
		m.FEE = grid.FEE
	}
	return m
}
