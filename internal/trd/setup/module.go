package setup

import (
	"errors"
	"fmt"

	"github.com/banshee-data/trd.reco/internal/trd/l1samples"
)

// Pad describes one readout pad in module-local coordinates (cm).
type Pad struct {
	Position      [3]float64 `json:"position" yaml:"position"`
	PositionError [3]float64 `json:"position_error" yaml:"position_error"`
	TiltMasked    bool       `json:"tilt_masked,omitempty" yaml:"tilt_masked,omitempty"`
	RectMasked    bool       `json:"rect_masked,omitempty" yaml:"rect_masked,omitempty"`
}

// Row is one pad row, ordered by column.
type Row struct {
	Pads []Pad `json:"pads" yaml:"pads"`
}

// Module is the reconstruction description of a single detector module.
type Module struct {
	Address     int        `json:"address" yaml:"address"`
	Triangular  bool       `json:"triangular" yaml:"triangular"`
	PadSizeX    float64    `json:"pad_size_x" yaml:"pad_size_x"`
	PadSizeY    float64    `json:"pad_size_y" yaml:"pad_size_y"`
	PadSizeErrX float64    `json:"pad_size_err_x" yaml:"pad_size_err_x"`
	PadSizeErrY float64    `json:"pad_size_err_y" yaml:"pad_size_err_y"`
	Orientation int        `json:"orientation" yaml:"orientation"`
	Rotation    [9]float64 `json:"rotation" yaml:"rotation"`
	Translation [3]float64 `json:"translation" yaml:"translation"`
	Rows        []Row      `json:"rows" yaml:"rows"`

	FEE         l1samples.FEECalibration `json:"fee" yaml:"fee"`
	HitErrors   *HitErrorTable           `json:"hit_errors,omitempty" yaml:"hit_errors,omitempty"`
	Corrections *CorrectionTables        `json:"corrections,omitempty" yaml:"corrections,omitempty"`
}

// ErrNoRows is returned by Validate for a module without pads.
var ErrNoRows = errors.New("module has no pad rows")

// NumRows returns the number of pad rows.
func (m *Module) NumRows() int { return len(m.Rows) }

// NumCols returns the number of pads per row.
func (m *Module) NumCols() int {
	if len(m.Rows) == 0 {
		return 0
	}
	return len(m.Rows[0].Pads)
}

// Pad returns the pad at (row, col).
func (m *Module) Pad(row, col int) (Pad, bool) {
	if row < 0 || row >= len(m.Rows) || col < 0 || col >= len(m.Rows[row].Pads) {
		return Pad{}, false
	}
	return m.Rows[row].Pads[col], true
}

// RowCol splits a module channel address into pad row and column.
func (m *Module) RowCol(channel int) (row, col int) {
	n := m.NumCols()
	if n == 0 {
		return 0, 0
	}
	return channel / n, channel % n
}

// Asic returns the readout chip family of the module.
func (m *Module) Asic() l1samples.AsicKind {
	if m.Triangular {
		return l1samples.AsicFasp
	}
	return l1samples.AsicSpadic
}

// ErrorTable returns the hit variance table, falling back to the defaults.
func (m *Module) ErrorTable() *HitErrorTable {
	if m.HitErrors != nil {
		return m.HitErrors
	}
	return DefaultHitErrorTable()
}

// CorrectionTable returns the triangular-pad position corrections,
// falling back to the defaults.
func (m *Module) CorrectionTable() *CorrectionTables {
	if m.Corrections != nil {
		return m.Corrections
	}
	return DefaultCorrectionTables()
}

// Validate checks that the module geometry is usable.
func (m *Module) Validate() error {
	if len(m.Rows) == 0 {
		return fmt.Errorf("module %d: %w", m.Address, ErrNoRows)
	}
	nCols := m.NumCols()
	if nCols == 0 {
		return fmt.Errorf("module %d: row 0 has no pads", m.Address)
	}
	for i, r := range m.Rows {
		if len(r.Pads) != nCols {
			return fmt.Errorf("module %d: row %d has %d pads, want %d", m.Address, i, len(r.Pads), nCols)
		}
	}
	if m.PadSizeX <= 0 || m.PadSizeY <= 0 {
		return fmt.Errorf("module %d: pad size must be positive, got %gx%g", m.Address, m.PadSizeX, m.PadSizeY)
	}
	if m.Orientation < 0 || m.Orientation > 3 {
		return fmt.Errorf("module %d: orientation must be in [0,3], got %d", m.Address, m.Orientation)
	}
	return nil
}

// NewGrid builds a module whose pads sit on a regular grid centred on the
// module origin, with identity placement. Rotation and Translation can be
// overwritten afterwards.
func NewGrid(address, nRows, nCols int, padSizeX, padSizeY float64, triangular bool) Module {
	m := Module{
		Address:     address,
		Triangular:  triangular,
		PadSizeX:    padSizeX,
		PadSizeY:    padSizeY,
		PadSizeErrX: padSizeX / 2,
		PadSizeErrY: padSizeY / 2,
		Rotation:    [9]float64{1, 0, 0, 0, 1, 0, 0, 0, 1},
		Rows:        make([]Row, nRows),
		FEE:         l1samples.DefaultFEECalibration(),
	}
	x0 := -0.5 * float64(nCols-1) * padSizeX
	y0 := -0.5 * float64(nRows-1) * padSizeY
	for r := range m.Rows {
		pads := make([]Pad, nCols)
		for c := range pads {
			pads[c] = Pad{
				Position:      [3]float64{x0 + float64(c)*padSizeX, y0 + float64(r)*padSizeY, 0},
				PositionError: [3]float64{padSizeX / 2, padSizeY / 2, 0},
			}
		}
		m.Rows[r].Pads = pads
	}
	return m
}
