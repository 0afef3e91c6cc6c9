package l3hits

import (
	"slices"

	"github.com/banshee-data/trd.reco/internal/trd/l1samples"
)

// Hit is a reconstructed space-time point in global coordinates (cm, ns).
type Hit struct {
	Address   int     `json:"address" db:"address"`
	X         float64 `json:"x" db:"x"`
	Y         float64 `json:"y" db:"y"`
	Z         float64 `json:"z" db:"z"`
	Dx        float64 `json:"dx" db:"dx"`
	Dy        float64 `json:"dy" db:"dy"`
	Dz        float64 `json:"dz" db:"dz"`
	Dxy       float64 `json:"dxy" db:"dxy"`
	RefID     int32   `json:"ref_id" db:"ref_id"`
	ELoss     float64 `json:"eloss" db:"eloss"`
	Time      float64 `json:"time" db:"time_ns"`
	TimeError float64 `json:"time_error" db:"time_error_ns"`

	// ClassType marks hits built from triangular pads.
	ClassType bool `json:"class_type" db:"class_type"`
	// MaxType is set when the strongest signal was a tilt half.
	MaxType  bool `json:"max_type" db:"max_type"`
	Overflow bool `json:"overflow" db:"overflow"`
	RowCross bool `json:"row_cross" db:"row_cross"`
}

// IsUsed reports whether the hit was absorbed by a merge.
func (h *Hit) IsUsed() bool { return h.RefID < 0 }

// HitData is a hit together with the calibrated samples it was built
// from. Rectangular hits carry no samples.
//
// Samples always belong to the hit's own pad row; row merging reads them
// as one row. Absorbed collects the samples of hits merged into this one
// from neighbouring rows.
type HitData struct {
	Hit      Hit
	Samples  []l1samples.CalibratedSample
	Absorbed []l1samples.CalibratedSample
}

// AllSamples returns the own-row samples followed by the absorbed ones.
func (d *HitData) AllSamples() []l1samples.CalibratedSample {
	return slices.Concat(d.Samples, d.Absorbed)
}
