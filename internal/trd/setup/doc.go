// Package setup holds the static description of detector modules used by
// reconstruction: pad geometry, readout masks, FEE calibration, the module
// placement in the global frame and the correction lookup tables.
//
// Values are read-only after construction and safe to share between
// goroutines.
package setup
