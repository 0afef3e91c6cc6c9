// Package l1samples owns Layer 1 (Samples) of the TRD data model.
//
// Responsibilities: the raw per-channel sample record delivered by the
// unpacker and the calibrated view used by triangular-pad reconstruction.
// Key types: ChannelSample, IndexedSample, CalibratedSample, FEECalibration.
//
// Dependency rule: L1 depends on nothing else in internal/trd.
package l1samples
