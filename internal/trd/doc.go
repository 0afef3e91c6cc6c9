// Package trd is the root of the TRD hit reconstruction model.
//
// The reconstruction is split into layers, each in its own sub-package:
//
//	l1samples   raw channel samples and their calibrated (FEE corrected) view
//	setup       module, row and pad parameters plus the local-to-global frame
//	l2clusters  pad clusters for rectangular and triangular readout
//	l3hits      hit building from clusters
//	l4merge     hit merging across neighbouring pad rows
//	pipeline    per-timeslice orchestration over modules and rows
//
// Dependency rule: a layer may depend on lower layers only. No SQL or
// file I/O is allowed below pipeline.
//
// This package itself only carries the shared logging streams.
package trd
