// Package l3hits owns Layer 3 (Hits) of the TRD data model.
//
// Responsibilities: turning clusters into space-time points. Rectangular
// clusters use a charge centroid with tabulated errors; triangular
// clusters are projected onto a one-dimensional signal profile
// (HitBuildContext) which is classified, corrected with lookup tables and
// placed in the global frame.
// Key types: Hit, HitData, HitFinder, HitFinder2D, HitBuildContext.
//
// Dependency rule: L3 may depend on L1, L2 and setup, never on L4+.
package l3hits
