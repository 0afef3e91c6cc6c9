// Package l4merge owns Layer 4 (Row merging) of the TRD data model.
//
// Responsibilities: stitching triangular-pad hits whose charge was shared
// between two neighbouring pad rows. Candidate pairs pass a time and
// position window, then a topological check on the two sample sets
// decides whether they form one deposit. Absorbed hits are reported as
// explicit outcomes and removed from the returned rows.
// Key types: HitMerger2D, Result, Outcome.
//
// Dependency rule: L4 may depend on L1 to L3 and setup, never on pipeline.
package l4merge
