// Package l2clusters owns Layer 2 (Clusters) of the TRD data model.
//
// Responsibilities: grouping channel samples of one pad row into clusters
// of adjacent pads that fired together. Rectangular pads are grouped by a
// self-trigger seed and its neighbour-trigger edges; triangular pads are
// grouped in the interleaved tilt/rect channel space and then merged.
// Key types: Cluster, Cluster2D, RowFlags, Clusterizer, Clusterizer2D.
//
// Dependency rule: L2 may depend on L1 and setup, never on L3+.
package l2clusters
