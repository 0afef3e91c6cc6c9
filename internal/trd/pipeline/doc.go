// Package pipeline runs TRD hit reconstruction over one timeslice.
//
// Samples are bucketed by module and pad row, clustered and turned into
// hits one row per job on a bounded worker pool, then stitched across
// neighbouring rows of triangular-pad modules. The output is a flat hit
// list partitioned by module address and sorted by time inside each
// partition.
//
// Two merge strategies are available:
//   - row: even row pairs are merged, then odd row pairs. Each pair is an
//     independent job.
//   - module: optionally the row pass first, then a single pass over all
//     hits of a module. Partitions are per module.
//
// Dependency rule: pipeline may import every trd layer, config and
// timeutil. Nothing under trd imports pipeline.
package pipeline
