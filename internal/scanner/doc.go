// Package scanner batch-drives the decode, build, and compile pipeline
// across a wallpaper library and reduces the results into a deterministic
// compatibility report. Per-scene failures are recorded, never fatal to the
// run, and results are cached in SQLite purely as a cache: a scan can always
// be recomputed.
package scanner
