// Package native is the experimental direct composition path: it executes a
// compiled pass plan frame by frame on a gg drawing context instead of
// synthesizing a proxy video. GPU acceleration engages when the gg/gpu
// backend is linked in; otherwise rendering falls back to CPU raster.
package native
