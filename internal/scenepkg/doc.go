// Package scenepkg decodes packed wallpaper asset containers.
//
// A container starts with a sized-string header ("PKGV" plus a four digit
// version), a little-endian uint32 entry count, and a directory of
// (sized-string name, uint32 offset, uint32 length) records. Asset payloads
// follow the directory; entry offsets are relative to that base. The format is
// reverse engineered, so decoding is deliberately defensive: header problems
// fail with ErrCorruptPackage, versions beyond the known range with
// ErrUnsupportedContainerVersion, and dangling asset references with
// ErrMissingAsset.
//
// Asset payloads are exposed lazily: Blobs returns a restartable sequence that
// re-reads the container per element, so walking a large library never holds
// more than one payload in memory.
package scenepkg
