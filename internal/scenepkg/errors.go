package scenepkg

import "errors"

var (
	// ErrCorruptPackage indicates the container header or directory failed
	// structural validation.
	ErrCorruptPackage = errors.New("corrupt package")

	// ErrUnsupportedContainerVersion indicates a PKGV version outside the
	// range this decoder understands.
	ErrUnsupportedContainerVersion = errors.New("unsupported container version")

	// ErrMissingAsset indicates the scene descriptor references an asset id
	// absent from the container.
	ErrMissingAsset = errors.New("missing asset")
)
