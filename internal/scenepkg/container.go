package scenepkg

import (
	"encoding/binary"
	"fmt"
	"io"
	"iter"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	headerPrefix = "PKGV"

	minContainerVersion = 1
	maxContainerVersion = 99

	// Directory strings and entry counts beyond these bounds indicate a
	// corrupt directory rather than a legitimately huge container.
	maxSizedString = 4096
	maxEntryCount  = 1 << 20
)

// AssetKind classifies a container entry by its declared role.
type AssetKind string

const (
	AssetTexture      AssetKind = "texture"
	AssetMaterial     AssetKind = "material"
	AssetShaderParams AssetKind = "shader-params"
	AssetImage        AssetKind = "image"
	AssetAudio        AssetKind = "audio"
	AssetVideo        AssetKind = "video"
	AssetDescriptor   AssetKind = "descriptor"
	AssetOther        AssetKind = "other"
)

// Entry is one directory record inside a container.
type Entry struct {
	Name   string
	Offset uint32
	Length uint32
}

// Kind infers the asset kind from the entry path.
func (e Entry) Kind() AssetKind {
	lower := strings.ToLower(e.Name)
	ext := strings.TrimPrefix(filepath.Ext(lower), ".")
	switch ext {
	case "tex":
		return AssetTexture
	case "png", "jpg", "jpeg", "webp", "bmp", "gif":
		return AssetImage
	case "mp3", "ogg", "wav", "flac", "m4a":
		return AssetAudio
	case "mp4", "webm", "mkv", "avi", "mov":
		return AssetVideo
	case "json":
		base := filepath.Base(lower)
		if base == "scene.json" || base == "gifscene.json" || base == "project.json" {
			return AssetDescriptor
		}
		if strings.Contains(lower, "materials/") {
			return AssetMaterial
		}
		if strings.Contains(lower, "shaders/") || strings.Contains(lower, "effects/") {
			return AssetShaderParams
		}
		return AssetOther
	default:
		return AssetOther
	}
}

// AssetBlob is an immutable asset payload handed to the scene graph builder.
type AssetBlob struct {
	Name   string
	Kind   AssetKind
	Data   []byte
	Offset uint32
	Length uint32
}

// Container is an opened asset container with its decoded entry directory.
type Container struct {
	Path       string
	Version    int
	BaseOffset int64
	Entries    []Entry
}

// Open reads and validates the container directory at path.
func Open(path string) (*Container, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open container %s: %w", path, err)
	}
	defer file.Close()

	header, err := readSizedString(file)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: read header: %v", ErrCorruptPackage, path, err)
	}
	if !strings.HasPrefix(header, headerPrefix) {
		return nil, fmt.Errorf("%w: %s: header %q, expected %s*", ErrCorruptPackage, path, header, headerPrefix)
	}
	version, err := strconv.Atoi(strings.TrimPrefix(header, headerPrefix))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: malformed version in header %q", ErrCorruptPackage, path, header)
	}
	if version < minContainerVersion || version > maxContainerVersion {
		return nil, fmt.Errorf("%w: %s: version %d outside %d..%d", ErrUnsupportedContainerVersion, path, version, minContainerVersion, maxContainerVersion)
	}

	count, err := readUint32(file)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: read entry count: %v", ErrCorruptPackage, path, err)
	}
	if count > maxEntryCount {
		return nil, fmt.Errorf("%w: %s: entry count %d exceeds limit", ErrCorruptPackage, path, count)
	}

	entries := make([]Entry, 0, count)
	for i := uint32(0); i < count; i++ {
		name, err := readSizedString(file)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: read entry %d name: %v", ErrCorruptPackage, path, i, err)
		}
		offset, err := readUint32(file)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: read entry %d offset: %v", ErrCorruptPackage, path, i, err)
		}
		length, err := readUint32(file)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: read entry %d length: %v", ErrCorruptPackage, path, i, err)
		}
		entries = append(entries, Entry{Name: name, Offset: offset, Length: length})
	}

	base, err := file.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: resolve base offset: %v", ErrCorruptPackage, path, err)
	}

	return &Container{Path: path, Version: version, BaseOffset: base, Entries: entries}, nil
}

// Lookup finds a directory entry by name, case-insensitively.
func (c *Container) Lookup(name string) (Entry, bool) {
	for _, entry := range c.Entries {
		if strings.EqualFold(entry.Name, name) {
			return entry, true
		}
	}
	return Entry{}, false
}

// ReadEntry loads one entry's payload. References to names absent from the
// directory fail with ErrMissingAsset.
func (c *Container) ReadEntry(name string) ([]byte, error) {
	entry, ok := c.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s not present in %s", ErrMissingAsset, name, c.Path)
	}
	return c.readPayload(entry)
}

// ReadBlob loads one entry as an AssetBlob.
func (c *Container) ReadBlob(name string) (AssetBlob, error) {
	entry, ok := c.Lookup(name)
	if !ok {
		return AssetBlob{}, fmt.Errorf("%w: %s not present in %s", ErrMissingAsset, name, c.Path)
	}
	data, err := c.readPayload(entry)
	if err != nil {
		return AssetBlob{}, err
	}
	return AssetBlob{Name: entry.Name, Kind: entry.Kind(), Data: data, Offset: entry.Offset, Length: entry.Length}, nil
}

// Blobs returns a lazy, restartable sequence over every asset payload. Each
// element is read from disk on demand; iterating twice re-reads the container.
func (c *Container) Blobs() iter.Seq2[AssetBlob, error] {
	return func(yield func(AssetBlob, error) bool) {
		for _, entry := range c.Entries {
			data, err := c.readPayload(entry)
			blob := AssetBlob{Name: entry.Name, Kind: entry.Kind(), Offset: entry.Offset, Length: entry.Length}
			if err == nil {
				blob.Data = data
			}
			if !yield(blob, err) {
				return
			}
		}
	}
}

// ExtractEntry writes one entry's payload under destRoot, preserving the
// entry's relative path, and returns the extracted file path.
func (c *Container) ExtractEntry(name, destRoot string) (string, error) {
	entry, ok := c.Lookup(name)
	if !ok {
		return "", fmt.Errorf("%w: %s not present in %s", ErrMissingAsset, name, c.Path)
	}

	outPath := filepath.Join(destRoot, filepath.FromSlash(entry.Name))
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return "", fmt.Errorf("create extract dir: %w", err)
	}

	file, err := os.Open(c.Path)
	if err != nil {
		return "", fmt.Errorf("open container %s: %w", c.Path, err)
	}
	defer file.Close()

	if _, err := file.Seek(c.BaseOffset+int64(entry.Offset), io.SeekStart); err != nil {
		return "", fmt.Errorf("seek container: %w", err)
	}

	out, err := os.Create(outPath)
	if err != nil {
		return "", fmt.Errorf("create extracted file %s: %w", outPath, err)
	}
	defer out.Close()

	if _, err := io.CopyN(out, file, int64(entry.Length)); err != nil {
		return "", fmt.Errorf("%w: %s: extract %s: %v", ErrCorruptPackage, c.Path, entry.Name, err)
	}
	return outPath, out.Close()
}

func (c *Container) readPayload(entry Entry) ([]byte, error) {
	file, err := os.Open(c.Path)
	if err != nil {
		return nil, fmt.Errorf("open container %s: %w", c.Path, err)
	}
	defer file.Close()

	if _, err := file.Seek(c.BaseOffset+int64(entry.Offset), io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek container: %w", err)
	}
	data := make([]byte, entry.Length)
	if _, err := io.ReadFull(file, data); err != nil {
		return nil, fmt.Errorf("%w: %s: payload for %s truncated: %v", ErrCorruptPackage, c.Path, entry.Name, err)
	}
	return data, nil
}

func readUint32(r io.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

func readSizedString(r io.Reader) (string, error) {
	length, err := readUint32(r)
	if err != nil {
		return "", err
	}
	if length > maxSizedString {
		return "", fmt.Errorf("sized string length %d exceeds limit", length)
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}
