package testsupport

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

// PkgEntry is one asset to place inside a synthetic container.
type PkgEntry struct {
	Name string
	Data []byte
}

// WritePkg builds a PKGV container holding the given entries and writes it to
// path. Header defaults to PKGV0015 when version is empty.
func WritePkg(t testing.TB, path, version string, entries []PkgEntry) {
	t.Helper()
	if version == "" {
		version = "PKGV0015"
	}

	var dir bytes.Buffer
	writeSized := func(s string) {
		var n [4]byte
		binary.LittleEndian.PutUint32(n[:], uint32(len(s)))
		dir.Write(n[:])
		dir.WriteString(s)
	}
	writeU32 := func(v uint32) {
		var n [4]byte
		binary.LittleEndian.PutUint32(n[:], v)
		dir.Write(n[:])
	}

	writeSized(version)
	writeU32(uint32(len(entries)))

	offset := uint32(0)
	var payload bytes.Buffer
	for _, entry := range entries {
		writeSized(entry.Name)
		writeU32(offset)
		writeU32(uint32(len(entry.Data)))
		payload.Write(entry.Data)
		offset += uint32(len(entry.Data))
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for pkg: %v", err)
	}
	if err := os.WriteFile(path, append(dir.Bytes(), payload.Bytes()...), 0o644); err != nil {
		t.Fatalf("write pkg: %v", err)
	}
}

// WriteSceneWallpaper creates a wallpaper root directory containing a
// project.json and a scene.pkg with the given scene descriptor and extra
// assets. It returns the wallpaper root path.
func WriteSceneWallpaper(t testing.TB, parent, id string, sceneJSON []byte, extra ...PkgEntry) string {
	t.Helper()
	root := filepath.Join(parent, id)
	if err := os.MkdirAll(root, 0o755); err != nil {
		t.Fatalf("mkdir wallpaper root: %v", err)
	}
	project := []byte(`{"type":"scene","title":"Test Scene ` + id + `","workshopid":"` + id + `"}`)
	if err := os.WriteFile(filepath.Join(root, "project.json"), project, 0o644); err != nil {
		t.Fatalf("write project.json: %v", err)
	}
	entries := append([]PkgEntry{{Name: "scene.json", Data: sceneJSON}}, extra...)
	WritePkg(t, filepath.Join(root, "scene.pkg"), "", entries)
	return root
}
