package scenepkg_test

import (
	"bytes"
	"encoding/binary"
	"errors"
	"image"
	"image/png"
	"testing"

	"github.com/pierrec/lz4/v4"

	"scenewall/internal/scenepkg"
)

type texSpec struct {
	container  string
	imageCount uint32
	freeImage  int32
	isVideoMP4 uint32
	mipWidth   uint32
	mipHeight  uint32
	// compression 0 stores the payload verbatim; anything else marks an
	// LZ4 block.
	compression      uint32
	uncompressedSize int32
	payload          []byte
}

func buildTexBlob(t *testing.T, spec texSpec) []byte {
	t.Helper()
	var buf bytes.Buffer
	u32 := func(v uint32) {
		if err := binary.Write(&buf, binary.LittleEndian, v); err != nil {
			t.Fatal(err)
		}
	}

	buf.WriteString("TEXV0005\x00")
	buf.WriteString("TEXI0001\x00")
	u32(0) // pixel format
	u32(0) // flags
	u32(spec.mipWidth)
	u32(spec.mipHeight)
	u32(spec.mipWidth)
	u32(spec.mipHeight)
	u32(0)

	buf.WriteString(spec.container + "\x00")
	u32(spec.imageCount)
	switch spec.container {
	case "TEXB0003":
		u32(uint32(spec.freeImage))
	case "TEXB0004":
		u32(uint32(spec.freeImage))
		u32(spec.isVideoMP4)
	}
	if spec.imageCount == 0 {
		return buf.Bytes()
	}

	u32(1) // mipmap count
	if spec.container == "TEXB0004" && spec.freeImage == -1 && spec.isVideoMP4 == 1 {
		u32(0)
		u32(0)
		buf.WriteByte(0) // empty per-mip label
		u32(0)
	}
	u32(spec.mipWidth)
	u32(spec.mipHeight)
	if spec.container != "TEXB0001" {
		u32(spec.compression)
		u32(uint32(spec.uncompressedSize))
	}
	u32(uint32(len(spec.payload)))
	buf.Write(spec.payload)
	return buf.Bytes()
}

func encodePNG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for i := range img.Pix {
		img.Pix[i] = byte(i * 7)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestDecodeTextureEmbeddedPNG(t *testing.T) {
	payload := encodePNG(t, 2, 2)
	blob := buildTexBlob(t, texSpec{
		container: "TEXB0002", imageCount: 1,
		mipWidth: 2, mipHeight: 2,
		payload: payload,
	})

	decoded, err := scenepkg.DecodeTexture("sky.tex", blob)
	if err != nil {
		t.Fatalf("DecodeTexture: %v", err)
	}
	if decoded.Ext != "png" || !decoded.IsImage() {
		t.Fatalf("ext = %q, want png image", decoded.Ext)
	}
	if !bytes.Equal(decoded.Data, payload) {
		t.Fatal("payload bytes altered")
	}
}

func TestDecodeTextureLZ4Block(t *testing.T) {
	payload := append([]byte{0xFF, 0xD8, 0xFF}, bytes.Repeat([]byte("scanline"), 64)...)
	compressed := make([]byte, lz4.CompressBlockBound(len(payload)))
	var compressor lz4.Compressor
	n, err := compressor.CompressBlock(payload, compressed)
	if err != nil || n == 0 {
		t.Fatalf("compress fixture: n=%d err=%v", n, err)
	}
	blob := buildTexBlob(t, texSpec{
		container: "TEXB0003", imageCount: 1,
		mipWidth: 16, mipHeight: 16,
		compression: 1, uncompressedSize: int32(len(payload)),
		payload: compressed[:n],
	})

	decoded, err := scenepkg.DecodeTexture("noise.tex", blob)
	if err != nil {
		t.Fatalf("DecodeTexture: %v", err)
	}
	if decoded.Ext != "jpg" {
		t.Fatalf("ext = %q, want jpg", decoded.Ext)
	}
	if !bytes.Equal(decoded.Data, payload) {
		t.Fatal("decompressed payload differs from original")
	}
}

func TestDecodeTextureRawPixels(t *testing.T) {
	raw := bytes.Repeat([]byte{0x40, 0x80, 0xC0, 0xFF}, 4) // 2x2 RGBA
	blob := buildTexBlob(t, texSpec{
		container: "TEXB0002", imageCount: 1,
		mipWidth: 2, mipHeight: 2,
		payload: raw,
	})

	decoded, err := scenepkg.DecodeTexture("gradient.tex", blob)
	if err != nil {
		t.Fatalf("DecodeTexture: %v", err)
	}
	if decoded.Ext != "png" {
		t.Fatalf("ext = %q, want png from raw pixels", decoded.Ext)
	}
	img, err := png.Decode(bytes.NewReader(decoded.Data))
	if err != nil {
		t.Fatalf("re-encoded PNG does not decode: %v", err)
	}
	if bounds := img.Bounds(); bounds.Dx() != 2 || bounds.Dy() != 2 {
		t.Fatalf("bounds = %v, want 2x2", bounds)
	}
}

func TestDecodeTextureVideoContainer(t *testing.T) {
	payload := append([]byte{0, 0, 0, 0x18}, []byte("ftypisommp4 payload")...)
	blob := buildTexBlob(t, texSpec{
		container: "TEXB0004", imageCount: 1,
		freeImage: -1, isVideoMP4: 1,
		mipWidth: 64, mipHeight: 64,
		payload: payload,
	})

	decoded, err := scenepkg.DecodeTexture("clip.tex", blob)
	if err != nil {
		t.Fatalf("DecodeTexture: %v", err)
	}
	if decoded.Ext != "mp4" || decoded.IsImage() {
		t.Fatalf("ext = %q, want non-image mp4", decoded.Ext)
	}
}

func TestDecodeTextureSignatureFallback(t *testing.T) {
	embedded := encodePNG(t, 2, 2)
	blob := buildTexBlob(t, texSpec{container: "TEXB0002"})
	blob = append(blob, []byte("padding")...)
	blob = append(blob, embedded...)
	blob = append(blob, []byte("trailing container bytes")...)

	decoded, err := scenepkg.DecodeTexture("packed.tex", blob)
	if err != nil {
		t.Fatalf("DecodeTexture: %v", err)
	}
	if decoded.Ext != "png" {
		t.Fatalf("ext = %q, want png via signature scan", decoded.Ext)
	}
	if !bytes.Equal(decoded.Data, embedded) {
		t.Fatal("scan should cut the PNG at its IEND chunk")
	}
}

func TestDecodeTextureRejectsBadMagic(t *testing.T) {
	_, err := scenepkg.DecodeTexture("bad.tex", []byte("not a texture at all"))
	if !errors.Is(err, scenepkg.ErrCorruptPackage) {
		t.Fatalf("err = %v, want ErrCorruptPackage", err)
	}
}

func TestDecodeTextureUnrecognizedPayload(t *testing.T) {
	blob := buildTexBlob(t, texSpec{
		container: "TEXB0002", imageCount: 1,
		mipWidth: 0, mipHeight: 0,
		payload: []byte{1, 2},
	})
	_, err := scenepkg.DecodeTexture("junk.tex", blob)
	if !errors.Is(err, scenepkg.ErrUnsupportedTexture) {
		t.Fatalf("err = %v, want ErrUnsupportedTexture", err)
	}
}
