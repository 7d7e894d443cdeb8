package scenepkg

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"

	"github.com/pierrec/lz4/v4"
)

// ErrUnsupportedTexture reports a texture whose payload could not be turned
// into a decodable image or media clip.
var ErrUnsupportedTexture = errors.New("unsupported texture payload")

const (
	texHeaderMagic = "TEXV0005\x00"
	texIndexMagic  = "TEXI0001\x00"

	// fifWebpAsMP4 marks a TEXB0004 container whose payload is an mp4
	// clip wrapped as a texture.
	fifWebpAsMP4 = 35
)

// TexturePayload is the visual payload decoded from a .tex entry: either an
// embedded image/clip in a standard format, or raw pixels re-encoded as PNG.
type TexturePayload struct {
	// Ext is the payload format: png, jpg, gif, webp, mp4 or webm.
	Ext  string
	Data []byte
}

// IsImage reports whether the payload is a still image the compositor can
// decode.
func (p TexturePayload) IsImage() bool {
	switch p.Ext {
	case "png", "jpg", "gif":
		return true
	}
	return false
}

// DecodeTexture unwraps a TEXV texture blob. The first mipmap of the first
// image is enough for compositing; deeper mip chains only repeat it smaller.
// Containers that do not parse cleanly fall back to scanning the blob for an
// embedded image signature.
func DecodeTexture(name string, data []byte) (TexturePayload, error) {
	r := &texReader{data: data}
	if !r.expect(texHeaderMagic) || !r.expect(texIndexMagic) {
		return TexturePayload{}, fmt.Errorf("%w: bad texture magic in %s", ErrCorruptPackage, name)
	}

	r.u32() // pixel format
	r.u32() // flags
	texWidth := r.u32()
	texHeight := r.u32()
	r.u32() // display width
	r.u32() // display height
	r.u32()

	version := 0
	switch string(r.bytes(9)) {
	case "TEXB0001\x00":
		version = 1
	case "TEXB0002\x00":
		version = 2
	case "TEXB0003\x00":
		version = 3
	case "TEXB0004\x00":
		version = 4
	default:
		if r.err != nil {
			return TexturePayload{}, fmt.Errorf("%w: truncated texture header in %s", ErrCorruptPackage, name)
		}
		return TexturePayload{}, fmt.Errorf("%w: unknown texture container in %s", ErrCorruptPackage, name)
	}
	imageCount := r.u32()

	switch version {
	case 3:
		r.i32() // free image format
	case 4:
		freeImage := r.i32()
		isVideoMP4 := r.u32() == 1
		// A TEXB0004 container is only special when it wraps an mp4
		// clip; otherwise it reads exactly like TEXB0003.
		if !(freeImage == -1 && isVideoMP4) && freeImage != fifWebpAsMP4 {
			version = 3
		}
	}
	if r.err != nil {
		return TexturePayload{}, fmt.Errorf("%w: truncated texture header in %s", ErrCorruptPackage, name)
	}
	if imageCount == 0 {
		return scanForPayload(name, data)
	}

	mipmapCount := r.u32()
	if r.err == nil && mipmapCount == 0 {
		return scanForPayload(name, data)
	}
	if version == 4 {
		r.u32()
		r.u32()
		r.cstring()
		r.u32()
	}

	mipWidth := r.u32()
	mipHeight := r.u32()

	var compression uint32
	var uncompressedSize int32
	if version >= 2 {
		compression = r.u32()
		uncompressedSize = r.i32()
	}
	compressedSize := r.i32()
	if compression == 0 {
		uncompressedSize = compressedSize
	}
	if r.err != nil {
		return TexturePayload{}, fmt.Errorf("%w: truncated mipmap header in %s", ErrCorruptPackage, name)
	}
	if uncompressedSize <= 0 {
		return scanForPayload(name, data)
	}

	var payload []byte
	if compression != 0 {
		src := r.bytes(int(compressedSize))
		if r.err != nil {
			return TexturePayload{}, fmt.Errorf("%w: truncated texture payload in %s", ErrCorruptPackage, name)
		}
		dst := make([]byte, uncompressedSize)
		n, err := lz4.UncompressBlock(src, dst)
		if err != nil {
			return scanForPayload(name, data)
		}
		payload = dst[:n]
	} else {
		payload = r.bytes(int(uncompressedSize))
		if r.err != nil {
			return TexturePayload{}, fmt.Errorf("%w: truncated texture payload in %s", ErrCorruptPackage, name)
		}
	}

	if ext, ok := payloadExt(payload); ok {
		return TexturePayload{Ext: ext, Data: payload}, nil
	}

	width, height := mipWidth, mipHeight
	if width == 0 {
		width = texWidth
	}
	if height == 0 {
		height = texHeight
	}
	if encoded, ok := rawToPNG(payload, width, height); ok {
		return TexturePayload{Ext: "png", Data: encoded}, nil
	}
	return scanForPayload(name, data)
}

// payloadExt sniffs the embedded payload format from its leading bytes.
func payloadExt(data []byte) (string, bool) {
	switch {
	case len(data) >= 12 && string(data[4:8]) == "ftyp":
		return "mp4", true
	case len(data) >= 4 && bytes.Equal(data[:4], webmSig):
		return "webm", true
	case len(data) >= 8 && bytes.Equal(data[:8], pngSig):
		return "png", true
	case len(data) >= 3 && bytes.Equal(data[:3], jpgSig):
		return "jpg", true
	case len(data) >= 6 && (string(data[:6]) == "GIF87a" || string(data[:6]) == "GIF89a"):
		return "gif", true
	case len(data) >= 12 && string(data[:4]) == "RIFF" && string(data[8:12]) == "WEBP":
		return "webp", true
	}
	return "", false
}

var (
	pngSig  = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}
	jpgSig  = []byte{0xFF, 0xD8, 0xFF}
	webmSig = []byte{0x1A, 0x45, 0xDF, 0xA3}
)

// scanForPayload is the last resort for containers that do not parse: search
// the raw blob for a known media signature and slice from there.
func scanForPayload(name string, data []byte) (TexturePayload, error) {
	if i := bytes.Index(data, pngSig); i >= 0 {
		payload := data[i:]
		// A PNG stream ends after the IEND chunk's CRC.
		if e := bytes.Index(payload, []byte("IEND")); e >= 0 {
			if end := e + len("IEND") + 4; end < len(payload) {
				payload = payload[:end]
			}
		}
		return TexturePayload{Ext: "png", Data: payload}, nil
	}
	if i := bytes.Index(data, jpgSig); i >= 0 {
		return TexturePayload{Ext: "jpg", Data: data[i:]}, nil
	}
	for _, sig := range []string{"GIF89a", "GIF87a"} {
		if i := bytes.Index(data, []byte(sig)); i >= 0 {
			return TexturePayload{Ext: "gif", Data: data[i:]}, nil
		}
	}
	if i := bytes.Index(data, webmSig); i >= 0 {
		return TexturePayload{Ext: "webm", Data: data[i:]}, nil
	}
	if i := bytes.Index(data, []byte("RIFF")); i >= 0 {
		end := i + 64
		if end > len(data) {
			end = len(data)
		}
		if bytes.Contains(data[i:end], []byte("WEBP")) {
			return TexturePayload{Ext: "webp", Data: data[i:]}, nil
		}
	}
	for i := 0; i+12 <= len(data); i++ {
		if string(data[i+4:i+8]) == "ftyp" {
			return TexturePayload{Ext: "mp4", Data: data[i:]}, nil
		}
	}
	return TexturePayload{}, fmt.Errorf("%w: no media signature in %s", ErrUnsupportedTexture, name)
}

// rawToPNG interprets an unrecognized payload as raw pixels. Layout is
// guessed from the byte budget per pixel: RGBA, RGB, 16-bit gray keeping the
// high byte, then plain gray.
func rawToPNG(payload []byte, width, height uint32) ([]byte, bool) {
	if width == 0 || height == 0 || width > 1<<14 || height > 1<<14 {
		return nil, false
	}
	pixels := int(width) * int(height)
	rect := image.Rect(0, 0, int(width), int(height))

	var img image.Image
	switch {
	case len(payload) >= pixels*4:
		rgba := image.NewNRGBA(rect)
		copy(rgba.Pix, payload[:pixels*4])
		img = rgba
	case len(payload) >= pixels*3:
		rgba := image.NewNRGBA(rect)
		for i := 0; i < pixels; i++ {
			rgba.Pix[i*4+0] = payload[i*3+0]
			rgba.Pix[i*4+1] = payload[i*3+1]
			rgba.Pix[i*4+2] = payload[i*3+2]
			rgba.Pix[i*4+3] = 0xFF
		}
		img = rgba
	case len(payload) >= pixels*2:
		gray := image.NewGray(rect)
		for i := 0; i < pixels; i++ {
			gray.Pix[i] = payload[i*2]
		}
		img = gray
	case len(payload) >= pixels:
		gray := image.NewGray(rect)
		copy(gray.Pix, payload[:pixels])
		img = gray
	default:
		return nil, false
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, false
	}
	return buf.Bytes(), true
}

// texReader is a little-endian cursor over a texture blob. The first read
// past the end latches err; later reads return zeros.
type texReader struct {
	data []byte
	off  int
	err  error
}

func (r *texReader) bytes(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || r.off+n > len(r.data) {
		r.err = io.ErrUnexpectedEOF
		return nil
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b
}

func (r *texReader) expect(magic string) bool {
	return string(r.bytes(len(magic))) == magic
}

func (r *texReader) u32() uint32 {
	b := r.bytes(4)
	if r.err != nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (r *texReader) i32() int32 {
	return int32(r.u32())
}

func (r *texReader) cstring() {
	for {
		b := r.bytes(1)
		if r.err != nil || b[0] == 0 {
			return
		}
	}
}
