package media

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/gen2brain/webp"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/image/bmp"
)

func newTestLogger(t *testing.T) *zap.Logger {
	logger, err := zap.NewDevelopment()
	require.NoError(t, err)
	return logger
}

// gradient draws an image whose left third is fully transparent.
func gradient(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			a := uint8(255)
			if x < w/3 {
				a = 0
			}
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8(x * 255 / w),
				G: uint8(y * 255 / h),
				B: 128,
				A: a,
			})
		}
	}
	return img
}

func encodeImage(t *testing.T, format Format, w, h int) []byte {
	t.Helper()

	img := gradient(w, h)
	var buf bytes.Buffer
	switch format {
	case FormatPNG:
		require.NoError(t, png.Encode(&buf, img))
	case FormatJPEG:
		require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}))
	case FormatWEBP:
		require.NoError(t, webp.Encode(&buf, img, webp.Options{Quality: 90}))
	case "GIF":
		require.NoError(t, gif.Encode(&buf, img, nil))
	case "BMP":
		require.NoError(t, bmp.Encode(&buf, img))
	default:
		t.Fatalf("unknown test format %q", format)
	}
	return buf.Bytes()
}

// pngHeaderOnly is a PNG signature plus an IHDR chunk claiming w x h pixels.
// It is enough for DecodeConfig but carries no pixel data.
func pngHeaderOnly(w, h uint32) []byte {
	var buf bytes.Buffer
	buf.Write([]byte("\x89PNG\r\n\x1a\n"))

	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:], w)
	binary.BigEndian.PutUint32(ihdr[4:], h)
	ihdr[8] = 8 // bit depth
	ihdr[9] = 6 // RGBA

	_ = binary.Write(&buf, binary.BigEndian, uint32(len(ihdr)))
	chunk := append([]byte("IHDR"), ihdr...)
	buf.Write(chunk)
	_ = binary.Write(&buf, binary.BigEndian, crc32.ChecksumIEEE(chunk))
	return buf.Bytes()
}

// withExif inserts an APP1 segment right after the JPEG SOI marker.
func withExif(jpg []byte, payload string) []byte {
	body := append([]byte("Exif\x00\x00"), payload...)
	seg := []byte{0xFF, 0xE1, 0, 0}
	binary.BigEndian.PutUint16(seg[2:], uint16(len(body)+2))

	out := append([]byte{}, jpg[:2]...)
	out = append(out, seg...)
	out = append(out, body...)
	return append(out, jpg[2:]...)
}

func fixedJitter(i int) func(int) int {
	return func(n int) int { return i % n }
}
