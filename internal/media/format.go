package media

import (
	"path/filepath"
	"strings"
)

type Format string

const (
	FormatPNG  Format = "PNG"
	FormatJPEG Format = "JPEG"
	FormatWEBP Format = "WEBP"
)

// MaxPixels caps width*height of any accepted image.
const MaxPixels = 20_000_000

var allowedFormats = map[Format]bool{
	FormatPNG:  true,
	FormatJPEG: true,
	FormatWEBP: true,
}

var extToFormat = map[string]Format{
	".png":  FormatPNG,
	".jpg":  FormatJPEG,
	".jpeg": FormatJPEG,
	".webp": FormatWEBP,
}

func (f Format) MIME() string {
	switch f {
	case FormatPNG:
		return "image/png"
	case FormatJPEG:
		return "image/jpeg"
	case FormatWEBP:
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}

// Ext is the canonical file extension for the format.
func (f Format) Ext() string {
	switch f {
	case FormatPNG:
		return ".png"
	case FormatJPEG:
		return ".jpg"
	case FormatWEBP:
		return ".webp"
	default:
		return ""
	}
}

// normalizeFormat maps a decoder name such as "jpeg" or "jpg" onto a Format.
func normalizeFormat(name string) Format {
	upper := strings.ToUpper(strings.TrimSpace(name))
	if upper == "JPG" {
		upper = "JPEG"
	}
	return Format(upper)
}

// checkExtension compares the extension of a client-supplied filename with
// the output format. It returns nil when they agree.
func checkExtension(originalFilename string, out Format) *ExtensionMismatch {
	ext := strings.ToLower(filepath.Ext(originalFilename))
	if expected, ok := extToFormat[ext]; ok && expected == out {
		return nil
	}
	return &ExtensionMismatch{
		ProvidedExt:  ext,
		SuggestedExt: out.Ext(),
	}
}
