package media

import (
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"

	"github.com/disintegration/imaging"
	"github.com/gen2brain/webp"
)

const webpMethod = 5

var (
	lossyQualities    = []int{84, 85, 86}
	pngCompressLevels = []png.CompressionLevel{
		png.DefaultCompression,
		png.BestSpeed,
		png.BestCompression,
	}
)

// fit downsizes img proportionally to within limit using Lanczos resampling.
func fit(img image.Image, limit Dimensions) image.Image {
	if limit.Width <= 0 || limit.Height <= 0 {
		return img
	}
	b := img.Bounds()
	if b.Dx() <= limit.Width && b.Dy() <= limit.Height {
		return img
	}
	return imaging.Fit(img, limit.Width, limit.Height, imaging.Lanczos)
}

// flatten composites img onto an opaque white canvas.
func flatten(img image.Image) image.Image {
	b := img.Bounds()
	bg := imaging.New(b.Dx(), b.Dy(), color.White)
	return imaging.Overlay(bg, img, image.Pt(0, 0), 1.0)
}

func (p *Processor) encode(w io.Writer, img image.Image, format Format) error {
	switch format {
	case FormatJPEG:
		quality := lossyQualities[p.jitter(len(lossyQualities))]
		return jpeg.Encode(w, flatten(img), &jpeg.Options{Quality: quality})
	case FormatWEBP:
		quality := lossyQualities[p.jitter(len(lossyQualities))]
		return webp.Encode(w, flatten(img), webp.Options{Quality: quality, Method: webpMethod})
	default:
		enc := png.Encoder{CompressionLevel: pngCompressLevels[p.jitter(len(pngCompressLevels))]}
		return enc.Encode(w, img)
	}
}
