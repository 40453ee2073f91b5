package media

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"math/rand/v2"
	"strings"

	"github.com/google/uuid"

	// Registered so that non-allowed formats decode and report as unsupported
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var ErrInvalidImage = errors.New("invalid image")

// Dimensions bounds the output size. Images are never upscaled.
type Dimensions struct {
	Width  int
	Height int
}

// Processor validates untrusted image bytes and rewrites them to a clean
// encoding. It holds no mutable state and is safe for concurrent use.
type Processor struct {
	jitter func(n int) int
}

// NewProcessor returns a Processor. jitter picks an index in [0, n) for the
// encoder parameter variation; nil uses math/rand.
func NewProcessor(jitter func(n int) int) *Processor {
	if jitter == nil {
		jitter = rand.IntN
	}
	return &Processor{jitter: jitter}
}

// Validate checks size, format and pixel count without decoding pixel data.
func (p *Processor) Validate(data []byte, maxBytes int64) Result {
	if len(data) == 0 {
		return failure(KindEmptyFile, Info{})
	}
	if int64(len(data)) > maxBytes {
		return failure(KindFileTooLarge, Info{MaxBytes: maxBytes})
	}

	cfg, name, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return failure(KindInvalidImage, Info{})
	}

	format := normalizeFormat(name)
	if !allowedFormats[format] {
		return failure(KindUnsupportedFormat, Info{Format: format})
	}

	if int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return failure(KindTooManyPixels, Info{Width: cfg.Width, Height: cfg.Height})
	}

	return Result{
		OK:   true,
		Info: Info{Format: format, Width: cfg.Width, Height: cfg.Height},
	}
}

type Rewritten struct {
	Data   []byte
	Format Format
	MIME   string
	Width  int
	Height int
}

// Rewrite fully decodes data and encodes the pixels again, so nothing but
// pixel data survives. An empty target keeps the source format. Data that
// does not decode yields ErrInvalidImage.
func (p *Processor) Rewrite(data []byte, target Format, limit *Dimensions) (*Rewritten, error) {
	img, name, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	format := target
	if format == "" {
		format = normalizeFormat(name)
	}
	if !allowedFormats[format] {
		format = FormatPNG
	}

	if limit != nil {
		img = fit(img, *limit)
	}

	var buf bytes.Buffer
	if err := p.encode(&buf, img, format); err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", format, err)
	}

	bounds := img.Bounds()
	return &Rewritten{
		Data:   buf.Bytes(),
		Format: format,
		MIME:   format.MIME(),
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	}, nil
}

// ValidateAndRewrite runs Validate then Rewrite and assigns a random filename
// with the output format's extension. It never panics on bad input.
func (p *Processor) ValidateAndRewrite(data []byte, originalFilename string, maxBytes int64, limit *Dimensions) (result Result) {
	result = p.Validate(data, maxBytes)
	if !result.OK {
		return result
	}
	info := result.Info

	defer func() {
		if r := recover(); r != nil {
			info.Exception = fmt.Sprintf("%T", r)
			result = failure(KindProcessingError, info)
		}
	}()

	out, err := p.Rewrite(data, "", limit)
	if err != nil {
		info.Exception = exceptionName(err)
		return failure(KindProcessingError, info)
	}

	if originalFilename != "" {
		info.ExtensionMismatch = checkExtension(originalFilename, out.Format)
	}
	info.MIME = out.MIME
	info.Width, info.Height = out.Width, out.Height

	return Result{
		OK:       true,
		Info:     info,
		Data:     out.Data,
		Format:   out.Format,
		Filename: randomFilename(out.Format),
	}
}

func randomFilename(format Format) string {
	return strings.ReplaceAll(uuid.NewString(), "-", "") + format.Ext()
}

func exceptionName(err error) string {
	if errors.Is(err, ErrInvalidImage) {
		return "InvalidImage"
	}
	return "EncodeError"
}
