package media

type ErrorKind string

const (
	KindEmptyFile         ErrorKind = "empty_file"
	KindFileTooLarge      ErrorKind = "file_too_large"
	KindInvalidImage      ErrorKind = "invalid_image"
	KindUnsupportedFormat ErrorKind = "unsupported_format"
	KindTooManyPixels     ErrorKind = "too_many_pixels"
	KindProcessingError   ErrorKind = "processing_error"
	KindWriteFailed       ErrorKind = "write_failed"
)

// ExtensionMismatch is advisory. It never blocks an upload.
type ExtensionMismatch struct {
	ProvidedExt  string `json:"provided_ext"`
	SuggestedExt string `json:"suggested_ext"`
}

type Info struct {
	Format            Format             `json:"format,omitempty"`
	Width             int                `json:"width,omitempty"`
	Height            int                `json:"height,omitempty"`
	MaxBytes          int64              `json:"max_bytes,omitempty"`
	MIME              string             `json:"mime,omitempty"`
	ExtensionMismatch *ExtensionMismatch `json:"extension_mismatch,omitempty"`
	Exception         string             `json:"exception,omitempty"`
}

// Result is the outcome of validating, rewriting or storing an image. When OK
// is false, Kind says why and Info carries whatever detail is known.
type Result struct {
	OK   bool
	Kind ErrorKind
	Info Info

	// Set by ValidateAndRewrite on success
	Data     []byte
	Format   Format
	Filename string

	// Set by Uploader.Save once the sink has stored Data
	Path string
}

func failure(kind ErrorKind, info Info) Result {
	return Result{Kind: kind, Info: info}
}
