// Package codec performs the pixel-level PNG transforms behind the
// pipeline: lossless container re-encoding and palette quantization.
package codec

import "errors"

// Classified engine failures. Every error returned by an Engine wraps one
// of these so callers can report the failure class without string matching.
var (
	// ErrMalformed means the input is not a structurally valid PNG.
	ErrMalformed = errors.New("malformed PNG")
	// ErrUnsupported means the input decodes but uses a color mode or
	// feature the requested transform cannot handle.
	ErrUnsupported = errors.New("unsupported color mode")
	// ErrQualityTooLow means quantization could not stay inside the
	// quality window derived from the requested level.
	ErrQualityTooLow = errors.New("palette quality below requested window")
	// ErrInternal marks unexpected engine failures.
	ErrInternal = errors.New("internal codec error")
)

// Result is the outcome of a successful transform.
type Result struct {
	Data []byte
	// PaletteSize is the number of palette entries in quantized output;
	// zero for lossless transforms of non-indexed images.
	PaletteSize int
	// EXIFTagsStripped counts EXIF tags discarded with an eXIf chunk.
	EXIFTagsStripped int
}

// Engine is the image-processing capability consumed by the pipeline.
// Implementations must be safe for concurrent use.
type Engine interface {
	// Lossless re-encodes a PNG so that decoding the output yields pixel
	// data identical to decoding the input. Only framing, chunk set, and
	// entropy coding may change.
	Lossless(data []byte, opts LosslessOptions) (Result, error)

	// Quantize reduces the image to a bounded palette and re-encodes it
	// as an indexed PNG.
	Quantize(data []byte, opts QuantizeOptions) (Result, error)
}

// PNGEngine is the built-in Engine implementation.
type PNGEngine struct{}

func NewEngine() *PNGEngine {
	return &PNGEngine{}
}
