package codec

// MetadataPolicy selects which ancillary chunks survive a transform.
type MetadataPolicy int

const (
	// StripUnsafe drops all ancillary chunks except the display set.
	StripUnsafe MetadataPolicy = iota
	// KeepAll preserves every ancillary chunk.
	KeepAll
)

// FilterPolicy selects PNG row filtering for encoded output.
type FilterPolicy int

const (
	// FilterNone writes every row unfiltered.
	FilterNone FilterPolicy = iota
	// FilterAdaptive picks the cheapest filter per row.
	FilterAdaptive
)

// DeflateEffort controls how hard the encoder searches for small output.
type DeflateEffort struct {
	// Exhaustive enables multi-trial compression instead of a single
	// best-compression pass.
	Exhaustive bool
	// Iterations scales how many trials an exhaustive search runs.
	Iterations int
}

// LosslessOptions parameterize Engine.Lossless.
type LosslessOptions struct {
	Metadata MetadataPolicy
	Filter   FilterPolicy
	Deflate  DeflateEffort
}

// QuantizeOptions parameterize Engine.Quantize.
type QuantizeOptions struct {
	// PaletteCap bounds the palette size (2..256).
	PaletteCap int
	// Dithering is the error-diffusion strength in [0,1].
	Dithering float64
	// Speed trades palette accuracy for time, 1 (best) to 9 (fastest).
	Speed int
	// MinQuality and TargetQuality bound the acceptable approximation
	// quality on the same 1..100 scale as the user-facing level.
	MinQuality    int
	TargetQuality int
	Filter        FilterPolicy
	Deflate       DeflateEffort
	Metadata      MetadataPolicy
}

// DeriveLossless builds the fixed optimize-mode options.
func DeriveLossless(keepMetadata, zopfli bool) LosslessOptions {
	opts := LosslessOptions{
		Metadata: StripUnsafe,
		Filter:   FilterAdaptive,
		Deflate:  DeflateEffort{Exhaustive: false},
	}
	if keepMetadata {
		opts.Metadata = KeepAll
	}
	if zopfli {
		opts.Deflate = DeflateEffort{Exhaustive: true, Iterations: 15}
	}
	return opts
}

// DeriveQuantize maps a quality level in [1,100] to concrete quantizer
// settings. The mapping is pure: identical quality always yields identical
// options. The tier boundaries are a tunable policy table; tests assert
// totality and monotonicity rather than the literal values.
func DeriveQuantize(quality int, keepMetadata bool) QuantizeOptions {
	if quality < 1 {
		quality = 1
	} else if quality > 100 {
		quality = 100
	}

	minQ, targetQ := qualityWindow(quality)
	opts := QuantizeOptions{
		PaletteCap:    paletteCap(quality),
		Dithering:     ditheringLevel(quality),
		Speed:         quantizeSpeed(quality),
		MinQuality:    minQ,
		TargetQuality: targetQ,
		Filter:        FilterNone,
		Deflate:       DeflateEffort{Exhaustive: true, Iterations: zopfliIterations(quality)},
		Metadata:      StripUnsafe,
	}
	if PhotoQuality(quality) {
		opts.Filter = FilterAdaptive
	}
	if keepMetadata {
		opts.Metadata = KeepAll
	}
	return opts
}

// PhotoQuality reports whether quality selects the photo-friendly preset:
// a larger palette and adaptive filtering instead of filterless rows.
func PhotoQuality(quality int) bool {
	return quality >= 98
}

func paletteCap(quality int) int {
	switch {
	case quality >= 98:
		return 96
	case quality >= 95:
		return 48
	case quality >= 85:
		return 32
	case quality >= 70:
		return 24
	case quality >= 55:
		return 20
	case quality >= 40:
		return 16
	default:
		return 12
	}
}

func ditheringLevel(quality int) float64 {
	switch {
	case quality >= 90:
		return 1.0
	case quality >= 75:
		return 0.8
	case quality >= 50:
		return 0.6
	case quality >= 30:
		return 0.4
	default:
		return 0.3
	}
}

func quantizeSpeed(quality int) int {
	switch {
	case quality >= 90:
		return 1
	case quality >= 75:
		return 3
	case quality >= 50:
		return 5
	case quality >= 30:
		return 7
	default:
		return 9
	}
}

func qualityWindow(quality int) (min, target int) {
	switch {
	case quality >= 98:
		return 85, 99
	case quality >= 95:
		return 80, 96
	case quality >= 85:
		return 70, 92
	case quality >= 70:
		return 60, 88
	case quality >= 55:
		return 45, 82
	case quality >= 40:
		return 35, 76
	default:
		return 25, 68
	}
}

func zopfliIterations(quality int) int {
	switch {
	case quality >= 95:
		return 25
	case quality >= 80:
		return 20
	case quality >= 60:
		return 15
	case quality >= 40:
		return 12
	default:
		return 10
	}
}
