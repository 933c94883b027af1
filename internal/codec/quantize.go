package codec

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"math"
	"sort"

	"turbopng/pkg/pngchunk"
)

type rgba struct {
	r, g, b, a uint8
}

// Quantize reduces a PNG to a bounded palette and re-encodes it as an
// 8-bit indexed image. The palette is built by median cut over a sampled
// histogram; remapping applies strength-scaled Floyd-Steinberg error
// diffusion. Fails when the approximation falls below the quality window.
func (e *PNGEngine) Quantize(data []byte, opts QuantizeOptions) (Result, error) {
	chunks, err := pngchunk.Parse(data)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if hasChunk(chunks, "acTL") {
		return Result{}, fmt.Errorf("%w: animated PNG cannot be quantized", ErrUnsupported)
	}

	var res Result
	kept := make([]pngchunk.Chunk, 0, len(chunks))
	for _, c := range chunks {
		if pngchunk.IsCritical(c.Name) {
			kept = append(kept, c)
			continue
		}
		if keepAncillary(opts.Metadata, c.Name) {
			kept = append(kept, c)
			continue
		}
		if c.Name == "eXIf" {
			res.EXIFTagsStripped += countEXIFTags(c.Data)
		}
	}
	before, after := ancillaryByPosition(kept)

	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width <= 0 || height <= 0 {
		return Result{}, fmt.Errorf("%w: empty image", ErrMalformed)
	}

	pixels := image.NewNRGBA(image.Rect(0, 0, width, height))
	draw.Draw(pixels, pixels.Bounds(), img, bounds.Min, draw.Src)

	maxColors := opts.PaletteCap
	if maxColors < 2 {
		maxColors = 2
	} else if maxColors > 256 {
		maxColors = 256
	}

	palette := buildPalette(pixels, maxColors, opts.Speed)
	indices, meanSqErr := remap(pixels, palette, opts.Dithering)

	achieved := 100 - int(math.Round(math.Sqrt(meanSqErr)))
	if achieved < opts.MinQuality {
		return Result{}, fmt.Errorf("%w: achieved %d, need at least %d",
			ErrQualityTooLow, achieved, opts.MinQuality)
	}

	encoded, err := encodeIndexed(width, height, palette, indices, before, after, opts.Filter, opts.Deflate)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	res.Data = encoded
	res.PaletteSize = len(palette)
	return res, nil
}

// buildPalette returns at most maxColors colors. Images that already fit
// the cap keep their exact colors; otherwise median cut runs over a
// histogram sampled with a speed-dependent stride.
func buildPalette(img *image.NRGBA, maxColors, speed int) []rgba {
	stride := sampleStride(speed)
	width := img.Rect.Dx()
	height := img.Rect.Dy()

	counts := make(map[rgba]int)
	for y := 0; y < height; y += stride {
		row := img.Pix[y*img.Stride:]
		for x := 0; x < width; x += stride {
			p := row[x*4 : x*4+4]
			counts[rgba{p[0], p[1], p[2], p[3]}]++
		}
	}

	if len(counts) <= maxColors {
		palette := make([]rgba, 0, len(counts))
		for c := range counts {
			palette = append(palette, c)
		}
		sort.Slice(palette, func(i, j int) bool {
			return paletteKey(palette[i]) < paletteKey(palette[j])
		})
		return palette
	}

	return medianCut(counts, maxColors)
}

func sampleStride(speed int) int {
	switch {
	case speed <= 2:
		return 1
	case speed <= 4:
		return 2
	case speed <= 6:
		return 3
	case speed <= 8:
		return 4
	default:
		return 5
	}
}

func paletteKey(c rgba) uint32 {
	return uint32(c.r)<<24 | uint32(c.g)<<16 | uint32(c.b)<<8 | uint32(c.a)
}

type colorBox struct {
	colors []rgba
	counts map[rgba]int
}

func medianCut(counts map[rgba]int, maxColors int) []rgba {
	all := make([]rgba, 0, len(counts))
	for c := range counts {
		all = append(all, c)
	}
	sort.Slice(all, func(i, j int) bool { return paletteKey(all[i]) < paletteKey(all[j]) })

	boxes := []colorBox{{colors: all, counts: counts}}
	for len(boxes) < maxColors {
		idx := widestBox(boxes)
		if idx < 0 {
			break
		}
		left, right := splitBox(boxes[idx])
		boxes[idx] = left
		boxes = append(boxes, right)
	}

	palette := make([]rgba, 0, len(boxes))
	for _, box := range boxes {
		palette = append(palette, box.average())
	}
	sort.Slice(palette, func(i, j int) bool { return paletteKey(palette[i]) < paletteKey(palette[j]) })
	return palette
}

// widestBox picks the splittable box with the largest channel range.
func widestBox(boxes []colorBox) int {
	best, bestRange := -1, 0
	for i, box := range boxes {
		if len(box.colors) < 2 {
			continue
		}
		if _, r := box.widestChannel(); r > bestRange {
			best, bestRange = i, r
		}
	}
	return best
}

func (b colorBox) widestChannel() (channel, span int) {
	var lo, hi [4]int
	for i := range lo {
		lo[i] = 256
		hi[i] = -1
	}
	for _, c := range b.colors {
		for i, v := range [4]uint8{c.r, c.g, c.b, c.a} {
			if int(v) < lo[i] {
				lo[i] = int(v)
			}
			if int(v) > hi[i] {
				hi[i] = int(v)
			}
		}
	}
	for i := range lo {
		if hi[i]-lo[i] > span {
			channel, span = i, hi[i]-lo[i]
		}
	}
	return channel, span
}

func splitBox(b colorBox) (colorBox, colorBox) {
	channel, _ := b.widestChannel()
	sorted := make([]rgba, len(b.colors))
	copy(sorted, b.colors)
	sort.Slice(sorted, func(i, j int) bool {
		return channelValue(sorted[i], channel) < channelValue(sorted[j], channel)
	})
	mid := len(sorted) / 2
	return colorBox{colors: sorted[:mid], counts: b.counts},
		colorBox{colors: sorted[mid:], counts: b.counts}
}

func channelValue(c rgba, channel int) uint8 {
	switch channel {
	case 0:
		return c.r
	case 1:
		return c.g
	case 2:
		return c.b
	default:
		return c.a
	}
}

// average returns the population-weighted mean color of the box.
func (b colorBox) average() rgba {
	var r, g, bl, a, n uint64
	for _, c := range b.colors {
		weight := uint64(b.counts[c])
		if weight == 0 {
			weight = 1
		}
		r += uint64(c.r) * weight
		g += uint64(c.g) * weight
		bl += uint64(c.b) * weight
		a += uint64(c.a) * weight
		n += weight
	}
	if n == 0 {
		return rgba{}
	}
	round := n / 2
	return rgba{
		uint8((r + round) / n),
		uint8((g + round) / n),
		uint8((bl + round) / n),
		uint8((a + round) / n),
	}
}

// remap maps every pixel to its nearest palette index, diffusing the
// residual error to unvisited neighbors scaled by strength. Returns the
// index buffer and the mean squared per-channel error against the source.
func remap(img *image.NRGBA, palette []rgba, strength float64) ([]uint8, float64) {
	width := img.Rect.Dx()
	height := img.Rect.Dy()
	indices := make([]uint8, width*height)

	// Running per-channel error terms for the current and next row.
	current := make([][4]float64, width+2)
	next := make([][4]float64, width+2)

	var sqErrSum float64
	for y := 0; y < height; y++ {
		row := img.Pix[y*img.Stride:]
		for x := 0; x < width; x++ {
			p := row[x*4 : x*4+4]
			var want [4]float64
			for i := 0; i < 4; i++ {
				want[i] = clampChannel(float64(p[i]) + current[x+1][i])
			}

			idx := nearestIndex(palette, want)
			indices[y*width+x] = uint8(idx)
			chosen := palette[idx]

			got := [4]float64{float64(chosen.r), float64(chosen.g), float64(chosen.b), float64(chosen.a)}
			for i := 0; i < 4; i++ {
				diff := float64(p[i]) - got[i]
				sqErrSum += diff * diff

				spread := (want[i] - got[i]) * strength
				current[x+2][i] += spread * 7 / 16
				next[x][i] += spread * 3 / 16
				next[x+1][i] += spread * 5 / 16
				next[x+2][i] += spread * 1 / 16
			}
		}
		current, next = next, current
		for i := range next {
			next[i] = [4]float64{}
		}
	}

	meanSqErr := sqErrSum / float64(width*height*4)
	return indices, meanSqErr
}

func clampChannel(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}

func nearestIndex(palette []rgba, want [4]float64) int {
	best := 0
	bestDist := math.MaxFloat64
	for i, c := range palette {
		dr := want[0] - float64(c.r)
		dg := want[1] - float64(c.g)
		db := want[2] - float64(c.b)
		da := want[3] - float64(c.a)
		dist := dr*dr + dg*dg + db*db + da*da
		if dist < bestDist {
			best, bestDist = i, dist
		}
	}
	return best
}
