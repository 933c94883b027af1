package codec

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"turbopng/pkg/pngchunk"
)

// paletteSourcePNG draws four vertical color stripes, the classic
// screenshot-like input that quantizes exactly.
func paletteSourcePNG(t *testing.T) []byte {
	t.Helper()
	stripes := []color.NRGBA{
		{R: 0xE8, G: 0x3A, B: 0x3A, A: 0xFF},
		{R: 0x3A, G: 0xE8, B: 0x5C, A: 0xFF},
		{R: 0x3A, G: 0x5C, B: 0xE8, A: 0xFF},
		{R: 0xF0, G: 0xF0, B: 0xF0, A: 0xFF},
	}
	img := image.NewNRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			img.Set(x, y, stripes[x/4])
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

func uniqueColors(img *image.NRGBA) int {
	seen := make(map[color.NRGBA]struct{})
	for y := img.Rect.Min.Y; y < img.Rect.Max.Y; y++ {
		for x := img.Rect.Min.X; x < img.Rect.Max.X; x++ {
			seen[img.NRGBAAt(x, y)] = struct{}{}
		}
	}
	return len(seen)
}

func TestQuantizeExactPalette(t *testing.T) {
	input := paletteSourcePNG(t)

	res, err := NewEngine().Quantize(input, DeriveQuantize(90, false))
	if err != nil {
		t.Fatalf("quantize: %v", err)
	}
	if res.PaletteSize != 4 {
		t.Fatalf("palette size = %d, want 4", res.PaletteSize)
	}

	got := decodePixels(t, res.Data)
	if !samePixels(decodePixels(t, input), got) {
		t.Fatal("a 4-color image should survive quantization unchanged")
	}
}

func TestQuantizeOutputIsIndexed(t *testing.T) {
	res, err := NewEngine().Quantize(paletteSourcePNG(t), DeriveQuantize(90, false))
	if err != nil {
		t.Fatalf("quantize: %v", err)
	}

	chunks, err := pngchunk.Parse(res.Data)
	if err != nil {
		t.Fatalf("parse output: %v", err)
	}
	if chunks[0].Name != "IHDR" || chunks[0].Data[9] != 3 {
		t.Fatal("output should be color type 3 (indexed)")
	}
	for _, c := range chunks {
		if c.Name == "PLTE" {
			if len(c.Data) != res.PaletteSize*3 {
				t.Fatalf("PLTE holds %d bytes for %d colors", len(c.Data), res.PaletteSize)
			}
			return
		}
	}
	t.Fatal("no PLTE chunk in output")
}

func TestQuantizeRespectsPaletteCap(t *testing.T) {
	input := noisyPNG(t, 16, 16)
	opts := DeriveQuantize(40, false)

	res, err := NewEngine().Quantize(input, opts)
	if err != nil {
		t.Fatalf("quantize: %v", err)
	}
	if res.PaletteSize > opts.PaletteCap {
		t.Fatalf("palette size %d exceeds cap %d", res.PaletteSize, opts.PaletteCap)
	}

	got := decodePixels(t, res.Data)
	if got.Rect.Dx() != 16 || got.Rect.Dy() != 16 {
		t.Fatalf("dimensions changed: %v", got.Rect)
	}
	if n := uniqueColors(got); n > opts.PaletteCap {
		t.Fatalf("output has %d unique colors, cap is %d", n, opts.PaletteCap)
	}
}

func TestQuantizeChunkPolicy(t *testing.T) {
	input := withChunks(t, paletteSourcePNG(t),
		pngchunk.Chunk{Name: "tEXt", Data: []byte("Comment\x00noise")},
		pngchunk.Chunk{Name: "pHYs", Data: []byte{0, 0, 0x0B, 0x13, 0, 0, 0x0B, 0x13, 1}},
		pngchunk.Chunk{Name: "eXIf", Data: testExifTIFF()},
	)

	res, err := NewEngine().Quantize(input, DeriveQuantize(90, false))
	if err != nil {
		t.Fatalf("quantize: %v", err)
	}

	names := chunkNames(t, res.Data)
	if hasName(names, "tEXt") || hasName(names, "eXIf") {
		t.Fatal("unsafe chunks should be stripped")
	}
	if !hasName(names, "pHYs") {
		t.Fatal("pHYs should be carried into the output")
	}
	if res.EXIFTagsStripped != 2 {
		t.Fatalf("EXIFTagsStripped = %d, want 2", res.EXIFTagsStripped)
	}
}

func TestQuantizeKeepMetadata(t *testing.T) {
	input := withChunks(t, paletteSourcePNG(t),
		pngchunk.Chunk{Name: "tEXt", Data: []byte("Comment\x00keep me")},
	)

	res, err := NewEngine().Quantize(input, DeriveQuantize(90, true))
	if err != nil {
		t.Fatalf("quantize: %v", err)
	}
	if !hasName(chunkNames(t, res.Data), "tEXt") {
		t.Fatal("keep-metadata should retain tEXt")
	}
}

func TestQuantizeRejectsAnimated(t *testing.T) {
	input := withChunks(t, paletteSourcePNG(t),
		pngchunk.Chunk{Name: "acTL", Data: []byte{0, 0, 0, 2, 0, 0, 0, 0}},
	)

	_, err := NewEngine().Quantize(input, DeriveQuantize(90, false))
	if !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}

func TestQuantizeRejectsMalformed(t *testing.T) {
	_, err := NewEngine().Quantize([]byte("\x89PNG\r\n\x1a\ngarbage"), DeriveQuantize(90, false))
	if !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
}
