package codec

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"golang.org/x/sync/errgroup"

	"turbopng/pkg/pngchunk"
)

// Lossless re-encodes a PNG without changing its decoded pixels. It builds
// two candidates, a chunk-stripped copy of the original and a full stdlib
// re-encode with the kept ancillary chunks spliced back in, and returns
// the smaller. Animated PNGs are only chunk-stripped: their frames live in
// fdAT chunks a re-encode would discard.
func (e *PNGEngine) Lossless(data []byte, opts LosslessOptions) (Result, error) {
	chunks, err := pngchunk.Parse(data)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	var res Result
	kept := make([]pngchunk.Chunk, 0, len(chunks))
	for _, c := range chunks {
		if pngchunk.IsCritical(c.Name) || keepAncillary(opts.Metadata, c.Name) {
			kept = append(kept, c)
			continue
		}
		if c.Name == "eXIf" {
			res.EXIFTagsStripped += countEXIFTags(c.Data)
		}
	}
	best := pngchunk.Assemble(kept)

	if !hasChunk(chunks, "acTL") {
		img, decErr := png.Decode(bytes.NewReader(data))
		if decErr != nil {
			return Result{}, fmt.Errorf("%w: %v", ErrMalformed, decErr)
		}
		reencoded, encErr := encodeSmallest(img, opts.Deflate)
		if encErr != nil {
			return Result{}, fmt.Errorf("%w: %v", ErrInternal, encErr)
		}
		before, after := ancillaryByPosition(kept)
		spliced, spErr := spliceAncillary(reencoded, before, after)
		if spErr != nil {
			return Result{}, fmt.Errorf("%w: %v", ErrInternal, spErr)
		}
		if len(spliced) < len(best) {
			best = spliced
		}
	}

	res.Data = best
	res.PaletteSize = paletteSizeOf(best)
	return res, nil
}

func keepAncillary(policy MetadataPolicy, name string) bool {
	return policy == KeepAll || pngchunk.IsDisplay(name)
}

func hasChunk(chunks []pngchunk.Chunk, name string) bool {
	for _, c := range chunks {
		if c.Name == name {
			return true
		}
	}
	return false
}

// ancillaryByPosition splits the ancillary chunks of kept into those
// appearing before the first IDAT and those after, preserving order.
func ancillaryByPosition(kept []pngchunk.Chunk) (before, after []pngchunk.Chunk) {
	seenIDAT := false
	for _, c := range kept {
		if c.Name == "IDAT" {
			seenIDAT = true
			continue
		}
		if pngchunk.IsCritical(c.Name) {
			continue
		}
		if seenIDAT {
			after = append(after, c)
		} else {
			before = append(before, c)
		}
	}
	return before, after
}

// spliceAncillary rebuilds encoded with the preserved ancillary chunks
// reinserted: before-IDAT chunks directly after IHDR (ahead of any PLTE),
// after-IDAT chunks ahead of IEND.
func spliceAncillary(encoded []byte, before, after []pngchunk.Chunk) ([]byte, error) {
	if len(before) == 0 && len(after) == 0 {
		return encoded, nil
	}
	chunks, err := pngchunk.Parse(encoded)
	if err != nil {
		return nil, err
	}

	out := make([]pngchunk.Chunk, 0, len(chunks)+len(before)+len(after))
	out = append(out, chunks[0]) // IHDR
	out = append(out, before...)
	out = append(out, chunks[1:len(chunks)-1]...)
	out = append(out, after...)
	out = append(out, chunks[len(chunks)-1]) // IEND
	return pngchunk.Assemble(out), nil
}

// encodeSmallest re-encodes img, trying several compression levels in
// parallel when the effort is exhaustive, and returns the smallest output.
func encodeSmallest(img image.Image, effort DeflateEffort) ([]byte, error) {
	levels := []png.CompressionLevel{png.BestCompression}
	if effort.Exhaustive {
		levels = append(levels, png.DefaultCompression, png.BestSpeed)
	}

	outputs := make([][]byte, len(levels))
	var group errgroup.Group
	for i, level := range levels {
		group.Go(func() error {
			var buf bytes.Buffer
			enc := png.Encoder{CompressionLevel: level}
			if err := enc.Encode(&buf, img); err != nil {
				return err
			}
			outputs[i] = buf.Bytes()
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	best := outputs[0]
	for _, out := range outputs[1:] {
		if len(out) < len(best) {
			best = out
		}
	}
	return best, nil
}

func paletteSizeOf(data []byte) int {
	chunks, err := pngchunk.Parse(data)
	if err != nil {
		return 0
	}
	for _, c := range chunks {
		if c.Name == "PLTE" {
			return len(c.Data) / 3
		}
	}
	return 0
}
