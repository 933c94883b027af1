package codec

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"

	"golang.org/x/sync/errgroup"

	"turbopng/pkg/pngchunk"
)

// encodeIndexed assembles an 8-bit indexed PNG from a palette and index
// buffer, inserting preserved ancillary chunks at their original side of
// the image data. The stdlib encoder exposes neither row-filter selection
// nor ancillary chunk writing, so framing is done here.
func encodeIndexed(width, height int, palette []rgba, indices []uint8,
	before, after []pngchunk.Chunk, filter FilterPolicy, effort DeflateEffort) ([]byte, error) {

	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:4], uint32(width))
	binary.BigEndian.PutUint32(ihdr[4:8], uint32(height))
	ihdr[8] = 8 // bit depth
	ihdr[9] = 3 // indexed color
	// compression, filter method, interlace all zero

	plte := make([]byte, 0, len(palette)*3)
	trns := make([]byte, 0, len(palette))
	for _, c := range palette {
		plte = append(plte, c.r, c.g, c.b)
		trns = append(trns, c.a)
	}
	for len(trns) > 0 && trns[len(trns)-1] == 0xff {
		trns = trns[:len(trns)-1]
	}

	filtered := filterRows(width, height, indices, filter)
	idat, err := deflateSmallest(filtered, effort)
	if err != nil {
		return nil, err
	}

	chunks := make([]pngchunk.Chunk, 0, len(before)+len(after)+5)
	chunks = append(chunks, pngchunk.Chunk{Name: "IHDR", Data: ihdr})
	chunks = append(chunks, before...)
	chunks = append(chunks, pngchunk.Chunk{Name: "PLTE", Data: plte})
	if len(trns) > 0 {
		chunks = append(chunks, pngchunk.Chunk{Name: "tRNS", Data: trns})
	}
	chunks = append(chunks, pngchunk.Chunk{Name: "IDAT", Data: idat})
	chunks = append(chunks, after...)
	chunks = append(chunks, pngchunk.Chunk{Name: "IEND"})
	return pngchunk.Assemble(chunks), nil
}

// filterRows produces the pre-compression scanline stream: one filter-type
// byte followed by width index bytes per row (bpp = 1 for 8-bit indexed).
func filterRows(width, height int, indices []uint8, policy FilterPolicy) []byte {
	out := make([]byte, 0, height*(width+1))
	prev := make([]byte, width)
	for y := 0; y < height; y++ {
		row := indices[y*width : (y+1)*width]
		if policy == FilterAdaptive {
			ft, line := bestFilter(row, prev)
			out = append(out, ft)
			out = append(out, line...)
		} else {
			out = append(out, 0)
			out = append(out, row...)
		}
		prev = row
	}
	return out
}

// bestFilter applies the standard minimum-sum-of-absolute-differences
// heuristic over the five PNG filter types.
func bestFilter(row, prev []byte) (byte, []byte) {
	width := len(row)
	candidates := make([][]byte, 5)
	candidates[0] = row

	sub := make([]byte, width)
	up := make([]byte, width)
	avg := make([]byte, width)
	paeth := make([]byte, width)
	for x := 0; x < width; x++ {
		var left, upLeft byte
		if x > 0 {
			left = row[x-1]
			upLeft = prev[x-1]
		}
		above := prev[x]
		sub[x] = row[x] - left
		up[x] = row[x] - above
		avg[x] = row[x] - byte((int(left)+int(above))/2)
		paeth[x] = row[x] - paethPredict(left, above, upLeft)
	}
	candidates[1] = sub
	candidates[2] = up
	candidates[3] = avg
	candidates[4] = paeth

	best := 0
	bestSum := filterCost(candidates[0])
	for i := 1; i < 5; i++ {
		if sum := filterCost(candidates[i]); sum < bestSum {
			best, bestSum = i, sum
		}
	}
	return byte(best), candidates[best]
}

func filterCost(line []byte) int {
	sum := 0
	for _, b := range line {
		v := int(int8(b))
		if v < 0 {
			v = -v
		}
		sum += v
	}
	return sum
}

func paethPredict(left, above, upLeft byte) byte {
	p := int(left) + int(above) - int(upLeft)
	pa := abs(p - int(left))
	pb := abs(p - int(above))
	pc := abs(p - int(upLeft))
	if pa <= pb && pa <= pc {
		return left
	}
	if pb <= pc {
		return above
	}
	return upLeft
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// deflateSmallest compresses the scanline stream, running trials over
// several zlib levels in parallel when the effort is exhaustive, and keeps
// the smallest result.
func deflateSmallest(data []byte, effort DeflateEffort) ([]byte, error) {
	levels := []int{zlib.BestCompression}
	if effort.Exhaustive {
		levels = append(levels, 8, 7)
		if effort.Iterations >= 20 {
			levels = append(levels, 6, 5)
		}
	}

	outputs := make([][]byte, len(levels))
	var group errgroup.Group
	for i, level := range levels {
		group.Go(func() error {
			var buf bytes.Buffer
			zw, err := zlib.NewWriterLevel(&buf, level)
			if err != nil {
				return err
			}
			if _, err := zw.Write(data); err != nil {
				return err
			}
			if err := zw.Close(); err != nil {
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
