// Package pngchunk reads and writes PNG containers at the chunk level.
package pngchunk

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
)

// Signature is the 8-byte PNG file header.
var Signature = []byte{0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a}

var (
	ErrBadSignature = errors.New("not a PNG file")
	ErrTruncated    = errors.New("truncated PNG chunk")
)

// Chunk is one decoded PNG chunk. Data excludes the length, name, and CRC.
type Chunk struct {
	Name string
	Data []byte
}

// Parse splits data into chunks, verifying the signature and framing.
// Parsing stops after IEND; trailing garbage is ignored.
func Parse(data []byte) ([]Chunk, error) {
	if len(data) < len(Signature) || !hasSignature(data) {
		return nil, ErrBadSignature
	}

	var chunks []Chunk
	index := len(Signature)
	for index < len(data) {
		if index+8 > len(data) {
			return nil, fmt.Errorf("%w: header at offset %d", ErrTruncated, index)
		}
		length := int(binary.BigEndian.Uint32(data[index : index+4]))
		name := string(data[index+4 : index+8])
		index += 8

		if index+length+4 > len(data) {
			return nil, fmt.Errorf("%w: %s data at offset %d", ErrTruncated, name, index)
		}
		chunks = append(chunks, Chunk{Name: name, Data: data[index : index+length]})
		index += length + 4 // data + CRC

		if name == "IEND" {
			break
		}
	}

	if len(chunks) == 0 || chunks[len(chunks)-1].Name != "IEND" {
		return nil, fmt.Errorf("%w: missing IEND", ErrTruncated)
	}

	return chunks, nil
}

// Append serializes one chunk (length, name, data, CRC) onto buf.
func Append(buf []byte, name string, data []byte) []byte {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(data)))
	buf = append(buf, lenBuf[:]...)
	buf = append(buf, name...)
	buf = append(buf, data...)

	crc := crc32.NewIEEE()
	crc.Write([]byte(name))
	crc.Write(data)
	var crcBuf [4]byte
	binary.BigEndian.PutUint32(crcBuf[:], crc.Sum32())
	return append(buf, crcBuf[:]...)
}

// Assemble builds a full PNG file from chunks, prepending the signature.
func Assemble(chunks []Chunk) []byte {
	size := len(Signature)
	for _, c := range chunks {
		size += 12 + len(c.Data)
	}
	out := make([]byte, 0, size)
	out = append(out, Signature...)
	for _, c := range chunks {
		out = Append(out, c.Name, c.Data)
	}
	return out
}

// IsCritical reports whether a chunk is structural rather than ancillary.
// PLTE and tRNS are treated as structural because indexed images cannot
// decode without them.
func IsCritical(name string) bool {
	switch name {
	case "IHDR", "PLTE", "tRNS", "IDAT", "IEND":
		return true
	default:
		return false
	}
}

// displayChunks are the ancillary chunks that affect rendering and are
// kept under the default strip policy.
var displayChunks = map[string]struct{}{
	"cICP": {},
	"iCCP": {},
	"sRGB": {},
	"pHYs": {},
	"acTL": {},
	"fcTL": {},
	"fdAT": {},
}

// IsDisplay reports whether an ancillary chunk belongs to the safe-to-keep
// display set.
func IsDisplay(name string) bool {
	_, ok := displayChunks[name]
	return ok
}

// HasSignature reports whether header starts with the PNG signature.
// At least 8 bytes are required to decide.
func HasSignature(header []byte) bool {
	return len(header) >= len(Signature) && hasSignature(header)
}

func hasSignature(buf []byte) bool {
	for i, b := range Signature {
		if buf[i] != b {
			return false
		}
	}
	return true
}
