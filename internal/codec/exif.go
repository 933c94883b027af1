package codec

import (
	exif "github.com/dsoprea/go-exif/v3"
)

// countEXIFTags parses the raw TIFF payload of an eXIf chunk and returns
// the number of EXIF tags it carries, so results can report what a strip
// discarded. A payload that cannot be parsed counts as zero tags; the
// chunk is being dropped either way.
func countEXIFTags(data []byte) int {
	if len(data) == 0 {
		return 0
	}
	tags, _, err := exif.GetFlatExifData(data, nil)
	if err != nil {
		return 0
	}
	return len(tags)
}
