package snapshot

import (
	"bytes"
	"image"
	"image/png"

	_ "image/gif"
	_ "image/jpeg"
)

// NormalizeImage re-encodes an image payload as PNG, the canonical raster
// encoding for storage and fingerprinting. Whatever intermediate format the
// producing application offered, byte-identical pixel data canonicalizes to
// identical payloads. Payloads that do not decode are kept verbatim — they
// are still stable per source, just not cross-format comparable.
func NormalizeImage(data []byte) []byte {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return data
	}
	if format == "png" {
		// Already canonical on the wire from the clipboard backend; avoid a
		// decode/encode round trip changing compression details.
		return data
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return data
	}
	return buf.Bytes()
}
