package snapshot

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"testing"
	"time"
)

func testImage() *image.Paletted {
	img := image.NewPaletted(image.Rect(0, 0, 2, 2), color.Palette{
		color.White, color.Black,
	})
	img.SetColorIndex(0, 0, 1)
	img.SetColorIndex(1, 1, 1)
	return img
}

func TestNormalizeImage_ReencodesToPNG(t *testing.T) {
	var buf bytes.Buffer
	if err := gif.Encode(&buf, testImage(), nil); err != nil {
		t.Fatal(err)
	}
	out := NormalizeImage(buf.Bytes())
	if _, format, err := image.Decode(bytes.NewReader(out)); err != nil || format != "png" {
		t.Fatalf("normalized format = %q, err = %v", format, err)
	}
}

func TestNormalizeImage_PNGPassesThrough(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, testImage()); err != nil {
		t.Fatal(err)
	}
	out := NormalizeImage(buf.Bytes())
	if !bytes.Equal(out, buf.Bytes()) {
		t.Fatal("PNG input was re-encoded")
	}
}

func TestNormalizeImage_UndecodableKeptVerbatim(t *testing.T) {
	raw := []byte{0xde, 0xad, 0xbe, 0xef}
	out := NormalizeImage(raw)
	if !bytes.Equal(out, raw) {
		t.Fatalf("undecodable payload changed: %v", out)
	}
}

func TestCanonicalize_SameImageDifferentEncodings(t *testing.T) {
	var asGIF, asPNG bytes.Buffer
	if err := gif.Encode(&asGIF, testImage(), nil); err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(&asPNG, testImage()); err != nil {
		t.Fatal(err)
	}
	a, err := Canonicalize(time.Now(), map[Kind][]byte{KindImage: asGIF.Bytes()})
	if err != nil {
		t.Fatal(err)
	}
	b, err := Canonicalize(time.Now(), map[Kind][]byte{KindImage: asPNG.Bytes()})
	if err != nil {
		t.Fatal(err)
	}
	if a.Fingerprint() != b.Fingerprint() {
		t.Fatal("same pixels, different encodings must canonicalize to one fingerprint")
	}
}
