package theme

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math"
	"testing"

	"github.com/go-test/deep"
	"github.com/lucasb-eyer/go-colorful"
)

func TestContrast(t *testing.T) {
	if c := Contrast(Black, White); math.Abs(c-21) > 1e-9 {
		t.Errorf("black/white contrast = %v, expected 21", c)
	}

	if c := Contrast(White, White); math.Abs(c-1) > 1e-9 {
		t.Errorf("white/white contrast = %v, expected 1", c)
	}

	gray := MustHex("#777777")
	if a, b := Contrast(gray, White), Contrast(White, gray); a != b {
		t.Errorf("contrast is not symmetric: %v != %v", a, b)
	}
}

// splitImage makes an image with the top rows in top and the rest in bottom.
func splitImage(topRows int, top, bottom color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, sampleSize, sampleSize))
	for y := 0; y < sampleSize; y++ {
		c := bottom
		if y < topRows {
			c = top
		}
		for x := 0; x < sampleSize; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func assertClose(t *testing.T, got, expected colorful.Color) {
	t.Helper()

	if d := got.DistanceLab(expected); d > 0.02 {
		t.Errorf("got %s, expected %s (distance %.3f)", got.Hex(), expected.Hex(), d)
	}
}

func TestExtractGradient(t *testing.T) {
	red := color.RGBA{R: 0xd0, G: 0x20, B: 0x20, A: 0xff}
	blue := color.RGBA{R: 0x10, G: 0x20, B: 0x90, A: 0xff}

	// Blue is more common, but red is lighter and should come first.
	stops := ExtractGradient(splitImage(20, red, blue), false)
	if len(stops) != 2 {
		t.Fatalf("expected 2 stops, got %d", len(stops))
	}

	r, _ := colorful.MakeColor(red)
	b, _ := colorful.MakeColor(blue)

	assertClose(t, stops[0], r)
	assertClose(t, stops[1], b)
}

func TestExtractGradientDark(t *testing.T) {
	white := color.RGBA{R: 0xf0, G: 0xf0, B: 0xf0, A: 0xff}
	teal := color.RGBA{R: 0x20, G: 0x90, B: 0x90, A: 0xff}

	stops := ExtractGradient(splitImage(32, white, teal), true)
	if len(stops) != 2 {
		t.Fatalf("expected 2 stops, got %d", len(stops))
	}

	for _, stop := range stops {
		if l, _, _ := stop.Lab(); l > darkLightness+0.02 {
			t.Errorf("stop %s too light for a dark theme: L=%.3f", stop.Hex(), l)
		}
	}
}

func TestExtractGradientFallback(t *testing.T) {
	gray := color.RGBA{R: 0x80, G: 0x80, B: 0x80, A: 0xff}

	stops := ExtractGradient(splitImage(0, gray, gray), false)
	if ineqs := deep.Equal(stops, FallbackGradient); ineqs != nil {
		t.Error("expected fallback gradient:", ineqs)
	}

	transparent := image.NewRGBA(image.Rect(0, 0, 8, 8))
	if stops := ExtractGradient(transparent, false); len(stops) != 2 {
		t.Errorf("transparent image gave %d stops", len(stops))
	}
}

func TestDecode(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, splitImage(1, color.White, color.Black)); err != nil {
		t.Fatal(err)
	}

	img, err := Decode(&buf)
	if err != nil {
		t.Fatal("Decode failed:", err)
	}

	if img.Bounds().Dx() != sampleSize {
		t.Errorf("unexpected width %d", img.Bounds().Dx())
	}

	if _, err := Decode(bytes.NewReader([]byte("not an image"))); err == nil {
		t.Error("expected error decoding garbage")
	}
}
