package classify

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"decklens/deck"
)

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func flatTile(t *testing.T, w, h int, c color.RGBA) deck.ImageAsset {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return deck.ImageAsset{Data: encodePNG(t, img), Width: w, Height: h}
}

// busyTile paints a deterministic high-variance pattern, standing in for a
// chart or screenshot.
func busyTile(t *testing.T, w, h int) deck.ImageAsset {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{
				R: uint8((x * 7) % 256),
				G: uint8((y * 13) % 256),
				B: uint8((x*3 + y*5) % 256),
				A: 255,
			})
		}
	}
	return deck.ImageAsset{Data: encodePNG(t, img), Width: w, Height: h}
}

func TestInformative(t *testing.T) {
	c := NewClassifier(DefaultThresholds())

	testCases := []struct {
		name  string
		asset deck.ImageAsset
		want  bool
	}{
		{"Chart", busyTile(t, 400, 300), true},
		{"FlatLogoTile", flatTile(t, 400, 300, color.RGBA{R: 20, G: 80, B: 160, A: 255}), false},
		{"TinyIcon", busyTile(t, 32, 32), false},
		{"BannerStrip", busyTile(t, 1200, 40), false},
		{"UndecodableUnknownSize", deck.ImageAsset{Data: []byte("not an image")}, true},
		{"UndecodableKnownTiny", deck.ImageAsset{Data: []byte("not an image"), Width: 16, Height: 16}, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := c.Informative(tc.asset); got != tc.want {
				t.Errorf("Informative() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestInformativeDeterministic(t *testing.T) {
	c := NewClassifier(DefaultThresholds())
	asset := busyTile(t, 300, 200)
	first := c.Informative(asset)
	for i := 0; i < 10; i++ {
		if c.Informative(asset) != first {
			t.Fatalf("classification flipped on repeat call %d", i)
		}
	}
}

func TestThresholdOverrides(t *testing.T) {
	strict := NewClassifier(Thresholds{MinWidth: 500, MinHeight: 500})
	if strict.Informative(busyTile(t, 400, 300)) {
		t.Errorf("expected 400x300 to fail a 500x500 minimum")
	}

	// Unset fields fall back to defaults, so variance filtering stays on.
	if strict.thresholds.MinColorVariance != DefaultThresholds().MinColorVariance {
		t.Errorf("zero threshold not defaulted")
	}
}
