// Package classify decides whether an extracted image is worth sending to
// the vision model. Vision calls are the expensive resource downstream, so
// decorative assets (logos, icons, flat color tiles) are dropped here. The
// heuristics deliberately lean permissive: passing a low value image is
// cheap, dropping a real chart is not.
package classify

import (
	"bytes"
	"image"
	"math"

	"decklens/deck"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
)

// Thresholds drive the informativeness heuristics. Zero values fall back
// to the defaults, so a partially filled config file still works.
type Thresholds struct {
	// MinWidth and MinHeight drop icon-sized assets.
	MinWidth  int `yaml:"min_width"`
	MinHeight int `yaml:"min_height"`
	// MaxAspectSkew drops banner strips and divider lines; it is the
	// larger dimension divided by the smaller one.
	MaxAspectSkew float64 `yaml:"max_aspect_skew"`
	// MinColorVariance drops near flat tiles. It is the mean standard
	// deviation of the sampled RGB channels on a 0-255 scale.
	MinColorVariance float64 `yaml:"min_color_variance"`
}

// DefaultThresholds keeps only the size cutoff aggressive; everything else
// stays conservative-low.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinWidth:         64,
		MinHeight:        64,
		MaxAspectSkew:    8.0,
		MinColorVariance: 4.0,
	}
}

func (t Thresholds) withDefaults() Thresholds {
	d := DefaultThresholds()
	if t.MinWidth <= 0 {
		t.MinWidth = d.MinWidth
	}
	if t.MinHeight <= 0 {
		t.MinHeight = d.MinHeight
	}
	if t.MaxAspectSkew <= 0 {
		t.MaxAspectSkew = d.MaxAspectSkew
	}
	if t.MinColorVariance <= 0 {
		t.MinColorVariance = d.MinColorVariance
	}
	return t
}

// sampleGrid bounds the variance scan to at most sampleGrid^2 pixels per
// image regardless of resolution, keeping classification O(1).
const sampleGrid = 64

// Classifier is a pure predicate over image assets. Same asset and same
// thresholds always give the same answer.
type Classifier struct {
	thresholds Thresholds
}

func NewClassifier(t Thresholds) *Classifier {
	return &Classifier{thresholds: t.withDefaults()}
}

// Informative reports whether an asset should proceed to vision analysis.
// Payloads that cannot be decoded pass through: an undecodable image may
// still be a chart in a format the stdlib does not know.
func (c *Classifier) Informative(asset deck.ImageAsset) bool {
	w, h := asset.Width, asset.Height
	img, _, err := image.Decode(bytes.NewReader(asset.Data))
	if err != nil {
		if w == 0 || h == 0 {
			return true
		}
		return c.passesGeometry(w, h)
	}
	bounds := img.Bounds()
	w, h = bounds.Dx(), bounds.Dy()
	if !c.passesGeometry(w, h) {
		return false
	}
	return colorVariance(img) >= c.thresholds.MinColorVariance
}

func (c *Classifier) passesGeometry(w, h int) bool {
	if w < c.thresholds.MinWidth || h < c.thresholds.MinHeight {
		return false
	}
	long, short := float64(w), float64(h)
	if short > long {
		long, short = short, long
	}
	if short == 0 {
		return false
	}
	return long/short <= c.thresholds.MaxAspectSkew
}

// colorVariance returns the mean per-channel standard deviation over a
// fixed sampling grid, scaled to 0-255.
func colorVariance(img image.Image) float64 {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w == 0 || h == 0 {
		return 0
	}
	stepX := w / sampleGrid
	if stepX < 1 {
		stepX = 1
	}
	stepY := h / sampleGrid
	if stepY < 1 {
		stepY = 1
	}

	var sum, sumSq [3]float64
	n := 0.0
	for y := bounds.Min.Y; y < bounds.Max.Y; y += stepY {
		for x := bounds.Min.X; x < bounds.Max.X; x += stepX {
			r, g, b, _ := img.At(x, y).RGBA()
			ch := [3]float64{float64(r >> 8), float64(g >> 8), float64(b >> 8)}
			for i, v := range ch {
				sum[i] += v
				sumSq[i] += v * v
			}
			n++
		}
	}
	if n == 0 {
		return 0
	}
	total := 0.0
	for i := 0; i < 3; i++ {
		mean := sum[i] / n
		variance := sumSq[i]/n - mean*mean
		if variance < 0 {
			variance = 0
		}
		total += math.Sqrt(variance)
	}
	return total / 3
}
