// Package bundle assembles extraction output into the one ContentBundle
// handed to the analysis call. This is the last step of the extraction
// core; the bundle crosses the model boundary unmodified.
package bundle

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/image/draw"

	"decklens/deck"

	_ "image/gif"
	_ "image/jpeg"
)

// Limits bound what the analysis collaborator will accept. Truncation is
// deterministic: page order, earliest first.
type Limits struct {
	MaxImages     int `yaml:"max_images"`
	MaxImageBytes int `yaml:"max_image_bytes"`
}

func DefaultLimits() Limits {
	return Limits{
		MaxImages:     8,
		MaxImageBytes: 4 << 20,
	}
}

type Normalizer struct {
	logger *zap.Logger
	limits Limits
}

func NewNormalizer(logger *zap.Logger, limits Limits) *Normalizer {
	if limits.MaxImages <= 0 {
		limits.MaxImages = DefaultLimits().MaxImages
	}
	if limits.MaxImageBytes <= 0 {
		limits.MaxImageBytes = DefaultLimits().MaxImageBytes
	}
	return &Normalizer{logger: logger, limits: limits}
}

// Build merges page texts, classified images, and collected URLs into an
// immutable bundle. Texts must cover ordinals 1..n without holes; images
// must already be classified, and only informative ones survive.
func (n *Normalizer) Build(texts []deck.PageText, images []deck.ImageAsset, urls []deck.ExtractedURL, emails []string) (*deck.ContentBundle, error) {
	if len(texts) == 0 {
		return nil, deck.ErrEmptyDocument
	}

	ordered := append([]deck.PageText(nil), texts...)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Ordinal < ordered[j].Ordinal })
	for i, p := range ordered {
		if p.Ordinal != i+1 {
			return nil, fmt.Errorf("%w: page ordinals not contiguous at %d", deck.ErrCorruptDocument, p.Ordinal)
		}
	}

	native := false
	for _, p := range ordered {
		if p.Text != "" {
			native = true
			break
		}
	}

	kept := make([]deck.ImageAsset, 0, len(images))
	for _, img := range images {
		if !img.Informative {
			continue
		}
		if len(img.Data) > n.limits.MaxImageBytes {
			data, w, h, ok := shrinkImage(img.Data, n.limits.MaxImageBytes)
			if !ok {
				n.logger.Debug("image over size budget, dropped",
					zap.Int("page", img.PageOrdinal),
					zap.Int("bytes", len(img.Data)))
				continue
			}
			n.logger.Debug("image over size budget, downscaled",
				zap.Int("page", img.PageOrdinal),
				zap.Int("from_bytes", len(img.Data)),
				zap.Int("to_bytes", len(data)))
			img.Data = data
			img.Width = w
			img.Height = h
			img.MIMEType = "image/png"
		}
		kept = append(kept, img)
	}
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].PageOrdinal < kept[j].PageOrdinal })
	if len(kept) > n.limits.MaxImages {
		n.logger.Info("image budget exceeded, truncating by page order",
			zap.Int("have", len(kept)),
			zap.Int("max", n.limits.MaxImages))
		kept = kept[:n.limits.MaxImages]
	}

	return &deck.ContentBundle{
		Texts:        ordered,
		Images:       kept,
		URLs:         dedupe(urls),
		Emails:       emails,
		TextIsNative: native,
	}, nil
}

const (
	// shrinkMaxEdge is the first downscale target for oversized images,
	// longest edge, aspect preserved.
	shrinkMaxEdge = 1024
	// shrinkMinEdge is the floor below which an image is dropped instead
	// of shrunk further.
	shrinkMinEdge = 64
)

// shrinkImage re-encodes an oversized image at progressively smaller
// dimensions until it fits maxBytes. Returns ok=false for payloads that
// cannot be decoded or cannot fit above the size floor.
func shrinkImage(data []byte, maxBytes int) (out []byte, w, h int, ok bool) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, 0, 0, false
	}
	bounds := src.Bounds()
	w, h = bounds.Dx(), bounds.Dy()
	if w > shrinkMaxEdge || h > shrinkMaxEdge {
		if w >= h {
			h = h * shrinkMaxEdge / w
			w = shrinkMaxEdge
		} else {
			w = w * shrinkMaxEdge / h
			h = shrinkMaxEdge
		}
	} else {
		w, h = w/2, h/2
	}

	for w >= shrinkMinEdge && h >= shrinkMinEdge {
		dst := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)
		var buf bytes.Buffer
		if err := png.Encode(&buf, dst); err != nil {
			return nil, 0, 0, false
		}
		if buf.Len() <= maxBytes {
			return buf.Bytes(), w, h, true
		}
		w, h = w/2, h/2
	}
	return nil, 0, 0, false
}

// dedupe keeps the first entry per literal string. Collectors already do
// this; the normalizer owns the invariant, so it holds regardless of how
// the URL list was produced.
func dedupe(urls []deck.ExtractedURL) []deck.ExtractedURL {
	seen := make(map[string]bool, len(urls))
	out := make([]deck.ExtractedURL, 0, len(urls))
	for _, u := range urls {
		if seen[u.Raw] {
			continue
		}
		seen[u.Raw] = true
		out = append(out, u)
	}
	return out
}
