// Package extract pulls page-ordered text and images out of pitch deck
// files. One extractor exists per container format; callers select it once
// through ForFormat and never branch on format again.
package extract

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"decklens/deck"
)

// Extractor reads a whole document in one call per concern. Both methods
// must report the same page count, and pages without content must still
// appear (empty) so ordinals stay contiguous from 1.
type Extractor interface {
	ExtractText(ctx context.Context, path string) ([]deck.PageText, error)
	ExtractImages(ctx context.Context, path string) ([]deck.ImageAsset, error)
}

// PageRenderer rasterizes whole pages. Only formats with a native renderer
// implement it; the fallback path probes for it with a type assertion.
type PageRenderer interface {
	RenderPages(ctx context.Context, path string) ([]deck.ImageAsset, error)
}

// ForFormat returns the extractor for a detected format.
func ForFormat(f deck.Format, logger *zap.Logger) (Extractor, error) {
	switch f {
	case deck.FormatPDF:
		return NewPDFExtractor(logger), nil
	case deck.FormatPPTX:
		return NewPPTXExtractor(logger), nil
	case deck.FormatPPT:
		return NewPPTExtractor(logger), nil
	default:
		return nil, fmt.Errorf("%w: %s", deck.ErrUnsupportedFormat, f)
	}
}
