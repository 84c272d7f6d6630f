package extract

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"go.uber.org/zap"

	"decklens/deck"

	_ "image/gif"
	_ "image/jpeg"
)

// renderDPI is the resolution for whole-page fallback renders. High enough
// for the vision model to read small print, low enough to stay under the
// request size budget.
const renderDPI = 150

type PDFExtractor struct {
	logger *zap.Logger
}

func NewPDFExtractor(logger *zap.Logger) *PDFExtractor {
	return &PDFExtractor{logger: logger}
}

// ExtractText reads the text layer of every page. Pages without a text
// layer yield an empty string; only a container that cannot be opened at
// all is an error.
func (p *PDFExtractor) ExtractText(ctx context.Context, path string) ([]deck.PageText, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", deck.ErrCorruptDocument, path, err)
	}
	defer doc.Close()

	pages := make([]deck.PageText, 0, doc.NumPage())
	for i := 0; i < doc.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		text, err := doc.Text(i)
		if err != nil {
			p.logger.Warn("page text extraction failed",
				zap.String("file", path),
				zap.Int("page", i+1),
				zap.Error(err))
			pages = append(pages, deck.PageText{Ordinal: i + 1, Partial: true})
			continue
		}
		pages = append(pages, deck.PageText{Ordinal: i + 1, Text: strings.TrimSpace(text)})
	}
	return pages, nil
}

// ExtractImages pulls the embedded raster images of every page, in page
// order. A PDF without images is fine.
func (p *PDFExtractor) ExtractImages(ctx context.Context, path string) ([]deck.ImageAsset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", deck.ErrCorruptDocument, path, err)
	}
	defer f.Close()

	pctx, err := api.ReadValidateAndOptimize(f, model.NewDefaultConfiguration())
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", deck.ErrCorruptDocument, path, err)
	}

	var assets []deck.ImageAsset
	for pageNr := 1; pageNr <= pctx.PageCount; pageNr++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		imgs, err := pdfcpu.ExtractPageImages(pctx, pageNr, false)
		if err != nil {
			p.logger.Warn("page image extraction failed",
				zap.String("file", path),
				zap.Int("page", pageNr),
				zap.Error(err))
			continue
		}
		// The extractor keys images by object number; read them in sorted
		// order so the asset sequence is identical on every run.
		for _, objNr := range sortedObjNrs(imgs) {
			img := imgs[objNr]
			data, err := io.ReadAll(img)
			if err != nil || len(data) == 0 {
				continue
			}
			asset := deck.ImageAsset{
				PageOrdinal: pageNr,
				Data:        data,
				MIMEType:    mimeFromFileType(img.FileType),
			}
			if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
				asset.Width = cfg.Width
				asset.Height = cfg.Height
			}
			assets = append(assets, asset)
		}
	}
	return assets, nil
}

// RenderPages rasterizes each page to PNG for the image-only fallback.
func (p *PDFExtractor) RenderPages(ctx context.Context, path string) ([]deck.ImageAsset, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", deck.ErrCorruptDocument, path, err)
	}
	defer doc.Close()

	assets := make([]deck.ImageAsset, 0, doc.NumPage())
	for i := 0; i < doc.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		img, err := doc.ImageDPI(i, renderDPI)
		if err != nil {
			p.logger.Warn("page render failed",
				zap.String("file", path),
				zap.Int("page", i+1),
				zap.Error(err))
			continue
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			p.logger.Warn("page render encode failed", zap.Int("page", i+1), zap.Error(err))
			continue
		}
		bounds := img.Bounds()
		assets = append(assets, deck.ImageAsset{
			PageOrdinal: i + 1,
			Data:        buf.Bytes(),
			Width:       bounds.Dx(),
			Height:      bounds.Dy(),
			MIMEType:    "image/png",
			PageRender:  true,
		})
	}
	return assets, nil
}

func sortedObjNrs(imgs map[int]model.Image) []int {
	nrs := make([]int, 0, len(imgs))
	for nr := range imgs {
		nrs = append(nrs, nr)
	}
	sort.Ints(nrs)
	return nrs
}

func mimeFromFileType(ft string) string {
	switch strings.ToLower(ft) {
	case "png":
		return "image/png"
	case "jpg", "jpeg":
		return "image/jpeg"
	case "tif", "tiff":
		return "image/tiff"
	case "gif":
		return "image/gif"
	default:
		return "application/octet-stream"
	}
}
