// Package pipeline wires the extraction stages into the single linear run:
// detect, extract, classify, fall back to page renders when no text layer
// exists, collect URLs, normalize, analyze, enrich, report.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"decklens/analysis"
	"decklens/bundle"
	"decklens/classify"
	"decklens/config"
	"decklens/deck"
	"decklens/extract"
	"decklens/report"
	"decklens/research"
	"decklens/urlex"
)

// URLReader reads URL strings out of images, keyed by page ordinal.
type URLReader interface {
	ReadURLs(ctx context.Context, images []deck.ImageAsset) map[int][]string
}

// TextReader recognizes plain text in images, keyed by page ordinal.
type TextReader interface {
	ReadText(images []deck.ImageAsset) map[int][]string
}

// Analyzer produces the investment analysis for a finished bundle.
type Analyzer interface {
	Analyze(ctx context.Context, b *deck.ContentBundle, companyName string, findings []research.Finding) (*analysis.Result, error)
}

// Enricher looks up well-formed URLs, best effort.
type Enricher interface {
	Lookup(ctx context.Context, urls []deck.ExtractedURL) []research.Finding
}

// RunResult summarizes a completed run.
type RunResult struct {
	ReportPath   string
	Format       deck.Format
	Pages        int
	Images       int
	URLs         int
	TextIsNative bool
	Model        string
}

type Pipeline struct {
	logger     *zap.Logger
	classifier *classify.Classifier
	normalizer *bundle.Normalizer
	reporter   *report.Generator

	analyzer Analyzer
	vision   URLReader // nil disables vision URL extraction
	ocr      TextReader
	enricher Enricher

	now func() time.Time
}

func New(cfg *config.Config, logger *zap.Logger, analyzer Analyzer, vision URLReader, ocr TextReader, enricher Enricher) *Pipeline {
	return &Pipeline{
		logger:     logger,
		classifier: classify.NewClassifier(cfg.Classify),
		normalizer: bundle.NewNormalizer(logger, cfg.Limits),
		reporter:   report.NewGenerator(logger),
		analyzer:   analyzer,
		vision:     vision,
		ocr:        ocr,
		enricher:   enricher,
		now:        time.Now,
	}
}

// Run processes one deck file end to end and writes the report.
func (p *Pipeline) Run(ctx context.Context, path, outPath string) (*RunResult, error) {
	runID := uuid.NewString()
	logger := p.logger.With(zap.String("run_id", runID), zap.String("file", path))

	b, format, err := p.ExtractBundle(ctx, path)
	if err != nil {
		return nil, err
	}
	logger.Info("extraction complete",
		zap.String("format", string(format)),
		zap.Int("pages", len(b.Texts)),
		zap.Int("images", len(b.Images)),
		zap.Int("urls", len(b.URLs)),
		zap.Bool("text_is_native", b.TextIsNative))

	var findings []research.Finding
	if p.enricher != nil {
		findings = p.enricher.Lookup(ctx, b.WellFormedURLs())
	}

	companyName := analysis.GuessCompanyName(b, filepath.Base(path))
	result, err := p.analyzer.Analyze(ctx, b, companyName, findings)
	if err != nil {
		return nil, err
	}

	reportPath, err := p.reporter.Generate(outPath, b, result.Content, findings, report.Metadata{
		RunID:       runID,
		SourcePath:  path,
		Format:      format,
		Model:       result.Model,
		GeneratedAt: p.now(),
	})
	if err != nil {
		return nil, err
	}

	return &RunResult{
		ReportPath:   reportPath,
		Format:       format,
		Pages:        len(b.Texts),
		Images:       len(b.Images),
		URLs:         len(b.URLs),
		TextIsNative: b.TextIsNative,
		Model:        result.Model,
	}, nil
}

// ExtractBundle runs the extraction core only: everything up to and
// including normalization, no model calls except vision URL reading.
func (p *Pipeline) ExtractBundle(ctx context.Context, path string) (*deck.ContentBundle, deck.Format, error) {
	format, err := deck.DetectFormat(path)
	if err != nil {
		return nil, "", err
	}
	extractor, err := extract.ForFormat(format, p.logger)
	if err != nil {
		return nil, "", err
	}

	texts, err := extractor.ExtractText(ctx, path)
	if err != nil {
		return nil, format, err
	}
	if len(texts) == 0 {
		return nil, format, fmt.Errorf("%w: %s", deck.ErrEmptyDocument, path)
	}
	images, err := extractor.ExtractImages(ctx, path)
	if err != nil {
		return nil, format, err
	}

	// The fallback decision is binary over the whole document: only a deck
	// where every page came back empty is treated as image-only.
	if allEmpty(texts) {
		p.logger.Info("no text layer found, switching to page renders")
		if renderer, ok := extractor.(extract.PageRenderer); ok {
			renders, err := renderer.RenderPages(ctx, path)
			if err != nil {
				return nil, format, err
			}
			images = append(images, renders...)
		} else {
			// Slide formats have no native rasterizer; the embedded
			// pictures already extracted are all the visual content
			// available.
			p.logger.Warn("format has no page renderer, relying on embedded images",
				zap.String("format", string(format)))
		}
	}

	for i := range images {
		images[i].Informative = p.classifier.Informative(images[i])
	}
	informative := make([]deck.ImageAsset, 0, len(images))
	for _, img := range images {
		if img.Informative {
			informative = append(informative, img)
		}
	}

	collector := p.collectURLs(ctx, texts, informative)

	b, err := p.normalizer.Build(texts, images, collector.URLs(), collector.Emails())
	if err != nil {
		return nil, format, err
	}
	return b, format, nil
}

func (p *Pipeline) collectURLs(ctx context.Context, texts []deck.PageText, informative []deck.ImageAsset) *urlex.Collector {
	collector := urlex.NewCollector()
	collector.AddPages(texts)

	// Readers key their results by page ordinal; iterate in ascending page
	// order so first-seen URL provenance is stable across runs.
	if p.ocr != nil && len(informative) > 0 {
		byPage := p.ocr.ReadText(informative)
		for _, ord := range pageOrder(byPage) {
			for _, block := range byPage[ord] {
				collector.AddText(block, ord, deck.URLFromImage)
			}
		}
	}
	if p.vision != nil && len(informative) > 0 {
		byPage := p.vision.ReadURLs(ctx, informative)
		for _, ord := range pageOrder(byPage) {
			for _, u := range byPage[ord] {
				collector.AddCandidate(u, ord, deck.URLFromImage)
			}
		}
	}
	return collector
}

func pageOrder[V any](m map[int]V) []int {
	out := make([]int, 0, len(m))
	for ord := range m {
		out = append(out, ord)
	}
	sort.Ints(out)
	return out
}

func allEmpty(texts []deck.PageText) bool {
	for _, t := range texts {
		if t.Text != "" {
			return false
		}
	}
	return true
}

// IsFatal reports whether an error is one of the run-fatal kinds rather
// than a context cancellation.
func IsFatal(err error) bool {
	return errors.Is(err, deck.ErrFileNotFound) ||
		errors.Is(err, deck.ErrUnsupportedFormat) ||
		errors.Is(err, deck.ErrCorruptDocument) ||
		errors.Is(err, deck.ErrEmptyDocument)
}
