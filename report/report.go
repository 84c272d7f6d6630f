// Package report renders the analysis into a markdown file. Rendering is
// plain string assembly from the bundle, the model response, and the
// research annotations.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"decklens/deck"
	"decklens/research"
)

// Metadata captures run facts surfaced in the report header.
type Metadata struct {
	RunID       string
	SourcePath  string
	Format      deck.Format
	Model       string
	GeneratedAt time.Time
}

type Generator struct {
	logger *zap.Logger
}

func NewGenerator(logger *zap.Logger) *Generator {
	return &Generator{logger: logger}
}

// DefaultPath derives an output path next to the source file.
func DefaultPath(sourcePath string, now time.Time) string {
	base := strings.TrimSuffix(filepath.Base(sourcePath), filepath.Ext(sourcePath))
	name := fmt.Sprintf("%s_analysis_%s.md", base, now.Format("20060102_150405"))
	return filepath.Join(filepath.Dir(sourcePath), name)
}

// Generate writes the report and returns the path written.
func (g *Generator) Generate(outPath string, b *deck.ContentBundle, analysisMarkdown string, findings []research.Finding, meta Metadata) (string, error) {
	if outPath == "" {
		outPath = DefaultPath(meta.SourcePath, meta.GeneratedAt)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "# Investment Analysis: %s\n\n", filepath.Base(meta.SourcePath))
	sb.WriteString("## Run Details\n\n")
	fmt.Fprintf(&sb, "- **Source:** %s (%s)\n", meta.SourcePath, meta.Format)
	fmt.Fprintf(&sb, "- **Pages/Slides:** %d\n", len(b.Texts))
	fmt.Fprintf(&sb, "- **Text layer:** %s\n", textLayerLabel(b))
	fmt.Fprintf(&sb, "- **Images analyzed:** %d\n", len(b.Images))
	fmt.Fprintf(&sb, "- **Model:** %s\n", meta.Model)
	fmt.Fprintf(&sb, "- **Generated:** %s\n", meta.GeneratedAt.Format(time.RFC3339))
	fmt.Fprintf(&sb, "- **Run ID:** %s\n\n", meta.RunID)

	if partial := partialPages(b); len(partial) > 0 {
		fmt.Fprintf(&sb, "> Note: extraction was incomplete on page(s) %s; their content is missing from this analysis.\n\n", joinInts(partial))
	}

	sb.WriteString("---\n\n")
	sb.WriteString(analysisMarkdown)
	sb.WriteString("\n")

	if len(b.URLs) > 0 {
		sb.WriteString("\n## Links Found in Deck\n\n")
		for _, u := range b.URLs {
			if u.WellFormed {
				fmt.Fprintf(&sb, "- %s (page %d)\n", u.Raw, u.PageOrdinal)
			} else {
				fmt.Fprintf(&sb, "- %s (page %d, malformed, not researched)\n", u.Raw, u.PageOrdinal)
			}
		}
	}
	if len(b.Emails) > 0 {
		sb.WriteString("\n## Contact Addresses\n\n")
		for _, e := range b.Emails {
			fmt.Fprintf(&sb, "- %s\n", e)
		}
	}
	if len(findings) > 0 {
		sb.WriteString("\n## Online Research\n\n")
		for _, f := range findings {
			if !f.Reachable {
				fmt.Fprintf(&sb, "- **%s**: unreachable (%s)\n", f.URL, f.Error)
				continue
			}
			title := f.Title
			if title == "" {
				title = "no title"
			}
			fmt.Fprintf(&sb, "- **%s**: %s\n", f.URL, title)
			if f.Excerpt != "" {
				fmt.Fprintf(&sb, "\n  > %s\n", strings.ReplaceAll(f.Excerpt, "\n", "\n  > "))
			}
		}
	}

	if err := os.WriteFile(outPath, []byte(sb.String()), 0644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	g.logger.Info("report written", zap.String("path", outPath))
	return outPath, nil
}

func textLayerLabel(b *deck.ContentBundle) string {
	if b.TextIsNative {
		return "native"
	}
	return "none (page renders analyzed instead)"
}

func partialPages(b *deck.ContentBundle) []int {
	var out []int
	for _, p := range b.Texts {
		if p.Partial {
			out = append(out, p.Ordinal)
		}
	}
	return out
}

func joinInts(nums []int) string {
	parts := make([]string, len(nums))
	for i, n := range nums {
		parts[i] = fmt.Sprintf("%d", n)
	}
	return strings.Join(parts, ", ")
}
