package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"image"
	"io"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"decklens/deck"
)

// PPTXExtractor reads modern OOXML presentations. A .pptx file is a zip
// container; slide text lives in ppt/slides/slideN.xml and pictures are
// wired up through each slide's relationship part.
type PPTXExtractor struct {
	logger *zap.Logger
}

func NewPPTXExtractor(logger *zap.Logger) *PPTXExtractor {
	return &PPTXExtractor{logger: logger}
}

var slideNamePattern = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

type slidePart struct {
	num  int
	file *zip.File
}

func (p *PPTXExtractor) slides(r *zip.ReadCloser) []slidePart {
	var parts []slidePart
	for _, f := range r.File {
		m := slideNamePattern.FindStringSubmatch(f.Name)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		parts = append(parts, slidePart{num: n, file: f})
	}
	sort.Slice(parts, func(i, j int) bool { return parts[i].num < parts[j].num })
	return parts
}

// ExtractText returns one entry per slide in deck order. Slides without
// text runs yield an empty string.
func (p *PPTXExtractor) ExtractText(ctx context.Context, path string) ([]deck.PageText, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", deck.ErrCorruptDocument, path, err)
	}
	defer r.Close()

	parts := p.slides(r)
	pages := make([]deck.PageText, 0, len(parts))
	for i, part := range parts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rc, err := part.file.Open()
		if err != nil {
			p.logger.Warn("slide open failed",
				zap.String("file", path),
				zap.Int("slide", i+1),
				zap.Error(err))
			pages = append(pages, deck.PageText{Ordinal: i + 1, Partial: true})
			continue
		}
		text, err := slideText(rc)
		rc.Close()
		if err != nil {
			p.logger.Warn("slide parse failed",
				zap.String("file", path),
				zap.Int("slide", i+1),
				zap.Error(err))
			pages = append(pages, deck.PageText{Ordinal: i + 1, Partial: true})
			continue
		}
		pages = append(pages, deck.PageText{Ordinal: i + 1, Text: text})
	}
	return pages, nil
}

// slideText collects the character data of every <a:t> run, one line per
// run. DrawingML interleaves runs with formatting elements, so a plain
// token walk is enough.
func slideText(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	var runs []string
	depth := 0
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				depth++
			}
		case xml.EndElement:
			if t.Name.Local == "t" && depth > 0 {
				depth--
			}
		case xml.CharData:
			if depth > 0 {
				if s := strings.TrimSpace(string(t)); s != "" {
					runs = append(runs, s)
				}
			}
		}
	}
	return strings.Join(runs, "\n"), nil
}

// relationships is the subset of the OPC rels schema we need to find a
// slide's picture parts.
type relationships struct {
	Rels []relationship `xml:"Relationship"`
}

type relationship struct {
	ID     string `xml:"Id,attr"`
	Type   string `xml:"Type,attr"`
	Target string `xml:"Target,attr"`
}

// ExtractImages returns the pictures referenced by each slide, in slide
// order. Slides without pictures contribute nothing.
func (p *PPTXExtractor) ExtractImages(ctx context.Context, filePath string) ([]deck.ImageAsset, error) {
	r, err := zip.OpenReader(filePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", deck.ErrCorruptDocument, filePath, err)
	}
	defer r.Close()

	media := make(map[string]*zip.File)
	for _, f := range r.File {
		if strings.HasPrefix(f.Name, "ppt/media/") {
			media[f.Name] = f
		}
	}

	var assets []deck.ImageAsset
	for i, part := range p.slides(r) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		relsName := "ppt/slides/_rels/" + path.Base(part.file.Name) + ".rels"
		relsFile := fileByName(r, relsName)
		if relsFile == nil {
			continue
		}
		rc, err := relsFile.Open()
		if err != nil {
			continue
		}
		var rels relationships
		err = xml.NewDecoder(rc).Decode(&rels)
		rc.Close()
		if err != nil {
			p.logger.Warn("slide rels parse failed",
				zap.String("file", filePath),
				zap.Int("slide", i+1),
				zap.Error(err))
			continue
		}
		for _, rel := range rels.Rels {
			if !strings.HasSuffix(rel.Type, "/image") {
				continue
			}
			target := path.Clean("ppt/slides/" + rel.Target)
			mf, ok := media[target]
			if !ok {
				continue
			}
			data, err := readZipFile(mf)
			if err != nil || len(data) == 0 {
				continue
			}
			asset := deck.ImageAsset{
				PageOrdinal: i + 1,
				Data:        data,
				MIMEType:    mimeFromFileType(strings.TrimPrefix(path.Ext(target), ".")),
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

func fileByName(r *zip.ReadCloser, name string) *zip.File {
	for _, f := range r.File {
		if f.Name == name {
			return f
		}
	}
	return nil
}

func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
