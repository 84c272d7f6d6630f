package extract

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"image"
	"io"
	"os"
	"strings"
	"unicode/utf16"

	"github.com/richardlehane/mscfb"
	"go.uber.org/zap"

	"decklens/deck"
)

// Legacy PowerPoint record types. The binary stream is a tree of records,
// each with an 8-byte header: recVer+recInstance (2), recType (2),
// recLen (4, little endian).
const (
	recSlideListWithText = 0x0FF0
	recSlidePersistAtom  = 0x03F3
	recTextCharsAtom     = 0x0FA0 // UTF-16LE
	recTextBytesAtom     = 0x0FA8 // single-byte ANSI
)

// BLIP record types in the Pictures stream.
const (
	blipJPEG  = 0xF01D
	blipPNG   = 0xF01E
	blipJPEG2 = 0xF02A
)

// PPTExtractor reads legacy binary PowerPoint files. The .ppt container is
// an OLE2 compound file; text records live in the "PowerPoint Document"
// stream and embedded pictures in the "Pictures" stream. No conversion
// step is exposed to callers: a stream that cannot be parsed is reported
// as a corrupt document, same as any other extractor.
type PPTExtractor struct {
	logger *zap.Logger
}

func NewPPTExtractor(logger *zap.Logger) *PPTExtractor {
	return &PPTExtractor{logger: logger}
}

func (p *PPTExtractor) openStreams(path string) (docStream, pictures []byte, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s: %v", deck.ErrCorruptDocument, path, err)
	}
	cfb, err := mscfb.New(bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s: %v", deck.ErrCorruptDocument, path, err)
	}
	for {
		entry, nextErr := cfb.Next()
		if nextErr != nil {
			break
		}
		switch entry.Name {
		case "PowerPoint Document":
			docStream, _ = io.ReadAll(entry)
		case "Pictures":
			pictures, _ = io.ReadAll(entry)
		}
	}
	if len(docStream) == 0 {
		return nil, nil, fmt.Errorf("%w: %s: no PowerPoint Document stream", deck.ErrCorruptDocument, path)
	}
	return docStream, pictures, nil
}

// ExtractText walks the record tree and groups text atoms by slide. Slide
// boundaries come from the SlidePersistAtom entries of the slide
// collection; a deck whose text precedes any boundary lands on slide 1.
func (p *PPTExtractor) ExtractText(ctx context.Context, path string) ([]deck.PageText, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	docStream, _, err := p.openStreams(path)
	if err != nil {
		return nil, err
	}
	slides := parseSlideTexts(docStream)
	pages := make([]deck.PageText, 0, len(slides))
	for i, text := range slides {
		pages = append(pages, deck.PageText{Ordinal: i + 1, Text: text})
	}
	return pages, nil
}

// ExtractImages decodes the BLIP store. The Pictures stream does not say
// which slide owns a picture, so assets are assigned slide ordinals in
// store order, clamped to the slide count.
func (p *PPTExtractor) ExtractImages(ctx context.Context, path string) ([]deck.ImageAsset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	docStream, pictures, err := p.openStreams(path)
	if err != nil {
		return nil, err
	}
	slideCount := len(parseSlideTexts(docStream))
	if slideCount == 0 {
		slideCount = 1
	}

	var assets []deck.ImageAsset
	for i, blob := range parseBLIPs(pictures) {
		ordinal := i + 1
		if ordinal > slideCount {
			ordinal = slideCount
		}
		asset := deck.ImageAsset{
			PageOrdinal: ordinal,
			Data:        blob.data,
			MIMEType:    blob.mime,
		}
		if cfg, _, err := image.DecodeConfig(bytes.NewReader(blob.data)); err == nil {
			asset.Width = cfg.Width
			asset.Height = cfg.Height
		}
		assets = append(assets, asset)
	}
	return assets, nil
}

// parseSlideTexts returns per-slide text in deck order. Returns at least
// one slide when any text exists at all.
func parseSlideTexts(data []byte) []string {
	w := &pptWalker{}
	w.walk(data, false)
	out := make([]string, len(w.slides))
	for i, sb := range w.slides {
		out[i] = strings.TrimSpace(sb.String())
	}
	return out
}

type pptWalker struct {
	slides  []*strings.Builder
	current int // 1-based, 0 means no slide boundary seen yet
}

func (w *pptWalker) walk(data []byte, inSlideList bool) {
	pos := 0
	for pos+8 <= len(data) {
		verInstance := binary.LittleEndian.Uint16(data[pos : pos+2])
		recType := binary.LittleEndian.Uint16(data[pos+2 : pos+4])
		recLen := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		recVer := verInstance & 0x0F
		recInstance := verInstance >> 4
		pos += 8
		if recLen > len(data)-pos {
			break
		}
		body := data[pos : pos+recLen]

		switch {
		case recVer == 0x0F:
			// Container record, recurse. Instance 0 of SlideListWithText
			// is the slide collection; other instances hold masters and
			// notes whose persist atoms must not open new slides.
			w.walk(body, recType == recSlideListWithText && recInstance == 0)
		case recType == recSlidePersistAtom && inSlideList:
			w.current = len(w.slides) + 1
			w.slides = append(w.slides, &strings.Builder{})
		case recType == recTextCharsAtom:
			w.append(decodeUTF16LE(body))
		case recType == recTextBytesAtom:
			w.append(string(body))
		}
		pos += recLen
	}
}

func (w *pptWalker) append(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	if w.current == 0 {
		w.current = 1
		w.slides = append(w.slides, &strings.Builder{})
	}
	sb := w.slides[w.current-1]
	if sb.Len() > 0 {
		sb.WriteByte('\n')
	}
	sb.WriteString(text)
}

func decodeUTF16LE(b []byte) string {
	u16 := make([]uint16, len(b)/2)
	for i := range u16 {
		u16[i] = binary.LittleEndian.Uint16(b[i*2 : i*2+2])
	}
	return string(utf16.Decode(u16))
}

type blipBlob struct {
	data []byte
	mime string
}

// parseBLIPs walks the Pictures stream. Each record is a BLIP with an
// 8-byte header followed by one or two 16-byte UIDs and a tag byte before
// the raw payload. Metafile BLIPs (WMF/EMF) are skipped: Go has no native
// renderer for them.
func parseBLIPs(data []byte) []blipBlob {
	var blobs []blipBlob
	pos := 0
	for pos+8 <= len(data) {
		verInstance := binary.LittleEndian.Uint16(data[pos : pos+2])
		recType := binary.LittleEndian.Uint16(data[pos+2 : pos+4])
		recLen := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		recInstance := verInstance >> 4
		start := pos + 8
		if recLen > len(data)-start {
			break
		}
		pos = start + recLen

		var mime string
		switch recType {
		case blipJPEG, blipJPEG2:
			mime = "image/jpeg"
		case blipPNG:
			mime = "image/png"
		default:
			continue
		}

		// Single UID: 16 bytes + 1 tag byte. The dual-UID variant adds a
		// second UID and is flagged by the odd recInstance value.
		headerSize := 17
		if recInstance&0x01 != 0 {
			headerSize = 33
		}
		if recLen <= headerSize {
			continue
		}
		payload := append([]byte(nil), data[start+headerSize:start+recLen]...)
		blobs = append(blobs, blipBlob{data: payload, mime: mime})
	}
	return blobs
}
