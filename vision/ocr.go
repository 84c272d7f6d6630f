package vision

import (
	"github.com/otiai10/gosseract/v2"
	"go.uber.org/zap"

	"decklens/deck"
)

// OCR runs local tesseract over images as an offline complement to the
// vision model. It only feeds the URL scanner, so recognition errors cost
// nothing worse than a missed link.
type OCR struct {
	logger *zap.Logger
}

func NewOCR(logger *zap.Logger) *OCR {
	return &OCR{logger: logger}
}

// ReadText OCRs each image and returns recognized text keyed by page
// ordinal. Failures are per-image and non-fatal.
func (o *OCR) ReadText(images []deck.ImageAsset) map[int][]string {
	client := gosseract.NewClient()
	defer client.Close()

	client.SetVariable("tessedit_ocr_engine_mode", "1")  // LSTM only
	client.SetVariable("tessedit_pageseg_mode", "3")     // automatic segmentation
	client.SetVariable("preserve_interword_spaces", "1") // keep URL spacing intact

	out := make(map[int][]string)
	for _, img := range images {
		if err := client.SetImageFromBytes(img.Data); err != nil {
			o.logger.Warn("ocr set image failed",
				zap.Int("page", img.PageOrdinal),
				zap.Error(err))
			continue
		}
		text, err := client.Text()
		if err != nil {
			o.logger.Warn("ocr failed",
				zap.Int("page", img.PageOrdinal),
				zap.Error(err))
			continue
		}
		if text != "" {
			out[img.PageOrdinal] = append(out[img.PageOrdinal], text)
		}
	}
	return out
}
