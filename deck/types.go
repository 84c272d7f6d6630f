package deck

// Format identifies the container format of a pitch deck file.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatPPT  Format = "ppt"
	FormatPPTX Format = "pptx"
)

// PageText is one page or slide worth of extracted text. Ordinals are
// 1-based and contiguous within a document; pages without text carry an
// empty string so the sequence never has holes.
type PageText struct {
	Ordinal int    `json:"ordinal"`
	Text    string `json:"text"`
	// Partial marks a page whose extraction failed. The page stays in the
	// sequence with empty text so downstream consumers can see the gap.
	Partial bool `json:"partial,omitempty"`
}

// ImageAsset is a raster image pulled out of a document, tied to the page
// or slide it came from.
type ImageAsset struct {
	PageOrdinal int    `json:"page_ordinal"`
	Data        []byte `json:"-"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	// MIMEType is the detected payload type, e.g. "image/png".
	MIMEType string `json:"mime_type"`
	// Informative is set once by the classifier. Assets that fail
	// classification are dropped and never revisited.
	Informative bool `json:"informative"`
	// PageRender marks a whole-page raster produced by the fallback path
	// rather than an image embedded in the document.
	PageRender bool `json:"page_render,omitempty"`
}

// URLSource says where a URL literal was found.
type URLSource string

const (
	URLFromText  URLSource = "text"
	URLFromImage URLSource = "image"
)

// ExtractedURL is a URL-shaped literal found in the deck. Malformed entries
// are kept for reporting but excluded from enrichment.
type ExtractedURL struct {
	Raw         string    `json:"raw"`
	Source      URLSource `json:"source"`
	PageOrdinal int       `json:"page_ordinal"`
	WellFormed  bool      `json:"well_formed"`
}

// ContentBundle is the terminal artifact of extraction: everything the
// analysis call needs, in document order, built once per run and immutable
// afterwards.
type ContentBundle struct {
	Texts  []PageText     `json:"texts"`
	Images []ImageAsset   `json:"images"`
	URLs   []ExtractedURL `json:"urls"`
	Emails []string       `json:"emails,omitempty"`
	// TextIsNative is false when every page lacked a text layer and the
	// content went through the page-render fallback instead.
	TextIsNative bool `json:"text_is_native"`
}

// FullText joins the page texts in order, skipping empty pages.
func (b *ContentBundle) FullText() string {
	n := 0
	for _, p := range b.Texts {
		n += len(p.Text) + 2
	}
	buf := make([]byte, 0, n)
	for _, p := range b.Texts {
		if p.Text == "" {
			continue
		}
		if len(buf) > 0 {
			buf = append(buf, '\n', '\n')
		}
		buf = append(buf, p.Text...)
	}
	return string(buf)
}

// WellFormedURLs returns only the URLs eligible for enrichment.
func (b *ContentBundle) WellFormedURLs() []ExtractedURL {
	var out []ExtractedURL
	for _, u := range b.URLs {
		if u.WellFormed {
			out = append(out, u)
		}
	}
	return out
}
