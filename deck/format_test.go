package deck

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}

func TestDetectFormat(t *testing.T) {
	cfbSig := []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1, 0x00, 0x00}

	testCases := []struct {
		name    string
		file    string
		content []byte
		want    Format
		wantErr error
	}{
		{"PDFSignature", "deck.pdf", []byte("%PDF-1.7 rest"), FormatPDF, nil},
		{"PPTXZip", "deck.pptx", []byte("PK\x03\x04rest of zip"), FormatPPTX, nil},
		{"LegacyPPT", "deck.ppt", cfbSig, FormatPPT, nil},
		{"PPTExtensionWithZip", "deck.ppt", []byte("PK\x03\x04modern container"), FormatPPTX, nil},
		{"UnsupportedExtension", "deck.docx", []byte("PK\x03\x04"), "", ErrUnsupportedFormat},
		{"SignatureMismatch", "deck.pdf", []byte("not a pdf at all"), "", ErrUnsupportedFormat},
		{"TruncatedFile", "deck.pdf", []byte("%P"), "", ErrUnsupportedFormat},
		{"EmptyFileUnknownExtension", "deck.key", nil, "", ErrUnsupportedFormat},
		{"EmptyFileSupportedExtension", "deck.pdf", nil, "", ErrUnsupportedFormat},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeFile(t, tc.file, tc.content)
			got, err := DetectFormat(path)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected error %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("expected format %q, got %q", tc.want, got)
			}
		})
	}
}

func TestDetectFormatMissingFile(t *testing.T) {
	_, err := DetectFormat(filepath.Join(t.TempDir(), "nope.pdf"))
	if !errors.Is(err, ErrFileNotFound) {
		t.Fatalf("expected ErrFileNotFound, got %v", err)
	}
}
