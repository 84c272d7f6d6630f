package deck

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

var (
	sigPDF = []byte("%PDF-")
	sigZIP = []byte{0x50, 0x4B, 0x03, 0x04}
	sigCFB = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
)

// DetectFormat classifies a file as PDF, PPT, or PPTX using the extension
// and the leading magic bytes. It reads at most 8 bytes of the file.
func DetectFormat(path string) (Format, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return "", err
	}

	// Reject unknown extensions before touching the content, so an
	// unreadable or empty file with a foreign extension still reports
	// unsupported rather than corrupt.
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".pdf", ".ppt", ".pptx":
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}

	sig := make([]byte, 8)
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	n, err := io.ReadFull(f, sig)
	f.Close()
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", fmt.Errorf("%w: %s: %v", ErrCorruptDocument, path, err)
	}
	// A short read means the file is smaller than any valid deck; it falls
	// through to the signature mismatch below.
	sig = sig[:n]

	switch ext {
	case ".pdf":
		if bytes.HasPrefix(sig, sigPDF) {
			return FormatPDF, nil
		}
	case ".pptx":
		if bytes.HasPrefix(sig, sigZIP) {
			return FormatPPTX, nil
		}
	case ".ppt":
		if bytes.HasPrefix(sig, sigCFB) {
			return FormatPPT, nil
		}
		// Decks saved as .ppt are often OOXML underneath.
		if bytes.HasPrefix(sig, sigZIP) {
			return FormatPPTX, nil
		}
	}

	// Extension claimed a supported format but the signature disagrees.
	return "", fmt.Errorf("%w: %s: signature mismatch", ErrUnsupportedFormat, path)
}
