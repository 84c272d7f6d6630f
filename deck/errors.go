package deck

import "errors"

var (
	// ErrFileNotFound means the input path does not exist.
	ErrFileNotFound = errors.New("file not found")

	// ErrUnsupportedFormat means the file is none of pdf, ppt, pptx.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrCorruptDocument means the container itself could not be opened.
	// A single unreadable page is a partial failure, not corruption.
	ErrCorruptDocument = errors.New("corrupt document")

	// ErrEmptyDocument means the container opened but holds zero pages.
	ErrEmptyDocument = errors.New("empty document")
)
