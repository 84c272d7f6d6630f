package extract

import (
	"encoding/binary"
	"testing"
	"unicode/utf16"
)

// record assembles one binary PowerPoint record: 8-byte header + body.
func record(ver, instance, recType uint16, body []byte) []byte {
	out := make([]byte, 8+len(body))
	binary.LittleEndian.PutUint16(out[0:2], ver&0x0F|instance<<4)
	binary.LittleEndian.PutUint16(out[2:4], recType)
	binary.LittleEndian.PutUint32(out[4:8], uint32(len(body)))
	copy(out[8:], body)
	return out
}

func utf16Bytes(s string) []byte {
	u16 := utf16.Encode([]rune(s))
	out := make([]byte, len(u16)*2)
	for i, v := range u16 {
		binary.LittleEndian.PutUint16(out[i*2:i*2+2], v)
	}
	return out
}

func TestParseSlideTexts(t *testing.T) {
	persist := make([]byte, 20)

	t.Run("TwoSlidesWithBoundaries", func(t *testing.T) {
		var body []byte
		body = append(body, record(0, 0, recSlidePersistAtom, persist)...)
		body = append(body, record(0, 0, recTextBytesAtom, []byte("Acme Robotics"))...)
		body = append(body, record(0, 0, recTextBytesAtom, []byte("Pre-seed pitch"))...)
		body = append(body, record(0, 0, recSlidePersistAtom, persist)...)
		body = append(body, record(0, 0, recTextCharsAtom, utf16Bytes("The problem"))...)
		stream := record(0x0F, 0, recSlideListWithText, body)

		slides := parseSlideTexts(stream)
		if len(slides) != 2 {
			t.Fatalf("expected 2 slides, got %d: %v", len(slides), slides)
		}
		if slides[0] != "Acme Robotics\nPre-seed pitch" {
			t.Errorf("slide 1 text wrong: %q", slides[0])
		}
		if slides[1] != "The problem" {
			t.Errorf("slide 2 text wrong: %q", slides[1])
		}
	})

	t.Run("TextBeforeAnyBoundaryLandsOnSlideOne", func(t *testing.T) {
		stream := record(0, 0, recTextBytesAtom, []byte("orphan text"))
		slides := parseSlideTexts(stream)
		if len(slides) != 1 || slides[0] != "orphan text" {
			t.Fatalf("expected orphan text on slide 1, got %v", slides)
		}
	})

	t.Run("NotesListDoesNotOpenSlides", func(t *testing.T) {
		// Instance 2 of SlideListWithText holds notes; its persist atoms
		// must not create deck slides.
		notes := record(0x0F, 2, recSlideListWithText, record(0, 0, recSlidePersistAtom, persist))
		slides := parseSlideTexts(notes)
		if len(slides) != 0 {
			t.Fatalf("expected no slides from notes list, got %v", slides)
		}
	})

	t.Run("TruncatedRecordStops", func(t *testing.T) {
		broken := record(0, 0, recTextBytesAtom, []byte("fine"))
		// Header that claims more bytes than remain.
		broken = append(broken, record(0, 0, recTextBytesAtom, make([]byte, 100))[:11]...)
		slides := parseSlideTexts(broken)
		if len(slides) != 1 || slides[0] != "fine" {
			t.Fatalf("truncated stream not handled: %v", slides)
		}
	})
}

func TestParseBLIPs(t *testing.T) {
	payload := []byte("raw-png-payload-bytes")
	body := make([]byte, 0, 17+len(payload))
	body = append(body, make([]byte, 16)...) // UID
	body = append(body, 0xFF)                // tag
	body = append(body, payload...)

	t.Run("SingleUIDPNG", func(t *testing.T) {
		stream := record(0, 0x6E0, blipPNG, body)
		blobs := parseBLIPs(stream)
		if len(blobs) != 1 {
			t.Fatalf("expected 1 blob, got %d", len(blobs))
		}
		if string(blobs[0].data) != string(payload) {
			t.Errorf("payload mismatch: %q", blobs[0].data)
		}
		if blobs[0].mime != "image/png" {
			t.Errorf("mime = %q", blobs[0].mime)
		}
	})

	t.Run("UnknownBlipTypeSkipped", func(t *testing.T) {
		stream := record(0, 0, 0xF01B, body) // WMF metafile
		if blobs := parseBLIPs(stream); len(blobs) != 0 {
			t.Fatalf("metafile should be skipped, got %d blobs", len(blobs))
		}
	})

	t.Run("EmptyStream", func(t *testing.T) {
		if blobs := parseBLIPs(nil); len(blobs) != 0 {
			t.Fatalf("expected no blobs from empty stream")
		}
	})
}
