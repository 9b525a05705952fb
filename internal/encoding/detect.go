// Package encoding converts station feeds and statements between UTF-8 and the legacy
// charsets Brazilian station back offices still export.
package encoding

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Charset names accepted by NewWriter.
const (
	UTF8        = "utf-8"
	Windows1252 = "windows-1252"
	ISO88591    = "iso-8859-1"
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

const sniffSize = 4096

// NewUTF8Reader detects the charset of a feed and decodes it to UTF-8.
//
// Detection order:
//  1. BOM (UTF-8 BOM is stripped, UTF-16 LE/BE is decoded)
//  2. valid UTF-8 is returned as-is
//  3. chardet heuristics
//  4. Windows-1252
func NewUTF8Reader(r io.Reader) (io.Reader, error) {
	br := bufio.NewReaderSize(r, sniffSize)

	buf, err := br.Peek(sniffSize)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, fmt.Errorf("peek: %w", err)
	}

	switch {
	case bytes.HasPrefix(buf, bomUTF8):
		_, _ = br.Discard(len(bomUTF8))
		return br, nil
	case bytes.HasPrefix(buf, bomUTF16LE):
		return transform.NewReader(br, unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()), nil
	case bytes.HasPrefix(buf, bomUTF16BE):
		return transform.NewReader(br, unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewDecoder()), nil
	}

	if utf8.Valid(buf) || (len(buf) == sniffSize && validPrefix(buf)) {
		return br, nil
	}

	result, detectErr := chardet.NewTextDetector().DetectBest(buf)
	if detectErr == nil {
		switch result.Charset {
		case "UTF-8":
			return br, nil
		case "ISO-8859-1":
			return transform.NewReader(br, charmap.ISO8859_1.NewDecoder()), nil
		case "ISO-8859-15":
			return transform.NewReader(br, charmap.ISO8859_15.NewDecoder()), nil
		}
	}

	return transform.NewReader(br, charmap.Windows1252.NewDecoder()), nil
}

// validPrefix tolerates a rune cut at the end of a full sniff window.
func validPrefix(buf []byte) bool {
	for range utf8.UTFMax - 1 {
		if r, _ := utf8.DecodeLastRune(buf); r != utf8.RuneError {
			return false
		}

		buf = buf[:len(buf)-1]
		if utf8.Valid(buf) {
			return true
		}
	}

	return false
}

// NewWriter returns a writer that encodes UTF-8 input into charset.
// Close flushes pending bytes; it does not close w.
func NewWriter(w io.Writer, charset string) (io.WriteCloser, error) {
	enc, err := lookup(charset)
	if err != nil {
		return nil, err
	}

	if enc == nil {
		return nopCloser{w}, nil
	}

	return transform.NewWriter(w, encoding.ReplaceUnsupported(enc.NewEncoder())), nil
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

func lookup(charset string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(charset)) {
	case "", UTF8, "utf8":
		return nil, nil
	case Windows1252, "cp1252":
		return charmap.Windows1252, nil
	case ISO88591, "latin1":
		return charmap.ISO8859_1, nil
	}

	return nil, fmt.Errorf("unsupported charset %q", charset)
}
