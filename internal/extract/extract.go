// Package extract turns uploaded files into plain text for chunking.
package extract

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/ledongthuc/pdf"
)

// Supported upload kinds.
const (
	KindPDF = "pdf"
	KindTXT = "txt"
)

// ErrUnsupportedType is returned for uploads that are neither PDF nor
// plain text. Detection goes by content, not by file extension.
var ErrUnsupportedType = errors.New("unsupported file type")

// DetectKind sniffs the file content and returns its kind.
func DetectKind(data []byte) (string, error) {
	mtype := mimetype.Detect(data)
	switch {
	case mtype.Is("application/pdf"):
		return KindPDF, nil
	case mtype.Is("text/plain"):
		return KindTXT, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, mtype.String())
	}
}

// Text extracts plain text from an upload of the given kind.
func Text(data []byte, kind string) (string, error) {
	switch kind {
	case KindPDF:
		return pdfText(data)
	case KindTXT:
		if !utf8.Valid(data) {
			return "", errors.New("text file is not valid UTF-8")
		}
		return string(data), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, kind)
	}
}

func pdfText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("opening pdf: %w", err)
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extracting pdf text: %w", err)
	}
	var sb strings.Builder
	if _, err := io.Copy(&sb, plain); err != nil {
		return "", fmt.Errorf("reading pdf text: %w", err)
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", errors.New("pdf contains no extractable text")
	}
	return text, nil
}
