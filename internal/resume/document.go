package resume

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"io"
	"mime"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"

	"github.com/spigell/ai-interviewer/internal/utils"
)

// Format is a supported résumé document type.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
)

const (
	mimePDF  = "application/pdf"
	mimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

var (
	ErrUnsupportedFormat = errors.New("only PDF and DOCX files are allowed")
	ErrEmptyDocument     = errors.New("no text found in document")
)

var (
	xmlParagraphEnd = regexp.MustCompile(`</w:p>|<w:br/>|<w:tab/>`)
	xmlTag          = regexp.MustCompile(`<[^>]+>`)
)

// DetectFormat classifies an upload by its MIME type. Generic or missing MIME
// types fall back to the file extension.
func DetectFormat(filename, contentType string) (Format, error) {
	mediaType := strings.TrimSpace(contentType)
	if parsed, _, err := mime.ParseMediaType(contentType); err == nil {
		mediaType = parsed
	}

	switch strings.ToLower(mediaType) {
	case mimePDF:
		return FormatPDF, nil
	case mimeDOCX:
		return FormatDOCX, nil
	case "", "application/octet-stream":
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, mediaType)
	}

	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".pdf":
		return FormatPDF, nil
	case ".docx":
		return FormatDOCX, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filename)
	}
}

// ExtractText reads the plain text of a document.
func ExtractText(format Format, r io.ReaderAt, size int64) (string, error) {
	var (
		text string
		err  error
	)

	switch format {
	case FormatPDF:
		text, err = extractPDF(r, size)
	case FormatDOCX:
		text, err = extractDOCX(r, size)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return "", err
	}

	text = strings.TrimSpace(utils.CollapseSpaces(text))
	if text == "" {
		return "", ErrEmptyDocument
	}
	return text, nil
}

// Parse detects the format of an upload, reads its text and extracts the fields.
func Parse(filename, contentType string, r io.ReaderAt, size int64) (Fields, error) {
	format, err := DetectFormat(filename, contentType)
	if err != nil {
		return Fields{}, err
	}

	text, err := ExtractText(format, r, size)
	if err != nil {
		return Fields{}, err
	}

	return ExtractFields(text), nil
}

func extractPDF(r io.ReaderAt, size int64) (string, error) {
	reader, err := pdf.NewReader(r, size)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	return buf.String(), nil
}

func extractDOCX(r io.ReaderAt, size int64) (string, error) {
	doc, err := docx.ReadDocxFromMemory(r, size)
	if err != nil {
		return "", fmt.Errorf("open docx: %w", err)
	}
	defer doc.Close()

	return docxText(doc.Editable().GetContent()), nil
}

// docxText turns the WordprocessingML body into plain text, one line per paragraph.
func docxText(content string) string {
	content = xmlParagraphEnd.ReplaceAllStringFunc(content, func(tag string) string {
		if tag == "<w:tab/>" {
			return " "
		}
		return "\n"
	})
	content = xmlTag.ReplaceAllString(content, "")
	return html.UnescapeString(content)
}
