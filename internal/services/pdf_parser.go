package services

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"jobscout/internal/models"
)

type PDFParserService interface {
	Extract(doc models.RawDocument) (string, error)
}

type pdfParserService struct{}

func NewPDFParserService() PDFParserService {
	return &pdfParserService{}
}

// Extract implements PDFParserService. It is a pure transform of bytes to
// text: pages that fail to decode are skipped and the recoverable text is
// returned, so an empty result with a nil error is possible. Only a document
// that cannot be opened at all yields ErrExtractionFailed.
func (p *pdfParserService) Extract(doc models.RawDocument) (string, error) {
	if doc.MediaType != "" && doc.MediaType != "application/pdf" {
		return "", fmt.Errorf("%w: unsupported media type %q", ErrExtractionFailed, doc.MediaType)
	}

	if len(doc.Data) == 0 {
		return "", nil
	}

	reader, err := pdf.NewReader(bytes.NewReader(doc.Data), int64(len(doc.Data)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}

	var textBuilder strings.Builder
	totalPage := reader.NumPage()

	for pageIndex := 1; pageIndex <= totalPage; pageIndex++ {
		page := reader.Page(pageIndex)
		if page.V.IsNull() {
			continue
		}

		text, err := extractPage(page)
		if err != nil {
			// Corrupt or image-only page; keep what the other pages gave us.
			continue
		}

		textBuilder.WriteString(text)
		textBuilder.WriteString("\n\n")
	}

	return cleanText(textBuilder.String()), nil
}

// extractPage wraps GetPlainText because the pdf library panics on some
// malformed content streams instead of returning an error.
func extractPage(page pdf.Page) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("page decode panic: %v", r)
		}
	}()

	return page.GetPlainText(nil)
}
