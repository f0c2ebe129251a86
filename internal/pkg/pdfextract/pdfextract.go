package pdfextract

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	pdflib "github.com/ledongthuc/pdf"
)

// ErrNoText means the document parsed but yielded no extractable text, for
// example a pure image scan.
var ErrNoText = errors.New("pdf contains no extractable text")

// Metadata carries the document info dictionary fields we surface.
type Metadata struct {
	Title    string `json:"title,omitempty"`
	Author   string `json:"author,omitempty"`
	Subject  string `json:"subject,omitempty"`
	Creator  string `json:"creator,omitempty"`
	Producer string `json:"producer,omitempty"`
}

// Result is the outcome of text extraction for one document.
type Result struct {
	Text      string   `json:"text"`
	PageCount int      `json:"page_count"`
	Metadata  Metadata `json:"metadata"`
}

// Extractor pulls plain text and metadata out of PDF bytes.
type Extractor interface {
	Extract(data []byte) (*Result, error)
}

type pdfExtractor struct{}

// New returns the default extractor.
func New() Extractor {
	return pdfExtractor{}
}

func (pdfExtractor) Extract(data []byte) (*Result, error) {
	reader, err := pdflib.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("reading pdf: %w", err)
	}

	result := &Result{
		PageCount: reader.NumPage(),
		Metadata:  readInfoDict(reader),
	}

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// Pages with unsupported encodings are skipped rather than
			// failing the whole document.
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}

	result.Text = strings.TrimSpace(sb.String())
	if result.Text == "" {
		return result, ErrNoText
	}
	return result, nil
}

func readInfoDict(reader *pdflib.Reader) (m Metadata) {
	defer func() {
		// The underlying library panics on some malformed trailers.
		_ = recover()
	}()

	info := reader.Trailer().Key("Info")
	if info.IsNull() {
		return m
	}
	m = Metadata{
		Title:    info.Key("Title").Text(),
		Author:   info.Key("Author").Text(),
		Subject:  info.Key("Subject").Text(),
		Creator:  info.Key("Creator").Text(),
		Producer: info.Key("Producer").Text(),
	}
	return m
}
