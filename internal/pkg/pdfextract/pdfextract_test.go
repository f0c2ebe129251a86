package pdfextract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractRejectsNonPDF(t *testing.T) {
	extractor := New()

	_, err := extractor.Extract([]byte("this is not a pdf"))
	assert.Error(t, err)

	_, err = extractor.Extract(nil)
	assert.Error(t, err)
}

func TestExtractRejectsTruncatedPDF(t *testing.T) {
	extractor := New()

	// header only, no xref table
	_, err := extractor.Extract([]byte("%PDF-1.7\n"))
	assert.Error(t, err)
}
