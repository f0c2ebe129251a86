package upload

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

var (
	ErrNotPDF      = errors.New("only PDF files are supported")
	ErrFileTooLong = errors.New("file exceeds the allowed size")
)

// pdfMagic is the header every PDF starts with. Some producers prepend a
// UTF-8 BOM or junk bytes, so the marker is searched within the first 1KB.
var pdfMagic = []byte("%PDF-")

// ValidatePDF checks the filename extension and the leading bytes against
// the PDF signature, and enforces the caller's size limit. maxBytes <= 0
// means no limit.
func ValidatePDF(filename string, head []byte, size, maxBytes int64) error {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext != ".pdf" {
		return ErrNotPDF
	}

	window := head
	if len(window) > 1024 {
		window = window[:1024]
	}
	if !bytes.Contains(window, pdfMagic) {
		return ErrNotPDF
	}

	if maxBytes > 0 && size > maxBytes {
		return fmt.Errorf("%w: %d bytes (limit %d)", ErrFileTooLong, size, maxBytes)
	}
	return nil
}
