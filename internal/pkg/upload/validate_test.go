package upload

import (
	"errors"
	"testing"
)

func TestValidatePDF(t *testing.T) {
	pdfHead := []byte("%PDF-1.7\n%\xe2\xe3\xcf\xd3\n")

	tests := []struct {
		name     string
		filename string
		head     []byte
		size     int64
		maxBytes int64
		wantErr  error
	}{
		{"valid pdf", "invoice.pdf", pdfHead, 1024, 10 << 20, nil},
		{"uppercase extension", "INVOICE.PDF", pdfHead, 1024, 10 << 20, nil},
		{"bom before magic", "doc.pdf", append([]byte("\xef\xbb\xbf"), pdfHead...), 1024, 10 << 20, nil},
		{"no size limit", "doc.pdf", pdfHead, 1 << 30, 0, nil},
		{"wrong extension", "invoice.docx", pdfHead, 1024, 10 << 20, ErrNotPDF},
		{"no extension", "invoice", pdfHead, 1024, 10 << 20, ErrNotPDF},
		{"renamed png", "invoice.pdf", []byte("\x89PNG\r\n\x1a\n"), 1024, 10 << 20, ErrNotPDF},
		{"empty head", "invoice.pdf", nil, 1024, 10 << 20, ErrNotPDF},
		{"over size limit", "invoice.pdf", pdfHead, 11 << 20, 10 << 20, ErrFileTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePDF(tt.filename, tt.head, tt.size, tt.maxBytes)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("ValidatePDF() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ValidatePDF() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
