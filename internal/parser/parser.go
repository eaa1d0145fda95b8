// Package parser extracts plain text from uploaded documents and splits it
// into overlapping chunks for embedding.
package parser

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"github.com/tealeg/xlsx"
	"github.com/xuri/excelize/v2"

	"pdfchat/internal/models"
)

// Extract reads the file at path and returns its plain text.
func Extract(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", models.ErrDocumentUnreadable, err)
	}
	return ExtractBytes(content, strings.ToLower(filepath.Ext(path)))
}

// ExtractBytes extracts plain text from content based on the file extension
// (including the leading dot). Bytes that cannot be parsed as the expected
// format fail with ErrDocumentUnreadable.
func ExtractBytes(content []byte, ext string) (string, error) {
	if len(content) == 0 {
		return "", fmt.Errorf("%w: empty file", models.ErrDocumentUnreadable)
	}
	switch ext {
	case ".pdf":
		return extractPDF(content)
	case ".docx":
		return extractDOCX(content)
	case ".xlsx":
		return extractXLSX(content)
	case ".ods":
		return extractODS(content)
	case ".md", ".markdown":
		return extractMarkdown(content)
	case ".txt", "":
		return extractPlain(content)
	default:
		return "", fmt.Errorf("%w: unsupported format %q", models.ErrDocumentUnreadable, ext)
	}
}

func extractPDF(content []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("%w: open pdf: %v", models.ErrDocumentUnreadable, err)
	}
	var buf strings.Builder
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("%w: extract page %d: %v", models.ErrDocumentUnreadable, i, err)
		}
		buf.WriteString(pageText)
		if i < numPages {
			buf.WriteByte('\n')
		}
	}
	return buf.String(), nil
}

func extractDOCX(content []byte) (string, error) {
	r, err := docx.ReadDocxFromMemory(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("%w: open docx: %v", models.ErrDocumentUnreadable, err)
	}
	defer r.Close()

	doc := r.Editable()
	var buf strings.Builder
	for _, p := range strings.Split(doc.GetContent(), "\n") {
		p = stripTags(p)
		if strings.TrimSpace(p) == "" {
			continue
		}
		buf.WriteString(p)
		buf.WriteByte('\n')
	}
	return buf.String(), nil
}

func extractXLSX(content []byte) (string, error) {
	f, err := xlsx.OpenBinary(content)
	if err != nil {
		return "", fmt.Errorf("%w: open xlsx: %v", models.ErrDocumentUnreadable, err)
	}
	var buf strings.Builder
	for _, sheet := range f.Sheets {
		buf.WriteString(fmt.Sprintf("Sheet: %s\n", sheet.Name))
		for _, row := range sheet.Rows {
			for _, cell := range row.Cells {
				buf.WriteString(cell.String())
				buf.WriteByte('\t')
			}
			buf.WriteByte('\n')
		}
	}
	return buf.String(), nil
}

func extractODS(content []byte) (string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return "", fmt.Errorf("%w: open ods: %v", models.ErrDocumentUnreadable, err)
	}
	defer f.Close()

	var buf strings.Builder
	for _, sheetName := range f.GetSheetList() {
		rows, err := f.GetRows(sheetName)
		if err != nil {
			continue
		}
		buf.WriteString(fmt.Sprintf("Sheet: %s\n", sheetName))
		for _, row := range rows {
			for _, cell := range row {
				buf.WriteString(cell)
				buf.WriteByte('\t')
			}
			buf.WriteByte('\n')
		}
	}
	return buf.String(), nil
}

func extractPlain(content []byte) (string, error) {
	if !utf8.Valid(content) {
		return "", fmt.Errorf("%w: not valid utf-8 text", models.ErrDocumentUnreadable)
	}
	return string(content), nil
}

// stripTags removes leftover xml markup the docx library occasionally leaks
// into paragraph content.
func stripTags(s string) string {
	if !strings.ContainsRune(s, '<') {
		return s
	}
	var buf strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			buf.WriteRune(r)
		}
	}
	return buf.String()
}
