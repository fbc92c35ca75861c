package resume

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
)

const (
	MIMEPlain = "text/plain"
	MIMEPDF   = "application/pdf"
	MIMEDocx  = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

var ErrUnsupportedType = errors.New("unsupported file type")

// DetectMIME resolves the document type from the declared MIME type, falling
// back to the file extension and finally the leading bytes.
func DetectMIME(declared, filename string, data []byte) string {
	if i := strings.Index(declared, ";"); i >= 0 {
		declared = declared[:i]
	}
	switch strings.TrimSpace(strings.ToLower(declared)) {
	case MIMEPlain, MIMEPDF, MIMEDocx:
		return strings.TrimSpace(strings.ToLower(declared))
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return MIMEPDF
	case ".docx":
		return MIMEDocx
	case ".txt", ".md":
		return MIMEPlain
	}

	switch {
	case bytes.HasPrefix(data, []byte("%PDF-")):
		return MIMEPDF
	case bytes.HasPrefix(data, []byte("PK\x03\x04")):
		return MIMEDocx
	}
	return MIMEPlain
}

// ExtractText returns the plain text of a resume document.
func ExtractText(mime string, data []byte) (string, error) {
	switch mime {
	case MIMEPlain:
		return string(data), nil

	case MIMEPDF:
		return extractPDFText(bytes.NewReader(data))

	case MIMEDocx:
		return extractDocxText(bytes.NewReader(data))

	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, mime)
	}
}

func extractPDFText(reader *bytes.Reader) (text string, err error) {
	// The pdf package panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("failed to read pdf: %v", r)
		}
	}()

	pdfReader, err := pdf.NewReader(reader, reader.Size())
	if err != nil {
		return "", fmt.Errorf("failed to read pdf: %w", err)
	}
	var textBuilder strings.Builder
	numPages := pdfReader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := pdfReader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, _ := page.GetPlainText(nil)
		textBuilder.WriteString(pageText)
		textBuilder.WriteString("\n")
	}
	return textBuilder.String(), nil
}

func extractDocxText(reader io.ReaderAt) (string, error) {
	size := int64(0)
	if r, ok := reader.(*bytes.Reader); ok {
		size = r.Size()
	}

	doc, err := docx.ReadDocxFromMemory(reader, size)
	if err != nil {
		return "", fmt.Errorf("failed to parse docx: %w", err)
	}
	defer doc.Close()

	return stripDocxMarkup(doc.Editable().GetContent()), nil
}

// stripDocxMarkup drops XML tags from raw document.xml content, turning
// paragraph ends into newlines.
func stripDocxMarkup(content string) string {
	content = strings.ReplaceAll(content, "</w:p>", "\n")
	var b strings.Builder
	inTag := false
	for _, r := range content {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}
