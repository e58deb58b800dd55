package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shadabshaukat/searchd/engine/core"
)

// buildDOCX assembles a minimal DOCX archive in memory.
func buildDOCX(t *testing.T, documentXML, coreXML string) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	w := zip.NewWriter(buf)
	ct, err := w.Create("[Content_Types].xml")
	require.NoError(t, err)
	_, err = ct.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>` +
		`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
		`<Default Extension="xml" ContentType="application/xml"/></Types>`))
	require.NoError(t, err)
	if documentXML != "" {
		doc, err := w.Create("word/document.xml")
		require.NoError(t, err)
		_, err = doc.Write([]byte(documentXML))
		require.NoError(t, err)
	}
	if coreXML != "" {
		props, err := w.Create("docProps/core.xml")
		require.NoError(t, err)
		_, err = props.Write([]byte(coreXML))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestServiceExtract(t *testing.T) {
	svc := NewService()
	ctx := context.Background()

	t.Run("Should pass plain text through unchanged", func(t *testing.T) {
		res, err := svc.Extract(ctx, "notes_2024-q3.txt", []byte("line one\nline two"))
		require.NoError(t, err)
		assert.Equal(t, core.SourceTypeTXT, res.SourceType)
		assert.Equal(t, "line one\nline two", res.Text)
		assert.Equal(t, "notes 2024 q3", res.Title)
	})
	t.Run("Should strip tags and pull the title from HTML", func(t *testing.T) {
		page := `<html><head><title>Release Notes</title><style>p{color:red}</style></head>` +
			`<body><script>alert(1)</script><h1>Heading</h1><p>First paragraph.</p>` +
			`<p>Second   paragraph.</p></body></html>`
		res, err := svc.Extract(ctx, "page.html", []byte(page))
		require.NoError(t, err)
		assert.Equal(t, core.SourceTypeHTML, res.SourceType)
		assert.Equal(t, "Release Notes", res.Title)
		assert.NotContains(t, res.Text, "alert")
		assert.NotContains(t, res.Text, "color:red")
		assert.NotContains(t, res.Text, "<")
		assert.Contains(t, res.Text, "Heading")
		assert.Contains(t, res.Text, "First paragraph.")
		assert.Contains(t, res.Text, "Second paragraph.")
	})
	t.Run("Should extract paragraphs and title from DOCX", func(t *testing.T) {
		docXML := `<?xml version="1.0" encoding="UTF-8"?>` +
			`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">` +
			`<w:body>` +
			`<w:p><w:r><w:t>Hello </w:t></w:r><w:r><w:t>World</w:t></w:r></w:p>` +
			`<w:p><w:r><w:t>Second paragraph</w:t></w:r></w:p>` +
			`</w:body></w:document>`
		coreXML := `<?xml version="1.0" encoding="UTF-8"?>` +
			`<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties" ` +
			`xmlns:dc="http://purl.org/dc/elements/1.1/">` +
			`<dc:title>Quarterly Report</dc:title></cp:coreProperties>`
		res, err := svc.Extract(ctx, "report.docx", buildDOCX(t, docXML, coreXML))
		require.NoError(t, err)
		assert.Equal(t, core.SourceTypeDOCX, res.SourceType)
		assert.Equal(t, "Hello World\nSecond paragraph", res.Text)
		assert.Equal(t, "Quarterly Report", res.Title)
	})
	t.Run("Should fall back to the filename when DOCX has no title", func(t *testing.T) {
		docXML := `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">` +
			`<w:body><w:p><w:r><w:t>body</w:t></w:r></w:p></w:body></w:document>`
		res, err := svc.Extract(ctx, "meeting-minutes.docx", buildDOCX(t, docXML, ""))
		require.NoError(t, err)
		assert.Equal(t, "meeting minutes", res.Title)
	})
	t.Run("Should drop NUL and invalid UTF-8 bytes from text", func(t *testing.T) {
		payload := []byte("clean\x00 text \xff\xfewith noise")
		res, err := svc.Extract(ctx, "noisy.txt", payload)
		require.NoError(t, err)
		assert.Equal(t, "clean text with noise", res.Text)
		assert.True(t, utf8.ValidString(res.Text))
		assert.NotContains(t, res.Text, "\x00")
	})
	t.Run("Should reject an unsupported extension", func(t *testing.T) {
		_, err := svc.Extract(ctx, "image.png", []byte{0x89, 0x50, 0x4e, 0x47})
		require.Error(t, err)
		var extractErr *core.ExtractError
		require.True(t, errors.As(err, &extractErr))
		assert.Equal(t, core.ExtractUnsupportedFormat, extractErr.Kind)
	})
	t.Run("Should reject a PDF extension over non-PDF bytes", func(t *testing.T) {
		_, err := svc.Extract(ctx, "fake.pdf", []byte("just some text"))
		require.Error(t, err)
		var extractErr *core.ExtractError
		require.True(t, errors.As(err, &extractErr))
		assert.Equal(t, core.ExtractUnsupportedFormat, extractErr.Kind)
	})
	t.Run("Should report corrupt DOCX archives", func(t *testing.T) {
		payload := append([]byte("PK\x03\x04"), bytes.Repeat([]byte{0x00}, 32)...)
		_, err := svc.Extract(ctx, "broken.docx", payload)
		require.Error(t, err)
		var extractErr *core.ExtractError
		require.True(t, errors.As(err, &extractErr))
		assert.Equal(t, core.ExtractCorruptInput, extractErr.Kind)
	})
}

func TestCollapseWhitespace(t *testing.T) {
	t.Run("Should squeeze spaces and keep paragraph breaks", func(t *testing.T) {
		in := "  first   line  \n\n\n\nsecond line\n   \nthird line\n"
		assert.Equal(t, "first line\n\nsecond line\n\nthird line", collapseWhitespace(in))
	})
}
