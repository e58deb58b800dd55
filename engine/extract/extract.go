// Package extract turns uploaded files into normalized plain text plus a
// best-effort title, dispatching on the detected format.
package extract

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/shadabshaukat/searchd/engine/core"
)

// Result carries the extracted text and document attributes.
type Result struct {
	Text       string
	Title      string
	SourceType core.SourceType
	MIMEType   string
}

// Service dispatches extraction by file extension and verifies the payload's
// detected MIME type matches the claimed format.
type Service struct{}

func NewService() *Service {
	return &Service{}
}

// Extract converts raw file bytes into a Result. Unsupported extensions and
// payloads whose sniffed MIME type contradicts the extension fail with an
// unsupported-format error; parse failures fail with a corrupt-input error.
func (s *Service) Extract(_ context.Context, filename string, data []byte) (*Result, error) {
	sourceType, err := typeForFilename(filename)
	if err != nil {
		return nil, err
	}
	detected := mimetype.Detect(data)
	if err := checkMIME(sourceType, detected, filename); err != nil {
		return nil, err
	}
	var text, title string
	switch sourceType {
	case core.SourceTypePDF:
		text, err = extractPDF(data)
	case core.SourceTypeHTML:
		text, title, err = extractHTML(data)
	case core.SourceTypeDOCX:
		text, title, err = extractDOCX(data)
	case core.SourceTypeTXT:
		text = string(data)
	}
	if err != nil {
		return nil, err
	}
	if title == "" {
		title = titleFromFilename(filename)
	}
	return &Result{
		Text:       sanitize(text),
		Title:      sanitize(title),
		SourceType: sourceType,
		MIMEType:   detected.String(),
	}, nil
}

// sanitize drops invalid UTF-8 bytes and NUL characters. Postgres TEXT
// columns reject both, so they must never leave the extractor.
func sanitize(s string) string {
	s = strings.ToValidUTF8(s, "")
	return strings.ReplaceAll(s, "\x00", "")
}

func typeForFilename(filename string) (core.SourceType, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return core.SourceTypePDF, nil
	case ".html", ".htm":
		return core.SourceTypeHTML, nil
	case ".docx":
		return core.SourceTypeDOCX, nil
	case ".txt", "":
		return core.SourceTypeTXT, nil
	default:
		return "", core.NewExtractError(core.ExtractUnsupportedFormat, filename, nil)
	}
}

// checkMIME rejects payloads that are clearly not the claimed format. Text
// formats are permissive because sniffing short or exotic text is unreliable.
func checkMIME(sourceType core.SourceType, detected *mimetype.MIME, filename string) error {
	switch sourceType {
	case core.SourceTypePDF:
		if !detected.Is("application/pdf") {
			return core.NewExtractError(core.ExtractUnsupportedFormat, filename, nil)
		}
	case core.SourceTypeDOCX:
		if !detected.Is("application/vnd.openxmlformats-officedocument.wordprocessingml.document") &&
			!detected.Is("application/zip") {
			return core.NewExtractError(core.ExtractUnsupportedFormat, filename, nil)
		}
	}
	return nil
}

// titleFromFilename derives a readable title from the file name.
func titleFromFilename(filename string) string {
	base := filepath.Base(filename)
	if ext := filepath.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	base = strings.ReplaceAll(base, "_", " ")
	base = strings.ReplaceAll(base, "-", " ")
	return strings.TrimSpace(base)
}
