package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"strings"

	"github.com/shadabshaukat/searchd/engine/core"
)

// documentXML mirrors the paragraph/run/text nesting of word/document.xml.
type documentXML struct {
	Body struct {
		Paragraphs []struct {
			Runs []struct {
				Text []struct {
					Content string `xml:",chardata"`
				} `xml:"t"`
			} `xml:"r"`
		} `xml:"p"`
	} `xml:"body"`
}

type corePropsXML struct {
	Title string `xml:"title"`
}

// extractDOCX reads a DOCX payload as a ZIP archive, pulling paragraph text
// from word/document.xml and the title from docProps/core.xml when present.
func extractDOCX(data []byte) (text, title string, err error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", "", core.NewExtractError(core.ExtractCorruptInput, "", err)
	}
	docXML, err := readArchiveFile(reader, "word/document.xml")
	if err != nil {
		return "", "", core.NewExtractError(core.ExtractCorruptInput, "", err)
	}
	var doc documentXML
	if err := xml.Unmarshal(docXML, &doc); err != nil {
		return "", "", core.NewExtractError(core.ExtractCorruptInput, "", err)
	}
	var sb strings.Builder
	for _, para := range doc.Body.Paragraphs {
		var line strings.Builder
		for _, run := range para.Runs {
			for _, t := range run.Text {
				line.WriteString(t.Content)
			}
		}
		trimmed := strings.TrimSpace(line.String())
		if trimmed == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(trimmed)
	}
	if propsXML, err := readArchiveFile(reader, "docProps/core.xml"); err == nil {
		var props corePropsXML
		if err := xml.Unmarshal(propsXML, &props); err == nil {
			title = strings.TrimSpace(props.Title)
		}
	}
	return sb.String(), title, nil
}

var errArchiveFileMissing = errors.New("file not present in archive")

func readArchiveFile(reader *zip.Reader, name string) ([]byte, error) {
	for _, file := range reader.File {
		if file.Name != name {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, errArchiveFileMissing
}
