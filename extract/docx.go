package extract

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"strings"
)

// DOCX files are zip archives; the document body lives in word/document.xml.
const documentXMLPath = "word/document.xml"

type documentXML struct {
	XMLName xml.Name `xml:"document"`
	Body    bodyXML  `xml:"body"`
}

type bodyXML struct {
	Paragraphs []paragraphXML `xml:"p"`
}

type paragraphXML struct {
	Runs []runXML `xml:"r"`
}

type runXML struct {
	Texts []textXML `xml:"t"`
}

type textXML struct {
	Value string `xml:",chardata"`
}

func extractDocx(path string) (string, error) {
	archive, err := zip.OpenReader(path)
	if err != nil {
		return "", fmt.Errorf("failed to open docx %s: %w", path, err)
	}
	defer archive.Close()

	for _, f := range archive.File {
		if f.Name != documentXMLPath {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("failed to open %s in %s: %w", documentXMLPath, path, err)
		}
		defer rc.Close()

		var doc documentXML
		if err := xml.NewDecoder(rc).Decode(&doc); err != nil {
			return "", fmt.Errorf("failed to parse %s in %s: %w", documentXMLPath, path, err)
		}
		return flattenDocument(&doc), nil
	}

	return "", fmt.Errorf("no %s entry in %s", documentXMLPath, path)
}

// flattenDocument joins run text within a paragraph and paragraphs with
// newlines, which is enough structure for chunking prose.
func flattenDocument(doc *documentXML) string {
	var sb strings.Builder
	for _, p := range doc.Body.Paragraphs {
		var line strings.Builder
		for _, r := range p.Runs {
			for _, t := range r.Texts {
				line.WriteString(t.Value)
			}
		}
		text := line.String()
		if strings.TrimSpace(text) == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(text)
	}
	return sb.String()
}
