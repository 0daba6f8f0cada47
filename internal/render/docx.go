// Package render turns plain text into a minimal Word document.
package render

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

const (
	MimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

	// DefaultFileName is used when the caller does not name the download.
	DefaultFileName = "Generated_Resume.docx"

	wmlNamespace = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	relNamespace = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
)

const contentTypesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
	`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>` +
	`<Default Extension="xml" ContentType="application/xml"/>` +
	`<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>` +
	`</Types>`

const packageRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
	`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>` +
	`</Relationships>`

const documentRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"></Relationships>`

// GenerateDOCX writes one paragraph per line of text, in order. Empty lines
// become empty paragraphs so vertical spacing survives, and text is preserved
// verbatim with XML special characters escaped.
func GenerateDOCX(text string) ([]byte, error) {
	documentXML, err := renderDocumentXML(text)
	if err != nil {
		return nil, err
	}
	if err := validateDocumentXMLStructure(documentXML); err != nil {
		return nil, err
	}

	var output bytes.Buffer
	writer := zip.NewWriter(&output)
	parts := []struct {
		name    string
		content string
	}{
		{"[Content_Types].xml", contentTypesXML},
		{"_rels/.rels", packageRelsXML},
		{"word/document.xml", documentXML},
		{"word/_rels/document.xml.rels", documentRelsXML},
	}
	modified := time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)
	for _, part := range parts {
		if err := writeZipFile(writer, part.name, modified, []byte(part.content)); err != nil {
			return nil, fmt.Errorf("write %s: %w", part.name, err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}
	return output.Bytes(), nil
}

// Paragraphs splits text the way GenerateDOCX lays it out.
func Paragraphs(text string) []string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

func renderDocumentXML(text string) (string, error) {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`)
	b.WriteString("\n")
	fmt.Fprintf(&b, `<w:document xmlns:w="%s" xmlns:r="%s"><w:body>`, wmlNamespace, relNamespace)
	for _, line := range Paragraphs(text) {
		if line == "" {
			b.WriteString("<w:p/>")
			continue
		}
		b.WriteString(`<w:p><w:r><w:t xml:space="preserve">`)
		if err := xml.EscapeText(&b, []byte(line)); err != nil {
			return "", err
		}
		b.WriteString("</w:t></w:r></w:p>")
	}
	b.WriteString(`<w:sectPr><w:pgSz w:w="12240" w:h="15840"/>` +
		`<w:pgMar w:top="1440" w:right="1440" w:bottom="1440" w:left="1440" w:header="720" w:footer="720" w:gutter="0"/>` +
		`</w:sectPr></w:body></w:document>`)
	return b.String(), nil
}

func writeZipFile(writer *zip.Writer, name string, modified time.Time, content []byte) error {
	header := &zip.FileHeader{Name: normalizeZipName(name), Method: zip.Deflate, Modified: modified}
	dst, err := writer.CreateHeader(header)
	if err != nil {
		return err
	}
	_, err = dst.Write(content)
	return err
}

func normalizeZipName(name string) string {
	return strings.ReplaceAll(name, "\\", "/")
}

// validateDocumentXMLStructure rejects nested paragraphs and documents that do
// not parse.
func validateDocumentXMLStructure(xmlText string) error {
	decoder := xml.NewDecoder(strings.NewReader(xmlText))
	depth := 0
	for {
		token, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("document.xml parse failed: %w", err)
		}
		switch t := token.(type) {
		case xml.StartElement:
			if isWmlElement(t.Name, "p") {
				if depth > 0 {
					return errors.New("document.xml has nested <w:p>")
				}
				depth++
			}
		case xml.EndElement:
			if isWmlElement(t.Name, "p") {
				depth--
			}
		}
	}
}

func isWmlElement(name xml.Name, local string) bool {
	return name.Local == local && name.Space == wmlNamespace
}
