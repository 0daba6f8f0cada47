package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/nguyenthenguyen/docx"
)

const documentPart = "word/document.xml"

// extractDOCX returns the body text of an Open XML Word package, one line per
// paragraph. Packages without a relationships part are rejected by the docx
// library, so the main document part is read straight from the archive instead.
func extractDOCX(data []byte) (string, error) {
	raw, err := readDocumentXML(data)
	if err != nil {
		return "", err
	}
	return stripDocxXML(raw)
}

func readDocumentXML(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err == nil {
		defer doc.Close()
		return doc.Editable().GetContent(), nil
	}

	zr, zerr := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if zerr != nil {
		return "", fmt.Errorf("open docx: %w", zerr)
	}
	part := findZipPart(zr, documentPart)
	if part == nil {
		return "", fmt.Errorf("%s not found: %w", documentPart, err)
	}
	rc, err := part.Open()
	if err != nil {
		return "", fmt.Errorf("open %s: %w", documentPart, err)
	}
	defer rc.Close()

	raw, err := io.ReadAll(rc)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", documentPart, err)
	}
	return string(raw), nil
}

func findZipPart(zr *zip.Reader, name string) *zip.File {
	for _, f := range zr.File {
		if strings.ReplaceAll(f.Name, "\\", "/") == name {
			return f
		}
	}
	return nil
}

// stripDocxXML keeps character data and turns paragraph and break boundaries into
// newlines and tabs into spaces.
func stripDocxXML(raw string) (string, error) {
	decoder := xml.NewDecoder(strings.NewReader(raw))
	var buf strings.Builder
	for {
		tok, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse %s: %w", documentPart, err)
		}
		switch t := tok.(type) {
		case xml.CharData:
			buf.Write(t)
		case xml.StartElement:
			if t.Name.Local == "tab" {
				buf.WriteString(" ")
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "p", "br", "cr":
				buf.WriteString("\n")
			}
		}
	}
	return buf.String(), nil
}

// zipHoldsWordDocument reports whether a generic zip upload is really a Word package.
func zipHoldsWordDocument(data []byte) bool {
	if !isZip(data) {
		return false
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return false
	}
	return findZipPart(zr, documentPart) != nil
}
