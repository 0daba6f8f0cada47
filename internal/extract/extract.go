package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"resume-tailor/internal/shared/apperr"
)

const (
	MimePDF  = "application/pdf"
	MimeDOC  = "application/msword"
	MimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	mimeZip  = "application/zip"

	// MinTextLength is the shortest extracted text still treated as a résumé.
	MinTextLength = 10

	opExtract = "extract"
)

// Result is the normalized text recovered from a document.
type Result struct {
	Text      string
	MediaType string
	Pages     int
}

// NormalizeMediaType lowercases a declared media type and drops parameters.
func NormalizeMediaType(mediaType string) string {
	return strings.ToLower(strings.TrimSpace(strings.Split(mediaType, ";")[0]))
}

// Supported reports whether a declared media type is on the upload allow-list.
// Generic zip uploads are accepted here and resolved against their content.
func Supported(mediaType string) bool {
	switch NormalizeMediaType(mediaType) {
	case MimePDF, MimeDOC, MimeDOCX, mimeZip:
		return true
	default:
		return false
	}
}

// MediaTypeFor returns the declared media type, or one inferred from the file
// extension when none or a generic octet-stream was declared. It is meant for
// local files named by the operator; uploads keep their declared type.
func MediaTypeFor(declared, fileName string) string {
	normalized := NormalizeMediaType(declared)
	if normalized != "" && normalized != "application/octet-stream" {
		return normalized
	}
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".pdf":
		return MimePDF
	case ".doc":
		return MimeDOC
	case ".docx":
		return MimeDOCX
	}
	return normalized
}

// resolveMediaType maps a generic zip upload to DOCX when it carries a Word
// document part. Any other zip stays unsupported.
func resolveMediaType(mediaType string, data []byte) string {
	normalized := NormalizeMediaType(mediaType)
	if normalized == mimeZip && zipHoldsWordDocument(data) {
		return MimeDOCX
	}
	return normalized
}

// ExtractReader reads the whole upload before extracting. A failing reader is a
// ReadFailed, never an ExtractionFailed.
func ExtractReader(ctx context.Context, r io.Reader, mediaType, fileName string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if !Supported(mediaType) {
		return Result{}, apperr.New(apperr.UnsupportedFileType, opExtract, "media type "+NormalizeMediaType(mediaType))
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return Result{}, apperr.Wrap(apperr.ReadFailed, opExtract, fmt.Errorf("read %s: %w", fileName, err))
	}
	return Extract(ctx, data, mediaType, fileName)
}

// Extract pulls normalized plain text out of an in-memory document. The declared
// media type selects the parser; the file name is only used in error details.
func Extract(ctx context.Context, data []byte, mediaType, fileName string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		if !Supported(mediaType) {
			return Result{}, apperr.New(apperr.UnsupportedFileType, opExtract, "media type "+NormalizeMediaType(mediaType))
		}
		return Result{}, apperr.New(apperr.InsufficientText, opExtract, fmt.Sprintf("%s is empty", displayName(fileName)))
	}

	normalized := resolveMediaType(mediaType, data)
	if normalized == mimeZip || !Supported(normalized) {
		return Result{}, apperr.New(apperr.UnsupportedFileType, opExtract, "media type "+normalized)
	}

	var (
		raw   string
		pages int
		err   error
	)
	switch normalized {
	case MimePDF:
		raw, pages, err = extractPDF(data)
	case MimeDOCX:
		raw, err = extractDOCX(data)
	case MimeDOC:
		// Word-labelled uploads are frequently OOXML packages saved with the
		// legacy type; the bytes decide, not the label.
		if isZip(data) {
			raw, err = extractDOCX(data)
		} else {
			raw, err = extractDOC(data)
		}
	}
	if err != nil {
		return Result{}, apperr.Wrap(apperr.ExtractionFailed, opExtract, fmt.Errorf("%s (%s): %w", displayName(fileName), normalized, err))
	}

	text := Normalize(raw)
	if n := utf8.RuneCountInString(text); n < MinTextLength {
		return Result{}, apperr.New(apperr.InsufficientText, opExtract, fmt.Sprintf("%s yielded %d characters", displayName(fileName), n))
	}
	if pages == 0 {
		pages = 1
	}
	return Result{Text: text, MediaType: normalized, Pages: pages}, nil
}

// FromText normalizes pasted résumé text and applies the same length threshold
// as extracted documents.
func FromText(text string) (Result, error) {
	normalized := Normalize(text)
	if n := utf8.RuneCountInString(normalized); n < MinTextLength {
		return Result{}, apperr.New(apperr.InsufficientText, opExtract, fmt.Sprintf("pasted text has %d characters", n))
	}
	return Result{Text: normalized, MediaType: "text/plain", Pages: 1}, nil
}

// Normalize collapses intra-line whitespace to single spaces, folds runs of blank
// lines into one, and trims the result.
func Normalize(raw string) string {
	raw = strings.ToValidUTF8(raw, "")
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	raw = strings.ReplaceAll(raw, "\r", "\n")
	raw = strings.ReplaceAll(raw, "\f", "\n")

	lines := strings.Split(raw, "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		collapsed := strings.Join(strings.Fields(line), " ")
		if collapsed == "" {
			if blank || len(out) == 0 {
				continue
			}
			blank = true
			out = append(out, "")
			continue
		}
		blank = false
		out = append(out, collapsed)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

func isZip(data []byte) bool {
	return len(data) >= 4 && bytes.Equal(data[:4], []byte("PK\x03\x04"))
}

func displayName(fileName string) string {
	if strings.TrimSpace(fileName) == "" {
		return "document"
	}
	return fileName
}
