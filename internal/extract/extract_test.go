package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"resume-tailor/internal/render"
	"resume-tailor/internal/shared/apperr"
)

func TestExtractDOCXRoundTrip(t *testing.T) {
	docxBytes, err := render.GenerateDOCX("Jane Doe\n\nSenior   Go Engineer\nKubernetes, AWS")
	if err != nil {
		t.Fatalf("generate docx: %v", err)
	}

	res, err := Extract(context.Background(), docxBytes, MimeDOCX, "resume.docx")
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	want := "Jane Doe\n\nSenior Go Engineer\nKubernetes, AWS"
	if res.Text != want {
		t.Fatalf("text = %q, want %q", res.Text, want)
	}
	if res.MediaType != MimeDOCX {
		t.Fatalf("media type = %q", res.MediaType)
	}
}

func TestExtractZipMimeResolvesToDOCX(t *testing.T) {
	docxBytes, err := render.GenerateDOCX("Jane Doe, Platform Engineer")
	if err != nil {
		t.Fatalf("generate docx: %v", err)
	}

	res, err := Extract(context.Background(), docxBytes, "application/zip", "resume.docx")
	if err != nil {
		t.Fatalf("expected docx to extract from zip mime, got error: %v", err)
	}
	if res.MediaType != MimeDOCX {
		t.Fatalf("media type = %q", res.MediaType)
	}
}

func TestExtractRealZipRejected(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("notes.txt")
	if err != nil {
		t.Fatalf("create zip entry: %v", err)
	}
	if _, err := w.Write([]byte("hello there, this is not a resume")); err != nil {
		t.Fatalf("write zip entry: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}

	_, err = Extract(context.Background(), buf.Bytes(), "application/zip", "notes.zip")
	if !errors.Is(err, apperr.ErrUnsupportedFileType) {
		t.Fatalf("expected unsupported file type, got %v", err)
	}
}

func TestExtractDOCLabelledZipUsesDOCXPath(t *testing.T) {
	docxBytes, err := render.GenerateDOCX("Jane Doe\nStaff Engineer")
	if err != nil {
		t.Fatalf("generate docx: %v", err)
	}

	res, err := Extract(context.Background(), docxBytes, MimeDOC, "resume.doc")
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	if res.Text != "Jane Doe\nStaff Engineer" {
		t.Fatalf("unexpected text %q", res.Text)
	}
}

func TestExtractPDFPagesInOrder(t *testing.T) {
	data := buildPDF("Jane Doe Senior Go Engineer", "Kubernetes and AWS experience")

	res, err := Extract(context.Background(), data, MimePDF, "resume.pdf")
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	if res.Pages != 2 {
		t.Fatalf("pages = %d, want 2", res.Pages)
	}
	first := strings.Index(res.Text, "Jane Doe")
	second := strings.Index(res.Text, "Kubernetes")
	if first < 0 || second < 0 {
		t.Fatalf("expected both pages in text, got %q", res.Text)
	}
	if first > second {
		t.Fatalf("expected page order to be preserved, got %q", res.Text)
	}
}

func TestExtractUnsupportedMediaType(t *testing.T) {
	cases := []string{"image/png", "text/plain", ""}
	for _, mediaType := range cases {
		_, err := Extract(context.Background(), []byte("some bytes that look like text"), mediaType, "file")
		if !errors.Is(err, apperr.ErrUnsupportedFileType) {
			t.Fatalf("media type %q: expected unsupported file type, got %v", mediaType, err)
		}
	}
}

func TestExtractEmptyInputIsInsufficientText(t *testing.T) {
	for _, mediaType := range []string{MimePDF, MimeDOC, MimeDOCX} {
		_, err := Extract(context.Background(), nil, mediaType, "empty")
		if !errors.Is(err, apperr.ErrInsufficientText) {
			t.Fatalf("media type %s: expected insufficient text, got %v", mediaType, err)
		}
	}
}

func TestExtractShortTextIsInsufficient(t *testing.T) {
	docxBytes, err := render.GenerateDOCX("Hi  there")
	if err != nil {
		t.Fatalf("generate docx: %v", err)
	}
	_, err = Extract(context.Background(), docxBytes, MimeDOCX, "short.docx")
	if !errors.Is(err, apperr.ErrInsufficientText) {
		t.Fatalf("expected insufficient text, got %v", err)
	}
}

func TestExtractCorruptDocuments(t *testing.T) {
	garbage := []byte("this is definitely not a document at all")
	for _, mediaType := range []string{MimePDF, MimeDOC, MimeDOCX} {
		_, err := Extract(context.Background(), garbage, mediaType, "broken")
		if !errors.Is(err, apperr.ErrExtractionFailed) {
			t.Fatalf("media type %s: expected extraction failed, got %v", mediaType, err)
		}
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("disk gone") }

func TestExtractReaderReadFailure(t *testing.T) {
	_, err := ExtractReader(context.Background(), failingReader{}, MimePDF, "resume.pdf")
	if !errors.Is(err, apperr.ErrReadFailed) {
		t.Fatalf("expected read failed, got %v", err)
	}
}

func TestExtractCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Extract(ctx, []byte("anything"), MimePDF, "x.pdf"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context canceled, got %v", err)
	}
}

func TestNormalize(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"collapses spaces", "  Go\t\tEngineer  ", "Go Engineer"},
		{"keeps line breaks", "Line A\r\nLine B", "Line A\nLine B"},
		{"folds blank runs", "A\n\n\n\nB", "A\n\nB"},
		{"trims edges", "\n\n  A  \n\n", "A"},
		{"drops invalid utf8", "A\xffB", "AB"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Normalize(tc.in); got != tc.want {
				t.Fatalf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestNormalizeMediaType(t *testing.T) {
	if got := NormalizeMediaType(" Application/PDF; charset=binary "); got != MimePDF {
		t.Fatalf("got %q", got)
	}
}

// buildPDF writes a minimal PDF with one Helvetica text line per page and a
// correct cross-reference table.
func buildPDF(pages ...string) []byte {
	var buf bytes.Buffer
	var offsets []int
	write := func(body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}

	buf.WriteString("%PDF-1.4\n")
	kids := make([]string, len(pages))
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}
	write("<< /Type /Catalog /Pages 2 0 R >>")
	write(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages)))
	write("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")
	for i, text := range pages {
		write(fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", 5+2*i))
		stream := fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", text)
		write(fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream))
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(offsets)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref)
	return buf.Bytes()
}

func TestFromText(t *testing.T) {
	res, err := FromText("  Experienced   Go developer\n\n\nwith Kubernetes skills ")
	if err != nil {
		t.Fatalf("FromText failed: %v", err)
	}
	if res.Text != "Experienced Go developer\n\nwith Kubernetes skills" {
		t.Fatalf("unexpected text %q", res.Text)
	}
	if _, err := FromText(" short "); !errors.Is(err, apperr.ErrInsufficientText) {
		t.Fatalf("expected insufficient text, got %v", err)
	}
}

func TestMediaTypeFor(t *testing.T) {
	cases := []struct {
		declared string
		fileName string
		want     string
	}{
		{"application/pdf", "cv.docx", MimePDF},
		{"", "CV.DOCX", MimeDOCX},
		{"application/octet-stream", "old.doc", MimeDOC},
		{"", "photo.png", ""},
		{"application/octet-stream", "notes", "application/octet-stream"},
	}
	for _, tc := range cases {
		if got := MediaTypeFor(tc.declared, tc.fileName); got != tc.want {
			t.Fatalf("MediaTypeFor(%q, %q) = %q, want %q", tc.declared, tc.fileName, got, tc.want)
		}
	}
}
