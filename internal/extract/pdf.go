package extract

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// extractPDF concatenates the plain text of every page in page order, one page
// per block. The reader panics on some malformed inputs, so those are recovered
// into errors.
func extractPDF(data []byte) (text string, pages int, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, pages = "", 0
			err = fmt.Errorf("pdf parser panic: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", 0, fmt.Errorf("open pdf: %w", err)
	}

	total := reader.NumPage()
	if total == 0 {
		return "", 0, errors.New("pdf has no pages")
	}

	var b strings.Builder
	for i := 1; i <= total; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			return "", 0, fmt.Errorf("read page %d: %w", i, err)
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(content)
	}
	return b.String(), total, nil
}
