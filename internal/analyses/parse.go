package analyses

import (
	"encoding/json"
	"fmt"
	"strings"

	"resume-tailor/internal/shared/apperr"
)

const (
	opParse = "analyses.parse"

	// maxCandidates bounds how many opening braces the scan starts from.
	maxCandidates = 64
)

// ParseResult locates the JSON object inside a free-form backend reply, checks it
// against the result schema and returns the typed result. It never returns a
// partially valid result.
func ParseResult(raw string) (Result, error) {
	text := strings.TrimSpace(raw)
	candidates := jsonCandidates(text)
	if len(candidates) == 0 {
		return Result{}, apperr.New(apperr.NoJSONFound, opParse, "no JSON object in reply: "+apperr.Snippet(text))
	}

	var (
		decodeErr       error
		firstViolations []FieldViolation
		firstDecoded    string
	)
	for _, candidate := range candidates {
		var doc any
		if err := json.Unmarshal([]byte(candidate), &doc); err != nil {
			if decodeErr == nil {
				decodeErr = err
			}
			continue
		}
		if _, ok := doc.(map[string]any); !ok {
			continue
		}

		violations, err := validateSchema(doc)
		if err != nil {
			return Result{}, apperr.Wrap(apperr.Internal, opParse, err)
		}
		if len(violations) > 0 {
			if firstViolations == nil {
				firstViolations = violations
				firstDecoded = candidate
			}
			continue
		}

		var wire wireResult
		if err := json.Unmarshal([]byte(candidate), &wire); err != nil {
			return Result{}, apperr.Wrap(apperr.MalformedJSON, opParse, err)
		}
		return wire.toResult(), nil
	}

	if firstViolations != nil {
		v := firstViolations[0]
		return Result{}, &apperr.Error{
			Kind:   apperr.SchemaViolation,
			Op:     opParse,
			Detail: apperr.Snippet(fmt.Sprintf("field %s: %s (object: %s)", v.Field, v.Message, firstDecoded)),
			Err:    &ViolationError{Field: v.Field, Violations: firstViolations},
		}
	}
	return Result{}, apperr.Wrap(apperr.MalformedJSON, opParse, fmt.Errorf("%w (reply: %s)", decodeErr, apperr.Snippet(candidates[0])))
}

// ViolationError carries every schema violation of a rejected reply. Field is the
// first one by schema order.
type ViolationError struct {
	Field      string
	Violations []FieldViolation
}

func (e *ViolationError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.Field+": "+v.Message)
	}
	return strings.Join(parts, "; ")
}

// jsonCandidates returns the balanced top-level objects found by a string-aware
// bracket-depth scan, in order of appearance, followed by the greedy span from
// the first '{' to the last '}' when that span differs from all of them.
func jsonCandidates(text string) []string {
	first := strings.IndexByte(text, '{')
	last := strings.LastIndexByte(text, '}')
	if first < 0 || last < first {
		return nil
	}

	var out []string
	seen := make(map[string]bool)
	for start, scanned := first, 0; start <= last && scanned < maxCandidates; scanned++ {
		end := matchBrace(text, start)
		from := start + 1
		if end > start {
			candidate := text[start : end+1]
			if !seen[candidate] {
				seen[candidate] = true
				out = append(out, candidate)
			}
			// Objects nested inside a balanced candidate are never
			// candidates themselves.
			from = end + 1
		}
		next := strings.IndexByte(text[from:], '{')
		if next < 0 {
			break
		}
		start = from + next
	}

	greedy := text[first : last+1]
	if !seen[greedy] {
		out = append(out, greedy)
	}
	return out
}

// matchBrace returns the index of the '}' that closes the '{' at start, or -1.
// Braces inside JSON strings are ignored.
func matchBrace(text string, start int) int {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
