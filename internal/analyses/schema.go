package analyses

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed analysis_result.schema.json
var resultSchemaJSON string

const rootField = "(root)"

var (
	resultSchemaOnce sync.Once
	resultSchema     *gojsonschema.Schema
	resultSchemaErr  error
)

// fieldOrder ranks violations so the reported field does not depend on the
// validator's traversal order.
var fieldOrder = []string{"atsScore", "matchedKeywords", "missingKeywords", "tips", "insights", "generatedResume", "optimizedResume"}

// FieldViolation is one schema failure at a dotted field path.
type FieldViolation struct {
	Field   string
	Message string
}

func compiledResultSchema() (*gojsonschema.Schema, error) {
	resultSchemaOnce.Do(func() {
		resultSchema, resultSchemaErr = gojsonschema.NewSchema(gojsonschema.NewStringLoader(resultSchemaJSON))
	})
	return resultSchema, resultSchemaErr
}

// validateSchema checks a generically decoded reply against the result schema and
// returns the violations ordered by field.
func validateSchema(doc any) ([]FieldViolation, error) {
	schema, err := compiledResultSchema()
	if err != nil {
		return nil, fmt.Errorf("compile result schema: %w", err)
	}
	result, err := schema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return nil, fmt.Errorf("validate result: %w", err)
	}
	if result.Valid() {
		return nil, nil
	}

	violations := make([]FieldViolation, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		violations = append(violations, FieldViolation{
			Field:   violationField(desc),
			Message: desc.Description(),
		})
	}
	sort.SliceStable(violations, func(i, j int) bool {
		ri, rj := fieldRank(violations[i].Field), fieldRank(violations[j].Field)
		if ri != rj {
			return ri < rj
		}
		return violations[i].Field < violations[j].Field
	})
	return violations, nil
}

func violationField(desc gojsonschema.ResultError) string {
	field := desc.Field()
	if desc.Type() == "required" {
		if prop, ok := desc.Details()["property"].(string); ok && prop != "" {
			if field == "" || field == rootField {
				return prop
			}
			return field + "." + prop
		}
	}
	if field == "" {
		return rootField
	}
	return field
}

func fieldRank(field string) int {
	top := field
	if idx := strings.IndexByte(field, '.'); idx >= 0 {
		top = field[:idx]
	}
	for i, name := range fieldOrder {
		if name == top {
			return i
		}
	}
	return len(fieldOrder)
}
