package llm

import _ "embed"

const DefaultPromptVersion = "analyze_v1"

var (
	//go:embed prompts/analyze_v1.txt
	promptAnalyzeV1 string
)

// PromptTemplate returns the prompt template text and whether the version was recognized.
func PromptTemplate(version string) (string, bool) {
	switch version {
	case "analyze_v1":
		return promptAnalyzeV1, true
	default:
		return promptAnalyzeV1, false
	}
}
