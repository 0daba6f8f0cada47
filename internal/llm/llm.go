// Package llm builds analysis requests and defines the client contract for the
// generative backend.
package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Client sends one analysis request and returns the raw reply text.
type Client interface {
	Send(ctx context.Context, req Request) (string, error)
}

// ClientFunc adapts a function to Client.
type ClientFunc func(ctx context.Context, req Request) (string, error)

func (f ClientFunc) Send(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

// Request is a single instruction block for the backend. It is built per call
// and never persisted.
type Request struct {
	PromptVersion string
	Text          string
}

// Hash returns a stable sha256 of the prompt text, safe to log.
func (r Request) Hash() string {
	sum := sha256.Sum256([]byte(r.Text))
	return hex.EncodeToString(sum[:])
}

// BuildAnalysisRequest embeds the résumé text and job description verbatim into
// the current analysis prompt.
func BuildAnalysisRequest(resumeText, jobDescription string) Request {
	version := DefaultPromptVersion
	template, _ := PromptTemplate(version)

	replacer := strings.NewReplacer(
		"{{PROMPT_VERSION}}", version,
		"{{RESUME_TEXT}}", resumeText,
		"{{JOB_DESCRIPTION}}", jobDescription,
	)
	return Request{
		PromptVersion: version,
		Text:          replacer.Replace(template),
	}
}
