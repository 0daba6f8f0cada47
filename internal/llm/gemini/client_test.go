package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"google.golang.org/genai"

	"resume-tailor/internal/llm"
	"resume-tailor/internal/shared/apperr"
)

func TestSendPostsPromptAndReturnsFirstText(t *testing.T) {
	var gotPath, gotKey string
	var gotBody generateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")
		raw, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(raw, &gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"{\"atsScore\":80}"},{"text":"ignored"}]}},{"content":{"parts":[{"text":"second"}]}}]}`))
	}))
	defer srv.Close()

	client := NewClient(Options{APIKey: "test-key", Model: "gemini-test", BaseURL: srv.URL + "/"})
	raw, err := client.Send(context.Background(), llm.Request{Text: "prompt body"})
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if raw != `{"atsScore":80}` {
		t.Fatalf("raw = %q", raw)
	}
	if gotPath != "/v1beta/models/gemini-test:generateContent" {
		t.Fatalf("path = %q", gotPath)
	}
	if gotKey != "test-key" {
		t.Fatalf("api key header = %q", gotKey)
	}
	if len(gotBody.Contents) != 1 || len(gotBody.Contents[0].Parts) != 1 || gotBody.Contents[0].Parts[0].Text != "prompt body" {
		t.Fatalf("unexpected request body %+v", gotBody)
	}
}

func TestSendMissingCredentialsMakesNoCall(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer srv.Close()

	for _, client := range []llm.Client{
		NewClient(Options{APIKey: "  ", BaseURL: srv.URL}),
		NewSDKClient(Options{BaseURL: srv.URL}),
	} {
		_, err := client.Send(context.Background(), llm.Request{Text: "prompt"})
		if !errors.Is(err, apperr.ErrMissingCredentials) {
			t.Fatalf("expected missing credentials, got %v", err)
		}
	}
	if atomic.LoadInt32(&calls) != 0 {
		t.Fatalf("expected no network calls, got %d", calls)
	}
}

func TestSendNon2xxIsTransportError(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"code":429,"message":"Resource has been exhausted","status":"RESOURCE_EXHAUSTED"}}`))
	}))
	defer srv.Close()

	client := NewClient(Options{APIKey: "k", BaseURL: srv.URL})
	_, err := client.Send(context.Background(), llm.Request{Text: "prompt"})
	if !errors.Is(err, apperr.ErrTransport) {
		t.Fatalf("expected transport error, got %v", err)
	}
	if apperr.StatusOf(err) != http.StatusTooManyRequests {
		t.Fatalf("status = %d", apperr.StatusOf(err))
	}
	if !strings.Contains(err.Error(), "Resource has been exhausted") {
		t.Fatalf("expected server message in error, got %v", err)
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("expected exactly one call, got %d", calls)
	}
}

func TestSendNon2xxWithoutEnvelopeKeepsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewClient(Options{APIKey: "k", BaseURL: srv.URL}).Send(context.Background(), llm.Request{Text: "p"})
	if apperr.StatusOf(err) != http.StatusServiceUnavailable || !strings.Contains(err.Error(), "upstream unavailable") {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestSendNetworkFailureIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewClient(Options{APIKey: "k", BaseURL: url}).Send(context.Background(), llm.Request{Text: "p"})
	if !errors.Is(err, apperr.ErrTransport) {
		t.Fatalf("expected transport error, got %v", err)
	}
	if apperr.StatusOf(err) != 0 {
		t.Fatalf("expected status 0, got %d", apperr.StatusOf(err))
	}
}

func TestSendMalformedEnvelope(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "not json", body: `<html>oops</html>`},
		{name: "no candidates", body: `{"candidates":[]}`},
		{name: "no content", body: `{"candidates":[{"finishReason":"SAFETY"}]}`},
		{name: "no parts", body: `{"candidates":[{"content":{"parts":[]}}]}`},
		{name: "no text", body: `{"candidates":[{"content":{"parts":[{"inlineData":{}}]}}]}`},
		{name: "blank text", body: `{"candidates":[{"content":{"parts":[{"text":"   "}]}}]}`},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewClient(Options{APIKey: "k", BaseURL: srv.URL}).Send(context.Background(), llm.Request{Text: "p"})
			if !errors.Is(err, apperr.ErrMalformedBackendResponse) {
				t.Fatalf("expected malformed backend response, got %v", err)
			}
		})
	}
}

func TestOptionsDefaults(t *testing.T) {
	client := NewClient(Options{APIKey: "k"})
	if client.model != DefaultModel {
		t.Fatalf("model = %q", client.model)
	}
	if !strings.HasPrefix(client.endpoint, DefaultBaseURL+"/v1beta/models/") {
		t.Fatalf("endpoint = %q", client.endpoint)
	}
}

func TestResponseTextFromSDKResponse(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []*genai.Part{{Text: `{"atsScore": 70}`}}}},
		},
	}
	text, err := responseText(resp)
	if err != nil {
		t.Fatalf("responseText failed: %v", err)
	}
	if text != `{"atsScore": 70}` {
		t.Fatalf("text = %q", text)
	}

	if _, err := responseText(&genai.GenerateContentResponse{}); !errors.Is(err, apperr.ErrMalformedBackendResponse) {
		t.Fatalf("expected malformed backend response, got %v", err)
	}
}

func TestClassifySDKError(t *testing.T) {
	err := classifySDKError(genai.APIError{Code: http.StatusForbidden, Message: "API key not valid"})
	if apperr.StatusOf(err) != http.StatusForbidden || !strings.Contains(err.Error(), "API key not valid") {
		t.Fatalf("unexpected error %v", err)
	}
	if !errors.Is(classifySDKError(errors.New("dial tcp: refused")), apperr.ErrTransport) {
		t.Fatal("expected transport error for plain failures")
	}
	if !errors.Is(classifySDKError(context.Canceled), context.Canceled) {
		t.Fatal("expected cancellation to pass through")
	}
}

func TestSDKSendSurvivesCanceledFirstCall(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"{\"atsScore\":80}"}]}}]}`))
	}))
	defer srv.Close()

	client := NewSDKClient(Options{APIKey: "test-key", Model: "gemini-test", BaseURL: srv.URL})

	canceled, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := client.Send(canceled, llm.Request{Text: "prompt"}); err == nil {
		t.Fatalf("expected canceled send to fail")
	}

	raw, err := client.Send(context.Background(), llm.Request{Text: "prompt"})
	if err != nil {
		t.Fatalf("second send failed: %v", err)
	}
	if raw != `{"atsScore":80}` {
		t.Fatalf("raw = %q", raw)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected one backend call, got %d", calls.Load())
	}
}
