// Package gemini sends analysis requests to the Gemini generateContent endpoint.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"resume-tailor/internal/llm"
	"resume-tailor/internal/shared/apperr"
)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com"
	DefaultModel   = "gemini-2.5-pro"
	defaultTimeout = 120 * time.Second

	opSend = "gemini.send"
)

// Options configures a client. The credential is injected here and never read
// from the environment by this package.
type Options struct {
	APIKey     string
	Model      string
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

func (o Options) withDefaults() Options {
	if strings.TrimSpace(o.Model) == "" {
		o.Model = DefaultModel
	}
	o.BaseURL = strings.TrimRight(strings.TrimSpace(o.BaseURL), "/")
	if o.BaseURL == "" {
		o.BaseURL = DefaultBaseURL
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	return o
}

// Client implements llm.Client over plain HTTP.
type Client struct {
	apiKey     string
	model      string
	endpoint   string
	httpClient *http.Client
}

// NewClient constructs a client. An empty API key is accepted here and reported
// as MissingCredentials on the first Send.
func NewClient(opts Options) *Client {
	opts = opts.withDefaults()
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}
	return &Client{
		apiKey:     strings.TrimSpace(opts.APIKey),
		model:      opts.Model,
		endpoint:   fmt.Sprintf("%s/v1beta/models/%s:generateContent", opts.BaseURL, url.PathEscape(opts.Model)),
		httpClient: httpClient,
	}
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content *struct {
			Parts []struct {
				Text *string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

type errorEnvelope struct {
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Send performs exactly one generateContent call and returns the first
// candidate's first text part. It never retries.
func (c *Client) Send(ctx context.Context, req llm.Request) (string, error) {
	if c.apiKey == "" {
		return "", apperr.New(apperr.MissingCredentials, opSend, "GEMINI_API_KEY is not configured")
	}

	payload, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: req.Text}}}},
	})
	if err != nil {
		return "", fmt.Errorf("gemini request encode: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("gemini request build: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return "", err
		}
		if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout") {
			return "", apperr.Transport(opSend, 0, "request timeout", err)
		}
		return "", apperr.Transport(opSend, 0, "request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", apperr.Transport(opSend, resp.StatusCode, "read response body", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", apperr.Transport(opSend, resp.StatusCode, serverMessage(body, resp.Status), nil)
	}

	return firstCandidateText(body)
}

func serverMessage(body []byte, fallback string) string {
	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err == nil && env.Error != nil && strings.TrimSpace(env.Error.Message) != "" {
		return env.Error.Message
	}
	if trimmed := strings.TrimSpace(string(body)); trimmed != "" {
		return trimmed
	}
	return fallback
}

func firstCandidateText(body []byte) (string, error) {
	var parsed generateResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", apperr.Wrap(apperr.MalformedBackendResponse, opSend, fmt.Errorf("decode envelope: %w", err))
	}
	if len(parsed.Candidates) == 0 {
		return "", apperr.New(apperr.MalformedBackendResponse, opSend, "response missing candidates")
	}
	candidate := parsed.Candidates[0]
	if candidate.Content == nil {
		return "", apperr.New(apperr.MalformedBackendResponse, opSend, "candidate missing content")
	}
	if len(candidate.Content.Parts) == 0 {
		return "", apperr.New(apperr.MalformedBackendResponse, opSend, "content missing parts")
	}
	text := candidate.Content.Parts[0].Text
	if text == nil || strings.TrimSpace(*text) == "" {
		return "", apperr.New(apperr.MalformedBackendResponse, opSend, "part missing text")
	}
	return *text, nil
}

var _ llm.Client = (*Client)(nil)
