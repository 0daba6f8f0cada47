package gemini

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"

	"google.golang.org/genai"

	"resume-tailor/internal/llm"
	"resume-tailor/internal/shared/apperr"
)

const opSDKSend = "gemini.sdk.send"

// SDKClient implements llm.Client on top of the official genai SDK. It shares the
// error classification of Client.
type SDKClient struct {
	opts Options

	once    sync.Once
	client  *genai.Client
	initErr error
}

// NewSDKClient defers SDK construction to the first Send so a missing key is
// reported as MissingCredentials without touching the environment.
func NewSDKClient(opts Options) *SDKClient {
	opts = opts.withDefaults()
	opts.APIKey = strings.TrimSpace(opts.APIKey)
	return &SDKClient{opts: opts}
}

// init builds the SDK client once. Construction is detached from any request
// context so a caller that is already canceled cannot poison later sends.
func (c *SDKClient) init() error {
	c.once.Do(func() {
		httpClient := c.opts.HTTPClient
		if httpClient == nil {
			httpClient = &http.Client{Timeout: c.opts.Timeout}
		}
		c.client, c.initErr = genai.NewClient(context.Background(), &genai.ClientConfig{
			APIKey:     c.opts.APIKey,
			Backend:    genai.BackendGeminiAPI,
			HTTPClient: httpClient,
			HTTPOptions: genai.HTTPOptions{
				BaseURL: c.opts.BaseURL + "/",
			},
		})
	})
	return c.initErr
}

func (c *SDKClient) Send(ctx context.Context, req llm.Request) (string, error) {
	if c.opts.APIKey == "" {
		return "", apperr.New(apperr.MissingCredentials, opSDKSend, "GEMINI_API_KEY is not configured")
	}
	if err := c.init(); err != nil {
		return "", apperr.Transport(opSDKSend, 0, "client setup failed", err)
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.opts.Model, genai.Text(req.Text), nil)
	if err != nil {
		return "", classifySDKError(err)
	}
	return responseText(resp)
}

func classifySDKError(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apperr.Transport(opSDKSend, apiErr.Code, apiErr.Message, err)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apperr.Transport(opSDKSend, apiErrPtr.Code, apiErrPtr.Message, err)
	}
	return apperr.Transport(opSDKSend, 0, "request failed", err)
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", apperr.New(apperr.MalformedBackendResponse, opSDKSend, "response missing candidates")
	}
	candidate := resp.Candidates[0]
	if candidate == nil || candidate.Content == nil {
		return "", apperr.New(apperr.MalformedBackendResponse, opSDKSend, "candidate missing content")
	}
	if len(candidate.Content.Parts) == 0 || candidate.Content.Parts[0] == nil {
		return "", apperr.New(apperr.MalformedBackendResponse, opSDKSend, "content missing parts")
	}
	text := candidate.Content.Parts[0].Text
	if strings.TrimSpace(text) == "" {
		return "", apperr.New(apperr.MalformedBackendResponse, opSDKSend, "part missing text")
	}
	return text, nil
}

var _ llm.Client = (*SDKClient)(nil)
