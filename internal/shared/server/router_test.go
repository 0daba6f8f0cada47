package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"resume-tailor/internal/analyses"
	"resume-tailor/internal/generatedresumes"
	"resume-tailor/internal/llm"
	"resume-tailor/internal/services/health"
	"resume-tailor/internal/shared/config"
	localstore "resume-tailor/internal/shared/storage/object/local"
)

const routerReply = `{"atsScore":72,"matchedKeywords":["Go"],"missingKeywords":["gRPC"],"tips":[],"insights":{"strengths":[],"weaknesses":[],"recommendations":[]},"generatedResume":"Go Developer"}`

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	client := llm.ClientFunc(func(context.Context, llm.Request) (string, error) {
		return routerReply, nil
	})
	analysisSvc := analyses.NewService(client, analyses.NewMemoryRepo(), "gemini-2.5-pro")
	generatedSvc := &generatedresumes.Service{
		Repo:  generatedresumes.NewMemoryRepo(),
		Store: localstore.New(t.TempDir()),
	}
	return NewRouter(RouterDeps{
		Config:                 config.Config{Env: "dev", CORSAllowOrigin: []string{"http://localhost:3000"}},
		Health:                 health.NewService(nil, "local", "http", true),
		AnalysisHandler:        analyses.NewHandler(analysisSvc, nil),
		GeneratedResumeHandler: generatedresumes.NewHandler(generatedSvc),
	})
}

func TestHealthAndMetrics(t *testing.T) {
	r := newTestRouter(t)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	if resp.Code != http.StatusOK || !strings.Contains(resp.Body.String(), `"ok":true`) {
		t.Fatalf("unexpected health response %d %s", resp.Code, resp.Body.String())
	}

	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if resp.Code != http.StatusOK || !strings.Contains(resp.Body.String(), "analysis_started_total") {
		t.Fatalf("unexpected metrics response %d %s", resp.Code, resp.Body.String())
	}
}

func TestAnalyzeThenSaveGeneratedResume(t *testing.T) {
	r := newTestRouter(t)

	form := url.Values{}
	form.Set("resumeText", "Experienced Go developer")
	form.Set("jobDescription", "Go engineer with gRPC")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyses", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Session-Id", "router-tab")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("analyze: expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var analyzed struct {
		Result analyses.Result `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&analyzed); err != nil {
		t.Fatalf("decode analysis: %v", err)
	}

	body, _ := json.Marshal(map[string]string{"text": analyzed.Result.GeneratedResume, "fileName": "tailored"})
	req = httptest.NewRequest(http.MethodPost, "/api/v1/generated-resumes", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Session-Id", "router-tab")
	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("save: expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
	var saved generatedresumes.GeneratedResume
	if err := json.NewDecoder(resp.Body).Decode(&saved); err != nil {
		t.Fatalf("decode saved: %v", err)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/generated-resumes/"+saved.ID+"/download", nil)
	req.Header.Set("X-Session-Id", "router-tab")
	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK || !bytes.HasPrefix(resp.Body.Bytes(), []byte("PK")) {
		t.Fatalf("download: unexpected response %d", resp.Code)
	}
}

func TestAnalyzeIsRateLimitedPerSession(t *testing.T) {
	r := newTestRouter(t)

	send := func(session string) int {
		form := url.Values{}
		form.Set("resumeText", "Experienced Go developer")
		form.Set("jobDescription", "Go engineer")
		req := httptest.NewRequest(http.MethodPost, "/api/v1/analyses", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("X-Session-Id", session)
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, req)
		return resp.Code
	}

	for i := 0; i < 3; i++ {
		if code := send("limited"); code != http.StatusOK {
			t.Fatalf("request %d expected 200, got %d", i+1, code)
		}
	}
	if code := send("limited"); code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", code)
	}
	if code := send("other"); code != http.StatusOK {
		t.Fatalf("other sessions are independent, got %d", code)
	}
}

func TestAddr(t *testing.T) {
	cases := map[string]string{"": ":8080", "9000": ":9000", ":7000": ":7000"}
	for in, want := range cases {
		if got := Addr(in); got != want {
			t.Fatalf("Addr(%q) = %q, want %q", in, got, want)
		}
	}
}
