package generatedresumes

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"resume-tailor/internal/render"
	"resume-tailor/internal/shared/server/middleware"
)

func newGeneratedRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Session())
	NewHandler(newTestService(t)).RegisterRoutes(r.Group("/api/v1"))
	return r
}

func doJSON(r *gin.Engine, method, path, session string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Session-Id", session)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestRenderReturnsDocx(t *testing.T) {
	router := newGeneratedRouter(t)
	resp := doJSON(router, http.MethodPost, "/api/v1/generated-resumes/render", "tab", map[string]string{
		"text":     "Line A\n\nLine B",
		"fileName": "Tailored",
	})

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if got := resp.Header().Get("Content-Type"); got != render.MimeDOCX {
		t.Fatalf("content type = %q", got)
	}
	if got := resp.Header().Get("Content-Disposition"); got != "attachment; filename=Tailored.docx" {
		t.Fatalf("content disposition = %q", got)
	}
	if !bytes.HasPrefix(resp.Body.Bytes(), []byte("PK")) {
		t.Fatalf("expected a zip package")
	}
}

func TestRenderRequiresText(t *testing.T) {
	router := newGeneratedRouter(t)
	resp := doJSON(router, http.MethodPost, "/api/v1/generated-resumes/render", "tab", map[string]string{"fileName": "x"})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestSaveListAndDownload(t *testing.T) {
	router := newGeneratedRouter(t)

	resp := doJSON(router, http.MethodPost, "/api/v1/generated-resumes", "tab-1", map[string]string{"text": "Go Developer\nSkills: Go"})
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
	var saved struct {
		ID       string `json:"id"`
		FileName string `json:"fileName"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&saved); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if saved.ID == "" || saved.FileName != render.DefaultFileName {
		t.Fatalf("unexpected body %+v", saved)
	}

	resp = doJSON(router, http.MethodGet, "/api/v1/generated-resumes", "tab-1", nil)
	if resp.Code != http.StatusOK || !strings.Contains(resp.Body.String(), saved.ID) {
		t.Fatalf("expected saved resume in list, got %d %s", resp.Code, resp.Body.String())
	}
	if strings.Contains(resp.Body.String(), "sessionHash") {
		t.Fatalf("session hash must not be exposed")
	}

	resp = doJSON(router, http.MethodGet, "/api/v1/generated-resumes/"+saved.ID+"/download", "tab-1", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if !strings.Contains(resp.Header().Get("Content-Disposition"), render.DefaultFileName) {
		t.Fatalf("unexpected disposition %q", resp.Header().Get("Content-Disposition"))
	}
	if !bytes.HasPrefix(resp.Body.Bytes(), []byte("PK")) {
		t.Fatalf("expected a zip package")
	}

	resp = doJSON(router, http.MethodGet, "/api/v1/generated-resumes/"+saved.ID+"/download", "tab-2", nil)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for another session, got %d", resp.Code)
	}
}
