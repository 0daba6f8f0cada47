package respond

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"resume-tailor/internal/shared/apperr"
)

func TestAppErrorMapsKind(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		err        error
		wantStatus int
		wantCode   string
	}{
		{apperr.New(apperr.UnsupportedFileType, "op", "image/png"), http.StatusUnsupportedMediaType, "unsupported_file_type"},
		{apperr.New(apperr.InsufficientText, "op", "short"), http.StatusUnprocessableEntity, "insufficient_text"},
		{apperr.Transport("op", http.StatusTooManyRequests, "quota", nil), http.StatusBadGateway, "transport_error"},
		{apperr.New(apperr.Busy, "op", "running"), http.StatusConflict, "busy"},
	}
	for _, tc := range cases {
		resp := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(resp)
		c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/analyses", nil)

		AppError(c, tc.err)

		if resp.Code != tc.wantStatus {
			t.Fatalf("%v: status = %d, want %d", tc.err, resp.Code, tc.wantStatus)
		}
		var body ErrorResponse
		if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if body.Error.Code != tc.wantCode {
			t.Fatalf("code = %q, want %q", body.Error.Code, tc.wantCode)
		}
		if body.Error.Message != apperr.Message(apperr.Kind(tc.wantCode)) {
			t.Fatalf("unexpected message %q", body.Error.Message)
		}
		if c.GetString("errorKind") != tc.wantCode {
			t.Fatalf("errorKind not recorded for logging")
		}
	}
}

func TestAppErrorCarriesUpstreamStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	resp := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(resp)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/analyses", nil)

	AppError(c, apperr.Transport("gemini.send", http.StatusServiceUnavailable, "overloaded", nil))

	var body struct {
		Error struct {
			Details map[string]int `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error.Details["upstreamStatus"] != http.StatusServiceUnavailable {
		t.Fatalf("unexpected details %+v", body.Error.Details)
	}
}
