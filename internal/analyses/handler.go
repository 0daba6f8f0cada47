package analyses

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"resume-tailor/internal/shared/server/middleware"
	"resume-tailor/internal/shared/server/respond"
)

const (
	maxUploadSize = 10 << 20 // 10MB
	defaultRuns   = 20
	maxRuns       = 100
)

// JobFetcher turns a posting URL into job-description text.
type JobFetcher func(ctx context.Context, rawURL string) (string, error)

// Handler wires HTTP handlers to the analyses service.
type Handler struct {
	Svc      *Service
	FetchJob JobFetcher
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, fetchJob JobFetcher) *Handler {
	return &Handler{Svc: svc, FetchJob: fetchJob}
}

// RegisterRoutes attaches analysis routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/analyses", h.analyze)
	rg.GET("/analyses/state", h.state)
	rg.GET("/analyses/runs", h.runs)
}

type statusResponse struct {
	Status
	Busy bool `json:"busy"`
}

func toStatusResponse(st Status) statusResponse {
	return statusResponse{Status: st, Busy: st.Busy()}
}

func (h *Handler) analyze(c *gin.Context) {
	session := middleware.SessionFromContext(c)
	ctx := WithRequestID(c.Request.Context(), middleware.RequestIDFromContext(c))
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)

	in := Input{SessionKey: session}
	fileHeader, err := c.FormFile("file")
	switch {
	case err == nil:
		file, openErr := fileHeader.Open()
		if openErr != nil {
			respond.Error(c, http.StatusBadRequest, "read_failed", "unable to read file", nil)
			return
		}
		defer file.Close()
		in.Source = SourceFile
		in.File = file
		in.FileName = fileHeader.Filename
		// The declared type is authoritative; the filename is never consulted.
		in.MediaType = strings.TrimSpace(fileHeader.Header.Get("Content-Type"))
		if in.MediaType == "" {
			in.MediaType = "application/octet-stream"
		}
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		in.Source = SourceText
		in.ResumeText = c.PostForm("resumeText")
	default:
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respond.Error(c, http.StatusRequestEntityTooLarge, "file_too_large", "The file is larger than 10MB.", nil)
			return
		}
		respond.Error(c, http.StatusBadRequest, "invalid_input", "invalid form body", nil)
		return
	}

	if err := checkMediaType(in); err != nil {
		respond.AppError(c, err)
		return
	}

	in.JobDescription = c.PostForm("jobDescription")
	if strings.TrimSpace(in.JobDescription) == "" {
		if jobURL := strings.TrimSpace(c.PostForm("jobUrl")); jobURL != "" && h.FetchJob != nil {
			text, fetchErr := h.FetchJob(ctx, jobURL)
			if fetchErr != nil {
				respond.AppError(c, fetchErr)
				return
			}
			in.JobDescription = text
		}
	}

	result, err := h.Svc.Analyze(ctx, in)
	if err != nil {
		respond.AppError(c, err)
		return
	}
	st := h.Svc.Status(session)
	c.Set("statusTransition", string(StateAnalyzing)+"->"+string(st.State))

	respond.JSON(c, http.StatusOK, gin.H{
		"result": result,
		"status": toStatusResponse(st),
	})
}

func (h *Handler) state(c *gin.Context) {
	respond.OK(c, toStatusResponse(h.Svc.Status(middleware.SessionFromContext(c))))
}

func (h *Handler) runs(c *gin.Context) {
	limit := defaultRuns
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	if limit <= 0 {
		limit = defaultRuns
	}
	if limit > maxRuns {
		limit = maxRuns
	}

	runs, err := h.Svc.RunsForSession(c.Request.Context(), middleware.SessionFromContext(c), limit)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list runs", nil)
		return
	}
	respond.OK(c, gin.H{"runs": runs})
}
