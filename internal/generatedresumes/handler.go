package generatedresumes

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"resume-tailor/internal/render"
	"resume-tailor/internal/shared/apperr"
	"resume-tailor/internal/shared/server/middleware"
	"resume-tailor/internal/shared/server/respond"
	"resume-tailor/internal/shared/telemetry"
)

const maxTextBody = 1 << 20 // 1MB

// Handler wires HTTP handlers to the generated resume service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches generated resume routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/generated-resumes", h.save)
	rg.GET("/generated-resumes", h.list)
	rg.POST("/generated-resumes/render", h.render)
	rg.GET("/generated-resumes/:id/download", h.download)
}

type generateRequest struct {
	Text     *string `json:"text" binding:"required"`
	FileName string  `json:"fileName"`
}

func (h *Handler) bind(c *gin.Context) (generateRequest, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxTextBody)
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_input", "text is required", nil)
		return generateRequest{}, false
	}
	return req, true
}

func (h *Handler) save(c *gin.Context) {
	req, ok := h.bind(c)
	if !ok {
		return
	}

	resume, err := h.Svc.Save(c.Request.Context(), middleware.SessionFromContext(c), *req.Text, req.FileName)
	if err != nil {
		respond.AppError(c, err)
		return
	}
	respond.JSON(c, http.StatusCreated, resume)
}

func (h *Handler) render(c *gin.Context) {
	req, ok := h.bind(c)
	if !ok {
		return
	}
	name, err := docxFileName(req.FileName)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_input", "invalid file name", nil)
		return
	}

	docx, err := h.Svc.Render(*req.Text)
	if err != nil {
		respond.AppError(c, err)
		return
	}
	respond.Attachment(c, name, render.MimeDOCX, docx)
}

func (h *Handler) list(c *gin.Context) {
	limit := 20
	offset := 0
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			offset = parsed
		}
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	resumes, err := h.Svc.List(c.Request.Context(), middleware.SessionFromContext(c), limit, offset)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list generated resumes", nil)
		return
	}
	respond.OK(c, gin.H{"generatedResumes": resumes})
}

func (h *Handler) download(c *gin.Context) {
	resume, reader, err := h.Svc.Open(c.Request.Context(), middleware.SessionFromContext(c), c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "generated resume not found", nil)
			return
		}
		respond.AppError(c, apperr.Wrap(apperr.Internal, "generatedresumes.download", err))
		return
	}
	defer reader.Close()

	respond.AttachmentHeaders(c, resume.FileName, render.MimeDOCX)
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, reader); err != nil {
		telemetry.Warn("generated_resume.download_interrupted", map[string]any{
			"generated_resume_id": resume.ID,
			"error":               err.Error(),
		})
	}
}
