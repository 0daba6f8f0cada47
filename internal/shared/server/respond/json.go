package respond

import (
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"
)

// JSON writes a JSON response with the given status.
func JSON(c *gin.Context, status int, payload any) {
	c.JSON(status, payload)
}

// OK writes a 200 OK JSON response.
func OK(c *gin.Context, payload any) {
	JSON(c, http.StatusOK, payload)
}

// AttachmentHeaders marks the response as a download of fileName.
func AttachmentHeaders(c *gin.Context, fileName, contentType string) {
	c.Header("Content-Type", contentType)
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": fileName}))
}

// Attachment writes data as a downloadable file.
func Attachment(c *gin.Context, fileName, contentType string, data []byte) {
	AttachmentHeaders(c, fileName, contentType)
	c.Data(http.StatusOK, contentType, data)
}
