package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/quocanhngo/sportcast/internal/model"
	"github.com/quocanhngo/sportcast/pkg/storage"
)

// Max upload size: 10MB
const maxUploadSize = 10 << 20

const presignTTL = 15 * time.Minute

// Allowed MIME types
var allowedImageTypes = map[string]bool{
	"image/jpeg":    true,
	"image/png":     true,
	"image/gif":     true,
	"image/webp":    true,
	"image/svg+xml": true,
}

// Folders the dashboard uploads into
var allowedFolders = map[string]bool{
	"matches":    true,
	"channels":   true,
	"categories": true,
}

// UploadHandler handles image upload endpoints
type UploadHandler struct {
	storage   storage.Storage
	presigner storage.Presigner
	now       func() time.Time
}

// NewUploadHandler creates a new upload handler; presigner may be nil
func NewUploadHandler(store storage.Storage, presigner storage.Presigner) *UploadHandler {
	return &UploadHandler{storage: store, presigner: presigner, now: time.Now}
}

// UploadImage godoc
// @Summary Upload an image
// @Description Stores a team logo, channel logo or category image and returns its public URL.
// @Tags Upload
// @Accept multipart/form-data
// @Produce json
// @Param folder query string true "Target folder" Enums(matches, channels, categories)
// @Param file formData file true "Image to upload"
// @Success 200 {object} model.UploadResponse
// @Failure 400 {object} model.ErrorResponse
// @Failure 413 {object} model.ErrorResponse
// @Router /upload [post]
func (h *UploadHandler) UploadImage(c *gin.Context) {
	folder := c.Query("folder")
	if !allowedFolders[folder] {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid folder", Message: "Allowed: matches, channels, categories"})
		return
	}

	// Limit request body size
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, model.ErrorResponse{Error: "File too large (max 10MB)"})
			return
		}
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "File is required", Message: err.Error()})
		return
	}
	defer file.Close()

	declared := header.Header.Get("Content-Type")
	if declared == "application/octet-stream" {
		declared = ""
	}
	contentType := strings.ToLower(storage.ContentTypeFor(declared, header.Filename))
	if !allowedImageTypes[contentType] {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Error:   "Unsupported file type",
			Message: "Allowed: jpg, png, gif, webp, svg",
		})
		return
	}

	result, err := h.storage.Put(c.Request.Context(), storage.Object{
		Folder:      folder,
		FileName:    header.Filename,
		ContentType: contentType,
		Size:        header.Size,
		Body:        file,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: "Failed to upload file", Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, model.UploadResponse{
		URL:      result.URL,
		Key:      result.Key,
		FileName: result.FileName,
		FileSize: result.FileSize,
		MimeType: result.MimeType,
	})
}

// Presign godoc
// @Summary Get a presigned upload URL
// @Description Lets the browser PUT the image straight to the bucket.
// @Tags Upload
// @Accept json
// @Produce json
// @Param body body model.PresignRequest true "Upload target"
// @Success 200 {object} model.PresignResponse
// @Failure 400 {object} model.ErrorResponse
// @Failure 501 {object} model.ErrorResponse
// @Router /upload/presign [post]
func (h *UploadHandler) Presign(c *gin.Context) {
	if h.presigner == nil {
		c.JSON(http.StatusNotImplemented, model.ErrorResponse{Error: "Presigned uploads are not available for this storage driver"})
		return
	}

	var req model.PresignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid request", Message: err.Error()})
		return
	}
	if !allowedImageTypes[strings.ToLower(req.ContentType)] {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Unsupported file type"})
		return
	}

	key := storage.ObjectKey(req.Folder, req.FileName, h.now())
	url, err := h.presigner.PresignPut(c.Request.Context(), key, req.ContentType, presignTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: "Failed to presign upload", Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, model.PresignResponse{
		UploadURL: url,
		Key:       key,
		PublicURL: h.storage.PublicURL(key),
	})
}
