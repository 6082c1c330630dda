package speakers

import (
	"context"
	"errors"
	"io"
	"mime/multipart"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/conflearn/backend/internal/middleware"
	"github.com/conflearn/backend/pkg/database"
	"github.com/conflearn/backend/pkg/response"
	"github.com/conflearn/backend/pkg/storage"
)

// Uploader stores a media object and returns its permanent URL.
type Uploader interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader, contentLength int64) (string, error)
}

// Handler handles speaker HTTP endpoints.
type Handler struct {
	repo     *Repository
	uploader Uploader
	logger   *zap.Logger
}

func NewHandler(repo *Repository, uploader Uploader, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, uploader: uploader, logger: logger}
}

// Create handles POST /api/speakers/admin. Multipart form with an optional
// "photo" file.
func (h *Handler) Create(c *gin.Context) {
	admin, ok := middleware.AdminFrom(c)
	if !ok {
		response.Unauthorized(c, "missing admin context")
		return
	}

	name := c.PostForm("name")
	if name == "" {
		response.BadRequest(c, "name is required")
		return
	}

	photoURL := ""
	if file, err := c.FormFile("photo"); err == nil {
		url, err := h.uploadPhoto(c, name, file)
		if err != nil {
			return
		}
		photoURL = url
	}

	speaker, err := h.repo.Create(c.Request.Context(), CreateSpeakerParams{
		Name:        name,
		Affiliation: c.PostForm("affiliation"),
		State:       c.PostForm("state"),
		Country:     c.PostForm("country"),
		Photo:       photoURL,
		CreatedBy:   admin.ID,
	})
	if err != nil {
		h.logger.Error("create speaker failed", zap.Error(err))
		response.Internal(c, "failed to create speaker")
		return
	}
	response.Created(c, speaker)
}

// List handles GET /api/speakers. ?sort=topics orders by topic count.
func (h *Handler) List(c *gin.Context) {
	speakers, err := h.repo.List(c.Request.Context(), c.Query("sort") == "topics")
	if err != nil {
		h.logger.Error("list speakers failed", zap.Error(err))
		response.Internal(c, "failed to list speakers")
		return
	}
	response.OK(c, speakers)
}

// Get handles GET /api/speakers/:id.
func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid speaker id")
		return
	}
	speaker, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		if database.IsNotFound(err) {
			response.NotFound(c, "speaker not found")
			return
		}
		response.Internal(c, "failed to load speaker")
		return
	}
	response.OK(c, speaker)
}

// Update handles PUT /api/speakers/admin/:id. Multipart form; only fields
// present in the form are changed.
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid speaker id")
		return
	}

	params := UpdateSpeakerParams{
		Name:        formField(c, "name"),
		Affiliation: formField(c, "affiliation"),
		State:       formField(c, "state"),
		Country:     formField(c, "country"),
	}
	if file, err := c.FormFile("photo"); err == nil {
		url, err := h.uploadPhoto(c, id.String(), file)
		if err != nil {
			return
		}
		params.Photo = &url
	}

	speaker, err := h.repo.Update(c.Request.Context(), id, params)
	if err != nil {
		if database.IsNotFound(err) {
			response.NotFound(c, "speaker not found")
			return
		}
		h.logger.Error("update speaker failed", zap.Error(err))
		response.Internal(c, "failed to update speaker")
		return
	}
	response.OK(c, speaker)
}

// Delete handles DELETE /api/speakers/admin/:id. Speakers still referenced
// by topics cannot be removed.
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid speaker id")
		return
	}
	deleted, err := h.repo.Delete(c.Request.Context(), id)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			response.Conflict(c, "speaker is still assigned to topics")
			return
		}
		h.logger.Error("delete speaker failed", zap.Error(err))
		response.Internal(c, "failed to delete speaker")
		return
	}
	if !deleted {
		response.NotFound(c, "speaker not found")
		return
	}
	response.NoContent(c)
}

var errInvalidPhoto = errors.New("invalid photo upload")

func (h *Handler) uploadPhoto(c *gin.Context, owner string, file *multipart.FileHeader) (string, error) {
	if !storage.ValidateImageFilename(file.Filename) {
		response.BadRequest(c, "photo must be a jpg, jpeg, png or webp file")
		return "", errInvalidPhoto
	}
	if h.uploader == nil {
		response.Internal(c, "media storage not configured")
		return "", errInvalidPhoto
	}
	src, err := file.Open()
	if err != nil {
		response.Internal(c, "failed to read photo")
		return "", err
	}
	defer src.Close()
	key := storage.MediaKey(storage.FolderSpeakers, owner, file.Filename)
	url, err := h.uploader.Upload(c.Request.Context(), key, storage.ContentTypeForFilename(file.Filename), src, file.Size)
	if err != nil {
		h.logger.Error("speaker photo upload failed", zap.Error(err))
		response.Internal(c, "failed to upload photo")
		return "", err
	}
	return url, nil
}

func formField(c *gin.Context, name string) *string {
	if v, ok := c.GetPostForm(name); ok {
		return &v
	}
	return nil
}
