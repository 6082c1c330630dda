package events

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/conflearn/backend/internal/middleware"
	"github.com/conflearn/backend/internal/models"
	"github.com/conflearn/backend/pkg/database"
	"github.com/conflearn/backend/pkg/response"
	"github.com/conflearn/backend/pkg/storage"
)

// Uploader stores a media object and returns its permanent URL.
type Uploader interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader, contentLength int64) (string, error)
}

// SessionLister supplies the ordered sessions for the details view.
type SessionLister interface {
	ListByEvent(ctx context.Context, eventID uuid.UUID) ([]models.Session, error)
}

// TopicLister supplies joined topic views for the details view.
type TopicLister interface {
	ListViewsByEvent(ctx context.Context, eventID uuid.UUID) ([]models.TopicView, error)
}

// AccessChecker reports whether a user currently holds unlocked access to
// an event, and the underlying enrollment status.
type AccessChecker interface {
	AccessStatus(ctx context.Context, userID, eventID uuid.UUID) (bool, models.EnrollmentStatus, error)
}

// Handler handles event HTTP endpoints.
type Handler struct {
	repo     *Repository
	sessions SessionLister
	topics   TopicLister
	access   AccessChecker
	uploader Uploader
	logger   *zap.Logger
}

func NewHandler(repo *Repository, sessions SessionLister, topics TopicLister, access AccessChecker, uploader Uploader, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, sessions: sessions, topics: topics, access: access, uploader: uploader, logger: logger}
}

// Create handles POST /api/events/admin. Multipart form; cover image
// required.
func (h *Handler) Create(c *gin.Context) {
	admin, ok := middleware.AdminFrom(c)
	if !ok {
		response.Unauthorized(c, "missing admin context")
		return
	}

	fullName := c.PostForm("full_name")
	shortName := c.PostForm("short_name")
	if fullName == "" || shortName == "" {
		response.BadRequest(c, "full_name and short_name are required")
		return
	}

	startDate, err := parseDate(c.PostForm("start_date"))
	if err != nil {
		response.BadRequest(c, "invalid start_date")
		return
	}
	endDate, err := parseDate(c.PostForm("end_date"))
	if err != nil {
		response.BadRequest(c, "invalid end_date")
		return
	}
	if endDate.Before(startDate) {
		response.BadRequest(c, "end_date must not be before start_date")
		return
	}

	regType := models.RegType(c.PostForm("reg_type"))
	if regType != models.RegTypeFree && regType != models.RegTypePaid {
		response.BadRequest(c, "reg_type must be FREE or PAID")
		return
	}
	amount := 0.0
	if regType == models.RegTypePaid {
		amount, err = strconv.ParseFloat(c.PostForm("amount"), 64)
		if err != nil || amount <= 0 {
			response.BadRequest(c, "amount must be greater than zero for paid events")
			return
		}
	}

	status := models.EventStatus(c.DefaultPostForm("status", string(models.EventStatusDraft)))
	if !validStatus(status) {
		response.BadRequest(c, "status must be DRAFT, ACTIVE or ARCHIVED")
		return
	}

	file, err := c.FormFile("image")
	if err != nil {
		response.BadRequest(c, "cover image is required")
		return
	}
	imageURL, err := h.uploadImage(c, storage.FolderEvents, shortName, file)
	if err != nil {
		return // response already written
	}

	event, err := h.repo.Create(c.Request.Context(), CreateEventParams{
		FullName:  fullName,
		ShortName: shortName,
		Image:     imageURL,
		StartDate: startDate,
		EndDate:   endDate,
		Venue:     c.PostForm("venue"),
		City:      c.PostForm("city"),
		State:     c.PostForm("state"),
		Country:   c.PostForm("country"),
		RegType:   regType,
		Amount:    amount,
		Status:    status,
		CreatedBy: admin.ID,
	})
	if err != nil {
		if database.IsUniqueViolation(err) {
			response.Conflict(c, "event name already exists")
			return
		}
		h.logger.Error("create event failed", zap.Error(err))
		response.Internal(c, "failed to create event")
		return
	}
	response.Created(c, event)
}

// AdminList handles GET /api/events/admin.
func (h *Handler) AdminList(c *gin.Context) {
	events, err := h.repo.List(c.Request.Context(), ListFilter{
		Status:  models.EventStatus(c.Query("status")),
		RegType: models.RegType(c.Query("reg_type")),
		Sort:    c.Query("sort"),
	})
	if err != nil {
		h.logger.Error("list events failed", zap.Error(err))
		response.Internal(c, "failed to list events")
		return
	}
	response.OK(c, events)
}

// Stats handles GET /api/events/admin/:id/stats.
func (h *Handler) Stats(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	if _, err := h.repo.GetByID(c.Request.Context(), id); err != nil {
		if database.IsNotFound(err) {
			response.NotFound(c, "event not found")
			return
		}
		response.Internal(c, "failed to load event")
		return
	}
	stats, err := h.repo.Stats(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("event stats failed", zap.Error(err))
		response.Internal(c, "failed to compute event stats")
		return
	}
	response.OK(c, stats)
}

// Update handles PUT /api/events/admin/:id. Multipart form; only the
// allow-listed fields present in the form are changed.
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}

	params := UpdateEventParams{
		FullName:  formField(c, "full_name"),
		ShortName: formField(c, "short_name"),
		Venue:     formField(c, "venue"),
		City:      formField(c, "city"),
		State:     formField(c, "state"),
		Country:   formField(c, "country"),
	}

	if v, ok := c.GetPostForm("start_date"); ok {
		t, err := parseDate(v)
		if err != nil {
			response.BadRequest(c, "invalid start_date")
			return
		}
		params.StartDate = &t
	}
	if v, ok := c.GetPostForm("end_date"); ok {
		t, err := parseDate(v)
		if err != nil {
			response.BadRequest(c, "invalid end_date")
			return
		}
		params.EndDate = &t
	}
	if v, ok := c.GetPostForm("reg_type"); ok {
		if rt := models.RegType(v); rt != models.RegTypeFree && rt != models.RegTypePaid {
			response.BadRequest(c, "reg_type must be FREE or PAID")
			return
		}
		params.RegType = &v
	}
	if v, ok := c.GetPostForm("amount"); ok {
		amount, err := strconv.ParseFloat(v, 64)
		if err != nil || amount < 0 {
			response.BadRequest(c, "invalid amount")
			return
		}
		params.Amount = &amount
	}
	if v, ok := c.GetPostForm("status"); ok {
		if !validStatus(models.EventStatus(v)) {
			response.BadRequest(c, "status must be DRAFT, ACTIVE or ARCHIVED")
			return
		}
		params.Status = &v
	}

	if file, err := c.FormFile("image"); err == nil {
		url, err := h.uploadImage(c, storage.FolderEvents, id.String(), file)
		if err != nil {
			return
		}
		params.Image = &url
	}

	event, err := h.repo.Update(c.Request.Context(), id, params)
	if err != nil {
		if database.IsNotFound(err) {
			response.NotFound(c, "event not found")
			return
		}
		if database.IsUniqueViolation(err) {
			response.Conflict(c, "event name already exists")
			return
		}
		h.logger.Error("update event failed", zap.Error(err))
		response.Internal(c, "failed to update event")
		return
	}
	response.OK(c, event)
}

// Delete handles DELETE /api/events/admin/:id.
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	deleted, err := h.repo.Delete(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("delete event failed", zap.Error(err))
		response.Internal(c, "failed to delete event")
		return
	}
	if !deleted {
		response.NotFound(c, "event not found")
		return
	}
	response.NoContent(c)
}

// PublicList handles GET /api/events/public and its /free and /paid
// variants.
func (h *Handler) PublicList(regType models.RegType) gin.HandlerFunc {
	return func(c *gin.Context) {
		events, err := h.repo.List(c.Request.Context(), ListFilter{
			Status:  models.EventStatusActive,
			RegType: regType,
			Sort:    c.Query("sort"),
		})
		if err != nil {
			h.logger.Error("list public events failed", zap.Error(err))
			response.Internal(c, "failed to list events")
			return
		}
		response.OK(c, events)
	}
}

// EventDetails is the public details payload: the event plus its ordered
// sessions, gated topics and the requester's enrollment state.
type EventDetails struct {
	Event            models.Event            `json:"event"`
	Sessions         []models.Session        `json:"sessions"`
	Topics           []models.TopicView      `json:"topics"`
	IsEnrolled       bool                    `json:"is_enrolled"`
	EnrollmentStatus models.EnrollmentStatus `json:"enrollment_status,omitempty"`
	DurationMinutes  int                     `json:"duration_minutes"`
}

// Details handles GET /api/events/public/details/:id. The user is optional;
// topic video links are blanked unless the caller holds unlocked access.
func (h *Handler) Details(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}

	event, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		if database.IsNotFound(err) {
			response.NotFound(c, "event not found")
			return
		}
		h.logger.Error("get event failed", zap.Error(err))
		response.Internal(c, "failed to load event")
		return
	}
	if event.Status != models.EventStatusActive {
		response.NotFound(c, "event not found")
		return
	}

	sessions, err := h.sessions.ListByEvent(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("list sessions failed", zap.Error(err))
		response.Internal(c, "failed to load sessions")
		return
	}
	topics, err := h.topics.ListViewsByEvent(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("list topics failed", zap.Error(err))
		response.Internal(c, "failed to load topics")
		return
	}

	details := EventDetails{Event: *event, Sessions: sessions, Topics: topics}
	if user, ok := middleware.UserFrom(c); ok {
		enrolled, status, err := h.access.AccessStatus(c.Request.Context(), user.ID, id)
		if err != nil {
			h.logger.Error("enrollment lookup failed", zap.Error(err))
			response.Internal(c, "failed to check enrollment")
			return
		}
		details.IsEnrolled = enrolled
		details.EnrollmentStatus = status
	}
	if !details.IsEnrolled {
		for i := range details.Topics {
			details.Topics[i].VideoLink = ""
		}
	}

	durations := make([]string, 0, len(topics))
	for _, t := range topics {
		durations = append(durations, t.Duration)
	}
	details.DurationMinutes = TotalMinutes(durations)

	response.OK(c, details)
}

// Registered handles GET /api/events/registered.
func (h *Handler) Registered(c *gin.Context) {
	user, ok := middleware.UserFrom(c)
	if !ok {
		response.Unauthorized(c, "missing user context")
		return
	}
	events, err := h.repo.ListRegistered(c.Request.Context(), user.ID)
	if err != nil {
		h.logger.Error("list registered events failed", zap.Error(err))
		response.Internal(c, "failed to list registered events")
		return
	}
	response.OK(c, events)
}

var errBadImage = errors.New("invalid image upload")

func (h *Handler) uploadImage(c *gin.Context, folder, owner string, file *multipart.FileHeader) (string, error) {
	if !storage.ValidateImageFilename(file.Filename) {
		response.BadRequest(c, "image must be a jpg, jpeg, png or webp file")
		return "", errBadImage
	}
	if file.Size > storage.MaxImageSize {
		response.BadRequest(c, "image exceeds the 10MB limit")
		return "", errBadImage
	}
	if h.uploader == nil {
		response.Internal(c, "media storage not configured")
		return "", errBadImage
	}
	src, err := file.Open()
	if err != nil {
		response.Internal(c, "failed to read image")
		return "", err
	}
	defer src.Close()
	key := storage.MediaKey(folder, owner, file.Filename)
	url, err := h.uploader.Upload(c.Request.Context(), key, storage.ContentTypeForFilename(file.Filename), src, file.Size)
	if err != nil {
		h.logger.Error("image upload failed", zap.Error(err))
		response.Internal(c, "failed to upload image")
		return "", err
	}
	return url, nil
}

func validStatus(s models.EventStatus) bool {
	return s == models.EventStatusDraft || s == models.EventStatusActive || s == models.EventStatusArchived
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

func formField(c *gin.Context, name string) *string {
	if v, ok := c.GetPostForm(name); ok {
		return &v
	}
	return nil
}
