package topics

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/conflearn/backend/internal/middleware"
	"github.com/conflearn/backend/internal/models"
	"github.com/conflearn/backend/pkg/database"
	"github.com/conflearn/backend/pkg/response"
)

// AccessChecker reports whether a user currently holds unlocked access to
// an event.
type AccessChecker interface {
	AccessStatus(ctx context.Context, userID, eventID uuid.UUID) (bool, models.EnrollmentStatus, error)
}

// ViewLister supplies joined topic views for the user-facing listings. The
// session variant takes both keys so results stay scoped to the event the
// gate was evaluated against.
type ViewLister interface {
	ListViewsByEvent(ctx context.Context, eventID uuid.UUID) ([]models.TopicView, error)
	ListViewsByEventSession(ctx context.Context, eventID, sessionID uuid.UUID) ([]models.TopicView, error)
}

// CreateRequest is the body for POST /api/topics/admin.
type CreateRequest struct {
	EventID   uuid.UUID `json:"event_id" binding:"required"`
	SessionID uuid.UUID `json:"session_id" binding:"required"`
	SpeakerID uuid.UUID `json:"speaker_id" binding:"required"`
	Title     string    `json:"topic" binding:"required"`
	VideoLink string    `json:"video_link"`
	Thumbnail string    `json:"thumbnail"`
	Duration  string    `json:"duration"`
	Order     int       `json:"order"`
}

// UpdateRequest is the body for PUT /api/topics/admin/:id.
type UpdateRequest struct {
	SessionID *uuid.UUID `json:"session_id"`
	SpeakerID *uuid.UUID `json:"speaker_id"`
	Title     *string    `json:"topic"`
	VideoLink *string    `json:"video_link"`
	Thumbnail *string    `json:"thumbnail"`
	Duration  *string    `json:"duration"`
	Order     *int       `json:"order"`
}

// DurationValidator checks a "HH:MM:SS" string.
type DurationValidator func(string) (int, error)

// Handler handles topic HTTP endpoints. Admin endpoints bind the concrete
// repository; the gated user listings go through ViewLister.
type Handler struct {
	repo          *Repository
	views         ViewLister
	access        AccessChecker
	checkDuration DurationValidator
	logger        *zap.Logger
}

func NewHandler(repo *Repository, views ViewLister, access AccessChecker, checkDuration DurationValidator, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, views: views, access: access, checkDuration: checkDuration, logger: logger}
}

// Create handles POST /api/topics/admin.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if req.Duration != "" {
		if _, err := h.checkDuration(req.Duration); err != nil {
			response.BadRequest(c, "duration must be HH:MM:SS")
			return
		}
	}
	if req.Order <= 0 {
		req.Order = 1
	}

	topic, err := h.repo.Create(c.Request.Context(), CreateTopicParams{
		EventID:   req.EventID,
		SessionID: req.SessionID,
		SpeakerID: req.SpeakerID,
		Title:     req.Title,
		VideoLink: req.VideoLink,
		Thumbnail: req.Thumbnail,
		Duration:  req.Duration,
		Order:     req.Order,
	})
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			response.NotFound(c, "event, session or speaker not found")
			return
		}
		h.logger.Error("create topic failed", zap.Error(err))
		response.Internal(c, "failed to create topic")
		return
	}
	response.Created(c, topic)
}

// AdminGet handles GET /api/topics/admin/:id. Ungated.
func (h *Handler) AdminGet(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid topic id")
		return
	}
	view, err := h.repo.GetView(c.Request.Context(), id)
	if err != nil {
		if database.IsNotFound(err) {
			response.NotFound(c, "topic not found")
			return
		}
		response.Internal(c, "failed to load topic")
		return
	}
	response.OK(c, view)
}

// AdminListAll handles GET /api/topics/admin/all. Ungated.
func (h *Handler) AdminListAll(c *gin.Context) {
	views, err := h.repo.ListAllViews(c.Request.Context())
	if err != nil {
		h.logger.Error("list topics failed", zap.Error(err))
		response.Internal(c, "failed to list topics")
		return
	}
	response.OK(c, views)
}

// AdminListByEvent handles GET /api/topics/admin/event/:eventId. Ungated.
func (h *Handler) AdminListByEvent(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("eventId"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	views, err := h.repo.ListViewsByEvent(c.Request.Context(), eventID)
	if err != nil {
		h.logger.Error("list topics failed", zap.Error(err))
		response.Internal(c, "failed to list topics")
		return
	}
	response.OK(c, views)
}

// AdminListBySession handles GET /api/topics/admin/session/:sessionId.
// Ungated.
func (h *Handler) AdminListBySession(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("sessionId"))
	if err != nil {
		response.BadRequest(c, "invalid session id")
		return
	}
	views, err := h.repo.ListViewsBySession(c.Request.Context(), sessionID)
	if err != nil {
		h.logger.Error("list topics failed", zap.Error(err))
		response.Internal(c, "failed to list topics")
		return
	}
	response.OK(c, views)
}

// Update handles PUT /api/topics/admin/:id.
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid topic id")
		return
	}
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if req.Duration != nil && *req.Duration != "" {
		if _, err := h.checkDuration(*req.Duration); err != nil {
			response.BadRequest(c, "duration must be HH:MM:SS")
			return
		}
	}

	topic, err := h.repo.Update(c.Request.Context(), id, UpdateTopicParams{
		SessionID: req.SessionID,
		SpeakerID: req.SpeakerID,
		Title:     req.Title,
		VideoLink: req.VideoLink,
		Thumbnail: req.Thumbnail,
		Duration:  req.Duration,
		Order:     req.Order,
	})
	if err != nil {
		if database.IsNotFound(err) {
			response.NotFound(c, "topic not found")
			return
		}
		if database.IsForeignKeyViolation(err) {
			response.NotFound(c, "session or speaker not found")
			return
		}
		h.logger.Error("update topic failed", zap.Error(err))
		response.Internal(c, "failed to update topic")
		return
	}
	response.OK(c, topic)
}

// Delete handles DELETE /api/topics/admin/:id.
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid topic id")
		return
	}
	deleted, err := h.repo.Delete(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("delete topic failed", zap.Error(err))
		response.Internal(c, "failed to delete topic")
		return
	}
	if !deleted {
		response.NotFound(c, "topic not found")
		return
	}
	response.NoContent(c)
}

// ListByEvent handles GET /api/topics/event/:eventId. The user is optional;
// video links pass through the content gate.
func (h *Handler) ListByEvent(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("eventId"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	views, err := h.views.ListViewsByEvent(c.Request.Context(), eventID)
	if err != nil {
		h.logger.Error("list topics failed", zap.Error(err))
		response.Internal(c, "failed to list topics")
		return
	}
	h.respondGated(c, eventID, views)
}

// ListBySession handles GET /api/topics/event/:eventId/session/:sessionId.
// Topics are fetched by the (event, session) pair: the gate is evaluated
// against the URL's event, so the rows must belong to that same event.
func (h *Handler) ListBySession(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("eventId"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	sessionID, err := uuid.Parse(c.Param("sessionId"))
	if err != nil {
		response.BadRequest(c, "invalid session id")
		return
	}
	views, err := h.views.ListViewsByEventSession(c.Request.Context(), eventID, sessionID)
	if err != nil {
		h.logger.Error("list topics failed", zap.Error(err))
		response.Internal(c, "failed to list topics")
		return
	}
	h.respondGated(c, eventID, views)
}

func (h *Handler) respondGated(c *gin.Context, eventID uuid.UUID, views []models.TopicView) {
	unlocked := false
	if user, ok := middleware.UserFrom(c); ok {
		enrolled, _, err := h.access.AccessStatus(c.Request.Context(), user.ID, eventID)
		if err != nil {
			h.logger.Error("enrollment lookup failed", zap.Error(err))
			response.Internal(c, "failed to check enrollment")
			return
		}
		unlocked = enrolled
	}
	response.OK(c, GateViews(views, unlocked))
}
