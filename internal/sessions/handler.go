package sessions

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/conflearn/backend/pkg/database"
	"github.com/conflearn/backend/pkg/response"
)

// CreateRequest is the body for POST /api/sessions/admin.
type CreateRequest struct {
	EventID   uuid.UUID `json:"event_id" binding:"required"`
	Title     string    `json:"title" binding:"required"`
	StartDate time.Time `json:"start_date" binding:"required"`
	StartTime string    `json:"start_time" binding:"required"`
	EndTime   string    `json:"end_time"`
	Hall      string    `json:"hall"`
	Order     int       `json:"order"`
}

// UpdateRequest is the body for PUT /api/sessions/admin/:id.
type UpdateRequest struct {
	Title     *string    `json:"title"`
	StartDate *time.Time `json:"start_date"`
	StartTime *string    `json:"start_time"`
	EndTime   *string    `json:"end_time"`
	Hall      *string    `json:"hall"`
	Order     *int       `json:"order"`
}

// Handler handles session HTTP endpoints.
type Handler struct {
	repo   *Repository
	logger *zap.Logger
}

func NewHandler(repo *Repository, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, logger: logger}
}

// Create handles POST /api/sessions/admin.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if req.Order <= 0 {
		req.Order = 1
	}

	session, err := h.repo.Create(c.Request.Context(), CreateSessionParams{
		EventID:   req.EventID,
		Title:     req.Title,
		StartDate: req.StartDate,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Hall:      req.Hall,
		Order:     req.Order,
	})
	if err != nil {
		if database.IsUniqueViolation(err) {
			response.Conflict(c, "a session with this title already exists for the event")
			return
		}
		if database.IsForeignKeyViolation(err) {
			response.NotFound(c, "event not found")
			return
		}
		h.logger.Error("create session failed", zap.Error(err))
		response.Internal(c, "failed to create session")
		return
	}
	response.Created(c, session)
}

// Get handles GET /api/sessions/:id.
func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid session id")
		return
	}
	session, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		if database.IsNotFound(err) {
			response.NotFound(c, "session not found")
			return
		}
		response.Internal(c, "failed to load session")
		return
	}
	response.OK(c, session)
}

// ListByEvent handles GET /api/sessions/event/:eventId.
func (h *Handler) ListByEvent(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("eventId"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	sessions, err := h.repo.ListByEvent(c.Request.Context(), eventID)
	if err != nil {
		h.logger.Error("list sessions failed", zap.Error(err))
		response.Internal(c, "failed to list sessions")
		return
	}
	response.OK(c, sessions)
}

// Update handles PUT /api/sessions/admin/:id.
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid session id")
		return
	}
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	session, err := h.repo.Update(c.Request.Context(), id, UpdateSessionParams{
		Title:     req.Title,
		StartDate: req.StartDate,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Hall:      req.Hall,
		Order:     req.Order,
	})
	if err != nil {
		if database.IsNotFound(err) {
			response.NotFound(c, "session not found")
			return
		}
		if database.IsUniqueViolation(err) {
			response.Conflict(c, "a session with this title already exists for the event")
			return
		}
		h.logger.Error("update session failed", zap.Error(err))
		response.Internal(c, "failed to update session")
		return
	}
	response.OK(c, session)
}

// Delete handles DELETE /api/sessions/admin/:id.
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid session id")
		return
	}
	deleted, err := h.repo.Delete(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("delete session failed", zap.Error(err))
		response.Internal(c, "failed to delete session")
		return
	}
	if !deleted {
		response.NotFound(c, "session not found")
		return
	}
	response.NoContent(c)
}
