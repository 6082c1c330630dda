package enrollments

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/conflearn/backend/internal/middleware"
	"github.com/conflearn/backend/pkg/database"
	"github.com/conflearn/backend/pkg/response"
)

// RegisterFreeRequest is the body for POST /api/enrollments/register/free.
type RegisterFreeRequest struct {
	EventID  uuid.UUID `json:"event_id" binding:"required"`
	FullName string    `json:"full_name" binding:"required"`
	Email    string    `json:"email" binding:"required,email"`
}

// RegisterPaidRequest is the body for POST /api/enrollments/register/paid.
type RegisterPaidRequest struct {
	EventID    uuid.UUID `json:"event_id" binding:"required"`
	AmountPaid float64   `json:"amount_paid" binding:"required"`
	PaymentID  string    `json:"payment_id" binding:"required"`
}

// AdminUpdateRequest is the body for PUT /api/enrollments/admin/:id.
type AdminUpdateRequest struct {
	Status          *string    `json:"status"`
	AmountPaid      *float64   `json:"amount_paid"`
	CertificateName *string    `json:"certificate_name"`
	AccessExpires   *time.Time `json:"access_expires"`
}

var validAdminStatuses = map[string]bool{
	"PENDING": true, "FREE_REGISTERED": true, "PAID_SUCCESS": true,
	"REFUNDED": true, "CANCELLED": true,
}

// Handler handles enrollment HTTP endpoints.
type Handler struct {
	service *Service
	repo    *Repository
	logger  *zap.Logger
}

func NewHandler(service *Service, repo *Repository, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{service: service, repo: repo, logger: logger}
}

// RegisterFree handles POST /api/enrollments/register/free.
func (h *Handler) RegisterFree(c *gin.Context) {
	user, ok := middleware.UserFrom(c)
	if !ok {
		response.Unauthorized(c, "missing user context")
		return
	}
	var req RegisterFreeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	enrollment, err := h.service.RegisterFree(c.Request.Context(), user.ID, req.EventID, req.FullName, req.Email)
	if err != nil {
		switch {
		case errors.Is(err, ErrEventNotFound):
			response.NotFound(c, "event not found")
		case errors.Is(err, ErrNotFreeEvent):
			response.Conflict(c, "event requires payment")
		default:
			h.logger.Error("free registration failed", zap.Error(err))
			response.Internal(c, "failed to register")
		}
		return
	}
	response.Created(c, enrollment)
}

// RegisterPaid handles POST /api/enrollments/register/paid.
func (h *Handler) RegisterPaid(c *gin.Context) {
	user, ok := middleware.UserFrom(c)
	if !ok {
		response.Unauthorized(c, "missing user context")
		return
	}
	var req RegisterPaidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	enrollment, payment, err := h.service.InitiatePaid(c.Request.Context(),
		user.ID, req.EventID, req.AmountPaid, req.PaymentID, user.Email)
	if err != nil {
		switch {
		case errors.Is(err, ErrEventNotFound):
			response.NotFound(c, "event not found")
		case errors.Is(err, ErrEventNotActive):
			response.Conflict(c, "event is not open for registration")
		case errors.Is(err, ErrNotPaidEvent):
			response.Conflict(c, "event does not require payment")
		case errors.Is(err, ErrAmountTooLow):
			response.BadRequest(c, "amount paid is below the event price")
		case errors.Is(err, ErrDuplicateTransaction):
			response.Conflict(c, "transaction already recorded")
		default:
			h.logger.Error("paid registration failed", zap.Error(err))
			response.Internal(c, "failed to register")
		}
		return
	}
	response.Created(c, gin.H{"enrollment": enrollment, "payment": payment})
}

// ListMine handles GET /api/enrollments/my.
func (h *Handler) ListMine(c *gin.Context) {
	user, ok := middleware.UserFrom(c)
	if !ok {
		response.Unauthorized(c, "missing user context")
		return
	}
	items, err := h.service.ListMine(c.Request.Context(), user.ID)
	if err != nil {
		h.logger.Error("list enrollments failed", zap.Error(err))
		response.Internal(c, "failed to list enrollments")
		return
	}
	response.OK(c, items)
}

// AdminList handles GET /api/enrollments/admin.
func (h *Handler) AdminList(c *gin.Context) {
	var filter AdminFilter
	if v := c.Query("event_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			response.BadRequest(c, "invalid event_id")
			return
		}
		filter.EventID = &id
	}
	if v := c.Query("user_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			response.BadRequest(c, "invalid user_id")
			return
		}
		filter.UserID = &id
	}

	items, err := h.repo.AdminList(c.Request.Context(), filter)
	if err != nil {
		h.logger.Error("admin list enrollments failed", zap.Error(err))
		response.Internal(c, "failed to list enrollments")
		return
	}
	response.OK(c, items)
}

// AdminUpdate handles PUT /api/enrollments/admin/:id.
func (h *Handler) AdminUpdate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid enrollment id")
		return
	}
	var req AdminUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if req.Status != nil && !validAdminStatuses[*req.Status] {
		response.BadRequest(c, "invalid status")
		return
	}
	if req.AmountPaid != nil && *req.AmountPaid < 0 {
		response.BadRequest(c, "amount_paid must not be negative")
		return
	}

	enrollment, err := h.repo.AdminUpdate(c.Request.Context(), id, AdminUpdateParams{
		Status:          req.Status,
		AmountPaid:      req.AmountPaid,
		CertificateName: req.CertificateName,
		AccessExpires:   req.AccessExpires,
	})
	if err != nil {
		if database.IsNotFound(err) {
			response.NotFound(c, "enrollment not found")
			return
		}
		h.logger.Error("admin update enrollment failed", zap.Error(err))
		response.Internal(c, "failed to update enrollment")
		return
	}
	response.OK(c, enrollment)
}
