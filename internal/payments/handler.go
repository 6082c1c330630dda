package payments

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/conflearn/backend/internal/middleware"
	"github.com/conflearn/backend/pkg/database"
	"github.com/conflearn/backend/pkg/response"
)

// UpdateRequest is the body for PUT /api/payments/admin/:id.
type UpdateRequest struct {
	Status  *string  `json:"status"`
	Amount  *float64 `json:"amount"`
	Gateway *string  `json:"payment_gateway"`
}

var validStatuses = map[string]bool{
	"PENDING": true, "SUCCESS": true, "FAILED": true, "REFUNDED": true,
}

// Handler handles payment HTTP endpoints.
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

// ListMine handles GET /api/payments/my-payments.
func (h *Handler) ListMine(c *gin.Context) {
	user, ok := middleware.UserFrom(c)
	if !ok {
		response.Unauthorized(c, "missing user context")
		return
	}
	items, err := h.repo.ListByUser(c.Request.Context(), user.ID)
	if err != nil {
		h.logger.Error("list payments failed", zap.Error(err))
		response.Internal(c, "failed to list payments")
		return
	}
	response.OK(c, items)
}

// AdminList handles GET /api/payments/admin.
func (h *Handler) AdminList(c *gin.Context) {
	var filter Filter
	if v := c.Query("user_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			response.BadRequest(c, "invalid user_id")
			return
		}
		filter.UserID = &id
	}
	if v := c.Query("event_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			response.BadRequest(c, "invalid event_id")
			return
		}
		filter.EventID = &id
	}

	items, err := h.repo.List(c.Request.Context(), filter)
	if err != nil {
		h.logger.Error("admin list payments failed", zap.Error(err))
		response.Internal(c, "failed to list payments")
		return
	}
	response.OK(c, items)
}

// AdminGet handles GET /api/payments/admin/:id.
func (h *Handler) AdminGet(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid payment id")
		return
	}
	payment, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		if database.IsNotFound(err) {
			response.NotFound(c, "payment not found")
			return
		}
		response.Internal(c, "failed to load payment")
		return
	}
	response.OK(c, payment)
}

// AdminUpdate handles PUT /api/payments/admin/:id.
func (h *Handler) AdminUpdate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid payment id")
		return
	}
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if req.Status != nil && !validStatuses[*req.Status] {
		response.BadRequest(c, "invalid status")
		return
	}
	if req.Amount != nil && *req.Amount < 0 {
		response.BadRequest(c, "amount must not be negative")
		return
	}

	payment, err := h.repo.Update(c.Request.Context(), id, UpdateParams{
		Status:  req.Status,
		Amount:  req.Amount,
		Gateway: req.Gateway,
	})
	if err != nil {
		if database.IsNotFound(err) {
			response.NotFound(c, "payment not found")
			return
		}
		h.logger.Error("update payment failed", zap.Error(err))
		response.Internal(c, "failed to update payment")
		return
	}
	response.OK(c, payment)
}

// AdminDelete handles DELETE /api/payments/admin/:id.
func (h *Handler) AdminDelete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid payment id")
		return
	}
	deleted, err := h.repo.Delete(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("delete payment failed", zap.Error(err))
		response.Internal(c, "failed to delete payment")
		return
	}
	if !deleted {
		response.NotFound(c, "payment not found")
		return
	}
	response.NoContent(c)
}
