package admin

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/conflearn/backend/internal/auth"
	"github.com/conflearn/backend/internal/middleware"
	"github.com/conflearn/backend/pkg/database"
	"github.com/conflearn/backend/pkg/response"
	"github.com/conflearn/backend/pkg/utils"
)

// LoginRequest is the body for POST /api/admin/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Handler handles admin auth and user management endpoints.
type Handler struct {
	repo     *Repository
	users    *auth.Repository
	resolver *auth.Resolver
	jwt      *auth.JWTService
	logger   *zap.Logger
}

func NewHandler(repo *Repository, users *auth.Repository, resolver *auth.Resolver, jwt *auth.JWTService, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, users: users, resolver: resolver, jwt: jwt, logger: logger}
}

// Login handles POST /api/admin/login.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	admin, err := h.repo.GetByEmail(c.Request.Context(), req.Email)
	if err != nil || !utils.CheckPassword(req.Password, admin.Password) {
		response.Unauthorized(c, "invalid email or password")
		return
	}

	token, err := h.jwt.GenerateAdmin(admin.ID)
	if err != nil {
		response.Internal(c, "failed to generate token")
		return
	}
	response.OK(c, gin.H{"token": token, "admin": admin})
}

// Me handles GET /api/admin/me.
func (h *Handler) Me(c *gin.Context) {
	admin, ok := middleware.AdminFrom(c)
	if !ok {
		response.Unauthorized(c, "missing admin context")
		return
	}
	response.OK(c, admin)
}

// ListUsers handles GET /api/admin/users.
func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.users.List(c.Request.Context())
	if err != nil {
		h.logger.Error("list users failed", zap.Error(err))
		response.Internal(c, "failed to list users")
		return
	}
	response.OK(c, users)
}

// GetUser handles GET /api/admin/users/:id.
func (h *Handler) GetUser(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}
	user, err := h.users.GetByID(c.Request.Context(), id)
	if err != nil {
		if database.IsNotFound(err) {
			response.NotFound(c, "user not found")
			return
		}
		response.Internal(c, "failed to load user")
		return
	}
	response.OK(c, user)
}

// UpdateUserRequest carries the fields an admin may change on a user.
type UpdateUserRequest struct {
	Prefix              *string `json:"prefix"`
	FullName            *string `json:"full_name"`
	Mobile              *string `json:"mobile"`
	Country             *string `json:"country"`
	Designation         *string `json:"designation"`
	AffiliationHospital *string `json:"affiliation_hospital"`
	State               *string `json:"state"`
	City                *string `json:"city"`
	Pincode             *string `json:"pincode"`
}

// UpdateUser handles PUT /api/admin/users/:id.
func (h *Handler) UpdateUser(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}
	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	updated, err := h.users.UpdateProfile(c.Request.Context(), id, auth.UpdateProfileParams{
		Prefix:              req.Prefix,
		FullName:            req.FullName,
		Mobile:              req.Mobile,
		Country:             req.Country,
		Designation:         req.Designation,
		AffiliationHospital: req.AffiliationHospital,
		State:               req.State,
		City:                req.City,
		Pincode:             req.Pincode,
	})
	if err != nil {
		if database.IsNotFound(err) {
			response.NotFound(c, "user not found")
			return
		}
		if database.IsUniqueViolation(err) {
			response.Conflict(c, "mobile number already exists")
			return
		}
		h.logger.Error("admin update user failed", zap.Error(err))
		response.Internal(c, "failed to update user")
		return
	}
	h.resolver.Invalidate(c.Request.Context(), id)
	response.OK(c, updated)
}

// DeleteUser handles DELETE /api/admin/users/:id.
func (h *Handler) DeleteUser(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}
	deleted, err := h.users.Delete(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("delete user failed", zap.Error(err))
		response.Internal(c, "failed to delete user")
		return
	}
	if !deleted {
		response.NotFound(c, "user not found")
		return
	}
	h.resolver.Invalidate(c.Request.Context(), id)
	response.NoContent(c)
}
