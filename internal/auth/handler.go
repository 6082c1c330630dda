package auth

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/conflearn/backend/internal/models"
	"github.com/conflearn/backend/pkg/database"
	"github.com/conflearn/backend/pkg/mailer"
	"github.com/conflearn/backend/pkg/response"
	"github.com/conflearn/backend/pkg/storage"
	"github.com/conflearn/backend/pkg/utils"
)

const resetTokenTTL = 15 * time.Minute

// Uploader stores a media object and returns its permanent URL.
type Uploader interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader, contentLength int64) (string, error)
}

// SignupRequest is the body for POST /api/auth/signup.
type SignupRequest struct {
	Prefix   string `json:"prefix"`
	FullName string `json:"full_name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Mobile   string `json:"mobile" binding:"required,len=10,numeric"`
	Country  string `json:"country"`
	Password string `json:"password" binding:"required,min=6"`
}

// LoginRequest is the body for POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// TokenResponse is the auth response with JWT.
type TokenResponse struct {
	Token string      `json:"token"`
	User  interface{} `json:"user"`
}

// Handler handles user auth and profile HTTP endpoints.
type Handler struct {
	repo     *Repository
	resolver *Resolver
	jwt      *JWTService
	mail     mailer.Mailer
	uploader Uploader
	baseURL  string
	logger   *zap.Logger
}

// NewHandler creates an auth handler. uploader may be nil when S3 is not
// configured; profile photo uploads then fail with 500.
func NewHandler(repo *Repository, resolver *Resolver, jwt *JWTService, mail mailer.Mailer, uploader Uploader, baseURL string, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, resolver: resolver, jwt: jwt, mail: mail, uploader: uploader, baseURL: baseURL, logger: logger}
}

// Signup handles POST /api/auth/signup.
func (h *Handler) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	if existing, err := h.repo.GetByEmailOrMobile(c.Request.Context(), req.Email, req.Mobile); err == nil {
		field := "mobile number"
		if existing.Email == req.Email {
			field = "email"
		}
		response.Conflict(c, field+" already exists")
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		response.Internal(c, "failed to hash password")
		return
	}

	user, err := h.repo.Create(c.Request.Context(), CreateUserParams{
		Prefix:       req.Prefix,
		FullName:     req.FullName,
		Email:        req.Email,
		Mobile:       req.Mobile,
		Country:      req.Country,
		PasswordHash: hash,
	})
	if err != nil {
		if database.IsUniqueViolation(err) {
			response.Conflict(c, "email or mobile number already exists")
			return
		}
		h.logger.Error("create user failed", zap.Error(err))
		response.Internal(c, "failed to create user")
		return
	}

	token, err := h.jwt.GenerateUser(user.ID)
	if err != nil {
		response.Internal(c, "failed to generate token")
		return
	}
	response.Created(c, TokenResponse{Token: token, User: user.Summary()})
}

// Login handles POST /api/auth/login.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	user, err := h.repo.GetByEmail(c.Request.Context(), req.Email)
	if err != nil || !utils.CheckPassword(req.Password, user.Password) {
		response.Unauthorized(c, "invalid email or password")
		return
	}

	token, err := h.jwt.GenerateUser(user.ID)
	if err != nil {
		response.Internal(c, "failed to generate token")
		return
	}
	response.OK(c, TokenResponse{Token: token, User: user.Summary()})
}

// userFrom returns the user resolved by the auth middleware, if any. It
// reads the same gin context key as middleware.UserFrom; duplicated here
// because importing internal/middleware would create an import cycle.
func userFrom(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get("auth_user")
	if !ok {
		return nil, false
	}
	u, ok := v.(*models.User)
	return u, ok
}

// Me handles GET /api/auth/me.
func (h *Handler) Me(c *gin.Context) {
	user, ok := userFrom(c)
	if !ok {
		response.Unauthorized(c, "missing user context")
		return
	}
	response.OK(c, user)
}

// UpdateMe handles PUT /api/auth/me. Accepts multipart form with
// allow-listed profile fields and an optional "photo" file.
func (h *Handler) UpdateMe(c *gin.Context) {
	user, ok := userFrom(c)
	if !ok {
		response.Unauthorized(c, "missing user context")
		return
	}

	params := UpdateProfileParams{
		Prefix:              formField(c, "prefix"),
		FullName:            formField(c, "full_name"),
		Mobile:              formField(c, "mobile"),
		Country:             formField(c, "country"),
		Designation:         formField(c, "designation"),
		AffiliationHospital: formField(c, "affiliation_hospital"),
		State:               formField(c, "state"),
		City:                formField(c, "city"),
		Pincode:             formField(c, "pincode"),
	}

	if file, err := c.FormFile("photo"); err == nil {
		if !storage.ValidateImageFilename(file.Filename) {
			response.BadRequest(c, "photo must be an image file")
			return
		}
		if h.uploader == nil {
			response.Internal(c, "media storage not configured")
			return
		}
		src, err := file.Open()
		if err != nil {
			response.Internal(c, "failed to read photo")
			return
		}
		defer src.Close()
		key := storage.MediaKey(storage.FolderProfiles, user.ID.String(), file.Filename)
		url, err := h.uploader.Upload(c.Request.Context(), key, storage.ContentTypeForFilename(file.Filename), src, file.Size)
		if err != nil {
			h.logger.Error("profile photo upload failed", zap.Error(err))
			response.Internal(c, "failed to upload photo")
			return
		}
		params.ProfilePhoto = &url
	}

	updated, err := h.repo.UpdateProfile(c.Request.Context(), user.ID, params)
	if err != nil {
		if database.IsUniqueViolation(err) {
			response.Conflict(c, "mobile number already exists")
			return
		}
		h.logger.Error("update profile failed", zap.Error(err))
		response.Internal(c, "failed to update profile")
		return
	}
	h.resolver.Invalidate(c.Request.Context(), user.ID)
	response.OK(c, updated)
}

// ForgotRequest is the body for POST /api/auth/forgot-password.
type ForgotRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ForgotPassword handles POST /api/auth/forgot-password. The hashed token
// is saved first; if the email send fails, the token pair is cleared using
// the same loaded row so no stale token survives. The raw token travels
// only in the email.
func (h *Handler) ForgotPassword(c *gin.Context) {
	var req ForgotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	user, err := h.repo.GetByEmail(c.Request.Context(), req.Email)
	if err != nil {
		response.NotFound(c, "user not found")
		return
	}

	raw := make([]byte, 20)
	if _, err := rand.Read(raw); err != nil {
		response.Internal(c, "failed to generate reset token")
		return
	}
	resetToken := hex.EncodeToString(raw)
	digest := sha256.Sum256([]byte(resetToken))
	tokenHash := hex.EncodeToString(digest[:])

	if err := h.repo.SetResetToken(c.Request.Context(), user.ID, tokenHash, time.Now().Add(resetTokenTTL)); err != nil {
		h.logger.Error("set reset token failed", zap.Error(err))
		response.Internal(c, "failed to start password reset")
		return
	}

	resetURL := fmt.Sprintf("%s/api/auth/reset-password/%s", h.baseURL, resetToken)
	var body bytes.Buffer
	fmt.Fprintf(&body, "<h3>Hello %s,</h3>", user.FullName)
	body.WriteString("<p>You requested to reset your password.</p>")
	fmt.Fprintf(&body, `<p><a href="%s">Click here to reset your password</a></p>`, resetURL)
	body.WriteString("<p>This link expires in 15 minutes.</p>")

	if err := h.mail.Send(c.Request.Context(), user.Email, "Password Reset Request", body.String()); err != nil {
		if clearErr := h.repo.ClearResetToken(c.Request.Context(), user.ID); clearErr != nil {
			h.logger.Error("clear reset token failed", zap.Error(clearErr))
		}
		response.Internal(c, "failed to send reset email")
		return
	}

	response.OK(c, gin.H{"message": "reset password email sent"})
}

// ResetRequest is the body for POST /api/auth/reset-password/:token.
type ResetRequest struct {
	Password string `json:"password" binding:"required,min=6"`
}

// ResetPassword handles POST /api/auth/reset-password/:token.
func (h *Handler) ResetPassword(c *gin.Context) {
	var req ResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	digest := sha256.Sum256([]byte(c.Param("token")))
	user, err := h.repo.GetByResetToken(c.Request.Context(), hex.EncodeToString(digest[:]))
	if err != nil {
		response.BadRequest(c, "invalid or expired token")
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		response.Internal(c, "failed to hash password")
		return
	}
	if err := h.repo.UpdatePassword(c.Request.Context(), user.ID, hash); err != nil {
		h.logger.Error("update password failed", zap.Error(err))
		response.Internal(c, "failed to update password")
		return
	}
	h.resolver.Invalidate(c.Request.Context(), user.ID)

	token, err := h.jwt.GenerateUser(user.ID)
	if err != nil {
		response.Internal(c, "failed to generate token")
		return
	}
	response.OK(c, TokenResponse{Token: token, User: user.Summary()})
}

func formField(c *gin.Context, name string) *string {
	if v, ok := c.GetPostForm(name); ok {
		return &v
	}
	return nil
}
