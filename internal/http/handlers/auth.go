package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tempushr/tempus/internal/auth"
	"github.com/tempushr/tempus/internal/domain/user"
	"github.com/tempushr/tempus/internal/http/middlewares"
	"github.com/tempushr/tempus/internal/observability"
	"github.com/tempushr/tempus/internal/security"
)

// UserReader is what the password-change flow needs beyond the auth
// service: the stored hash to check the current password against.
type UserReader interface {
	GetByID(ctx context.Context, id string) (user.User, error)
}

type AuthHandler struct {
	svc   *auth.Service
	users UserReader
	prom  *observability.Prom
}

func NewAuthHandler(svc *auth.Service, users UserReader, prom *observability.Prom) *AuthHandler {
	return &AuthHandler{svc: svc, users: users, prom: prom}
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type UpdatePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=8,max=72"`
}

func (h *AuthHandler) observeAuth(op, result string) {
	if h.prom != nil {
		h.prom.AuthAttempts.WithLabelValues(op, result).Inc()
	}
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !BindJSON(c, &req) {
		return
	}

	session, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			h.observeAuth("login", "denied")
			RespondUnauthorized(c, "Invalid email or password")
			return
		}
		h.observeAuth("login", "error")
		RespondInternal(c, "Could not log in")
		return
	}

	h.observeAuth("login", "ok")
	c.JSON(http.StatusOK, session)
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if !BindJSON(c, &req) {
		return
	}

	session, err := h.svc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidRefreshToken) {
			h.observeAuth("refresh", "denied")
			RespondUnauthorized(c, "Invalid or expired refresh token")
			return
		}
		h.observeAuth("refresh", "error")
		RespondInternal(c, "Could not refresh session")
		return
	}

	h.observeAuth("refresh", "ok")
	c.JSON(http.StatusOK, session)
}

func (h *AuthHandler) Logout(c *gin.Context) {
	var req LogoutRequest
	if !BindJSON(c, &req) {
		return
	}

	if err := h.svc.Logout(c.Request.Context(), req.RefreshToken); err != nil {
		RespondInternal(c, "Could not log out")
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(c)
	if !ok {
		RespondUnauthorized(c, "Missing identity context")
		return
	}

	profile, err := h.svc.Profile(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(c, "User not found")
			return
		}
		RespondInternal(c, "Could not load profile")
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": profile})
}

func (h *AuthHandler) UpdatePassword(c *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(c)
	if !ok {
		RespondUnauthorized(c, "Missing identity context")
		return
	}

	var req UpdatePasswordRequest
	if !BindJSON(c, &req) {
		return
	}

	u, err := h.users.GetByID(c.Request.Context(), userID)
	if err != nil {
		RespondInternal(c, "Could not update password")
		return
	}

	if security.CheckPassword(u.PasswordHash, req.CurrentPassword) != nil {
		h.observeAuth("update_password", "denied")
		RespondUnauthorized(c, "Current password is incorrect")
		return
	}

	if err := h.svc.UpdatePassword(c.Request.Context(), userID, req.NewPassword); err != nil {
		h.observeAuth("update_password", "error")
		RespondInternal(c, "Could not update password")
		return
	}

	h.observeAuth("update_password", "ok")
	c.Status(http.StatusNoContent)
}
