package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/tempushr/tempus/internal/config"
	"github.com/tempushr/tempus/internal/domain/user"
	"github.com/tempushr/tempus/internal/http/middlewares"
	"github.com/tempushr/tempus/internal/security"
	"github.com/tempushr/tempus/internal/utils"
)

type AdminUsersStore interface {
	Create(ctx context.Context, u user.User) error
	GetByID(ctx context.Context, id string) (user.User, error)
	SetActive(ctx context.Context, id string, active bool) (user.User, error)
	List(ctx context.Context, limit, offset int) ([]user.User, error)
}

type AdminUsersHandler struct {
	store AdminUsersStore
}

func NewAdminUsersHandler(store AdminUsersStore) *AdminUsersHandler {
	return &AdminUsersHandler{store: store}
}

type CreateUserRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=72"`
	Nombre   string `json:"nombre" binding:"required,min=1,max=200"`
	Role     string `json:"role" binding:"required,oneof=employee official"`
	IsAdmin  bool   `json:"isAdmin"`
}

type SetActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}

// POST /admin/users
func (h *AdminUsersHandler) Create(c *gin.Context) {
	var req CreateUserRequest
	if !BindJSON(c, &req) {
		return
	}

	hash, err := security.HashPassword(req.Password)
	if err != nil {
		RespondInternal(c, "Could not create user")
		return
	}

	now := time.Now().UTC()
	u := user.User{
		ID:           uuid.NewString(),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: hash,
		Nombre:       req.Nombre,
		Role:         req.Role,
		IsAdmin:      req.IsAdmin,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	if err := h.store.Create(cctx, u); err != nil {
		if errors.Is(err, user.ErrEmailAlreadyUsed) {
			RespondConflict(c, "email_in_use", "Email is already in use")
			return
		}
		RespondInternal(c, "Could not create user")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"user": u.Public()})
}

// GET /admin/users?limit=...&offset=...
func (h *AdminUsersHandler) List(c *gin.Context) {
	limit := parseIntDefault(c.Query("limit"), 50)
	if limit < 1 || limit > 200 {
		RespondBadRequest(c, "limit must be between 1 and 200", nil)
		return
	}

	offset := parseIntDefault(c.Query("offset"), 0)
	if offset < 0 {
		RespondBadRequest(c, "offset must not be negative", nil)
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	users, err := h.store.List(cctx, limit, offset)
	if err != nil {
		RespondInternal(c, "Could not list users")
		return
	}

	out := make([]user.Public, 0, len(users))
	for _, u := range users {
		out = append(out, u.Public())
	}

	c.JSON(http.StatusOK, gin.H{
		"limit":  limit,
		"offset": offset,
		"count":  len(out),
		"items":  out,
	})
}

// GET /admin/users/:id
func (h *AdminUsersHandler) GetByID(c *gin.Context) {
	id := c.Param("id")
	if !utils.IsUUID(id) {
		RespondBadRequest(c, "invalid id", nil)
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	u, err := h.store.GetByID(cctx, id)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(c, "User not found")
			return
		}
		RespondInternal(c, "Could not fetch user")
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": u.Public()})
}

// PATCH /admin/users/:id/active
//
// Deactivation locks the account out on the next guarded request; the
// auth middleware re-reads the row every time.
func (h *AdminUsersHandler) SetActive(c *gin.Context) {
	id := c.Param("id")
	if !utils.IsUUID(id) {
		RespondBadRequest(c, "invalid id", nil)
		return
	}

	// admins cannot deactivate themselves, someone has to keep the keys
	if selfID, _ := middlewares.UserIDFromContext(c); selfID == id {
		RespondConflict(c, "cannot_modify_self", "Cannot change your own active flag")
		return
	}

	var req SetActiveRequest
	if !BindJSON(c, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	u, err := h.store.SetActive(cctx, id, *req.Active)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(c, "User not found")
			return
		}
		RespondInternal(c, "Could not update user")
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": u.Public()})
}
