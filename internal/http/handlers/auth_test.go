package handlers_test

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/tempushr/tempus/internal/auth"
	"github.com/tempushr/tempus/internal/domain/user"
	"github.com/tempushr/tempus/internal/http/handlers"
	"github.com/tempushr/tempus/internal/http/middlewares"
	"github.com/tempushr/tempus/internal/repo/memory"
	"github.com/tempushr/tempus/internal/security"
)

const (
	handlerTestSecret        = "0123456789abcdef0123456789abcdef"
	handlerTestRefreshSecret = "fedcba9876543210fedcba9876543210"
)

// authRig wires a real auth.Service over the in-memory store so the
// handler tests exercise the full login/refresh/logout flow.
type authRig struct {
	store  *memory.AuthStore
	router *gin.Engine
	user   user.User
}

func newAuthRig(t *testing.T) *authRig {
	t.Helper()

	store := memory.NewAuthStore()

	hash, err := security.HashPassword("correct horse")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	u := user.User{
		ID:           uuid.NewString(),
		Email:        "ana@example.com",
		PasswordHash: hash,
		Nombre:       "Ana",
		Role:         user.RoleEmployee,
		Active:       true,
	}
	store.PutUser(u)

	codec := auth.NewCodec(handlerTestSecret, handlerTestRefreshSecret, 15*time.Minute, 7*24*time.Hour)
	svc := auth.NewService(codec, store, store)

	h := handlers.NewAuthHandler(svc, store, nil)
	m := middlewares.NewAuthMiddleware(codec, store)

	r := gin.New()
	r.POST("/auth/login", h.Login)
	r.POST("/auth/refresh", h.Refresh)
	r.POST("/auth/logout", h.Logout)
	r.GET("/auth/me", m.RequireAuth(), h.Me)
	r.PUT("/auth/password", m.RequireAuth(), h.UpdatePassword)

	return &authRig{store: store, router: r, user: u}
}

func (rig *authRig) login(t *testing.T) auth.Session {
	t.Helper()

	w := doJSON(rig.router, http.MethodPost, "/auth/login", gin.H{
		"email":    rig.user.Email,
		"password": "correct horse",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("login status = %d, body=%s", w.Code, w.Body.String())
	}

	var session auth.Session
	if err := json.Unmarshal(w.Body.Bytes(), &session); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	return session
}

func TestLogin_ReturnsSession(t *testing.T) {
	rig := newAuthRig(t)

	session := rig.login(t)

	if session.AccessToken == "" || session.RefreshToken == "" {
		t.Fatal("session must carry both tokens")
	}
	if session.User.Email != rig.user.Email {
		t.Fatalf("session user = %q", session.User.Email)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	rig := newAuthRig(t)

	w := doJSON(rig.router, http.MethodPost, "/auth/login", gin.H{
		"email":    rig.user.Email,
		"password": "wrong",
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestLogin_MissingFields(t *testing.T) {
	rig := newAuthRig(t)

	w := doJSON(rig.router, http.MethodPost, "/auth/login", gin.H{"email": "not-an-email"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestRefresh_RotatesToken(t *testing.T) {
	rig := newAuthRig(t)
	session := rig.login(t)

	w := doJSON(rig.router, http.MethodPost, "/auth/refresh", gin.H{
		"refreshToken": session.RefreshToken,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("refresh status = %d, body=%s", w.Code, w.Body.String())
	}

	var next auth.Session
	if err := json.Unmarshal(w.Body.Bytes(), &next); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	if next.RefreshToken == session.RefreshToken {
		t.Fatal("refresh must rotate the token")
	}

	// the old token is single-use
	w = doJSON(rig.router, http.MethodPost, "/auth/refresh", gin.H{
		"refreshToken": session.RefreshToken,
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("replay status = %d, want 401", w.Code)
	}
}

func TestLogout_RevokesRefreshToken(t *testing.T) {
	rig := newAuthRig(t)
	session := rig.login(t)

	w := doJSON(rig.router, http.MethodPost, "/auth/logout", gin.H{
		"refreshToken": session.RefreshToken,
	})
	if w.Code != http.StatusNoContent {
		t.Fatalf("logout status = %d", w.Code)
	}

	w = doJSON(rig.router, http.MethodPost, "/auth/refresh", gin.H{
		"refreshToken": session.RefreshToken,
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("refresh after logout = %d, want 401", w.Code)
	}

	// logging out twice is fine
	w = doJSON(rig.router, http.MethodPost, "/auth/logout", gin.H{
		"refreshToken": session.RefreshToken,
	})
	if w.Code != http.StatusNoContent {
		t.Fatalf("second logout status = %d", w.Code)
	}
}

func TestMe_ReturnsProfileWithoutHash(t *testing.T) {
	rig := newAuthRig(t)
	session := rig.login(t)

	req := doJSONAuth(rig.router, http.MethodGet, "/auth/me", nil, session.AccessToken)
	if req.Code != http.StatusOK {
		t.Fatalf("me status = %d, body=%s", req.Code, req.Body.String())
	}

	var body map[string]map[string]any
	if err := json.Unmarshal(req.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	u := body["user"]
	if u["email"] != rig.user.Email {
		t.Fatalf("email = %v", u["email"])
	}
	for _, key := range []string{"password", "passwordHash", "password_hash"} {
		if _, ok := u[key]; ok {
			t.Fatalf("profile must not expose %q", key)
		}
	}
}

func TestUpdatePassword_RequiresCurrentPassword(t *testing.T) {
	rig := newAuthRig(t)
	session := rig.login(t)

	w := doJSONAuth(rig.router, http.MethodPut, "/auth/password", gin.H{
		"currentPassword": "wrong",
		"newPassword":     "brand new secret",
	}, session.AccessToken)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestUpdatePassword_RotatesCredentialAndRevokesRefresh(t *testing.T) {
	rig := newAuthRig(t)
	session := rig.login(t)

	w := doJSONAuth(rig.router, http.MethodPut, "/auth/password", gin.H{
		"currentPassword": "correct horse",
		"newPassword":     "brand new secret",
	}, session.AccessToken)
	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, body=%s", w.Code, w.Body.String())
	}

	// old refresh token no longer mints sessions
	w = doJSON(rig.router, http.MethodPost, "/auth/refresh", gin.H{
		"refreshToken": session.RefreshToken,
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("refresh after password change = %d, want 401", w.Code)
	}

	// old password is dead, new one works
	w = doJSON(rig.router, http.MethodPost, "/auth/login", gin.H{
		"email":    rig.user.Email,
		"password": "correct horse",
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("old password login = %d, want 401", w.Code)
	}

	w = doJSON(rig.router, http.MethodPost, "/auth/login", gin.H{
		"email":    rig.user.Email,
		"password": "brand new secret",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("new password login = %d, body=%s", w.Code, w.Body.String())
	}
}
