package middlewares

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/tempushr/tempus/internal/auth"
	"github.com/tempushr/tempus/internal/domain/user"
)

type fakeVerifier struct {
	claims *auth.Claims
	err    error
}

func (f *fakeVerifier) VerifyAccessToken(token string) (*auth.Claims, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.claims, nil
}

type fakeUserLoader struct {
	users map[string]user.User
}

func (f *fakeUserLoader) GetByID(ctx context.Context, id string) (user.User, error) {
	u, ok := f.users[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return u, nil
}

func claimsFor(u user.User) *auth.Claims {
	return &auth.Claims{
		Email:   u.Email,
		Nombre:  u.Nombre,
		Role:    u.Role,
		IsAdmin: u.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: u.ID,
		},
	}
}

func guardedRouter(m *AuthMiddleware, extra ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	handlers := []gin.HandlerFunc{m.RequireAuth()}
	handlers = append(handlers, extra...)
	handlers = append(handlers, func(c *gin.Context) {
		id, _ := UserIDFromContext(c)
		c.JSON(http.StatusOK, gin.H{"userId": id})
	})

	r.GET("/protected", handlers...)
	return r
}

func doGet(r *gin.Engine, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequireAuth_MissingHeader(t *testing.T) {
	m := NewAuthMiddleware(&fakeVerifier{}, &fakeUserLoader{})

	w := doGet(guardedRouter(m), "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestRequireAuth_NotBearer(t *testing.T) {
	m := NewAuthMiddleware(&fakeVerifier{}, &fakeUserLoader{})

	w := doGet(guardedRouter(m), "Basic dXNlcjpwdw==")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestRequireAuth_InvalidToken(t *testing.T) {
	m := NewAuthMiddleware(&fakeVerifier{err: auth.ErrInvalidToken}, &fakeUserLoader{})

	w := doGet(guardedRouter(m), "Bearer not-a-token")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestRequireAuth_UserDeleted(t *testing.T) {
	u := user.User{ID: "u-1", Email: "ana@example.com", Role: user.RoleEmployee, Active: true}

	// valid token, but the account no longer exists
	m := NewAuthMiddleware(
		&fakeVerifier{claims: claimsFor(u)},
		&fakeUserLoader{users: map[string]user.User{}},
	)

	w := doGet(guardedRouter(m), "Bearer sometoken")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestRequireAuth_UserDeactivated(t *testing.T) {
	u := user.User{ID: "u-1", Email: "ana@example.com", Role: user.RoleEmployee, Active: false}

	m := NewAuthMiddleware(
		&fakeVerifier{claims: claimsFor(u)},
		&fakeUserLoader{users: map[string]user.User{u.ID: u}},
	)

	w := doGet(guardedRouter(m), "Bearer sometoken")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestRequireAuth_HappyPath(t *testing.T) {
	u := user.User{ID: "u-1", Email: "ana@example.com", Nombre: "Ana", Role: user.RoleEmployee, Active: true}

	m := NewAuthMiddleware(
		&fakeVerifier{claims: claimsFor(u)},
		&fakeUserLoader{users: map[string]user.User{u.ID: u}},
	)

	w := doGet(guardedRouter(m), "Bearer sometoken")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", w.Code, w.Body.String())
	}
}

func TestRequireAdmin(t *testing.T) {
	employee := user.User{ID: "u-1", Email: "ana@example.com", Role: user.RoleEmployee, Active: true}
	admin := user.User{ID: "u-2", Email: "root@example.com", Role: user.RoleOfficial, IsAdmin: true, Active: true}

	tests := []struct {
		name     string
		u        user.User
		wantCode int
	}{
		{"employee forbidden", employee, http.StatusForbidden},
		{"admin allowed", admin, http.StatusOK},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m := NewAuthMiddleware(
				&fakeVerifier{claims: claimsFor(tc.u)},
				&fakeUserLoader{users: map[string]user.User{tc.u.ID: tc.u}},
			)

			w := doGet(guardedRouter(m, m.RequireAdmin()), "Bearer sometoken")
			if w.Code != tc.wantCode {
				t.Fatalf("status = %d, want %d", w.Code, tc.wantCode)
			}
		})
	}
}

func TestRequireRole_AdminPassesOfficialGate(t *testing.T) {
	employee := user.User{ID: "u-1", Email: "ana@example.com", Role: user.RoleEmployee, Active: true}
	official := user.User{ID: "u-2", Email: "hr@example.com", Role: user.RoleOfficial, Active: true}
	admin := user.User{ID: "u-3", Email: "root@example.com", Role: user.RoleEmployee, IsAdmin: true, Active: true}

	tests := []struct {
		name     string
		u        user.User
		wantCode int
	}{
		{"employee forbidden", employee, http.StatusForbidden},
		{"official allowed", official, http.StatusOK},
		{"admin allowed regardless of role", admin, http.StatusOK},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m := NewAuthMiddleware(
				&fakeVerifier{claims: claimsFor(tc.u)},
				&fakeUserLoader{users: map[string]user.User{tc.u.ID: tc.u}},
			)

			w := doGet(guardedRouter(m, m.RequireRole(user.RoleOfficial)), "Bearer sometoken")
			if w.Code != tc.wantCode {
				t.Fatalf("status = %d, want %d", w.Code, tc.wantCode)
			}
		})
	}
}
