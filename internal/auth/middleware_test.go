package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/aadrigaar/portal-productos/internal/domain"
	"github.com/aadrigaar/portal-productos/internal/repository"
	"github.com/aadrigaar/portal-productos/pkg/jwt"
)

type stubUserRepo struct {
	users map[string]*domain.User
}

func (r *stubUserRepo) Create(_ context.Context, _ *domain.User) error { return nil }

func (r *stubUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	if u, ok := r.users[id]; ok {
		return u, nil
	}
	return nil, repository.ErrUserNotFound
}

func (r *stubUserRepo) GetByEmail(_ context.Context, _ string) (*domain.User, error) {
	return nil, repository.ErrUserNotFound
}

func (r *stubUserRepo) GetByUsernameOrEmail(_ context.Context, _, _ string) (*domain.User, error) {
	return nil, repository.ErrUserNotFound
}

func (r *stubUserRepo) List(_ context.Context) ([]domain.User, error) { return nil, nil }

func (r *stubUserRepo) UpdateRole(_ context.Context, _, _ string) (*domain.User, error) {
	return nil, repository.ErrUserNotFound
}

func (r *stubUserRepo) Delete(_ context.Context, _ string) error { return nil }

func fixture(t *testing.T) (*jwt.Manager, *Middleware, *stubUserRepo) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := &stubUserRepo{users: map[string]*domain.User{
		"u1": {ID: "u1", Username: "alice", Email: "alice@example.com", Role: domain.RoleUser},
		"a1": {ID: "a1", Username: "root", Email: "root@example.com", Role: domain.RoleAdmin},
	}}
	tokens := jwt.NewManager("test-secret", time.Hour, "portal-test")
	return tokens, NewMiddleware(NewVerifier(tokens, repo)), repo
}

func doRequest(middleware gin.HandlerFunc, authHeader string) (*httptest.ResponseRecorder, *domain.Identity) {
	router := gin.New()
	var bound *domain.Identity
	router.GET("/protected", middleware, func(c *gin.Context) {
		if identity, ok := GetIdentity(c); ok {
			bound = &identity
		}
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set(AuthHeaderKey, authHeader)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w, bound
}

func TestRequireAuth(t *testing.T) {
	tokens, middleware, _ := fixture(t)
	token, _, err := tokens.Generate("u1", "alice", "alice@example.com", domain.RoleUser)
	if err != nil {
		t.Fatal(err)
	}

	t.Run("valid token", func(t *testing.T) {
		w, bound := doRequest(middleware.RequireAuth(), BearerPrefix+token)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", w.Code)
		}
		if bound == nil || bound.ID != "u1" || bound.Username != "alice" {
			t.Errorf("bound identity = %+v", bound)
		}
	})

	t.Run("missing header", func(t *testing.T) {
		w, _ := doRequest(middleware.RequireAuth(), "")
		if w.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", w.Code)
		}
	})

	t.Run("malformed header", func(t *testing.T) {
		w, _ := doRequest(middleware.RequireAuth(), "Token "+token)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", w.Code)
		}
	})

	t.Run("garbage token", func(t *testing.T) {
		w, _ := doRequest(middleware.RequireAuth(), BearerPrefix+"garbage")
		if w.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", w.Code)
		}
	})
}

func TestRequireAuthRejectsDeletedUser(t *testing.T) {
	tokens, middleware, repo := fixture(t)
	token, _, err := tokens.Generate("u1", "alice", "alice@example.com", domain.RoleUser)
	if err != nil {
		t.Fatal(err)
	}
	delete(repo.users, "u1")

	w, _ := doRequest(middleware.RequireAuth(), BearerPrefix+token)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestRequireAdmin(t *testing.T) {
	tokens, middleware, _ := fixture(t)

	userToken, _, _ := tokens.Generate("u1", "alice", "alice@example.com", domain.RoleUser)
	adminToken, _, _ := tokens.Generate("a1", "root", "root@example.com", domain.RoleAdmin)

	w, _ := doRequest(middleware.RequireAdmin(), BearerPrefix+userToken)
	if w.Code != http.StatusForbidden {
		t.Errorf("user status = %d, want 403", w.Code)
	}

	w, bound := doRequest(middleware.RequireAdmin(), BearerPrefix+adminToken)
	if w.Code != http.StatusOK {
		t.Errorf("admin status = %d, want 200", w.Code)
	}
	if bound == nil || !bound.IsAdmin() {
		t.Errorf("bound identity = %+v", bound)
	}
}

// The role is re-read from storage on every verification, so a stale
// token does not carry a revoked role forward.
func TestVerifyRefreshesRoleFromStorage(t *testing.T) {
	tokens, middleware, repo := fixture(t)

	adminToken, _, err := tokens.Generate("a1", "root", "root@example.com", domain.RoleAdmin)
	if err != nil {
		t.Fatal(err)
	}
	repo.users["a1"].Role = domain.RoleUser

	w, _ := doRequest(middleware.RequireAdmin(), BearerPrefix+adminToken)
	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403 after demotion", w.Code)
	}
}

func TestOptionalAuth(t *testing.T) {
	tokens, middleware, _ := fixture(t)
	token, _, _ := tokens.Generate("u1", "alice", "alice@example.com", domain.RoleUser)

	w, bound := doRequest(middleware.OptionalAuth(), BearerPrefix+token)
	if w.Code != http.StatusOK || bound == nil {
		t.Errorf("status = %d bound = %+v", w.Code, bound)
	}

	w, bound = doRequest(middleware.OptionalAuth(), "")
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 without credential", w.Code)
	}
	if bound != nil {
		t.Errorf("identity bound without credential: %+v", bound)
	}
}

func TestVerifierErrors(t *testing.T) {
	tokens, _, repo := fixture(t)
	verifier := NewVerifier(tokens, repo)

	if _, err := verifier.Verify(context.Background(), ""); !errors.Is(err, ErrMissingCredential) {
		t.Errorf("err = %v, want ErrMissingCredential", err)
	}
	if _, err := verifier.Verify(context.Background(), "garbage"); !errors.Is(err, ErrInvalidCredential) {
		t.Errorf("err = %v, want ErrInvalidCredential", err)
	}

	ghost, _, _ := tokens.Generate("ghost", "ghost", "ghost@example.com", domain.RoleUser)
	if _, err := verifier.Verify(context.Background(), ghost); !errors.Is(err, ErrIdentityNotFound) {
		t.Errorf("err = %v, want ErrIdentityNotFound", err)
	}
}
