package service

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/aadrigaar/portal-productos/internal/audit"
	"github.com/aadrigaar/portal-productos/internal/domain"
	"github.com/aadrigaar/portal-productos/internal/repository"
	"github.com/aadrigaar/portal-productos/pkg/jwt"
	"github.com/aadrigaar/portal-productos/pkg/log"
)

var (
	ErrUserExists         = errors.New("username or email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrSelfDemotion       = errors.New("cannot change your own role")
	ErrSelfDeletion       = errors.New("cannot delete your own account")
)

const bcryptCost = 12

// adminUsername and adminEmail identify the bootstrap account that is
// promoted to admin on registration.
const (
	adminUsername = "admin"
	adminEmail    = "admin@admin.com"
)

type userService struct {
	users  repository.UserRepository
	tokens *jwt.Manager
}

// NewUserService creates the user service.
func NewUserService(users repository.UserRepository, tokens *jwt.Manager) UserService {
	return &userService{users: users, tokens: tokens}
}

// Register creates a new account and issues a token for it.
func (s *userService) Register(ctx context.Context, req *domain.RegisterRequest) (*domain.AuthResponse, error) {
	username := strings.TrimSpace(req.Username)
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if existing, err := s.users.GetByUsernameOrEmail(ctx, username, email); err == nil && existing != nil {
		return nil, ErrUserExists
	} else if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return nil, err
	}

	role := domain.RoleUser
	if strings.EqualFold(username, adminUsername) || email == adminEmail {
		role = domain.RoleAdmin
	}

	user := &domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailExists) || errors.Is(err, repository.ErrUsernameExists) {
			return nil, ErrUserExists
		}
		return nil, err
	}

	token, expiresAt, err := s.tokens.Generate(user.ID, user.Username, user.Email, user.Role)
	if err != nil {
		return nil, err
	}

	audit.Log(ctx, audit.ActionRegister, user.ID, "user registered")

	return &domain.AuthResponse{
		Message:   "user registered successfully",
		Token:     token,
		ExpiresAt: expiresAt,
		User:      user.ToResponse(),
	}, nil
}

// Login verifies credentials and issues a token.
func (s *userService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		audit.Log(ctx, audit.ActionLoginFailed, user.ID, "login rejected")
		return nil, ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.Generate(user.ID, user.Username, user.Email, user.Role)
	if err != nil {
		return nil, err
	}

	audit.Log(ctx, audit.ActionLogin, user.ID, "user logged in")

	return &domain.AuthResponse{
		Message:   "login successful",
		Token:     token,
		ExpiresAt: expiresAt,
		User:      user.ToResponse(),
	}, nil
}

// GetUser returns the profile for a user id.
func (s *userService) GetUser(ctx context.Context, userID string) (*domain.UserResponse, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	resp := user.ToResponse()
	return &resp, nil
}

// ListUsers returns every account. Admin only, enforced at the route.
func (s *userService) ListUsers(ctx context.Context) ([]domain.UserResponse, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.UserResponse, 0, len(users))
	for i := range users {
		out = append(out, users[i].ToResponse())
	}
	return out, nil
}

// UpdateUserRole changes another user's role. Admins cannot change
// their own role, which would let the last admin lock everyone out.
func (s *userService) UpdateUserRole(ctx context.Context, actor domain.Identity, targetID, role string) (*domain.UserResponse, error) {
	if actor.ID == targetID {
		return nil, ErrSelfDemotion
	}
	if !domain.ValidRole(role) {
		return nil, domain.ErrInvalidRole
	}

	user, err := s.users.UpdateRole(ctx, targetID, role)
	if err != nil {
		return nil, err
	}

	audit.LogWithTarget(ctx, audit.ActionUpdateRole, actor.ID, targetID, "user role updated to "+role)

	resp := user.ToResponse()
	return &resp, nil
}

// DeleteUser removes another user's account.
func (s *userService) DeleteUser(ctx context.Context, actor domain.Identity, targetID string) error {
	if actor.ID == targetID {
		return ErrSelfDeletion
	}

	if err := s.users.Delete(ctx, targetID); err != nil {
		return err
	}

	audit.LogWithTarget(ctx, audit.ActionDeleteUser, actor.ID, targetID, "user deleted")
	log.Ctx(ctx).Info().Str(log.FieldUserID, targetID).Msg("user account removed")
	return nil
}
