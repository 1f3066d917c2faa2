package auth

import (
	"context"
	"errors"

	"github.com/aadrigaar/portal-productos/internal/domain"
	"github.com/aadrigaar/portal-productos/internal/repository"
	"github.com/aadrigaar/portal-productos/pkg/jwt"
	"github.com/aadrigaar/portal-productos/pkg/log"
)

var (
	// ErrMissingCredential: no bearer credential was supplied.
	ErrMissingCredential = errors.New("missing credential")
	// ErrInvalidCredential: the credential is malformed, invalid, or expired.
	ErrInvalidCredential = errors.New("invalid or expired credential")
	// ErrIdentityNotFound: the credential is valid but its user no longer exists.
	ErrIdentityNotFound = errors.New("identity not found")
)

// Verifier validates bearer credentials and resolves them to identities.
// The user row is re-read on every verification so a role change is
// picked up the next time a credential is presented; the returned
// Identity itself is immutable.
type Verifier struct {
	jwtManager *jwt.Manager
	users      repository.UserRepository
}

// NewVerifier creates a verifier backed by the JWT manager and user store.
func NewVerifier(jwtManager *jwt.Manager, users repository.UserRepository) *Verifier {
	return &Verifier{
		jwtManager: jwtManager,
		users:      users,
	}
}

// Verify validates a bearer credential and returns the identity it binds.
func (v *Verifier) Verify(ctx context.Context, credential string) (*domain.Identity, error) {
	if credential == "" {
		return nil, ErrMissingCredential
	}

	claims, err := v.jwtManager.Validate(credential)
	if err != nil {
		return nil, ErrInvalidCredential
	}

	user, err := v.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrIdentityNotFound
		}
		l := log.Ctx(ctx)
		l.Error().Err(err).Str(log.FieldUserID, claims.UserID).Msg("failed to load user during verification")
		return nil, err
	}

	identity := user.ToIdentity()
	return &identity, nil
}
