// Package auth implements credential handling and session establishment:
// registration, login, and token resolution for the cookie/bearer scheme.
package auth

import (
	"context"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/pixelfolio/pixelfolio/internal/accounts"
	"github.com/pixelfolio/pixelfolio/internal/authz"
	"github.com/pixelfolio/pixelfolio/internal/shared"
)

// Repository defines the account lookups the auth flows need. It is
// satisfied by accounts.Repository.
type Repository interface {
	Create(ctx context.Context, a *accounts.Account) (*accounts.Account, error)
	FindByEmail(ctx context.Context, email string) (*accounts.Account, error)
	FindByID(ctx context.Context, id int64) (*accounts.Account, error)
}

// Notifier sends post-signup notifications. May be nil.
type Notifier interface {
	WelcomeEmail(ctx context.Context, email, name string) error
}

// Service wraps authentication business rules.
type Service struct {
	repo     Repository
	tokens   *TokenManager
	notifier Notifier
}

// NewService constructs a new Service.
func NewService(repo Repository, tokens *TokenManager, notifier Notifier) *Service {
	return &Service{repo: repo, tokens: tokens, notifier: notifier}
}

// RegisterInput carries signup fields.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Bio      string
}

// Register creates an account with the default user role. The password is
// stored only as a bcrypt digest.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*accounts.Account, error) {
	if in.Name == "" || in.Email == "" || in.Password == "" {
		return nil, shared.ErrValidation
	}
	digest, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	account, err := s.repo.Create(ctx, &accounts.Account{
		Name:         in.Name,
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		PasswordHash: string(digest),
		Bio:          in.Bio,
		Role:         authz.RoleUser,
	})
	if err != nil {
		return nil, err
	}
	if s.notifier != nil {
		_ = s.notifier.WelcomeEmail(ctx, account.Email, account.Name)
	}
	return account, nil
}

// Authenticate validates email/password credentials and issues a session
// token. Unknown email and wrong password fail identically.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*accounts.Account, string, error) {
	account, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, "", shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return nil, "", shared.ErrInvalidCredentials
	}
	if account.Suspended {
		return nil, "", shared.ErrSuspended
	}
	token, err := s.tokens.Issue(account.ID, account.Email, account.Role)
	if err != nil {
		return nil, "", err
	}
	return account, token, nil
}

// ResolveCaller verifies a token and loads the referenced account. Token
// validity alone is not enough: the account must still exist and must not be
// suspended.
func (s *Service) ResolveCaller(ctx context.Context, token string) (*accounts.Account, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, err
	}
	account, err := s.repo.FindByID(ctx, claims.AccountID)
	if err != nil {
		return nil, shared.ErrUnknownAccount
	}
	if account.Suspended {
		return nil, shared.ErrSuspended
	}
	return account, nil
}
