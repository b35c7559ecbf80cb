package accounts

import (
	"context"

	"golang.org/x/crypto/bcrypt"

	"github.com/pixelfolio/pixelfolio/internal/audit"
	"github.com/pixelfolio/pixelfolio/internal/authz"
	"github.com/pixelfolio/pixelfolio/internal/shared"
)

// RepositoryPort defines data access methods for accounts.
type RepositoryPort interface {
	Create(ctx context.Context, a *Account) (*Account, error)
	FindByEmail(ctx context.Context, email string) (*Account, error)
	FindByID(ctx context.Context, id int64) (*Account, error)
	List(ctx context.Context, limit, offset int) ([]Account, int, error)
	UpdateRole(ctx context.Context, id int64, role authz.Role) (*Account, error)
	UpdateSuspended(ctx context.Context, id int64, suspended bool) (*Account, error)
	UpdateProfile(ctx context.Context, id int64, name, bio, passwordHash string) (*Account, error)
	Delete(ctx context.Context, id int64) ([]string, error)
}

// Cleaner enqueues storage cleanup for orphaned assets.
type Cleaner interface {
	AssetCleanup(ctx context.Context, handle string) error
}

// Service handles account business rules.
type Service struct {
	repo    RepositoryPort
	auditor *audit.Logger
	cleaner Cleaner
}

// NewService builds a Service instance. Auditor and cleaner may be nil.
func NewService(repo RepositoryPort, auditor *audit.Logger, cleaner Cleaner) *Service {
	return &Service{repo: repo, auditor: auditor, cleaner: cleaner}
}

// Get fetches a single account.
func (s *Service) Get(ctx context.Context, id int64) (*Account, error) {
	return s.repo.FindByID(ctx, id)
}

// List returns accounts with pagination metadata.
func (s *Service) List(ctx context.Context, page, perPage int) ([]Account, shared.Pagination, error) {
	p := shared.NewPagination(page, perPage, 0)
	accounts, total, err := s.repo.List(ctx, p.PerPage, p.Offset())
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return accounts, shared.NewPagination(p.Page, p.PerPage, total), nil
}

// ChangeRole validates and persists a role transition.
//
// An admin may never move themselves off the admin role; targeting
// themselves with "admin" is an allowed no-op. The rule is deliberately
// asymmetric: no other role has an equivalent self-protection.
//
// The read-check-write sequence has no optimistic concurrency; two
// concurrent role changes are last-writer-wins. Known limitation.
func (s *Service) ChangeRole(ctx context.Context, caller *authz.Caller, targetID int64, newRole string) (*Account, error) {
	role, err := authz.ParseRole(newRole)
	if err != nil {
		return nil, err
	}
	if caller.Role == authz.RoleAdmin && caller.ID == targetID && role != authz.RoleAdmin {
		return nil, shared.ErrSelfDemotion
	}
	updated, err := s.repo.UpdateRole(ctx, targetID, role)
	if err != nil {
		return nil, err
	}
	s.record(ctx, caller, "account.change_role", updated.ID, map[string]any{"role": string(role)})
	return updated, nil
}

// SetSuspended suspends or reactivates an account.
func (s *Service) SetSuspended(ctx context.Context, caller *authz.Caller, targetID int64, suspended bool) (*Account, error) {
	updated, err := s.repo.UpdateSuspended(ctx, targetID, suspended)
	if err != nil {
		return nil, err
	}
	action := "account.activate"
	if suspended {
		action = "account.suspend"
	}
	s.record(ctx, caller, action, updated.ID, nil)
	return updated, nil
}

// UpdateProfileInput carries self-edit fields. Password is re-hashed only
// when provided.
type UpdateProfileInput struct {
	Name     string
	Bio      string
	Password string
}

// UpdateProfile edits an account. Only the account itself or an admin may do
// so.
func (s *Service) UpdateProfile(ctx context.Context, caller *authz.Caller, targetID int64, in UpdateProfileInput) (*Account, error) {
	if caller.ID != targetID && caller.Role != authz.RoleAdmin {
		return nil, shared.ErrForbidden
	}
	if in.Name == "" {
		return nil, shared.ErrValidation
	}
	hash := ""
	if in.Password != "" {
		digest, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		hash = string(digest)
	}
	return s.repo.UpdateProfile(ctx, targetID, in.Name, in.Bio, hash)
}

// Delete removes an account and its posts. Self-deletion is blocked
// unconditionally, admins included.
func (s *Service) Delete(ctx context.Context, caller *authz.Caller, targetID int64) error {
	if caller.ID == targetID {
		return shared.ErrSelfDeletion
	}
	handles, err := s.repo.Delete(ctx, targetID)
	if err != nil {
		return err
	}
	for _, handle := range handles {
		if s.cleaner == nil {
			break
		}
		if err := s.cleaner.AssetCleanup(ctx, handle); err != nil {
			// Cleanup is best effort; the asset becomes unreachable either way.
			continue
		}
	}
	s.record(ctx, caller, "account.delete", targetID, map[string]any{"posts_removed": len(handles)})
	return nil
}

func (s *Service) record(ctx context.Context, caller *authz.Caller, action string, entityID int64, meta map[string]any) {
	if s.auditor == nil {
		return
	}
	_ = s.auditor.Record(ctx, audit.Entry{
		ActorID:  caller.ID,
		Action:   action,
		Entity:   "account",
		EntityID: entityID,
		Meta:     meta,
	})
}
