package posts

import (
	"context"
	"io"

	"github.com/pixelfolio/pixelfolio/internal/audit"
	"github.com/pixelfolio/pixelfolio/internal/authz"
	"github.com/pixelfolio/pixelfolio/internal/shared"
	"github.com/pixelfolio/pixelfolio/internal/storage"
)

// RepositoryPort defines data access methods for posts.
type RepositoryPort interface {
	Create(ctx context.Context, p *Post) (*Post, error)
	FindByID(ctx context.Context, id int64) (*Post, error)
	FindByIDs(ctx context.Context, ids []int64) ([]Post, error)
	List(ctx context.Context, filter ListFilter, limit, offset int) ([]Post, int, error)
	Delete(ctx context.Context, id int64) error
	SetApproved(ctx context.Context, id int64) (*Post, error)
	Favorite(ctx context.Context, accountID, postID int64) error
	Unfavorite(ctx context.Context, accountID, postID int64) error
	Purchase(ctx context.Context, accountID, postID, priceCents int64) error
	Rate(ctx context.Context, accountID, postID int64, stars int) error
	RatingFor(ctx context.Context, postID int64) (Rating, error)
	AddComment(ctx context.Context, c *Comment) (*Comment, error)
	ListComments(ctx context.Context, postID int64) ([]Comment, error)
}

// Cleaner enqueues storage cleanup for deleted assets.
type Cleaner interface {
	AssetCleanup(ctx context.Context, handle string) error
}

// Service handles post business rules.
type Service struct {
	repo    RepositoryPort
	store   storage.Store
	auditor *audit.Logger
	cleaner Cleaner
}

// NewService builds a Service instance. Auditor and cleaner may be nil.
func NewService(repo RepositoryPort, store storage.Store, auditor *audit.Logger, cleaner Cleaner) *Service {
	return &Service{repo: repo, store: store, auditor: auditor, cleaner: cleaner}
}

// assertCanMutate allows privileged mutation only by the owner or an admin.
func assertCanMutate(caller *authz.Caller, ownerID int64) error {
	if caller.ID == ownerID || caller.Role == authz.RoleAdmin {
		return nil
	}
	return shared.ErrForbidden
}

// CreateInput carries post creation fields.
type CreateInput struct {
	Title       string
	Description string
	PriceCents  int64
	Filename    string
	File        io.Reader
}

// Create uploads the image and inserts an unapproved post.
func (s *Service) Create(ctx context.Context, caller *authz.Caller, in CreateInput) (*Post, error) {
	if in.Title == "" || in.File == nil || in.PriceCents < 0 {
		return nil, shared.ErrValidation
	}
	asset, err := s.store.Upload(ctx, in.Filename, in.File)
	if err != nil {
		return nil, err
	}
	post, err := s.repo.Create(ctx, &Post{
		OwnerID:     caller.ID,
		Title:       in.Title,
		Description: in.Description,
		PriceCents:  in.PriceCents,
		ImageURL:    asset.URL,
		AssetHandle: asset.Handle,
	})
	if err != nil {
		// The asset is already uploaded; hand it to cleanup instead of
		// leaving it orphaned.
		if s.cleaner != nil {
			_ = s.cleaner.AssetCleanup(ctx, asset.Handle)
		}
		return nil, err
	}
	return post, nil
}

// Get fetches a post. Unapproved posts are visible only to their owner and
// admins; caller may be nil for anonymous requests.
func (s *Service) Get(ctx context.Context, caller *authz.Caller, id int64) (*Post, error) {
	post, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !post.Approved {
		if caller == nil {
			return nil, shared.ErrNotFound
		}
		if err := assertCanMutate(caller, post.OwnerID); err != nil {
			return nil, shared.ErrNotFound
		}
	}
	return post, nil
}

// List returns approved posts, or the caller's own posts when mine is set.
func (s *Service) List(ctx context.Context, caller *authz.Caller, mine bool, page, perPage int) ([]Post, shared.Pagination, error) {
	filter := ListFilter{ApprovedOnly: true}
	if mine && caller != nil {
		filter = ListFilter{OwnerID: caller.ID}
	}
	p := shared.NewPagination(page, perPage, 0)
	list, total, err := s.repo.List(ctx, filter, p.PerPage, p.Offset())
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return list, shared.NewPagination(p.Page, p.PerPage, total), nil
}

// Delete removes a post after the ownership check and enqueues asset
// cleanup.
func (s *Service) Delete(ctx context.Context, caller *authz.Caller, id int64) error {
	post, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := assertCanMutate(caller, post.OwnerID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if s.cleaner != nil {
		_ = s.cleaner.AssetCleanup(ctx, post.AssetHandle)
	}
	s.record(ctx, caller, "post.delete", id, nil)
	return nil
}

// Approve marks a post as approved for public listing. Permission gating
// happens in the middleware chain.
func (s *Service) Approve(ctx context.Context, caller *authz.Caller, id int64) (*Post, error) {
	post, err := s.repo.SetApproved(ctx, id)
	if err != nil {
		return nil, err
	}
	s.record(ctx, caller, "post.approve", id, nil)
	return post, nil
}

// Favorite saves a post to the caller's collection.
func (s *Service) Favorite(ctx context.Context, caller *authz.Caller, id int64) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return err
	}
	return s.repo.Favorite(ctx, caller.ID, id)
}

// Unfavorite removes a post from the caller's collection.
func (s *Service) Unfavorite(ctx context.Context, caller *authz.Caller, id int64) error {
	return s.repo.Unfavorite(ctx, caller.ID, id)
}

// Purchase records a purchase at the post's current price. Own posts cannot
// be purchased and repeats are rejected.
func (s *Service) Purchase(ctx context.Context, caller *authz.Caller, id int64) (*Post, error) {
	post, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if post.OwnerID == caller.ID {
		return nil, shared.ErrOwnPost
	}
	if err := s.repo.Purchase(ctx, caller.ID, id, post.PriceCents); err != nil {
		return nil, err
	}
	return post, nil
}

// Rate upserts the caller's star rating (1..5).
func (s *Service) Rate(ctx context.Context, caller *authz.Caller, id int64, stars int) (Rating, error) {
	if stars < 1 || stars > 5 {
		return Rating{}, shared.ErrValidation
	}
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return Rating{}, err
	}
	if err := s.repo.Rate(ctx, caller.ID, id, stars); err != nil {
		return Rating{}, err
	}
	return s.repo.RatingFor(ctx, id)
}

// Comment adds a comment to a post.
func (s *Service) Comment(ctx context.Context, caller *authz.Caller, id int64, body string) (*Comment, error) {
	if body == "" {
		return nil, shared.ErrValidation
	}
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.AddComment(ctx, &Comment{PostID: id, AuthorID: caller.ID, Body: body})
}

// Comments lists a post's comments.
func (s *Service) Comments(ctx context.Context, id int64) ([]Comment, error) {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.ListComments(ctx, id)
}

// Trending resolves trending post ids into posts, dropping ids that no
// longer exist or lost approval.
func (s *Service) Trending(ctx context.Context, ids []int64) ([]Post, error) {
	return s.repo.FindByIDs(ctx, ids)
}

func (s *Service) record(ctx context.Context, caller *authz.Caller, action string, entityID int64, meta map[string]any) {
	if s.auditor == nil {
		return
	}
	_ = s.auditor.Record(ctx, audit.Entry{
		ActorID:  caller.ID,
		Action:   action,
		Entity:   "post",
		EntityID: entityID,
		Meta:     meta,
	})
}
