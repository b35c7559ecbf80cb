package posts

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pixelfolio/pixelfolio/internal/shared"
)

const uniqueViolationCode = "23505"

// Repository provides PostgreSQL backed persistence for posts.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const postColumns = `id, owner_id, title, description, price_cents, image_url, asset_handle, approved, created_at, updated_at`

func scanPost(row pgx.Row) (*Post, error) {
	var p Post
	err := row.Scan(&p.ID, &p.OwnerID, &p.Title, &p.Description, &p.PriceCents, &p.ImageURL, &p.AssetHandle, &p.Approved, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	p.fillDisplayPrice()
	return &p, nil
}

// Create inserts a new, unapproved post.
func (r *Repository) Create(ctx context.Context, p *Post) (*Post, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO posts (owner_id, title, description, price_cents, image_url, asset_handle)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+postColumns,
		p.OwnerID, p.Title, p.Description, p.PriceCents, p.ImageURL, p.AssetHandle)
	return scanPost(row)
}

// FindByID fetches a post by ID.
func (r *Repository) FindByID(ctx context.Context, id int64) (*Post, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+postColumns+` FROM posts WHERE id = $1`, id)
	return scanPost(row)
}

// ListFilter narrows List results. Zero values mean no restriction.
type ListFilter struct {
	ApprovedOnly bool
	OwnerID      int64
}

// List returns posts newest first with the total count.
func (r *Repository) List(ctx context.Context, filter ListFilter, limit, offset int) ([]Post, int, error) {
	where := `WHERE ($1 = false OR approved) AND ($2 = 0 OR owner_id = $2)`
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM posts `+where, filter.ApprovedOnly, filter.OwnerID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+postColumns+` FROM posts `+where+` ORDER BY created_at DESC, id DESC LIMIT $3 OFFSET $4`,
		filter.ApprovedOnly, filter.OwnerID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var out []Post
	for rows.Next() {
		var p Post
		if err := rows.Scan(&p.ID, &p.OwnerID, &p.Title, &p.Description, &p.PriceCents, &p.ImageURL, &p.AssetHandle, &p.Approved, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, 0, err
		}
		p.fillDisplayPrice()
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// FindByIDs fetches posts preserving the order of ids.
func (r *Repository) FindByIDs(ctx context.Context, ids []int64) ([]Post, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+postColumns+` FROM posts WHERE id = ANY($1) AND approved`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	byID := make(map[int64]Post, len(ids))
	for rows.Next() {
		var p Post
		if err := rows.Scan(&p.ID, &p.OwnerID, &p.Title, &p.Description, &p.PriceCents, &p.ImageURL, &p.AssetHandle, &p.Approved, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		p.fillDisplayPrice()
		byID[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	out := make([]Post, 0, len(byID))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

// Delete removes a post. Returns ErrNotFound if nothing was deleted.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// SetApproved marks a post approved.
func (r *Repository) SetApproved(ctx context.Context, id int64) (*Post, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE posts SET approved = true, updated_at = now() WHERE id = $1 RETURNING `+postColumns, id)
	return scanPost(row)
}

// Favorite records a favorite; repeats are no-ops.
func (r *Repository) Favorite(ctx context.Context, accountID, postID int64) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO favorites (account_id, post_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		accountID, postID)
	return err
}

// Unfavorite removes a favorite.
func (r *Repository) Unfavorite(ctx context.Context, accountID, postID int64) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM favorites WHERE account_id = $1 AND post_id = $2`, accountID, postID)
	return err
}

// Purchase records a purchase at the current price. A repeat purchase maps
// to ErrAlreadyPurchased via the unique constraint.
func (r *Repository) Purchase(ctx context.Context, accountID, postID, priceCents int64) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO purchases (account_id, post_id, price_cents) VALUES ($1, $2, $3)`,
		accountID, postID, priceCents)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return shared.ErrAlreadyPurchased
		}
		return err
	}
	return nil
}

// Rate upserts the caller's star rating for a post.
func (r *Repository) Rate(ctx context.Context, accountID, postID int64, stars int) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO ratings (account_id, post_id, stars) VALUES ($1, $2, $3)
		 ON CONFLICT (account_id, post_id) DO UPDATE SET stars = EXCLUDED.stars, updated_at = now()`,
		accountID, postID, stars)
	return err
}

// RatingFor returns the aggregate rating of a post.
func (r *Repository) RatingFor(ctx context.Context, postID int64) (Rating, error) {
	var rating Rating
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(avg(stars), 0), count(*) FROM ratings WHERE post_id = $1`, postID).
		Scan(&rating.Average, &rating.Count)
	return rating, err
}

// AddComment inserts a comment.
func (r *Repository) AddComment(ctx context.Context, c *Comment) (*Comment, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO comments (post_id, author_id, body) VALUES ($1, $2, $3)
		 RETURNING id, post_id, author_id, body, created_at`,
		c.PostID, c.AuthorID, c.Body)
	var out Comment
	if err := row.Scan(&out.ID, &out.PostID, &out.AuthorID, &out.Body, &out.CreatedAt); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListComments returns a post's comments oldest first.
func (r *Repository) ListComments(ctx context.Context, postID int64) ([]Comment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, post_id, author_id, body, created_at FROM comments WHERE post_id = $1 ORDER BY id`, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Comment
	for rows.Next() {
		var c Comment
		if err := rows.Scan(&c.ID, &c.PostID, &c.AuthorID, &c.Body, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
