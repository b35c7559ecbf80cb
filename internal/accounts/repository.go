package accounts

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pixelfolio/pixelfolio/internal/authz"
	"github.com/pixelfolio/pixelfolio/internal/platform/db"
	"github.com/pixelfolio/pixelfolio/internal/shared"
)

const uniqueViolationCode = "23505"

// Repository provides PostgreSQL backed persistence for accounts.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const accountColumns = `id, name, email, password_hash, bio, role, suspended, created_at, updated_at`

func scanAccount(row pgx.Row) (*Account, error) {
	var a Account
	var role string
	err := row.Scan(&a.ID, &a.Name, &a.Email, &a.PasswordHash, &a.Bio, &role, &a.Suspended, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	a.Role = authz.Role(role)
	return &a, nil
}

// Create inserts a new account. Emails are stored lowercased; a unique
// violation maps to ErrDuplicateEmail.
func (r *Repository) Create(ctx context.Context, a *Account) (*Account, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO accounts (name, email, password_hash, bio, role)
		 VALUES ($1, lower($2), $3, $4, $5)
		 RETURNING `+accountColumns,
		a.Name, a.Email, a.PasswordHash, a.Bio, string(a.Role))
	created, err := scanAccount(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return nil, shared.ErrDuplicateEmail
		}
		return nil, err
	}
	return created, nil
}

// FindByEmail fetches an account by email, case-insensitively.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	row := r.pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE email = $1`, email)
	return scanAccount(row)
}

// FindByID fetches an account by ID.
func (r *Repository) FindByID(ctx context.Context, id int64) (*Account, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
	return scanAccount(row)
}

// List returns accounts ordered by ID with the total count.
func (r *Repository) List(ctx context.Context, limit, offset int) ([]Account, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM accounts`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+accountColumns+` FROM accounts ORDER BY id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var out []Account
	for rows.Next() {
		var a Account
		var role string
		if err := rows.Scan(&a.ID, &a.Name, &a.Email, &a.PasswordHash, &a.Bio, &role, &a.Suspended, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, 0, err
		}
		a.Role = authz.Role(role)
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// UpdateRole persists a role change.
func (r *Repository) UpdateRole(ctx context.Context, id int64, role authz.Role) (*Account, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE accounts SET role = $2, updated_at = now() WHERE id = $1 RETURNING `+accountColumns,
		id, string(role))
	return scanAccount(row)
}

// UpdateSuspended flips the suspension flag.
func (r *Repository) UpdateSuspended(ctx context.Context, id int64, suspended bool) (*Account, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE accounts SET suspended = $2, updated_at = now() WHERE id = $1 RETURNING `+accountColumns,
		id, suspended)
	return scanAccount(row)
}

// UpdateProfile persists name, bio and, when non-empty, a new password hash.
func (r *Repository) UpdateProfile(ctx context.Context, id int64, name, bio, passwordHash string) (*Account, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE accounts
		 SET name = $2, bio = $3,
		     password_hash = CASE WHEN $4 <> '' THEN $4 ELSE password_hash END,
		     updated_at = now()
		 WHERE id = $1
		 RETURNING `+accountColumns,
		id, name, bio, passwordHash)
	return scanAccount(row)
}

// Delete removes the account and its owned posts in a single transaction and
// returns the asset handles of the deleted posts for storage cleanup.
// Dependent rows (favorites, purchases, ratings, comments) go via ON DELETE
// CASCADE.
func (r *Repository) Delete(ctx context.Context, id int64) ([]string, error) {
	var handles []string
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `SELECT asset_handle FROM posts WHERE owner_id = $1`, id)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var handle string
			if err := rows.Scan(&handle); err != nil {
				return err
			}
			handles = append(handles, handle)
		}
		if err := rows.Err(); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM posts WHERE owner_id = $1`, id); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `DELETE FROM accounts WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return handles, nil
}
