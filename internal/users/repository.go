package users

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kikaiya/kikaiya-web/internal/platform/db"
	"github.com/kikaiya/kikaiya-web/internal/platform/httpx"
)

const uniqueViolation = "23505"

const userColumns = `id, email, name, role, is_active, created_at, updated_at`

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListUsers returns one page of users, newest first, and the total count
// read from the same snapshot.
func (r *Repository) ListUsers(ctx context.Context, limit, offset int) ([]User, int, error) {
	var (
		total int
		users = make([]User, 0, limit)
	)
	err := db.WithReadOnlyTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
			return err
		}
		rows, err := tx.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC, id LIMIT $1 OFFSET $2`, limit, offset)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			user, err := scanUser(rows)
			if err != nil {
				return err
			}
			users = append(users, user)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// CreateUser inserts a new account.
func (r *Repository) CreateUser(ctx context.Context, in NewUser) (User, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO users (id, email, name, role, password_hash, is_active)
VALUES ($1, $2, $3, $4, $5, TRUE)
RETURNING `+userColumns, in.ID, in.Email, in.Name, in.Role, in.PasswordHash)
	user, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return User{}, ErrDuplicateEmail
		}
		return User{}, err
	}
	return user, nil
}

// UpdateRole changes the role of an account.
func (r *Repository) UpdateRole(ctx context.Context, id, role string) (User, error) {
	return r.updateOne(ctx, `UPDATE users SET role = $2, updated_at = NOW() WHERE id = $1 RETURNING `+userColumns, id, role)
}

// SetActive activates or deactivates an account.
func (r *Repository) SetActive(ctx context.Context, id string, active bool) (User, error) {
	return r.updateOne(ctx, `UPDATE users SET is_active = $2, updated_at = NOW() WHERE id = $1 RETURNING `+userColumns, id, active)
}

// DeleteUser removes an account.
func (r *Repository) DeleteUser(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

func (r *Repository) updateOne(ctx context.Context, sql string, args ...any) (User, error) {
	user, err := scanUser(r.pool.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, httpx.ErrNotFound
		}
		return User{}, err
	}
	return user, nil
}

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}
