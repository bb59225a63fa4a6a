package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository defines persistence operations for admin accounts.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*AdminUser, error)
	FindByID(ctx context.Context, id int64) (*AdminUser, error)
	TouchLogin(ctx context.Context, id int64, at time.Time) error
}

// PGRepository implements Repository on PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const selectAdmin = `SELECT id, email, name, password_hash, is_active, last_login_at, created_at FROM admin_users`

// FindByEmail fetches an admin by case-insensitive email.
func (r *PGRepository) FindByEmail(ctx context.Context, email string) (*AdminUser, error) {
	return r.scanOne(ctx, selectAdmin+` WHERE lower(email) = lower($1)`, email)
}

// FindByID fetches an admin by id.
func (r *PGRepository) FindByID(ctx context.Context, id int64) (*AdminUser, error) {
	return r.scanOne(ctx, selectAdmin+` WHERE id = $1`, id)
}

// TouchLogin records a successful sign-in.
func (r *PGRepository) TouchLogin(ctx context.Context, id int64, at time.Time) error {
	if _, err := r.pool.Exec(ctx, `UPDATE admin_users SET last_login_at = $2 WHERE id = $1`, id, at.UTC()); err != nil {
		return fmt.Errorf("auth: touch login: %w", err)
	}
	return nil
}

func (r *PGRepository) scanOne(ctx context.Context, query string, arg any) (*AdminUser, error) {
	var (
		u         AdminUser
		lastLogin pgtype.Timestamptz
	)
	err := r.pool.QueryRow(ctx, query, arg).Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.IsActive, &lastLogin, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("auth: find admin: %w", err)
	}
	if lastLogin.Valid {
		t := lastLogin.Time
		u.LastLoginAt = &t
	}
	return &u, nil
}

var _ Repository = (*PGRepository)(nil)
