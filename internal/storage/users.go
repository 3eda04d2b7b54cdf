package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"paytrack/internal/core"
	"paytrack/internal/profile"
)

var _ profile.Repository = (*SQLiteRepository)(nil)

const userColumns = "id, email, display_name, password_hash, created_at, updated_at"

func (r *SQLiteRepository) CreateUser(ctx context.Context, u profile.User) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO users ("+userColumns+") VALUES (?, ?, ?, ?, ?, ?)",
		u.ID, u.Email, u.DisplayName, u.PasswordHash,
		u.CreatedAt.UTC().Format(time.RFC3339Nano), u.UpdatedAt.UTC().Format(time.RFC3339Nano),
	)
	if isUniqueViolation(err) {
		return profile.ErrEmailExists
	}
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetUserByEmail(ctx context.Context, email string) (profile.User, error) {
	return r.getUser(ctx, "email", email)
}

func (r *SQLiteRepository) GetUserByID(ctx context.Context, id string) (profile.User, error) {
	return r.getUser(ctx, "id", id)
}

func (r *SQLiteRepository) getUser(ctx context.Context, column, value string) (profile.User, error) {
	var (
		u                    profile.User
		createdAt, updatedAt string
	)
	err := r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE "+column+" = ?", value,
	).Scan(&u.ID, &u.Email, &u.DisplayName, &u.PasswordHash, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return profile.User{}, core.NewNotFoundError("user", value)
	}
	if err != nil {
		return profile.User{}, fmt.Errorf("get user by %s: %w", column, err)
	}
	if u.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return profile.User{}, fmt.Errorf("parse created_at: %w", err)
	}
	if u.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return profile.User{}, fmt.Errorf("parse updated_at: %w", err)
	}
	return u, nil
}

func (r *SQLiteRepository) UpdateUser(ctx context.Context, u profile.User) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE users SET email = ?, display_name = ?, password_hash = ?, updated_at = ? WHERE id = ?",
		u.Email, u.DisplayName, u.PasswordHash, u.UpdatedAt.UTC().Format(time.RFC3339Nano), u.ID,
	)
	if isUniqueViolation(err) {
		return profile.ErrEmailExists
	}
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.NewNotFoundError("user", u.ID)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
