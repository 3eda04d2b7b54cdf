package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"paytrack/internal/core"
	"paytrack/internal/store"
	"paytrack/internal/validate"

	_ "modernc.org/sqlite"
)

// SQLiteRepository persists payments and user accounts in one SQLite file.
type SQLiteRepository struct {
	db     *sql.DB
	policy store.MissingPolicy
}

var _ store.PaymentStore = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string, policy store.MissingPolicy) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	version, err := RunMigrations(dbPath)
	if err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite allows one writer; a single connection also keeps the pragma below in effect.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	slog.Info("SQLite repository ready", "path", dbPath, "schema_version", version)
	return &SQLiteRepository{db: db, policy: policy}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

const listColumns = "id, title, amount, date, category"

func (r *SQLiteRepository) List(ctx context.Context) ([]core.PaymentListItem, error) {
	return r.queryList(ctx, "SELECT "+listColumns+" FROM payments ORDER BY seq")
}

// ListFiltered narrows by date range and category in SQL and applies the
// remaining predicates in Go.
func (r *SQLiteRepository) ListFiltered(ctx context.Context, c core.Criteria) ([]core.PaymentListItem, error) {
	var (
		where []string
		args  []any
	)
	if !c.Start().IsZero() {
		where = append(where, "date >= ?")
		args = append(args, c.Start().String())
	}
	if !c.End().IsZero() {
		where = append(where, "date <= ?")
		args = append(args, c.End().String())
	}
	if cats := c.Categories(); len(cats) > 0 {
		marks := make([]string, len(cats))
		for i, cat := range cats {
			marks[i] = "?"
			args = append(args, string(cat))
		}
		where = append(where, "category IN ("+strings.Join(marks, ", ")+")")
	}

	query := "SELECT " + listColumns + " FROM payments"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY seq"

	items, err := r.queryList(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return store.Filter(items, c), nil
}

func (r *SQLiteRepository) queryList(ctx context.Context, query string, args ...any) ([]core.PaymentListItem, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query payments: %w", err)
	}
	defer rows.Close()

	items := []core.PaymentListItem{}
	for rows.Next() {
		var (
			it                     core.PaymentListItem
			amount, date, category string
		)
		if err := rows.Scan(&it.ID, &it.Title, &amount, &date, &category); err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		if it.Amount, it.Date, err = decodeColumns(amount, date); err != nil {
			return nil, fmt.Errorf("decode payment %s: %w", it.ID, err)
		}
		it.Category = core.ParseCategory(category)
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate payments: %w", err)
	}
	return items, nil
}

func (r *SQLiteRepository) GetDetails(ctx context.Context, id string) (core.PaymentDetails, error) {
	var (
		d                      core.PaymentDetails
		amount, date, category string
	)
	err := r.db.QueryRowContext(ctx,
		"SELECT id, title, description, amount, date, category FROM payments WHERE id = ?", id,
	).Scan(&d.ID, &d.Title, &d.Description, &amount, &date, &category)
	if err == sql.ErrNoRows {
		return core.PaymentDetails{}, core.NewNotFoundError(store.KindPayment, id)
	}
	if err != nil {
		return core.PaymentDetails{}, fmt.Errorf("get payment: %w", err)
	}
	if d.Amount, d.Date, err = decodeColumns(amount, date); err != nil {
		return core.PaymentDetails{}, fmt.Errorf("decode payment %s: %w", id, err)
	}
	d.Category = core.ParseCategory(category)

	d.Photos, err = r.photos(ctx, id)
	if err != nil {
		return core.PaymentDetails{}, err
	}
	return d, nil
}

func (r *SQLiteRepository) photos(ctx context.Context, id string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT url FROM payment_photos WHERE payment_id = ? ORDER BY position", id)
	if err != nil {
		return nil, fmt.Errorf("query photos: %w", err)
	}
	defer rows.Close()

	photos := []string{}
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, fmt.Errorf("scan photo: %w", err)
		}
		photos = append(photos, url)
	}
	return photos, rows.Err()
}

func (r *SQLiteRepository) Add(ctx context.Context, f core.PaymentFields) (string, error) {
	if err := validate.Fields(f); err != nil {
		return "", err
	}
	id := uuid.NewString()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO payments (id, title, description, amount, date, category) VALUES (?, ?, ?, ?, ?, ?)",
		id, f.Title, f.Description, f.Amount.String(), f.Date.String(), string(f.Category),
	)
	if err != nil {
		return "", fmt.Errorf("insert payment: %w", err)
	}
	if err := insertPhotos(ctx, tx, id, f.Photos); err != nil {
		return "", err
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit payment: %w", err)
	}

	slog.InfoContext(ctx, "Payment saved to SQLite",
		"id", id,
		"title", f.Title,
		"amount", f.Amount.String(),
		"date", f.Date.String(),
		"category", f.Category)
	return id, nil
}

// Edit replaces the row and its photos in one transaction.
func (r *SQLiteRepository) Edit(ctx context.Context, id string, f core.PaymentFields) error {
	if err := validate.Fields(f); err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE payments
		 SET title = ?, description = ?, amount = ?, date = ?, category = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		f.Title, f.Description, f.Amount.String(), f.Date.String(), string(f.Category), id,
	)
	if err != nil {
		return fmt.Errorf("update payment: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("update payment: %w", err)
	} else if n == 0 {
		return r.policy.Missing(ctx, nil, "edit", id)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM payment_photos WHERE payment_id = ?", id); err != nil {
		return fmt.Errorf("clear photos: %w", err)
	}
	if err := insertPhotos(ctx, tx, id, f.Photos); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit payment: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Remove(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM payment_photos WHERE payment_id = ?", id); err != nil {
		return fmt.Errorf("delete photos: %w", err)
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM payments WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete payment: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete payment: %w", err)
	}
	if n == 0 {
		return r.policy.Missing(ctx, nil, "remove", id)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete: %w", err)
	}
	slog.InfoContext(ctx, "Payment deleted from SQLite", "id", id)
	return nil
}

func insertPhotos(ctx context.Context, tx *sql.Tx, id string, photos []string) error {
	for i, url := range photos {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO payment_photos (payment_id, position, url) VALUES (?, ?, ?)",
			id, i, url,
		); err != nil {
			return fmt.Errorf("insert photo: %w", err)
		}
	}
	return nil
}

func decodeColumns(amount, date string) (decimal.Decimal, core.Date, error) {
	a, err := decimal.NewFromString(amount)
	if err != nil {
		return decimal.Zero, core.Date{}, fmt.Errorf("amount %q: %w", amount, err)
	}
	d, err := core.ParseDate(date)
	if err != nil {
		return decimal.Zero, core.Date{}, err
	}
	return a, d, nil
}
