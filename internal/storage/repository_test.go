package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paytrack/internal/core"
	"paytrack/internal/profile"
	"paytrack/internal/store"
)

func newTestRepo(t *testing.T, policy store.MissingPolicy) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "paytrack.db"), policy)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func samplePayment(title, amount string, date core.Date, cat core.Category, photos ...string) core.PaymentFields {
	return core.PaymentFields{
		Title:       title,
		Description: "notes for " + title,
		Amount:      decimal.RequireFromString(amount),
		Date:        date,
		Category:    cat,
		Photos:      photos,
	}
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m.db")
	v1, err := RunMigrations(path)
	require.NoError(t, err)
	v2, err := RunMigrations(path)
	require.NoError(t, err)
	assert.Equal(t, v1, v2)
	assert.Equal(t, uint(2), v2)
}

func TestPaymentRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t, store.MissingWarn)

	f := samplePayment("Dinner", "21.1263", core.NewDate(2024, 2, 29), core.Food, "https://a/1.jpg", "https://a/2.jpg")
	id, err := repo.Add(ctx, f)
	require.NoError(t, err)

	d, err := repo.GetDetails(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, d.ID)
	assert.Equal(t, f.Title, d.Title)
	assert.Equal(t, f.Description, d.Description)
	assert.True(t, f.Amount.Equal(d.Amount), "amount %s", d.Amount)
	assert.True(t, f.Date.Equal(d.Date.Time))
	assert.Equal(t, f.Category, d.Category)
	assert.Equal(t, f.Photos, d.Photos)

	items, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, id, items[0].ID)
}

func TestListEmpty(t *testing.T) {
	items, err := newTestRepo(t, store.MissingWarn).List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestAddRejectsInvalid(t *testing.T) {
	repo := newTestRepo(t, store.MissingWarn)
	_, err := repo.Add(context.Background(), samplePayment("", "1", core.NewDate(2024, 1, 1), core.Food))
	assert.True(t, core.IsValidationError(err))
}

func TestListFiltered(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t, store.MissingWarn)

	seed := []core.PaymentFields{
		samplePayment("Train ticket", "35", core.NewDate(2024, 1, 10), core.Transport),
		samplePayment("Train pass", "120", core.NewDate(2024, 2, 1), core.Transport),
		samplePayment("Groceries", "60.5", core.NewDate(2024, 2, 3), core.Food),
		samplePayment("Old rent", "700", core.NewDate(1999, 12, 1), core.Housing),
	}
	for _, f := range seed {
		_, err := repo.Add(ctx, f)
		require.NoError(t, err)
	}

	tests := []struct {
		name   string
		c      core.Criteria
		titles []string
	}{
		{"default range drops pre-2000", core.NewCriteria(), []string{"Train ticket", "Train pass", "Groceries"}},
		{"query", core.NewCriteria(core.WithQuery("train")), []string{"Train ticket", "Train pass"}},
		{"category", core.NewCriteria(core.WithCategories(core.Food)), []string{"Groceries"}},
		{"amount range", core.NewCriteria(core.WithMinAmount(decimal.NewFromInt(50)), core.WithMaxAmount(decimal.NewFromInt(120))), []string{"Train pass", "Groceries"}},
		{"date range", core.NewCriteria(core.WithDateRange(core.NewDate(2024, 2, 1), core.NewDate(2024, 2, 2))), []string{"Train pass"}},
		{"zero criteria", core.Criteria{}, []string{"Train ticket", "Train pass", "Groceries", "Old rent"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.ListFiltered(ctx, tt.c)
			require.NoError(t, err)
			titles := make([]string, len(got))
			for i, it := range got {
				titles[i] = it.Title
			}
			assert.Equal(t, tt.titles, titles)
		})
	}
}

func TestEditReplacesFieldsAndPhotos(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t, store.MissingWarn)

	id, err := repo.Add(ctx, samplePayment("Phone", "400", core.NewDate(2024, 3, 3), core.Shopping, "p1", "p2"))
	require.NoError(t, err)

	require.NoError(t, repo.Edit(ctx, id, samplePayment("Phone case", "25", core.NewDate(2024, 3, 4), core.Shopping, "p3")))

	d, err := repo.GetDetails(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Phone case", d.Title)
	assert.Equal(t, []string{"p3"}, d.Photos)
	assert.True(t, decimal.NewFromInt(25).Equal(d.Amount))
}

func TestMissingIDPolicies(t *testing.T) {
	ctx := context.Background()
	f := samplePayment("x", "1", core.NewDate(2024, 1, 1), core.Other)

	warn := newTestRepo(t, store.MissingWarn)
	assert.NoError(t, warn.Edit(ctx, "missing", f))
	assert.NoError(t, warn.Remove(ctx, "missing"))

	fail := newTestRepo(t, store.MissingFail)
	assert.True(t, core.IsNotFound(fail.Edit(ctx, "missing", f)))
	assert.True(t, core.IsNotFound(fail.Remove(ctx, "missing")))

	_, err := fail.GetDetails(ctx, "missing-id")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestRemove(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t, store.MissingWarn)
	id, err := repo.Add(ctx, samplePayment("Gym", "30", core.NewDate(2024, 5, 5), core.Health, "receipt"))
	require.NoError(t, err)

	require.NoError(t, repo.Remove(ctx, id))
	require.NoError(t, repo.Remove(ctx, id))

	_, err = repo.GetDetails(ctx, id)
	assert.True(t, core.IsNotFound(err))

	var photos int
	require.NoError(t, repo.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM payment_photos").Scan(&photos))
	assert.Zero(t, photos)
}

func TestUnknownStoredCategoryFallsBack(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t, store.MissingWarn)
	id, err := repo.Add(ctx, samplePayment("Mystery", "5", core.NewDate(2024, 1, 1), core.Food))
	require.NoError(t, err)

	_, err = repo.db.ExecContext(ctx, "UPDATE payments SET category = 'groceries' WHERE id = ?", id)
	require.NoError(t, err)

	d, err := repo.GetDetails(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, core.DefaultCategory, d.Category)
}

func TestUsers(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t, store.MissingWarn)
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	u := profile.User{ID: "u1", Email: "ada@example.com", DisplayName: "Ada", PasswordHash: "hash", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, repo.CreateUser(ctx, u))
	assert.ErrorIs(t, repo.CreateUser(ctx, profile.User{ID: "u2", Email: "ADA@example.com", CreatedAt: now, UpdatedAt: now}), profile.ErrEmailExists)

	got, err := repo.GetUserByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, u, got)

	u.DisplayName = "Countess"
	require.NoError(t, repo.UpdateUser(ctx, u))
	got, err = repo.GetUserByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Countess", got.DisplayName)

	_, err = repo.GetUserByID(ctx, "nobody")
	assert.True(t, core.IsNotFound(err))
	assert.True(t, core.IsNotFound(repo.UpdateUser(ctx, profile.User{ID: "nobody", Email: "z@z.io"})))
}

func TestProfileServiceOnSQLite(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t, store.MissingWarn)
	svc := profile.NewService(repo, profile.NewTokens("secret", time.Hour)).WithCost(4)

	u, err := svc.Register(ctx, "bob@example.com", "Bob", "hunter22")
	require.NoError(t, err)
	token, _, err := svc.SignIn(ctx, "bob@example.com", "hunter22")
	require.NoError(t, err)
	id, err := svc.Tokens().Verify(token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, id)
}
