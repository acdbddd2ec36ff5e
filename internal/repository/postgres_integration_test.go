package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk360/internal/domain"
	"github.com/spec-kit/helpdesk360/internal/persistence"
)

// openTestPool connects to TEST_POSTGRES_DSN, applies migrations and empties
// the request tables. Tests are skipped when the variable is unset.
func openTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, persistence.RunMigrations(ctx, pool, zap.NewNop()))
	_, err = pool.Exec(ctx, `TRUNCATE request_departments, requests RESTART IDENTITY CASCADE`)
	require.NoError(t, err)
	return pool
}

func setCreatedAt(t *testing.T, pool *pgxpool.Pool, id int64, at time.Time) {
	t.Helper()
	_, err := pool.Exec(context.Background(), `UPDATE requests SET created_at=$1 WHERE id=$2`, at, id)
	require.NoError(t, err)
}

func TestRequestRepository_RangeQueries(t *testing.T) {
	pool := openTestPool(t)
	ctx := context.Background()
	requests := NewRequestRepository(pool)
	departments := NewDepartmentRepository(pool)

	active, err := departments.ListActive(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, active, "seed departments expected")
	deptID := active[0].ID

	boundaries := []time.Time{
		time.Date(2024, time.February, 29, 23, 59, 59, 0, time.UTC),
		time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, time.March, 31, 23, 59, 59, 0, time.UTC),
		time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC),
	}
	for _, at := range boundaries {
		req := &domain.Request{
			Name: "Boundary", Phone: "555", Email: "b@example.com", Description: "boundary request",
			Priority: domain.RequestPriorityLow, Status: domain.RequestStatusOpen, DepartmentIDs: []int64{deptID},
		}
		require.NoError(t, requests.Create(ctx, req))
		setCreatedAt(t, pool, req.ID, at)
	}

	march := domain.MonthPeriod(2024, time.March)
	total, err := requests.CountRequestsCreatedInRange(ctx, march.Start, march.End)
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	listed, err := requests.ListRequestsCreatedInRange(ctx, march.Start, march.End)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, boundaries[1], listed[0].CreatedAt)
	assert.Equal(t, time.UTC, listed[0].CreatedAt.Location())
	require.Len(t, listed[0].Departments, 1)
	assert.Equal(t, deptID, listed[0].Departments[0].ID)
}

func TestRequestRepository_ResolvedAtIsWriteOnce(t *testing.T) {
	pool := openTestPool(t)
	ctx := context.Background()
	requests := NewRequestRepository(pool)
	active, err := NewDepartmentRepository(pool).ListActive(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, active)

	req := &domain.Request{
		Name: "Ada", Phone: "555", Email: "ada@example.com", Description: "printer on fire",
		Priority: domain.RequestPriorityHigh, Status: domain.RequestStatusOpen, DepartmentIDs: []int64{active[0].ID},
	}
	require.NoError(t, requests.Create(ctx, req))

	first := time.Date(2024, time.March, 2, 10, 0, 0, 0, time.UTC)
	req.Status = domain.RequestStatusResolved
	req.ResolvedAt = &first
	require.NoError(t, requests.Update(ctx, req))

	later := first.Add(48 * time.Hour)
	req.ResolvedAt = &later
	require.NoError(t, requests.Update(ctx, req))
	require.NotNil(t, req.ResolvedAt)
	assert.Equal(t, first, *req.ResolvedAt)

	require.NoError(t, requests.Delete(ctx, req.ID))
	_, err = requests.GetByID(ctx, req.ID)
	assert.ErrorIs(t, err, pgx.ErrNoRows)
}

func TestRequestRepository_OrphanedDepartmentLink(t *testing.T) {
	pool := openTestPool(t)
	ctx := context.Background()
	requests := NewRequestRepository(pool)
	active, err := NewDepartmentRepository(pool).ListActive(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, active)

	req := &domain.Request{
		Name: "Orphan", Phone: "555", Email: "o@example.com", Description: "links a missing department",
		Priority: domain.RequestPriorityLow, Status: domain.RequestStatusOpen, DepartmentIDs: []int64{active[0].ID, 999999},
	}
	require.NoError(t, requests.Create(ctx, req))

	got, err := requests.GetByID(ctx, req.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{active[0].ID, 999999}, got.DepartmentIDs)
	require.Len(t, got.Departments, 1)
	assert.Equal(t, active[0].ID, got.Departments[0].ID)
}

func TestRequestRepository_SearchMatchesWildcardsLiterally(t *testing.T) {
	pool := openTestPool(t)
	ctx := context.Background()
	requests := NewRequestRepository(pool)
	active, err := NewDepartmentRepository(pool).ListActive(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, active)

	for _, description := range []string{"disk at 50% capacity", "disk at 500 GB capacity", "printer a_b offline", "printer axb offline"} {
		req := &domain.Request{
			Name: "Search", Phone: "555", Email: "s@example.com", Description: description,
			Priority: domain.RequestPriorityLow, Status: domain.RequestStatusOpen, DepartmentIDs: []int64{active[0].ID},
		}
		require.NoError(t, requests.Create(ctx, req))
	}

	percent, err := requests.Search(ctx, "50%")
	require.NoError(t, err)
	require.Len(t, percent, 1)
	assert.Equal(t, "disk at 50% capacity", percent[0].Description)

	underscore, err := requests.Search(ctx, "a_b")
	require.NoError(t, err)
	require.Len(t, underscore, 1)
	assert.Equal(t, "printer a_b offline", underscore[0].Description)
}
