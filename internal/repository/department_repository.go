package repository

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk360/internal/domain"
)

var departmentColumns = []string{"id", "name", "code", "is_active", "created_at", "updated_at"}

// DepartmentRepository manages department persistence.
type DepartmentRepository interface {
	Create(ctx context.Context, dept *domain.Department) error
	Update(ctx context.Context, dept *domain.Department) error
	GetByID(ctx context.Context, id int64) (*domain.Department, error)
	GetByIDs(ctx context.Context, ids []int64) ([]domain.Department, error)
	ListActive(ctx context.Context) ([]domain.Department, error)
	CountActive(ctx context.Context) (int, error)
}

type departmentRepository struct {
	pool *pgxpool.Pool
}

// NewDepartmentRepository builds the repository.
func NewDepartmentRepository(pool *pgxpool.Pool) DepartmentRepository {
	return &departmentRepository{pool: pool}
}

func (r *departmentRepository) Create(ctx context.Context, dept *domain.Department) error {
	const query = `
        INSERT INTO departments (name, code, is_active)
        VALUES ($1,$2,$3)
        RETURNING id, created_at, updated_at`
	if err := r.pool.QueryRow(ctx, query,
		dept.Name,
		dept.Code,
		dept.IsActive,
	).Scan(&dept.ID, &dept.CreatedAt, &dept.UpdatedAt); err != nil {
		return err
	}
	dept.CreatedAt = dept.CreatedAt.UTC()
	dept.UpdatedAt = dept.UpdatedAt.UTC()
	return nil
}

func (r *departmentRepository) Update(ctx context.Context, dept *domain.Department) error {
	const query = `
        UPDATE departments SET name=$1, code=$2, is_active=$3, updated_at=NOW()
        WHERE id=$4
        RETURNING created_at, updated_at`
	if err := r.pool.QueryRow(ctx, query,
		dept.Name,
		dept.Code,
		dept.IsActive,
		dept.ID,
	).Scan(&dept.CreatedAt, &dept.UpdatedAt); err != nil {
		return err
	}
	dept.CreatedAt = dept.CreatedAt.UTC()
	dept.UpdatedAt = dept.UpdatedAt.UTC()
	return nil
}

func (r *departmentRepository) GetByID(ctx context.Context, id int64) (*domain.Department, error) {
	depts, err := r.GetByIDs(ctx, []int64{id})
	if err != nil {
		return nil, err
	}
	if len(depts) == 0 {
		return nil, pgx.ErrNoRows
	}
	return &depts[0], nil
}

func (r *departmentRepository) GetByIDs(ctx context.Context, ids []int64) ([]domain.Department, error) {
	if len(ids) == 0 {
		return []domain.Department{}, nil
	}
	query, args, err := psql.Select(departmentColumns...).
		From("departments").
		Where(sq.Eq{"id": ids}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build departments query: %w", err)
	}
	return r.query(ctx, query, args...)
}

func (r *departmentRepository) ListActive(ctx context.Context) ([]domain.Department, error) {
	query, args, err := psql.Select(departmentColumns...).
		From("departments").
		Where(sq.Eq{"is_active": true}).
		OrderBy("name").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build active departments query: %w", err)
	}
	return r.query(ctx, query, args...)
}

func (r *departmentRepository) CountActive(ctx context.Context) (int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM departments WHERE is_active = TRUE`).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (r *departmentRepository) query(ctx context.Context, query string, args ...any) ([]domain.Department, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Department{}
	for rows.Next() {
		var dept domain.Department
		if err := rows.Scan(&dept.ID, &dept.Name, &dept.Code, &dept.IsActive, &dept.CreatedAt, &dept.UpdatedAt); err != nil {
			return nil, err
		}
		dept.CreatedAt = dept.CreatedAt.UTC()
		dept.UpdatedAt = dept.UpdatedAt.UTC()
		result = append(result, dept)
	}
	return result, rows.Err()
}
