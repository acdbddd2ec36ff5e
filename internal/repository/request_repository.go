package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk360/internal/domain"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var requestColumns = []string{
	"r.id", "r.name", "r.phone", "r.email", "r.description",
	"r.priority", "r.status", "r.created_at", "r.updated_at", "r.resolved_at",
}

// RequestRepository encapsulates support request persistence.
type RequestRepository interface {
	Create(ctx context.Context, req *domain.Request) error
	Update(ctx context.Context, req *domain.Request) error
	GetByID(ctx context.Context, id int64) (*domain.Request, error)
	List(ctx context.Context, limit, offset int) ([]domain.Request, error)
	Count(ctx context.Context) (int, error)
	Search(ctx context.Context, term string) ([]domain.Request, error)
	Delete(ctx context.Context, id int64) error
	CountRequestsCreatedInRange(ctx context.Context, start, end time.Time) (int, error)
	ListRequestsCreatedInRange(ctx context.Context, start, end time.Time) ([]domain.Request, error)
}

type requestRepository struct {
	pool *pgxpool.Pool
}

// NewRequestRepository instantiates repository.
func NewRequestRepository(pool *pgxpool.Pool) RequestRepository {
	return &requestRepository{pool: pool}
}

func (r *requestRepository) Create(ctx context.Context, req *domain.Request) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		const query = `
        INSERT INTO requests (name, phone, email, description, priority, status, resolved_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at, updated_at`
		if err := tx.QueryRow(ctx, query,
			req.Name,
			req.Phone,
			req.Email,
			req.Description,
			req.Priority,
			req.Status,
			req.ResolvedAt,
		).Scan(&req.ID, &req.CreatedAt, &req.UpdatedAt); err != nil {
			return fmt.Errorf("insert request: %w", err)
		}
		req.CreatedAt = req.CreatedAt.UTC()
		req.UpdatedAt = req.UpdatedAt.UTC()
		return replaceDepartmentLinks(ctx, tx, req.ID, req.DepartmentIDs)
	})
}

func (r *requestRepository) Update(ctx context.Context, req *domain.Request) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		// resolved_at is write-once: an existing value always wins.
		const query = `
        UPDATE requests SET name=$1, phone=$2, email=$3, description=$4, priority=$5, status=$6,
            resolved_at=COALESCE(resolved_at, $7), updated_at=NOW()
        WHERE id=$8
        RETURNING updated_at, resolved_at`
		if err := tx.QueryRow(ctx, query,
			req.Name,
			req.Phone,
			req.Email,
			req.Description,
			req.Priority,
			req.Status,
			req.ResolvedAt,
			req.ID,
		).Scan(&req.UpdatedAt, &req.ResolvedAt); err != nil {
			return fmt.Errorf("update request %d: %w", req.ID, err)
		}
		req.UpdatedAt = req.UpdatedAt.UTC()
		req.ResolvedAt = utcPtr(req.ResolvedAt)
		return replaceDepartmentLinks(ctx, tx, req.ID, req.DepartmentIDs)
	})
}

func (r *requestRepository) GetByID(ctx context.Context, id int64) (*domain.Request, error) {
	query, args, err := psql.Select(requestColumns...).
		From("requests r").
		Where(sq.Eq{"r.id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get request query: %w", err)
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	requests, err := scanRequests(rows)
	if err != nil {
		return nil, err
	}
	if len(requests) == 0 {
		return nil, pgx.ErrNoRows
	}
	if err := r.attachDepartments(ctx, requests); err != nil {
		return nil, err
	}
	return &requests[0], nil
}

func (r *requestRepository) List(ctx context.Context, limit, offset int) ([]domain.Request, error) {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}
	query, args, err := psql.Select(requestColumns...).
		From("requests r").
		OrderBy("r.created_at DESC", "r.id DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list requests query: %w", err)
	}
	return r.queryWithDepartments(ctx, query, args)
}

func (r *requestRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM requests`).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (r *requestRepository) Search(ctx context.Context, term string) ([]domain.Request, error) {
	query, args, err := searchRequestsQuery(term)
	if err != nil {
		return nil, fmt.Errorf("build search query: %w", err)
	}
	return r.queryWithDepartments(ctx, query, args)
}

func (r *requestRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM requests WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *requestRepository) CountRequestsCreatedInRange(ctx context.Context, start, end time.Time) (int, error) {
	query, args, err := countCreatedInRangeQuery(start, end)
	if err != nil {
		return 0, fmt.Errorf("build range count query: %w", err)
	}
	var total int
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (r *requestRepository) ListRequestsCreatedInRange(ctx context.Context, start, end time.Time) ([]domain.Request, error) {
	query, args, err := listCreatedInRangeQuery(start, end)
	if err != nil {
		return nil, fmt.Errorf("build range list query: %w", err)
	}
	return r.queryWithDepartments(ctx, query, args)
}

func (r *requestRepository) queryWithDepartments(ctx context.Context, query string, args []any) ([]domain.Request, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	requests, err := scanRequests(rows)
	if err != nil {
		return nil, err
	}
	if err := r.attachDepartments(ctx, requests); err != nil {
		return nil, err
	}
	return requests, nil
}

// attachDepartments loads department links for all requests in one query.
// Links whose department row no longer exists only populate DepartmentIDs.
func (r *requestRepository) attachDepartments(ctx context.Context, requests []domain.Request) error {
	if len(requests) == 0 {
		return nil
	}
	index := make(map[int64]int, len(requests))
	ids := make([]int64, 0, len(requests))
	for i := range requests {
		index[requests[i].ID] = i
		ids = append(ids, requests[i].ID)
	}

	query, args, err := departmentLinksQuery(ids)
	if err != nil {
		return fmt.Errorf("build department links query: %w", err)
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			requestID    int64
			departmentID int64
			name, code   *string
			isActive     *bool
			createdAt    *time.Time
			updatedAt    *time.Time
		)
		if err := rows.Scan(&requestID, &departmentID, &name, &code, &isActive, &createdAt, &updatedAt); err != nil {
			return err
		}
		pos, ok := index[requestID]
		if !ok {
			continue
		}
		req := &requests[pos]
		req.DepartmentIDs = append(req.DepartmentIDs, departmentID)
		if name == nil {
			continue
		}
		dept := domain.Department{ID: departmentID, Name: *name}
		if code != nil {
			dept.Code = *code
		}
		if isActive != nil {
			dept.IsActive = *isActive
		}
		if createdAt != nil {
			dept.CreatedAt = createdAt.UTC()
		}
		if updatedAt != nil {
			dept.UpdatedAt = updatedAt.UTC()
		}
		req.Departments = append(req.Departments, dept)
	}
	return rows.Err()
}

func replaceDepartmentLinks(ctx context.Context, tx pgx.Tx, requestID int64, departmentIDs []int64) error {
	if _, err := tx.Exec(ctx, `DELETE FROM request_departments WHERE request_id=$1`, requestID); err != nil {
		return fmt.Errorf("clear department links: %w", err)
	}
	if len(departmentIDs) == 0 {
		return nil
	}
	insert := psql.Insert("request_departments").Columns("request_id", "department_id")
	for _, deptID := range departmentIDs {
		insert = insert.Values(requestID, deptID)
	}
	query, args, err := insert.Suffix("ON CONFLICT DO NOTHING").ToSql()
	if err != nil {
		return fmt.Errorf("build department links insert: %w", err)
	}
	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert department links: %w", err)
	}
	return nil
}

func countCreatedInRangeQuery(start, end time.Time) (string, []any, error) {
	return psql.Select("COUNT(*)").
		From("requests r").
		Where(sq.GtOrEq{"r.created_at": start}).
		Where(sq.Lt{"r.created_at": end}).
		ToSql()
}

func listCreatedInRangeQuery(start, end time.Time) (string, []any, error) {
	return psql.Select(requestColumns...).
		From("requests r").
		Where(sq.GtOrEq{"r.created_at": start}).
		Where(sq.Lt{"r.created_at": end}).
		OrderBy("r.created_at ASC", "r.id ASC").
		ToSql()
}

func departmentLinksQuery(requestIDs []int64) (string, []any, error) {
	return psql.Select(
		"rd.request_id", "rd.department_id", "d.name", "d.code", "d.is_active", "d.created_at", "d.updated_at",
	).
		From("request_departments rd").
		LeftJoin("departments d ON d.id = rd.department_id").
		Where(sq.Expr("rd.request_id = ANY(?)", requestIDs)).
		OrderBy("rd.request_id", "rd.department_id").
		ToSql()
}

func searchRequestsQuery(term string) (string, []any, error) {
	pattern := "%" + likeEscaper.Replace(strings.TrimSpace(term)) + "%"
	return psql.Select(requestColumns...).
		From("requests r").
		Where(sq.Or{
			sq.Expr(`r.name ILIKE ? ESCAPE '\'`, pattern),
			sq.Expr(`r.email ILIKE ? ESCAPE '\'`, pattern),
			sq.Expr(`r.description ILIKE ? ESCAPE '\'`, pattern),
			sq.Expr(`EXISTS (SELECT 1 FROM request_departments rd JOIN departments d ON d.id = rd.department_id
                WHERE rd.request_id = r.id AND d.name ILIKE ? ESCAPE '\')`, pattern),
		}).
		OrderBy("r.created_at DESC", "r.id DESC").
		ToSql()
}

// likeEscaper makes LIKE wildcards in user input match literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func scanRequests(rows pgx.Rows) ([]domain.Request, error) {
	defer rows.Close()
	result := []domain.Request{}
	for rows.Next() {
		var req domain.Request
		if err := rows.Scan(
			&req.ID,
			&req.Name,
			&req.Phone,
			&req.Email,
			&req.Description,
			&req.Priority,
			&req.Status,
			&req.CreatedAt,
			&req.UpdatedAt,
			&req.ResolvedAt,
		); err != nil {
			return nil, err
		}
		req.CreatedAt = req.CreatedAt.UTC()
		req.UpdatedAt = req.UpdatedAt.UTC()
		req.ResolvedAt = utcPtr(req.ResolvedAt)
		result = append(result, req)
	}
	return result, rows.Err()
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
