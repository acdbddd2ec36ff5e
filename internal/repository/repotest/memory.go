// Package repotest provides in-memory repositories for tests. They follow the
// ordering, not-found and uniqueness behavior of the Postgres repositories.
package repotest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/spec-kit/helpdesk360/internal/domain"
	"github.com/spec-kit/helpdesk360/internal/repository"
)

var (
	_ repository.RequestRepository    = (*Requests)(nil)
	_ repository.DepartmentRepository = (*Departments)(nil)
)

// Departments is an in-memory DepartmentRepository.
type Departments struct {
	mu     sync.Mutex
	rows   map[int64]domain.Department
	nextID int64
	// Err, when set, is returned by every method.
	Err error
}

// NewDepartments seeds the store with depts, keeping their ids.
func NewDepartments(depts ...domain.Department) *Departments {
	d := &Departments{rows: map[int64]domain.Department{}}
	for _, dept := range depts {
		d.rows[dept.ID] = dept
		if dept.ID > d.nextID {
			d.nextID = dept.ID
		}
	}
	return d
}

func (d *Departments) Create(_ context.Context, dept *domain.Department) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return d.Err
	}
	if err := d.checkUnique(*dept); err != nil {
		return err
	}
	d.nextID++
	dept.ID = d.nextID
	dept.CreatedAt = time.Now().UTC()
	dept.UpdatedAt = dept.CreatedAt
	d.rows[dept.ID] = *dept
	return nil
}

func (d *Departments) Update(_ context.Context, dept *domain.Department) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return d.Err
	}
	current, ok := d.rows[dept.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	if err := d.checkUnique(*dept); err != nil {
		return err
	}
	dept.CreatedAt = current.CreatedAt
	dept.UpdatedAt = time.Now().UTC()
	d.rows[dept.ID] = *dept
	return nil
}

func (d *Departments) GetByID(_ context.Context, id int64) (*domain.Department, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return nil, d.Err
	}
	dept, ok := d.rows[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &dept, nil
}

func (d *Departments) GetByIDs(_ context.Context, ids []int64) ([]domain.Department, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return nil, d.Err
	}
	result := []domain.Department{}
	for _, id := range ids {
		if dept, ok := d.rows[id]; ok {
			result = append(result, dept)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (d *Departments) ListActive(_ context.Context) ([]domain.Department, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return nil, d.Err
	}
	result := []domain.Department{}
	for _, dept := range d.rows {
		if dept.IsActive {
			result = append(result, dept)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (d *Departments) CountActive(ctx context.Context) (int, error) {
	active, err := d.ListActive(ctx)
	return len(active), err
}

// Delete removes a department row without touching request links, leaving
// them orphaned.
func (d *Departments) Delete(id int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.rows, id)
}

func (d *Departments) lookup(id int64) (domain.Department, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	dept, ok := d.rows[id]
	return dept, ok
}

func (d *Departments) checkUnique(dept domain.Department) error {
	for _, other := range d.rows {
		if other.ID == dept.ID {
			continue
		}
		if other.Name == dept.Name {
			return &pgconn.PgError{Code: "23505", ConstraintName: "departments_name_key"}
		}
		if other.Code == dept.Code {
			return &pgconn.PgError{Code: "23505", ConstraintName: "departments_code_key"}
		}
	}
	return nil
}

// Requests is an in-memory RequestRepository that resolves department links
// against a Departments store.
type Requests struct {
	mu          sync.Mutex
	rows        map[int64]domain.Request
	nextID      int64
	departments *Departments
	// Now stamps created and updated times. Defaults to time.Now.
	Now func() time.Time
	// Err, when set, is returned by every method.
	Err error
}

// NewRequests builds an empty store.
func NewRequests(departments *Departments) *Requests {
	if departments == nil {
		departments = NewDepartments()
	}
	return &Requests{rows: map[int64]domain.Request{}, departments: departments, Now: time.Now}
}

// Seed inserts req as is, keeping its id and timestamps.
func (r *Requests) Seed(req domain.Request) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if req.ID == 0 {
		r.nextID++
		req.ID = r.nextID
	} else if req.ID > r.nextID {
		r.nextID = req.ID
	}
	req.Departments = nil
	r.rows[req.ID] = req
}

func (r *Requests) Create(_ context.Context, req *domain.Request) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.nextID++
	req.ID = r.nextID
	req.CreatedAt = r.Now().UTC()
	req.UpdatedAt = req.CreatedAt
	stored := *req
	stored.DepartmentIDs = append([]int64(nil), req.DepartmentIDs...)
	stored.Departments = nil
	r.rows[req.ID] = stored
	return nil
}

func (r *Requests) Update(_ context.Context, req *domain.Request) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	current, ok := r.rows[req.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	if current.ResolvedAt != nil {
		req.ResolvedAt = current.ResolvedAt
	}
	req.CreatedAt = current.CreatedAt
	req.UpdatedAt = r.Now().UTC()
	stored := *req
	stored.DepartmentIDs = append([]int64(nil), req.DepartmentIDs...)
	stored.Departments = nil
	r.rows[req.ID] = stored
	return nil
}

func (r *Requests) GetByID(_ context.Context, id int64) (*domain.Request, error) {
	r.mu.Lock()
	if r.Err != nil {
		r.mu.Unlock()
		return nil, r.Err
	}
	req, ok := r.rows[id]
	r.mu.Unlock()
	if !ok {
		return nil, pgx.ErrNoRows
	}
	resolved := r.resolve(req)
	return &resolved, nil
}

func (r *Requests) List(_ context.Context, limit, offset int) ([]domain.Request, error) {
	all, err := r.filter(func(domain.Request) bool { return true })
	if err != nil {
		return nil, err
	}
	newestFirst(all)
	if offset >= len(all) {
		return []domain.Request{}, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (r *Requests) Count(context.Context) (int, error) {
	all, err := r.filter(func(domain.Request) bool { return true })
	return len(all), err
}

func (r *Requests) Search(_ context.Context, term string) ([]domain.Request, error) {
	needle := strings.ToLower(strings.TrimSpace(term))
	matches, err := r.filter(func(req domain.Request) bool {
		if strings.Contains(strings.ToLower(req.Name), needle) ||
			strings.Contains(strings.ToLower(req.Email), needle) ||
			strings.Contains(strings.ToLower(req.Description), needle) {
			return true
		}
		for _, dept := range req.Departments {
			if strings.Contains(strings.ToLower(dept.Name), needle) {
				return true
			}
		}
		return false
	})
	if err != nil {
		return nil, err
	}
	newestFirst(matches)
	return matches, nil
}

func (r *Requests) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	if _, ok := r.rows[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.rows, id)
	return nil
}

func (r *Requests) CountRequestsCreatedInRange(ctx context.Context, start, end time.Time) (int, error) {
	matches, err := r.ListRequestsCreatedInRange(ctx, start, end)
	return len(matches), err
}

func (r *Requests) ListRequestsCreatedInRange(_ context.Context, start, end time.Time) ([]domain.Request, error) {
	period := domain.Period{Start: start, End: end}
	matches, err := r.filter(func(req domain.Request) bool { return period.Contains(req.CreatedAt) })
	if err != nil {
		return nil, err
	}
	sort.Slice(matches, func(i, j int) bool {
		if !matches[i].CreatedAt.Equal(matches[j].CreatedAt) {
			return matches[i].CreatedAt.Before(matches[j].CreatedAt)
		}
		return matches[i].ID < matches[j].ID
	})
	return matches, nil
}

func (r *Requests) filter(keep func(domain.Request) bool) ([]domain.Request, error) {
	r.mu.Lock()
	if r.Err != nil {
		r.mu.Unlock()
		return nil, r.Err
	}
	rows := make([]domain.Request, 0, len(r.rows))
	for _, req := range r.rows {
		rows = append(rows, req)
	}
	r.mu.Unlock()

	result := []domain.Request{}
	for _, req := range rows {
		resolved := r.resolve(req)
		if keep(resolved) {
			result = append(result, resolved)
		}
	}
	return result, nil
}

func (r *Requests) resolve(req domain.Request) domain.Request {
	req.DepartmentIDs = append([]int64(nil), req.DepartmentIDs...)
	req.Departments = nil
	for _, id := range req.DepartmentIDs {
		if dept, ok := r.departments.lookup(id); ok {
			req.Departments = append(req.Departments, dept)
		}
	}
	return req
}

func newestFirst(requests []domain.Request) {
	sort.Slice(requests, func(i, j int) bool {
		if !requests[i].CreatedAt.Equal(requests[j].CreatedAt) {
			return requests[i].CreatedAt.After(requests[j].CreatedAt)
		}
		return requests[i].ID > requests[j].ID
	})
}
