package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk360/internal/domain"
	"github.com/spec-kit/helpdesk360/internal/repository/repotest"
	apperrors "github.com/spec-kit/helpdesk360/pkg/util"
)

func TestDepartmentService_ListAndCountActive(t *testing.T) {
	repo := repotest.NewDepartments(
		deptIT,
		deptHR,
		domain.Department{ID: 3, Name: "Archive", Code: "ARC", IsActive: false},
	)
	svc := NewDepartmentService(repo, nil)
	ctx := context.Background()

	active, err := svc.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "HR", active[0].Name)
	assert.Equal(t, "IT", active[1].Name)

	total, err := svc.CountActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
}

func TestDepartmentService_CreateAndDeactivate(t *testing.T) {
	svc := NewDepartmentService(repotest.NewDepartments(deptIT), nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, DepartmentInput{Name: " Facilities ", Code: "fac"})
	require.NoError(t, err)
	assert.Equal(t, "Facilities", created.Name)
	assert.Equal(t, "FAC", created.Code)
	assert.True(t, created.IsActive)

	inactive := false
	updated, err := svc.Update(ctx, created.ID, DepartmentInput{Name: "Facilities", Code: "FAC", IsActive: &inactive})
	require.NoError(t, err)
	assert.False(t, updated.IsActive)

	total, err := svc.CountActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

func TestDepartmentService_Errors(t *testing.T) {
	svc := NewDepartmentService(repotest.NewDepartments(deptIT), nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, DepartmentInput{Name: "Information Tech", Code: "IT"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict), "duplicate code")

	_, err = svc.Create(ctx, DepartmentInput{Name: "Research", Code: "TOOLONGCODE1"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidationFailed))

	_, err = svc.Update(ctx, 42, DepartmentInput{Name: "Ghost", Code: "GH"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}
