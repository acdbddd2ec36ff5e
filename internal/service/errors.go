package service

import (
	"errors"

	"github.com/jackc/pgx/v5"

	apperrors "github.com/spec-kit/helpdesk360/pkg/util"
)

// storeError classifies a repository failure for the given resource.
func storeError(resource string, id int64, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFound(resource, map[string]any{"id": id})
	}
	mapped := apperrors.ToDomainError(err)
	if mapped.Code == apperrors.CodeInternal {
		return apperrors.NewStoreUnavailable(err)
	}
	return mapped
}
