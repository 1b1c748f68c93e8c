package core

import (
	"errors"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	TenantErrorBadInput            = "TENANT_BAD_INPUT"
	TenantErrorInvalidIdentifier   = "TENANT_INVALID_IDENTIFIER"
	TenantErrorPathTraversal       = "TENANT_PATH_TRAVERSAL"
	TenantErrorNoAdapter           = "TENANT_NO_ADAPTER"
	TenantErrorCapacityExceeded    = "TENANT_CAPACITY_EXCEEDED"
	TenantErrorNotFound            = "TENANT_NOT_FOUND"
	TenantErrorModuleNotExecutable = "TENANT_MODULE_NOT_EXECUTABLE"
	TenantErrorInternal            = "TENANT_INTERNAL_ERROR"
)

var (
	ErrInvalidIdentifier = errors.New("core: invalid tenant identifier")
	ErrTenantNotFound    = errors.New("core: tenant not found")
	ErrNoAdapter         = errors.New("core: no adapter matched source")
	ErrCapacityExceeded  = errors.New("core: tenant capacity exceeded")
	ErrNotExecutable     = errors.New("core: module is not executable")
)

type ErrorMapper func(err error) *goerrors.Error

func tenantErrorMapper(err error) *goerrors.Error {
	if err == nil {
		return nil
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return ensureTenantErrorEnvelope(richErr)
	}

	switch {
	case errors.Is(err, ErrInvalidIdentifier):
		return newTenantError(err.Error(), goerrors.CategoryBadInput, TenantErrorInvalidIdentifier)
	case errors.Is(err, ErrTenantNotFound):
		return newTenantError(err.Error(), goerrors.CategoryNotFound, TenantErrorNotFound)
	case errors.Is(err, ErrNoAdapter):
		return newTenantError(err.Error(), goerrors.CategoryNotFound, TenantErrorNoAdapter)
	case errors.Is(err, ErrCapacityExceeded):
		return newTenantError(err.Error(), goerrors.CategoryConflict, TenantErrorCapacityExceeded)
	case errors.Is(err, ErrNotExecutable):
		return newTenantError(err.Error(), goerrors.CategoryOperation, TenantErrorModuleNotExecutable)
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "traversal"), strings.Contains(msg, "outside base root"):
		return newTenantError(err.Error(), goerrors.CategoryAuthz, TenantErrorPathTraversal)
	case strings.Contains(msg, "not executable"), strings.Contains(msg, "not invocable"):
		return newTenantError(err.Error(), goerrors.CategoryOperation, TenantErrorModuleNotExecutable)
	case strings.Contains(msg, "capacity"):
		return newTenantError(err.Error(), goerrors.CategoryConflict, TenantErrorCapacityExceeded)
	case strings.Contains(msg, "not found"), strings.Contains(msg, "not registered"):
		return newTenantError(err.Error(), goerrors.CategoryNotFound, TenantErrorNotFound)
	case strings.Contains(msg, "required"), strings.Contains(msg, "invalid"), strings.Contains(msg, "mismatch"):
		return newTenantError(err.Error(), goerrors.CategoryBadInput, TenantErrorBadInput)
	}

	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	return ensureTenantErrorEnvelope(mapped)
}

func newTenantError(message string, category goerrors.Category, textCode string) *goerrors.Error {
	return ensureTenantErrorEnvelope(
		goerrors.New(message, category).
			WithTextCode(textCode),
	)
}

func ensureTenantErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = tenantHTTPStatus(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = defaultTenantTextCode(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = "An unexpected error occurred"
	}
	return err
}

func defaultTenantTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return TenantErrorBadInput
	case goerrors.CategoryNotFound:
		return TenantErrorNotFound
	case goerrors.CategoryAuthz:
		return TenantErrorPathTraversal
	case goerrors.CategoryConflict:
		return TenantErrorCapacityExceeded
	case goerrors.CategoryOperation:
		return TenantErrorModuleNotExecutable
	default:
		return TenantErrorInternal
	}
}

func tenantHTTPStatus(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return http.StatusForbidden
	case goerrors.CategoryConflict:
		return http.StatusConflict
	case goerrors.CategoryOperation:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
