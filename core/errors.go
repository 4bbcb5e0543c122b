package core

import (
	"errors"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	ServiceErrorBadInput        = "LINK_BAD_INPUT"
	ServiceErrorAccountNotFound = "ACCOUNT_NOT_FOUND"
	ServiceErrorLinkConflict    = "LINK_CONFLICT"
	ServiceErrorProviderFailure = "PROVIDER_FAILURE"
	ServiceErrorStoreFailure    = "STORE_FAILURE"
	ServiceErrorStateInvalid    = "LINK_STATE_INVALID"
	ServiceErrorRefreshLocked   = "REFRESH_LOCKED"
	ServiceErrorUnauthorized    = "UNAUTHORIZED"
	ServiceErrorFeatureDisabled = "FEATURE_DISABLED"
	ServiceErrorInternal        = "LINK_INTERNAL_ERROR"
)

func serviceErrorMapper(err error) *goerrors.Error {
	if err == nil {
		return nil
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return ensureServiceErrorEnvelope(richErr)
	}

	switch {
	case errors.Is(err, ErrAccountNotFound):
		return newServiceError(err.Error(), goerrors.CategoryNotFound, ServiceErrorAccountNotFound)
	case errors.Is(err, ErrLinkConflict):
		return newServiceError(err.Error(), goerrors.CategoryConflict, ServiceErrorLinkConflict)
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "link state"), strings.Contains(msg, "state not found"), strings.Contains(msg, "state expired"):
		return newServiceError(err.Error(), goerrors.CategoryAuth, ServiceErrorStateInvalid)
	case strings.Contains(msg, "not found"):
		return newServiceError(err.Error(), goerrors.CategoryNotFound, ServiceErrorAccountNotFound)
	case strings.Contains(msg, "already linked"), strings.Contains(msg, "unique"), strings.Contains(msg, "duplicate"):
		return newServiceError(err.Error(), goerrors.CategoryConflict, ServiceErrorLinkConflict)
	case strings.Contains(msg, "lock already held"), strings.Contains(msg, "refresh lock"):
		return newServiceError(err.Error(), goerrors.CategoryConflict, ServiceErrorRefreshLocked)
	case strings.Contains(msg, "token endpoint"), strings.Contains(msg, "provider"):
		return newServiceError(err.Error(), goerrors.CategoryExternal, ServiceErrorProviderFailure)
	case strings.Contains(msg, "required"), strings.Contains(msg, "invalid"), strings.Contains(msg, "mismatch"):
		return newServiceError(err.Error(), goerrors.CategoryBadInput, ServiceErrorBadInput)
	}

	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	return ensureServiceErrorEnvelope(mapped)
}

func newServiceError(message string, category goerrors.Category, textCode string) *goerrors.Error {
	return ensureServiceErrorEnvelope(
		goerrors.New(message, category).
			WithTextCode(textCode),
	)
}

func ensureServiceErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = serviceHTTPStatus(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = defaultServiceTextCode(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = "An unexpected error occurred"
	}
	return err
}

func defaultServiceTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return ServiceErrorBadInput
	case goerrors.CategoryNotFound:
		return ServiceErrorAccountNotFound
	case goerrors.CategoryAuth, goerrors.CategoryAuthz:
		return ServiceErrorUnauthorized
	case goerrors.CategoryConflict:
		return ServiceErrorLinkConflict
	case goerrors.CategoryExternal:
		return ServiceErrorProviderFailure
	case goerrors.CategoryOperation:
		return ServiceErrorStoreFailure
	default:
		return ServiceErrorInternal
	}
}

func serviceHTTPStatus(category goerrors.Category) int {
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
	case goerrors.CategoryExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// UpstreamError wraps a provider-reported failure preserving status and
// message for logging.
func UpstreamError(message string) *goerrors.Error {
	return newServiceError(message, goerrors.CategoryExternal, ServiceErrorProviderFailure)
}

// StoreError wraps a persistence failure.
func StoreError(err error) *goerrors.Error {
	if err == nil {
		return nil
	}
	return ensureServiceErrorEnvelope(
		goerrors.Wrap(err, goerrors.CategoryOperation, "store operation failed").
			WithTextCode(ServiceErrorStoreFailure),
	)
}

// ConflictError marks a uniqueness violation during linking.
func ConflictError(message string) *goerrors.Error {
	return newServiceError(message, goerrors.CategoryConflict, ServiceErrorLinkConflict)
}

// FeatureDisabledError marks an operation whose feature gate is off.
func FeatureDisabledError(message string) *goerrors.Error {
	return goerrors.New(message, goerrors.CategoryOperation).
		WithCode(http.StatusMethodNotAllowed).
		WithTextCode(ServiceErrorFeatureDisabled)
}

// NotFoundError marks a missing linked account.
func NotFoundError(message string) *goerrors.Error {
	return newServiceError(message, goerrors.CategoryNotFound, ServiceErrorAccountNotFound)
}
