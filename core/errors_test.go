package core

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	goerrors "github.com/goliatone/go-errors"
)

func TestServiceErrorMapper(t *testing.T) {
	cases := []struct {
		name         string
		err          error
		wantCategory goerrors.Category
		wantTextCode string
		wantCode     int
	}{
		{
			name:         "account not found sentinel",
			err:          fmt.Errorf("%w: external id %q", ErrAccountNotFound, "ext_1"),
			wantCategory: goerrors.CategoryNotFound,
			wantTextCode: ServiceErrorAccountNotFound,
			wantCode:     http.StatusNotFound,
		},
		{
			name:         "link conflict sentinel",
			err:          fmt.Errorf("%w: ext_1", ErrLinkConflict),
			wantCategory: goerrors.CategoryConflict,
			wantTextCode: ServiceErrorLinkConflict,
			wantCode:     http.StatusConflict,
		},
		{
			name:         "unique violation text",
			err:          errors.New("pq: duplicate key value violates unique constraint"),
			wantCategory: goerrors.CategoryConflict,
			wantTextCode: ServiceErrorLinkConflict,
			wantCode:     http.StatusConflict,
		},
		{
			name:         "link state invalid",
			err:          errors.New("core: link state not found"),
			wantCategory: goerrors.CategoryAuth,
			wantTextCode: ServiceErrorStateInvalid,
			wantCode:     http.StatusUnauthorized,
		},
		{
			name:         "refresh lock contention",
			err:          errors.New(`core: refresh lock already held for account "ext_1"`),
			wantCategory: goerrors.CategoryConflict,
			wantTextCode: ServiceErrorRefreshLocked,
			wantCode:     http.StatusConflict,
		},
		{
			name:         "provider failure text",
			err:          errors.New("core: token endpoint returned status 502"),
			wantCategory: goerrors.CategoryExternal,
			wantTextCode: ServiceErrorProviderFailure,
			wantCode:     http.StatusBadGateway,
		},
		{
			name:         "missing input text",
			err:          errors.New("core: external id is required"),
			wantCategory: goerrors.CategoryBadInput,
			wantTextCode: ServiceErrorBadInput,
			wantCode:     http.StatusBadRequest,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mapped := serviceErrorMapper(tc.err)
			if mapped == nil {
				t.Fatal("mapper returned nil")
			}
			if mapped.Category != tc.wantCategory {
				t.Fatalf("category = %s, want %s", mapped.Category, tc.wantCategory)
			}
			if mapped.TextCode != tc.wantTextCode {
				t.Fatalf("text code = %s, want %s", mapped.TextCode, tc.wantTextCode)
			}
			if mapped.Code != tc.wantCode {
				t.Fatalf("code = %d, want %d", mapped.Code, tc.wantCode)
			}
		})
	}
}

func TestServiceErrorMapper_PreservesRichErrors(t *testing.T) {
	original := UpstreamError("token endpoint returned status 503")
	mapped := serviceErrorMapper(original)
	if mapped != original {
		t.Fatal("rich error re-wrapped instead of passed through")
	}
	if mapped.Code != http.StatusBadGateway {
		t.Fatalf("code = %d, want %d", mapped.Code, http.StatusBadGateway)
	}
}

func TestServiceErrorMapper_NilIsNil(t *testing.T) {
	if mapped := serviceErrorMapper(nil); mapped != nil {
		t.Fatalf("mapper(nil) = %v", mapped)
	}
}

func TestErrorHelpers(t *testing.T) {
	t.Run("feature disabled", func(t *testing.T) {
		err := FeatureDisabledError("core: deletion is disabled")
		if err.Category != goerrors.CategoryOperation {
			t.Fatalf("category = %s", err.Category)
		}
		if err.TextCode != ServiceErrorFeatureDisabled {
			t.Fatalf("text code = %s", err.TextCode)
		}
		if err.Code != http.StatusMethodNotAllowed {
			t.Fatalf("code = %d, want 405", err.Code)
		}
	})

	t.Run("store error wraps cause", func(t *testing.T) {
		cause := errors.New("disk full")
		err := StoreError(cause)
		if err.Category != goerrors.CategoryOperation || err.TextCode != ServiceErrorStoreFailure {
			t.Fatalf("unexpected shape: category=%s text_code=%s", err.Category, err.TextCode)
		}
		if StoreError(nil) != nil {
			t.Fatal("StoreError(nil) should be nil")
		}
	})

	t.Run("conflict and not found", func(t *testing.T) {
		if err := ConflictError("already linked"); err.Code != http.StatusConflict {
			t.Fatalf("conflict code = %d", err.Code)
		}
		if err := NotFoundError("no such account"); err.Code != http.StatusNotFound {
			t.Fatalf("not found code = %d", err.Code)
		}
	})
}
