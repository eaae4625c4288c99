// pkg/errors/errors_test.go
// TEST TYPE: Unit Test
// DEPENDENCIES: None
// PURPOSE: Test error creation, wrapping, build error constructors and utility functions

package errors_test

import (
	stderrors "errors"
	"testing"

	"github.com/arthur-debert/kiln/pkg/errors"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    errors.ErrorCode
		message string
		wantStr string
	}{
		{
			name:    "not_found_error",
			code:    errors.ErrNotFound,
			message: "file not found",
			wantStr: "[NOT_FOUND] file not found",
		},
		{
			name:    "config_invalid_error",
			code:    errors.ErrConfigValid,
			message: "invalid configuration",
			wantStr: "[CONFIG_INVALID] invalid configuration",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := errors.New(tt.code, tt.message)

			if err.Code != tt.code {
				t.Errorf("New() code = %v, want %v", err.Code, tt.code)
			}
			if err.Details == nil {
				t.Error("New() details should be initialized")
			}
			if got := err.Error(); got != tt.wantStr {
				t.Errorf("Error() = %q, want %q", got, tt.wantStr)
			}
		})
	}
}

func TestWrap(t *testing.T) {
	baseErr := stderrors.New("base error")

	t.Run("wrap_non_nil_error", func(t *testing.T) {
		err := errors.Wrap(baseErr, errors.ErrInternal, "internal error")

		if err.Wrapped != baseErr {
			t.Error("Wrap() should preserve wrapped error")
		}
		wantStr := "[INTERNAL] internal error: base error"
		if got := err.Error(); got != wantStr {
			t.Errorf("Error() = %q, want %q", got, wantStr)
		}
	})

	t.Run("wrap_nil_error_returns_nil", func(t *testing.T) {
		if err := errors.Wrap(nil, errors.ErrInternal, "internal error"); err != nil {
			t.Error("Wrap(nil) should return nil")
		}
	})
}

func TestBuildErrorConstructors(t *testing.T) {
	cause := stderrors.New("unexpected token")

	tests := []struct {
		name    string
		err     *errors.KilnError
		code    errors.ErrorCode
		details map[string]interface{}
	}{
		{
			name:    "no_matching_rule",
			err:     errors.NoMatchingRule("src/readme.txt"),
			code:    errors.ErrNoMatchingRule,
			details: map[string]interface{}{errors.DetailPath: "src/readme.txt"},
		},
		{
			name: "transform_failed",
			err:  errors.TransformFailed("csv", "data/rows.csv", cause),
			code: errors.ErrTransformFailed,
			details: map[string]interface{}{
				errors.DetailStage: "csv",
				errors.DetailPath:  "data/rows.csv",
			},
		},
		{
			name: "unresolved_dependency",
			err:  errors.UnresolvedDependency("src/a.ts", "./missing"),
			code: errors.ErrUnresolvedDependency,
			details: map[string]interface{}{
				errors.DetailFrom: "src/a.ts",
				errors.DetailTo:   "./missing",
			},
		},
		{
			name:    "emission_failed",
			err:     errors.EmissionFailed("dist/main.js", cause),
			code:    errors.ErrEmissionFailed,
			details: map[string]interface{}{errors.DetailPath: "dist/main.js"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.IsErrorCode(tt.err, tt.code) {
				t.Fatalf("code = %v, want %v", tt.err.Code, tt.code)
			}
			for k, v := range tt.details {
				if tt.err.Details[k] != v {
					t.Errorf("detail %s = %v, want %v", k, tt.err.Details[k], v)
				}
			}
		})
	}

	t.Run("transform_failed_keeps_cause", func(t *testing.T) {
		err := errors.TransformFailed("csv", "data/rows.csv", cause)
		if !stderrors.Is(err, cause) {
			t.Error("TransformFailed should wrap its cause")
		}
	})
}

func TestIs(t *testing.T) {
	err1 := errors.New(errors.ErrNotFound, "error 1")
	err2 := errors.New(errors.ErrNotFound, "error 2")
	err3 := errors.New(errors.ErrInternal, "error 3")

	if !err1.Is(err2) {
		t.Error("Is() should return true for same code")
	}
	if err1.Is(err3) {
		t.Error("Is() should return false for different codes")
	}
	if !stderrors.Is(err1, err2) {
		t.Error("errors.Is() should work with KilnError")
	}
}

func TestGetErrorCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected errors.ErrorCode
	}{
		{
			name:     "kiln_error",
			err:      errors.New(errors.ErrStageNotFound, "stage not found"),
			expected: errors.ErrStageNotFound,
		},
		{
			name:     "standard_error",
			err:      stderrors.New("standard error"),
			expected: errors.ErrUnknown,
		},
		{
			name:     "nil_error",
			err:      nil,
			expected: errors.ErrUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errors.GetErrorCode(tt.err); got != tt.expected {
				t.Errorf("GetErrorCode() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestErrorChaining(t *testing.T) {
	rootCause := stderrors.New("root cause")
	stageErr := errors.TransformFailed("xml", "data/feed.xml", rootCause)
	buildErr := errors.Wrap(stageErr, errors.ErrInternal, "build aborted")

	t.Run("can_find_middle_error", func(t *testing.T) {
		var kilnErr *errors.KilnError
		if !stderrors.As(buildErr.Unwrap(), &kilnErr) {
			t.Fatal("expected KilnError in chain")
		}
		if !errors.IsErrorCode(kilnErr, errors.ErrTransformFailed) {
			t.Error("Middle error should have ErrTransformFailed code")
		}
	})

	t.Run("can_find_root_cause", func(t *testing.T) {
		if !stderrors.Is(buildErr, rootCause) {
			t.Error("Should find root cause with errors.Is")
		}
	})

	t.Run("details_of_outer_error", func(t *testing.T) {
		if got := errors.GetErrorDetails(stageErr)[errors.DetailStage]; got != "xml" {
			t.Errorf("stage detail = %v, want xml", got)
		}
		if errors.GetErrorDetails(stderrors.New("plain")) != nil {
			t.Error("plain errors carry no details")
		}
	})
}
