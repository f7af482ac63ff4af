package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestWrap(t *testing.T) {
	originalErr := errors.New("server selection timeout")
	wrapped := Wrap(originalErr, CodeUnavailable, "store unavailable", http.StatusServiceUnavailable)

	if wrapped.Err != originalErr {
		t.Errorf("expected wrapped error to contain original error")
	}
	if errors.Unwrap(wrapped) != originalErr {
		t.Errorf("Unwrap() should return original error")
	}
	if wrapped.StatusCode() != http.StatusServiceUnavailable {
		t.Errorf("StatusCode() = %d, want %d", wrapped.StatusCode(), http.StatusServiceUnavailable)
	}
}

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appErr   *AppError
		expected string
	}{
		{
			name:     "without underlying error",
			appErr:   &AppError{Code: CodeNotFound, Message: "Booking not found"},
			expected: "NOT_FOUND: Booking not found",
		},
		{
			name: "with underlying error",
			appErr: &AppError{
				Code:    CodeInternal,
				Message: "internal error",
				Err:     errors.New("connection reset"),
			},
			expected: "INTERNAL_ERROR: internal error (caused by: connection reset)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.appErr.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestAppError_StatusCodeFallbacks(t *testing.T) {
	known := &AppError{Code: CodeConflict, Message: "no status"}
	if known.StatusCode() != http.StatusConflict {
		t.Errorf("StatusCode() = %d, want %d", known.StatusCode(), http.StatusConflict)
	}

	unknown := &AppError{Code: "SOMETHING_ELSE", Message: "no status"}
	if unknown.StatusCode() != http.StatusInternalServerError {
		t.Errorf("StatusCode() = %d, want %d", unknown.StatusCode(), http.StatusInternalServerError)
	}
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name   string
		err    *AppError
		code   string
		status int
	}{
		{"not found", NotFound("Booking"), CodeNotFound, http.StatusNotFound},
		{"not found with id", NotFoundWithID("Booking", "abc"), CodeNotFound, http.StatusNotFound},
		{"validation", Validation("bad booking", nil), CodeValidation, http.StatusUnprocessableEntity},
		{"invalid input", InvalidInput("malformed id"), CodeInvalidInput, http.StatusBadRequest},
		{"unauthorized", Unauthorized("missing token"), CodeUnauthorized, http.StatusUnauthorized},
		{"forbidden", Forbidden("admins only"), CodeForbidden, http.StatusForbidden},
		{"conflict", Conflict("slot taken"), CodeConflict, http.StatusConflict},
		{"internal", Internal("boom", nil), CodeInternal, http.StatusInternalServerError},
		{"timeout", Timeout("slow"), CodeTimeout, http.StatusGatewayTimeout},
		{"unavailable", Unavailable("Booking store"), CodeUnavailable, http.StatusServiceUnavailable},
		{"rate limited", RateLimited("slow down"), CodeRateLimited, http.StatusTooManyRequests},
		{"too large", PayloadTooLarge("body too large"), CodePayloadTooLarge, http.StatusRequestEntityTooLarge},
		{"media type", UnsupportedMediaType("json only"), CodeUnsupportedMedia, http.StatusUnsupportedMediaType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.code {
				t.Errorf("expected code %s, got %s", tt.code, tt.err.Code)
			}
			if tt.err.HTTPStatus != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, tt.err.HTTPStatus)
			}
		})
	}
}

func TestNotFoundWithID_Details(t *testing.T) {
	err := NotFoundWithID("Booking", "665f1c2e9b1e8a0001a1b2c3")

	if err.Message != "Booking not found" {
		t.Errorf("expected message 'Booking not found', got %s", err.Message)
	}
	if err.Details["id"] != "665f1c2e9b1e8a0001a1b2c3" {
		t.Errorf("expected id in details, got %v", err.Details["id"])
	}
	if err.Details["resource"] != "Booking" {
		t.Errorf("expected resource 'Booking', got %v", err.Details["resource"])
	}
}

func TestUnavailable_Message(t *testing.T) {
	err := Unavailable("Booking store")
	if err.Message != "Booking store is temporarily unavailable" {
		t.Errorf("expected message to contain service name, got %s", err.Message)
	}
}

func TestAsAppError(t *testing.T) {
	appErr := Conflict("slot taken")
	regularErr := errors.New("regular error")

	if AsAppError(appErr) != appErr {
		t.Errorf("AsAppError() should return same AppError")
	}

	wrapped := fmt.Errorf("create booking: %w", appErr)
	if AsAppError(wrapped) != appErr {
		t.Errorf("AsAppError() should find an AppError through wrapping")
	}

	result := AsAppError(regularErr)
	if result.Code != CodeInternal {
		t.Errorf("AsAppError() should wrap regular error as internal error")
	}
	if result.Err != regularErr {
		t.Errorf("AsAppError() should wrap the original error")
	}
}

func TestIsAppErrorAndHasCode(t *testing.T) {
	wrapped := fmt.Errorf("update: %w", NotFound("Booking"))

	if !IsAppError(wrapped) {
		t.Errorf("IsAppError() should see through wrapping")
	}
	if IsAppError(errors.New("plain")) {
		t.Errorf("IsAppError() should return false for regular error")
	}
	if !HasCode(wrapped, CodeNotFound) {
		t.Errorf("HasCode() should match NOT_FOUND")
	}
	if HasCode(wrapped, CodeConflict) {
		t.Errorf("HasCode() should not match CONFLICT")
	}
}

func TestAppError_ToJSON(t *testing.T) {
	err := Validation("invalid booking", map[string]any{"end": "must be after start"})

	var resp ErrorResponse
	if e := json.Unmarshal(err.ToJSON(), &resp); e != nil {
		t.Fatalf("ToJSON() produced invalid JSON: %v", e)
	}
	if resp.Code != CodeValidation {
		t.Errorf("expected code %s, got %s", CodeValidation, resp.Code)
	}
	if resp.Details["end"] != "must be after start" {
		t.Errorf("expected details to survive encoding, got %v", resp.Details)
	}
}
