package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fkhayef/parkwise/internal/apperr"
)

func TestFromError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"validation", apperr.Invalid("driver_id", "is required"), http.StatusBadRequest, "VALIDATION_ERROR"},
		{"invalid amount", &apperr.ValidationError{Field: "gross_amount", Message: "must be positive", Kind: apperr.ErrInvalidAmount}, http.StatusBadRequest, "INVALID_AMOUNT"},
		{"invalid period", apperr.ErrInvalidPeriod, http.StatusBadRequest, "INVALID_PERIOD"},
		{"not found", apperr.NotFound("report", "r1"), http.StatusNotFound, "NOT_FOUND"},
		{"duplicate", apperr.ErrDuplicate, http.StatusConflict, "DUPLICATE"},
		{"transition", apperr.Transition("commission_status", "Collected", "Collected"), http.StatusConflict, "INVALID_TRANSITION"},
		{"lookup", apperr.ErrLookup, http.StatusBadGateway, "BAD_GATEWAY"},
		{"persistence", apperr.Persistence("append payment", errors.New("connection reset")), http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			FromError(rec, tt.err)

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
			var body APIResponse
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Success || body.Error == nil || body.Error.Code != tt.wantCode {
				t.Fatalf("expected error code %s, got %+v", tt.wantCode, body.Error)
			}
		})
	}
}

func TestCSV(t *testing.T) {
	rec := httptest.NewRecorder()
	CSV(rec, "report.csv", []byte("a,b\n"))

	if got := rec.Header().Get("Content-Type"); got != "text/csv; charset=utf-8" {
		t.Fatalf("unexpected content type %q", got)
	}
	if got := rec.Header().Get("Content-Disposition"); got != `attachment; filename="report.csv"` {
		t.Fatalf("unexpected disposition %q", got)
	}
	if rec.Body.String() != "a,b\n" {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}
}
