package validators

import (
	"net/http/httptest"
	"strings"
	"testing"

	pkgerrors "github.com/angelmondragon/songqueue-backend/pkg/errors"
)

type submitBody struct {
	Name      string `json:"name" validate:"max=80"`
	SongTitle string `json:"songTitle" validate:"required,notblank"`
	Reference string `json:"reference" validate:"required,notblank"`
}

func TestDecodeJSONBodyAcceptsValidPayload(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"name":"Ana","songTitle":"Africa","reference":"pay-1"}`))
	var body submitBody
	if err := DecodeJSONBody(req, &body); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if body.SongTitle != "Africa" || body.Reference != "pay-1" {
		t.Fatalf("unexpected decode %+v", body)
	}
}

func TestDecodeJSONBodyReportsFieldErrors(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"songTitle":"   "}`))
	var body submitBody
	err := DecodeJSONBody(req, &body)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	details, ok := typed.Details().(map[string]string)
	if !ok {
		t.Fatalf("expected field details, got %T", typed.Details())
	}
	if details["songTitle"] != "is required" || details["reference"] != "is required" {
		t.Fatalf("unexpected details %v", details)
	}
}

func TestDecodeJSONBodyRejectsUnknownFieldsAndBadJSON(t *testing.T) {
	for _, raw := range []string{`{"songTitle":"x","reference":"y","amount":100}`, `{"songTitle":`} {
		req := httptest.NewRequest("POST", "/", strings.NewReader(raw))
		var body submitBody
		if err := DecodeJSONBody(req, &body); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
			t.Fatalf("expected validation error for %s, got %v", raw, err)
		}
	}
}

func TestSanitizeString(t *testing.T) {
	if got := SanitizeString("  Bohemian Rhapsody  ", 0); got != "Bohemian Rhapsody" {
		t.Fatalf("unexpected trim %q", got)
	}
	if got := SanitizeString("Für Elise", 3); got != "Für" {
		t.Fatalf("expected rune-safe truncation, got %q", got)
	}
}

func TestDecodeJSONBodyRejectsEmptyAndTrailingData(t *testing.T) {
	for _, raw := range []string{``, `{"songTitle":"x","reference":"y"} {"songTitle":"z"}`} {
		req := httptest.NewRequest("POST", "/", strings.NewReader(raw))
		var body submitBody
		if err := DecodeJSONBody(req, &body); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
			t.Fatalf("expected validation error for %q, got %v", raw, err)
		}
	}
}

func TestDecodeJSONBodyRejectsOversizedBody(t *testing.T) {
	raw := `{"songTitle":"` + strings.Repeat("a", MaxBodyBytes) + `","reference":"y"}`
	req := httptest.NewRequest("POST", "/", strings.NewReader(raw))
	var body submitBody
	err := DecodeJSONBody(req, &body)
	typed := pkgerrors.As(err)
	if typed == nil || !strings.Contains(typed.Message(), "exceeds") {
		t.Fatalf("expected size error, got %v", err)
	}
}
