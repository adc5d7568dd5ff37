package validators

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	pkgerrors "github.com/sweetfrozen/storefront/pkg/errors"
)

type sampleBody struct {
	Email    string `json:"email" validate:"required,email"`
	Quantity int    `json:"quantity" validate:"gt=0"`
}

func TestDecodeJSONBodyReportsFieldsByJSONName(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"nope","quantity":0}`))
	var body sampleBody
	err := DecodeJSONBody(req, &body)
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error got %v", err)
	}
	details, ok := pkgerrors.As(err).Details().(map[string]string)
	if !ok {
		t.Fatalf("expected field details got %#v", pkgerrors.As(err).Details())
	}
	if details["email"] != "must be a valid email" {
		t.Fatalf("unexpected email detail %q", details["email"])
	}
	if details["quantity"] != "must be greater than 0" {
		t.Fatalf("unexpected quantity detail %q", details["quantity"])
	}
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"a@b.co","quantity":1,"extra":true}`))
	var body sampleBody
	if err := DecodeJSONBody(req, &body); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error got %v", err)
	}
}

func TestParseQueryAmount(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?amount=1200.50", nil)
	got, err := ParseQueryAmount(req, "amount", decimal.Zero)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Equal(decimal.RequireFromString("1200.50")) {
		t.Fatalf("unexpected amount %s", got)
	}

	missing := httptest.NewRequest(http.MethodGet, "/", nil)
	got, err = ParseQueryAmount(missing, "amount", decimal.NewFromInt(7))
	if err != nil || !got.Equal(decimal.NewFromInt(7)) {
		t.Fatalf("expected default got %s err %v", got, err)
	}

	for _, raw := range []string{"abc", "-1"} {
		bad := httptest.NewRequest(http.MethodGet, "/?amount="+raw, nil)
		if _, err := ParseQueryAmount(bad, "amount", decimal.Zero); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
			t.Fatalf("expected validation error for %q got %v", raw, err)
		}
	}
}

func TestSanitizeCode(t *testing.T) {
	if got := SanitizeCode("  sweet10 "); got != "SWEET10" {
		t.Fatalf("unexpected code %q", got)
	}
}
