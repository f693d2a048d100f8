package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	pkgerrors "github.com/pixobe/shopify-product-designer-dev-sub000/pkg/errors"
	"github.com/pixobe/shopify-product-designer-dev-sub000/pkg/shopify"
)

type stubSettingsService struct {
	value json.RawMessage
	err   error
	saved json.RawMessage
}

func (s *stubSettingsService) Get(_ context.Context, _ shopify.Session) (json.RawMessage, error) {
	return s.value, s.err
}

func (s *stubSettingsService) Save(_ context.Context, _ shopify.Session, value json.RawMessage) error {
	s.saved = value
	return s.err
}

func TestGetSettings(t *testing.T) {
	t.Parallel()

	svc := &stubSettingsService{value: json.RawMessage(`{"theme":"dark"}`)}
	rec := httptest.NewRecorder()
	GetSettings(svc, nil)(rec, httptest.NewRequest(http.MethodGet, "/settings", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	var envelope struct {
		Data map[string]string `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data["theme"] != "dark" {
		t.Fatalf("unexpected settings %v", envelope.Data)
	}
}

func TestGetSettingsDefaultsToEmptyObject(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	GetSettings(&stubSettingsService{}, nil)(rec, httptest.NewRequest(http.MethodGet, "/settings", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	var envelope struct {
		Data map[string]any `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data) != 0 {
		t.Fatalf("expected empty object got %v", envelope.Data)
	}
}

func TestSaveSettings(t *testing.T) {
	t.Parallel()

	svc := &stubSettingsService{}
	body := []byte(`{"theme":"light"}`)
	rec := httptest.NewRecorder()
	SaveSettings(svc, nil)(rec, httptest.NewRequest(http.MethodPut, "/settings", bytes.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d (%s)", rec.Code, rec.Body.String())
	}
	if !bytes.Equal(svc.saved, body) {
		t.Fatalf("expected body forwarded got %s", svc.saved)
	}
}

func TestSaveSettingsMapsValidationError(t *testing.T) {
	t.Parallel()

	svc := &stubSettingsService{err: pkgerrors.New(pkgerrors.CodeValidation, "settings must be valid json")}
	rec := httptest.NewRecorder()
	SaveSettings(svc, nil)(rec, httptest.NewRequest(http.MethodPut, "/settings", bytes.NewReader([]byte(`not json`))))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}
