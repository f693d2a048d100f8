package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/pixobe/shopify-product-designer-dev-sub000/internal/designer"
	pkgerrors "github.com/pixobe/shopify-product-designer-dev-sub000/pkg/errors"
	"github.com/pixobe/shopify-product-designer-dev-sub000/pkg/shopify"
)

type stubReconciler struct {
	refs      []string
	err       error
	variantID any
	entry     designer.MediaEntry
	removed   any
}

func (s *stubReconciler) AddMediaToVariant(_ context.Context, _ shopify.Session, variantID any, entry designer.MediaEntry) ([]string, error) {
	s.variantID = variantID
	s.entry = entry
	return s.refs, s.err
}

func (s *stubReconciler) RemoveMediaFromVariant(_ context.Context, _ shopify.Session, variantID, metaobjectID any) ([]string, error) {
	s.variantID = variantID
	s.removed = metaobjectID
	return s.refs, s.err
}

type stubReader struct {
	variant *designer.VariantMedia
	product *designer.ProductMedia
	info    *designer.VariantInfo
	err     error
}

func (s *stubReader) GetVariantMedia(_ context.Context, _ shopify.Session, _ any) (*designer.VariantMedia, error) {
	return s.variant, s.err
}

func (s *stubReader) GetProductMedia(_ context.Context, _ shopify.Session, _ any) (*designer.ProductMedia, error) {
	return s.product, s.err
}

func (s *stubReader) LookupVariant(_ context.Context, _ shopify.Session, _ any) (*designer.VariantInfo, error) {
	return s.info, s.err
}

func routeRequest(handler http.HandlerFunc, method, pattern, target string, body []byte) *httptest.ResponseRecorder {
	router := chi.NewRouter()
	router.MethodFunc(method, pattern, handler)

	var reader *bytes.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestAddVariantMedia(t *testing.T) {
	t.Parallel()

	reconciler := &stubReconciler{refs: []string{"gid://shopify/Metaobject/900"}}
	body := []byte(`{"id":"gid://shopify/MediaImage/55","url":"https://cdn.example.com/a.png","name":"a.png"}`)

	rec := routeRequest(AddVariantMedia(reconciler, nil), http.MethodPost,
		"/variants/{variantId}/media", "/variants/100/media", body)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d (%s)", rec.Code, rec.Body.String())
	}
	if reconciler.variantID != "100" {
		t.Fatalf("expected variant id forwarded got %v", reconciler.variantID)
	}
	if reconciler.entry.ID != "gid://shopify/MediaImage/55" {
		t.Fatalf("unexpected entry %+v", reconciler.entry)
	}

	var envelope struct {
		Data mediaReferencesResponse `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data.References) != 1 || envelope.Data.References[0] != "gid://shopify/Metaobject/900" {
		t.Fatalf("unexpected references %v", envelope.Data.References)
	}
}

func TestAddVariantMediaRejectsMissingID(t *testing.T) {
	t.Parallel()

	rec := routeRequest(AddVariantMedia(&stubReconciler{}, nil), http.MethodPost,
		"/variants/{variantId}/media", "/variants/100/media", []byte(`{"url":"https://cdn.example.com/a.png"}`))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestRemoveVariantMedia(t *testing.T) {
	t.Parallel()

	reconciler := &stubReconciler{refs: []string{}}
	rec := routeRequest(RemoveVariantMedia(reconciler, nil), http.MethodDelete,
		"/variants/{variantId}/media/{metaobjectId}", "/variants/100/media/900", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d (%s)", rec.Code, rec.Body.String())
	}
	if reconciler.removed != "900" {
		t.Fatalf("expected metaobject id forwarded got %v", reconciler.removed)
	}
}

func TestGetVariantMediaMapsServiceError(t *testing.T) {
	t.Parallel()

	reader := &stubReader{err: pkgerrors.New(pkgerrors.CodeNotFound, "variant not found")}
	rec := routeRequest(GetVariantMedia(reader, nil), http.MethodGet,
		"/variants/{variantId}/media", "/variants/100/media", nil)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rec.Code)
	}
}

func TestGetVariantReturnsLookupInfo(t *testing.T) {
	t.Parallel()

	reader := &stubReader{info: &designer.VariantInfo{
		ID:          "gid://shopify/ProductVariant/100",
		Name:        "Small",
		ProductID:   "gid://shopify/Product/5",
		ProductName: "Mug",
	}}
	rec := routeRequest(GetVariant(reader, nil), http.MethodGet,
		"/variants/{variantId}", "/variants/100", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d (%s)", rec.Code, rec.Body.String())
	}

	var envelope struct {
		Data designer.VariantInfo `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.ProductName != "Mug" || envelope.Data.Name != "Small" {
		t.Fatalf("unexpected variant info %+v", envelope.Data)
	}
}

func TestGetProductMedia(t *testing.T) {
	t.Parallel()

	reader := &stubReader{product: &designer.ProductMedia{
		ProductID:   "gid://shopify/Product/5",
		ProductName: "Mug",
	}}
	rec := routeRequest(GetProductMedia(reader, nil), http.MethodGet,
		"/products/{productId}/media", "/products/5/media", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d (%s)", rec.Code, rec.Body.String())
	}

	var envelope struct {
		Data designer.ProductMedia `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.ProductName != "Mug" {
		t.Fatalf("unexpected product %+v", envelope.Data)
	}
}
