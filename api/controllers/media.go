package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/pixobe/shopify-product-designer-dev-sub000/api/middleware"
	"github.com/pixobe/shopify-product-designer-dev-sub000/api/responses"
	"github.com/pixobe/shopify-product-designer-dev-sub000/api/validators"
	"github.com/pixobe/shopify-product-designer-dev-sub000/internal/designer"
	pkgerrors "github.com/pixobe/shopify-product-designer-dev-sub000/pkg/errors"
	"github.com/pixobe/shopify-product-designer-dev-sub000/pkg/logger"
	"github.com/pixobe/shopify-product-designer-dev-sub000/pkg/shopify"
)

type MediaReconciler interface {
	AddMediaToVariant(ctx context.Context, session shopify.Session, variantID any, entry designer.MediaEntry) ([]string, error)
	RemoveMediaFromVariant(ctx context.Context, session shopify.Session, variantID, metaobjectID any) ([]string, error)
}

type MediaReader interface {
	GetVariantMedia(ctx context.Context, session shopify.Session, variantID any) (*designer.VariantMedia, error)
	GetProductMedia(ctx context.Context, session shopify.Session, productID any) (*designer.ProductMedia, error)
	LookupVariant(ctx context.Context, session shopify.Session, variantID any) (*designer.VariantInfo, error)
}

type mediaAddRequest struct {
	ID       string                `json:"id" validate:"required"`
	URL      string                `json:"url" validate:"omitempty,url"`
	Name     string                `json:"name"`
	Alt      string                `json:"alt"`
	Grid     *designer.GridConfig  `json:"grid"`
	ShowGrid *bool                 `json:"showGrid"`
	Etching  *bool                 `json:"etching"`
	// MetaobjectID is set when the client re-saves an entry it already owns.
	MetaobjectID string `json:"metaobjectId"`
}

func (r mediaAddRequest) toEntry() designer.MediaEntry {
	return designer.MediaEntry{
		ID:           r.ID,
		URL:          r.URL,
		Name:         r.Name,
		Alt:          r.Alt,
		Grid:         r.Grid,
		ShowGrid:     r.ShowGrid,
		Etching:      r.Etching,
		MetaobjectID: r.MetaobjectID,
	}
}

type mediaReferencesResponse struct {
	VariantID  string   `json:"variantId"`
	References []string `json:"references"`
}

// AddVariantMedia persists a designer media entry and links it to the variant.
func AddVariantMedia(reconciler MediaReconciler, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := middleware.SessionFromContext(r.Context())

		variantID := strings.TrimSpace(chi.URLParam(r, "variantId"))
		if variantID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "variant id required"))
			return
		}

		var payload mediaAddRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		refs, err := reconciler.AddMediaToVariant(r.Context(), session, variantID, payload.toEntry())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, mediaReferencesResponse{VariantID: variantID, References: refs})
	}
}

// RemoveVariantMedia unlinks a media entry from the variant and deletes its
// backing metaobject.
func RemoveVariantMedia(reconciler MediaReconciler, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := middleware.SessionFromContext(r.Context())

		variantID := strings.TrimSpace(chi.URLParam(r, "variantId"))
		metaobjectID := strings.TrimSpace(chi.URLParam(r, "metaobjectId"))
		if variantID == "" || metaobjectID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "variant id and metaobject id required"))
			return
		}

		refs, err := reconciler.RemoveMediaFromVariant(r.Context(), session, variantID, metaobjectID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, mediaReferencesResponse{VariantID: variantID, References: refs})
	}
}

// GetVariantMedia returns the variant's decoded designer media entries.
func GetVariantMedia(reader MediaReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := middleware.SessionFromContext(r.Context())

		variantID := strings.TrimSpace(chi.URLParam(r, "variantId"))
		if variantID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "variant id required"))
			return
		}

		media, err := reader.GetVariantMedia(r.Context(), session, variantID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, media)
	}
}

// GetVariant resolves a variant to its title, price, and parent product.
func GetVariant(reader MediaReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := middleware.SessionFromContext(r.Context())

		variantID := strings.TrimSpace(chi.URLParam(r, "variantId"))
		if variantID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "variant id required"))
			return
		}

		info, err := reader.LookupVariant(r.Context(), session, variantID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, info)
	}
}

// GetProductMedia returns designer media for every variant of a product.
func GetProductMedia(reader MediaReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := middleware.SessionFromContext(r.Context())

		productID := strings.TrimSpace(chi.URLParam(r, "productId"))
		if productID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "product id required"))
			return
		}

		media, err := reader.GetProductMedia(r.Context(), session, productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, media)
	}
}
