package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/pixobe/shopify-product-designer-dev-sub000/api/middleware"
	"github.com/pixobe/shopify-product-designer-dev-sub000/api/responses"
	pkgerrors "github.com/pixobe/shopify-product-designer-dev-sub000/pkg/errors"
	"github.com/pixobe/shopify-product-designer-dev-sub000/pkg/logger"
	"github.com/pixobe/shopify-product-designer-dev-sub000/pkg/shopify"
)

type SettingsService interface {
	Get(ctx context.Context, session shopify.Session) (json.RawMessage, error)
	Save(ctx context.Context, session shopify.Session, value json.RawMessage) error
}

const maxSettingsBody = 64 * 1024

// GetSettings returns the shop's designer settings document, or an empty
// object when none has been saved yet.
func GetSettings(svc SettingsService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := middleware.SessionFromContext(r.Context())

		value, err := svc.Get(r.Context(), session)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if len(value) == 0 {
			value = json.RawMessage(`{}`)
		}

		responses.WriteSuccess(w, value)
	}
}

// SaveSettings stores the raw settings document supplied by the admin UI.
func SaveSettings(svc SettingsService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := middleware.SessionFromContext(r.Context())

		body, err := io.ReadAll(io.LimitReader(r.Body, maxSettingsBody))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body"))
			return
		}

		if err := svc.Save(r.Context(), session, body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "saved"})
	}
}
