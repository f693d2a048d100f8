package controllers

import (
	"context"
	"net/http"

	"github.com/pixobe/shopify-product-designer-dev-sub000/api/middleware"
	"github.com/pixobe/shopify-product-designer-dev-sub000/api/responses"
	"github.com/pixobe/shopify-product-designer-dev-sub000/api/validators"
	"github.com/pixobe/shopify-product-designer-dev-sub000/internal/designer"
	pkgerrors "github.com/pixobe/shopify-product-designer-dev-sub000/pkg/errors"
	"github.com/pixobe/shopify-product-designer-dev-sub000/pkg/logger"
	"github.com/pixobe/shopify-product-designer-dev-sub000/pkg/shopify"
)

const maxStagedUploads = 10

type Uploader interface {
	CreateStagedUploads(ctx context.Context, session shopify.Session, inputs []designer.StagedUploadInput) ([]designer.StagedUploadTarget, error)
}

type stagedUploadsRequest struct {
	Files []designer.StagedUploadInput `json:"files" validate:"required,min=1,dive"`
}

type stagedUploadsResponse struct {
	Targets []designer.StagedUploadTarget `json:"targets"`
}

// CreateUploads requests signed upload targets for designer artwork files.
func CreateUploads(uploader Uploader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := middleware.SessionFromContext(r.Context())

		var payload stagedUploadsRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if len(payload.Files) > maxStagedUploads {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "too many files in one request"))
			return
		}

		targets, err := uploader.CreateStagedUploads(r.Context(), session, payload.Files)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, stagedUploadsResponse{Targets: targets})
	}
}
