package settings

import (
	"context"
	"encoding/json"

	"github.com/pixobe/shopify-product-designer-dev-sub000/pkg/config"
	pkgerrors "github.com/pixobe/shopify-product-designer-dev-sub000/pkg/errors"
	"github.com/pixobe/shopify-product-designer-dev-sub000/pkg/shopify"
)

const shopSettingsQuery = `
query designerShopSettings($namespace: String!, $key: String!) {
  shop {
    id
    metafield(namespace: $namespace, key: $key) { id value }
  }
}`

const shopSettingsSetMutation = `
mutation designerShopSettingsSet($metafields: [MetafieldsSetInput!]!) {
  metafieldsSet(metafields: $metafields) {
    metafields { id key }
    userErrors { field message }
  }
}`

type adminAPI interface {
	Execute(ctx context.Context, session shopify.Session, operation, query string, variables map[string]any, out any) error
}

// Gateway reads and writes the app settings blob stored as a shop metafield.
type Gateway struct {
	api adminAPI
	cfg config.DesignerConfig
}

// NewGateway constructs a settings gateway.
func NewGateway(api adminAPI, cfg config.DesignerConfig) (*Gateway, error) {
	if api == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "admin api client required")
	}
	if cfg.MetafieldNamespace == "" || cfg.SettingsKey == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "settings metafield identifiers required")
	}
	return &Gateway{api: api, cfg: cfg}, nil
}

// ShopSettings reads the raw settings JSON. A shop without the metafield
// returns nil with no error.
func (g *Gateway) ShopSettings(ctx context.Context, session shopify.Session) (json.RawMessage, error) {
	var out struct {
		Shop *struct {
			ID        string             `json:"id"`
			Metafield *shopify.Metafield `json:"metafield"`
		} `json:"shop"`
	}
	variables := map[string]any{
		"namespace": g.cfg.MetafieldNamespace,
		"key":       g.cfg.SettingsKey,
	}
	if err := g.api.Execute(ctx, session, "shopSettings", shopSettingsQuery, variables, &out); err != nil {
		return nil, err
	}
	if out.Shop == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "shopSettings missing shop in response")
	}
	if out.Shop.Metafield == nil || out.Shop.Metafield.Value == "" {
		return nil, nil
	}
	return json.RawMessage(out.Shop.Metafield.Value), nil
}

// SetShopSettings writes the settings JSON onto the shop metafield.
func (g *Gateway) SetShopSettings(ctx context.Context, session shopify.Session, value json.RawMessage) error {
	shopID, err := g.shopID(ctx, session)
	if err != nil {
		return err
	}
	var out struct {
		MetafieldsSet struct {
			Metafields []shopify.Metafield `json:"metafields"`
			UserErrors []shopify.UserError `json:"userErrors"`
		} `json:"metafieldsSet"`
	}
	variables := map[string]any{
		"metafields": []map[string]any{{
			"ownerId":   shopID,
			"namespace": g.cfg.MetafieldNamespace,
			"key":       g.cfg.SettingsKey,
			"type":      "json",
			"value":     string(value),
		}},
	}
	if err := g.api.Execute(ctx, session, "shopSettingsSet", shopSettingsSetMutation, variables, &out); err != nil {
		return err
	}
	return shopify.UserErrorsToError("metafieldsSet", out.MetafieldsSet.UserErrors)
}

func (g *Gateway) shopID(ctx context.Context, session shopify.Session) (string, error) {
	var out struct {
		Shop *struct {
			ID string `json:"id"`
		} `json:"shop"`
	}
	variables := map[string]any{
		"namespace": g.cfg.MetafieldNamespace,
		"key":       g.cfg.SettingsKey,
	}
	if err := g.api.Execute(ctx, session, "shopID", shopSettingsQuery, variables, &out); err != nil {
		return "", err
	}
	if out.Shop == nil || out.Shop.ID == "" {
		return "", pkgerrors.New(pkgerrors.CodeDependency, "shop id missing in response")
	}
	return out.Shop.ID, nil
}
