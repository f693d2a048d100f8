package designer

import (
	"context"
	"encoding/json"

	"github.com/pixobe/shopify-product-designer-dev-sub000/pkg/config"
	pkgerrors "github.com/pixobe/shopify-product-designer-dev-sub000/pkg/errors"
	"github.com/pixobe/shopify-product-designer-dev-sub000/pkg/shopify"
)

const configFieldKey = "config"

const metaobjectCreateMutation = `
mutation designerMetaobjectCreate($metaobject: MetaobjectCreateInput!) {
  metaobjectCreate(metaobject: $metaobject) {
    metaobject { id handle }
    userErrors { field message }
  }
}`

const metaobjectUpdateMutation = `
mutation designerMetaobjectUpdate($id: ID!, $metaobject: MetaobjectUpdateInput!) {
  metaobjectUpdate(id: $id, metaobject: $metaobject) {
    metaobject { id handle }
    userErrors { field message }
  }
}`

const metaobjectDeleteMutation = `
mutation designerMetaobjectDelete($id: ID!) {
  metaobjectDelete(id: $id) {
    deletedId
    userErrors { field message }
  }
}`

const metafieldsSetMutation = `
mutation designerMetafieldsSet($metafields: [MetafieldsSetInput!]!) {
  metafieldsSet(metafields: $metafields) {
    metafields { id key }
    userErrors { field message }
  }
}`

const variantMediaQuery = `
query designerVariantMedia($id: ID!, $namespace: String!, $key: String!) {
  productVariant(id: $id) {
    id
    title
    price
    product { id title }
    metafield(namespace: $namespace, key: $key) {
      id
      value
      references(first: 200) {
        nodes {
          ... on Metaobject { id handle type fields { key value } }
        }
      }
    }
  }
}`

const productMediaQuery = `
query designerProductMedia($id: ID!, $namespace: String!, $key: String!) {
  product(id: $id) {
    id
    title
    variants(first: 100) {
      nodes {
        id
        title
        price
        metafield(namespace: $namespace, key: $key) {
          id
          value
          references(first: 200) {
            nodes {
              ... on Metaobject { id handle type fields { key value } }
            }
          }
        }
      }
    }
  }
}`

const metaobjectListQuery = `
query designerMetaobjectList($type: String!, $first: Int!, $after: String) {
  metaobjects(type: $type, first: $first, after: $after) {
    nodes { id handle type fields { key value } }
    pageInfo { hasNextPage endCursor }
  }
}`

const stagedUploadsCreateMutation = `
mutation designerStagedUploadsCreate($input: [StagedUploadInput!]!) {
  stagedUploadsCreate(input: $input) {
    stagedTargets {
      url
      resourceUrl
      parameters { name value }
    }
    userErrors { field message }
  }
}`

const variantExistsQuery = `
query designerVariantExists($id: ID!) {
  productVariant(id: $id) { id }
}`

type adminAPI interface {
	Execute(ctx context.Context, session shopify.Session, operation, query string, variables map[string]any, out any) error
}

// VariantNode is a product variant with its media metafield, as read back
// from the admin API.
type VariantNode struct {
	ID        string             `json:"id"`
	Title     string             `json:"title"`
	Price     string             `json:"price"`
	Product   ProductRef         `json:"product"`
	Metafield *shopify.Metafield `json:"metafield"`
}

// ProductRef names a variant's parent product.
type ProductRef struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// ProductNode is a product with its variants and their media metafields.
type ProductNode struct {
	ID       string        `json:"id"`
	Title    string        `json:"title"`
	Variants []VariantNode `json:"variants"`
}

// Gateway issues the designer's metaobject and metafield operations against
// the admin API.
type Gateway struct {
	api adminAPI
	cfg config.DesignerConfig
}

// NewGateway constructs a gateway bound to the configured metafield identifiers.
func NewGateway(api adminAPI, cfg config.DesignerConfig) (*Gateway, error) {
	if api == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "admin api client required")
	}
	if cfg.MetafieldNamespace == "" || cfg.MediaMetafieldKey == "" || cfg.MetaobjectType == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "designer metafield identifiers required")
	}
	return &Gateway{api: api, cfg: cfg}, nil
}

type metaobjectMutationPayload struct {
	Metaobject *struct {
		ID     string `json:"id"`
		Handle string `json:"handle"`
	} `json:"metaobject"`
	UserErrors []shopify.UserError `json:"userErrors"`
}

// CreateMediaMetaobject creates a metaobject holding one encoded entry and
// returns its id.
func (g *Gateway) CreateMediaMetaobject(ctx context.Context, session shopify.Session, handle, configJSON string) (string, error) {
	var out struct {
		MetaobjectCreate metaobjectMutationPayload `json:"metaobjectCreate"`
	}
	variables := map[string]any{
		"metaobject": map[string]any{
			"type":   g.cfg.MetaobjectType,
			"handle": handle,
			"fields": []map[string]any{{"key": configFieldKey, "value": configJSON}},
		},
	}
	if err := g.api.Execute(ctx, session, "metaobjectCreate", metaobjectCreateMutation, variables, &out); err != nil {
		return "", err
	}
	if err := shopify.UserErrorsToError("metaobjectCreate", out.MetaobjectCreate.UserErrors); err != nil {
		return "", err
	}
	if out.MetaobjectCreate.Metaobject == nil || out.MetaobjectCreate.Metaobject.ID == "" {
		return "", pkgerrors.New(pkgerrors.CodeDependency, "metaobjectCreate missing id in response")
	}
	return out.MetaobjectCreate.Metaobject.ID, nil
}

// UpdateMediaMetaobject rewrites an existing metaobject's handle and config
// field, returning the (unchanged) id.
func (g *Gateway) UpdateMediaMetaobject(ctx context.Context, session shopify.Session, id, handle, configJSON string) (string, error) {
	var out struct {
		MetaobjectUpdate metaobjectMutationPayload `json:"metaobjectUpdate"`
	}
	variables := map[string]any{
		"id": id,
		"metaobject": map[string]any{
			"handle": handle,
			"fields": []map[string]any{{"key": configFieldKey, "value": configJSON}},
		},
	}
	if err := g.api.Execute(ctx, session, "metaobjectUpdate", metaobjectUpdateMutation, variables, &out); err != nil {
		return "", err
	}
	if err := shopify.UserErrorsToError("metaobjectUpdate", out.MetaobjectUpdate.UserErrors); err != nil {
		return "", err
	}
	if out.MetaobjectUpdate.Metaobject == nil || out.MetaobjectUpdate.Metaobject.ID == "" {
		return "", pkgerrors.New(pkgerrors.CodeDependency, "metaobjectUpdate missing id in response")
	}
	return out.MetaobjectUpdate.Metaobject.ID, nil
}

// DeleteMediaMetaobject deletes a metaobject by id.
func (g *Gateway) DeleteMediaMetaobject(ctx context.Context, session shopify.Session, id string) error {
	var out struct {
		MetaobjectDelete struct {
			DeletedID  string              `json:"deletedId"`
			UserErrors []shopify.UserError `json:"userErrors"`
		} `json:"metaobjectDelete"`
	}
	if err := g.api.Execute(ctx, session, "metaobjectDelete", metaobjectDeleteMutation, map[string]any{"id": id}, &out); err != nil {
		return err
	}
	return shopify.UserErrorsToError("metaobjectDelete", out.MetaobjectDelete.UserErrors)
}

// SetVariantMediaReferences writes the full reference list onto the variant's
// media metafield in one set call.
func (g *Gateway) SetVariantMediaReferences(ctx context.Context, session shopify.Session, variantID string, metaobjectIDs []string) error {
	if metaobjectIDs == nil {
		metaobjectIDs = []string{}
	}
	value, err := json.Marshal(metaobjectIDs)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode reference list")
	}
	var out struct {
		MetafieldsSet struct {
			Metafields []shopify.Metafield `json:"metafields"`
			UserErrors []shopify.UserError `json:"userErrors"`
		} `json:"metafieldsSet"`
	}
	variables := map[string]any{
		"metafields": []map[string]any{{
			"ownerId":   variantID,
			"namespace": g.cfg.MetafieldNamespace,
			"key":       g.cfg.MediaMetafieldKey,
			"type":      "list.metaobject_reference",
			"value":     string(value),
		}},
	}
	if err := g.api.Execute(ctx, session, "metafieldsSet", metafieldsSetMutation, variables, &out); err != nil {
		return err
	}
	return shopify.UserErrorsToError("metafieldsSet", out.MetafieldsSet.UserErrors)
}

// VariantWithMedia reads one variant, its parent product, and its media
// metafield with referenced metaobjects.
func (g *Gateway) VariantWithMedia(ctx context.Context, session shopify.Session, variantID string) (*VariantNode, error) {
	var out struct {
		ProductVariant *VariantNode `json:"productVariant"`
	}
	variables := map[string]any{
		"id":        variantID,
		"namespace": g.cfg.MetafieldNamespace,
		"key":       g.cfg.MediaMetafieldKey,
	}
	if err := g.api.Execute(ctx, session, "variantMedia", variantMediaQuery, variables, &out); err != nil {
		return nil, err
	}
	if out.ProductVariant == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product variant not found")
	}
	return out.ProductVariant, nil
}

// ProductWithMedia reads a product and all of its variants' media metafields.
func (g *Gateway) ProductWithMedia(ctx context.Context, session shopify.Session, productID string) (*ProductNode, error) {
	var out struct {
		Product *struct {
			ID       string `json:"id"`
			Title    string `json:"title"`
			Variants struct {
				Nodes []VariantNode `json:"nodes"`
			} `json:"variants"`
		} `json:"product"`
	}
	variables := map[string]any{
		"id":        productID,
		"namespace": g.cfg.MetafieldNamespace,
		"key":       g.cfg.MediaMetafieldKey,
	}
	if err := g.api.Execute(ctx, session, "productMedia", productMediaQuery, variables, &out); err != nil {
		return nil, err
	}
	if out.Product == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return &ProductNode{
		ID:       out.Product.ID,
		Title:    out.Product.Title,
		Variants: out.Product.Variants.Nodes,
	}, nil
}

// MetaobjectPage is one page of designer metaobjects.
type MetaobjectPage struct {
	Nodes       []shopify.MetaobjectNode
	HasNextPage bool
	EndCursor   string
}

// ListMediaMetaobjects pages through every metaobject of the designer type.
// Pass an empty cursor for the first page.
func (g *Gateway) ListMediaMetaobjects(ctx context.Context, session shopify.Session, after string) (*MetaobjectPage, error) {
	var out struct {
		Metaobjects struct {
			Nodes    []shopify.MetaobjectNode `json:"nodes"`
			PageInfo struct {
				HasNextPage bool   `json:"hasNextPage"`
				EndCursor   string `json:"endCursor"`
			} `json:"pageInfo"`
		} `json:"metaobjects"`
	}
	variables := map[string]any{
		"type":  g.cfg.MetaobjectType,
		"first": 200,
	}
	if after != "" {
		variables["after"] = after
	}
	if err := g.api.Execute(ctx, session, "metaobjectList", metaobjectListQuery, variables, &out); err != nil {
		return nil, err
	}
	return &MetaobjectPage{
		Nodes:       out.Metaobjects.Nodes,
		HasNextPage: out.Metaobjects.PageInfo.HasNextPage,
		EndCursor:   out.Metaobjects.PageInfo.EndCursor,
	}, nil
}

// VariantExists reports whether the variant id still resolves.
func (g *Gateway) VariantExists(ctx context.Context, session shopify.Session, variantID string) (bool, error) {
	var out struct {
		ProductVariant *struct {
			ID string `json:"id"`
		} `json:"productVariant"`
	}
	if err := g.api.Execute(ctx, session, "variantExists", variantExistsQuery, map[string]any{"id": variantID}, &out); err != nil {
		return false, err
	}
	return out.ProductVariant != nil && out.ProductVariant.ID != "", nil
}

// StagedUploadInput describes one file the designer wants to stage.
type StagedUploadInput struct {
	Filename string `json:"filename" validate:"required"`
	MimeType string `json:"mimeType" validate:"required"`
	FileSize string `json:"fileSize,omitempty"`
	Resource string `json:"resource,omitempty"`
}

// StagedUploadParameter is one form field the client must send with the upload.
type StagedUploadParameter struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// StagedUploadTarget is a signed upload destination returned by the admin API.
type StagedUploadTarget struct {
	URL         string                  `json:"url"`
	ResourceURL string                  `json:"resourceUrl"`
	Parameters  []StagedUploadParameter `json:"parameters"`
}

// CreateStagedUploads requests signed upload targets for the given files.
func (g *Gateway) CreateStagedUploads(ctx context.Context, session shopify.Session, inputs []StagedUploadInput) ([]StagedUploadTarget, error) {
	payload := make([]map[string]any, 0, len(inputs))
	for _, in := range inputs {
		resource := in.Resource
		if resource == "" {
			resource = "IMAGE"
		}
		entry := map[string]any{
			"filename":   in.Filename,
			"mimeType":   in.MimeType,
			"resource":   resource,
			"httpMethod": "POST",
		}
		if in.FileSize != "" {
			entry["fileSize"] = in.FileSize
		}
		payload = append(payload, entry)
	}

	var out struct {
		StagedUploadsCreate struct {
			StagedTargets []StagedUploadTarget `json:"stagedTargets"`
			UserErrors    []shopify.UserError  `json:"userErrors"`
		} `json:"stagedUploadsCreate"`
	}
	if err := g.api.Execute(ctx, session, "stagedUploadsCreate", stagedUploadsCreateMutation, map[string]any{"input": payload}, &out); err != nil {
		return nil, err
	}
	if err := shopify.UserErrorsToError("stagedUploadsCreate", out.StagedUploadsCreate.UserErrors); err != nil {
		return nil, err
	}
	return out.StagedUploadsCreate.StagedTargets, nil
}

// ReferenceIDs extracts the ordered metaobject id list from a media
// metafield. The raw JSON value written by this app is preferred; metafields
// populated through the structured reference list fall back to the
// references connection.
func ReferenceIDs(mf *shopify.Metafield) []string {
	if mf == nil {
		return nil
	}
	if ids, ok := parseIDArray(mf.Value); ok {
		return ids
	}
	if mf.References == nil {
		return nil
	}
	ids := make([]string, 0, len(mf.References.Nodes))
	for _, node := range mf.References.Nodes {
		if node.ID != "" {
			ids = append(ids, node.ID)
		}
	}
	return ids
}

func parseIDArray(raw string) ([]string, bool) {
	if raw == "" {
		return nil, false
	}
	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil, false
	}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != "" {
			out = append(out, id)
		}
	}
	return out, true
}
