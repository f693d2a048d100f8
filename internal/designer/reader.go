package designer

import (
	"context"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/pixobe/shopify-product-designer-dev-sub000/pkg/errors"
	"github.com/pixobe/shopify-product-designer-dev-sub000/pkg/logger"
	"github.com/pixobe/shopify-product-designer-dev-sub000/pkg/metrics"
	"github.com/pixobe/shopify-product-designer-dev-sub000/pkg/shopify"
)

type catalogGateway interface {
	VariantWithMedia(ctx context.Context, session shopify.Session, variantID string) (*VariantNode, error)
	ProductWithMedia(ctx context.Context, session shopify.Session, productID string) (*ProductNode, error)
}

// VariantMedia is one variant with its decoded media entries, in the order
// the store returned them.
type VariantMedia struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Media []MediaEntry    `json:"media"`
}

// ProductMedia is a product with the media of every variant.
type ProductMedia struct {
	ProductID   string         `json:"productId"`
	ProductName string         `json:"productName"`
	Variants    []VariantMedia `json:"variants"`
}

// Reader reconstructs typed media entries from stored metaobject fields.
// Entries whose config field no longer parses are skipped, counted, and
// logged so corruption trends stay visible without failing the whole read.
type Reader struct {
	gateway catalogGateway
	codec   *Codec
	logger  *logger.Logger
	metrics *metrics.AdminAPIMetrics
}

// NewReader constructs a reader over the designer gateway.
func NewReader(gateway catalogGateway, codec *Codec, logg *logger.Logger, m *metrics.AdminAPIMetrics) (*Reader, error) {
	if gateway == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "catalog gateway required")
	}
	if codec == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "codec required")
	}
	return &Reader{gateway: gateway, codec: codec, logger: logg, metrics: m}, nil
}

// GetVariantMedia returns one variant's decoded media list.
func (r *Reader) GetVariantMedia(ctx context.Context, session shopify.Session, variantID any) (*VariantMedia, error) {
	vid := shopify.NormalizeID(shopify.KindProductVariant, variantID)
	if vid == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "variant id required")
	}
	node, err := r.gateway.VariantWithMedia(ctx, session, vid)
	if err != nil {
		return nil, err
	}
	variant := r.variantMedia(ctx, session.Shop, node)
	return &variant, nil
}

// VariantInfo is the lookup view of a variant: identity, price, and parent
// product, without the media list.
type VariantInfo struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	ProductID   string          `json:"productId"`
	ProductName string          `json:"productName"`
}

// LookupVariant resolves a variant id to its title, price, and parent product.
func (r *Reader) LookupVariant(ctx context.Context, session shopify.Session, variantID any) (*VariantInfo, error) {
	vid := shopify.NormalizeID(shopify.KindProductVariant, variantID)
	if vid == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "variant id required")
	}
	node, err := r.gateway.VariantWithMedia(ctx, session, vid)
	if err != nil {
		return nil, err
	}
	info := &VariantInfo{
		ID:          node.ID,
		Name:        node.Title,
		ProductID:   node.Product.ID,
		ProductName: node.Product.Title,
	}
	if node.Price != "" {
		if price, err := decimal.NewFromString(node.Price); err == nil {
			info.Price = price
		}
	}
	return info, nil
}

// GetProductMedia returns a product's name plus each variant's media list.
func (r *Reader) GetProductMedia(ctx context.Context, session shopify.Session, productID any) (*ProductMedia, error) {
	pid := shopify.NormalizeID(shopify.KindProduct, productID)
	if pid == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	node, err := r.gateway.ProductWithMedia(ctx, session, pid)
	if err != nil {
		return nil, err
	}

	out := &ProductMedia{
		ProductID:   node.ID,
		ProductName: node.Title,
		Variants:    make([]VariantMedia, 0, len(node.Variants)),
	}
	for i := range node.Variants {
		out.Variants = append(out.Variants, r.variantMedia(ctx, session.Shop, &node.Variants[i]))
	}
	return out, nil
}

func (r *Reader) variantMedia(ctx context.Context, shop string, node *VariantNode) VariantMedia {
	variant := VariantMedia{
		ID:    node.ID,
		Name:  node.Title,
		Media: r.decodeEntries(ctx, shop, node.Metafield),
	}
	if node.Price != "" {
		if price, err := decimal.NewFromString(node.Price); err == nil {
			variant.Price = price
		}
	}
	return variant
}

// decodeEntries maps referenced metaobjects through the codec, keeping the
// store's return order. No re-sort is imposed.
func (r *Reader) decodeEntries(ctx context.Context, shop string, mf *shopify.Metafield) []MediaEntry {
	if mf == nil || mf.References == nil {
		return []MediaEntry{}
	}
	entries := make([]MediaEntry, 0, len(mf.References.Nodes))
	for _, node := range mf.References.Nodes {
		raw, ok := node.FieldValue(configFieldKey)
		if !ok {
			r.countDrop(ctx, shop, node.ID)
			continue
		}
		entry := r.codec.Decode(raw)
		if entry == nil {
			r.countDrop(ctx, shop, node.ID)
			continue
		}
		if entry.MetaobjectID == "" {
			entry.MetaobjectID = node.ID
		}
		entries = append(entries, *entry)
	}
	return entries
}

func (r *Reader) countDrop(ctx context.Context, shop, metaobjectID string) {
	r.metrics.IncDecodeDrop(shop)
	if r.logger != nil {
		ctx = r.logger.WithField(ctx, "metaobject_id", metaobjectID)
		r.logger.Warn(ctx, "dropping media entry with malformed config field")
	}
}
