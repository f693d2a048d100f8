package designer

import (
	"strings"

	"github.com/pixobe/shopify-product-designer-dev-sub000/pkg/shopify"
)

// GridConfig positions the customization overlay on top of an image.
type GridConfig struct {
	RLeft  float64 `json:"rLeft"`
	RTop   float64 `json:"rTop"`
	ScaleX float64 `json:"scaleX"`
	ScaleY float64 `json:"scaleY"`
	Stroke string  `json:"stroke"`
}

// DefaultGrid returns the overlay applied when a merchant has not tuned one.
func DefaultGrid() GridConfig {
	return GridConfig{
		RLeft:  0.1,
		RTop:   0.1,
		ScaleX: 0.8,
		ScaleY: 0.8,
		Stroke: "#ff0000",
	}
}

// MediaEntry is one customizable image, optionally bound to a product variant.
// MetaobjectID is set once the entry has been persisted; VariantID is empty
// for product-level entries that no variant has claimed yet.
type MediaEntry struct {
	ID           string      `json:"id"`
	URL          string      `json:"url,omitempty"`
	Name         string      `json:"name,omitempty"`
	Alt          string      `json:"alt,omitempty"`
	Grid         *GridConfig `json:"grid,omitempty"`
	ShowGrid     *bool       `json:"showGrid,omitempty"`
	Etching      *bool       `json:"etching,omitempty"`
	MetaobjectID string      `json:"metaobjectId,omitempty"`
	VariantID    string      `json:"variantId,omitempty"`
}

// Persisted reports whether the entry already has a backing metaobject.
func (e MediaEntry) Persisted() bool {
	return strings.TrimSpace(e.MetaobjectID) != ""
}

// sanitized fills defaults and canonicalizes identifiers before encoding.
func (e MediaEntry) sanitized() MediaEntry {
	out := e
	out.ID = strings.TrimSpace(e.ID)
	out.MetaobjectID = strings.TrimSpace(e.MetaobjectID)
	if out.MetaobjectID != "" {
		out.MetaobjectID = shopify.NormalizeID(shopify.KindMetaobject, out.MetaobjectID)
	}
	out.VariantID = shopify.NormalizeID(shopify.KindProductVariant, e.VariantID)
	if out.Grid == nil {
		grid := DefaultGrid()
		out.Grid = &grid
	}
	if out.ShowGrid == nil {
		show := true
		out.ShowGrid = &show
	}
	if out.Etching == nil {
		etch := false
		out.Etching = &etch
	}
	return out
}

// SameEntry reports whether two entries describe the same logical record.
// Persisted entries match on metaobject id; unpersisted ones match on image
// id as long as their variant assignments do not conflict.
func SameEntry(a, b MediaEntry) bool {
	if a.Persisted() && b.Persisted() {
		return a.MetaobjectID == b.MetaobjectID
	}
	if a.VariantID != "" && b.VariantID != "" && a.VariantID != b.VariantID {
		return false
	}
	return a.ID != "" && a.ID == b.ID
}
