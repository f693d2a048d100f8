package designer

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"github.com/pixobe/shopify-product-designer-dev-sub000/pkg/config"
	pkgerrors "github.com/pixobe/shopify-product-designer-dev-sub000/pkg/errors"
	"github.com/pixobe/shopify-product-designer-dev-sub000/pkg/shopify"
)

const (
	// Shopify caps metaobject handles at 255 characters.
	maxHandleLength = 255
	// Stem budget before the prefix is applied.
	maxStemLength = 200

	unassignedSegment = "default"
)

// Codec turns media entries into metaobject config payloads and back, and
// derives the stable handle each metaobject is stored under.
type Codec struct {
	handlePrefix string
}

// NewCodec constructs a codec using the configured handle prefix.
func NewCodec(cfg config.DesignerConfig) (*Codec, error) {
	prefix := strings.TrimSpace(cfg.HandlePrefix)
	if prefix == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "handle prefix required")
	}
	return &Codec{handlePrefix: prefix}, nil
}

// Encode serializes the sanitized entry as the metaobject's config field value.
func (c *Codec) Encode(entry MediaEntry) (string, error) {
	clean := entry.sanitized()
	if clean.ID == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "media entry id required")
	}
	raw, err := json.Marshal(clean)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode media entry")
	}
	return string(raw), nil
}

// Decode parses a stored config field value. Malformed payloads yield nil,
// never an error; callers count and skip them.
func (c *Codec) Decode(raw string) *MediaEntry {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	var entry MediaEntry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		return nil
	}
	if strings.TrimSpace(entry.ID) == "" {
		return nil
	}
	return &entry
}

// BuildHandle derives the metaobject handle for an entry. The same image and
// variant pair always produces the same handle, so re-running an update is
// idempotent at the handle level.
func (c *Codec) BuildHandle(entry MediaEntry) string {
	clean := entry.sanitized()

	variantSegment := unassignedSegment
	if clean.VariantID != "" {
		if slug := slugify(shopify.LegacyID(clean.VariantID)); slug != "" {
			variantSegment = slug
		}
	}
	imageSegment := slugify(shopify.LegacyID(clean.ID))
	if imageSegment == "" {
		imageSegment = uuid.NewString()[:8]
	}

	stem := imageSegment + "-" + variantSegment
	if len(stem) > maxStemLength {
		stem = strings.Trim(stem[:maxStemLength], "-")
	}

	handle := c.handlePrefix + "-" + stem
	if len(handle) > maxHandleLength {
		handle = strings.Trim(handle[:maxHandleLength], "-")
	}
	return handle
}

// slugify lower-cases the input and collapses every run of characters outside
// [a-z0-9] into a single hyphen, trimming hyphens from both ends.
func slugify(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	pendingHyphen := false
	for _, r := range strings.ToLower(raw) {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
		default:
			pendingHyphen = true
		}
	}
	return b.String()
}
