package shopify

import (
	"math"
	"strconv"
	"strings"
)

// EntityKind names a platform entity addressable by global id.
type EntityKind string

const (
	KindProduct        EntityKind = "Product"
	KindProductVariant EntityKind = "ProductVariant"
	KindMetaobject     EntityKind = "Metaobject"
	KindOrder          EntityKind = "Order"
)

const gidRoot = "gid://shopify/"

// Prefix returns the canonical global-id prefix for the kind.
func (k EntityKind) Prefix() string {
	return gidRoot + string(k) + "/"
}

// NormalizeID canonicalizes a loosely-typed identifier into the
// `gid://shopify/<Kind>/<digits>` form. Canonical input passes through
// unchanged, bare digit strings and numbers get the prefix prepended, and any
// other non-empty string is returned trimmed as-is so future id formats keep
// working. Empty or unsupported input yields "". NormalizeID never fails.
func NormalizeID(kind EntityKind, value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return normalizeString(kind, v)
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return ""
		}
		return kind.Prefix() + strconv.FormatInt(int64(v), 10)
	case float32:
		return NormalizeID(kind, float64(v))
	case int:
		return kind.Prefix() + strconv.Itoa(v)
	case int64:
		return kind.Prefix() + strconv.FormatInt(v, 10)
	default:
		return ""
	}
}

func normalizeString(kind EntityKind, raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	if IsCanonicalID(kind, trimmed) {
		return trimmed
	}
	if isDigits(trimmed) {
		return kind.Prefix() + trimmed
	}
	// Permissive passthrough; callers log these so a malformed id from an
	// upstream bug still shows up in the trail.
	return trimmed
}

// IsCanonicalID reports whether id already carries the canonical prefix for
// the kind followed by a numeric tail.
func IsCanonicalID(kind EntityKind, id string) bool {
	rest, ok := strings.CutPrefix(id, kind.Prefix())
	if !ok {
		return false
	}
	return isDigits(rest)
}

// LegacyID returns the trailing path segment of a global id, or the input
// unchanged when it has no path separator.
func LegacyID(id string) string {
	if idx := strings.LastIndexByte(id, '/'); idx >= 0 {
		return id[idx+1:]
	}
	return id
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
