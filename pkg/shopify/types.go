package shopify

import (
	"fmt"
	"strings"

	"go.uber.org/multierr"

	pkgerrors "github.com/pixobe/shopify-product-designer-dev-sub000/pkg/errors"
)

// Session identifies the shop an admin API call runs against.
type Session struct {
	Shop        string
	AccessToken string
}

// Valid reports whether the session can authenticate an admin call.
func (s Session) Valid() bool {
	return strings.TrimSpace(s.Shop) != "" && strings.TrimSpace(s.AccessToken) != ""
}

// GraphQLError is a top-level error returned by the admin API.
type GraphQLError struct {
	Message    string         `json:"message"`
	Path       []any          `json:"path,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

func (e GraphQLError) extensionCode() string {
	if e.Extensions == nil {
		return ""
	}
	if code, ok := e.Extensions["code"].(string); ok {
		return code
	}
	return ""
}

// UserError is a field-level error attached to a mutation payload.
type UserError struct {
	Field   []string `json:"field,omitempty"`
	Message string   `json:"message"`
}

// UserErrorsToError folds mutation userErrors into a single dependency error,
// or nil when the slice is empty.
func UserErrorsToError(operation string, userErrors []UserError) error {
	if len(userErrors) == 0 {
		return nil
	}
	var combined error
	for _, ue := range userErrors {
		msg := ue.Message
		if len(ue.Field) > 0 {
			msg = fmt.Sprintf("%s: %s", strings.Join(ue.Field, "."), ue.Message)
		}
		combined = multierr.Append(combined, fmt.Errorf("%s", msg))
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, combined, fmt.Sprintf("%s reported user errors", operation))
}

// Metafield is the subset of a metafield node the app reads back.
type Metafield struct {
	ID         string              `json:"id,omitempty"`
	Namespace  string              `json:"namespace,omitempty"`
	Key        string              `json:"key,omitempty"`
	Type       string              `json:"type,omitempty"`
	Value      string              `json:"value,omitempty"`
	References *ReferenceConnection `json:"references,omitempty"`
}

// ReferenceConnection carries the nodes of a reference-list metafield.
type ReferenceConnection struct {
	Nodes []MetaobjectNode `json:"nodes,omitempty"`
}

// MetaobjectNode is a metaobject with its key/value field pairs.
type MetaobjectNode struct {
	ID     string            `json:"id,omitempty"`
	Handle string            `json:"handle,omitempty"`
	Type   string            `json:"type,omitempty"`
	Fields []MetaobjectField `json:"fields,omitempty"`
}

// MetaobjectField is one key/value pair on a metaobject.
type MetaobjectField struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// FieldValue returns the value stored under key, if present.
func (n MetaobjectNode) FieldValue(key string) (string, bool) {
	for _, f := range n.Fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return "", false
}
