package sweep

import (
	"context"

	"github.com/pixobe/shopify-product-designer-dev-sub000/internal/designer"
	pkgerrors "github.com/pixobe/shopify-product-designer-dev-sub000/pkg/errors"
	"github.com/pixobe/shopify-product-designer-dev-sub000/pkg/logger"
	"github.com/pixobe/shopify-product-designer-dev-sub000/pkg/shopify"
)

type sweepGateway interface {
	ListMediaMetaobjects(ctx context.Context, session shopify.Session, after string) (*designer.MetaobjectPage, error)
	VariantExists(ctx context.Context, session shopify.Session, variantID string) (bool, error)
	DeleteMediaMetaobject(ctx context.Context, session shopify.Session, id string) error
}

type sessionResolver interface {
	SessionFor(ctx context.Context, shop string) (shopify.Session, error)
}

// Sweeper walks every designer metaobject for a shop and deletes the ones
// whose variant has been removed. Product-level entries (no variant
// assignment) are left alone, as are entries whose config no longer parses.
type Sweeper struct {
	gateway  sweepGateway
	sessions sessionResolver
	codec    *designer.Codec
	logg     *logger.Logger
}

// NewSweeper constructs the orphan sweeper.
func NewSweeper(gateway sweepGateway, sessions sessionResolver, codec *designer.Codec, logg *logger.Logger) (*Sweeper, error) {
	if gateway == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sweep gateway required")
	}
	if sessions == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session resolver required")
	}
	if codec == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "codec required")
	}
	return &Sweeper{gateway: gateway, sessions: sessions, codec: codec, logg: logg}, nil
}

// Sweep deletes orphaned metaobjects for the shop and returns how many were
// removed. Variant existence is checked once per distinct variant id.
func (s *Sweeper) Sweep(ctx context.Context, shop string) (int, error) {
	session, err := s.sessions.SessionFor(ctx, shop)
	if err != nil {
		return 0, err
	}

	deleted := 0
	known := make(map[string]bool)
	after := ""
	for {
		page, err := s.gateway.ListMediaMetaobjects(ctx, session, after)
		if err != nil {
			return deleted, err
		}
		for _, node := range page.Nodes {
			removed, err := s.sweepNode(ctx, session, node, known)
			if err != nil {
				return deleted, err
			}
			if removed {
				deleted++
			}
		}
		if !page.HasNextPage || page.EndCursor == "" {
			break
		}
		after = page.EndCursor
	}

	if s.logg != nil && deleted > 0 {
		ctx = s.logg.WithFields(ctx, map[string]any{"shop": shop, "deleted": deleted})
		s.logg.Info(ctx, "orphaned metaobjects swept")
	}
	return deleted, nil
}

func (s *Sweeper) sweepNode(ctx context.Context, session shopify.Session, node shopify.MetaobjectNode, known map[string]bool) (bool, error) {
	raw, ok := node.FieldValue("config")
	if !ok {
		return false, nil
	}
	entry := s.codec.Decode(raw)
	if entry == nil || entry.VariantID == "" {
		return false, nil
	}

	exists, checked := known[entry.VariantID]
	if !checked {
		var err error
		exists, err = s.gateway.VariantExists(ctx, session, entry.VariantID)
		if err != nil {
			return false, err
		}
		known[entry.VariantID] = exists
	}
	if exists {
		return false, nil
	}

	if err := s.gateway.DeleteMediaMetaobject(ctx, session, node.ID); err != nil {
		if s.logg != nil {
			logCtx := s.logg.WithField(ctx, "metaobject_id", node.ID)
			s.logg.Warn(logCtx, "orphan delete failed, will retry on next sweep")
		}
		return false, nil
	}
	return true, nil
}
