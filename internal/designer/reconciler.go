package designer

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"

	pkgerrors "github.com/pixobe/shopify-product-designer-dev-sub000/pkg/errors"
	"github.com/pixobe/shopify-product-designer-dev-sub000/pkg/logger"
	"github.com/pixobe/shopify-product-designer-dev-sub000/pkg/shopify"
)

const (
	defaultRetryAttempts = 3
	retryBaseBackoff     = 200 * time.Millisecond
)

type mediaGateway interface {
	CreateMediaMetaobject(ctx context.Context, session shopify.Session, handle, configJSON string) (string, error)
	UpdateMediaMetaobject(ctx context.Context, session shopify.Session, id, handle, configJSON string) (string, error)
	DeleteMediaMetaobject(ctx context.Context, session shopify.Session, id string) error
	SetVariantMediaReferences(ctx context.Context, session shopify.Session, variantID string, metaobjectIDs []string) error
	VariantWithMedia(ctx context.Context, session shopify.Session, variantID string) (*VariantNode, error)
}

// Reconciler keeps a variant's media reference list consistent with the
// metaobjects backing it. Writes to the same variant are serialized through a
// per-variant lock so concurrent adds cannot lose each other's update, and
// throttled admin API calls are retried with exponential backoff.
type Reconciler struct {
	gateway       mediaGateway
	codec         *Codec
	logger        *logger.Logger
	retryAttempts uint64

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewReconciler constructs the reconciler shared by the media handlers.
func NewReconciler(gateway mediaGateway, codec *Codec, logg *logger.Logger, retryAttempts int) (*Reconciler, error) {
	if gateway == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "media gateway required")
	}
	if codec == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "codec required")
	}
	if retryAttempts <= 0 {
		retryAttempts = defaultRetryAttempts
	}
	return &Reconciler{
		gateway:       gateway,
		codec:         codec,
		logger:        logg,
		retryAttempts: uint64(retryAttempts),
		locks:         make(map[string]*sync.Mutex),
	}, nil
}

// AddMediaToVariant persists the entry as a metaobject, then appends its id
// to the variant's reference list if not already present. Returns the
// resulting list.
func (r *Reconciler) AddMediaToVariant(ctx context.Context, session shopify.Session, variantID any, entry MediaEntry) ([]string, error) {
	vid, err := r.requireVariantID(ctx, variantID)
	if err != nil {
		return nil, err
	}
	entry.VariantID = vid

	unlock := r.lockVariant(session.Shop, vid)
	defer unlock()

	resolvedID, created, err := r.persistEntry(ctx, session, entry)
	if err != nil {
		return nil, err
	}

	var next []string
	err = r.withThrottleRetry(ctx, func(ctx context.Context) error {
		variant, err := r.gateway.VariantWithMedia(ctx, session, vid)
		if err != nil {
			return err
		}
		existing := ReferenceIDs(variant.Metafield)
		next = appendUnique(existing, resolvedID)
		if slicesEqual(next, existing) {
			return nil
		}
		return r.gateway.SetVariantMediaReferences(ctx, session, vid, next)
	})
	if err != nil {
		if created {
			r.compensateCreate(ctx, session, resolvedID)
		}
		return nil, err
	}
	return next, nil
}

// RemoveMediaFromVariant drops the metaobject id from the variant's reference
// list, skipping the write when the id was not present, then deletes the
// metaobject itself. A failed delete is logged and swallowed so that orphan
// cleanup of already-deleted records stays permissive.
func (r *Reconciler) RemoveMediaFromVariant(ctx context.Context, session shopify.Session, variantID, metaobjectID any) ([]string, error) {
	vid, err := r.requireVariantID(ctx, variantID)
	if err != nil {
		return nil, err
	}
	moid := shopify.NormalizeID(shopify.KindMetaobject, metaobjectID)
	if moid == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "metaobject id required")
	}

	unlock := r.lockVariant(session.Shop, vid)
	defer unlock()

	var next []string
	err = r.withThrottleRetry(ctx, func(ctx context.Context) error {
		variant, err := r.gateway.VariantWithMedia(ctx, session, vid)
		if err != nil {
			return err
		}
		existing := ReferenceIDs(variant.Metafield)
		next = filterOut(existing, moid)
		if len(next) == len(existing) {
			return nil
		}
		return r.gateway.SetVariantMediaReferences(ctx, session, vid, next)
	})
	if err != nil {
		return nil, err
	}

	if err := r.gateway.DeleteMediaMetaobject(ctx, session, moid); err != nil {
		if r.logger != nil {
			ctx = r.logger.WithFields(ctx, map[string]any{"metaobject_id": moid, "variant_id": vid})
			r.logger.Warn(ctx, "metaobject delete failed during media removal")
		}
	}
	return next, nil
}

// persistEntry creates or updates the metaobject backing the entry and
// returns its id plus whether a new record was created.
func (r *Reconciler) persistEntry(ctx context.Context, session shopify.Session, entry MediaEntry) (string, bool, error) {
	handle := r.codec.BuildHandle(entry)
	configJSON, err := r.codec.Encode(entry)
	if err != nil {
		return "", false, err
	}

	if entry.Persisted() {
		moid := shopify.NormalizeID(shopify.KindMetaobject, entry.MetaobjectID)
		var id string
		err = r.withThrottleRetry(ctx, func(ctx context.Context) error {
			id, err = r.gateway.UpdateMediaMetaobject(ctx, session, moid, handle, configJSON)
			return err
		})
		return id, false, err
	}

	var id string
	err = r.withThrottleRetry(ctx, func(ctx context.Context) error {
		id, err = r.gateway.CreateMediaMetaobject(ctx, session, handle, configJSON)
		return err
	})
	return id, err == nil, err
}

// compensateCreate deletes a metaobject that was created in this call but
// never made it into the variant's reference list.
func (r *Reconciler) compensateCreate(ctx context.Context, session shopify.Session, metaobjectID string) {
	if err := r.gateway.DeleteMediaMetaobject(ctx, session, metaobjectID); err != nil {
		if r.logger != nil {
			ctx = r.logger.WithField(ctx, "metaobject_id", metaobjectID)
			r.logger.Error(ctx, "orphaned metaobject cleanup failed", err)
		}
	}
}

func (r *Reconciler) requireVariantID(ctx context.Context, value any) (string, error) {
	vid := shopify.NormalizeID(shopify.KindProductVariant, value)
	if vid == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "variant id required")
	}
	if !shopify.IsCanonicalID(shopify.KindProductVariant, vid) && r.logger != nil {
		ctx = r.logger.WithField(ctx, "variant_id", vid)
		r.logger.Warn(ctx, "variant id passed through without canonical form")
	}
	return vid, nil
}

func (r *Reconciler) withThrottleRetry(ctx context.Context, fn func(ctx context.Context) error) error {
	backoff := retry.WithMaxRetries(r.retryAttempts, retry.NewExponential(retryBaseBackoff))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := fn(ctx)
		if err != nil && shopify.IsThrottled(err) {
			return retry.RetryableError(err)
		}
		return err
	})
}

// lockVariant serializes reference-list writes per shop and variant.
func (r *Reconciler) lockVariant(shop, variantID string) func() {
	key := shop + "|" + variantID
	r.mu.Lock()
	lock, ok := r.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		r.locks[key] = lock
	}
	r.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

func appendUnique(ids []string, id string) []string {
	out := make([]string, 0, len(ids)+1)
	seen := make(map[string]struct{}, len(ids)+1)
	for _, existing := range ids {
		existing = strings.TrimSpace(existing)
		if existing == "" {
			continue
		}
		if _, ok := seen[existing]; ok {
			continue
		}
		seen[existing] = struct{}{}
		out = append(out, existing)
	}
	if _, ok := seen[id]; !ok {
		out = append(out, id)
	}
	return out
}

func slicesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func filterOut(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, existing := range ids {
		if existing == id {
			continue
		}
		out = append(out, existing)
	}
	return out
}
