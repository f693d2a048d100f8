package designer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/pixobe/shopify-product-designer-dev-sub000/pkg/config"
	pkgerrors "github.com/pixobe/shopify-product-designer-dev-sub000/pkg/errors"
	"github.com/pixobe/shopify-product-designer-dev-sub000/pkg/shopify"
)

type stubMediaGateway struct {
	refs []string

	createErr   error
	updateErr   error
	setErr      error
	deleteErr   error
	fetchErrs   []error
	createdID   string
	createCalls []string
	updateCalls []string
	setCalls    [][]string
	deleteCalls []string
	fetchCalls  int
}

func (s *stubMediaGateway) CreateMediaMetaobject(ctx context.Context, session shopify.Session, handle, configJSON string) (string, error) {
	if s.createErr != nil {
		return "", s.createErr
	}
	s.createCalls = append(s.createCalls, configJSON)
	if s.createdID == "" {
		s.createdID = "gid://shopify/Metaobject/900"
	}
	return s.createdID, nil
}

func (s *stubMediaGateway) UpdateMediaMetaobject(ctx context.Context, session shopify.Session, id, handle, configJSON string) (string, error) {
	if s.updateErr != nil {
		return "", s.updateErr
	}
	s.updateCalls = append(s.updateCalls, id)
	return id, nil
}

func (s *stubMediaGateway) DeleteMediaMetaobject(ctx context.Context, session shopify.Session, id string) error {
	s.deleteCalls = append(s.deleteCalls, id)
	return s.deleteErr
}

func (s *stubMediaGateway) SetVariantMediaReferences(ctx context.Context, session shopify.Session, variantID string, metaobjectIDs []string) error {
	if s.setErr != nil {
		return s.setErr
	}
	s.setCalls = append(s.setCalls, metaobjectIDs)
	s.refs = metaobjectIDs
	return nil
}

func (s *stubMediaGateway) VariantWithMedia(ctx context.Context, session shopify.Session, variantID string) (*VariantNode, error) {
	if s.fetchCalls < len(s.fetchErrs) {
		err := s.fetchErrs[s.fetchCalls]
		s.fetchCalls++
		if err != nil {
			return nil, err
		}
	} else {
		s.fetchCalls++
	}
	value, _ := json.Marshal(s.refs)
	return &VariantNode{
		ID:        variantID,
		Title:     "Default Title",
		Metafield: &shopify.Metafield{Value: string(value)},
	}, nil
}

func testReconciler(t *testing.T, gateway *stubMediaGateway) *Reconciler {
	t.Helper()
	codec, err := NewCodec(config.DesignerConfig{HandlePrefix: "pixobe-design"})
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	reconciler, err := NewReconciler(gateway, codec, nil, 2)
	if err != nil {
		t.Fatalf("NewReconciler: %v", err)
	}
	return reconciler
}

func testSession() shopify.Session {
	return shopify.Session{Shop: "demo.myshopify.com", AccessToken: "shpat_test"}
}

func TestAddMediaCreatesMetaobjectAndSetsReferenceList(t *testing.T) {
	t.Parallel()

	gateway := &stubMediaGateway{}
	reconciler := testReconciler(t, gateway)

	next, err := reconciler.AddMediaToVariant(context.Background(), testSession(), "gid://shopify/ProductVariant/100", MediaEntry{
		ID:  "img1",
		URL: "https://x/1.png",
	})
	if err != nil {
		t.Fatalf("AddMediaToVariant: %v", err)
	}

	if len(gateway.createCalls) != 1 {
		t.Fatalf("expected one metaobject create, got %d", len(gateway.createCalls))
	}
	if !strings.Contains(gateway.createCalls[0], `"variantId":"gid://shopify/ProductVariant/100"`) {
		t.Fatalf("config missing stamped variant id: %s", gateway.createCalls[0])
	}
	if len(gateway.setCalls) != 1 {
		t.Fatalf("expected one metafield set, got %d", len(gateway.setCalls))
	}
	if len(next) != 1 || next[0] != gateway.createdID {
		t.Fatalf("expected single-element list with new id, got %#v", next)
	}
}

func TestAddMediaAcceptsNumericVariantID(t *testing.T) {
	t.Parallel()

	gateway := &stubMediaGateway{}
	reconciler := testReconciler(t, gateway)

	_, err := reconciler.AddMediaToVariant(context.Background(), testSession(), float64(100), MediaEntry{ID: "img1"})
	if err != nil {
		t.Fatalf("AddMediaToVariant: %v", err)
	}
	if !strings.Contains(gateway.createCalls[0], `"variantId":"gid://shopify/ProductVariant/100"`) {
		t.Fatalf("numeric variant id not canonicalized: %s", gateway.createCalls[0])
	}
}

func TestAddMediaDedupesReferenceList(t *testing.T) {
	t.Parallel()

	moid := "gid://shopify/Metaobject/777"
	gateway := &stubMediaGateway{refs: []string{moid}}
	reconciler := testReconciler(t, gateway)

	next, err := reconciler.AddMediaToVariant(context.Background(), testSession(), "gid://shopify/ProductVariant/100", MediaEntry{
		ID:           "img1",
		MetaobjectID: moid,
	})
	if err != nil {
		t.Fatalf("AddMediaToVariant: %v", err)
	}

	if len(gateway.updateCalls) != 1 || gateway.updateCalls[0] != moid {
		t.Fatalf("expected update of existing metaobject, got %#v", gateway.updateCalls)
	}
	if len(gateway.setCalls) != 0 {
		t.Fatalf("unchanged list should skip the metafield write, got %#v", gateway.setCalls)
	}
	if len(next) != 1 || next[0] != moid {
		t.Fatalf("expected list unchanged, got %#v", next)
	}
}

func TestAddMediaRejectsMissingVariantID(t *testing.T) {
	t.Parallel()

	reconciler := testReconciler(t, &stubMediaGateway{})
	_, err := reconciler.AddMediaToVariant(context.Background(), testSession(), "   ", MediaEntry{ID: "img1"})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestAddMediaDeletesOrphanWhenReferenceWriteFails(t *testing.T) {
	t.Parallel()

	gateway := &stubMediaGateway{setErr: pkgerrors.New(pkgerrors.CodeDependency, "metafieldsSet reported user errors")}
	reconciler := testReconciler(t, gateway)

	_, err := reconciler.AddMediaToVariant(context.Background(), testSession(), "gid://shopify/ProductVariant/100", MediaEntry{ID: "img1"})
	if err == nil {
		t.Fatalf("expected reference write failure to surface")
	}
	if len(gateway.deleteCalls) != 1 || gateway.deleteCalls[0] != gateway.createdID {
		t.Fatalf("expected orphaned metaobject deleted, got %#v", gateway.deleteCalls)
	}
}

func TestAddMediaRetriesThrottledReads(t *testing.T) {
	t.Parallel()

	gateway := &stubMediaGateway{
		fetchErrs: []error{pkgerrors.New(pkgerrors.CodeRateLimit, "throttled")},
	}
	reconciler := testReconciler(t, gateway)

	next, err := reconciler.AddMediaToVariant(context.Background(), testSession(), "gid://shopify/ProductVariant/100", MediaEntry{ID: "img1"})
	if err != nil {
		t.Fatalf("expected throttled read to be retried, got %v", err)
	}
	if gateway.fetchCalls < 2 {
		t.Fatalf("expected at least two fetches, got %d", gateway.fetchCalls)
	}
	if len(next) != 1 {
		t.Fatalf("expected single-element list, got %#v", next)
	}
}

func TestConcurrentAddsDoNotLoseUpdates(t *testing.T) {
	t.Parallel()

	gateway := &stubMediaGateway{}
	reconciler := testReconciler(t, gateway)

	ids := []string{"gid://shopify/Metaobject/1", "gid://shopify/Metaobject/2", "gid://shopify/Metaobject/3"}
	var wg sync.WaitGroup
	for i, moid := range ids {
		wg.Add(1)
		go func(i int, moid string) {
			defer wg.Done()
			_, err := reconciler.AddMediaToVariant(context.Background(), testSession(), "gid://shopify/ProductVariant/100", MediaEntry{
				ID:           fmt.Sprintf("img%d", i),
				MetaobjectID: moid,
			})
			if err != nil {
				t.Errorf("AddMediaToVariant(%s): %v", moid, err)
			}
		}(i, moid)
	}
	wg.Wait()

	if len(gateway.refs) != len(ids) {
		t.Fatalf("lost update: expected %d references, got %#v", len(ids), gateway.refs)
	}
}

func TestRemoveMediaSkipsWriteWhenIDAbsent(t *testing.T) {
	t.Parallel()

	gateway := &stubMediaGateway{refs: []string{"gid://shopify/Metaobject/1", "gid://shopify/Metaobject/2"}}
	reconciler := testReconciler(t, gateway)

	unknown := "gid://shopify/Metaobject/999"
	next, err := reconciler.RemoveMediaFromVariant(context.Background(), testSession(), "gid://shopify/ProductVariant/100", unknown)
	if err != nil {
		t.Fatalf("RemoveMediaFromVariant: %v", err)
	}

	if len(gateway.setCalls) != 0 {
		t.Fatalf("absent id should not trigger a metafield write, got %#v", gateway.setCalls)
	}
	if len(gateway.deleteCalls) != 1 || gateway.deleteCalls[0] != unknown {
		t.Fatalf("delete must still be attempted, got %#v", gateway.deleteCalls)
	}
	if len(next) != 2 {
		t.Fatalf("expected list untouched, got %#v", next)
	}
}

func TestRemoveMediaFiltersAndDeletes(t *testing.T) {
	t.Parallel()

	keep := "gid://shopify/Metaobject/1"
	drop := "gid://shopify/Metaobject/2"
	gateway := &stubMediaGateway{refs: []string{keep, drop}}
	reconciler := testReconciler(t, gateway)

	next, err := reconciler.RemoveMediaFromVariant(context.Background(), testSession(), "gid://shopify/ProductVariant/100", drop)
	if err != nil {
		t.Fatalf("RemoveMediaFromVariant: %v", err)
	}
	if len(next) != 1 || next[0] != keep {
		t.Fatalf("expected filtered list, got %#v", next)
	}
	if len(gateway.setCalls) != 1 {
		t.Fatalf("expected one metafield write, got %d", len(gateway.setCalls))
	}
	if len(gateway.deleteCalls) != 1 || gateway.deleteCalls[0] != drop {
		t.Fatalf("expected metaobject deleted, got %#v", gateway.deleteCalls)
	}
}

func TestRemoveMediaSwallowsDeleteFailure(t *testing.T) {
	t.Parallel()

	drop := "gid://shopify/Metaobject/2"
	gateway := &stubMediaGateway{
		refs:      []string{drop},
		deleteErr: pkgerrors.New(pkgerrors.CodeNotFound, "metaobject already deleted"),
	}
	reconciler := testReconciler(t, gateway)

	next, err := reconciler.RemoveMediaFromVariant(context.Background(), testSession(), "gid://shopify/ProductVariant/100", drop)
	if err != nil {
		t.Fatalf("delete failure must be non-fatal, got %v", err)
	}
	if len(next) != 0 {
		t.Fatalf("expected empty list, got %#v", next)
	}
}
