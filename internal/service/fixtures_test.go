package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/guttosm/bundle-service/internal/domain/model"
)

func intPtr(v int) *int       { return &v }
func int64Ptr(v int64) *int64 { return &v }

func percent(v string) *decimal.Decimal {
	d := decimal.RequireFromString(v)
	return &d
}

// giftBox requires a wrap, takes two or three products and gives 10% off at three.
func giftBox() model.Bundle {
	return model.Bundle{
		ID:    "gift-box",
		Title: "Build your gift box",
		Products: []model.Product{
			{
				ID: "candle", Title: "Candle", VariantGID: "gid://shopify/ProductVariant/4410", PriceCents: 500,
				Variants: []model.Variant{
					{ID: "gid://shopify/ProductVariant/4411", Title: "Large", PriceCents: 650},
					{ID: "gid://shopify/ProductVariant/4412", Title: "Travel", PriceCents: 400},
				},
			},
			{ID: "soap", Title: "Soap", VariantGID: "gid://shopify/ProductVariant/4420", PriceCents: 300},
			{ID: "mug", Title: "Mug", VariantGID: "gid://shopify/ProductVariant/4430", PriceCents: 800},
		},
		WrappingOptions: []model.AddOn{
			{ID: "kraft", Name: "Kraft paper", PriceCents: 300, ShopifyVariantID: "gid://shopify/ProductVariant/5001"},
			{ID: "ribbon", Name: "Ribbon only", PriceCents: 100},
		},
		WrapRequired: true,
		Cards:        []model.AddOn{{ID: "birthday", Name: "Birthday card", PriceCents: 0, ShopifyVariantID: "5002"}},
		MinItems:     intPtr(2),
		MaxItems:     intPtr(3),
		PricingType:  model.PricingNone,
		TierPrices: []model.TierRule{
			{MinQuantity: 3, PricingType: model.PricingDiscountPercent, ValuePercent: percent("10")},
		},
		Revision: 1,
	}
}

// selectionOf replays actions on an empty selection and fails the test on error.
func selectionOf(t *testing.T, b *model.Bundle, actions ...model.Action) model.Selection {
	t.Helper()
	s, err := model.NewSelection(b.ID).ApplyAll(b, actions)
	require.NoError(t, err)
	return s
}

func pick(ids ...string) []model.Action {
	actions := make([]model.Action, 0, len(ids))
	for _, id := range ids {
		actions = append(actions, model.Action{Type: model.ActionSelectProduct, ProductID: id})
	}
	return actions
}

func wrap(id string) model.Action {
	return model.Action{Type: model.ActionChooseWrap, AddOnID: id}
}

func newSubmitter(sf *fakeStorefront, opts ...SubmissionOption) *CartSubmissionService {
	return NewCartSubmissionService(NewPricingService(), sf, sf, opts...)
}

func newSession(id string) *model.Session {
	now := time.Now().UTC()
	return &model.Session{
		ID:        id,
		BundleID:  "gift-box",
		Selection: model.NewSelection("gift-box"),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// fakeStorefront records prepare and cart calls. block, when set, holds
// AddItems until it is closed.
type fakeStorefront struct {
	mu         sync.Mutex
	prepared   []model.PrepareRequest
	batches    [][]model.LineItem
	discount   string
	prepareErr error
	cartErr    error
	block      chan struct{}
	entered    chan struct{}
}

func (f *fakeStorefront) Prepare(_ context.Context, req model.PrepareRequest) (*model.PrepareResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prepared = append(f.prepared, req)
	if f.prepareErr != nil {
		return nil, f.prepareErr
	}
	return &model.PrepareResponse{DiscountCode: f.discount}, nil
}

func (f *fakeStorefront) AddItems(_ context.Context, items []model.LineItem) error {
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.block != nil {
		<-f.block
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cartErr != nil {
		return f.cartErr
	}
	f.batches = append(f.batches, items)
	return nil
}

func (f *fakeStorefront) cartCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.batches)
}

func (f *fakeStorefront) prepareCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prepared)
}
