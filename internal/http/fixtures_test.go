package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/guttosm/bundle-service/internal/domain/model"
	"github.com/guttosm/bundle-service/internal/repository"
	"github.com/guttosm/bundle-service/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func intPtr(v int) *int       { return &v }
func int64Ptr(v int64) *int64 { return &v }

// giftBox is a bundle of three products where a wrap is mandatory and three
// items earn a 10% discount.
func giftBox() model.Bundle {
	ten := decimal.NewFromInt(10)
	return model.Bundle{
		ID:    "gift-box",
		Title: "Build your gift box",
		Products: []model.Product{
			{
				ID: "candle", Title: "Candle", VariantGID: "gid://shopify/ProductVariant/4410", PriceCents: 500,
				Variants: []model.Variant{{ID: "gid://shopify/ProductVariant/4411", Title: "Large", PriceCents: 650}},
			},
			{ID: "soap", Title: "Soap", VariantGID: "gid://shopify/ProductVariant/4420", PriceCents: 300},
			{ID: "mug", Title: "Mug", VariantGID: "gid://shopify/ProductVariant/4430", PriceCents: 800},
		},
		WrappingOptions: []model.AddOn{{ID: "kraft", Name: "Kraft paper", PriceCents: 300, ShopifyVariantID: "gid://shopify/ProductVariant/5001"}},
		WrapRequired:    true,
		Cards:           []model.AddOn{{ID: "birthday", Name: "Birthday card", PriceCents: 0, ShopifyVariantID: "5002"}},
		MinItems:        intPtr(2),
		MaxItems:        intPtr(3),
		PricingType:     model.PricingNone,
		TierPrices: []model.TierRule{
			{MinQuantity: 3, PricingType: model.PricingDiscountPercent, ValuePercent: &ten},
		},
	}
}

// fakeStorefront records prepare and cart calls.
type fakeStorefront struct {
	mu         sync.Mutex
	prepared   []model.PrepareRequest
	batches    [][]model.LineItem
	discount   string
	prepareErr error
	cartErr    error
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

type testEnv struct {
	router     *gin.Engine
	storefront *fakeStorefront
	bundles    service.BundleService
}

// newTestEnv wires the real services over an in-memory catalog seeded with giftBox.
func newTestEnv(t *testing.T, cfg RouterConfig) *testEnv {
	t.Helper()

	bundles := service.NewBundleService(repository.NewMemoryBundleRepository())
	require.NoError(t, bundles.Seed(context.Background(), []model.Bundle{giftBox()}))

	storefront := &fakeStorefront{}
	engine := service.NewPricingService()
	submitter := service.NewCartSubmissionService(engine, storefront, storefront)
	sessions := service.NewSessionService(service.NewMemorySessionStore(time.Hour), bundles, engine, submitter)

	router := NewRouter(
		NewHandler(bundles, engine, submitter),
		NewSessionHandler(sessions, nil),
		NewHealthHandler(),
		cfg,
	)
	return &testEnv{router: router, storefront: storefront, bundles: bundles}
}

func performRequest(router http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// successData decodes the data field of a success envelope into T.
func successData[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var envelope struct {
		Data    json.RawMessage `json:"data"`
		Message string          `json:"message"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope), w.Body.String())

	var out T
	require.NoError(t, json.Unmarshal(envelope.Data, &out))
	return out
}
