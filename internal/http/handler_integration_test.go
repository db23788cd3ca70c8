//go:build integration

package http

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guttosm/bundle-service/internal/circuitbreaker"
	"github.com/guttosm/bundle-service/internal/domain/dto"
	"github.com/guttosm/bundle-service/internal/domain/model"
	"github.com/guttosm/bundle-service/internal/repository"
	"github.com/guttosm/bundle-service/internal/service"
	"github.com/guttosm/bundle-service/internal/testutil"
)

// setupMongoRouter wires the HTTP stack over a MongoDB catalog and logs collection.
func setupMongoRouter(t *testing.T, dbName string) (*gin.Engine, *repository.MongoDB, *fakeStorefront) {
	t.Helper()

	db, err := repository.NewMongoDB(testutil.MongoURI(t), dbName)
	require.NoError(t, err)

	bundleRepo := repository.NewBundleRepositoryWithCircuitBreaker(
		repository.NewBundleRepository(db),
		circuitbreaker.New(circuitbreaker.DefaultConfig()),
	)
	bundles := service.NewBundleService(bundleRepo)
	require.NoError(t, bundles.Seed(context.Background(), []model.Bundle{giftBox()}))

	logsRepo := repository.NewLogsRepositoryWithCircuitBreaker(
		repository.NewLogsRepository(db),
		circuitbreaker.New(circuitbreaker.DefaultConfig()),
	)
	loggingService := service.NewLoggingService(logsRepo)

	storefront := &fakeStorefront{}
	engine := service.NewPricingService(service.WithQuoteCache(100, time.Minute))
	submitter := service.NewCartSubmissionService(engine, storefront, storefront)
	sessions := service.NewSessionService(service.NewMemorySessionStore(time.Hour), bundles, engine, submitter)

	healthHandler := NewHealthHandler()
	healthHandler.RegisterChecker("mongodb", HealthCheckFunc(db.HealthCheck))

	cfg := DefaultRouterConfig()
	cfg.LoggingService = loggingService

	router := NewRouter(
		NewHandler(bundles, engine, submitter, WithLoggingService(loggingService)),
		NewSessionHandler(sessions, loggingService),
		healthHandler,
		cfg,
	)
	return router, db, storefront
}

func TestHandler_MongoCatalog_Integration(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	router, db, storefront := setupMongoRouter(t, testutil.DatabaseName(t))
	defer func() {
		_ = db.Close(ctx)
	}()

	t.Run("bundle round-trips through MongoDB", func(t *testing.T) {
		w := performRequest(router, http.MethodGet, "/api/bundles/gift-box", "", nil)

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		bundle := successData[model.Bundle](t, w)
		want := giftBox()
		assert.Equal(t, want.Title, bundle.Title)
		assert.Equal(t, want.Products, bundle.Products)
		assert.Equal(t, want.WrappingOptions, bundle.WrappingOptions)
		require.Len(t, bundle.TierPrices, 1)
		assert.True(t, want.TierPrices[0].ValuePercent.Equal(*bundle.TierPrices[0].ValuePercent))
		assert.Equal(t, 2, *bundle.MinItems)
	})

	t.Run("quote against stored bundle", func(t *testing.T) {
		w := performRequest(router, http.MethodPost, "/api/bundles/gift-box/quote",
			`{"selection":{"products":[{"product_id":"candle"},{"product_id":"soap"},{"product_id":"mug"}],"wrap_id":"kraft"}}`, nil)

		require.Equal(t, http.StatusOK, w.Code)
		resp := successData[dto.QuoteResponse](t, w)
		// 1600 - 10% + 300 wrap
		assert.Equal(t, int64(1740), resp.Quote.UnitPriceCents)
		assert.True(t, resp.Quote.Valid)
	})

	t.Run("session submission", func(t *testing.T) {
		w := performRequest(router, http.MethodPost, "/api/bundles/gift-box/sessions", "", nil)
		require.Equal(t, http.StatusCreated, w.Code)
		opened := successData[dto.SessionResponse](t, w)
		base := "/api/sessions/" + opened.Session.ID

		w = performRequest(router, http.MethodPost, base+"/actions",
			`{"actions":[{"type":"select_product","product_id":"candle"},{"type":"select_product","product_id":"soap"},{"type":"choose_wrap","addon_id":"kraft"}]}`, nil)
		require.Equal(t, http.StatusOK, w.Code)

		w = performRequest(router, http.MethodPost, base+"/cart", "", nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, 1, storefront.cartCalls())
	})

	t.Run("readiness checks MongoDB", func(t *testing.T) {
		w := performRequest(router, http.MethodGet, "/readyz", "", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"mongodb":{"status":"ok"`)
	})
}

func TestHandler_AuditLogs_Integration(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	router, db, _ := setupMongoRouter(t, testutil.DatabaseName(t))
	defer func() {
		_ = db.Close(ctx)
	}()

	w := performRequest(router, http.MethodPost, "/api/bundles/gift-box/quote",
		`{"actions":[{"type":"select_product","product_id":"candle"}]}`, nil)
	require.Equal(t, http.StatusOK, w.Code)

	logsRepo := repository.NewLogsRepository(db)
	require.Eventually(t, func() bool {
		logs, err := logsRepo.Query(ctx, repository.LogQueryOptions{
			BundleID:   "gift-box",
			ActionType: model.AuditActionQuote,
		})
		return err == nil && len(logs) >= 1
	}, 5*time.Second, 100*time.Millisecond)

	require.Eventually(t, func() bool {
		logs, err := logsRepo.Query(ctx, repository.LogQueryOptions{Path: "/api/bundles/gift-box/quote"})
		return err == nil && len(logs) >= 2
	}, 5*time.Second, 100*time.Millisecond)
}
