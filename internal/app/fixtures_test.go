package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/guttosm/bundle-service/config"
)

const catalogYAML = `
bundles:
  - id: gift-box
    title: Build your gift box
    products:
      - id: candle
        variant_gid: gid://shopify/ProductVariant/4410
        price_cents: 500
      - id: soap
        variant_gid: gid://shopify/ProductVariant/4420
        price_cents: 300
      - id: mug
        variant_gid: gid://shopify/ProductVariant/4430
        price_cents: 800
    wrapping_options:
      - id: kraft
        name: Kraft paper
        price_cents: 300
        shopify_variant_id: gid://shopify/ProductVariant/5001
    wrap_required: true
    min_items: 2
    max_items: 3
    pricing_type: NONE
    tier_prices:
      - min_quantity: 3
        pricing_type: DISCOUNT_PERCENT
        value_percent: "10"
`

func init() {
	gin.SetMode(gin.TestMode)
}

// writeCatalog writes contents to a catalog file inside a test temp dir.
func writeCatalog(t *testing.T, name, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

// testConfig is an in-memory configuration seeded from the test catalog.
func testConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		Server: config.ServerConfig{
			Port:       "8080",
			RateLimit:  100,
			RateWindow: time.Minute,
		},
		Log: config.LogConfig{Level: "error"},
		Cache: config.CacheConfig{
			Size:      100,
			TTL:       time.Minute,
			BundleTTL: time.Minute,
		},
		Redis: config.RedisConfig{KeyPrefix: "bundle-service-test:", SessionTTL: time.Hour},
		Database: config.DatabaseConfig{
			CircuitBreakerFailureThreshold: 5,
			CircuitBreakerSuccessThreshold: 2,
			CircuitBreakerTimeout:          time.Second,
		},
		Storefront: config.StorefrontConfig{
			CartRedirectURL:     "/cart",
			CheckoutRedirectURL: "/checkout",
			Timeout:             2 * time.Second,
		},
		Catalog: config.CatalogConfig{File: writeCatalog(t, "bundles.yaml", catalogYAML)},
	}
}

func newServices(t *testing.T, cfg config.Config) *ServiceComponents {
	t.Helper()
	components, err := InitializeServices(cfg, nil, nil)
	require.NoError(t, err)
	return components
}

func newApp(t *testing.T, cfg config.Config) *Application {
	t.Helper()
	application, err := InitializeApp(cfg)
	require.NoError(t, err)
	return application
}
