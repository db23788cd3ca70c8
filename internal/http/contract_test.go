//go:build contract

package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guttosm/bundle-service/internal/domain/dto"
)

// TestAPI_ContractCompliance validates that API responses match the documented contract.
func TestAPI_ContractCompliance(t *testing.T) {
	env := newTestEnv(t, DefaultRouterConfig())
	env.storefront.discount = "BUNDLE-7QX2"

	validSelection := `{"selection":{"products":[{"product_id":"candle"},{"product_id":"soap"}],"wrap_id":"kraft"}}`

	tests := []struct {
		name             string
		method           string
		path             string
		body             string
		expectedStatus   int
		validateResponse func(*testing.T, *httptest.ResponseRecorder)
	}{
		{
			name:           "GET /api/bundles - Success 200",
			method:         http.MethodGet,
			path:           "/api/bundles",
			expectedStatus: http.StatusOK,
			validateResponse: func(t *testing.T, w *httptest.ResponseRecorder) {
				data := envelopeData(t, w)
				assert.Contains(t, data, "bundles")
				assert.Contains(t, data, "count")

				bundle := data["bundles"].([]interface{})[0].(map[string]interface{})
				for _, field := range []string{"id", "title", "products", "wrapping_options", "wrap_required", "cards", "pricing_type", "tier_prices", "revision"} {
					assert.Contains(t, bundle, field)
				}
			},
		},
		{
			name:           "POST /api/bundles/{id}/quote - Success 200",
			method:         http.MethodPost,
			path:           "/api/bundles/gift-box/quote",
			body:           validSelection,
			expectedStatus: http.StatusOK,
			validateResponse: func(t *testing.T, w *httptest.ResponseRecorder) {
				data := envelopeData(t, w)
				assert.Contains(t, data, "selection")
				assert.Contains(t, data, "violations")

				quote := data["quote"].(map[string]interface{})
				for _, field := range []string{"unit_price_cents", "savings_cents", "subtotal_cents", "individual_total_cents", "addons_cents", "item_count", "valid", "violations"} {
					assert.Contains(t, quote, field)
				}
				assert.NotContains(t, quote, "applied_tier")
				assert.Equal(t, float64(1100), quote["unit_price_cents"])

				selection := data["selection"].(map[string]interface{})
				assert.Contains(t, selection, "selected_products")
				assert.Contains(t, selection, "selected_wrap")
			},
		},
		{
			name:           "POST /api/bundles/{id}/cart - Success 200",
			method:         http.MethodPost,
			path:           "/api/bundles/gift-box/cart",
			body:           validSelection,
			expectedStatus: http.StatusOK,
			validateResponse: func(t *testing.T, w *httptest.ResponseRecorder) {
				data := envelopeData(t, w)
				assert.Equal(t, "checkout", data["redirect"])
				assert.Equal(t, "BUNDLE-7QX2", data["discount_code"])
				assert.Contains(t, data, "redirect_url")

				items := data["line_items"].([]interface{})
				require.Len(t, items, 3)
				item := items[0].(map[string]interface{})
				assert.Equal(t, "4410", item["id"])
				assert.Equal(t, float64(1), item["quantity"])
				props := item["properties"].(map[string]interface{})
				assert.Equal(t, "product", props["_bundle_item_type"])
				assert.Equal(t, "gift-box", props["_bundle_id"])
				assert.Equal(t, "Build your gift box", props["_bundle_title"])
			},
		},
		{
			name:           "POST /api/bundles/{id}/cart - Error 422 Violations",
			method:         http.MethodPost,
			path:           "/api/bundles/gift-box/cart",
			body:           `{"selection":{"products":[{"product_id":"candle"}]}}`,
			expectedStatus: http.StatusUnprocessableEntity,
			validateResponse: func(t *testing.T, w *httptest.ResponseRecorder) {
				resp := contractError(t, w)
				assert.Equal(t, dto.ErrCodeUnprocessable, resp.Error)
				require.NotEmpty(t, resp.Violations)
				for _, v := range resp.Violations {
					assert.NotEmpty(t, v.Code)
					assert.NotEmpty(t, v.Message)
				}
			},
		},
		{
			name:           "POST /api/bundles/{id}/quote - Error 400 Invalid JSON",
			method:         http.MethodPost,
			path:           "/api/bundles/gift-box/quote",
			body:           `invalid json`,
			expectedStatus: http.StatusBadRequest,
			validateResponse: func(t *testing.T, w *httptest.ResponseRecorder) {
				assert.Equal(t, dto.ErrCodeInvalidRequest, contractError(t, w).Error)
			},
		},
		{
			name:           "GET /api/bundles/{id} - Error 404",
			method:         http.MethodGet,
			path:           "/api/bundles/unknown",
			expectedStatus: http.StatusNotFound,
			validateResponse: func(t *testing.T, w *httptest.ResponseRecorder) {
				assert.Equal(t, dto.ErrCodeNotFound, contractError(t, w).Error)
			},
		},
		{
			name:           "POST /api/bundles/{id}/sessions - Created 201",
			method:         http.MethodPost,
			path:           "/api/bundles/gift-box/sessions",
			expectedStatus: http.StatusCreated,
			validateResponse: func(t *testing.T, w *httptest.ResponseRecorder) {
				data := envelopeData(t, w)
				session := data["session"].(map[string]interface{})
				for _, field := range []string{"id", "bundle_id", "selection", "version", "created_at", "updated_at"} {
					assert.Contains(t, session, field)
				}
				assert.Contains(t, data, "quote")
				assert.Contains(t, data, "violations")
			},
		},
		{
			name:           "GET /healthz - Success 200",
			method:         http.MethodGet,
			path:           "/healthz",
			expectedStatus: http.StatusOK,
			validateResponse: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp map[string]interface{}
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
				assert.Equal(t, "ok", resp["status"])
			},
		},
		{
			name:           "GET /readyz - Success 200",
			method:         http.MethodGet,
			path:           "/readyz",
			expectedStatus: http.StatusOK,
			validateResponse: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp map[string]interface{}
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
				assert.Contains(t, resp, "checks")
				assert.Equal(t, "ok", resp["status"])
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := performRequest(env.router, tt.method, tt.path, tt.body, nil)

			assert.Equal(t, tt.expectedStatus, w.Code, "Status code mismatch")
			assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))
			assert.NotEmpty(t, w.Header().Get("X-Request-ID"), "Response must include X-Request-ID header")

			if tt.validateResponse != nil {
				tt.validateResponse(t, w)
			}
		})
	}
}

func envelopeData(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp dto.SuccessResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.NotEmpty(t, resp.RequestID, "Response must include request_id")
	assert.NotZero(t, resp.Timestamp, "Response must include timestamp")

	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok, "data must be an object")
	return data
}

func contractError(t *testing.T, w *httptest.ResponseRecorder) dto.ErrorResponse {
	t.Helper()
	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.NotEmpty(t, resp.Error)
	assert.NotEmpty(t, resp.Message)
	assert.NotEmpty(t, resp.RequestID)
	assert.NotZero(t, resp.Timestamp)
	return resp
}
