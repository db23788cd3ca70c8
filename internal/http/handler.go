// Package http exposes the bundle service over HTTP.
package http

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/guttosm/bundle-service/internal/domain/dto"
	"github.com/guttosm/bundle-service/internal/domain/model"
	"github.com/guttosm/bundle-service/internal/i18n"
	"github.com/guttosm/bundle-service/internal/metrics"
	"github.com/guttosm/bundle-service/internal/middleware"
	"github.com/guttosm/bundle-service/internal/service"
)

// Handler serves the bundle catalog, stateless quotes and cart submissions.
type Handler struct {
	bundles        service.BundleService
	engine         service.PricingEngine
	submitter      service.CartSubmitter
	loggingService service.LoggingService
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithLoggingService enables audit entries for quotes and submissions.
func WithLoggingService(ls service.LoggingService) HandlerOption {
	return func(h *Handler) {
		h.loggingService = ls
	}
}

// NewHandler creates a new Handler instance.
func NewHandler(bundles service.BundleService, engine service.PricingEngine, submitter service.CartSubmitter, opts ...HandlerOption) *Handler {
	h := &Handler{
		bundles:   bundles,
		engine:    engine,
		submitter: submitter,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// ListBundles handles GET /api/bundles.
//
// @Summary      List bundles
// @Description  Returns every bundle the shopper can build.
// @Tags         Bundles
// @Produce      json
// @Success      200 {object} dto.SuccessResponse{data=dto.BundleListResponse}
// @Failure      401 {object} dto.ErrorResponse "Unauthorized"
// @Failure      503 {object} dto.ErrorResponse "Catalog unavailable"
// @Security     BearerAuth
// @Router       /api/bundles [get]
func (h *Handler) ListBundles(c *gin.Context) {
	builder := NewResponseBuilder(c)

	bundles, err := h.bundles.List(c.Request.Context())
	if err != nil {
		builder.ServiceError(err)
		return
	}
	builder.OK(dto.BundleListResponse{Bundles: bundles, Count: len(bundles)})
}

// GetBundle handles GET /api/bundles/:id.
//
// @Summary      Get bundle
// @Description  Returns one bundle with its products, add-ons and pricing rules.
// @Tags         Bundles
// @Produce      json
// @Param        id path string true "Bundle id"
// @Success      200 {object} dto.SuccessResponse{data=model.Bundle}
// @Failure      404 {object} dto.ErrorResponse "Bundle not found"
// @Failure      503 {object} dto.ErrorResponse "Catalog unavailable"
// @Security     BearerAuth
// @Router       /api/bundles/{id} [get]
func (h *Handler) GetBundle(c *gin.Context) {
	builder := NewResponseBuilder(c)
	middleware.SetAuditContext(c, c.Param("id"), "")

	bundle, err := h.bundles.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		builder.ServiceError(err)
		return
	}
	builder.OK(bundle)
}

// Quote handles POST /api/bundles/:id/quote.
//
// @Summary      Quote a selection
// @Description  Rebuilds the posted selection against the bundle and returns its live price and rule violations. An invalid selection is still priced; it is reported through quote.valid and violations.
// @Tags         Bundles
// @Accept       json
// @Produce      json
// @Param        id path string true "Bundle id"
// @Param        request body dto.SelectionRequest true "Selection snapshot and/or actions"
// @Success      200 {object} dto.SuccessResponse{data=dto.QuoteResponse}
// @Failure      400 {object} dto.ErrorResponse "Invalid request body"
// @Failure      404 {object} dto.ErrorResponse "Bundle not found"
// @Failure      422 {object} dto.ErrorResponse "An action cannot be applied"
// @Security     BearerAuth
// @Router       /api/bundles/{id}/quote [post]
func (h *Handler) Quote(c *gin.Context) {
	builder := NewResponseBuilder(c)

	bundle, selection, ok := h.bindSelection(c, builder)
	if !ok {
		return
	}

	start := time.Now()
	quote := h.engine.Evaluate(bundle, selection)
	metrics.RecordQuote(time.Since(start), quoteStatus(quote))

	middleware.AuditLog(h.loggingService, c, model.AuditActionQuote, "Quote evaluated", map[string]interface{}{
		"item_count":       quote.ItemCount,
		"unit_price_cents": quote.UnitPriceCents,
		"valid":            quote.Valid,
	})

	builder.OKWithMessage(i18n.SuccessKeyQuoteCalculated, dto.QuoteResponse{
		Selection:  selection,
		Quote:      quote,
		Violations: violationDetails(c, quote.Violations),
	})
}

// SubmitCart handles POST /api/bundles/:id/cart.
//
// @Summary      Add a selection to the cart
// @Description  Validates the posted selection, prepares it and adds all line items to the cart in one batch. Nothing is sent when the selection is invalid or yields no purchasable item. Supports Idempotency-Key.
// @Tags         Cart
// @Accept       json
// @Produce      json
// @Param        id path string true "Bundle id"
// @Param        Idempotency-Key header string false "Idempotency key for request deduplication"
// @Param        request body dto.SelectionRequest true "Selection snapshot and/or actions"
// @Success      200 {object} dto.SuccessResponse{data=model.SubmitResult}
// @Failure      400 {object} dto.ErrorResponse "Invalid request body"
// @Failure      404 {object} dto.ErrorResponse "Bundle not found"
// @Failure      409 {object} dto.ErrorResponse "Submission already in progress"
// @Failure      422 {object} dto.ErrorResponse "Selection breaks the bundle rules"
// @Failure      502 {object} dto.ErrorResponse "Prepare or cart endpoint failed"
// @Failure      504 {object} dto.ErrorResponse "Timeout"
// @Security     BearerAuth
// @Router       /api/bundles/{id}/cart [post]
func (h *Handler) SubmitCart(c *gin.Context) {
	builder := NewResponseBuilder(c)

	bundle, selection, ok := h.bindSelection(c, builder)
	if !ok {
		return
	}

	result, err := h.submitter.Submit(c.Request.Context(), service.SubmitRequest{
		OwnerKey:  statelessOwnerKey(c),
		Bundle:    bundle,
		Selection: selection,
	})
	h.auditSubmission(c, result, err)
	if err != nil {
		builder.ServiceError(err)
		return
	}
	builder.OKWithMessage(i18n.SuccessKeyCartSubmitted, result)
}

// bindSelection loads the bundle, rebuilds the posted snapshot against it and
// applies the posted actions. It writes the error response itself and reports ok=false.
func (h *Handler) bindSelection(c *gin.Context, builder *ResponseBuilder) (*model.Bundle, model.Selection, bool) {
	bundleID := c.Param("id")
	middleware.SetAuditContext(c, bundleID, "")

	req, err := bindJSON[dto.SelectionRequest](c)
	if err != nil {
		builder.BadRequest(err)
		return nil, model.Selection{}, false
	}

	bundle, err := h.bundles.Get(c.Request.Context(), bundleID)
	if err != nil {
		builder.ServiceError(err)
		return nil, model.Selection{}, false
	}

	selection, err := req.ToSelection(bundle).ApplyAll(bundle, req.Actions)
	if err != nil {
		builder.ServiceError(err)
		return nil, model.Selection{}, false
	}
	return bundle, selection, true
}

func (h *Handler) auditSubmission(c *gin.Context, result *model.SubmitResult, err error) {
	if err != nil {
		middleware.AuditLogError(h.loggingService, c, model.AuditActionCartSubmit, "Cart submission failed", err, nil)
		return
	}
	middleware.AuditLog(h.loggingService, c, model.AuditActionCartSubmit, "Cart submitted", map[string]interface{}{
		"line_items":   len(result.LineItems),
		"redirect":     string(result.Redirect),
		"has_discount": result.DiscountCode != "",
	})
}

// statelessOwnerKey scopes the in-flight guard of a stateless submission to
// its Idempotency-Key. Without a key there is no selection identity to guard.
func statelessOwnerKey(c *gin.Context) string {
	key := c.GetHeader(middleware.IdempotencyKeyHeader)
	if key == "" {
		return ""
	}
	return "idempotency:" + middleware.GetSubject(c) + ":" + key
}

func quoteStatus(q model.Quote) string {
	if q.Valid {
		return "valid"
	}
	return "invalid"
}

