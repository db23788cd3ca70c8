package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/guttosm/bundle-service/internal/domain/model"
	"github.com/guttosm/bundle-service/internal/logger"
	"github.com/guttosm/bundle-service/internal/metrics"
	"github.com/guttosm/bundle-service/internal/storefront"
)

// SubmissionKind classifies a failed cart submission.
type SubmissionKind string

const (
	// KindValidation means the selection violates the bundle rules.
	KindValidation SubmissionKind = "validation"
	// KindNothingToSubmit means no line item could be built.
	KindNothingToSubmit SubmissionKind = "nothing_to_submit"
	// KindInFlight means the owner already has a submission running.
	KindInFlight SubmissionKind = "in_flight"
	// KindExternal means the prepare or cart endpoint failed.
	KindExternal SubmissionKind = "external"
)

// Sentinels for errors.Is. Only the Kind is compared.
var (
	ErrSelectionInvalid   = &SubmissionError{Kind: KindValidation}
	ErrNothingToSubmit    = &SubmissionError{Kind: KindNothingToSubmit}
	ErrSubmissionInFlight = &SubmissionError{Kind: KindInFlight}
	ErrExternal           = &SubmissionError{Kind: KindExternal}
)

// SubmissionError is the single failure shape of a cart submission.
type SubmissionError struct {
	Kind SubmissionKind
	// Message is the endpoint-provided description, if any.
	Message    string
	Violations []model.Violation
	Cause      error
}

func (e *SubmissionError) Error() string {
	switch {
	case e.Cause != nil:
		return fmt.Sprintf("cart submission failed (%s): %v", e.Kind, e.Cause)
	case len(e.Violations) > 0:
		return fmt.Sprintf("cart submission failed (%s): %v", e.Kind, e.Violations)
	default:
		return fmt.Sprintf("cart submission failed (%s)", e.Kind)
	}
}

func (e *SubmissionError) Unwrap() error { return e.Cause }

// Is matches any SubmissionError of the same kind.
func (e *SubmissionError) Is(target error) bool {
	t, ok := target.(*SubmissionError)
	return ok && t.Kind == e.Kind
}

// Preparer readies a selection for checkout.
type Preparer interface {
	Prepare(ctx context.Context, req model.PrepareRequest) (*model.PrepareResponse, error)
}

// CartClient adds a batch of line items to the cart.
type CartClient interface {
	AddItems(ctx context.Context, items []model.LineItem) error
}

// RedirectConfig holds the follow-up locations after a submission.
type RedirectConfig struct {
	CartURL     string
	CheckoutURL string
}

// SubmitRequest is one add-to-cart invocation.
type SubmitRequest struct {
	// OwnerKey identifies the actor whose submissions must not overlap,
	// typically the session id. Empty disables the in-flight guard.
	OwnerKey  string
	Bundle    *model.Bundle
	Selection model.Selection
}

// CartSubmitter turns a valid selection into a cart batch.
type CartSubmitter interface {
	Submit(ctx context.Context, req SubmitRequest) (*model.SubmitResult, error)
}

// CartSubmissionService implements CartSubmitter. It never retries and never
// modifies the selection it is given.
type CartSubmissionService struct {
	engine   PricingEngine
	preparer Preparer
	cart     CartClient
	guard    InFlightGuard
	redirect RedirectConfig
}

// SubmissionOption configures a CartSubmissionService.
type SubmissionOption func(*CartSubmissionService)

// WithInFlightGuard replaces the default in-process guard.
func WithInFlightGuard(g InFlightGuard) SubmissionOption {
	return func(s *CartSubmissionService) {
		if g != nil {
			s.guard = g
		}
	}
}

// WithRedirects sets the cart and checkout redirect targets.
func WithRedirects(r RedirectConfig) SubmissionOption {
	return func(s *CartSubmissionService) {
		s.redirect = r
	}
}

// NewCartSubmissionService creates a submitter.
func NewCartSubmissionService(engine PricingEngine, preparer Preparer, cart CartClient, opts ...SubmissionOption) *CartSubmissionService {
	s := &CartSubmissionService{
		engine:   engine,
		preparer: preparer,
		cart:     cart,
		guard:    NewMemoryInFlightGuard(),
		redirect: RedirectConfig{CartURL: "/cart", CheckoutURL: "/checkout"},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit validates, builds line items, prepares and adds them to the cart.
func (s *CartSubmissionService) Submit(ctx context.Context, req SubmitRequest) (*model.SubmitResult, error) {
	start := time.Now()
	result, err := s.submit(ctx, req)

	outcome := "success"
	var subErr *SubmissionError
	if errors.As(err, &subErr) {
		outcome = string(subErr.Kind)
	}
	metrics.RecordCartSubmission(time.Since(start), outcome)

	log := logger.Ctx(ctx)
	switch {
	case err == nil:
		log.Info().Str("bundle_id", bundleID(req.Bundle)).Int("line_items", len(result.LineItems)).
			Str("redirect", string(result.Redirect)).Msg("Cart submitted")
	case outcome == string(KindExternal):
		log.Warn().Err(err).Str("bundle_id", bundleID(req.Bundle)).Msg("Cart submission failed")
	}
	return result, err
}

func bundleID(b *model.Bundle) string {
	if b == nil {
		return ""
	}
	return b.ID
}

func (s *CartSubmissionService) submit(ctx context.Context, req SubmitRequest) (*model.SubmitResult, error) {
	bundle := req.Bundle
	if bundle == nil {
		bundle = &model.Bundle{}
	}

	quote := s.engine.Evaluate(bundle, req.Selection)
	if !quote.Valid {
		return nil, &SubmissionError{Kind: KindValidation, Violations: quote.Violations}
	}

	items := BuildLineItems(bundle, req.Selection)
	if len(items) == 0 {
		return nil, &SubmissionError{
			Kind:       KindNothingToSubmit,
			Violations: []model.Violation{model.ViolationNothingToSubmit},
		}
	}

	if req.OwnerKey != "" {
		release, ok, err := s.guard.Acquire(ctx, req.OwnerKey)
		if err != nil {
			return nil, &SubmissionError{Kind: KindExternal, Cause: fmt.Errorf("acquiring in-flight flag: %w", err)}
		}
		if !ok {
			return nil, &SubmissionError{Kind: KindInFlight}
		}
		defer release()
	}

	prepared, err := s.preparer.Prepare(ctx, prepareRequest(bundle.ID, req.Selection))
	if err != nil {
		return nil, externalError(err)
	}

	if err := s.cart.AddItems(ctx, items); err != nil {
		return nil, externalError(err)
	}

	result := &model.SubmitResult{
		LineItems: items,
		Quote:     quote,
		Redirect:  model.RedirectCart,
	}
	if prepared != nil && prepared.DiscountCode != "" {
		result.DiscountCode = prepared.DiscountCode
		result.Redirect = model.RedirectCheckout
		result.RedirectURL = withQuery(s.redirect.CheckoutURL, "discount", prepared.DiscountCode)
	} else {
		result.RedirectURL = s.redirect.CartURL
	}
	return result, nil
}

// BuildLineItems translates a selection into cart line items in selection
// order: products first, then the wrap, then the card. References without a
// trailing numeric id are skipped.
func BuildLineItems(bundle *model.Bundle, selection model.Selection) []model.LineItem {
	items := make([]model.LineItem, 0, selection.Count()+2)

	for _, entry := range selection.Products {
		product, ok := bundle.Product(entry.ProductID)
		if !ok {
			logger.Logger().Debug().Str("product_id", entry.ProductID).Msg("Skipping product missing from bundle")
			continue
		}
		ref := product.VariantGID
		if v, ok := product.Variant(entry.ChosenVariantID); ok {
			ref = v.ID
		}
		id, ok := model.NumericID(ref)
		if !ok {
			logger.Logger().Debug().Str("product_id", product.ID).Str("reference", ref).Msg("Skipping product without numeric variant id")
			continue
		}
		items = append(items, model.LineItem{
			ID:       id,
			Quantity: 1,
			Properties: map[string]string{
				model.PropItemType:    model.ItemTypeProduct,
				model.PropBundleID:    bundle.ID,
				model.PropBundleTitle: bundle.Title,
			},
		})
	}

	if selection.Wrap != nil {
		if wrap, ok := bundle.Wrap(selection.Wrap.ID); ok {
			items = appendAddOn(items, bundle, wrap, model.ItemTypeWrap)
		}
	}
	if selection.Card != nil {
		if card, ok := bundle.Card(selection.Card.ID); ok {
			items = appendAddOn(items, bundle, card, model.ItemTypeCard)
		}
	}
	return items
}

func appendAddOn(items []model.LineItem, bundle *model.Bundle, addOn model.AddOn, itemType string) []model.LineItem {
	if addOn.ShopifyVariantID == "" {
		return items
	}
	id, ok := model.NumericID(addOn.ShopifyVariantID)
	if !ok {
		logger.Logger().Debug().Str("addon_id", addOn.ID).Msg("Skipping add-on without numeric variant id")
		return items
	}
	return append(items, model.LineItem{
		ID:       id,
		Quantity: 1,
		Properties: map[string]string{
			model.PropItemType:    itemType,
			model.PropAddOn:       "true",
			model.PropBundleID:    bundle.ID,
			model.PropBundleTitle: bundle.Title,
			model.PropAddOnName:   addOn.Name,
		},
	})
}

func prepareRequest(bundleID string, selection model.Selection) model.PrepareRequest {
	req := model.PrepareRequest{
		BundleID:   bundleID,
		ProductIDs: selection.ProductIDs(),
		Variants:   selection.VariantMap(),
	}
	if selection.Wrap != nil {
		req.WrapID = selection.Wrap.ID
	}
	if selection.Card != nil {
		req.CardID = selection.Card.ID
	}
	return req
}

func externalError(err error) *SubmissionError {
	subErr := &SubmissionError{Kind: KindExternal, Cause: err}
	var apiErr *storefront.APIError
	if errors.As(err, &apiErr) {
		subErr.Message = apiErr.Description
	}
	return subErr
}

// withQuery sets key=value on target, keeping any existing query.
func withQuery(target, key, value string) string {
	u, err := url.Parse(target)
	if err != nil {
		return target + "?" + url.Values{key: {value}}.Encode()
	}
	q := u.Query()
	q.Set(key, value)
	u.RawQuery = q.Encode()
	return u.String()
}
