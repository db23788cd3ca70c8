package service

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/guttosm/bundle-service/internal/domain/model"
	"github.com/guttosm/bundle-service/internal/service/cache"
)

var hundred = decimal.NewFromInt(100)

// PricingEngine evaluates a selection against its bundle.
type PricingEngine interface {
	// Evaluate returns the price and validation result. It never fails:
	// malformed optional data is treated as absent.
	Evaluate(bundle *model.Bundle, selection model.Selection) model.Quote
	// InvalidateCache drops cached quotes (useful after catalog changes).
	InvalidateCache()
}

// Option configures a PricingService.
type Option func(*PricingService)

// PricingService implements PricingEngine. Evaluation is a pure function of
// the bundle and the selection; the optional cache only memoizes results.
type PricingService struct {
	cache cache.Cache
}

// NewPricingService creates a new PricingService with the given options.
func NewPricingService(opts ...Option) *PricingService {
	s := &PricingService{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// WithQuoteCache enables in-process quote caching with the given capacity and TTL.
func WithQuoteCache(capacity int, ttl time.Duration) Option {
	return func(s *PricingService) {
		if capacity > 0 {
			s.cache = NewShardedCache(capacity, ttl, 16)
		}
	}
}

// WithCacheInterface injects a custom cache implementation, such as the Redis cache.
func WithCacheInterface(c cache.Cache) Option {
	return func(s *PricingService) {
		s.cache = c
	}
}

// Evaluate computes the unit price, savings and violations for a selection.
func (s *PricingService) Evaluate(bundle *model.Bundle, selection model.Selection) model.Quote {
	if bundle == nil {
		return evaluate(&model.Bundle{}, selection)
	}
	if s.cache == nil {
		return evaluate(bundle, selection)
	}

	key := Fingerprint(bundle, selection)
	if q, ok := s.cache.Get(key); ok {
		return cloneQuote(q)
	}

	q := evaluate(bundle, selection)
	s.cache.Set(key, cloneQuote(q))
	return q
}

// InvalidateCache clears the quote cache.
func (s *PricingService) InvalidateCache() {
	if s.cache != nil {
		s.cache.Clear()
	}
}

// Fingerprint identifies a (bundle content, selection) pair. Product order
// is not price relevant, so entries are sorted.
//
// The bundle part is a digest of everything evaluation reads, not the stored
// revision: revisions restart with every in-memory catalog while a shared
// quote cache outlives the process.
func Fingerprint(bundle *model.Bundle, selection model.Selection) string {
	parts := make([]string, 0, len(selection.Products))
	for _, p := range selection.Products {
		parts = append(parts, p.ProductID+"="+strconv.FormatInt(p.PriceCents, 10)+"/"+p.ChosenVariantID)
	}
	sort.Strings(parts)

	var b strings.Builder
	b.WriteString("quote:")
	b.WriteString(bundle.ID)
	b.WriteString("@")
	b.WriteString(bundleDigest(bundle))
	b.WriteString("|")
	b.WriteString(strings.Join(parts, ","))
	if selection.Wrap != nil {
		b.WriteString("|w:" + selection.Wrap.ID + "=" + strconv.FormatInt(selection.Wrap.PriceCents, 10))
	}
	if selection.Card != nil {
		b.WriteString("|c:" + selection.Card.ID + "=" + strconv.FormatInt(selection.Card.PriceCents, 10))
	}
	return b.String()
}

// pricedContent is the part of a bundle evaluate depends on.
type pricedContent struct {
	Products        []model.Product   `json:"p"`
	WrappingOptions []model.AddOn     `json:"w"`
	WrapRequired    bool              `json:"wr"`
	Cards           []model.AddOn     `json:"c"`
	MinItems        *int              `json:"min"`
	MaxItems        *int              `json:"max"`
	PricingType     model.PricingType `json:"t"`
	PriceValueCents *int64            `json:"v"`
	TierPrices      []model.TierRule  `json:"tiers"`
}

func bundleDigest(bundle *model.Bundle) string {
	raw, err := json.Marshal(pricedContent{
		Products:        bundle.Products,
		WrappingOptions: bundle.WrappingOptions,
		WrapRequired:    bundle.WrapRequired,
		Cards:           bundle.Cards,
		MinItems:        bundle.MinItems,
		MaxItems:        bundle.MaxItems,
		PricingType:     bundle.PricingType,
		PriceValueCents: bundle.PriceValueCents,
		TierPrices:      bundle.TierPrices,
	})
	if err != nil {
		return "r" + strconv.Itoa(bundle.Revision)
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:8])
}

func evaluate(bundle *model.Bundle, selection model.Selection) model.Quote {
	count := selection.Count()

	var subtotal, individualTotal int64
	for _, entry := range selection.Products {
		base := entry.PriceCents
		product, known := bundle.Product(entry.ProductID)
		if known {
			base = product.PriceCents
		}
		individualTotal += base
		subtotal += base
		if !known {
			continue
		}
		if v, ok := product.Variant(entry.ChosenVariantID); ok && v.PriceCents > base {
			subtotal += v.PriceCents - base
		}
	}

	price := subtotal
	var appliedTier *int
	if tier, ok := qualifyingTier(bundle.TierPrices, count); ok {
		price = applyRule(subtotal, tier.PricingType, tier.ValueCents, tier.ValuePercent)
		minQuantity := tier.MinQuantity
		appliedTier = &minQuantity
	}

	if bundle.PricingType != "" && bundle.PricingType != model.PricingNone {
		var percent *decimal.Decimal
		if bundle.PricingType == model.PricingDiscountPercent && bundle.PriceValueCents != nil {
			p := decimal.NewFromInt(*bundle.PriceValueCents)
			percent = &p
		}
		price = applyRule(subtotal, bundle.PricingType, bundle.PriceValueCents, percent)
		appliedTier = nil
	}

	var addOns int64
	if selection.Wrap != nil {
		addOns += nonNegative(selection.Wrap.PriceCents)
	}
	if selection.Card != nil {
		addOns += nonNegative(selection.Card.PriceCents)
	}
	price += addOns

	violations := validate(bundle, selection)
	return model.Quote{
		UnitPriceCents:       price,
		SavingsCents:         nonNegative(individualTotal - price),
		SubtotalCents:        subtotal,
		IndividualTotalCents: individualTotal,
		AddOnsCents:          addOns,
		AppliedTier:          appliedTier,
		ItemCount:            count,
		Valid:                len(violations) == 0,
		Violations:           violations,
	}
}

// qualifyingTier returns the tier with the largest MinQuantity not above count.
// Equal thresholds resolve to the first rule in configuration order.
func qualifyingTier(tiers []model.TierRule, count int) (model.TierRule, bool) {
	var best model.TierRule
	found := false
	for _, t := range tiers {
		if t.MinQuantity > count {
			continue
		}
		if !found || t.MinQuantity > best.MinQuantity {
			best = t
			found = true
		}
	}
	return best, found
}

// applyRule recomputes a price from subtotal. A rule without the value its
// type needs leaves the subtotal untouched.
func applyRule(subtotal int64, pricingType model.PricingType, valueCents *int64, valuePercent *decimal.Decimal) int64 {
	switch pricingType {
	case model.PricingFixed:
		if valueCents == nil {
			return subtotal
		}
		return nonNegative(*valueCents)
	case model.PricingDiscountAmount:
		if valueCents == nil {
			return subtotal
		}
		return nonNegative(subtotal - nonNegative(*valueCents))
	case model.PricingDiscountPercent:
		if valuePercent == nil || valuePercent.IsNegative() {
			return subtotal
		}
		discount := decimal.NewFromInt(subtotal).Mul(*valuePercent).Div(hundred).Floor().IntPart()
		return nonNegative(subtotal - discount)
	default:
		return subtotal
	}
}

func validate(bundle *model.Bundle, selection model.Selection) []model.Violation {
	violations := []model.Violation{}
	count := selection.Count()

	if bundle.WrapRequired && selection.Wrap == nil {
		violations = append(violations, model.ViolationWrapRequired)
	}
	if bundle.MinItems != nil && count < *bundle.MinItems {
		violations = append(violations, model.ViolationTooFewItems)
	}
	if bundle.MaxItems != nil && count > *bundle.MaxItems {
		violations = append(violations, model.ViolationTooManyItems)
	}
	if count == 0 && selection.Wrap == nil && selection.Card == nil {
		violations = append(violations, model.ViolationNothingSelected)
	}
	return violations
}

func nonNegative(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}

func cloneQuote(q model.Quote) model.Quote {
	q.Violations = append([]model.Violation{}, q.Violations...)
	if q.AppliedTier != nil {
		tier := *q.AppliedTier
		q.AppliedTier = &tier
	}
	return q
}
