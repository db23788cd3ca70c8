//go:build !integration

package service

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guttosm/bundle-service/internal/domain/model"
)

func TestPricingService_Evaluate(t *testing.T) {
	box := giftBox()
	svc := NewPricingService()

	tests := []struct {
		name               string
		actions            []model.Action
		expectedUnitPrice  int64
		expectedSavings    int64
		expectedSubtotal   int64
		expectedIndividual int64
		expectedAddOns     int64
		expectedTier       *int
		expectedViolations []model.Violation
	}{
		{
			name:               "empty selection",
			expectedViolations: []model.Violation{model.ViolationWrapRequired, model.ViolationTooFewItems, model.ViolationNothingSelected},
		},
		{
			name:               "wrap only counts as a selection",
			actions:            []model.Action{wrap("kraft")},
			expectedUnitPrice:  300,
			expectedAddOns:     300,
			expectedViolations: []model.Violation{model.ViolationTooFewItems},
		},
		{
			name:               "two products below the tier",
			actions:            append(pick("candle", "soap"), wrap("kraft")),
			expectedUnitPrice:  1100,
			expectedSubtotal:   800,
			expectedIndividual: 800,
			expectedAddOns:     300,
			expectedViolations: []model.Violation{},
		},
		{
			name:               "three products reach the percent tier",
			actions:            append(pick("candle", "soap", "mug"), wrap("kraft")),
			expectedUnitPrice:  1740,
			expectedSubtotal:   1600,
			expectedIndividual: 1600,
			expectedAddOns:     300,
			expectedTier:       intPtr(3),
			expectedViolations: []model.Violation{},
		},
		{
			name:               "missing wrap is reported but priced",
			actions:            pick("candle", "soap", "mug"),
			expectedUnitPrice:  1440,
			expectedSavings:    160,
			expectedSubtotal:   1600,
			expectedIndividual: 1600,
			expectedTier:       intPtr(3),
			expectedViolations: []model.Violation{model.ViolationWrapRequired},
		},
		{
			name: "pricier variant raises the subtotal only",
			actions: append(pick("candle", "soap"),
				model.Action{Type: model.ActionChooseVariant, ProductID: "candle", VariantID: "gid://shopify/ProductVariant/4411"},
				wrap("kraft")),
			expectedUnitPrice:  1250,
			expectedSubtotal:   950,
			expectedIndividual: 800,
			expectedAddOns:     300,
			expectedViolations: []model.Violation{},
		},
		{
			name: "cheaper variant never lowers the subtotal",
			actions: append(pick("candle", "soap"),
				model.Action{Type: model.ActionChooseVariant, ProductID: "candle", VariantID: "gid://shopify/ProductVariant/4412"},
				wrap("ribbon")),
			expectedUnitPrice:  900,
			expectedSubtotal:   800,
			expectedIndividual: 800,
			expectedAddOns:     100,
			expectedViolations: []model.Violation{},
		},
		{
			name: "free card adds nothing",
			actions: append(pick("soap", "mug"), wrap("kraft"),
				model.Action{Type: model.ActionChooseCard, AddOnID: "birthday"}),
			expectedUnitPrice:  1400,
			expectedSubtotal:   1100,
			expectedIndividual: 1100,
			expectedAddOns:     300,
			expectedViolations: []model.Violation{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := svc.Evaluate(&box, selectionOf(t, &box, tt.actions...))

			assert.Equal(t, tt.expectedUnitPrice, q.UnitPriceCents)
			assert.Equal(t, tt.expectedSavings, q.SavingsCents)
			assert.Equal(t, tt.expectedSubtotal, q.SubtotalCents)
			assert.Equal(t, tt.expectedIndividual, q.IndividualTotalCents)
			assert.Equal(t, tt.expectedAddOns, q.AddOnsCents)
			assert.Equal(t, tt.expectedTier, q.AppliedTier)
			assert.Equal(t, tt.expectedViolations, q.Violations)
			assert.Equal(t, len(tt.expectedViolations) == 0, q.Valid)
		})
	}
}

func TestPricingService_PricingRules(t *testing.T) {
	threeProducts := func(b *model.Bundle) model.Selection {
		s := model.NewSelection(b.ID)
		for _, p := range b.Products {
			s.Products = append(s.Products, model.SelectedProduct{ProductID: p.ID, PriceCents: p.PriceCents})
		}
		return s
	}

	tests := []struct {
		name              string
		mutate            func(b *model.Bundle)
		expectedUnitPrice int64
		expectedTier      *int
	}{
		{
			name: "fixed bundle price overrides tiers",
			mutate: func(b *model.Bundle) {
				b.PricingType = model.PricingFixed
				b.PriceValueCents = int64Ptr(1200)
			},
			expectedUnitPrice: 1200,
		},
		{
			name: "bundle discount amount",
			mutate: func(b *model.Bundle) {
				b.PricingType = model.PricingDiscountAmount
				b.PriceValueCents = int64Ptr(250)
			},
			expectedUnitPrice: 1350,
		},
		{
			name: "discount amount larger than subtotal floors at zero",
			mutate: func(b *model.Bundle) {
				b.PricingType = model.PricingDiscountAmount
				b.PriceValueCents = int64Ptr(5000)
			},
			expectedUnitPrice: 0,
		},
		{
			name: "negative discount amount takes nothing off",
			mutate: func(b *model.Bundle) {
				b.PricingType = model.PricingDiscountAmount
				b.PriceValueCents = int64Ptr(-200)
			},
			expectedUnitPrice: 1600,
		},
		{
			name: "negative fixed bundle price floors at zero",
			mutate: func(b *model.Bundle) {
				b.PricingType = model.PricingFixed
				b.PriceValueCents = int64Ptr(-300)
			},
			expectedUnitPrice: 0,
		},
		{
			name: "negative fixed tier price floors at zero",
			mutate: func(b *model.Bundle) {
				b.TierPrices = []model.TierRule{{MinQuantity: 3, PricingType: model.PricingFixed, ValueCents: int64Ptr(-1)}}
			},
			expectedUnitPrice: 0,
			expectedTier:      intPtr(3),
		},
		{
			name: "bundle percent above 100 floors at zero",
			mutate: func(b *model.Bundle) {
				b.PricingType = model.PricingDiscountPercent
				b.PriceValueCents = int64Ptr(250)
			},
			expectedUnitPrice: 0,
		},
		{
			name: "tier percent above 100 floors at zero",
			mutate: func(b *model.Bundle) {
				b.TierPrices[0].ValuePercent = percent("150")
			},
			expectedUnitPrice: 0,
			expectedTier:      intPtr(3),
		},
		{
			name: "bundle percent reads the value field as a percentage",
			mutate: func(b *model.Bundle) {
				b.PricingType = model.PricingDiscountPercent
				b.PriceValueCents = int64Ptr(25)
			},
			expectedUnitPrice: 1200,
		},
		{
			name: "bundle rule without a value is a no-op",
			mutate: func(b *model.Bundle) {
				b.PricingType = model.PricingFixed
				b.PriceValueCents = nil
			},
			expectedUnitPrice: 1600,
		},
		{
			name: "percent discount is floored to whole cents",
			mutate: func(b *model.Bundle) {
				b.Products[2].PriceCents = 199
				b.TierPrices[0].ValuePercent = percent("15")
			},
			// 999 - floor(149.85)
			expectedUnitPrice: 850,
			expectedTier:      intPtr(3),
		},
		{
			name: "fractional percent",
			mutate: func(b *model.Bundle) {
				b.TierPrices[0].ValuePercent = percent("12.5")
			},
			expectedUnitPrice: 1400,
			expectedTier:      intPtr(3),
		},
		{
			name: "negative percent is ignored",
			mutate: func(b *model.Bundle) {
				b.TierPrices[0].ValuePercent = percent("-5")
			},
			expectedUnitPrice: 1600,
			expectedTier:      intPtr(3),
		},
		{
			name: "largest qualifying threshold wins",
			mutate: func(b *model.Bundle) {
				b.TierPrices = []model.TierRule{
					{MinQuantity: 2, PricingType: model.PricingDiscountAmount, ValueCents: int64Ptr(100)},
					{MinQuantity: 3, PricingType: model.PricingFixed, ValueCents: int64Ptr(1000)},
					{MinQuantity: 4, PricingType: model.PricingFixed, ValueCents: int64Ptr(1)},
				}
			},
			expectedUnitPrice: 1000,
			expectedTier:      intPtr(3),
		},
		{
			name: "equal thresholds resolve to the first rule",
			mutate: func(b *model.Bundle) {
				b.TierPrices = []model.TierRule{
					{MinQuantity: 3, PricingType: model.PricingFixed, ValueCents: int64Ptr(1100)},
					{MinQuantity: 3, PricingType: model.PricingFixed, ValueCents: int64Ptr(900)},
				}
			},
			expectedUnitPrice: 1100,
			expectedTier:      intPtr(3),
		},
		{
			name: "tier without its value still counts as applied",
			mutate: func(b *model.Bundle) {
				b.TierPrices = []model.TierRule{{MinQuantity: 3, PricingType: model.PricingDiscountAmount}}
			},
			expectedUnitPrice: 1600,
			expectedTier:      intPtr(3),
		},
		{
			name: "unknown pricing type leaves the subtotal",
			mutate: func(b *model.Bundle) {
				b.TierPrices = []model.TierRule{{MinQuantity: 1, PricingType: "BOGO", ValueCents: int64Ptr(1)}}
			},
			expectedUnitPrice: 1600,
			expectedTier:      intPtr(1),
		},
	}

	svc := NewPricingService()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			box := giftBox()
			box.WrapRequired = false
			tt.mutate(&box)

			q := svc.Evaluate(&box, threeProducts(&box))

			assert.Equal(t, tt.expectedUnitPrice, q.UnitPriceCents)
			assert.Equal(t, tt.expectedTier, q.AppliedTier)
			assert.GreaterOrEqual(t, q.UnitPriceCents, int64(0))
			assert.GreaterOrEqual(t, q.SavingsCents, int64(0))
		})
	}
}

func TestPricingService_EvaluateEdgeCases(t *testing.T) {
	svc := NewPricingService()

	t.Run("nil bundle is priced from the selection alone", func(t *testing.T) {
		s := model.Selection{Products: []model.SelectedProduct{{ProductID: "ghost", PriceCents: 700}}}
		q := svc.Evaluate(nil, s)
		assert.Equal(t, int64(700), q.UnitPriceCents)
		assert.True(t, q.Valid)
	})

	t.Run("product missing from bundle keeps its snapshot price", func(t *testing.T) {
		box := giftBox()
		s := model.Selection{
			BundleID: box.ID,
			Products: []model.SelectedProduct{{ProductID: "ghost", PriceCents: 700, ChosenVariantID: "gid://shopify/ProductVariant/4411"}},
		}
		q := svc.Evaluate(&box, s)
		assert.Equal(t, int64(700), q.SubtotalCents)
	})

	t.Run("catalog price wins over a stale snapshot price", func(t *testing.T) {
		box := giftBox()
		s := model.Selection{BundleID: box.ID, Products: []model.SelectedProduct{{ProductID: "candle", PriceCents: 1}}}
		q := svc.Evaluate(&box, s)
		assert.Equal(t, int64(500), q.IndividualTotalCents)
	})

	t.Run("too many items", func(t *testing.T) {
		box := giftBox()
		box.MaxItems = intPtr(1)
		q := svc.Evaluate(&box, selectionOf(t, &box, append(pick("candle", "soap"), wrap("kraft"))...))
		assert.Equal(t, []model.Violation{model.ViolationTooManyItems}, q.Violations)
		assert.False(t, q.Valid)
	})

	t.Run("negative add-on price counts as zero", func(t *testing.T) {
		box := giftBox()
		box.WrappingOptions[1].PriceCents = -50
		q := svc.Evaluate(&box, selectionOf(t, &box, append(pick("candle", "soap"), wrap("ribbon"))...))
		assert.Equal(t, int64(0), q.AddOnsCents)
		assert.Equal(t, int64(800), q.UnitPriceCents)
	})
}

// recordingCache counts lookups and writes.
type recordingCache struct {
	mu      sync.Mutex
	entries map[string]model.Quote
	gets    int
	sets    int
	clears  int
}

func newRecordingCache() *recordingCache {
	return &recordingCache{entries: make(map[string]model.Quote)}
}

func (c *recordingCache) Get(key string) (model.Quote, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	q, ok := c.entries[key]
	return q, ok
}

func (c *recordingCache) Set(key string, value model.Quote) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	c.entries[key] = value
}

func (c *recordingCache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

func (c *recordingCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clears++
	c.entries = make(map[string]model.Quote)
}

func (c *recordingCache) Stop() {}

func TestPricingService_Cache(t *testing.T) {
	box := giftBox()
	sel := selectionOf(t, &box, append(pick("candle", "soap", "mug"), wrap("kraft"))...)

	t.Run("second evaluation is served from cache", func(t *testing.T) {
		c := newRecordingCache()
		svc := NewPricingService(WithCacheInterface(c))

		first := svc.Evaluate(&box, sel)
		second := svc.Evaluate(&box, sel)

		assert.Equal(t, first, second)
		assert.Equal(t, 2, c.gets)
		assert.Equal(t, 1, c.sets)
	})

	t.Run("cached quotes are isolated from callers", func(t *testing.T) {
		svc := NewPricingService(WithQuoteCache(10, time.Minute))
		empty := model.NewSelection(box.ID)

		first := svc.Evaluate(&box, empty)
		first.Violations[0] = "TAMPERED"

		second := svc.Evaluate(&box, empty)
		assert.Equal(t, model.ViolationWrapRequired, second.Violations[0])
		assert.Nil(t, second.AppliedTier)

		tiered := svc.Evaluate(&box, sel)
		*tiered.AppliedTier = 99
		assert.Equal(t, 3, *svc.Evaluate(&box, sel).AppliedTier)
	})

	t.Run("changed bundle misses the cache", func(t *testing.T) {
		c := newRecordingCache()
		svc := NewPricingService(WithCacheInterface(c))

		svc.Evaluate(&box, sel)
		revised := box.Clone()
		revised.Revision++
		revised.TierPrices = nil
		q := svc.Evaluate(&revised, sel)

		assert.Equal(t, 2, c.sets)
		assert.Equal(t, int64(1900), q.UnitPriceCents)
	})

	t.Run("shared cache across restarts with the same revision", func(t *testing.T) {
		shared := newRecordingCache()
		fixed := func(cents int64) *model.Bundle {
			b := box.Clone()
			b.Revision = 1
			b.TierPrices = nil
			b.PricingType = model.PricingFixed
			b.PriceValueCents = &cents
			return &b
		}

		before := NewPricingService(WithCacheInterface(shared)).Evaluate(fixed(400), sel)
		after := NewPricingService(WithCacheInterface(shared)).Evaluate(fixed(300), sel)

		// fixed price plus the kraft wrap
		assert.Equal(t, int64(700), before.UnitPriceCents)
		assert.Equal(t, int64(600), after.UnitPriceCents)
		assert.Equal(t, 2, shared.sets)
	})

	t.Run("invalidate clears the cache", func(t *testing.T) {
		c := newRecordingCache()
		svc := NewPricingService(WithCacheInterface(c))
		svc.Evaluate(&box, sel)

		svc.InvalidateCache()

		assert.Equal(t, 1, c.clears)
		assert.Empty(t, c.entries)
	})

	t.Run("invalidate without cache is a no-op", func(t *testing.T) {
		assert.NotPanics(t, func() { NewPricingService().InvalidateCache() })
	})

	t.Run("zero capacity disables caching", func(t *testing.T) {
		svc := NewPricingService(WithQuoteCache(0, time.Minute))
		assert.Nil(t, svc.cache)
	})
}

func TestFingerprint(t *testing.T) {
	box := giftBox()
	base := selectionOf(t, &box, append(pick("candle", "soap"), wrap("kraft"))...)

	t.Run("product order does not matter", func(t *testing.T) {
		reordered := selectionOf(t, &box, append(pick("soap", "candle"), wrap("kraft"))...)
		assert.Equal(t, Fingerprint(&box, base), Fingerprint(&box, reordered))
	})

	t.Run("keys carry the quote prefix and bundle digest", func(t *testing.T) {
		key := Fingerprint(&box, base)
		assert.Regexp(t, `^quote:gift-box@[0-9a-f]{16}\|`, key)
	})

	t.Run("revision alone does not matter", func(t *testing.T) {
		b := box.Clone()
		b.Revision = 7
		assert.Equal(t, Fingerprint(&box, base), Fingerprint(&b, base))
	})

	tests := []struct {
		name  string
		other func() (*model.Bundle, model.Selection)
	}{
		{
			name: "bundle rule",
			other: func() (*model.Bundle, model.Selection) {
				b := box.Clone()
				cents := int64(900)
				b.PricingType = model.PricingFixed
				b.PriceValueCents = &cents
				return &b, base
			},
		},
		{
			name: "tier rules",
			other: func() (*model.Bundle, model.Selection) {
				b := box.Clone()
				b.TierPrices = nil
				return &b, base
			},
		},
		{
			name: "item bounds",
			other: func() (*model.Bundle, model.Selection) {
				b := box.Clone()
				maxItems := 2
				b.MaxItems = &maxItems
				return &b, base
			},
		},
		{
			name: "variant price",
			other: func() (*model.Bundle, model.Selection) {
				b := box.Clone()
				b.Products[0].Variants[0].PriceCents++
				return &b, base
			},
		},
		{
			name: "variant choice",
			other: func() (*model.Bundle, model.Selection) {
				s, err := base.ChooseVariant(&box, "candle", "gid://shopify/ProductVariant/4411")
				require.NoError(t, err)
				return &box, s
			},
		},
		{
			name: "wrap",
			other: func() (*model.Bundle, model.Selection) {
				s, err := base.ChooseWrap(&box, "ribbon")
				require.NoError(t, err)
				return &box, s
			},
		},
		{
			name: "card",
			other: func() (*model.Bundle, model.Selection) {
				s, err := base.ChooseCard(&box, "birthday")
				require.NoError(t, err)
				return &box, s
			},
		},
	}

	for _, tt := range tests {
		t.Run("changes with "+tt.name, func(t *testing.T) {
			b, s := tt.other()
			assert.NotEqual(t, Fingerprint(&box, base), Fingerprint(b, s))
		})
	}
}

func TestPricingService_ConcurrentEvaluate(t *testing.T) {
	box := giftBox()
	svc := NewPricingService(WithQuoteCache(100, time.Minute))
	sel := selectionOf(t, &box, append(pick("candle", "soap", "mug"), wrap("kraft"))...)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, int64(1740), svc.Evaluate(&box, sel).UnitPriceCents)
		}()
	}
	wg.Wait()
}
