// Package model defines the core domain entities for the bundle service.
package model

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// PricingType selects how a bundle or tier rule turns the subtotal into a price.
type PricingType string

const (
	// PricingNone leaves the subtotal untouched.
	PricingNone PricingType = "NONE"
	// PricingFixed replaces the subtotal with a fixed amount.
	PricingFixed PricingType = "FIXED"
	// PricingDiscountPercent removes a percentage of the subtotal.
	PricingDiscountPercent PricingType = "DISCOUNT_PERCENT"
	// PricingDiscountAmount removes a fixed amount from the subtotal.
	PricingDiscountAmount PricingType = "DISCOUNT_AMOUNT"
)

// Valid reports whether t is one of the known pricing types.
// The empty string is accepted and treated as NONE.
func (t PricingType) Valid() bool {
	switch t {
	case "", PricingNone, PricingFixed, PricingDiscountPercent, PricingDiscountAmount:
		return true
	}
	return false
}

// Bundle is a configurable group offer: optional products plus optional wrap and card add-ons.
//
// @Description Bundle configuration offered to shoppers
type Bundle struct {
	ID              string      `json:"id" yaml:"id" example:"gift-box"`
	Title           string      `json:"title" yaml:"title" example:"Build your gift box"`
	Description     string      `json:"description,omitempty" yaml:"description"`
	ImageURL        string      `json:"image_url,omitempty" yaml:"image_url"`
	Products        []Product   `json:"products" yaml:"products"`
	WrappingOptions []AddOn     `json:"wrapping_options" yaml:"wrapping_options"`
	WrapRequired    bool        `json:"wrap_required" yaml:"wrap_required"`
	Cards           []AddOn     `json:"cards" yaml:"cards"`
	MinItems        *int        `json:"min_items,omitempty" yaml:"min_items"`
	MaxItems        *int        `json:"max_items,omitempty" yaml:"max_items"`
	PricingType     PricingType `json:"pricing_type" yaml:"pricing_type" example:"NONE"`
	// PriceValueCents is the fixed price, the discount amount, or the discount
	// percentage, depending on PricingType.
	PriceValueCents *int64     `json:"price_value_cents,omitempty" yaml:"price_value_cents"`
	TierPrices      []TierRule `json:"tier_prices" yaml:"tier_prices"`
	// Revision changes whenever the stored bundle changes.
	Revision int `json:"revision" yaml:"revision"`
} // @name Bundle

// Product is a catalog item offered inside a bundle.
type Product struct {
	ID         string    `json:"id" yaml:"id" example:"candle"`
	Title      string    `json:"title,omitempty" yaml:"title"`
	VariantGID string    `json:"variant_gid" yaml:"variant_gid" example:"gid://shopify/ProductVariant/4410"`
	PriceCents int64     `json:"price_cents" yaml:"price_cents" example:"500"`
	Variants   []Variant `json:"variants,omitempty" yaml:"variants"`
} // @name Product

// Variant is an alternate purchasable option of a product with its own price.
type Variant struct {
	ID         string `json:"id" yaml:"id" example:"gid://shopify/ProductVariant/4411"`
	Title      string `json:"title" yaml:"title" example:"Large"`
	PriceCents int64  `json:"price_cents" yaml:"price_cents" example:"650"`
} // @name Variant

// AddOn is a wrap or card option attachable to a bundle.
type AddOn struct {
	ID         string `json:"id" yaml:"id" example:"kraft"`
	Name       string `json:"name" yaml:"name" example:"Kraft paper"`
	PriceCents int64  `json:"price_cents" yaml:"price_cents" example:"300"`
	// ShopifyVariantID is the external purchasable reference. Without it the
	// add-on is priced but never sent to the cart.
	ShopifyVariantID string `json:"shopify_variant_id,omitempty" yaml:"shopify_variant_id"`
} // @name AddOn

// TierRule overrides the price once the selected product count reaches MinQuantity.
type TierRule struct {
	MinQuantity  int              `json:"min_quantity" yaml:"min_quantity" example:"3"`
	PricingType  PricingType      `json:"pricing_type" yaml:"pricing_type" example:"DISCOUNT_PERCENT"`
	ValueCents   *int64           `json:"value_cents,omitempty" yaml:"value_cents"`
	ValuePercent *decimal.Decimal `json:"value_percent,omitempty" yaml:"value_percent" swaggertype:"number"`
} // @name TierRule

// Product returns the product with the given id.
func (b *Bundle) Product(id string) (Product, bool) {
	for _, p := range b.Products {
		if p.ID == id {
			return p, true
		}
	}
	return Product{}, false
}

// Wrap returns the wrapping option with the given id.
func (b *Bundle) Wrap(id string) (AddOn, bool) {
	return findAddOn(b.WrappingOptions, id)
}

// Card returns the card option with the given id.
func (b *Bundle) Card(id string) (AddOn, bool) {
	return findAddOn(b.Cards, id)
}

func findAddOn(options []AddOn, id string) (AddOn, bool) {
	for _, a := range options {
		if a.ID == id {
			return a, true
		}
	}
	return AddOn{}, false
}

// Variant returns the variant with the given id.
func (p Product) Variant(id string) (Variant, bool) {
	if id == "" {
		return Variant{}, false
	}
	for _, v := range p.Variants {
		if v.ID == id {
			return v, true
		}
	}
	return Variant{}, false
}

// UnmarshalJSON accepts variants either as a JSON array or as a JSON-encoded
// string holding that array. Malformed variant data decodes to an empty list.
func (p *Product) UnmarshalJSON(data []byte) error {
	type alias Product
	var raw struct {
		alias
		Variants json.RawMessage `json:"variants"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = Product(raw.alias)
	p.Variants = DecodeVariants(raw.Variants)
	return nil
}

// DecodeVariants decodes a raw variants payload. It never fails: anything that
// is not a list of variants, directly or wrapped in a string, yields nil.
func DecodeVariants(raw []byte) []Variant {
	if len(raw) == 0 {
		return nil
	}

	var variants []Variant
	if err := json.Unmarshal(raw, &variants); err == nil {
		return variants
	}

	var encoded string
	if err := json.Unmarshal(raw, &encoded); err != nil || encoded == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(encoded), &variants); err != nil {
		return nil
	}
	return variants
}

// Clone returns a deep copy of the bundle.
func (b Bundle) Clone() Bundle {
	out := b
	out.Products = make([]Product, len(b.Products))
	for i, p := range b.Products {
		p.Variants = append([]Variant(nil), p.Variants...)
		out.Products[i] = p
	}
	out.WrappingOptions = append([]AddOn(nil), b.WrappingOptions...)
	out.Cards = append([]AddOn(nil), b.Cards...)
	out.TierPrices = make([]TierRule, len(b.TierPrices))
	for i, t := range b.TierPrices {
		if t.ValueCents != nil {
			v := *t.ValueCents
			t.ValueCents = &v
		}
		if t.ValuePercent != nil {
			v := *t.ValuePercent
			t.ValuePercent = &v
		}
		out.TierPrices[i] = t
	}
	out.MinItems = cloneInt(b.MinItems)
	out.MaxItems = cloneInt(b.MaxItems)
	if b.PriceValueCents != nil {
		v := *b.PriceValueCents
		out.PriceValueCents = &v
	}
	return out
}

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
