package model

import "errors"

var (
	// ErrUnknownProduct is returned when a product id is not part of the bundle.
	ErrUnknownProduct = errors.New("product is not part of the bundle")
	// ErrUnknownVariant is returned when a variant id does not belong to the product.
	ErrUnknownVariant = errors.New("variant does not belong to the product")
	// ErrProductNotSelected is returned when choosing a variant for an unselected product.
	ErrProductNotSelected = errors.New("product is not selected")
	// ErrUnknownAddOn is returned when a wrap or card id is not offered by the bundle.
	ErrUnknownAddOn = errors.New("add-on is not offered by the bundle")
	// ErrUnknownAction is returned by Apply for an unsupported action type.
	ErrUnknownAction = errors.New("unknown selection action")
)

// SelectedProduct is one entry of the shopper's product selection.
type SelectedProduct struct {
	ProductID       string `json:"product_id" example:"candle"`
	PriceCents      int64  `json:"price_cents" example:"500"`
	ChosenVariantID string `json:"chosen_variant_id,omitempty" example:"gid://shopify/ProductVariant/4411"`
} // @name SelectedProduct

// Selection holds the shopper's current choices for one bundle.
//
// A Selection is a value: every operation returns an updated copy and leaves
// the receiver untouched, so a quote computed from one step can never observe
// a later mutation.
type Selection struct {
	BundleID string            `json:"bundle_id" example:"gift-box"`
	Products []SelectedProduct `json:"selected_products"`
	Wrap     *AddOn            `json:"selected_wrap,omitempty"`
	Card     *AddOn            `json:"selected_card,omitempty"`
} // @name Selection

// NewSelection returns an empty selection for the given bundle.
func NewSelection(bundleID string) Selection {
	return Selection{BundleID: bundleID, Products: []SelectedProduct{}}
}

// Count returns the number of selected products.
func (s Selection) Count() int {
	return len(s.Products)
}

// Empty reports whether nothing at all is selected.
func (s Selection) Empty() bool {
	return len(s.Products) == 0 && s.Wrap == nil && s.Card == nil
}

// Has reports whether the product is selected.
func (s Selection) Has(productID string) bool {
	return s.index(productID) >= 0
}

// Entry returns the selection entry for a product.
func (s Selection) Entry(productID string) (SelectedProduct, bool) {
	if i := s.index(productID); i >= 0 {
		return s.Products[i], true
	}
	return SelectedProduct{}, false
}

// ProductIDs returns the selected product ids in selection order.
func (s Selection) ProductIDs() []string {
	ids := make([]string, len(s.Products))
	for i, p := range s.Products {
		ids[i] = p.ProductID
	}
	return ids
}

// VariantMap returns product id -> chosen variant id for products with a variant choice.
func (s Selection) VariantMap() map[string]string {
	variants := make(map[string]string)
	for _, p := range s.Products {
		if p.ChosenVariantID != "" {
			variants[p.ProductID] = p.ChosenVariantID
		}
	}
	return variants
}

// SelectProduct adds a product at its base price. Selecting an already
// selected product keeps the existing entry.
func (s Selection) SelectProduct(b *Bundle, productID string) (Selection, error) {
	product, ok := b.Product(productID)
	if !ok {
		return s, ErrUnknownProduct
	}
	if s.Has(productID) {
		return s, nil
	}

	next := s.clone()
	next.Products = append(next.Products, SelectedProduct{
		ProductID:  product.ID,
		PriceCents: product.PriceCents,
	})
	return next, nil
}

// DeselectProduct removes a product together with its variant choice.
func (s Selection) DeselectProduct(_ *Bundle, productID string) (Selection, error) {
	i := s.index(productID)
	if i < 0 {
		return s, nil
	}

	next := s.clone()
	next.Products = append(next.Products[:i], next.Products[i+1:]...)
	return next, nil
}

// ChooseVariant records a variant choice for a selected product. An empty
// variantID clears the choice.
func (s Selection) ChooseVariant(b *Bundle, productID, variantID string) (Selection, error) {
	product, ok := b.Product(productID)
	if !ok {
		return s, ErrUnknownProduct
	}
	i := s.index(productID)
	if i < 0 {
		return s, ErrProductNotSelected
	}
	if variantID != "" {
		if _, ok := product.Variant(variantID); !ok {
			return s, ErrUnknownVariant
		}
	}

	next := s.clone()
	next.Products[i].ChosenVariantID = variantID
	return next, nil
}

// ChooseWrap selects a wrapping option. An empty id clears the choice.
func (s Selection) ChooseWrap(b *Bundle, wrapID string) (Selection, error) {
	next := s.clone()
	if wrapID == "" {
		next.Wrap = nil
		return next, nil
	}
	wrap, ok := b.Wrap(wrapID)
	if !ok {
		return s, ErrUnknownAddOn
	}
	next.Wrap = &wrap
	return next, nil
}

// ChooseCard selects a greeting card. An empty id clears the choice.
func (s Selection) ChooseCard(b *Bundle, cardID string) (Selection, error) {
	next := s.clone()
	if cardID == "" {
		next.Card = nil
		return next, nil
	}
	card, ok := b.Card(cardID)
	if !ok {
		return s, ErrUnknownAddOn
	}
	next.Card = &card
	return next, nil
}

func (s Selection) index(productID string) int {
	for i, p := range s.Products {
		if p.ProductID == productID {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy of the selection.
func (s Selection) Clone() Selection {
	return s.clone()
}

func (s Selection) clone() Selection {
	next := s
	next.Products = make([]SelectedProduct, len(s.Products), len(s.Products)+1)
	copy(next.Products, s.Products)
	if s.Wrap != nil {
		wrap := *s.Wrap
		next.Wrap = &wrap
	}
	if s.Card != nil {
		card := *s.Card
		next.Card = &card
	}
	return next
}

// Normalize rebuilds a selection received from outside so that it satisfies
// the selection invariants for b: unknown products are dropped, duplicates
// collapse to the first entry, unknown variant ids are treated as absent and
// add-ons are resolved by id against the bundle.
func (s Selection) Normalize(b *Bundle) Selection {
	next := NewSelection(b.ID)
	for _, entry := range s.Products {
		product, ok := b.Product(entry.ProductID)
		if !ok || next.Has(product.ID) {
			continue
		}
		item := SelectedProduct{ProductID: product.ID, PriceCents: product.PriceCents}
		if _, ok := product.Variant(entry.ChosenVariantID); ok {
			item.ChosenVariantID = entry.ChosenVariantID
		}
		next.Products = append(next.Products, item)
	}
	if s.Wrap != nil {
		if wrap, ok := b.Wrap(s.Wrap.ID); ok {
			next.Wrap = &wrap
		}
	}
	if s.Card != nil {
		if card, ok := b.Card(s.Card.ID); ok {
			next.Card = &card
		}
	}
	return next
}
