package model

import "regexp"

// Line item property keys sent with every bundle line.
const (
	PropItemType    = "_bundle_item_type"
	PropBundleID    = "_bundle_id"
	PropBundleTitle = "_bundle_title"
	PropAddOn       = "_bundle_addon"
	PropAddOnName   = "_addon_name"
)

// Line item types.
const (
	ItemTypeProduct = "product"
	ItemTypeWrap    = "wrap"
	ItemTypeCard    = "card"
)

var trailingDigits = regexp.MustCompile(`(\d+)$`)

// NumericID extracts the trailing numeric identifier of a purchasable
// reference such as "gid://shopify/ProductVariant/4410".
func NumericID(ref string) (string, bool) {
	m := trailingDigits.FindStringSubmatch(ref)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// LineItem is one purchasable unit submitted to the cart.
type LineItem struct {
	ID         string            `json:"id" example:"4410"`
	Quantity   int               `json:"quantity" example:"1"`
	Properties map[string]string `json:"properties"`
} // @name LineItem

// PrepareRequest is sent to the prepare endpoint before the cart call.
type PrepareRequest struct {
	BundleID   string            `json:"bundleId"`
	ProductIDs []string          `json:"productIds"`
	Variants   map[string]string `json:"variants"`
	WrapID     string            `json:"wrapId,omitempty"`
	CardID     string            `json:"cardId,omitempty"`
}

// PrepareResponse is the prepare endpoint answer.
type PrepareResponse struct {
	DiscountCode string `json:"discountCode,omitempty"`
	Error        string `json:"error,omitempty"`
}

// RedirectKind tells the storefront where to send the shopper next.
type RedirectKind string

const (
	RedirectCart     RedirectKind = "cart"
	RedirectCheckout RedirectKind = "checkout"
)

// SubmitResult describes a successful cart submission.
//
// @Description Outcome of an add-to-cart submission
type SubmitResult struct {
	LineItems    []LineItem   `json:"line_items"`
	Quote        Quote        `json:"quote"`
	DiscountCode string       `json:"discount_code,omitempty" example:"BUNDLE-7QX2"`
	Redirect     RedirectKind `json:"redirect" example:"checkout"`
	RedirectURL  string       `json:"redirect_url" example:"/checkout?discount=BUNDLE-7QX2"`
} // @name SubmitResult
