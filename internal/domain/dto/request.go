// Package dto defines Data Transfer Objects for HTTP request and response handling.
//
// DTOs are used to decouple the HTTP layer from the domain model,
// providing validation and serialization for API communication.
package dto

import "github.com/guttosm/bundle-service/internal/domain/model"

// SelectionRequest carries a selection for the stateless quote and cart
// endpoints. The snapshot, if any, is rebuilt leniently first and the actions
// are replayed on top of it strictly.
//
// @Description Selection to evaluate, as a snapshot and/or a list of actions
// @Example {"selection": {"products": [{"product_id": "candle"}], "wrap_id": "kraft"}}
// @Example {"actions": [{"type": "select_product", "product_id": "candle"}]}
type SelectionRequest struct {
	Selection *SelectionSnapshot `json:"selection,omitempty"`
	Actions   []model.Action     `json:"actions,omitempty" binding:"omitempty,dive"`
} // @name SelectionRequest

// SelectionSnapshot is a client-held selection.
type SelectionSnapshot struct {
	Products []SelectedProductRequest `json:"products" binding:"omitempty,dive"`
	WrapID   string                   `json:"wrap_id,omitempty" example:"kraft"`
	CardID   string                   `json:"card_id,omitempty" example:"birthday"`
} // @name SelectionSnapshot

// SelectedProductRequest is one product of a snapshot.
type SelectedProductRequest struct {
	ProductID string `json:"product_id" binding:"required" example:"candle"`
	VariantID string `json:"variant_id,omitempty" example:"gid://shopify/ProductVariant/4411"`
} // @name SelectedProductRequest

// ActionsRequest is the body of the session actions endpoint.
//
// @Description Selection changes to apply to a session, all or nothing
// @Example {"actions": [{"type": "choose_wrap", "addon_id": "kraft"}]}
type ActionsRequest struct {
	Actions []model.Action `json:"actions" binding:"required,min=1,dive"`
} // @name ActionsRequest

// ValidationError represents a field validation error.
type ValidationError struct {
	Field   string
	Message string
}

var (
	// ErrEmptySelectionRequest is returned when neither a snapshot nor actions were sent.
	ErrEmptySelectionRequest = &ValidationError{
		Field:   "selection",
		Message: "either selection or actions is required",
	}
)

// Error returns the error message for ValidationError.
func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// Validate performs custom validation on the request.
func (r *SelectionRequest) Validate() error {
	if r.Selection == nil && len(r.Actions) == 0 {
		return ErrEmptySelectionRequest
	}
	return nil
}

// ToSelection rebuilds the snapshot against b. References the bundle no
// longer resolves (retired products or add-ons, stale variant ids) are dropped
// rather than rejected; Actions are not included.
func (r *SelectionRequest) ToSelection(b *model.Bundle) model.Selection {
	raw := model.NewSelection(b.ID)
	s := r.Selection
	if s == nil {
		return raw
	}
	for _, p := range s.Products {
		raw.Products = append(raw.Products, model.SelectedProduct{ProductID: p.ProductID, ChosenVariantID: p.VariantID})
	}
	if s.WrapID != "" {
		raw.Wrap = &model.AddOn{ID: s.WrapID}
	}
	if s.CardID != "" {
		raw.Card = &model.AddOn{ID: s.CardID}
	}
	return raw.Normalize(b)
}
