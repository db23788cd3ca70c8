package model

// ActionType names one shopper interaction with a selection.
type ActionType string

const (
	ActionSelectProduct   ActionType = "select_product"
	ActionDeselectProduct ActionType = "deselect_product"
	ActionChooseVariant   ActionType = "choose_variant"
	ActionChooseWrap      ActionType = "choose_wrap"
	ActionChooseCard      ActionType = "choose_card"
)

// Action is a serialized Selection operation.
//
// @Description One selection change made by the shopper
type Action struct {
	Type      ActionType `json:"type" binding:"required" example:"select_product"`
	ProductID string     `json:"product_id,omitempty" example:"candle"`
	VariantID string     `json:"variant_id,omitempty"`
	// AddOnID is the wrap or card id; empty clears the current choice.
	AddOnID string `json:"addon_id,omitempty" example:"kraft"`
} // @name Action

// Apply performs the action against the selection.
func (s Selection) Apply(b *Bundle, a Action) (Selection, error) {
	switch a.Type {
	case ActionSelectProduct:
		return s.SelectProduct(b, a.ProductID)
	case ActionDeselectProduct:
		return s.DeselectProduct(b, a.ProductID)
	case ActionChooseVariant:
		return s.ChooseVariant(b, a.ProductID, a.VariantID)
	case ActionChooseWrap:
		return s.ChooseWrap(b, a.AddOnID)
	case ActionChooseCard:
		return s.ChooseCard(b, a.AddOnID)
	default:
		return s, ErrUnknownAction
	}
}

// ApplyAll replays actions in order, stopping at the first failure.
func (s Selection) ApplyAll(b *Bundle, actions []Action) (Selection, error) {
	var err error
	for _, a := range actions {
		if s, err = s.Apply(b, a); err != nil {
			return s, err
		}
	}
	return s, nil
}
