package repository

import (
	"github.com/shopspring/decimal"

	"github.com/guttosm/bundle-service/internal/domain/model"
)

func sampleBundle() *model.Bundle {
	minItems, maxItems := 2, 3
	amount := int64(150)
	pct := decimal.RequireFromString("12.5")
	return &model.Bundle{
		ID:    "gift-box",
		Title: "Build your gift box",
		Products: []model.Product{
			{ID: "candle", Title: "Candle", VariantGID: "gid://shopify/ProductVariant/4410", PriceCents: 500,
				Variants: []model.Variant{{ID: "gid://shopify/ProductVariant/4411", Title: "Large", PriceCents: 650}}},
			{ID: "soap", Title: "Soap", VariantGID: "gid://shopify/ProductVariant/4420", PriceCents: 300},
		},
		WrappingOptions: []model.AddOn{{ID: "kraft", Name: "Kraft paper", PriceCents: 300, ShopifyVariantID: "gid://shopify/ProductVariant/5001"}},
		WrapRequired:    true,
		Cards:           []model.AddOn{{ID: "birthday", Name: "Birthday card", ShopifyVariantID: "5002"}},
		MinItems:        &minItems,
		MaxItems:        &maxItems,
		PricingType:     model.PricingNone,
		TierPrices: []model.TierRule{
			{MinQuantity: 2, PricingType: model.PricingDiscountAmount, ValueCents: &amount},
			{MinQuantity: 3, PricingType: model.PricingDiscountPercent, ValuePercent: &pct},
		},
	}
}
