package cache

import "github.com/guttosm/bundle-service/internal/domain/model"

func quoteFixture() model.Quote {
	tier := 3
	return model.Quote{
		UnitPriceCents:       1740,
		SavingsCents:         160,
		SubtotalCents:        1600,
		IndividualTotalCents: 1600,
		AddOnsCents:          300,
		ItemCount:            3,
		AppliedTier:          &tier,
		Valid:                true,
		Violations:           []model.Violation{},
	}
}
