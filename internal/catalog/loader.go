// Package catalog loads bundle definitions from a seed file.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/guttosm/bundle-service/internal/domain/model"
)

// ErrInvalidCatalog wraps every structural problem found in a catalog file.
var ErrInvalidCatalog = errors.New("invalid bundle catalog")

// File is the layout of a catalog seed file.
type File struct {
	Bundles []model.Bundle `yaml:"bundles" json:"bundles"`
}

// LoadFile reads a YAML or JSON catalog, chosen by file extension.
func LoadFile(path string) ([]model.Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var file File
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, &file)
	default:
		err = yaml.Unmarshal(data, &file)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidCatalog, path, err)
	}

	if err := Validate(file.Bundles); err != nil {
		return nil, err
	}
	return file.Bundles, nil
}

// Validate rejects catalogs the service cannot serve: missing or duplicate
// ids and unknown pricing types. Soft anomalies such as unresolvable variant
// references are left for the engine to tolerate.
func Validate(bundles []model.Bundle) error {
	seen := make(map[string]bool, len(bundles))
	for i, b := range bundles {
		if b.ID == "" {
			return fmt.Errorf("%w: bundle #%d has no id", ErrInvalidCatalog, i)
		}
		if seen[b.ID] {
			return fmt.Errorf("%w: duplicate bundle id %q", ErrInvalidCatalog, b.ID)
		}
		seen[b.ID] = true

		if !b.PricingType.Valid() {
			return fmt.Errorf("%w: bundle %q has unknown pricing type %q", ErrInvalidCatalog, b.ID, b.PricingType)
		}
		if err := validateProducts(b); err != nil {
			return err
		}
		for _, t := range b.TierPrices {
			if !t.PricingType.Valid() || t.PricingType == "" || t.PricingType == model.PricingNone {
				return fmt.Errorf("%w: bundle %q tier %d has invalid pricing type %q", ErrInvalidCatalog, b.ID, t.MinQuantity, t.PricingType)
			}
		}
	}
	return nil
}

func validateProducts(b model.Bundle) error {
	products := make(map[string]bool, len(b.Products))
	for _, p := range b.Products {
		if p.ID == "" {
			return fmt.Errorf("%w: bundle %q has a product without id", ErrInvalidCatalog, b.ID)
		}
		if products[p.ID] {
			return fmt.Errorf("%w: bundle %q lists product %q twice", ErrInvalidCatalog, b.ID, p.ID)
		}
		products[p.ID] = true
	}

	for kind, options := range map[string][]model.AddOn{"wrap": b.WrappingOptions, "card": b.Cards} {
		ids := make(map[string]bool, len(options))
		for _, a := range options {
			if a.ID == "" || ids[a.ID] {
				return fmt.Errorf("%w: bundle %q has a missing or duplicate %s id %q", ErrInvalidCatalog, b.ID, kind, a.ID)
			}
			ids[a.ID] = true
		}
	}
	return nil
}
