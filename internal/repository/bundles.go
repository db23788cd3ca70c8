package repository

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/guttosm/bundle-service/internal/domain/model"
)

// ErrBundleNotFound is returned when no bundle has the requested id.
var ErrBundleNotFound = errors.New("bundle not found")

// BundleDocument is the MongoDB representation of a bundle.
type BundleDocument struct {
	ID              string            `bson:"_id"`
	Title           string            `bson:"title"`
	Description     string            `bson:"description,omitempty"`
	ImageURL        string            `bson:"image_url,omitempty"`
	Products        []ProductDocument `bson:"products"`
	WrappingOptions []AddOnDocument   `bson:"wrapping_options"`
	WrapRequired    bool              `bson:"wrap_required"`
	Cards           []AddOnDocument   `bson:"cards"`
	MinItems        *int              `bson:"min_items,omitempty"`
	MaxItems        *int              `bson:"max_items,omitempty"`
	PricingType     string            `bson:"pricing_type"`
	PriceValueCents *int64            `bson:"price_value_cents,omitempty"`
	TierPrices      []TierDocument    `bson:"tier_prices"`
	Revision        int               `bson:"revision"`
	UpdatedAt       time.Time         `bson:"updated_at"`
}

// ProductDocument is the MongoDB representation of a bundle product.
type ProductDocument struct {
	ID         string            `bson:"id"`
	Title      string            `bson:"title,omitempty"`
	VariantGID string            `bson:"variant_gid"`
	PriceCents int64             `bson:"price_cents"`
	Variants   []VariantDocument `bson:"variants,omitempty"`
}

// VariantDocument is the MongoDB representation of a product variant.
type VariantDocument struct {
	ID         string `bson:"id"`
	Title      string `bson:"title"`
	PriceCents int64  `bson:"price_cents"`
}

// AddOnDocument is the MongoDB representation of a wrap or card.
type AddOnDocument struct {
	ID               string `bson:"id"`
	Name             string `bson:"name"`
	PriceCents       int64  `bson:"price_cents"`
	ShopifyVariantID string `bson:"shopify_variant_id,omitempty"`
}

// TierDocument is the MongoDB representation of a tier rule.
// Percentages are stored as decimal strings to keep them exact.
type TierDocument struct {
	MinQuantity  int    `bson:"min_quantity"`
	PricingType  string `bson:"pricing_type"`
	ValueCents   *int64 `bson:"value_cents,omitempty"`
	ValuePercent string `bson:"value_percent,omitempty"`
}

// BundleRepository stores bundles in the MongoDB bundles collection.
type BundleRepository struct {
	collection *mongo.Collection
}

// NewBundleRepository creates a new bundle repository.
func NewBundleRepository(db *MongoDB) *BundleRepository {
	return &BundleRepository{
		collection: db.Bundles,
	}
}

// Get returns the bundle with the given id.
func (r *BundleRepository) Get(ctx context.Context, id string) (*model.Bundle, error) {
	var doc BundleDocument
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrBundleNotFound
	}
	if err != nil {
		return nil, err
	}
	b := doc.toModel()
	return &b, nil
}

// List returns all bundles ordered by id.
func (r *BundleRepository) List(ctx context.Context) ([]model.Bundle, error) {
	cursor, err := r.collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.M{"_id": 1}))
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = cursor.Close(ctx)
	}()

	var docs []BundleDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	bundles := make([]model.Bundle, len(docs))
	for i := range docs {
		bundles[i] = docs[i].toModel()
	}
	return bundles, nil
}

// Upsert inserts or replaces a bundle and increments its revision.
func (r *BundleRepository) Upsert(ctx context.Context, b *model.Bundle) (*model.Bundle, error) {
	doc := bundleToDocument(b)
	set := bson.M{
		"title":             doc.Title,
		"description":       doc.Description,
		"image_url":         doc.ImageURL,
		"products":          doc.Products,
		"wrapping_options":  doc.WrappingOptions,
		"wrap_required":     doc.WrapRequired,
		"cards":             doc.Cards,
		"min_items":         doc.MinItems,
		"max_items":         doc.MaxItems,
		"pricing_type":      doc.PricingType,
		"price_value_cents": doc.PriceValueCents,
		"tier_prices":       doc.TierPrices,
		"updated_at":        time.Now(),
	}

	var stored BundleDocument
	err := r.collection.FindOneAndUpdate(
		ctx,
		bson.M{"_id": doc.ID},
		bson.M{"$set": set, "$inc": bson.M{"revision": 1}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&stored)
	if err != nil {
		return nil, err
	}

	out := stored.toModel()
	return &out, nil
}

// MemoryBundleRepository keeps bundles in process memory. It backs the
// catalog when MongoDB is disabled.
type MemoryBundleRepository struct {
	mu      sync.RWMutex
	bundles map[string]model.Bundle
}

// NewMemoryBundleRepository creates an empty in-memory bundle repository.
func NewMemoryBundleRepository() *MemoryBundleRepository {
	return &MemoryBundleRepository{bundles: make(map[string]model.Bundle)}
}

// Get returns a copy of the bundle with the given id.
func (r *MemoryBundleRepository) Get(_ context.Context, id string) (*model.Bundle, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.bundles[id]
	if !ok {
		return nil, ErrBundleNotFound
	}
	out := b.Clone()
	return &out, nil
}

// List returns copies of all bundles ordered by id.
func (r *MemoryBundleRepository) List(_ context.Context) ([]model.Bundle, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	bundles := make([]model.Bundle, 0, len(r.bundles))
	for _, b := range r.bundles {
		bundles = append(bundles, b.Clone())
	}
	sort.Slice(bundles, func(i, j int) bool { return bundles[i].ID < bundles[j].ID })
	return bundles, nil
}

// Upsert stores a copy of the bundle and increments its revision.
func (r *MemoryBundleRepository) Upsert(_ context.Context, b *model.Bundle) (*model.Bundle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := b.Clone()
	stored.Revision = r.bundles[b.ID].Revision + 1
	r.bundles[b.ID] = stored

	out := stored.Clone()
	return &out, nil
}

func bundleToDocument(b *model.Bundle) BundleDocument {
	doc := BundleDocument{
		ID:              b.ID,
		Title:           b.Title,
		Description:     b.Description,
		ImageURL:        b.ImageURL,
		Products:        make([]ProductDocument, len(b.Products)),
		WrappingOptions: addOnsToDocuments(b.WrappingOptions),
		WrapRequired:    b.WrapRequired,
		Cards:           addOnsToDocuments(b.Cards),
		MinItems:        b.MinItems,
		MaxItems:        b.MaxItems,
		PricingType:     string(b.PricingType),
		PriceValueCents: b.PriceValueCents,
		TierPrices:      make([]TierDocument, len(b.TierPrices)),
		Revision:        b.Revision,
	}
	for i, p := range b.Products {
		pd := ProductDocument{ID: p.ID, Title: p.Title, VariantGID: p.VariantGID, PriceCents: p.PriceCents}
		for _, v := range p.Variants {
			pd.Variants = append(pd.Variants, VariantDocument(v))
		}
		doc.Products[i] = pd
	}
	for i, t := range b.TierPrices {
		td := TierDocument{MinQuantity: t.MinQuantity, PricingType: string(t.PricingType), ValueCents: t.ValueCents}
		if t.ValuePercent != nil {
			td.ValuePercent = t.ValuePercent.String()
		}
		doc.TierPrices[i] = td
	}
	return doc
}

func (d BundleDocument) toModel() model.Bundle {
	b := model.Bundle{
		ID:              d.ID,
		Title:           d.Title,
		Description:     d.Description,
		ImageURL:        d.ImageURL,
		Products:        make([]model.Product, len(d.Products)),
		WrappingOptions: documentsToAddOns(d.WrappingOptions),
		WrapRequired:    d.WrapRequired,
		Cards:           documentsToAddOns(d.Cards),
		MinItems:        d.MinItems,
		MaxItems:        d.MaxItems,
		PricingType:     model.PricingType(d.PricingType),
		PriceValueCents: d.PriceValueCents,
		TierPrices:      make([]model.TierRule, len(d.TierPrices)),
		Revision:        d.Revision,
	}
	for i, p := range d.Products {
		mp := model.Product{ID: p.ID, Title: p.Title, VariantGID: p.VariantGID, PriceCents: p.PriceCents}
		for _, v := range p.Variants {
			mp.Variants = append(mp.Variants, model.Variant(v))
		}
		b.Products[i] = mp
	}
	for i, t := range d.TierPrices {
		rule := model.TierRule{MinQuantity: t.MinQuantity, PricingType: model.PricingType(t.PricingType), ValueCents: t.ValueCents}
		if t.ValuePercent != "" {
			// A malformed stored percentage leaves the rule without a value.
			if pct, err := decimal.NewFromString(t.ValuePercent); err == nil {
				rule.ValuePercent = &pct
			}
		}
		b.TierPrices[i] = rule
	}
	return b
}

func addOnsToDocuments(addOns []model.AddOn) []AddOnDocument {
	docs := make([]AddOnDocument, len(addOns))
	for i, a := range addOns {
		docs[i] = AddOnDocument(a)
	}
	return docs
}

func documentsToAddOns(docs []AddOnDocument) []model.AddOn {
	addOns := make([]model.AddOn, len(docs))
	for i, d := range docs {
		addOns[i] = model.AddOn(d)
	}
	return addOns
}
