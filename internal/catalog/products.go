package catalog

import (
	"context"
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/sweetfrozen/storefront/pkg/enums"
)

// ProductsCacheKey is the storage key holding the last remote product document.
const ProductsCacheKey = "catalog:products"

//go:embed data/products.json
var bundledProducts []byte

// Product is one ice-cream flavour offered by the store.
type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Image       string          `json:"image,omitempty"`
	Description string          `json:"description,omitempty"`
	Category    string          `json:"category,omitempty"`
	Stock       int             `json:"stock"`
	Ingredients []string        `json:"ingredients,omitempty"`
	Allergens   []string        `json:"allergens,omitempty"`
	Calories    int             `json:"calories,omitempty"`
}

// BundledProducts returns the embedded product document.
func BundledProducts() []byte {
	return bundledProducts
}

// ValidateProducts rejects documents with missing ids or negative prices.
func ValidateProducts(products []Product) error {
	seen := make(map[string]struct{}, len(products))
	for i, p := range products {
		id := strings.TrimSpace(p.ID)
		if id == "" {
			return fmt.Errorf("product %d has no id", i)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("duplicate product id %s", id)
		}
		seen[id] = struct{}{}
		if p.Price.IsNegative() {
			return fmt.Errorf("product %s has negative price", id)
		}
	}
	return nil
}

// Products is the in-memory product catalog. It is safe for concurrent use
// and can be reloaded while serving.
type Products struct {
	loader *Loader[Product]

	mu     sync.RWMutex
	items  []Product
	index  map[string]int
	source enums.DataSource
}

// NewProducts builds an empty catalog; call Reload to populate it.
func NewProducts(loader *Loader[Product]) *Products {
	return &Products{loader: loader, index: map[string]int{}}
}

// Reload resolves the product document again and swaps it in.
func (p *Products) Reload(ctx context.Context) error {
	items, source, err := p.loader.Load(ctx)
	if err != nil {
		return err
	}
	index := make(map[string]int, len(items))
	for i, item := range items {
		index[item.ID] = i
	}

	p.mu.Lock()
	p.items = items
	p.index = index
	p.source = source
	p.mu.Unlock()
	return nil
}

// Source reports which tier served the current document.
func (p *Products) Source() enums.DataSource {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.source
}

// List returns the products in catalog order, optionally filtered by category.
func (p *Products) List(category string) []Product {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]Product, 0, len(p.items))
	for _, item := range p.items {
		if category != "" && !strings.EqualFold(item.Category, category) {
			continue
		}
		out = append(out, item)
	}
	return out
}

// Get returns the product with the given id.
func (p *Products) Get(id string) (Product, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	i, ok := p.index[id]
	if !ok {
		return Product{}, false
	}
	return p.items[i], true
}

// PriceOf returns the unit price of a product.
func (p *Products) PriceOf(id string) (decimal.Decimal, bool) {
	product, ok := p.Get(id)
	if !ok {
		return decimal.Zero, false
	}
	return product.Price, true
}
