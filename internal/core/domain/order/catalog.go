// internal/core/domain/order/catalog.go
package order

import (
	"fmt"
	"strings"
)

// Product - позиция каталога: номинал и SKU провайдера
type Product struct {
	Code string
	SKU  string
}

// Catalog - упорядоченный неизменяемый каталог номиналов
type Catalog struct {
	products []Product
	index    map[string]string
}

// DefaultProducts - номиналы Higgs Domino у BOS StoreID
var DefaultProducts = []Product{
	{Code: "30M", SKU: "HD30M"},
	{Code: "60M", SKU: "HD60M"},
	{Code: "200M", SKU: "HD200M"},
}

func NewCatalog(products []Product) *Catalog {
	c := &Catalog{index: make(map[string]string, len(products))}
	for _, p := range products {
		if _, dup := c.index[p.Code]; dup {
			continue
		}
		c.products = append(c.products, p)
		c.index[p.Code] = p.SKU
	}
	return c
}

// ParseCatalog разбирает строку вида "30M:HD30M,60M:HD60M".
// Пустая строка дает каталог по умолчанию.
func ParseCatalog(raw string) (*Catalog, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return NewCatalog(DefaultProducts), nil
	}

	var products []Product
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		code, sku, ok := strings.Cut(item, ":")
		code, sku = strings.TrimSpace(code), strings.TrimSpace(sku)
		if !ok || code == "" || sku == "" {
			return nil, fmt.Errorf("invalid catalog entry %q (expected CODE:SKU)", item)
		}
		products = append(products, Product{Code: code, SKU: sku})
	}
	if len(products) == 0 {
		return nil, fmt.Errorf("catalog %q has no entries", raw)
	}
	return NewCatalog(products), nil
}

// Resolve возвращает SKU для номинала. Неизвестный код передается
// провайдеру как есть.
func (c *Catalog) Resolve(code string) string {
	if sku, ok := c.index[code]; ok {
		return sku
	}
	return code
}

// Contains - есть ли номинал в каталоге
func (c *Catalog) Contains(code string) bool {
	_, ok := c.index[code]
	return ok
}

// Products возвращает копию позиций в порядке объявления
func (c *Catalog) Products() []Product {
	out := make([]Product, len(c.products))
	copy(out, c.products)
	return out
}
