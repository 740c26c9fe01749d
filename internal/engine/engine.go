// Package engine derives the visible product list from a catalog, a category
// filter, a search text and a sort key.
package engine

import (
	"cmp"
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/utafrali/shopvista/internal/domain"
)

// Engine filters and sorts products. Name ordering follows the collation rules
// of its language tag. An Engine is safe for concurrent use.
type Engine struct {
	tag language.Tag
}

// New creates an engine that orders names using the collation of tag.
func New(tag language.Tag) *Engine {
	return &Engine{tag: tag}
}

var english = New(language.English)

// VisibleProducts filters and sorts products with English name collation.
// See (*Engine).VisibleProducts.
func VisibleProducts(products []domain.Product, category domain.Category, searchText string, sortKey domain.SortKey) []domain.Product {
	return english.VisibleProducts(products, category, searchText, sortKey)
}

// VisibleProducts returns the products that belong to category (or every
// product when category is All) and whose name or description contains
// searchText, ignoring case. The result is ordered by sortKey with a stable
// sort; unknown keys order by name.
//
// The input slice is never modified. The result is always a new, non-nil slice.
func (e *Engine) VisibleProducts(products []domain.Product, category domain.Category, searchText string, sortKey domain.SortKey) []domain.Product {
	needle := strings.ToLower(searchText)

	out := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if matches(p, category, needle) {
			out = append(out, p)
		}
	}

	e.sortProducts(out, sortKey)
	return out
}

// matches reports whether p passes the category and search filters.
// needle must already be lower-cased.
func matches(p domain.Product, category domain.Category, needle string) bool {
	if category != domain.CategoryAll && p.Category != category {
		return false
	}
	if needle == "" {
		return true
	}
	if strings.Contains(strings.ToLower(p.Name), needle) {
		return true
	}
	return p.Description != nil && strings.Contains(strings.ToLower(*p.Description), needle)
}

func (e *Engine) sortProducts(products []domain.Product, sortKey domain.SortKey) {
	switch sortKey {
	case domain.SortByPriceLow:
		slices.SortStableFunc(products, func(a, b domain.Product) int {
			return cmp.Compare(a.Price, b.Price)
		})
	case domain.SortByPriceHigh:
		slices.SortStableFunc(products, func(a, b domain.Product) int {
			return cmp.Compare(b.Price, a.Price)
		})
	case domain.SortByRating:
		slices.SortStableFunc(products, func(a, b domain.Product) int {
			return cmp.Compare(b.RatingOrZero(), a.RatingOrZero())
		})
	default:
		// A Collator keeps scratch buffers and must not be shared between goroutines.
		col := collate.New(e.tag)
		slices.SortStableFunc(products, func(a, b domain.Product) int {
			return col.CompareString(a.Name, b.Name)
		})
	}
}
