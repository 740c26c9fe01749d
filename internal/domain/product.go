package domain

import (
	"fmt"
	"slices"
	"strings"
)

// Category is the closed set of catalog groupings.
type Category string

// Product categories. CategoryAll is the filter sentinel that matches every
// product; no product carries it.
const (
	CategoryAll         Category = "All"
	CategoryElectronics Category = "Electronics"
	CategoryBooks       Category = "Books"
	CategoryClothing    Category = "Clothing"
)

// Categories returns the filterable categories in display order, All first.
func Categories() []Category {
	return []Category{CategoryAll, CategoryElectronics, CategoryBooks, CategoryClothing}
}

// IsProductCategory reports whether c is one a product can belong to. The All
// sentinel and names outside the closed set are not.
func (c Category) IsProductCategory() bool {
	return c != CategoryAll && slices.Contains(Categories(), c)
}

// ParseCategory resolves a category name case-insensitively. An empty string
// means All.
func ParseCategory(s string) (Category, error) {
	if s == "" {
		return CategoryAll, nil
	}
	for _, c := range Categories() {
		if strings.EqualFold(s, string(c)) {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category %q", s)
}

// SortKey selects the ordering of the visible product list.
type SortKey string

// Sort keys.
const (
	SortByName      SortKey = "name"
	SortByPriceLow  SortKey = "price-low"
	SortByPriceHigh SortKey = "price-high"
	SortByRating    SortKey = "rating"
)

// SortKeys returns every recognised sort key.
func SortKeys() []SortKey {
	return []SortKey{SortByName, SortByPriceLow, SortByPriceHigh, SortByRating}
}

// Valid reports whether k is a recognised sort key.
func (k SortKey) Valid() bool {
	switch k {
	case SortByName, SortByPriceLow, SortByPriceHigh, SortByRating:
		return true
	}
	return false
}

// Product is a single catalog item. Price is in whole currency units.
// Description, Rating and Image are optional; nil means absent.
type Product struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Category    Category `json:"category"`
	Price       int64    `json:"price"`
	Description *string  `json:"description,omitempty"`
	Rating      *float64 `json:"rating,omitempty"`
	Image       *string  `json:"image,omitempty"`
}

// RatingOrZero returns the rating, treating a missing rating as 0.
func (p Product) RatingOrZero() float64 {
	if p.Rating == nil {
		return 0
	}
	return *p.Rating
}

// Clone returns a copy of p whose optional fields do not share storage with p.
func (p Product) Clone() Product {
	c := p
	if p.Description != nil {
		d := *p.Description
		c.Description = &d
	}
	if p.Rating != nil {
		r := *p.Rating
		c.Rating = &r
	}
	if p.Image != nil {
		i := *p.Image
		c.Image = &i
	}
	return c
}
