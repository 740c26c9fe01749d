// Package catalog holds the storefront's fixed product list.
package catalog

import (
	"fmt"
	"strconv"

	"github.com/utafrali/shopvista/internal/domain"
	apperrors "github.com/utafrali/shopvista/pkg/errors"
)

const imageBase = "https://slelguoygbfzlpylpxfs.supabase.co/storage/v1/object/public/project-uploads/b7834ac2-2b13-44f7-90b1-5d60538e8a19/generated_images/"

// Catalog is an immutable set of products. Callers always receive copies, so
// nothing they do can change what later callers see.
type Catalog struct {
	products []domain.Product
	byID     map[int64]int
}

// New builds a catalog from products. Product IDs must be positive and unique,
// prices non-negative and categories drawn from the closed product set.
func New(products []domain.Product) (*Catalog, error) {
	c := &Catalog{
		products: make([]domain.Product, 0, len(products)),
		byID:     make(map[int64]int, len(products)),
	}
	for _, p := range products {
		if p.ID <= 0 {
			return nil, fmt.Errorf("product %q: id must be positive, got %d", p.Name, p.ID)
		}
		if _, dup := c.byID[p.ID]; dup {
			return nil, fmt.Errorf("duplicate product id %d", p.ID)
		}
		if p.Price < 0 {
			return nil, fmt.Errorf("product %d: price must not be negative", p.ID)
		}
		if p.Rating != nil && (*p.Rating < 0 || *p.Rating > 5) {
			return nil, fmt.Errorf("product %d: rating %v out of range 0..5", p.ID, *p.Rating)
		}
		if !p.Category.IsProductCategory() {
			return nil, fmt.Errorf("product %d: %q is not a product category", p.ID, p.Category)
		}
		c.byID[p.ID] = len(c.products)
		c.products = append(c.products, p.Clone())
	}
	return c, nil
}

// Default returns the ShopVista demo catalog.
func Default() *Catalog {
	c, err := New(defaultProducts())
	if err != nil {
		panic(err)
	}
	return c
}

// Products returns a copy of every product in catalog order.
func (c *Catalog) Products() []domain.Product {
	out := make([]domain.Product, len(c.products))
	for i, p := range c.products {
		out[i] = p.Clone()
	}
	return out
}

// Find returns the product with the given ID.
func (c *Catalog) Find(id int64) (domain.Product, error) {
	i, ok := c.byID[id]
	if !ok {
		return domain.Product{}, apperrors.NotFound("product", strconv.FormatInt(id, 10))
	}
	return c.products[i].Clone(), nil
}

// Len returns the number of products.
func (c *Catalog) Len() int {
	return len(c.products)
}

func defaultProducts() []domain.Product {
	return []domain.Product{
		item(1, "Laptop", domain.CategoryElectronics, 95999,
			"High-performance laptop with 16GB RAM", 4.5,
			"modern-high-performance-laptop-with-slee-ea08aab8-20251113065336.jpg"),
		item(2, "T-Shirt", domain.CategoryClothing, 1999,
			"Premium cotton casual t-shirt", 4.2,
			"premium-cotton-casual-t-shirt-in-solid-c-4a475e38-20251113065337.jpg"),
		item(3, "The Great Gatsby", domain.CategoryBooks, 1199,
			"Classic American novel by F. Scott Fitzgerald", 4.8,
			"the-great-gatsby-book-cover-by-f-scott-f-5aa347dc-20251113065337.jpg"),
		item(4, "Smartphone", domain.CategoryElectronics, 63999,
			"5G enabled smartphone with excellent camera", 4.6,
			"modern-5g-smartphone-with-excellent-came-e02f31cb-20251113065336.jpg"),
		item(5, "Jeans", domain.CategoryClothing, 3999,
			"Slim fit denim jeans", 4.3,
			"slim-fit-denim-jeans-in-classic-blue-was-a76cf3b6-20251113065337.jpg"),
		item(6, "Sapiens", domain.CategoryBooks, 1599,
			"A Brief History of Humankind by Yuval Noah Harari", 4.7,
			"sapiens-book-cover-by-yuval-noah-harari--4d94298c-20251113065337.jpg"),
	}
}

func item(id int64, name string, cat domain.Category, price int64, desc string, rating float64, image string) domain.Product {
	img := imageBase + image
	return domain.Product{
		ID:          id,
		Name:        name,
		Category:    cat,
		Price:       price,
		Description: &desc,
		Rating:      &rating,
		Image:       &img,
	}
}
