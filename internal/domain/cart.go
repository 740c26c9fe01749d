package domain

import (
	"math"
	"slices"

	apperrors "github.com/utafrali/shopvista/pkg/errors"
)

// MaxQuantity is the largest quantity a single cart entry can hold.
const MaxQuantity = 9999

// CartEntry is a product in the cart together with how many of it were added.
// Quantity is always within 1..MaxQuantity; removing the entry represents zero.
type CartEntry struct {
	Product
	Quantity int `json:"quantity"`
}

// Subtotal returns price * quantity for this line, saturating at math.MaxInt64.
func (e CartEntry) Subtotal() int64 {
	v, _ := e.subtotal()
	return v
}

func (e CartEntry) subtotal() (int64, bool) {
	q := int64(e.Quantity)
	if e.Price > 0 && q > math.MaxInt64/e.Price {
		return math.MaxInt64, false
	}
	return e.Price * q, true
}

// Cart is an ordered list of entries with at most one entry per product ID.
// Insertion order is display order.
//
// Cart values are treated as immutable: every transition below returns a new
// Cart and leaves its argument untouched.
type Cart []CartEntry

// Total returns the sum of price * quantity over all entries, saturating at
// math.MaxInt64.
func (c Cart) Total() int64 {
	v, _ := c.total()
	return v
}

// total reports false when the exact sum does not fit in an int64.
func (c Cart) total() (int64, bool) {
	var sum int64
	for _, e := range c {
		line, ok := e.subtotal()
		if !ok || sum > math.MaxInt64-line {
			return math.MaxInt64, false
		}
		sum += line
	}
	return sum, true
}

// ItemCount returns the sum of quantities over all entries, saturating at
// math.MaxInt.
func (c Cart) ItemCount() int {
	var n int
	for _, e := range c {
		if n > math.MaxInt-e.Quantity {
			return math.MaxInt
		}
		n += e.Quantity
	}
	return n
}

// IsEmpty reports whether the cart has no entries.
func (c Cart) IsEmpty() bool {
	return len(c) == 0
}

// indexOf returns the position of the entry for productID, or -1.
func (c Cart) indexOf(productID int64) int {
	return slices.IndexFunc(c, func(e CartEntry) bool { return e.ID == productID })
}

// clone copies the cart into a fresh backing array with room for extra entries.
func (c Cart) clone(extra int) Cart {
	out := make(Cart, len(c), len(c)+extra)
	copy(out, c)
	return out
}

// AddToCart adds one unit of product. An existing entry for the same product ID
// has its quantity incremented in place, up to MaxQuantity; otherwise a new
// entry with quantity 1 is appended.
func AddToCart(cart Cart, product Product) Cart {
	if i := cart.indexOf(product.ID); i >= 0 {
		out := cart.clone(0)
		out[i].Quantity = min(out[i].Quantity+1, MaxQuantity)
		return out
	}
	out := cart.clone(1)
	return append(out, CartEntry{Product: product.Clone(), Quantity: 1})
}

// RemoveFromCart drops the entry for productID. Removing an absent product
// returns an equal cart.
func RemoveFromCart(cart Cart, productID int64) Cart {
	out := make(Cart, 0, len(cart))
	for _, e := range cart {
		if e.ID != productID {
			out = append(out, e)
		}
	}
	return out
}

// UpdateQuantity sets the quantity of the entry for productID, clamped to
// 1..MaxQuantity. Use RemoveFromCart to drop an entry. Absent products are
// left alone.
func UpdateQuantity(cart Cart, productID int64, quantity int) Cart {
	out := cart.clone(0)
	if i := out.indexOf(productID); i >= 0 {
		out[i].Quantity = min(max(1, quantity), MaxQuantity)
	}
	return out
}

// Checkout totals a non-empty cart and returns it together with the emptied
// cart that replaces it. Checking out an empty cart returns an EMPTY_CART error
// and the cart unchanged, as does a cart whose total does not fit in an int64.
func Checkout(cart Cart) (int64, Cart, error) {
	if cart.IsEmpty() {
		return 0, cart, apperrors.EmptyCart()
	}
	total, ok := cart.total()
	if !ok {
		return 0, cart, apperrors.InvalidInput("cart total is too large to check out")
	}
	return total, Cart{}, nil
}
