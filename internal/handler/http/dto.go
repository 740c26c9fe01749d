package http

import (
	"time"

	"github.com/utafrali/shopvista/internal/domain"
)

// --- Request DTOs ---

// ListProductsQuery holds the query parameters of GET /api/v1/products.
type ListProductsQuery struct {
	Category string `query:"category"`
	Q        string `query:"q" validate:"max=100"`
	Sort     string `query:"sort" validate:"omitempty,oneof=name price-low price-high rating"`
}

// AddItemRequest is the JSON request body for adding a product to the cart.
type AddItemRequest struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
}

// UpdateQuantityRequest is the JSON request body for changing an entry's
// quantity. Values below 1 are accepted and stored as 1.
type UpdateQuantityRequest struct {
	Quantity *int `json:"quantity" validate:"required,max=9999"`
}

// --- Response DTOs ---

// CartItemResponse is one cart line with its computed subtotal.
type CartItemResponse struct {
	domain.Product
	Quantity int   `json:"quantity"`
	Subtotal int64 `json:"subtotal"`
}

// CartResponse is the representation of a session's cart.
type CartResponse struct {
	SessionID string             `json:"session_id"`
	Items     []CartItemResponse `json:"items"`
	Total     int64              `json:"total"`
	ItemCount int                `json:"item_count"`
	Version   int                `json:"version"`
	ExpiresAt time.Time          `json:"expires_at"`
}

// ReceiptResponse is returned by a successful checkout.
type ReceiptResponse struct {
	Message   string             `json:"message"`
	Total     int64              `json:"total"`
	ItemCount int                `json:"item_count"`
	Items     []CartItemResponse `json:"items"`
	PlacedAt  time.Time          `json:"placed_at"`
}

func toCartItems(cart domain.Cart) []CartItemResponse {
	items := make([]CartItemResponse, len(cart))
	for i, e := range cart {
		items[i] = CartItemResponse{
			Product:  e.Product,
			Quantity: e.Quantity,
			Subtotal: e.Subtotal(),
		}
	}
	return items
}

func toCartResponse(s *domain.Session) CartResponse {
	return CartResponse{
		SessionID: s.ID,
		Items:     toCartItems(s.Cart),
		Total:     s.Cart.Total(),
		ItemCount: s.Cart.ItemCount(),
		Version:   s.Version,
		ExpiresAt: s.ExpiresAt,
	}
}

func toReceiptResponse(r *domain.Receipt) ReceiptResponse {
	return ReceiptResponse{
		Message:   r.Message,
		Total:     r.Total,
		ItemCount: r.ItemCount,
		Items:     toCartItems(r.Lines),
		PlacedAt:  r.PlacedAt,
	}
}
