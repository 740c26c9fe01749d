package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/utafrali/shopvista/internal/catalog"
	"github.com/utafrali/shopvista/internal/domain"
	"github.com/utafrali/shopvista/internal/engine"
	"github.com/utafrali/shopvista/internal/metrics"
	"github.com/utafrali/shopvista/internal/repository"
	apperrors "github.com/utafrali/shopvista/pkg/errors"
	"github.com/utafrali/shopvista/pkg/tracing"
)

// Options configures a StorefrontService.
type Options struct {
	// SessionTTL is how long an idle session lives.
	SessionTTL time.Duration
	// Locale drives name collation and number formatting in receipts.
	Locale language.Tag
	// CurrencySymbol prefixes amounts in receipt messages.
	CurrencySymbol string
}

// DefaultOptions returns the options used by the ShopVista demo.
func DefaultOptions() Options {
	return Options{
		SessionTTL:     2 * time.Hour,
		Locale:         language.MustParse("en-IN"),
		CurrencySymbol: "₹",
	}
}

// ListProductsInput holds the filters for the visible product list.
type ListProductsInput struct {
	Category domain.Category
	Query    string
	Sort     domain.SortKey
}

// StorefrontService owns the per-session carts. Every cart change loads the
// session, applies a pure cart transition and writes the result back with an
// optimistic version check.
type StorefrontService struct {
	catalog *catalog.Catalog
	engine  *engine.Engine
	repo    repository.SessionRepository
	logger  *slog.Logger
	opts    Options
	tracer  trace.Tracer
	now     func() time.Time
}

// NewStorefrontService creates a new storefront service.
func NewStorefrontService(cat *catalog.Catalog, repo repository.SessionRepository, logger *slog.Logger, opts Options) *StorefrontService {
	return &StorefrontService{
		catalog: cat,
		engine:  engine.New(opts.Locale),
		repo:    repo,
		logger:  logger,
		opts:    opts,
		tracer:  tracing.Tracer("storefront"),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// ListProducts returns the catalog products visible under the given filters.
func (s *StorefrontService) ListProducts(ctx context.Context, input ListProductsInput) []domain.Product {
	_, span := s.tracer.Start(ctx, "StorefrontService.ListProducts", trace.WithAttributes(
		attribute.String("catalog.category", string(input.Category)),
		attribute.String("catalog.sort", string(input.Sort)),
	))
	defer span.End()

	products := s.engine.VisibleProducts(s.catalog.Products(), input.Category, input.Query, input.Sort)
	span.SetAttributes(attribute.Int("catalog.visible", len(products)))
	return products
}

// GetProduct returns a single catalog product.
func (s *StorefrontService) GetProduct(_ context.Context, id int64) (domain.Product, error) {
	return s.catalog.Find(id)
}

// Categories returns the filterable categories, All first.
func (s *StorefrontService) Categories() []domain.Category {
	return domain.Categories()
}

// GetCart returns the session. An unknown or expired session yields a fresh,
// unsaved empty one.
func (s *StorefrontService) GetCart(ctx context.Context, sessionID string) (*domain.Session, error) {
	if sessionID == "" {
		return nil, apperrors.InvalidInput("session id is required")
	}
	return s.loadSession(ctx, sessionID)
}

// AddItem adds one unit of the catalog product to the session's cart.
func (s *StorefrontService) AddItem(ctx context.Context, sessionID string, productID int64) (*domain.Session, error) {
	product, err := s.catalog.Find(productID)
	if err != nil {
		return nil, err
	}

	session, err := s.mutate(ctx, sessionID, metrics.OpAdd, func(c domain.Cart) domain.Cart {
		return domain.AddToCart(c, product)
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "item added to cart",
		slog.String("session_id", sessionID),
		slog.Int64("product_id", productID),
		slog.Int("item_count", session.Cart.ItemCount()),
	)
	return session, nil
}

// RemoveItem drops the product's entry from the cart. Removing a product that
// is not in the cart leaves the cart as it was.
func (s *StorefrontService) RemoveItem(ctx context.Context, sessionID string, productID int64) (*domain.Session, error) {
	session, err := s.mutate(ctx, sessionID, metrics.OpRemove, func(c domain.Cart) domain.Cart {
		return domain.RemoveFromCart(c, productID)
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "item removed from cart",
		slog.String("session_id", sessionID),
		slog.Int64("product_id", productID),
	)
	return session, nil
}

// UpdateQuantity sets the quantity of a cart entry. Quantities below 1 are
// raised to 1.
func (s *StorefrontService) UpdateQuantity(ctx context.Context, sessionID string, productID int64, quantity int) (*domain.Session, error) {
	session, err := s.mutate(ctx, sessionID, metrics.OpUpdate, func(c domain.Cart) domain.Cart {
		return domain.UpdateQuantity(c, productID, quantity)
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "cart item quantity updated",
		slog.String("session_id", sessionID),
		slog.Int64("product_id", productID),
		slog.Int("requested_quantity", quantity),
	)
	return session, nil
}

// ClearCart drops the session without checking out. The caller gets a fresh
// empty session under the same ID; nothing is stored until the next change.
func (s *StorefrontService) ClearCart(ctx context.Context, sessionID string) (*domain.Session, error) {
	if sessionID == "" {
		return nil, apperrors.InvalidInput("session id is required")
	}

	ctx, span := s.tracer.Start(ctx, "StorefrontService.ClearCart")
	defer span.End()

	if err := s.repo.Delete(ctx, sessionID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("delete session: %w", err)
	}
	metrics.ObserveCartOperation(metrics.OpClear)

	s.logger.InfoContext(ctx, "cart cleared", slog.String("session_id", sessionID))
	return domain.NewSession(sessionID, s.now(), s.opts.SessionTTL), nil
}

// Checkout performs the mock checkout: it totals the cart and empties it in a
// single versioned write. Nothing is charged or sent anywhere.
func (s *StorefrontService) Checkout(ctx context.Context, sessionID string) (*domain.Receipt, error) {
	ctx, span := s.tracer.Start(ctx, "StorefrontService.Checkout")
	defer span.End()

	receipt, result, err := s.checkout(ctx, sessionID)
	metrics.ObserveCheckout(result, total(receipt))
	if err != nil {
		if result == metrics.ResultError {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		return nil, err
	}

	span.SetAttributes(attribute.Int64("checkout.total", receipt.Total))
	s.logger.InfoContext(ctx, "checkout completed",
		slog.String("session_id", sessionID),
		slog.Int64("total", receipt.Total),
		slog.Int("item_count", receipt.ItemCount),
	)
	return receipt, nil
}

func (s *StorefrontService) checkout(ctx context.Context, sessionID string) (*domain.Receipt, string, error) {
	if sessionID == "" {
		return nil, metrics.ResultError, apperrors.InvalidInput("session id is required")
	}

	session, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return nil, metrics.ResultError, err
	}

	amount, emptied, err := domain.Checkout(session.Cart)
	if err != nil {
		if errors.Is(err, apperrors.ErrEmptyCart) {
			return nil, metrics.ResultEmptyCart, err
		}
		return nil, metrics.ResultError, err
	}

	now := s.now()
	next := session.Clone()
	next.Cart = emptied
	next.UpdatedAt = now
	next.ExpiresAt = now.Add(s.opts.SessionTTL)

	ok, err := s.repo.SaveIfVersion(ctx, next, session.Version)
	if err != nil {
		return nil, metrics.ResultError, fmt.Errorf("save session: %w", err)
	}
	if !ok {
		return nil, metrics.ResultConflict, apperrors.Conflict("cart was modified concurrently, please retry")
	}

	return &domain.Receipt{
		SessionID: sessionID,
		Total:     amount,
		ItemCount: session.Cart.ItemCount(),
		Lines:     session.Cart,
		Message:   s.ReceiptMessage(amount),
		PlacedAt:  now,
	}, metrics.ResultSuccess, nil
}

// ReceiptMessage renders the checkout confirmation for amount, grouping digits
// according to the configured locale.
func (s *StorefrontService) ReceiptMessage(amount int64) string {
	p := message.NewPrinter(s.opts.Locale)
	return p.Sprintf("Checkout successful! Total: %s%d", s.opts.CurrencySymbol, amount)
}

// mutate runs one cart transition against the stored session.
func (s *StorefrontService) mutate(ctx context.Context, sessionID, op string, fn func(domain.Cart) domain.Cart) (*domain.Session, error) {
	if sessionID == "" {
		return nil, apperrors.InvalidInput("session id is required")
	}

	ctx, span := s.tracer.Start(ctx, "StorefrontService.mutate", trace.WithAttributes(
		attribute.String("cart.op", op),
	))
	defer span.End()

	session, err := s.loadSession(ctx, sessionID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	now := s.now()
	next := session.Clone()
	next.Cart = fn(session.Cart)
	next.UpdatedAt = now
	next.ExpiresAt = now.Add(s.opts.SessionTTL)

	ok, err := s.repo.SaveIfVersion(ctx, next, session.Version)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("save session: %w", err)
	}
	if !ok {
		return nil, apperrors.Conflict("cart was modified concurrently, please retry")
	}

	metrics.ObserveCartOperation(op)
	return next, nil
}

// loadSession returns the stored session or a new empty one.
func (s *StorefrontService) loadSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	session, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return domain.NewSession(sessionID, s.now(), s.opts.SessionTTL), nil
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	return session, nil
}

func total(r *domain.Receipt) int64 {
	if r == nil {
		return 0
	}
	return r.Total
}
