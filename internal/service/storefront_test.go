package service

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/utafrali/shopvista/internal/catalog"
	"github.com/utafrali/shopvista/internal/domain"
	"github.com/utafrali/shopvista/internal/repository/memory"
	apperrors "github.com/utafrali/shopvista/pkg/errors"
)

// --- Mock Repository ---

type mockSessionRepository struct {
	mock.Mock
}

func (m *mockSessionRepository) Get(ctx context.Context, id string) (*domain.Session, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Session), args.Error(1)
}

func (m *mockSessionRepository) SaveIfVersion(ctx context.Context, session *domain.Session, expectedVersion int) (bool, error) {
	args := m.Called(ctx, session, expectedVersion)
	return args.Bool(0), args.Error(1)
}

func (m *mockSessionRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockSessionRepository) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// --- Test Helpers ---

const sessionID = "0b8e4c1a-7d2f-4e3b-9a6c-5f1d2e3c4b5a"

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestService() *StorefrontService {
	return NewStorefrontService(catalog.Default(), memory.NewSessionRepository(), newTestLogger(), DefaultOptions())
}

func newMockedService(repo *mockSessionRepository) *StorefrontService {
	return NewStorefrontService(catalog.Default(), repo, newTestLogger(), DefaultOptions())
}

func productNames(products []domain.Product) []string {
	out := make([]string, len(products))
	for i, p := range products {
		out[i] = p.Name
	}
	return out
}

// --- Catalog ---

func TestListProducts_BooksByName(t *testing.T) {
	svc := newTestService()

	got := svc.ListProducts(context.Background(), ListProductsInput{
		Category: domain.CategoryBooks,
		Sort:     domain.SortByName,
	})

	assert.Equal(t, []string{"Sapiens", "The Great Gatsby"}, productNames(got))
}

func TestListProducts_SearchByDescription(t *testing.T) {
	svc := newTestService()

	got := svc.ListProducts(context.Background(), ListProductsInput{
		Category: domain.CategoryAll,
		Query:    "harari",
		Sort:     domain.SortByName,
	})

	assert.Equal(t, []string{"Sapiens"}, productNames(got))
}

func TestListProducts_NoMatches(t *testing.T) {
	svc := newTestService()

	got := svc.ListProducts(context.Background(), ListProductsInput{
		Category: domain.CategoryClothing,
		Query:    "gatsby",
	})

	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestGetProduct(t *testing.T) {
	svc := newTestService()

	p, err := svc.GetProduct(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, "Smartphone", p.Name)

	_, err = svc.GetProduct(context.Background(), 404)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCategories(t *testing.T) {
	svc := newTestService()
	assert.Equal(t, domain.CategoryAll, svc.Categories()[0])
}

// --- Cart ---

func TestGetCart_NewSessionIsEmpty(t *testing.T) {
	svc := newTestService()

	session, err := svc.GetCart(context.Background(), sessionID)

	require.NoError(t, err)
	assert.Equal(t, sessionID, session.ID)
	assert.Empty(t, session.Cart)
	assert.Zero(t, session.Version)
}

func TestGetCart_RequiresSessionID(t *testing.T) {
	svc := newTestService()

	_, err := svc.GetCart(context.Background(), "")

	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestAddItem_TwiceMergesEntries(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.AddItem(ctx, sessionID, 2)
	require.NoError(t, err)
	session, err := svc.AddItem(ctx, sessionID, 2)
	require.NoError(t, err)

	require.Len(t, session.Cart, 1)
	assert.Equal(t, 2, session.Cart[0].Quantity)
	assert.Equal(t, int64(3998), session.Cart.Total())
	assert.Equal(t, 2, session.Version)

	stored, err := svc.GetCart(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, session.Cart, stored.Cart)
}

func TestAddItem_UnknownProduct(t *testing.T) {
	repo := new(mockSessionRepository)
	svc := newMockedService(repo)

	_, err := svc.AddItem(context.Background(), sessionID, 999)

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	repo.AssertNotCalled(t, "SaveIfVersion", mock.Anything, mock.Anything, mock.Anything)
}

func TestAddItem_PreservesInsertionOrder(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	for _, id := range []int64{5, 1, 3, 1} {
		_, err := svc.AddItem(ctx, sessionID, id)
		require.NoError(t, err)
	}

	session, err := svc.GetCart(ctx, sessionID)
	require.NoError(t, err)
	ids := []int64{}
	for _, e := range session.Cart {
		ids = append(ids, e.ID)
	}
	assert.Equal(t, []int64{5, 1, 3}, ids)
	assert.Equal(t, 4, session.Cart.ItemCount())
}

func TestRemoveItem_AbsentIsNoOp(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	before, err := svc.AddItem(ctx, sessionID, 1)
	require.NoError(t, err)

	after, err := svc.RemoveItem(ctx, sessionID, 6)

	require.NoError(t, err)
	assert.Equal(t, before.Cart, after.Cart)
}

func TestRemoveItem(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	_, _ = svc.AddItem(ctx, sessionID, 1)
	_, _ = svc.AddItem(ctx, sessionID, 2)

	session, err := svc.RemoveItem(ctx, sessionID, 1)

	require.NoError(t, err)
	require.Len(t, session.Cart, 1)
	assert.Equal(t, int64(2), session.Cart[0].ID)
}

func TestUpdateQuantity_ClampsToOne(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	_, _ = svc.AddItem(ctx, sessionID, 3)

	session, err := svc.UpdateQuantity(ctx, sessionID, 3, 0)

	require.NoError(t, err)
	require.Len(t, session.Cart, 1)
	assert.Equal(t, 1, session.Cart[0].Quantity)

	session, err = svc.UpdateQuantity(ctx, sessionID, 3, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, session.Cart[0].Quantity)
}

func TestClearCart(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	_, _ = svc.AddItem(ctx, sessionID, 3)

	session, err := svc.ClearCart(ctx, sessionID)

	require.NoError(t, err)
	assert.Empty(t, session.Cart)
	assert.Zero(t, session.Version)

	// The next change starts a new stored session.
	next, err := svc.AddItem(ctx, sessionID, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, next.Version)
	require.Len(t, next.Cart, 1)
	assert.Equal(t, int64(2), next.Cart[0].ID)
}

func TestClearCart_DeletesSession(t *testing.T) {
	repo := new(mockSessionRepository)
	svc := newMockedService(repo)
	repo.On("Delete", mock.Anything, sessionID).Return(nil)

	session, err := svc.ClearCart(context.Background(), sessionID)

	require.NoError(t, err)
	assert.Equal(t, sessionID, session.ID)
	assert.Empty(t, session.Cart)
	repo.AssertExpectations(t)
	repo.AssertNotCalled(t, "SaveIfVersion", mock.Anything, mock.Anything, mock.Anything)
}

func TestClearCart_StoreErrorWrapped(t *testing.T) {
	repo := new(mockSessionRepository)
	svc := newMockedService(repo)
	repo.On("Delete", mock.Anything, sessionID).Return(errors.New("connection reset"))

	_, err := svc.ClearCart(context.Background(), sessionID)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "delete session")
}

func TestClearCart_RequiresSessionID(t *testing.T) {
	_, err := newTestService().ClearCart(context.Background(), "")

	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestMutate_ConflictWhenVersionMoved(t *testing.T) {
	repo := new(mockSessionRepository)
	svc := newMockedService(repo)
	ctx := context.Background()

	existing := domain.NewSession(sessionID, time.Now(), time.Hour)
	existing.Version = 3
	repo.On("Get", mock.Anything, sessionID).Return(existing, nil)
	repo.On("SaveIfVersion", mock.Anything, mock.AnythingOfType("*domain.Session"), 3).Return(false, nil)

	_, err := svc.AddItem(ctx, sessionID, 1)

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	repo.AssertExpectations(t)
}

func TestMutate_StoreErrorWrapped(t *testing.T) {
	repo := new(mockSessionRepository)
	svc := newMockedService(repo)

	repo.On("Get", mock.Anything, sessionID).Return(nil, errors.New("connection refused"))

	_, err := svc.AddItem(context.Background(), sessionID, 1)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "get session: connection refused")
	assert.NotErrorIs(t, err, apperrors.ErrNotFound)
}

func TestMutate_SaveErrorWrapped(t *testing.T) {
	repo := new(mockSessionRepository)
	svc := newMockedService(repo)

	repo.On("Get", mock.Anything, sessionID).Return(nil, apperrors.NotFound("session", sessionID))
	repo.On("SaveIfVersion", mock.Anything, mock.Anything, 0).Return(false, errors.New("disk full"))

	_, err := svc.RemoveItem(context.Background(), sessionID, 1)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "save session: disk full")
}

func TestMutate_RefreshesExpiry(t *testing.T) {
	svc := newTestService()
	fixed := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	session, err := svc.AddItem(context.Background(), sessionID, 1)

	require.NoError(t, err)
	assert.Equal(t, fixed, session.UpdatedAt)
	assert.Equal(t, fixed.Add(2*time.Hour), session.ExpiresAt)
}

// --- Checkout ---

func TestCheckout_EmptyCart(t *testing.T) {
	svc := newTestService()

	receipt, err := svc.Checkout(context.Background(), sessionID)

	assert.Nil(t, receipt)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrEmptyCart)
}

func TestCheckout_EmptyCartLeavesStateUnchanged(t *testing.T) {
	repo := new(mockSessionRepository)
	svc := newMockedService(repo)

	existing := domain.NewSession(sessionID, time.Now(), time.Hour)
	existing.Version = 2
	repo.On("Get", mock.Anything, sessionID).Return(existing, nil)

	_, err := svc.Checkout(context.Background(), sessionID)

	assert.ErrorIs(t, err, apperrors.ErrEmptyCart)
	repo.AssertNotCalled(t, "SaveIfVersion", mock.Anything, mock.Anything, mock.Anything)
}

func TestCheckout_TotalsAndEmpties(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	_, _ = svc.AddItem(ctx, sessionID, 2) // T-Shirt 1999
	_, _ = svc.AddItem(ctx, sessionID, 2)
	_, _ = svc.AddItem(ctx, sessionID, 3) // The Great Gatsby 1199

	receipt, err := svc.Checkout(ctx, sessionID)

	require.NoError(t, err)
	assert.Equal(t, int64(5197), receipt.Total)
	assert.Equal(t, 3, receipt.ItemCount)
	assert.Len(t, receipt.Lines, 2)
	assert.Equal(t, "Checkout successful! Total: ₹5,197", receipt.Message)

	session, err := svc.GetCart(ctx, sessionID)
	require.NoError(t, err)
	assert.Empty(t, session.Cart)

	_, err = svc.Checkout(ctx, sessionID)
	assert.ErrorIs(t, err, apperrors.ErrEmptyCart)
}

func TestCheckout_OverflowingTotalKeepsCart(t *testing.T) {
	cat, err := catalog.New([]domain.Product{
		{ID: 1, Name: "Yacht", Category: domain.CategoryElectronics, Price: math.MaxInt64 / 2},
	})
	require.NoError(t, err)
	svc := NewStorefrontService(cat, memory.NewSessionRepository(), newTestLogger(), DefaultOptions())
	ctx := context.Background()

	_, err = svc.AddItem(ctx, sessionID, 1)
	require.NoError(t, err)
	session, err := svc.UpdateQuantity(ctx, sessionID, 1, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(math.MaxInt64), session.Cart.Total())

	receipt, err := svc.Checkout(ctx, sessionID)

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	assert.Nil(t, receipt)

	after, err := svc.GetCart(ctx, sessionID)
	require.NoError(t, err)
	require.Len(t, after.Cart, 1)
	assert.Equal(t, 3, after.Cart[0].Quantity)
}

func TestCheckout_Conflict(t *testing.T) {
	repo := new(mockSessionRepository)
	svc := newMockedService(repo)

	p, err := catalog.Default().Find(1)
	require.NoError(t, err)
	existing := domain.NewSession(sessionID, time.Now(), time.Hour)
	existing.Cart = domain.AddToCart(existing.Cart, p)
	existing.Version = 1

	repo.On("Get", mock.Anything, sessionID).Return(existing, nil)
	repo.On("SaveIfVersion", mock.Anything, mock.MatchedBy(func(s *domain.Session) bool {
		return len(s.Cart) == 0
	}), 1).Return(false, nil)

	receipt, err := svc.Checkout(context.Background(), sessionID)

	assert.Nil(t, receipt)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	repo.AssertExpectations(t)
}

func TestCheckout_ConcurrentOnlyOneSucceeds(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	_, err := svc.AddItem(ctx, sessionID, 1)
	require.NoError(t, err)

	var (
		mu        sync.Mutex
		successes int
		wg        sync.WaitGroup
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Checkout(ctx, sessionID); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
}

func TestReceiptMessage(t *testing.T) {
	tests := []struct {
		locale string
		symbol string
		amount int64
		want   string
	}{
		{"en-IN", "₹", 3998, "Checkout successful! Total: ₹3,998"},
		{"en-IN", "₹", 250, "Checkout successful! Total: ₹250"},
		{"en-US", "$", 63999, "Checkout successful! Total: $63,999"},
	}
	for _, tt := range tests {
		t.Run(tt.locale+tt.symbol, func(t *testing.T) {
			opts := DefaultOptions()
			opts.Locale = language.MustParse(tt.locale)
			opts.CurrencySymbol = tt.symbol
			svc := NewStorefrontService(catalog.Default(), memory.NewSessionRepository(), newTestLogger(), opts)

			assert.Equal(t, tt.want, svc.ReceiptMessage(tt.amount))
		})
	}
}
