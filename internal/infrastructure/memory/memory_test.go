package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zhima-Mochi/minishop-storebot/internal/domain/catalog"
	"github.com/Zhima-Mochi/minishop-storebot/internal/domain/order"
	"github.com/Zhima-Mochi/minishop-storebot/internal/domain/payment"
	"github.com/Zhima-Mochi/minishop-storebot/internal/domain/session"
)

func mustProduct(t *testing.T, name string, price int64, category string) *catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct(name, price, name+" description", "https://img.example/"+name, category)
	require.NoError(t, err)
	return p
}

func TestCatalogRepositoryCategories(t *testing.T) {
	ctx := context.Background()
	repo := NewCatalogRepository()

	require.NoError(t, repo.AddCategory(ctx, "Books"))
	assert.ErrorIs(t, repo.AddCategory(ctx, "books"), catalog.ErrDuplicateCategory)
	assert.ErrorIs(t, repo.AddCategory(ctx, "  "), catalog.ErrEmptyCategory)

	ok, err := repo.CategoryExists(ctx, "BOOKS")
	require.NoError(t, err)
	assert.True(t, ok)

	cats, err := repo.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Books"}, cats)
}

func TestCatalogRepositoryAssignsMaxPlusOne(t *testing.T) {
	ctx := context.Background()
	repo := NewCatalogRepository()
	require.NoError(t, repo.AddCategory(ctx, "Books"))

	first, err := repo.AddProduct(ctx, mustProduct(t, "A", 10, "Books"))
	require.NoError(t, err)
	second, err := repo.AddProduct(ctx, mustProduct(t, "B", 20, "books"))
	require.NoError(t, err)
	assert.Equal(t, 1, first.ID)
	assert.Equal(t, 2, second.ID)
	assert.Equal(t, "Books", second.Category)
	assert.Equal(t, catalog.DefaultStock, second.Stock)

	_, err = repo.RemoveProduct(ctx, 1)
	require.NoError(t, err)
	third, err := repo.AddProduct(ctx, mustProduct(t, "C", 30, "Books"))
	require.NoError(t, err)
	assert.Equal(t, 3, third.ID)

	_, err = repo.RemoveProduct(ctx, 3)
	require.NoError(t, err)
	fourth, err := repo.AddProduct(ctx, mustProduct(t, "D", 40, "Books"))
	require.NoError(t, err)
	assert.Equal(t, 3, fourth.ID, "id is derived from the current maximum")
}

func TestCatalogRepositoryRejectsUnknownCategory(t *testing.T) {
	ctx := context.Background()
	repo := NewCatalogRepository()

	_, err := repo.AddProduct(ctx, mustProduct(t, "A", 10, "Nope"))
	assert.ErrorIs(t, err, catalog.ErrUnknownCategory)

	all, err := repo.Products(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestCatalogRepositoryStock(t *testing.T) {
	ctx := context.Background()
	repo := NewCatalogRepository()
	require.NoError(t, repo.AddCategory(ctx, "Books"))
	p, err := repo.AddProduct(ctx, mustProduct(t, "A", 10, "Books"))
	require.NoError(t, err)

	updated, err := repo.UpdateStock(ctx, p.ID, -5)
	require.NoError(t, err)
	assert.Equal(t, 0, updated.Stock)

	_, err = repo.UpdateStock(ctx, 99, 5)
	assert.ErrorIs(t, err, catalog.ErrNotFound)

	_, err = repo.UpdateStock(ctx, p.ID, 2)
	require.NoError(t, err)
	require.NoError(t, repo.DecrementStock(ctx, p.ID, 5))
	require.NoError(t, repo.DecrementStock(ctx, 99, 1))

	got, err := repo.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Stock)
}

func TestCatalogRepositoryReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewCatalogRepository()
	require.NoError(t, repo.AddCategory(ctx, "Books"))
	p, err := repo.AddProduct(ctx, mustProduct(t, "A", 10, "Books"))
	require.NoError(t, err)

	p.Price = 1
	got, err := repo.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(10), got.Price)
}

func TestCatalogRepositoryByCategory(t *testing.T) {
	ctx := context.Background()
	repo := NewCatalogRepository()
	require.NoError(t, repo.AddCategory(ctx, "Books"))
	require.NoError(t, repo.AddCategory(ctx, "Clothing"))
	_, err := repo.AddProduct(ctx, mustProduct(t, "Novel", 300, "Books"))
	require.NoError(t, err)
	_, err = repo.AddProduct(ctx, mustProduct(t, "Shirt", 500, "Clothing"))
	require.NoError(t, err)

	books, err := repo.ByCategory(ctx, "BOOKS")
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, "Novel", books[0].Name)

	none, err := repo.ByCategory(ctx, "Toys")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestCartRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewCartRepository()

	items, err := repo.Items(ctx, 7)
	require.NoError(t, err)
	assert.Empty(t, items)

	require.NoError(t, repo.Append(ctx, 7, 1))
	require.NoError(t, repo.Append(ctx, 7, 1))
	require.NoError(t, repo.Append(ctx, 7, 42))

	items, err = repo.Items(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 1, 42}, items)

	require.NoError(t, repo.Clear(ctx, 7))
	items, err = repo.Items(ctx, 7)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestSessionRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionRepository()

	s, err := repo.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, session.StageIdle, s.Stage)

	require.NoError(t, repo.Save(ctx, session.AwaitingProof(1, "ORD1000")))
	s, err = repo.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, session.StageAwaitingProof, s.Stage)
	assert.Equal(t, "ORD1000", s.OrderID)

	require.NoError(t, repo.Reset(ctx, 1))
	s, err = repo.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, session.StageIdle, s.Stage)
}

func TestSessionRepositorySwap(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionRepository()
	require.NoError(t, repo.Save(ctx, session.AwaitingPaymentMethod(1)))

	ok, err := repo.Swap(ctx, session.StageAwaitingPaymentMethod, session.Idle(1))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Swap(ctx, session.StageAwaitingPaymentMethod, session.AwaitingProof(1, "ORD1000"))
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.Swap(ctx, session.StageIdle, session.AwaitingProof(1, "ORD1000"))
	require.NoError(t, err)
	assert.True(t, ok)
	s, err := repo.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "ORD1000", s.OrderID)
}

func TestOrderRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewOrderRepository()

	newOrder := func(id string, user int64) *order.Order {
		o, err := order.New(id, order.Customer{UserID: user}, []order.LineItem{{ProductID: 1, Name: "A", Price: 10}}, payment.MethodCBE)
		require.NoError(t, err)
		return o
	}

	require.NoError(t, repo.Insert(ctx, newOrder("ORD1000", 1)))
	require.NoError(t, repo.Insert(ctx, newOrder("ORD1001", 2)))
	require.NoError(t, repo.Insert(ctx, newOrder("ORD1002", 1)))
	assert.ErrorIs(t, repo.Insert(ctx, newOrder("ORD1000", 1)), order.ErrConflict)

	mine, err := repo.ListByUser(ctx, 1)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "ORD1000", mine[0].ID)
	assert.Equal(t, "ORD1002", mine[1].ID)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	_, err = repo.Get(ctx, "ORD9999")
	assert.ErrorIs(t, err, order.ErrNotFound)
	assert.ErrorIs(t, repo.Update(ctx, newOrder("ORD9999", 1)), order.ErrNotFound)

	got, err := repo.Get(ctx, "ORD1001")
	require.NoError(t, err)
	got.Items[0].Price = 999
	again, err := repo.Get(ctx, "ORD1001")
	require.NoError(t, err)
	assert.Equal(t, int64(10), again.Items[0].Price)
}
