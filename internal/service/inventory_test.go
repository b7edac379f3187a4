package service

import (
	"context"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/inventory/internal/models"
)

func TestInventoryService_ProductCap(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "alice", "pw1", false)
	f.register(t, "root", "pw2", true)

	for _, name := range []string{"a", "b", "c"} {
		_, err := f.inv.CreateProduct(ctx, "alice", product(name, 1, 1))
		require.NoError(t, err)
	}
	assert.ErrorIs(t, f.inv.CanAddProduct(ctx, "alice"), ErrProductLimit)

	_, err := f.inv.CreateProduct(ctx, "alice", product("d", 1, 1))
	assert.ErrorIs(t, err, ErrProductLimit)

	for _, name := range []string{"a", "b", "c", "d"} {
		_, err := f.inv.CreateProduct(ctx, "root", product(name, 1, 1))
		require.NoError(t, err)
	}
	assert.NoError(t, f.inv.CanAddProduct(ctx, "root"))
}

func TestInventoryService_ProductCap_Concurrent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "alice", "pw1", false)

	var wg sync.WaitGroup
	errs := make(chan error, 6)
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.inv.CreateProduct(ctx, "alice", product("p", 1, 1))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	ok := 0
	for err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, ErrProductLimit)
	}
	assert.Equal(t, 3, ok)
}

func TestInventoryService_CreateProduct_Owner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "alice", "pw1", false)
	f.register(t, "bob", "pw2", false)
	f.register(t, "root", "pw3", true)

	_, err := f.inv.CreateProduct(ctx, "alice", ProductInput{Name: "x", Owner: "bob"})
	assert.ErrorIs(t, err, ErrForbidden)

	prod, err := f.inv.CreateProduct(ctx, "root", ProductInput{Name: "x", Owner: "bob", Quantity: 2, Price: 3.5})
	require.NoError(t, err)
	assert.Equal(t, "bob", prod.OwnerLogin)

	_, err = f.inv.CreateProduct(ctx, "root", ProductInput{Name: "x", Owner: "ghost"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.inv.CreateProduct(ctx, "ghost", product("x", 1, 1))
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestInventoryService_CreateProduct_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "alice", "pw1", false)

	tests := []struct {
		name string
		in   ProductInput
	}{
		{"empty name", product(" ", 1, 1)},
		{"negative quantity", product("x", -1, 1)},
		{"negative price", product("x", 1, -0.5)},
		{"three decimals", product("x", 1, 1.234)},
		{"price overflows column", product("x", 1, 1e8)},
		{"not a number", product("x", 1, math.NaN())},
		{"infinite price", product("x", 1, math.Inf(1))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.inv.CreateProduct(ctx, "alice", tt.in)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestInventoryService_CreateProduct_PriceBounds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "alice", "pw1", false)

	for _, price := range []float64{0, 0.1, 19.99, 99999999.99} {
		prod, err := f.inv.CreateProduct(ctx, "alice", product("p", 1, price))
		require.NoError(t, err, price)
		require.NoError(t, f.inv.DeleteProduct(ctx, "alice", prod.ID))
	}

	prod, err := f.inv.CreateProduct(ctx, "alice", product("lamp", 1, 10))
	require.NoError(t, err)
	_, err = f.inv.UpdateProduct(ctx, "alice", prod.ID, product("lamp", 1, 10.005))
	assert.ErrorIs(t, err, ErrValidation)
}

func TestInventoryService_UpdateDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "alice", "pw1", false)
	f.register(t, "bob", "pw2", false)

	prod, err := f.inv.CreateProduct(ctx, "alice", product("lamp", 2, 10))
	require.NoError(t, err)

	// Ownership is not enforced by default.
	upd, err := f.inv.UpdateProduct(ctx, "bob", prod.ID, product("lamp v2", 5, 12.5))
	require.NoError(t, err)
	assert.Equal(t, "alice", upd.OwnerLogin)

	got, err := f.inv.GetProduct(ctx, prod.ID)
	require.NoError(t, err)
	assert.Equal(t, "lamp v2", got.Name)
	assert.Equal(t, 5, got.Quantity)
	assert.InDelta(t, 12.5, got.Price, 0.001)
	assert.Equal(t, "alice", got.OwnerLogin)

	_, err = f.inv.UpdateProduct(ctx, "bob", 99999, product("x", 1, 1))
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, f.inv.DeleteProduct(ctx, "alice", prod.ID))
	_, err = f.inv.GetProduct(ctx, prod.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, f.inv.DeleteProduct(ctx, "alice", prod.ID), ErrNotFound)

	assert.Equal(t,
		[]string{"user_registered", "user_registered", "product_created", "product_updated", "product_deleted"},
		f.pub.types())
}

func TestInventoryService_EnforceOwnership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.inv.EnforceOwnership = true
	f.register(t, "alice", "pw1", false)
	f.register(t, "bob", "pw2", false)
	f.register(t, "root", "pw3", true)

	prod, err := f.inv.CreateProduct(ctx, "alice", product("lamp", 2, 10))
	require.NoError(t, err)

	_, err = f.inv.UpdateProduct(ctx, "bob", prod.ID, product("x", 1, 1))
	assert.ErrorIs(t, err, ErrForbidden)
	assert.ErrorIs(t, f.inv.DeleteProduct(ctx, "bob", prod.ID), ErrForbidden)

	_, err = f.inv.UpdateProduct(ctx, "root", prod.ID, product("y", 1, 1))
	require.NoError(t, err)
	require.NoError(t, f.inv.DeleteProduct(ctx, "alice", prod.ID))
}

func TestInventoryService_Users(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "alice", "pw1", false)
	f.register(t, "root", "pw2", true)

	_, err := f.inv.ListUsers(ctx, "alice")
	assert.ErrorIs(t, err, ErrForbidden)

	users, err := f.inv.ListUsers(ctx, "root")
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "alice", users[0].Login)

	self, err := f.inv.GetUser(ctx, "alice", "alice")
	require.NoError(t, err)
	assert.Equal(t, models.RoleNormal, self.Role)

	_, err = f.inv.GetUser(ctx, "alice", "root")
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.inv.GetUser(ctx, "root", "ghost")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.inv.UpdateUserRole(ctx, "alice", "alice", models.RoleSuper)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.inv.UpdateUserRole(ctx, "root", "alice", "admin")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = f.inv.UpdateUserRole(ctx, "root", "ghost", models.RoleSuper)
	assert.ErrorIs(t, err, ErrNotFound)

	updated, err := f.inv.UpdateUserRole(ctx, "root", "alice", models.RoleSuper)
	require.NoError(t, err)
	assert.Equal(t, models.RoleSuper, updated.Role)

	// The new role applies on the next call.
	_, err = f.inv.ListUsers(ctx, "alice")
	assert.NoError(t, err)
}

func TestInventoryService_SearchProducts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "root", "pw", true)

	for _, name := range []string{"Red Lamp", "Blue lamp", "Chair"} {
		_, err := f.inv.CreateProduct(ctx, "root", product(name, 1, 1))
		require.NoError(t, err)
	}

	all, err := f.inv.SearchProducts(ctx, "  ")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	got, err := f.inv.SearchProducts(ctx, "LAMP")
	require.NoError(t, err)
	assert.Len(t, got, 2)

	idx := &fakeIndex{docs: map[uint]models.Product{}}
	f.inv.Search = idx
	prod, err := f.inv.CreateProduct(ctx, "root", product("Table", 1, 1))
	require.NoError(t, err)
	assert.Contains(t, idx.docs, prod.ID)

	got, err = f.inv.SearchProducts(ctx, "Table")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, prod.ID, got[0].ID)

	idx.searchErr = assert.AnError
	got, err = f.inv.SearchProducts(ctx, "chair")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Chair", got[0].Name)
	assert.Equal(t, 2, idx.searched)

	require.NoError(t, f.inv.DeleteProduct(ctx, "root", prod.ID))
	assert.NotContains(t, idx.docs, prod.ID)
}

func TestInventoryService_QuantityChart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "root", "pw", true)

	bars, err := f.inv.QuantityChart(ctx)
	require.NoError(t, err)
	assert.Empty(t, bars)

	for _, in := range []ProductInput{product("a", 10, 1), product("b", 5, 1), product("c", 0, 1)} {
		_, err := f.inv.CreateProduct(ctx, "root", in)
		require.NoError(t, err)
	}

	bars, err = f.inv.QuantityChart(ctx)
	require.NoError(t, err)
	require.Len(t, bars, 3)
	assert.InDelta(t, 100, bars[0].Percent, 0.001)
	assert.InDelta(t, 50, bars[1].Percent, 0.001)
	assert.InDelta(t, 0, bars[2].Percent, 0.001)
}
