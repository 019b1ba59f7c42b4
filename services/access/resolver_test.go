package access

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/MarcGrol/marketplacebackend/lib/myerrors"
	"github.com/MarcGrol/marketplacebackend/lib/mystore"
	"github.com/MarcGrol/marketplacebackend/services/marketmodel"
)

var (
	store1 = marketmodel.Store{UID: "store_1", OwnerUID: "owner_1", Name: "Eva's shop", CreatedAt: time.Now()}
	store2 = marketmodel.Store{UID: "store_2", OwnerUID: "owner_2", Name: "Marc's shop", CreatedAt: time.Now()}

	product1 = marketmodel.Product{UID: "product_1", StoreUID: "store_1", Name: "Tennis racket", Price: 16900, Stock: 10}
	product2 = marketmodel.Product{UID: "product_2", StoreUID: "store_2", Name: "Hockey stick", Price: 19000, Stock: 5}

	order1 = marketmodel.Order{UID: "order_1", MemberUID: "customer_1", ProductUID: "product_1", Quantity: 2, Status: marketmodel.OrderStatusPlaced}
	order2 = marketmodel.Order{UID: "order_2", MemberUID: "customer_2", ProductUID: "product_2", Quantity: 1, Status: marketmodel.OrderStatusPlaced}

	orphanOrder = marketmodel.Order{UID: "order_3", MemberUID: "customer_1", ProductUID: "product_gone", Quantity: 1, Status: marketmodel.OrderStatusPlaced}
)

func TestResolveOrderAccess(t *testing.T) {
	c, resolver := setup(t)

	t.Run("Owned order is resolved", func(t *testing.T) {
		order, err := resolver.ResolveOrderAccess(c, "customer_1", "order_1")
		assert.NoError(t, err)
		assert.Equal(t, order1, order)
	})

	t.Run("Unknown order is not-found", func(t *testing.T) {
		_, err := resolver.ResolveOrderAccess(c, "customer_1", "order_unknown")
		assert.Error(t, err)
		assert.Equal(t, 404, myerrors.GetHTTPStatus(err))
	})

	t.Run("Another customer's order is forbidden, not hidden", func(t *testing.T) {
		_, err := resolver.ResolveOrderAccess(c, "customer_1", "order_2")
		assert.Error(t, err)
		assert.Equal(t, 403, myerrors.GetHTTPStatus(err))
	})

	t.Run("Owner is never satisfied by the customer rule", func(t *testing.T) {
		_, err := resolver.ResolveOrderAccess(c, "owner_1", "order_1")
		assert.Error(t, err)
		assert.Equal(t, 403, myerrors.GetHTTPStatus(err))
	})
}

func TestResolveStoreOrderAccess(t *testing.T) {
	c, resolver := setup(t)

	t.Run("Owner sees order of own store", func(t *testing.T) {
		order, err := resolver.ResolveStoreOrderAccess(c, "owner_1", "store_1", "order_1")
		assert.NoError(t, err)
		assert.Equal(t, order1, order)
	})

	t.Run("Unknown order is not-found", func(t *testing.T) {
		_, err := resolver.ResolveStoreOrderAccess(c, "owner_1", "store_1", "order_unknown")
		assert.Error(t, err)
		assert.Equal(t, 404, myerrors.GetHTTPStatus(err))
	})

	t.Run("Order of another store is not-found, not forbidden", func(t *testing.T) {
		_, err := resolver.ResolveStoreOrderAccess(c, "owner_1", "store_1", "order_2")
		assert.Error(t, err)
		assert.Equal(t, 404, myerrors.GetHTTPStatus(err))
	})

	t.Run("Store of someone else is forbidden", func(t *testing.T) {
		_, err := resolver.ResolveStoreOrderAccess(c, "owner_1", "store_2", "order_2")
		assert.Error(t, err)
		assert.Equal(t, 403, myerrors.GetHTTPStatus(err))
	})

	t.Run("Dangling product reference is not-found, never allow", func(t *testing.T) {
		_, err := resolver.ResolveStoreOrderAccess(c, "owner_1", "store_1", "order_3")
		assert.Error(t, err)
		assert.Equal(t, 404, myerrors.GetHTTPStatus(err))
	})
}

func TestResolveStoreOwnership(t *testing.T) {
	c, resolver := setup(t)

	t.Run("Own store", func(t *testing.T) {
		store, err := resolver.ResolveStoreOwnership(c, "owner_1", "store_1")
		assert.NoError(t, err)
		assert.Equal(t, store1, store)
	})

	t.Run("Unknown store is not-found", func(t *testing.T) {
		_, err := resolver.ResolveStoreOwnership(c, "owner_1", "store_unknown")
		assert.Error(t, err)
		assert.Equal(t, 404, myerrors.GetHTTPStatus(err))
	})

	t.Run("Someone else's store is forbidden", func(t *testing.T) {
		_, err := resolver.ResolveStoreOwnership(c, "owner_1", "store_2")
		assert.Error(t, err)
		assert.Equal(t, 403, myerrors.GetHTTPStatus(err))
	})
}

func TestResolveProductOwnership(t *testing.T) {
	c, resolver := setup(t)

	t.Run("Own product", func(t *testing.T) {
		product, err := resolver.ResolveProductOwnership(c, "owner_1", "product_1")
		assert.NoError(t, err)
		assert.Equal(t, product1, product)
	})

	t.Run("Someone else's product is forbidden", func(t *testing.T) {
		_, err := resolver.ResolveProductOwnership(c, "owner_1", "product_2")
		assert.Error(t, err)
		assert.Equal(t, 403, myerrors.GetHTTPStatus(err))
	})

	t.Run("Unknown product is not-found", func(t *testing.T) {
		_, err := resolver.ResolveProductOwnership(c, "owner_1", "product_unknown")
		assert.Error(t, err)
		assert.Equal(t, 404, myerrors.GetHTTPStatus(err))
	})
}

func setup(t *testing.T) (context.Context, *Resolver) {
	c := context.TODO()

	orderStore, _, _ := mystore.NewInMemoryStore[marketmodel.Order](c)
	productStore, _, _ := mystore.NewInMemoryStore[marketmodel.Product](c)
	storeStore, _, _ := mystore.NewInMemoryStore[marketmodel.Store](c)

	storeStore.Put(c, store1.UID, store1)
	storeStore.Put(c, store2.UID, store2)
	productStore.Put(c, product1.UID, product1)
	productStore.Put(c, product2.UID, product2)
	orderStore.Put(c, order1.UID, order1)
	orderStore.Put(c, order2.UID, order2)
	orderStore.Put(c, orphanOrder.UID, orphanOrder)

	return c, NewResolver(orderStore, productStore, storeStore)
}
