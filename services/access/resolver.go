package access

import (
	"context"
	"fmt"

	"github.com/MarcGrol/marketplacebackend/lib/myerrors"
	"github.com/MarcGrol/marketplacebackend/lib/mystore"
	"github.com/MarcGrol/marketplacebackend/services/marketmodel"
)

// Resolver decides, for an order or store access, whether the acting
// principal is the customer that owns the order or the owner of the store
// that sells the product. It only reads and decides: no side effects.
//
// The two rules must never be conflated: a customer is never satisfied by
// the owner rule and vice versa.
type Resolver struct {
	orderStore   mystore.Store[marketmodel.Order]
	productStore mystore.Store[marketmodel.Product]
	storeStore   mystore.Store[marketmodel.Store]
}

func NewResolver(orderStore mystore.Store[marketmodel.Order], productStore mystore.Store[marketmodel.Product], storeStore mystore.Store[marketmodel.Store]) *Resolver {
	return &Resolver{
		orderStore:   orderStore,
		productStore: productStore,
		storeStore:   storeStore,
	}
}

// ResolveOrderAccess applies the customer-side rule: the order must exist
// and be owned by the acting member. A mismatch yields 403, not 404:
// existence is not hidden from a wrong principal.
func (r *Resolver) ResolveOrderAccess(c context.Context, memberUID string, orderUID string) (marketmodel.Order, error) {
	order, found, err := r.orderStore.Get(c, orderUID)
	if err != nil {
		return marketmodel.Order{}, myerrors.NewInternalError(err)
	}
	if !found {
		return marketmodel.Order{}, myerrors.NewNotFoundError(fmt.Errorf("order with uid %s not found", orderUID))
	}

	if order.MemberUID != memberUID {
		return marketmodel.Order{}, myerrors.NewAuthenticationError(fmt.Errorf("order with uid %s is not owned by member %s", orderUID, memberUID))
	}

	return order, nil
}

// ResolveStoreOrderAccess applies the owner-side rule by walking the
// ownership chain order -> product -> store -> owner. An order whose
// product does not belong to the given store is 404 (outside that store's
// view), a store not owned by the acting member is 403. A dangling
// reference anywhere on the chain is 404, never ALLOW.
func (r *Resolver) ResolveStoreOrderAccess(c context.Context, memberUID string, storeUID string, orderUID string) (marketmodel.Order, error) {
	order, found, err := r.orderStore.Get(c, orderUID)
	if err != nil {
		return marketmodel.Order{}, myerrors.NewInternalError(err)
	}
	if !found {
		return marketmodel.Order{}, myerrors.NewNotFoundError(fmt.Errorf("order with uid %s not found", orderUID))
	}

	product, found, err := r.productStore.Get(c, order.ProductUID)
	if err != nil {
		return marketmodel.Order{}, myerrors.NewInternalError(err)
	}
	if !found {
		return marketmodel.Order{}, myerrors.NewNotFoundError(fmt.Errorf("product with uid %s not found", order.ProductUID))
	}

	if product.StoreUID != storeUID {
		return marketmodel.Order{}, myerrors.NewNotFoundError(fmt.Errorf("order with uid %s not found in store %s", orderUID, storeUID))
	}

	_, err = r.ResolveStoreOwnership(c, memberUID, storeUID)
	if err != nil {
		return marketmodel.Order{}, err
	}

	return order, nil
}

// ResolveStoreOwnership guards the owner-side operations on a store
// itself: listing its orders and managing its inventory.
func (r *Resolver) ResolveStoreOwnership(c context.Context, memberUID string, storeUID string) (marketmodel.Store, error) {
	store, found, err := r.storeStore.Get(c, storeUID)
	if err != nil {
		return marketmodel.Store{}, myerrors.NewInternalError(err)
	}
	if !found {
		return marketmodel.Store{}, myerrors.NewNotFoundError(fmt.Errorf("store with uid %s not found", storeUID))
	}

	if store.OwnerUID != memberUID {
		return marketmodel.Store{}, myerrors.NewAuthenticationError(fmt.Errorf("store with uid %s is not owned by member %s", storeUID, memberUID))
	}

	return store, nil
}

// ResolveProductOwnership walks product -> store -> owner for the
// owner-side inventory mutations.
func (r *Resolver) ResolveProductOwnership(c context.Context, memberUID string, productUID string) (marketmodel.Product, error) {
	product, found, err := r.productStore.Get(c, productUID)
	if err != nil {
		return marketmodel.Product{}, myerrors.NewInternalError(err)
	}
	if !found {
		return marketmodel.Product{}, myerrors.NewNotFoundError(fmt.Errorf("product with uid %s not found", productUID))
	}

	_, err = r.ResolveStoreOwnership(c, memberUID, product.StoreUID)
	if err != nil {
		return marketmodel.Product{}, err
	}

	return product, nil
}
