package ordering

import (
	"context"
	"fmt"

	"github.com/MarcGrol/marketplacebackend/lib/myerrors"
	"github.com/MarcGrol/marketplacebackend/lib/mylog"
	"github.com/MarcGrol/marketplacebackend/lib/mystore"
	"github.com/MarcGrol/marketplacebackend/services/marketapi"
	"github.com/MarcGrol/marketplacebackend/services/marketmodel"
	"github.com/MarcGrol/marketplacebackend/services/orderingevents"
)

func (s *service) createOrder(c context.Context, memberUID string, productUID string, quantity int) (marketmodel.Order, error) {
	s.logger.Log(c, productUID, mylog.SeverityInfo, "Member %s orders %d of product %s", memberUID, quantity, productUID)

	member, found, err := s.memberStore.Get(c, memberUID)
	if err != nil {
		return marketmodel.Order{}, myerrors.NewInternalError(err)
	}
	if !found {
		return marketmodel.Order{}, myerrors.NewNotFoundError(fmt.Errorf("member with uid %s not found", memberUID))
	}
	if member.Role != marketmodel.RoleCustomer {
		return marketmodel.Order{}, myerrors.NewAuthenticationError(fmt.Errorf("member %s is not a customer", memberUID))
	}

	if quantity < 1 {
		return marketmodel.Order{}, myerrors.NewInvalidInputErrorf("order quantity must be positive, got %d", quantity)
	}

	order := marketmodel.Order{
		UID:        s.uuider.Create(),
		MemberUID:  memberUID,
		ProductUID: productUID,
		Quantity:   quantity,
		Status:     marketmodel.OrderStatusPlaced,
		CreatedAt:  s.nower.Now(),
	}

	// Stock check, decrement and order creation belong in one transaction:
	// two concurrent orders must never both consume the last item
	err = s.productStore.RunInTransaction(c, func(c context.Context) error {
		product, found, err := s.productStore.Get(c, productUID)
		if err != nil {
			return myerrors.NewInternalError(err)
		}
		if !found {
			return myerrors.NewNotFoundError(fmt.Errorf("product with uid %s not found", productUID))
		}

		if product.Stock < quantity {
			return myerrors.NewInvalidInputErrorf("insufficient stock for product %s: requested %d, available %d", productUID, quantity, product.Stock)
		}

		now := s.nower.Now()
		product.Stock -= quantity
		product.LastModified = &now

		err = s.productStore.Put(c, productUID, product)
		if err != nil {
			return myerrors.NewInternalError(err)
		}

		err = s.orderStore.Put(c, order.UID, order)
		if err != nil {
			return myerrors.NewInternalError(err)
		}

		err = s.publisher.Publish(c, orderingevents.TopicName, orderingevents.OrderPlaced{
			OrderUID:   order.UID,
			MemberUID:  memberUID,
			ProductUID: productUID,
			StoreUID:   product.StoreUID,
			Quantity:   quantity,
		})
		if err != nil {
			return myerrors.NewInternalError(err)
		}

		return nil
	})
	if err != nil {
		return marketmodel.Order{}, err
	}

	return order, nil
}

func (s *service) updateOrderStatus(c context.Context, memberUID string, orderUID string, statusValue string) (marketmodel.Order, error) {
	s.logger.Log(c, orderUID, mylog.SeverityInfo, "Member %s moves order %s to status %s", memberUID, orderUID, statusValue)

	newStatus, err := marketmodel.ParseOrderStatus(statusValue)
	if err != nil {
		return marketmodel.Order{}, myerrors.NewInvalidInputError(err)
	}

	// Cancellation restores stock, so it always takes the cancel path
	if newStatus == marketmodel.OrderStatusCancelled {
		return s.cancelOrder(c, memberUID, orderUID)
	}

	order, err := s.resolver.ResolveOrderAccess(c, memberUID, orderUID)
	if err != nil {
		return marketmodel.Order{}, err
	}

	err = s.orderStore.RunInTransaction(c, func(c context.Context) error {
		var found bool
		var err error
		order, found, err = s.orderStore.Get(c, orderUID)
		if err != nil {
			return myerrors.NewInternalError(err)
		}
		if !found {
			return myerrors.NewNotFoundError(fmt.Errorf("order with uid %s not found", orderUID))
		}

		if !order.Status.CanTransitionTo(newStatus) {
			return myerrors.NewConflictError(fmt.Errorf("order %s cannot transition from %s to %s", orderUID, order.Status, newStatus))
		}

		oldStatus := order.Status
		now := s.nower.Now()
		order.Status = newStatus
		order.LastModified = &now

		err = s.orderStore.Put(c, orderUID, order)
		if err != nil {
			return myerrors.NewInternalError(err)
		}

		err = s.publisher.Publish(c, orderingevents.TopicName, orderingevents.OrderStatusChanged{
			OrderUID:  orderUID,
			OldStatus: oldStatus.String(),
			NewStatus: newStatus.String(),
		})
		if err != nil {
			return myerrors.NewInternalError(err)
		}

		return nil
	})
	if err != nil {
		return marketmodel.Order{}, err
	}

	return order, nil
}

func (s *service) cancelOrder(c context.Context, memberUID string, orderUID string) (marketmodel.Order, error) {
	s.logger.Log(c, orderUID, mylog.SeverityInfo, "Member %s cancels order %s", memberUID, orderUID)

	order, err := s.resolver.ResolveOrderAccess(c, memberUID, orderUID)
	if err != nil {
		return marketmodel.Order{}, err
	}

	// Restoring stock and cancelling are one transaction: stock comes
	// back exactly once, no matter how often cancel is attempted
	err = s.productStore.RunInTransaction(c, func(c context.Context) error {
		var found bool
		var err error
		order, found, err = s.orderStore.Get(c, orderUID)
		if err != nil {
			return myerrors.NewInternalError(err)
		}
		if !found {
			return myerrors.NewNotFoundError(fmt.Errorf("order with uid %s not found", orderUID))
		}

		if order.Status == marketmodel.OrderStatusCancelled {
			return myerrors.NewConflictError(fmt.Errorf("order %s is already cancelled", orderUID))
		}
		if !order.Status.CanTransitionTo(marketmodel.OrderStatusCancelled) {
			return myerrors.NewConflictError(fmt.Errorf("order %s cannot transition from %s to %s", orderUID, order.Status, marketmodel.OrderStatusCancelled))
		}

		now := s.nower.Now()

		restoredStock := 0
		product, found, err := s.productStore.Get(c, order.ProductUID)
		if err != nil {
			return myerrors.NewInternalError(err)
		}
		if found {
			// A cancelled order of a since-deleted product has nothing to restore
			product.Stock += order.Quantity
			product.LastModified = &now
			restoredStock = order.Quantity

			err = s.productStore.Put(c, order.ProductUID, product)
			if err != nil {
				return myerrors.NewInternalError(err)
			}
		}

		order.Status = marketmodel.OrderStatusCancelled
		order.LastModified = &now

		err = s.orderStore.Put(c, orderUID, order)
		if err != nil {
			return myerrors.NewInternalError(err)
		}

		err = s.publisher.Publish(c, orderingevents.TopicName, orderingevents.OrderCancelled{
			OrderUID:      orderUID,
			ProductUID:    order.ProductUID,
			RestoredStock: restoredStock,
		})
		if err != nil {
			return myerrors.NewInternalError(err)
		}

		return nil
	})
	if err != nil {
		return marketmodel.Order{}, err
	}

	return order, nil
}

func (s *service) findOrderHistoryByMember(c context.Context, memberUID string, page marketapi.Page) (OrderPageResponse, error) {
	s.logger.Log(c, memberUID, mylog.SeverityInfo, "Fetch order history of member %s", memberUID)

	orders, err := s.orderStore.Query(c, []mystore.Filter{
		{Field: "MemberUID", Compare: "=", Value: memberUID},
	}, "-CreatedAt,UID")
	if err != nil {
		return OrderPageResponse{}, myerrors.NewInternalError(err)
	}

	pageItems, hasNext := marketapi.Paginate(orders, page)

	return OrderPageResponse{
		Items:   s.toOrderResponses(c, pageItems),
		HasNext: hasNext,
	}, nil
}

func (s *service) findOrderDetailByMember(c context.Context, memberUID string, orderUID string) (OrderResponse, error) {
	s.logger.Log(c, orderUID, mylog.SeverityInfo, "Fetch order %s for member %s", orderUID, memberUID)

	order, err := s.resolver.ResolveOrderAccess(c, memberUID, orderUID)
	if err != nil {
		return OrderResponse{}, err
	}

	return s.toOrderResponse(c, order), nil
}

func (s *service) findAllOrdersForOwner(c context.Context, memberUID string, storeUID string, page marketapi.Page) (OrderPageResponse, error) {
	s.logger.Log(c, storeUID, mylog.SeverityInfo, "Fetch orders of store %s for owner %s", storeUID, memberUID)

	_, err := s.resolver.ResolveStoreOwnership(c, memberUID, storeUID)
	if err != nil {
		return OrderPageResponse{}, err
	}

	products, err := s.productStore.Query(c, []mystore.Filter{
		{Field: "StoreUID", Compare: "=", Value: storeUID},
	}, "")
	if err != nil {
		return OrderPageResponse{}, myerrors.NewInternalError(err)
	}
	productUIDs := map[string]bool{}
	for _, product := range products {
		productUIDs[product.UID] = true
	}

	orders, err := s.orderStore.Query(c, []mystore.Filter{}, "-CreatedAt,UID")
	if err != nil {
		return OrderPageResponse{}, myerrors.NewInternalError(err)
	}

	storeOrders := []marketmodel.Order{}
	for _, order := range orders {
		if productUIDs[order.ProductUID] {
			storeOrders = append(storeOrders, order)
		}
	}

	pageItems, hasNext := marketapi.Paginate(storeOrders, page)

	return OrderPageResponse{
		Items:   s.toOrderResponses(c, pageItems),
		HasNext: hasNext,
	}, nil
}

func (s *service) findOrderDetailForOwner(c context.Context, memberUID string, storeUID string, orderUID string) (OrderResponse, error) {
	s.logger.Log(c, orderUID, mylog.SeverityInfo, "Fetch order %s of store %s for owner %s", orderUID, storeUID, memberUID)

	order, err := s.resolver.ResolveStoreOrderAccess(c, memberUID, storeUID, orderUID)
	if err != nil {
		return OrderResponse{}, err
	}

	return s.toOrderResponse(c, order), nil
}

func (s *service) toOrderResponses(c context.Context, orders []marketmodel.Order) []OrderResponse {
	responses := make([]OrderResponse, 0, len(orders))
	for _, order := range orders {
		responses = append(responses, s.toOrderResponse(c, order))
	}
	return responses
}

func (s *service) toOrderResponse(c context.Context, order marketmodel.Order) OrderResponse {
	productName := ""
	product, found, err := s.productStore.Get(c, order.ProductUID)
	if err == nil && found {
		productName = product.Name
	}

	return OrderResponse{
		UID:          order.UID,
		MemberUID:    order.MemberUID,
		ProductUID:   order.ProductUID,
		ProductName:  productName,
		Quantity:     order.Quantity,
		Status:       order.Status,
		CreatedAt:    order.CreatedAt,
		LastModified: order.LastModified,
	}
}
