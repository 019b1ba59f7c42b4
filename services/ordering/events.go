package ordering

import (
	"context"
	"fmt"

	"github.com/MarcGrol/marketplacebackend/lib/myerrors"
	"github.com/MarcGrol/marketplacebackend/lib/myhttp"
	"github.com/MarcGrol/marketplacebackend/lib/mylog"
	"github.com/MarcGrol/marketplacebackend/lib/mystore"
	"github.com/MarcGrol/marketplacebackend/services/catalogevents"
	"github.com/MarcGrol/marketplacebackend/services/marketmodel"
	"github.com/MarcGrol/marketplacebackend/services/orderingevents"
)

func (s *service) Subscribe(c context.Context) error {
	err := s.subscriber.CreateTopic(c, catalogevents.TopicName)
	if err != nil {
		return fmt.Errorf("error creating topic %s: %s", catalogevents.TopicName, err)
	}

	err = s.subscriber.Subscribe(c, catalogevents.TopicName, myhttp.GuessHostnameWithScheme()+"/api/ordering/event")
	if err != nil {
		return fmt.Errorf("error subscribing to topic %s: %s", catalogevents.TopicName, err)
	}

	return nil
}

func (s *service) OnProductCreated(c context.Context, topic string, event catalogevents.ProductCreated) error {
	return nil
}

// OnProductDeleted cancels all open orders of the deleted product. No
// stock comes back: the product is gone.
func (s *service) OnProductDeleted(c context.Context, topic string, event catalogevents.ProductDeleted) error {
	s.logger.Log(c, event.ProductUID, mylog.SeverityInfo, "Product %s deleted, cancelling its open orders", event.ProductUID)

	return s.orderStore.RunInTransaction(c, func(c context.Context) error {
		orders, err := s.orderStore.Query(c, []mystore.Filter{
			{Field: "ProductUID", Compare: "=", Value: event.ProductUID},
		}, "")
		if err != nil {
			return myerrors.NewInternalError(err)
		}

		now := s.nower.Now()
		for _, order := range orders {
			if !order.Status.CanTransitionTo(marketmodel.OrderStatusCancelled) {
				continue
			}

			order.Status = marketmodel.OrderStatusCancelled
			order.LastModified = &now

			err = s.orderStore.Put(c, order.UID, order)
			if err != nil {
				return myerrors.NewInternalError(err)
			}

			err = s.publisher.Publish(c, orderingevents.TopicName, orderingevents.OrderCancelled{
				OrderUID:      order.UID,
				ProductUID:    order.ProductUID,
				RestoredStock: 0,
			})
			if err != nil {
				return myerrors.NewInternalError(err)
			}
		}

		return nil
	})
}
