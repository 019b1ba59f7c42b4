package catalogevents

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/MarcGrol/marketplacebackend/lib/myerrors"
	"github.com/MarcGrol/marketplacebackend/lib/myevents"
)

const (
	TopicName          = "catalog"
	productCreatedName = TopicName + ".productCreated"
	productDeletedName = TopicName + ".productDeleted"
)

type CatalogEventService interface {
	Subscribe(c context.Context) error
	OnProductCreated(c context.Context, topic string, event ProductCreated) error
	OnProductDeleted(c context.Context, topic string, event ProductDeleted) error
}

func DispatchEvent(c context.Context, reader io.Reader, service CatalogEventService) error {
	envelope, err := myevents.ParseEventEnvelope(reader)
	if err != nil {
		return myerrors.NewInvalidInputError(err)
	}

	switch envelope.EventTypeName {
	case productCreatedName:
		{
			event := ProductCreated{}
			err := json.Unmarshal([]byte(envelope.EventPayload), &event)
			if err != nil {
				return myerrors.NewInvalidInputError(err)
			}
			return service.OnProductCreated(c, envelope.Topic, event)
		}
	case productDeletedName:
		{
			event := ProductDeleted{}
			err := json.Unmarshal([]byte(envelope.EventPayload), &event)
			if err != nil {
				return myerrors.NewInvalidInputError(err)
			}
			return service.OnProductDeleted(c, envelope.Topic, event)
		}
	default:
		return myerrors.NewNotImplementedError(fmt.Errorf("unknown event %s", envelope.EventTypeName))
	}
}

type ProductCreated struct {
	ProductUID string
	StoreUID   string
	Name       string
	Price      int
	Stock      int
}

func (e ProductCreated) GetEventTypeName() string {
	return productCreatedName
}

func (e ProductCreated) GetAggregateName() string {
	return e.ProductUID
}

type ProductDeleted struct {
	ProductUID string
	StoreUID   string
}

func (e ProductDeleted) GetEventTypeName() string {
	return productDeletedName
}

func (e ProductDeleted) GetAggregateName() string {
	return e.ProductUID
}
