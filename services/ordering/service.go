package ordering

import (
	"github.com/MarcGrol/marketplacebackend/lib/mylog"
	"github.com/MarcGrol/marketplacebackend/lib/mypublisher"
	"github.com/MarcGrol/marketplacebackend/lib/mypubsub"
	"github.com/MarcGrol/marketplacebackend/lib/mystore"
	"github.com/MarcGrol/marketplacebackend/lib/mytime"
	"github.com/MarcGrol/marketplacebackend/lib/myuuid"
	"github.com/MarcGrol/marketplacebackend/services/access"
	"github.com/MarcGrol/marketplacebackend/services/marketmodel"
)

type service struct {
	orderStore   mystore.Store[marketmodel.Order]
	productStore mystore.Store[marketmodel.Product]
	storeStore   mystore.Store[marketmodel.Store]
	memberStore  mystore.Store[marketmodel.Member]
	resolver     *access.Resolver
	publisher    mypublisher.Publisher
	subscriber   mypubsub.PubSub
	nower        mytime.Nower
	uuider       myuuid.UUIDer
	logger       mylog.Logger
}

// Use dependency injection to isolate the infrastructure and easy testing
func newService(orderStore mystore.Store[marketmodel.Order], productStore mystore.Store[marketmodel.Product], storeStore mystore.Store[marketmodel.Store], memberStore mystore.Store[marketmodel.Member], resolver *access.Resolver, pub mypublisher.Publisher, sub mypubsub.PubSub, nower mytime.Nower, uuider myuuid.UUIDer, logger mylog.Logger) *service {
	return &service{
		orderStore:   orderStore,
		productStore: productStore,
		storeStore:   storeStore,
		memberStore:  memberStore,
		resolver:     resolver,
		publisher:    pub,
		subscriber:   sub,
		nower:        nower,
		uuider:       uuider,
		logger:       logger,
	}
}
