package catalog

import (
	"github.com/MarcGrol/marketplacebackend/lib/mykeywordcache"
	"github.com/MarcGrol/marketplacebackend/lib/mylog"
	"github.com/MarcGrol/marketplacebackend/lib/mypublisher"
	"github.com/MarcGrol/marketplacebackend/lib/mystore"
	"github.com/MarcGrol/marketplacebackend/lib/mytime"
	"github.com/MarcGrol/marketplacebackend/lib/myuuid"
	"github.com/MarcGrol/marketplacebackend/services/access"
	"github.com/MarcGrol/marketplacebackend/services/marketmodel"
)

type service struct {
	productStore    mystore.Store[marketmodel.Product]
	storeStore      mystore.Store[marketmodel.Store]
	searchTermStore mystore.Store[marketmodel.SearchTerm]
	keywordCache    mykeywordcache.KeywordCache
	resolver        *access.Resolver
	publisher       mypublisher.Publisher
	nower           mytime.Nower
	uuider          myuuid.UUIDer
	logger          mylog.Logger
}

// Use dependency injection to isolate the infrastructure and easy testing
func newService(productStore mystore.Store[marketmodel.Product], storeStore mystore.Store[marketmodel.Store], searchTermStore mystore.Store[marketmodel.SearchTerm], keywordCache mykeywordcache.KeywordCache, resolver *access.Resolver, pub mypublisher.Publisher, nower mytime.Nower, uuider myuuid.UUIDer, logger mylog.Logger) *service {
	return &service{
		productStore:    productStore,
		storeStore:      storeStore,
		searchTermStore: searchTermStore,
		keywordCache:    keywordCache,
		resolver:        resolver,
		publisher:       pub,
		nower:           nower,
		uuider:          uuider,
		logger:          logger,
	}
}
