package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/gorilla/mux"

	"github.com/MarcGrol/marketplacebackend/lib/mykeywordcache"
	"github.com/MarcGrol/marketplacebackend/lib/mypublisher"
	"github.com/MarcGrol/marketplacebackend/lib/mypubsub"
	"github.com/MarcGrol/marketplacebackend/lib/myqueue"
	"github.com/MarcGrol/marketplacebackend/lib/mystore"
	"github.com/MarcGrol/marketplacebackend/lib/mytime"
	"github.com/MarcGrol/marketplacebackend/lib/myuuid"
	"github.com/MarcGrol/marketplacebackend/services/access"
	"github.com/MarcGrol/marketplacebackend/services/catalog"
	"github.com/MarcGrol/marketplacebackend/services/marketmodel"
	"github.com/MarcGrol/marketplacebackend/services/ordering"
)

func main() {
	c := context.Background()

	router := mux.NewRouter()

	nower := mytime.RealNower{}
	uuider := myuuid.RealUUIDer{}

	memberStore, memberStoreCleanup, err := mystore.New[marketmodel.Member](c)
	if err != nil {
		log.Fatalf("Error creating member store: %s", err)
	}
	defer memberStoreCleanup()

	storeStore, storeStoreCleanup, err := mystore.New[marketmodel.Store](c)
	if err != nil {
		log.Fatalf("Error creating store store: %s", err)
	}
	defer storeStoreCleanup()

	productStore, productStoreCleanup, err := mystore.New[marketmodel.Product](c)
	if err != nil {
		log.Fatalf("Error creating product store: %s", err)
	}
	defer productStoreCleanup()

	orderStore, orderStoreCleanup, err := mystore.New[marketmodel.Order](c)
	if err != nil {
		log.Fatalf("Error creating order store: %s", err)
	}
	defer orderStoreCleanup()

	searchTermStore, searchTermStoreCleanup, err := mystore.New[marketmodel.SearchTerm](c)
	if err != nil {
		log.Fatalf("Error creating search term store: %s", err)
	}
	defer searchTermStoreCleanup()

	queue, queueCleanup, err := myqueue.New(c)
	if err != nil {
		log.Fatalf("Error creating task queue: %s", err)
	}
	defer queueCleanup()

	pubsub, pubsubCleanup, err := mypubsub.New(c)
	if err != nil {
		log.Fatalf("Error creating pubsub: %s", err)
	}
	defer pubsubCleanup()

	publisher, publisherCleanup, err := mypublisher.New(c, pubsub, queue, nower)
	if err != nil {
		log.Fatalf("Error creating publisher: %s", err)
	}
	defer publisherCleanup()
	publisher.RegisterEndpoints(c, router)

	keywordCache, keywordCacheCleanup, err := mykeywordcache.New(c)
	if err != nil {
		log.Fatalf("Error creating keyword cache: %s", err)
	}
	defer keywordCacheCleanup()

	resolver := access.NewResolver(orderStore, productStore, storeStore)

	catalogService := catalog.NewWebService(productStore, storeStore, searchTermStore, keywordCache, resolver, publisher, nower, uuider)
	err = catalogService.RegisterEndpoints(c, router)
	if err != nil {
		log.Fatalf("Error registering catalog service: %s", err)
	}

	orderingService := ordering.NewWebService(orderStore, productStore, storeStore, memberStore, resolver, publisher, pubsub, nower, uuider)
	err = orderingService.RegisterEndpoints(c, router)
	if err != nil {
		log.Fatalf("Error registering ordering service: %s", err)
	}

	startWebServerBlocking(router)
}

func startWebServerBlocking(router *mux.Router) {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Starting webserver on port %s (try http://localhost:%s)", port, port)
	err := http.ListenAndServe(fmt.Sprintf(":%s", port), router)
	if err != nil {
		log.Fatalf("Error starting webserver on port %s: %s", port, err)
	}
}
