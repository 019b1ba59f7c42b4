package ordering

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/MarcGrol/marketplacebackend/lib/myevents"
	"github.com/MarcGrol/marketplacebackend/lib/mypublisher"
	"github.com/MarcGrol/marketplacebackend/lib/mypubsub"
	"github.com/MarcGrol/marketplacebackend/lib/mystore"
	"github.com/MarcGrol/marketplacebackend/lib/mytime"
	"github.com/MarcGrol/marketplacebackend/lib/myuuid"
	"github.com/MarcGrol/marketplacebackend/services/access"
	"github.com/MarcGrol/marketplacebackend/services/catalogevents"
	"github.com/MarcGrol/marketplacebackend/services/marketmodel"
	"github.com/MarcGrol/marketplacebackend/services/orderingevents"
)

var (
	customer1 = marketmodel.Member{
		UID:          "cust-1",
		Name:         "Eva",
		EmailAddress: "eva@home.nl",
		Role:         marketmodel.RoleCustomer,
		CreatedAt:    mytime.ExampleTime,
	}
	customer2 = marketmodel.Member{
		UID:          "cust-2",
		Name:         "Pien",
		EmailAddress: "pien@home.nl",
		Role:         marketmodel.RoleCustomer,
		CreatedAt:    mytime.ExampleTime,
	}
	owner1 = marketmodel.Member{
		UID:          "owner-1",
		Name:         "Marc",
		EmailAddress: "marc@home.nl",
		Role:         marketmodel.RoleOwner,
		CreatedAt:    mytime.ExampleTime,
	}
	store1 = marketmodel.Store{
		UID:       "store-1",
		OwnerUID:  "owner-1",
		Name:      "Tools4You",
		CreatedAt: mytime.ExampleTime,
	}
	store2 = marketmodel.Store{
		UID:       "store-2",
		OwnerUID:  "owner-2",
		Name:      "GadgetWorld",
		CreatedAt: mytime.ExampleTime,
	}
	hammer = marketmodel.Product{
		UID:       "prod-1",
		StoreUID:  "store-1",
		Name:      "Hammer",
		Price:     1500,
		Stock:     10,
		CreatedAt: mytime.ExampleTime,
	}
)

func TestOrderService(t *testing.T) {

	t.Run("Place order", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		ctx, router, f := setup(t, ctrl)

		// given
		f.uuider.EXPECT().Create().Return("order-1")
		f.nower.EXPECT().Now().Return(mytime.ExampleTime).Times(2)
		f.publisher.EXPECT().Publish(gomock.Any(), orderingevents.TopicName, orderingevents.OrderPlaced{
			OrderUID:   "order-1",
			MemberUID:  "cust-1",
			ProductUID: "prod-1",
			StoreUID:   "store-1",
			Quantity:   2,
		}).Return(nil)

		// when
		response := doPost(router, "/api/products/prod-1/orders", "quantity=2", "cust-1", "customer")

		// then
		assert.Equal(t, 200, response.Code)

		order, exists, _ := f.orderStore.Get(ctx, "order-1")
		assert.True(t, exists)
		assert.Equal(t, marketmodel.OrderStatusPlaced, order.Status)
		assert.Equal(t, 2, order.Quantity)

		product, _, _ := f.productStore.Get(ctx, "prod-1")
		assert.Equal(t, 8, product.Stock)
	})

	t.Run("Place order with insufficient stock", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		ctx, router, f := setup(t, ctrl)

		// given
		f.uuider.EXPECT().Create().Return("order-1")
		f.nower.EXPECT().Now().Return(mytime.ExampleTime)

		// when
		response := doPost(router, "/api/products/prod-1/orders", "quantity=11", "cust-1", "customer")

		// then
		assert.Equal(t, 400, response.Code)

		product, _, _ := f.productStore.Get(ctx, "prod-1")
		assert.Equal(t, 10, product.Stock)
	})

	t.Run("Place order with zero quantity", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		_, router, _ := setup(t, ctrl)

		// when
		response := doPost(router, "/api/products/prod-1/orders", "quantity=0", "cust-1", "customer")

		// then
		assert.Equal(t, 400, response.Code)
	})

	t.Run("Place order as non-customer", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		_, router, _ := setup(t, ctrl)

		// when
		response := doPost(router, "/api/products/prod-1/orders", "quantity=1", "owner-1", "owner")

		// then
		assert.Equal(t, 403, response.Code)
	})

	t.Run("Place order as unknown member", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		_, router, _ := setup(t, ctrl)

		// when
		response := doPost(router, "/api/products/prod-1/orders", "quantity=1", "no-such-member", "customer")

		// then
		assert.Equal(t, 404, response.Code)
	})

	t.Run("Concurrent orders never oversell", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		ctx, router, f := setup(t, ctrl)

		// given
		var sequence int64
		f.uuider.EXPECT().Create().DoAndReturn(func() string {
			return fmt.Sprintf("order-%d", atomic.AddInt64(&sequence, 1))
		}).AnyTimes()
		f.nower.EXPECT().Now().Return(mytime.ExampleTime).AnyTimes()
		f.publisher.EXPECT().Publish(gomock.Any(), orderingevents.TopicName, gomock.Any()).Return(nil).AnyTimes()

		// when: 20 attempts for the last 10 items
		var succeeded int64
		wg := sync.WaitGroup{}
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				response := doPost(router, "/api/products/prod-1/orders", "quantity=1", "cust-1", "customer")
				if response.Code == 200 {
					atomic.AddInt64(&succeeded, 1)
				}
			}()
		}
		wg.Wait()

		// then
		assert.Equal(t, int64(10), succeeded)
		product, _, _ := f.productStore.Get(ctx, "prod-1")
		assert.Equal(t, 0, product.Stock)
	})

	t.Run("Confirm order", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		ctx, router, f := setup(t, ctrl)

		// given
		_ = f.orderStore.Put(ctx, "order-1", placedOrder("order-1", "cust-1", 2))
		f.nower.EXPECT().Now().Return(mytime.ExampleTime)
		f.publisher.EXPECT().Publish(gomock.Any(), orderingevents.TopicName, orderingevents.OrderStatusChanged{
			OrderUID:  "order-1",
			OldStatus: "PLACED",
			NewStatus: "CONFIRMED",
		}).Return(nil)

		// when
		response := doPatch(router, "/api/orders/order-1", "status=confirmed", "cust-1", "customer")

		// then
		assert.Equal(t, 200, response.Code)
		order, _, _ := f.orderStore.Get(ctx, "order-1")
		assert.Equal(t, marketmodel.OrderStatusConfirmed, order.Status)
	})

	t.Run("Move order to unrecognized status", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		ctx, router, f := setup(t, ctrl)

		// given
		_ = f.orderStore.Put(ctx, "order-1", placedOrder("order-1", "cust-1", 2))

		// when
		response := doPatch(router, "/api/orders/order-1", "status=teleported", "cust-1", "customer")

		// then
		assert.Equal(t, 400, response.Code)
	})

	t.Run("Skip order ahead to delivered", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		ctx, router, f := setup(t, ctrl)

		// given: DELIVERED is only reachable from SHIPPED
		_ = f.orderStore.Put(ctx, "order-1", placedOrder("order-1", "cust-1", 2))

		// when
		response := doPatch(router, "/api/orders/order-1", "status=delivered", "cust-1", "customer")

		// then
		assert.Equal(t, 409, response.Code)
		order, _, _ := f.orderStore.Get(ctx, "order-1")
		assert.Equal(t, marketmodel.OrderStatusPlaced, order.Status)
	})

	t.Run("Cancel order restores stock once", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		ctx, router, f := setup(t, ctrl)

		// given: stock already reduced by the placed order
		reduced := hammer
		reduced.Stock = 8
		_ = f.productStore.Put(ctx, "prod-1", reduced)
		_ = f.orderStore.Put(ctx, "order-1", placedOrder("order-1", "cust-1", 2))
		f.nower.EXPECT().Now().Return(mytime.ExampleTime)
		f.publisher.EXPECT().Publish(gomock.Any(), orderingevents.TopicName, orderingevents.OrderCancelled{
			OrderUID:      "order-1",
			ProductUID:    "prod-1",
			RestoredStock: 2,
		}).Return(nil)

		// when
		response := doDelete(router, "/api/orders/order-1", "cust-1", "customer")

		// then
		assert.Equal(t, 200, response.Code)
		order, _, _ := f.orderStore.Get(ctx, "order-1")
		assert.Equal(t, marketmodel.OrderStatusCancelled, order.Status)
		product, _, _ := f.productStore.Get(ctx, "prod-1")
		assert.Equal(t, 10, product.Stock)

		// when: cancelling again
		response = doDelete(router, "/api/orders/order-1", "cust-1", "customer")

		// then: conflict, and no second restore
		assert.Equal(t, 409, response.Code)
		product, _, _ = f.productStore.Get(ctx, "prod-1")
		assert.Equal(t, 10, product.Stock)
	})

	t.Run("Concurrent cancel and confirm end cancelled", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		ctx, router, f := setup(t, ctrl)

		// given: stock already reduced by the placed order
		reduced := hammer
		reduced.Stock = 8
		_ = f.productStore.Put(ctx, "prod-1", reduced)
		_ = f.orderStore.Put(ctx, "order-1", placedOrder("order-1", "cust-1", 2))
		f.nower.EXPECT().Now().Return(mytime.ExampleTime).AnyTimes()
		f.publisher.EXPECT().Publish(gomock.Any(), orderingevents.TopicName, gomock.Any()).Return(nil).AnyTimes()

		// when: a cancel races a confirm; whichever runs second must see
		// the other's committed status, never overwrite it blindly
		wg := sync.WaitGroup{}
		wg.Add(2)
		go func() {
			defer wg.Done()
			doDelete(router, "/api/orders/order-1", "cust-1", "customer")
		}()
		go func() {
			defer wg.Done()
			doPatch(router, "/api/orders/order-1", "status=confirmed", "cust-1", "customer")
		}()
		wg.Wait()

		// then: CONFIRMED is cancellable, CANCELLED is terminal, so the
		// order always ends cancelled with the stock restored exactly once
		order, _, _ := f.orderStore.Get(ctx, "order-1")
		assert.Equal(t, marketmodel.OrderStatusCancelled, order.Status)
		product, _, _ := f.productStore.Get(ctx, "prod-1")
		assert.Equal(t, 10, product.Stock)
	})

	t.Run("Cancel someone else's order", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		ctx, router, f := setup(t, ctrl)

		// given
		_ = f.orderStore.Put(ctx, "order-1", placedOrder("order-1", "cust-1", 2))

		// when
		response := doDelete(router, "/api/orders/order-1", "cust-2", "customer")

		// then: order exists but belongs to another customer
		assert.Equal(t, 403, response.Code)
	})

	t.Run("Fetch order history newest first", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		ctx, router, f := setup(t, ctrl)

		// given
		older := placedOrder("order-1", "cust-1", 1)
		newer := placedOrder("order-2", "cust-1", 2)
		newer.CreatedAt = mytime.ExampleTime.Add(1)
		_ = f.orderStore.Put(ctx, "order-1", older)
		_ = f.orderStore.Put(ctx, "order-2", newer)
		_ = f.orderStore.Put(ctx, "order-3", placedOrder("order-3", "cust-2", 1))

		// when
		response := doGet(router, "/api/orders", "cust-1", "customer")

		// then
		assert.Equal(t, 200, response.Code)
		got := OrderPageResponse{}
		err := json.Unmarshal(response.Body.Bytes(), &got)
		assert.NoError(t, err)
		assert.Len(t, got.Items, 2)
		assert.Equal(t, "order-2", got.Items[0].UID)
		assert.Equal(t, "order-1", got.Items[1].UID)
		assert.Equal(t, "Hammer", got.Items[0].ProductName)
		assert.False(t, got.HasNext)
	})

	t.Run("Fetch order history with equal timestamps", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		ctx, router, f := setup(t, ctrl)

		// given: three orders placed at the same instant
		for _, uid := range []string{"order-c", "order-a", "order-b"} {
			_ = f.orderStore.Put(ctx, uid, placedOrder(uid, "cust-1", 1))
		}

		// when
		response := doGet(router, "/api/orders", "cust-1", "customer")

		// then: ties on CreatedAt fall back to uid, so paging is stable
		assert.Equal(t, 200, response.Code)
		got := OrderPageResponse{}
		err := json.Unmarshal(response.Body.Bytes(), &got)
		assert.NoError(t, err)
		uids := []string{}
		for _, item := range got.Items {
			uids = append(uids, item.UID)
		}
		assert.Equal(t, []string{"order-a", "order-b", "order-c"}, uids)
	})

	t.Run("Fetch order of own store", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		ctx, router, f := setup(t, ctrl)

		// given
		_ = f.orderStore.Put(ctx, "order-1", placedOrder("order-1", "cust-1", 2))

		// when
		response := doGet(router, "/api/stores/store-1/orders/order-1", "owner-1", "owner")

		// then
		assert.Equal(t, 200, response.Code)
		assert.Contains(t, response.Body.String(), "order-1")
	})

	t.Run("Fetch order via the wrong store", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		ctx, router, f := setup(t, ctrl)

		// given: the order's product belongs to store-1, not store-2
		_ = f.orderStore.Put(ctx, "order-1", placedOrder("order-1", "cust-1", 2))

		// when
		response := doGet(router, "/api/stores/store-2/orders/order-1", "owner-2", "owner")

		// then: scope mismatch reads as absence, not as forbidden
		assert.Equal(t, 404, response.Code)
	})

	t.Run("Fetch store orders as customer", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		_, router, _ := setup(t, ctrl)

		// when
		response := doGet(router, "/api/stores/store-1/orders", "cust-1", "customer")

		// then
		assert.Equal(t, 403, response.Code)
	})

	t.Run("List orders of store", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		ctx, router, f := setup(t, ctrl)

		// given
		_ = f.orderStore.Put(ctx, "order-1", placedOrder("order-1", "cust-1", 2))
		_ = f.orderStore.Put(ctx, "order-2", placedOrder("order-2", "cust-2", 1))

		// when
		response := doGet(router, "/api/stores/store-1/orders", "owner-1", "owner")

		// then: orders of both customers are visible to the owner
		assert.Equal(t, 200, response.Code)
		got := OrderPageResponse{}
		err := json.Unmarshal(response.Body.Bytes(), &got)
		assert.NoError(t, err)
		assert.Len(t, got.Items, 2)
	})

	t.Run("Product deletion cancels open orders", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		ctx, router, f := setup(t, ctrl)

		// given
		_ = f.orderStore.Put(ctx, "order-1", placedOrder("order-1", "cust-1", 2))
		delivered := placedOrder("order-2", "cust-2", 1)
		delivered.Status = marketmodel.OrderStatusDelivered
		_ = f.orderStore.Put(ctx, "order-2", delivered)
		f.nower.EXPECT().Now().Return(mytime.ExampleTime)
		f.publisher.EXPECT().Publish(gomock.Any(), orderingevents.TopicName, orderingevents.OrderCancelled{
			OrderUID:      "order-1",
			ProductUID:    "prod-1",
			RestoredStock: 0,
		}).Return(nil)

		// when
		response := doEventPost(router, "/api/ordering/event", catalogevents.ProductDeleted{
			ProductUID: "prod-1",
			StoreUID:   "store-1",
		})

		// then: only the open order is cancelled
		assert.Equal(t, 200, response.Code)
		order, _, _ := f.orderStore.Get(ctx, "order-1")
		assert.Equal(t, marketmodel.OrderStatusCancelled, order.Status)
		order, _, _ = f.orderStore.Get(ctx, "order-2")
		assert.Equal(t, marketmodel.OrderStatusDelivered, order.Status)
	})
}

type fixtures struct {
	orderStore   mystore.Store[marketmodel.Order]
	productStore mystore.Store[marketmodel.Product]
	nower        *mytime.MockNower
	uuider       *myuuid.MockUUIDer
	publisher    *mypublisher.MockPublisher
	subscriber   *mypubsub.MockPubSub
}

func setup(t *testing.T, ctrl *gomock.Controller) (context.Context, *mux.Router, fixtures) {
	c := context.TODO()
	orderStore, _, _ := mystore.New[marketmodel.Order](c)
	productStore, _, _ := mystore.New[marketmodel.Product](c)
	storeStore, _, _ := mystore.New[marketmodel.Store](c)
	memberStore, _, _ := mystore.New[marketmodel.Member](c)
	nower := mytime.NewMockNower(ctrl)
	uuider := myuuid.NewMockUUIDer(ctrl)
	publisher := mypublisher.NewMockPublisher(ctrl)
	subscriber := mypubsub.NewMockPubSub(ctrl)
	resolver := access.NewResolver(orderStore, productStore, storeStore)

	_ = memberStore.Put(c, customer1.UID, customer1)
	_ = memberStore.Put(c, customer2.UID, customer2)
	_ = memberStore.Put(c, owner1.UID, owner1)
	_ = storeStore.Put(c, store1.UID, store1)
	_ = storeStore.Put(c, store2.UID, store2)
	_ = productStore.Put(c, hammer.UID, hammer)

	sut := NewWebService(orderStore, productStore, storeStore, memberStore, resolver, publisher, subscriber, nower, uuider)
	router := mux.NewRouter()

	// These are called by the following call to RegisterEndpoints
	publisher.EXPECT().CreateTopic(c, orderingevents.TopicName).Return(nil)
	subscriber.EXPECT().CreateTopic(c, catalogevents.TopicName).Return(nil)
	subscriber.EXPECT().Subscribe(c, catalogevents.TopicName, "http://localhost:8080/api/ordering/event").Return(nil)

	err := sut.RegisterEndpoints(c, router)
	assert.NoError(t, err)

	return c, router, fixtures{
		orderStore:   orderStore,
		productStore: productStore,
		nower:        nower,
		uuider:       uuider,
		publisher:    publisher,
		subscriber:   subscriber,
	}
}

func placedOrder(uid string, memberUID string, quantity int) marketmodel.Order {
	return marketmodel.Order{
		UID:        uid,
		MemberUID:  memberUID,
		ProductUID: "prod-1",
		Quantity:   quantity,
		Status:     marketmodel.OrderStatusPlaced,
		CreatedAt:  mytime.ExampleTime,
	}
}

func doGet(router *mux.Router, url string, memberUID string, role string) *httptest.ResponseRecorder {
	return doRequest(router, http.MethodGet, url, "", memberUID, role)
}

func doPost(router *mux.Router, url string, body string, memberUID string, role string) *httptest.ResponseRecorder {
	return doRequest(router, http.MethodPost, url, body, memberUID, role)
}

func doPatch(router *mux.Router, url string, body string, memberUID string, role string) *httptest.ResponseRecorder {
	return doRequest(router, http.MethodPatch, url, body, memberUID, role)
}

func doDelete(router *mux.Router, url string, memberUID string, role string) *httptest.ResponseRecorder {
	return doRequest(router, http.MethodDelete, url, "", memberUID, role)
}

func doRequest(router *mux.Router, method string, url string, body string, memberUID string, role string) *httptest.ResponseRecorder {
	request := httptest.NewRequest(method, url, strings.NewReader(body))
	if body != "" {
		request.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	request.Header.Set("X-Member-Uid", memberUID)
	request.Header.Set("X-Member-Role", role)
	response := httptest.NewRecorder()
	router.ServeHTTP(response, request)
	return response
}

func doEventPost(router *mux.Router, url string, event catalogevents.ProductDeleted) *httptest.ResponseRecorder {
	payload, _ := json.Marshal(event)
	envelope, _ := json.Marshal(myevents.EventEnvelope{
		UID:           "evt-1",
		Topic:         catalogevents.TopicName,
		AggregateUID:  event.ProductUID,
		EventTypeName: event.GetEventTypeName(),
		EventPayload:  string(payload),
	})
	body, _ := json.Marshal(myevents.PushRequest{
		Message: myevents.PushMessage{
			Data: envelope,
		},
	})
	request := httptest.NewRequest(http.MethodPost, url, strings.NewReader(string(body)))
	response := httptest.NewRecorder()
	router.ServeHTTP(response, request)
	return response
}
