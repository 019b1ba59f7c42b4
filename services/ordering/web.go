package ordering

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/MarcGrol/marketplacebackend/lib/mycontext"
	"github.com/MarcGrol/marketplacebackend/lib/myerrors"
	"github.com/MarcGrol/marketplacebackend/lib/myhttp"
	"github.com/MarcGrol/marketplacebackend/lib/mylog"
	"github.com/MarcGrol/marketplacebackend/lib/mypublisher"
	"github.com/MarcGrol/marketplacebackend/lib/mypubsub"
	"github.com/MarcGrol/marketplacebackend/lib/mystore"
	"github.com/MarcGrol/marketplacebackend/lib/mytime"
	"github.com/MarcGrol/marketplacebackend/lib/myuuid"
	"github.com/MarcGrol/marketplacebackend/services/access"
	"github.com/MarcGrol/marketplacebackend/services/catalogevents"
	"github.com/MarcGrol/marketplacebackend/services/marketapi"
	"github.com/MarcGrol/marketplacebackend/services/marketmodel"
	"github.com/MarcGrol/marketplacebackend/services/orderingevents"
)

type webService struct {
	logger  mylog.Logger
	service *service
}

// Use dependency injection to isolate the infrastructure and easy testing
func NewWebService(orderStore mystore.Store[marketmodel.Order], productStore mystore.Store[marketmodel.Product], storeStore mystore.Store[marketmodel.Store], memberStore mystore.Store[marketmodel.Member], resolver *access.Resolver, publisher mypublisher.Publisher, subscriber mypubsub.PubSub, nower mytime.Nower, uuider myuuid.UUIDer) *webService {
	logger := mylog.New("ordering")
	return &webService{
		logger:  logger,
		service: newService(orderStore, productStore, storeStore, memberStore, resolver, publisher, subscriber, nower, uuider, logger),
	}
}

func (s *webService) RegisterEndpoints(c context.Context, router *mux.Router) error {
	router.HandleFunc("/api/products/{productUID}/orders", s.createOrderPage()).Methods("POST")
	router.HandleFunc("/api/orders", s.orderHistoryPage()).Methods("GET")
	router.HandleFunc("/api/orders/{orderUID}", s.orderDetailsPage()).Methods("GET")
	router.HandleFunc("/api/orders/{orderUID}", s.updateOrderStatusPage()).Methods("PATCH")
	router.HandleFunc("/api/orders/{orderUID}", s.cancelOrderPage()).Methods("DELETE")
	router.HandleFunc("/api/stores/{storeUID}/orders", s.storeOrdersPage()).Methods("GET")
	router.HandleFunc("/api/stores/{storeUID}/orders/{orderUID}", s.storeOrderDetailsPage()).Methods("GET")

	// Receives catalog events pushed by pubsub
	router.HandleFunc("/api/ordering/event", s.eventPage()).Methods("POST")

	err := s.service.publisher.CreateTopic(c, orderingevents.TopicName)
	if err != nil {
		return err
	}

	err = s.service.Subscribe(c)
	if err != nil {
		return err
	}

	return nil
}

func (s *webService) createOrderPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		principal, err := marketapi.PrincipalFromRequest(r)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		request, err := marketapi.CreateOrderRequestFromHTTPRequest(r)
		if err != nil {
			errorWriter.WriteError(c, w, 2, err)
			return
		}

		order, err := s.service.createOrder(c, principal.MemberUID, mux.Vars(r)["productUID"], request.Quantity)
		if err != nil {
			errorWriter.WriteError(c, w, 3, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, order)
	}
}

func (s *webService) orderHistoryPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		principal, err := marketapi.PrincipalFromRequest(r)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		page, err := marketapi.PageFromRequest(r)
		if err != nil {
			errorWriter.WriteError(c, w, 2, err)
			return
		}

		resp, err := s.service.findOrderHistoryByMember(c, principal.MemberUID, page)
		if err != nil {
			errorWriter.WriteError(c, w, 3, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, resp)
	}
}

func (s *webService) orderDetailsPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		principal, err := marketapi.PrincipalFromRequest(r)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		resp, err := s.service.findOrderDetailByMember(c, principal.MemberUID, mux.Vars(r)["orderUID"])
		if err != nil {
			errorWriter.WriteError(c, w, 2, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, resp)
	}
}

func (s *webService) updateOrderStatusPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		principal, err := marketapi.PrincipalFromRequest(r)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		request, err := marketapi.UpdateOrderRequestFromHTTPRequest(r)
		if err != nil {
			errorWriter.WriteError(c, w, 2, err)
			return
		}

		order, err := s.service.updateOrderStatus(c, principal.MemberUID, mux.Vars(r)["orderUID"], request.Status)
		if err != nil {
			errorWriter.WriteError(c, w, 3, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, order)
	}
}

func (s *webService) cancelOrderPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		principal, err := marketapi.PrincipalFromRequest(r)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		order, err := s.service.cancelOrder(c, principal.MemberUID, mux.Vars(r)["orderUID"])
		if err != nil {
			errorWriter.WriteError(c, w, 2, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, order)
	}
}

func (s *webService) storeOrdersPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		principal, err := ownerPrincipalFromRequest(r)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		page, err := marketapi.PageFromRequest(r)
		if err != nil {
			errorWriter.WriteError(c, w, 2, err)
			return
		}

		resp, err := s.service.findAllOrdersForOwner(c, principal.MemberUID, mux.Vars(r)["storeUID"], page)
		if err != nil {
			errorWriter.WriteError(c, w, 3, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, resp)
	}
}

func (s *webService) storeOrderDetailsPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		principal, err := ownerPrincipalFromRequest(r)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		resp, err := s.service.findOrderDetailForOwner(c, principal.MemberUID, mux.Vars(r)["storeUID"], mux.Vars(r)["orderUID"])
		if err != nil {
			errorWriter.WriteError(c, w, 2, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, resp)
	}
}

func (s *webService) eventPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		err := catalogevents.DispatchEvent(c, r.Body, s.service)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, myhttp.EmptyResponse{})
	}
}

// ownerPrincipalFromRequest additionally requires the OWNER role: the
// store-scoped order listing is owner-only.
func ownerPrincipalFromRequest(r *http.Request) (marketapi.Principal, error) {
	principal, err := marketapi.PrincipalFromRequest(r)
	if err != nil {
		return marketapi.Principal{}, err
	}
	if principal.Role != marketmodel.RoleOwner {
		return marketapi.Principal{}, myerrors.NewAuthenticationError(fmt.Errorf("member %s does not have the owner role", principal.MemberUID))
	}
	return principal, nil
}
