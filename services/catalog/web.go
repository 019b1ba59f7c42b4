package catalog

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/MarcGrol/marketplacebackend/lib/mycontext"
	"github.com/MarcGrol/marketplacebackend/lib/myerrors"
	"github.com/MarcGrol/marketplacebackend/lib/myhttp"
	"github.com/MarcGrol/marketplacebackend/lib/mykeywordcache"
	"github.com/MarcGrol/marketplacebackend/lib/mylog"
	"github.com/MarcGrol/marketplacebackend/lib/mypublisher"
	"github.com/MarcGrol/marketplacebackend/lib/mystore"
	"github.com/MarcGrol/marketplacebackend/lib/mytime"
	"github.com/MarcGrol/marketplacebackend/lib/myuuid"
	"github.com/MarcGrol/marketplacebackend/services/access"
	"github.com/MarcGrol/marketplacebackend/services/catalogevents"
	"github.com/MarcGrol/marketplacebackend/services/marketapi"
	"github.com/MarcGrol/marketplacebackend/services/marketmodel"
)

const defaultPopularKeywordCount = 10

type webService struct {
	logger  mylog.Logger
	service *service
}

// Use dependency injection to isolate the infrastructure and easy testing
func NewWebService(productStore mystore.Store[marketmodel.Product], storeStore mystore.Store[marketmodel.Store], searchTermStore mystore.Store[marketmodel.SearchTerm], keywordCache mykeywordcache.KeywordCache, resolver *access.Resolver, publisher mypublisher.Publisher, nower mytime.Nower, uuider myuuid.UUIDer) *webService {
	logger := mylog.New("catalog")
	return &webService{
		logger:  logger,
		service: newService(productStore, storeStore, searchTermStore, keywordCache, resolver, publisher, nower, uuider, logger),
	}
}

func (s *webService) RegisterEndpoints(c context.Context, router *mux.Router) error {
	router.HandleFunc("/api/stores/{storeUID}/products", s.listProductsPage()).Methods("GET")
	router.HandleFunc("/api/stores/{storeUID}/products", s.createProductPage()).Methods("POST")
	router.HandleFunc("/api/products/search", s.searchProductsPage(false)).Methods("GET")
	router.HandleFunc("/api/products/search/cached", s.searchProductsPage(true)).Methods("GET")
	router.HandleFunc("/api/products/price", s.priceRangePage()).Methods("GET")
	router.HandleFunc("/api/products/{productUID}", s.productDetailsPage()).Methods("GET")
	router.HandleFunc("/api/products/{productUID}", s.updateProductPage()).Methods("PATCH")
	router.HandleFunc("/api/products/{productUID}", s.deleteProductPage()).Methods("DELETE")
	router.HandleFunc("/api/search/popular", s.popularKeywordsPage()).Methods("GET")

	err := s.service.publisher.CreateTopic(c, catalogevents.TopicName)
	if err != nil {
		return err
	}

	return nil
}

func (s *webService) listProductsPage() http.HandlerFunc {
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

		resp, err := s.service.getProducts(c, mux.Vars(r)["storeUID"], page, principal.Role)
		if err != nil {
			errorWriter.WriteError(c, w, 3, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, resp)
	}
}

func (s *webService) productDetailsPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		principal, err := marketapi.PrincipalFromRequest(r)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		resp, err := s.service.getProduct(c, mux.Vars(r)["productUID"], principal.Role)
		if err != nil {
			errorWriter.WriteError(c, w, 2, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, resp)
	}
}

func (s *webService) searchProductsPage(useCache bool) http.HandlerFunc {
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

		keyword := r.URL.Query().Get("keyword")

		resp, err := s.service.searchByProductName(c, keyword, page, principal.Role, useCache)
		if err != nil {
			errorWriter.WriteError(c, w, 3, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, resp)
	}
}

func (s *webService) priceRangePage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		_, err := marketapi.PrincipalFromRequest(r)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		page, err := marketapi.PageFromRequest(r)
		if err != nil {
			errorWriter.WriteError(c, w, 2, err)
			return
		}

		minPrice, maxPrice, err := priceRangeFromRequest(r)
		if err != nil {
			errorWriter.WriteError(c, w, 3, err)
			return
		}

		resp, err := s.service.findByPriceRange(c, minPrice, maxPrice, page)
		if err != nil {
			errorWriter.WriteError(c, w, 4, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, resp)
	}
}

func (s *webService) popularKeywordsPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		_, err := marketapi.PrincipalFromRequest(r)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		limit := defaultPopularKeywordCount
		if value := r.URL.Query().Get("limit"); value != "" {
			limit, err = strconv.Atoi(value)
			if err != nil || limit < 1 {
				errorWriter.WriteError(c, w, 2, myerrors.NewInvalidInputErrorf("invalid limit %q", value))
				return
			}
		}

		resp, err := s.service.getPopularKeywords(c, limit)
		if err != nil {
			errorWriter.WriteError(c, w, 3, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, resp)
	}
}

func (s *webService) createProductPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		principal, err := marketapi.PrincipalFromRequest(r)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		request, err := marketapi.CreateProductRequestFromHTTPRequest(r)
		if err != nil {
			errorWriter.WriteError(c, w, 2, err)
			return
		}

		product, err := s.service.createProduct(c, principal.MemberUID, mux.Vars(r)["storeUID"], request)
		if err != nil {
			errorWriter.WriteError(c, w, 3, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, product)
	}
}

func (s *webService) updateProductPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		principal, err := marketapi.PrincipalFromRequest(r)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		request, err := marketapi.UpdateProductRequestFromHTTPRequest(r)
		if err != nil {
			errorWriter.WriteError(c, w, 2, err)
			return
		}

		product, err := s.service.updateProduct(c, principal.MemberUID, mux.Vars(r)["productUID"], request)
		if err != nil {
			errorWriter.WriteError(c, w, 3, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, product)
	}
}

func (s *webService) deleteProductPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		principal, err := marketapi.PrincipalFromRequest(r)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		err = s.service.deleteProduct(c, principal.MemberUID, mux.Vars(r)["productUID"])
		if err != nil {
			errorWriter.WriteError(c, w, 2, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, myhttp.SuccessResponse{})
	}
}

func priceRangeFromRequest(r *http.Request) (int, int, error) {
	minPrice, err := strconv.Atoi(r.URL.Query().Get("min"))
	if err != nil {
		return 0, 0, myerrors.NewInvalidInputErrorf("invalid min price %q", r.URL.Query().Get("min"))
	}
	maxPrice, err := strconv.Atoi(r.URL.Query().Get("max"))
	if err != nil {
		return 0, 0, myerrors.NewInvalidInputErrorf("invalid max price %q", r.URL.Query().Get("max"))
	}
	return minPrice, maxPrice, nil
}
