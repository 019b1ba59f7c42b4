package catalog

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/MarcGrol/marketplacebackend/lib/myerrors"
	"github.com/MarcGrol/marketplacebackend/lib/mylog"
	"github.com/MarcGrol/marketplacebackend/lib/mystore"
	"github.com/MarcGrol/marketplacebackend/services/catalogevents"
	"github.com/MarcGrol/marketplacebackend/services/marketapi"
	"github.com/MarcGrol/marketplacebackend/services/marketmodel"
)

func (s *service) getProducts(c context.Context, storeUID string, page marketapi.Page, role marketmodel.Role) (ProductPageResponse, error) {
	s.logger.Log(c, storeUID, mylog.SeverityInfo, "Fetch products of store %s", storeUID)

	_, found, err := s.storeStore.Get(c, storeUID)
	if err != nil {
		return ProductPageResponse{}, myerrors.NewInternalError(err)
	}
	if !found {
		return ProductPageResponse{}, myerrors.NewNotFoundError(fmt.Errorf("store with uid %s not found", storeUID))
	}

	products, err := s.productStore.Query(c, []mystore.Filter{
		{Field: "StoreUID", Compare: "=", Value: storeUID},
	}, "CreatedAt,UID")
	if err != nil {
		return ProductPageResponse{}, myerrors.NewInternalError(err)
	}

	pageItems, hasNext := marketapi.Paginate(products, page)

	return ProductPageResponse{
		Items:   marketmodel.ProjectProducts(pageItems, role),
		HasNext: hasNext,
	}, nil
}

func (s *service) getProduct(c context.Context, productUID string, role marketmodel.Role) (any, error) {
	s.logger.Log(c, productUID, mylog.SeverityInfo, "Fetch product %s", productUID)

	var product marketmodel.Product
	err := s.productStore.RunInTransaction(c, func(c context.Context) error {
		var found bool
		var err error
		product, found, err = s.productStore.Get(c, productUID)
		if err != nil {
			return myerrors.NewInternalError(err)
		}
		if !found {
			return myerrors.NewNotFoundError(fmt.Errorf("product with uid %s not found", productUID))
		}

		// The read-modify-write runs inside the transaction: concurrent
		// fetches of the same product must each be reflected in the count
		now := s.nower.Now()
		product.TotalViewCount++
		product.LastModified = &now

		err = s.productStore.Put(c, productUID, product)
		if err != nil {
			return myerrors.NewInternalError(err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return marketmodel.ProjectProduct(product, role), nil
}

func (s *service) searchByProductName(c context.Context, keyword string, page marketapi.Page, role marketmodel.Role, useCache bool) (ProductPageResponse, error) {
	s.logger.Log(c, keyword, mylog.SeverityInfo, "Search products on keyword %q (cached=%v)", keyword, useCache)

	if strings.TrimSpace(keyword) == "" {
		return ProductPageResponse{}, myerrors.NewInvalidInputErrorf("search keyword must not be blank")
	}

	if useCache {
		// Best-effort side channel: a cache failure must never fail the search
		err := s.keywordCache.RecordSearchedKeyword(c, keyword)
		if err != nil {
			s.logger.Log(c, keyword, mylog.SeverityWarn, "Error recording keyword %q in cache: %s", keyword, err)
		}
	}

	err := s.recordSearchTerm(c, keyword)
	if err != nil {
		return ProductPageResponse{}, err
	}

	products, err := s.productStore.Query(c, []mystore.Filter{}, "Name")
	if err != nil {
		return ProductPageResponse{}, myerrors.NewInternalError(err)
	}

	matches := []marketmodel.Product{}
	for _, product := range products {
		if strings.Contains(product.Name, keyword) {
			matches = append(matches, product)
		}
	}

	pageItems, hasNext := marketapi.Paginate(matches, page)

	return ProductPageResponse{
		Items:   marketmodel.ProjectProducts(pageItems, role),
		HasNext: hasNext,
	}, nil
}

// recordSearchTerm increments the durable keyword ledger. The
// find-or-create runs inside a transaction so that concurrent first-time
// searches of a new keyword converge on a single record.
func (s *service) recordSearchTerm(c context.Context, keyword string) error {
	return s.searchTermStore.RunInTransaction(c, func(c context.Context) error {
		now := s.nower.Now()

		term, found, err := s.searchTermStore.Get(c, keyword)
		if err != nil {
			return myerrors.NewInternalError(err)
		}
		if found {
			term.Count++
			term.LastModified = &now
		} else {
			term = marketmodel.SearchTerm{
				Keyword:   keyword,
				Count:     1,
				CreatedAt: now,
			}
		}

		err = s.searchTermStore.Put(c, keyword, term)
		if err != nil {
			return myerrors.NewInternalError(err)
		}

		return nil
	})
}

func (s *service) findByPriceRange(c context.Context, minPrice int, maxPrice int, page marketapi.Page) (PriceRangePageResponse, error) {
	s.logger.Log(c, "", mylog.SeverityInfo, "Fetch products in price range %d-%d", minPrice, maxPrice)

	if minPrice < 0 || maxPrice < minPrice {
		return PriceRangePageResponse{}, myerrors.NewInvalidInputErrorf("invalid price range %d-%d", minPrice, maxPrice)
	}

	// bounds are inclusive
	products, err := s.productStore.Query(c, []mystore.Filter{
		{Field: "Price", Compare: ">=", Value: minPrice},
		{Field: "Price", Compare: "<=", Value: maxPrice},
	}, "Price,UID")
	if err != nil {
		return PriceRangePageResponse{}, myerrors.NewInternalError(err)
	}

	pageItems, hasNext := marketapi.Paginate(products, page)

	views := make([]PriceRangeProductView, 0, len(pageItems))
	for _, product := range pageItems {
		views = append(views, PriceRangeProductView{
			UID:   product.UID,
			Name:  product.Name,
			Price: product.Price,
		})
	}

	return PriceRangePageResponse{
		Items:   views,
		HasNext: hasNext,
	}, nil
}

func (s *service) getPopularKeywords(c context.Context, limit int) ([]KeywordFrequency, error) {
	s.logger.Log(c, "", mylog.SeverityInfo, "Fetch top %d popular keywords", limit)

	terms, err := s.searchTermStore.Query(c, []mystore.Filter{}, "")
	if err != nil {
		return nil, myerrors.NewInternalError(err)
	}

	counts := map[string]int64{}
	for _, term := range terms {
		counts[term.Keyword] = term.Count
	}

	// The cache may be ahead of the ledger: take the highest of the two
	cached, err := s.keywordCache.GetKeywordFrequencies(c)
	if err != nil {
		s.logger.Log(c, "", mylog.SeverityWarn, "Error fetching keyword frequencies from cache: %s", err)
	} else {
		for keyword, count := range cached {
			if count > counts[keyword] {
				counts[keyword] = count
			}
		}
	}

	frequencies := make([]KeywordFrequency, 0, len(counts))
	for keyword, count := range counts {
		frequencies = append(frequencies, KeywordFrequency{Keyword: keyword, Count: count})
	}
	sort.Slice(frequencies, func(i, j int) bool {
		if frequencies[i].Count != frequencies[j].Count {
			return frequencies[i].Count > frequencies[j].Count
		}
		return frequencies[i].Keyword < frequencies[j].Keyword
	})

	if limit > 0 && len(frequencies) > limit {
		frequencies = frequencies[:limit]
	}

	return frequencies, nil
}

func (s *service) createProduct(c context.Context, memberUID string, storeUID string, request marketapi.CreateProductRequest) (marketmodel.Product, error) {
	s.logger.Log(c, storeUID, mylog.SeverityInfo, "Create product %q in store %s", request.Name, storeUID)

	_, err := s.resolver.ResolveStoreOwnership(c, memberUID, storeUID)
	if err != nil {
		return marketmodel.Product{}, err
	}

	err = validateProductAttributes(request.Name, request.Price, request.Stock)
	if err != nil {
		return marketmodel.Product{}, err
	}

	productUID := s.uuider.Create()
	product := marketmodel.Product{
		UID:       productUID,
		StoreUID:  storeUID,
		Name:      request.Name,
		Price:     request.Price,
		Stock:     request.Stock,
		CreatedAt: s.nower.Now(),
	}

	err = s.productStore.RunInTransaction(c, func(c context.Context) error {
		// product name is unique catalog-wide
		existing, err := s.productStore.Query(c, []mystore.Filter{
			{Field: "Name", Compare: "=", Value: request.Name},
		}, "")
		if err != nil {
			return myerrors.NewInternalError(err)
		}
		if len(existing) > 0 {
			return myerrors.NewConflictError(fmt.Errorf("product with name %q already exists", request.Name))
		}

		err = s.productStore.Put(c, productUID, product)
		if err != nil {
			return myerrors.NewInternalError(err)
		}

		err = s.publisher.Publish(c, catalogevents.TopicName, catalogevents.ProductCreated{
			ProductUID: productUID,
			StoreUID:   storeUID,
			Name:       product.Name,
			Price:      product.Price,
			Stock:      product.Stock,
		})
		if err != nil {
			return myerrors.NewInternalError(err)
		}

		return nil
	})
	if err != nil {
		return marketmodel.Product{}, err
	}

	return product, nil
}

func (s *service) updateProduct(c context.Context, memberUID string, productUID string, request marketapi.UpdateProductRequest) (marketmodel.Product, error) {
	s.logger.Log(c, productUID, mylog.SeverityInfo, "Update product %s", productUID)

	_, err := s.resolver.ResolveProductOwnership(c, memberUID, productUID)
	if err != nil {
		return marketmodel.Product{}, err
	}

	err = validateProductAttributes(request.Name, request.Price, request.Stock)
	if err != nil {
		return marketmodel.Product{}, err
	}

	var product marketmodel.Product
	err = s.productStore.RunInTransaction(c, func(c context.Context) error {
		var found bool
		var err error
		product, found, err = s.productStore.Get(c, productUID)
		if err != nil {
			return myerrors.NewInternalError(err)
		}
		if !found {
			return myerrors.NewNotFoundError(fmt.Errorf("product with uid %s not found", productUID))
		}

		if request.Name != product.Name {
			existing, err := s.productStore.Query(c, []mystore.Filter{
				{Field: "Name", Compare: "=", Value: request.Name},
			}, "")
			if err != nil {
				return myerrors.NewInternalError(err)
			}
			if len(existing) > 0 {
				return myerrors.NewConflictError(fmt.Errorf("product with name %q already exists", request.Name))
			}
		}

		now := s.nower.Now()
		product.Name = request.Name
		product.Price = request.Price
		product.Stock = request.Stock
		product.LastModified = &now

		err = s.productStore.Put(c, productUID, product)
		if err != nil {
			return myerrors.NewInternalError(err)
		}

		return nil
	})
	if err != nil {
		return marketmodel.Product{}, err
	}

	return product, nil
}

func (s *service) deleteProduct(c context.Context, memberUID string, productUID string) error {
	s.logger.Log(c, productUID, mylog.SeverityInfo, "Delete product %s", productUID)

	product, err := s.resolver.ResolveProductOwnership(c, memberUID, productUID)
	if err != nil {
		return err
	}

	err = s.productStore.RunInTransaction(c, func(c context.Context) error {
		err := s.productStore.Delete(c, productUID)
		if err != nil {
			return myerrors.NewInternalError(err)
		}

		err = s.publisher.Publish(c, catalogevents.TopicName, catalogevents.ProductDeleted{
			ProductUID: productUID,
			StoreUID:   product.StoreUID,
		})
		if err != nil {
			return myerrors.NewInternalError(err)
		}

		return nil
	})
	if err != nil {
		return err
	}

	return nil
}

func validateProductAttributes(name string, price int, stock int) error {
	if strings.TrimSpace(name) == "" {
		return myerrors.NewInvalidInputErrorf("product name must not be blank")
	}
	if price < 1 {
		return myerrors.NewInvalidInputErrorf("product price must be positive, got %d", price)
	}
	if stock < 0 {
		return myerrors.NewInvalidInputErrorf("product stock must not be negative, got %d", stock)
	}
	return nil
}
