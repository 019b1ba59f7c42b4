package marketmodel

// CustomerProductView is what a customer gets to see of a product.
type CustomerProductView struct {
	UID            string
	Name           string
	Price          int
	TotalLikes     int64
	TotalViewCount int64
}

// OwnerProductView additionally exposes the stock level.
type OwnerProductView struct {
	UID            string
	Name           string
	Price          int
	Stock          int
	TotalLikes     int64
	TotalViewCount int64
}

// ProjectProduct returns the role-specific shape of a product. Every
// catalog read path uses this same projection.
func ProjectProduct(p Product, role Role) any {
	if role == RoleOwner {
		return OwnerProductView{
			UID:            p.UID,
			Name:           p.Name,
			Price:          p.Price,
			Stock:          p.Stock,
			TotalLikes:     p.TotalLikes,
			TotalViewCount: p.TotalViewCount,
		}
	}

	return CustomerProductView{
		UID:            p.UID,
		Name:           p.Name,
		Price:          p.Price,
		TotalLikes:     p.TotalLikes,
		TotalViewCount: p.TotalViewCount,
	}
}

func ProjectProducts(products []Product, role Role) []any {
	views := make([]any, 0, len(products))
	for _, p := range products {
		views = append(views, ProjectProduct(p, role))
	}
	return views
}
