package catalog

// ProductPageResponse is one page of role-projected products.
type ProductPageResponse struct {
	Items   []any
	HasNext bool
}

// PriceRangeProductView is the catalog-wide shape used by the price-range
// query: no role projection applies there.
type PriceRangeProductView struct {
	UID   string
	Name  string
	Price int
}

type PriceRangePageResponse struct {
	Items   []PriceRangeProductView
	HasNext bool
}

type KeywordFrequency struct {
	Keyword string
	Count   int64
}
