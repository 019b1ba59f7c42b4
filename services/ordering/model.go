package ordering

import (
	"time"

	"github.com/MarcGrol/marketplacebackend/services/marketmodel"
)

// OrderResponse is the outward shape of an order. ProductName is
// denormalized for display and left empty when the product is gone.
type OrderResponse struct {
	UID          string
	MemberUID    string
	ProductUID   string
	ProductName  string
	Quantity     int
	Status       marketmodel.OrderStatus
	CreatedAt    time.Time
	LastModified *time.Time
}

type OrderPageResponse struct {
	Items   []OrderResponse
	HasNext bool
}
