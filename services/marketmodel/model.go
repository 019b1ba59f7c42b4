package marketmodel

import (
	"time"
)

// Member is the acting principal: a customer placing orders or an owner
// running one or more stores.
type Member struct {
	UID          string
	Name         string
	EmailAddress string
	Role         Role
	CreatedAt    time.Time
}

// Store is exclusively owned by one member.
type Store struct {
	UID       string
	OwnerUID  string
	Name      string
	CreatedAt time.Time
}

// Product is exclusively owned by its store. Price is in currency minor
// units. TotalViewCount only ever increases.
type Product struct {
	UID            string
	StoreUID       string
	Name           string
	Price          int
	Stock          int
	TotalLikes     int64
	TotalViewCount int64
	CreatedAt      time.Time
	LastModified   *time.Time
}

// Order is owned by the purchasing member for read/update/cancel, and
// readable by the owner of the store that sells the product.
type Order struct {
	UID          string
	MemberUID    string
	ProductUID   string
	Quantity     int
	Status       OrderStatus
	CreatedAt    time.Time
	LastModified *time.Time
}

// SearchTerm is the durable ledger record of a searched keyword. It is
// keyed by the keyword itself (case-sensitive), one record per distinct
// keyword. Count only ever increases.
type SearchTerm struct {
	Keyword      string
	Count        int64
	CreatedAt    time.Time
	LastModified *time.Time
}
