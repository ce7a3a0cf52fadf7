package model

import "time"

// Customer is the canonical record built from the customer change stream.
// ID is the external identifier orders reference via CustomerID.
type Customer struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// Order is the canonical record built from the order change stream.
// TotalAmount is derived from line items whenever any are known for the
// order; an explicitly supplied total only survives until then.
type Order struct {
	ID          string    `json:"id"`
	CustomerID  string    `json:"customerId,omitempty"`
	TotalAmount float64   `json:"totalAmount"`
	CreatedAt   time.Time `json:"createdAt"`
}

// LineItem is the canonical record built from the line-item change stream.
// ID is unique only within the order identified by OrderID.
type LineItem struct {
	ID          string  `json:"id"`
	OrderID     string  `json:"orderId"`
	ProductName string  `json:"productName,omitempty"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
}

// OrderView is the enriched read projection for the recent-orders query.
type OrderView struct {
	OrderID      string    `json:"orderId"`
	CustomerName string    `json:"customerName"`
	TotalAmount  float64   `json:"totalAmount"`
	CreatedAt    time.Time `json:"createdAt"`
}

// LoyaltyView is one row of the loyalty ranking, derived at read time.
type LoyaltyView struct {
	CustomerID    string  `json:"customerId"`
	CustomerName  string  `json:"customerName"`
	TotalSpend    float64 `json:"totalSpend"`
	LoyaltyPoints int64   `json:"loyaltyPoints"`
}

// LineItemView is a picking-list entry inside a WarehouseView.
type LineItemView struct {
	ProductName string `json:"productName"`
	Quantity    int    `json:"quantity"`
}

// WarehouseView is an order with its full picking list. TotalItems is the
// sum of item quantities.
type WarehouseView struct {
	OrderID      string         `json:"orderId"`
	CustomerName string         `json:"customerName"`
	CreatedAt    time.Time      `json:"createdAt"`
	Items        []LineItemView `json:"items"`
	TotalItems   int            `json:"totalItems"`
}

// Diagnostics reports store contents for troubleshooting stream skew.
// MissingCustomerIDs lists customer ids referenced by orders but never
// observed on the customer stream.
type Diagnostics struct {
	CustomerCount      int      `json:"customerCount"`
	OrderCount         int      `json:"orderCount"`
	CustomerIDs        []string `json:"customerIds"`
	OrderCustomerIDs   []string `json:"orderCustomerIds"`
	MissingCustomerIDs []string `json:"missingCustomerIds"`
}
