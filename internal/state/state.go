// Package state owns the three materialized collections (customers, orders,
// line items by order) behind a single store-wide mutex. Every mutation and
// every read runs inside that one critical section, so no caller ever
// observes a half-applied update across collections.
package state

import (
	"math"
	"sort"
	"sync"
	"time"

	"gdash/internal/model"
)

// UnknownCustomer is the sentinel rendered when an order references a
// customer id never seen on the customer stream.
const UnknownCustomer = "Unknown"

// UnknownProduct is the sentinel rendered for line items with no product name.
const UnknownProduct = "Unknown Product"

// Now supplies the timestamp substituted for orders with a zero CreatedAt at
// view time. Split for testability.
var Now = func() time.Time { return time.Now().UTC() }

// Store is the only shared mutable resource in the system. Records with an
// empty id are rejected at the upsert boundary; nothing is ever deleted.
type Store struct {
	mu           sync.Mutex
	customers    map[string]model.Customer
	orders       map[string]model.Order
	itemsByOrder map[string][]model.LineItem
}

func NewStore() *Store {
	return &Store{
		customers:    make(map[string]model.Customer),
		orders:       make(map[string]model.Order),
		itemsByOrder: make(map[string][]model.LineItem),
	}
}

// UpsertCustomer replaces the customer record by id. Returns false when the
// record has no id and was skipped.
func (s *Store) UpsertCustomer(c model.Customer) bool {
	if c.ID == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.customers[c.ID] = c
	return true
}

// UpsertOrder replaces the order record by id, then recomputes its total
// from any line items already stored under that id. An order arriving after
// its line items must not keep a stale or zero total.
func (s *Store) UpsertOrder(o model.Order) bool {
	if o.ID == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if items := s.itemsByOrder[o.ID]; len(items) > 0 {
		o.TotalAmount = totalOf(items)
	}
	s.orders[o.ID] = o
	return true
}

// UpsertLineItem removes any existing entry with the same line-item id from
// the order's list, appends the new entry, and recomputes the owning order's
// total if that order is already known.
func (s *Store) UpsertLineItem(li model.LineItem) bool {
	if li.ID == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	items := s.itemsByOrder[li.OrderID]
	kept := items[:0]
	for _, existing := range items {
		if existing.ID != li.ID {
			kept = append(kept, existing)
		}
	}
	kept = append(kept, li)
	s.itemsByOrder[li.OrderID] = kept

	if o, ok := s.orders[li.OrderID]; ok {
		o.TotalAmount = totalOf(kept)
		s.orders[li.OrderID] = o
	}
	return true
}

// totalOf is the order-total aggregate: sum of unitPrice*quantity over the
// current line items. Recomputed from scratch on every contributing change.
func totalOf(items []model.LineItem) float64 {
	var total float64
	for _, li := range items {
		total += li.UnitPrice * float64(li.Quantity)
	}
	return total
}

// RecentOrders returns up to limit orders sorted by CreatedAt descending,
// each joined to its customer's display name. Orders with no timestamp sort
// oldest; their view timestamp is filled with the current time.
func (s *Store) RecentOrders(limit int) []model.OrderView {
	s.mu.Lock()
	defer s.mu.Unlock()
	views := make([]model.OrderView, 0, len(s.orders))
	for _, o := range s.sortedOrdersLocked(limit) {
		views = append(views, model.OrderView{
			OrderID:      o.ID,
			CustomerName: s.customerNameLocked(o.CustomerID),
			TotalAmount:  o.TotalAmount,
			CreatedAt:    viewTime(o.CreatedAt),
		})
	}
	return views
}

// LoyaltyRanking derives one row per customer with at least one order,
// sorted by loyalty points descending. Spend and points are never persisted,
// always recomputed from the full order set.
func (s *Store) LoyaltyRanking() []model.LoyaltyView {
	s.mu.Lock()
	defer s.mu.Unlock()
	spend := make(map[string]float64)
	for _, o := range s.orders {
		if o.CustomerID == "" {
			continue
		}
		spend[o.CustomerID] += o.TotalAmount
	}
	views := make([]model.LoyaltyView, 0, len(spend))
	for id, total := range spend {
		views = append(views, model.LoyaltyView{
			CustomerID:    id,
			CustomerName:  s.customerNameLocked(id),
			TotalSpend:    total,
			LoyaltyPoints: int64(math.Round(total * 100)),
		})
	}
	sort.Slice(views, func(i, j int) bool {
		return views[i].LoyaltyPoints > views[j].LoyaltyPoints
	})
	return views
}

// WarehouseOrders returns up to limit orders in recent-first order, each
// with its full picking list. Line items are copied out, so the returned
// views never alias store internals.
func (s *Store) WarehouseOrders(limit int) []model.WarehouseView {
	s.mu.Lock()
	defer s.mu.Unlock()
	views := make([]model.WarehouseView, 0, len(s.orders))
	for _, o := range s.sortedOrdersLocked(limit) {
		items := s.itemsByOrder[o.ID]
		itemViews := make([]model.LineItemView, 0, len(items))
		totalItems := 0
		for _, li := range items {
			name := li.ProductName
			if name == "" {
				name = UnknownProduct
			}
			itemViews = append(itemViews, model.LineItemView{ProductName: name, Quantity: li.Quantity})
			totalItems += li.Quantity
		}
		views = append(views, model.WarehouseView{
			OrderID:      o.ID,
			CustomerName: s.customerNameLocked(o.CustomerID),
			CreatedAt:    viewTime(o.CreatedAt),
			Items:        itemViews,
			TotalItems:   totalItems,
		})
	}
	return views
}

// Counts returns the customer and order record counts, for gauges.
func (s *Store) Counts() (customers, orders int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.customers), len(s.orders)
}

// Diagnostics reports counts and id sets, plus the customer ids referenced
// by orders but never observed as customer records.
func (s *Store) Diagnostics() model.Diagnostics {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := model.Diagnostics{
		CustomerCount:      len(s.customers),
		OrderCount:         len(s.orders),
		CustomerIDs:        make([]string, 0, len(s.customers)),
		OrderCustomerIDs:   []string{},
		MissingCustomerIDs: []string{},
	}
	for id := range s.customers {
		d.CustomerIDs = append(d.CustomerIDs, id)
	}
	seen := make(map[string]bool)
	for _, o := range s.orders {
		if o.CustomerID == "" || seen[o.CustomerID] {
			continue
		}
		seen[o.CustomerID] = true
		d.OrderCustomerIDs = append(d.OrderCustomerIDs, o.CustomerID)
		if _, ok := s.customers[o.CustomerID]; !ok {
			d.MissingCustomerIDs = append(d.MissingCustomerIDs, o.CustomerID)
		}
	}
	sort.Strings(d.CustomerIDs)
	sort.Strings(d.OrderCustomerIDs)
	sort.Strings(d.MissingCustomerIDs)
	return d
}

// sortedOrdersLocked copies the order set, sorts recent-first (zero
// CreatedAt sorts oldest, ties broken by id for stable output) and truncates
// to limit. Callers must hold mu.
func (s *Store) sortedOrdersLocked(limit int) []model.Order {
	orders := make([]model.Order, 0, len(s.orders))
	for _, o := range s.orders {
		orders = append(orders, o)
	}
	sort.Slice(orders, func(i, j int) bool {
		if orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].ID < orders[j].ID
		}
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
	if limit >= 0 && len(orders) > limit {
		orders = orders[:limit]
	}
	return orders
}

// customerNameLocked joins an order to its customer's display name, falling
// back to the sentinel for dangling references. Callers must hold mu.
func (s *Store) customerNameLocked(customerID string) string {
	if customerID == "" {
		return UnknownCustomer
	}
	c, ok := s.customers[customerID]
	if !ok {
		return UnknownCustomer
	}
	return c.Name
}

func viewTime(t time.Time) time.Time {
	if t.IsZero() {
		return Now()
	}
	return t
}
