package state

import (
	"math"
	"testing"
	"time"

	"gdash/internal/model"
)

func tm(sec int64) time.Time { return time.Unix(sec, 0).UTC() }

func TestUpsertOrder_NoLineItemsKeepsSuppliedTotal(t *testing.T) {
	s := NewStore()
	if !s.UpsertOrder(model.Order{ID: "100", CustomerID: "42", CreatedAt: tm(1)}) {
		t.Fatalf("upsert should apply")
	}
	views := s.RecentOrders(10)
	if len(views) != 1 {
		t.Fatalf("want 1 order, got %d", len(views))
	}
	if views[0].TotalAmount != 0.0 {
		t.Fatalf("total without line items should be 0.0, got %v", views[0].TotalAmount)
	}
}

func TestUpsert_RejectsEmptyID(t *testing.T) {
	s := NewStore()
	if s.UpsertCustomer(model.Customer{Name: "No ID"}) {
		t.Fatalf("customer without id should be rejected")
	}
	if s.UpsertOrder(model.Order{CustomerID: "42"}) {
		t.Fatalf("order without id should be rejected")
	}
	if s.UpsertLineItem(model.LineItem{OrderID: "100"}) {
		t.Fatalf("line item without id should be rejected")
	}
	if c, o := s.Counts(); c != 0 || o != 0 {
		t.Fatalf("store should stay empty, got customers=%d orders=%d", c, o)
	}
}

func TestUpsert_IdempotentAndLastWriteWins(t *testing.T) {
	s := NewStore()
	c := model.Customer{ID: "42", Name: "Ana Lee"}
	s.UpsertCustomer(c)
	s.UpsertCustomer(c)
	if got, _ := s.Counts(); got != 1 {
		t.Fatalf("repeated upsert must not duplicate, got %d customers", got)
	}

	s.UpsertCustomer(model.Customer{ID: "42", Name: "Ana Novak", Email: "ana@example.com"})
	s.UpsertOrder(model.Order{ID: "100", CustomerID: "42", CreatedAt: tm(1)})
	views := s.RecentOrders(1)
	if views[0].CustomerName != "Ana Novak" {
		t.Fatalf("later write should win, got name %q", views[0].CustomerName)
	}
}

func TestTotal_OrderIndependentAcrossArrivalPermutations(t *testing.T) {
	li1 := model.LineItem{ID: "1", OrderID: "100", ProductName: "SKU1", Quantity: 2, UnitPrice: 9.99}
	li2 := model.LineItem{ID: "2", OrderID: "100", Quantity: 1, UnitPrice: 5}
	order := model.Order{ID: "100", CustomerID: "42", CreatedAt: tm(1)}

	permutations := [][]func(*Store){
		{func(s *Store) { s.UpsertOrder(order) }, func(s *Store) { s.UpsertLineItem(li1) }, func(s *Store) { s.UpsertLineItem(li2) }},
		{func(s *Store) { s.UpsertLineItem(li1) }, func(s *Store) { s.UpsertOrder(order) }, func(s *Store) { s.UpsertLineItem(li2) }},
		{func(s *Store) { s.UpsertLineItem(li1) }, func(s *Store) { s.UpsertLineItem(li2) }, func(s *Store) { s.UpsertOrder(order) }},
		{func(s *Store) { s.UpsertLineItem(li2) }, func(s *Store) { s.UpsertLineItem(li1) }, func(s *Store) { s.UpsertOrder(order) }},
		{func(s *Store) { s.UpsertLineItem(li2) }, func(s *Store) { s.UpsertOrder(order) }, func(s *Store) { s.UpsertLineItem(li1) }},
		{func(s *Store) { s.UpsertOrder(order) }, func(s *Store) { s.UpsertLineItem(li2) }, func(s *Store) { s.UpsertLineItem(li1) }},
	}

	for i, steps := range permutations {
		s := NewStore()
		for _, step := range steps {
			step(s)
		}
		views := s.RecentOrders(1)
		if len(views) != 1 {
			t.Fatalf("permutation %d: want 1 order", i)
		}
		if math.Abs(views[0].TotalAmount-24.98) > 1e-9 {
			t.Fatalf("permutation %d: total=%v want 24.98", i, views[0].TotalAmount)
		}
	}
}

func TestUpsertLineItem_DedupByID(t *testing.T) {
	s := NewStore()
	s.UpsertOrder(model.Order{ID: "100", CreatedAt: tm(1)})
	s.UpsertLineItem(model.LineItem{ID: "1", OrderID: "100", Quantity: 2, UnitPrice: 9.99})
	s.UpsertLineItem(model.LineItem{ID: "1", OrderID: "100", Quantity: 2, UnitPrice: 4.00})

	wh := s.WarehouseOrders(1)
	if len(wh) != 1 || len(wh[0].Items) != 1 {
		t.Fatalf("want exactly 1 line item after re-upsert, got %+v", wh)
	}
	views := s.RecentOrders(1)
	if views[0].TotalAmount != 8.00 {
		t.Fatalf("total should reflect latest price: got %v want 8.00", views[0].TotalAmount)
	}
}

func TestRecentOrders_DanglingCustomerRendersUnknown(t *testing.T) {
	s := NewStore()
	s.UpsertOrder(model.Order{ID: "100", CustomerID: "99", CreatedAt: tm(1)})
	views := s.RecentOrders(1)
	if views[0].CustomerName != UnknownCustomer {
		t.Fatalf("dangling customer should render %q, got %q", UnknownCustomer, views[0].CustomerName)
	}

	s.UpsertOrder(model.Order{ID: "101", CreatedAt: tm(2)})
	views = s.RecentOrders(1)
	if views[0].CustomerName != UnknownCustomer {
		t.Fatalf("missing customer id should render %q, got %q", UnknownCustomer, views[0].CustomerName)
	}
}

func TestRecentOrders_SortAndLimit(t *testing.T) {
	s := NewStore()
	s.UpsertOrder(model.Order{ID: "1", CreatedAt: tm(100)})
	s.UpsertOrder(model.Order{ID: "2", CreatedAt: tm(300)})
	s.UpsertOrder(model.Order{ID: "3", CreatedAt: tm(200)})
	s.UpsertOrder(model.Order{ID: "4"}) // no timestamp sorts oldest

	views := s.RecentOrders(10)
	if len(views) != 4 {
		t.Fatalf("want 4 orders, got %d", len(views))
	}
	wantIDs := []string{"2", "3", "1", "4"}
	for i, want := range wantIDs {
		if views[i].OrderID != want {
			t.Fatalf("position %d: got %s want %s", i, views[i].OrderID, want)
		}
	}
	for i := 1; i < len(views)-1; i++ {
		if views[i].CreatedAt.After(views[i-1].CreatedAt) {
			t.Fatalf("createdAt not non-increasing at %d", i)
		}
	}

	views = s.RecentOrders(2)
	if len(views) != 2 || views[0].OrderID != "2" || views[1].OrderID != "3" {
		t.Fatalf("limit 2 should keep the two newest, got %+v", views)
	}
}

func TestRecentOrders_ZeroTimestampRendersNow(t *testing.T) {
	s := NewStore()
	old := Now
	defer func() { Now = old }()
	fixed := tm(777)
	Now = func() time.Time { return fixed }

	s.UpsertOrder(model.Order{ID: "1"})
	views := s.RecentOrders(1)
	if !views[0].CreatedAt.Equal(fixed) {
		t.Fatalf("zero createdAt should render as now: got %v", views[0].CreatedAt)
	}
}

func TestLoyaltyRanking_SpendPointsAndOrder(t *testing.T) {
	s := NewStore()
	s.UpsertCustomer(model.Customer{ID: "42", Name: "Ana Lee"})
	s.UpsertOrder(model.Order{ID: "100", CustomerID: "42", CreatedAt: tm(1)})
	s.UpsertLineItem(model.LineItem{ID: "1", OrderID: "100", Quantity: 2, UnitPrice: 9.99})
	s.UpsertLineItem(model.LineItem{ID: "2", OrderID: "100", Quantity: 1, UnitPrice: 5})

	// A second, bigger spender with no customer record.
	s.UpsertOrder(model.Order{ID: "200", CustomerID: "99", TotalAmount: 100, CreatedAt: tm(2)})

	views := s.LoyaltyRanking()
	if len(views) != 2 {
		t.Fatalf("want 2 rows, got %d", len(views))
	}
	if views[0].CustomerID != "99" || views[0].LoyaltyPoints != 10000 {
		t.Fatalf("biggest spender first: got %+v", views[0])
	}
	if views[0].CustomerName != UnknownCustomer {
		t.Fatalf("unseen customer should rank as %q, got %q", UnknownCustomer, views[0].CustomerName)
	}
	if views[1].CustomerID != "42" || views[1].CustomerName != "Ana Lee" {
		t.Fatalf("unexpected second row: %+v", views[1])
	}
	if math.Abs(views[1].TotalSpend-24.98) > 1e-9 {
		t.Fatalf("spend=%v want 24.98", views[1].TotalSpend)
	}
	if views[1].LoyaltyPoints != 2498 {
		t.Fatalf("points=%d want 2498", views[1].LoyaltyPoints)
	}
}

func TestLoyaltyRanking_SpendSumsAcrossOrders(t *testing.T) {
	s := NewStore()
	s.UpsertOrder(model.Order{ID: "1", CustomerID: "7", TotalAmount: 10.50, CreatedAt: tm(1)})
	s.UpsertOrder(model.Order{ID: "2", CustomerID: "7", TotalAmount: 4.25, CreatedAt: tm(2)})
	views := s.LoyaltyRanking()
	if len(views) != 1 {
		t.Fatalf("want 1 row, got %d", len(views))
	}
	if math.Abs(views[0].TotalSpend-14.75) > 1e-9 || views[0].LoyaltyPoints != 1475 {
		t.Fatalf("unexpected row: %+v", views[0])
	}
}

func TestWarehouseOrders_ItemsAndTotals(t *testing.T) {
	s := NewStore()
	s.UpsertCustomer(model.Customer{ID: "42", Name: "Ana Lee"})
	s.UpsertOrder(model.Order{ID: "100", CustomerID: "42", CreatedAt: tm(1)})
	s.UpsertLineItem(model.LineItem{ID: "1", OrderID: "100", ProductName: "SKU1", Quantity: 2, UnitPrice: 9.99})
	s.UpsertLineItem(model.LineItem{ID: "2", OrderID: "100", Quantity: 3, UnitPrice: 5})

	views := s.WarehouseOrders(10)
	if len(views) != 1 {
		t.Fatalf("want 1 order, got %d", len(views))
	}
	v := views[0]
	if v.CustomerName != "Ana Lee" || v.TotalItems != 5 {
		t.Fatalf("unexpected view: %+v", v)
	}
	if len(v.Items) != 2 {
		t.Fatalf("want 2 items, got %d", len(v.Items))
	}
	if v.Items[0].ProductName != "SKU1" {
		t.Fatalf("unexpected first item: %+v", v.Items[0])
	}
	if v.Items[1].ProductName != UnknownProduct {
		t.Fatalf("missing product name should render %q, got %q", UnknownProduct, v.Items[1].ProductName)
	}
}

func TestWarehouseOrders_ViewsDoNotAliasStore(t *testing.T) {
	s := NewStore()
	s.UpsertOrder(model.Order{ID: "100", CreatedAt: tm(1)})
	s.UpsertLineItem(model.LineItem{ID: "1", OrderID: "100", ProductName: "SKU1", Quantity: 1, UnitPrice: 2})

	before := s.WarehouseOrders(1)
	s.UpsertLineItem(model.LineItem{ID: "1", OrderID: "100", ProductName: "SKU9", Quantity: 7, UnitPrice: 3})

	if before[0].Items[0].ProductName != "SKU1" || before[0].Items[0].Quantity != 1 {
		t.Fatalf("already-returned view mutated: %+v", before[0].Items[0])
	}
}

func TestDiagnostics_MissingCustomerIDs(t *testing.T) {
	s := NewStore()
	s.UpsertCustomer(model.Customer{ID: "42", Name: "Ana Lee"})
	s.UpsertOrder(model.Order{ID: "1", CustomerID: "42", CreatedAt: tm(1)})
	s.UpsertOrder(model.Order{ID: "2", CustomerID: "99", CreatedAt: tm(2)})
	s.UpsertOrder(model.Order{ID: "3", CreatedAt: tm(3)})

	d := s.Diagnostics()
	if d.CustomerCount != 1 || d.OrderCount != 3 {
		t.Fatalf("unexpected counts: %+v", d)
	}
	if len(d.CustomerIDs) != 1 || d.CustomerIDs[0] != "42" {
		t.Fatalf("unexpected customer ids: %v", d.CustomerIDs)
	}
	if len(d.OrderCustomerIDs) != 2 {
		t.Fatalf("unexpected order customer ids: %v", d.OrderCustomerIDs)
	}
	if len(d.MissingCustomerIDs) != 1 || d.MissingCustomerIDs[0] != "99" {
		t.Fatalf("unexpected missing ids: %v", d.MissingCustomerIDs)
	}
}

func TestUpsertOrder_LateOrderPicksUpEarlierItems(t *testing.T) {
	s := NewStore()
	s.UpsertLineItem(model.LineItem{ID: "1", OrderID: "100", Quantity: 2, UnitPrice: 9.99})
	s.UpsertLineItem(model.LineItem{ID: "2", OrderID: "100", Quantity: 1, UnitPrice: 5})

	// Order event carries an explicit total; line items win.
	s.UpsertOrder(model.Order{ID: "100", TotalAmount: 1.23, CreatedAt: tm(1)})
	views := s.RecentOrders(1)
	if math.Abs(views[0].TotalAmount-24.98) > 1e-9 {
		t.Fatalf("total should be recomputed from items: got %v", views[0].TotalAmount)
	}
}
