package magento

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(Config{
		BaseURL: srv.URL,
		Token:   "test-token",
	})
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	return client
}

func TestNewClientValidation(t *testing.T) {
	t.Parallel()

	if _, err := NewClient(Config{Token: "t"}); err == nil {
		t.Fatal("expected error for missing base url")
	}
	if _, err := NewClient(Config{BaseURL: "http://magento.local"}); err == nil {
		t.Fatal("expected error for missing token")
	}
	if _, err := NewClient(Config{BaseURL: "http://magento.local/", Token: "t"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSearchCriteriaEncoding(t *testing.T) {
	t.Parallel()

	got := searchCriteria([][3]string{
		{"name", "%mug%", "like"},
		{"price", "10", "gteq"},
	}, 20)

	want := "searchCriteria%5BfilterGroups%5D%5B0%5D%5Bfilters%5D%5B0%5D%5BconditionType%5D=like" +
		"&searchCriteria%5BfilterGroups%5D%5B0%5D%5Bfilters%5D%5B0%5D%5Bfield%5D=name" +
		"&searchCriteria%5BfilterGroups%5D%5B0%5D%5Bfilters%5D%5B0%5D%5Bvalue%5D=%25mug%25" +
		"&searchCriteria%5BfilterGroups%5D%5B1%5D%5Bfilters%5D%5B0%5D%5BconditionType%5D=gteq" +
		"&searchCriteria%5BfilterGroups%5D%5B1%5D%5Bfilters%5D%5B0%5D%5Bfield%5D=price" +
		"&searchCriteria%5BfilterGroups%5D%5B1%5D%5Bfilters%5D%5B0%5D%5Bvalue%5D=10" +
		"&searchCriteria%5BpageSize%5D=20"
	if got != want {
		t.Fatalf("unexpected encoding:\ngot  %s\nwant %s", got, want)
	}
}

func TestBackendErrorEnvelope(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{
			"message": "The product that was requested doesn't exist.",
		})
	})

	_, err := client.GetProduct(context.Background(), "GHOST")
	var backendErr *Error
	if !errors.As(err, &backendErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if backendErr.StatusCode != http.StatusNotFound {
		t.Fatalf("unexpected status %d", backendErr.StatusCode)
	}
	if backendErr.Message != "The product that was requested doesn't exist." {
		t.Fatalf("message must be verbatim, got %q", backendErr.Message)
	}
}

func TestSearchProductsBuildsFilters(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if got := q.Get("searchCriteria[filterGroups][0][filters][0][field]"); got != "name" {
			t.Errorf("unexpected first field %q", got)
		}
		if got := q.Get("searchCriteria[filterGroups][0][filters][0][value]"); got != "%mug%" {
			t.Errorf("unexpected name value %q", got)
		}
		if got := q.Get("searchCriteria[filterGroups][1][filters][0][conditionType]"); got != "gteq" {
			t.Errorf("unexpected condition %q", got)
		}
		if got := q.Get("searchCriteria[pageSize]"); got != "20" {
			t.Errorf("unexpected page size %q", got)
		}
		json.NewEncoder(w).Encode(ProductList{
			Items:      []Product{{SKU: "MUG-01", Name: "Everyday Mug"}},
			TotalCount: 1,
		})
	})

	list, err := client.SearchProducts(context.Background(), ProductSearch{
		Name:     "mug",
		MinPrice: 10,
	})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if list.TotalCount != 1 || list.Items[0].SKU != "MUG-01" {
		t.Fatalf("unexpected list: %+v", list)
	}
}

func TestCreateOrderForCustomerFlow(t *testing.T) {
	t.Parallel()

	var calls []string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.Path)
		switch {
		case r.URL.Path == "/rest/default/V1/customers/search":
			json.NewEncoder(w).Encode(map[string]any{
				"items": []map[string]any{{"id": 7, "email": "jamie@example.com"}},
			})
		case r.URL.Path == "/rest/default/V1/customers/7/carts":
			json.NewEncoder(w).Encode(123)
		case r.URL.Path == "/rest/default/V1/carts/123/items":
			var payload struct {
				CartItem map[string]any `json:"cartItem"`
			}
			if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
				t.Errorf("decode cart item: %v", err)
			}
			if payload.CartItem["quote_id"] != "123" {
				t.Errorf("cart item missing quote id: %+v", payload.CartItem)
			}
			json.NewEncoder(w).Encode(map[string]any{"item_id": 1})
		case r.URL.Path == "/rest/default/V1/carts/123/shipping-information":
			json.NewEncoder(w).Encode(map[string]any{})
		case r.URL.Path == "/rest/default/V1/carts/123/selected-payment-method":
			json.NewEncoder(w).Encode("checkmo")
		case r.URL.Path == "/rest/default/V1/carts/123/order":
			json.NewEncoder(w).Encode(55)
		default:
			t.Errorf("unexpected call %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	})

	orderID, err := client.CreateOrderForCustomer(
		context.Background(),
		"jamie@example.com", "Jamie", "Rivera",
		[]OrderItem{{SKU: "MUG-01", Qty: 2}},
		"checkmo",
	)
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if orderID != "55" {
		t.Fatalf("unexpected order id %q", orderID)
	}

	want := []string{
		"GET /rest/default/V1/customers/search",
		"POST /rest/default/V1/customers/7/carts",
		"POST /rest/default/V1/carts/123/items",
		"POST /rest/default/V1/carts/123/shipping-information",
		"PUT /rest/default/V1/carts/123/selected-payment-method",
		"PUT /rest/default/V1/carts/123/order",
	}
	if len(calls) != len(want) {
		t.Fatalf("unexpected call sequence: %v", calls)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Fatalf("call %d: got %s, want %s", i, calls[i], want[i])
		}
	}
}

func TestCreateOrderUnknownCustomer(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"items": []any{}})
	})

	_, err := client.CreateOrderForCustomer(
		context.Background(),
		"ghost@example.com", "Ghost", "User",
		[]OrderItem{{SKU: "MUG-01", Qty: 1}},
		"checkmo",
	)
	var backendErr *Error
	if !errors.As(err, &backendErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if backendErr.Message != "No customer found with email ghost@example.com" {
		t.Fatalf("unexpected message %q", backendErr.Message)
	}
}

func TestOrderByIncrementIDNotFound(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(OrderList{})
	})

	order, err := client.OrderByIncrementID(context.Background(), "100000001")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if order != nil {
		t.Fatalf("expected nil for missing order, got %+v", order)
	}
}

func TestLowStockResolvesSKUs(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/rest/default/V1/stockItems/lowStock":
			json.NewEncoder(w).Encode(LowStockPage{
				Items: []LowStockItem{
					{ProductID: 42, Qty: 3, NotifyStockQty: 10},
				},
				TotalCount: 1,
			})
		case "/rest/default/V1/products":
			json.NewEncoder(w).Encode(ProductList{
				Items:      []Product{{ID: 42, SKU: "MUG-01"}},
				TotalCount: 1,
			})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})

	reports, err := client.LowStock(context.Background(), 10, 0, 100)
	if err != nil {
		t.Fatalf("low stock: %v", err)
	}
	if len(reports) != 1 || reports[0].SKU != "MUG-01" || reports[0].Qty != 3 {
		t.Fatalf("unexpected reports: %+v", reports)
	}
}
