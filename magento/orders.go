package magento

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

type OrderItem struct {
	SKU string  `json:"sku"`
	Qty float64 `json:"qty"`
}

type Address struct {
	Region     string   `json:"region"`
	RegionID   int      `json:"region_id"`
	RegionCode string   `json:"region_code"`
	CountryID  string   `json:"country_id"`
	Street     []string `json:"street"`
	Telephone  string   `json:"telephone"`
	Postcode   string   `json:"postcode"`
	City       string   `json:"city"`
	Firstname  string   `json:"firstname"`
	Lastname   string   `json:"lastname"`
	Email      string   `json:"email"`
}

type Order struct {
	EntityID      int64           `json:"entity_id"`
	IncrementID   string          `json:"increment_id"`
	Status        string          `json:"status"`
	State         string          `json:"state"`
	GrandTotal    float64         `json:"grand_total"`
	CreatedAt     string          `json:"created_at"`
	CustomerEmail string          `json:"customer_email"`
	Items         []OrderLineItem `json:"items"`
}

type OrderLineItem struct {
	ItemID int64   `json:"item_id"`
	SKU    string  `json:"sku"`
	Name   string  `json:"name"`
	Qty    float64 `json:"qty_ordered"`
	Price  float64 `json:"price"`
}

type OrderList struct {
	Items      []Order `json:"items"`
	TotalCount int     `json:"total_count"`
}

// CreateOrderForCustomer runs the checkout flow for a registered customer:
// resolve customer, create a quote, add items, set shipping and payment,
// then submit. Returns the order increment id.
func (c *Client) CreateOrderForCustomer(ctx context.Context, email, firstname, lastname string, items []OrderItem, paymentMethod string) (string, error) {
	customer, err := c.FindCustomerByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if customer == nil {
		return "", &Error{
			StatusCode: http.StatusNotFound,
			Message:    fmt.Sprintf("No customer found with email %s", email),
		}
	}

	var cartID json.Number
	if err := c.send(ctx, http.MethodPost,
		fmt.Sprintf("customers/%d/carts", customer.ID), nil, &cartID); err != nil {
		return "", err
	}

	for _, item := range items {
		payload := map[string]any{
			"cartItem": map[string]any{
				"sku":      item.SKU,
				"qty":      item.Qty,
				"quote_id": cartID.String(),
			},
		}
		endpoint := fmt.Sprintf("carts/%s/items", cartID.String())
		if err := c.send(ctx, http.MethodPost, endpoint, payload, nil); err != nil {
			return "", err
		}
	}

	address := Address{
		Region:     "NY",
		RegionID:   43,
		RegionCode: "NY",
		CountryID:  "US",
		Street:     []string{"123 Order St"},
		Telephone:  "1234567890",
		Postcode:   "10001",
		City:       "New York",
		Firstname:  firstname,
		Lastname:   lastname,
		Email:      email,
	}

	shippingPayload := map[string]any{
		"addressInformation": map[string]any{
			"shipping_address":      address,
			"billing_address":       address,
			"shipping_method_code":  "flatrate",
			"shipping_carrier_code": "flatrate",
		},
	}
	if err := c.send(ctx, http.MethodPost,
		fmt.Sprintf("carts/%s/shipping-information", cartID.String()), shippingPayload, nil); err != nil {
		return "", err
	}

	paymentPayload := map[string]any{
		"method": map[string]any{
			"method": paymentMethod,
		},
		"billing_address": address,
		"email":           email,
	}
	if err := c.send(ctx, http.MethodPut,
		fmt.Sprintf("carts/%s/selected-payment-method", cartID.String()), paymentPayload, nil); err != nil {
		return "", err
	}

	var incrementID json.Number
	if err := c.send(ctx, http.MethodPut,
		fmt.Sprintf("carts/%s/order", cartID.String()), nil, &incrementID); err != nil {
		return "", err
	}
	return incrementID.String(), nil
}

// OrderByIncrementID returns nil without error when no order matches.
func (c *Client) OrderByIncrementID(ctx context.Context, incrementID string) (*Order, error) {
	filters := [][3]string{{"increment_id", incrementID, ""}}
	endpoint := "orders?" + searchCriteria(filters, 1)

	var list OrderList
	if err := c.send(ctx, http.MethodGet, endpoint, nil, &list); err != nil {
		return nil, err
	}
	if len(list.Items) == 0 {
		return nil, nil
	}
	return &list.Items[0], nil
}
