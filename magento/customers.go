package magento

import (
	"context"
	"fmt"
	"net/http"
)

type Customer struct {
	ID        int64  `json:"id,omitempty"`
	Email     string `json:"email"`
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
	WebsiteID int    `json:"website_id,omitempty"`
	StoreID   int    `json:"store_id,omitempty"`
	GroupID   int    `json:"group_id,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

type CustomerList struct {
	Items      []Customer `json:"items"`
	TotalCount int        `json:"total_count"`
}

// FindCustomerByEmail returns nil without error when no customer matches.
func (c *Client) FindCustomerByEmail(ctx context.Context, email string) (*Customer, error) {
	filters := [][3]string{{"email", email, ""}}
	endpoint := "customers/search?" + searchCriteria(filters, 1)

	var list CustomerList
	if err := c.send(ctx, http.MethodGet, endpoint, nil, &list); err != nil {
		return nil, err
	}
	if len(list.Items) == 0 {
		return nil, nil
	}
	return &list.Items[0], nil
}

func (c *Client) CreateCustomer(ctx context.Context, customer Customer) (*Customer, error) {
	payload := map[string]any{"customer": customer}

	var created Customer
	if err := c.send(ctx, http.MethodPost, "customers", payload, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) DeleteCustomer(ctx context.Context, customerID int64) error {
	endpoint := fmt.Sprintf("customers/%d", customerID)

	var deleted bool
	return c.send(ctx, http.MethodDelete, endpoint, nil, &deleted)
}
