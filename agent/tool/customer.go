package tool

import (
	"context"
	"fmt"

	contractx "github.com/merchantkit/assistant/agent/contract"
	"github.com/merchantkit/assistant/magento"
)

func (c *Catalog) getCustomerInfo(ctx context.Context, args map[string]any) (contractx.ToolResult, error) {
	email, ok := stringArg(args, "email")
	if !ok || !validEmail(email) {
		return invalid(ToolGetCustomerInfo, "email")
	}

	customer, err := c.client.FindCustomerByEmail(ctx, email)
	if err != nil {
		return finish(ToolGetCustomerInfo, nil, err)
	}
	if customer == nil {
		return contractx.ToolResult{
			Tool:  ToolGetCustomerInfo,
			Error: fmt.Sprintf("No customer found with email %s", email),
		}, nil
	}
	return contractx.ToolResult{Tool: ToolGetCustomerInfo, Result: customer}, nil
}

func (c *Catalog) createCustomer(ctx context.Context, args map[string]any) (contractx.ToolResult, error) {
	var fields []string

	email, ok := stringArg(args, "email")
	if !ok || !validEmail(email) {
		fields = append(fields, "email")
	}
	firstname, ok := stringArg(args, "firstname")
	if !ok {
		fields = append(fields, "firstname")
	}
	lastname, ok := stringArg(args, "lastname")
	if !ok {
		fields = append(fields, "lastname")
	}
	if len(fields) > 0 {
		return invalid(ToolCreateCustomer, fields...)
	}

	created, err := c.client.CreateCustomer(ctx, magento.Customer{
		Email:     email,
		Firstname: firstname,
		Lastname:  lastname,
	})
	if err != nil {
		return finish(ToolCreateCustomer, nil, err)
	}

	return contractx.ToolResult{
		Tool: ToolCreateCustomer,
		Result: map[string]any{
			"message":     "Customer created successfully",
			"customer_id": created.ID,
			"email":       created.Email,
			"name":        created.Firstname + " " + created.Lastname,
		},
	}, nil
}

func (c *Catalog) deleteCustomer(ctx context.Context, args map[string]any) (contractx.ToolResult, error) {
	customerID, ok := intArg(args, "customer_id")
	if !ok || customerID <= 0 {
		return invalid(ToolDeleteCustomer, "customer_id")
	}

	err := c.client.DeleteCustomer(ctx, customerID)
	return finish(ToolDeleteCustomer, map[string]any{
		"customer_id": customerID,
		"status":      "deleted",
		"message":     fmt.Sprintf("Customer %d deleted successfully.", customerID),
	}, err)
}
