package tool

import (
	"context"
	"fmt"

	contractx "github.com/merchantkit/assistant/agent/contract"
	"github.com/merchantkit/assistant/magento"
)

var paymentMethods = map[string]bool{
	"checkmo":        true,
	"banktransfer":   true,
	"cashondelivery": true,
}

func (c *Catalog) createOrder(ctx context.Context, args map[string]any) (contractx.ToolResult, error) {
	var fields []string

	email, ok := stringArg(args, "customer_email")
	if !ok || !validEmail(email) {
		fields = append(fields, "customer_email")
	}
	firstname, ok := stringArg(args, "firstname")
	if !ok {
		fields = append(fields, "firstname")
	}
	lastname, ok := stringArg(args, "lastname")
	if !ok {
		fields = append(fields, "lastname")
	}

	rawItems, ok := listArg(args, "items")
	if !ok {
		fields = append(fields, "items")
	}
	items := make([]magento.OrderItem, 0, len(rawItems))
	for _, raw := range rawItems {
		sku, okSKU := stringArg(raw, "sku")
		qty, okQty := numberArg(raw, "qty")
		if !okSKU || !okQty || qty <= 0 {
			fields = append(fields, "items")
			break
		}
		items = append(items, magento.OrderItem{SKU: sku, Qty: qty})
	}

	paymentMethod := "checkmo"
	if _, present := args["payment_method"]; present {
		parsed, ok := stringArg(args, "payment_method")
		if !ok || !paymentMethods[parsed] {
			fields = append(fields, "payment_method")
		} else {
			paymentMethod = parsed
		}
	}

	if len(fields) > 0 {
		return invalid(ToolCreateOrder, fields...)
	}

	incrementID, err := c.client.CreateOrderForCustomer(ctx, email, firstname, lastname, items, paymentMethod)
	if err != nil {
		return finish(ToolCreateOrder, nil, err)
	}
	return contractx.ToolResult{
		Tool: ToolCreateOrder,
		Result: map[string]any{
			"order_increment_id": incrementID,
			"message":            "Order placed successfully.",
		},
	}, nil
}

func (c *Catalog) viewOrder(ctx context.Context, args map[string]any) (contractx.ToolResult, error) {
	incrementID, ok := stringArg(args, "increment_id")
	if !ok {
		return invalid(ToolViewOrder, "increment_id")
	}

	order, err := c.client.OrderByIncrementID(ctx, incrementID)
	if err != nil {
		return finish(ToolViewOrder, nil, err)
	}
	if order == nil {
		return contractx.ToolResult{
			Tool:  ToolViewOrder,
			Error: fmt.Sprintf("No order found with increment id %s", incrementID),
		}, nil
	}
	return contractx.ToolResult{Tool: ToolViewOrder, Result: order}, nil
}
