package tool

import (
	"context"

	contractx "github.com/merchantkit/assistant/agent/contract"
)

func (c *Catalog) updateStockQty(ctx context.Context, args map[string]any) (contractx.ToolResult, error) {
	var fields []string

	sku, ok := stringArg(args, "sku")
	if !ok {
		fields = append(fields, "sku")
	}
	qty, ok := numberArg(args, "qty")
	if !ok || qty < 0 {
		fields = append(fields, "qty")
	}
	if len(fields) > 0 {
		return invalid(ToolUpdateStockQty, fields...)
	}

	inStock := boolArg(args, "is_in_stock", true)

	item, err := c.client.UpdateStockQty(ctx, sku, qty, inStock)
	return finish(ToolUpdateStockQty, item, err)
}

func (c *Catalog) lowStockAlert(ctx context.Context, args map[string]any) (contractx.ToolResult, error) {
	threshold := 10.0
	if _, present := args["threshold"]; present {
		parsed, ok := numberArg(args, "threshold")
		if !ok || parsed < 0 {
			return invalid(ToolLowStockAlert, "threshold")
		}
		threshold = parsed
	}

	scopeID := int64(0)
	if parsed, ok := intArg(args, "scope_id"); ok {
		scopeID = parsed
	}

	reports, err := c.client.LowStock(ctx, threshold, int(scopeID), 100)
	if reports == nil && err == nil {
		return contractx.ToolResult{
			Tool:   ToolLowStockAlert,
			Result: map[string]any{"message": "No products below the threshold.", "items": []any{}},
		}, nil
	}
	return finish(ToolLowStockAlert, reports, err)
}
