package tool

import (
	"context"

	contractx "github.com/merchantkit/assistant/agent/contract"
	"github.com/merchantkit/assistant/magento"
)

func (c *Catalog) viewProduct(ctx context.Context, args map[string]any) (contractx.ToolResult, error) {
	sku, ok := stringArg(args, "sku")
	if !ok {
		return invalid(ToolViewProduct, "sku")
	}

	product, err := c.client.GetProduct(ctx, sku)
	return finish(ToolViewProduct, product, err)
}

func (c *Catalog) searchProducts(ctx context.Context, args map[string]any) (contractx.ToolResult, error) {
	search := magento.ProductSearch{}
	search.Name, _ = stringArg(args, "name")
	search.SKU, _ = stringArg(args, "sku")
	search.MinPrice, _ = numberArg(args, "min_price")
	search.MaxPrice, _ = numberArg(args, "max_price")
	if pageSize, ok := intArg(args, "page_size"); ok && pageSize > 0 {
		search.PageSize = int(pageSize)
	}

	var fields []string
	if search.MinPrice < 0 {
		fields = append(fields, "min_price")
	}
	if search.MaxPrice < 0 {
		fields = append(fields, "max_price")
	}
	if search.MinPrice > 0 && search.MaxPrice > 0 && search.MinPrice > search.MaxPrice {
		fields = append(fields, "min_price", "max_price")
	}
	if len(fields) > 0 {
		return invalid(ToolSearchProducts, fields...)
	}

	list, err := c.client.SearchProducts(ctx, search)
	return finish(ToolSearchProducts, list, err)
}

func (c *Catalog) createProduct(ctx context.Context, args map[string]any) (contractx.ToolResult, error) {
	var fields []string

	sku, ok := stringArg(args, "sku")
	if !ok {
		fields = append(fields, "sku")
	}
	name, ok := stringArg(args, "name")
	if !ok {
		fields = append(fields, "name")
	}
	price, ok := numberArg(args, "price")
	if !ok || price < 0 {
		fields = append(fields, "price")
	}

	status := int64(1)
	if _, present := args["status"]; present {
		parsed, ok := intArg(args, "status")
		if !ok || (parsed != 1 && parsed != 2) {
			fields = append(fields, "status")
		} else {
			status = parsed
		}
	}

	qty, hasQty := numberArg(args, "qty")
	if hasQty && qty < 0 {
		fields = append(fields, "qty")
	}

	if len(fields) > 0 {
		return invalid(ToolCreateProduct, fields...)
	}

	product := magento.Product{
		SKU:            sku,
		Name:           name,
		Price:          price,
		Status:         int(status),
		TypeID:         "simple",
		AttributeSetID: 4,
	}
	if hasQty {
		product.ExtensionAttributes = &magento.ProductExtension{
			StockItem: &magento.StockItem{Qty: qty, IsInStock: qty > 0},
		}
	}

	created, err := c.client.CreateProduct(ctx, product)
	return finish(ToolCreateProduct, created, err)
}

func (c *Catalog) updateProduct(ctx context.Context, args map[string]any) (contractx.ToolResult, error) {
	sku, ok := stringArg(args, "sku")
	if !ok {
		return invalid(ToolUpdateProduct, "sku")
	}

	var fields []string
	updates := map[string]any{}

	if name, ok := stringArg(args, "name"); ok {
		updates["name"] = name
	}
	if _, present := args["price"]; present {
		price, ok := numberArg(args, "price")
		if !ok || price < 0 {
			fields = append(fields, "price")
		} else {
			updates["price"] = price
		}
	}
	if _, present := args["status"]; present {
		status, ok := intArg(args, "status")
		if !ok || (status != 1 && status != 2) {
			fields = append(fields, "status")
		} else {
			updates["status"] = status
		}
	}

	if len(fields) > 0 {
		return invalid(ToolUpdateProduct, fields...)
	}
	if len(updates) == 0 {
		return contractx.ToolResult{
			Tool:  ToolUpdateProduct,
			Error: "no fields provided to update",
		}, nil
	}

	updated, err := c.client.UpdateProduct(ctx, sku, updates)
	return finish(ToolUpdateProduct, updated, err)
}

func (c *Catalog) deleteProduct(ctx context.Context, args map[string]any) (contractx.ToolResult, error) {
	sku, ok := stringArg(args, "sku")
	if !ok {
		return invalid(ToolDeleteProduct, "sku")
	}

	err := c.client.DeleteProduct(ctx, sku)
	return finish(ToolDeleteProduct, map[string]any{
		"sku":     sku,
		"status":  "deleted",
		"message": "Product with SKU '" + sku + "' deleted successfully.",
	}, err)
}
