package magento

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

type StockItem struct {
	ItemID    int64   `json:"item_id"`
	Qty       float64 `json:"qty"`
	IsInStock bool    `json:"is_in_stock"`
}

type ProductExtension struct {
	StockItem *StockItem `json:"stock_item,omitempty"`
}

type Product struct {
	ID                  int64             `json:"id,omitempty"`
	SKU                 string            `json:"sku"`
	Name                string            `json:"name,omitempty"`
	Price               float64           `json:"price,omitempty"`
	Status              int               `json:"status,omitempty"`
	TypeID              string            `json:"type_id,omitempty"`
	AttributeSetID      int               `json:"attribute_set_id,omitempty"`
	Weight              float64           `json:"weight,omitempty"`
	ExtensionAttributes *ProductExtension `json:"extension_attributes,omitempty"`
}

type ProductList struct {
	Items      []Product `json:"items"`
	TotalCount int       `json:"total_count"`
}

// ProductSearch narrows a catalog query. Zero-valued fields are skipped.
type ProductSearch struct {
	Name     string
	SKU      string
	MinPrice float64
	MaxPrice float64
	PageSize int
}

func (c *Client) GetProduct(ctx context.Context, sku string) (*Product, error) {
	var product Product
	if err := c.send(ctx, http.MethodGet, "products/"+url.PathEscape(sku), nil, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

func (c *Client) SearchProducts(ctx context.Context, search ProductSearch) (*ProductList, error) {
	var filters [][3]string
	if search.Name != "" {
		filters = append(filters, [3]string{"name", "%" + search.Name + "%", "like"})
	}
	if search.SKU != "" {
		filters = append(filters, [3]string{"sku", "%" + search.SKU + "%", "like"})
	}
	if search.MinPrice > 0 {
		filters = append(filters, [3]string{"price", formatFloat(search.MinPrice), "gteq"})
	}
	if search.MaxPrice > 0 {
		filters = append(filters, [3]string{"price", formatFloat(search.MaxPrice), "lteq"})
	}

	pageSize := search.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	var list ProductList
	endpoint := "products?" + searchCriteria(filters, pageSize)
	if err := c.send(ctx, http.MethodGet, endpoint, nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

func (c *Client) CreateProduct(ctx context.Context, product Product) (*Product, error) {
	payload := map[string]any{"product": product}

	var created Product
	if err := c.send(ctx, http.MethodPost, "products", payload, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateProduct sends a partial product body; Magento merges it into the
// existing record keyed by SKU.
func (c *Client) UpdateProduct(ctx context.Context, sku string, fields map[string]any) (*Product, error) {
	body := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		body[k] = v
	}
	body["sku"] = sku
	payload := map[string]any{"product": body}

	var updated Product
	if err := c.send(ctx, http.MethodPut, "products/"+url.PathEscape(sku), payload, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (c *Client) DeleteProduct(ctx context.Context, sku string) error {
	return c.send(ctx, http.MethodDelete, "products/"+url.PathEscape(sku), nil, nil)
}

// UpdateStockQty fetches the product's stock item id first; the stock
// update endpoint requires it.
func (c *Client) UpdateStockQty(ctx context.Context, sku string, qty float64, inStock bool) (*StockItem, error) {
	product, err := c.GetProduct(ctx, sku)
	if err != nil {
		return nil, err
	}
	if product.ExtensionAttributes == nil || product.ExtensionAttributes.StockItem == nil {
		return nil, fmt.Errorf("product %s has no stock item", sku)
	}
	itemID := product.ExtensionAttributes.StockItem.ItemID

	payload := map[string]any{
		"stockItem": map[string]any{
			"qty":         qty,
			"is_in_stock": inStock,
		},
	}
	endpoint := fmt.Sprintf("products/%s/stockItems/%d", url.PathEscape(sku), itemID)
	if err := c.send(ctx, http.MethodPut, endpoint, payload, nil); err != nil {
		return nil, err
	}

	return &StockItem{ItemID: itemID, Qty: qty, IsInStock: inStock}, nil
}

type LowStockItem struct {
	ProductID      int64   `json:"product_id"`
	Qty            float64 `json:"qty"`
	NotifyStockQty float64 `json:"notify_stock_qty"`
}

type LowStockPage struct {
	Items      []LowStockItem `json:"items"`
	TotalCount int            `json:"total_count"`
}

// LowStock pages through the lowStock report and resolves product ids to
// SKUs in one follow-up search.
func (c *Client) LowStock(ctx context.Context, threshold float64, scopeID, pageSize int) ([]LowStockReport, error) {
	if pageSize <= 0 {
		pageSize = 100
	}

	var all []LowStockItem
	for page := 1; ; page++ {
		endpoint := fmt.Sprintf("stockItems/lowStock?qty=%s&scopeId=%d&pageSize=%d&currentPage=%d",
			formatFloat(threshold), scopeID, pageSize, page)

		var result LowStockPage
		if err := c.send(ctx, http.MethodGet, endpoint, nil, &result); err != nil {
			return nil, err
		}
		all = append(all, result.Items...)
		if len(all) >= result.TotalCount || len(result.Items) == 0 {
			break
		}
	}
	if len(all) == 0 {
		return nil, nil
	}

	skuByID, err := c.productSKUsByID(ctx, all)
	if err != nil {
		return nil, err
	}

	reports := make([]LowStockReport, 0, len(all))
	for _, item := range all {
		sku, ok := skuByID[item.ProductID]
		if !ok {
			continue
		}
		reports = append(reports, LowStockReport{
			SKU:            sku,
			Qty:            item.Qty,
			NotifyStockQty: item.NotifyStockQty,
		})
	}
	return reports, nil
}

type LowStockReport struct {
	SKU            string  `json:"sku"`
	Qty            float64 `json:"qty"`
	NotifyStockQty float64 `json:"notify_stock_qty"`
}

func (c *Client) productSKUsByID(ctx context.Context, items []LowStockItem) (map[int64]string, error) {
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, strconv.FormatInt(item.ProductID, 10))
	}

	filters := [][3]string{{"entity_id", strings.Join(ids, ","), "in"}}
	endpoint := "products?" + searchCriteria(filters, len(ids))

	var list ProductList
	if err := c.send(ctx, http.MethodGet, endpoint, nil, &list); err != nil {
		return nil, err
	}

	skuByID := make(map[int64]string, len(list.Items))
	for _, p := range list.Items {
		skuByID[p.ID] = p.SKU
	}
	return skuByID, nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
