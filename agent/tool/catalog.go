package tool

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/cloudwego/eino/schema"

	contractx "github.com/merchantkit/assistant/agent/contract"
	"github.com/merchantkit/assistant/magento"
)

const (
	ToolViewProduct    = "view_product"
	ToolSearchProducts = "search_products"
	ToolCreateProduct  = "create_product"
	ToolUpdateProduct  = "update_product"
	ToolDeleteProduct  = "delete_product"

	ToolUpdateStockQty = "update_stock_qty"
	ToolLowStockAlert  = "low_stock_alert"

	ToolGetCustomerInfo = "get_customer_info"
	ToolCreateCustomer  = "create_customer"
	ToolDeleteCustomer  = "delete_customer"

	ToolCreateOrder = "create_order"
	ToolViewOrder   = "view_order"

	ToolCreateShipment = "create_shipment"
	ToolTrackShipment  = "track_shipment"
)

// Catalog binds tool metadata and execution to one backend client. It is
// the process-wide contractx.ToolExecutor; ownership of individual tools is
// enforced by agent descriptors, not here.
type Catalog struct {
	client *magento.Client
}

var _ contractx.ToolExecutor = (*Catalog)(nil)

func NewCatalog(client *magento.Client) (*Catalog, error) {
	if client == nil {
		return nil, errors.New("magento client is required")
	}
	return &Catalog{client: client}, nil
}

// InfosForAgent returns the tool schemas bound to one agent's model.
// Unknown agent names get no tools.
func (c *Catalog) InfosForAgent(agentName string) []*schema.ToolInfo {
	owned := ToolsForAgent(agentName)
	infos := make([]*schema.ToolInfo, 0, len(owned))
	for _, name := range owned {
		infos = append(infos, toolInfos[name])
	}
	return infos
}

// Execute runs one named tool. Business failures (including backend
// rejections) land in ToolResult.Error so the model can relay them; the
// error return is reserved for invalid arguments and infrastructure
// problems.
func (c *Catalog) Execute(ctx context.Context, tool string, args map[string]any) (contractx.ToolResult, error) {
	switch tool {
	case ToolViewProduct:
		return c.viewProduct(ctx, args)
	case ToolSearchProducts:
		return c.searchProducts(ctx, args)
	case ToolCreateProduct:
		return c.createProduct(ctx, args)
	case ToolUpdateProduct:
		return c.updateProduct(ctx, args)
	case ToolDeleteProduct:
		return c.deleteProduct(ctx, args)
	case ToolUpdateStockQty:
		return c.updateStockQty(ctx, args)
	case ToolLowStockAlert:
		return c.lowStockAlert(ctx, args)
	case ToolGetCustomerInfo:
		return c.getCustomerInfo(ctx, args)
	case ToolCreateCustomer:
		return c.createCustomer(ctx, args)
	case ToolDeleteCustomer:
		return c.deleteCustomer(ctx, args)
	case ToolCreateOrder:
		return c.createOrder(ctx, args)
	case ToolViewOrder:
		return c.viewOrder(ctx, args)
	case ToolCreateShipment:
		return c.createShipment(ctx, args)
	case ToolTrackShipment:
		return c.trackShipment(ctx, args)
	default:
		return contractx.ToolResult{}, fmt.Errorf("unknown tool %q", tool)
	}
}

// ToolsForAgent lists the capability set of one specialized agent.
func ToolsForAgent(agentName string) []string {
	switch agentName {
	case contractx.AgentProduct:
		return []string{ToolViewProduct, ToolSearchProducts, ToolCreateProduct, ToolUpdateProduct, ToolDeleteProduct}
	case contractx.AgentStock:
		return []string{ToolUpdateStockQty, ToolLowStockAlert}
	case contractx.AgentCustomer:
		return []string{ToolGetCustomerInfo, ToolCreateCustomer, ToolDeleteCustomer}
	case contractx.AgentOrder:
		return []string{ToolCreateOrder, ToolViewOrder}
	case contractx.AgentShipment:
		return []string{ToolCreateShipment, ToolTrackShipment}
	default:
		return nil
	}
}

// Known reports whether name is a catalog tool.
func Known(name string) bool {
	_, ok := toolInfos[name]
	return ok
}

// ApprovalDescription renders a human-readable summary of a pending
// sensitive call for approval UIs.
func ApprovalDescription(tool string, args map[string]any) string {
	if len(args) == 0 {
		return fmt.Sprintf("Tool %s requires approval before execution.", tool)
	}

	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, args[k]))
	}
	return fmt.Sprintf("Tool %s requires approval before execution (%s).", tool, strings.Join(parts, ", "))
}

var toolInfos = map[string]*schema.ToolInfo{
	ToolViewProduct: {
		Name: ToolViewProduct,
		Desc: "Fetch one product by SKU, including price, status, and stock.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"sku": {Type: schema.String, Desc: "Product SKU", Required: true},
		}),
	},
	ToolSearchProducts: {
		Name: ToolSearchProducts,
		Desc: "Search the catalog by name, SKU fragment, or price range.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"name":      {Type: schema.String, Desc: "Partial product name"},
			"sku":       {Type: schema.String, Desc: "Partial SKU"},
			"min_price": {Type: schema.Number, Desc: "Minimum price"},
			"max_price": {Type: schema.Number, Desc: "Maximum price"},
			"page_size": {Type: schema.Integer, Desc: "Maximum results, default 20"},
		}),
	},
	ToolCreateProduct: {
		Name: ToolCreateProduct,
		Desc: "Create a new simple product in the catalog.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"sku":    {Type: schema.String, Desc: "Unique SKU", Required: true},
			"name":   {Type: schema.String, Desc: "Product name", Required: true},
			"price":  {Type: schema.Number, Desc: "Price, must be >= 0", Required: true},
			"status": {Type: schema.Integer, Desc: "1 enabled, 2 disabled (default 1)"},
			"qty":    {Type: schema.Number, Desc: "Initial stock quantity"},
		}),
	},
	ToolUpdateProduct: {
		Name: ToolUpdateProduct,
		Desc: "Update fields of an existing product by SKU.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"sku":    {Type: schema.String, Desc: "Product SKU", Required: true},
			"name":   {Type: schema.String, Desc: "New product name"},
			"price":  {Type: schema.Number, Desc: "New price, must be >= 0"},
			"status": {Type: schema.Integer, Desc: "1 enabled, 2 disabled"},
		}),
	},
	ToolDeleteProduct: {
		Name: ToolDeleteProduct,
		Desc: "Delete a product by SKU. Irreversible.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"sku": {Type: schema.String, Desc: "Product SKU", Required: true},
		}),
	},
	ToolUpdateStockQty: {
		Name: ToolUpdateStockQty,
		Desc: "Set stock quantity and availability flag for a SKU.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"sku":         {Type: schema.String, Desc: "Product SKU", Required: true},
			"qty":         {Type: schema.Number, Desc: "New quantity, must be >= 0", Required: true},
			"is_in_stock": {Type: schema.Boolean, Desc: "Availability flag (default true)"},
		}),
	},
	ToolLowStockAlert: {
		Name: ToolLowStockAlert,
		Desc: "List products whose stock is below a threshold.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"threshold": {Type: schema.Number, Desc: "Stock threshold (default 10)"},
			"scope_id":  {Type: schema.Integer, Desc: "Website scope id (default 0)"},
		}),
	},
	ToolGetCustomerInfo: {
		Name: ToolGetCustomerInfo,
		Desc: "Look up a customer account by email address.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"email": {Type: schema.String, Desc: "Customer email", Required: true},
		}),
	},
	ToolCreateCustomer: {
		Name: ToolCreateCustomer,
		Desc: "Register a new customer account.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"email":     {Type: schema.String, Desc: "Unique customer email", Required: true},
			"firstname": {Type: schema.String, Desc: "First name", Required: true},
			"lastname":  {Type: schema.String, Desc: "Last name", Required: true},
		}),
	},
	ToolDeleteCustomer: {
		Name: ToolDeleteCustomer,
		Desc: "Delete a customer account by id. Irreversible.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"customer_id": {Type: schema.Integer, Desc: "Customer id", Required: true},
		}),
	},
	ToolCreateOrder: {
		Name: ToolCreateOrder,
		Desc: "Place an order for a registered customer.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"customer_email": {Type: schema.String, Desc: "Customer email", Required: true},
			"firstname":      {Type: schema.String, Desc: "Customer first name", Required: true},
			"lastname":       {Type: schema.String, Desc: "Customer last name", Required: true},
			"items": {
				Type:     schema.Array,
				Desc:     "Items to order",
				Required: true,
				ElemInfo: &schema.ParameterInfo{
					Type: schema.Object,
					SubParams: map[string]*schema.ParameterInfo{
						"sku": {Type: schema.String, Desc: "Product SKU", Required: true},
						"qty": {Type: schema.Number, Desc: "Quantity, must be > 0", Required: true},
					},
				},
			},
			"payment_method": {Type: schema.String, Desc: "checkmo, banktransfer, or cashondelivery (default checkmo)"},
		}),
	},
	ToolViewOrder: {
		Name: ToolViewOrder,
		Desc: "Look up an order by its increment id.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"increment_id": {Type: schema.String, Desc: "Order increment id", Required: true},
		}),
	},
	ToolCreateShipment: {
		Name: ToolCreateShipment,
		Desc: "Ship items of an order and attach an initial tracking number.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"order_id": {Type: schema.Integer, Desc: "Order entity id", Required: true},
			"items": {
				Type:     schema.Array,
				Desc:     "Order items to ship",
				Required: true,
				ElemInfo: &schema.ParameterInfo{
					Type: schema.Object,
					SubParams: map[string]*schema.ParameterInfo{
						"order_item_id": {Type: schema.Integer, Desc: "Order line item id", Required: true},
						"qty":           {Type: schema.Number, Desc: "Quantity to ship, must be > 0", Required: true},
					},
				},
			},
			"notify":       {Type: schema.Boolean, Desc: "Email the customer (default true)"},
			"carrier_code": {Type: schema.String, Desc: "Carrier code (default custom)"},
			"track_number": {Type: schema.String, Desc: "Tracking number"},
			"title":        {Type: schema.String, Desc: "Carrier title (default Standard Shipping)"},
		}),
	},
	ToolTrackShipment: {
		Name: ToolTrackShipment,
		Desc: "Attach a tracking record to an existing shipment.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"order_id":     {Type: schema.Integer, Desc: "Order entity id", Required: true},
			"shipment_id":  {Type: schema.Integer, Desc: "Shipment id", Required: true},
			"track_number": {Type: schema.String, Desc: "Tracking number", Required: true},
			"title":        {Type: schema.String, Desc: "Carrier title", Required: true},
			"carrier_code": {Type: schema.String, Desc: "Carrier code", Required: true},
		}),
	},
}
