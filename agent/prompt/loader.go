package prompt

import (
	_ "embed"
	"strings"
)

var (
	//go:embed template/router.txt
	routerRaw string

	//go:embed template/customer.txt
	customerRaw string

	//go:embed template/product.txt
	productRaw string

	//go:embed template/stock.txt
	stockRaw string

	//go:embed template/shipment.txt
	shipmentRaw string

	//go:embed template/order.txt
	orderRaw string
)

// PromptSet holds loaded prompt content.
type PromptSet struct {
	Router   string
	Customer string
	Product  string
	Stock    string
	Shipment string
	Order    string
}

// LoadPromptSet returns a PromptSet with trimmed prompt strings.
// This is safe to call concurrently; the embed is compile-time, and trimming is cheap.
func LoadPromptSet() PromptSet {
	return PromptSet{
		Router:   strings.TrimSpace(routerRaw),
		Customer: strings.TrimSpace(customerRaw),
		Product:  strings.TrimSpace(productRaw),
		Stock:    strings.TrimSpace(stockRaw),
		Shipment: strings.TrimSpace(shipmentRaw),
		Order:    strings.TrimSpace(orderRaw),
	}
}
