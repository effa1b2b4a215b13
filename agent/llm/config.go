package llm

import (
	"fmt"
	"strings"
	"time"

	contractx "github.com/merchantkit/assistant/agent/contract"
	openrouterx "github.com/merchantkit/assistant/pkg/openrouter"
)

// RoleRouter selects the routing model; specialized agents use their
// contract names.
const RoleRouter = "router"

type Config struct {
	BaseURL            string        `envconfig:"BASE_URL" split_words:"true" default:"https://openrouter.ai/api/v1"`
	APIKey             string        `envconfig:"API_KEY" split_words:"true" required:"true"`
	Model              string        `envconfig:"MODEL" split_words:"true" required:"true"`
	MaxCompletionToken int           `envconfig:"MAX_COMPLETION_TOKEN" split_words:"true" default:"2000"`
	Temperature        float32       `envconfig:"TEMPERATURE" split_words:"true" default:"0.5"`
	Timeout            time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"30s"`
	SiteURL            string        `envconfig:"SITE_URL" split_words:"true"`
	SiteName           string        `envconfig:"SITE_NAME" split_words:"true"`

	RouterModel   string `envconfig:"ROUTER_MODEL" split_words:"true"`
	CustomerModel string `envconfig:"CUSTOMER_MODEL" split_words:"true"`
	ProductModel  string `envconfig:"PRODUCT_MODEL" split_words:"true"`
	StockModel    string `envconfig:"STOCK_MODEL" split_words:"true"`
	ShipmentModel string `envconfig:"SHIPMENT_MODEL" split_words:"true"`
	OrderModel    string `envconfig:"ORDER_MODEL" split_words:"true"`

	// Negative means "use the shared Temperature".
	RouterTemperature   float32 `envconfig:"ROUTER_TEMPERATURE" split_words:"true" default:"-1"`
	CustomerTemperature float32 `envconfig:"CUSTOMER_TEMPERATURE" split_words:"true" default:"-1"`
	ProductTemperature  float32 `envconfig:"PRODUCT_TEMPERATURE" split_words:"true" default:"-1"`
	StockTemperature    float32 `envconfig:"STOCK_TEMPERATURE" split_words:"true" default:"-1"`
	ShipmentTemperature float32 `envconfig:"SHIPMENT_TEMPERATURE" split_words:"true" default:"-1"`
	OrderTemperature    float32 `envconfig:"ORDER_TEMPERATURE" split_words:"true" default:"-1"`
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("%w: openrouter api key is required", contractx.ErrValidation)
	}
	if strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("%w: default model is required", contractx.ErrValidation)
	}
	return nil
}

// OpenRouterFor resolves the model and temperature for one agent role,
// falling back to the shared defaults.
func (c Config) OpenRouterFor(role string) openrouterx.Config {
	modelName := strings.TrimSpace(c.Model)
	temp := c.Temperature

	override := func(model string, temperature float32) {
		if v := strings.TrimSpace(model); v != "" {
			modelName = v
		}
		if temperature >= 0 {
			temp = temperature
		}
	}

	switch role {
	case RoleRouter:
		override(c.RouterModel, c.RouterTemperature)
	case contractx.AgentCustomer:
		override(c.CustomerModel, c.CustomerTemperature)
	case contractx.AgentProduct:
		override(c.ProductModel, c.ProductTemperature)
	case contractx.AgentStock:
		override(c.StockModel, c.StockTemperature)
	case contractx.AgentShipment:
		override(c.ShipmentModel, c.ShipmentTemperature)
	case contractx.AgentOrder:
		override(c.OrderModel, c.OrderTemperature)
	}

	maxCompletionToken := c.MaxCompletionToken
	return openrouterx.Config{
		BaseURL:            strings.TrimSpace(c.BaseURL),
		APIKey:             strings.TrimSpace(c.APIKey),
		Model:              modelName,
		MaxCompletionToken: &maxCompletionToken,
		Temperature:        temp,
		Timeout:            c.Timeout,
		SiteURL:            strings.TrimSpace(c.SiteURL),
		SiteName:           strings.TrimSpace(c.SiteName),
	}
}
