package magento

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

type ShipmentItem struct {
	OrderItemID int64   `json:"order_item_id"`
	Qty         float64 `json:"qty"`
}

type ShipmentTrack struct {
	OrderID     int64   `json:"order_id"`
	ParentID    int64   `json:"parent_id"`
	TrackNumber string  `json:"track_number"`
	Title       string  `json:"title"`
	CarrierCode string  `json:"carrier_code"`
	Weight      float64 `json:"weight,omitempty"`
	Qty         float64 `json:"qty,omitempty"`
	Description string  `json:"description,omitempty"`
}

// CreateShipment ships order items and attaches an initial tracking number.
// Returns the new shipment id.
func (c *Client) CreateShipment(ctx context.Context, orderID int64, items []ShipmentItem, notify bool, carrierCode, trackNumber, title string) (string, error) {
	payload := map[string]any{
		"items":         items,
		"notify":        notify,
		"appendComment": true,
		"comment": map[string]any{
			"comment":             "Auto-generated shipment",
			"is_visible_on_front": 0,
		},
		"tracks": []map[string]any{{
			"track_number": trackNumber,
			"title":        title,
			"carrier_code": carrierCode,
		}},
		"packages": []any{},
		"arguments": map[string]any{
			"extension_attributes": map[string]any{
				"source_code": "default",
			},
		},
	}

	var shipmentID json.Number
	endpoint := fmt.Sprintf("order/%d/ship", orderID)
	if err := c.send(ctx, http.MethodPost, endpoint, payload, &shipmentID); err != nil {
		return "", err
	}
	return shipmentID.String(), nil
}

// CreateShipmentTrack adds a tracking record to an existing shipment.
func (c *Client) CreateShipmentTrack(ctx context.Context, track ShipmentTrack) (map[string]any, error) {
	entity := map[string]any{
		"order_id":             track.OrderID,
		"parent_id":            track.ParentID,
		"track_number":         track.TrackNumber,
		"title":                track.Title,
		"carrier_code":         track.CarrierCode,
		"weight":               track.Weight,
		"qty":                  track.Qty,
		"description":          track.Description,
		"extension_attributes": map[string]any{},
	}

	var result map[string]any
	if err := c.send(ctx, http.MethodPost, "shipment/track", map[string]any{"entity": entity}, &result); err != nil {
		return nil, err
	}
	return result, nil
}
