package tool

import (
	"context"

	contractx "github.com/merchantkit/assistant/agent/contract"
	"github.com/merchantkit/assistant/magento"
)

func (c *Catalog) createShipment(ctx context.Context, args map[string]any) (contractx.ToolResult, error) {
	var fields []string

	orderID, ok := intArg(args, "order_id")
	if !ok || orderID <= 0 {
		fields = append(fields, "order_id")
	}

	rawItems, ok := listArg(args, "items")
	if !ok {
		fields = append(fields, "items")
	}
	items := make([]magento.ShipmentItem, 0, len(rawItems))
	for _, raw := range rawItems {
		itemID, okID := intArg(raw, "order_item_id")
		qty, okQty := numberArg(raw, "qty")
		if !okID || itemID <= 0 || !okQty || qty <= 0 {
			fields = append(fields, "items")
			break
		}
		items = append(items, magento.ShipmentItem{OrderItemID: itemID, Qty: qty})
	}

	if len(fields) > 0 {
		return invalid(ToolCreateShipment, fields...)
	}

	notify := boolArg(args, "notify", true)
	carrierCode, ok := stringArg(args, "carrier_code")
	if !ok {
		carrierCode = "custom"
	}
	trackNumber, ok := stringArg(args, "track_number")
	if !ok {
		trackNumber = "N/A"
	}
	title, ok := stringArg(args, "title")
	if !ok {
		title = "Standard Shipping"
	}

	shipmentID, err := c.client.CreateShipment(ctx, orderID, items, notify, carrierCode, trackNumber, title)
	if err != nil {
		return finish(ToolCreateShipment, nil, err)
	}
	return contractx.ToolResult{
		Tool: ToolCreateShipment,
		Result: map[string]any{
			"shipment_id":  shipmentID,
			"track_number": trackNumber,
			"message":      "Shipment created successfully.",
		},
	}, nil
}

func (c *Catalog) trackShipment(ctx context.Context, args map[string]any) (contractx.ToolResult, error) {
	var fields []string

	orderID, ok := intArg(args, "order_id")
	if !ok || orderID <= 0 {
		fields = append(fields, "order_id")
	}
	shipmentID, ok := intArg(args, "shipment_id")
	if !ok || shipmentID <= 0 {
		fields = append(fields, "shipment_id")
	}
	trackNumber, ok := stringArg(args, "track_number")
	if !ok {
		fields = append(fields, "track_number")
	}
	title, ok := stringArg(args, "title")
	if !ok {
		fields = append(fields, "title")
	}
	carrierCode, ok := stringArg(args, "carrier_code")
	if !ok {
		fields = append(fields, "carrier_code")
	}
	if len(fields) > 0 {
		return invalid(ToolTrackShipment, fields...)
	}

	result, err := c.client.CreateShipmentTrack(ctx, magento.ShipmentTrack{
		OrderID:     orderID,
		ParentID:    shipmentID,
		TrackNumber: trackNumber,
		Title:       title,
		CarrierCode: carrierCode,
		Qty:         1,
	})
	if err != nil {
		return finish(ToolTrackShipment, nil, err)
	}
	return contractx.ToolResult{
		Tool: ToolTrackShipment,
		Result: map[string]any{
			"status":          "success",
			"message":         "Tracking created successfully.",
			"tracking_result": result,
		},
	}, nil
}
