package hyperliquid

import (
	"context"
	"encoding/json"

	"github.com/sirupsen/logrus"

	"github.com/gregtusar/hypergate/pkg/models"
)

// Info is the unsigned, read-only query client.
type Info struct {
	client *Client
}

func NewInfo(baseURL string, logger *logrus.Logger) *Info {
	return &Info{client: NewClient(baseURL, logger)}
}

func (i *Info) Meta(ctx context.Context) (*models.Meta, error) {
	var meta models.Meta
	if err := i.client.post(ctx, "/info", map[string]any{"type": "meta"}, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (i *Info) UserState(ctx context.Context, address, dex string) (*models.UserState, error) {
	body := map[string]any{"type": "clearinghouseState", "user": address}
	if dex != "" {
		body["dex"] = dex
	}
	var state models.UserState
	if err := i.client.post(ctx, "/info", body, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (i *Info) OpenOrders(ctx context.Context, address, dex string) ([]models.OpenOrder, error) {
	body := map[string]any{"type": "openOrders", "user": address}
	if dex != "" {
		body["dex"] = dex
	}
	var orders []models.OpenOrder
	if err := i.client.post(ctx, "/info", body, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (i *Info) OrderStatus(ctx context.Context, address string, oid int64) (json.RawMessage, error) {
	body := map[string]any{"type": "orderStatus", "user": address, "oid": oid}
	var raw json.RawMessage
	if err := i.client.post(ctx, "/info", body, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func (i *Info) UserFillsByTime(ctx context.Context, address string, startTime int64, endTime *int64, aggregateByTime bool) ([]json.RawMessage, error) {
	body := map[string]any{
		"type":            "userFillsByTime",
		"user":            address,
		"startTime":       startTime,
		"aggregateByTime": aggregateByTime,
	}
	if endTime != nil {
		body["endTime"] = *endTime
	}
	var fills []json.RawMessage
	if err := i.client.post(ctx, "/info", body, &fills); err != nil {
		return nil, err
	}
	return fills, nil
}

func (i *Info) UserFunding(ctx context.Context, address string, startTime int64, endTime *int64) ([]json.RawMessage, error) {
	body := map[string]any{"type": "userFunding", "user": address, "startTime": startTime}
	if endTime != nil {
		body["endTime"] = *endTime
	}
	var entries []json.RawMessage
	if err := i.client.post(ctx, "/info", body, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (i *Info) AllMids(ctx context.Context) (map[string]string, error) {
	var mids map[string]string
	if err := i.client.post(ctx, "/info", map[string]any{"type": "allMids"}, &mids); err != nil {
		return nil, err
	}
	return mids, nil
}

func (i *Info) L2Snapshot(ctx context.Context, coin string) (*models.L2Book, error) {
	var book models.L2Book
	if err := i.client.post(ctx, "/info", map[string]any{"type": "l2Book", "coin": coin}, &book); err != nil {
		return nil, err
	}
	return &book, nil
}

func (i *Info) RecentTrades(ctx context.Context, coin string) ([]json.RawMessage, error) {
	var trades []json.RawMessage
	if err := i.client.post(ctx, "/info", map[string]any{"type": "recentTrades", "coin": coin}, &trades); err != nil {
		return nil, err
	}
	return trades, nil
}

func (i *Info) FundingHistory(ctx context.Context, coin string, startTime int64, endTime *int64) ([]json.RawMessage, error) {
	body := map[string]any{"type": "fundingHistory", "coin": coin, "startTime": startTime}
	if endTime != nil {
		body["endTime"] = *endTime
	}
	var entries []json.RawMessage
	if err := i.client.post(ctx, "/info", body, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (i *Info) CandlesSnapshot(ctx context.Context, coin, interval string, startTime int64, endTime *int64) ([]json.RawMessage, error) {
	req := map[string]any{"coin": coin, "interval": interval, "startTime": startTime}
	if endTime != nil {
		req["endTime"] = *endTime
	}
	var candles []json.RawMessage
	if err := i.client.post(ctx, "/info", map[string]any{"type": "candleSnapshot", "req": req}, &candles); err != nil {
		return nil, err
	}
	return candles, nil
}

func (i *Info) VaultDetails(ctx context.Context, vaultAddress string, startTime, endTime *int64) (json.RawMessage, error) {
	body := map[string]any{"type": "vaultDetails", "vaultAddress": vaultAddress}
	if startTime != nil {
		body["startTime"] = *startTime
	}
	if endTime != nil {
		body["endTime"] = *endTime
	}
	var raw json.RawMessage
	if err := i.client.post(ctx, "/info", body, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}
