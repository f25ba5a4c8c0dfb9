package procedures

import (
	"context"
	"encoding/json"
	"fmt"
)

// WaybillCodeGetRequest pre-allocates Qinglong waybill codes, e.g. {preNum:"100", customerCode:"010K139548", orderType:0}.
type WaybillCodeGetRequest struct {
	PreNum       string `json:"preNum"`
	CustomerCode string `json:"customerCode"`
	OrderType    int    `json:"orderType"`
}

type ReceiveTraceGetRequest struct {
	CustomerCode string `json:"customerCode"`
	WaybillCode  string `json:"waybillCode"`
}

type WaybillQueryRequest struct {
	DeliveryID   string `json:"deliveryId"`
	CustomerCode string `json:"customerCode"`
}

func WaybillCodeGet(ctx context.Context, c Caller, req *WaybillCodeGetRequest) (json.RawMessage, error) {
	return callRequired(ctx, c, EtmsWaybillCodeGet, req)
}

func ReceiveTraceGet(ctx context.Context, c Caller, req *ReceiveTraceGetRequest) (json.RawMessage, error) {
	return callRequired(ctx, c, LdopReceiveTraceGet, req)
}

// WaybillGeneralQuery looks up waybill information by customer code and delivery id.
func WaybillGeneralQuery(ctx context.Context, c Caller, req *WaybillQueryRequest) (json.RawMessage, error) {
	return callRequired(ctx, c, LdopWaybillGeneralQuery, req)
}

// WaybillQuery returns the weight and package count recorded for a waybill.
func WaybillQuery(ctx context.Context, c Caller, req *WaybillQueryRequest) (json.RawMessage, error) {
	return callRequired(ctx, c, LdopWaybillQuery, req)
}

func callRequired[T any](ctx context.Context, c Caller, method string, req *T) (json.RawMessage, error) {
	if c == nil {
		return nil, fmt.Errorf("caller is required")
	}
	if req == nil {
		return nil, fmt.Errorf("%s request cannot be nil", method)
	}
	return c.Call(ctx, method, req)
}
