package dto

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/Additional-Code/brewbar/internal/entity"
)

// PlaceOrderRequest is the inbound order payload. The customer may arrive
// under any of four field names; a top-level total is never read.
type PlaceOrderRequest struct {
	Customer      string             `json:"customer"`
	CustomerName  string             `json:"customer_name"`
	CustomerCamel string             `json:"customerName"`
	Name          string             `json:"name"`
	Note          string             `json:"note"`
	Items         []OrderItemRequest `json:"items"`
}

// ResolveCustomer returns the first non-blank customer alias, trimmed.
func (r PlaceOrderRequest) ResolveCustomer() string {
	for _, candidate := range []string{r.Customer, r.CustomerName, r.CustomerCamel, r.Name} {
		if trimmed := strings.TrimSpace(candidate); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

// OrderItemRequest is one submitted line. Numbers stay raw so the ledger can
// reject malformed values per field instead of failing the whole bind.
type OrderItemRequest struct {
	ID       json.RawMessage `json:"id"`
	MenuID   json.RawMessage `json:"menu_id"`
	Name     string          `json:"name"`
	Price    json.RawMessage `json:"price"`
	Quantity json.RawMessage `json:"quantity"`
}

// MenuRef returns the submitted menu reference and the field it arrived in,
// preferring menu_id over id. Both are empty when neither field is set.
func (r OrderItemRequest) MenuRef() (string, json.RawMessage) {
	switch {
	case present(r.MenuID):
		return "menu_id", r.MenuID
	case present(r.ID):
		return "id", r.ID
	default:
		return "", nil
	}
}

func present(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

// UpdateStatusRequest is the PATCH body for an order.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// OrderResponse represents an order as exposed via transport layers.
type OrderResponse struct {
	ID        int64               `json:"id"`
	Customer  string              `json:"customer"`
	Note      *string             `json:"note"`
	Status    string              `json:"status"`
	Total     string              `json:"total"`
	CreatedAt time.Time           `json:"created_at"`
	Items     []OrderItemResponse `json:"items"`
}

// OrderItemResponse is a line item snapshot.
type OrderItemResponse struct {
	MenuID   *int64 `json:"menu_id"`
	Name     string `json:"name"`
	Price    string `json:"price"`
	Quantity int    `json:"quantity"`
}

// OrderPlacedResponse acknowledges a committed order.
type OrderPlacedResponse struct {
	OrderID int64  `json:"order_id"`
	Message string `json:"message"`
	Status  string `json:"status"`
	Total   string `json:"total"`
}

// StatusUpdateResponse echoes an applied status.
type StatusUpdateResponse struct {
	OrderID  int64  `json:"order_id"`
	Status   string `json:"status"`
	Previous string `json:"previous"`
	Changed  bool   `json:"changed"`
}

// FromOrder maps an order entity. Items is never nil.
func FromOrder(order *entity.Order) OrderResponse {
	resp := OrderResponse{
		ID:        order.ID,
		Customer:  order.Customer,
		Status:    order.Status,
		Total:     order.Total.StringFixed(2),
		CreatedAt: order.CreatedAt,
		Items:     make([]OrderItemResponse, 0, len(order.Items)),
	}
	if order.Note != "" {
		note := order.Note
		resp.Note = &note
	}
	for _, item := range order.Items {
		resp.Items = append(resp.Items, OrderItemResponse{
			MenuID:   item.MenuID,
			Name:     item.Name,
			Price:    item.Price.StringFixed(2),
			Quantity: item.Quantity,
		})
	}
	return resp
}

// FromOrders maps a slice of orders, returning an empty slice rather than nil.
func FromOrders(orders []*entity.Order) []OrderResponse {
	out := make([]OrderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, FromOrder(o))
	}
	return out
}
