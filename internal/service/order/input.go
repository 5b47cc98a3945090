package order

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/Additional-Code/brewbar/internal/dto"
	"github.com/Additional-Code/brewbar/pkg/errorbank"
)

const (
	maxItems        = 100
	maxNameLength   = 100
	maxQuantity     = 999
	priceDecimals   = 2
	messageRequired = "customer and items are required"
)

var (
	maxPrice = decimal.RequireFromString("9999.99")
	maxTotal = decimal.RequireFromString("999999.99")
)

// PlaceOrderInput is a validated-shape order proposal.
type PlaceOrderInput struct {
	Customer string
	Note     string
	Items    []LineInput
}

// LineInput is one proposed line item.
type LineInput struct {
	MenuID   *int64
	Name     string
	Price    decimal.Decimal
	Quantity int
}

// ParsePlaceOrder converts a raw request into PlaceOrderInput. Malformed
// numbers are rejected with per-field details rather than read as zero.
func ParsePlaceOrder(req dto.PlaceOrderRequest) (PlaceOrderInput, error) {
	in := PlaceOrderInput{
		Customer: req.ResolveCustomer(),
		Note:     strings.TrimSpace(req.Note),
		Items:    make([]LineInput, 0, len(req.Items)),
	}
	if in.Customer == "" || len(req.Items) == 0 {
		return PlaceOrderInput{}, errorbank.BadRequest(messageRequired)
	}

	var fields errorbank.FieldErrors
	for i, item := range req.Items {
		line := LineInput{Name: strings.TrimSpace(item.Name)}

		if field, raw := item.MenuRef(); field != "" {
			menuID, err := parseMenuID(raw)
			if err != nil {
				fields.Add(fmt.Sprintf("items[%d].%s", i, field), err.Error())
			}
			line.MenuID = menuID
		}

		price, err := parseDecimal(item.Price)
		if err != nil {
			fields.Add(fmt.Sprintf("items[%d].price", i), err.Error())
		}
		line.Price = price

		qty, err := parseQuantity(item.Quantity)
		if err != nil {
			fields.Add(fmt.Sprintf("items[%d].quantity", i), err.Error())
		}
		line.Quantity = qty

		in.Items = append(in.Items, line)
	}
	if err := fields.BadRequest("invalid order items"); err != nil {
		return PlaceOrderInput{}, err
	}
	return in, nil
}

// validate checks invariants on an input regardless of where it came from.
func (in PlaceOrderInput) validate() (PlaceOrderInput, error) {
	in.Customer = strings.TrimSpace(in.Customer)
	in.Note = strings.TrimSpace(in.Note)
	if in.Customer == "" || len(in.Items) == 0 {
		return in, errorbank.BadRequest(messageRequired)
	}

	var fields errorbank.FieldErrors
	if utf8.RuneCountInString(in.Customer) > maxNameLength {
		fields.Addf("customer", "must be at most %d characters", maxNameLength)
	}
	if len(in.Items) > maxItems {
		fields.Addf("items", "must contain at most %d items", maxItems)
	}

	items := make([]LineInput, len(in.Items))
	for i, item := range in.Items {
		item.Name = strings.TrimSpace(item.Name)
		switch {
		case item.Name == "":
			fields.Add(fmt.Sprintf("items[%d].name", i), "is required")
		case utf8.RuneCountInString(item.Name) > maxNameLength:
			fields.Addf(fmt.Sprintf("items[%d].name", i), "must be at most %d characters", maxNameLength)
		}
		switch {
		case item.Price.IsNegative():
			fields.Add(fmt.Sprintf("items[%d].price", i), "must not be negative")
		case item.Price.GreaterThan(maxPrice):
			fields.Addf(fmt.Sprintf("items[%d].price", i), "must be at most %s", maxPrice.StringFixed(2))
		case !item.Price.Equal(item.Price.Round(priceDecimals)):
			fields.Add(fmt.Sprintf("items[%d].price", i), "must have at most 2 decimal places")
		}
		if item.Quantity < 1 || item.Quantity > maxQuantity {
			fields.Addf(fmt.Sprintf("items[%d].quantity", i), "must be an integer between 1 and %d", maxQuantity)
		}
		if item.MenuID != nil && *item.MenuID <= 0 {
			fields.Add(fmt.Sprintf("items[%d].menu_id", i), "must be positive")
		}
		items[i] = item
	}
	in.Items = items

	if fields.Empty() {
		if total := in.Total(); total.GreaterThan(maxTotal) {
			fields.Addf("total", "must be at most %s", maxTotal.StringFixed(2))
		}
	}
	if err := fields.BadRequest("invalid order"); err != nil {
		return in, err
	}
	return in, nil
}

// Total is the sum of price times quantity over the lines, at cent precision.
func (in PlaceOrderInput) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range in.Items {
		total = total.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total.Round(priceDecimals)
}

func parseDecimal(raw json.RawMessage) (decimal.Decimal, error) {
	text, err := rawNumber(raw)
	if err != nil {
		return decimal.Zero, err
	}
	d, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Zero, fmt.Errorf("must be a number")
	}
	return d, nil
}

func parseMenuID(raw json.RawMessage) (*int64, error) {
	d, err := parseDecimal(raw)
	if err != nil {
		return nil, err
	}
	if !d.IsInteger() || !d.Equal(decimal.NewFromInt(d.IntPart())) {
		return nil, fmt.Errorf("must be an integer")
	}
	id := d.IntPart()
	return &id, nil
}

func parseQuantity(raw json.RawMessage) (int, error) {
	d, err := parseDecimal(raw)
	if err != nil {
		return 0, err
	}
	if !d.IsInteger() || d.LessThan(decimal.NewFromInt(1)) || d.GreaterThan(decimal.NewFromInt(maxQuantity)) {
		return 0, fmt.Errorf("must be an integer between 1 and %d", maxQuantity)
	}
	return int(d.IntPart()), nil
}

// rawNumber accepts a JSON number or a string holding one.
func rawNumber(raw json.RawMessage) (string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return "", fmt.Errorf("is required")
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return "", fmt.Errorf("must be a number")
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return "", fmt.Errorf("is required")
		}
		return s, nil
	}
	return string(trimmed), nil
}
