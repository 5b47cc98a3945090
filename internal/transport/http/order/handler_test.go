package order

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Additional-Code/brewbar/internal/config"
	"github.com/Additional-Code/brewbar/internal/event"
	"github.com/Additional-Code/brewbar/internal/provision"
	repo "github.com/Additional-Code/brewbar/internal/repository/order"
	service "github.com/Additional-Code/brewbar/internal/service/order"
	"github.com/Additional-Code/brewbar/internal/testutil"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   struct {
		Kind    string         `json:"kind"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func newServer(t *testing.T) (*echo.Echo, *event.Recorder) {
	t.Helper()
	conns := testutil.NewConnections(t)
	rec := &event.Recorder{}
	svc, err := service.NewService(service.Params{
		Repository:  repo.NewRepository(conns),
		Provisioner: provision.New(conns.Writer, provision.Options{}, nil, nil),
		Config:      config.Config{Ledger: config.Ledger{StatusPolicy: "forward"}},
		Publisher:   event.NewPublisher(rec, nil),
	})
	require.NoError(t, err)

	e := echo.New()
	Register(e, NewHandler(svc))
	return e, rec
}

func do(t *testing.T, e *echo.Echo, method, path, body string) (int, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec.Code, env
}

func TestCreateOrder(t *testing.T) {
	e, rec := newServer(t)

	code, env := do(t, e, http.MethodPost, "/api/orders", `{
		"customer_name": "Alex",
		"note": "oat milk",
		"total": 0.01,
		"items": [
			{"id": 4, "name": "Latte", "price": 5.00, "quantity": 2},
			{"id": 13, "name": "Croissant", "price": 4.00, "quantity": 1}
		]
	}`)
	require.Equal(t, http.StatusCreated, code)
	assert.True(t, env.Success)

	var placed struct {
		OrderID int64  `json:"order_id"`
		Message string `json:"message"`
		Total   string `json:"total"`
		Status  string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &placed))
	assert.NotZero(t, placed.OrderID)
	assert.Equal(t, "Order placed!", placed.Message)
	assert.Equal(t, "14.00", placed.Total)
	assert.Equal(t, "pending", placed.Status)
	assert.Len(t, rec.Messages(), 1)
}

func TestCreateOrder_BadRequests(t *testing.T) {
	e, _ := newServer(t)

	bodies := []string{
		`{"items":[{"name":"Tea","price":3,"quantity":1}]}`,
		`{"customer":"Alex","items":[]}`,
		`{"customer":"Alex","items":[{"name":"Tea","price":"free","quantity":1}]}`,
		`{"customer":"Alex","items":[{"name":"Tea","price":3,"quantity":-2}]}`,
		`not json`,
	}
	for _, body := range bodies {
		code, env := do(t, e, http.MethodPost, "/api/orders", body)
		assert.Equal(t, http.StatusBadRequest, code, body)
		assert.Equal(t, "bad_request", env.Error.Kind, body)
	}
}

func TestCreateOrder_MenuReferenceFieldErrors(t *testing.T) {
	e, _ := newServer(t)

	code, _ := do(t, e, http.MethodPost, "/api/orders",
		`{"customer":"Alex","items":[{"id":"4","name":"Latte","price":5,"quantity":1}]}`)
	assert.Equal(t, http.StatusCreated, code)

	code, env := do(t, e, http.MethodPost, "/api/orders",
		`{"customer":"Alex","items":[{"name":"Tea","price":3,"quantity":1},{"id":"latte","name":"Latte","price":5,"quantity":1}]}`)
	require.Equal(t, http.StatusBadRequest, code)
	fields, ok := env.Error.Details["fields"].(map[string]any)
	require.True(t, ok, env.Error.Details)
	assert.Contains(t, fields, "items[1].id")
}

func TestListOrders(t *testing.T) {
	e, _ := newServer(t)

	code, env := do(t, e, http.MethodGet, "/api/orders", "")
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `[]`, string(env.Data))

	for _, name := range []string{"first", "second"} {
		code, _ := do(t, e, http.MethodPost, "/api/orders",
			fmt.Sprintf(`{"customer":%q,"items":[{"name":"Tea","price":3.5,"quantity":1}]}`, name))
		require.Equal(t, http.StatusCreated, code)
	}

	code, env = do(t, e, http.MethodGet, "/api/orders", "")
	require.Equal(t, http.StatusOK, code)

	var orders []struct {
		ID       int64  `json:"id"`
		Customer string `json:"customer"`
		Total    string `json:"total"`
		Items    []struct {
			Name  string `json:"name"`
			Price string `json:"price"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &orders))
	require.Len(t, orders, 2)
	assert.Equal(t, "second", orders[0].Customer)
	assert.Equal(t, "3.50", orders[0].Total)
	require.Len(t, orders[0].Items, 1)
	assert.Equal(t, "3.50", orders[0].Items[0].Price)
}

func TestUpdateStatus(t *testing.T) {
	e, rec := newServer(t)

	code, env := do(t, e, http.MethodPost, "/api/orders", `{"customer":"Alex","items":[{"name":"Tea","price":3.5,"quantity":1}]}`)
	require.Equal(t, http.StatusCreated, code)
	var placed struct {
		OrderID int64 `json:"order_id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &placed))
	path := fmt.Sprintf("/api/orders/%d", placed.OrderID)

	code, env = do(t, e, http.MethodPatch, path, `{"status":"preparing"}`)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, fmt.Sprintf(`{"order_id":%d,"status":"preparing","previous":"pending","changed":true}`, placed.OrderID), string(env.Data))

	code, env = do(t, e, http.MethodPatch, path, `{"status":"teleported"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, env.Error.Message, "status must be one of")

	code, _ = do(t, e, http.MethodPatch, path, `{"status":"pending"}`)
	assert.Equal(t, http.StatusConflict, code)

	code, _ = do(t, e, http.MethodPatch, "/api/orders/999", `{"status":"ready"}`)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = do(t, e, http.MethodPatch, "/api/orders/abc", `{"status":"ready"}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = do(t, e, http.MethodGet, path, "")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"status":"preparing"`)

	assert.Equal(t, []string{event.TypeOrderPlaced, event.TypeOrderStatusChanged}, rec.Types())
}
