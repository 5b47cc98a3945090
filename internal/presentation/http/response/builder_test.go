package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Additional-Code/brewbar/pkg/errorbank"
)

type envelope struct {
	Success bool           `json:"success"`
	Data    any            `json:"data"`
	Meta    map[string]any `json:"meta"`
	Error   struct {
		Kind    string         `json:"kind"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func newContext() (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestBuild_Success(t *testing.T) {
	c, rec := newContext()
	c.Response().Header().Set(echo.HeaderXRequestID, "req-1")

	require.NoError(t, New(c).WithStatus(http.StatusCreated).WithData(map[string]int{"order_id": 7}).Build())
	assert.Equal(t, http.StatusCreated, rec.Code)

	var body envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, "req-1", body.Meta["request_id"])
}

func TestBuild_ErrorUsesKindStatus(t *testing.T) {
	c, rec := newContext()

	err := errorbank.NotFound("order not found", errorbank.WithDetail("order_id", 9))
	require.NoError(t, New(c).WithError(err).Build())
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var body envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, "not_found", body.Error.Kind)
	assert.Equal(t, "order not found", body.Error.Message)
	assert.EqualValues(t, 9, body.Error.Details["order_id"])
}

func TestBuild_PlainErrorIsInternal(t *testing.T) {
	c, rec := newContext()
	require.NoError(t, New(c).WithError(assert.AnError).Build())
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestBuild_UnavailableSetsRetryAfter(t *testing.T) {
	c, rec := newContext()

	require.NoError(t, New(c).WithError(errorbank.Unavailable("ledger storage is not ready")).Build())
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("Retry-After"))
}

func TestBuild_WithListCount(t *testing.T) {
	c, rec := newContext()

	require.NoError(t, New(c).WithList([]string{"a", "b"}, 2).Build())

	var body envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.EqualValues(t, 2, body.Meta["count"])
}
