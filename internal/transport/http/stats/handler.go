package stats

import (
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.uber.org/fx"

	"github.com/Additional-Code/brewbar/internal/presentation/http/response"
	service "github.com/Additional-Code/brewbar/internal/service/stats"
)

var httpTracer = otel.Tracer("github.com/Additional-Code/brewbar/transport/http/stats")

// Handler exposes dashboard statistics over HTTP.
type Handler struct {
	svc *service.Service
}

// NewHandler constructs a stats Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Module wires HTTP stats handlers.
var Module = fx.Options(
	fx.Provide(NewHandler),
	fx.Invoke(Register),
)

// Register routes with provided Echo instance.
func Register(e *echo.Echo, h *Handler) {
	e.GET("/api/stats", h.get)
}

func (h *Handler) get(c echo.Context) error {
	b := response.New(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "stats.get")
	defer span.End()

	stats, err := h.svc.Compute(ctx)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(stats).Build()
}
