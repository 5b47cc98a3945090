package menu

import (
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.uber.org/fx"

	"github.com/Additional-Code/brewbar/internal/dto"
	"github.com/Additional-Code/brewbar/internal/presentation/http/response"
	service "github.com/Additional-Code/brewbar/internal/service/menu"
)

var httpTracer = otel.Tracer("github.com/Additional-Code/brewbar/transport/http/menu")

// Handler exposes the menu over HTTP.
type Handler struct {
	svc *service.Service
}

// NewHandler constructs a menu Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Module wires HTTP menu handlers.
var Module = fx.Options(
	fx.Provide(NewHandler),
	fx.Invoke(Register),
)

// Register routes with provided Echo instance.
func Register(e *echo.Echo, h *Handler) {
	e.GET("/api/menu", h.list)
}

func (h *Handler) list(c echo.Context) error {
	b := response.New(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "menu.list")
	defer span.End()

	items, err := h.svc.List(ctx)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithList(dto.FromMenu(items), len(items)).Build()
}
