package app

import (
	"go.uber.org/fx"

	"github.com/Additional-Code/brewbar/internal/cache"
	"github.com/Additional-Code/brewbar/internal/config"
	"github.com/Additional-Code/brewbar/internal/database"
	"github.com/Additional-Code/brewbar/internal/event"
	"github.com/Additional-Code/brewbar/internal/logger"
	"github.com/Additional-Code/brewbar/internal/messaging"
	"github.com/Additional-Code/brewbar/internal/observability"
	"github.com/Additional-Code/brewbar/internal/provision"
	repositorymenu "github.com/Additional-Code/brewbar/internal/repository/menu"
	repositoryorder "github.com/Additional-Code/brewbar/internal/repository/order"
	repositorystats "github.com/Additional-Code/brewbar/internal/repository/stats"
	grpcserver "github.com/Additional-Code/brewbar/internal/server/grpc"
	httpserver "github.com/Additional-Code/brewbar/internal/server/http"
	servicemenu "github.com/Additional-Code/brewbar/internal/service/menu"
	serviceorder "github.com/Additional-Code/brewbar/internal/service/order"
	servicestats "github.com/Additional-Code/brewbar/internal/service/stats"
	transporthttp "github.com/Additional-Code/brewbar/internal/transport/http"
	"github.com/Additional-Code/brewbar/internal/worker"
	workerorder "github.com/Additional-Code/brewbar/internal/worker/order"
)

// Core provides the foundational modules shared across executables.
var Core = fx.Options(
	config.Module,
	cache.Module,
	database.Module,
	logger.Module,
	messaging.Module,
	observability.Module,
	event.Module,
	provision.Module,
	repositorymenu.Module,
	repositoryorder.Module,
	repositorystats.Module,
	servicemenu.Module,
	serviceorder.Module,
	servicestats.Module,
)

// HTTP wires the HTTP and gRPC servers on top of the core modules.
var HTTP = fx.Options(
	Core,
	httpserver.Module,
	grpcserver.Module,
	transporthttp.Module,
)

// Worker exposes background worker processing.
var Worker = fx.Options(
	Core,
	worker.Module,
	workerorder.Module,
)

// Module is the default application wiring (HTTP only).
var Module = HTTP
