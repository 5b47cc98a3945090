package grpc

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/Additional-Code/brewbar/internal/provision"
	"github.com/Additional-Code/brewbar/internal/testutil"
	"github.com/Additional-Code/brewbar/pkg/errorbank"
)

func TestToStatus(t *testing.T) {
	assert.NoError(t, toStatus(nil))

	err := toStatus(errorbank.NotFound("order not found"))
	assert.Equal(t, codes.NotFound, status.Code(err))

	err = toStatus(errorbank.Unavailable("ledger storage is not ready"))
	assert.Equal(t, codes.Unavailable, status.Code(err))

	plain := errors.New("boom")
	assert.Equal(t, plain, toStatus(plain))

	already := status.Error(codes.Aborted, "aborted")
	assert.Equal(t, already, toStatus(already))
}

func TestWatchLedger_FlipsToServing(t *testing.T) {
	server := NewServer(zap.NewNop())
	hs := NewHealth(server)
	prov := provision.New(testutil.NewDB(t), provision.Options{}, nil, nil)

	lc := fxtest.NewLifecycle(t)
	WatchLedger(lc, hs, prov, zap.NewNop())
	lc.RequireStart()
	defer lc.RequireStop()

	ctx := context.Background()
	resp, err := hs.Check(ctx, &healthpb.HealthCheckRequest{Service: LedgerService})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, resp.GetStatus())

	require.NoError(t, prov.EnsureReady(ctx))

	assert.Eventually(t, func() bool {
		resp, err := hs.Check(ctx, &healthpb.HealthCheckRequest{Service: LedgerService})
		return err == nil && resp.GetStatus() == healthpb.HealthCheckResponse_SERVING
	}, 2*time.Second, 10*time.Millisecond)
}
