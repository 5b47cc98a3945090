package provision

import (
	"context"
	"database/sql"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
)

type unlockFunc func(context.Context) error

// acquireLock takes a session-scoped lock on conn that serialises provisioning
// across processes. sqlite has a single writer, so the marker row alone suffices there.
func acquireLock(ctx context.Context, conn bun.Conn, name string, timeout time.Duration) (unlockFunc, error) {
	switch conn.Dialect().Name() {
	case dialect.PG:
		key := advisoryKey(name)
		lockCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		if _, err := conn.ExecContext(lockCtx, "SELECT pg_advisory_lock(?)", key); err != nil {
			return nil, fmt.Errorf("pg_advisory_lock: %w", err)
		}
		return func(ctx context.Context) error {
			_, err := conn.ExecContext(ctx, "SELECT pg_advisory_unlock(?)", key)
			return err
		}, nil
	case dialect.MySQL:
		var got sql.NullInt64
		seconds := int(timeout.Seconds())
		if seconds < 1 {
			seconds = 1
		}
		if err := conn.NewRaw("SELECT GET_LOCK(?, ?)", name, seconds).Scan(ctx, &got); err != nil {
			return nil, fmt.Errorf("GET_LOCK: %w", err)
		}
		if !got.Valid || got.Int64 != 1 {
			return nil, fmt.Errorf("GET_LOCK %q not acquired within %s", name, timeout)
		}
		return func(ctx context.Context) error {
			_, err := conn.ExecContext(ctx, "SELECT RELEASE_LOCK(?)", name)
			return err
		}, nil
	default:
		return func(context.Context) error { return nil }, nil
	}
}

func advisoryKey(name string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(name))
	return int64(h.Sum64())
}
