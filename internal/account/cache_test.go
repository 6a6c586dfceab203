package account

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/fkhayef/parkwise/internal/apperr"
)

type countingLookup struct {
	calls int
	info  DisplayInfo
	err   error
}

func (l *countingLookup) GetDisplayInfo(ctx context.Context, ownerID string) (DisplayInfo, error) {
	l.calls++
	return l.info, l.err
}

func TestCachedLookup_FallsBackWhenRedisIsDown(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	core, logs := observer.New(zapcore.WarnLevel)
	next := &countingLookup{info: DisplayInfo{Name: "City Parking Authority", Type: TypeMunicipal}}
	cached := NewCachedLookup(next, client, time.Minute, "", zap.New(core))

	info, err := cached.GetDisplayInfo(context.Background(), "muni1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.Name != "City Parking Authority" || next.calls != 1 {
		t.Fatalf("expected fallback to the wrapped lookup, got %+v after %d calls", info, next.calls)
	}
	if logs.FilterMessage("owner cache read failed").Len() != 1 {
		t.Fatal("expected cache read failure to be logged")
	}
}

func TestCachedLookup_Redis(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping redis integration test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	ctr, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForListeningPort("6379/tcp"),
		},
		Started: true,
	})
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(ctr); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})
	if err != nil {
		t.Fatalf("failed to start redis: %v", err)
	}
	endpoint, err := ctr.Endpoint(ctx, "")
	if err != nil {
		t.Fatalf("endpoint: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: endpoint})
	defer client.Close()

	next := &countingLookup{info: DisplayInfo{Name: "Mall Parking", Type: TypeEstablishment}}
	cached := NewCachedLookup(next, client, time.Minute, "test:owner:", zap.NewNop())

	for i := 0; i < 3; i++ {
		info, err := cached.GetDisplayInfo(ctx, "est1")
		if err != nil {
			t.Fatalf("lookup %d: %v", i, err)
		}
		if info.Type != TypeEstablishment {
			t.Fatalf("unexpected info %+v", info)
		}
	}
	if next.calls != 1 {
		t.Fatalf("expected one backing lookup, got %d", next.calls)
	}

	ttl, err := client.TTL(ctx, "test:owner:est1").Result()
	if err != nil || ttl <= 0 || ttl > time.Minute {
		t.Fatalf("expected a TTL up to one minute, got %v (%v)", ttl, err)
	}

	failing := &countingLookup{err: fmt.Errorf("owner %q does not exist: %w", "missing", apperr.ErrLookup)}
	cachedFailing := NewCachedLookup(failing, client, time.Minute, "test:owner", zap.NewNop())
	for i := 0; i < 2; i++ {
		if _, err := cachedFailing.GetDisplayInfo(ctx, "missing"); !errors.Is(err, apperr.ErrLookup) {
			t.Fatalf("expected ErrLookup, got %v", err)
		}
	}
	if failing.calls != 2 {
		t.Fatalf("lookup failures must not be cached, got %d calls", failing.calls)
	}
}
