package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"hotel-pms/internal/config"
	"hotel-pms/internal/demo"
	"hotel-pms/internal/event"
	"hotel-pms/internal/model"
	"hotel-pms/internal/persist"
	"hotel-pms/internal/service"
)

func testConfig(seed bool) *config.Config {
	return &config.Config{
		JWTSecret:     "test-secret",
		JWTAccessTTL:  15 * time.Minute,
		JWTRefreshTTL: time.Hour,
		BcryptCost:    bcrypt.MinCost,
		RetentionDays: 30,
		SeedDemoData:  seed,
	}
}

func TestLoadSeedsEmptyStoresThenHydrates(t *testing.T) {
	ctx := context.Background()
	adapter := persist.NewMemory()
	cfg := testConfig(true)

	first := NewServices(cfg, adapter, event.NewBus())
	require.NoError(t, first.Load(ctx, cfg, demo.NewEmbedded()))

	_, guests := first.Guests.List(model.ListQuery{})
	assert.Equal(t, 4, guests.Total)
	_, err := first.Auth.Login("admin", "admin123")
	require.NoError(t, err)
	assert.Contains(t, adapter.Keys(), service.LeadsStoreKey)
	assert.Contains(t, adapter.Keys(), service.UsersStoreKey)

	// A restart with seeding off must come back from the snapshots.
	restarted := NewServices(testConfig(false), adapter, event.NewBus())
	require.NoError(t, restarted.Load(ctx, testConfig(false), demo.NewEmbedded()))

	_, guests = restarted.Guests.List(model.ListQuery{})
	assert.Equal(t, 4, guests.Total)
	_, err = restarted.Auth.Login("admin", "admin123")
	require.NoError(t, err)
}

func TestLoadWithoutSeedingStillCreatesUsers(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(false)

	services := NewServices(cfg, persist.NewMemory(), event.NewBus())
	require.NoError(t, services.Load(ctx, cfg, demo.NewEmbedded()))

	_, guests := services.Guests.List(model.ListQuery{})
	assert.Zero(t, guests.Total)
	assert.Zero(t, services.RecycleBin.Stats().Total)

	_, err := services.Auth.Login("admin", "admin123")
	require.NoError(t, err)
}

func TestRunSweeperStopsWithContext(t *testing.T) {
	cfg := testConfig(true)
	services := NewServices(cfg, persist.NewMemory(), event.NewBus())
	require.NoError(t, services.Load(context.Background(), cfg, demo.NewEmbedded()))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		services.RunSweeper(ctx, 10*time.Millisecond)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}
