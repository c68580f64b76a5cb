package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hotel-pms/internal/demo"
	"hotel-pms/internal/model"
	"hotel-pms/internal/persist"
	"hotel-pms/internal/store"
)

func newGuests(t *testing.T, guests ...model.Guest) *GuestService {
	t.Helper()

	state := DefaultGuestsState()
	state.Guests = append(state.Guests, guests...)

	svc := NewGuestService(store.New(GuestsStoreKey, persist.NewMemory(), state), nil)
	svc.SetClock(func() time.Time { return fixedNow })
	return svc
}

func TestGuestLifecycle(t *testing.T) {
	svc := newGuests(t)
	ctx := context.Background()

	_, err := svc.Add(ctx, alice, model.Guest{FirstName: "", Email: "x@example.com"})
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	guest, err := svc.Add(ctx, alice, model.Guest{FirstName: "Elena", LastName: "Park", Email: "elena@example.com", TotalStays: 99})
	require.NoError(t, err)
	assert.Zero(t, guest.TotalStays)

	vip, err := svc.ToggleVIP(ctx, alice, guest.ID)
	require.NoError(t, err)
	assert.True(t, vip.VIP)

	stayDate := fixedNow.AddDate(0, 0, -2)
	stayed, err := svc.RecordStay(ctx, alice, guest.ID, 420.5, stayDate)
	require.NoError(t, err)
	assert.Equal(t, 1, stayed.TotalStays)
	assert.InDelta(t, 420.5, stayed.TotalSpent, 1e-9)
	require.NotNil(t, stayed.LastStayDate)
	assert.Equal(t, stayDate, *stayed.LastStayDate)

	earlier := fixedNow.AddDate(0, 0, -30)
	stayed, err = svc.RecordStay(ctx, alice, guest.ID, 100, earlier)
	require.NoError(t, err)
	assert.Equal(t, 2, stayed.TotalStays)
	assert.Equal(t, stayDate, *stayed.LastStayDate)

	_, err = svc.RecordStay(ctx, alice, guest.ID, -1, fixedNow)
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	updated, err := svc.Update(ctx, alice, guest.ID, model.Guest{FirstName: "Elena", LastName: "Park-Lee", VIP: true})
	require.NoError(t, err)
	assert.Equal(t, "Elena Park-Lee", updated.FullName())
	assert.Equal(t, 2, updated.TotalStays)

	require.NoError(t, svc.Delete(ctx, alice, guest.ID))
	_, err = svc.Get(guest.ID)
	assert.ErrorIs(t, err, model.ErrGuestNotFound)
}

func TestGuestListAndStats(t *testing.T) {
	svc := newGuests(t,
		model.Guest{ID: "1", FirstName: "Zoe", LastName: "Adams", VIP: true, LoyaltyTier: "Gold", TotalSpent: 300},
		model.Guest{ID: "2", FirstName: "Sam", LastName: "Okoye", LoyaltyTier: "Silver", TotalSpent: 100},
		model.Guest{ID: "3", FirstName: "Ana", LastName: "Brown", VIP: true, LoyaltyTier: "Gold", TotalSpent: 200},
	)

	items, meta := svc.List(model.ListQuery{Status: "vip"})
	require.Len(t, items, 2)
	assert.Equal(t, 2, meta.Total)
	assert.Equal(t, "1", items[0].ID)
	assert.Equal(t, "3", items[1].ID)

	items, _ = svc.List(model.ListQuery{Search: "sam oko"})
	require.Len(t, items, 1)

	items, _ = svc.List(model.ListQuery{Type: "gold", Status: "regular"})
	assert.Empty(t, items)

	stats := svc.Stats()
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 2, stats.VIP)
	assert.Equal(t, 2, stats.ByTier["Gold"])
	assert.InDelta(t, 200.0, stats.AverageSpend, 1e-9)
}

func TestGuestSeed(t *testing.T) {
	svc := NewGuestService(store.New(GuestsStoreKey, persist.NewMemory(), DefaultGuestsState()), nil)

	count := svc.Seed(context.Background(), demo.NewEmbedded())
	require.Positive(t, count)
	assert.Positive(t, svc.Stats().VIP)
}
