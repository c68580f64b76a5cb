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

func newGuestServices(t *testing.T, requests ...model.ServiceRequest) *GuestServicesService {
	t.Helper()

	state := DefaultGuestServicesState()
	state.Requests = append(state.Requests, requests...)

	svc := NewGuestServicesService(store.New(GuestServicesStoreKey, persist.NewMemory(), state), nil)
	svc.SetClock(func() time.Time { return fixedNow })
	return svc
}

func TestServiceRequestLifecycle(t *testing.T) {
	svc := newGuestServices(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, alice, model.ServiceRequest{GuestName: "Elena Park", Category: "Housekeeping"})
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	_, err = svc.Create(ctx, alice, model.ServiceRequest{GuestName: "Elena Park", RoomNumber: "1204", Category: "Housekeeping", Priority: "Whenever"})
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	request, err := svc.Create(ctx, alice, model.ServiceRequest{
		GuestName:  "Elena Park",
		RoomNumber: "1204",
		Category:   "Housekeeping",
		Priority:   "high",
		Status:     model.RequestResolved,
	})
	require.NoError(t, err)
	assert.Equal(t, model.RequestOpen, request.Status)
	assert.Equal(t, model.PriorityHigh, request.Priority)

	_, err = svc.Resolve(ctx, alice, request.ID, "too early")
	assert.ErrorIs(t, err, model.ErrInvalidTransition)

	started, err := svc.Start(ctx, alice, request.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RequestInProgress, started.Status)
	assert.Equal(t, "alice", started.AssignedTo)

	svc.SetClock(func() time.Time { return fixedNow.Add(45 * time.Minute) })
	resolved, err := svc.Resolve(ctx, alice, request.ID, "Delivered towels")
	require.NoError(t, err)
	assert.Equal(t, model.RequestResolved, resolved.Status)
	require.NotNil(t, resolved.ResolvedAt)
	assert.Equal(t, "Delivered towels", resolved.ResolutionNotes)

	_, err = svc.Update(ctx, alice, request.ID, model.ServiceRequest{GuestName: "Elena Park", RoomNumber: "1205", Category: "Housekeeping"})
	assert.ErrorIs(t, err, model.ErrInvalidTransition)

	_, err = svc.Cancel(ctx, alice, request.ID, "")
	assert.ErrorIs(t, err, model.ErrInvalidTransition)

	stats := svc.Stats()
	assert.Equal(t, 1, stats.ByStatus[model.RequestResolved])
	assert.InDelta(t, 45.0, stats.MeanResolutionMinutes, 1e-9)

	activity := svc.Activity(0)
	require.Len(t, activity, 3)
	assert.Equal(t, "resolved", activity[0].Action)
}

func TestServiceRequestCancelAndAssign(t *testing.T) {
	svc := newGuestServices(t, model.ServiceRequest{
		ID: "r1", GuestName: "Sam", RoomNumber: "305", Category: "Maintenance",
		Priority: model.PriorityUrgent, Status: model.RequestOpen, CreatedAt: fixedNow,
	})
	ctx := context.Background()

	_, err := svc.Assign(ctx, alice, "r1", " ")
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	assigned, err := svc.Assign(ctx, alice, "r1", "ravi.patel")
	require.NoError(t, err)
	assert.Equal(t, "ravi.patel", assigned.AssignedTo)
	assert.Equal(t, 1, svc.Stats().OpenUrgent)

	cancelled, err := svc.Cancel(ctx, alice, "r1", "Guest checked out")
	require.NoError(t, err)
	assert.Equal(t, model.RequestCancelled, cancelled.Status)
	assert.Zero(t, svc.Stats().OpenUrgent)

	_, err = svc.Start(ctx, alice, "r1")
	assert.ErrorIs(t, err, model.ErrInvalidTransition)

	_, err = svc.Start(ctx, alice, "missing")
	assert.ErrorIs(t, err, model.ErrServiceRequestNotFound)

	require.NoError(t, svc.Delete(ctx, alice, "r1"))
	assert.ErrorIs(t, svc.Delete(ctx, alice, "r1"), model.ErrServiceRequestNotFound)
}

func TestServiceRequestListOrdersByPriority(t *testing.T) {
	svc := newGuestServices(t,
		model.ServiceRequest{ID: "low", RoomNumber: "101", Category: "Housekeeping", Priority: model.PriorityLow, Status: model.RequestOpen, CreatedAt: fixedNow.Add(-3 * time.Hour)},
		model.ServiceRequest{ID: "urgent-new", RoomNumber: "102", Category: "Maintenance", Priority: model.PriorityUrgent, Status: model.RequestOpen, CreatedAt: fixedNow},
		model.ServiceRequest{ID: "urgent-old", RoomNumber: "103", Category: "Maintenance", Priority: model.PriorityUrgent, Status: model.RequestInProgress, CreatedAt: fixedNow.Add(-time.Hour)},
		model.ServiceRequest{ID: "medium", RoomNumber: "102", Category: "Concierge", Priority: model.PriorityMedium, Status: model.RequestResolved, CreatedAt: fixedNow},
	)

	items, meta := svc.List(model.ListQuery{}, "", "")
	assert.Equal(t, 4, meta.Total)
	require.Len(t, items, 4)
	assert.Equal(t, []string{"urgent-old", "urgent-new", "medium", "low"},
		[]string{items[0].ID, items[1].ID, items[2].ID, items[3].ID})

	items, _ = svc.List(model.ListQuery{Type: "maintenance"}, "", "")
	assert.Len(t, items, 2)

	items, _ = svc.List(model.ListQuery{}, "", "102")
	assert.Len(t, items, 2)

	items, _ = svc.List(model.ListQuery{Status: "open"}, "urgent", "")
	require.Len(t, items, 1)
	assert.Equal(t, "urgent-new", items[0].ID)
}

func TestGuestServicesSeed(t *testing.T) {
	svc := NewGuestServicesService(store.New(GuestServicesStoreKey, persist.NewMemory(), DefaultGuestServicesState()), nil)

	count := svc.Seed(context.Background(), demo.NewEmbedded())
	require.Positive(t, count)
	assert.Equal(t, count, svc.Stats().Total)
}
