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

func newSecurities(t *testing.T, securities ...model.Security) *SecuritiesService {
	t.Helper()

	state := DefaultSecuritiesState()
	state.Securities = append(state.Securities, securities...)

	svc := NewSecuritiesService(store.New(SecuritiesStoreKey, persist.NewMemory(), state), nil)
	svc.SetClock(func() time.Time { return fixedNow })
	return svc
}

func TestExerciseRespectsVesting(t *testing.T) {
	svc := newSecurities(t, model.Security{
		ID: "opt", Type: "Stock Option", HolderName: "Ines", Quantity: 1000,
		ExercisePrice: 1, VestedPercentage: 50, Status: model.SecurityStatusActive, IssueDate: fixedNow,
	})
	ctx := context.Background()

	_, err := svc.Exercise(ctx, alice, "opt", 501)
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	updated, err := svc.Exercise(ctx, alice, "opt", 500)
	require.NoError(t, err)
	assert.Equal(t, int64(500), updated.ExercisedQuantity)
	assert.Equal(t, model.SecurityStatusActive, updated.Status)

	_, err = svc.Exercise(ctx, alice, "opt", 1)
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	_, err = svc.Exercise(ctx, alice, "opt", 0)
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}

func TestFullExerciseClosesSecurity(t *testing.T) {
	svc := newSecurities(t, model.Security{
		ID: "w", Type: "Warrant", HolderName: "Fund", Quantity: 10,
		VestedPercentage: 100, Status: model.SecurityStatusActive, IssueDate: fixedNow,
	})

	updated, err := svc.Exercise(context.Background(), alice, "w", 10)
	require.NoError(t, err)
	assert.Equal(t, model.SecurityStatusExercised, updated.Status)

	_, err = svc.Cancel(context.Background(), alice, "w", "")
	assert.ErrorIs(t, err, model.ErrInvalidTransition)
}

func TestIssueUpdateAndCancel(t *testing.T) {
	svc := newSecurities(t)
	ctx := context.Background()

	_, err := svc.Issue(ctx, alice, model.Security{Type: "Bond", HolderName: "x", Quantity: 1})
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	issued, err := svc.Issue(ctx, alice, model.Security{Type: "RSU", HolderName: " Felix ", Quantity: 100, VestedPercentage: 25})
	require.NoError(t, err)
	assert.Equal(t, "Felix", issued.HolderName)
	assert.Equal(t, model.SecurityStatusActive, issued.Status)
	assert.Equal(t, fixedNow, issued.IssueDate)

	updated, err := svc.Update(ctx, alice, issued.ID, model.Security{Type: "RSU", HolderName: "Felix", Quantity: 120, VestedPercentage: 50})
	require.NoError(t, err)
	assert.Equal(t, int64(120), updated.Quantity)
	assert.Equal(t, fixedNow, updated.IssueDate)

	cancelled, err := svc.Cancel(ctx, alice, issued.ID, "left company")
	require.NoError(t, err)
	assert.Equal(t, model.SecurityStatusCancelled, cancelled.Status)

	_, err = svc.Update(ctx, alice, issued.ID, model.Security{Type: "RSU", HolderName: "Felix", Quantity: 1})
	assert.ErrorIs(t, err, model.ErrInvalidTransition)

	activity := svc.Activity(1)
	require.Len(t, activity, 1)
	assert.Contains(t, activity[0].Details, "left company")
}

func TestExpireDue(t *testing.T) {
	past := fixedNow.AddDate(0, 0, -1)
	future := fixedNow.AddDate(1, 0, 0)
	svc := newSecurities(t,
		model.Security{ID: "old", Type: "Warrant", HolderName: "A", Quantity: 1, Status: model.SecurityStatusActive, ExpirationDate: &past},
		model.Security{ID: "new", Type: "Warrant", HolderName: "B", Quantity: 1, Status: model.SecurityStatusActive, ExpirationDate: &future},
		model.Security{ID: "none", Type: "RSU", HolderName: "C", Quantity: 1, Status: model.SecurityStatusActive},
	)

	expired, err := svc.ExpireDue(context.Background(), fixedNow)
	require.NoError(t, err)
	assert.Equal(t, 1, expired)

	old, err := svc.Get("old")
	require.NoError(t, err)
	assert.Equal(t, model.SecurityStatusExpired, old.Status)

	items, meta := svc.List(model.ListQuery{Status: "active"})
	assert.Len(t, items, 2)
	assert.Equal(t, 2, meta.Total)
}

func TestSecurityStats(t *testing.T) {
	svc := newSecurities(t,
		model.Security{ID: "a", Type: "Stock Option", HolderName: "A", Quantity: 100, ExercisedQuantity: 40, ExercisePrice: 1, Status: model.SecurityStatusActive},
		model.Security{ID: "b", Type: "Warrant", HolderName: "B", Quantity: 50, ExercisePrice: 5, Status: model.SecurityStatusActive},
		model.Security{ID: "c", Type: "SAFE", HolderName: "C", Quantity: 10, ExercisedQuantity: 10, Status: model.SecurityStatusExercised},
	)

	stats := svc.Stats(3)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, int64(110), stats.OutstandingQuantity)
	assert.Equal(t, int64(50), stats.ExercisedQuantity)
	assert.InDelta(t, 120.0, stats.IntrinsicValue, 1e-9)
	assert.Equal(t, 1, stats.ByType["Warrant"])
	assert.Equal(t, 2, stats.ByStatus[model.SecurityStatusActive])

	_, err := svc.Get("missing")
	assert.ErrorIs(t, err, model.ErrSecurityNotFound)
}

func TestSecuritiesSeed(t *testing.T) {
	svc := NewSecuritiesService(store.New(SecuritiesStoreKey, persist.NewMemory(), DefaultSecuritiesState()), nil)

	count := svc.Seed(context.Background(), demo.NewEmbedded())
	require.Positive(t, count)

	items, _ := svc.List(model.ListQuery{Type: "stock option"})
	assert.NotEmpty(t, items)
}
