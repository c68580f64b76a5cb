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

func newLeads(t *testing.T, leads ...model.Lead) *LeadService {
	t.Helper()

	state := DefaultLeadsState()
	state.Leads = append(state.Leads, leads...)

	svc := NewLeadService(store.New(LeadsStoreKey, persist.NewMemory(), state), nil)
	svc.SetClock(func() time.Time { return fixedNow })
	return svc
}

func TestLeadValidation(t *testing.T) {
	svc := newLeads(t)
	ctx := context.Background()

	_, err := svc.Add(ctx, alice, model.Lead{Name: " ", Email: "a@example.com"})
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	_, err = svc.Add(ctx, alice, model.Lead{Name: "Bad Email", Email: "not-an-email"})
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	_, err = svc.Add(ctx, alice, model.Lead{Name: "Odd", Status: "Maybe"})
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	lead, err := svc.Add(ctx, alice, model.Lead{Name: "Harbor Events", Email: "events@harbor.example", EstimatedValue: 1000})
	require.NoError(t, err)
	assert.Equal(t, model.LeadNew, lead.Status)
	assert.Equal(t, fixedNow, lead.CreatedAt)
}

func TestLeadStatusAndAssignment(t *testing.T) {
	svc := newLeads(t, model.Lead{ID: "l1", Name: "Lumen", Status: model.LeadNew, CreatedAt: fixedNow})
	ctx := context.Background()

	svc.SetClock(func() time.Time { return fixedNow.Add(time.Hour) })
	updated, err := svc.SetStatus(ctx, alice, "l1", "qualified")
	require.NoError(t, err)
	assert.Equal(t, model.LeadQualified, updated.Status)
	assert.Equal(t, fixedNow.Add(time.Hour), updated.UpdatedAt)

	_, err = svc.SetStatus(ctx, alice, "l1", "Dormant")
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	assigned, err := svc.Assign(ctx, alice, "l1", "nina")
	require.NoError(t, err)
	assert.Equal(t, "nina", assigned.AssignedTo)

	_, err = svc.Assign(ctx, alice, "missing", "nina")
	assert.ErrorIs(t, err, model.ErrLeadNotFound)

	activity := svc.Activity(0)
	require.Len(t, activity, 2)
	assert.Equal(t, "assigned", activity[0].Action)
	assert.Contains(t, activity[1].Details, "New to Qualified")
}

func TestLeadStats(t *testing.T) {
	svc := newLeads(t,
		model.Lead{ID: "1", Name: "A", Status: model.LeadWon, EstimatedValue: 100, Source: "Web"},
		model.Lead{ID: "2", Name: "B", Status: model.LeadLost, EstimatedValue: 50, Source: "Web"},
		model.Lead{ID: "3", Name: "C", Status: model.LeadProposal, EstimatedValue: 200, Source: "Referral"},
		model.Lead{ID: "4", Name: "D", Status: model.LeadNew, EstimatedValue: 25},
	)

	stats := svc.Stats()
	assert.Equal(t, 4, stats.Total)
	assert.InDelta(t, 325.0, stats.PipelineValue, 1e-9)
	assert.InDelta(t, 100.0, stats.WonValue, 1e-9)
	assert.InDelta(t, 25.0, stats.ConversionRate, 1e-9)
	assert.Equal(t, 2, stats.BySource["Web"])
}

func TestLeadListSortIsStable(t *testing.T) {
	svc := newLeads(t,
		model.Lead{ID: "1", Name: "Same", EstimatedValue: 10, Status: model.LeadNew},
		model.Lead{ID: "2", Name: "Other", EstimatedValue: 30, Status: model.LeadNew},
		model.Lead{ID: "3", Name: "same", EstimatedValue: 10, Status: model.LeadWon},
	)

	items, _, err := svc.List(model.ListQuery{Sort: "name", Order: "asc"})
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, []string{"2", "1", "3"}, []string{items[0].ID, items[1].ID, items[2].ID})

	items, _, err = svc.List(model.ListQuery{Sort: "value", Order: "desc"})
	require.NoError(t, err)
	assert.Equal(t, []string{"2", "1", "3"}, []string{items[0].ID, items[1].ID, items[2].ID})

	items, _, err = svc.List(model.ListQuery{Status: "won"})
	require.NoError(t, err)
	require.Len(t, items, 1)

	_, _, err = svc.List(model.ListQuery{Sort: "phone"})
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}

func TestLeadDeleteAndSeed(t *testing.T) {
	svc := NewLeadService(store.New(LeadsStoreKey, persist.NewMemory(), DefaultLeadsState()), nil)
	count := svc.Seed(context.Background(), demo.NewEmbedded())
	require.Positive(t, count)

	items, err := svc.All(model.ListQuery{})
	require.NoError(t, err)
	require.Len(t, items, count)

	require.NoError(t, svc.Delete(context.Background(), admin, items[0].ID))
	_, err = svc.Get(items[0].ID)
	assert.ErrorIs(t, err, model.ErrLeadNotFound)
	assert.ErrorIs(t, svc.Delete(context.Background(), admin, items[0].ID), model.ErrLeadNotFound)
}

func TestDeleteMissingLeadCountsRejection(t *testing.T) {
	svc := newLeads(t)
	before := rejectionCount(t, leadsModule, "other")

	err := svc.Delete(context.Background(), alice, "missing")
	require.ErrorIs(t, err, model.ErrLeadNotFound)
	assert.Equal(t, before+1, rejectionCount(t, leadsModule, "other"))
}
