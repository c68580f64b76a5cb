package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hotel-pms/internal/demo"
	"hotel-pms/internal/model"
	"hotel-pms/internal/persist"
	"hotel-pms/internal/store"
)

func newTransactions(t *testing.T) *TransactionService {
	t.Helper()

	svc := NewTransactionService(store.New(TransactionsStoreKey, persist.NewMemory(), DefaultTransactionsState()), nil)
	svc.SetClock(func() time.Time { return fixedNow })
	return svc
}

func draftIssuance(t *testing.T, svc *TransactionService) model.Transaction {
	t.Helper()

	tx, err := svc.Create(context.Background(), admin, model.NewTransaction{
		Type:          "Issuance",
		ToShareholder: "sh-1",
		EquityClass:   "common",
		Quantity:      100,
		UnitPrice:     10,
	})
	require.NoError(t, err)
	return tx
}

func TestTransactionLifecycle(t *testing.T) {
	svc := newTransactions(t)
	ctx := context.Background()

	tx := draftIssuance(t, svc)
	assert.Equal(t, model.TransactionDraft, tx.Status)
	assert.InDelta(t, 1000.0, tx.TotalAmount, 1e-9)

	approved, err := svc.Approve(ctx, admin, tx.ID, "Alice")
	require.NoError(t, err)
	assert.Equal(t, model.TransactionApproved, approved.Status)
	assert.Equal(t, "Alice", approved.ApprovedBy)
	require.NotNil(t, approved.ApprovedDate)

	found := false
	for _, entry := range approved.AuditTrail {
		if entry.Action == "Approved" && entry.User == "Alice" {
			found = true
		}
	}
	assert.True(t, found, "expected an Approved audit entry by Alice")

	svc.SetClock(func() time.Time { return fixedNow.Add(time.Hour) })
	executed, err := svc.Execute(ctx, admin, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TransactionExecuted, executed.Status)
	require.NotNil(t, executed.ExecutedDate)
	assert.Equal(t, fixedNow.Add(time.Hour), *executed.ExecutedDate)
	assert.Len(t, executed.AuditTrail, 3)
}

func TestTransactionTransitionsAreEnforced(t *testing.T) {
	svc := newTransactions(t)
	ctx := context.Background()

	tx := draftIssuance(t, svc)

	_, err := svc.Execute(ctx, admin, tx.ID)
	require.ErrorIs(t, err, model.ErrInvalidTransition)

	var transitionErr *model.TransitionError
	require.True(t, errors.As(err, &transitionErr))
	assert.Equal(t, model.TransactionDraft, transitionErr.From)
	assert.Equal(t, model.TransactionExecuted, transitionErr.To)

	_, err = svc.Reject(ctx, admin, tx.ID, "")
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	rejected, err := svc.Reject(ctx, admin, tx.ID, "price too low")
	require.NoError(t, err)
	assert.Equal(t, model.TransactionRejected, rejected.Status)
	assert.Equal(t, "price too low", rejected.RejectionReason)

	_, err = svc.Approve(ctx, admin, tx.ID, "")
	assert.ErrorIs(t, err, model.ErrInvalidTransition)
	_, err = svc.Execute(ctx, admin, tx.ID)
	assert.ErrorIs(t, err, model.ErrInvalidTransition)

	current, err := svc.Get(tx.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TransactionRejected, current.Status)
	assert.Nil(t, current.ExecutedDate)

	require.NoError(t, svc.Delete(ctx, admin, tx.ID))
	_, err = svc.Get(tx.ID)
	assert.ErrorIs(t, err, model.ErrTransactionNotFound)
}

func TestUpdateDoesNotRecomputeTotal(t *testing.T) {
	svc := newTransactions(t)
	ctx := context.Background()
	tx := draftIssuance(t, svc)

	price := 12.5
	updated, err := svc.Update(ctx, admin, tx.ID, model.TransactionPatch{UnitPrice: &price})
	require.NoError(t, err)
	assert.InDelta(t, 12.5, updated.UnitPrice, 1e-9)
	assert.InDelta(t, 1000.0, updated.TotalAmount, 1e-9)

	total := 1250.0
	updated, err = svc.Update(ctx, admin, tx.ID, model.TransactionPatch{TotalAmount: &total})
	require.NoError(t, err)
	assert.InDelta(t, 1250.0, updated.TotalAmount, 1e-9)
}

func TestReviseRecomputesTotal(t *testing.T) {
	svc := newTransactions(t)
	ctx := context.Background()
	tx := draftIssuance(t, svc)

	revised, err := svc.Revise(ctx, admin, tx.ID, 40, 2.5)
	require.NoError(t, err)
	assert.InDelta(t, 100.0, revised.TotalAmount, 1e-9)
	assert.Equal(t, "Revised", revised.AuditTrail[len(revised.AuditTrail)-1].Action)

	_, err = svc.Approve(ctx, admin, tx.ID, "")
	require.NoError(t, err)

	_, err = svc.Revise(ctx, admin, tx.ID, 1, 1)
	assert.ErrorIs(t, err, model.ErrInvalidTransition)

	quantity := int64(5)
	_, err = svc.Update(ctx, admin, tx.ID, model.TransactionPatch{Quantity: &quantity})
	assert.ErrorIs(t, err, model.ErrInvalidTransition)

	require.Error(t, svc.Delete(ctx, admin, tx.ID))
}

func TestFailedPatchLeavesTransactionUntouched(t *testing.T) {
	svc := newTransactions(t)
	tx := draftIssuance(t, svc)

	notes := "changed"
	badType := "Gift"
	_, err := svc.Update(context.Background(), admin, tx.ID, model.TransactionPatch{Notes: &notes, Type: &badType})
	require.ErrorIs(t, err, model.ErrInvalidInput)

	current, err := svc.Get(tx.ID)
	require.NoError(t, err)
	assert.Empty(t, current.Notes)
	assert.Len(t, current.AuditTrail, 1)
}

func TestCreateValidation(t *testing.T) {
	svc := newTransactions(t)
	ctx := context.Background()

	cases := []model.NewTransaction{
		{Type: "Gift", EquityClass: "common", Quantity: 1, ToShareholder: "a"},
		{Type: "Issuance", EquityClass: "common", Quantity: 0, ToShareholder: "a"},
		{Type: "Issuance", EquityClass: "", Quantity: 1, ToShareholder: "a"},
		{Type: "Transfer", EquityClass: "common", Quantity: 1, FromShareholder: "a"},
		{Type: "Transfer", EquityClass: "common", Quantity: 1, FromShareholder: "a", ToShareholder: "a"},
		{Type: "Repurchase", EquityClass: "common", Quantity: 1},
	}
	for _, input := range cases {
		_, err := svc.Create(ctx, admin, input)
		assert.ErrorIs(t, err, model.ErrInvalidInput, "input %+v", input)
	}

	items, meta := svc.List(model.ListQuery{})
	assert.Empty(t, items)
	assert.Equal(t, 0, meta.Total)
}

func TestListTransactionsFiltersAndOrders(t *testing.T) {
	svc := NewTransactionService(store.New(TransactionsStoreKey, persist.NewMemory(), DefaultTransactionsState()), nil)
	count := svc.Seed(context.Background(), demo.NewEmbedded())
	require.Positive(t, count)

	all := svc.All(model.ListQuery{})
	require.Len(t, all, count)
	for i := 1; i < len(all); i++ {
		assert.False(t, all[i].CreatedDate.After(all[i-1].CreatedDate))
	}

	drafts, meta := svc.List(model.ListQuery{Status: "draft"})
	assert.Equal(t, len(drafts), meta.Total)
	for _, tx := range drafts {
		assert.Equal(t, model.TransactionDraft, tx.Status)
	}
}
