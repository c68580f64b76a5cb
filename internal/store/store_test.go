package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"hotel-pms/internal/persist"
)

type counterState struct {
	Items []string `json:"items"`
	Count int      `json:"count"`
}

func TestStoreMutatePersists(t *testing.T) {
	adapter := persist.NewMemory()
	st := New("counter-store", adapter, counterState{})

	err := st.Mutate(context.Background(), func(state *counterState) error {
		state.Items = append(state.Items, "a")
		state.Count++
		return nil
	})
	require.NoError(t, err)

	reloaded := New("counter-store", adapter, counterState{})
	found, err := reloaded.Hydrate(context.Background())
	require.NoError(t, err)
	require.True(t, found)

	reloaded.Read(func(state *counterState) {
		assert.Equal(t, []string{"a"}, state.Items)
		assert.Equal(t, 1, state.Count)
	})
}

func TestStoreMutateRollsBackOnError(t *testing.T) {
	adapter := persist.NewMemory()
	st := New("counter-store", adapter, counterState{Items: []string{"keep"}, Count: 1})

	boom := errors.New("boom")
	err := st.Mutate(context.Background(), func(state *counterState) error {
		state.Items[0] = "changed"
		state.Count = 99
		return boom
	})
	require.ErrorIs(t, err, boom)

	st.Read(func(state *counterState) {
		assert.Equal(t, []string{"keep"}, state.Items)
		assert.Equal(t, 1, state.Count)
	})

	_, loadErr := adapter.Load(context.Background(), "counter-store")
	assert.ErrorIs(t, loadErr, persist.ErrNotFound)
}

func TestStoreHydrateMissingSnapshot(t *testing.T) {
	st := New("empty-store", persist.NewMemory(), counterState{Count: 7})

	found, err := st.Hydrate(context.Background())
	require.NoError(t, err)
	assert.False(t, found)

	st.Read(func(state *counterState) {
		assert.Equal(t, 7, state.Count)
	})
}

func TestStoreHydrateCorruptSnapshot(t *testing.T) {
	adapter := persist.NewMemory()
	require.NoError(t, adapter.Save(context.Background(), "bad-store", []byte("{not json")))

	st := New("bad-store", adapter, counterState{})
	found, err := st.Hydrate(context.Background())
	assert.False(t, found)
	assert.Error(t, err)
}

func TestStoreSaveFailureKeepsMutation(t *testing.T) {
	adapter := new(persist.MockAdapter)
	adapter.On("Save", mock.Anything, "counter-store", mock.Anything).Return(errors.New("disk full"))

	st := New("counter-store", adapter, counterState{})
	err := st.Mutate(context.Background(), func(state *counterState) error {
		state.Count = 3
		return nil
	})
	require.NoError(t, err)

	st.Read(func(state *counterState) {
		assert.Equal(t, 3, state.Count)
	})
	adapter.AssertExpectations(t)
}
