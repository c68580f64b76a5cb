package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hotel-pms/internal/persist"
)

type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	for i, d := range dest {
		switch target := d.(type) {
		case *[]byte:
			*target = r.values[i].([]byte)
		case *int64:
			*target = r.values[i].(int64)
		}
	}
	return nil
}

type fakePool struct {
	rows map[string][]byte
	revs map[string]int64
	err  error
}

func newFakePool() *fakePool {
	return &fakePool{rows: map[string][]byte{}, revs: map[string]int64{}}
}

func (p *fakePool) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	if p.err != nil {
		return fakeRow{err: p.err}
	}

	key := args[0].(string)
	if len(args) == 1 {
		payload, ok := p.rows[key]
		if !ok {
			return fakeRow{err: pgx.ErrNoRows}
		}
		return fakeRow{values: []any{payload}}
	}

	p.rows[key] = append([]byte(nil), args[1].([]byte)...)
	p.revs[key]++
	return fakeRow{values: []any{p.revs[key]}}
}

func TestSnapshotRepositoryRoundTrip(t *testing.T) {
	pool := newFakePool()
	repo := NewSnapshotRepository(pool)
	ctx := context.Background()

	_, err := repo.Load(ctx, "leads-store")
	assert.ErrorIs(t, err, persist.ErrNotFound)

	require.NoError(t, repo.Save(ctx, "leads-store", []byte(`{"leads":[]}`)))
	require.NoError(t, repo.Save(ctx, "leads-store", []byte(`{"leads":[{"id":"1"}]}`)))
	assert.Equal(t, int64(2), pool.revs["leads-store"])

	data, err := repo.Load(ctx, "leads-store")
	require.NoError(t, err)
	assert.JSONEq(t, `{"leads":[{"id":"1"}]}`, string(data))
}

func TestSnapshotRepositoryWrapsErrors(t *testing.T) {
	pool := newFakePool()
	pool.err = errors.New("connection reset")
	repo := NewSnapshotRepository(pool)

	_, err := repo.Load(context.Background(), "guests-store")
	require.Error(t, err)
	assert.NotErrorIs(t, err, persist.ErrNotFound)
	assert.Contains(t, err.Error(), "guests-store")

	assert.ErrorContains(t, repo.Save(context.Background(), "guests-store", []byte(`{}`)), "connection reset")
}
