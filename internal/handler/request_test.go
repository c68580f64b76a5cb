package handler

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateOnlyUpperBoundCoversWholeDay(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/v1/recycle-bin/records?deletedFrom=2024-06-01&deletedTo=2024-06-01", nil)

	filter, err := recordFilterFromQuery(req)
	require.NoError(t, err)
	require.NotNil(t, filter.DeletedFrom)
	require.NotNil(t, filter.DeletedTo)

	assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), *filter.DeletedFrom)
	lateOnTheDay := time.Date(2024, 6, 1, 23, 59, 59, 0, time.UTC)
	assert.False(t, lateOnTheDay.After(*filter.DeletedTo))
	assert.True(t, time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC).After(*filter.DeletedTo))
}

func TestTimestampUpperBoundIsExact(t *testing.T) {
	to, err := untilParam("2024-06-01T10:30:00+02:00", "to")
	require.NoError(t, err)
	require.NotNil(t, to)
	assert.Equal(t, time.Date(2024, 6, 1, 8, 30, 0, 0, time.UTC), *to)

	_, err = untilParam("June 1st", "to")
	assert.Error(t, err)

	empty, err := untilParam("  ", "to")
	require.NoError(t, err)
	assert.Nil(t, empty)
}

func TestAuditQueryToIncludesWholeDay(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/v1/recycle-bin/audit?to=2024-06-01", nil)

	query, err := auditQueryFromRequest(req)
	require.NoError(t, err)
	require.NotNil(t, query.To)
	assert.Equal(t, time.Date(2024, 6, 1, 23, 59, 59, 999999999, time.UTC), *query.To)
}
