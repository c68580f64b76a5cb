package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveMutationIncrementsCounter(t *testing.T) {
	before := testutil.ToFloat64(mutationsTotal.WithLabelValues("recycle_bin", "archive"))
	ObserveMutation("recycle_bin", "archive")
	ObserveMutation("recycle_bin", "archive")

	after := testutil.ToFloat64(mutationsTotal.WithLabelValues("recycle_bin", "archive"))
	assert.Equal(t, before+2, after)
}

func TestObserveRejectionIncrementsCounter(t *testing.T) {
	before := testutil.ToFloat64(rejectionsTotal.WithLabelValues("transactions", "invalid_transition"))
	ObserveRejection("transactions", "invalid_transition")

	after := testutil.ToFloat64(rejectionsTotal.WithLabelValues("transactions", "invalid_transition"))
	assert.Equal(t, before+1, after)
}

func TestObserveRequestUsesStatusClass(t *testing.T) {
	before := testutil.CollectAndCount(httpRequestDuration)
	ObserveRequest("PATCH", 418, 5*time.Millisecond)

	assert.Equal(t, before+1, testutil.CollectAndCount(httpRequestDuration))
}
