package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordVerdict_CollapsesDistanceReasons(t *testing.T) {
	before := testutil.ToFloat64(ReviewVerdicts.WithLabelValues(OutcomeRejected, "Too far away"))

	RecordVerdict(OutcomeRejected, "Too far away (500m)", time.Now())
	RecordVerdict(OutcomeRejected, "Too far away (1234m)", time.Now())

	after := testutil.ToFloat64(ReviewVerdicts.WithLabelValues(OutcomeRejected, "Too far away"))
	assert.Equal(t, before+2, after)
}

func TestReasonLabel(t *testing.T) {
	assert.Equal(t, "Missing photo proof", reasonLabel("Missing photo proof"))
	assert.Equal(t, "Too far away", reasonLabel("Too far away (201m)"))
	assert.Equal(t, "", reasonLabel(""))
}
