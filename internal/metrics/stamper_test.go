package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister_Idempotent(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NoError(t, Register(reg))
	require.NoError(t, Register(reg))
}

func TestObserve(t *testing.T) {
	before := testutil.ToFloat64(StampsTotal.WithLabelValues("OIDC", ResultError))
	ObserveStamp("OIDC", errors.New("boom"))
	assert.Equal(t, before+1, testutil.ToFloat64(StampsTotal.WithLabelValues("OIDC", ResultError)))

	before = testutil.ToFloat64(RotationsTotal.WithLabelValues("commit", ResultOK))
	ObserveLifecycle("commit", nil)
	assert.Equal(t, before+1, testutil.ToFloat64(RotationsTotal.WithLabelValues("commit", ResultOK)))

	ObserveStoreOp("memory", "get", time.Now())
	assert.GreaterOrEqual(t, testutil.CollectAndCount(StoreOpDuration), 1)
}
