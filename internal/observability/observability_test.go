package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetricsForTesting_Registerable(t *testing.T) {
	m := NewMetricsForTesting()
	reg := prometheus.NewRegistry()
	require.NoError(t, reg.Register(m.CompositesProduced))
	require.NoError(t, reg.Register(m.SceneCache))

	m.CompositesProduced.Inc()
	m.SceneCache.WithLabelValues("hit").Add(2)

	assert.InDelta(t, 1.0, testutil.ToFloat64(m.CompositesProduced), 0)
	assert.InDelta(t, 2.0, testutil.ToFloat64(m.SceneCache.WithLabelValues("hit")), 0)
}
