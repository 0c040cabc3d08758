package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(dbPoolConns, dbPoolEmptyAcquires) }

var (
	dbPoolConns = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "interview_db_pool_connections",
			Help: "Connections in the session store pool by state.",
		},
		[]string{"state"}, // total | idle | in_use | max
	)
	dbPoolEmptyAcquires = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "interview_db_pool_empty_acquires",
			Help: "Acquires that had to wait because every connection was busy (cumulative, as reported by the pool).",
		},
	)
)

// PoolSnapshot is one sample of the session store pool.
type PoolSnapshot struct {
	Total, Idle, InUse, Max int32
	EmptyAcquires           int64
}

// Saturated reports whether turns are queueing for a connection.
func (s PoolSnapshot) Saturated() bool {
	return s.Max > 0 && s.InUse >= s.Max
}

func SetDBPoolStats(s PoolSnapshot) {
	dbPoolConns.WithLabelValues("total").Set(float64(s.Total))
	dbPoolConns.WithLabelValues("idle").Set(float64(s.Idle))
	dbPoolConns.WithLabelValues("in_use").Set(float64(s.InUse))
	dbPoolConns.WithLabelValues("max").Set(float64(s.Max))
	dbPoolEmptyAcquires.Set(float64(s.EmptyAcquires))
}
