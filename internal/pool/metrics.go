package pool

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	poolHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vortex_pool_hits_total",
		Help: "Total number of allocations satisfied from the buffer pool",
	})

	poolMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vortex_pool_misses_total",
		Help: "Total number of allocations that fell through to the device allocator",
	})

	poolHeldBytes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "vortex_pool_held_bytes",
		Help: "Bytes currently sitting idle in pool buckets",
	})
)
