package kernel

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vortex_kernel_cache_hits_total",
		Help: "Total number of kernel requests served from the cache",
	})

	cacheCompiles = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vortex_kernel_compiles_total",
		Help: "Total number of kernel compilations",
	})
)
