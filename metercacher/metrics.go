// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package metercacher

import (
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

const resultLabel = "result"

var (
	resultLabels = []string{resultLabel}
	hitLabels    = prometheus.Labels{resultLabel: "hit"}
	missLabels   = prometheus.Labels{resultLabel: "miss"}
)

type cacheMetrics struct {
	getCount *prometheus.CounterVec
	getTime  *prometheus.CounterVec

	staleHits prometheus.Counter

	putCount prometheus.Counter
	putTime  prometheus.Counter

	len           prometheus.Gauge
	memory        prometheus.Gauge
	portionFilled prometheus.Gauge

	tagInvalidated prometheus.Counter
	clears         prometheus.Counter
}

func newMetrics(namespace string, reg prometheus.Registerer) (*cacheMetrics, error) {
	m := &cacheMetrics{
		getCount: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "get_count",
				Help:      "number of get calls",
			},
			resultLabels,
		),
		getTime: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "get_time",
				Help:      "time spent (ns) in get calls",
			},
			resultLabels,
		),
		staleHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stale_hits",
			Help:      "number of hits served from the stale window",
		}),
		putCount: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "put_count",
			Help:      "number of put calls",
		}),
		putTime: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "put_time",
			Help:      "time spent (ns) in put calls",
		}),
		len: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "len",
			Help:      "number of entries",
		}),
		memory: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "memory_bytes",
			Help:      "summed size of entries in bytes",
		}),
		portionFilled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "portion_filled",
			Help:      "fraction of cache filled",
		}),
		tagInvalidated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tag_invalidated_entries",
			Help:      "number of entries removed by tag invalidation",
		}),
		clears: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "clears",
			Help:      "number of clear calls",
		}),
	}

	collectors := []prometheus.Collector{
		m.getCount,
		m.getTime,
		m.staleHits,
		m.putCount,
		m.putTime,
		m.len,
		m.memory,
		m.portionFilled,
		m.tagInvalidated,
		m.clears,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return m, errors.Wrapf(err, "registering %s cache metrics", namespace)
		}
	}
	return m, nil
}
