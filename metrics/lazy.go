// Copyright (c) 2024 The chainsim developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package metrics

import "sync"

// Lazy-loaded meters bind to the metrics service on first use instead
// of at package init, so a later InitializePrometheusMetrics still
// takes effect.

func LazyLoadCountMeter(name string) func() CountMeter {
	return sync.OnceValue(func() CountMeter { return Counter(name) })
}

func LazyLoadCountVecMeter(name string, labels []string) func() CountVecMeter {
	return sync.OnceValue(func() CountVecMeter { return CounterVec(name, labels) })
}

func LazyLoadGaugeMeter(name string) func() GaugeMeter {
	return sync.OnceValue(func() GaugeMeter { return Gauge(name) })
}

func LazyLoadHistogramMeter(name string, buckets []int64) func() HistogramMeter {
	return sync.OnceValue(func() HistogramMeter { return Histogram(name, buckets) })
}
