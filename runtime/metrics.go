// Copyright (c) 2024 The chainsim developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package runtime

import "github.com/chainsim/chainsim/metrics"

var (
	metricExecutionCount = metrics.LazyLoadCountVecMeter("execution_count", []string{"status"})
	metricDispatchDepth  = metrics.LazyLoadHistogramMeter("dispatch_depth", []int64{0, 1, 2, 4, 8, 16, 32})
)
