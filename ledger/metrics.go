// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package ledger

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcomes of transitions as reported by the transitions metric.
const (
	outcomeAccepted = "accepted"
	outcomeRejected = "rejected"
	outcomeFailed   = "failed"
)

// Operations as reported by the transitions metric.
const (
	opInit    = "init"
	opDeposit = "deposit"
)

type metrics struct {
	transitions *prometheus.CounterVec
	proofTime   prometheus.Histogram
}

func newMetrics() *metrics {
	return &metrics{
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Help:      "Number of processed transitions by operation and outcome",
				Name:      "transitions_total",
				Namespace: "ledger",
			},
			[]string{"op", "outcome"},
		),
		proofTime: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Help:      "Time spent proving and verifying a transition",
				Name:      "proof_seconds",
				Namespace: "ledger",
				Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
			},
		),
	}
}

func (m *metrics) register(registerer prometheus.Registerer) error {
	return errors.Join(
		registerer.Register(m.transitions),
		registerer.Register(m.proofTime),
	)
}

// record counts a finished transition of the given operation.
func (m *metrics) record(op string, err error) {
	outcome := outcomeAccepted
	switch {
	case err == nil:
	case isRejection(err):
		outcome = outcomeRejected
	default:
		outcome = outcomeFailed
	}
	m.transitions.WithLabelValues(op, outcome).Inc()
}

func (m *metrics) observeProof(duration time.Duration) {
	m.proofTime.Observe(duration.Seconds())
}
