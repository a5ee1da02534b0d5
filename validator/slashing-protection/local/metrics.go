package local

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	dutyBlock       = "block"
	dutyAttestation = "attestation"

	resultAllowed = "allowed"
	resultDenied  = "denied"
	resultError   = "error"
)

var (
	// signingDecisionsTotal counts slashing protection decisions by duty and result.
	signingDecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "slashing_protection",
			Name:      "decisions_total",
			Help:      "Number of signing decisions, by duty (block, attestation) and result (allowed, denied, error).",
		},
		[]string{
			"duty",
			"result",
		},
	)
	// lockWaitSeconds measures how long a decision waited for its validator lock.
	lockWaitSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "slashing_protection",
			Name:      "lock_wait_seconds",
			Help:      "Time spent waiting for the per-validator lock.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		},
		[]string{
			"duty",
		},
	)
	trackedValidatorsGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "slashing_protection",
			Name:      "tracked_validators",
			Help:      "Number of validator keys seen by the protector since start.",
		},
	)
)
