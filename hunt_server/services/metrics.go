package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pointsAwarded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hunt_points_awarded_total",
		Help: "Total points added to leaderboards by scored attempts.",
	})

	attemptsRecorded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hunt_attempts_recorded_total",
		Help: "Quiz attempts accepted from the AR client.",
	})

	attemptsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hunt_attempts_rejected_total",
		Help: "Quiz attempts rejected from the AR client.",
	}, []string{"reason"})

	cascadeDeletes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hunt_cascade_deletes_total",
		Help: "Rows removed by cascading deletes.",
	}, []string{"entity"})

	unityRequestDuration = promauto.NewSummaryVec(prometheus.SummaryOpts{
		Name:       "hunt_unity_request_duration_seconds",
		Help:       "Latency of requests from the AR client.",
		Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
	}, []string{"endpoint"})
)
