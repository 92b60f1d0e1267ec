package services

import "github.com/prometheus/client_golang/prometheus"

var (
	checkinSubmissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkin_submissions_total",
			Help: "Check-in submission attempts by result",
		},
		[]string{"result"},
	)
	checkinResolutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkin_resolutions_total",
			Help: "Pending check-ins resolved, by terminal status",
		},
		[]string{"status"},
	)
	quorumEvaluationsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "quorum_evaluations_total",
			Help: "Approval-signal evaluations performed",
		},
	)
)

// InitMetrics registers the domain metrics. Call this from main.go
func InitMetrics() {
	prometheus.MustRegister(checkinSubmissionsTotal)
	prometheus.MustRegister(checkinResolutionsTotal)
	prometheus.MustRegister(quorumEvaluationsTotal)
}
