package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type RewardsMetrics struct {
	awardsTotal     *prometheus.CounterVec
	pointsTotal     *prometheus.CounterVec
	duplicates      *prometheus.CounterVec
	claimsSubmitted prometheus.Counter
	claimsReviewed  *prometheus.CounterVec
	compensations   *prometheus.CounterVec
	balanceDrift    prometheus.Gauge
}

var (
	rewardsOnce     sync.Once
	rewardsRegistry *RewardsMetrics
)

func Rewards() *RewardsMetrics {
	rewardsOnce.Do(func() {
		rewardsRegistry = &RewardsMetrics{
			awardsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "rewards_award_events_total",
				Help: "Award events appended to the ledger by kind.",
			}, []string{"kind"}),
			pointsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "rewards_points_awarded_total",
				Help: "Points granted by award kind.",
			}, []string{"kind"}),
			duplicates: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "rewards_duplicate_requests_total",
				Help: "Requests resolved through the idempotent path, by operation and cause.",
			}, []string{"operation", "cause"}),
			claimsSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "rewards_spotlight_claims_submitted_total",
				Help: "Spotlight claims recorded as pending.",
			}),
			claimsReviewed: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "rewards_spotlight_claims_reviewed_total",
				Help: "Spotlight claim moderation decisions.",
			}, []string{"decision"}),
			compensations: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "rewards_evidence_compensations_total",
				Help: "Compensating evidence deletions by outcome.",
			}, []string{"outcome"}),
			balanceDrift: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "rewards_balance_cache_drift_users",
				Help: "Users whose cached balance differed from the event log on the last audit.",
			}),
		}
		prometheus.MustRegister(
			rewardsRegistry.awardsTotal,
			rewardsRegistry.pointsTotal,
			rewardsRegistry.duplicates,
			rewardsRegistry.claimsSubmitted,
			rewardsRegistry.claimsReviewed,
			rewardsRegistry.compensations,
			rewardsRegistry.balanceDrift,
		)
	})
	return rewardsRegistry
}

func (m *RewardsMetrics) ObserveAward(kind string, amount int64) {
	if m == nil {
		return
	}
	if kind == "" {
		kind = "unknown"
	}
	m.awardsTotal.WithLabelValues(kind).Inc()
	m.pointsTotal.WithLabelValues(kind).Add(float64(amount))
}

func (m *RewardsMetrics) ObserveDuplicate(operation, cause string) {
	if m == nil {
		return
	}
	m.duplicates.WithLabelValues(operation, cause).Inc()
}

func (m *RewardsMetrics) ObserveClaimSubmitted() {
	if m == nil {
		return
	}
	m.claimsSubmitted.Inc()
}

func (m *RewardsMetrics) ObserveClaimReviewed(decision string) {
	if m == nil {
		return
	}
	m.claimsReviewed.WithLabelValues(decision).Inc()
}

func (m *RewardsMetrics) ObserveCompensation(outcome string) {
	if m == nil {
		return
	}
	m.compensations.WithLabelValues(outcome).Inc()
}

func (m *RewardsMetrics) SetBalanceDrift(users int) {
	if m == nil {
		return
	}
	m.balanceDrift.Set(float64(users))
}
