package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	RecommendationsSaved     prometheus.Counter
	RecommendationsSubmitted prometheus.Counter
	RecommendationsArchived  *prometheus.CounterVec
	SubmissionRejections     prometheus.Counter
	PollFailures             prometheus.Counter

	RostersApplied        prometheus.Counter
	RosterDoctorsUpserted prometheus.Counter
	DoctorsDisconnected   prometheus.Counter
	DisconnectRaceSkips   prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		RecommendationsSaved: promauto.NewCounter(prometheus.CounterOpts{
			Name: "revalid_recommendations_saved_total",
			Help: "Total number of recommendations created or updated",
		}),
		RecommendationsSubmitted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "revalid_recommendations_submitted_total",
			Help: "Total number of recommendations accepted by the regulator",
		}),
		RecommendationsArchived: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "revalid_recommendations_archived_total",
			Help: "Total number of recommendations resolved and archived, by outcome",
		}, []string{"outcome"}),
		SubmissionRejections: promauto.NewCounter(prometheus.CounterOpts{
			Name: "revalid_submission_rejections_total",
			Help: "Total number of submissions the regulator refused",
		}),
		PollFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "revalid_outcome_poll_failures_total",
			Help: "Total number of outcome polls that could not reach the regulator",
		}),
		RostersApplied: promauto.NewCounter(prometheus.CounterOpts{
			Name: "revalid_rosters_applied_total",
			Help: "Total number of roster collected events processed",
		}),
		RosterDoctorsUpserted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "revalid_roster_doctors_upserted_total",
			Help: "Total number of doctor records upserted from rosters",
		}),
		DoctorsDisconnected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "revalid_doctors_disconnected_total",
			Help: "Total number of doctors disconnected by stale sweeps",
		}),
		DisconnectRaceSkips: promauto.NewCounter(prometheus.CounterOpts{
			Name: "revalid_disconnect_race_skips_total",
			Help: "Total number of disconnect candidates skipped because another collection reassigned them",
		}),
	}
}

func (m *Metrics) IncrementRecommendationsSaved() {
	m.RecommendationsSaved.Inc()
}

func (m *Metrics) IncrementRecommendationsSubmitted() {
	m.RecommendationsSubmitted.Inc()
}

func (m *Metrics) IncrementRecommendationsArchived(outcome string) {
	m.RecommendationsArchived.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncrementSubmissionRejections() {
	m.SubmissionRejections.Inc()
}

func (m *Metrics) IncrementPollFailures() {
	m.PollFailures.Inc()
}

func (m *Metrics) IncrementRostersApplied() {
	m.RostersApplied.Inc()
}

func (m *Metrics) AddRosterDoctorsUpserted(n int) {
	m.RosterDoctorsUpserted.Add(float64(n))
}

func (m *Metrics) IncrementDoctorsDisconnected() {
	m.DoctorsDisconnected.Inc()
}

func (m *Metrics) IncrementDisconnectRaceSkips() {
	m.DisconnectRaceSkips.Inc()
}
