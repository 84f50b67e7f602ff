package observability

import (
	"context"
	"net/http"

	"github.com/aretw0/canvass/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors fed by the engine hooks.
type Metrics struct {
	presented *prometheus.CounterVec
	answered  *prometheus.CounterVec
	skipped   *prometheus.CounterVec
	completed *prometheus.CounterVec
	rejected  *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// NewMetrics creates the collectors and registers them on reg.
// A nil reg uses a fresh private registry, which keeps tests isolated.
func NewMetrics(reg *prometheus.Registry) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		presented: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "canvass",
			Name:      "questions_presented_total",
			Help:      "Questions handed to the presentation layer.",
		}, []string{"survey_id", "question_id"}),
		answered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "canvass",
			Name:      "answers_recorded_total",
			Help:      "Accepted answers.",
		}, []string{"survey_id", "question_id"}),
		skipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "canvass",
			Name:      "questions_skipped_total",
			Help:      "Questions resolved without an answer, by reason (rule or declined).",
		}, []string{"survey_id", "question_id", "reason"}),
		completed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "canvass",
			Name:      "surveys_completed_total",
			Help:      "Sessions that reached completion.",
		}, []string{"survey_id"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "canvass",
			Name:      "submissions_rejected_total",
			Help:      "Rejected submissions by error code.",
		}, []string{"survey_id", "code"}),
		gatherer: reg,
	}

	for _, c := range []prometheus.Collector{m.presented, m.answered, m.skipped, m.completed, m.rejected} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Hooks returns lifecycle hooks that record into the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnQuestionPresented: func(ctx context.Context, e *domain.SessionEvent) {
			m.presented.WithLabelValues(e.SurveyID, e.QuestionID).Inc()
		},
		OnAnswerRecorded: func(ctx context.Context, e *domain.SessionEvent) {
			m.answered.WithLabelValues(e.SurveyID, e.QuestionID).Inc()
		},
		OnQuestionSkipped: func(ctx context.Context, e *domain.SessionEvent) {
			reason := "rule"
			if e.Declined {
				reason = "declined"
			}
			m.skipped.WithLabelValues(e.SurveyID, e.QuestionID, reason).Inc()
		},
		OnSurveyComplete: func(ctx context.Context, e *domain.SessionEvent) {
			m.completed.WithLabelValues(e.SurveyID).Inc()
		},
		OnSubmissionRejected: func(ctx context.Context, e *domain.SessionEvent) {
			m.rejected.WithLabelValues(e.SurveyID, domain.Code(e.Err)).Inc()
		},
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
