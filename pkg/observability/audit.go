package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/canvass/pkg/domain"
)

// AuditHooks logs every lifecycle event at Info level (rejections at Warn).
// Answer values are never logged.
func AuditHooks(logger *slog.Logger) domain.LifecycleHooks {
	log := func(level slog.Level) func(context.Context, *domain.SessionEvent) {
		return func(ctx context.Context, e *domain.SessionEvent) {
			attrs := []any{
				"survey_id", e.SurveyID,
				"session_id", e.SessionID,
			}
			if e.QuestionID != "" {
				attrs = append(attrs, "question_id", e.QuestionID)
			}
			if e.Declined {
				attrs = append(attrs, "declined", true)
			}
			if e.Err != nil {
				attrs = append(attrs, "code", domain.Code(e.Err), "err", e.Err)
			}
			logger.Log(ctx, level, string(e.Type), attrs...)
		}
	}
	return domain.LifecycleHooks{
		OnQuestionPresented:  log(slog.LevelInfo),
		OnAnswerRecorded:     log(slog.LevelInfo),
		OnQuestionSkipped:    log(slog.LevelInfo),
		OnSurveyComplete:     log(slog.LevelInfo),
		OnSubmissionRejected: log(slog.LevelWarn),
	}
}
