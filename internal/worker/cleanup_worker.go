package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/angelahq/angela/internal/config"
)

// TypeCleanup is the task type for the nightly maintenance sweep
const TypeCleanup = "cleanup:run"

// AuditPruner deletes audit log entries past retention.
type AuditPruner interface {
	DeleteBefore(ctx context.Context, before time.Time) (int64, error)
}

// ConversationArchiver archives conversations idle past retention.
type ConversationArchiver interface {
	ArchiveIdle(ctx context.Context, before time.Time) (int64, error)
}

// SkillDecayer applies idle decay across the skill tree.
type SkillDecayer interface {
	DecayAll(ctx context.Context, asOf time.Time) (int, error)
}

// PatternDecayer erodes confidence on stale patterns.
type PatternDecayer interface {
	DecayAll(ctx context.Context, asOf time.Time) (int, error)
}

// CleanupWorker runs the nightly maintenance sweep: proficiency and
// confidence decay, audit retention and idle-conversation archival.
type CleanupWorker struct {
	logger        *zap.Logger
	audit         AuditPruner
	conversations ConversationArchiver
	skills        SkillDecayer
	patterns      PatternDecayer
	retention     config.RetentionConfig
}

// NewCleanupWorker creates a new cleanup worker
func NewCleanupWorker(
	logger *zap.Logger,
	audit AuditPruner,
	conversations ConversationArchiver,
	skills SkillDecayer,
	patterns PatternDecayer,
	retention config.RetentionConfig,
) *CleanupWorker {
	return &CleanupWorker{
		logger:        logger,
		audit:         audit,
		conversations: conversations,
		skills:        skills,
		patterns:      patterns,
		retention:     retention,
	}
}

// RegisterHandlers registers the cleanup task handler
func (w *CleanupWorker) RegisterHandlers(mux *asynq.ServeMux) {
	mux.HandleFunc(TypeCleanup, w.HandleCleanup)
}

// HandleCleanup runs every maintenance leg even when one fails, then
// reports the failures together so the task retries.
func (w *CleanupWorker) HandleCleanup(ctx context.Context, t *asynq.Task) error {
	asOf := time.Now()
	var errs []error

	skillCount, err := w.skills.DecayAll(ctx, asOf)
	if err != nil {
		errs = append(errs, fmt.Errorf("skill decay: %w", err))
	}

	patternCount, err := w.patterns.DecayAll(ctx, asOf)
	if err != nil {
		errs = append(errs, fmt.Errorf("pattern decay: %w", err))
	}

	var auditPurged, archived int64
	if w.retention.Enabled {
		if w.retention.AuditDays > 0 {
			cutoff := asOf.AddDate(0, 0, -w.retention.AuditDays)
			auditPurged, err = w.audit.DeleteBefore(ctx, cutoff)
			if err != nil {
				errs = append(errs, fmt.Errorf("audit purge: %w", err))
			}
		}

		if w.retention.ConversationIdleDays > 0 {
			cutoff := asOf.AddDate(0, 0, -w.retention.ConversationIdleDays)
			archived, err = w.conversations.ArchiveIdle(ctx, cutoff)
			if err != nil {
				errs = append(errs, fmt.Errorf("conversation archive: %w", err))
			}
		}
	}

	w.logger.Info("cleanup sweep complete",
		zap.Int("skillsDecayed", skillCount),
		zap.Int("patternsDecayed", patternCount),
		zap.Int64("auditPurged", auditPurged),
		zap.Int64("conversationsArchived", archived),
		zap.Int("failures", len(errs)),
	)

	return errors.Join(errs...)
}
