package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/angelahq/angela/internal/domain"
)

const (
	dashboardCacheKey = "dashboard:stats"
	dashboardCacheTTL = 30 * time.Second
)

// ProjectStatsSource provides project counts for the dashboard
type ProjectStatsSource interface {
	CountByStatus(ctx context.Context) (map[domain.ProjectStatus]int64, error)
}

// MeetingStatsSource provides meeting counts for the dashboard
type MeetingStatsSource interface {
	CountInRange(ctx context.Context, from, to time.Time) (int64, error)
}

// SkillStatsSource provides skill aggregates for the dashboard
type SkillStatsSource interface {
	Stats(ctx context.Context) (*domain.SkillStats, error)
}

// PatternStatsSource provides pattern aggregates for the dashboard
type PatternStatsSource interface {
	Stats(ctx context.Context) (*domain.PatternStats, error)
}

// ReminderStatsSource provides reminder aggregates for the dashboard
type ReminderStatsSource interface {
	Stats(ctx context.Context, now, dayStart, dayEnd time.Time) (*domain.ReminderStats, error)
}

// ConversationStatsSource provides chat aggregates for the dashboard
type ConversationStatsSource interface {
	Stats(ctx context.Context) (*domain.ConversationStats, error)
}

// MemoryStatsSource provides memory aggregates for the dashboard
type MemoryStatsSource interface {
	Stats(ctx context.Context) (*domain.MemoryStats, error)
}

// TrainingStatsSource provides training aggregates for the dashboard
type TrainingStatsSource interface {
	Stats(ctx context.Context) (*domain.TrainingStats, error)
}

// DashboardService assembles the front-page stats. Results are cached
// in Redis for a short window so a dashboard left open does not hammer
// eight aggregate queries on every poll.
type DashboardService struct {
	projects      ProjectStatsSource
	meetings      MeetingStatsSource
	skills        SkillStatsSource
	patterns      PatternStatsSource
	reminders     ReminderStatsSource
	conversations ConversationStatsSource
	memory        MemoryStatsSource
	training      TrainingStatsSource
	rdb           *redis.Client
	logger        *zap.Logger
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(
	projects ProjectStatsSource,
	meetings MeetingStatsSource,
	skills SkillStatsSource,
	patterns PatternStatsSource,
	reminders ReminderStatsSource,
	conversations ConversationStatsSource,
	memory MemoryStatsSource,
	training TrainingStatsSource,
	rdb *redis.Client,
	logger *zap.Logger,
) *DashboardService {
	return &DashboardService{
		projects:      projects,
		meetings:      meetings,
		skills:        skills,
		patterns:      patterns,
		reminders:     reminders,
		conversations: conversations,
		memory:        memory,
		training:      training,
		rdb:           rdb,
		logger:        logger,
	}
}

// Stats returns the aggregated dashboard numbers, serving from cache
// when a fresh copy exists. Cache failures fall through to the
// database.
func (s *DashboardService) Stats(ctx context.Context) (*domain.DashboardStats, error) {
	if cached := s.fromCache(ctx); cached != nil {
		return cached, nil
	}

	stats, err := s.collect(ctx)
	if err != nil {
		return nil, err
	}

	s.toCache(ctx, stats)
	return stats, nil
}

func (s *DashboardService) collect(ctx context.Context) (*domain.DashboardStats, error) {
	now := time.Now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	dayEnd := dayStart.Add(24 * time.Hour)
	weekEnd := dayStart.Add(7 * 24 * time.Hour)

	stats := &domain.DashboardStats{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		counts, err := s.projects.CountByStatus(gctx)
		if err != nil {
			return fmt.Errorf("project stats: %w", err)
		}
		for _, n := range counts {
			stats.Projects.Total += n
		}
		stats.Projects.Active = counts[domain.ProjectStatusActive]
		stats.Projects.Paused = counts[domain.ProjectStatusPaused]
		return nil
	})

	g.Go(func() error {
		today, err := s.meetings.CountInRange(gctx, dayStart, dayEnd)
		if err != nil {
			return fmt.Errorf("meeting stats: %w", err)
		}
		week, err := s.meetings.CountInRange(gctx, dayStart, weekEnd)
		if err != nil {
			return fmt.Errorf("meeting stats: %w", err)
		}
		stats.Meetings = domain.MeetingStats{Today: today, ThisWeek: week}
		return nil
	})

	g.Go(func() error {
		out, err := s.skills.Stats(gctx)
		if err != nil {
			return fmt.Errorf("skill stats: %w", err)
		}
		stats.Skills = *out
		return nil
	})

	g.Go(func() error {
		out, err := s.patterns.Stats(gctx)
		if err != nil {
			return fmt.Errorf("pattern stats: %w", err)
		}
		stats.Patterns = *out
		return nil
	})

	g.Go(func() error {
		out, err := s.reminders.Stats(gctx, now, dayStart, dayEnd)
		if err != nil {
			return fmt.Errorf("reminder stats: %w", err)
		}
		stats.Reminders = *out
		return nil
	})

	g.Go(func() error {
		out, err := s.conversations.Stats(gctx)
		if err != nil {
			return fmt.Errorf("conversation stats: %w", err)
		}
		stats.Conversations = *out
		return nil
	})

	g.Go(func() error {
		out, err := s.memory.Stats(gctx)
		if err != nil {
			return fmt.Errorf("memory stats: %w", err)
		}
		stats.Memory = *out
		return nil
	})

	g.Go(func() error {
		out, err := s.training.Stats(gctx)
		if err != nil {
			return fmt.Errorf("training stats: %w", err)
		}
		stats.Training = *out
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return stats, nil
}

func (s *DashboardService) fromCache(ctx context.Context) *domain.DashboardStats {
	if s.rdb == nil {
		return nil
	}

	data, err := s.rdb.Get(ctx, dashboardCacheKey).Bytes()
	if err != nil {
		if err != redis.Nil {
			s.logger.Warn("dashboard cache read failed", zap.Error(err))
		}
		return nil
	}

	var stats domain.DashboardStats
	if err := json.Unmarshal(data, &stats); err != nil {
		s.logger.Warn("dashboard cache entry corrupt", zap.Error(err))
		return nil
	}

	return &stats
}

func (s *DashboardService) toCache(ctx context.Context, stats *domain.DashboardStats) {
	if s.rdb == nil {
		return
	}

	data, err := json.Marshal(stats)
	if err != nil {
		return
	}
	if err := s.rdb.Set(ctx, dashboardCacheKey, data, dashboardCacheTTL).Err(); err != nil {
		s.logger.Warn("dashboard cache write failed", zap.Error(err))
	}
}
