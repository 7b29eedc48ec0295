package usecase

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"learnloop/internal/domain/model"
	"learnloop/internal/domain/ports/repository"
	"learnloop/internal/infra/logging"
)

// StatsCache caches computed user stats. A cache miss returns
// domain.ErrNotFound; Invalidate on an absent key is a no-op.
type StatsCache interface {
	Get(ctx context.Context, userID string) (*model.UserStats, error)
	Set(ctx context.Context, userID string, stats *model.UserStats) error
	Invalidate(ctx context.Context, userID string) error
}

var _ StatsUseCase = (*statsUC)(nil)

type StatsUseCase interface {
	GetUserStats(ctx context.Context, userID string) (*model.UserStats, error)
}

type statsUC struct {
	progress repository.ProgressRepository
	cache    StatsCache
	now      func() time.Time
	log      *zerolog.Logger
}

func NewStatsUseCase(progress repository.ProgressRepository, cache StatsCache, logger *zerolog.Logger) *statsUC {
	return &statsUC{progress: progress, cache: cache, now: time.Now, log: logger}
}

// GetUserStats serves from cache when possible and recomputes from the
// progress table otherwise. The cache is best-effort: a broken cache degrades
// to a recompute, never to an error.
func (u *statsUC) GetUserStats(ctx context.Context, userID string) (*model.UserStats, error) {
	defer logging.TraceDuration(u.log, "StatsUC.GetUserStats")()

	if u.cache != nil {
		if cached, err := u.cache.Get(ctx, userID); err == nil && cached != nil {
			return cached, nil
		}
	}

	rows, err := u.progress.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	stats := computeStats(rows, u.now())

	if u.cache != nil {
		if err := u.cache.Set(ctx, userID, stats); err != nil {
			u.log.Warn().Err(err).Str("user_id", userID).Msg("stats cache write failed")
		}
	}
	return stats, nil
}

// computeStats folds the progress rows into the home-screen aggregate.
// Streak counts consecutive calendar days with at least one answer, walking
// back from today; a streak whose latest day is yesterday still counts (the
// user has until midnight to keep it alive).
func computeStats(rows []*model.QuizProgress, now time.Time) *model.UserStats {
	stats := &model.UserStats{}
	days := make(map[string]bool)
	correct, answered := 0, 0

	for _, p := range rows {
		if p.AttemptCount == 0 {
			continue
		}
		stats.TotalAnswered += p.AttemptCount
		answered++
		if p.IsCorrect {
			correct++
		}
		if p.LastAnsweredAt != nil {
			days[p.LastAnsweredAt.Format("2006-01-02")] = true
		}
	}

	if answered > 0 {
		stats.Accuracy = math.Round(float64(correct)/float64(answered)*10000) / 100
	}
	stats.Streak = streakDays(days, now)
	return stats
}

func streakDays(days map[string]bool, now time.Time) int {
	if len(days) == 0 {
		return 0
	}
	dates := make([]string, 0, len(days))
	for d := range days {
		dates = append(dates, d)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))

	today := now.Format("2006-01-02")
	yesterday := now.AddDate(0, 0, -1).Format("2006-01-02")
	if dates[0] != today && dates[0] != yesterday {
		return 0
	}

	streak := 1
	cursor, _ := time.Parse("2006-01-02", dates[0])
	for _, d := range dates[1:] {
		prev := cursor.AddDate(0, 0, -1).Format("2006-01-02")
		if d != prev {
			break
		}
		streak++
		cursor, _ = time.Parse("2006-01-02", d)
	}
	return streak
}
