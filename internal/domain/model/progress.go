package model

import (
	"math"
	"time"
)

// MinEaseFactor is the SM-2 lower bound for the ease factor. Every update
// clamps to this value, no matter how many wrong answers accumulate.
const MinEaseFactor = 1.3

// QuizProgress is the per-user, per-quiz memory state driving the
// spaced-repetition schedule. Created on the first answer, mutated on every
// answer after that.
type QuizProgress struct {
	UserID         string
	QuizID         string
	AttemptCount   int
	IntervalDays   int
	CurrentStreak  int
	EaseFactor     float64
	IsCorrect      bool
	NextReviewAt   *time.Time
	LastAnsweredAt *time.Time
	Hidden         bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewQuizProgress returns the zero-state row used before the first answer.
func NewQuizProgress(userID, quizID string) QuizProgress {
	now := time.Now()
	return QuizProgress{
		UserID:     userID,
		QuizID:     quizID,
		EaseFactor: 2.5,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// ComputeNextReview applies one SM-2 step to a progress row and returns the
// updated copy. Pure: the caller persists the result.
//
// The classic 0-5 quality scale is collapsed to two values: a correct answer
// counts as quality 4, a wrong one as quality 1. With q=4 the ease factor is
// unchanged; with q=1 it drops by 0.54, clamped at MinEaseFactor.
//
// Interval schedule on correct answers: 1 day after the first hit of a
// streak, 6 days after the second, then ceil(interval * EF), which produces
// the widening 1 -> 6 -> 15 -> 38 -> ... sequence. Any wrong answer resets
// the streak to 0 and the interval to 1 day.
func ComputeNextReview(isCorrect bool, p QuizProgress, now time.Time) QuizProgress {
	quality := 1.0
	if isCorrect {
		quality = 4.0
	}

	// SM-2: EF' = EF + (0.1 - (5-q)*(0.08 + (5-q)*0.02))
	ef := p.EaseFactor + (0.1 - (5-quality)*(0.08+(5-quality)*0.02))
	if ef < MinEaseFactor {
		ef = MinEaseFactor
	}

	next := p
	next.EaseFactor = ef
	next.AttemptCount = p.AttemptCount + 1
	next.IsCorrect = isCorrect

	if isCorrect {
		next.CurrentStreak = p.CurrentStreak + 1
		switch next.CurrentStreak {
		case 1:
			next.IntervalDays = 1
		case 2:
			next.IntervalDays = 6
		default:
			next.IntervalDays = int(math.Ceil(float64(p.IntervalDays) * ef))
		}
	} else {
		next.CurrentStreak = 0
		next.IntervalDays = 1
	}

	due := now.AddDate(0, 0, next.IntervalDays)
	next.NextReviewAt = &due
	answered := now
	next.LastAnsweredAt = &answered
	next.UpdatedAt = now
	return next
}

// Due reports whether the row is ready for review at the given instant.
// Rows without a schedule (never answered) are not due; they surface through
// the unseen path instead.
func (p QuizProgress) Due(now time.Time) bool {
	if p.Hidden || p.NextReviewAt == nil {
		return false
	}
	return !p.NextReviewAt.After(now)
}
