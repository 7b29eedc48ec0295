package model

// StudyItemType tags where a session item came from.
type StudyItemType string

const (
	StudyItemReview StudyItemType = "review"
	StudyItemNew    StudyItemType = "new"
)

// StudySessionItem is one quiz in a composed study session. Transient, never
// persisted.
type StudySessionItem struct {
	Quiz *Quiz
	Type StudyItemType
}

// UserStats is the aggregate answer history shown on the home screen.
type UserStats struct {
	Streak        int     `json:"streak"`
	Accuracy      float64 `json:"accuracy"`
	TotalAnswered int     `json:"total_answered"`
}
