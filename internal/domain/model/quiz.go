package model

import (
	"strings"
	"time"

	"learnloop/internal/domain"
)

// SourceType records where a quiz originally came from.
type SourceType string

const (
	SourceTypeNotion SourceType = "notion"
	SourceTypeImport SourceType = "import"
	SourceTypeManual SourceType = "manual"
)

type QuizOption struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	IsCorrect bool   `json:"isCorrect"`
}

// Quiz is one flashcard-style question owned by a user. Options are stored
// as a jsonb column, so the struct carries its own JSON tags.
type Quiz struct {
	ID          string
	UserID      string
	Question    string
	Options     []QuizOption
	Explanation string
	Category    string
	SourceType  SourceType
	SourceURL   string
	CreatedAt   time.Time
}

func NewQuiz(id, userID, question string, options []QuizOption, explanation, category string, sourceType SourceType, sourceURL string) (*Quiz, error) {
	if userID == "" || strings.TrimSpace(question) == "" {
		return nil, domain.ErrInvalidArgument
	}
	if len(options) < 2 {
		return nil, domain.ErrInvalidArgument
	}
	if category == "" {
		category = "General"
	}
	return &Quiz{
		ID:          id,
		UserID:      userID,
		Question:    question,
		Options:     options,
		Explanation: explanation,
		Category:    category,
		SourceType:  sourceType,
		SourceURL:   sourceURL,
		CreatedAt:   time.Now(),
	}, nil
}

// CorrectOptionIDs returns the ids of the options marked correct.
func (q *Quiz) CorrectOptionIDs() []string {
	var out []string
	for _, o := range q.Options {
		if o.IsCorrect {
			out = append(out, o.ID)
		}
	}
	return out
}
