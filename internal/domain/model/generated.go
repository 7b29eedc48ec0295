package model

import (
	"fmt"
	"strings"

	"learnloop/internal/domain"
)

// GeneratedQuiz is one quiz as emitted by the completion service, before it
// is turned into a persisted Quiz aggregate. Answers reference options by
// their exact text.
type GeneratedQuiz struct {
	Question    string   `json:"question"`
	Options     []string `json:"options"`
	Answers     []string `json:"answers"`
	Explanation string   `json:"explanation"`
}

// GeneratedQuizSet mirrors the JSON document the model is instructed to
// produce: a topic, an optional category and at least one quiz.
type GeneratedQuizSet struct {
	Topic    string          `json:"topic"`
	Category string          `json:"category,omitempty"`
	Quizzes  []GeneratedQuiz `json:"quizzes"`
}

// Validate checks the schema constraints the generation prompt promises:
// at least one quiz, 2-4 options each, at least one answer, and every answer
// matching one of the options verbatim.
func (s *GeneratedQuizSet) Validate() error {
	if len(s.Quizzes) == 0 {
		return fmt.Errorf("%w: no quizzes", domain.ErrSchemaValidation)
	}
	for i, q := range s.Quizzes {
		if strings.TrimSpace(q.Question) == "" {
			return fmt.Errorf("%w: quiz %d has empty question", domain.ErrSchemaValidation, i)
		}
		if len(q.Options) < 2 || len(q.Options) > 4 {
			return fmt.Errorf("%w: quiz %d has %d options, want 2-4", domain.ErrSchemaValidation, i, len(q.Options))
		}
		if len(q.Answers) == 0 {
			return fmt.Errorf("%w: quiz %d has no answers", domain.ErrSchemaValidation, i)
		}
		for _, a := range q.Answers {
			if !contains(q.Options, a) {
				return fmt.Errorf("%w: quiz %d answer %q not among options", domain.ErrSchemaValidation, i, a)
			}
		}
	}
	return nil
}

// EffectiveCategory falls back category -> topic -> "General".
func (s *GeneratedQuizSet) EffectiveCategory() string {
	if s.Category != "" {
		return s.Category
	}
	if s.Topic != "" {
		return s.Topic
	}
	return "General"
}

func contains(ss []string, v string) bool {
	for _, s := range ss {
		if s == v {
			return true
		}
	}
	return false
}
