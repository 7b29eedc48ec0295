//go:build !integration

package model_test

import (
	"errors"
	"testing"

	"learnloop/internal/domain"
	"learnloop/internal/domain/model"
)

func validSet() model.GeneratedQuizSet {
	return model.GeneratedQuizSet{
		Topic:    "Go concurrency",
		Category: "Programming",
		Quizzes: []model.GeneratedQuiz{
			{
				Question:    "What does a buffered channel do when full?",
				Options:     []string{"Blocks senders", "Drops values", "Panics"},
				Answers:     []string{"Blocks senders"},
				Explanation: "Sends block until a receiver frees a slot.",
			},
		},
	}
}

func TestGeneratedQuizSetValidate(t *testing.T) {
	t.Run("valid set passes", func(t *testing.T) {
		s := validSet()
		if err := s.Validate(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	mutations := []struct {
		name   string
		mutate func(*model.GeneratedQuizSet)
	}{
		{"no quizzes", func(s *model.GeneratedQuizSet) { s.Quizzes = nil }},
		{"empty question", func(s *model.GeneratedQuizSet) { s.Quizzes[0].Question = "  " }},
		{"too few options", func(s *model.GeneratedQuizSet) { s.Quizzes[0].Options = []string{"only one"} }},
		{"too many options", func(s *model.GeneratedQuizSet) {
			s.Quizzes[0].Options = []string{"a", "b", "c", "d", "e"}
		}},
		{"no answers", func(s *model.GeneratedQuizSet) { s.Quizzes[0].Answers = nil }},
		{"answer not among options", func(s *model.GeneratedQuizSet) {
			s.Quizzes[0].Answers = []string{"Buffers forever"}
		}},
	}
	for _, tc := range mutations {
		t.Run(tc.name, func(t *testing.T) {
			s := validSet()
			tc.mutate(&s)
			err := s.Validate()
			if !errors.Is(err, domain.ErrSchemaValidation) {
				t.Errorf("got %v, want ErrSchemaValidation", err)
			}
		})
	}
}

func TestEffectiveCategory(t *testing.T) {
	cases := []struct {
		name     string
		category string
		topic    string
		want     string
	}{
		{"category wins", "Programming", "Go", "Programming"},
		{"topic fallback", "", "Go", "Go"},
		{"default fallback", "", "", "General"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := model.GeneratedQuizSet{Category: tc.category, Topic: tc.topic}
			if got := s.EffectiveCategory(); got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}
