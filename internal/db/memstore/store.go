// Package memstore is an in-process question store used for tests and local runs.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/gokatarajesh/trivia-api/internal/question"
)

// Store keeps categories and questions in memory behind a RWMutex.
type Store struct {
	mu         sync.RWMutex
	categories map[int]question.Category
	questions  map[int]question.Question
	nextID     int
}

var _ question.Store = (*Store)(nil)

// New returns a store seeded with the given rows.
func New(categories []question.Category, questions []question.Question) *Store {
	s := &Store{
		categories: make(map[int]question.Category, len(categories)),
		questions:  make(map[int]question.Question, len(questions)),
		nextID:     1,
	}
	for _, c := range categories {
		s.categories[c.ID] = c
	}
	for _, q := range questions {
		s.questions[q.ID] = q
		if q.ID >= s.nextID {
			s.nextID = q.ID + 1
		}
	}
	return s
}

func (s *Store) ListCategories(_ context.Context) ([]question.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]question.Category, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out, nil
}

func (s *Store) ListQuestions(_ context.Context) ([]question.Question, error) {
	return s.filter(func(question.Question) bool { return true }), nil
}

func (s *Store) QuestionsByCategory(_ context.Context, categoryID int) ([]question.Question, error) {
	return s.filter(func(q question.Question) bool { return q.Category == categoryID }), nil
}

func (s *Store) SearchQuestions(_ context.Context, term string) ([]question.Question, error) {
	needle := strings.ToLower(term)
	return s.filter(func(q question.Question) bool {
		return strings.Contains(strings.ToLower(q.Question), needle)
	}), nil
}

func (s *Store) InsertQuestion(_ context.Context, in question.NewQuestion) (question.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.categories[in.Category]; !ok {
		return question.Question{}, question.ErrCategoryNotFound
	}
	q := question.Question{
		ID:         s.nextID,
		Question:   in.Question,
		Answer:     in.Answer,
		Difficulty: in.Difficulty,
		Category:   in.Category,
	}
	s.questions[q.ID] = q
	s.nextID++
	return q, nil
}

func (s *Store) DeleteQuestion(_ context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.questions[id]; !ok {
		return question.ErrQuestionNotFound
	}
	delete(s.questions, id)
	return nil
}

// filter returns matching questions ordered by id.
func (s *Store) filter(keep func(question.Question) bool) []question.Question {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]question.Question, 0, len(s.questions))
	for _, q := range s.questions {
		if keep(q) {
			out = append(out, q)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
