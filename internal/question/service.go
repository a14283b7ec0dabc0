package question

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gokatarajesh/trivia-api/internal/logging"
)

// Store is the persistence boundary for questions and categories.
// Lists are returned in id order, categories in type order.
type Store interface {
	ListCategories(ctx context.Context) ([]Category, error)
	ListQuestions(ctx context.Context) ([]Question, error)
	QuestionsByCategory(ctx context.Context, categoryID int) ([]Question, error)
	SearchQuestions(ctx context.Context, term string) ([]Question, error)
	InsertQuestion(ctx context.Context, q NewQuestion) (Question, error)
	// DeleteQuestion returns ErrQuestionNotFound when no row was removed.
	DeleteQuestion(ctx context.Context, id int) error
}

// CategoryCache defines cache behavior (implemented by Redis-backed Cache).
type CategoryCache interface {
	Get(ctx context.Context) ([]Category, bool, error)
	Set(ctx context.Context, categories []Category) error
}

// Page is one slice of the full question list plus listing metadata.
type Page struct {
	Questions  []Question
	Total      int
	Categories []Category
}

// Service implements browsing, search and quiz selection on top of a Store.
type Service struct {
	store Store
	cache CategoryCache
	rng   Rand
}

type ServiceOptions struct {
	// Rand overrides the random source used by NextQuestion.
	Rand Rand
}

// NewService wires the store and optional cache; a nil cache disables caching.
func NewService(store Store, cache CategoryCache, opts ServiceOptions) *Service {
	rng := opts.Rand
	if rng == nil {
		rng = globalRand{}
	}
	return &Service{store: store, cache: cache, rng: rng}
}

// Categories returns every category ordered by type, reading through the cache.
func (s *Service) Categories(ctx context.Context) ([]Category, error) {
	logger := logging.FromContext(ctx)
	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx)
		switch {
		case err != nil:
			logger.Warn().Err(err).Msg("category cache read failed")
		case ok:
			return cached, nil
		}
	}
	categories, err := s.store.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, categories); err != nil {
			logger.Warn().Err(err).Msg("category cache write failed")
		}
	}
	return categories, nil
}

// ResolveCategory returns the category with the given id. The quiz sentinel 0 is not a category.
func (s *Service) ResolveCategory(ctx context.Context, id int) (Category, error) {
	if id <= 0 {
		return Category{}, ErrCategoryNotFound
	}
	categories, err := s.Categories(ctx)
	if err != nil {
		return Category{}, err
	}
	for _, c := range categories {
		if c.ID == id {
			return c, nil
		}
	}
	return Category{}, ErrCategoryNotFound
}

// ListPage returns the requested page together with the total count and all categories.
func (s *Service) ListPage(ctx context.Context, page int) (Page, error) {
	all, err := s.store.ListQuestions(ctx)
	if err != nil {
		return Page{}, fmt.Errorf("list questions: %w", err)
	}
	categories, err := s.Categories(ctx)
	if err != nil {
		return Page{}, err
	}
	return Page{
		Questions:  Paginate(all, page),
		Total:      len(all),
		Categories: categories,
	}, nil
}

// Search returns questions whose text contains term, ignoring case.
func (s *Service) Search(ctx context.Context, term string) ([]Question, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, ErrEmptySearchTerm
	}
	found, err := s.store.SearchQuestions(ctx, term)
	if err != nil {
		return nil, fmt.Errorf("search questions: %w", err)
	}
	return found, nil
}

// QuestionsByCategory returns ErrCategoryNotFound for unknown ids and ErrNoQuestions
// for a known category without questions.
func (s *Service) QuestionsByCategory(ctx context.Context, categoryID int) ([]Question, error) {
	if _, err := s.ResolveCategory(ctx, categoryID); err != nil {
		return nil, err
	}
	questions, err := s.store.QuestionsByCategory(ctx, categoryID)
	if err != nil {
		return nil, fmt.Errorf("questions by category %d: %w", categoryID, err)
	}
	if len(questions) == 0 {
		return nil, ErrNoQuestions
	}
	return questions, nil
}

// CreateQuestion validates input and stores a new question.
func (s *Service) CreateQuestion(ctx context.Context, in NewQuestion) (Question, error) {
	in.Question = strings.TrimSpace(in.Question)
	in.Answer = strings.TrimSpace(in.Answer)
	if err := validateNewQuestion(in); err != nil {
		return Question{}, err
	}
	if _, err := s.ResolveCategory(ctx, in.Category); err != nil {
		return Question{}, err
	}
	created, err := s.store.InsertQuestion(ctx, in)
	if err != nil {
		if errors.Is(err, ErrCategoryNotFound) {
			return Question{}, err
		}
		return Question{}, fmt.Errorf("insert question: %w", err)
	}
	return created, nil
}

func validateNewQuestion(in NewQuestion) error {
	switch {
	case in.Question == "":
		return &ValidationError{Field: "question", Message: "question is required"}
	case in.Answer == "":
		return &ValidationError{Field: "answer", Message: "answer is required"}
	case in.Category <= 0:
		return &ValidationError{Field: "category", Message: "category is required"}
	case in.Difficulty < MinDifficulty || in.Difficulty > MaxDifficulty:
		return &ValidationError{
			Field:   "difficulty",
			Message: fmt.Sprintf("difficulty must be between %d and %d", MinDifficulty, MaxDifficulty),
		}
	}
	return nil
}

// DeleteQuestion removes a question by id.
func (s *Service) DeleteQuestion(ctx context.Context, id int) error {
	if id <= 0 {
		return ErrQuestionNotFound
	}
	if err := s.store.DeleteQuestion(ctx, id); err != nil {
		if errors.Is(err, ErrQuestionNotFound) {
			return err
		}
		return fmt.Errorf("delete question %d: %w", id, err)
	}
	return nil
}

// NextQuestion picks a random question from the category (0 means all) that is not in asked.
// It reports false once the pool is exhausted. Quiz progress lives entirely in asked.
func (s *Service) NextQuestion(ctx context.Context, categoryID int, asked []int) (Question, bool, error) {
	var (
		pool []Question
		err  error
	)
	if categoryID == AllCategories {
		pool, err = s.store.ListQuestions(ctx)
	} else {
		if _, err := s.ResolveCategory(ctx, categoryID); err != nil {
			return Question{}, false, err
		}
		pool, err = s.store.QuestionsByCategory(ctx, categoryID)
	}
	if err != nil {
		return Question{}, false, fmt.Errorf("load quiz pool: %w", err)
	}

	q, ok := PickNext(pool, asked, s.rng)
	return q, ok, nil
}
