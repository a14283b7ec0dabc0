package repository

import (
	"context"
	"errors"
	"math"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	sqlcgen "github.com/gokatarajesh/trivia-api/internal/db/sqlc"
	"github.com/gokatarajesh/trivia-api/internal/question"
)

// foreignKeyViolation is the Postgres SQLSTATE for a broken REFERENCES constraint.
const foreignKeyViolation = "23503"

type questionStore interface {
	ListCategories(ctx context.Context) ([]sqlcgen.Category, error)
	ListQuestions(ctx context.Context) ([]sqlcgen.Question, error)
	ListQuestionsByCategory(ctx context.Context, category int32) ([]sqlcgen.Question, error)
	SearchQuestions(ctx context.Context, pattern string) ([]sqlcgen.Question, error)
	InsertQuestion(ctx context.Context, arg sqlcgen.InsertQuestionParams) (sqlcgen.Question, error)
	DeleteQuestion(ctx context.Context, id int32) (int64, error)
}

// QuestionRepository adapts sqlc queries to the question.Store contract.
type QuestionRepository struct {
	store questionStore
}

var _ question.Store = (*QuestionRepository)(nil)

func NewQuestionRepository(store questionStore) *QuestionRepository {
	return &QuestionRepository{store: store}
}

// ListCategories returns categories ordered by type.
func (r *QuestionRepository) ListCategories(ctx context.Context) ([]question.Category, error) {
	rows, err := r.store.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	categories := make([]question.Category, len(rows))
	for i, row := range rows {
		categories[i] = question.Category{ID: int(row.ID), Type: row.Type}
	}
	return categories, nil
}

// ListQuestions returns every question ordered by id.
func (r *QuestionRepository) ListQuestions(ctx context.Context) ([]question.Question, error) {
	rows, err := r.store.ListQuestions(ctx)
	if err != nil {
		return nil, err
	}
	return toDomainList(rows), nil
}

func (r *QuestionRepository) QuestionsByCategory(ctx context.Context, categoryID int) ([]question.Question, error) {
	if outOfRange(categoryID) {
		return []question.Question{}, nil
	}
	rows, err := r.store.ListQuestionsByCategory(ctx, int32(categoryID))
	if err != nil {
		return nil, err
	}
	return toDomainList(rows), nil
}

// SearchQuestions runs a case-insensitive substring match; LIKE wildcards in term match literally.
func (r *QuestionRepository) SearchQuestions(ctx context.Context, term string) ([]question.Question, error) {
	rows, err := r.store.SearchQuestions(ctx, escapeLike(term))
	if err != nil {
		return nil, err
	}
	return toDomainList(rows), nil
}

// InsertQuestion stores a question; a missing category surfaces as question.ErrCategoryNotFound.
func (r *QuestionRepository) InsertQuestion(ctx context.Context, in question.NewQuestion) (question.Question, error) {
	if outOfRange(in.Category) {
		return question.Question{}, question.ErrCategoryNotFound
	}
	row, err := r.store.InsertQuestion(ctx, sqlcgen.InsertQuestionParams{
		Question:   in.Question,
		Answer:     in.Answer,
		Category:   int32(in.Category),
		Difficulty: int32(in.Difficulty),
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
			return question.Question{}, question.ErrCategoryNotFound
		}
		return question.Question{}, err
	}
	return toDomain(row), nil
}

// DeleteQuestion removes one row in a single statement.
func (r *QuestionRepository) DeleteQuestion(ctx context.Context, id int) error {
	if outOfRange(id) {
		return question.ErrQuestionNotFound
	}
	affected, err := r.store.DeleteQuestion(ctx, int32(id))
	if err != nil {
		return err
	}
	if affected == 0 {
		return question.ErrQuestionNotFound
	}
	return nil
}

// outOfRange reports whether id cannot be a SERIAL key.
func outOfRange(id int) bool {
	return id < math.MinInt32 || id > math.MaxInt32
}

func toDomain(row sqlcgen.Question) question.Question {
	return question.Question{
		ID:         int(row.ID),
		Question:   row.Question,
		Answer:     row.Answer,
		Difficulty: int(row.Difficulty),
		Category:   int(row.Category),
	}
}

func toDomainList(rows []sqlcgen.Question) []question.Question {
	out := make([]question.Question, len(rows))
	for i, row := range rows {
		out[i] = toDomain(row)
	}
	return out
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(term string) string {
	return likeEscaper.Replace(term)
}
