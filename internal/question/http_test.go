package question_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/trivia-api/internal/db/memstore"
	"github.com/gokatarajesh/trivia-api/internal/question"
)

func newTestMux(t *testing.T, store question.Store) *http.ServeMux {
	t.Helper()
	svc := question.NewService(store, nil, question.ServiceOptions{Rand: rand.New(rand.NewPCG(1, 1))})
	handlers := question.NewHTTPHandlers(svc, zerolog.Nop())
	mux := http.NewServeMux()
	handlers.Register(mux)
	mux.HandleFunc("/", handlers.NotFound)
	return mux
}

func do(t *testing.T, mux http.Handler, method, path string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), "body: %s", w.Body.String())
	return w.Code, out
}

func assertFailure(t *testing.T, status int, code int, body map[string]interface{}) {
	t.Helper()
	assert.Equal(t, status, code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, float64(status), body["error"])
	assert.Equal(t, http.StatusText(status), body["message"])
}

func TestGetCategories(t *testing.T) {
	mux := newTestMux(t, memstore.Fixture())

	code, body := do(t, mux, http.MethodGet, "/categories", nil)

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["success"])
	categories := body["categories"].(map[string]interface{})
	assert.Len(t, categories, 6)
	assert.Equal(t, "Science", categories["1"])
}

func TestGetQuestionsFirstPage(t *testing.T) {
	mux := newTestMux(t, memstore.Fixture())

	code, body := do(t, mux, http.MethodGet, "/questions", nil)

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["success"])
	assert.Len(t, body["questions"], 10)
	assert.Equal(t, float64(19), body["totalQuestions"])
	assert.Len(t, body["categories"], 6)
	assert.Equal(t, "", body["currentCategory"])

	first := body["questions"].([]interface{})[0].(map[string]interface{})
	assert.ElementsMatch(t, []string{"id", "question", "answer", "difficulty", "category"}, keys(first))
}

func TestGetQuestionsSecondPage(t *testing.T) {
	mux := newTestMux(t, memstore.Fixture())

	code, body := do(t, mux, http.MethodGet, "/questions?page=2", nil)

	assert.Equal(t, http.StatusOK, code)
	assert.Len(t, body["questions"], 9)
}

func TestGetQuestionsPageNotExist(t *testing.T) {
	mux := newTestMux(t, memstore.Fixture())

	code, body := do(t, mux, http.MethodGet, "/questions?page=100", nil)

	assertFailure(t, http.StatusNotFound, code, body)
	assert.Equal(t, "Not Found", body["message"])
}

func TestDeleteQuestion(t *testing.T) {
	store := memstore.Fixture()
	mux := newTestMux(t, store)

	code, body := do(t, mux, http.MethodDelete, "/questions/5", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(5), body["deleted_question"])

	remaining, err := store.ListQuestions(context.Background())
	require.NoError(t, err)
	assert.Len(t, remaining, 18)
}

func TestDeleteQuestionNotExist(t *testing.T) {
	mux := newTestMux(t, memstore.Fixture())

	code, body := do(t, mux, http.MethodDelete, "/questions/1000", nil)
	assertFailure(t, http.StatusNotFound, code, body)

	code, body = do(t, mux, http.MethodDelete, "/questions/abc", nil)
	assertFailure(t, http.StatusNotFound, code, body)
}

type recordingDeleteStore struct {
	*memstore.Store
	ids []int
}

func (s *recordingDeleteStore) DeleteQuestion(ctx context.Context, id int) error {
	s.ids = append(s.ids, id)
	return s.Store.DeleteQuestion(ctx, id)
}

func TestDeleteQuestionOutOfRangeID(t *testing.T) {
	store := &recordingDeleteStore{Store: memstore.Fixture()}
	mux := newTestMux(t, store)

	// 4294967298 wraps to 2 as an int32.
	code, body := do(t, mux, http.MethodDelete, "/questions/4294967298", nil)
	assertFailure(t, http.StatusNotFound, code, body)
	assert.Empty(t, store.ids)

	all, err := store.ListQuestions(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 19)
	assert.Equal(t, 2, all[0].ID)
}

type failingDeleteStore struct {
	*memstore.Store
}

func (s failingDeleteStore) DeleteQuestion(context.Context, int) error {
	return errors.New("connection reset")
}

func TestDeleteQuestionStoreFailureKeepsRecord(t *testing.T) {
	store := failingDeleteStore{memstore.Fixture()}
	mux := newTestMux(t, store)

	code, body := do(t, mux, http.MethodDelete, "/questions/5", nil)
	assertFailure(t, http.StatusInternalServerError, code, body)

	all, err := store.ListQuestions(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 19)
}

func TestCreateQuestion(t *testing.T) {
	mux := newTestMux(t, memstore.Fixture())

	code, body := do(t, mux, http.MethodPost, "/questions", map[string]interface{}{
		"question":   "What is the chemical symbol for gold?",
		"answer":     "Au",
		"category":   "1",
		"difficulty": 2,
	})

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["success"])
	created := body["question"].(map[string]interface{})
	assert.Equal(t, float64(24), created["id"])
	assert.Equal(t, float64(1), created["category"])

	_, body = do(t, mux, http.MethodGet, "/questions", nil)
	assert.Equal(t, float64(20), body["totalQuestions"])
}

func TestCreateQuestionErrors(t *testing.T) {
	mux := newTestMux(t, memstore.Fixture())

	code, body := do(t, mux, http.MethodPost, "/questions", "{not json")
	assertFailure(t, http.StatusBadRequest, code, body)

	code, body = do(t, mux, http.MethodPost, "/questions", map[string]interface{}{
		"question": "Missing answer", "category": 1, "difficulty": 1,
	})
	assertFailure(t, http.StatusUnprocessableEntity, code, body)

	code, body = do(t, mux, http.MethodPost, "/questions", map[string]interface{}{
		"question": "Q", "answer": "A", "category": 100, "difficulty": 1,
	})
	assertFailure(t, http.StatusUnprocessableEntity, code, body)
}

func TestSearchQuestions(t *testing.T) {
	mux := newTestMux(t, memstore.Fixture())

	code, body := do(t, mux, http.MethodPost, "/questions/search", map[string]string{"searchTerm": "who"})

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["success"])
	assert.Len(t, body["questions"], 3)
	assert.Equal(t, float64(3), body["totalQuestions"])
	assert.Equal(t, []interface{}{float64(1), float64(4)}, body["categories"])
	assert.Equal(t, "", body["currentCategory"])

	_, upper := do(t, mux, http.MethodPost, "/questions/search", map[string]string{"searchTerm": "WhO"})
	assert.Equal(t, body["questions"], upper["questions"])
}

func TestSearchQuestionsNotExist(t *testing.T) {
	mux := newTestMux(t, memstore.Fixture())

	code, body := do(t, mux, http.MethodPost, "/questions/search", map[string]string{"searchTerm": "abcdef"})
	assertFailure(t, http.StatusNotFound, code, body)
}

func TestSearchQuestionsMissingTerm(t *testing.T) {
	mux := newTestMux(t, memstore.Fixture())

	code, body := do(t, mux, http.MethodPost, "/questions/search", map[string]string{})
	assertFailure(t, http.StatusBadRequest, code, body)

	code, body = do(t, mux, http.MethodPost, "/questions/search", map[string]string{"searchTerm": ""})
	assertFailure(t, http.StatusBadRequest, code, body)

	code, body = do(t, mux, http.MethodPost, "/questions/search", map[string]string{"searchTerm": "  \t "})
	assertFailure(t, http.StatusBadRequest, code, body)
}

func TestGetQuestionsByCategory(t *testing.T) {
	mux := newTestMux(t, memstore.Fixture())

	code, body := do(t, mux, http.MethodGet, "/categories/1/questions", nil)

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["success"])
	assert.Len(t, body["questions"], 3)
	assert.Equal(t, float64(3), body["totalQuestions"])
	assert.Equal(t, float64(1), body["currentCategory"])
}

func TestGetQuestionsByCategoryNotExist(t *testing.T) {
	mux := newTestMux(t, memstore.Fixture())

	code, body := do(t, mux, http.MethodGet, "/categories/100/questions", nil)
	assertFailure(t, http.StatusNotFound, code, body)

	code, body = do(t, mux, http.MethodGet, "/categories/0/questions", nil)
	assertFailure(t, http.StatusNotFound, code, body)

	code, body = do(t, mux, http.MethodGet, "/categories/4294967297/questions", nil)
	assertFailure(t, http.StatusNotFound, code, body)
}

func TestGetQuestionsByEmptyCategory(t *testing.T) {
	store := memstore.New(memstore.FixtureCategories(), nil)
	mux := newTestMux(t, store)

	code, body := do(t, mux, http.MethodGet, "/categories/1/questions", nil)
	assertFailure(t, http.StatusNotFound, code, body)
}

func TestQuizPlaysCategoryToExhaustion(t *testing.T) {
	mux := newTestMux(t, memstore.Fixture())

	previous := []int{}
	for i := 0; i < 3; i++ {
		code, body := do(t, mux, http.MethodPost, "/quizzes", map[string]interface{}{
			"previous_questions": previous,
			"quiz_category":      map[string]interface{}{"id": 1, "type": "Science"},
		})
		require.Equal(t, http.StatusOK, code)
		assert.Equal(t, true, body["success"])

		q := body["question"].(map[string]interface{})
		assert.Len(t, q, 5)
		assert.Equal(t, float64(1), q["category"])
		id := int(q["id"].(float64))
		assert.NotContains(t, previous, id)
		previous = append(previous, id)
	}
	assert.ElementsMatch(t, []int{20, 21, 22}, previous)

	code, body := do(t, mux, http.MethodPost, "/quizzes", map[string]interface{}{
		"previous_questions": previous,
		"quiz_category":      map[string]interface{}{"id": 1, "type": "Science"},
	})
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "", body["question"])
}

func TestQuizAcceptsStringIDs(t *testing.T) {
	mux := newTestMux(t, memstore.Fixture())

	code, body := do(t, mux, http.MethodPost, "/quizzes", map[string]interface{}{
		"previous_questions": []string{"20", "21", "22"},
		"quiz_category":      map[string]interface{}{"id": "1", "type": "Science"},
	})

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "", body["question"])
}

func TestQuizAllCategories(t *testing.T) {
	mux := newTestMux(t, memstore.Fixture())

	seen := map[int]bool{}
	previous := []int{}
	for {
		code, body := do(t, mux, http.MethodPost, "/quizzes", map[string]interface{}{
			"previous_questions": previous,
			"quiz_category":      map[string]interface{}{"id": 0, "type": "click"},
		})
		require.Equal(t, http.StatusOK, code)
		q, ok := body["question"].(map[string]interface{})
		if !ok {
			break
		}
		id := int(q["id"].(float64))
		require.False(t, seen[id], "question %d repeated", id)
		seen[id] = true
		previous = append(previous, id)
	}
	assert.Len(t, seen, 19)
}

func TestQuizCategoryWithoutIDMeansAll(t *testing.T) {
	mux := newTestMux(t, memstore.Fixture())

	for _, body := range []string{
		`{"quiz_category":{}}`,
		`{"quiz_category":{"id":null}}`,
	} {
		code, resp := do(t, mux, http.MethodPost, "/quizzes", body)
		require.Equal(t, http.StatusOK, code, body)
		q, ok := resp["question"].(map[string]interface{})
		require.True(t, ok, body)
		assert.NotZero(t, q["id"])
	}
}

func TestQuizErrors(t *testing.T) {
	mux := newTestMux(t, memstore.Fixture())

	code, body := do(t, mux, http.MethodPost, "/quizzes", "nope")
	assertFailure(t, http.StatusBadRequest, code, body)

	code, body = do(t, mux, http.MethodPost, "/quizzes", map[string]interface{}{"previous_questions": []int{}})
	assertFailure(t, http.StatusBadRequest, code, body)

	code, body = do(t, mux, http.MethodPost, "/quizzes", map[string]interface{}{
		"previous_questions": []int{},
		"quiz_category":      map[string]interface{}{"id": 100},
	})
	assertFailure(t, http.StatusNotFound, code, body)
}

func TestMethodNotAllowedAndUnknownRoute(t *testing.T) {
	mux := newTestMux(t, memstore.Fixture())

	code, body := do(t, mux, http.MethodPut, "/questions", nil)
	assertFailure(t, http.StatusMethodNotAllowed, code, body)

	code, body = do(t, mux, http.MethodGet, "/quizzes", nil)
	assertFailure(t, http.StatusMethodNotAllowed, code, body)

	code, body = do(t, mux, http.MethodGet, "/nowhere", nil)
	assertFailure(t, http.StatusNotFound, code, body)
}

func keys(m map[string]interface{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
