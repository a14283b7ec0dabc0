package question

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/gokatarajesh/trivia-api/internal/logging"
	httperrors "github.com/gokatarajesh/trivia-api/pkg/http/errors"
)

// HTTPHandlers exposes the trivia REST endpoints.
type HTTPHandlers struct {
	svc    *Service
	logger zerolog.Logger
}

// NewHTTPHandlers constructs the trivia HTTP handlers.
func NewHTTPHandlers(svc *Service, logger zerolog.Logger) *HTTPHandlers {
	return &HTTPHandlers{
		svc:    svc,
		logger: logger.With().Str("component", "question_http").Logger(),
	}
}

// Register mounts the trivia routes on mux.
func (h *HTTPHandlers) Register(mux *http.ServeMux) {
	mux.HandleFunc("/categories", h.Categories)
	mux.HandleFunc("/categories/{id}/questions", h.ByCategory)
	mux.HandleFunc("/questions", h.Questions)
	mux.HandleFunc("/questions/search", h.Search)
	mux.HandleFunc("/questions/{id}", h.DeleteQuestion)
	mux.HandleFunc("/quizzes", h.Quiz)
}

type createRequest struct {
	Question   string  `json:"question"`
	Answer     string  `json:"answer"`
	Category   FlexInt `json:"category"`
	Difficulty FlexInt `json:"difficulty"`
}

type searchRequest struct {
	SearchTerm *string `json:"searchTerm"`
}

type quizRequest struct {
	PreviousQuestions []FlexInt `json:"previous_questions"`
	QuizCategory      *struct {
		ID   FlexInt `json:"id"`
		Type string  `json:"type"`
	} `json:"quiz_category"`
}

// quizQuestion renders an exhausted quiz as an empty string so clients see a falsy value.
type quizQuestion struct {
	q *Question
}

func (qq quizQuestion) MarshalJSON() ([]byte, error) {
	if qq.q == nil {
		return []byte(`""`), nil
	}
	return json.Marshal(qq.q)
}

// Categories handles GET /categories
func (h *HTTPHandlers) Categories(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httperrors.RespondMethodNotAllowed(w)
		return
	}

	categories, err := h.svc.Categories(r.Context())
	if err != nil {
		h.internalError(w, r, err, "list categories failed")
		return
	}

	httperrors.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"categories": CategoryMap(categories),
	})
}

// Questions handles GET /questions?page=N and POST /questions
func (h *HTTPHandlers) Questions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listQuestions(w, r)
	case http.MethodPost:
		h.createQuestion(w, r)
	default:
		httperrors.RespondMethodNotAllowed(w)
	}
}

func (h *HTTPHandlers) listQuestions(w http.ResponseWriter, r *http.Request) {
	page := ParsePage(r.URL.Query().Get("page"))

	result, err := h.svc.ListPage(r.Context(), page)
	if err != nil {
		h.internalError(w, r, err, "list questions failed")
		return
	}
	if len(result.Questions) == 0 {
		httperrors.RespondNotFound(w)
		return
	}

	httperrors.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"success":         true,
		"questions":       result.Questions,
		"totalQuestions":  result.Total,
		"categories":      CategoryMap(result.Categories),
		"currentCategory": "",
	})
}

func (h *HTTPHandlers) createQuestion(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w)
		return
	}

	created, err := h.svc.CreateQuestion(r.Context(), NewQuestion{
		Question:   req.Question,
		Answer:     req.Answer,
		Category:   int(req.Category),
		Difficulty: int(req.Difficulty),
	})
	if err != nil {
		var verr *ValidationError
		switch {
		case errors.As(err, &verr):
			logger := logging.FromContext(r.Context())
			logger.Debug().Str("field", verr.Field).Msg(verr.Message)
			httperrors.RespondUnprocessable(w)
		case errors.Is(err, ErrCategoryNotFound):
			httperrors.RespondUnprocessable(w)
		default:
			h.internalError(w, r, err, "create question failed")
		}
		return
	}

	httperrors.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"question": created,
	})
}

// DeleteQuestion handles DELETE /questions/{id}
func (h *HTTPHandlers) DeleteQuestion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		httperrors.RespondMethodNotAllowed(w)
		return
	}

	id, err := parseID(r.PathValue("id"))
	if err != nil {
		httperrors.RespondNotFound(w)
		return
	}

	if err := h.svc.DeleteQuestion(r.Context(), id); err != nil {
		if errors.Is(err, ErrQuestionNotFound) {
			httperrors.RespondNotFound(w)
			return
		}
		h.internalError(w, r, err, "delete question failed")
		return
	}

	httperrors.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"success":          true,
		"deleted_question": id,
	})
}

// Search handles POST /questions/search
func (h *HTTPHandlers) Search(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httperrors.RespondMethodNotAllowed(w)
		return
	}

	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SearchTerm == nil {
		httperrors.RespondBadRequest(w)
		return
	}

	found, err := h.svc.Search(r.Context(), *req.SearchTerm)
	if err != nil {
		if errors.Is(err, ErrEmptySearchTerm) {
			httperrors.RespondBadRequest(w)
			return
		}
		h.internalError(w, r, err, "search questions failed")
		return
	}
	if len(found) == 0 {
		httperrors.RespondNotFound(w)
		return
	}

	httperrors.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"success":         true,
		"questions":       found,
		"totalQuestions":  len(found),
		"categories":      distinctCategories(found),
		"currentCategory": "",
	})
}

// ByCategory handles GET /categories/{id}/questions
func (h *HTTPHandlers) ByCategory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httperrors.RespondMethodNotAllowed(w)
		return
	}

	categoryID, err := parseID(r.PathValue("id"))
	if err != nil {
		httperrors.RespondNotFound(w)
		return
	}

	questions, err := h.svc.QuestionsByCategory(r.Context(), categoryID)
	if err != nil {
		if errors.Is(err, ErrCategoryNotFound) || errors.Is(err, ErrNoQuestions) {
			httperrors.RespondNotFound(w)
			return
		}
		h.internalError(w, r, err, "questions by category failed")
		return
	}

	httperrors.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"success":         true,
		"questions":       questions,
		"totalQuestions":  len(questions),
		"currentCategory": categoryID,
	})
}

// Quiz handles POST /quizzes
func (h *HTTPHandlers) Quiz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httperrors.RespondMethodNotAllowed(w)
		return
	}

	var req quizRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.QuizCategory == nil {
		httperrors.RespondBadRequest(w)
		return
	}

	asked := make([]int, len(req.PreviousQuestions))
	for i, id := range req.PreviousQuestions {
		asked[i] = int(id)
	}
	categoryID := int(req.QuizCategory.ID)

	next, ok, err := h.svc.NextQuestion(r.Context(), categoryID, asked)
	if err != nil {
		if errors.Is(err, ErrCategoryNotFound) {
			httperrors.RespondNotFound(w)
			return
		}
		h.internalError(w, r, err, "next quiz question failed")
		return
	}

	resp := quizQuestion{}
	if ok {
		resp.q = &next
	} else {
		logger := logging.FromContext(r.Context())
		logger.Debug().
			Int("category", categoryID).
			Int("asked", len(asked)).
			Msg("quiz exhausted")
	}

	httperrors.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"question": resp,
	})
}

// NotFound answers unmatched routes with the JSON envelope.
func (h *HTTPHandlers) NotFound(w http.ResponseWriter, r *http.Request) {
	httperrors.RespondNotFound(w)
}

// parseID reads a path id; ids are stored as 32-bit integers.
func parseID(raw string) (int, error) {
	id, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return 0, err
	}
	return int(id), nil
}

func (h *HTTPHandlers) internalError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	logger := logging.FromContext(r.Context())
	if logger.GetLevel() == zerolog.Disabled {
		logger = h.logger
	}
	logger.Error().Err(err).Str("path", r.URL.Path).Msg(msg)
	httperrors.RespondInternalError(w)
}

func distinctCategories(questions []Question) []int {
	seen := make(map[int]struct{})
	ids := make([]int, 0)
	for _, q := range questions {
		if _, ok := seen[q.Category]; ok {
			continue
		}
		seen[q.Category] = struct{}{}
		ids = append(ids, q.Category)
	}
	sort.Ints(ids)
	return ids
}
