package question

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Difficulty bounds accepted on create.
const (
	MinDifficulty = 1
	MaxDifficulty = 5
)

// AllCategories is the quiz sentinel meaning "no category filter".
const AllCategories = 0

var (
	ErrQuestionNotFound = errors.New("question not found")
	ErrCategoryNotFound = errors.New("category not found")
	ErrNoQuestions      = errors.New("no questions")
	ErrEmptySearchTerm  = errors.New("search term is required")
)

// Question is the trivia item delivered to clients.
type Question struct {
	ID         int    `json:"id"`
	Question   string `json:"question"`
	Answer     string `json:"answer"`
	Difficulty int    `json:"difficulty"`
	Category   int    `json:"category"`
}

// Category groups questions under a display type.
type Category struct {
	ID   int
	Type string
}

// NewQuestion carries the fields required to insert a question.
type NewQuestion struct {
	Question   string
	Answer     string
	Category   int
	Difficulty int
}

// ValidationError reports a missing or out-of-range business field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// CategoryMap renders categories as a JSON object {id: type}, keeping slice order.
type CategoryMap []Category

func (m CategoryMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range m {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(c.Type)
		if err != nil {
			return nil, err
		}
		buf.WriteString(strconv.Quote(strconv.Itoa(c.ID)))
		buf.WriteByte(':')
		buf.Write(name)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// FlexInt decodes a JSON number or a numeric string. Clients send ids both ways.
type FlexInt int

func (f *FlexInt) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		return nil
	}
	if unquoted, err := strconv.Unquote(raw); err == nil {
		raw = strings.TrimSpace(unquoted)
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("invalid integer %s", data)
	}
	*f = FlexInt(n)
	return nil
}
