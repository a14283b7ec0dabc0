package question

import "strconv"

// PageSize is the fixed number of questions per page.
const PageSize = 10

// Paginate returns the questions on the given 1-based page. Pages below 1 are treated as 1,
// pages past the end yield an empty slice. The input is never modified.
func Paginate(all []Question, page int) []Question {
	if page < 1 {
		page = 1
	}
	start := (page - 1) * PageSize
	if start >= len(all) {
		return []Question{}
	}
	end := min(start+PageSize, len(all))
	out := make([]Question, end-start)
	copy(out, all[start:end])
	return out
}

// ParsePage reads a page query value, defaulting to 1 when absent or invalid.
func ParsePage(raw string) int {
	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		return 1
	}
	return page
}
