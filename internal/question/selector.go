package question

import "math/rand/v2"

// Rand is the random source used for quiz selection. *rand.Rand satisfies it.
type Rand interface {
	IntN(n int) int
}

// globalRand uses the goroutine-safe top-level math/rand/v2 generator.
type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// PickNext chooses uniformly among the pool questions whose ids are not in asked.
// It reports false when every question in the pool has been asked.
func PickNext(pool []Question, asked []int, rng Rand) (Question, bool) {
	seen := make(map[int]struct{}, len(asked))
	for _, id := range asked {
		seen[id] = struct{}{}
	}

	remaining := make([]Question, 0, len(pool))
	for _, q := range pool {
		if _, ok := seen[q.ID]; !ok {
			remaining = append(remaining, q)
		}
	}
	if len(remaining) == 0 {
		return Question{}, false
	}
	if rng == nil {
		rng = globalRand{}
	}
	return remaining[rng.IntN(len(remaining))], true
}
