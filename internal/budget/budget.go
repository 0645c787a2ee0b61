// Package budget estimates token counts and trims retrieved context so a
// prompt fits the model's input window. Backends tokenize differently, so
// the estimate is a character heuristic: 1 token ~ 4 characters.
package budget

const (
	charsPerToken = 4

	// DefaultMaxContextTokens fits 8k-context models with room for the answer.
	DefaultMaxContextTokens = 6000
)

// Estimate returns a rough token count for s.
func Estimate(s string) int {
	n := len(s) / charsPerToken
	if n == 0 && len(s) > 0 {
		return 1
	}
	return n
}

// FitRanked returns how many leading entries of ranked (best first) fit in
// maxTokens after reserving fixedTokens for the rest of the prompt. Entries
// are dropped from the lowest-ranked end. At least one entry is kept when
// ranked is non-empty, even if it alone exceeds the budget.
func FitRanked(ranked []string, fixedTokens, maxTokens int) int {
	if len(ranked) == 0 {
		return 0
	}
	if maxTokens <= 0 {
		return len(ranked)
	}

	used := fixedTokens
	n := 0
	for _, s := range ranked {
		// +1 for the newline separator between entries.
		cost := Estimate(s) + 1
		if n > 0 && used+cost > maxTokens {
			break
		}
		used += cost
		n++
	}
	return n
}
