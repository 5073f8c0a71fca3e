package spec

import "fmt"

// BlockerLevel distinguishes hard blockers from advisory ones.
type BlockerLevel string

const (
	BlockerError   BlockerLevel = "error"
	BlockerWarning BlockerLevel = "warning"
)

// Blocker is one reason a spec is not ready.
type Blocker struct {
	Level   BlockerLevel `json:"level"`
	Block   string       `json:"block"`
	Field   string       `json:"field,omitempty"`
	Score   int          `json:"score"`
	Message string       `json:"message"`
}

// DetectBlockers returns one error per missing required field, followed by
// one warning per block scoring below MinCompleteness.
func DetectBlockers(s *Specification) []Blocker {
	c := Completeness(s)
	blockers := make([]Blocker, 0, len(c.MissingFields))

	for _, path := range c.MissingFields {
		a := MustField(path)
		blockers = append(blockers, Blocker{
			Level:   BlockerError,
			Block:   a.Block,
			Field:   path,
			Message: fmt.Sprintf("%s is required", path),
		})
	}

	for _, block := range ScoredBlocks() {
		score := c.BlockScores[block]
		if score < MinCompleteness {
			blockers = append(blockers, Blocker{
				Level:   BlockerWarning,
				Block:   block,
				Score:   score,
				Message: fmt.Sprintf("%s is %d%% complete", block, score),
			})
		}
	}
	return blockers
}
