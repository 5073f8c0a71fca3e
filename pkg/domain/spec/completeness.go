package spec

import "math"

// Weights of each scored block in the overall completeness score. They sum
// to 100. metadata is not scored.
var BlockWeights = map[string]int{
	BlockMission:     20,
	BlockAudience:    15,
	BlockScope:       15,
	BlockIOContracts: 20,
	BlockConstraints: 10,
	BlockSafety:      10,
	BlockExamples:    10,
}

type blockFields struct {
	block    string
	required []string
	optional []string
}

// blockTable is in scoring order. io_contracts is scored by ioScore, its
// entry only lists the fields reported as missing.
var blockTable = []blockFields{
	{block: BlockMission, required: []string{"problem", "success_criteria"}, optional: []string{"non_goals"}},
	{block: BlockAudience, required: []string{"persona"}, optional: []string{"skill_level", "language", "tone"}},
	{block: BlockScope, required: []string{"must_do", "out_of_scope"}, optional: []string{"should_do", "nice_to_have"}},
	{block: BlockIOContracts, required: []string{"inputs", "outputs.format"}},
	{block: BlockConstraints, optional: []string{"length", "citation_policy", "verification"}},
	{block: BlockSafety, required: []string{"refusals"}, optional: []string{"sensitive_topics"}},
	{block: BlockExamples, required: []string{"good"}, optional: []string{"bad"}},
}

// ScoredBlocks returns the scored block names in scoring order.
func ScoredBlocks() []string {
	out := make([]string, 0, len(blockTable))
	for _, b := range blockTable {
		out = append(out, b.block)
	}
	return out
}

// CompletenessResult summarizes how much of a specification is filled in.
type CompletenessResult struct {
	Overall       int            `json:"overall"`
	BlockScores   map[string]int `json:"block_scores"`
	MissingFields []string       `json:"missing_fields"`
}

// Completeness computes a 0-100 weighted completeness score and lists the
// required fields that are not filled, as "<block>.<field>".
func Completeness(s *Specification) CompletenessResult {
	res := CompletenessResult{
		BlockScores:   make(map[string]int, len(blockTable)),
		MissingFields: []string{},
	}
	if s == nil {
		s = &Specification{}
	}

	weighted := 0.0
	for _, b := range blockTable {
		var score int
		if b.block == BlockIOContracts {
			score = ioScore(s)
		} else {
			score = fieldScore(s, b)
		}
		res.BlockScores[b.block] = score
		weighted += float64(score * BlockWeights[b.block])

		for _, f := range b.required {
			path := b.block + "." + f
			if !IsFilled(s, path) {
				res.MissingFields = append(res.MissingFields, path)
			}
		}
	}
	res.Overall = int(math.Round(weighted / 100))
	return res
}

func fieldScore(s *Specification, b blockFields) int {
	total := len(b.required) + len(b.optional)
	if total == 0 {
		return 0
	}
	filled := 0
	for _, f := range b.required {
		if IsFilled(s, b.block+"."+f) {
			filled++
		}
	}
	for _, f := range b.optional {
		if IsFilled(s, b.block+"."+f) {
			filled++
		}
	}
	return int(math.Round(float64(filled) / float64(total) * 100))
}

// ioScore gives 50 points for having any input and 50 for an output format.
func ioScore(s *Specification) int {
	score := 0
	if len(s.IOContracts.Inputs) > 0 {
		score += 50
	}
	if IsFilled(s, "io_contracts.outputs.format") {
		score += 50
	}
	return score
}
