package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"
)

// History entry types.
const (
	HistoryCompile   = "compile"
	HistoryGate      = "gate"
	HistoryLifecycle = "lifecycle"
)

// HistoryEntry is one recorded compile, gate check or lifecycle change.
// Entries are chained by hash so edits to the log can be detected.
type HistoryEntry struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	RunID     string    `json:"run_id,omitempty"`
	SpecHash  string    `json:"spec_hash,omitempty"`
	Score     int       `json:"score"`
	Critical  int       `json:"critical"`
	Passed    bool      `json:"passed"`
	Detail    string    `json:"detail,omitempty"`
	PrevHash  string    `json:"prev_hash"`
	Hash      string    `json:"hash"`
}

// CalculateHash generates a deterministic SHA256 hash of every field
// except Hash.
func (e *HistoryEntry) CalculateHash() string {
	h := sha256.New()
	for _, part := range []string{
		e.PrevHash,
		e.ID,
		e.Type,
		e.Timestamp.Format(time.RFC3339Nano),
		e.RunID,
		e.SpecHash,
		strconv.Itoa(e.Score),
		strconv.Itoa(e.Critical),
		strconv.FormatBool(e.Passed),
		e.Detail,
	} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// HistoryRecorder appends entries to the workspace history.
// Services should depend on this interface rather than concrete implementations.
type HistoryRecorder interface {
	Append(e *HistoryEntry) error
}
