package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/agentforge/pkg/domain"
)

const HistoryFile = "history.jsonl"

// HistoryStore is an append-only JSON Lines log under .agentforge.
type HistoryStore struct {
	mu       sync.Mutex
	repo     *FilesystemRepository
	lastHash string
	loaded   bool
}

func NewHistoryStore(repo *FilesystemRepository) *HistoryStore {
	return &HistoryStore{repo: repo}
}

// Append fills in ID, timestamp and the hash chain, then writes e.
func (s *HistoryStore) Append(e *domain.HistoryEntry) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		entries, err := s.load()
		if err != nil {
			return err
		}
		if len(entries) > 0 {
			s.lastHash = entries[len(entries)-1].Hash
		}
		s.loaded = true
	}

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	e.PrevHash = s.lastHash
	e.Hash = e.CalculateHash()

	path, err := s.repo.ResolvePath(HistoryFile)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.repo.Dir(), 0700); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	// #nosec G304 -- Path is resolved and validated via ResolvePath
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("open history file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close history file: %w", cerr)
		}
	}()

	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal history entry: %w", err)
	}
	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write history entry: %w", err)
	}

	s.lastHash = e.Hash
	return nil
}

// LoadAll returns every entry, oldest first.
func (s *HistoryStore) LoadAll() ([]*domain.HistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// VerifyIntegrity reports broken links and altered entries.
func (s *HistoryStore) VerifyIntegrity() ([]string, error) {
	entries, err := s.LoadAll()
	if err != nil {
		return nil, err
	}

	var violations []string
	lastHash := ""
	for i, e := range entries {
		if e.PrevHash != lastHash {
			violations = append(violations, fmt.Sprintf("Entry %d (%s): PrevHash mismatch", i, e.ID))
		}
		if e.Hash != e.CalculateHash() {
			violations = append(violations, fmt.Sprintf("Entry %d (%s): Hash mismatch - possible tampering", i, e.ID))
		}
		lastHash = e.Hash
	}
	return violations, nil
}

func (s *HistoryStore) load() ([]*domain.HistoryEntry, error) {
	path, err := s.repo.ResolvePath(HistoryFile)
	if err != nil {
		return nil, err
	}
	// #nosec G304 -- Path is resolved and validated via ResolvePath
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open history file: %w", err)
	}
	defer f.Close() //nolint:errcheck // read-only file

	var result []*domain.HistoryEntry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var e domain.HistoryEntry
		if err := json.Unmarshal(line, &e); err != nil {
			return nil, fmt.Errorf("unmarshal history entry: %w", err)
		}
		result = append(result, &e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan history: %w", err)
	}
	return result, nil
}

var _ domain.HistoryRecorder = (*HistoryStore)(nil)
