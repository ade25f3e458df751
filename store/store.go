// Package store keeps the rolling conversation history for one user as a
// single JSON file, reloaded in full at startup and rewritten in full on
// every append. It assumes a single active writer per user.
package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/pkg/errors"
)

// Store provides access to the persisted conversation records of one user.
type Store struct {
	mu      sync.RWMutex
	path    string
	records []ConversationRecord
}

// New creates a Store for the given user, loading any existing history.
// A missing file means empty history; a corrupt file is logged and treated
// as empty history rather than propagated.
func New(dataDir, userID string) *Store {
	s := &Store{
		path: filepath.Join(dataDir, fmt.Sprintf("memories_%s.json", userID)),
	}
	s.records = s.load()
	return s
}

func (s *Store) load() []ConversationRecord {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Error("failed to read conversation history", slog.String("path", s.path), slog.String("error", err.Error()))
		}
		return []ConversationRecord{}
	}

	var records []ConversationRecord
	if err := json.Unmarshal(data, &records); err != nil {
		slog.Error("failed to parse conversation history, starting empty", slog.String("path", s.path), slog.String("error", err.Error()))
		return []ConversationRecord{}
	}
	slog.Info("loaded conversation history", slog.String("path", s.path), slog.Int("records", len(records)))
	return records
}

// Append assigns the next sequence ID to the record, adds it to the in-memory
// history and rewrites the whole backing file. The record is stored even when
// the write fails; the error is returned for logging only.
func (s *Store) Append(record ConversationRecord) (ConversationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record.ID = len(s.records) + 1
	s.records = append(s.records, record)

	data, err := json.MarshalIndent(s.records, "", "  ")
	if err != nil {
		return record, errors.Wrap(err, "failed to marshal conversation history")
	}
	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return record, errors.Wrapf(err, "failed to write conversation history %s", s.path)
	}
	return record, nil
}

// List returns a copy of all records in insertion order.
func (s *Store) List() []ConversationRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]ConversationRecord, len(s.records))
	copy(out, s.records)
	return out
}

// Recent returns the last n records (all records when fewer exist).
func (s *Store) Recent(n int) []ConversationRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if n > len(s.records) {
		n = len(s.records)
	}
	out := make([]ConversationRecord, n)
	copy(out, s.records[len(s.records)-n:])
	return out
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// FindSimilar returns up to limit records whose emotion intensity is within
// 0.3 of the query value, closest first. Ties keep insertion order.
func (s *Store) FindSimilar(intensity float64, limit int) []ConversationRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var similar []ConversationRecord
	for _, record := range s.records {
		if math.Abs(record.EmotionIntensity-intensity) < 0.3 {
			similar = append(similar, record)
		}
	}
	sort.SliceStable(similar, func(i, j int) bool {
		return math.Abs(similar[i].EmotionIntensity-intensity) < math.Abs(similar[j].EmotionIntensity-intensity)
	})
	if len(similar) > limit {
		similar = similar[:limit]
	}
	return similar
}

// Trend labels returned by RecentTrend.
const (
	TrendHighStress     = "high_stress"
	TrendModerateStress = "moderate_stress"
	TrendLowStress      = "low_stress"
	TrendStable         = "stable"
	TrendNeutral        = "neutral"
)

// RecentTrend buckets the average stress level over the last window records.
func (s *Store) RecentTrend(window int) string {
	recent := s.Recent(window)
	if len(recent) == 0 {
		return TrendNeutral
	}

	sum := 0
	for _, record := range recent {
		sum += record.StressLevel
	}
	avg := float64(sum) / float64(len(recent))

	switch {
	case avg > 7:
		return TrendHighStress
	case avg > 5:
		return TrendModerateStress
	case avg < 3:
		return TrendLowStress
	default:
		return TrendStable
	}
}

// AverageStress returns the mean stress level over all records, or 0 when
// the history is empty.
func (s *Store) AverageStress() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.records) == 0 {
		return 0
	}
	sum := 0
	for _, record := range s.records {
		sum += record.StressLevel
	}
	return float64(sum) / float64(len(s.records))
}
