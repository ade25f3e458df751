// Package therapist coordinates one conversation turn: classify the message,
// persist the record, generate the reply and update session statistics. A
// turn always completes with a well-formed result, degraded if necessary.
package therapist

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lithammer/shortuuid/v4"
	"golang.org/x/sync/semaphore"

	apperrors "github.com/hrygo/helai/server/internal/errors"
	"github.com/hrygo/helai/server/internal/observability"
	"github.com/hrygo/helai/server/service/emotion"
	"github.com/hrygo/helai/server/service/respond"
	"github.com/hrygo/helai/store"
)

// Classifier assesses one message against recent history.
type Classifier interface {
	Classify(ctx context.Context, message string, history []store.ConversationRecord) store.Classification
}

// Responder builds the reply package for a classified message.
type Responder interface {
	Respond(ctx context.Context, classification store.Classification, message string) respond.TherapeuticResponse
}

// SessionStats are process-lifetime counters, reset on restart. The average
// stress is recomputed from the persisted store rather than trusted alone.
type SessionStats struct {
	SessionID           string
	SessionStart        time.Time
	Exchanges           int
	CrisisInterventions int
	AvgStressLevel      float64
}

// TurnResult is everything one processed turn yields.
type TurnResult struct {
	Classification store.Classification
	Response       respond.TherapeuticResponse
	Record         store.ConversationRecord
	IsCrisis       bool
	Stats          SessionStats
}

// Service is the per-turn orchestrator.
type Service struct {
	store      *store.Store
	classifier Classifier
	responder  Responder
	user       string

	// turnGate serializes turns: the store's read-modify-rewrite cycle
	// assumes a single active writer per user.
	turnGate *semaphore.Weighted

	// statsMu guards stats: turns update them under the turn gate, but the
	// health and analytics handlers read them from other goroutines.
	statsMu sync.RWMutex
	stats   SessionStats
}

// NewService creates the orchestrator for one user's conversation store.
func NewService(st *store.Store, classifier Classifier, responder Responder, user string) *Service {
	return &Service{
		store:      st,
		classifier: classifier,
		responder:  responder,
		user:       user,
		turnGate:   semaphore.NewWeighted(1),
		stats: SessionStats{
			SessionID:    shortuuid.New(),
			SessionStart: time.Now(),
		},
	}
}

// IsCrisis reports whether a classification warrants crisis messaging.
func IsCrisis(classification store.Classification) bool {
	return classification.RiskAssessment == store.RiskCrisis || classification.StressLevel >= 9
}

// ProcessTurn runs one full message-in, response-out cycle. It never returns
// an error: persistence failures are logged and swallowed, and any panic
// inside the turn recovers to a fixed emergency result.
func (s *Service) ProcessTurn(ctx context.Context, message string) (result *TurnResult) {
	reqCtx := observability.NewRequestContext(slog.Default(), s.user)

	if err := s.turnGate.Acquire(ctx, 1); err != nil {
		reqCtx.Error("turn gate acquire failed", err)
		return s.emergencyResult(message)
	}
	defer s.turnGate.Release(1)

	defer func() {
		if r := recover(); r != nil {
			err := apperrors.Wrap(fmt.Errorf("%v", r), apperrors.ErrCodeTurnFailed, "turn processing panicked")
			reqCtx.Error("turn processing failed, using emergency fallback", err)
			result = s.emergencyResult(message)
		}
	}()

	history := s.store.Recent(emotion.HistoryLimit)
	classification := sanitize(s.classifier.Classify(ctx, message, history), message)

	record, err := s.store.Append(store.ConversationRecord{
		Timestamp:        classification.Timestamp,
		EmotionScores:    classification,
		Context:          message,
		UserInput:        message,
		PrimaryEmotion:   classification.PrimaryEmotion,
		StressLevel:      classification.StressLevel,
		EmotionIntensity: classification.EmotionIntensity,
		RiskAssessment:   classification.RiskAssessment,
	})
	if err != nil {
		// The turn still succeeds; the record is only lost on disk.
		reqCtx.Error("failed to persist conversation record", apperrors.Wrap(err, apperrors.ErrCodeStoreFailure, "append failed"))
	}

	response := s.responder.Respond(ctx, classification, message)

	crisis := IsCrisis(classification)
	s.statsMu.Lock()
	s.stats.Exchanges++
	if crisis {
		s.stats.CrisisInterventions++
	}
	s.stats.AvgStressLevel = s.store.AverageStress()
	stats := s.stats
	s.statsMu.Unlock()

	reqCtx.Info("turn processed",
		slog.Int(observability.LogFieldMessageLen, len(message)),
		slog.String(observability.LogFieldAnalysisMethod, classification.AnalysisMethod),
		slog.Int(observability.LogFieldStressLevel, classification.StressLevel),
		slog.Int64(observability.LogFieldDuration, reqCtx.DurationMs()),
	)

	return &TurnResult{
		Classification: classification,
		Response:       response,
		Record:         record,
		IsCrisis:       crisis,
		Stats:          stats,
	}
}

// sanitize enforces the record invariant: required fields are never missing,
// whatever the upstream analysis produced.
func sanitize(classification store.Classification, message string) store.Classification {
	if classification.PrimaryEmotion == "" {
		classification.PrimaryEmotion = store.EmotionNeutral
	}
	// EmotionIntensity is left alone: 0.0 is a valid value and missing
	// intensity is already defaulted at the parse boundary.
	if classification.StressLevel < 0 {
		classification.StressLevel = 0
	}
	if classification.StressLevel > 10 {
		classification.StressLevel = 10
	}
	if classification.RiskAssessment == "" {
		classification.RiskAssessment = store.RiskLow
	}
	if classification.TherapeuticPriority == "" {
		classification.TherapeuticPriority = store.PriorityMedium
	}
	if classification.PsychologicalMarkers == nil {
		classification.PsychologicalMarkers = []string{}
	}
	if classification.StressTriggers == nil {
		classification.StressTriggers = []string{}
	}
	if classification.FollowUpQuestions == nil {
		classification.FollowUpQuestions = []string{}
	}
	if classification.Timestamp == "" {
		classification.Timestamp = time.Now().Format(time.RFC3339)
	}
	if classification.Text == "" {
		classification.Text = message
	}
	return classification
}

func (s *Service) emergencyResult(message string) *TurnResult {
	classification := store.Classification{
		PrimaryEmotion:       store.EmotionNeutral,
		EmotionIntensity:     0.5,
		StressLevel:          5,
		RiskAssessment:       store.RiskLow,
		TherapeuticPriority:  store.PriorityMedium,
		PsychologicalMarkers: []string{},
		StressTriggers:       []string{},
		FollowUpQuestions:    []string{},
		Timestamp:            time.Now().Format(time.RFC3339),
		Text:                 message,
		AIModel:              "emergency_fallback",
		AnalysisMethod:       "emergency",
	}
	response := respond.TherapeuticResponse{
		Response:             "I'm experiencing some technical difficulties, but I'm still here to listen. How are you feeling right now?",
		TherapeuticApproach:  "Supportive",
		StressInterpretation: "Unable to assess due to technical issues",
		CopingSuggestion:     "Take a deep breath and know that I'm here to support you",
		GeneratedBy:          "emergency_fallback",
	}

	s.statsMu.Lock()
	s.stats.Exchanges++
	s.stats.AvgStressLevel = s.store.AverageStress()
	stats := s.stats
	s.statsMu.Unlock()

	return &TurnResult{
		Classification: classification,
		Response:       response,
		IsCrisis:       false,
		Stats:          stats,
	}
}

// Stats returns a copy of the current session statistics.
func (s *Service) Stats() SessionStats {
	s.statsMu.RLock()
	defer s.statsMu.RUnlock()
	return s.stats
}

// Store exposes the conversation store for read-only surfaces.
func (s *Service) Store() *store.Store {
	return s.store
}

// RecentEmotionalTrend summarizes the recent stress direction. The delta is
// defined as the last stress level minus the mean of the last five.
func (s *Service) RecentEmotionalTrend() string {
	records := s.store.Recent(5)
	if s.store.Len() < 3 {
		return "Building emotional baseline"
	}

	sum := 0
	for _, record := range records {
		sum += record.StressLevel
	}
	avg := float64(sum) / float64(len(records))
	delta := float64(records[len(records)-1].StressLevel) - avg

	switch {
	case delta > 2:
		return fmt.Sprintf("Stress increasing (avg: %.1f/10) - needs attention", avg)
	case delta < -2:
		return fmt.Sprintf("Stress decreasing (avg: %.1f/10) - positive progress", avg)
	case avg >= 7:
		return fmt.Sprintf("Consistently high stress (avg: %.1f/10) - support needed", avg)
	default:
		return fmt.Sprintf("Emotionally stable (avg stress: %.1f/10)", avg)
	}
}
