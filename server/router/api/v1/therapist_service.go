package v1

import (
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/helai/store"
)

// HealthResponse is the /api/health payload.
type HealthResponse struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	Version   string `json:"version,omitempty"`
	SessionID string `json:"session_id,omitempty"`
	Timestamp string `json:"timestamp"`
}

// GetHealth reports service liveness.
func (s *APIV1Service) GetHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{
		Status:    "healthy",
		Message:   "HelAi backend is running",
		Version:   s.Profile.Version,
		SessionID: s.Therapist.Stats().SessionID,
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

// ChatRequest is the /api/chat request body.
type ChatRequest struct {
	Message string `json:"message"`
}

// EmotionAnalysis is the classification summary returned to the frontend.
type EmotionAnalysis struct {
	PrimaryEmotion       string   `json:"primary_emotion"`
	StressLevel          int      `json:"stress_level"`
	EmotionIntensity     float64  `json:"emotion_intensity"`
	RiskAssessment       string   `json:"risk_assessment"`
	PsychologicalMarkers []string `json:"psychological_markers,omitempty"`
	StressTriggers       []string `json:"stress_triggers,omitempty"`
}

// TherapeuticInsights carries the locally computed guidance.
type TherapeuticInsights struct {
	Approach             string `json:"approach"`
	CopingSuggestion     string `json:"coping_suggestion"`
	StressInterpretation string `json:"stress_interpretation"`
	IsCrisis             bool   `json:"is_crisis"`
}

// SessionStatsPayload summarizes the session for the frontend.
type SessionStatsPayload struct {
	TotalSessions int     `json:"total_sessions"`
	AverageStress float64 `json:"average_stress"`
	CurrentStress int     `json:"current_stress"`
}

// ChatResponse is the /api/chat success payload.
type ChatResponse struct {
	Status              string              `json:"status"`
	Response            string              `json:"response"`
	EmotionAnalysis     EmotionAnalysis     `json:"emotion_analysis"`
	TherapeuticInsights TherapeuticInsights `json:"therapeutic_insights"`
	SessionStats        SessionStatsPayload `json:"session_stats"`
	Timestamp           string              `json:"timestamp"`
}

// ChatErrorResponse is returned when the turn cannot be served at all. The
// body keeps the success shape with a templated apology and safe defaults.
type ChatErrorResponse struct {
	Status          string          `json:"status"`
	Response        string          `json:"response"`
	EmotionAnalysis EmotionAnalysis `json:"emotion_analysis"`
}

// PostChat processes one conversation turn.
func (s *APIV1Service) PostChat(c echo.Context) error {
	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Empty message"})
	}
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Empty message"})
	}

	result := s.Therapist.ProcessTurn(c.Request().Context(), message)
	if result == nil {
		return c.JSON(http.StatusInternalServerError, ChatErrorResponse{
			Status:   "error",
			Response: "I apologize, but I'm having some technical difficulties. Please try again.",
			EmotionAnalysis: EmotionAnalysis{
				PrimaryEmotion:   store.EmotionNeutral,
				StressLevel:      5,
				EmotionIntensity: 0.5,
				RiskAssessment:   store.RiskLow,
			},
		})
	}

	return c.JSON(http.StatusOK, ChatResponse{
		Status:   "success",
		Response: result.Response.Response,
		EmotionAnalysis: EmotionAnalysis{
			PrimaryEmotion:       result.Classification.PrimaryEmotion,
			StressLevel:          result.Classification.StressLevel,
			EmotionIntensity:     result.Classification.EmotionIntensity,
			RiskAssessment:       result.Classification.RiskAssessment,
			PsychologicalMarkers: result.Classification.PsychologicalMarkers,
			StressTriggers:       result.Classification.StressTriggers,
		},
		TherapeuticInsights: TherapeuticInsights{
			Approach:             result.Response.TherapeuticApproach,
			CopingSuggestion:     result.Response.CopingSuggestion,
			StressInterpretation: result.Response.StressInterpretation,
			IsCrisis:             result.IsCrisis,
		},
		SessionStats: SessionStatsPayload{
			TotalSessions: s.Therapist.Store().Len(),
			AverageStress: round1(recentAverageStress(s.Therapist.Store(), 10)),
			CurrentStress: result.Classification.StressLevel,
		},
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

// HistoryItem is one summarized conversation record.
type HistoryItem struct {
	ID          int    `json:"id"`
	Timestamp   string `json:"timestamp"`
	UserMessage string `json:"user_message"`
	Emotion     string `json:"emotion"`
	StressLevel int    `json:"stress_level"`
	RiskLevel   string `json:"risk_level"`
}

// HistoryResponse is the /api/history payload.
type HistoryResponse struct {
	Status             string        `json:"status"`
	History            []HistoryItem `json:"history"`
	TotalConversations int           `json:"total_conversations"`
}

// GetHistory returns the last 20 records summarized for display.
func (s *APIV1Service) GetHistory(c echo.Context) error {
	st := s.Therapist.Store()
	records := st.Recent(20)

	history := make([]HistoryItem, 0, len(records))
	for _, record := range records {
		history = append(history, HistoryItem{
			ID:          record.ID,
			Timestamp:   record.Timestamp,
			UserMessage: record.Context,
			Emotion:     record.PrimaryEmotion,
			StressLevel: record.StressLevel,
			RiskLevel:   record.RiskAssessment,
		})
	}

	return c.JSON(http.StatusOK, HistoryResponse{
		Status:             "success",
		History:            history,
		TotalConversations: st.Len(),
	})
}

// StressTrendPoint is one point of the analytics stress trend.
type StressTrendPoint struct {
	Session int    `json:"session"`
	Stress  int    `json:"stress"`
	Emotion string `json:"emotion"`
}

// Analytics aggregates the whole history for the dashboard.
type Analytics struct {
	TotalSessions       int                `json:"total_sessions"`
	StressTrend         []StressTrendPoint `json:"stress_trend"`
	EmotionDistribution map[string]int     `json:"emotion_distribution"`
	AverageStress       float64            `json:"average_stress"`
	CurrentTrend        string             `json:"current_trend,omitempty"`
}

// AnalyticsResponse is the /api/analytics payload.
type AnalyticsResponse struct {
	Status    string    `json:"status"`
	Analytics Analytics `json:"analytics"`
}

// GetAnalytics returns the stress trend, emotion distribution and averages.
func (s *APIV1Service) GetAnalytics(c echo.Context) error {
	st := s.Therapist.Store()
	records := st.List()

	if len(records) == 0 {
		return c.JSON(http.StatusOK, AnalyticsResponse{
			Status: "success",
			Analytics: Analytics{
				TotalSessions:       0,
				StressTrend:         []StressTrendPoint{},
				EmotionDistribution: map[string]int{},
				AverageStress:       5,
			},
		})
	}

	recent := st.Recent(10)
	trend := make([]StressTrendPoint, 0, len(recent))
	for i, record := range recent {
		trend = append(trend, StressTrendPoint{
			Session: i + 1,
			Stress:  record.StressLevel,
			Emotion: record.PrimaryEmotion,
		})
	}

	distribution := make(map[string]int)
	for _, record := range records {
		distribution[record.PrimaryEmotion]++
	}

	return c.JSON(http.StatusOK, AnalyticsResponse{
		Status: "success",
		Analytics: Analytics{
			TotalSessions:       len(records),
			StressTrend:         trend,
			EmotionDistribution: distribution,
			AverageStress:       round1(st.AverageStress()),
			CurrentTrend:        s.Therapist.RecentEmotionalTrend(),
		},
	})
}

// StressHistoryPoint is one point of the stress monitor history.
type StressHistoryPoint struct {
	Time    string `json:"time"`
	Stress  int    `json:"stress"`
	Session int    `json:"session"`
}

// StressMonitorResponse is the /api/stress-monitor payload.
type StressMonitorResponse struct {
	Status        string               `json:"status"`
	CurrentStress int                  `json:"current_stress"`
	Trend         string               `json:"trend"`
	LastUpdated   string               `json:"last_updated"`
	StressHistory []StressHistoryPoint `json:"stress_history"`
	AverageStress float64              `json:"average_stress"`
	PeakStress    int                  `json:"peak_stress"`
	SessionsCount int                  `json:"sessions_count"`
}

// GetStressMonitor returns live stress metrics for the frontend meter.
func (s *APIV1Service) GetStressMonitor(c echo.Context) error {
	st := s.Therapist.Store()
	now := time.Now().Format(time.RFC3339)

	if st.Len() == 0 {
		return c.JSON(http.StatusOK, StressMonitorResponse{
			Status:        "success",
			CurrentStress: 5,
			Trend:         "stable",
			LastUpdated:   now,
			StressHistory: []StressHistoryPoint{},
			AverageStress: 5,
			PeakStress:    5,
			SessionsCount: 0,
		})
	}

	recent := st.Recent(10)
	current := recent[len(recent)-1].StressLevel

	trend := "stable"
	if len(recent) > 1 {
		previous := recent[len(recent)-2].StressLevel
		if current > previous {
			trend = "increasing"
		} else if current < previous {
			trend = "decreasing"
		}
	}

	sum := 0
	peak := 0
	for _, record := range recent {
		sum += record.StressLevel
		if record.StressLevel > peak {
			peak = record.StressLevel
		}
	}

	historyStart := 0
	if len(recent) > 5 {
		historyStart = len(recent) - 5
	}
	history := make([]StressHistoryPoint, 0, 5)
	for i, record := range recent[historyStart:] {
		history = append(history, StressHistoryPoint{
			Time:    record.Timestamp,
			Stress:  record.StressLevel,
			Session: i + 1,
		})
	}

	return c.JSON(http.StatusOK, StressMonitorResponse{
		Status:        "success",
		CurrentStress: current,
		Trend:         trend,
		LastUpdated:   now,
		StressHistory: history,
		AverageStress: float64(sum) / float64(len(recent)),
		PeakStress:    peak,
		SessionsCount: st.Len(),
	})
}

func recentAverageStress(st *store.Store, window int) float64 {
	records := st.Recent(window)
	if len(records) == 0 {
		return 5
	}
	sum := 0
	for _, record := range records {
		sum += record.StressLevel
	}
	return float64(sum) / float64(len(records))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
