package v1

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/helai/internal/profile"
	"github.com/hrygo/helai/server/service/respond"
	"github.com/hrygo/helai/server/service/therapist"
	"github.com/hrygo/helai/store"
)

type fakeTherapist struct {
	store      *store.Store
	result     *therapist.TurnResult
	stats      therapist.SessionStats
	trend      string
	gotMessage string
	turns      int
}

func (f *fakeTherapist) ProcessTurn(_ context.Context, message string) *therapist.TurnResult {
	f.gotMessage = message
	f.turns++
	return f.result
}

func (f *fakeTherapist) Stats() therapist.SessionStats { return f.stats }

func (f *fakeTherapist) Store() *store.Store { return f.store }

func (f *fakeTherapist) RecentEmotionalTrend() string { return f.trend }

func newTestService(t *testing.T) (*APIV1Service, *fakeTherapist) {
	t.Helper()
	fake := &fakeTherapist{
		store: store.New(t.TempDir(), "api_test"),
		stats: therapist.SessionStats{SessionID: "sess-1"},
		trend: "Emotionally stable (avg stress: 4.0/10)",
	}
	return NewAPIV1Service(&profile.Profile{Version: "0.1.0"}, fake), fake
}

func doRequest(t *testing.T, svc *APIV1Service, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	svc.Register(e)

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func appendRecord(t *testing.T, st *store.Store, emotion string, stress int, risk string) {
	t.Helper()
	_, err := st.Append(store.ConversationRecord{
		Timestamp:      "2026-08-31T10:00:00Z",
		Context:        "something on my mind",
		UserInput:      "something on my mind",
		PrimaryEmotion: emotion,
		StressLevel:    stress,
		RiskAssessment: risk,
	})
	require.NoError(t, err)
}

func TestGetHealth(t *testing.T) {
	svc, _ := newTestService(t)
	rec := doRequest(t, svc, http.MethodGet, "/api/health", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "sess-1", body["session_id"])
	assert.Equal(t, "0.1.0", body["version"])
	assert.NotEmpty(t, body["timestamp"])
}

func TestPostChatSuccess(t *testing.T) {
	svc, fake := newTestService(t)
	appendRecord(t, fake.store, store.EmotionAnxiety, 7, store.RiskMedium)
	fake.result = &therapist.TurnResult{
		Classification: store.Classification{
			PrimaryEmotion:       store.EmotionAnxiety,
			StressLevel:          7,
			EmotionIntensity:     0.6,
			RiskAssessment:       store.RiskMedium,
			PsychologicalMarkers: []string{"anxiety"},
			StressTriggers:       []string{"deadline"},
		},
		Response: respond.TherapeuticResponse{
			Response:             "That sounds like a lot of pressure.",
			TherapeuticApproach:  "Stress management and coping skills",
			CopingSuggestion:     "Take a 10-minute break",
			StressInterpretation: "high stress levels",
		},
		IsCrisis: false,
	}

	rec := doRequest(t, svc, http.MethodPost, "/api/chat", `{"message":"the deadline is crushing me"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "the deadline is crushing me", fake.gotMessage)

	var body ChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "success", body.Status)
	assert.Equal(t, "That sounds like a lot of pressure.", body.Response)
	assert.Equal(t, store.EmotionAnxiety, body.EmotionAnalysis.PrimaryEmotion)
	assert.Equal(t, 7, body.EmotionAnalysis.StressLevel)
	assert.Equal(t, []string{"deadline"}, body.EmotionAnalysis.StressTriggers)
	assert.False(t, body.TherapeuticInsights.IsCrisis)
	assert.Equal(t, "Stress management and coping skills", body.TherapeuticInsights.Approach)
	assert.Equal(t, 1, body.SessionStats.TotalSessions)
	assert.Equal(t, 7.0, body.SessionStats.AverageStress)
	assert.Equal(t, 7, body.SessionStats.CurrentStress)
	assert.NotEmpty(t, body.Timestamp)
}

func TestPostChatEmptyMessage(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing field", `{}`},
		{"empty string", `{"message":""}`},
		{"whitespace only", `{"message":"   \n\t"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, fake := newTestService(t)
			rec := doRequest(t, svc, http.MethodPost, "/api/chat", tt.body)

			require.Equal(t, http.StatusBadRequest, rec.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, "Empty message", body["error"])
			// No turn ran, nothing appended.
			assert.Equal(t, 0, fake.turns)
			assert.Equal(t, 0, fake.store.Len())
		})
	}
}

func TestPostChatInternalError(t *testing.T) {
	svc, fake := newTestService(t)
	fake.result = nil

	rec := doRequest(t, svc, http.MethodPost, "/api/chat", `{"message":"hello"}`)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	var body ChatErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "error", body.Status)
	assert.Contains(t, body.Response, "technical difficulties")
	assert.Equal(t, store.EmotionNeutral, body.EmotionAnalysis.PrimaryEmotion)
	assert.Equal(t, 5, body.EmotionAnalysis.StressLevel)
	assert.Equal(t, 0.5, body.EmotionAnalysis.EmotionIntensity)
	assert.Equal(t, store.RiskLow, body.EmotionAnalysis.RiskAssessment)
}

func TestGetHistory(t *testing.T) {
	svc, fake := newTestService(t)
	for i := 0; i < 25; i++ {
		appendRecord(t, fake.store, store.EmotionSadness, 4, store.RiskLow)
	}

	rec := doRequest(t, svc, http.MethodGet, "/api/history", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var body HistoryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "success", body.Status)
	assert.Len(t, body.History, 20)
	assert.Equal(t, 25, body.TotalConversations)
	// Oldest of the window first, sequence IDs preserved.
	assert.Equal(t, 6, body.History[0].ID)
	assert.Equal(t, 25, body.History[19].ID)
	assert.Equal(t, "something on my mind", body.History[0].UserMessage)
	assert.Equal(t, store.EmotionSadness, body.History[0].Emotion)
	assert.Equal(t, store.RiskLow, body.History[0].RiskLevel)
}

func TestGetHistoryEmpty(t *testing.T) {
	svc, _ := newTestService(t)
	rec := doRequest(t, svc, http.MethodGet, "/api/history", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var body HistoryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Empty(t, body.History)
	assert.Equal(t, 0, body.TotalConversations)
}

func TestGetAnalytics(t *testing.T) {
	svc, fake := newTestService(t)
	appendRecord(t, fake.store, store.EmotionJoy, 2, store.RiskLow)
	appendRecord(t, fake.store, store.EmotionSadness, 6, store.RiskMedium)
	appendRecord(t, fake.store, store.EmotionSadness, 7, store.RiskMedium)

	rec := doRequest(t, svc, http.MethodGet, "/api/analytics", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var body AnalyticsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "success", body.Status)
	assert.Equal(t, 3, body.Analytics.TotalSessions)
	require.Len(t, body.Analytics.StressTrend, 3)
	assert.Equal(t, 1, body.Analytics.StressTrend[0].Session)
	assert.Equal(t, 2, body.Analytics.StressTrend[0].Stress)
	assert.Equal(t, store.EmotionJoy, body.Analytics.StressTrend[0].Emotion)
	assert.Equal(t, map[string]int{store.EmotionJoy: 1, store.EmotionSadness: 2}, body.Analytics.EmotionDistribution)
	assert.Equal(t, 5.0, body.Analytics.AverageStress)
	assert.Equal(t, fake.trend, body.Analytics.CurrentTrend)
}

func TestGetAnalyticsEmpty(t *testing.T) {
	svc, _ := newTestService(t)
	rec := doRequest(t, svc, http.MethodGet, "/api/analytics", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var body AnalyticsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 0, body.Analytics.TotalSessions)
	assert.NotNil(t, body.Analytics.StressTrend)
	assert.Empty(t, body.Analytics.StressTrend)
	assert.NotNil(t, body.Analytics.EmotionDistribution)
	assert.Equal(t, 5.0, body.Analytics.AverageStress)
}

func TestGetStressMonitor(t *testing.T) {
	svc, fake := newTestService(t)
	appendRecord(t, fake.store, store.EmotionNeutral, 3, store.RiskLow)
	appendRecord(t, fake.store, store.EmotionAnxiety, 8, store.RiskMedium)
	appendRecord(t, fake.store, store.EmotionAnxiety, 6, store.RiskLow)

	rec := doRequest(t, svc, http.MethodGet, "/api/stress-monitor", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var body StressMonitorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "success", body.Status)
	assert.Equal(t, 6, body.CurrentStress)
	assert.Equal(t, "decreasing", body.Trend)
	assert.Len(t, body.StressHistory, 3)
	assert.Equal(t, 3, body.StressHistory[0].Stress)
	assert.Equal(t, 1, body.StressHistory[0].Session)
	assert.InDelta(t, 5.667, body.AverageStress, 0.001)
	assert.Equal(t, 8, body.PeakStress)
	assert.Equal(t, 3, body.SessionsCount)
}

func TestGetStressMonitorEmpty(t *testing.T) {
	svc, _ := newTestService(t)
	rec := doRequest(t, svc, http.MethodGet, "/api/stress-monitor", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var body StressMonitorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 5, body.CurrentStress)
	assert.Equal(t, "stable", body.Trend)
	assert.Empty(t, body.StressHistory)
	assert.Equal(t, 5.0, body.AverageStress)
	assert.Equal(t, 5, body.PeakStress)
	assert.Equal(t, 0, body.SessionsCount)
}
