package store

// Emotion labels produced by classification.
const (
	EmotionJoy      = "joy"
	EmotionSadness  = "sadness"
	EmotionAnger    = "anger"
	EmotionFear     = "fear"
	EmotionAnxiety  = "anxiety"
	EmotionDisgust  = "disgust"
	EmotionSurprise = "surprise"
	EmotionNeutral  = "neutral"
)

// Risk assessment levels.
const (
	RiskLow    = "low"
	RiskMedium = "medium"
	RiskHigh   = "high"
	RiskCrisis = "crisis"
)

// Therapeutic priority levels.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// Classification is the structured emotional assessment of one message.
// All fields are always populated; missing values from upstream analysis are
// filled with safe defaults at the classifier boundary.
type Classification struct {
	PrimaryEmotion       string   `json:"primary_emotion"`
	EmotionIntensity     float64  `json:"emotion_intensity"`
	StressLevel          int      `json:"stress_level"`
	SentimentScore       float64  `json:"sentiment_score"`
	PsychologicalMarkers []string `json:"psychological_markers"`
	StressTriggers       []string `json:"stress_triggers"`
	TherapeuticPriority  string   `json:"therapeutic_priority"`
	RiskAssessment       string   `json:"risk_assessment"`
	FollowUpQuestions    []string `json:"follow_up_questions"`
	Timestamp            string   `json:"timestamp"`
	Text                 string   `json:"text"`
	AIModel              string   `json:"ai_model"`
	AnalysisMethod       string   `json:"analysis_method"`
}

// ConversationRecord is one processed message with its classification.
// Records are immutable once written and are never deleted.
type ConversationRecord struct {
	ID               int            `json:"id"`
	Timestamp        string         `json:"timestamp"`
	EmotionScores    Classification `json:"emotion_scores"`
	Context          string         `json:"context"`
	UserInput        string         `json:"user_input"`
	PrimaryEmotion   string         `json:"primary_emotion"`
	StressLevel      int            `json:"stress_level"`
	EmotionIntensity float64        `json:"emotion_intensity"`
	RiskAssessment   string         `json:"risk_assessment"`
}
