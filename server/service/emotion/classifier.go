// Package emotion classifies the emotional and psychological content of one
// user message, with an LLM as the primary analyzer and a deterministic
// keyword heuristic as the silent fallback.
package emotion

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hrygo/helai/plugin/ai"
	apperrors "github.com/hrygo/helai/server/internal/errors"
	"github.com/hrygo/helai/store"
)

// HistoryLimit is the maximum number of prior records considered per turn.
const HistoryLimit = 5

// contextWindow is how many of those records end up in the prompt.
const contextWindow = 3

// Classifier produces a Classification for each message. A nil LLM service
// means every call runs on the fallback heuristic.
type Classifier struct {
	llm   ai.LLMService
	model string
}

// NewClassifier creates a Classifier. llm may be nil.
func NewClassifier(llm ai.LLMService, model string) *Classifier {
	return &Classifier{llm: llm, model: model}
}

const classifyPromptTemplate = `You are an expert clinical psychologist. Analyze this message for emotional and psychological content.

CONTEXT: %s

MESSAGE: "%s"

Respond with ONLY this JSON format (no extra text):
{
    "primary_emotion": "joy|sadness|anger|fear|anxiety|disgust|surprise|neutral",
    "emotion_intensity": 0.8,
    "stress_level": 7,
    "sentiment_score": -0.3,
    "psychological_markers": ["anxiety", "overwhelm"],
    "stress_triggers": ["work", "deadline"],
    "therapeutic_priority": "high",
    "risk_assessment": "medium",
    "follow_up_questions": ["What's causing the most stress?", "How are you coping?"]
}

Focus on psychological accuracy and therapeutic relevance.`

// Classify analyzes the message in the light of up to HistoryLimit prior
// records. It never fails: any transport error, empty response or malformed
// output degrades to the keyword heuristic with the same return shape.
func (c *Classifier) Classify(ctx context.Context, message string, history []store.ConversationRecord) store.Classification {
	if c.llm == nil {
		return c.fallback(message)
	}

	prompt := fmt.Sprintf(classifyPromptTemplate, buildContext(history), message)
	raw, err := c.llm.Chat(ctx, []ai.Message{ai.UserMessage(prompt)})
	if err != nil {
		wrapped := apperrors.Wrap(err, apperrors.ErrCodeLLMUnavailable, "emotion analysis request failed")
		slog.Warn("emotion analysis request failed, using fallback", slog.String("error", wrapped.Error()))
		return c.fallback(message)
	}
	if strings.TrimSpace(raw) == "" {
		slog.Warn("empty emotion analysis response, using fallback")
		return c.fallback(message)
	}

	classification, err := c.parse(raw, message)
	if err != nil {
		wrapped := apperrors.Wrap(err, apperrors.ErrCodeMalformedOutput, "malformed emotion analysis response")
		slog.Warn("malformed emotion analysis response, using fallback", slog.String("error", wrapped.Error()))
		return c.fallback(message)
	}
	return classification
}

// buildContext renders the last contextWindow records as prompt lines.
func buildContext(history []store.ConversationRecord) string {
	if len(history) == 0 {
		return "First conversation"
	}
	if len(history) > contextWindow {
		history = history[len(history)-contextWindow:]
	}
	lines := make([]string, 0, len(history))
	for _, record := range history {
		text := record.Context
		if text == "" {
			text = record.UserInput
		}
		lines = append(lines, fmt.Sprintf("Previous: '%s' -> Emotion: %s, Stress: %d", text, record.PrimaryEmotion, record.StressLevel))
	}
	return strings.Join(lines, "\n")
}

// rawClassification mirrors the requested JSON object with pointer fields so
// missing keys can be told apart from zero values.
type rawClassification struct {
	PrimaryEmotion       *string   `json:"primary_emotion"`
	EmotionIntensity     *float64  `json:"emotion_intensity"`
	StressLevel          *int      `json:"stress_level"`
	SentimentScore       *float64  `json:"sentiment_score"`
	PsychologicalMarkers []string  `json:"psychological_markers"`
	StressTriggers       []string  `json:"stress_triggers"`
	TherapeuticPriority  *string   `json:"therapeutic_priority"`
	RiskAssessment       *string   `json:"risk_assessment"`
	FollowUpQuestions    []string  `json:"follow_up_questions"`
}

// parse unwraps code fences, parses the JSON object and fills every missing
// key from the default table before attaching metadata.
func (c *Classifier) parse(raw, message string) (store.Classification, error) {
	text := strings.TrimSpace(raw)
	if strings.HasPrefix(text, "```json") {
		text = strings.ReplaceAll(text, "```json", "")
		text = strings.ReplaceAll(text, "```", "")
	} else if strings.HasPrefix(text, "```") {
		text = strings.ReplaceAll(text, "```", "")
	}

	var parsed rawClassification
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		return store.Classification{}, err
	}

	classification := store.Classification{
		PrimaryEmotion:       store.EmotionNeutral,
		EmotionIntensity:     0.5,
		StressLevel:          5,
		SentimentScore:       0.0,
		PsychologicalMarkers: []string{},
		StressTriggers:       []string{},
		TherapeuticPriority:  store.PriorityMedium,
		RiskAssessment:       store.RiskLow,
		FollowUpQuestions:    []string{"How are you feeling?"},
	}
	if parsed.PrimaryEmotion != nil {
		classification.PrimaryEmotion = *parsed.PrimaryEmotion
	}
	if parsed.EmotionIntensity != nil {
		classification.EmotionIntensity = *parsed.EmotionIntensity
	}
	if parsed.StressLevel != nil {
		classification.StressLevel = clampStress(*parsed.StressLevel)
	}
	if parsed.SentimentScore != nil {
		classification.SentimentScore = *parsed.SentimentScore
	}
	if parsed.PsychologicalMarkers != nil {
		classification.PsychologicalMarkers = parsed.PsychologicalMarkers
	}
	if parsed.StressTriggers != nil {
		classification.StressTriggers = parsed.StressTriggers
	}
	if parsed.TherapeuticPriority != nil {
		classification.TherapeuticPriority = *parsed.TherapeuticPriority
	}
	if parsed.RiskAssessment != nil {
		classification.RiskAssessment = *parsed.RiskAssessment
	}
	if parsed.FollowUpQuestions != nil {
		classification.FollowUpQuestions = parsed.FollowUpQuestions
	}

	classification.Timestamp = time.Now().Format(time.RFC3339)
	classification.Text = message
	classification.AIModel = c.model
	classification.AnalysisMethod = "llm_psychological"
	return classification, nil
}

func clampStress(level int) int {
	if level < 0 {
		return 0
	}
	if level > 10 {
		return 10
	}
	return level
}
