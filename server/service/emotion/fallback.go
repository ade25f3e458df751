package emotion

import (
	"strings"
	"time"

	"github.com/hrygo/helai/store"
)

// FallbackModel tags classifications produced without the LLM.
const FallbackModel = "fallback_advanced"

// emotionKeywords is iterated in order; the first category with the highest
// nonzero keyword count wins ties.
var emotionKeywords = []struct {
	emotion  string
	keywords []string
}{
	{store.EmotionJoy, []string{"happy", "excited", "great", "wonderful", "amazing", "love", "fantastic"}},
	{store.EmotionSadness, []string{"sad", "depressed", "down", "lonely", "hopeless", "crying", "hurt"}},
	{store.EmotionAnger, []string{"angry", "mad", "furious", "frustrated", "hate", "rage", "irritated"}},
	// "overwhelmed" is deliberately absent: it is a stress indicator only and
	// must not pull the base emotion away from neutral.
	{store.EmotionAnxiety, []string{"worried", "anxious", "nervous", "scared", "panic", "stressed"}},
}

// stressTiers is checked in priority order; the first tier with any phrase
// match decides the stress level.
var stressTiers = []struct {
	level   int
	phrases []string
}{
	{10, []string{"suicidal", "kill myself", "end it all", "can't go on"}},
	{8, []string{"overwhelmed", "breaking point", "can't handle", "too much"}},
	{7, []string{"stressed", "pressure", "deadline", "exhausted", "burnt out"}},
	{5, []string{"busy", "hectic", "tired", "worried", "concerned"}},
	{2, []string{"calm", "peaceful", "relaxed", "comfortable", "fine"}},
}

const baselineStress = 4

var fallbackFollowUps = []string{
	"What's been weighing on your mind?",
	"How are you taking care of yourself?",
	"What would feel most helpful right now?",
}

// fallback scores the message with fixed keyword tables. It is deterministic
// and makes no network calls.
func (c *Classifier) fallback(message string) store.Classification {
	text := strings.ToLower(message)

	primaryEmotion := store.EmotionNeutral
	intensity := 0.4
	maxScore := 0
	for _, category := range emotionKeywords {
		score := 0
		for _, keyword := range category.keywords {
			if strings.Contains(text, keyword) {
				score++
			}
		}
		if score > maxScore {
			maxScore = score
			primaryEmotion = category.emotion
		}
	}
	if maxScore > 0 {
		intensity = float64(maxScore) * 0.3
		if intensity > 1.0 {
			intensity = 1.0
		}
	}

	stressLevel := baselineStress
	for _, tier := range stressTiers {
		matched := false
		for _, phrase := range tier.phrases {
			if strings.Contains(text, phrase) {
				matched = true
				break
			}
		}
		if matched {
			stressLevel = tier.level
			break
		}
	}

	sentiment := 0.0
	switch primaryEmotion {
	case store.EmotionSadness, store.EmotionAnger:
		sentiment = -0.6
	case store.EmotionJoy:
		sentiment = 0.6
	}

	markers := []string{"stable"}
	if primaryEmotion != store.EmotionNeutral {
		markers = []string{primaryEmotion}
	}

	triggers := []string{}
	for _, tier := range stressTiers {
		for _, phrase := range tier.phrases {
			if strings.Contains(text, phrase) {
				triggers = append(triggers, phrase)
			}
		}
	}

	return store.Classification{
		PrimaryEmotion:       primaryEmotion,
		EmotionIntensity:     intensity,
		StressLevel:          stressLevel,
		SentimentScore:       sentiment,
		PsychologicalMarkers: markers,
		StressTriggers:       triggers,
		TherapeuticPriority:  priorityForStress(stressLevel),
		RiskAssessment:       riskForStress(stressLevel),
		FollowUpQuestions:    append([]string{}, fallbackFollowUps...),
		Timestamp:            time.Now().Format(time.RFC3339),
		Text:                 message,
		AIModel:              FallbackModel,
		AnalysisMethod:       "keyword_psychological",
	}
}

func priorityForStress(stressLevel int) string {
	switch {
	case stressLevel >= 8:
		return store.PriorityHigh
	case stressLevel >= 5:
		return store.PriorityMedium
	default:
		return store.PriorityLow
	}
}

func riskForStress(stressLevel int) string {
	switch {
	case stressLevel >= 9:
		return store.RiskHigh
	case stressLevel >= 6:
		return store.RiskMedium
	default:
		return store.RiskLow
	}
}
