package respond

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hrygo/helai/plugin/ai"
	"github.com/hrygo/helai/store"
)

type fakeLLM struct {
	response   string
	err        error
	lastPrompt string
}

func (f *fakeLLM) Chat(_ context.Context, messages []ai.Message) (string, error) {
	if len(messages) > 0 {
		f.lastPrompt = messages[len(messages)-1].Content
	}
	return f.response, f.err
}

func TestInterpretStressLevelTiers(t *testing.T) {
	// Pure function of the integer input over the full 0-10 range.
	wantByLevel := map[int]string{
		0:  "very manageable",
		1:  "very manageable",
		2:  "very manageable",
		3:  "mild stress",
		4:  "mild stress",
		5:  "moderate",
		6:  "moderate",
		7:  "high stress levels",
		8:  "high stress levels",
		9:  "extremely high",
		10: "extremely high",
	}
	for level := 0; level <= 10; level++ {
		got := InterpretStressLevel(level)
		assert.Contains(t, got, wantByLevel[level], "level %d", level)
		// Deterministic: same input, same output.
		assert.Equal(t, got, InterpretStressLevel(level))
	}
}

func TestCopingSuggestionTiers(t *testing.T) {
	wantByLevel := map[int]string{
		0:  "positive coping strategies",
		3:  "positive coping strategies",
		4:  "short walk",
		5:  "short walk",
		6:  "10-minute break",
		7:  "10-minute break",
		8:  "4-7-8 breathing",
		10: "4-7-8 breathing",
	}
	for level, want := range wantByLevel {
		assert.Contains(t, CopingSuggestion(level), want, "level %d", level)
	}
}

func TestDetermineApproach(t *testing.T) {
	tests := []struct {
		name   string
		risk   string
		stress int
		want   string
	}{
		{"crisis risk wins", store.RiskCrisis, 2, "Crisis intervention and safety planning"},
		{"high risk wins", store.RiskHigh, 2, "Crisis intervention and safety planning"},
		{"high stress", store.RiskLow, 8, "Immediate stress reduction and grounding"},
		{"moderate stress", store.RiskLow, 6, "Stress management and coping skills"},
		{"supportive", store.RiskLow, 3, "Supportive therapy and resilience building"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DetermineApproach(store.Classification{RiskAssessment: tt.risk, StressLevel: tt.stress})
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRespondUsesLLMReply(t *testing.T) {
	llm := &fakeLLM{response: "That sounds hard. What support do you have around you?"}
	r := NewResponder(llm, "gemini-1.5-flash-latest")

	classification := store.Classification{PrimaryEmotion: store.EmotionAnxiety, StressLevel: 7, RiskAssessment: store.RiskMedium}
	got := r.Respond(context.Background(), classification, "everything is hectic")

	assert.Equal(t, "That sounds hard. What support do you have around you?", got.Response)
	assert.Equal(t, "gemini-1.5-flash-latest", got.GeneratedBy)
	assert.Nil(t, got.CrisisResources)
	assert.True(t, strings.Contains(llm.lastPrompt, "Stress Level: 7/10"))
	assert.True(t, strings.Contains(llm.lastPrompt, "Emotion: anxiety"))
}

func TestRespondFallbackTemplates(t *testing.T) {
	tests := []struct {
		stress int
		want   string
	}{
		{9, "significant stress"},
		{8, "significant stress"},
		{7, "quite a bit of stress"},
		{6, "quite a bit of stress"},
		{5, "here to listen"},
		{0, "here to listen"},
	}
	for _, tt := range tests {
		llm := &fakeLLM{err: errors.New("unreachable")}
		r := NewResponder(llm, "test-model")
		got := r.Respond(context.Background(), store.Classification{StressLevel: tt.stress, RiskAssessment: store.RiskLow}, "msg")
		assert.Contains(t, got.Response, tt.want, "stress %d", tt.stress)
		assert.Equal(t, FallbackGenerator, got.GeneratedBy)
	}
}

func TestRespondFallbackKeepsLocalFields(t *testing.T) {
	// Only the free-text reply degrades: interpretation, coping, approach and
	// crisis resources are identical with and without the LLM.
	classification := store.Classification{PrimaryEmotion: store.EmotionSadness, StressLevel: 9, RiskAssessment: store.RiskCrisis}

	okLLM := NewResponder(&fakeLLM{response: "reply"}, "m")
	failLLM := NewResponder(&fakeLLM{err: errors.New("down")}, "m")

	withLLM := okLLM.Respond(context.Background(), classification, "msg")
	withoutLLM := failLLM.Respond(context.Background(), classification, "msg")

	assert.Equal(t, withLLM.StressInterpretation, withoutLLM.StressInterpretation)
	assert.Equal(t, withLLM.CopingSuggestion, withoutLLM.CopingSuggestion)
	assert.Equal(t, withLLM.TherapeuticApproach, withoutLLM.TherapeuticApproach)
	assert.NotNil(t, withLLM.CrisisResources)
	assert.NotNil(t, withoutLLM.CrisisResources)
	assert.Equal(t, withLLM.CrisisResources.ImmediateHelp, withoutLLM.CrisisResources.ImmediateHelp)
}

func TestRespondCrisisResourcesOnlyForHighRisk(t *testing.T) {
	r := NewResponder(nil, "")

	low := r.Respond(context.Background(), store.Classification{StressLevel: 5, RiskAssessment: store.RiskLow}, "msg")
	assert.Nil(t, low.CrisisResources)

	medium := r.Respond(context.Background(), store.Classification{StressLevel: 5, RiskAssessment: store.RiskMedium}, "msg")
	assert.Nil(t, medium.CrisisResources)

	high := r.Respond(context.Background(), store.Classification{StressLevel: 5, RiskAssessment: store.RiskHigh}, "msg")
	assert.NotNil(t, high.CrisisResources)
	assert.Len(t, high.CrisisResources.ImmediateHelp, 3)
	assert.NotEmpty(t, high.CrisisResources.SafetyMessage)
}

func TestRespondEmptyLLMReplyFallsBack(t *testing.T) {
	llm := &fakeLLM{response: "  \n "}
	r := NewResponder(llm, "test-model")

	got := r.Respond(context.Background(), store.Classification{StressLevel: 4, RiskAssessment: store.RiskLow}, "msg")
	assert.Equal(t, FallbackGenerator, got.GeneratedBy)
	assert.NotEmpty(t, got.Response)
}
