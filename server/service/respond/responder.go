// Package respond generates the empathetic reply for a classified message.
// The free-text reply comes from the LLM; interpretation, coping guidance,
// approach and crisis resources are computed locally and never degrade.
package respond

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hrygo/helai/plugin/ai"
	"github.com/hrygo/helai/store"
)

// CrisisResources is the fixed block of hotline information attached when
// the risk assessment is high or crisis.
type CrisisResources struct {
	ImmediateHelp []string `json:"immediate_help"`
	SafetyMessage string   `json:"safety_message"`
}

// TherapeuticResponse is the full per-turn reply package.
type TherapeuticResponse struct {
	Response             string           `json:"response"`
	StressInterpretation string           `json:"stress_interpretation"`
	CopingSuggestion     string           `json:"coping_suggestion"`
	TherapeuticApproach  string           `json:"therapeutic_approach"`
	CrisisResources      *CrisisResources `json:"crisis_resources,omitempty"`
	GeneratedBy          string           `json:"generated_by"`
}

// FallbackGenerator tags responses produced without the LLM.
const FallbackGenerator = "fallback_professional"

// Responder turns a classification into a TherapeuticResponse. A nil LLM
// service means every reply uses the fixed templates.
type Responder struct {
	llm   ai.LLMService
	model string
}

// NewResponder creates a Responder. llm may be nil.
func NewResponder(llm ai.LLMService, model string) *Responder {
	return &Responder{llm: llm, model: model}
}

const respondPromptTemplate = `You are Dr. Sarah Chen, a warm and professional clinical psychologist.

PATIENT ASSESSMENT:
- Emotion: %s
- Stress Level: %d/10
- Risk Level: %s
- Message: "%s"

Provide a caring, professional therapeutic response. Be empathetic and ask ONE relevant follow-up question.

If stress level is 8+, include a coping technique.
If risk is high/crisis, mention support resources.

Keep response 2-3 sentences plus one question.`

// Respond builds the reply for one turn. LLM failure degrades only the
// free-text reply; every locally computed field is identical on both paths.
func (r *Responder) Respond(ctx context.Context, classification store.Classification, message string) TherapeuticResponse {
	response := TherapeuticResponse{
		StressInterpretation: InterpretStressLevel(classification.StressLevel),
		CopingSuggestion:     CopingSuggestion(classification.StressLevel),
		TherapeuticApproach:  DetermineApproach(classification),
		GeneratedBy:          r.model,
	}
	if classification.RiskAssessment == store.RiskHigh || classification.RiskAssessment == store.RiskCrisis {
		response.CrisisResources = NewCrisisResources()
	}

	if r.llm == nil {
		response.Response = fallbackReply(classification.StressLevel)
		response.GeneratedBy = FallbackGenerator
		return response
	}

	prompt := fmt.Sprintf(respondPromptTemplate,
		classification.PrimaryEmotion, classification.StressLevel, classification.RiskAssessment, message)
	raw, err := r.llm.Chat(ctx, []ai.Message{ai.UserMessage(prompt)})
	if err != nil || strings.TrimSpace(raw) == "" {
		if err != nil {
			slog.Warn("therapeutic response request failed, using template", slog.String("error", err.Error()))
		}
		response.Response = fallbackReply(classification.StressLevel)
		response.GeneratedBy = FallbackGenerator
		return response
	}

	response.Response = strings.TrimSpace(raw)
	return response
}

// InterpretStressLevel maps a stress level onto its interpretation tier.
func InterpretStressLevel(stressLevel int) string {
	switch {
	case stressLevel <= 2:
		return "Your stress level is very manageable, which is excellent for your well-being."
	case stressLevel <= 4:
		return "You're experiencing mild stress, which is normal and can be motivating."
	case stressLevel <= 6:
		return "Your stress level is moderate. This is a good time to focus on stress management."
	case stressLevel <= 8:
		return "You're dealing with high stress levels that need active attention."
	default:
		return "Your stress level is extremely high and requires immediate support."
	}
}

// CopingSuggestion maps a stress level onto a coping technique.
func CopingSuggestion(stressLevel int) string {
	switch {
	case stressLevel >= 8:
		return "Try the 4-7-8 breathing technique: Inhale for 4, hold for 7, exhale for 8. Repeat 4 times."
	case stressLevel >= 6:
		return "Consider taking a 10-minute break for deep breathing or gentle stretching."
	case stressLevel >= 4:
		return "A short walk or listening to calming music might help you reset."
	default:
		return "Continue with your positive coping strategies and maintain this balance."
	}
}

// DetermineApproach picks the therapeutic approach, risk first.
func DetermineApproach(classification store.Classification) string {
	switch {
	case classification.RiskAssessment == store.RiskHigh || classification.RiskAssessment == store.RiskCrisis:
		return "Crisis intervention and safety planning"
	case classification.StressLevel >= 8:
		return "Immediate stress reduction and grounding"
	case classification.StressLevel >= 6:
		return "Stress management and coping skills"
	default:
		return "Supportive therapy and resilience building"
	}
}

// NewCrisisResources returns the fixed crisis resource block.
func NewCrisisResources() *CrisisResources {
	return &CrisisResources{
		ImmediateHelp: []string{
			"National Suicide Prevention Lifeline: 988",
			"Crisis Text Line: Text HOME to 741741",
			"Emergency Services: 911",
		},
		SafetyMessage: "You are not alone. Professional help is available 24/7.",
	}
}

func fallbackReply(stressLevel int) string {
	switch {
	case stressLevel >= 8:
		return "I can sense you're dealing with significant stress right now. That must feel overwhelming. I'm here to support you through this. What feels most urgent to address?"
	case stressLevel >= 6:
		return "It sounds like you're experiencing quite a bit of stress. That can be really challenging. What's been weighing on your mind the most?"
	default:
		return "I'm here to listen and support you. Thank you for sharing with me. What would be most helpful to explore together?"
	}
}
