// Package v1 exposes the conversation pipeline over HTTP for the web
// frontend: chat, history, analytics, stress monitor and health.
package v1

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/helai/internal/profile"
	"github.com/hrygo/helai/server/service/therapist"
	"github.com/hrygo/helai/store"
)

// TherapistService is the orchestrator surface the handlers depend on.
type TherapistService interface {
	ProcessTurn(ctx context.Context, message string) *therapist.TurnResult
	Stats() therapist.SessionStats
	Store() *store.Store
	RecentEmotionalTrend() string
}

// APIV1Service wires the HTTP handlers to the orchestrator.
type APIV1Service struct {
	Profile   *profile.Profile
	Therapist TherapistService
}

// NewAPIV1Service creates the v1 API service.
func NewAPIV1Service(profile *profile.Profile, svc TherapistService) *APIV1Service {
	return &APIV1Service{
		Profile:   profile,
		Therapist: svc,
	}
}

// Register attaches all v1 routes to the echo instance.
func (s *APIV1Service) Register(e *echo.Echo) {
	api := e.Group("/api")
	api.GET("/health", s.GetHealth)
	api.POST("/chat", s.PostChat)
	api.GET("/history", s.GetHistory)
	api.GET("/analytics", s.GetAnalytics)
	api.GET("/stress-monitor", s.GetStressMonitor)
}

// Ensure the concrete orchestrator satisfies the handler surface.
var _ TherapistService = (*therapist.Service)(nil)
