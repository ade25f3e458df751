// Package server assembles the HTTP server: the conversation store, the
// classification and response services, and the v1 routes on top of echo.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"github.com/hrygo/helai/internal/profile"
	"github.com/hrygo/helai/plugin/ai"
	apiv1 "github.com/hrygo/helai/server/router/api/v1"
	"github.com/hrygo/helai/server/service/emotion"
	"github.com/hrygo/helai/server/service/respond"
	"github.com/hrygo/helai/server/service/therapist"
	"github.com/hrygo/helai/store"
)

// chatRequestsPerSecond bounds the per-client request rate. Conversation
// turns are serialized anyway, so the limiter only sheds abusive bursts.
const chatRequestsPerSecond = 10

type Server struct {
	Profile *profile.Profile
	Store   *store.Store

	echoServer       *echo.Echo
	therapistService *therapist.Service
	apiV1Service     *apiv1.APIV1Service
}

// NewServer builds the full service graph. When AI is disabled or the LLM
// config is incomplete, the classifier and responder run on their
// deterministic fallbacks and the server still starts.
func NewServer(ctx context.Context, instanceProfile *profile.Profile) (*Server, error) {
	st := store.New(instanceProfile.Data, instanceProfile.User)

	var llmService ai.LLMService
	if instanceProfile.IsAIEnabled() {
		llmConfig := ai.NewConfigFromProfile(instanceProfile)
		svc, err := ai.NewLLMService(llmConfig)
		if err != nil {
			slog.Warn("LLM service unavailable, running with fallback analysis", slog.String("error", err.Error()))
		} else {
			llmService = svc
		}
	}

	therapistService := therapist.NewService(
		st,
		emotion.NewClassifier(llmService, instanceProfile.AIModel),
		respond.NewResponder(llmService, instanceProfile.AIModel),
		instanceProfile.User,
	)

	echoServer := echo.New()
	echoServer.Debug = instanceProfile.IsDev()
	echoServer.HideBanner = true
	echoServer.HidePort = true

	echoServer.Use(middleware.Recover())
	echoServer.Use(middleware.CORS())
	echoServer.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(rate.Limit(chatRequestsPerSecond))))

	s := &Server{
		Profile:          instanceProfile,
		Store:            st,
		echoServer:       echoServer,
		therapistService: therapistService,
	}

	s.apiV1Service = apiv1.NewAPIV1Service(instanceProfile, therapistService)
	s.apiV1Service.Register(echoServer)

	return s, nil
}

// TherapistService exposes the orchestrator, mainly for the CLI chat loop.
func (s *Server) TherapistService() *therapist.Service {
	return s.therapistService
}

func (s *Server) Start(_ context.Context) error {
	address := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
	slog.Info("server started", slog.String("address", address), slog.Bool("ai_enabled", s.Profile.IsAIEnabled()))
	if err := s.echoServer.Start(address); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := s.echoServer.Shutdown(ctx); err != nil {
		slog.Error("failed to shutdown server", slog.String("error", err.Error()))
	}
	slog.Info("server stopped")
}
