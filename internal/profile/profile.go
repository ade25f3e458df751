package profile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// Profile is the configuration to start the main server.
type Profile struct {
	// Mode can be "prod" or "dev" or "demo"
	Mode string
	// Addr is the binding address for server
	Addr string
	// Port is the binding port for server
	Port int
	// Data is the data directory where conversation history is kept
	Data string
	// User is the identifier the conversation store is keyed on
	User string
	// Version is the current version of server
	Version string

	// AI Configuration
	AIEnabled bool   // HELAI_AI_ENABLED
	AIAPIKey  string // HELAI_AI_API_KEY
	AIBaseURL string // HELAI_AI_BASE_URL (default: Gemini OpenAI-compatible endpoint)
	AIModel   string // HELAI_AI_MODEL (default: gemini-1.5-flash-latest)
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsAIEnabled returns true if AI is enabled and an API key is configured.
// Without it every turn runs on the deterministic fallback paths.
func (p *Profile) IsAIEnabled() bool {
	return p.AIEnabled && p.AIAPIKey != ""
}

// getEnvOrDefault returns the environment variable value or the default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// FromEnv loads AI configuration from HELAI_* environment variables.
func (p *Profile) FromEnv() {
	p.AIEnabled = os.Getenv("HELAI_AI_ENABLED") == "true"
	p.AIAPIKey = os.Getenv("HELAI_AI_API_KEY")
	p.AIBaseURL = getEnvOrDefault("HELAI_AI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta/openai")
	p.AIModel = getEnvOrDefault("HELAI_AI_MODEL", "gemini-1.5-flash-latest")
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		relativeDir := filepath.Join(filepath.Dir(os.Args[0]), dataDir)
		absDir, err := filepath.Abs(relativeDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}

	if p.Mode == "prod" && p.Data == "" {
		p.Data = "/var/opt/helai"
		if _, err := os.Stat(p.Data); os.IsNotExist(err) {
			if err := os.MkdirAll(p.Data, 0770); err != nil {
				slog.Error("failed to create data directory", slog.String("data", p.Data), slog.String("error", err.Error()))
				return err
			}
		}
	}

	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		slog.Error("failed to check data dir", slog.String("data", dataDir), slog.String("error", err.Error()))
		return err
	}
	p.Data = dataDir

	if p.User == "" {
		p.User = "helai_user"
	}
	if p.Port == 0 {
		return fmt.Errorf("port is required")
	}

	return nil
}
