// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Port        string
	FrontendURL string
	DBPath      string
	SessionTTL  time.Duration

	Interview InterviewConfig
	Generate  GenerateConfig
	Capture   CaptureConfig
	Media     MediaConfig
}

// InterviewConfig controls session pacing.
type InterviewConfig struct {
	TotalDuration time.Duration
	BreakDuration time.Duration
	CaptureDelay  time.Duration
}

// GenerateConfig points at the question generation collaborators.
type GenerateConfig struct {
	// RemoteURL is the primary generation service; empty disables the tier.
	RemoteURL string
	// LocalURL is the fallback local model endpoint; empty disables the tier.
	LocalURL   string
	LocalModel string
	// NoveltyCapacity bounds how many conversations retain question history.
	NoveltyCapacity int
}

// CaptureConfig points at the emotion inference service.
type CaptureConfig struct {
	// URL is the inference service base; empty disables capture entirely.
	URL          string
	APIKey       string
	PollInterval time.Duration
	PollAttempts int
}

// MediaConfig points at the optional speech services.
type MediaConfig struct {
	SpeechURL     string
	SpeechVoice   string
	TranscribeURL string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		FrontendURL: getEnv("FRONTEND_URL", ""),
		DBPath:      getEnv("DB_PATH", "./data/mockview.db"),
		SessionTTL:  getEnvDuration("SESSION_TTL", 60*time.Minute),
		Interview: InterviewConfig{
			TotalDuration: getEnvDuration("INTERVIEW_TOTAL_DURATION", 30*time.Minute),
			BreakDuration: getEnvDuration("INTERVIEW_BREAK_DURATION", 20*time.Second),
			CaptureDelay:  getEnvDuration("INTERVIEW_CAPTURE_DELAY", 4*time.Second),
		},
		Generate: GenerateConfig{
			RemoteURL:       getEnv("GENERATE_URL", ""),
			LocalURL:        getEnv("LOCAL_MODEL_URL", ""),
			LocalModel:      getEnv("LOCAL_MODEL_NAME", "llama3.1:8b"),
			NoveltyCapacity: getEnvInt("NOVELTY_CAPACITY", 256),
		},
		Capture: CaptureConfig{
			URL:          getEnv("INFERENCE_URL", ""),
			APIKey:       getEnv("INFERENCE_API_KEY", ""),
			PollInterval: getEnvDuration("INFERENCE_POLL_INTERVAL", time.Second),
			PollAttempts: getEnvInt("INFERENCE_POLL_ATTEMPTS", 30),
		},
		Media: MediaConfig{
			SpeechURL:     getEnv("SPEECH_URL", ""),
			SpeechVoice:   getEnv("SPEECH_VOICE", "en-professional"),
			TranscribeURL: getEnv("TRANSCRIBE_URL", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH cannot be empty")
	}
	if c.Interview.TotalDuration <= 0 {
		return fmt.Errorf("INTERVIEW_TOTAL_DURATION must be > 0")
	}
	if c.Interview.BreakDuration <= 0 {
		return fmt.Errorf("INTERVIEW_BREAK_DURATION must be > 0")
	}
	if c.Generate.NoveltyCapacity <= 0 {
		return fmt.Errorf("NOVELTY_CAPACITY must be > 0")
	}
	if c.Capture.PollInterval <= 0 || c.Capture.PollAttempts <= 0 {
		return fmt.Errorf("inference poll settings must be > 0")
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.FrontendURL == "" ||
		strings.Contains(c.FrontendURL, "localhost") ||
		strings.Contains(c.FrontendURL, "127.0.0.1")
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return d
}
