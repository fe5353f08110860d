package file

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/askdocs/internal/core/domain"
	"github.com/custodia-labs/askdocs/internal/logger"
)

// DefaultConfigFile is read from the working directory when no path is given.
const DefaultConfigFile = "askdocs.toml"

// Environment variables that override file settings.
const (
	EnvSlackBotToken      = "SLACK_BOT_TOKEN"
	EnvSlackSigningSecret = "SLACK_SIGNING_SECRET"
	EnvSlackAppToken      = "SLACK_APP_TOKEN"
	EnvRedisURL           = "ASKDOCS_REDIS_URL"
	EnvOllamaURL          = "ASKDOCS_OLLAMA_URL"
	EnvOpenAIKey          = "OPENAI_API_KEY"
	EnvAnthropicKey       = "ANTHROPIC_API_KEY"
	EnvPort               = "ASKDOCS_PORT"
)

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// SettingsStore reads and writes askdocs settings as TOML.
// A missing file is not an error; defaults apply.
type SettingsStore struct {
	mu       sync.Mutex
	filePath string
	lookup   LookupFunc
}

// NewSettingsStore creates a store for the given file.
// An empty path means ./askdocs.toml.
func NewSettingsStore(path string) *SettingsStore {
	if path == "" {
		path = DefaultConfigFile
	}
	return &SettingsStore{filePath: path, lookup: os.LookupEnv}
}

// WithLookup replaces the environment lookup. Used by tests.
func (s *SettingsStore) WithLookup(fn LookupFunc) *SettingsStore {
	s.lookup = fn
	return s
}

// Path returns the settings file path.
func (s *SettingsStore) Path() string {
	return s.filePath
}

// Load returns defaults overlaid with the file and then the environment.
// The result is validated.
func (s *SettingsStore) Load() (domain.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	settings := domain.DefaultSettings()

	data, err := os.ReadFile(s.filePath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		logger.Debug("No config file at %s, using defaults", s.filePath)
	case err != nil:
		return settings, fmt.Errorf("read config %s: %w", s.filePath, err)
	default:
		if err := toml.Unmarshal(data, &settings); err != nil {
			return settings, fmt.Errorf("%w: parse config %s: %w", domain.ErrInvalidInput, s.filePath, err)
		}
		logger.Debug("Loaded config from %s", s.filePath)
	}

	if err := ApplyEnv(&settings, s.lookup); err != nil {
		return settings, err
	}
	if err := settings.Validate(); err != nil {
		return settings, err
	}
	return settings, nil
}

// Save writes settings to the file with owner-only permissions.
func (s *SettingsStore) Save(settings domain.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := toml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if dir := filepath.Dir(s.filePath); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	return os.WriteFile(s.filePath, data, 0600)
}

// LoadDotEnv loads KEY=VALUE pairs from path into the process environment.
// Variables already set win. A missing file is ignored.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	err := godotenv.Load(path)
	if err == nil {
		logger.Debug("Loaded environment from %s", path)
		return nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("load %s: %w", path, err)
}

// ApplyEnv overlays environment overrides onto settings.
func ApplyEnv(s *domain.Settings, lookup LookupFunc) error {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	set := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	set(EnvSlackBotToken, &s.Slack.BotToken)
	set(EnvSlackSigningSecret, &s.Slack.SigningSecret)
	set(EnvSlackAppToken, &s.Slack.AppToken)
	set(EnvRedisURL, &s.RateLimit.RedisURL)

	if v, ok := lookup(EnvOllamaURL); ok && v != "" {
		if s.Embedding.Provider == domain.AIProviderOllama {
			s.Embedding.BaseURL = v
		}
		if s.LLM.Provider == domain.AIProviderOllama {
			s.LLM.BaseURL = v
		}
	}
	if v, ok := lookup(EnvOpenAIKey); ok && v != "" {
		if s.Embedding.Provider == domain.AIProviderOpenAI && s.Embedding.APIKey == "" {
			s.Embedding.APIKey = v
		}
		if s.LLM.Provider == domain.AIProviderOpenAI && s.LLM.APIKey == "" {
			s.LLM.APIKey = v
		}
	}
	if v, ok := lookup(EnvAnthropicKey); ok && v != "" {
		if s.LLM.Provider == domain.AIProviderAnthropic && s.LLM.APIKey == "" {
			s.LLM.APIKey = v
		}
	}
	if v, ok := lookup(EnvPort); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port <= 0 || port > 65535 {
			return fmt.Errorf("%w: %s=%q is not a valid port", domain.ErrInvalidInput, EnvPort, v)
		}
		s.Server.Port = port
	}
	return nil
}

// Redacted returns a copy of settings with credentials masked.
func Redacted(s domain.Settings) domain.Settings {
	s.Embedding.APIKey = logger.Redact(s.Embedding.APIKey)
	s.LLM.APIKey = logger.Redact(s.LLM.APIKey)
	s.VectorStore.QdrantKey = logger.Redact(s.VectorStore.QdrantKey)
	s.Slack.BotToken = logger.Redact(s.Slack.BotToken)
	s.Slack.SigningSecret = logger.Redact(s.Slack.SigningSecret)
	s.Slack.AppToken = logger.Redact(s.Slack.AppToken)
	return s
}

// Encode renders settings as TOML.
func Encode(s domain.Settings) ([]byte, error) {
	return toml.Marshal(s)
}
