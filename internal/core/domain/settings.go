package domain

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API or any compatible server.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API. Generation only.
	AIProviderAnthropic AIProvider = "anthropic"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	default:
		return unknownDescription
	}
}

// VectorStoreKind selects the vector store backend.
type VectorStoreKind string

// Available vector store backends.
const (
	VectorStoreSQLite VectorStoreKind = "sqlite"
	VectorStoreMemory VectorStoreKind = "memory"
	VectorStoreQdrant VectorStoreKind = "qdrant"
)

// LoaderKind selects the PDF text extraction backend.
type LoaderKind string

// Available loaders.
const (
	// LoaderAuto uses pdftotext when it is on PATH, the native reader otherwise.
	LoaderAuto      LoaderKind = "auto"
	LoaderPDFToText LoaderKind = "pdftotext"
	LoaderNative    LoaderKind = "native"
)

// PathSettings locates persisted state.
type PathSettings struct {
	// DataDir holds the vector index and prompt overrides.
	DataDir string `toml:"data_dir"`

	// KnowledgeBase is the folder scanned for PDF files.
	KnowledgeBase string `toml:"knowledge_base"`

	// Ledger is the processed-files ledger. Defaults to
	// <knowledge_base>/processed_files.txt.
	Ledger string `toml:"ledger"`
}

// LedgerPath returns the effective ledger location.
func (p PathSettings) LedgerPath() string {
	if p.Ledger != "" {
		return p.Ledger
	}
	return filepath.Join(p.KnowledgeBase, "processed_files.txt")
}

// ChunkingSettings controls the text splitter.
type ChunkingSettings struct {
	Size    int `toml:"size"`
	Overlap int `toml:"overlap"`
}

// SearchSettings controls retrieval.
type SearchSettings struct {
	// K is the number of nearest chunks fetched per query.
	K int `toml:"k"`

	// ScoreThreshold is the minimum similarity a chunk needs to be used.
	ScoreThreshold float64 `toml:"score_threshold"`
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	Provider AIProvider `toml:"provider"`
	Model    string     `toml:"model"`
	BaseURL  string     `toml:"base_url"`
	APIKey   string     `toml:"api_key"`

	// BatchSize bounds the number of texts sent per embedding call.
	BatchSize int `toml:"batch_size"`
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	Provider    AIProvider `toml:"provider"`
	Model       string     `toml:"model"`
	BaseURL     string     `toml:"base_url"`
	APIKey      string     `toml:"api_key"`
	MaxTokens   int        `toml:"max_tokens"`
	Temperature float64    `toml:"temperature"`
}

// VectorStoreSettings selects and configures the vector store.
type VectorStoreSettings struct {
	Kind       VectorStoreKind `toml:"kind"`
	QdrantURL  string          `toml:"qdrant_url"`
	QdrantKey  string          `toml:"qdrant_api_key"`
	Collection string          `toml:"collection"`
}

// LoaderSettings selects the PDF loader.
type LoaderSettings struct {
	Kind LoaderKind `toml:"kind"`
}

// ServerSettings configures the HTTP front end and the worker pool.
type ServerSettings struct {
	Port int `toml:"port"`

	// RequestTimeout bounds every dispatched ingestion or query, e.g. "120s".
	RequestTimeout string `toml:"request_timeout"`

	// Workers bounds concurrent dispatched tasks.
	Workers int `toml:"workers"`

	// MaxUploadSize bounds request bodies, e.g. "50M".
	MaxUploadSize string `toml:"max_upload_size"`
}

// Timeout returns the parsed request timeout.
func (s ServerSettings) Timeout() time.Duration {
	d, err := time.ParseDuration(s.RequestTimeout)
	if err != nil {
		return 0
	}
	return d
}

// RateLimitSettings configures the front-end limiter.
type RateLimitSettings struct {
	// Limit is expressed as N/unit, e.g. "10/minute".
	Limit string `toml:"limit"`

	// RedisURL enables the shared limiter when reachable.
	RedisURL string `toml:"redis_url"`
}

// SlackSettings holds chat bot credentials.
type SlackSettings struct {
	BotToken      string `toml:"bot_token"`
	SigningSecret string `toml:"signing_secret"`
	AppToken      string `toml:"app_token"`
}

// SocketMode reports whether the Socket Mode transport can run.
func (s SlackSettings) SocketMode() bool {
	return s.BotToken != "" && s.AppToken != ""
}

// EventsAPI reports whether the HTTP events endpoint can run.
func (s SlackSettings) EventsAPI() bool {
	return s.BotToken != "" && s.SigningSecret != ""
}

// IngestSettings controls the ingestion pipeline.
type IngestSettings struct {
	// Workers bounds how many files are loaded and split concurrently.
	Workers int `toml:"workers"`

	// Watch enables automatic ingestion of files dropped into the knowledge base.
	Watch bool `toml:"watch"`

	// ReconcileInterval re-runs startup reconciliation periodically while
	// serving, e.g. "15m". Empty disables it.
	ReconcileInterval string `toml:"reconcile_interval"`
}

// Interval returns the parsed reconcile interval, zero when disabled or invalid.
func (s IngestSettings) Interval() time.Duration {
	if s.ReconcileInterval == "" {
		return 0
	}
	d, err := time.ParseDuration(s.ReconcileInterval)
	if err != nil || d < 0 {
		return 0
	}
	return d
}

// Settings holds all application settings.
type Settings struct {
	Paths       PathSettings        `toml:"paths"`
	Chunking    ChunkingSettings    `toml:"chunking"`
	Search      SearchSettings      `toml:"search"`
	Embedding   EmbeddingSettings   `toml:"embedding"`
	LLM         LLMSettings         `toml:"llm"`
	VectorStore VectorStoreSettings `toml:"vector_store"`
	Loader      LoaderSettings      `toml:"loader"`
	Server      ServerSettings      `toml:"server"`
	RateLimit   RateLimitSettings   `toml:"rate_limit"`
	Slack       SlackSettings       `toml:"slack"`
	Ingest      IngestSettings      `toml:"ingest"`
}

// DefaultSettings returns settings matching the reference deployment:
// local Ollama, SQLite index under db/, PDFs under knowledge_base/.
func DefaultSettings() Settings {
	return Settings{
		Paths: PathSettings{
			DataDir:       "db",
			KnowledgeBase: "knowledge_base",
		},
		Chunking: ChunkingSettings{Size: 1024, Overlap: 80},
		Search:   SearchSettings{K: 15, ScoreThreshold: 0.2},
		Embedding: EmbeddingSettings{
			Provider:  AIProviderOllama,
			Model:     "nomic-embed-text",
			BatchSize: 32,
		},
		LLM: LLMSettings{
			Provider: AIProviderOllama,
			Model:    "llama3",
		},
		VectorStore: VectorStoreSettings{
			Kind:       VectorStoreSQLite,
			Collection: "knowledge_base",
		},
		Loader: LoaderSettings{Kind: LoaderAuto},
		Server: ServerSettings{
			Port:           5000,
			RequestTimeout: "120s",
			Workers:        4,
			MaxUploadSize:  "50M",
		},
		RateLimit: RateLimitSettings{
			Limit:    "10/minute",
			RedisURL: "redis://localhost:6379",
		},
		Ingest: IngestSettings{Workers: 4},
	}
}

// Validate checks that settings are usable.
func (s Settings) Validate() error {
	if s.Paths.KnowledgeBase == "" || s.Paths.DataDir == "" {
		return fmt.Errorf("%w: paths.data_dir and paths.knowledge_base are required", ErrInvalidInput)
	}
	if s.Chunking.Size <= 0 {
		return fmt.Errorf("%w: chunking.size must be > 0", ErrInvalidInput)
	}
	if s.Chunking.Overlap < 0 || s.Chunking.Overlap >= s.Chunking.Size {
		return fmt.Errorf("%w: chunking.overlap must be >= 0 and < chunking.size", ErrInvalidInput)
	}
	if s.Search.K <= 0 {
		return fmt.Errorf("%w: search.k must be > 0", ErrInvalidInput)
	}
	if s.Search.ScoreThreshold < -1 || s.Search.ScoreThreshold > 1 {
		return fmt.Errorf("%w: search.score_threshold must be within [-1, 1]", ErrInvalidInput)
	}
	if !s.Embedding.Provider.IsValid() || s.Embedding.Provider == AIProviderAnthropic {
		return fmt.Errorf("%w: unsupported embedding provider %q", ErrInvalidInput, s.Embedding.Provider)
	}
	if !s.LLM.Provider.IsValid() {
		return fmt.Errorf("%w: unsupported LLM provider %q", ErrInvalidInput, s.LLM.Provider)
	}
	switch s.VectorStore.Kind {
	case VectorStoreSQLite, VectorStoreMemory:
	case VectorStoreQdrant:
		if s.VectorStore.QdrantURL == "" {
			return fmt.Errorf("%w: vector_store.qdrant_url is required for qdrant", ErrInvalidInput)
		}
	default:
		return fmt.Errorf("%w: unsupported vector store %q", ErrInvalidInput, s.VectorStore.Kind)
	}
	switch s.Loader.Kind {
	case LoaderAuto, LoaderPDFToText, LoaderNative:
	default:
		return fmt.Errorf("%w: unsupported loader %q", ErrInvalidInput, s.Loader.Kind)
	}
	if s.Server.Timeout() <= 0 {
		return fmt.Errorf("%w: server.request_timeout %q is not a positive duration", ErrInvalidInput, s.Server.RequestTimeout)
	}
	if s.Ingest.ReconcileInterval != "" && s.Ingest.Interval() <= 0 {
		return fmt.Errorf("%w: ingest.reconcile_interval %q is not a positive duration", ErrInvalidInput, s.Ingest.ReconcileInterval)
	}
	if _, _, err := ParseRate(s.RateLimit.Limit); err != nil {
		return err
	}
	return nil
}

// ParseRate parses a limit of the form "N/unit" where unit is one of
// second, minute, hour or day.
func ParseRate(limit string) (int, time.Duration, error) {
	count, unit, ok := strings.Cut(strings.TrimSpace(limit), "/")
	if !ok {
		return 0, 0, fmt.Errorf("%w: rate limit %q must look like N/unit", ErrInvalidInput, limit)
	}
	n, err := strconv.Atoi(strings.TrimSpace(count))
	if err != nil || n <= 0 {
		return 0, 0, fmt.Errorf("%w: rate limit count %q must be a positive integer", ErrInvalidInput, count)
	}
	var per time.Duration
	switch strings.ToLower(strings.TrimSpace(unit)) {
	case "second", "s":
		per = time.Second
	case "minute", "m":
		per = time.Minute
	case "hour", "h":
		per = time.Hour
	case "day", "d":
		per = 24 * time.Hour
	default:
		return 0, 0, fmt.Errorf("%w: rate limit unit %q is not supported", ErrInvalidInput, unit)
	}
	return n, per, nil
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}
