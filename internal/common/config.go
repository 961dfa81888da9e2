package common

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string           `toml:"environment"` // "development" or "production"
	Storage     StorageConfig    `toml:"storage"`
	Logging     LoggingConfig    `toml:"logging"`
	Browser     BrowserConfig    `toml:"browser"`
	Extraction  ExtractionConfig `toml:"extraction"`
	Media       MediaConfig      `toml:"media"`
	YouTube     YouTubeConfig    `toml:"youtube"`
	Whisper     WhisperConfig    `toml:"whisper"`
	Index       IndexConfig      `toml:"index"`
	Queue       QueueConfig      `toml:"queue"`
	Claude      ClaudeConfig     `toml:"claude"`
	Gemini      GeminiConfig     `toml:"gemini"`
	LLM         LLMConfig        `toml:"llm"`
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

type LoggingConfig struct {
	Level  string   `toml:"level"`  // "debug", "info", "warn", "error"
	Output []string `toml:"output"` // "stdout", "file"
}

// BrowserConfig controls the chromedp browsing sessions used by the crawler
// and the download-path media resolver.
type BrowserConfig struct {
	Headless    bool          `toml:"headless"`
	NoSandbox   bool          `toml:"no_sandbox"`
	UserAgent   string        `toml:"user_agent"`
	WaitTimeout time.Duration `toml:"wait_timeout"` // Max wait for a required page element
	WindowWidth int           `toml:"window_width"`
	WindowHigh  int           `toml:"window_height"`
}

// ExtractionConfig controls session discovery.
type ExtractionConfig struct {
	Schedule       string        `toml:"schedule"`        // Cron schedule for periodic extraction
	WatermarkDelay time.Duration `toml:"watermark_delay"` // Safety margin subtracted from "now" when no end date is pinned
	KeywordsFile   string        `toml:"keywords_file"`   // Per-chamber/per-commission search keyword catalog (YAML)
	Timezone       string        `toml:"timezone"`        // Legislature timezone (default America/Santiago)
}

// MediaConfig controls the media resolver.
type MediaConfig struct {
	Strategy         map[string]string `toml:"strategy"`           // Chamber tag -> "captions" or "download"
	DownloadFallback bool              `toml:"download_fallback"`  // Orchestrator retries the download path after a captions miss
	TempDir          string            `toml:"temp_dir"`           // Per-session temp artifacts live under this directory
	ChunkSeconds     int               `toml:"chunk_seconds"`      // Audio segment length for transcription (default 600)
	Concurrency      int               `toml:"concurrency"`        // Parallel chunk transcriptions (default 4)
	DownloadTool     string            `toml:"download_tool"`      // External downloader binary (default aria2c)
	TranscodeTool    string            `toml:"transcode_tool"`     // External transcoder binary (default ffmpeg)
	DownloadStreams  int               `toml:"download_streams"`   // Parallel connections for the downloader (default 16)
}

// YouTubeConfig contains YouTube Data API configuration for the caption fast path.
type YouTubeConfig struct {
	APIKey    string            `toml:"api_key" validate:"required_with=Channels"`
	Channels  map[string]string `toml:"channels"`   // Chamber tag -> channel ID
	RateLimit int               `toml:"rate_limit"` // Requests per second
	Language  string            `toml:"language"`   // Caption language (default "es")
}

// WhisperConfig contains the speech-to-text API configuration for the download path.
type WhisperConfig struct {
	APIKey   string `toml:"api_key"`
	Model    string `toml:"model"`    // default "whisper-1"
	Language string `toml:"language"` // default "es"
	Timeout  string `toml:"timeout"`  // Per-chunk request timeout (default "2m")
}

// IndexConfig contains retrieval index configuration.
type IndexConfig struct {
	Host      string `toml:"host" validate:"omitempty,url"` // Index endpoint base URL
	APIKey    string `toml:"api_key"`
	Namespace string `toml:"namespace"`  // Record namespace (default "transcripts")
	ChunkSize int    `toml:"chunk_size"` // Token budget per chunk (default 500)
	Overlap   int    `toml:"overlap"`    // Token overlap between chunks (default 50)
	BatchSize int    `toml:"batch_size"` // Records per upsert call (default 96)
}

// QueueConfig contains task queue configuration.
type QueueConfig struct {
	Backend string `toml:"backend" validate:"oneof=nats memory"` // "nats" or "memory"
	URL     string `toml:"url"`                                  // NATS server URL
	Stream  string `toml:"stream"`                               // JetStream stream name
}

// ClaudeConfig contains Anthropic Claude API configuration for summarization.
type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`
	MaxTokens   int     `toml:"max_tokens"`
	Timeout     string  `toml:"timeout"`
	Temperature float32 `toml:"temperature"`
}

// GeminiConfig contains Google Gemini API configuration for summarization.
type GeminiConfig struct {
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`
	Timeout     string  `toml:"timeout"`
	Temperature float32 `toml:"temperature"`
}

// LLMProvider represents the AI provider type
type LLMProvider string

const (
	// LLMProviderClaude uses Anthropic Claude API
	LLMProviderClaude LLMProvider = "claude"
	// LLMProviderGemini uses Google Gemini API
	LLMProviderGemini LLMProvider = "gemini"
)

// LLMConfig selects the chat-completion provider.
type LLMConfig struct {
	DefaultProvider LLMProvider `toml:"default_provider"` // "claude" or "gemini"
}

// NewDefaultConfig creates a configuration with default values.
// Technical parameters are hardcoded here for production stability;
// only user-facing settings belong in parlascope.toml.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout", "file"},
		},
		Browser: BrowserConfig{
			Headless:    true,
			NoSandbox:   true,
			UserAgent:   "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			WaitTimeout: 10 * time.Second,
			WindowWidth: 2560,
			WindowHigh:  1440,
		},
		Extraction: ExtractionConfig{
			Schedule:       "0 0 6 * * *", // Daily at 06:00 (cron with seconds)
			WatermarkDelay: 12 * time.Hour,
			KeywordsFile:   "./keywords.yaml",
			Timezone:       "America/Santiago",
		},
		Media: MediaConfig{
			Strategy: map[string]string{
				"senate":   "captions",
				"deputies": "captions",
			},
			DownloadFallback: true,
			TempDir:          "./tmp/media",
			ChunkSeconds:     600,
			Concurrency:      4,
			DownloadTool:     "aria2c",
			TranscodeTool:    "ffmpeg",
			DownloadStreams:  16,
		},
		YouTube: YouTubeConfig{
			Channels: map[string]string{
				"senate":   "UC4GJ43VNn4AYfiYa0RBCHQg",
				"deputies": "UCYd5k2TyOyOmUJNx0SH17KA",
			},
			RateLimit: 5,
			Language:  "es",
		},
		Whisper: WhisperConfig{
			Model:    "whisper-1",
			Language: "es",
			Timeout:  "2m",
		},
		Index: IndexConfig{
			Namespace: "transcripts",
			ChunkSize: 500,
			Overlap:   50,
			BatchSize: 96,
		},
		Queue: QueueConfig{
			Backend: "memory",
			URL:     "nats://localhost:4222",
			Stream:  "PARLASCOPE",
		},
		Claude: ClaudeConfig{
			Model:       "claude-sonnet-4-20250514",
			MaxTokens:   8192,
			Timeout:     "5m",
			Temperature: 0.7,
		},
		Gemini: GeminiConfig{
			Model:       "gemini-2.0-flash",
			Timeout:     "5m",
			Temperature: 0.7,
		},
		LLM: LLMConfig{
			DefaultProvider: LLMProviderClaude,
		},
	}
}

// LoadFromFile loads configuration with priority: default -> file -> env.
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files; later files override
// earlier ones. Priority: env vars > last config file > ... > defaults.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	if err := validator.New().Struct(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("PARLASCOPE_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	if badgerPath := os.Getenv("PARLASCOPE_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}

	if level := os.Getenv("PARLASCOPE_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if timeout := os.Getenv("PARLASCOPE_BROWSER_WAIT_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			config.Browser.WaitTimeout = d
		}
	}
	if headless := os.Getenv("PARLASCOPE_BROWSER_HEADLESS"); headless != "" {
		if h, err := strconv.ParseBool(headless); err == nil {
			config.Browser.Headless = h
		}
	}

	if schedule := os.Getenv("PARLASCOPE_EXTRACTION_SCHEDULE"); schedule != "" {
		config.Extraction.Schedule = schedule
	}
	if keywordsFile := os.Getenv("PARLASCOPE_KEYWORDS_FILE"); keywordsFile != "" {
		config.Extraction.KeywordsFile = keywordsFile
	}

	if tempDir := os.Getenv("PARLASCOPE_MEDIA_TEMP_DIR"); tempDir != "" {
		config.Media.TempDir = tempDir
	}
	if concurrency := os.Getenv("PARLASCOPE_MEDIA_CONCURRENCY"); concurrency != "" {
		if c, err := strconv.Atoi(concurrency); err == nil {
			config.Media.Concurrency = c
		}
	}

	if apiKey := os.Getenv("YT_API_KEY"); apiKey != "" {
		config.YouTube.APIKey = apiKey
	}
	if apiKey := os.Getenv("PARLASCOPE_YOUTUBE_API_KEY"); apiKey != "" {
		config.YouTube.APIKey = apiKey
	}

	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		config.Whisper.APIKey = apiKey
	}

	if host := os.Getenv("PARLASCOPE_INDEX_HOST"); host != "" {
		config.Index.Host = host
	}
	if apiKey := os.Getenv("PINECONE_API_KEY"); apiKey != "" {
		config.Index.APIKey = apiKey
	}
	if namespace := os.Getenv("PARLASCOPE_INDEX_NAMESPACE"); namespace != "" {
		config.Index.Namespace = namespace
	}

	if backend := os.Getenv("PARLASCOPE_QUEUE_BACKEND"); backend != "" {
		config.Queue.Backend = backend
	}
	if url := os.Getenv("PARLASCOPE_QUEUE_URL"); url != "" {
		config.Queue.URL = url
	}

	if apiKey := os.Getenv("ANTHROPIC_API_KEY"); apiKey != "" {
		config.Claude.APIKey = apiKey
	}
	if apiKey := os.Getenv("PARLASCOPE_GEMINI_API_KEY"); apiKey != "" {
		config.Gemini.APIKey = apiKey
	}
	if provider := os.Getenv("PARLASCOPE_LLM_DEFAULT_PROVIDER"); provider != "" {
		config.LLM.DefaultProvider = LLMProvider(provider)
	}
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}
