package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
)

// Config aggregates every setting of the service.
type Config struct {
	Server   ServerConfig
	AI       AIConfig
	Market   MarketConfig
	Storage  StorageConfig
	Auth     AuthConfig
	Document DocumentConfig
	Leads    LeadsConfig
}

// Load reads the configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	market, err := loadMarketConfig()
	if err != nil {
		return nil, err
	}

	storage, err := loadStorageConfig()
	if err != nil {
		return nil, err
	}

	auth, err := loadAuthConfig()
	if err != nil {
		return nil, err
	}

	document, err := loadDocumentConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:   server,
		AI:       ai,
		Market:   market,
		Storage:  storage,
		Auth:     auth,
		Document: document,
		Leads:    LeadsConfig{DBPath: getEnvOrDefault("LEADS_DB_PATH", "dalio.db")},
	}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr           string
	AllowedOrigins []string
}

func loadServerConfig() (ServerConfig, error) {
	origins := parseListEnv("CORS_ALLOWED_ORIGINS")

	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// ":8080" and "127.0.0.1:8080" are accepted as-is.
		return ServerConfig{Addr: port, AllowedOrigins: origins}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port, AllowedOrigins: origins}, nil
}

// Provider selects the hosted model backend.
type Provider string

const (
	ProviderArk    Provider = "ark"
	ProviderOpenAI Provider = "openai"
	ProviderGemini Provider = "gemini"
)

// AIConfig describes the chat model and the orchestration budget.
type AIConfig struct {
	Provider       Provider
	APIKey         string
	AccessKey      string
	SecretKey      string
	Model          string
	BaseURL        string
	Region         string
	Temperature    *float64
	TopP           *float64
	MaxTokens      *int
	StreamResponse bool
	MaxSteps       int
	HistoryLimit   int
	SummaryEnabled bool

	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string

	GeminiAPIKey string
	GeminiModel  string
}

// Enabled reports whether the selected provider has the credentials it needs.
func (c AIConfig) Enabled() bool {
	switch c.Provider {
	case ProviderOpenAI:
		return c.OpenAIAPIKey != "" && c.OpenAIModel != ""
	case ProviderGemini:
		return c.GeminiAPIKey != "" && c.GeminiModel != ""
	default:
		return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
	}
}

// NewChatModel builds the Ark chat model from the configuration.
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if c.Model == "" || (c.APIKey == "" && (c.AccessKey == "" || c.SecretKey == "")) {
		return nil, fmt.Errorf("missing Ark credentials: provide ARK_API_KEY + ARK_MODEL or an AK/SK pair")
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	var topP *float32
	if c.TopP != nil {
		val := float32(*c.TopP)
		topP = &val
	}

	var maxTokens *int
	if c.MaxTokens != nil {
		val := *c.MaxTokens
		maxTokens = &val
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Model:       c.Model,
		MaxTokens:   maxTokens,
		Temperature: temperature,
		TopP:        topP,
	}

	return ark.NewChatModel(ctx, cfg)
}

func loadAIConfig() (AIConfig, error) {
	temperature, err := parseOptionalFloatEnv("ARK_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}

	topP, err := parseOptionalFloatEnv("ARK_TOP_P")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("ARK_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}

	stream, err := parseBoolEnv("ARK_STREAM", true)
	if err != nil {
		return AIConfig{}, err
	}

	summaryEnabled, err := parseBoolEnv("AI_SUMMARY_ENABLED", true)
	if err != nil {
		return AIConfig{}, err
	}

	maxSteps := 5
	if override, err := parseOptionalIntEnv("AI_MAX_STEPS"); err != nil {
		return AIConfig{}, err
	} else if override != nil {
		if *override < 1 {
			maxSteps = 1
		} else {
			maxSteps = *override
		}
	}

	// Zero forwards the whole transcript.
	historyLimit := 0
	if override, err := parseOptionalIntEnv("AI_HISTORY_LIMIT"); err != nil {
		return AIConfig{}, err
	} else if override != nil && *override > 0 {
		historyLimit = *override
	}

	provider := Provider(strings.ToLower(getEnvOrDefault("AI_PROVIDER", string(ProviderArk))))
	switch provider {
	case ProviderArk, ProviderOpenAI, ProviderGemini:
	default:
		return AIConfig{}, fmt.Errorf("invalid AI_PROVIDER value %q", provider)
	}

	return AIConfig{
		Provider:       provider,
		APIKey:         strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		AccessKey:      strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		SecretKey:      strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		Model:          strings.TrimSpace(os.Getenv("ARK_MODEL")),
		BaseURL:        getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		Region:         getEnvOrDefault("ARK_REGION", "cn-beijing"),
		Temperature:    temperature,
		TopP:           topP,
		MaxTokens:      maxTokens,
		StreamResponse: stream,
		MaxSteps:       maxSteps,
		HistoryLimit:   historyLimit,
		SummaryEnabled: summaryEnabled,
		OpenAIAPIKey:   strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		OpenAIModel:    getEnvOrDefault("OPENAI_MODEL", "gpt-4o"),
		OpenAIBaseURL:  strings.TrimSpace(os.Getenv("OPENAI_BASE_URL")),
		GeminiAPIKey:   strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		GeminiModel:    getEnvOrDefault("GEMINI_MODEL", "gemini-2.0-flash"),
	}, nil
}

// MarketConfig points at the quote provider and the bundled series.
type MarketConfig struct {
	BrapiToken   string
	BrapiBaseURL string
	SGSBaseURL   string
	SeriesDir    string
	Timeout      time.Duration
}

func loadMarketConfig() (MarketConfig, error) {
	timeout := 15
	if override, err := parseOptionalIntEnv("MARKET_TIMEOUT_SECONDS"); err != nil {
		return MarketConfig{}, err
	} else if override != nil && *override > 0 {
		timeout = *override
	}

	return MarketConfig{
		BrapiToken:   strings.TrimSpace(os.Getenv("BRAPI_API_KEY")),
		BrapiBaseURL: strings.TrimRight(getEnvOrDefault("BRAPI_BASE_URL", "https://brapi.dev"), "/"),
		SGSBaseURL:   strings.TrimRight(getEnvOrDefault("SGS_BASE_URL", "https://api.bcb.gov.br"), "/"),
		SeriesDir:    strings.TrimSpace(os.Getenv("MARKET_SERIES_DIR")),
		Timeout:      time.Duration(timeout) * time.Second,
	}, nil
}

// StorageConfig describes the S3 bucket holding the report library.
type StorageConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	Endpoint        string
	SignedURLTTL    time.Duration
}

// Enabled reports whether a bucket is configured.
func (c StorageConfig) Enabled() bool {
	return c.Bucket != ""
}

func loadStorageConfig() (StorageConfig, error) {
	ttl := 3600
	if override, err := parseOptionalIntEnv("S3_SIGNED_URL_TTL"); err != nil {
		return StorageConfig{}, err
	} else if override != nil && *override > 0 {
		ttl = *override
	}

	return StorageConfig{
		Region:          getEnvOrDefault("AWS_REGION", "us-east-1"),
		AccessKeyID:     strings.TrimSpace(os.Getenv("AWS_ACCESS_KEY_ID")),
		SecretAccessKey: strings.TrimSpace(os.Getenv("AWS_SECRET_ACCESS_KEY")),
		Bucket:          strings.TrimSpace(os.Getenv("S3_BUCKET")),
		Endpoint:        strings.TrimSpace(os.Getenv("S3_ENDPOINT")),
		SignedURLTTL:    time.Duration(ttl) * time.Second,
	}, nil
}

// AuthConfig carries the identity provider's verification key.
type AuthConfig struct {
	PublicKeyPEM string
	Required     bool
}

func loadAuthConfig() (AuthConfig, error) {
	required, err := parseBoolEnv("AUTH_REQUIRED", false)
	if err != nil {
		return AuthConfig{}, err
	}

	// Keys pasted into .env files usually carry literal \n sequences.
	key := strings.ReplaceAll(strings.TrimSpace(os.Getenv("CLERK_JWT_KEY")), `\n`, "\n")
	return AuthConfig{PublicKeyPEM: key, Required: required}, nil
}

// DocumentConfig bounds the extracted text sent to the model.
type DocumentConfig struct {
	ChatCharBudget int
	URLCharBudget  int
	MaxUploadBytes int64
}

func loadDocumentConfig() (DocumentConfig, error) {
	cfg := DocumentConfig{ChatCharBudget: 15000, URLCharBudget: 150000, MaxUploadBytes: 20 << 20}

	if v, err := parseOptionalIntEnv("PDF_CHAT_CHAR_BUDGET"); err != nil {
		return DocumentConfig{}, err
	} else if v != nil && *v > 0 {
		cfg.ChatCharBudget = *v
	}

	if v, err := parseOptionalIntEnv("PDF_URL_CHAR_BUDGET"); err != nil {
		return DocumentConfig{}, err
	} else if v != nil && *v > 0 {
		cfg.URLCharBudget = *v
	}

	if v, err := parseOptionalIntEnv("PDF_MAX_UPLOAD_MB"); err != nil {
		return DocumentConfig{}, err
	} else if v != nil && *v > 0 {
		cfg.MaxUploadBytes = int64(*v) << 20
	}

	return cfg, nil
}

// LeadsConfig locates the SQLite database for captured leads.
type LeadsConfig struct {
	DBPath string
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

// parseListEnv splits a comma-separated variable, dropping empty entries.
func parseListEnv(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
