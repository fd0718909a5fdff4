package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"trendboard/internal/domain"
)

type Config struct {
	Port             string
	TelegramBotToken string
	RedisURL         string
	LogLevel         string
	LogFormat        string

	AlphaVantageAPIKeys       []string
	AlphaVantageBaseURL       string
	AlphaVantageRetryDelaySec int
	AlphaVantageMaxCycles     int
	AlphaVantageTimeoutSecs   int

	SignalSource     string
	Symbols          []string
	QuotePollSecs    int
	CandlePollSecs   int
	AnalysisPollSecs int

	MCPTransport          string
	MCPHTTPEnabled        bool
	MCPHTTPBind           string
	MCPHTTPPort           int
	MCPAuthToken          string
	MCPRequestTimeoutSecs int
	MCPRateLimitPerMin    int

	OpenAIAPIKey string
	OpenAIModel  string

	SSHHost        string
	SSHPort        int
	SSHHostKeyPath string
}

func Load() *Config {
	cfg := &Config{
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		RedisURL:         os.Getenv("REDIS_URL"),
		MCPAuthToken:     os.Getenv("MCP_AUTH_TOKEN"),
	}

	cfg.Port = strings.TrimSpace(os.Getenv("PORT"))
	if cfg.Port == "" {
		cfg.Port = "8080"
	}

	if cfg.TelegramBotToken == "" {
		log.Warn().Msg("TELEGRAM_BOT_TOKEN not set, bot will be disabled")
	}
	if cfg.RedisURL == "" {
		log.Warn().Msg("REDIS_URL not set, defaulting to localhost:6379")
		cfg.RedisURL = "localhost:6379"
	}

	cfg.LogLevel = strings.ToLower(strings.TrimSpace(os.Getenv("LOG_LEVEL")))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	cfg.LogFormat = strings.ToLower(strings.TrimSpace(os.Getenv("LOG_FORMAT")))
	if cfg.LogFormat != "json" {
		cfg.LogFormat = "console"
	}

	cfg.AlphaVantageAPIKeys = splitList(os.Getenv("ALPHA_VANTAGE_API_KEYS"))
	if single := strings.TrimSpace(os.Getenv("ALPHA_VANTAGE_API_KEY")); single != "" && len(cfg.AlphaVantageAPIKeys) == 0 {
		cfg.AlphaVantageAPIKeys = []string{single}
	}
	if len(cfg.AlphaVantageAPIKeys) == 0 {
		log.Warn().Msg("ALPHA_VANTAGE_API_KEYS not set, quotes will use fallback values")
	}

	cfg.AlphaVantageBaseURL = strings.TrimSpace(os.Getenv("ALPHA_VANTAGE_BASE_URL"))
	if cfg.AlphaVantageBaseURL == "" {
		cfg.AlphaVantageBaseURL = "https://www.alphavantage.co/query"
	}

	cfg.AlphaVantageRetryDelaySec = intEnv("ALPHA_VANTAGE_RETRY_DELAY_SECS", 60, 0)
	cfg.AlphaVantageMaxCycles = intEnv("ALPHA_VANTAGE_MAX_RETRY_CYCLES", 5, 1)
	cfg.AlphaVantageTimeoutSecs = intEnv("ALPHA_VANTAGE_TIMEOUT_SECS", 15, 1)

	cfg.SignalSource = strings.ToLower(strings.TrimSpace(os.Getenv("SIGNAL_SOURCE")))
	if cfg.SignalSource == "" {
		cfg.SignalSource = "mock"
	}
	if cfg.SignalSource != "mock" && cfg.SignalSource != "market" {
		log.Warn().Str("value", cfg.SignalSource).Msg("unsupported SIGNAL_SOURCE, defaulting to mock")
		cfg.SignalSource = "mock"
	}

	cfg.Symbols = parseSymbols(os.Getenv("WATCH_SYMBOLS"))

	cfg.QuotePollSecs = intEnv("QUOTE_POLL_SECS", 300, 1)
	cfg.CandlePollSecs = intEnv("CANDLE_POLL_SECS", 900, 1)
	cfg.AnalysisPollSecs = intEnv("ANALYSIS_POLL_SECS", 60, 1)

	cfg.MCPTransport = strings.ToLower(strings.TrimSpace(os.Getenv("MCP_TRANSPORT")))
	if cfg.MCPTransport == "" {
		cfg.MCPTransport = "stdio"
	}
	if cfg.MCPTransport != "stdio" && cfg.MCPTransport != "http" {
		log.Warn().Str("value", cfg.MCPTransport).Msg("unsupported MCP_TRANSPORT, defaulting to stdio")
		cfg.MCPTransport = "stdio"
	}

	cfg.MCPHTTPEnabled = strings.EqualFold(strings.TrimSpace(os.Getenv("MCP_HTTP_ENABLED")), "true")

	cfg.MCPHTTPBind = strings.TrimSpace(os.Getenv("MCP_HTTP_BIND"))
	if cfg.MCPHTTPBind == "" {
		cfg.MCPHTTPBind = "127.0.0.1"
	}
	cfg.MCPHTTPPort = intEnv("MCP_HTTP_PORT", 8090, 1)
	cfg.MCPRequestTimeoutSecs = intEnv("MCP_REQUEST_TIMEOUT_SECS", 5, 1)
	cfg.MCPRateLimitPerMin = intEnv("MCP_RATE_LIMIT_PER_MIN", 60, 1)

	cfg.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	if cfg.OpenAIAPIKey == "" {
		log.Warn().Msg("OPENAI_API_KEY not set, commentary will be disabled")
	}
	cfg.OpenAIModel = strings.TrimSpace(os.Getenv("OPENAI_MODEL"))
	if cfg.OpenAIModel == "" {
		cfg.OpenAIModel = "gpt-4o-mini"
	}

	cfg.SSHHost = strings.TrimSpace(os.Getenv("SSH_HOST"))
	if cfg.SSHHost == "" {
		cfg.SSHHost = "0.0.0.0"
	}
	cfg.SSHPort = intEnv("SSH_PORT", 23234, 1)
	cfg.SSHHostKeyPath = strings.TrimSpace(os.Getenv("SSH_HOST_KEY_PATH"))
	if cfg.SSHHostKeyPath == "" {
		cfg.SSHHostKeyPath = ".ssh/id_ed25519"
	}

	return cfg
}

// intEnv reads an integer no smaller than floor, falling back to def.
func intEnv(key string, def, floor int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < floor {
		log.Warn().Str("key", key).Str("value", v).Int("default", def).Msg("invalid value, using default")
		return def
	}
	return n
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseSymbols keeps supported symbols in input order, dropping duplicates.
// An empty or fully unsupported list selects every supported instrument.
func parseSymbols(raw string) []string {
	out := make([]string, 0)
	seen := make(map[string]struct{})
	for _, part := range splitList(raw) {
		inst, ok := domain.LookupInstrument(part)
		if !ok {
			log.Warn().Str("symbol", part).Msg("ignoring unsupported symbol")
			continue
		}
		if _, dup := seen[inst.Symbol]; dup {
			continue
		}
		seen[inst.Symbol] = struct{}{}
		out = append(out, inst.Symbol)
	}
	if len(out) == 0 {
		return domain.SupportedSymbols()
	}
	return out
}
