package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	ossignal "os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/trace"

	"trendboard/internal/cache"
	"trendboard/internal/config"
	"trendboard/internal/job"
	mcpserver "trendboard/internal/mcp"
	"trendboard/internal/provider"
	"trendboard/internal/repository"
	"trendboard/internal/service"
	signalengine "trendboard/internal/signal"
	"trendboard/pkg/logger"
	"trendboard/pkg/tracing"
)

const defaultMCPHTTPMaxBodyBytes int64 = 1 << 20 // 1MiB

var (
	loadEnvFunc        = godotenv.Load
	loadConfigFunc     = config.Load
	initLoggerFunc     = logger.Init
	initRedisFunc      = cache.InitRedis
	initTracerFunc     = tracing.InitTracer
	newCandleRepoFunc  = repository.NewCandleRepository
	newQuoteClientFunc = func(tracer trace.Tracer, cfg *config.Config) service.QuoteProvider {
		return provider.NewClient(tracer, provider.Options{
			BaseURL:    cfg.AlphaVantageBaseURL,
			APIKeys:    cfg.AlphaVantageAPIKeys,
			RetryDelay: time.Duration(cfg.AlphaVantageRetryDelaySec) * time.Second,
			MaxCycles:  cfg.AlphaVantageMaxCycles,
			Timeout:    time.Duration(cfg.AlphaVantageTimeoutSecs) * time.Second,
		})
	}
	newSignalSourceFunc   = signalengine.NewSource
	newMCPServerFunc      = mcpserver.NewServer
	newMCPHandlerFunc     = mcpserver.NewHTTPTransportHandler
	startMarketPollerFunc = func(p *job.MarketPoller, ctx context.Context) { go p.Start(ctx) }
	startAnalysisPollerFn = func(p *job.AnalysisPoller, ctx context.Context) { go p.Start(ctx) }
	runStdioFunc          = func(ctx context.Context, server *sdkmcp.Server) error {
		return server.Run(ctx, &sdkmcp.StdioTransport{})
	}
	startHTTPServerFunc  = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFn = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
	setupSignalNotify    = ossignal.Notify
	waitForSignalFunc    = func(quit <-chan os.Signal) { <-quit }
)

func main() {
	_ = loadEnvFunc()
	cfg := loadConfigFunc()
	// stdout carries the stdio transport; logs stay on stderr.
	if _, err := initLoggerFunc(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Output: os.Stderr}); err != nil {
		log.Warn().Err(err).Msg("falling back to default logger settings")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	initRedisFunc(ctx, cfg.RedisURL)

	tp, tracer, err := initTracerFunc(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize tracer")
	}
	defer func() {
		if err := tp.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("error shutting down tracer provider")
		}
	}()

	candleRepo := newCandleRepoFunc(tracer)
	source, err := newSignalSourceFunc(cfg.SignalSource, candleRepo)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build signal source")
	}
	quoteService := service.NewQuoteService(tracer, newQuoteClientFunc(tracer, cfg),
		cache.NewSnapshots(cache.Client, "quote", service.QuoteSnapshotTTL), candleRepo, cfg.Symbols)
	analysisService := service.NewAnalysisService(tracer, source,
		cache.NewSnapshots(cache.Client, "analysis", service.AnalysisSnapshotTTL), cfg.Symbols)

	startMarketPollerFunc(job.NewMarketPoller(tracer, quoteService, cfg.QuotePollSecs, cfg.CandlePollSecs), ctx)
	startAnalysisPollerFn(job.NewAnalysisPoller(tracer, analysisService, cfg.AnalysisPollSecs), ctx)

	mcpSrv := newMCPServerFunc(tracer, quoteService, candleRepo, analysisService, mcpserver.ServerConfig{
		RequestTimeout: time.Duration(cfg.MCPRequestTimeoutSecs) * time.Second,
	})

	transport := strings.ToLower(strings.TrimSpace(cfg.MCPTransport))
	switch transport {
	case "", "stdio":
		if err := runStdioFunc(ctx, mcpSrv); err != nil {
			log.Fatal().Err(err).Msg("mcp stdio server failed")
		}
	case "http":
		if err := runHTTPMode(ctx, cancel, cfg, mcpSrv); err != nil {
			log.Fatal().Err(err).Msg("mcp http server failed")
		}
	default:
		log.Fatal().Str("transport", cfg.MCPTransport).Msg("unsupported MCP_TRANSPORT")
	}
}

func runHTTPMode(ctx context.Context, cancel context.CancelFunc, cfg *config.Config, mcpSrv *sdkmcp.Server) error {
	if !cfg.MCPHTTPEnabled {
		return fmt.Errorf("MCP_HTTP_ENABLED must be true when MCP_TRANSPORT=http")
	}
	if strings.TrimSpace(cfg.MCPAuthToken) == "" {
		return fmt.Errorf("MCP_AUTH_TOKEN is required when MCP_TRANSPORT=http")
	}

	handler := newMCPHandlerFunc(mcpSrv, mcpserver.HTTPHandlerConfig{
		AuthToken:       cfg.MCPAuthToken,
		RateLimitPerMin: cfg.MCPRateLimitPerMin,
		MaxBodyBytes:    defaultMCPHTTPMaxBodyBytes,
	})

	addr := net.JoinHostPort(cfg.MCPHTTPBind, fmt.Sprintf("%d", cfg.MCPHTTPPort))
	srv := &http.Server{Addr: addr, Handler: handler}

	go func() {
		if err := startHTTPServerFunc(srv); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Str("addr", addr).Msg("mcp http server failed")
		}
	}()
	log.Info().Str("addr", addr).Msg("mcp http server started")

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownHTTPServerFn(srv, shutdownCtx); err != nil {
		return fmt.Errorf("mcp server forced to shutdown: %w", err)
	}
	return nil
}
