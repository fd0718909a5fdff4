package main

import (
	"context"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"trendboard/internal/bot"
	"trendboard/internal/config"
	"trendboard/internal/domain"
	"trendboard/internal/job"
)

func TestMainBootstrap(t *testing.T) {
	gin.SetMode(gin.TestMode)
	restore := stubServerDeps(t)
	defer restore()

	done := make(chan struct{})
	go func() {
		main()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("main did not exit")
	}
}

func TestHTTPAddrFromEnv(t *testing.T) {
	t.Setenv("PORT", "")
	if got := httpAddrFromEnv(); got != ":8080" {
		t.Fatalf("expected default :8080, got %s", got)
	}

	t.Setenv("PORT", "9090")
	if got := httpAddrFromEnv(); got != ":9090" {
		t.Fatalf("expected :9090, got %s", got)
	}

	t.Setenv("PORT", ":7070")
	if got := httpAddrFromEnv(); got != ":7070" {
		t.Fatalf("expected :7070, got %s", got)
	}
}

func TestProviderOptions(t *testing.T) {
	opts := providerOptions(&config.Config{
		AlphaVantageBaseURL:       "http://example.test/query",
		AlphaVantageAPIKeys:       []string{"a", "b"},
		AlphaVantageRetryDelaySec: 2,
		AlphaVantageMaxCycles:     3,
		AlphaVantageTimeoutSecs:   4,
	})
	if opts.BaseURL != "http://example.test/query" || len(opts.APIKeys) != 2 {
		t.Fatalf("unexpected options %+v", opts)
	}
	if opts.RetryDelay != 2*time.Second || opts.MaxCycles != 3 || opts.Timeout != 4*time.Second {
		t.Fatalf("unexpected durations %+v", opts)
	}
}

func stubServerDeps(t *testing.T) func() {
	t.Helper()
	origLoadEnv := loadEnvFunc
	origLoadConfig := loadConfigFunc
	origInitRedis := initRedisFunc
	origInitTracer := initTracerFunc
	origStartMarket := startMarketPollerFunc
	origStartAnalysis := startAnalysisPollerFn
	origStartTelegram := startTelegramBotFunc
	origNewRouter := newRouterFunc
	origSetupSignal := setupSignalNotify
	origWait := waitForSignalFunc
	origStartHTTP := startHTTPServerFunc
	origShutdownHTTP := shutdownHTTPServerFunc

	loadEnvFunc = func(...string) error { return nil }
	loadConfigFunc = func() *config.Config {
		return &config.Config{
			LogLevel:              "error",
			SignalSource:          "mock",
			Symbols:               domain.SupportedSymbols(),
			QuotePollSecs:         1,
			CandlePollSecs:        1,
			AnalysisPollSecs:      1,
			AlphaVantageMaxCycles: 1,
		}
	}
	initRedisFunc = func(context.Context, string) {}
	initTracerFunc = func(ctx context.Context) (*sdktrace.TracerProvider, trace.Tracer, error) {
		tp := sdktrace.NewTracerProvider()
		return tp, tp.Tracer("test"), nil
	}
	startMarketPollerFunc = func(*job.MarketPoller, context.Context) {}
	startAnalysisPollerFn = func(*job.AnalysisPoller, context.Context) {}
	startTelegramBotFunc = func(string, bot.QuoteQuerier, bot.AnalysisQuerier, bot.Commentator) *bot.AlertDispatcher {
		return nil
	}
	newRouterFunc = func(...gin.OptionFunc) *gin.Engine { return gin.New() }
	setupSignalNotify = func(c chan<- os.Signal, sig ...os.Signal) {}
	waitForSignalFunc = func(<-chan os.Signal) {}
	startHTTPServerFunc = func(*http.Server) error { return http.ErrServerClosed }
	shutdownHTTPServerFunc = func(*http.Server, context.Context) error { return nil }

	return func() {
		loadEnvFunc = origLoadEnv
		loadConfigFunc = origLoadConfig
		initRedisFunc = origInitRedis
		initTracerFunc = origInitTracer
		startMarketPollerFunc = origStartMarket
		startAnalysisPollerFn = origStartAnalysis
		startTelegramBotFunc = origStartTelegram
		newRouterFunc = origNewRouter
		setupSignalNotify = origSetupSignal
		waitForSignalFunc = origWait
		startHTTPServerFunc = origStartHTTP
		shutdownHTTPServerFunc = origShutdownHTTP
	}
}
