package main

import (
	"context"
	"net/http"
	"os"
	ossignal "os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/trace"

	"trendboard/internal/advisor"
	"trendboard/internal/bot"
	"trendboard/internal/cache"
	"trendboard/internal/chart"
	"trendboard/internal/config"
	"trendboard/internal/handler"
	"trendboard/internal/job"
	"trendboard/internal/provider"
	"trendboard/internal/repository"
	"trendboard/internal/service"
	signalengine "trendboard/internal/signal"
	"trendboard/pkg/logger"
	"trendboard/pkg/tracing"

	_ "trendboard/docs"
)

var (
	loadEnvFunc        = godotenv.Load
	loadConfigFunc     = config.Load
	initLoggerFunc     = logger.Init
	initRedisFunc      = cache.InitRedis
	initTracerFunc     = tracing.InitTracer
	newCandleRepoFunc  = repository.NewCandleRepository
	newQuoteClientFunc = func(tracer trace.Tracer, cfg *config.Config) *provider.Client {
		return provider.NewClient(tracer, providerOptions(cfg))
	}
	newSignalSourceFunc    = signalengine.NewSource
	newQuoteServiceFunc    = service.NewQuoteService
	newAnalysisServiceFunc = service.NewAnalysisService
	newOpenAIClientFunc    = advisor.NewOpenAIClient
	newAdvisorServiceFunc  = advisor.NewAdvisorService
	newMarketPollerFunc    = job.NewMarketPoller
	newAnalysisPollerFunc  = job.NewAnalysisPoller
	startMarketPollerFunc  = func(p *job.MarketPoller, ctx context.Context) { go p.Start(ctx) }
	startAnalysisPollerFn  = func(p *job.AnalysisPoller, ctx context.Context) { go p.Start(ctx) }
	startTelegramBotFunc   = bot.StartTelegramBot
	newHandlerFunc         = handler.New
	newRouterFunc          = gin.Default
	setupSignalNotify      = ossignal.Notify
	waitForSignalFunc      = func(quit <-chan os.Signal) { <-quit }
	startHTTPServerFunc    = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFunc = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
)

// @title           Trendboard API
// @version         1.0
// @description     Multi-timeframe trend assessments for crypto, forex and gold.

// @host      localhost:8080
// @BasePath  /
func main() {
	_ = loadEnvFunc()

	cfg := loadConfigFunc()
	if _, err := initLoggerFunc(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat}); err != nil {
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
	quoteClient := newQuoteClientFunc(tracer, cfg)
	defer quoteClient.Close()

	source, err := newSignalSourceFunc(cfg.SignalSource, candleRepo)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build signal source")
	}

	quoteService := newQuoteServiceFunc(tracer, quoteClient,
		cache.NewSnapshots(cache.Client, "quote", service.QuoteSnapshotTTL), candleRepo, cfg.Symbols)
	analysisService := newAnalysisServiceFunc(tracer, source,
		cache.NewSnapshots(cache.Client, "analysis", service.AnalysisSnapshotTTL), cfg.Symbols)

	var advisorService *advisor.AdvisorService
	if cfg.OpenAIAPIKey != "" {
		llm := newOpenAIClientFunc(cfg.OpenAIAPIKey, cfg.OpenAIModel)
		advisorService = newAdvisorServiceFunc(tracer, llm, quoteService, analysisService)
	}

	hub := handler.NewHub()
	defer hub.Close()
	analysisService.OnAnalysis(hub.Broadcast)

	// Start background pollers (stopped by ctx cancel)
	marketPoller := newMarketPollerFunc(tracer, quoteService, cfg.QuotePollSecs, cfg.CandlePollSecs)
	startMarketPollerFunc(marketPoller, ctx)
	analysisPoller := newAnalysisPollerFunc(tracer, analysisService, cfg.AnalysisPollSecs)
	startAnalysisPollerFn(analysisPoller, ctx)

	if alerts := startTelegramBotFunc(cfg.TelegramBotToken, quoteService, analysisService, advisorService); alerts != nil {
		analysisService.OnAnalysis(alerts.Listen)
	}

	h := newHandlerFunc(tracer, quoteService, analysisService, advisorService, hub).
		WithCharts(candleRepo, chart.NewRenderer())

	r := newRouterFunc()
	r.Use(otelgin.Middleware("trendboard"))
	r.Use(cors.Default())

	h.RegisterRoutes(r)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    httpAddrFromEnv(),
		Handler: r,
	}

	go func() {
		if err := startHTTPServerFunc(srv); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("listen failed")
		}
	}()
	log.Info().Str("addr", srv.Addr).Str("source", analysisService.SourceName()).Msg("server started")

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Info().Msg("shutting down server")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownHTTPServerFunc(srv, shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exiting")
}

func providerOptions(cfg *config.Config) provider.Options {
	return provider.Options{
		BaseURL:    cfg.AlphaVantageBaseURL,
		APIKeys:    cfg.AlphaVantageAPIKeys,
		RetryDelay: time.Duration(cfg.AlphaVantageRetryDelaySec) * time.Second,
		MaxCycles:  cfg.AlphaVantageMaxCycles,
		Timeout:    time.Duration(cfg.AlphaVantageTimeoutSecs) * time.Second,
	}
}

func httpAddrFromEnv() string {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		return ":8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}
