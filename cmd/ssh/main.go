package main

import (
	"context"
	"errors"
	"net"
	"os"
	ossignal "os/signal"
	"strconv"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/activeterm"
	bm "github.com/charmbracelet/wish/bubbletea"
	"github.com/charmbracelet/wish/logging"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/trace"

	"trendboard/internal/advisor"
	"trendboard/internal/cache"
	"trendboard/internal/config"
	"trendboard/internal/job"
	"trendboard/internal/provider"
	"trendboard/internal/repository"
	"trendboard/internal/service"
	signalengine "trendboard/internal/signal"
	"trendboard/internal/tui"
	"trendboard/pkg/logger"
	"trendboard/pkg/tracing"
)

var (
	loadEnvFunc        = godotenv.Load
	loadConfigFunc     = config.Load
	initLoggerFunc     = logger.Init
	initRedisFunc      = cache.InitRedis
	initTracerFunc     = tracing.InitTracer
	newQuoteClientFunc = func(tracer trace.Tracer, cfg *config.Config) *provider.Client {
		return provider.NewClient(tracer, provider.Options{
			BaseURL:    cfg.AlphaVantageBaseURL,
			APIKeys:    cfg.AlphaVantageAPIKeys,
			RetryDelay: time.Duration(cfg.AlphaVantageRetryDelaySec) * time.Second,
			MaxCycles:  cfg.AlphaVantageMaxCycles,
			Timeout:    time.Duration(cfg.AlphaVantageTimeoutSecs) * time.Second,
		})
	}
	closeQuoteClientFunc  = func(c *provider.Client) { c.Close() }
	newOpenAIClientFunc   = advisor.NewOpenAIClient
	startMarketPollerFunc = func(p *job.MarketPoller, ctx context.Context) { go p.Start(ctx) }
	startAnalysisPollerFn = func(p *job.AnalysisPoller, ctx context.Context) { go p.Start(ctx) }
	newSSHServerFunc      = newSSHServer
	startSSHServerFunc    = func(s *ssh.Server) error { return s.ListenAndServe() }
	shutdownSSHServerFunc = func(s *ssh.Server, ctx context.Context) error { return s.Shutdown(ctx) }
	setupSignalNotify     = ossignal.Notify
	waitForSignalFunc     = func(quit <-chan os.Signal) { <-quit }
)

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

	candleRepo := repository.NewCandleRepository(tracer)
	quoteClient := newQuoteClientFunc(tracer, cfg)
	defer closeQuoteClientFunc(quoteClient)

	source, err := signalengine.NewSource(cfg.SignalSource, candleRepo)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build signal source")
	}
	quoteService := service.NewQuoteService(tracer, quoteClient,
		cache.NewSnapshots(cache.Client, "quote", service.QuoteSnapshotTTL), candleRepo, cfg.Symbols)
	analysisService := service.NewAnalysisService(tracer, source,
		cache.NewSnapshots(cache.Client, "analysis", service.AnalysisSnapshotTTL), cfg.Symbols)

	startMarketPollerFunc(job.NewMarketPoller(tracer, quoteService, cfg.QuotePollSecs, cfg.CandlePollSecs), ctx)
	startAnalysisPollerFn(job.NewAnalysisPoller(tracer, analysisService, cfg.AnalysisPollSecs), ctx)

	services := tui.Services{Quotes: quoteService, Analyses: analysisService}
	if cfg.OpenAIAPIKey != "" {
		llm := newOpenAIClientFunc(cfg.OpenAIAPIKey, cfg.OpenAIModel)
		services.Commentary = advisor.NewAdvisorService(tracer, llm, quoteService, analysisService)
	}

	srv, err := newSSHServerFunc(cfg, services)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create ssh server")
	}

	go func() {
		if err := startSSHServerFunc(srv); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
			log.Error().Err(err).Msg("ssh server failed")
		}
	}()
	log.Info().Str("host", cfg.SSHHost).Int("port", cfg.SSHPort).Msg("ssh dashboard started")

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Info().Msg("shutting down ssh server")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownSSHServerFunc(srv, shutdownCtx); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
		log.Error().Err(err).Msg("ssh server forced to shutdown")
	}
}

func newSSHServer(cfg *config.Config, services tui.Services) (*ssh.Server, error) {
	return wish.NewServer(
		wish.WithAddress(net.JoinHostPort(cfg.SSHHost, strconv.Itoa(cfg.SSHPort))),
		wish.WithHostKeyPath(cfg.SSHHostKeyPath),
		wish.WithMiddleware(
			bm.Middleware(teaHandler(services)),
			activeterm.Middleware(),
			logging.Middleware(),
		),
	)
}

// teaHandler starts one dashboard per session, sized to the client terminal.
func teaHandler(services tui.Services) bm.Handler {
	return func(s ssh.Session) (tea.Model, []tea.ProgramOption) {
		svc := services
		svc.Username = s.User()
		m := tui.NewAppModel(svc)
		if pty, _, ok := s.Pty(); ok {
			m.SetSize(pty.Window.Width, pty.Window.Height)
		}
		return m, []tea.ProgramOption{tea.WithAltScreen()}
	}
}
