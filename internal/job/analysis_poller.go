package job

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"trendboard/internal/domain"
)

const defaultAnalysisInterval = time.Minute

type AnalysisRunner interface {
	AnalyzeAll(ctx context.Context) ([]*domain.Analysis, error)
}

// AnalysisPoller recomputes every watched instrument's assessment.
type AnalysisPoller struct {
	tracer   trace.Tracer
	runner   AnalysisRunner
	interval time.Duration
}

func NewAnalysisPoller(tracer trace.Tracer, runner AnalysisRunner, secs int) *AnalysisPoller {
	return &AnalysisPoller{
		tracer:   tracer,
		runner:   runner,
		interval: secondsOr(secs, defaultAnalysisInterval),
	}
}

// Start blocks until ctx is cancelled.
func (p *AnalysisPoller) Start(ctx context.Context) {
	if p.runner == nil {
		log.Info().Msg("analysis poller disabled: no analysis service")
		<-ctx.Done()
		return
	}

	log.Info().Dur("interval", p.interval).Msg("analysis poller starting")
	runEvery(ctx, p.interval, p.runOnce)
	log.Info().Msg("analysis poller stopped")
}

func (p *AnalysisPoller) runOnce(ctx context.Context) {
	ctx, span := p.tracer.Start(ctx, "job.analysis-pass")
	defer span.End()

	analyses, err := p.runner.AnalyzeAll(ctx)
	span.SetAttributes(attribute.Int("analyses", len(analyses)))
	if err != nil {
		log.Warn().Err(err).Int("completed", len(analyses)).Msg("analysis pass incomplete")
	}
}
