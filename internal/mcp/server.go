package mcp

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const defaultRequestTimeout = 5 * time.Second

type ServerConfig struct {
	RequestTimeout time.Duration
	Version        string
}

func NewServer(tracer trace.Tracer, quotes QuoteReader, candles CandleReader, analyses AnalysisReader, cfg ServerConfig) *sdkmcp.Server {
	requestTimeout := cfg.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = defaultRequestTimeout
	}
	version := cfg.Version
	if version == "" {
		version = "1.0.0"
	}

	srv := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "trendboard-mcp",
		Version: version,
	}, &sdkmcp.ServerOptions{
		Instructions: "Use these tools/resources to inspect quotes, candles and weighted multi-timeframe trend assessments. " +
			"Quotes flagged fallback are static estimates, not live prices.",
		Logger: slog.Default(),
	})

	// Registered last runs first: observation wraps the timeout.
	srv.AddReceivingMiddleware(timeoutMiddleware(requestTimeout))
	srv.AddReceivingMiddleware(observeMiddleware(tracer))

	registerTools(srv, quotes, candles, analyses)
	registerResources(srv, quotes, candles, analyses)
	return srv
}

func NewHTTPTransportHandler(server *sdkmcp.Server, cfg HTTPHandlerConfig) http.Handler {
	base := sdkmcp.NewStreamableHTTPHandler(func(*http.Request) *sdkmcp.Server {
		return server
	}, &sdkmcp.StreamableHTTPOptions{})
	return wrapHTTPHandler(base, cfg)
}

func timeoutMiddleware(timeout time.Duration) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			return next(timeoutCtx, method, req)
		}
	}
}

// observeMiddleware traces every request when a tracer is set and logs tool
// calls and resource reads at debug level.
func observeMiddleware(tracer trace.Tracer) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			target := requestTarget(req)
			start := time.Now()

			var span trace.Span
			if tracer != nil {
				ctx, span = tracer.Start(ctx, mcpSpanName(method, target))
				span.SetAttributes(attribute.String("mcp.method", method))
				if target != "" {
					span.SetAttributes(attribute.String("mcp.target", target))
				}
				defer span.End()
			}

			result, err := next(ctx, method, req)
			if err != nil && span != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
			}
			if target != "" {
				log.Debug().Str("method", method).Str("target", target).Dur("took", time.Since(start)).Err(err).Msg("mcp request")
			}
			return result, err
		}
	}
}

// requestTarget is the tool name or resource URI, empty for other methods.
func requestTarget(req sdkmcp.Request) string {
	switch r := req.(type) {
	case *sdkmcp.CallToolRequest:
		return strings.TrimSpace(r.Params.Name)
	case *sdkmcp.ReadResourceRequest:
		return strings.TrimSpace(r.Params.URI)
	default:
		return ""
	}
}

func mcpSpanName(method, target string) string {
	switch method {
	case "tools/call":
		if target != "" {
			return "mcp.tool." + target
		}
		return "mcp.tool.call"
	case "resources/read":
		return "mcp.resource.read"
	default:
		return "mcp." + strings.ReplaceAll(method, "/", ".")
	}
}
