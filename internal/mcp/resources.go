package mcp

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"trendboard/internal/domain"
	"trendboard/internal/signal"
)

func registerResources(server *mcp.Server, quotes QuoteReader, candles CandleReader, analyses AnalysisReader) {
	server.AddResource(&mcp.Resource{
		URI:         "market://supported-instruments",
		Name:        "supported-instruments",
		Description: "Instruments supported by the service with their kind and currency pair",
		MIMEType:    "application/json",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		_ = ctx
		return jsonResource(req.Params.URI, domain.SupportedInstruments)
	})

	server.AddResource(&mcp.Resource{
		URI:         "market://timeframe-weights",
		Name:        "timeframe-weights",
		Description: "Analysis timeframes in order with their aggregation weights",
		MIMEType:    "application/json",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		_ = ctx
		return jsonResource(req.Params.URI, timeframeWeights())
	})

	server.AddResource(&mcp.Resource{
		URI:         "quotes://latest",
		Name:        "quotes-latest",
		Description: "Latest known quote for every watched instrument",
		MIMEType:    "application/json",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		_ = ctx
		if quotes == nil {
			return nil, fmt.Errorf("quote service unavailable")
		}
		return jsonResource(req.Params.URI, quotesListLatestOutput{Quotes: quotes.Latest()})
	})

	server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: "analysis://symbol/{symbol}",
		Name:        "analysis-by-symbol",
		Description: "Weighted multi-timeframe assessment for a specific instrument",
		MIMEType:    "application/json",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		if analyses == nil {
			return nil, fmt.Errorf("analysis service unavailable")
		}

		parsed, err := url.Parse(req.Params.URI)
		if err != nil {
			return nil, mcp.ResourceNotFoundError(req.Params.URI)
		}
		if parsed.Scheme != "analysis" || parsed.Host != "symbol" {
			return nil, mcp.ResourceNotFoundError(req.Params.URI)
		}

		symbol, err := normalizeSymbol(strings.Trim(strings.TrimSpace(parsed.Path), "/"))
		if err != nil {
			return nil, err
		}
		analysis, err := analyses.GetAnalysis(ctx, symbol)
		if err != nil {
			return nil, err
		}
		return jsonResource(req.Params.URI, analysisGetOutput{Analysis: analysis, Info: signal.Info(analysis)})
	})

	server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: "candles://{symbol}/{timeframe}{?limit}",
		Name:        "candles-by-symbol-timeframe",
		Description: "Stored OHLCV candles for a symbol and timeframe; optional limit query param. Use EUR-USD style symbols for pairs.",
		MIMEType:    "application/json",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		if candles == nil {
			return nil, fmt.Errorf("candle store unavailable")
		}

		parsed, err := url.Parse(req.Params.URI)
		if err != nil {
			return nil, mcp.ResourceNotFoundError(req.Params.URI)
		}
		if parsed.Scheme != "candles" {
			return nil, mcp.ResourceNotFoundError(req.Params.URI)
		}

		symbol, err := normalizeSymbol(parsed.Host)
		if err != nil {
			return nil, err
		}
		tf, err := normalizeTimeframe(strings.Trim(strings.TrimSpace(parsed.Path), "/"))
		if err != nil {
			return nil, err
		}

		limit := defaultCandleLimit
		if rawLimit := strings.TrimSpace(parsed.Query().Get("limit")); rawLimit != "" {
			n, err := strconv.Atoi(rawLimit)
			if err != nil {
				return nil, fmt.Errorf("invalid limit: %s", rawLimit)
			}
			limit = normalizeCandleLimit(n)
		}

		list, err := candles.GetCandles(ctx, symbol, tf, limit)
		if err != nil {
			return nil, err
		}
		return jsonResource(req.Params.URI, candlesListOutput{Symbol: symbol, Timeframe: tf, Candles: list})
	})
}

func jsonResource(uri string, payload any) (*mcp.ReadResourceResult, error) {
	body, err := sonic.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(body),
		}},
	}, nil
}
