package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"trendboard/internal/signal"
)

func registerTools(server *mcp.Server, quotes QuoteReader, candles CandleReader, analyses AnalysisReader) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "quotes_list_latest",
		Description: "Get the latest quote for every watched instrument; fallback quotes are flagged",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, _ quotesListLatestInput) (*mcp.CallToolResult, quotesListLatestOutput, error) {
		if quotes == nil {
			return nil, quotesListLatestOutput{}, fmt.Errorf("quote service unavailable")
		}
		result := quotes.Latest()
		if len(result) == 0 {
			var err error
			if result, err = quotes.Refresh(ctx, false); err != nil {
				return nil, quotesListLatestOutput{}, err
			}
		}
		return nil, quotesListLatestOutput{Quotes: result}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "quotes_get_by_symbol",
		Description: "Get the quote for one instrument, optionally with stats and candles",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in quotesGetBySymbolInput) (*mcp.CallToolResult, quotesGetBySymbolOutput, error) {
		if quotes == nil {
			return nil, quotesGetBySymbolOutput{}, fmt.Errorf("quote service unavailable")
		}
		symbol, err := normalizeSymbol(in.Symbol)
		if err != nil {
			return nil, quotesGetBySymbolOutput{}, err
		}
		if in.History {
			list, err := quotes.GetQuotes(ctx, []string{symbol}, true)
			if err != nil {
				return nil, quotesGetBySymbolOutput{}, err
			}
			return nil, quotesGetBySymbolOutput{Quote: list[0]}, nil
		}
		result, err := quotes.GetQuote(ctx, symbol)
		if err != nil {
			return nil, quotesGetBySymbolOutput{}, err
		}
		return nil, quotesGetBySymbolOutput{Quote: result}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "candles_list",
		Description: "Get stored OHLCV candles by symbol, timeframe, and limit",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in candlesListInput) (*mcp.CallToolResult, candlesListOutput, error) {
		if candles == nil {
			return nil, candlesListOutput{}, fmt.Errorf("candle store unavailable")
		}
		symbol, err := normalizeSymbol(in.Symbol)
		if err != nil {
			return nil, candlesListOutput{}, err
		}
		tf, err := normalizeTimeframe(in.Timeframe)
		if err != nil {
			return nil, candlesListOutput{}, err
		}
		result, err := candles.GetCandles(ctx, symbol, tf, normalizeCandleLimit(in.Limit))
		if err != nil {
			return nil, candlesListOutput{}, err
		}
		return nil, candlesListOutput{Symbol: symbol, Timeframe: tf, Candles: result}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "analysis_get",
		Description: "Get per-timeframe trend signals and the weighted assessment for one instrument",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in analysisGetInput) (*mcp.CallToolResult, analysisGetOutput, error) {
		if analyses == nil {
			return nil, analysisGetOutput{}, fmt.Errorf("analysis service unavailable")
		}
		symbol, err := normalizeSymbol(in.Symbol)
		if err != nil {
			return nil, analysisGetOutput{}, err
		}
		result, err := analyses.GetAnalysis(ctx, symbol)
		if err != nil {
			return nil, analysisGetOutput{}, err
		}
		return nil, analysisGetOutput{Analysis: result, Info: signal.Info(result)}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "analysis_list",
		Description: "Get the latest assessment for every watched instrument",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, _ analysisListInput) (*mcp.CallToolResult, analysisListOutput, error) {
		if analyses == nil {
			return nil, analysisListOutput{}, fmt.Errorf("analysis service unavailable")
		}
		result := analyses.ListAnalyses()
		if len(result) == 0 {
			var err error
			result, err = analyses.AnalyzeAll(ctx)
			if len(result) == 0 && err != nil {
				return nil, analysisListOutput{}, err
			}
		}
		return nil, analysisListOutput{Analyses: result}, nil
	})
}
