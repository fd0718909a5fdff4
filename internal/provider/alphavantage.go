package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"trendboard/internal/domain"
)

const (
	DefaultBaseURL = "https://www.alphavantage.co/query"

	statsWindow     = 30
	maxResponseSize = 8 << 20
)

var (
	ErrNoData            = errors.New("no data in response")
	ErrPremiumEndpoint   = errors.New("premium endpoint")
	ErrUpstreamMalformed = errors.New("malformed upstream response")
)

type Options struct {
	BaseURL    string
	APIKeys    []string
	RetryDelay time.Duration
	MaxCycles  int
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client fetches quotes and candles from Alpha Vantage.
type Client struct {
	baseURL    string
	httpClient *http.Client
	ring       *KeyRing
	tracer     trace.Tracer
	lastPrices *LastPriceCache

	now         func() time.Time
	probability func() int
}

func NewClient(tracer trace.Tracer, opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL:     opts.BaseURL,
		httpClient:  httpClient,
		ring:        NewKeyRing(opts.APIKeys, opts.RetryDelay, opts.MaxCycles),
		tracer:      tracer,
		lastPrices:  NewLastPriceCache(),
		now:         time.Now,
		probability: FallbackProbability,
	}
}

// Close drops the remembered last prices.
func (c *Client) Close() {
	c.lastPrices.Clear()
}

// FetchQuote returns a live quote, or the static fallback when anything goes
// wrong. It never fails.
func (c *Client) FetchQuote(ctx context.Context, symbol, market string, withHistory bool) *domain.InstrumentQuote {
	ctx, span := c.tracer.Start(ctx, "alphavantage.fetch_quote")
	defer span.End()

	inst := resolveInstrument(symbol, market)
	span.SetAttributes(
		attribute.String("symbol", inst.Symbol),
		attribute.Bool("with_history", withHistory),
	)

	quote, err := c.fetchLive(ctx, inst, withHistory)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Warn().Err(err).Str("symbol", inst.Symbol).Msg("quote fetch failed, using fallback")
		return c.fallbackQuote(inst)
	}
	return quote
}

// FetchCandles loads every timeframe for one instrument. Timeframes that
// could not be loaded are left out and their errors joined.
func (c *Client) FetchCandles(ctx context.Context, symbol, market string) (map[domain.Timeframe][]domain.Candle, error) {
	ctx, span := c.tracer.Start(ctx, "alphavantage.fetch_candles")
	defer span.End()

	inst := resolveInstrument(symbol, market)
	span.SetAttributes(attribute.String("symbol", inst.Symbol))

	out := make(map[domain.Timeframe][]domain.Candle, len(domain.Timeframes))
	var errs []error
	var hourly []domain.Candle
	for _, tf := range domain.Timeframes {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		if tf == domain.Timeframe4Hour {
			continue
		}
		candles, err := c.series(ctx, inst, tf)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s %s: %w", inst.Symbol, tf, err))
			continue
		}
		out[tf] = candles
		if tf == domain.Timeframe1Hour {
			hourly = candles
		}
	}
	if len(hourly) > 0 {
		out[domain.Timeframe4Hour] = MergeCandles(hourly, domain.Timeframe4Hour.Duration())
	}

	err := errors.Join(errs...)
	if err != nil {
		span.RecordError(err)
	}
	return out, err
}

func (c *Client) fetchLive(ctx context.Context, inst domain.Instrument, withHistory bool) (*domain.InstrumentQuote, error) {
	price, refreshed, err := c.exchangeRate(ctx, inst.From, inst.To)
	if err != nil {
		return nil, err
	}

	quote := &domain.InstrumentQuote{
		Symbol:      inst.Symbol,
		Market:      inst.To,
		Kind:        inst.Kind,
		Price:       price,
		LastUpdated: refreshed,
	}

	prev, _ := c.lastPrices.Observe(inst.Symbol+inst.To, price)

	var daily []domain.Candle
	switch {
	case withHistory:
		candles, err := c.FetchCandles(ctx, inst.Symbol, inst.To)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.Debug().Err(err).Str("symbol", inst.Symbol).Msg("some timeframes unavailable")
		}
		if len(candles) > 0 {
			quote.Timeframes = candles
		}
		daily = candles[domain.Timeframe1Day]
	case inst.Kind == domain.KindCrypto:
		daily, err = c.series(ctx, inst, domain.Timeframe1Day)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.Debug().Err(err).Str("symbol", inst.Symbol).Msg("daily series unavailable")
		}
	}

	if inst.Kind == domain.KindCrypto && len(daily) >= 2 {
		quote.PercentChange = percentChange(daily[len(daily)-2].Close, daily[len(daily)-1].Close)
	} else {
		quote.PercentChange = percentChange(prev, price)
	}
	if withHistory && len(daily) > 0 {
		quote.Stats = ComputeStats(daily, statsWindow)
	}
	return quote, nil
}

func (c *Client) fallbackQuote(inst domain.Instrument) *domain.InstrumentQuote {
	price, change := FallbackValues(inst.Symbol, inst.Kind)
	prob := c.probability()
	return &domain.InstrumentQuote{
		Symbol:             inst.Symbol,
		Market:             inst.To,
		Kind:               inst.Kind,
		Price:              price,
		PercentChange:      change,
		LastUpdated:        c.now().UTC(),
		Fallback:           true,
		SuccessProbability: &prob,
	}
}

type exchangeRateResponse struct {
	Rate *struct {
		Rate          string `json:"5. Exchange Rate"`
		LastRefreshed string `json:"6. Last Refreshed"`
		TimeZone      string `json:"7. Time Zone"`
	} `json:"Realtime Currency Exchange Rate"`
}

func (c *Client) exchangeRate(ctx context.Context, from, to string) (float64, time.Time, error) {
	body, err := c.query(ctx, url.Values{
		"function":      {"CURRENCY_EXCHANGE_RATE"},
		"from_currency": {from},
		"to_currency":   {to},
	})
	if err != nil {
		return 0, time.Time{}, err
	}

	var resp exchangeRateResponse
	if err := sonic.Unmarshal(body, &resp); err != nil {
		return 0, time.Time{}, fmt.Errorf("%w: %v", ErrUpstreamMalformed, err)
	}
	if resp.Rate == nil {
		return 0, time.Time{}, fmt.Errorf("exchange rate %s/%s: %w", from, to, ErrNoData)
	}
	price, err := strconv.ParseFloat(strings.TrimSpace(resp.Rate.Rate), 64)
	if err != nil || price <= 0 {
		return 0, time.Time{}, fmt.Errorf("%w: exchange rate %q", ErrUpstreamMalformed, resp.Rate.Rate)
	}
	refreshed, err := parseTimestamp(resp.Rate.LastRefreshed)
	if err != nil {
		refreshed = c.now().UTC()
	}
	return price, refreshed, nil
}

func (c *Client) series(ctx context.Context, inst domain.Instrument, tf domain.Timeframe) ([]domain.Candle, error) {
	params, err := seriesParams(inst, tf)
	if err != nil {
		return nil, err
	}
	body, err := c.query(ctx, params)
	if err != nil {
		return nil, err
	}
	return parseSeries(body, inst.To)
}

func seriesParams(inst domain.Instrument, tf domain.Timeframe) (url.Values, error) {
	interval, intraday := intradayInterval(tf)
	if !intraday && tf != domain.Timeframe1Day {
		return nil, fmt.Errorf("timeframe %s has no upstream series", tf)
	}

	if inst.Kind == domain.KindCrypto {
		if intraday {
			return url.Values{
				"function":   {"CRYPTO_INTRADAY"},
				"symbol":     {inst.From},
				"market":     {inst.To},
				"interval":   {interval},
				"outputsize": {"full"},
			}, nil
		}
		return url.Values{
			"function": {"DIGITAL_CURRENCY_DAILY"},
			"symbol":   {inst.From},
			"market":   {inst.To},
		}, nil
	}

	if intraday {
		return url.Values{
			"function":    {"FX_INTRADAY"},
			"from_symbol": {inst.From},
			"to_symbol":   {inst.To},
			"interval":    {interval},
			"outputsize":  {"full"},
		}, nil
	}
	return url.Values{
		"function":    {"FX_DAILY"},
		"from_symbol": {inst.From},
		"to_symbol":   {inst.To},
		"outputsize":  {"full"},
	}, nil
}

func intradayInterval(tf domain.Timeframe) (string, bool) {
	switch tf {
	case domain.Timeframe5Min:
		return "5min", true
	case domain.Timeframe15Min:
		return "15min", true
	case domain.Timeframe30Min:
		return "30min", true
	case domain.Timeframe1Hour:
		return "60min", true
	default:
		return "", false
	}
}

type envelope struct {
	Note         string `json:"Note"`
	Information  string `json:"Information"`
	ErrorMessage string `json:"Error Message"`
}

// query runs one API call through the key ring and returns the raw body.
func (c *Client) query(ctx context.Context, params url.Values) ([]byte, error) {
	var body []byte
	err := c.ring.Do(ctx, func(ctx context.Context, key string) error {
		b, err := c.get(ctx, params, key)
		if err != nil {
			return err
		}
		body = b
		return nil
	})
	return body, err
}

func (c *Client) get(ctx context.Context, params url.Values, key string) ([]byte, error) {
	q := url.Values{}
	for k, v := range params {
		q[k] = v
	}
	q.Set("apikey", key)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("alphavantage %s: %w", params.Get("function"), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, ErrRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("alphavantage %s: unexpected status %d", params.Get("function"), resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	var env envelope
	if err := sonic.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamMalformed, err)
	}
	switch {
	case env.ErrorMessage != "":
		return nil, fmt.Errorf("alphavantage %s: %s: %w", params.Get("function"), env.ErrorMessage, ErrNoData)
	case isPremiumOnly(env.Information):
		return nil, fmt.Errorf("alphavantage %s: %w", params.Get("function"), ErrPremiumEndpoint)
	case env.Note != "" || env.Information != "":
		return nil, ErrRateLimited
	}
	return body, nil
}

// isPremiumOnly reports a premium-endpoint refusal. Throttle messages also
// advertise the premium plans, so any mention of a rate limit or call
// frequency wins.
func isPremiumOnly(info string) bool {
	msg := strings.ToLower(info)
	if strings.Contains(msg, "rate limit") || strings.Contains(msg, "call frequency") {
		return false
	}
	return strings.Contains(msg, "premium endpoint")
}

func resolveInstrument(symbol, market string) domain.Instrument {
	market = strings.ToUpper(strings.TrimSpace(market))
	if market == "" {
		market = domain.DefaultMarket
	}
	if inst, ok := domain.LookupInstrument(symbol); ok {
		if inst.Kind == domain.KindCrypto {
			inst.To = market
		}
		return inst
	}
	s := domain.NormalizeSymbol(symbol)
	if from, to, ok := strings.Cut(s, "/"); ok {
		return domain.Instrument{Symbol: s, Kind: domain.KindForex, From: from, To: to}
	}
	return domain.Instrument{Symbol: s, Kind: domain.KindCrypto, From: s, To: market}
}

// parseSeries accepts any "Time Series ..." object in an Alpha Vantage
// payload and returns candles oldest first.
func parseSeries(body []byte, market string) ([]domain.Candle, error) {
	var payload map[string]json.RawMessage
	if err := sonic.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamMalformed, err)
	}

	var raw map[string]map[string]string
	for k, v := range payload {
		if !strings.HasPrefix(k, "Time Series") {
			continue
		}
		if err := sonic.Unmarshal(v, &raw); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUpstreamMalformed, err)
		}
		break
	}
	if len(raw) == 0 {
		return nil, ErrNoData
	}

	out := make([]domain.Candle, 0, len(raw))
	for stamp, fields := range raw {
		ts, err := parseTimestamp(stamp)
		if err != nil {
			continue
		}
		closeVal := field(fields, "4a. close ("+market+")", "4. close")
		if closeVal <= 0 {
			continue
		}
		out = append(out, domain.Candle{
			OpenTime: ts,
			Open:     field(fields, "1a. open ("+market+")", "1. open"),
			High:     field(fields, "2a. high ("+market+")", "2. high"),
			Low:      field(fields, "3a. low ("+market+")", "3. low"),
			Close:    closeVal,
			Volume:   field(fields, "5. volume"),
		})
	}
	if len(out) == 0 {
		return nil, ErrNoData
	}
	sortCandles(out)
	return out, nil
}

func field(fields map[string]string, keys ...string) float64 {
	for _, k := range keys {
		if v, ok := fields[k]; ok {
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err == nil {
				return f
			}
		}
	}
	return 0
}

func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{time.DateTime, time.DateOnly, time.RFC3339} {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
