package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"trendboard/internal/domain"
)

const commandTimeout = 30 * time.Second

type QuoteQuerier interface {
	GetQuote(ctx context.Context, symbol string) (*domain.InstrumentQuote, error)
}

type AnalysisQuerier interface {
	GetAnalysis(ctx context.Context, symbol string) (*domain.Analysis, error)
}

type Commentator interface {
	Enabled() bool
	Commentary(ctx context.Context, symbol string) (string, error)
}

var errUsage = errors.New("usage")

// StartTelegramBot registers commands and starts long polling in the
// background. It returns nil when no token is configured.
func StartTelegramBot(token string, quotes QuoteQuerier, analyses AnalysisQuerier, commentator Commentator) *AlertDispatcher {
	if token == "" {
		log.Info().Msg("TELEGRAM_BOT_TOKEN not set, skipping Telegram bot startup")
		return nil
	}
	pref := tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}
	b, err := tele.NewBot(pref)
	if err != nil {
		log.Error().Err(err).Msg("failed to create Telegram bot")
		return nil
	}
	alerts := NewAlertDispatcher(b)

	b.Handle("/ping", func(c tele.Context) error {
		return c.Send("pong")
	})

	b.Handle("/price", func(c tele.Context) error {
		inst, err := symbolArg(c.Args())
		if err != nil {
			return c.Send(usageText("/price BTC", err))
		}
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()
		quote, err := quotes.GetQuote(ctx, inst.Symbol)
		if err != nil {
			return c.Send(fmt.Sprintf("Error fetching price for %s: %v", inst.Symbol, err))
		}
		return c.Send(formatQuote(quote))
	})

	b.Handle("/analysis", func(c tele.Context) error {
		inst, err := symbolArg(c.Args())
		if err != nil {
			return c.Send(usageText("/analysis ETH", err))
		}
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()
		analysis, err := analyses.GetAnalysis(ctx, inst.Symbol)
		if err != nil {
			return c.Send(fmt.Sprintf("Error analysing %s: %v", inst.Symbol, err))
		}
		return c.Send(formatAnalysis(analysis))
	})

	b.Handle("/timeframes", func(c tele.Context) error {
		inst, err := symbolArg(c.Args())
		if err != nil {
			return c.Send(usageText("/timeframes EUR/USD", err))
		}
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()
		analysis, err := analyses.GetAnalysis(ctx, inst.Symbol)
		if err != nil {
			return c.Send(fmt.Sprintf("Error analysing %s: %v", inst.Symbol, err))
		}
		return c.Send(formatTimeframes(analysis))
	})

	b.Handle("/ai", func(c tele.Context) error {
		if commentator == nil || !commentator.Enabled() {
			return c.Send("Commentary not configured. Set OPENAI_API_KEY to enable.")
		}
		inst, err := symbolArg(c.Args())
		if err != nil {
			return c.Send(usageText("/ai BTC", err))
		}
		_ = c.Notify(tele.Typing)
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()
		text, err := commentator.Commentary(ctx, inst.Symbol)
		if err != nil {
			log.Warn().Err(err).Str("symbol", inst.Symbol).Msg("commentary failed")
			return c.Send("Sorry, commentary is unavailable right now. Try /analysis for the raw breakdown.")
		}
		return c.Send(text)
	})

	b.Handle("/alerts", func(c tele.Context) error {
		chat := c.Chat()
		if chat == nil {
			return c.Send("Unable to detect chat")
		}

		mode, err := parseAlertMode(c.Args())
		if err != nil {
			return c.Send("Usage: /alerts on | /alerts off | /alerts status")
		}

		switch mode {
		case "on":
			if alerts.Subscribe(chat.ID) {
				return c.Send("Trend change alerts enabled for this chat.")
			}
			return c.Send("Trend change alerts are already enabled for this chat.")
		case "off":
			if alerts.Unsubscribe(chat.ID) {
				return c.Send("Trend change alerts disabled for this chat.")
			}
			return c.Send("Trend change alerts are already disabled for this chat.")
		default:
			if alerts.IsSubscribed(chat.ID) {
				return c.Send("Alerts status: ON")
			}
			return c.Send("Alerts status: OFF")
		}
	})

	log.Info().Msg("Telegram bot started")
	go b.Start()
	return alerts
}

func symbolArg(args []string) (domain.Instrument, error) {
	if len(args) == 0 {
		return domain.Instrument{}, errUsage
	}
	inst, ok := domain.LookupInstrument(args[0])
	if !ok {
		return domain.Instrument{}, fmt.Errorf("%w: %s", domain.ErrUnsupportedSymbol, args[0])
	}
	return inst, nil
}

func usageText(example string, err error) string {
	supported := strings.Join(domain.SupportedSymbols(), ", ")
	if errors.Is(err, domain.ErrUnsupportedSymbol) {
		return fmt.Sprintf("%v\nSupported: %s", err, supported)
	}
	return fmt.Sprintf("Usage: %s\nSupported: %s", example, supported)
}

func formatQuote(q *domain.InstrumentQuote) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\nPrice: %s\nChange: %+.2f%%", q.Symbol, formatPrice(q), q.PercentChange)
	if q.Fallback {
		b.WriteString("\n(offline estimate")
		if q.SuccessProbability != nil {
			fmt.Fprintf(&b, ", success probability %d%%", *q.SuccessProbability)
		}
		b.WriteString(")")
	} else if !q.LastUpdated.IsZero() {
		fmt.Fprintf(&b, "\nUpdated: %s", q.LastUpdated.UTC().Format(time.RFC822))
	}
	return b.String()
}

func formatPrice(q *domain.InstrumentQuote) string {
	if q.Kind == domain.KindForex {
		return fmt.Sprintf("%.4f", q.Price)
	}
	return fmt.Sprintf("$%.2f", q.Price)
}

func formatAnalysis(a *domain.Analysis) string {
	as := a.Assessment
	return fmt.Sprintf(
		"%s: %s\nSuccess probability: %d%%\nWeights up/down: %d/%d\nSource: %s",
		a.Symbol, as.Label, as.SuccessProbability, as.UptrendWeight, as.DowntrendWeight, a.Source,
	)
}

func formatTimeframes(a *domain.Analysis) string {
	lines := make([]string, 0, len(a.Signals)+1)
	lines = append(lines, fmt.Sprintf("%s timeframes (%s):", a.Symbol, a.Assessment.Label))
	for _, s := range a.Signals {
		lines = append(lines, fmt.Sprintf(
			"%-6s %-9s %-7s w=%d",
			s.Timeframe, s.Trend, strings.ToUpper(string(s.Signal)), s.Timeframe.Weight(),
		))
	}
	return strings.Join(lines, "\n")
}
