package fetch

import (
	"context"
	"log/slog"
	"time"

	"tidemark/internal/domain"
	"tidemark/internal/store"
	"tidemark/internal/util"
)

// DailyBarGatherer downloads daily bar history for a list of instruments and
// persists it through a BarStore. Requests are rate limited and retried;
// instruments that still fail are skipped, not fatal.
type DailyBarGatherer struct {
	client   *QuoteClient
	store    store.BarStore
	limiter  *util.RateLimiter
	calendar *util.TradingCalendar
	log      *slog.Logger

	startDate  time.Time
	maxRetries int
}

// NewDailyBarGatherer creates a gatherer fetching bars from startDate
// onward.
func NewDailyBarGatherer(client *QuoteClient, bars store.BarStore, startDate time.Time, ratePerMinute, maxRetries int, log *slog.Logger) *DailyBarGatherer {
	return &DailyBarGatherer{
		client:     client,
		store:      bars,
		limiter:    util.NewRateLimiter(ratePerMinute),
		calendar:   util.NewTradingCalendar(),
		log:        log,
		startDate:  startDate,
		maxRetries: maxRetries,
	}
}

// Name returns the gatherer identifier.
func (g *DailyBarGatherer) Name() string { return "daily-bars" }

// Run fetches history for every code up to the most recent trading day and
// returns how many instruments were stored. Codes carry the "-HK" market
// suffix convention.
func (g *DailyBarGatherer) Run(ctx context.Context, codes []string) (int, error) {
	end := g.endDate(time.Now())
	stored := 0

	for _, code := range codes {
		if err := ctx.Err(); err != nil {
			return stored, err
		}
		symbol, market := domain.ParseCode(code)

		if err := g.limiter.Wait(ctx); err != nil {
			return stored, err
		}

		var bars []domain.Bar
		err := util.Retry(ctx, g.maxRetries, time.Second, func() error {
			var err error
			bars, err = g.client.DailyBars(ctx, symbol, market, g.startDate, end)
			return err
		})
		if err != nil {
			g.log.Warn("fetch failed, skipping", "code", code, "err", err)
			continue
		}
		if len(bars) == 0 {
			g.log.Warn("no bars returned, skipping", "code", code)
			continue
		}

		if err := g.store.WriteBars(ctx, market, bars); err != nil {
			g.log.Warn("store write failed, skipping", "code", code, "err", err)
			continue
		}
		stored++
		g.log.Info("stored history", "code", code, "bars", len(bars),
			"first", bars[0].Timestamp.Format("2006-01-02"),
			"last", bars[len(bars)-1].Timestamp.Format("2006-01-02"))
	}
	return stored, nil
}

// endDate returns the last completed trading day relative to now.
func (g *DailyBarGatherer) endDate(now time.Time) time.Time {
	day := now.AddDate(0, 0, -1)
	for !g.calendar.IsTradingDay(day) {
		day = day.AddDate(0, 0, -1)
	}
	return day
}
