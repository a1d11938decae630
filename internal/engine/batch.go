package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"tidemark/internal/broker"
	"tidemark/internal/domain"
	"tidemark/internal/feed"
	"tidemark/internal/sizer"
	"tidemark/internal/store"
	"tidemark/internal/strategy"
)

// Batch runs the same strategy over many instruments, each run fully
// isolated: its own strategy instance, ledger, and executor. Instruments
// with bad or missing data are skipped and logged; a ledger invariant
// violation stops the whole batch, since it signals an engine defect that
// taints every result.
type Batch struct {
	bars     store.BarStore
	registry *strategy.Registry
	log      *slog.Logger

	strategyName string
	params       strategy.Params
	policy       FillPolicy
	sizing       sizer.Policy
	isFund       bool
	initialCash  float64
	start, end   time.Time
	maxWorkers   int
}

// BatchOptions configures a Batch run.
type BatchOptions struct {
	Strategy    string
	Params      strategy.Params
	Policy      FillPolicy
	Sizing      sizer.Policy
	IsFund      bool
	InitialCash float64
	Start, End  time.Time
	MaxWorkers  int
}

// NewBatch creates a Batch reading bars from the given store and building
// strategies from the registry.
func NewBatch(bars store.BarStore, registry *strategy.Registry, opts BatchOptions, log *slog.Logger) *Batch {
	workers := opts.MaxWorkers
	if workers < 1 {
		workers = 1
	}
	return &Batch{
		bars:         bars,
		registry:     registry,
		log:          log,
		strategyName: opts.Strategy,
		params:       opts.Params,
		policy:       opts.Policy,
		sizing:       opts.Sizing,
		isFund:       opts.IsFund,
		initialCash:  opts.InitialCash,
		start:        opts.Start,
		end:          opts.End,
		maxWorkers:   workers,
	}
}

// Run backtests every code and returns the completed results in code order,
// skipping instruments whose data could not be loaded. Codes carry the
// market suffix convention ("-HK" for stock connect).
func (b *Batch) Run(ctx context.Context, codes []string) ([]*domain.Result, error) {
	if len(codes) == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobCh := make(chan int, len(codes))
	for i := range codes {
		jobCh <- i
	}
	close(jobCh)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results = make([]*domain.Result, len(codes))
		fatal   error
	)

	workers := b.maxWorkers
	if workers > len(codes) {
		workers = len(codes)
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobCh {
				if ctx.Err() != nil {
					return
				}
				res, err := b.runOne(ctx, codes[i])
				if err != nil {
					if errors.Is(err, domain.ErrInvariantViolation) {
						mu.Lock()
						if fatal == nil {
							fatal = err
						}
						mu.Unlock()
						cancel()
						return
					}
					b.log.Warn("instrument skipped", "code", codes[i], "err", err)
					continue
				}
				mu.Lock()
				results[i] = res
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if fatal != nil {
		return nil, fatal
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([]*domain.Result, 0, len(codes))
	for _, r := range results {
		if r != nil {
			out = append(out, r)
		}
	}
	b.log.Info("batch finished", "requested", len(codes), "completed", len(out))
	return out, nil
}

// runOne backtests a single instrument with a fresh strategy instance.
func (b *Batch) runOne(ctx context.Context, code string) (*domain.Result, error) {
	symbol, market := domain.ParseCode(code)

	f, err := feed.FromStore(ctx, b.bars, symbol, market, b.start, b.end)
	if err != nil {
		return nil, err
	}

	strat, err := b.registry.New(b.strategyName, b.params, b.log)
	if err != nil {
		return nil, err
	}

	cm := broker.StockCommission{Market: market, IsFund: b.isFund}
	driver := NewDriver(b.policy, cm, b.sizing, b.log)
	return driver.Run(ctx, f, strat, b.initialCash)
}
