package pipeline

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/fiffu/noticewatch/config"
	"github.com/fiffu/noticewatch/lib/enrich"
	"github.com/fiffu/noticewatch/lib/models"
	"github.com/fiffu/noticewatch/senders"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var mu sync.Mutex

func NewPipeline(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger, db *gorm.DB, transport http.RoundTripper, enricher *enrich.Enricher, reg senders.Registry) *Pipeline {
	loc, err := time.LoadLocation(cfg.Pipeline.Timezone)
	if err != nil {
		log.Sugar().Warnf("Unknown timezone %q, falling back to UTC", cfg.Pipeline.Timezone)
		loc = time.UTC
	}

	p := &Pipeline{
		cfg:         cfg,
		log:         log,
		db:          db,
		transport:   transport,
		enricher:    enricher,
		senders:     reg,
		loc:         loc,
		interval:    time.Duration(cfg.Pipeline.IntervalMins) * time.Minute,
		callTimeout: time.Duration(cfg.Pipeline.CallTimeoutSecs) * time.Second,
		batchSize:   cfg.Push.BatchSize,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go p.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Sugar().Info("Trying to stop pipeline")
			p.Stop()
			return nil
		},
	})

	return p
}

type Pipeline struct {
	cfg       *config.Config
	log       *zap.Logger
	db        *gorm.DB
	transport http.RoundTripper
	enricher  *enrich.Enricher
	senders   senders.Registry

	cancel context.CancelFunc

	loc         *time.Location // Timezone the schedule and feed timestamps are evaluated in
	interval    time.Duration  // Interval between passes
	callTimeout time.Duration  // Bound on each outbound call
	batchSize   int            // Max addresses per push batch
}

func (p *Pipeline) tickerWithImmediateTick(interval time.Duration) *time.Ticker {
	withImmediateTick := make(chan time.Time, 1)

	ticker := time.NewTicker(interval)
	tickerC := ticker.C
	go func() {
		withImmediateTick <- time.Now()
		for c := range tickerC {
			withImmediateTick <- c
		}
	}()

	ticker.C = withImmediateTick
	return ticker
}

func (p *Pipeline) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel

	ticker := p.tickerWithImmediateTick(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// Locking here to wait for the in-flight pass to finish
			mu.Lock()

			p.log.Sugar().Info("Pipeline stopped")
			return

		case passStart := <-ticker.C:
			p.runPass(ctx, passStart.In(p.loc))
		}
	}
}

func (p *Pipeline) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
}

func (p *Pipeline) runPass(ctx context.Context, passStart time.Time) {
	mu.Lock()
	defer mu.Unlock()

	timer := prometheus.NewTimer(passDuration)
	defer timer.ObserveDuration()

	total := &passMetrics{}
	for _, src := range p.loadSources() {
		m, err := p.processSource(ctx, &src)
		if err != nil {
			sourceErrorsTotal.WithLabelValues(src.ID).Inc()
			p.log.Sugar().Errorw("Source skipped", "source", src.ID, "err", err)
		}
		total.Add(m)
	}

	if total.fetched > 0 {
		args := make([]any, 0)
		if total.ingested != 0 {
			args = append(args, "ingested", total.ingested)
		}
		if total.skipped != 0 {
			args = append(args, "skipped", total.skipped)
		}
		if total.notified != 0 {
			args = append(args, "notified", total.notified)
		}
		if total.errored != 0 {
			args = append(args, "errored", total.errored)
		}

		p.log.Sugar().Infow("Processed notices", args...)
	}

	elapsed := time.Now().UTC().Sub(passStart.UTC())
	p.log.Sugar().Infow("Pass completed", "elapsed_msecs", int(elapsed.Milliseconds()))
}

// loadSources returns the configured sources in processing order:
// department (membership-routed) sources first, then global-category
// (keyword-routed) sources.
func (p *Pipeline) loadSources() models.Sources {
	var out models.Sources
	for _, routing := range []string{models.RoutingMembership, models.RoutingKeyword} {
		var batch models.Sources
		tx := p.db.Where("routing = ?", routing).Order("id").Find(&batch)
		if err := tx.Error; err != nil {
			p.log.Sugar().Errorw("Failed to load sources", "routing", routing, "err", err)
			continue
		}
		out = append(out, batch...)
	}
	return out
}
