package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"pricewatch/internal/events"
	sl "pricewatch/internal/lib/logger"
	"pricewatch/internal/models"
)

type ProductLister interface {
	Products(ctx context.Context) ([]models.Product, error)
}

type Publisher interface {
	Publish(ctx context.Context, channel string, v any) error
}

// Stats — счётчики за время жизни процесса, сбрасываются только рестартом.
type Stats struct {
	TotalRuns       int64      `json:"totalRuns"`
	LastRun         *time.Time `json:"lastRun,omitempty"`
	NextRun         *time.Time `json:"nextRun,omitempty"`
	ProductsChecked int64      `json:"productsChecked"`
	Errors          int64      `json:"errors"`
	CronPattern     string     `json:"cronPattern"`
}

// Scheduler по расписанию (или по ручному триггеру) публикует по одному
// scrape:request на каждый отслеживаемый продукт с паузой между публикациями,
// чтобы не заваливать скрапер.
type Scheduler struct {
	log     *slog.Logger
	store   ProductLister
	bus     Publisher
	pattern string
	pace    time.Duration

	cron    *cron.Cron
	entryID cron.EntryID

	mu      sync.Mutex
	running bool
	stats   Stats
}

func New(log *slog.Logger, store ProductLister, bus Publisher, pattern string, pace time.Duration) *Scheduler {
	return &Scheduler{
		log:     log,
		store:   store,
		bus:     bus,
		pattern: pattern,
		pace:    pace,
		cron:    cron.New(),
		stats:   Stats{CronPattern: pattern},
	}
}

func (s *Scheduler) Start() error {
	const op = "scheduler.Start"

	id, err := s.cron.AddFunc(s.pattern, func() {
		if err := s.Run(context.Background()); err != nil {
			s.log.Error("scheduled run failed", sl.Err(err))
		}
	})
	if err != nil {
		return fmt.Errorf("%s: invalid cron pattern %q: %w", op, s.pattern, err)
	}

	s.entryID = id
	s.cron.Start()

	s.log.Info("scheduler started", slog.String("pattern", s.pattern))

	return nil
}

func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// Run — один проход по всем продуктам. Если проход уже идёт, новый триггер
// превращается в no-op. Ошибка по одному продукту не прерывает остальные.
func (s *Scheduler) Run(ctx context.Context) error {
	const op = "scheduler.Run"

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		s.log.Warn("run already in progress, skipping trigger")
		return nil
	}
	s.running = true
	now := time.Now().UTC()
	s.stats.TotalRuns++
	s.stats.LastRun = &now
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	s.log.Info("starting scheduled product checks")

	products, err := s.store.Products(ctx)
	if err != nil {
		s.addErrors(1)
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("products to check", slog.Int("count", len(products)))

	for _, product := range products {
		req := events.ScrapeRequest{
			ProductID: product.ID,
			URL:       product.URL,
			Platform:  product.Platform,
			RequestID: fmt.Sprintf("scheduled-%d-%s", product.ID, uuid.NewString()),
		}

		if err := s.bus.Publish(ctx, events.ChannelScrapeRequest, req); err != nil {
			s.log.Error("failed to schedule product",
				sl.Err(err),
				slog.Int64("product_id", product.ID),
			)
			s.addErrors(1)
			continue
		}

		s.mu.Lock()
		s.stats.ProductsChecked++
		s.mu.Unlock()

		// пауза между публикациями ограничивает нагрузку на скрапер
		select {
		case <-time.After(s.pace):
		case <-ctx.Done():
			return fmt.Errorf("%s: %w", op, ctx.Err())
		}
	}

	s.log.Info("scheduled checks completed", slog.Int("count", len(products)))

	return nil
}

func (s *Scheduler) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := s.stats

	if s.entryID != 0 {
		next := s.cron.Entry(s.entryID).Next
		if !next.IsZero() {
			stats.NextRun = &next
		}
	}

	return stats
}

func (s *Scheduler) addErrors(n int64) {
	s.mu.Lock()
	s.stats.Errors += n
	s.mu.Unlock()
}
