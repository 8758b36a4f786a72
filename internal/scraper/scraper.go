package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"

	"pricewatch/internal/config"
	"pricewatch/internal/models"
)

var ErrUnsupportedPlatform = errors.New("unsupported platform")

// Extractor — стратегия извлечения одной платформы. Работает над уже
// отрендеренным документом и не трогает браузер.
type Extractor interface {
	Platform() models.Platform
	Extract(doc *goquery.Document) models.Snapshot
}

// Engine держит один общий процесс браузера на все запросы и открывает
// отдельную вкладку на каждый скрап. Число одновременно открытых вкладок
// ограничено семафором.
type Engine struct {
	log        *slog.Logger
	cfg        config.Scraper
	extractors map[models.Platform]Extractor
	pages      chan struct{}

	mu            sync.Mutex
	browserCtx    context.Context
	allocCancel   context.CancelFunc
	browserCancel context.CancelFunc
}

func NewEngine(log *slog.Logger, cfg config.Scraper) *Engine {
	e := &Engine{
		log:        log,
		cfg:        cfg,
		extractors: make(map[models.Platform]Extractor),
		pages:      make(chan struct{}, cfg.MaxPages),
	}

	for _, ex := range []Extractor{
		flipkartExtractor{},
		amazonExtractor{},
		vivoExtractor{},
	} {
		e.extractors[ex.Platform()] = ex
	}

	return e
}

// Scrape открывает вкладку, загружает страницу и прогоняет её через
// стратегию платформы. Неизвестная платформа отклоняется до того, как будут
// заняты ресурсы браузера; вкладка закрывается на любом пути выхода.
func (e *Engine) Scrape(ctx context.Context, url string, platform models.Platform) (models.Snapshot, error) {
	const op = "scraper.Scrape"

	ex, ok := e.extractors[platform]
	if !ok {
		return models.Snapshot{}, fmt.Errorf("%s: %s: %w", op, platform, ErrUnsupportedPlatform)
	}

	select {
	case e.pages <- struct{}{}:
	case <-ctx.Done():
		return models.Snapshot{}, fmt.Errorf("%s: %w", op, ctx.Err())
	}
	defer func() { <-e.pages }()

	browserCtx, err := e.browser()
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("%s: %w", op, err)
	}

	pageCtx, closePage := chromedp.NewContext(browserCtx)
	defer closePage()

	navCtx, cancel := context.WithTimeout(pageCtx, e.cfg.NavigateTimeout)
	defer cancel()

	var html string

	err = chromedp.Run(navCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("%s: navigate %s: %w", op, url, err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("%s: parse: %w", op, err)
	}

	return ex.Extract(doc), nil
}

// browser лениво запускает общий процесс браузера при первом обращении.
func (e *Engine) browser() (context.Context, error) {
	const op = "scraper.browser"

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.browserCtx != nil {
		return e.browserCtx, nil
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", e.cfg.Headless),
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(e.cfg.UserAgent),
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	e.browserCtx = browserCtx
	e.allocCancel = allocCancel
	e.browserCancel = browserCancel

	e.log.Info("browser initialized")

	return e.browserCtx, nil
}

func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.browserCancel != nil {
		e.browserCancel()
	}
	if e.allocCancel != nil {
		e.allocCancel()
	}
	e.browserCtx = nil
}
