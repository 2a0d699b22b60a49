// Package aggregator собирает ленту аирдропов с нескольких сайтов.
//
// Каждый источник загружается независимо и со своим таймаутом. Упавший
// источник превращается в одну заглушку "<Source>: Update pending" и не
// мешает остальным.
package aggregator

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/sync/errgroup"

	"github.com/magabrotheeeer/airdrop-paywall/internal/config"
	"github.com/magabrotheeeer/airdrop-paywall/internal/lib/sl"
	"github.com/magabrotheeeer/airdrop-paywall/internal/metrics"
	"github.com/magabrotheeeer/airdrop-paywall/internal/models"
)

// CacheKey ключ собранной ленты в кеше.
const CacheKey = "feed:latest"

const userAgent = "Mozilla/5.0 (compatible; airdrop-paywall/1.0)"

// Cache хранит собранную ленту.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Invalidate(ctx context.Context, key string) error
}

// Config параметры сборки ленты.
type Config struct {
	Sources      []config.Source
	PerSource    int
	Limit        int
	FetchTimeout time.Duration
	CacheTTL     time.Duration
}

// Result итог загрузки одного источника.
type Result struct {
	Source string
	Items  []models.Item
	Err    error
}

// Aggregator собирает ленту.
type Aggregator struct {
	cfg    Config
	client *http.Client
	cache  Cache
	log    *slog.Logger
}

// New создает агрегатор. cache может быть nil.
func New(cfg Config, client *http.Client, cache Cache, log *slog.Logger) *Aggregator {
	if client == nil {
		client = &http.Client{}
	}
	return &Aggregator{
		cfg:    cfg,
		client: client,
		cache:  cache,
		log:    log,
	}
}

// Feed возвращает ленту из кеша или собирает ее заново.
// Лента с заглушками в кеш не попадает, нечитаемая запись удаляется.
func (a *Aggregator) Feed(ctx context.Context) []models.Item {
	const op = "aggregator.Feed"
	log := a.log.With(slog.String("op", op))

	if a.cache != nil {
		var cached []models.Item
		found, err := a.cache.Get(ctx, CacheKey, &cached)
		if err != nil {
			log.Warn("failed to read feed from cache", sl.Err(err))
			if invErr := a.cache.Invalidate(ctx, CacheKey); invErr != nil {
				log.Warn("failed to drop cached feed", sl.Err(invErr))
			}
		}
		if found {
			return cached
		}
	}

	results := a.FetchAll(ctx)
	items := Fold(results, a.cfg.PerSource, a.cfg.Limit)

	if a.cache != nil && complete(results) {
		if err := a.cache.Set(ctx, CacheKey, items, a.cfg.CacheTTL); err != nil {
			log.Warn("failed to cache feed", sl.Err(err))
		}
	}
	return items
}

// FetchAll загружает все источники параллельно. Порядок результатов
// совпадает с порядком источников в конфиге.
func (a *Aggregator) FetchAll(ctx context.Context) []Result {
	results := make([]Result, len(a.cfg.Sources))

	var g errgroup.Group
	for i, src := range a.cfg.Sources {
		g.Go(func() error {
			items, err := a.fetch(ctx, src)
			if err != nil {
				metrics.SourceFailuresTotal.WithLabelValues(src.Name).Inc()
				a.log.Warn("source fetch failed", slog.String("source", src.Name), sl.Err(err))
			}
			results[i] = Result{Source: src.Name, Items: items, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// Fold склеивает результаты источников: до perSource элементов от каждого,
// заглушка вместо упавшего, всего не больше limit.
func Fold(results []Result, perSource, limit int) []models.Item {
	items := make([]models.Item, 0, limit)
	for _, r := range results {
		if r.Err != nil {
			items = append(items, models.PendingItem(r.Source))
			continue
		}
		items = append(items, r.Items[:min(len(r.Items), perSource)]...)
	}
	if len(items) > limit {
		items = items[:limit]
	}
	return items
}

func complete(results []Result) bool {
	for _, r := range results {
		if r.Err != nil {
			return false
		}
	}
	return true
}

func (a *Aggregator) fetch(ctx context.Context, src config.Source) ([]models.Item, error) {
	const op = "aggregator.fetch"

	if a.cfg.FetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.cfg.FetchTimeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: unexpected status %d", op, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var items []models.Item
	doc.Find(src.Selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		title := strings.Join(strings.Fields(s.Text()), " ")
		if title != "" {
			items = append(items, models.Item{Source: src.Name, Title: title})
		}
		return len(items) < a.cfg.PerSource
	})
	return items, nil
}
