// Package pipeline はニュース取り込みの一連の処理を編成する。
// ソース取得 → 本文補完 → 重複排除 → 分類・分析 → 保存 の順で実行する。
package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/techscope/internal/analysis"
	"github.com/hitoshi/techscope/internal/enrich"
	"github.com/hitoshi/techscope/internal/metrics"
	"github.com/hitoshi/techscope/internal/model"
	"github.com/hitoshi/techscope/internal/repository"
	"github.com/hitoshi/techscope/internal/source"
)

// Enricher は本文補完のインターフェース。
type Enricher interface {
	EnrichAll(ctx context.Context, candidates []model.NewsCandidate) ([]model.NewsCandidate, int, int)
}

// BodySanitizer は本文サニタイズのインターフェース。
type BodySanitizer interface {
	Sanitize(raw string) string
}

// Analyzer は重要度分析のインターフェース。
type Analyzer interface {
	Name() string
	Analyze(ctx context.Context, title, body string, breaking bool) (model.Analysis, error)
}

// backfillBatchSize は1回のバックフィルで処理する未分析記事の上限。
const backfillBatchSize = 100

// Pipeline はニュース取り込みパイプライン。
// 1ソースの失敗も1記事の失敗も実行全体を止めない。
type Pipeline struct {
	adapters      []source.Adapter
	enricher      Enricher
	analyzer      Analyzer
	sanitizer     BodySanitizer
	newsRepo      repository.NewsRepository
	collector     metrics.MetricsCollector
	logger        *slog.Logger
	maxConcurrent int
}

// NewPipeline はPipelineの新しいインスタンスを生成する。
// maxConcurrentはソースフェッチの同時実行数の上限。
func NewPipeline(
	adapters []source.Adapter,
	enricher Enricher,
	analyzer Analyzer,
	sanitizer BodySanitizer,
	newsRepo repository.NewsRepository,
	collector metrics.MetricsCollector,
	logger *slog.Logger,
	maxConcurrent int,
) *Pipeline {
	if maxConcurrent <= 0 {
		maxConcurrent = 10
	}
	return &Pipeline{
		adapters:      adapters,
		enricher:      enricher,
		analyzer:      analyzer,
		sanitizer:     sanitizer,
		newsRepo:      newsRepo,
		collector:     collector,
		logger:        logger,
		maxConcurrent: maxConcurrent,
	}
}

// Run はパイプラインを1回実行し、新規保存した記事数を返す。
// ソース単位・記事単位のエラーは全て内部で処理するため、
// 実行全体としてエラーを返すことはない。
func (p *Pipeline) Run(ctx context.Context) (int, error) {
	runID := uuid.NewString()
	start := time.Now()
	logger := p.logger.With(slog.String("run_id", runID))

	logger.Info("取り込みパイプラインを開始します",
		slog.Int("sources", len(p.adapters)),
	)

	// 1. 全ソースを並行フェッチ
	candidates := p.fetchAll(ctx, logger)

	// 2. バッチ内のURL重複を先着優先で潰す
	candidates = collapseByURL(candidates)

	// 3. 薄い本文を補完
	candidates, attempted, succeeded := p.enricher.EnrichAll(ctx, candidates)
	p.collector.RecordEnrichment(attempted, succeeded)

	// 4. 記事ごとに 分類 → 分析 → 保存
	var stored, duplicates, failures int
	for i := range candidates {
		created, err := p.processCandidate(ctx, logger, &candidates[i])
		if err != nil {
			failures++
			continue
		}
		if created {
			stored++
		} else {
			duplicates++
		}
	}

	p.collector.RecordItemsStored(stored)
	p.collector.RecordItemsDuplicate(duplicates)

	logger.Info("取り込みパイプラインが完了しました",
		slog.Int("candidates", len(candidates)),
		slog.Int("stored", stored),
		slog.Int("duplicates", duplicates),
		slog.Int("failures", failures),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)

	return stored, nil
}

// fetchAll は全ソースを並行してフェッチし、結果を1つのリストに集める。
// ソース単位の失敗はログとメトリクスに記録し、0件として扱う。
func (p *Pipeline) fetchAll(ctx context.Context, logger *slog.Logger) []model.NewsCandidate {
	var mu sync.Mutex
	var all []model.NewsCandidate
	var wg sync.WaitGroup

	// セマフォで同時フェッチ数を制限
	semaphore := make(chan struct{}, p.maxConcurrent)

	for _, adapter := range p.adapters {
		wg.Add(1)
		semaphore <- struct{}{}
		go func(a source.Adapter) {
			defer wg.Done()
			defer func() { <-semaphore }()

			items, err := a.Fetch(ctx)
			if err != nil {
				logger.Error("ソースのフェッチに失敗しました",
					slog.String("source", a.Name()),
					slog.String("error", err.Error()),
				)
				p.collector.RecordSourceFetch(a.Name(), false)
				return
			}

			p.collector.RecordSourceFetch(a.Name(), true)
			p.collector.RecordItemsFetched(a.Name(), len(items))

			mu.Lock()
			all = append(all, items...)
			mu.Unlock()
		}(adapter)
	}

	wg.Wait()
	return all
}

// processCandidate は1記事を分類・分析して保存する。
// 戻り値は（新規保存されたか, エラー）。分析の失敗は未分析のまま保存し、
// 後続のバックフィルに委ねる。
func (p *Pipeline) processCandidate(ctx context.Context, logger *slog.Logger, c *model.NewsCandidate) (bool, error) {
	// 本文が空、またはタイトルと同一の場合は代替本文に差し替える。
	// 保存される本文は必ずタイトルと異なるバイト列になる。
	body := p.sanitizer.Sanitize(c.Body)
	if body == "" || body == c.Title {
		body = enrich.Placeholder(c.Title, c.Source)
	}

	news := &model.News{
		Title:       c.Title,
		Body:        body,
		URL:         c.URL,
		Source:      c.Source,
		Category:    analysis.Classify(c.Title, body),
		PublishedAt: c.PublishedAt,
	}

	result, err := p.analyzer.Analyze(ctx, c.Title, body, false)
	if err != nil {
		// 分析失敗は記事を捨てる理由にならない。未分析のまま保存して
		// バックフィルジョブに後処理させる。
		logger.Warn("記事の分析に失敗したため未分析のまま保存します",
			slog.String("url", c.URL),
			slog.String("strategy", p.analyzer.Name()),
			slog.String("error", err.Error()),
		)
	} else {
		news.ApplyAnalysis(result)
	}

	created, err := p.newsRepo.Create(ctx, news)
	if err != nil {
		logger.Error("記事の保存に失敗しました",
			slog.String("url", c.URL),
			slog.String("error", err.Error()),
		)
		return false, &model.StoreError{Op: "insert news", Err: err}
	}

	return created, nil
}

// Backfill は未分析の記事に分析結果を埋める。
// 分析済みの記事には触れないため何度実行しても安全（冪等）。
// 戻り値は分析結果を書き込んだ記事数。
func (p *Pipeline) Backfill(ctx context.Context) (int, error) {
	items, err := p.newsRepo.ListUnanalyzed(ctx, backfillBatchSize)
	if err != nil {
		return 0, &model.StoreError{Op: "list unanalyzed", Err: err}
	}

	var updated int
	for _, item := range items {
		result, err := p.analyzer.Analyze(ctx, item.Title, item.Body, false)
		if err != nil {
			p.logger.Warn("バックフィル分析に失敗しました",
				slog.Int64("news_id", item.ID),
				slog.String("error", err.Error()),
			)
			continue
		}

		if err := p.newsRepo.UpdateAnalysis(ctx, item.ID, result); err != nil {
			p.logger.Error("バックフィル結果の保存に失敗しました",
				slog.Int64("news_id", item.ID),
				slog.String("error", err.Error()),
			)
			continue
		}
		updated++
	}

	if updated > 0 {
		p.logger.Info("未分析記事のバックフィルが完了しました",
			slog.Int("updated", updated),
			slog.Int("candidates", len(items)),
		)
	}

	return updated, nil
}

// collapseByURL は同一URLの候補を先着優先で1件に潰す。
func collapseByURL(candidates []model.NewsCandidate) []model.NewsCandidate {
	seen := make(map[string]struct{}, len(candidates))
	out := candidates[:0]
	for _, c := range candidates {
		if _, ok := seen[c.URL]; ok {
			continue
		}
		seen[c.URL] = struct{}{}
		out = append(out, c)
	}
	return out
}
