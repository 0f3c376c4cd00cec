// Package enrich はフィード要約が不十分な記事の本文補完を提供する。
// 記事ページをスクレイピングして本文段落を抽出する。
package enrich

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"github.com/hitoshi/techscope/internal/model"
)

// SSRFValidator はSSRF検証のインターフェース。
type SSRFValidator interface {
	ValidateURL(rawURL string) error
	NewSafeClient(timeout time.Duration, maxResponseSize int64) *http.Client
}

// Enricher は記事本文の補完を行う。
// 同時実行数はセマフォで制限し、外部サイトへのリクエスト頻度は
// レートリミッタで制限する。
type Enricher struct {
	ssrfGuard   SSRFValidator
	logger      *slog.Logger
	limiter     *rate.Limiter
	timeout     time.Duration
	maxBodySize int64
	maxParallel int
}

// NewEnricher はEnricherの新しいインスタンスを生成する。
// maxParallelは同時スクレイピング数の上限、ratePerSecは1秒あたりの
// リクエスト数の上限を指定する。
func NewEnricher(
	ssrfGuard SSRFValidator,
	logger *slog.Logger,
	timeout time.Duration,
	maxBodySize int64,
	maxParallel int,
	ratePerSec float64,
) *Enricher {
	if maxParallel <= 0 {
		maxParallel = 5
	}
	if ratePerSec <= 0 {
		ratePerSec = 2.0
	}
	return &Enricher{
		ssrfGuard:   ssrfGuard,
		logger:      logger,
		limiter:     rate.NewLimiter(rate.Limit(ratePerSec), 1),
		timeout:     timeout,
		maxBodySize: maxBodySize,
		maxParallel: maxParallel,
	}
}

// EnrichAll はNeedsEnrichmentが立っている記事候補の本文を並行して補完する。
// 補完に失敗した記事は元の本文のまま残す（失敗は記事単位で隔離する）。
// 戻り値は補完を試みた件数と成功した件数。
func (e *Enricher) EnrichAll(ctx context.Context, candidates []model.NewsCandidate) ([]model.NewsCandidate, int, int) {
	var attempted, succeeded int
	var mu sync.Mutex
	var wg sync.WaitGroup

	// セマフォで同時実行数を制限
	semaphore := make(chan struct{}, e.maxParallel)

	for i := range candidates {
		if !candidates[i].NeedsEnrichment {
			continue
		}
		attempted++

		wg.Add(1)
		semaphore <- struct{}{}
		go func(c *model.NewsCandidate) {
			defer wg.Done()
			defer func() { <-semaphore }()

			body, err := e.enrichOne(ctx, c.URL)
			if err != nil {
				e.logger.Warn("本文の補完に失敗しました",
					slog.String("url", c.URL),
					slog.String("source", c.Source),
					slog.String("error", err.Error()),
				)
				return
			}
			if body == "" {
				return
			}

			mu.Lock()
			c.Body = body
			c.NeedsEnrichment = false
			succeeded++
			mu.Unlock()
		}(&candidates[i])
	}

	wg.Wait()
	return candidates, attempted, succeeded
}

// enrichOne は記事ページを取得して本文を抽出する。
// 抽出した本文が短すぎる場合は空文字列を返す（補完失敗扱い）。
func (e *Enricher) enrichOne(ctx context.Context, articleURL string) (string, error) {
	// レートリミッタで外部サイトへの頻度を制限
	if err := e.limiter.Wait(ctx); err != nil {
		return "", err
	}

	if err := e.ssrfGuard.ValidateURL(articleURL); err != nil {
		return "", &model.FetchError{Source: "enrich", URL: articleURL, Err: err}
	}

	client := e.ssrfGuard.NewSafeClient(e.timeout, e.maxBodySize)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, articleURL, nil)
	if err != nil {
		return "", &model.FetchError{Source: "enrich", URL: articleURL, Err: err}
	}
	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := client.Do(req)
	if err != nil {
		return "", &model.FetchError{Source: "enrich", URL: articleURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &model.FetchError{
			Source: "enrich",
			URL:    articleURL,
			Err:    fmt.Errorf("unexpected HTTP status: %d", resp.StatusCode),
		}
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", &model.ParseError{Source: "enrich", Err: err}
	}

	return ExtractBody(doc), nil
}

// browserUserAgent は記事取得時に使用するUser-Agent。
// ボットUAを拒否するニュースサイトがあるためブラウザのUA文字列を使用する。
const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
