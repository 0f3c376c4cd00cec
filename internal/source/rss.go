package source

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/hitoshi/techscope/internal/model"
)

// browserUserAgent は取得時に使用するUser-Agent。
// 一部のニュースサイトはボットUAからのアクセスを拒否するため、
// 一般的なブラウザのUA文字列を使用する。
const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// minBodyLength は要約がこれ未満の場合に本文補完の対象とする文字数。
const minBodyLength = 100

// SSRFValidator はSSRF検証のインターフェース。
type SSRFValidator interface {
	ValidateURL(rawURL string) error
	NewSafeClient(timeout time.Duration, maxResponseSize int64) *http.Client
}

// RSSAdapter はRSS/AtomフィードからニュースをフェッチするAdapter実装。
// SSRF検証、gofeedによるパース、要約HTMLのクリーニングを行う。
type RSSAdapter struct {
	name        string
	feedURL     string
	ssrfGuard   SSRFValidator
	logger      *slog.Logger
	timeout     time.Duration
	maxBodySize int64
	maxItems    int
}

// NewRSSAdapter はRSSAdapterの新しいインスタンスを生成する。
// maxItemsはフィード1回あたりの取り込み上限。0以下の場合は制限なし。
func NewRSSAdapter(
	name string,
	feedURL string,
	ssrfGuard SSRFValidator,
	logger *slog.Logger,
	timeout time.Duration,
	maxBodySize int64,
	maxItems int,
) *RSSAdapter {
	return &RSSAdapter{
		name:        name,
		feedURL:     feedURL,
		ssrfGuard:   ssrfGuard,
		logger:      logger,
		timeout:     timeout,
		maxBodySize: maxBodySize,
		maxItems:    maxItems,
	}
}

// Name はソースの表示名を返す。
func (a *RSSAdapter) Name() string {
	return a.name
}

// Fetch はフィードをフェッチし、記事候補に変換して返す。
func (a *RSSAdapter) Fetch(ctx context.Context) ([]model.NewsCandidate, error) {
	start := time.Now()

	// SSRF検証
	if err := a.ssrfGuard.ValidateURL(a.feedURL); err != nil {
		return nil, &model.FetchError{Source: a.name, URL: a.feedURL, Err: err}
	}

	// HTTPリクエスト構築
	client := a.ssrfGuard.NewSafeClient(a.timeout, a.maxBodySize)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.feedURL, nil)
	if err != nil {
		return nil, &model.FetchError{Source: a.name, URL: a.feedURL, Err: err}
	}

	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml, text/xml, */*")

	// HTTPリクエスト実行
	resp, err := client.Do(req)
	if err != nil {
		return nil, &model.FetchError{Source: a.name, URL: a.feedURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &model.FetchError{
			Source: a.name,
			URL:    a.feedURL,
			Err:    fmt.Errorf("unexpected HTTP status: %d", resp.StatusCode),
		}
	}

	// レスポンスボディを読み込み（最大サイズ制限付き）
	body, err := io.ReadAll(io.LimitReader(resp.Body, a.maxBodySize))
	if err != nil {
		return nil, &model.FetchError{Source: a.name, URL: a.feedURL, Err: err}
	}

	// gofeedでフィードをパース
	parser := gofeed.NewParser()
	parsedFeed, err := parser.ParseString(string(body))
	if err != nil {
		return nil, &model.ParseError{Source: a.name, Err: err}
	}

	candidates := a.convertItems(parsedFeed.Items)

	a.logger.Info("フィードフェッチが完了しました",
		slog.String("source", a.name),
		slog.String("feed_url", a.feedURL),
		slog.Int("http_status", resp.StatusCode),
		slog.Int("items_total", len(parsedFeed.Items)),
		slog.Int("items_converted", len(candidates)),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)

	return candidates, nil
}

// convertItems はgofeedの記事をNewsCandidateに変換する。
// タイトルまたはリンクが空の記事はスキップする。
func (a *RSSAdapter) convertItems(items []*gofeed.Item) []model.NewsCandidate {
	limit := len(items)
	if a.maxItems > 0 && a.maxItems < limit {
		limit = a.maxItems
	}

	candidates := make([]model.NewsCandidate, 0, limit)
	for _, item := range items {
		if len(candidates) >= limit {
			break
		}
		if item == nil || item.Title == "" || item.Link == "" {
			continue
		}

		// Contentが空の場合はDescriptionを使用
		raw := item.Content
		if raw == "" {
			raw = item.Description
		}
		body := CleanSummary(raw)

		// 公開日時: published → updated → 現在時刻の順で採用
		publishedAt := time.Now()
		if item.PublishedParsed != nil {
			publishedAt = *item.PublishedParsed
		} else if item.UpdatedParsed != nil {
			publishedAt = *item.UpdatedParsed
		}

		candidates = append(candidates, model.NewsCandidate{
			Title:           item.Title,
			Body:            body,
			URL:             item.Link,
			Source:          a.name,
			PublishedAt:     publishedAt,
			NeedsEnrichment: len([]rune(body)) < minBodyLength || body == item.Title,
		})
	}

	return candidates
}

// compile-time interface check
var _ Adapter = (*RSSAdapter)(nil)
