package source

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/techscope/internal/model"
)

// mockSSRFValidator はテスト用のSSRFValidator実装。
// httptestサーバーはループバックで動作するため、検証をバイパスする。
type mockSSRFValidator struct {
	validateFunc func(rawURL string) error
}

func (m *mockSSRFValidator) ValidateURL(rawURL string) error {
	if m.validateFunc != nil {
		return m.validateFunc(rawURL)
	}
	return nil
}

func (m *mockSSRFValidator) NewSafeClient(timeout time.Duration, maxResponseSize int64) *http.Client {
	return &http.Client{Timeout: timeout}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

const testRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
<title>Test Feed</title>
<item>
  <title>Major Tech Company Announces Revolutionary AI Breakthrough</title>
  <link>https://example.com/ai-breakthrough</link>
  <description><![CDATA[<p>A major technology company unveiled a revolutionary artificial intelligence system today, marking a significant milestone in machine learning research and development worldwide.</p>]]></description>
  <pubDate>Mon, 31 Aug 2026 10:00:00 GMT</pubDate>
</item>
<item>
  <title>Short summary item</title>
  <link>https://example.com/short</link>
  <description>Brief.</description>
  <pubDate>Mon, 31 Aug 2026 09:00:00 GMT</pubDate>
</item>
<item>
  <title>No link item</title>
  <description>This item has no link and must be skipped.</description>
</item>
<item>
  <title>Extra item beyond limit</title>
  <link>https://example.com/extra</link>
  <description>Extra item used to verify the max items limit.</description>
</item>
</channel>
</rss>`

func newTestAdapter(t *testing.T, handler http.HandlerFunc, maxItems int) *RSSAdapter {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewRSSAdapter(
		"Test Feed", server.URL,
		&mockSSRFValidator{},
		discardLogger(),
		5*time.Second, 1<<20, maxItems,
	)
}

// TestRSSAdapter_Fetch_ReturnsCandidates は正常なフィードから記事候補が変換されることを検証する。
func TestRSSAdapter_Fetch_ReturnsCandidates(t *testing.T) {
	adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		if ua := r.Header.Get("User-Agent"); !strings.Contains(ua, "Mozilla") {
			t.Errorf("User-Agent = %q, want browser-like UA", ua)
		}
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(testRSS))
	}, 10)

	candidates, err := adapter.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error = %v, want nil", err)
	}

	// リンクのない記事はスキップされる
	if len(candidates) != 3 {
		t.Fatalf("len(candidates) = %d, want 3", len(candidates))
	}

	first := candidates[0]
	if first.Title != "Major Tech Company Announces Revolutionary AI Breakthrough" {
		t.Errorf("Title = %q", first.Title)
	}
	if first.URL != "https://example.com/ai-breakthrough" {
		t.Errorf("URL = %q", first.URL)
	}
	if first.Source != "Test Feed" {
		t.Errorf("Source = %q, want %q", first.Source, "Test Feed")
	}
	if first.NeedsEnrichment {
		t.Error("NeedsEnrichment = true, want false for long summary")
	}
	if first.PublishedAt.IsZero() {
		t.Error("PublishedAt is zero, want parsed pubDate")
	}

	second := candidates[1]
	if !second.NeedsEnrichment {
		t.Error("NeedsEnrichment = false, want true for short summary")
	}
}

// TestRSSAdapter_Fetch_TitleEqualsBody は要約がタイトルと同一の記事で
// 長さが閾値以上でも本文補完フラグが立つことを検証する。
func TestRSSAdapter_Fetch_TitleEqualsBody(t *testing.T) {
	// 100文字以上のタイトルを要約にそのまま転記しているフィード
	longTitle := strings.Repeat("Major technology company announces quarterly results and expands cloud infrastructure worldwide. ", 2)
	longTitle = strings.TrimSpace(longTitle)
	feed := `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
<title>Echo Feed</title>
<item>
  <title>` + longTitle + `</title>
  <link>https://example.com/echo</link>
  <description>` + longTitle + `</description>
</item>
</channel>
</rss>`

	adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(feed))
	}, 10)

	candidates, err := adapter.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error = %v, want nil", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("len(candidates) = %d, want 1", len(candidates))
	}
	if got := len([]rune(candidates[0].Body)); got < minBodyLength {
		t.Fatalf("len(Body) = %d, want >= %d (前提が崩れている)", got, minBodyLength)
	}
	if !candidates[0].NeedsEnrichment {
		t.Error("NeedsEnrichment = false, want true for body identical to title")
	}
}

// TestRSSAdapter_Fetch_MaxItems は取り込み上限が適用されることを検証する。
func TestRSSAdapter_Fetch_MaxItems(t *testing.T) {
	adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(testRSS))
	}, 2)

	candidates, err := adapter.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error = %v, want nil", err)
	}
	if len(candidates) != 2 {
		t.Errorf("len(candidates) = %d, want 2", len(candidates))
	}
}

// TestRSSAdapter_Fetch_HTTPError は非200応答でFetchErrorが返ることを検証する。
func TestRSSAdapter_Fetch_HTTPError(t *testing.T) {
	adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}, 10)

	_, err := adapter.Fetch(context.Background())
	if err == nil {
		t.Fatal("Fetch() error = nil, want FetchError")
	}
	var fetchErr *model.FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("Fetch() error = %T, want *model.FetchError", err)
	}
	if fetchErr.Source != "Test Feed" {
		t.Errorf("FetchError.Source = %q, want %q", fetchErr.Source, "Test Feed")
	}
}

// TestRSSAdapter_Fetch_ParseError は不正なXMLでParseErrorが返ることを検証する。
func TestRSSAdapter_Fetch_ParseError(t *testing.T) {
	adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("this is not a feed"))
	}, 10)

	_, err := adapter.Fetch(context.Background())
	if err == nil {
		t.Fatal("Fetch() error = nil, want ParseError")
	}
	var parseErr *model.ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("Fetch() error = %T, want *model.ParseError", err)
	}
}

// TestRSSAdapter_Fetch_SSRFBlocked はSSRF検証失敗でFetchErrorが返ることを検証する。
func TestRSSAdapter_Fetch_SSRFBlocked(t *testing.T) {
	adapter := NewRSSAdapter(
		"Blocked", "http://169.254.169.254/feed",
		&mockSSRFValidator{validateFunc: func(rawURL string) error {
			return errors.New("blocked IP address")
		}},
		discardLogger(),
		5*time.Second, 1<<20, 10,
	)

	_, err := adapter.Fetch(context.Background())
	if err == nil {
		t.Fatal("Fetch() error = nil, want FetchError")
	}
	var fetchErr *model.FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("Fetch() error = %T, want *model.FetchError", err)
	}
}
