// Package handler は読み取り専用APIのHTTPハンドラーを提供する。
// ニュース・豆知識・株価はバックグラウンドパイプラインが書き込み、
// このレイヤーは一切の行を変更しない。
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/techscope/internal/model"
)

const (
	// defaultNewsLimit はニュース一覧の1回の取得件数（デフォルト）。
	defaultNewsLimit = 10
	// maxNewsLimit はlimitパラメータの上限。
	maxNewsLimit = 100
	// latestNewsLimit は最新ニュースの固定取得件数。
	latestNewsLimit = 5
	// dailyWindow は日次ニュースの対象期間。
	dailyWindow = 24 * time.Hour
	// trendingWindow はトレンドニュースの対象期間。
	trendingWindow = 48 * time.Hour
)

// NewsReader はニュースハンドラーが必要とする読み取りインターフェース。
type NewsReader interface {
	FindByID(ctx context.Context, id int64) (*model.News, error)
	ListSince(ctx context.Context, since time.Time, category model.Category, limit int) ([]*model.News, error)
	ListCritical(ctx context.Context, since time.Time, limit int) ([]*model.News, error)
	ListTopByScoreSince(ctx context.Context, since time.Time, minScore float64, limit int) ([]*model.News, error)
}

// NewsHandler はニュース取得のHTTPハンドラー。
type NewsHandler struct {
	reader NewsReader
	logger *slog.Logger
}

// NewNewsHandler はNewsHandlerを生成する。
func NewNewsHandler(reader NewsReader, logger *slog.Logger) *NewsHandler {
	return &NewsHandler{reader: reader, logger: logger}
}

// --- レスポンス型 ---

// newsResponse はニュース1件のレスポンス。
type newsResponse struct {
	ID              int64     `json:"id"`
	Title           string    `json:"title"`
	Body            string    `json:"body"`
	URL             string    `json:"url"`
	Source          string    `json:"source"`
	Category        string    `json:"category"`
	ImportanceScore float64   `json:"importance_score"`
	IsCritical      bool      `json:"is_critical"`
	Sentiment       string    `json:"sentiment"`
	ImpactLevel     string    `json:"impact_level"`
	Reason          string    `json:"reason"`
	PublishedAt     time.Time `json:"published_at"`
}

// listEnvelope は一覧レスポンスの共通フォーマット。
type listEnvelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
	Count   int         `json:"count"`
}

func toNewsResponses(items []*model.News) []newsResponse {
	out := make([]newsResponse, 0, len(items))
	for _, n := range items {
		out = append(out, newsResponse{
			ID:              n.ID,
			Title:           n.Title,
			Body:            n.Body,
			URL:             n.URL,
			Source:          n.Source,
			Category:        string(n.Category),
			ImportanceScore: n.Score,
			IsCritical:      n.IsCritical,
			Sentiment:       string(n.Sentiment),
			ImpactLevel:     string(n.Impact),
			Reason:          n.Reason,
			PublishedAt:     n.PublishedAt,
		})
	}
	return out
}

// writeList は一覧レスポンスをJSONで書き込む。
func writeList(w http.ResponseWriter, items []newsResponse) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(listEnvelope{
		Success: true,
		Data:    items,
		Count:   len(items),
	})
}

// writeServerError は500レスポンスを書き込む。詳細はログのみに記録する。
func writeServerError(w http.ResponseWriter, logger *slog.Logger, op string, err error) {
	logger.Error("APIリクエストの処理に失敗しました",
		slog.String("op", op),
		slog.String("error", err.Error()),
	)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"message": "internal server error",
	})
}

// parseLimit はlimitクエリパラメータをパースする。
// 不正値・未指定はデフォルト値、上限超過は上限値に丸める。
func parseLimit(r *http.Request, def int) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return def
	}
	if limit > maxNewsLimit {
		return maxNewsLimit
	}
	return limit
}

// Get は指定IDのニュース1件を取得する。
// GET /api/news/{id}
func (h *NewsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": false,
			"message": "invalid news id",
		})
		return
	}

	news, err := h.reader.FindByID(r.Context(), id)
	if err != nil {
		writeServerError(w, h.logger, "find news by id", err)
		return
	}
	if news == nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": false,
			"message": "news not found",
		})
		return
	}

	responses := toNewsResponses([]*model.News{news})
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"data":    responses[0],
	})
}

// ListDaily は直近24時間のニュース一覧を取得する。
// GET /api/news?limit=10&category=ai
func (h *NewsHandler) ListDaily(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r, defaultNewsLimit)
	category := model.Category(r.URL.Query().Get("category"))

	items, err := h.reader.ListSince(r.Context(), time.Now().Add(-dailyWindow), category, limit)
	if err != nil {
		writeServerError(w, h.logger, "list daily news", err)
		return
	}

	writeList(w, toNewsResponses(items))
}

// ListLatest は最新5件のニュースを取得する。
// GET /api/news/latest
func (h *NewsHandler) ListLatest(w http.ResponseWriter, r *http.Request) {
	items, err := h.reader.ListSince(r.Context(), time.Time{}, "", latestNewsLimit)
	if err != nil {
		writeServerError(w, h.logger, "list latest news", err)
		return
	}

	writeList(w, toNewsResponses(items))
}

// ListCritical は直近24時間の緊急ニュースを取得する。
// GET /api/news/critical?limit=10
func (h *NewsHandler) ListCritical(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r, defaultNewsLimit)

	items, err := h.reader.ListCritical(r.Context(), time.Now().Add(-dailyWindow), limit)
	if err != nil {
		writeServerError(w, h.logger, "list critical news", err)
		return
	}

	writeList(w, toNewsResponses(items))
}

// ListTrending は直近48時間のニュースをスコア降順で取得する。
// GET /api/news/trending?limit=10
func (h *NewsHandler) ListTrending(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r, defaultNewsLimit)

	items, err := h.reader.ListTopByScoreSince(r.Context(), time.Now().Add(-trendingWindow), 0, limit)
	if err != nil {
		writeServerError(w, h.logger, "list trending news", err)
		return
	}

	writeList(w, toNewsResponses(items))
}
