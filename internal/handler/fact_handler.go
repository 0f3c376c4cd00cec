package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/techscope/internal/model"
)

// FactReader は豆知識ハンドラーが必要とする読み取りインターフェース。
type FactReader interface {
	FindActive(ctx context.Context) (*model.Fact, error)
}

// FactHandler は豆知識取得のHTTPハンドラー。
type FactHandler struct {
	reader FactReader
	logger *slog.Logger
}

// NewFactHandler はFactHandlerを生成する。
func NewFactHandler(reader FactReader, logger *slog.Logger) *FactHandler {
	return &FactHandler{reader: reader, logger: logger}
}

// factResponse は豆知識のレスポンス。
type factResponse struct {
	ID        int64     `json:"id"`
	Text      string    `json:"text"`
	Category  string    `json:"category"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
}

// Today は本日アクティブな豆知識を取得する。
// GET /api/facts/today
// 日次ローテーションが未実行の場合は404を返す。
func (h *FactHandler) Today(w http.ResponseWriter, r *http.Request) {
	fact, err := h.reader.FindActive(r.Context())
	if err != nil {
		writeServerError(w, h.logger, "find active fact", err)
		return
	}
	if fact == nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": false,
			"message": "no active fact",
		})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"data": factResponse{
			ID:        fact.ID,
			Text:      fact.Text,
			Category:  string(fact.Category),
			Source:    fact.Source,
			CreatedAt: fact.CreatedAt,
		},
	})
}
