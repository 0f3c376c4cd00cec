package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/techscope/internal/model"
)

// StockReader は株価ハンドラーが必要とする読み取りインターフェース。
type StockReader interface {
	ListAll(ctx context.Context) ([]*model.Stock, error)
}

// StockHandler は株価取得のHTTPハンドラー。
type StockHandler struct {
	reader StockReader
	logger *slog.Logger
}

// NewStockHandler はStockHandlerを生成する。
func NewStockHandler(reader StockReader, logger *slog.Logger) *StockHandler {
	return &StockHandler{reader: reader, logger: logger}
}

// stockResponse は株価1銘柄のレスポンス。
type stockResponse struct {
	Symbol        string    `json:"symbol"`
	CompanyName   string    `json:"company_name"`
	Price         float64   `json:"price"`
	Change        float64   `json:"change"`
	ChangePercent float64   `json:"change_percent"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// List は全銘柄の株価スナップショットを取得する。
// GET /api/stocks
func (h *StockHandler) List(w http.ResponseWriter, r *http.Request) {
	stocks, err := h.reader.ListAll(r.Context())
	if err != nil {
		writeServerError(w, h.logger, "list stocks", err)
		return
	}

	out := make([]stockResponse, 0, len(stocks))
	for _, s := range stocks {
		out = append(out, stockResponse{
			Symbol:        s.Symbol,
			CompanyName:   s.CompanyName,
			Price:         s.Price,
			Change:        s.Change,
			ChangePercent: s.ChangePercent,
			UpdatedAt:     s.UpdatedAt,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(listEnvelope{
		Success: true,
		Data:    out,
		Count:   len(out),
	})
}
