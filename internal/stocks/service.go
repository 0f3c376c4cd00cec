package stocks

import (
	"context"
	"log/slog"

	"github.com/hitoshi/techscope/internal/config"
	"github.com/hitoshi/techscope/internal/model"
	"github.com/hitoshi/techscope/internal/repository"
)

// Service は追跡銘柄の株価リフレッシュを行う。
// 1銘柄の取得失敗は他の銘柄に影響させない。
type Service struct {
	stockRepo repository.StockRepository
	client    QuoteClient
	symbols   []config.StockSymbol
	logger    *slog.Logger
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	stockRepo repository.StockRepository,
	client QuoteClient,
	symbols []config.StockSymbol,
	logger *slog.Logger,
) *Service {
	return &Service{
		stockRepo: stockRepo,
		client:    client,
		symbols:   symbols,
		logger:    logger,
	}
}

// RefreshAll は全追跡銘柄の株価を取得してUPSERTする。
// 戻り値は更新に成功した銘柄数。全銘柄が失敗してもエラーは返さない
// （株価は鮮度より可用性を優先し、古いデータを残す）。
func (s *Service) RefreshAll(ctx context.Context) (int, error) {
	var updated int

	for _, symbol := range s.symbols {
		quote, err := s.client.FetchQuote(ctx, symbol.Symbol)
		if err != nil {
			s.logger.Warn("株価の取得に失敗しました",
				slog.String("symbol", symbol.Symbol),
				slog.String("error", err.Error()),
			)
			continue
		}

		stock := &model.Stock{
			Symbol:        quote.Symbol,
			CompanyName:   symbol.Company,
			Price:         quote.Price,
			Change:        quote.Change,
			ChangePercent: quote.ChangePercent,
		}
		if err := s.stockRepo.Upsert(ctx, stock); err != nil {
			s.logger.Error("株価の保存に失敗しました",
				slog.String("symbol", symbol.Symbol),
				slog.String("error", err.Error()),
			)
			continue
		}
		updated++
	}

	s.logger.Info("株価リフレッシュが完了しました",
		slog.Int("symbols_total", len(s.symbols)),
		slog.Int("symbols_updated", updated),
	)
	return updated, nil
}
