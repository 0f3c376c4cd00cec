package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/techscope/internal/model"
)

// PostgresStockRepo はPostgreSQLを使用した株価リポジトリ。
type PostgresStockRepo struct {
	db *sql.DB
}

// NewPostgresStockRepo はPostgresStockRepoを生成する。
func NewPostgresStockRepo(db *sql.DB) *PostgresStockRepo {
	return &PostgresStockRepo{db: db}
}

// Upsert は銘柄の株価を冪等にUPSERTする。symbol列のUNIQUE制約を使用する。
func (r *PostgresStockRepo) Upsert(ctx context.Context, stock *model.Stock) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO stocks (symbol, company_name, price, change, change_percent, updated_at)
		 VALUES ($1, $2, $3, $4, $5, now())
		 ON CONFLICT (symbol) DO UPDATE SET
		    company_name = EXCLUDED.company_name,
		    price = EXCLUDED.price,
		    change = EXCLUDED.change,
		    change_percent = EXCLUDED.change_percent,
		    updated_at = now()
		 RETURNING id, updated_at`,
		stock.Symbol, stock.CompanyName, stock.Price, stock.Change, stock.ChangePercent,
	).Scan(&stock.ID, &stock.UpdatedAt)
	if err != nil {
		return fmt.Errorf("株価のUPSERTに失敗しました: %w", err)
	}
	return nil
}

// ListAll は全銘柄の株価をシンボル昇順で返す。
func (r *PostgresStockRepo) ListAll(ctx context.Context) ([]*model.Stock, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, symbol, company_name, price, change, change_percent, updated_at
		 FROM stocks ORDER BY symbol ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("株価一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var stocks []*model.Stock
	for rows.Next() {
		s := &model.Stock{}
		if err := rows.Scan(
			&s.ID, &s.Symbol, &s.CompanyName, &s.Price, &s.Change, &s.ChangePercent, &s.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("株価行の読み取りに失敗しました: %w", err)
		}
		stocks = append(stocks, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("株価一覧の走査に失敗しました: %w", err)
	}

	return stocks, nil
}

// compile-time interface check
var _ StockRepository = (*PostgresStockRepo)(nil)
