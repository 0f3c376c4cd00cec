// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/hitoshi/techscope/internal/model"
)

// NewsRepository はニュースデータの永続化インターフェース。
// URLによる重複排除とCRUD操作を提供する。
type NewsRepository interface {
	// FindByID は指定IDのニュースを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.News, error)

	// ExistsByURL は指定URLのニュースが存在するかを返す。
	ExistsByURL(ctx context.Context, url string) (bool, error)

	// Create はニュースを保存する。同一URLの行が既に存在する場合は
	// 何も挿入せずcreated=falseを返す（INSERT ... ON CONFLICT DO NOTHING）。
	// 挿入された場合はnews.IDに採番されたIDを書き戻す。
	Create(ctx context.Context, news *model.News) (created bool, err error)

	// UpdateAnalysis は分析結果フィールドのみを更新し、analyzed=trueにする。
	UpdateAnalysis(ctx context.Context, id int64, a model.Analysis) error

	// ListSince はpublished_atがsince以降のニュースをpublished_at降順で返す。
	// categoryが空でない場合はカテゴリで絞り込む。
	ListSince(ctx context.Context, since time.Time, category model.Category, limit int) ([]*model.News, error)

	// ListUnanalyzed はanalyzed=falseのニュースを古い順に返す。
	ListUnanalyzed(ctx context.Context, limit int) ([]*model.News, error)

	// ListCritical はis_critical=trueのニュースをpublished_at降順で返す。
	ListCritical(ctx context.Context, since time.Time, limit int) ([]*model.News, error)

	// ListTopByScoreSince はpublished_atがsince以降のニュースをスコア降順で返す。
	// 週次ダイジェストの候補選定に使用する。
	ListTopByScoreSince(ctx context.Context, since time.Time, minScore float64, limit int) ([]*model.News, error)
}

// FactRepository は技術豆知識データの永続化インターフェース。
type FactRepository interface {
	// FindActive は現在アクティブな豆知識を取得する。存在しない場合はnilを返す。
	FindActive(ctx context.Context) (*model.Fact, error)

	// ActivateNew は既存のアクティブな豆知識を全て非アクティブにし、
	// factをアクティブとして保存する。同一トランザクションで実行する。
	ActivateNew(ctx context.Context, fact *model.Fact) error

	// CountCreatedSince はsince以降に作成された豆知識の件数を返す。
	// 日次ジョブの冪等性チェックに使用する。
	CountCreatedSince(ctx context.Context, since time.Time) (int, error)
}

// StockRepository は株価データの永続化インターフェース。
type StockRepository interface {
	// Upsert は銘柄の株価を冪等にUPSERTする。
	Upsert(ctx context.Context, stock *model.Stock) error

	// ListAll は全銘柄の株価をシンボル昇順で返す。
	ListAll(ctx context.Context) ([]*model.Stock, error)
}

// TxBeginner はトランザクション開始用のインターフェース。
type TxBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}
