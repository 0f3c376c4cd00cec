package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/techscope/internal/model"
)

// PostgresFactRepo はPostgreSQLを使用した豆知識リポジトリ。
type PostgresFactRepo struct {
	db *sql.DB
}

// NewPostgresFactRepo はPostgresFactRepoを生成する。
func NewPostgresFactRepo(db *sql.DB) *PostgresFactRepo {
	return &PostgresFactRepo{db: db}
}

// FindActive は現在アクティブな豆知識を取得する。存在しない場合はnilを返す。
func (r *PostgresFactRepo) FindActive(ctx context.Context) (*model.Fact, error) {
	f := &model.Fact{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, text, category, source, is_active, created_at
		 FROM facts WHERE is_active = TRUE
		 ORDER BY created_at DESC LIMIT 1`,
	).Scan(&f.ID, &f.Text, &f.Category, &f.Source, &f.IsActive, &f.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("アクティブな豆知識の取得に失敗しました: %w", err)
	}
	return f, nil
}

// ActivateNew は既存のアクティブな豆知識を全て非アクティブにし、
// factをアクティブとして保存する。同一トランザクションで実行する。
func (r *PostgresFactRepo) ActivateNew(ctx context.Context, fact *model.Fact) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("トランザクションの開始に失敗しました: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`UPDATE facts SET is_active = FALSE WHERE is_active = TRUE`,
	); err != nil {
		return fmt.Errorf("既存の豆知識の非アクティブ化に失敗しました: %w", err)
	}

	if err := tx.QueryRowContext(ctx,
		`INSERT INTO facts (text, category, source, is_active)
		 VALUES ($1, $2, $3, TRUE)
		 RETURNING id, created_at`,
		fact.Text, fact.Category, fact.Source,
	).Scan(&fact.ID, &fact.CreatedAt); err != nil {
		return fmt.Errorf("豆知識の作成に失敗しました: %w", err)
	}
	fact.IsActive = true

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("トランザクションのコミットに失敗しました: %w", err)
	}
	return nil
}

// CountCreatedSince はsince以降に作成された豆知識の件数を返す。
func (r *PostgresFactRepo) CountCreatedSince(ctx context.Context, since time.Time) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM facts WHERE created_at >= $1`, since,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("豆知識の件数取得に失敗しました: %w", err)
	}
	return count, nil
}

// compile-time interface check
var _ FactRepository = (*PostgresFactRepo)(nil)
