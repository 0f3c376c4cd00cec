package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/techscope/internal/model"
)

// PostgresNewsRepo はPostgreSQLを使用したニュースリポジトリ。
type PostgresNewsRepo struct {
	db *sql.DB
}

// NewPostgresNewsRepo はPostgresNewsRepoを生成する。
func NewPostgresNewsRepo(db *sql.DB) *PostgresNewsRepo {
	return &PostgresNewsRepo{db: db}
}

const newsColumns = `id, title, body, url, source, category, published_at,
        score, is_critical, sentiment, impact, reason, analyzed,
        created_at, updated_at`

func scanNews(s interface{ Scan(...any) error }) (*model.News, error) {
	n := &model.News{}
	err := s.Scan(
		&n.ID, &n.Title, &n.Body, &n.URL, &n.Source, &n.Category, &n.PublishedAt,
		&n.Score, &n.IsCritical, &n.Sentiment, &n.Impact, &n.Reason, &n.Analyzed,
		&n.CreatedAt, &n.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return n, nil
}

// FindByID は指定IDのニュースを取得する。見つからない場合はnilを返す。
func (r *PostgresNewsRepo) FindByID(ctx context.Context, id int64) (*model.News, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+newsColumns+` FROM news WHERE id = $1`, id)

	n, err := scanNews(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ニュースの取得に失敗しました: %w", err)
	}
	return n, nil
}

// ExistsByURL は指定URLのニュースが存在するかを返す。
func (r *PostgresNewsRepo) ExistsByURL(ctx context.Context, url string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM news WHERE url = $1)`, url,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("URLによるニュースの存在確認に失敗しました: %w", err)
	}
	return exists, nil
}

// Create はニュースを保存する。同一URLの行が既に存在する場合は何も挿入せず
// created=falseを返す。重複判定はurl列のUNIQUE制約のみに依存するため、
// 並行実行でも二重挿入は発生しない。
func (r *PostgresNewsRepo) Create(ctx context.Context, news *model.News) (bool, error) {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO news (title, body, url, source, category, published_at,
		                   score, is_critical, sentiment, impact, reason, analyzed)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 ON CONFLICT (url) DO NOTHING
		 RETURNING id, created_at, updated_at`,
		news.Title, news.Body, news.URL, news.Source, news.Category, news.PublishedAt,
		news.Score, news.IsCritical, news.Sentiment, news.Impact, news.Reason, news.Analyzed,
	).Scan(&news.ID, &news.CreatedAt, &news.UpdatedAt)

	if err == sql.ErrNoRows {
		// 既存URLと衝突した（DO NOTHINGでRETURNINGが空）
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("ニュースの作成に失敗しました: %w", err)
	}
	return true, nil
}

// UpdateAnalysis は分析結果フィールドのみを更新し、analyzed=trueにする。
func (r *PostgresNewsRepo) UpdateAnalysis(ctx context.Context, id int64, a model.Analysis) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE news SET
		    score = $2, is_critical = $3, sentiment = $4, impact = $5,
		    reason = $6, analyzed = TRUE, updated_at = now()
		 WHERE id = $1`,
		id, a.Score, a.IsCritical, a.Sentiment, a.Impact, a.Reason,
	)
	if err != nil {
		return fmt.Errorf("分析結果の更新に失敗しました: %w", err)
	}
	return nil
}

// ListSince はpublished_atがsince以降のニュースをpublished_at降順で返す。
func (r *PostgresNewsRepo) ListSince(ctx context.Context, since time.Time, category model.Category, limit int) ([]*model.News, error) {
	query := `SELECT ` + newsColumns + ` FROM news WHERE published_at >= $1`
	args := []interface{}{since}
	argIndex := 2

	if category != "" {
		query += fmt.Sprintf(" AND category = $%d", argIndex)
		args = append(args, category)
		argIndex++
	}

	query += fmt.Sprintf(" ORDER BY published_at DESC LIMIT $%d", argIndex)
	args = append(args, limit)

	return r.queryNews(ctx, query, args...)
}

// ListUnanalyzed はanalyzed=falseのニュースを古い順に返す。
func (r *PostgresNewsRepo) ListUnanalyzed(ctx context.Context, limit int) ([]*model.News, error) {
	return r.queryNews(ctx,
		`SELECT `+newsColumns+` FROM news
		 WHERE analyzed = FALSE
		 ORDER BY published_at ASC
		 LIMIT $1`,
		limit,
	)
}

// ListCritical はis_critical=trueのニュースをpublished_at降順で返す。
func (r *PostgresNewsRepo) ListCritical(ctx context.Context, since time.Time, limit int) ([]*model.News, error) {
	return r.queryNews(ctx,
		`SELECT `+newsColumns+` FROM news
		 WHERE is_critical = TRUE AND published_at >= $1
		 ORDER BY published_at DESC
		 LIMIT $2`,
		since, limit,
	)
}

// ListTopByScoreSince はpublished_atがsince以降のニュースをスコア降順で返す。
func (r *PostgresNewsRepo) ListTopByScoreSince(ctx context.Context, since time.Time, minScore float64, limit int) ([]*model.News, error) {
	return r.queryNews(ctx,
		`SELECT `+newsColumns+` FROM news
		 WHERE published_at >= $1 AND score >= $2
		 ORDER BY score DESC, published_at DESC
		 LIMIT $3`,
		since, minScore, limit,
	)
}

func (r *PostgresNewsRepo) queryNews(ctx context.Context, query string, args ...interface{}) ([]*model.News, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ニュース一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var items []*model.News
	for rows.Next() {
		n, err := scanNews(rows)
		if err != nil {
			return nil, fmt.Errorf("ニュース行の読み取りに失敗しました: %w", err)
		}
		items = append(items, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ニュース一覧の走査に失敗しました: %w", err)
	}

	return items, nil
}

// compile-time interface check
var _ NewsRepository = (*PostgresNewsRepo)(nil)
