// Package model はドメインモデルを定義する。
package model

import "time"

// Category はニュースのトピック分類を表す。
type Category string

const (
	// CategoryAI はAI・機械学習関連のニュース。
	CategoryAI Category = "ai"
	// CategoryStartup はスタートアップ・資金調達関連のニュース。
	CategoryStartup Category = "startup"
	// CategoryAcquisition は買収・合併関連のニュース。
	CategoryAcquisition Category = "acquisition"
	// CategoryEmployment は雇用・レイオフ関連のニュース。
	CategoryEmployment Category = "employment"
	// CategorySecurity はセキュリティ・情報漏洩関連のニュース。
	CategorySecurity Category = "security"
	// CategoryTech は上記いずれにも該当しない一般テックニュース。
	CategoryTech Category = "tech"
)

// NewsCandidate はソースアダプタが取得した未保存のニュース項目を表す。
// 1回のパイプライン実行内でのみ使用され、そのままでは永続化されない。
type NewsCandidate struct {
	Title       string
	Body        string
	URL         string // 重複判定のキー。バッチ内・ストア内で一意
	Source      string
	PublishedAt time.Time // パース不能な場合は取り込み時刻を設定する

	// NeedsEnrichment は本文が薄い（空・閾値未満・タイトルと同一）ため
	// 記事本文の取得を試みるべきであることを示す。
	NeedsEnrichment bool
}

// News は分類・スコアリング済みの保存対象ニュースを表す。
type News struct {
	ID          int64
	Title       string
	Body        string
	URL         string
	Source      string
	Category    Category
	PublishedAt time.Time

	// 分析結果。Analyzedがfalseの行はバックフィルの対象となる。
	Score      float64
	IsCritical bool
	Sentiment  Sentiment
	Impact     Impact
	Reason     string
	Analyzed   bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ApplyAnalysis は検証済みの分析結果をニュースへ反映する。
// ScoreとImpactの整合性はAnalysis側で保証されているため、
// 個別フィールドを直接設定してはならない。
func (n *News) ApplyAnalysis(a Analysis) {
	n.Score = a.Score
	n.IsCritical = a.IsCritical
	n.Sentiment = a.Sentiment
	n.Impact = a.Impact
	n.Reason = a.Reason
	n.Analyzed = true
}
