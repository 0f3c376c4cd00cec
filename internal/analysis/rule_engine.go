package analysis

import (
	"context"
	"fmt"
	"strings"

	"github.com/hitoshi/techscope/internal/model"
)

// Analyzer はニュースの重要度分析のインターフェース。
// 実装はルールエンジンまたは外部モデル呼び出し。
type Analyzer interface {
	// Name は分析戦略の識別名を返す。ログと分析理由に使用する。
	Name() string

	// Analyze はタイトルと本文から重要度・緊急度・センチメントを分析する。
	// breakingは速報コンテキストでの分析を示す（ベーススコアが上がる）。
	Analyze(ctx context.Context, title, body string, breaking bool) (model.Analysis, error)
}

// weeklyPromotableScore は週間ハイライト候補とみなすスコアの下限。
const weeklyPromotableScore = 0.7

// RuleEngine はキーワードベースの決定論的な重要度分析エンジン。
// 外部サービスに依存せず、同一入力に対して常に同一の結果を返す。
// ストアには一切触れない純粋な計算のみを行う。
type RuleEngine struct{}

// NewRuleEngine はRuleEngineの新しいインスタンスを生成する。
func NewRuleEngine() *RuleEngine {
	return &RuleEngine{}
}

// Name は分析戦略の識別名を返す。
func (e *RuleEngine) Name() string {
	return "rule-engine"
}

// Analyze はキーワードルールで重要度を分析する。エラーを返すことはない。
//
// スコアの算出:
//   - ベーススコア: 通常0.5、速報コンテキストでは0.6
//   - 高重要度キーワード1種につき+0.1
//   - 大手企業1社につき+0.15（別名は同一企業として1回だけ数える）
//   - 緊急性キーワードが1つでもあれば+0.2
//   - 最終スコアは[0.0, 1.0]にクランプする
//
// is_criticalは緊急性キーワードの有無のみで決まる（スコアとは独立）。
// impactはスコアからImpactForScoreで導出する（他の決め方は許されない）。
func (e *RuleEngine) Analyze(ctx context.Context, title, body string, breaking bool) (model.Analysis, error) {
	text := strings.ToLower(title + " " + body)

	score := 0.5
	if breaking {
		score = 0.6
	}

	for _, keyword := range highImportanceKeywords {
		if strings.Contains(text, keyword) {
			score += 0.1
		}
	}

	for _, aliases := range majorCompanies {
		if containsAny(text, aliases) {
			score += 0.15
		}
	}

	isCritical := containsAny(text, criticalIndicators)
	if isCritical {
		score += 0.2
	}

	score = clamp(score, 0.0, 1.0)

	sentiment := scoreSentiment(text)
	impact := model.ImpactForScore(score)

	a := model.Analysis{
		Score:      score,
		IsCritical: isCritical,
		Sentiment:  sentiment,
		Impact:     impact,
		Reason:     buildReason(score, impact, sentiment, breaking),
	}
	return a, nil
}

// scoreSentiment は正負レキシコンの出現種類数を比較してセンチメントを決める。
func scoreSentiment(text string) model.Sentiment {
	var positive, negative int
	for _, word := range positiveWords {
		if strings.Contains(text, word) {
			positive++
		}
	}
	for _, word := range negativeWords {
		if strings.Contains(text, word) {
			negative++
		}
	}

	switch {
	case positive > negative:
		return model.SentimentPositive
	case negative > positive:
		return model.SentimentNegative
	default:
		return model.SentimentNeutral
	}
}

// buildReason は分析理由の短い説明文を組み立てる。
func buildReason(score float64, impact model.Impact, sentiment model.Sentiment, breaking bool) string {
	reason := fmt.Sprintf("Rule-based analysis: %s impact, %s sentiment", impact, sentiment)
	if breaking {
		return "Breaking news. " + reason
	}
	if score >= weeklyPromotableScore {
		reason += ", weekly highlight candidate"
	}
	return reason
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// compile-time interface check
var _ Analyzer = (*RuleEngine)(nil)
