package model

import "fmt"

// Sentiment はニュース本文の論調を表す。
type Sentiment string

const (
	// SentimentPositive は肯定的な論調。
	SentimentPositive Sentiment = "positive"
	// SentimentNegative は否定的な論調。
	SentimentNegative Sentiment = "negative"
	// SentimentNeutral は中立的な論調。
	SentimentNeutral Sentiment = "neutral"
)

// Impact は重要度スコアを3段階に粗視化した影響度を表す。
type Impact string

const (
	// ImpactHigh はスコア0.8以上。
	ImpactHigh Impact = "high"
	// ImpactMedium はスコア0.6以上0.8未満。
	ImpactMedium Impact = "medium"
	// ImpactLow はスコア0.6未満。
	ImpactLow Impact = "low"
)

// Analysis はスコアリングの結果を表す閉じた構造体。
// ScoreとImpactは独立に設定してはならず、ImpactはImpactForScoreで導出する。
// ストアへの書き込み前にValidateで整合性を検証すること。
type Analysis struct {
	Score      float64 // [0.0, 1.0] にクランプ済み
	IsCritical bool
	Sentiment  Sentiment
	Impact     Impact
	Reason     string
}

// ImpactForScore は重要度スコアから影響度を導出する。
// この対応付けが唯一の正であり、他の場所で再実装してはならない。
func ImpactForScore(score float64) Impact {
	switch {
	case score >= 0.8:
		return ImpactHigh
	case score >= 0.6:
		return ImpactMedium
	default:
		return ImpactLow
	}
}

// Validate は分析結果の整合性を検証する。
// スコアの範囲、Impactとスコアの対応、各enum値の妥当性を確認する。
func (a Analysis) Validate() error {
	if a.Score < 0.0 || a.Score > 1.0 {
		return fmt.Errorf("スコアが範囲外です: %f", a.Score)
	}
	if a.Impact != ImpactForScore(a.Score) {
		return fmt.Errorf("スコア %f に対して影響度 %q は不整合です（期待値: %q）", a.Score, a.Impact, ImpactForScore(a.Score))
	}
	switch a.Sentiment {
	case SentimentPositive, SentimentNegative, SentimentNeutral:
	default:
		return fmt.Errorf("無効なセンチメントです: %q", a.Sentiment)
	}
	return nil
}
