package analysis

import (
	"context"
	"log/slog"

	"github.com/hitoshi/techscope/internal/model"
)

// FallbackObserver はフォールバック発生の観測インターフェース。
type FallbackObserver interface {
	RecordAnalysisFallback(strategy string)
}

// FallbackAnalyzer は外部モデル分析を優先し、失敗時にルールエンジンへ
// フォールバックするAnalyzer実装。
// 外部戦略の失敗（タイムアウト、非JSON応答、不正な値）はニュース単位で
// 吸収し、呼び出し元にエラーを伝播させない。
type FallbackAnalyzer struct {
	primary  Analyzer
	fallback *RuleEngine
	observer FallbackObserver
	logger   *slog.Logger
}

// NewFallbackAnalyzer はFallbackAnalyzerの新しいインスタンスを生成する。
// primaryがnilの場合はルールエンジンのみで動作する。
// observerがnilの場合はフォールバック発生を記録しない。
func NewFallbackAnalyzer(primary Analyzer, observer FallbackObserver, logger *slog.Logger) *FallbackAnalyzer {
	return &FallbackAnalyzer{
		primary:  primary,
		fallback: NewRuleEngine(),
		observer: observer,
		logger:   logger,
	}
}

// Name は分析戦略の識別名を返す。
func (f *FallbackAnalyzer) Name() string {
	if f.primary != nil {
		return f.primary.Name() + "+fallback"
	}
	return f.fallback.Name()
}

// Analyze は外部戦略を試し、失敗した場合はルールエンジンで分析する。
// ルールエンジンは失敗しないため、このメソッドがエラーを返すことはない。
func (f *FallbackAnalyzer) Analyze(ctx context.Context, title, body string, breaking bool) (model.Analysis, error) {
	if f.primary != nil {
		result, err := f.primary.Analyze(ctx, title, body, breaking)
		if err == nil {
			return result, nil
		}
		f.logger.Warn("外部分析に失敗したためルールエンジンにフォールバックします",
			slog.String("strategy", f.primary.Name()),
			slog.String("title", title),
			slog.String("error", err.Error()),
		)
		if f.observer != nil {
			f.observer.RecordAnalysisFallback(f.primary.Name())
		}
	}

	return f.fallback.Analyze(ctx, title, body, breaking)
}

// compile-time interface check
var _ Analyzer = (*FallbackAnalyzer)(nil)
