package analysis

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/hitoshi/techscope/internal/model"
)

// mockAnalyzer はテスト用のAnalyzer実装。
type mockAnalyzer struct {
	name        string
	analyzeFunc func(ctx context.Context, title, body string, breaking bool) (model.Analysis, error)
	calls       int
}

func (m *mockAnalyzer) Name() string {
	return m.name
}

func (m *mockAnalyzer) Analyze(ctx context.Context, title, body string, breaking bool) (model.Analysis, error) {
	m.calls++
	return m.analyzeFunc(ctx, title, body, breaking)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// TestFallbackAnalyzer_PrimarySucceeds は外部戦略の成功結果がそのまま使われることを検証する。
func TestFallbackAnalyzer_PrimarySucceeds(t *testing.T) {
	want := model.Analysis{
		Score:      0.9,
		IsCritical: true,
		Sentiment:  model.SentimentNegative,
		Impact:     model.ImpactHigh,
		Reason:     "model says so",
	}
	primary := &mockAnalyzer{
		name: "mock",
		analyzeFunc: func(ctx context.Context, title, body string, breaking bool) (model.Analysis, error) {
			return want, nil
		},
	}

	fa := NewFallbackAnalyzer(primary, nil, testLogger())
	got, err := fa.Analyze(context.Background(), "title", "body", false)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if got != want {
		t.Errorf("Analyze() = %+v, want %+v", got, want)
	}
	if primary.calls != 1 {
		t.Errorf("primary calls = %d, want 1", primary.calls)
	}
}

// TestFallbackAnalyzer_PrimaryFails は外部戦略の失敗時にルールエンジンが使われることを検証する。
func TestFallbackAnalyzer_PrimaryFails(t *testing.T) {
	primary := &mockAnalyzer{
		name: "mock",
		analyzeFunc: func(ctx context.Context, title, body string, breaking bool) (model.Analysis, error) {
			return model.Analysis{}, &model.AnalysisError{Strategy: "mock", Err: errors.New("timeout")}
		},
	}

	fa := NewFallbackAnalyzer(primary, nil, testLogger())
	got, err := fa.Analyze(context.Background(), "Quiet day in tech", "Nothing much happened today.", false)
	if err != nil {
		t.Fatalf("Analyze() error = %v, fallback must absorb primary failure", err)
	}

	// ルールエンジンのベーススコアと一致するはず
	if got.Score != 0.5 {
		t.Errorf("Score = %v, want rule engine base score 0.5", got.Score)
	}
}

// mockFallbackObserver はFallbackObserverのテスト用モック。
type mockFallbackObserver struct {
	strategies []string
}

func (m *mockFallbackObserver) RecordAnalysisFallback(strategy string) {
	m.strategies = append(m.strategies, strategy)
}

// TestFallbackAnalyzer_RecordsFallback はフォールバック発生がオブザーバに記録されることを検証する。
func TestFallbackAnalyzer_RecordsFallback(t *testing.T) {
	primary := &mockAnalyzer{
		name: "mock",
		analyzeFunc: func(ctx context.Context, title, body string, breaking bool) (model.Analysis, error) {
			return model.Analysis{}, &model.AnalysisError{Strategy: "mock", Err: errors.New("timeout")}
		},
	}
	observer := &mockFallbackObserver{}

	fa := NewFallbackAnalyzer(primary, observer, testLogger())
	if _, err := fa.Analyze(context.Background(), "title", "body", false); err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	if len(observer.strategies) != 1 || observer.strategies[0] != "mock" {
		t.Errorf("フォールバックが記録されていない: %v", observer.strategies)
	}
}

// TestFallbackAnalyzer_NoPrimary はprimaryなしでルールエンジンのみで動作することを検証する。
func TestFallbackAnalyzer_NoPrimary(t *testing.T) {
	fa := NewFallbackAnalyzer(nil, nil, testLogger())

	got, err := fa.Analyze(context.Background(), "Quiet day in tech", "Nothing much happened today.", false)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if got.Score != 0.5 {
		t.Errorf("Score = %v, want 0.5", got.Score)
	}
	if fa.Name() != "rule-engine" {
		t.Errorf("Name() = %q, want %q", fa.Name(), "rule-engine")
	}
}
