package model

import (
	"errors"
	"testing"
)

func TestImpactForScore(t *testing.T) {
	tests := []struct {
		name  string
		score float64
		want  Impact
	}{
		{"スコア1.0はhigh", 1.0, ImpactHigh},
		{"スコア0.8はhigh（境界値）", 0.8, ImpactHigh},
		{"スコア0.79はmedium", 0.79, ImpactMedium},
		{"スコア0.6はmedium（境界値）", 0.6, ImpactMedium},
		{"スコア0.59はlow", 0.59, ImpactLow},
		{"スコア0.0はlow", 0.0, ImpactLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ImpactForScore(tt.score); got != tt.want {
				t.Errorf("ImpactForScore(%f) = %q, want %q", tt.score, got, tt.want)
			}
		})
	}
}

func TestAnalysisValidate_Valid(t *testing.T) {
	a := Analysis{
		Score:     0.85,
		Sentiment: SentimentPositive,
		Impact:    ImpactHigh,
		Reason:    "test",
	}
	if err := a.Validate(); err != nil {
		t.Errorf("正常な分析結果で検証エラーが返った: %v", err)
	}
}

func TestAnalysisValidate_ScoreOutOfRange(t *testing.T) {
	a := Analysis{Score: 1.2, Sentiment: SentimentNeutral, Impact: ImpactHigh}
	if err := a.Validate(); err == nil {
		t.Error("範囲外のスコアで検証エラーが返るべき")
	}
}

func TestAnalysisValidate_ImpactMismatch(t *testing.T) {
	// スコア0.9に対してlowは不整合
	a := Analysis{Score: 0.9, Sentiment: SentimentNeutral, Impact: ImpactLow}
	if err := a.Validate(); err == nil {
		t.Error("スコアと影響度の不整合で検証エラーが返るべき")
	}
}

func TestAnalysisValidate_InvalidSentiment(t *testing.T) {
	a := Analysis{Score: 0.5, Sentiment: Sentiment("angry"), Impact: ImpactLow}
	if err := a.Validate(); err == nil {
		t.Error("無効なセンチメントで検証エラーが返るべき")
	}
}

func TestTypedErrors_Unwrap(t *testing.T) {
	cause := errors.New("connection refused")

	tests := []struct {
		name string
		err  error
	}{
		{"FetchError", &FetchError{Source: "google-news", URL: "https://example.com/rss", Err: cause}},
		{"ParseError", &ParseError{Source: "google-news", Err: cause}},
		{"AnalysisError", &AnalysisError{Strategy: "openai", Err: cause}},
		{"StoreError", &StoreError{Op: "insert", Err: cause}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, cause) {
				t.Errorf("%s が原因エラーへUnwrapされない", tt.name)
			}
			if tt.err.Error() == "" {
				t.Errorf("%s のErrorが空文字列を返した", tt.name)
			}
		})
	}
}

func TestFetchError_As(t *testing.T) {
	var err error = &FetchError{Source: "wired", URL: "https://example.com", Err: errors.New("timeout")}

	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatal("errors.As で FetchError を取り出せるべき")
	}
	if fe.Source != "wired" {
		t.Errorf("Source = %q, want %q", fe.Source, "wired")
	}
}
