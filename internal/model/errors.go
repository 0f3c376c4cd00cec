package model

import "fmt"

// FetchError はフィードまたは記事のHTTP取得失敗を表す。
// ネットワークエラー、タイムアウト、非2xxステータスが該当する。
// 該当ソース/記事のみスキップされ、実行全体は継続する。
type FetchError struct {
	Source string
	URL    string
	Err    error
}

// Error はerrorインターフェースを実装する。
func (e *FetchError) Error() string {
	return fmt.Sprintf("フェッチ失敗 (source=%s url=%s): %v", e.Source, e.URL, e.Err)
}

// Unwrap は原因エラーを返す。
func (e *FetchError) Unwrap() error { return e.Err }

// ParseError はフィード/HTMLのパース失敗を表す。
// 該当項目のみスキップされ、実行全体は継続する。
type ParseError struct {
	Source string
	Err    error
}

// Error はerrorインターフェースを実装する。
func (e *ParseError) Error() string {
	return fmt.Sprintf("パース失敗 (source=%s): %v", e.Source, e.Err)
}

// Unwrap は原因エラーを返す。
func (e *ParseError) Unwrap() error { return e.Err }

// AnalysisError は外部スコアリング戦略の失敗を表す。
// 呼び出し側はルールエンジンへフォールバックして回復する。
type AnalysisError struct {
	Strategy string
	Err      error
}

// Error はerrorインターフェースを実装する。
func (e *AnalysisError) Error() string {
	return fmt.Sprintf("分析失敗 (strategy=%s): %v", e.Strategy, e.Err)
}

// Unwrap は原因エラーを返す。
func (e *AnalysisError) Unwrap() error { return e.Err }

// StoreError はストアへの挿入/更新の失敗を表す。
// 実行の呼び出し元へ部分失敗として集計され、スケジューラは停止しない。
type StoreError struct {
	Op  string
	Err error
}

// Error はerrorインターフェースを実装する。
func (e *StoreError) Error() string {
	return fmt.Sprintf("ストア操作失敗 (op=%s): %v", e.Op, e.Err)
}

// Unwrap は原因エラーを返す。
func (e *StoreError) Unwrap() error { return e.Err }
