package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// BodySanitizerService はニュース本文のサニタイズ機能のインターフェースを定義する。
// フィード由来・スクレイピング由来の本文はいずれも外部入力であるため、
// 保存前に必ずこのサービスを通す。
type BodySanitizerService interface {
	// Sanitize は本文からHTMLタグを全て除去し、プレーンテキストを返す。
	// HTMLエンティティはデコードし、連続する空白は1つに正規化する。
	// 空文字列の入力には空文字列を返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(raw string) string
}

// bodySanitizer はBodySanitizerServiceの実装。
// bluemondayのStrictPolicyを保持し、スレッドセーフにサニタイズ処理を行う。
type bodySanitizer struct {
	policy *bluemonday.Policy
}

// NewBodySanitizer はBodySanitizerServiceの新しいインスタンスを生成する。
// ニュース本文はプレーンテキストとして保存するため、タグを一切許可しない
// StrictPolicyを使用する。script/iframe/style等の危険なタグも
// 許可リストに含まれないことで自動的に除去される。
func NewBodySanitizer() *bodySanitizer {
	return &bodySanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Sanitize は本文からHTMLタグを全て除去し、プレーンテキストを返す。
func (s *bodySanitizer) Sanitize(raw string) string {
	stripped := s.policy.Sanitize(raw)
	// bluemondayはエンティティをエスケープしたまま残すためデコードする
	decoded := html.UnescapeString(stripped)
	return strings.Join(strings.Fields(decoded), " ")
}
