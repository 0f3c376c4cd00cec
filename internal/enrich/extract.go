package enrich

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	// extractMaxParagraphs は本文として採用する段落数の上限。
	extractMaxParagraphs = 5

	// extractMinLength は抽出結果をこれ未満なら破棄する文字数。
	// 短すぎる抽出結果はナビゲーションやCookieバナーであることが多い。
	extractMinLength = 100

	// extractMaxLength は保存する本文の最大文字数。超過分は切り詰める。
	extractMaxLength = 800
)

// containerSelectors は本文コンテナの探索順。
// セマンティックなタグを優先し、次にid/class名のヒューリスティクスを使う。
var containerSelectors = []string{
	"article",
	"main",
	`[id*="article"], [class*="article"]`,
	`[id*="content"], [class*="content"]`,
	`[id*="post"], [class*="post"]`,
	`[id*="entry"], [class*="entry"]`,
}

// ExtractBody はHTMLドキュメントから記事本文を抽出する。
// 本文コンテナ候補を順に探索し、最初に見つかったコンテナの先頭5段落を採用する。
// コンテナが見つからない場合はページ全体の<p>を対象にする。
// 抽出結果が100文字未満の場合は空文字列を返す。
// 800文字を超える場合は切り詰めて末尾に「…」を付与する。
func ExtractBody(doc *goquery.Document) string {
	// 非本文要素はテキスト抽出前に除去する
	doc.Find("script, style, nav, header, footer, aside").Remove()

	selection := doc.Selection
	for _, selector := range containerSelectors {
		if container := doc.Find(selector).First(); container.Length() > 0 {
			selection = container
			break
		}
	}

	var paragraphs []string
	selection.Find("p").EachWithBreak(func(_ int, p *goquery.Selection) bool {
		text := strings.Join(strings.Fields(p.Text()), " ")
		if text != "" {
			paragraphs = append(paragraphs, text)
		}
		return len(paragraphs) < extractMaxParagraphs
	})

	body := strings.Join(paragraphs, " ")
	if len([]rune(body)) < extractMinLength {
		return ""
	}

	return Truncate(body, extractMaxLength)
}

// Truncate は文字列をmaxRunes文字に切り詰め、切り詰めた場合は末尾に「…」を付与する。
func Truncate(s string, maxRunes int) string {
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	return string(runes[:maxRunes]) + "…"
}
