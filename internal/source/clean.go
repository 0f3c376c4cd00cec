package source

import (
	"strings"

	"golang.org/x/net/html"
)

// summaryMaxParagraphs は要約として採用する段落数の上限。
const summaryMaxParagraphs = 3

// CleanSummary はフィード由来の要約HTMLをプレーンテキストに変換する。
//   - script / style / a 要素は中身ごと除去する
//     （aは「続きを読む」等のナビゲーションリンクであることが多いため）
//   - <p>要素がある場合は先頭3段落のみを採用する
//   - <p>要素がない場合は全テキストを採用する
//   - 連続する空白は1つに正規化する
func CleanSummary(rawHTML string) string {
	if strings.TrimSpace(rawHTML) == "" {
		return ""
	}

	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		// パース不能な断片はタグなしテキストとしてそのまま扱う
		return collapseWhitespace(rawHTML)
	}

	paragraphs := collectParagraphs(doc)
	if len(paragraphs) > 0 {
		if len(paragraphs) > summaryMaxParagraphs {
			paragraphs = paragraphs[:summaryMaxParagraphs]
		}
		return collapseWhitespace(strings.Join(paragraphs, " "))
	}

	return collapseWhitespace(textContent(doc))
}

// collectParagraphs はドキュメント中の<p>要素のテキストを文書順に集める。
// 空の段落は含めない。
func collectParagraphs(n *html.Node) []string {
	var paragraphs []string
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.ElementNode {
			if isExcludedElement(node.Data) {
				return
			}
			if node.Data == "p" {
				if text := collapseWhitespace(textContent(node)); text != "" {
					paragraphs = append(paragraphs, text)
				}
				return
			}
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return paragraphs
}

// textContent はノード配下のテキストを連結して返す。除外要素は飛ばす。
func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.ElementNode && isExcludedElement(node.Data) {
			return
		}
		if node.Type == html.TextNode {
			sb.WriteString(node.Data)
			sb.WriteString(" ")
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

func isExcludedElement(tag string) bool {
	switch tag {
	case "script", "style", "a":
		return true
	}
	return false
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
