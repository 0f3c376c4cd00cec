package enrich

import "fmt"

// Placeholder は本文補完に失敗した記事のための代替本文を生成する。
// 保存される本文がタイトルと同一バイト列になることを避けるため、
// 必ずタイトル以外の文言を含める。
func Placeholder(title, source string) string {
	return fmt.Sprintf("%s. Read the full story at %s.", title, source)
}
