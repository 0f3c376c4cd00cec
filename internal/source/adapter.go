// Package source はニュースソースからの記事取得を提供する。
package source

import (
	"context"

	"github.com/hitoshi/techscope/internal/model"
)

// Adapter は1つのニュースソースから記事候補を取得するインターフェース。
// 実装はソース単位の失敗を呼び出し元に返すが、他ソースへ影響を波及させない
// （分離はパイプライン側で行う）。
type Adapter interface {
	// Name はソースの表示名を返す。取得結果のSourceフィールドに設定される。
	Name() string

	// Fetch はソースから記事候補を取得する。
	// HTTP失敗時はmodel.FetchError、パース失敗時はmodel.ParseErrorを返す。
	Fetch(ctx context.Context) ([]model.NewsCandidate, error)
}
