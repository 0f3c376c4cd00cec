package model

import "time"

// FactCategory は豆知識のカテゴリを表す。
type FactCategory string

const (
	// FactCategoryCS はコンピュータサイエンス関連の豆知識。
	FactCategoryCS FactCategory = "cs"
	// FactCategoryAI はAI関連の豆知識。
	FactCategoryAI FactCategory = "ai"
	// FactCategoryTech はテクノロジー一般の豆知識。
	FactCategoryTech FactCategory = "tech"
	// FactCategoryCompanies はテック企業関連の豆知識。
	FactCategoryCompanies FactCategory = "companies"
)

// Fact は日次で生成されるテック豆知識を表す。
type Fact struct {
	ID        int64
	Text      string
	Category  FactCategory
	Source    string // "AI Generated" または "Fallback Database"
	IsActive  bool
	CreatedAt time.Time
}
