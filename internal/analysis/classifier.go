package analysis

import (
	"strings"

	"github.com/hitoshi/techscope/internal/model"
)

// Classify はタイトルと本文からカテゴリを判定する。
// 「タイトル + 半角スペース + 本文」を小文字化した文字列に対して
// カテゴリ別キーワードの部分一致を先頭から順に試し、最初のマッチを採用する。
// どのキーワードにもマッチしない場合はtechを返す。
func Classify(title, body string) model.Category {
	text := strings.ToLower(title + " " + body)

	checks := []struct {
		category model.Category
		keywords []string
	}{
		{model.CategoryAI, aiKeywords},
		{model.CategoryStartup, startupKeywords},
		{model.CategoryAcquisition, acquisitionKeywords},
		{model.CategoryEmployment, employmentKeywords},
		{model.CategorySecurity, securityKeywords},
	}

	for _, check := range checks {
		if containsAny(text, check.keywords) {
			return check.category
		}
	}

	return model.CategoryTech
}

// containsAny はtextにkeywordsのいずれかが部分一致で含まれるかを返す。
func containsAny(text string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(text, keyword) {
			return true
		}
	}
	return false
}
