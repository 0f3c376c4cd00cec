// Package analysis はニュースのカテゴリ分類と重要度分析を提供する。
package analysis

// categoryKeywords はカテゴリ分類用のキーワードセット。
// 判定は先頭から順に行い、最初にマッチしたカテゴリを採用する。
// マッチングは「タイトル + 半角スペース + 本文」の小文字化文字列に対する部分一致。
var aiKeywords = []string{"ai", "artificial intelligence", "machine learning", "gpt", "llm"}

var startupKeywords = []string{"startup", "funding", "venture", "ipo"}

var acquisitionKeywords = []string{"acquire", "merger", "acquisition"}

var employmentKeywords = []string{"layoff", "hiring", "job"}

var securityKeywords = []string{"breach", "security", "hack"}

// highImportanceKeywords は重要度スコアに加点するキーワード。
// 1キーワードにつき+0.1。同一キーワードの複数出現は1回だけ数える。
var highImportanceKeywords = []string{
	"breakthrough", "revolutionary", "major", "critical", "significant",
	"first", "launch", "release", "announcement", "acquisition",
	"merger", "ipo", "funding", "billion", "partnership",
	"deal", "crisis", "breach",
}

// majorCompanies は大手企業のロスター。1社につき+0.15。
// 別名（Meta/Facebook等）は同一企業として1回だけ数える。
var majorCompanies = [][]string{
	{"apple"},
	{"microsoft"},
	{"google"},
	{"amazon"},
	{"meta", "facebook"},
	{"tesla"},
	{"nvidia"},
	{"netflix"},
	{"openai"},
	{"anthropic"},
	{"twitter", "x.com"},
	{"linkedin"},
	{"uber"},
	{"airbnb"},
	{"spotify"},
}

// criticalIndicators は緊急性を示すキーワード。
// 1つでも含まれていれば+0.2かつis_critical=trueになる。
var criticalIndicators = []string{
	"critical", "urgent", "breaking", "alert", "crisis",
	"breach", "security", "hack", "attack", "outage",
	"down", "failure",
}

// positiveWords / negativeWords はセンチメント判定用のレキシコン。
// 出現した語の種類数を正負で比較する。
var positiveWords = []string{
	"breakthrough", "success", "growth", "innovation", "launch",
	"partnership", "record", "profit", "win", "improve",
	"expand", "milestone",
}

var negativeWords = []string{
	"breach", "crisis", "layoff", "hack", "attack",
	"outage", "failure", "decline", "loss", "lawsuit",
	"shutdown", "scandal",
}
