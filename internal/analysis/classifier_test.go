package analysis

import (
	"testing"

	"github.com/hitoshi/techscope/internal/model"
)

// TestClassify_Categories は各カテゴリのキーワード判定を検証する。
func TestClassify_Categories(t *testing.T) {
	tests := []struct {
		name  string
		title string
		body  string
		want  model.Category
	}{
		{
			name:  "AIキーワードでai",
			title: "New machine learning model released",
			body:  "",
			want:  model.CategoryAI,
		},
		{
			name:  "fundingでstartup",
			title: "Startup raises new funding round",
			body:  "",
			want:  model.CategoryStartup,
		},
		{
			name:  "mergerでacquisition",
			title: "Two tech giants plan merger",
			body:  "",
			want:  model.CategoryAcquisition,
		},
		{
			name:  "layoffでemployment",
			title: "Tech firm announces layoffs",
			body:  "",
			want:  model.CategoryEmployment,
		},
		{
			name:  "breachでsecurity",
			title: "Data breach exposes records",
			body:  "",
			want:  model.CategorySecurity,
		},
		{
			name:  "マッチなしはtech",
			title: "New smartphone coming next month",
			body:  "The device features better cameras.",
			want:  model.CategoryTech,
		},
		{
			name:  "大文字小文字を区別しない",
			title: "GPT Update Shipped",
			body:  "",
			want:  model.CategoryAI,
		},
		{
			name:  "本文のキーワードも対象",
			title: "Quarterly report",
			body:  "The company completed an acquisition this quarter.",
			want:  model.CategoryAcquisition,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.title, tt.body)
			if got != tt.want {
				t.Errorf("Classify(%q, %q) = %q, want %q", tt.title, tt.body, got, tt.want)
			}
		})
	}
}

// TestClassify_Precedence はAIカテゴリが買収カテゴリより優先されることを検証する。
func TestClassify_Precedence(t *testing.T) {
	title := "Major Tech Company Announces Revolutionary AI Breakthrough"
	body := "OpenAI is reportedly part of the acquisition talks."

	got := Classify(title, body)
	if got != model.CategoryAI {
		t.Errorf("Classify() = %q, want %q (AI keywords are checked before acquisition)", got, model.CategoryAI)
	}
}
