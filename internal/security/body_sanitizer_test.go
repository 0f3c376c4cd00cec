package security

import (
	"testing"
)

// TestBodySanitize_StripsTags はHTMLタグが全て除去されることを検証する。
func TestBodySanitize_StripsTags(t *testing.T) {
	sanitizer := NewBodySanitizer()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "pタグが除去される",
			input: "<p>テスト段落</p>",
			want:  "テスト段落",
		},
		{
			name:  "scriptタグと中身が除去される",
			input: `本文<script>alert('xss')</script>続き`,
			want:  "本文続き",
		},
		{
			name:  "aタグが除去されテキストのみ残る",
			input: `詳細は<a href="https://example.com">こちら</a>を参照`,
			want:  "詳細はこちらを参照",
		},
		{
			name:  "HTMLエンティティがデコードされる",
			input: "AT&amp;T announces &quot;new&quot; plan",
			want:  `AT&T announces "new" plan`,
		},
		{
			name:  "連続する空白が正規化される",
			input: "first   second\n\n\tthird",
			want:  "first second third",
		},
		{
			name:  "空文字列は空文字列のまま",
			input: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sanitizer.Sanitize(tt.input)
			if got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// TestBodySanitize_Idempotent は同一入力に対して常に同一出力を返すことを検証する。
func TestBodySanitize_Idempotent(t *testing.T) {
	sanitizer := NewBodySanitizer()

	input := `<div><p>Apple announces <strong>new</strong> chip</p></div>`
	first := sanitizer.Sanitize(input)
	second := sanitizer.Sanitize(first)

	if first != second {
		t.Errorf("Sanitize is not idempotent: first=%q second=%q", first, second)
	}
}
