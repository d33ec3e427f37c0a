package security

import (
	"strings"
	"testing"
)

func TestSanitize_AllowedTags(t *testing.T) {
	sanitizer := NewContentSanitizer()

	tests := []struct {
		name         string
		input        string
		wantContains []string
	}{
		{"pタグが許可される", "<p>断水のお知らせ</p>", []string{"<p>断水のお知らせ</p>"}},
		{"リストが許可される", "<ul><li>A棟</li><li>B棟</li></ul>", []string{"<ul>", "<li>A棟</li>", "</ul>"}},
		{"強調が許可される", "<strong>重要</strong><em>注意</em>", []string{"<strong>重要</strong>", "<em>注意</em>"}},
		{
			"リンクにtargetとrelが付与される",
			`<a href="https://example.com/notice">詳細</a>`,
			[]string{`href="https://example.com/notice"`, `target="_blank"`, "noopener", "noreferrer"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sanitizer.Sanitize(tt.input)
			for _, want := range tt.wantContains {
				if !strings.Contains(got, want) {
					t.Errorf("Sanitize(%q) = %q, want to contain %q", tt.input, got, want)
				}
			}
		})
	}
}

func TestSanitize_RemovesDangerousContent(t *testing.T) {
	sanitizer := NewContentSanitizer()

	tests := []struct {
		name       string
		input      string
		wantAbsent []string
	}{
		{"scriptタグ", `<p>x</p><script>alert(1)</script>`, []string{"<script", "alert(1)"}},
		{"iframeタグ", `<iframe src="https://evil.example.com"></iframe>`, []string{"<iframe"}},
		{"onイベント属性", `<p onclick="steal()">x</p>`, []string{"onclick", "steal()"}},
		{"javascriptスキーム", `<a href="javascript:alert(1)">x</a>`, []string{"javascript:"}},
		{"画像は許可しない", `<img src="https://example.com/a.png">`, []string{"<img"}},
		{"style属性", `<p style="color:red">x</p>`, []string{"style"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sanitizer.Sanitize(tt.input)
			for _, absent := range tt.wantAbsent {
				if strings.Contains(got, absent) {
					t.Errorf("Sanitize(%q) = %q, must not contain %q", tt.input, got, absent)
				}
			}
		})
	}
}

func TestSanitize_Idempotent(t *testing.T) {
	sanitizer := NewContentSanitizer()
	input := `<p>更新<a href="https://example.com">リンク</a><script>x</script></p>`

	once := sanitizer.Sanitize(input)
	twice := sanitizer.Sanitize(once)
	if once != twice {
		t.Errorf("not idempotent:\n once=%q\ntwice=%q", once, twice)
	}
}

func TestPlainText(t *testing.T) {
	sanitizer := NewContentSanitizer()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"タグを除去する", "<b>Water</b> outage", "Water outage"},
		{"scriptを除去する", "Title<script>alert(1)</script>", "Title"},
		{"前後の空白を除去する", "  SPRING10  ", "SPRING10"},
		{"記号はそのまま残す", "Tom & Jerry's", "Tom & Jerry's"},
		{"空文字", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitizer.PlainText(tt.input); got != tt.want {
				t.Errorf("PlainText(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
