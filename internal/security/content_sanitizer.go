package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// ContentSanitizer はお知らせ・クーポンなど管理者入力テキストの無害化を行う。
type ContentSanitizer interface {
	// Sanitize は本文用に限定的なHTMLのみを残す。
	// 許可タグ: p, br, ul, ol, li, strong, em, a(href)。
	// aタグにはtarget="_blank"とrel="noopener noreferrer"が付与される。
	Sanitize(rawHTML string) string

	// PlainText は全タグを除去し、前後の空白を取り除いたテキストを返す。
	// タイトルやクーポンコードに使用する。
	PlainText(raw string) string
}

type contentSanitizer struct {
	rich   *bluemonday.Policy
	strict *bluemonday.Policy
}

// NewContentSanitizer はContentSanitizerを生成する。
// bluemondayのPolicyは構築後の並行利用が安全なため、インスタンスは共有してよい。
func NewContentSanitizer() ContentSanitizer {
	p := bluemonday.NewPolicy()
	p.AllowElements("p", "br", "ul", "ol", "li", "strong", "em")
	p.AllowAttrs("href").OnElements("a")
	p.AllowURLSchemes("https", "http", "mailto")
	p.AllowRelativeURLs(false)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	p.RequireNoReferrerOnLinks(true)

	return &contentSanitizer{
		rich:   p,
		strict: bluemonday.StrictPolicy(),
	}
}

func (s *contentSanitizer) Sanitize(rawHTML string) string {
	return strings.TrimSpace(s.rich.Sanitize(rawHTML))
}

// PlainText はStrictPolicyがエスケープした実体参照を戻して返す。
// 出力はJSON/XMLエンコーダ側で再度エスケープされる。
func (s *contentSanitizer) PlainText(raw string) string {
	return strings.TrimSpace(html.UnescapeString(s.strict.Sanitize(raw)))
}
