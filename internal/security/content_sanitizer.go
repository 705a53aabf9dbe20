// Package security はアプリケーションのセキュリティ機能を提供する。
//
// ContentSanitizerService は投稿のHTMLコンテンツをサニタイズし、
// XSS攻撃などのセキュリティリスクから閲覧者を保護する。
// bluemondayライブラリを使用した許可リストベースのポリシーで、
// WYSIWYGエディタが生成するタグと属性のみを通過させる。
package security

import (
	"net/url"

	"github.com/microcosm-cc/bluemonday"
)

// ContentSanitizerService はHTMLコンテンツのサニタイズ機能のインターフェースを定義する。
// 投稿の作成・更新時、ストア保存前に使用される。
type ContentSanitizerService interface {
	// Sanitize はHTMLコンテンツをサニタイズして安全なHTMLを返す。
	// エディタの出力タグ（見出し、段落、リスト、テーブル、コードブロック、
	// 画像、リンク、強調系）のみを通過させ、script, iframe, styleタグ
	// およびon*イベント属性を除去する。
	// 空文字列の入力には空文字列を返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(rawHTML string) string
}

// contentSanitizer はContentSanitizerServiceの実装。
// bluemondayのポリシーを保持し、スレッドセーフにサニタイズ処理を行う。
type contentSanitizer struct {
	policy *bluemonday.Policy
}

// NewContentSanitizer はContentSanitizerServiceの新しいインスタンスを生成する。
// 初期化時にエディタ出力に合わせたbluemondayのカスタムポリシーを構築する。
// ポリシーの内容:
//   - ブロック要素: h1-h6, p, br, hr, blockquote, ul, ol, li, pre, code
//   - テーブル: table, thead, tbody, tr, th, td
//   - インライン: strong, em, u, s, mark
//   - テキスト配置: p と見出しの style="text-align: ..." のみ
//   - img: src（httpsおよびdata URI）、alt
//   - a: href。target="_blank" と rel="noopener noreferrer" を強制付与
//   - コードブロックのシンタックス指定用に code の class を許可
func NewContentSanitizer() *contentSanitizer {
	p := bluemonday.NewPolicy()

	p.AllowElements(
		"h1", "h2", "h3", "h4", "h5", "h6",
		"p", "br", "hr", "blockquote",
		"ul", "ol", "li",
		"pre", "code",
		"table", "thead", "tbody", "tr", "th", "td",
		"strong", "em", "u", "s", "mark",
	)

	// エディタのテキスト配置は段落と見出しのstyle属性で表現される
	p.AllowStyles("text-align").
		MatchingEnum("left", "center", "right", "justify").
		OnElements("p", "h1", "h2", "h3", "h4", "h5", "h6")

	// コードブロックの言語指定（language-xxx）
	p.AllowAttrs("class").OnElements("code")

	// リンク: href のみ。外部リンクには target/_blank と noreferrer を強制
	p.AllowAttrs("href").OnElements("a")
	p.AllowRelativeURLs(false)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	p.RequireNoReferrerOnLinks(true)

	// 画像: httpsとエディタが埋め込むbase64 data URIを許可
	p.AllowAttrs("src", "alt").OnElements("img")
	p.AllowURLSchemeWithCustomPolicy("https", func(u *url.URL) bool {
		return true
	})
	p.AllowDataURIImages()

	return &contentSanitizer{
		policy: p,
	}
}

// Sanitize はHTMLコンテンツをサニタイズして安全なHTMLを返す。
func (s *contentSanitizer) Sanitize(rawHTML string) string {
	return s.policy.Sanitize(rawHTML)
}
