// Package security はアプリケーションのセキュリティ機能を提供する。
//
// DescriptionSanitizer はイベント許可申請の説明文（description）を検査し、
// 申請一覧を表示するクライアントをXSSから保護する。
// bluemondayの許可リストベースのポリシーで、簡単な書式タグのみを通過させる。
package security

import (
	"html"

	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer は自由記述テキストのサニタイズ機能のインターフェース。
// ゲートウェイへ転送する前の入力に対して使用する。
type Sanitizer interface {
	// Sanitize は許可タグ（p, br, ul, ol, li, strong, em, a）のみを残したHTMLを返す。
	// script, iframe, styleタグおよびon*イベント属性は除去される。
	// 空文字列の入力には空文字列を返す。
	Sanitize(raw string) string

	// Safe はrawがポリシーで書き換えられない場合にtrueを返す。
	// 文字実体参照（&amp;など）の表記の違いは書き換えとみなさない。
	Safe(raw string) bool
}

// DescriptionSanitizer はSanitizerのbluemonday実装。
// ポリシーは生成時に一度だけ構築し、以降はスレッドセーフに共有する。
type DescriptionSanitizer struct {
	policy *bluemonday.Policy
}

// NewDescriptionSanitizer はDescriptionSanitizerを生成する。
// ポリシーの内容:
//   - 許可タグ: p, br, ul, ol, li, strong, em, a
//   - aタグ: href（http/httpsの絶対URLのみ）
func NewDescriptionSanitizer() *DescriptionSanitizer {
	p := bluemonday.NewPolicy()

	p.AllowElements("p", "br", "ul", "ol", "li", "strong", "em")

	p.AllowAttrs("href").OnElements("a")
	p.AllowURLSchemes("http", "https")
	p.AllowRelativeURLs(false)

	return &DescriptionSanitizer{policy: p}
}

// Sanitize はHTMLをサニタイズして返す。
func (s *DescriptionSanitizer) Sanitize(raw string) string {
	if raw == "" {
		return ""
	}
	return s.policy.Sanitize(raw)
}

// Safe はrawをサニタイズしても内容が変わらないかを返す。
// bluemondayは本文中の&や'を実体参照に変換するため、両者をデコードして比較する。
func (s *DescriptionSanitizer) Safe(raw string) bool {
	return html.UnescapeString(s.Sanitize(raw)) == html.UnescapeString(raw)
}
