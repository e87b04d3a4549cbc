// Package security はユーザー投稿コンテンツの保存前サニタイズを提供する。
//
// 投稿とコメントの本文はMarkdown由来の限定的なHTMLを許可しており、
// bluemondayの許可リストベースのポリシーで保存前にクリーンな状態へ
// 正規化する。出力時のエスケープ層ではなく、ストレージに入る内容
// そのものを制限する位置づけ。
package security

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// ContentSanitizerService は本文サニタイズ機能のインターフェースを定義する。
type ContentSanitizerService interface {
	// Sanitize は本文をサニタイズして安全なHTMLを返す。
	// 許可タグ（p, br, a, ul, ol, li, blockquote, pre, code, strong, em）のみを
	// 通過させ、script等のタグとon*イベント属性を除去する。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(raw string) string
}

// contentSanitizer はContentSanitizerServiceの実装。
// bluemondayのポリシーを保持し、スレッドセーフにサニタイズ処理を行う。
type contentSanitizer struct {
	policy *bluemonday.Policy
}

// NewContentSanitizer はContentSanitizerServiceの新しいインスタンスを生成する。
// 掲示板本文向けの許可リスト: 段落・リスト・引用・コード・強調と
// 絶対URLのみのリンク。画像は許可しない。
func NewContentSanitizer() *contentSanitizer {
	p := bluemonday.NewPolicy()

	p.AllowElements(
		"p", "br", "ul", "ol", "li",
		"blockquote", "pre", "code",
		"strong", "em",
	)

	// リンクは絶対URLのみ。外部遷移にはnoopener/noreferrerを強制する。
	p.AllowAttrs("href").OnElements("a")
	p.AllowStandardURLs()
	p.AllowRelativeURLs(false)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	p.RequireNoReferrerOnLinks(true)

	return &contentSanitizer{
		policy: p,
	}
}

// Sanitize は本文をサニタイズして安全なHTMLを返す。
// 前後の空白は取り除く。
func (s *contentSanitizer) Sanitize(raw string) string {
	return strings.TrimSpace(s.policy.Sanitize(raw))
}
