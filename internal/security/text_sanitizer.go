// Package security はアプリケーションのセキュリティ機能を提供する。
package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizerService はユーザー入力文字列のサニタイズ機能のインターフェースを定義する。
// 映画タイトルや検索文字列はブラウザクライアントにそのまま表示されるため、
// HTMLタグを一切許可しないプレーンテキストとして保存する。
type TextSanitizerService interface {
	// SanitizeText は入力からHTMLタグをすべて除去し、
	// エンティティを元の文字に戻した上で前後の空白を取り除く。
	// 空文字列の入力には空文字列を返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	SanitizeText(s string) string
}

// textSanitizer はTextSanitizerServiceの実装。
// bluemondayのStrictPolicy（全タグ除去）を保持し、スレッドセーフに動作する。
type textSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer はTextSanitizerServiceの新しいインスタンスを生成する。
func NewTextSanitizer() *textSanitizer {
	return &textSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// SanitizeText は入力からHTMLタグをすべて除去する。
// bluemondayはタグ除去後に残りをエスケープするため、
// "Fast & Furious" のような正当な文字が実体参照にならないよう
// html.UnescapeStringで戻す。
func (s *textSanitizer) SanitizeText(raw string) string {
	if raw == "" {
		return ""
	}
	cleaned := s.policy.Sanitize(raw)
	return strings.TrimSpace(html.UnescapeString(cleaned))
}
