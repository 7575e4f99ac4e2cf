// Package security はアプリケーションのセキュリティ機能を提供する。
//
// TextSanitizerService はAIが生成した旅行プランのテキストをサニタイズし、
// XSS攻撃などのセキュリティリスクからユーザーを保護する。
// 生成モデルの出力は信頼できない入力として扱い、bluemondayの
// 厳格ポリシーでHTMLマークアップを全て除去する。
package security

import (
	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizerService は生成テキストのサニタイズ機能のインターフェースを定義する。
// 旅行プランの保存前に、プラン名、説明、アクティビティ等の
// 全テキストフィールドに適用される。
type TextSanitizerService interface {
	// Sanitize はテキストからHTMLマークアップを全て除去して返す。
	// 旅行プランのテキストは常にプレーンテキストとして扱われるため、
	// script, iframe, img等のタグおよびon*イベント属性を含む
	// 全てのマークアップが除去される。
	// 空文字列の入力には空文字列を返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(text string) string
}

// textSanitizer はTextSanitizerServiceの実装。
// bluemondayのポリシーを保持し、スレッドセーフにサニタイズ処理を行う。
type textSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer はTextSanitizerServiceの新しいインスタンスを生成する。
// タグを一切許可しない厳格ポリシーを構築する。
func NewTextSanitizer() *textSanitizer {
	return &textSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Sanitize はテキストからHTMLマークアップを全て除去して返す。
func (s *textSanitizer) Sanitize(text string) string {
	return s.policy.Sanitize(text)
}
