// Package mailer は通知メールの組み立てと送信を提供する。
//
// 通知種別ごとのテンプレート（subject.txt / content.txt）を描画し、
// SMTP経由でメールを送信する。送信失敗は呼び出し側でログに記録される
// 想定であり、リトライは行わない。
package mailer
