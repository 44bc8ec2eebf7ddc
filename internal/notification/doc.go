// Package notification は通知サービスの内部実装を提供する。
//
// 通知種別ごとに通知を作成・保存し、メール配信と既読（フォロー）管理を行う。
// 同一対象への重複通知の抑止と、締切前リマインドのウィンドウ判定もここで実装する。
package notification
