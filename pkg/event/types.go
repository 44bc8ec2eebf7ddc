package event

import (
	"encoding/json"
	"time"
)

// AggregateType はイベントの対象となるエンティティの種類を表す。
type AggregateType string

const (
	// AggregateTypeNotification は通知エンティティを表す。
	AggregateTypeNotification AggregateType = "Notification"
	// AggregateTypeNotificationType は通知種別エンティティを表す。
	AggregateTypeNotificationType AggregateType = "NotificationType"
)

// Type はイベントの種類を表す。
type Type string

const (
	// TypeNotificationCreated は通知が作成されたことを表す。
	TypeNotificationCreated Type = "NotificationCreated"
	// TypeNotificationFollowed は通知のリンクが開封（フォロー）されたことを表す。
	TypeNotificationFollowed Type = "NotificationFollowed"
	// TypeNotificationTypeRegistered は通知種別が登録または更新されたことを表す。
	TypeNotificationTypeRegistered Type = "NotificationTypeRegistered"
)

// Event はプラットフォームのEvent Storeに永続化される不変のイベントレコードを表す。
type Event struct {
	// ID はイベントの一意識別子（UUID）。
	ID string `json:"id"`
	// AggregateID は対象エンティティの識別子。
	AggregateID string `json:"aggregate_id"`
	// AggregateType は対象エンティティの種類。
	AggregateType AggregateType `json:"aggregate_type"`
	// EventType はイベントの種類。
	EventType Type `json:"event_type"`
	// Data はイベント固有のデータ（JSON形式）。
	Data json.RawMessage `json:"data"`
	// Version はAggregate内でのイベントの順序番号。楽観的排他制御に使用する。
	Version int64 `json:"version"`
	// CreatedAt はイベントが作成された日時。
	CreatedAt time.Time `json:"created_at"`
}

// NotificationCreatedData はNotificationCreatedイベントのデータ。
type NotificationCreatedData struct {
	// UUID は作成された通知の一意識別子。
	UUID string `json:"uuid"`
	// TypeName は通知種別の名前。
	TypeName string `json:"type_name"`
	// RecipientKind は宛先の種類（"email" または "user"）。
	RecipientKind string `json:"recipient_kind"`
	// RecipientID は宛先の識別子（メールアドレスまたはユーザーID）。
	RecipientID string `json:"recipient_id"`
	// TargetKind は通知対象エンティティの種類タグ。
	TargetKind string `json:"target_kind"`
	// TargetID は通知対象エンティティの識別子。
	TargetID string `json:"target_id"`
	// Link は通知のフォロー後に遷移するURL。
	Link string `json:"link"`
}

// NotificationFollowedData はNotificationFollowedイベントのデータ。
type NotificationFollowedData struct {
	// UUID はフォローされた通知の一意識別子。
	UUID string `json:"uuid"`
	// FollowedAt はフォローされた日時（RFC3339形式）。
	FollowedAt string `json:"followed_at"`
}

// NotificationTypeRegisteredData はNotificationTypeRegisteredイベントのデータ。
type NotificationTypeRegisteredData struct {
	// Name は通知種別の名前。
	Name string `json:"name"`
	// Level は通知種別の重要度。
	Level string `json:"level"`
	// Display はサイト上に表示するかどうか。
	Display bool `json:"display"`
}
