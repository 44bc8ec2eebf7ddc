package notification

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	notificationdb "github.com/nao1215/notify/internal/notification/db"
	"github.com/nao1215/notify/pkg/event"
	"github.com/nao1215/notify/pkg/httpclient"
	"github.com/nao1215/notify/pkg/mailer"
)

// typeNamePattern は通知種別名に使用できる文字のパターン。
var typeNamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Service は通知の作成・配信・既読管理を行うアプリケーションサービス。
// メール配信とイベント送信はベストエフォートで行い、失敗してもログに記録するのみで
// 通知レコードの作成自体は失敗させない。
type Service struct {
	// queries は通知データベースへのクエリ群。
	queries *notificationdb.Queries
	// mailer はメール送信クライアント。nilの場合はメール配信をスキップする。
	mailer mailer.Mailer
	// renderer はメールテンプレートのレンダラー。
	renderer *mailer.Renderer
	// userDir はユーザーディレクトリサービスへのクライアント。nilの場合は問い合わせない。
	userDir *UserDirectory
	// eventClient はEvent StoreへのHTTPクライアント。nilの場合はイベント送信をスキップする。
	eventClient *httpclient.Client
	// baseURL はフォローリンクの生成に使用するこのサービスの公開URL。
	baseURL string
	// now は現在時刻を返す関数。テストで時刻を固定するために差し替え可能にしている。
	now func() time.Time
}

// NewService は新しいServiceを生成する。
// sender, userDir, eventClientはnilを許容し、その場合は対応する外部連携をスキップする。
func NewService(queries *notificationdb.Queries, sender mailer.Mailer, renderer *mailer.Renderer, userDir *UserDirectory, eventClient *httpclient.Client, baseURL string) *Service {
	return &Service{
		queries:     queries,
		mailer:      sender,
		renderer:    renderer,
		userDir:     userDir,
		eventClient: eventClient,
		baseURL:     baseURL,
		now:         time.Now,
	}
}

// RegisterType は通知種別を登録する。すでに存在する場合はlevelとdisplayを上書きする。
func (s *Service) RegisterType(ctx context.Context, name string, level Level, display bool) (notificationdb.NotificationType, error) {
	if !typeNamePattern.MatchString(name) {
		return notificationdb.NotificationType{}, fmt.Errorf("通知種別名が不正です: %q", name)
	}
	if !level.Valid() {
		return notificationdb.NotificationType{}, fmt.Errorf("通知レベルが不正です: %q", level)
	}

	displayFlag := int64(0)
	if display {
		displayFlag = 1
	}
	typ, err := s.queries.UpsertNotificationType(ctx, notificationdb.UpsertNotificationTypeParams{
		Name:    name,
		Level:   string(level),
		Display: displayFlag,
	})
	if err != nil {
		return notificationdb.NotificationType{}, fmt.Errorf("通知種別の登録に失敗: %w", err)
	}

	s.publishEvent(ctx, fmt.Sprintf("notification-type-%s", name), event.AggregateTypeNotificationType, event.TypeNotificationTypeRegistered, event.NotificationTypeRegisteredData{
		Name:    typ.Name,
		Level:   typ.Level,
		Display: typ.Display == 1,
	})
	return typ, nil
}

// ListTypes は登録済みの通知種別を名前順に返す。
func (s *Service) ListTypes(ctx context.Context) ([]notificationdb.NotificationType, error) {
	types, err := s.queries.ListNotificationTypes(ctx)
	if err != nil {
		return nil, fmt.Errorf("通知種別一覧の取得に失敗: %w", err)
	}
	return types, nil
}

// Notify は通知を作成し、メール配信とイベント送信を行う。
// 通知種別が未登録の場合はErrTypeNotFoundを返す。
func (s *Service) Notify(ctx context.Context, typeName string, rcpt Recipient, target Target, link string, extra map[string]any) (*notificationdb.Notification, error) {
	if !rcpt.Valid() {
		return nil, ErrInvalidRecipient
	}

	typ, err := s.queries.GetNotificationType(ctx, typeName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrTypeNotFound, typeName)
		}
		return nil, fmt.Errorf("通知種別の取得に失敗: %w", err)
	}

	extraJSON := "{}"
	if len(extra) > 0 {
		data, err := json.Marshal(extra)
		if err != nil {
			return nil, fmt.Errorf("追加コンテキストのシリアライズに失敗: %w", err)
		}
		extraJSON = string(data)
	}

	row, err := s.queries.CreateNotification(ctx, notificationdb.CreateNotificationParams{
		ID:            uuid.New().String(),
		TypeName:      typ.Name,
		RecipientKind: string(rcpt.Kind()),
		RecipientID:   rcpt.ID(),
		TargetKind:    target.Kind,
		TargetID:      target.ID,
		Link:          link,
		ExtraContext:  extraJSON,
		CreatedAt:     s.now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("通知の作成に失敗: %w", err)
	}

	s.deliver(ctx, row, typ, extra)

	s.publishEvent(ctx, fmt.Sprintf("notification-%s", row.ID), event.AggregateTypeNotification, event.TypeNotificationCreated, event.NotificationCreatedData{
		UUID:          row.ID,
		TypeName:      row.TypeName,
		RecipientKind: row.RecipientKind,
		RecipientID:   row.RecipientID,
		TargetKind:    row.TargetKind,
		TargetID:      row.TargetID,
		Link:          row.Link,
	})
	return &row, nil
}

// NotifyIfAbsent は同一の宛先・種別・対象の通知がまだ存在しない場合のみ通知を作成する。
// すでに存在する場合は何もせず(nil, nil)を返す。
func (s *Service) NotifyIfAbsent(ctx context.Context, typeName string, rcpt Recipient, target Target, link string, extra map[string]any) (*notificationdb.Notification, error) {
	if !rcpt.Valid() {
		return nil, ErrInvalidRecipient
	}
	if _, err := s.queries.GetNotificationType(ctx, typeName); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrTypeNotFound, typeName)
		}
		return nil, fmt.Errorf("通知種別の取得に失敗: %w", err)
	}

	count, err := s.queries.CountNotificationsForTarget(ctx, notificationdb.CountNotificationsForTargetParams{
		RecipientKind: string(rcpt.Kind()),
		RecipientID:   rcpt.ID(),
		TypeName:      typeName,
		TargetKind:    target.Kind,
		TargetID:      target.ID,
	})
	if err != nil {
		return nil, fmt.Errorf("既存通知の検索に失敗: %w", err)
	}
	if count > 0 {
		return nil, nil
	}
	return s.Notify(ctx, typeName, rcpt, target, link, extra)
}

// Follow は通知を既読にし、通知のリンク先を返す。
// ユーザー宛の通知は本人以外がフォローできない。既読済みの通知のfollowed_atは変更しない。
func (s *Service) Follow(ctx context.Context, id, viewerUserID string) (*notificationdb.Notification, error) {
	row, err := s.queries.GetNotification(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotificationNotFound
		}
		return nil, fmt.Errorf("通知の取得に失敗: %w", err)
	}

	// ユーザー宛の通知は宛先本人のみが閲覧できる。
	// 存在の有無を漏らさないよう、他人の通知も未存在として扱う。
	if row.RecipientKind == string(RecipientKindUser) && row.RecipientID != viewerUserID {
		return nil, ErrNotificationNotFound
	}

	if !row.FollowedAt.Valid {
		followedAt := s.now().UTC()
		affected, err := s.queries.MarkNotificationFollowed(ctx, notificationdb.MarkNotificationFollowedParams{
			FollowedAt: sql.NullTime{Time: followedAt, Valid: true},
			ID:         row.ID,
		})
		if err != nil {
			return nil, fmt.Errorf("通知の既読化に失敗: %w", err)
		}
		if affected > 0 {
			row.FollowedAt = sql.NullTime{Time: followedAt, Valid: true}
			s.publishEvent(ctx, fmt.Sprintf("notification-%s", row.ID), event.AggregateTypeNotification, event.TypeNotificationFollowed, event.NotificationFollowedData{
				UUID:       row.ID,
				FollowedAt: followedAt.Format(time.RFC3339),
			})
		}
	}
	return &row, nil
}

// FollowAll は指定ユーザー宛の未読通知をすべて既読にし、更新件数を返す。
func (s *Service) FollowAll(ctx context.Context, userID string) (int64, error) {
	affected, err := s.queries.MarkAllNotificationsFollowed(ctx, notificationdb.MarkAllNotificationsFollowedParams{
		FollowedAt:    sql.NullTime{Time: s.now().UTC(), Valid: true},
		RecipientKind: string(RecipientKindUser),
		RecipientID:   userID,
	})
	if err != nil {
		return 0, fmt.Errorf("通知の一括既読化に失敗: %w", err)
	}
	return affected, nil
}

// DeleteTarget は指定した対象に紐づく通知をすべて削除し、削除件数を返す。
func (s *Service) DeleteTarget(ctx context.Context, target Target) (int64, error) {
	affected, err := s.queries.DeleteNotificationsByTarget(ctx, notificationdb.DeleteNotificationsByTargetParams{
		TargetKind: target.Kind,
		TargetID:   target.ID,
	})
	if err != nil {
		return 0, fmt.Errorf("通知の削除に失敗: %w", err)
	}
	return affected, nil
}

// ListUnfollowed は指定ユーザー宛の未読かつ表示対象の通知を新しい順に返す。
func (s *Service) ListUnfollowed(ctx context.Context, userID string) ([]notificationdb.Notification, error) {
	rows, err := s.queries.ListUnfollowedDisplayNotifications(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("未読通知の取得に失敗: %w", err)
	}
	return rows, nil
}

// Search は通知種別と宛先IDで通知を検索する。空文字の条件は無視される。
func (s *Service) Search(ctx context.Context, typeName, recipientID string, limit, offset int64) ([]notificationdb.Notification, error) {
	rows, err := s.queries.SearchNotifications(ctx, notificationdb.SearchNotificationsParams{
		TypeName:    typeName,
		RecipientID: recipientID,
		Limit:       limit,
		Offset:      offset,
	})
	if err != nil {
		return nil, fmt.Errorf("通知の検索に失敗: %w", err)
	}
	return rows, nil
}

// deliver は通知をメールで配信する。
// 宛先アドレスの解決・レンダリング・送信のいずれかが失敗してもログに記録するのみ。
func (s *Service) deliver(ctx context.Context, row notificationdb.Notification, typ notificationdb.NotificationType, extra map[string]any) {
	if s.mailer == nil || s.renderer == nil {
		return
	}

	var to string
	var user *User
	switch RecipientKind(row.RecipientKind) {
	case RecipientKindEmail:
		to = row.RecipientID
		if s.userDir != nil {
			// メールアドレスに対応するユーザーが存在すればテンプレートに渡す
			if u, err := s.userDir.GetByEmail(ctx, row.RecipientID); err == nil {
				user = u
			}
		}
	case RecipientKindUser:
		if s.userDir == nil {
			log.Printf("ユーザーディレクトリが未設定のためメール配信をスキップ: notification=%s", row.ID)
			return
		}
		u, err := s.userDir.GetByID(ctx, row.RecipientID)
		if err != nil {
			log.Printf("宛先ユーザーの解決に失敗: notification=%s, user=%s, err=%v", row.ID, row.RecipientID, err)
			return
		}
		to = u.Email
		user = u
	default:
		return
	}

	data := s.buildMailContext(row, typ, user, extra)
	subject, body, err := s.renderer.Render(row.TypeName, data)
	if err != nil {
		log.Printf("メールテンプレートのレンダリングに失敗: notification=%s, err=%v", row.ID, err)
		return
	}
	if err := s.mailer.Send(ctx, to, subject, body); err != nil {
		log.Printf("メール送信に失敗: notification=%s, to=%s, err=%v", row.ID, to, err)
		return
	}
	log.Printf("通知メールを送信しました: notification=%s, to=%s", row.ID, to)
}

// buildMailContext はメールテンプレートに渡すコンテキストを組み立てる。
// extraのキーは組み込みのキーと衝突した場合に呼び出し側の値を優先する。
func (s *Service) buildMailContext(row notificationdb.Notification, typ notificationdb.NotificationType, user *User, extra map[string]any) map[string]any {
	data := map[string]any{
		"notification_type": row.TypeName,
		"level":             typ.Level,
		"target_kind":       row.TargetKind,
		"target_id":         row.TargetID,
		"link":              row.Link,
		"follow_link":       s.FollowLink(row.ID),
		"uuid":              row.ID,
		"created_at":        row.CreatedAt.Format(time.RFC3339),
		"followed_at":       "",
	}
	if row.FollowedAt.Valid {
		data["followed_at"] = row.FollowedAt.Time.Format(time.RFC3339)
	}
	if row.RecipientKind == string(RecipientKindEmail) {
		data["email"] = row.RecipientID
	}
	if user != nil {
		data["user"] = user.Name
		data["email"] = user.Email
	}
	for k, v := range extra {
		data[k] = v
	}
	return data
}

// FollowLink は通知のフォロー用URLを返す。
func (s *Service) FollowLink(id string) string {
	return strings.TrimRight(s.baseURL, "/") + "/notifications/" + id + "/follow"
}

// publishEvent はEvent Storeにイベントを送信する。
// 送信に失敗した場合はログに記録するが、呼び出し元にはエラーを返さない。
func (s *Service) publishEvent(ctx context.Context, aggregateID string, aggregateType event.AggregateType, eventType event.Type, data any) {
	if s.eventClient == nil {
		return
	}
	jsonData, err := json.Marshal(data)
	if err != nil {
		log.Printf("イベントデータのシリアライズに失敗: %v", err)
		return
	}

	reqBody := map[string]any{
		"aggregate_id":   aggregateID,
		"aggregate_type": string(aggregateType),
		"event_type":     string(eventType),
		"data":           json.RawMessage(jsonData),
	}
	if err := s.eventClient.PostJSON(ctx, "/api/v1/events", reqBody, nil); err != nil {
		log.Printf("Event Storeへのイベント送信に失敗: %v", err)
	}
}
