package notification

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	notificationdb "github.com/nao1215/notify/internal/notification/db"
)

// RemindBeforeDeadline は締切前のリマインド通知を作成する。
//
// leadTimesは締切の何日前（期間）にリマインドするかの一覧で、呼び出しごとに
// 降順に整列して評価する。各リード期間は「締切 - リード期間」から締切当日までの
// ウィンドウを構成し、現在日がウィンドウ内にあり、かつそのウィンドウ内で
// まだ通知を作成していない場合に限り1件だけ通知を作成する。
// 同じウィンドウ内で繰り返し呼び出しても通知は重複しない。
// 締切を過ぎている場合は何もしない。
//
// このメソッドは日単位（UTC）の粒度で判定するため、同日内の複数回呼び出しは
// すべて同じ日付として扱われる。
func (s *Service) RemindBeforeDeadline(ctx context.Context, deadline time.Time, leadTimes []time.Duration, typeName string, rcpt Recipient, target Target, link string, extra map[string]any) (*notificationdb.Notification, error) {
	if !rcpt.Valid() {
		return nil, ErrInvalidRecipient
	}

	today := dateOf(s.now().UTC())
	deadlineDay := dateOf(deadline.UTC())

	// 締切を過ぎたリマインドは作成しない
	if deadlineDay.Before(today) {
		return nil, nil
	}

	leads := make([]time.Duration, len(leadTimes))
	copy(leads, leadTimes)
	sort.Slice(leads, func(i, j int) bool { return leads[i] > leads[j] })

	var latest *notificationdb.Notification
	latestLoaded := false

	// 大きいリード期間から順にウィンドウを評価する。
	// 現在日がまだ到達していないウィンドウで打ち切り、
	// すでに通知済みのウィンドウは飛ばして次の（より締切に近い）ウィンドウに進む。
	for _, lead := range leads {
		threshold := deadlineDay.Add(-lead)
		if !today.After(threshold) {
			break
		}

		if !latestLoaded {
			row, err := s.queries.GetLatestNotificationForTarget(ctx, notificationdb.GetLatestNotificationForTargetParams{
				RecipientKind: string(rcpt.Kind()),
				RecipientID:   rcpt.ID(),
				TypeName:      typeName,
				TargetKind:    target.Kind,
				TargetID:      target.ID,
			})
			switch {
			case err == nil:
				latest = &row
			case errors.Is(err, sql.ErrNoRows):
				latest = nil
			default:
				return nil, fmt.Errorf("直近のリマインド通知の取得に失敗: %w", err)
			}
			latestLoaded = true
		}

		// このウィンドウ内で未通知なら作成する
		if latest == nil || dateOf(latest.CreatedAt.UTC()).Before(threshold) || dateOf(latest.CreatedAt.UTC()).Equal(threshold) {
			return s.Notify(ctx, typeName, rcpt, target, link, extra)
		}
	}
	return nil, nil
}

// dateOf は時刻を日単位（UTCの0時）に切り捨てる。
func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
