// 通知クリーンアップジョブのエントリポイント。
// フォローから一定期間が経過した通知と、作成から一定期間が経過した通知を
// バッチ単位で削除するワンショットのジョブ。cronなどから定期実行する。
package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"strconv"
	"time"

	_ "modernc.org/sqlite"

	"github.com/nao1215/notify/internal/notification"
	notificationdb "github.com/nao1215/notify/internal/notification/db"
)

func main() {
	dbPath := getEnvOr("NOTIFY_DB_PATH", "/data/notify.db")
	sqlDB, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		log.Fatalf("データベース接続に失敗: %v", err)
	}
	defer sqlDB.Close()

	if err := notification.InitSchema(sqlDB); err != nil {
		log.Fatalf("スキーマ初期化に失敗: %v", err)
	}

	followedDays := getEnvIntOr("CLEANUP_FOLLOWED_DAYS", 365)
	createdDays := getEnvIntOr("CLEANUP_CREATED_DAYS", 1826)
	batchSize := getEnvIntOr("CLEANUP_BATCH_SIZE", 1000)

	ctx := context.Background()
	queries := notificationdb.New(sqlDB)
	now := time.Now().UTC()

	followedDeleted, err := deleteFollowedBefore(ctx, queries, now.AddDate(0, 0, -followedDays), int64(batchSize))
	if err != nil {
		log.Fatalf("フォロー済み通知の削除に失敗: %v", err)
	}
	log.Printf("フォローから%d日以上経過した通知を%d件削除しました", followedDays, followedDeleted)

	createdDeleted, err := deleteCreatedBefore(ctx, queries, now.AddDate(0, 0, -createdDays), int64(batchSize))
	if err != nil {
		log.Fatalf("古い通知の削除に失敗: %v", err)
	}
	log.Printf("作成から%d日以上経過した通知を%d件削除しました", createdDays, createdDeleted)
}

// deleteFollowedBefore はフォロー日時がcutoffより古い通知をバッチ単位で削除し、合計件数を返す。
func deleteFollowedBefore(ctx context.Context, queries *notificationdb.Queries, cutoff time.Time, batchSize int64) (int64, error) {
	var total int64
	for {
		affected, err := queries.DeleteFollowedNotificationsBefore(ctx, notificationdb.DeleteFollowedNotificationsBeforeParams{
			FollowedAt: sql.NullTime{Time: cutoff, Valid: true},
			Limit:      batchSize,
		})
		if err != nil {
			return total, err
		}
		total += affected
		if affected < batchSize {
			return total, nil
		}
	}
}

// deleteCreatedBefore は作成日時がcutoffより古い通知をバッチ単位で削除し、合計件数を返す。
func deleteCreatedBefore(ctx context.Context, queries *notificationdb.Queries, cutoff time.Time, batchSize int64) (int64, error) {
	var total int64
	for {
		affected, err := queries.DeleteNotificationsCreatedBefore(ctx, notificationdb.DeleteNotificationsCreatedBeforeParams{
			CreatedAt: cutoff,
			Limit:     batchSize,
		})
		if err != nil {
			return total, err
		}
		total += affected
		if affected < batchSize {
			return total, nil
		}
	}
}

// getEnvOr は環境変数を取得し、設定されていない場合はデフォルト値を返す。
func getEnvOr(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

// getEnvIntOr は整数の環境変数を取得し、未設定または不正な場合はデフォルト値を返す。
func getEnvIntOr(key string, defaultValue int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		log.Printf("%sの値が不正なためデフォルト値%dを使用します: %q", key, defaultValue, v)
		return defaultValue
	}
	return n
}
