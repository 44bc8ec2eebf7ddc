package notification

import (
	"database/sql"
	"embed"

	"github.com/nao1215/notify/pkg/migration"
)

//go:embed migrations
var migrationsFS embed.FS

// InitSchema はマイグレーションを実行して通知サービスのスキーマを適用する。
// サーバー起動時およびクリーンアップジョブの開始時に呼び出される。
func InitSchema(db *sql.DB) error {
	return migration.Run(db, migrationsFS, "migrations")
}
