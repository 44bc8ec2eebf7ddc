// 通知サービスのエントリポイント。
// 通知の作成・メール配信・既読（フォロー）管理を行うHTTP APIを提供する。
package main

import (
	"log"
	"os"

	"github.com/nao1215/notify/internal/notification"
)

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8087"
	}

	server, err := notification.NewServer(port)
	if err != nil {
		log.Fatalf("通知サーバーの初期化に失敗: %v", err)
	}

	log.Printf("通知サービスを起動します: :%s", port)
	if err := server.Run(); err != nil {
		log.Fatalf("通知サービスの起動に失敗: %v", err)
	}
}
