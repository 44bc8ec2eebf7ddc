package notification

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	_ "modernc.org/sqlite"

	notificationdb "github.com/nao1215/notify/internal/notification/db"
	"github.com/nao1215/notify/pkg/httpclient"
	"github.com/nao1215/notify/pkg/mailer"
	"github.com/nao1215/notify/pkg/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// testJWTSecret はテスト用のJWT署名シークレット。
const testJWTSecret = "test-secret"

// setupTestServer はテスト用の通知サーバーをインメモリSQLiteで構築する。
// Event Storeのモックサーバーも生成し、テスト終了時にクリーンアップする。
func setupTestServer(t *testing.T) (*Server, *gin.Engine) {
	t.Helper()

	sqlDB, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("インメモリDBの作成に失敗: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })

	if err := InitSchema(sqlDB); err != nil {
		t.Fatalf("スキーマ初期化に失敗: %v", err)
	}

	// Event Storeのモックサーバーを作成する
	eventStore := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"id":"mock-event-id"}`)
	}))
	t.Cleanup(func() { eventStore.Close() })

	service := NewService(
		notificationdb.New(sqlDB),
		&fakeMailer{},
		mailer.NewRenderer("", ""),
		nil,
		httpclient.New(eventStore.URL),
		"http://localhost:8087",
	)

	router := gin.New()
	s := &Server{
		router:    router,
		port:      "0",
		service:   service,
		db:        sqlDB,
		jwtSecret: testJWTSecret,
	}

	// フォローはAuthorizationヘッダーを直接解釈するため本物のルートを使用する
	router.GET("/notifications/:uuid/follow", s.handleFollow())

	// JWTミドルウェアの代わりにテスト用のユーザーID設定ミドルウェアを使用する
	api := router.Group("/api/v1")
	api.Use(func(c *gin.Context) {
		userID := c.GetHeader("X-User-ID")
		if userID != "" {
			c.Set("user_id", userID)
		}
		c.Next()
	})
	{
		notifications := api.Group("/notifications")
		{
			notifications.GET("", s.handleListUnread())
			notifications.PUT("/follow-all", s.handleFollowAll())
		}

		admin := api.Group("/admin")
		{
			admin.GET("/notifications", s.handleSearch())
		}

		internal := api.Group("/internal")
		{
			internal.POST("/notify", s.handleNotify())
			internal.POST("/notify-if-absent", s.handleNotifyIfAbsent())
			internal.POST("/remind", s.handleRemind())
			internal.GET("/types", s.handleListTypes())
			internal.PUT("/types/:name", s.handleRegisterType())
			internal.DELETE("/targets/:kind/:id", s.handleDeleteTarget())
		}
	}
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "notification"})
	})

	return s, router
}

// doRequest はテスト用のHTTPリクエストを実行し、レスポンスを返すヘルパー関数。
func doRequest(router *gin.Engine, method, path, userID string, body any) *httptest.ResponseRecorder {
	var reqBody *bytes.Reader
	if body != nil {
		jsonBytes, _ := json.Marshal(body)
		reqBody = bytes.NewReader(jsonBytes)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// doAuthRequest はBearerトークン付きのHTTPリクエストを実行するヘルパー関数。
func doAuthRequest(t *testing.T, router *gin.Engine, method, path, userID string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, nil)
	if userID != "" {
		token, err := middleware.GenerateJWT(testJWTSecret, userID, userID+"@example.com")
		if err != nil {
			t.Fatalf("JWTトークンの生成に失敗: %v", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// parseJSON はレスポンスボディをmapにデコードするヘルパー関数。
func parseJSON(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var result map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("JSONのデコードに失敗: %v, body=%s", err, w.Body.String())
	}
	return result
}

// parseJSONArray はレスポンスボディをスライスにデコードするヘルパー関数。
func parseJSONArray(t *testing.T, w *httptest.ResponseRecorder) []map[string]any {
	t.Helper()
	var result []map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("JSON配列のデコードに失敗: %v, body=%s", err, w.Body.String())
	}
	return result
}

// notifyBody は通知作成リクエストのテスト用ボディを組み立てるヘルパー関数。
func notifyBody(typeName string, recipient map[string]string, targetID, link string) map[string]any {
	return map[string]any{
		"type":        typeName,
		"recipient":   recipient,
		"target_kind": "report",
		"target_id":   targetID,
		"link":        link,
	}
}

// TestHealthCheck はヘルスチェックエンドポイントの正常動作を検証する。
func TestHealthCheck(t *testing.T) {
	t.Parallel()

	_, router := setupTestServer(t)

	w := doRequest(router, http.MethodGet, "/health", "", nil)

	if w.Code != http.StatusOK {
		t.Errorf("ステータスコード: got %d, want %d", w.Code, http.StatusOK)
	}

	result := parseJSON(t, w)
	if result["status"] != "ok" {
		t.Errorf("status: got %v, want ok", result["status"])
	}
	if result["service"] != "notification" {
		t.Errorf("service: got %v, want notification", result["service"])
	}
}

// TestHandleRegisterType は通知種別登録ハンドラのテスト。
func TestHandleRegisterType(t *testing.T) {
	t.Parallel()

	t.Run("通知種別を登録できる", func(t *testing.T) {
		t.Parallel()
		_, router := setupTestServer(t)

		body := map[string]any{"level": "warning", "display": true}
		w := doRequest(router, http.MethodPut, "/api/v1/internal/types/deadline_reminder", "system", body)

		if w.Code != http.StatusOK {
			t.Fatalf("ステータスコード: got %d, want %d, body=%s", w.Code, http.StatusOK, w.Body.String())
		}

		result := parseJSON(t, w)
		if result["name"] != "deadline_reminder" {
			t.Errorf("name: got %v, want deadline_reminder", result["name"])
		}
		if result["level"] != "warning" {
			t.Errorf("level: got %v, want warning", result["level"])
		}
		if result["display"] != true {
			t.Errorf("display: got %v, want true", result["display"])
		}
	})

	t.Run("不正なレベルはBadRequest", func(t *testing.T) {
		t.Parallel()
		_, router := setupTestServer(t)

		body := map[string]any{"level": "critical", "display": true}
		w := doRequest(router, http.MethodPut, "/api/v1/internal/types/deadline_reminder", "system", body)

		if w.Code != http.StatusBadRequest {
			t.Errorf("ステータスコード: got %d, want %d", w.Code, http.StatusBadRequest)
		}
	})

	t.Run("不正な種別名はBadRequest", func(t *testing.T) {
		t.Parallel()
		_, router := setupTestServer(t)

		body := map[string]any{"level": "info", "display": true}
		w := doRequest(router, http.MethodPut, "/api/v1/internal/types/bad%20name", "system", body)

		if w.Code != http.StatusBadRequest {
			t.Errorf("ステータスコード: got %d, want %d", w.Code, http.StatusBadRequest)
		}
	})

	t.Run("levelが未指定の場合はBadRequest", func(t *testing.T) {
		t.Parallel()
		_, router := setupTestServer(t)

		w := doRequest(router, http.MethodPut, "/api/v1/internal/types/deadline_reminder", "system", map[string]any{"display": true})

		if w.Code != http.StatusBadRequest {
			t.Errorf("ステータスコード: got %d, want %d", w.Code, http.StatusBadRequest)
		}
	})
}

// TestHandleListTypes は通知種別一覧ハンドラのテスト。
func TestHandleListTypes(t *testing.T) {
	t.Parallel()

	s, router := setupTestServer(t)
	registerTestType(t, s.service, "report_ready", true)
	registerTestType(t, s.service, "deadline_reminder", false)

	w := doRequest(router, http.MethodGet, "/api/v1/internal/types", "system", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("ステータスコード: got %d, want %d", w.Code, http.StatusOK)
	}
	result := parseJSONArray(t, w)
	if len(result) != 2 {
		t.Fatalf("種別の数: got %d, want 2", len(result))
	}
	// 名前順で返される
	if result[0]["name"] != "deadline_reminder" {
		t.Errorf("name[0]: got %v, want deadline_reminder", result[0]["name"])
	}
	if result[0]["display"] != false {
		t.Errorf("display[0]: got %v, want false", result[0]["display"])
	}
}

// TestHandleNotify は通知作成ハンドラのテスト。
func TestHandleNotify(t *testing.T) {
	t.Parallel()

	t.Run("メールアドレス宛の通知を作成できる", func(t *testing.T) {
		t.Parallel()
		s, router := setupTestServer(t)
		registerTestType(t, s.service, "report_ready", true)

		body := notifyBody("report_ready", map[string]string{"email": "alice@example.com"}, "report-1", "https://example.com/r/1")
		w := doRequest(router, http.MethodPost, "/api/v1/internal/notify", "system", body)

		if w.Code != http.StatusCreated {
			t.Fatalf("ステータスコード: got %d, want %d, body=%s", w.Code, http.StatusCreated, w.Body.String())
		}

		result := parseJSON(t, w)
		if result["uuid"] == nil || result["uuid"] == "" {
			t.Error("uuidが空です")
		}
		if result["type"] != "report_ready" {
			t.Errorf("type: got %v, want report_ready", result["type"])
		}
		if result["recipient_kind"] != "email" {
			t.Errorf("recipient_kind: got %v, want email", result["recipient_kind"])
		}
		if result["follow_link"] == nil || result["follow_link"] == "" {
			t.Error("follow_linkが空です")
		}
	})

	t.Run("未登録の種別はNotFound", func(t *testing.T) {
		t.Parallel()
		_, router := setupTestServer(t)

		body := notifyBody("unknown_type", map[string]string{"email": "alice@example.com"}, "report-1", "")
		w := doRequest(router, http.MethodPost, "/api/v1/internal/notify", "system", body)

		if w.Code != http.StatusNotFound {
			t.Errorf("ステータスコード: got %d, want %d", w.Code, http.StatusNotFound)
		}
	})

	t.Run("宛先が両方指定されている場合はBadRequest", func(t *testing.T) {
		t.Parallel()
		s, router := setupTestServer(t)
		registerTestType(t, s.service, "report_ready", true)

		body := notifyBody("report_ready", map[string]string{"email": "alice@example.com", "user_id": "user-1"}, "report-1", "")
		w := doRequest(router, http.MethodPost, "/api/v1/internal/notify", "system", body)

		if w.Code != http.StatusBadRequest {
			t.Errorf("ステータスコード: got %d, want %d", w.Code, http.StatusBadRequest)
		}
	})

	t.Run("宛先が未指定の場合はBadRequest", func(t *testing.T) {
		t.Parallel()
		s, router := setupTestServer(t)
		registerTestType(t, s.service, "report_ready", true)

		body := notifyBody("report_ready", map[string]string{}, "report-1", "")
		w := doRequest(router, http.MethodPost, "/api/v1/internal/notify", "system", body)

		if w.Code != http.StatusBadRequest {
			t.Errorf("ステータスコード: got %d, want %d", w.Code, http.StatusBadRequest)
		}
	})

	t.Run("target_kindが未指定の場合はBadRequest", func(t *testing.T) {
		t.Parallel()
		s, router := setupTestServer(t)
		registerTestType(t, s.service, "report_ready", true)

		body := map[string]any{
			"type":      "report_ready",
			"recipient": map[string]string{"email": "alice@example.com"},
			"target_id": "report-1",
		}
		w := doRequest(router, http.MethodPost, "/api/v1/internal/notify", "system", body)

		if w.Code != http.StatusBadRequest {
			t.Errorf("ステータスコード: got %d, want %d", w.Code, http.StatusBadRequest)
		}
	})
}

// TestHandleNotifyIfAbsent は重複抑止付き通知作成ハンドラのテスト。
func TestHandleNotifyIfAbsent(t *testing.T) {
	t.Parallel()

	s, router := setupTestServer(t)
	registerTestType(t, s.service, "report_ready", true)

	body := notifyBody("report_ready", map[string]string{"email": "alice@example.com"}, "report-1", "")

	// 初回は作成される
	w := doRequest(router, http.MethodPost, "/api/v1/internal/notify-if-absent", "system", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("初回のステータスコード: got %d, want %d, body=%s", w.Code, http.StatusCreated, w.Body.String())
	}

	// 2回目は作成されずOKを返す
	w2 := doRequest(router, http.MethodPost, "/api/v1/internal/notify-if-absent", "system", body)
	if w2.Code != http.StatusOK {
		t.Fatalf("2回目のステータスコード: got %d, want %d, body=%s", w2.Code, http.StatusOK, w2.Body.String())
	}
}

// TestHandleRemind は締切前リマインドハンドラのテスト。
func TestHandleRemind(t *testing.T) {
	t.Parallel()

	t.Run("ウィンドウ内なら通知が作成され再送されない", func(t *testing.T) {
		t.Parallel()
		s, router := setupTestServer(t)
		registerTestType(t, s.service, "deadline_reminder", true)

		deadline := s.service.now().UTC().AddDate(0, 0, 2).Format("2006-01-02")
		body := map[string]any{
			"deadline":       deadline,
			"lead_time_days": []int{10, 3, 1},
			"type":           "deadline_reminder",
			"recipient":      map[string]string{"email": "alice@example.com"},
			"target_kind":    "assignment",
			"target_id":      "assignment-1",
		}

		w := doRequest(router, http.MethodPost, "/api/v1/internal/remind", "system", body)
		if w.Code != http.StatusCreated {
			t.Fatalf("初回のステータスコード: got %d, want %d, body=%s", w.Code, http.StatusCreated, w.Body.String())
		}

		w2 := doRequest(router, http.MethodPost, "/api/v1/internal/remind", "system", body)
		if w2.Code != http.StatusOK {
			t.Fatalf("2回目のステータスコード: got %d, want %d, body=%s", w2.Code, http.StatusOK, w2.Body.String())
		}
	})

	t.Run("締切日の形式が不正な場合はBadRequest", func(t *testing.T) {
		t.Parallel()
		s, router := setupTestServer(t)
		registerTestType(t, s.service, "deadline_reminder", true)

		body := map[string]any{
			"deadline":       "2026/09/30",
			"lead_time_days": []int{3},
			"type":           "deadline_reminder",
			"recipient":      map[string]string{"email": "alice@example.com"},
			"target_kind":    "assignment",
			"target_id":      "assignment-1",
		}
		w := doRequest(router, http.MethodPost, "/api/v1/internal/remind", "system", body)

		if w.Code != http.StatusBadRequest {
			t.Errorf("ステータスコード: got %d, want %d", w.Code, http.StatusBadRequest)
		}
	})

	t.Run("リード日数に負の値がある場合はBadRequest", func(t *testing.T) {
		t.Parallel()
		s, router := setupTestServer(t)
		registerTestType(t, s.service, "deadline_reminder", true)

		body := map[string]any{
			"deadline":       "2026-09-30",
			"lead_time_days": []int{3, -1},
			"type":           "deadline_reminder",
			"recipient":      map[string]string{"email": "alice@example.com"},
			"target_kind":    "assignment",
			"target_id":      "assignment-1",
		}
		w := doRequest(router, http.MethodPost, "/api/v1/internal/remind", "system", body)

		if w.Code != http.StatusBadRequest {
			t.Errorf("ステータスコード: got %d, want %d", w.Code, http.StatusBadRequest)
		}
	})
}

// TestHandleFollow は通知フォローハンドラのテスト。
func TestHandleFollow(t *testing.T) {
	t.Parallel()

	t.Run("フォローするとリンク先にリダイレクトされる", func(t *testing.T) {
		t.Parallel()
		s, router := setupTestServer(t)
		registerTestType(t, s.service, "report_ready", true)

		n, err := s.service.Notify(t.Context(), "report_ready",
			EmailRecipient("alice@example.com"),
			Target{Kind: "report", ID: "report-1"}, "https://example.com/r/1", nil)
		if err != nil {
			t.Fatalf("通知作成に失敗: %v", err)
		}

		w := doAuthRequest(t, router, http.MethodGet, "/notifications/"+n.ID+"/follow", "")

		if w.Code != http.StatusFound {
			t.Fatalf("ステータスコード: got %d, want %d, body=%s", w.Code, http.StatusFound, w.Body.String())
		}
		if loc := w.Header().Get("Location"); loc != "https://example.com/r/1" {
			t.Errorf("Location: got %s, want https://example.com/r/1", loc)
		}

		// フォロー済みになったことを確認する
		followed, err := s.service.queries.GetNotification(t.Context(), n.ID)
		if err != nil {
			t.Fatalf("通知の取得に失敗: %v", err)
		}
		if !followed.FollowedAt.Valid {
			t.Error("followed_atが記録されていません")
		}
	})

	t.Run("リンクが無い通知は通知情報を返す", func(t *testing.T) {
		t.Parallel()
		s, router := setupTestServer(t)
		registerTestType(t, s.service, "report_ready", true)

		n, err := s.service.Notify(t.Context(), "report_ready",
			EmailRecipient("alice@example.com"),
			Target{Kind: "report", ID: "report-1"}, "", nil)
		if err != nil {
			t.Fatalf("通知作成に失敗: %v", err)
		}

		w := doAuthRequest(t, router, http.MethodGet, "/notifications/"+n.ID+"/follow", "")

		if w.Code != http.StatusOK {
			t.Fatalf("ステータスコード: got %d, want %d", w.Code, http.StatusOK)
		}
		result := parseJSON(t, w)
		if result["uuid"] != n.ID {
			t.Errorf("uuid: got %v, want %s", result["uuid"], n.ID)
		}
		if result["followed_at"] == nil || result["followed_at"] == "" {
			t.Error("followed_atが空です")
		}
	})

	t.Run("ユーザー宛の通知は本人のトークンが必要", func(t *testing.T) {
		t.Parallel()
		s, router := setupTestServer(t)
		registerTestType(t, s.service, "report_ready", true)

		n, err := s.service.Notify(t.Context(), "report_ready",
			UserRecipient("user-1"),
			Target{Kind: "report", ID: "report-1"}, "https://example.com/r/1", nil)
		if err != nil {
			t.Fatalf("通知作成に失敗: %v", err)
		}

		// トークンなし
		w := doAuthRequest(t, router, http.MethodGet, "/notifications/"+n.ID+"/follow", "")
		if w.Code != http.StatusNotFound {
			t.Errorf("匿名アクセスのステータスコード: got %d, want %d", w.Code, http.StatusNotFound)
		}

		// 他人のトークン
		w2 := doAuthRequest(t, router, http.MethodGet, "/notifications/"+n.ID+"/follow", "user-2")
		if w2.Code != http.StatusNotFound {
			t.Errorf("他人アクセスのステータスコード: got %d, want %d", w2.Code, http.StatusNotFound)
		}

		// 本人のトークン
		w3 := doAuthRequest(t, router, http.MethodGet, "/notifications/"+n.ID+"/follow", "user-1")
		if w3.Code != http.StatusFound {
			t.Errorf("本人アクセスのステータスコード: got %d, want %d", w3.Code, http.StatusFound)
		}
	})

	t.Run("存在しない通知はNotFound", func(t *testing.T) {
		t.Parallel()
		_, router := setupTestServer(t)

		w := doAuthRequest(t, router, http.MethodGet, "/notifications/nonexistent/follow", "")

		if w.Code != http.StatusNotFound {
			t.Errorf("ステータスコード: got %d, want %d", w.Code, http.StatusNotFound)
		}
	})
}

// TestHandleListUnreadAPI は未読通知一覧ハンドラのテスト。
func TestHandleListUnreadAPI(t *testing.T) {
	t.Parallel()

	t.Run("未読かつ表示対象の通知のみを返す", func(t *testing.T) {
		t.Parallel()
		s, router := setupTestServer(t)
		registerTestType(t, s.service, "visible_type", true)
		registerTestType(t, s.service, "hidden_type", false)

		if _, err := s.service.Notify(t.Context(), "visible_type", UserRecipient("user-1"),
			Target{Kind: "report", ID: "report-1"}, "", nil); err != nil {
			t.Fatalf("通知作成に失敗: %v", err)
		}
		if _, err := s.service.Notify(t.Context(), "hidden_type", UserRecipient("user-1"),
			Target{Kind: "report", ID: "report-2"}, "", nil); err != nil {
			t.Fatalf("通知作成に失敗: %v", err)
		}
		if _, err := s.service.Notify(t.Context(), "visible_type", UserRecipient("user-2"),
			Target{Kind: "report", ID: "report-3"}, "", nil); err != nil {
			t.Fatalf("通知作成に失敗: %v", err)
		}

		w := doRequest(router, http.MethodGet, "/api/v1/notifications", "user-1", nil)

		if w.Code != http.StatusOK {
			t.Fatalf("ステータスコード: got %d, want %d", w.Code, http.StatusOK)
		}
		result := parseJSONArray(t, w)
		if len(result) != 1 {
			t.Fatalf("通知の数: got %d, want 1", len(result))
		}
		if result[0]["type"] != "visible_type" {
			t.Errorf("type: got %v, want visible_type", result[0]["type"])
		}
	})

	t.Run("ユーザーIDが未設定の場合はUnauthorized", func(t *testing.T) {
		t.Parallel()
		_, router := setupTestServer(t)

		w := doRequest(router, http.MethodGet, "/api/v1/notifications", "", nil)

		if w.Code != http.StatusUnauthorized {
			t.Errorf("ステータスコード: got %d, want %d", w.Code, http.StatusUnauthorized)
		}
	})
}

// TestHandleFollowAll は全通知既読化ハンドラのテスト。
func TestHandleFollowAll(t *testing.T) {
	t.Parallel()

	s, router := setupTestServer(t)
	registerTestType(t, s.service, "report_ready", true)

	for _, id := range []string{"report-1", "report-2"} {
		if _, err := s.service.Notify(t.Context(), "report_ready", UserRecipient("user-1"),
			Target{Kind: "report", ID: id}, "", nil); err != nil {
			t.Fatalf("通知作成に失敗: %v", err)
		}
	}

	w := doRequest(router, http.MethodPut, "/api/v1/notifications/follow-all", "user-1", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("ステータスコード: got %d, want %d", w.Code, http.StatusOK)
	}
	result := parseJSON(t, w)
	if result["followed"] != float64(2) {
		t.Errorf("followed: got %v, want 2", result["followed"])
	}

	// 未読一覧が空になったことを確認する
	w2 := doRequest(router, http.MethodGet, "/api/v1/notifications", "user-1", nil)
	unread := parseJSONArray(t, w2)
	if len(unread) != 0 {
		t.Errorf("既読後の未読通知の数: got %d, want 0", len(unread))
	}
}

// TestHandleSearch は通知検索ハンドラのテスト。
func TestHandleSearch(t *testing.T) {
	t.Parallel()

	t.Run("種別と宛先で絞り込める", func(t *testing.T) {
		t.Parallel()
		s, router := setupTestServer(t)
		registerTestType(t, s.service, "report_ready", true)
		registerTestType(t, s.service, "report_failed", true)

		if _, err := s.service.Notify(t.Context(), "report_ready", EmailRecipient("alice@example.com"),
			Target{Kind: "report", ID: "report-1"}, "", nil); err != nil {
			t.Fatalf("通知作成に失敗: %v", err)
		}
		if _, err := s.service.Notify(t.Context(), "report_failed", EmailRecipient("alice@example.com"),
			Target{Kind: "report", ID: "report-2"}, "", nil); err != nil {
			t.Fatalf("通知作成に失敗: %v", err)
		}
		if _, err := s.service.Notify(t.Context(), "report_ready", EmailRecipient("bob@example.com"),
			Target{Kind: "report", ID: "report-3"}, "", nil); err != nil {
			t.Fatalf("通知作成に失敗: %v", err)
		}

		w := doRequest(router, http.MethodGet, "/api/v1/admin/notifications?type=report_ready&recipient_id=alice@example.com", "admin", nil)

		if w.Code != http.StatusOK {
			t.Fatalf("ステータスコード: got %d, want %d", w.Code, http.StatusOK)
		}
		result := parseJSONArray(t, w)
		if len(result) != 1 {
			t.Fatalf("通知の数: got %d, want 1", len(result))
		}
		if result[0]["recipient_id"] != "alice@example.com" {
			t.Errorf("recipient_id: got %v, want alice@example.com", result[0]["recipient_id"])
		}
	})

	t.Run("条件なしの場合は全件を新しい順に返す", func(t *testing.T) {
		t.Parallel()
		s, router := setupTestServer(t)
		registerTestType(t, s.service, "report_ready", true)

		for i := 0; i < 3; i++ {
			if _, err := s.service.Notify(t.Context(), "report_ready", EmailRecipient("alice@example.com"),
				Target{Kind: "report", ID: fmt.Sprintf("report-%d", i)}, "", nil); err != nil {
				t.Fatalf("通知作成に失敗: %v", err)
			}
		}

		w := doRequest(router, http.MethodGet, "/api/v1/admin/notifications", "admin", nil)

		if w.Code != http.StatusOK {
			t.Fatalf("ステータスコード: got %d, want %d", w.Code, http.StatusOK)
		}
		result := parseJSONArray(t, w)
		if len(result) != 3 {
			t.Errorf("通知の数: got %d, want 3", len(result))
		}
	})

	t.Run("limitが不正な場合はBadRequest", func(t *testing.T) {
		t.Parallel()
		_, router := setupTestServer(t)

		w := doRequest(router, http.MethodGet, "/api/v1/admin/notifications?limit=0", "admin", nil)

		if w.Code != http.StatusBadRequest {
			t.Errorf("ステータスコード: got %d, want %d", w.Code, http.StatusBadRequest)
		}
	})
}

// TestHandleDeleteTarget は対象単位の通知削除ハンドラのテスト。
func TestHandleDeleteTarget(t *testing.T) {
	t.Parallel()

	s, router := setupTestServer(t)
	registerTestType(t, s.service, "report_ready", true)

	if _, err := s.service.Notify(t.Context(), "report_ready", EmailRecipient("alice@example.com"),
		Target{Kind: "report", ID: "report-1"}, "", nil); err != nil {
		t.Fatalf("通知作成に失敗: %v", err)
	}
	if _, err := s.service.Notify(t.Context(), "report_ready", UserRecipient("user-1"),
		Target{Kind: "report", ID: "report-1"}, "", nil); err != nil {
		t.Fatalf("通知作成に失敗: %v", err)
	}

	w := doRequest(router, http.MethodDelete, "/api/v1/internal/targets/report/report-1", "system", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("ステータスコード: got %d, want %d", w.Code, http.StatusOK)
	}
	result := parseJSON(t, w)
	if result["deleted"] != float64(2) {
		t.Errorf("deleted: got %v, want 2", result["deleted"])
	}
}
