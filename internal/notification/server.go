package notification

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	_ "modernc.org/sqlite"

	notificationdb "github.com/nao1215/notify/internal/notification/db"
	"github.com/nao1215/notify/pkg/httpclient"
	"github.com/nao1215/notify/pkg/mailer"
	"github.com/nao1215/notify/pkg/middleware"
)

// Server は通知サービスのHTTPサーバー。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	// port はサーバーのリッスンポート。
	port string
	// service は通知のアプリケーションサービス。
	service *Service
	// db はSQLiteデータベース接続。
	db *sql.DB
	// jwtSecret はJWT検証用の共有シークレット。
	jwtSecret string
}

// NewServer は新しい通知サーバーを生成する。
// SQLiteデータベースの初期化とスキーマ作成を行う。
func NewServer(port string) (*Server, error) {
	dbPath := getEnvOr("NOTIFY_DB_PATH", "/data/notify.db")
	sqlDB, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("データベース接続に失敗: %w", err)
	}

	if err := InitSchema(sqlDB); err != nil {
		return nil, fmt.Errorf("スキーマ初期化に失敗: %w", err)
	}

	var sender mailer.Mailer
	if smtpAddr := os.Getenv("SMTP_ADDR"); smtpAddr != "" {
		sender = mailer.NewSMTPMailer(
			smtpAddr,
			getEnvOr("MAIL_FROM", "no-reply@localhost"),
			os.Getenv("SMTP_USER"),
			os.Getenv("SMTP_PASSWORD"),
		)
	}
	renderer := mailer.NewRenderer(os.Getenv("MAIL_TEMPLATE_DIR"), os.Getenv("EMAIL_SUBJECT_PREFIX"))

	var userDir *UserDirectory
	if userDirURL := os.Getenv("USERDIR_URL"); userDirURL != "" {
		userDir = NewUserDirectory(userDirURL)
	}

	service := NewService(
		notificationdb.New(sqlDB),
		sender,
		renderer,
		userDir,
		httpclient.New(getEnvOr("EVENTSTORE_URL", "http://localhost:8084")),
		getEnvOr("BASE_URL", "http://localhost:8087"),
	)

	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.CORS([]string{getEnvOr("FRONTEND_URL", "http://localhost:3000")}))

	s := &Server{
		router:    router,
		port:      port,
		service:   service,
		db:        sqlDB,
		jwtSecret: getEnvOr("JWT_SECRET", "dev-secret-key"),
	}
	s.setupRoutes()

	return s, nil
}

// Run はHTTPサーバーを起動する。
func (s *Server) Run() error {
	return s.router.Run(fmt.Sprintf(":%s", s.port))
}

// setupRoutes はAPIルーティングを設定する。
func (s *Server) setupRoutes() {
	// 通知フォロー（メール内リンクから認証なしでもアクセスされる）
	s.router.GET("/notifications/:uuid/follow", s.handleFollow())

	api := s.router.Group("/api/v1")
	api.Use(middleware.JWTAuth(s.jwtSecret))
	{
		notifications := api.Group("/notifications")
		{
			// 未読通知一覧取得
			notifications.GET("", s.handleListUnread())
			// 全通知を既読にする
			notifications.PUT("/follow-all", s.handleFollowAll())
		}

		admin := api.Group("/admin")
		{
			// 通知の検索（管理用）
			admin.GET("/notifications", s.handleSearch())
		}

		// 内部API - 他サービスから呼び出される
		internal := api.Group("/internal")
		{
			// 通知作成
			internal.POST("/notify", s.handleNotify())
			// 重複を避けた通知作成
			internal.POST("/notify-if-absent", s.handleNotifyIfAbsent())
			// 締切前リマインド
			internal.POST("/remind", s.handleRemind())
			// 通知種別の一覧取得
			internal.GET("/types", s.handleListTypes())
			// 通知種別の登録・更新
			internal.PUT("/types/:name", s.handleRegisterType())
			// 対象に紐づく通知の削除
			internal.DELETE("/targets/:kind/:id", s.handleDeleteTarget())
		}
	}

	// ヘルスチェック
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "notification"})
	})
}

// recipientRequest は通知宛先のJSON構造。emailかuser_idのどちらか一方のみを指定する。
type recipientRequest struct {
	// Email はメールアドレス宛の場合の宛先アドレス。
	Email string `json:"email"`
	// UserID はユーザー宛の場合のユーザーID。
	UserID string `json:"user_id"`
}

// toRecipient はリクエストの宛先指定をRecipientに変換する。
// 両方指定・両方未指定はErrInvalidRecipientを返す。
func (r recipientRequest) toRecipient() (Recipient, error) {
	switch {
	case r.Email != "" && r.UserID != "":
		return Recipient{}, ErrInvalidRecipient
	case r.Email != "":
		return EmailRecipient(r.Email), nil
	case r.UserID != "":
		return UserRecipient(r.UserID), nil
	default:
		return Recipient{}, ErrInvalidRecipient
	}
}

// notifyRequest は通知作成リクエストのJSON構造。
type notifyRequest struct {
	// Type は通知種別の名前。
	Type string `json:"type" binding:"required"`
	// Recipient は通知の宛先。
	Recipient recipientRequest `json:"recipient" binding:"required"`
	// TargetKind は通知対象エンティティの種類タグ。
	TargetKind string `json:"target_kind" binding:"required"`
	// TargetID は通知対象エンティティの識別子。
	TargetID string `json:"target_id" binding:"required"`
	// Link は通知のフォロー後に遷移するURL。
	Link string `json:"link"`
	// Extra はメールテンプレートに渡す追加コンテキスト。
	Extra map[string]any `json:"extra"`
}

// remindRequest は締切前リマインドリクエストのJSON構造。
type remindRequest struct {
	// Deadline は締切日（"2006-01-02"形式）。
	Deadline string `json:"deadline" binding:"required"`
	// LeadTimeDays は締切の何日前にリマインドするかの一覧。
	LeadTimeDays []int `json:"lead_time_days" binding:"required"`
	// Type は通知種別の名前。
	Type string `json:"type" binding:"required"`
	// Recipient は通知の宛先。
	Recipient recipientRequest `json:"recipient" binding:"required"`
	// TargetKind は通知対象エンティティの種類タグ。
	TargetKind string `json:"target_kind" binding:"required"`
	// TargetID は通知対象エンティティの識別子。
	TargetID string `json:"target_id" binding:"required"`
	// Link は通知のフォロー後に遷移するURL。
	Link string `json:"link"`
	// Extra はメールテンプレートに渡す追加コンテキスト。
	Extra map[string]any `json:"extra"`
}

// registerTypeRequest は通知種別登録リクエストのJSON構造。
type registerTypeRequest struct {
	// Level は通知の重要度（info/attention/success/warning/error）。
	Level string `json:"level" binding:"required"`
	// Display はサイト上の未読一覧に表示するかどうか。
	Display bool `json:"display"`
}

// notificationResponse は通知のJSONレスポンス構造。
type notificationResponse struct {
	// UUID は通知の一意識別子。
	UUID string `json:"uuid"`
	// Type は通知種別の名前。
	Type string `json:"type"`
	// RecipientKind は宛先の種類（"email" または "user"）。
	RecipientKind string `json:"recipient_kind"`
	// RecipientID は宛先の識別子。
	RecipientID string `json:"recipient_id"`
	// TargetKind は通知対象エンティティの種類タグ。
	TargetKind string `json:"target_kind"`
	// TargetID は通知対象エンティティの識別子。
	TargetID string `json:"target_id"`
	// Link は通知のフォロー後に遷移するURL。
	Link string `json:"link"`
	// FollowLink は通知のフォロー用URL。
	FollowLink string `json:"follow_link"`
	// CreatedAt は通知の作成日時（RFC3339形式）。
	CreatedAt string `json:"created_at"`
	// FollowedAt はフォローされた日時（RFC3339形式）。未フォローの場合は空。
	FollowedAt string `json:"followed_at,omitempty"`
}

// toNotificationResponse はDB行をJSONレスポンスに変換する。
func (s *Server) toNotificationResponse(n notificationdb.Notification) notificationResponse {
	resp := notificationResponse{
		UUID:          n.ID,
		Type:          n.TypeName,
		RecipientKind: n.RecipientKind,
		RecipientID:   n.RecipientID,
		TargetKind:    n.TargetKind,
		TargetID:      n.TargetID,
		Link:          n.Link,
		FollowLink:    s.service.FollowLink(n.ID),
		CreatedAt:     n.CreatedAt.Format(time.RFC3339),
	}
	if n.FollowedAt.Valid {
		resp.FollowedAt = n.FollowedAt.Time.Format(time.RFC3339)
	}
	return resp
}

// toNotificationResponses はDB行のスライスをJSONレスポンスのスライスに変換する。
func (s *Server) toNotificationResponses(notifications []notificationdb.Notification) []notificationResponse {
	responses := make([]notificationResponse, 0, len(notifications))
	for _, n := range notifications {
		responses = append(responses, s.toNotificationResponse(n))
	}
	return responses
}

// handleFollow は通知をフォローしてリンク先にリダイレクトするハンドラ。
// メール内リンクからのアクセスを想定し、認証ヘッダーは任意とする。
func (s *Server) handleFollow() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("uuid")
		viewerID := middleware.UserIDFromAuthHeader(s.jwtSecret, c.GetHeader("Authorization"))

		n, err := s.service.Follow(c.Request.Context(), id, viewerID)
		if err != nil {
			if errors.Is(err, ErrNotificationNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "通知が見つかりません"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "通知のフォローに失敗しました"})
			log.Printf("通知フォローエラー: %v", err)
			return
		}

		if n.Link == "" {
			c.JSON(http.StatusOK, s.toNotificationResponse(*n))
			return
		}
		c.Redirect(http.StatusFound, n.Link)
	}
}

// handleListUnread は認証済みユーザーの未読かつ表示対象の通知一覧を返すハンドラ。
func (s *Server) handleListUnread() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := middleware.GetUserID(c)
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "ユーザーIDが取得できません"})
			return
		}

		notifications, err := s.service.ListUnfollowed(c.Request.Context(), userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "未読通知一覧の取得に失敗しました"})
			log.Printf("未読通知一覧取得エラー: %v", err)
			return
		}

		c.JSON(http.StatusOK, s.toNotificationResponses(notifications))
	}
}

// handleFollowAll は認証済みユーザーの全通知を既読にするハンドラ。
func (s *Server) handleFollowAll() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := middleware.GetUserID(c)
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "ユーザーIDが取得できません"})
			return
		}

		affected, err := s.service.FollowAll(c.Request.Context(), userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "全通知の既読処理に失敗しました"})
			log.Printf("全通知既読処理エラー: %v", err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"followed": affected})
	}
}

// handleSearch は通知種別と宛先IDで通知を検索するハンドラ（管理用）。
func (s *Server) handleSearch() gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, err := strconv.ParseInt(c.DefaultQuery("limit", "50"), 10, 64)
		if err != nil || limit < 1 || limit > 200 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limitが不正です"})
			return
		}
		offset, err := strconv.ParseInt(c.DefaultQuery("offset", "0"), 10, 64)
		if err != nil || offset < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "offsetが不正です"})
			return
		}

		notifications, err := s.service.Search(c.Request.Context(), c.Query("type"), c.Query("recipient_id"), limit, offset)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "通知の検索に失敗しました"})
			log.Printf("通知検索エラー: %v", err)
			return
		}

		c.JSON(http.StatusOK, s.toNotificationResponses(notifications))
	}
}

// handleNotify は通知を作成するハンドラ（内部API）。
func (s *Server) handleNotify() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req notifyRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("リクエストが不正です: %v", err)})
			return
		}

		rcpt, err := req.Recipient.toRecipient()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		n, err := s.service.Notify(c.Request.Context(), req.Type, rcpt, Target{Kind: req.TargetKind, ID: req.TargetID}, req.Link, req.Extra)
		if err != nil {
			s.writeNotifyError(c, err)
			return
		}

		c.JSON(http.StatusCreated, s.toNotificationResponse(*n))
	}
}

// handleNotifyIfAbsent は同一の通知が存在しない場合のみ通知を作成するハンドラ（内部API）。
// すでに存在する場合は201ではなく200を返す。
func (s *Server) handleNotifyIfAbsent() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req notifyRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("リクエストが不正です: %v", err)})
			return
		}

		rcpt, err := req.Recipient.toRecipient()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		n, err := s.service.NotifyIfAbsent(c.Request.Context(), req.Type, rcpt, Target{Kind: req.TargetKind, ID: req.TargetID}, req.Link, req.Extra)
		if err != nil {
			s.writeNotifyError(c, err)
			return
		}
		if n == nil {
			c.JSON(http.StatusOK, gin.H{"message": "同一の通知がすでに存在します"})
			return
		}

		c.JSON(http.StatusCreated, s.toNotificationResponse(*n))
	}
}

// handleRemind は締切前リマインド通知を作成するハンドラ（内部API）。
// ウィンドウ外またはウィンドウ内で通知済みの場合は200を返し、通知を作成した場合は201を返す。
func (s *Server) handleRemind() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req remindRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("リクエストが不正です: %v", err)})
			return
		}

		deadline, err := time.Parse("2006-01-02", req.Deadline)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("締切日が不正です: %v", err)})
			return
		}

		leadTimes := make([]time.Duration, 0, len(req.LeadTimeDays))
		for _, days := range req.LeadTimeDays {
			if days < 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "lead_time_daysに負の値は指定できません"})
				return
			}
			leadTimes = append(leadTimes, time.Duration(days)*24*time.Hour)
		}

		rcpt, err := req.Recipient.toRecipient()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		n, err := s.service.RemindBeforeDeadline(c.Request.Context(), deadline, leadTimes, req.Type, rcpt, Target{Kind: req.TargetKind, ID: req.TargetID}, req.Link, req.Extra)
		if err != nil {
			s.writeNotifyError(c, err)
			return
		}
		if n == nil {
			c.JSON(http.StatusOK, gin.H{"message": "リマインド対象外のため通知を作成しませんでした"})
			return
		}

		c.JSON(http.StatusCreated, s.toNotificationResponse(*n))
	}
}

// handleListTypes は登録済みの通知種別一覧を返すハンドラ（内部API）。
func (s *Server) handleListTypes() gin.HandlerFunc {
	return func(c *gin.Context) {
		types, err := s.service.ListTypes(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "通知種別一覧の取得に失敗しました"})
			log.Printf("通知種別一覧取得エラー: %v", err)
			return
		}

		responses := make([]gin.H, 0, len(types))
		for _, typ := range types {
			responses = append(responses, gin.H{
				"name":    typ.Name,
				"level":   typ.Level,
				"display": typ.Display == 1,
			})
		}
		c.JSON(http.StatusOK, responses)
	}
}

// handleRegisterType は通知種別を登録・更新するハンドラ（内部API）。
func (s *Server) handleRegisterType() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req registerTypeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("リクエストが不正です: %v", err)})
			return
		}

		typ, err := s.service.RegisterType(c.Request.Context(), c.Param("name"), Level(req.Level), req.Display)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			log.Printf("通知種別登録エラー: %v", err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"name":    typ.Name,
			"level":   typ.Level,
			"display": typ.Display == 1,
		})
	}
}

// handleDeleteTarget は対象に紐づく通知をすべて削除するハンドラ（内部API）。
func (s *Server) handleDeleteTarget() gin.HandlerFunc {
	return func(c *gin.Context) {
		affected, err := s.service.DeleteTarget(c.Request.Context(), Target{
			Kind: c.Param("kind"),
			ID:   c.Param("id"),
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "通知の削除に失敗しました"})
			log.Printf("通知削除エラー: %v", err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"deleted": affected})
	}
}

// writeNotifyError は通知作成系ハンドラの共通エラーレスポンスを書き込む。
func (s *Server) writeNotifyError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInvalidRecipient):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, ErrTypeNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "通知の作成に失敗しました"})
		log.Printf("通知作成エラー: %v", err)
	}
}

// getEnvOr は環境変数を取得し、設定されていない場合はデフォルト値を返す。
func getEnvOr(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}
