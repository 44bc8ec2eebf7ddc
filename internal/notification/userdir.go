package notification

import (
	"context"
	"fmt"
	"net/url"

	"github.com/nao1215/notify/pkg/httpclient"
)

// User はユーザーディレクトリサービスが返すユーザー情報。
type User struct {
	// ID はユーザーID。
	ID string `json:"id"`
	// Name はユーザーの表示名。
	Name string `json:"name"`
	// Email はユーザーのメールアドレス。
	Email string `json:"email"`
}

// UserDirectory はユーザーディレクトリサービスへの問い合わせを行う。
type UserDirectory struct {
	// client はユーザーディレクトリサービスへのHTTPクライアント。
	client *httpclient.Client
}

// NewUserDirectory は新しいUserDirectoryを生成する。
func NewUserDirectory(baseURL string) *UserDirectory {
	return &UserDirectory{client: httpclient.New(baseURL)}
}

// GetByID はユーザーIDでユーザー情報を取得する。
func (d *UserDirectory) GetByID(ctx context.Context, userID string) (*User, error) {
	var user User
	if err := d.client.GetJSON(ctx, "/api/v1/users/"+url.PathEscape(userID), &user); err != nil {
		return nil, fmt.Errorf("ユーザー情報の取得に失敗: %w", err)
	}
	return &user, nil
}

// GetByEmail はメールアドレスでユーザー情報を取得する。
func (d *UserDirectory) GetByEmail(ctx context.Context, email string) (*User, error) {
	var user User
	if err := d.client.GetJSON(ctx, "/api/v1/users/by-email/"+url.PathEscape(email), &user); err != nil {
		return nil, fmt.Errorf("ユーザー情報の取得に失敗: %w", err)
	}
	return &user, nil
}
