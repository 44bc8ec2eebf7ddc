package notification

import "errors"

// Level は通知種別の重要度を表す。
type Level string

const (
	// LevelInfo は情報レベルの通知。
	LevelInfo Level = "info"
	// LevelAttention は注意レベルの通知。
	LevelAttention Level = "attention"
	// LevelSuccess は成功レベルの通知。
	LevelSuccess Level = "success"
	// LevelWarning は警告レベルの通知。
	LevelWarning Level = "warning"
	// LevelError はエラーレベルの通知。
	LevelError Level = "error"
)

// Valid はレベルが定義済みの値かどうかを返す。
func (l Level) Valid() bool {
	switch l {
	case LevelInfo, LevelAttention, LevelSuccess, LevelWarning, LevelError:
		return true
	}
	return false
}

// RecipientKind は通知の宛先の種類を表す。
type RecipientKind string

const (
	// RecipientKindEmail はメールアドレス宛の通知。
	RecipientKindEmail RecipientKind = "email"
	// RecipientKindUser はユーザーID宛の通知。
	RecipientKindUser RecipientKind = "user"
)

// Recipient は通知の宛先。メールアドレスかユーザーIDのどちらか一方のみを持つ。
type Recipient struct {
	kind RecipientKind
	id   string
}

// EmailRecipient はメールアドレス宛のRecipientを生成する。
func EmailRecipient(addr string) Recipient {
	return Recipient{kind: RecipientKindEmail, id: addr}
}

// UserRecipient はユーザーID宛のRecipientを生成する。
func UserRecipient(userID string) Recipient {
	return Recipient{kind: RecipientKindUser, id: userID}
}

// Kind は宛先の種類を返す。
func (r Recipient) Kind() RecipientKind { return r.kind }

// ID は宛先の識別子(メールアドレスまたはユーザーID)を返す。
func (r Recipient) ID() string { return r.id }

// Valid は宛先が正しく構築されているかどうかを返す。
func (r Recipient) Valid() bool {
	if r.id == "" {
		return false
	}
	return r.kind == RecipientKindEmail || r.kind == RecipientKindUser
}

// Target は通知の対象となるリソースを種別と識別子で表す。
type Target struct {
	Kind string
	ID   string
}

var (
	// ErrInvalidRecipient は宛先の指定が不正な場合のエラー。
	ErrInvalidRecipient = errors.New("通知の宛先はメールアドレスかユーザーIDのどちらか一方を指定してください")
	// ErrTypeNotFound は通知種別が登録されていない場合のエラー。
	ErrTypeNotFound = errors.New("通知種別が見つかりません")
	// ErrNotificationNotFound は通知が存在しない場合のエラー。
	ErrNotificationNotFound = errors.New("通知が見つかりません")
)
