package model

import "time"

// 認証まわりのイベント種別
type AuthEventType string

const (
	AuthEventSignup         AuthEventType = "user.registered"
	AuthEventLogin          AuthEventType = "session.login"
	AuthEventRefreshed      AuthEventType = "session.refreshed"
	AuthEventRefreshRevoked AuthEventType = "session.refresh_rejected"
	AuthEventLogout         AuthEventType = "session.logout"
)

// キューに流すイベント（トークンやパスワードは載せない）
type AuthEvent struct {
	Type   AuthEventType `json:"type"`
	UserID string        `json:"userId"`
	At     time.Time     `json:"at"`
}
