package model

import (
	"time"
)

// A Session represents a database record.
type Session struct {
	Base `msgpack:",inline" storm:"inline"`

	ExpireAt    time.Time `json:"expire_at"    msgpack:"expire_at"`
	UserID      int64     `json:"user_id"      msgpack:"user_id"      storm:"index"`
	UserAgent   string    `json:"user_agent"   msgpack:"user_agent"`
	AccessToken string    `json:"access_token" msgpack:"access_token" storm:"unique"`
}

// IsExpired returns true if the session is no longer usable at the given time.
func (s *Session) IsExpired(t time.Time) bool {
	return !s.ExpireAt.After(t)
}
