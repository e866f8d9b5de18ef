package auth

import (
	"time"
)

// Result 鉴权结果
type Result struct {
	Token      string
	UserID     string
	ValidUntil time.Time
	Scopes     []string
}
