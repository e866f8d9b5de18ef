package webauthn

import (
	"github.com/go-webauthn/webauthn/webauthn"
	"github.com/pkg/errors"
)

var (
	// ErrUnknownUser 用户不存在
	ErrUnknownUser = errors.New("unknown user")
	// ErrSessionNotFound 注册会话不存在或已过期
	ErrSessionNotFound = errors.New("registration session not found")
	// ErrInvalidCredential 注册响应未通过校验
	ErrInvalidCredential = errors.New("invalid passkey credential")
	// ErrPasskeyExists 凭证已注册
	ErrPasskeyExists = errors.New("passkey already registered")
)

const sessionIdentifierPrefix = "passkey-registration"

// User 实现 webauthn.User 接口
type User struct {
	ID          string
	Credentials []webauthn.Credential
}

// WebAuthnID 返回用户 ID
func (u *User) WebAuthnID() []byte {
	return []byte(u.ID)
}

// WebAuthnName 返回用户名
func (u *User) WebAuthnName() string {
	return u.ID
}

// WebAuthnDisplayName 返回显示名称
func (u *User) WebAuthnDisplayName() string {
	return u.ID
}

// WebAuthnCredentials 返回用户的凭证列表
func (u *User) WebAuthnCredentials() []webauthn.Credential {
	return u.Credentials
}

func sessionIdentifier(userID, challenge string) string {
	return sessionIdentifierPrefix + ":" + userID + ":" + challenge
}
