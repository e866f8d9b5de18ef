package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

// ErrInvalidToken 令牌无效或已过期
var ErrInvalidToken = errors.New("invalid token")

// Claims API 令牌声明
type Claims struct {
	jwt.RegisteredClaims
	Scopes []string `json:"scopes,omitempty"`
}

// JWTManager HS256 令牌签发与校验
type JWTManager struct {
	secret []byte
	issuer string
}

// NewJWTManager 创建令牌管理器
func NewJWTManager(secret, issuer string) *JWTManager {
	return &JWTManager{secret: []byte(secret), issuer: issuer}
}

// Generate 为用户签发令牌
func (m *JWTManager) Generate(userID string, ttl time.Duration, scopes ...string) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    m.issuer,
			Subject:   userID,
		},
		Scopes: scopes,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", errors.Wrap(err, "failed to sign token")
	}
	return signed, nil
}

// Validate 校验令牌并返回鉴权结果
func (m *JWTManager) Validate(token string) (*Result, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !parsed.Valid {
		return nil, errors.Wrapf(ErrInvalidToken, "%v", err)
	}
	if claims.Subject == "" {
		return nil, errors.Wrap(ErrInvalidToken, "missing subject")
	}

	return &Result{
		Token:      token,
		UserID:     claims.Subject,
		ValidUntil: claims.ExpiresAt.Time,
		Scopes:     claims.Scopes,
	}, nil
}
