package main

import (
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/SafeMPC/mint-service/internal/auth"
	"github.com/SafeMPC/mint-service/internal/config"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// 为本地调试签发访问令牌（读取 MINT_AUTH_JWT_SECRET / MINT_AUTH_JWT_ISSUER）
func main() {
	cfg := config.DefaultServiceConfigFromEnv()

	userID := flag.String("user", "", "User id placed in the sub claim")
	ttl := flag.Duration("ttl", 24*time.Hour, "Token lifetime")
	scopes := flag.String("scopes", "", "Comma separated scopes")
	flag.Parse()

	if *userID == "" {
		log.Fatal().Msg("-user is required")
	}

	manager, err := newManager(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create JWT manager")
	}

	var scopeList []string
	if *scopes != "" {
		scopeList = strings.Split(*scopes, ",")
	}

	token, err := manager.Generate(*userID, *ttl, scopeList...)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to sign token")
	}
	fmt.Println(token)
}

func newManager(cfg config.Server) (*auth.JWTManager, error) {
	if cfg.Auth.JWTSecret == "" {
		return nil, errors.New("auth.jwt_secret is not configured")
	}
	return auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer), nil
}
