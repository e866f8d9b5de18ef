package test

import (
	"testing"

	"github.com/SafeMPC/mint-service/internal/api"
	"github.com/SafeMPC/mint-service/internal/api/router"
	"github.com/SafeMPC/mint-service/internal/auth"
	"github.com/SafeMPC/mint-service/internal/config"
	"github.com/SafeMPC/mint-service/internal/infra/storage"
	"github.com/SafeMPC/mint-service/internal/infra/webauthn"
	"github.com/SafeMPC/mint-service/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

const (
	TestJWTSecret = "test-secret"
	TestJWTIssuer = "mint-service-test"
)

// WithTestServer 使用内存存储构建服务并执行 closure；s.Store 为 *storage.MemoryStore
func WithTestServer(t *testing.T, mintService api.MintService, closure func(s *api.Server)) {
	t.Helper()

	cfg := config.DefaultServiceConfigFromEnv()
	WithTestServerConfigurable(t, cfg, mintService, closure)
}

// WithTestServerConfigurable 同 WithTestServer，可自定义配置
func WithTestServerConfigurable(t *testing.T, cfg config.Server, mintService api.MintService, closure func(s *api.Server)) {
	t.Helper()

	cfg.Auth.JWTSecret = TestJWTSecret
	cfg.Auth.JWTIssuer = TestJWTIssuer

	clock := api.NewClock(t)
	store := storage.NewMemoryStore(clock)
	registry := prometheus.NewRegistry()

	s := api.NewServer(cfg)
	s.Clock = clock
	s.Registry = registry
	s.Metrics = metrics.New(registry)
	s.Store = store
	s.Challenges = store
	s.JWT = auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer)
	s.Mint = mintService

	passkeys, err := webauthn.NewService(cfg.WebAuthn, store, store, clock)
	require.NoError(t, err)
	s.Passkeys = passkeys

	router.Init(s)

	closure(s)
}
