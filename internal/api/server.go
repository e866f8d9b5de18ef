package api

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/SafeMPC/mint-service/internal/auth"
	"github.com/SafeMPC/mint-service/internal/config"
	"github.com/SafeMPC/mint-service/internal/discovery"
	"github.com/SafeMPC/mint-service/internal/infra/mint"
	"github.com/SafeMPC/mint-service/internal/infra/storage"
	"github.com/SafeMPC/mint-service/internal/metrics"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/dropbox/godropbox/time2"
	"github.com/go-webauthn/webauthn/protocol"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// MintService NFT 领取
type MintService interface {
	Claim(ctx context.Context, req mint.ClaimRequest) (*mint.ClaimResult, error)
}

// PasskeyService passkey 注册
type PasskeyService interface {
	BeginRegistration(ctx context.Context, userID string) (*protocol.CredentialCreation, error)
	FinishRegistration(ctx context.Context, userID string, response *protocol.ParsedCredentialCreationData) (*storage.Passkey, error)
}

// Router 路由分组
type Router struct {
	Routes        []*echo.Route
	Root          *echo.Group
	Management    *echo.Group
	APIV1NFTs     *echo.Group
	APIV1Passkeys *echo.Group
}

// Server 服务实例及其依赖
type Server struct {
	Config     config.Server
	Echo       *echo.Echo
	Router     *Router
	DB         *sql.DB
	Redis      *redis.Client
	Clock      time2.Clock
	Registry   *prometheus.Registry
	Metrics    *metrics.Metrics
	Store      storage.MetadataStore
	Challenges storage.ChallengeStore
	JWT        *auth.JWTManager
	Mint       MintService
	Passkeys   PasskeyService
	Events     message.Publisher
	Discovery  discovery.ServiceDiscovery

	registration *discovery.ServiceInfo
}

// NewServer 创建只带配置的服务实例，组件由 wire 或测试注入
func NewServer(config config.Server) *Server {
	return &Server{
		Config: config,
	}
}

func newServerWithComponents(
	cfg config.Server,
	db *sql.DB,
	redisClient *redis.Client,
	clock time2.Clock,
	registry *prometheus.Registry,
	m *metrics.Metrics,
	store storage.MetadataStore,
	challenges storage.ChallengeStore,
	jwt *auth.JWTManager,
	mintService MintService,
	passkeys PasskeyService,
	events message.Publisher,
	serviceDiscovery discovery.ServiceDiscovery,
) *Server {
	s := NewServer(cfg)
	s.DB = db
	s.Redis = redisClient
	s.Clock = clock
	s.Registry = registry
	s.Metrics = m
	s.Store = store
	s.Challenges = challenges
	s.JWT = jwt
	s.Mint = mintService
	s.Passkeys = passkeys
	s.Events = events
	s.Discovery = serviceDiscovery
	return s
}

// Ready 组件是否已初始化
func (s *Server) Ready() bool {
	return s.Echo != nil &&
		s.Router != nil &&
		s.Store != nil &&
		s.Challenges != nil &&
		s.JWT != nil &&
		s.Mint != nil &&
		s.Passkeys != nil
}

type pinger interface {
	Ping(ctx context.Context) error
}

// CheckDependencies 检查存储依赖的连通性，返回各项结果
func (s *Server) CheckDependencies(ctx context.Context) (map[string]string, bool) {
	checks := map[string]string{}
	healthy := true

	probe := func(name string, p interface{}) {
		target, ok := p.(pinger)
		if !ok || target == nil {
			return
		}
		if err := target.Ping(ctx); err != nil {
			checks[name] = err.Error()
			healthy = false
			return
		}
		checks[name] = "ok"
	}

	probe("database", s.Store)
	probe("challenges", s.Challenges)

	return checks, healthy
}

// Start 启动 HTTP 服务（阻塞）
func (s *Server) Start() error {
	if !s.Ready() {
		return errors.New("server is not ready")
	}
	return s.Echo.Start(s.Config.Echo.ListenAddress)
}

// RegisterService 在 Consul 中注册当前实例，健康检查指向 /-/ready
func (s *Server) RegisterService(ctx context.Context) error {
	if s.Discovery == nil {
		return nil
	}

	host, portStr, err := net.SplitHostPort(s.Config.Echo.ListenAddress)
	if err != nil {
		return errors.Wrapf(err, "invalid listen address %s", s.Config.Echo.ListenAddress)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return errors.Wrapf(err, "invalid listen port %s", portStr)
	}
	if host == "" {
		if host, err = os.Hostname(); err != nil {
			return errors.Wrap(err, "failed to resolve hostname")
		}
	}

	info := &discovery.ServiceInfo{
		ID:      fmt.Sprintf("mint-service-%s-%d", host, port),
		Name:    "mint-service",
		Address: host,
		Port:    port,
		Tags:    []string{"http"},
		Check: &discovery.HealthCheck{
			Type:                           "http",
			Interval:                       10 * time.Second,
			Timeout:                        2 * time.Second,
			DeregisterCriticalServiceAfter: time.Minute,
			Path:                           "/-/ready",
		},
	}
	if err := s.Discovery.Register(ctx, info); err != nil {
		return err
	}
	s.registration = info
	return nil
}

// Shutdown 依次关闭各组件，返回所有错误
func (s *Server) Shutdown(ctx context.Context) []error {
	log.Warn().Msg("Shutting down server")

	var errs []error

	if s.Echo != nil {
		if err := s.Echo.Shutdown(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("Failed to shutdown HTTP server")
			errs = append(errs, err)
		}
	}

	if s.Discovery != nil && s.registration != nil {
		if err := s.Discovery.Deregister(ctx, s.registration.ID); err != nil {
			log.Error().Err(err).Msg("Failed to deregister service")
			errs = append(errs, err)
		}
	}

	if s.Events != nil {
		if err := s.Events.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close event publisher")
			errs = append(errs, err)
		}
	}

	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close redis client")
			errs = append(errs, err)
		}
	}

	if s.DB != nil {
		if err := s.DB.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close database connection")
			errs = append(errs, err)
		}
	}

	return errs
}
